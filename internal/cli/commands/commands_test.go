// Package commands_test provides tests for CLI command creation.
package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestNewDoctorCommand(t *testing.T) {
	cmd := NewDoctorCommand()

	assert.Equal(t, "doctor [path]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("format"), "flag %q should exist", "format")
}

func TestCommandNamesAreUnique(t *testing.T) {
	cmds := []*cobra.Command{
		NewVersionCommand("0.0.0-test"),
		NewCheckCommand(),
		NewRulesCommand(),
		NewGraphCommand(),
		NewExploreCommand(),
		NewDoctorCommand(),
		NewPolicyCommand(),
		NewInitCommand(),
	}

	seen := make(map[string]bool)
	for _, cmd := range cmds {
		name := cmd.Name()
		assert.False(t, seen[name], "duplicate command name %q", name)
		seen[name] = true
		assert.NotEmpty(t, cmd.Short, "%s: Short should not be empty", name)
		assert.NotEmpty(t, cmd.Long, "%s: Long should not be empty", name)
	}
}
