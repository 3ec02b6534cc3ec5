package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerlint/layerlint/internal/cli/config"
	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/layerlint/layerlint/internal/cli/testutil"
	"github.com/layerlint/layerlint/internal/policy"
	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func TestNewCheckCommand(t *testing.T) {
	cmd := NewCheckCommand()

	assert.Equal(t, "check [path]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// Verify flags exist
	flags := []string{"format", "disable", "rule", "severity", "strict", "watch", "cache"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestBuildCheckEngineConfig(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	pol := policy.Default()

	t.Run("empty options", func(t *testing.T) {
		cfg := &config.Config{}
		engineCfg, err := buildCheckEngineConfig(cfg, pol, logger, &CheckOptions{})

		require.NoError(t, err)
		assert.Empty(t, engineCfg.DisabledRules)
		assert.Empty(t, engineCfg.StatePath)
		assert.Same(t, pol, engineCfg.Policy)
	})

	t.Run("merges config and flag disables", func(t *testing.T) {
		cfg := &config.Config{Check: config.CheckConfig{Disable: []string{"NM01"}}}
		opts := &CheckOptions{Disable: []string{" ST01 "}}

		engineCfg, err := buildCheckEngineConfig(cfg, pol, logger, opts)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"NM01", "ST01"}, engineCfg.DisabledRules)
	})

	t.Run("rule selection disables the rest", func(t *testing.T) {
		opts := &CheckOptions{Rules: []string{"DP01"}}

		engineCfg, err := buildCheckEngineConfig(&config.Config{}, pol, logger, opts)
		require.NoError(t, err)

		disabled := make(map[string]bool)
		for _, id := range engineCfg.DisabledRules {
			disabled[id] = true
		}
		assert.False(t, disabled["DP01"])
		for _, def := range conformance.GetAll() {
			if def.ID != "DP01" {
				assert.True(t, disabled[def.ID], "rule %q should be disabled", def.ID)
			}
		}
	})

	t.Run("severity overrides decode", func(t *testing.T) {
		cfg := &config.Config{Check: config.CheckConfig{Severity: map[string]string{"SZ01": "error"}}}

		engineCfg, err := buildCheckEngineConfig(cfg, pol, logger, &CheckOptions{})

		require.NoError(t, err)
		assert.Equal(t, core.SeverityError, engineCfg.SeverityOverrides["SZ01"])
	})

	t.Run("invalid severity override fails", func(t *testing.T) {
		cfg := &config.Config{Check: config.CheckConfig{Severity: map[string]string{"SZ01": "fatal"}}}

		_, err := buildCheckEngineConfig(cfg, pol, logger, &CheckOptions{})
		assert.Error(t, err)
	})

	t.Run("cache wires the state path", func(t *testing.T) {
		statePath := filepath.Join(t.TempDir(), ".layerlint", "state.db")
		cfg := &config.Config{StatePath: statePath}
		opts := &CheckOptions{Cache: true}

		engineCfg, err := buildCheckEngineConfig(cfg, pol, logger, opts)

		require.NoError(t, err)
		assert.Equal(t, statePath, engineCfg.StatePath)
		info, statErr := os.Stat(filepath.Dir(statePath))
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	})
}

func TestFilterBySeverity(t *testing.T) {
	violations := []core.Violation{
		{RuleID: "DP01", Severity: core.SeverityError},
		{RuleID: "ST01", Severity: core.SeverityWarning},
		{RuleID: "SZ02", Severity: core.SeverityHint},
	}

	t.Run("error threshold", func(t *testing.T) {
		filtered := filterBySeverity(violations, "error")
		require.Len(t, filtered, 1)
		assert.Equal(t, "DP01", filtered[0].RuleID)
	})

	t.Run("warning threshold", func(t *testing.T) {
		filtered := filterBySeverity(violations, "warning")
		assert.Len(t, filtered, 2)
	})

	t.Run("hint threshold keeps everything", func(t *testing.T) {
		filtered := filterBySeverity(violations, "hint")
		assert.Len(t, filtered, 3)
	})

	t.Run("unknown threshold keeps everything", func(t *testing.T) {
		filtered := filterBySeverity(violations, "whatever")
		assert.Len(t, filtered, 3)
	})
}

func TestCheckFailed(t *testing.T) {
	errOnly := []core.Violation{{Severity: core.SeverityError}}
	warnOnly := []core.Violation{{Severity: core.SeverityWarning}}
	hintOnly := []core.Violation{{Severity: core.SeverityHint}}

	assert.True(t, checkFailed(errOnly, false))
	assert.False(t, checkFailed(warnOnly, false))
	assert.True(t, checkFailed(warnOnly, true))
	assert.False(t, checkFailed(hintOnly, true))
	assert.False(t, checkFailed(nil, true))
}

func TestGroupByFile(t *testing.T) {
	violations := []core.Violation{
		{File: "a.dart", Feature: "booking", RuleID: "DP01"},
		{File: "a.dart", Feature: "booking", RuleID: "NM01"},
		{File: "b.dart", Feature: "checkout", RuleID: "ST01"},
	}

	groups := groupByFile(violations)

	require.Len(t, groups, 2)
	assert.Equal(t, "a.dart", groups[0].file)
	assert.Equal(t, "booking", groups[0].feature)
	assert.Len(t, groups[0].violations, 2)
	assert.Equal(t, "b.dart", groups[1].file)
	assert.Len(t, groups[1].violations, 1)
}

func TestSeverityStyle(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()

	seen := make(map[string]bool)
	for _, sev := range []core.Severity{core.SeverityError, core.SeverityWarning, core.SeverityInfo, core.SeverityHint} {
		styled := severityStyle(tr.Renderer, sev)
		testutil.AssertNoANSI(t, styled)
		seen[styled] = true
	}
	assert.Len(t, seen, 4, "each severity should render distinctly")
}

func TestCheckCommand_CleanProject(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupTestProject(t)

	cmd := NewCheckCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{projectDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No layering violations found")
}

func TestCheckCommand_ViolatingProject(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupViolatingProject(t)

	cmd := NewCheckCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{projectDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layering violations found")

	output := buf.String()
	assert.Contains(t, output, "DP01")
	assert.Contains(t, output, "booking_list_screen.dart")
}

func TestCheckCommand_JSONOutput(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupViolatingProject(t)

	cmd := NewCheckCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{projectDir, "--format", "json"})

	err := cmd.Execute()
	require.Error(t, err)

	var result output.CheckOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Positive(t, result.Summary.Errors)
	require.NotEmpty(t, result.Files)

	found := false
	for _, f := range result.Files {
		for _, v := range f.Violations {
			if v.RuleID == "DP01" {
				found = true
			}
		}
	}
	assert.True(t, found, "JSON output should carry the DP01 finding")
}

func TestCheckCommand_DisableRule(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupViolatingProject(t)

	cmd := NewCheckCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{projectDir, "--disable", "DP01"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No layering violations found")
}

func TestCheckCommand_RuleSelection(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupViolatingProject(t)

	cmd := NewCheckCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{projectDir, "--rule", "NM01"})

	require.NoError(t, cmd.Execute(), "only the naming rule should run, and the project names comply")
}

func TestCheckCommand_StrictTreatsWarningsAsFailure(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupTestProject(t)
	// A file outside every layer folder draws an unclassified-file warning
	testutil.WriteProjectFile(t, projectDir, "lib/booking/helpers/date_utils.dart", "class DateUtils {}\n")

	t.Run("without strict", func(t *testing.T) {
		cmd := NewCheckCommand()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs([]string{projectDir})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, buf.String(), "ST01")
	})

	t.Run("with strict", func(t *testing.T) {
		cmd := NewCheckCommand()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{projectDir, "--strict"})

		require.Error(t, cmd.Execute())
	})
}

func TestCheckCommand_MissingSourceDir(t *testing.T) {
	config.ResetConfig()
	emptyDir := t.TempDir()

	cmd := NewCheckCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{filepath.Join(emptyDir, "nope")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
