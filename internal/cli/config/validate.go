package config

import (
	"fmt"
	"os"

	"github.com/layerlint/layerlint/pkg/core"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (valid: auto, text, markdown, json)", c.OutputFormat)
	}
	for id, sev := range c.Check.Severity {
		if _, ok := core.ParseSeverity(sev); !ok {
			return fmt.Errorf("invalid severity %q for rule %s (valid: error, warning, info, hint)", sev, id)
		}
	}
	return nil
}

// ValidateSourceDir checks that the directory to scan exists.
func (c *Config) ValidateSourceDir(root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s\nHint: Create the directory or use --source-dir to specify a different path", root)
	}
	return nil
}
