// Package config provides configuration management for the layerlint CLI.
//
// Configuration is merged from four sources with fixed precedence
// (highest to lowest): command-line flags, LAYERLINT_ environment
// variables, a layerlint.yaml file, and built-in defaults. The layer
// policy itself lives either in the `policy` section of layerlint.yaml
// or in a standalone file named by `policy_file`; the Policy method
// resolves whichever is present.
package config

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string      `koanf:"-"` // resolved at load time, never read from config
	SourceDir    string      `koanf:"source_dir"`
	PolicyFile   string      `koanf:"policy_file"`
	StatePath    string      `koanf:"state_path"`
	Verbose      bool        `koanf:"verbose"`
	OutputFormat string      `koanf:"output"`
	Check        CheckConfig `koanf:"check"`
}

// CheckConfig holds project-wide defaults for the check command. CLI
// flags add to Disable and override Severity entries per rule.
type CheckConfig struct {
	Disable  []string          `koanf:"disable"`
	Severity map[string]string `koanf:"severity"`
	Strict   bool              `koanf:"strict"`
	Cache    bool              `koanf:"cache"`
}

// Default configuration values.
const (
	DefaultStateFile = ".layerlint/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
