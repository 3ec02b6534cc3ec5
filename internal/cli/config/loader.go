package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/layerlint/layerlint/internal/policy"
	"github.com/layerlint/layerlint/pkg/core"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// configFileNames lists recognized config file names in priority order.
var configFileNames = []string{"layerlint.yaml", "layerlint.yml", ".layerlint.yaml", ".layerlint.yml"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > layerlint.yaml > layerlint.yml > dotfile variants
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// configExistsIn checks if a layerlint config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range configFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a layerlint config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Explicit --project-dir flag
//  2. Infer from --source-dir (parent if contains config or folder named "lib")
//  3. Search upward from CWD for layerlint.yaml
//  4. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	// 1. Check explicit --project-dir
	if flags != nil {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" && flags.Changed("project-dir") {
			abs, err := filepath.Abs(projectDir)
			if err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	// 2. Infer from --source-dir
	if flags != nil {
		if sourceDir, _ := flags.GetString("source-dir"); sourceDir != "" && flags.Changed("source-dir") {
			absSource, err := filepath.Abs(sourceDir)
			if err == nil {
				parent := filepath.Dir(absSource)

				// If parent has a config file, it's the project root
				if configExistsIn(parent) {
					return parent
				}

				// If folder is named "lib", assume parent is root
				if filepath.Base(absSource) == policy.DefaultSourceDir {
					return parent
				}
			}
		}
	}

	// 3. Search upward from CWD for layerlint.yaml
	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	// 4. Default to CWD
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// Infer project root from flags before loading config
	// This enables the "anchor pattern" where --source-dir testdata/lib
	// implies project root is testdata/
	projectRoot := inferProjectRoot(flags)

	// Track paths that were explicitly provided as flags (already relative to CWD).
	// These will be converted to absolute paths before the normal resolution step,
	// to prevent double-resolution when project root was inferred from them.
	var flagSourceDir, flagPolicyFile, flagStatePath string
	if flags != nil {
		if flags.Changed("source-dir") {
			if v, _ := flags.GetString("source-dir"); v != "" {
				flagSourceDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("policy") {
			if v, _ := flags.GetString("policy"); v != "" {
				flagPolicyFile, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" {
				flagStatePath, _ = filepath.Abs(v)
			}
		}
	}

	// If an explicit config file is provided, use its directory as project root
	// (unless a more specific hint was given via flags)
	if cfgFile != "" && projectRoot == inferProjectRoot(nil) {
		// No flag-based inference happened, use config file's directory
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"state_path": DefaultStateFile,
		"verbose":    false,
		"output":     DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	// Search in project root if no explicit config file provided
	if cfgFile == "" {
		// Look for config in inferred project root
		for _, name := range configFileNames {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (LAYERLINT_ prefix)
	// Transform: LAYERLINT_SOURCE_DIR -> source_dir
	if err := k.Load(env.Provider("LAYERLINT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LAYERLINT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// EXPLICIT MAPPING: the CLI uses short flag names for brevity,
			// the config struct uses longer keys for clarity
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}
			if key == "policy" {
				return "policy_file", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root and resolve relative paths
	// Use project root as base for all path resolution (not config file directory)
	// This implements the "anchor pattern" for intuitive path resolution
	cfg.ProjectRoot = projectRoot

	// For paths explicitly provided via flags, use the pre-computed absolute paths
	// (already computed relative to CWD at flag parse time).
	// For paths from config file or defaults, resolve relative to project root.
	if flagSourceDir != "" {
		cfg.SourceDir = flagSourceDir
	} else {
		cfg.SourceDir = resolvePathRelativeTo(cfg.SourceDir, projectRoot)
	}
	if flagPolicyFile != "" {
		cfg.PolicyFile = flagPolicyFile
	} else {
		cfg.PolicyFile = resolvePathRelativeTo(cfg.PolicyFile, projectRoot)
	}
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	// Validate before handing the config to commands
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// Policy resolves the layer policy for this configuration.
// Priority: standalone file named by policy_file > `policy` section of the
// config file > built-in defaults. An explicit source_dir (flag, env var, or
// top-level config key) overrides whatever the policy itself declares.
func (c *Config) Policy() (*core.Policy, error) {
	p, err := c.loadPolicy()
	if err != nil {
		return nil, err
	}
	if c.SourceDir != "" {
		p.SourceDir = c.SourceDir
	}
	return p, nil
}

func (c *Config) loadPolicy() (*core.Policy, error) {
	if c.PolicyFile != "" {
		return policy.LoadFile(c.PolicyFile)
	}
	if k.Exists("policy") {
		return policy.Decode(k, "policy")
	}
	return policy.Default(), nil
}

// PolicySource describes where the effective policy comes from: the
// standalone policy file, the config file carrying a policy section, or
// the built-in defaults.
func (c *Config) PolicySource() string {
	if c.PolicyFile != "" {
		return c.PolicyFile
	}
	if k.Exists("policy") && configFileUsed != "" {
		return configFileUsed
	}
	return "built-in defaults"
}

// SourceRoot returns the absolute directory that scanning starts from,
// resolving the policy's source_dir against the project root.
func (c *Config) SourceRoot(p *core.Policy) string {
	dir := p.SourceDir
	if dir == "" {
		dir = policy.DefaultSourceDir
	}
	return resolvePathRelativeTo(dir, c.ProjectRoot)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
