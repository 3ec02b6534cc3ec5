package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/layerlint/layerlint/internal/cli/config"
	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/layerlint/layerlint/internal/engine"
	"github.com/layerlint/layerlint/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	// Policy is the effective policy with its source dir rebased one path
	// segment below ScanRoot, the form the engine scans with.
	Policy   *core.Policy
	Engine   *engine.Engine
	Renderer *output.Renderer
	// ScanRoot is the directory passed to engine runs.
	ScanRoot string
}

// NewCommandContext creates a CommandContext with policy, engine, and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	pol, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}

	root, runPol, err := resolveScanTarget(cfg, pol, "")
	if err != nil {
		return nil, nil, err
	}

	eng, err := createEngine(cfg, runPol, logger)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Policy:   runPol,
		Engine:   eng,
		Renderer: r,
		ScanRoot: root,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need to scan the project.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	sourceDir := os.Getenv("LAYERLINT_SOURCE_DIR")
	policyFile := os.Getenv("LAYERLINT_POLICY_FILE")
	statePath := getEnvOrDefault("LAYERLINT_STATE_PATH", config.DefaultStateFile)
	verbose := os.Getenv("LAYERLINT_VERBOSE") == "true"
	outputFormat := os.Getenv("LAYERLINT_OUTPUT")

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}

	return &config.Config{
		ProjectRoot:  cwd,
		SourceDir:    sourceDir,
		PolicyFile:   policyFile,
		StatePath:    statePath,
		Verbose:      verbose,
		OutputFormat: outputFormat,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// resolveScanTarget returns the engine root and a copy of the policy whose
// source dir sits one path segment below it, whatever form source_dir
// arrived in. An optional positional path is treated as a project root
// when it contains the policy's source dir, otherwise it is scanned
// directly.
func resolveScanTarget(cfg *config.Config, pol *core.Policy, path string) (string, *core.Policy, error) {
	sourceRoot := cfg.SourceRoot(pol)
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		sourceRoot = abs
		if !filepath.IsAbs(pol.SourceDir) {
			candidate := filepath.Join(abs, pol.SourceDir)
			if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
				sourceRoot = candidate
			}
		}
	}

	if err := cfg.ValidateSourceDir(sourceRoot); err != nil {
		return "", nil, err
	}

	runPol := *pol
	runPol.SourceDir = filepath.Base(sourceRoot)
	return filepath.Dir(sourceRoot), &runPol, nil
}

func createEngine(cfg *config.Config, pol *core.Policy, logger *slog.Logger) (*engine.Engine, error) {
	overrides, err := severityOverrides(cfg.Check.Severity)
	if err != nil {
		return nil, err
	}

	engineCfg := engine.Config{
		Policy:            pol,
		Logger:            logger,
		DisabledRules:     cfg.Check.Disable,
		SeverityOverrides: overrides,
	}

	// The run cache is opt-in; without it every run re-parses all files
	if cfg.Check.Cache {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, err
			}
		}
		engineCfg.StatePath = cfg.StatePath
	}

	return engine.New(engineCfg)
}

// severityOverrides parses a rule to severity-name map into core values.
func severityOverrides(m map[string]string) (map[string]core.Severity, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]core.Severity, len(m))
	for id, name := range m {
		sev, ok := core.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("invalid severity %q for rule %s", name, id)
		}
		out[id] = sev
	}
	return out, nil
}
