package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/layerlint/layerlint/internal/cli/config"
	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/layerlint/layerlint/internal/engine"
	"github.com/layerlint/layerlint/internal/watch"
	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Path     string   // Project or source directory to scan
	Format   string   // Output format: text, markdown, json
	Disable  []string // Rule IDs to disable
	Rules    []string // Run only specific rules
	Severity string   // Minimum severity to report: error, warning, info, hint
	Strict   bool     // Treat warnings as failures
	Watch    bool     // Re-run on file changes
	Cache    bool     // Cache extraction results between runs
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Check layering conformance",
		Long: `Analyze the source tree for layering violations.

Walks the configured source directory, classifies every file by its
feature and layer folder, resolves unit references into a dependency
graph, and reports each rule violation with its location. Files that
fail to parse are reported and skipped; the run continues.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Check the current project
  layerlint check

  # Check a specific project or source directory
  layerlint check ./apps/booking

  # Output as JSON
  layerlint check --format json

  # Disable specific rules
  layerlint check --disable NM01,ST01

  # Only report errors (ignore warnings)
  layerlint check --severity error

  # Fail the build on warnings too
  layerlint check --strict

  # Re-run on every file change
  layerlint check --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	cmd.Flags().StringVar(&opts.Severity, "severity", "hint", "Minimum severity to report: error, warning, info, hint")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Treat warnings as failures")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run on file changes")
	cmd.Flags().BoolVar(&opts.Cache, "cache", false, "Cache extraction results between runs")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	pol, err := cfg.Policy()
	if err != nil {
		return err
	}

	root, runPol, err := resolveScanTarget(cfg, pol, opts.Path)
	if err != nil {
		return err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	engineCfg, err := buildCheckEngineConfig(cfg, runPol, logger, opts)
	if err != nil {
		return err
	}

	if opts.Watch {
		return runCheckWatch(cmd, engineCfg, root, runPol, logger, r, opts)
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	result, err := eng.Run(cmd.Context(), engine.Options{Root: root})
	if err != nil {
		return err
	}

	violations := filterBySeverity(result.Violations, opts.Severity)
	renderCheckResult(r, result, violations)

	strict := opts.Strict || cfg.Check.Strict
	if checkFailed(violations, strict) {
		return fmt.Errorf("layering violations found")
	}
	return nil
}

// buildCheckEngineConfig merges project config and CLI flags into the
// engine configuration for one check invocation. Project config applies
// first; CLI flags add to it.
func buildCheckEngineConfig(cfg *config.Config, pol *core.Policy, logger *slog.Logger, opts *CheckOptions) (engine.Config, error) {
	overrides, err := severityOverrides(cfg.Check.Severity)
	if err != nil {
		return engine.Config{}, err
	}

	disabled := make([]string, 0, len(cfg.Check.Disable)+len(opts.Disable))
	for _, id := range cfg.Check.Disable {
		disabled = append(disabled, strings.TrimSpace(id))
	}
	for _, id := range opts.Disable {
		disabled = append(disabled, strings.TrimSpace(id))
	}

	// If --rule specified, disable all others
	if len(opts.Rules) > 0 {
		enabledSet := make(map[string]bool)
		for _, id := range opts.Rules {
			enabledSet[strings.TrimSpace(id)] = true
		}
		for _, def := range conformance.GetAll() {
			if !enabledSet[def.ID] {
				disabled = append(disabled, def.ID)
			}
		}
	}

	engineCfg := engine.Config{
		Policy:            pol,
		Logger:            logger,
		DisabledRules:     disabled,
		SeverityOverrides: overrides,
	}

	if opts.Cache || cfg.Check.Cache {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return engine.Config{}, err
			}
		}
		engineCfg.StatePath = cfg.StatePath
	}

	return engineCfg, nil
}

// filterBySeverity keeps violations at or above the severity threshold.
// Unknown threshold names keep everything.
func filterBySeverity(violations []core.Violation, severityThreshold string) []core.Violation {
	threshold, ok := core.ParseSeverity(severityThreshold)
	if !ok {
		threshold = core.SeverityHint
	}

	var filtered []core.Violation
	for _, v := range violations {
		if v.Severity <= threshold {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// checkFailed reports whether the filtered violation set fails the run.
func checkFailed(violations []core.Violation, strict bool) bool {
	for _, v := range violations {
		if v.Severity == core.SeverityError {
			return true
		}
		if strict && v.Severity == core.SeverityWarning {
			return true
		}
	}
	return false
}

// renderCheckResult renders one run's findings in the renderer's mode.
func renderCheckResult(r *output.Renderer, result *engine.Result, violations []core.Violation) {
	mode := r.EffectiveMode()

	summary := output.CheckSummary{
		FilesScanned: result.Stats.FilesIndexed,
		FilesSkipped: result.Stats.FilesFailed,
		Units:        result.Stats.Units,
		Edges:        result.Stats.Edges,
		Violations:   len(violations),
		DurationMS:   result.Duration.Milliseconds(),
	}
	for _, v := range violations {
		switch v.Severity {
		case core.SeverityError:
			summary.Errors++
		case core.SeverityWarning:
			summary.Warnings++
		case core.SeverityInfo:
			summary.Info++
		case core.SeverityHint:
			summary.Hints++
		}
	}

	if mode == output.ModeJSON {
		jsonOutput := output.CheckOutput{
			Root:    result.Root,
			Summary: summary,
		}
		for _, group := range groupByFile(violations) {
			fileResult := output.CheckFileResult{
				Path:    group.file,
				Feature: group.feature,
			}
			for _, v := range group.violations {
				fileResult.Violations = append(fileResult.Violations, output.CheckViolation{
					RuleID:   v.RuleID,
					Severity: v.Severity.String(),
					Line:     v.Line,
					EndLine:  v.EndLine,
					Unit:     v.Unit,
					Message:  v.Message,
				})
			}
			jsonOutput.Files = append(jsonOutput.Files, fileResult)
		}
		_ = r.JSON(jsonOutput)
		return
	}

	// Text/Markdown output
	if len(violations) == 0 {
		r.Success("No layering violations found")
		renderSkipped(r, summary.FilesSkipped)
		return
	}

	for _, group := range groupByFile(violations) {
		r.Println(r.Styles().FilePath.Render(group.file))
		for _, v := range group.violations {
			loc := fmt.Sprintf("%d", v.Line)
			if v.Line == 0 {
				loc = "-"
			}
			r.Printf("  %s  %s  %s  %s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-5s", loc)),
				severityStyle(r, v.Severity),
				r.Styles().Bold.Render(v.RuleID),
				v.Message,
			)
		}
		r.Println("")
	}

	// Print summary
	summaryParts := []string{fmt.Sprintf("%d violations", summary.Violations)}
	if summary.Errors > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d errors", summary.Errors))
	}
	if summary.Warnings > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d warnings", summary.Warnings))
	}
	if summary.Info > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d info", summary.Info))
	}
	if summary.Hints > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d hints", summary.Hints))
	}
	r.Printf("Summary: %s in %d files\n", strings.Join(summaryParts, ", "), summary.FilesScanned)
	renderSkipped(r, summary.FilesSkipped)
}

// renderSkipped reports files excluded for parse or I/O errors, kept apart
// from the violation counts.
func renderSkipped(r *output.Renderer, skipped int) {
	if skipped == 0 {
		return
	}
	r.Printf("%d files skipped due to parse or I/O errors\n", skipped)
}

// fileGroup is one file's violations in report order.
type fileGroup struct {
	file       string
	feature    string
	violations []core.Violation
}

// groupByFile splits a sorted violation slice into per-file groups,
// preserving order.
func groupByFile(violations []core.Violation) []fileGroup {
	var groups []fileGroup
	for _, v := range violations {
		if len(groups) == 0 || groups[len(groups)-1].file != v.File {
			groups = append(groups, fileGroup{file: v.File, feature: v.Feature})
		}
		g := &groups[len(groups)-1]
		g.violations = append(g.violations, v)
	}
	return groups
}

// severityStyle returns the styled fixed-width severity column.
func severityStyle(r *output.Renderer, sev core.Severity) string {
	switch sev {
	case core.SeverityError:
		return r.Styles().Error.Render("error  ")
	case core.SeverityWarning:
		return r.Styles().Warning.Render("warning")
	case core.SeverityInfo:
		return r.Styles().Info.Render("info   ")
	case core.SeverityHint:
		return r.Styles().Muted.Render("hint   ")
	default:
		return r.Styles().Muted.Render("unknown")
	}
}

// runCheckWatch runs an initial check and re-runs on every change until
// interrupted. Watch sessions keep the extraction memo in memory unless a
// persistent cache was requested, so unchanged files skip re-parsing
// without touching disk.
func runCheckWatch(cmd *cobra.Command, engineCfg engine.Config, root string, pol *core.Policy, logger *slog.Logger, r *output.Renderer, opts *CheckOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if engineCfg.StatePath == "" && engineCfg.Store == nil {
		memo, err := watch.NewMemoStore(0)
		if err != nil {
			return err
		}
		defer func() { _ = memo.Close() }()
		engineCfg.Store = memo
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	runOnce := func(ctx context.Context) error {
		result, err := eng.Run(ctx, engine.Options{Root: root})
		if err != nil {
			return err
		}
		violations := filterBySeverity(result.Violations, opts.Severity)
		renderCheckResult(r, result, violations)
		r.Println(r.Styles().Muted.Render(result.Summary()))
		return nil
	}

	if err := runOnce(ctx); err != nil {
		return err
	}

	w, err := watch.New(watch.Config{
		Root:   root,
		Policy: pol,
		Logger: logger,
		OnChange: func(ctx context.Context, paths []string) error {
			r.Println("")
			return runOnce(ctx)
		},
	})
	if err != nil {
		return err
	}

	r.Printf("Watching %s for changes, press Ctrl+C to stop\n", filepath.Join(root, pol.SourceDir))
	return w.Run(ctx)
}
