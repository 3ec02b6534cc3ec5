package commands

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/layerlint/layerlint/internal/cli/config"
	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/layerlint/layerlint/internal/engine"
	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Path   string // Project or source directory to scan
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Run a comprehensive project health check",
		Long: `Analyze your project's layering health in one pass.

The doctor command runs every conformance rule and produces a report
including:
- Project summary (features, files, units, dependency graph shape)
- Health checks grouped by category (dependency, naming, structure, size)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  layerlint doctor

  # Check a specific project
  layerlint doctor ./apps/booking

  # Output as JSON
  layerlint doctor --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains project-level statistics.
type ProjectSummary struct {
	Features   int `json:"features"`
	Files      int `json:"files"`
	Units      int `json:"units"`
	Edges      int `json:"edges"`
	GraphDepth int `json:"graph_depth"`
	RootCount  int `json:"root_count"`
	LeafCount  int `json:"leaf_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error", "off"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cfg := getConfig()

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

	// Doctor runs every rule regardless of the check config, so disabled
	// rules surface as "off" instead of silently passing.
	eng, err := engine.New(engine.Config{
		Policy: runPol,
		Logger: config.GetLogger(cmd.Context()),
	})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	result, err := eng.Run(cmd.Context(), engine.Options{Root: root})
	if err != nil {
		return err
	}

	if result.Stats.FilesIndexed == 0 {
		r.Warning("No Dart files found under " + root)
		return nil
	}

	doctorOutput := buildDoctorOutput(result, disabledRuleSet(cfg.Check.Disable))

	// Render based on mode
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

// disabledRuleSet normalizes the configured disable list for lookup.
func disabledRuleSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	return set
}

func buildDoctorOutput(result *engine.Result, disabled map[string]bool) *DoctorOutput {
	summary := buildProjectSummary(result)

	// Group violations by rule
	violationsByRule := make(map[string][]core.Violation)
	for _, v := range result.Violations {
		violationsByRule[v.RuleID] = append(violationsByRule[v.RuleID], v)
	}

	// Build health checks from all registered rules
	rules := conformance.GetAll()
	healthChecks := make([]HealthCheck, 0, len(rules))
	issueCount := 0

	for _, rule := range rules {
		ruleViolations := violationsByRule[rule.ID]

		status := "pass"
		switch {
		case disabled[rule.ID]:
			status = "off"
		case len(ruleViolations) > 0:
			status = "warn"
			for _, v := range ruleViolations {
				if v.Severity == core.SeverityError {
					status = "error"
					break
				}
			}
		}

		details := make([]string, 0, len(ruleViolations))
		for _, v := range ruleViolations {
			if v.Line > 0 {
				details = append(details, fmt.Sprintf("%s:%d %s", v.File, v.Line, v.Message))
			} else {
				details = append(details, fmt.Sprintf("%s %s", v.File, v.Message))
			}
		}
		if status != "off" {
			issueCount += len(ruleViolations)
		}

		healthChecks = append(healthChecks, HealthCheck{
			RuleID:     rule.ID,
			Name:       rule.Name,
			Group:      rule.Group,
			Status:     status,
			IssueCount: len(ruleViolations),
			Details:    details,
		})
	}

	// Sort health checks by group then by rule ID
	sort.Slice(healthChecks, func(i, j int) bool {
		if healthChecks[i].Group != healthChecks[j].Group {
			return healthChecks[i].Group < healthChecks[j].Group
		}
		return healthChecks[i].RuleID < healthChecks[j].RuleID
	})

	score := calculateHealthScore(healthChecks, summary.Files)
	recommendations := generateRecommendations(healthChecks)

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    healthChecks,
		Score:           score,
		Recommendations: recommendations,
		IssueCount:      issueCount,
	}
}

func buildProjectSummary(result *engine.Result) ProjectSummary {
	summary := ProjectSummary{
		Features: len(result.Features),
		Files:    len(result.Files),
		Units:    result.Stats.Units,
		Edges:    result.Stats.Edges,
	}

	if result.Graph != nil {
		summary.RootCount = len(result.Graph.Roots())
		summary.LeafCount = len(result.Graph.Leaves())

		levels, err := result.Graph.Levels()
		if err == nil {
			summary.GraphDepth = len(levels)
		}
	}

	return summary
}

// calculateHealthScore computes a health score from 0-100.
// The scoring weights:
// - Each issue reduces points
// - More files means issues have less individual impact
func calculateHealthScore(checks []HealthCheck, fileCount int) int {
	if len(checks) == 0 {
		return 100
	}

	// Base score starts at 100
	score := 100.0

	// Calculate penalty per issue
	// With more files, each individual issue has less impact
	basePenalty := 5.0
	if fileCount > 10 {
		basePenalty = 3.0
	}
	if fileCount > 50 {
		basePenalty = 2.0
	}
	if fileCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * basePenalty * 2 // Errors count double
		case "warn":
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	// Clamp to 0-100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 || check.Status == "off" {
			continue
		}

		rec := getRecommendation(check.RuleID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	// Limit to top 5 recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}

	return recommendations
}

// getRecommendation returns a recommendation for a specific rule.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "DP01":
		return "Route each dependency through the next layer down instead of skipping layers"
	case "DP02":
		return "Move code shared between features into the common feature"
	case "NM01":
		return "Rename units to match the naming pattern of their layer"
	case "ST01":
		return "Move unclassified files into one of the policy's layer folders"
	case "ST02":
		return "Relocate misplaced units into the folder of the layer they belong to"
	case "SZ01":
		return "Split oversized files into a part group with a components companion"
	case "SZ02":
		return "Split the largest members out of oversized part groups"
	case "PE01":
		return "Fix files that fail parsing so their units can be checked"
	case "IO01":
		return "Fix unreadable files (permissions, encoding) so they can be scanned"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header1.Render("layerlint Project Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	// Project Summary
	r.Println(styles.Header2.Render("Project Summary"))
	r.Printf("   Features: %d | Files: %d | Units: %d\n", out.Summary.Features, out.Summary.Files, out.Summary.Units)
	r.Printf("   Graph: %d edges, depth %d | Roots: %d | Leaves: %d\n",
		out.Summary.Edges, out.Summary.GraphDepth, out.Summary.RootCount, out.Summary.LeafCount)
	r.Println("")

	// Health Checks grouped by category
	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		case "off":
			icon = styles.Muted.Render("-")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		if check.Status == "off" {
			status += " (disabled)"
		}
		r.Println("   " + status)

		// Show first 3 details for issues
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# layerlint Project Health Report")
	r.Println("")

	// Project Summary
	r.Println("## Project Summary")
	r.Println("")
	r.Printf("- **Features**: %d\n", out.Summary.Features)
	r.Printf("- **Files**: %d\n", out.Summary.Files)
	r.Printf("- **Units**: %d\n", out.Summary.Units)
	r.Printf("- **Edges**: %d\n", out.Summary.Edges)
	r.Printf("- **Graph Depth**: %d levels\n", out.Summary.GraphDepth)
	r.Printf("- **Roots**: %d\n", out.Summary.RootCount)
	r.Printf("- **Leaves**: %d\n", out.Summary.LeafCount)
	r.Println("")

	// Health Checks
	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		case "off":
			status = "OFF"
		}

		r.Printf("- **[%s]** %s: %s", status, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	// Health Score
	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
