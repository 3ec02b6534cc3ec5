package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/layerlint/layerlint/internal/policy"
	"github.com/layerlint/layerlint/pkg/core"
)

// PolicyOptions holds options for the policy command.
type PolicyOptions struct {
	Format string // Output format
}

// NewPolicyCommand creates the policy command.
func NewPolicyCommand() *cobra.Command {
	opts := &PolicyOptions{}
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Show the effective policy",
		Long: `Display the policy the checks run with, after merging the built-in
layer table with any policy file or config-file policy section.

The yaml format emits the same keys a policy file uses, so the output
can seed a project-specific policy:

  layerlint policy --format yaml > architecture.yaml`,
		Example: `  # Show the effective policy
  layerlint policy

  # Emit it as a policy file starting point
  layerlint policy --format yaml

  # Validate a policy file without running checks
  layerlint policy validate --policy architecture.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPolicyShow(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, yaml, markdown")
	cmd.AddCommand(newPolicyValidateCommand())

	return cmd
}

func runPolicyShow(cmd *cobra.Command, opts *PolicyOptions) error {
	cfg := getConfig()
	pol, err := cfg.Policy()
	if err != nil {
		return err
	}
	source := cfg.PolicySource()

	// YAML sits outside the renderer's modes; it exists so the output can
	// round-trip as a policy file.
	if strings.EqualFold(opts.Format, "yaml") {
		data, err := yaml.Marshal(policy.ToMap(pol))
		if err != nil {
			return fmt.Errorf("failed to render policy: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(policy.ToMap(pol))
	case output.ModeMarkdown:
		return policyMarkdown(r, pol, source)
	default:
		return policyText(r, pol, source)
	}
}

func newPolicyValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the policy without running checks",
		Long: `Resolve and validate the effective policy, reporting the first
problem found: duplicated layers, unknown dependency targets, missing
folders, or malformed limits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

			pol, err := cfg.Policy()
			if err != nil {
				var perr *core.PolicyError
				if errors.As(err, &perr) {
					r.Error(perr.Error())
					return errors.New("policy validation failed")
				}
				return err
			}

			r.Success(fmt.Sprintf("Policy is valid (%d layers)", len(pol.Layers)))
			r.Println(r.Styles().Muted.Render("Source: " + cfg.PolicySource()))
			return nil
		},
	}
}

// policyText renders the policy as styled text.
func policyText(r *output.Renderer, pol *core.Policy, source string) error {
	styles := r.Styles()

	r.Header(1, "Effective Policy")
	r.Println(styles.Muted.Render("Source: " + source))
	r.Println("")

	r.Printf("Source dir:      %s\n", pol.SourceDir)
	r.Printf("Common feature:  %s\n", pol.CommonFeature)
	r.Printf("Max file lines:  %d\n", pol.MaxFileLines)
	r.Printf("Part suffix:     %s\n", pol.PartSuffix)
	r.Printf("Skip generated:  %t\n", pol.SkipGenerated)
	r.Println("")

	r.Println(styles.Header2.Render("Layers"))
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Layer", "Folder", "Pattern", "Abstract", "Allowed Targets"})
	for _, s := range pol.Layers {
		t.AppendRow(table.Row{s.Layer, s.Folder, layerPattern(&s), abstractMark(s.Abstract), layerTargets(&s)})
	}
	t.Render()
	r.Println("")

	r.Println(styles.Muted.Render("Self-references and BUSINESS_OBJECT targets are always permitted."))
	return nil
}

// policyMarkdown renders the policy in markdown format.
func policyMarkdown(r *output.Renderer, pol *core.Policy, source string) error {
	r.Println(output.FormatHeader(1, "Effective Policy"))
	r.Println("")
	r.Println(output.FormatKeyValue("Source", source))
	r.Println(output.FormatKeyValue("Source Dir", pol.SourceDir))
	r.Println(output.FormatKeyValue("Common Feature", pol.CommonFeature))
	r.Println(output.FormatKeyValue("Max File Lines", fmt.Sprintf("%d", pol.MaxFileLines)))
	r.Println(output.FormatKeyValue("Part Suffix", pol.PartSuffix))
	r.Println(output.FormatKeyValue("Skip Generated", fmt.Sprintf("%t", pol.SkipGenerated)))
	r.Println("")

	r.Println(output.FormatHeader(2, "Layers"))
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.AppendHeader(table.Row{"Layer", "Folder", "Pattern", "Abstract", "Allowed Targets"})
	for _, s := range pol.Layers {
		t.AppendRow(table.Row{s.Layer, s.Folder, layerPattern(&s), abstractMark(s.Abstract), layerTargets(&s)})
	}
	t.RenderMarkdown()
	r.Println("")
	r.Println("Self-references and BUSINESS_OBJECT targets are always permitted.")
	return nil
}

// layerPattern renders the naming pattern in glob form, e.g. "*Screen".
func layerPattern(s *core.LayerSpec) string {
	if s.NamePrefix == "" && s.NameSuffix == "" {
		return "-"
	}
	return s.NamePrefix + "*" + s.NameSuffix
}

// layerTargets joins the allowed target layers for display.
func layerTargets(s *core.LayerSpec) string {
	if len(s.AllowedTargets) == 0 {
		return "-"
	}
	names := make([]string, len(s.AllowedTargets))
	for i, t := range s.AllowedTargets {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func abstractMark(abstract bool) string {
	if abstract {
		return "yes"
	}
	return "-"
}
