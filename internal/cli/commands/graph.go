package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/layerlint/layerlint/internal/engine"
	"github.com/layerlint/layerlint/pkg/core"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Format string // Output format
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the dependency graph",
		Long: `Display the resolved dependency graph grouped by layer and feature.

Every unit reference that resolves inside the project becomes an edge;
the tables summarize how many units each layer holds and how much
reference traffic flows in and out of it, plus per-feature totals and
cross-feature edges into shared code.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Show the graph summary
  layerlint graph

  # Output as JSON
  layerlint graph --format json

  # Output as Markdown
  layerlint graph --format markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *GraphOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	result, err := cmdCtx.Engine.Run(cmd.Context(), engine.Options{Root: cmdCtx.ScanRoot})
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}

	layers := layerStats(result)
	features := featureStats(result, cmdCtx.Policy.CommonFeature)

	var cycle []string
	if result.Graph != nil {
		if has, path := result.Graph.HasCycle(); has {
			cycle = path
		}
	}

	graphOutput := output.GraphOutput{
		Root:       result.Root,
		Layers:     layers,
		Features:   features,
		TotalUnits: result.Stats.Units,
		TotalEdges: result.Stats.Edges,
		Unresolved: result.Stats.Unresolved,
		Ambiguous:  result.Ambiguous,
		Cycle:      cycle,
	}

	effectiveMode := r.EffectiveMode()
	switch effectiveMode {
	case output.ModeJSON:
		return r.JSON(graphOutput)
	case output.ModeMarkdown:
		return graphMarkdown(r, graphOutput)
	default:
		return graphText(r, graphOutput)
	}
}

// layerStats tallies units and reference traffic per layer, in rank order.
func layerStats(result *engine.Result) []output.LayerStats {
	units := make(map[core.Layer]int)
	outgoing := make(map[core.Layer]int)
	incoming := make(map[core.Layer]int)

	for _, u := range result.Units {
		units[u.Layer]++
	}
	for _, e := range result.Edges {
		outgoing[e.FromLayer]++
		incoming[e.ToLayer]++
	}

	ordered := append(core.Layers(), core.LayerUnclassified)
	stats := make([]output.LayerStats, 0, len(ordered))
	for _, layer := range ordered {
		if units[layer] == 0 && outgoing[layer] == 0 && incoming[layer] == 0 {
			continue
		}
		stats = append(stats, output.LayerStats{
			Layer:    layer.String(),
			Units:    units[layer],
			Outgoing: outgoing[layer],
			Incoming: incoming[layer],
		})
	}
	return stats
}

// featureStats tallies files, units, and edges per feature. External counts
// edges leaving the feature, which layering permits only into shared code.
func featureStats(result *engine.Result, commonFeature string) []output.FeatureStats {
	files := make(map[string]int)
	units := make(map[string]int)
	edges := make(map[string]int)
	external := make(map[string]int)

	for _, f := range result.Files {
		files[f.Feature]++
	}
	for _, u := range result.Units {
		units[u.Feature]++
	}
	for _, e := range result.Edges {
		edges[e.FromFeature]++
		if e.CrossFeature(commonFeature) {
			external[e.FromFeature]++
		}
	}

	stats := make([]output.FeatureStats, 0, len(result.Features))
	for _, feature := range result.Features {
		stats = append(stats, output.FeatureStats{
			Feature:  feature,
			Files:    files[feature],
			Units:    units[feature],
			Edges:    edges[feature],
			External: external[feature],
		})
	}
	return stats
}

// graphText outputs the graph summary in styled text format.
func graphText(r *output.Renderer, g output.GraphOutput) error {
	styles := r.Styles()

	r.Header(1, "Dependency Graph")

	r.Println(styles.Header2.Render("Layers"))
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Layer", "Units", "Out", "In"})
	for _, ls := range g.Layers {
		t.AppendRow(table.Row{ls.Layer, ls.Units, ls.Outgoing, ls.Incoming})
	}
	t.Render()
	r.Println("")

	r.Println(styles.Header2.Render("Features"))
	ft := table.NewWriter()
	ft.SetOutputMirror(r.Writer())
	ft.SetStyle(table.StyleLight)
	ft.AppendHeader(table.Row{"Feature", "Files", "Units", "Edges", "External"})
	for _, fs := range g.Features {
		ft.AppendRow(table.Row{fs.Feature, fs.Files, fs.Units, fs.Edges, fs.External})
	}
	ft.Render()
	r.Println("")

	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d units, %d edges, %d unresolved references", g.TotalUnits, g.TotalEdges, g.Unresolved)))
	if len(g.Ambiguous) > 0 {
		r.Warning(fmt.Sprintf("ambiguous names excluded from resolution: %s", strings.Join(g.Ambiguous, ", ")))
	}
	if len(g.Cycle) > 0 {
		r.Warning(fmt.Sprintf("dependency cycle: %s", strings.Join(g.Cycle, " -> ")))
	}

	return nil
}

// graphMarkdown outputs the graph summary in markdown format.
func graphMarkdown(r *output.Renderer, g output.GraphOutput) error {
	r.Println(output.FormatHeader(1, "Dependency Graph"))
	r.Println("")

	r.Println(output.FormatHeader(2, "Layers"))
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.AppendHeader(table.Row{"Layer", "Units", "Out", "In"})
	for _, ls := range g.Layers {
		t.AppendRow(table.Row{ls.Layer, ls.Units, ls.Outgoing, ls.Incoming})
	}
	t.RenderMarkdown()
	r.Println("")

	r.Println(output.FormatHeader(2, "Features"))
	ft := table.NewWriter()
	ft.SetOutputMirror(r.Writer())
	ft.AppendHeader(table.Row{"Feature", "Files", "Units", "Edges", "External"})
	for _, fs := range g.Features {
		ft.AppendRow(table.Row{fs.Feature, fs.Files, fs.Units, fs.Edges, fs.External})
	}
	ft.RenderMarkdown()
	r.Println("")

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Units", fmt.Sprintf("%d", g.TotalUnits)))
	r.Println(output.FormatKeyValue("Total Edges", fmt.Sprintf("%d", g.TotalEdges)))
	r.Println(output.FormatKeyValue("Unresolved References", fmt.Sprintf("%d", g.Unresolved)))
	if len(g.Ambiguous) > 0 {
		r.Println(output.FormatKeyValue("Ambiguous Names", strings.Join(g.Ambiguous, ", ")))
	}
	if len(g.Cycle) > 0 {
		r.Println(output.FormatKeyValue("Cycle", strings.Join(g.Cycle, " -> ")))
	}

	return nil
}
