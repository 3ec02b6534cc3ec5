package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/layerlint/layerlint/internal/engine"
	"github.com/layerlint/layerlint/pkg/core"
)

// NewExploreCommand creates the explore command.
func NewExploreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore the dependency graph interactively",
		Long: `Open an interactive session over the resolved dependency graph.

The project is scanned once up front; afterwards units can be inspected
by name with tab completion. Type a unit name to see its declaration,
or use the dot-commands to walk edges, list features and layers, and
trace what a change would affect.`,
		Example: `  # Explore the current project
  layerlint explore

  # Inside the session
  layerlint> BookingCubit
  layerlint> .deps BookingCubit
  layerlint> .affected Booking`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplore(cmd)
		},
	}
	return cmd
}

func runExplore(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := cmdCtx.Engine.Run(cmd.Context(), engine.Options{Root: cmdCtx.ScanRoot})
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	if result.Stats.Units == 0 {
		cmdCtx.Renderer.Warning("No units found under " + cmdCtx.ScanRoot)
		return nil
	}

	session := newExploreSession(result)

	// Keep session history next to the run state (project-local)
	historyDir := filepath.Dir(cmdCtx.Cfg.StatePath)
	if historyDir != "." && historyDir != "" {
		_ = os.MkdirAll(historyDir, 0750)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "layerlint> ",
		HistoryFile:     filepath.Join(historyDir, "explore_history"),
		AutoComplete:    session.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "layerlint explore (%d units, %d edges)\n", result.Stats.Units, result.Stats.Edges)
	_, _ = fmt.Fprintln(out, "Type a unit name, or .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".quit" || line == ".exit" {
			break
		}

		session.dispatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), line)
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

// exploreSession is one engine result plus the name lookups a session
// queries. The graph is immutable, so the session never rescans.
type exploreSession struct {
	result *engine.Result
	byName map[string][]*core.Unit
	byID   map[string]*core.Unit
}

func newExploreSession(result *engine.Result) *exploreSession {
	s := &exploreSession{
		result: result,
		byName: make(map[string][]*core.Unit),
		byID:   make(map[string]*core.Unit, len(result.Units)),
	}
	for _, u := range result.Units {
		s.byName[u.Name] = append(s.byName[u.Name], u)
		s.byID[u.ID()] = u
	}
	return s
}

func (s *exploreSession) dispatch(out, errOut io.Writer, line string) {
	if !strings.HasPrefix(line, ".") {
		s.showUnits(out, errOut, line)
		return
	}

	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch command {
	case ".help":
		printExploreHelp(out)

	case ".unit":
		if arg == "" {
			_, _ = fmt.Fprintln(errOut, "Usage: .unit <name>")
			return
		}
		s.showUnits(out, errOut, arg)

	case ".deps":
		s.showEdges(out, errOut, arg, "Usage: .deps <name>", "references", s.result.Graph.Dependencies)

	case ".rdeps":
		s.showEdges(out, errOut, arg, "Usage: .rdeps <name>", "referenced by", s.result.Graph.Dependents)

	case ".upstream":
		s.showEdges(out, errOut, arg, "Usage: .upstream <name>", "transitively references", s.result.Graph.Upstream)

	case ".path":
		if len(parts) < 3 {
			_, _ = fmt.Fprintln(errOut, "Usage: .path <from> <to>")
			return
		}
		s.showPath(out, errOut, parts[1], parts[2])

	case ".affected":
		if arg == "" {
			_, _ = fmt.Fprintln(errOut, "Usage: .affected <name>")
			return
		}
		s.showAffected(out, errOut, arg)

	case ".feature":
		s.showFeature(out, errOut, arg)

	case ".layer":
		s.showLayer(out, errOut, arg)

	case ".roots":
		_, _ = fmt.Fprintln(out, "Units referencing nothing in the project:")
		s.printIDs(out, s.result.Graph.Roots())

	case ".leaves":
		_, _ = fmt.Fprintln(out, "Units nothing references:")
		s.printIDs(out, s.result.Graph.Leaves())

	case ".stats":
		s.showStats(out)

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
}

// resolve maps input, a declared name or a file#name identity, to units.
func (s *exploreSession) resolve(input string) []*core.Unit {
	if strings.Contains(input, "#") {
		if u, ok := s.byID[input]; ok {
			return []*core.Unit{u}
		}
		return nil
	}
	return s.byName[input]
}

func (s *exploreSession) showUnits(out, errOut io.Writer, input string) {
	units := s.resolve(input)
	if len(units) == 0 {
		_, _ = fmt.Fprintf(errOut, "No unit named %q (tab completes known names)\n", input)
		return
	}

	for i, u := range units {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		id := u.ID()
		_, _ = fmt.Fprintf(out, "%s (%s)\n", u.Name, u.Kind)
		_, _ = fmt.Fprintf(out, "  File:     %s:%d-%d\n", u.File, u.StartLine, u.EndLine)
		_, _ = fmt.Fprintf(out, "  Feature:  %s\n", displayFeature(u.Feature))
		_, _ = fmt.Fprintf(out, "  Layer:    %s\n", u.Layer)
		_, _ = fmt.Fprintf(out, "  Edges:    %d out, %d in\n",
			len(s.result.Graph.Dependencies(id)), len(s.result.Graph.Dependents(id)))
	}
}

// showEdges resolves the named unit and prints one edge set per match.
func (s *exploreSession) showEdges(out, errOut io.Writer, arg, usage, verb string, edges func(string) []string) {
	if arg == "" {
		_, _ = fmt.Fprintln(errOut, usage)
		return
	}
	units := s.resolve(arg)
	if len(units) == 0 {
		_, _ = fmt.Fprintf(errOut, "No unit named %q (tab completes known names)\n", arg)
		return
	}

	for i, u := range units {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintf(out, "%s %s:\n", u.ID(), verb)
		s.printIDs(out, edges(u.ID()))
	}
}

// showPath prints one shortest reference chain per resolved endpoint pair.
func (s *exploreSession) showPath(out, errOut io.Writer, fromArg, toArg string) {
	fromUnits := s.resolve(fromArg)
	if len(fromUnits) == 0 {
		_, _ = fmt.Fprintf(errOut, "No unit named %q (tab completes known names)\n", fromArg)
		return
	}
	toUnits := s.resolve(toArg)
	if len(toUnits) == 0 {
		_, _ = fmt.Fprintf(errOut, "No unit named %q (tab completes known names)\n", toArg)
		return
	}

	for _, from := range fromUnits {
		for _, to := range toUnits {
			path := s.result.Graph.Path(from.ID(), to.ID())
			if path == nil {
				_, _ = fmt.Fprintf(out, "%s does not reach %s\n", from.ID(), to.ID())
				continue
			}
			_, _ = fmt.Fprintf(out, "%s reaches %s:\n", from.ID(), to.ID())
			s.printIDs(out, path)
		}
	}
}

func (s *exploreSession) showAffected(out, errOut io.Writer, arg string) {
	units := s.resolve(arg)
	if len(units) == 0 {
		_, _ = fmt.Fprintf(errOut, "No unit named %q (tab completes known names)\n", arg)
		return
	}

	for i, u := range units {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		id := u.ID()
		affected := s.result.Graph.Affected([]string{id})
		// Affected includes the changed unit itself; show only the blast radius.
		filtered := affected[:0]
		for _, a := range affected {
			if a != id {
				filtered = append(filtered, a)
			}
		}
		_, _ = fmt.Fprintf(out, "A change to %s can break:\n", id)
		s.printIDs(out, filtered)
	}
}

func (s *exploreSession) showFeature(out, errOut io.Writer, arg string) {
	if arg == "" {
		_, _ = fmt.Fprintln(out, "Features:")
		counts := make(map[string]int)
		for _, u := range s.result.Units {
			counts[u.Feature]++
		}
		for _, f := range s.result.Features {
			_, _ = fmt.Fprintf(out, "  %-20s %d units\n", f, counts[f])
		}
		return
	}

	var ids []string
	for _, u := range s.result.Units {
		if u.Feature == arg {
			ids = append(ids, u.ID())
		}
	}
	if len(ids) == 0 {
		_, _ = fmt.Fprintf(errOut, "No feature named %q\n", arg)
		return
	}
	sort.Strings(ids)
	_, _ = fmt.Fprintf(out, "Units in feature %s:\n", arg)
	s.printIDs(out, ids)
}

func (s *exploreSession) showLayer(out, errOut io.Writer, arg string) {
	if arg == "" {
		_, _ = fmt.Fprintln(out, "Layers:")
		counts := make(map[core.Layer]int)
		for _, u := range s.result.Units {
			counts[u.Layer]++
		}
		for _, l := range append(core.Layers(), core.LayerUnclassified) {
			if counts[l] == 0 {
				continue
			}
			_, _ = fmt.Fprintf(out, "  %-22s %d units\n", l, counts[l])
		}
		return
	}

	layer, ok := core.ParseLayer(arg)
	if !ok && !strings.EqualFold(arg, string(core.LayerUnclassified)) {
		_, _ = fmt.Fprintf(errOut, "Unknown layer %q\n", arg)
		return
	}
	if !ok {
		layer = core.LayerUnclassified
	}

	var ids []string
	for _, u := range s.result.Units {
		if u.Layer == layer {
			ids = append(ids, u.ID())
		}
	}
	sort.Strings(ids)
	_, _ = fmt.Fprintf(out, "Units in layer %s:\n", layer)
	s.printIDs(out, ids)
}

func (s *exploreSession) showStats(out io.Writer) {
	_, _ = fmt.Fprintln(out, s.result.Summary())
	_, _ = fmt.Fprintf(out, "Roots: %d | Leaves: %d | Features: %d\n",
		len(s.result.Graph.Roots()), len(s.result.Graph.Leaves()), len(s.result.Features))
	if has, path := s.result.Graph.HasCycle(); has {
		_, _ = fmt.Fprintf(out, "Cycle: %s\n", strings.Join(path, " -> "))
	}
	if len(s.result.Ambiguous) > 0 {
		_, _ = fmt.Fprintf(out, "Ambiguous names: %s\n", strings.Join(s.result.Ambiguous, ", "))
	}
}

// printIDs renders a set of unit IDs with their layer and file, one per line.
func (s *exploreSession) printIDs(out io.Writer, ids []string) {
	if len(ids) == 0 {
		_, _ = fmt.Fprintln(out, "  (none)")
		return
	}
	for _, id := range ids {
		u, ok := s.byID[id]
		if !ok {
			_, _ = fmt.Fprintf(out, "  %s\n", id)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %-32s %-22s %s\n", u.Name, u.Layer, u.File)
	}
}

func displayFeature(feature string) string {
	if feature == "" {
		return "(source root)"
	}
	return feature
}

func printExploreHelp(w io.Writer) {
	help := `
Commands:
  <name>             Show a unit's declaration and edge counts
  .unit <name>       Same as typing the name
  .deps <name>       Units the given unit references
  .rdeps <name>      Units referencing the given unit
  .upstream <name>   Everything it transitively references
  .path <from> <to>  Shortest reference chain between two units
  .affected <name>   Everything a change to it can break
  .feature [name]    List features, or the units of one
  .layer [name]      List layers, or the units of one
  .roots             Units referencing nothing
  .leaves            Units nothing references
  .stats             Run summary
  .clear             Clear the screen
  .quit / .exit      Exit the session

Tips:
  - Names shared across features resolve to every match; use the
    file#name form to pin one
  - Tab completion works for names and commands
`
	_, _ = fmt.Fprintln(w, help)
}

// completer builds tab completion over unit names, features, layers, and
// the dot-commands.
func (s *exploreSession) completer() *readline.PrefixCompleter {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	nameItems := func() []readline.PrefixCompleterInterface {
		items := make([]readline.PrefixCompleterInterface, 0, len(names))
		for _, n := range names {
			items = append(items, readline.PcItem(n))
		}
		return items
	}

	featureItems := make([]readline.PrefixCompleterInterface, 0, len(s.result.Features))
	for _, f := range s.result.Features {
		featureItems = append(featureItems, readline.PcItem(f))
	}

	layerItems := make([]readline.PrefixCompleterInterface, 0, len(core.Layers()))
	for _, l := range core.Layers() {
		layerItems = append(layerItems, readline.PcItem(string(l)))
	}

	items := nameItems()
	items = append(items,
		readline.PcItem(".unit", nameItems()...),
		readline.PcItem(".deps", nameItems()...),
		readline.PcItem(".rdeps", nameItems()...),
		readline.PcItem(".upstream", nameItems()...),
		readline.PcItem(".path", nameItems()...),
		readline.PcItem(".affected", nameItems()...),
		readline.PcItem(".feature", featureItems...),
		readline.PcItem(".layer", layerItems...),
		readline.PcItem(".roots"),
		readline.PcItem(".leaves"),
		readline.PcItem(".stats"),
		readline.PcItem(".help"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
