package engine

// run.go - one conformance run, from source walk to sorted findings

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/layerlint/layerlint/internal/extract"
	"github.com/layerlint/layerlint/internal/graph"
	"github.com/layerlint/layerlint/internal/index"
	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

// Options controls a single run.
type Options struct {
	// Root is the project root containing the policy's source dir.
	Root string
	// ForceFullRefresh bypasses the extraction cache and re-parses every
	// file.
	ForceFullRefresh bool
}

// RunStats counts the work one run performed.
type RunStats struct {
	FilesIndexed     int
	FilesFromCache   int
	FilesFailed      int
	GeneratedSkipped int
	Units            int
	Edges            int
	Unresolved       int
	Ambiguous        int
}

// Result is the complete outcome of one run. Violations are sorted by
// (feature, file, line, rule) and two runs over an unchanged tree produce
// identical results, cached or not.
type Result struct {
	Root     string
	Features []string
	Files    []*core.FileInfo
	Groups   []*core.PartGroup
	Units    []*core.Unit
	Edges    []core.Edge
	Graph    *graph.Graph
	// Ambiguous lists names declared more than once, excluded from
	// resolution.
	Ambiguous  []string
	Violations []core.Violation
	Stats      RunStats
	Duration   time.Duration
}

// Summary returns a one-line overview of the run.
func (r *Result) Summary() string {
	counts := core.CountBySeverity(r.Violations)
	return fmt.Sprintf("%d files (%d cached, %d failed) | %d units | %d edges | %d errors, %d warnings | %v",
		r.Stats.FilesIndexed, r.Stats.FilesFromCache, r.Stats.FilesFailed,
		r.Stats.Units, r.Stats.Edges,
		counts[core.SeverityError], counts[core.SeverityWarning],
		r.Duration.Round(time.Millisecond))
}

// SeverityCounts tallies findings by severity.
func (r *Result) SeverityCounts() map[core.Severity]int {
	return core.CountBySeverity(r.Violations)
}

// Failed reports whether the run should fail an enforcement gate: any
// error-severity finding fails, and strict mode fails on warnings too.
func (r *Result) Failed(strict bool) bool {
	for _, v := range r.Violations {
		if v.Severity == core.SeverityError {
			return true
		}
		if strict && v.Severity == core.SeverityWarning {
			return true
		}
	}
	return false
}

// Run executes the full pipeline against opts.Root:
//
//  1. Index the source tree against the policy's folder table.
//  2. Extract units from every indexed file, in parallel, consulting the
//     cache when one is configured.
//  3. Merge per-file results back into the inventory: line counts, part
//     groups declared by directive, extraction failures.
//  4. Resolve unit references into the dependency graph.
//  5. Analyze the assembled context against the registered rules.
//
// Per-file problems degrade into findings on the result. The returned
// error is reserved for an unusable root and for cancellation.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := e.beginRun(opts.Root)

	result, err := e.run(ctx, opts)

	e.finishRun(runID, result, err)
	return result, err
}

func (e *Engine) run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	e.logger.Info("starting conformance run",
		"root", opts.Root, "workers", e.workers, "force", opts.ForceFullRefresh)

	// Step 1: index the source tree.
	scanner := index.NewScanner(e.policy, e.logger)
	inv, err := scanner.Scan(opts.Root)
	if err != nil {
		return nil, err
	}

	// Step 2: extract units from every file.
	extractions, fromCache, err := e.extractAll(ctx, inv, opts.ForceFullRefresh)
	if err != nil {
		return nil, err
	}
	if e.store != nil {
		e.pruneCache(inv)
	}

	// Step 3: merge extraction results into the inventory.
	units, failures, failed := e.mergeFiles(inv, extractions)
	e.mergeGroups(inv, extractions)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: resolve references into the dependency graph.
	built := graph.Build(units)
	e.logger.Debug("dependency graph built",
		"units", len(built.Units),
		"edges", len(built.Edges),
		"unresolved", built.Unresolved,
		"ambiguous", len(built.Ambiguous))

	// Step 5: analyze.
	cctx := conformance.NewContext(e.policy, built.Units, inv.Files, inv.Groups, built.Edges, failures)
	violations := e.analyzer.Analyze(cctx)

	result := &Result{
		Root:       inv.Root,
		Features:   inv.Features,
		Files:      inv.Files,
		Groups:     inv.Groups,
		Units:      built.Units,
		Edges:      built.Edges,
		Graph:      built.Graph,
		Ambiguous:  built.Ambiguous,
		Violations: violations,
		Stats: RunStats{
			FilesIndexed:     len(inv.Files),
			FilesFromCache:   fromCache,
			FilesFailed:      failed,
			GeneratedSkipped: inv.SkippedGenerated,
			Units:            len(built.Units),
			Edges:            len(built.Edges),
			Unresolved:       built.Unresolved,
			Ambiguous:        len(built.Ambiguous),
		},
		Duration: time.Since(start),
	}

	e.logger.Info("conformance run completed",
		"files", result.Stats.FilesIndexed,
		"cached", result.Stats.FilesFromCache,
		"failed", result.Stats.FilesFailed,
		"units", result.Stats.Units,
		"edges", result.Stats.Edges,
		"violations", len(result.Violations),
		"duration", result.Duration.Round(time.Millisecond))

	return result, nil
}

// extractAll parses every indexed file under the worker budget. The
// returned slice aligns with inv.Files by index.
func (e *Engine) extractAll(ctx context.Context, inv *index.Inventory, force bool) ([]*extract.Result, int, error) {
	results := make([]*extract.Result, len(inv.Files))
	var fromCache atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, f := range inv.Files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, hit := e.extractOne(f, force)
			if hit {
				fromCache.Add(1)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return results, int(fromCache.Load()), nil
}

// mergeFiles folds per-file extraction results back into the inventory:
// line counts onto files, units into one slice ordered by (file, start
// line), failures into findings alongside the walk's own. The unit order
// falls out of the walk order, so resolution downstream is deterministic.
func (e *Engine) mergeFiles(inv *index.Inventory, extractions []*extract.Result) ([]*core.Unit, []core.Violation, int) {
	failures := append([]core.Violation(nil), inv.WalkViolations...)
	var units []*core.Unit
	failed := 0

	for i, res := range extractions {
		f := inv.Files[i]
		f.Lines = res.Lines
		if res.Failure != nil {
			failures = append(failures, *res.Failure)
			failed++
			continue
		}
		units = append(units, res.Units...)
	}

	return units, failures, failed
}

// mergeGroups unions part-directive groups with the filename-convention
// groups the index already paired. A primary file and the parts it
// declares form one logical file for size purposes, whatever the parts
// are named.
func (e *Engine) mergeGroups(inv *index.Inventory, extractions []*extract.Result) {
	byRel := make(map[string]*core.FileInfo, len(inv.Files))
	for _, f := range inv.Files {
		byRel[f.RelPath] = f
	}
	byBase := make(map[string]*core.PartGroup, len(inv.Groups))
	for _, g := range inv.Groups {
		byBase[g.Base] = g
	}

	for i, res := range extractions {
		f := inv.Files[i]
		for _, partRel := range res.Parts {
			linkPart(inv, byBase, byRel, f.RelPath, partRel)
		}
		if res.PartOf != "" {
			linkPart(inv, byBase, byRel, res.PartOf, f.RelPath)
		}
	}

	for _, g := range inv.Groups {
		total := 0
		for _, rel := range g.Files {
			if member := byRel[rel]; member != nil {
				total += member.Lines
			}
		}
		g.TotalLines = total
	}

	sort.Slice(inv.Groups, func(i, j int) bool {
		return inv.Groups[i].Base < inv.Groups[j].Base
	})
}

// linkPart joins a primary file and one declared part into the group keyed
// by the primary's base name. Directives pointing outside the indexed tree
// are ignored; there is nothing there to size.
func linkPart(inv *index.Inventory, byBase map[string]*core.PartGroup, byRel map[string]*core.FileInfo, primaryRel, partRel string) {
	if primaryRel == partRel {
		return
	}
	primary, ok := byRel[primaryRel]
	if !ok {
		return
	}
	member, ok := byRel[partRel]
	if !ok {
		return
	}

	base := strings.TrimSuffix(primaryRel, path.Ext(primaryRel))
	g := byBase[base]
	if g == nil {
		g = &core.PartGroup{
			Base:    base,
			Feature: primary.Feature,
			Layer:   primary.Layer,
			Files:   []string{primaryRel},
		}
		primary.PartBase = base
		byBase[base] = g
		inv.Groups = append(inv.Groups, g)
	}
	if !slices.Contains(g.Files, partRel) {
		g.Files = append(g.Files, partRel)
		sort.Strings(g.Files)
	}
	member.PartBase = base
}

// beginRun records a run start when a cache is configured. Bookkeeping
// failures degrade to a log line; the run itself proceeds.
func (e *Engine) beginRun(root string) string {
	if e.store == nil {
		return ""
	}
	rec, err := e.store.CreateRun(root)
	if err != nil {
		e.logger.Warn("run bookkeeping unavailable", "error", err)
		return ""
	}
	e.logger.Debug("created run", "run_id", rec.ID)
	return rec.ID
}

// finishRun closes the bookkeeping record opened by beginRun.
func (e *Engine) finishRun(runID string, result *Result, err error) {
	if e.store == nil || runID == "" {
		return
	}

	status := core.RunStatusCompleted
	violations := 0
	errMsg := ""
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		status = core.RunStatusCancelled
		errMsg = err.Error()
	case err != nil:
		status = core.RunStatusFailed
		errMsg = err.Error()
	default:
		violations = len(result.Violations)
	}

	if cerr := e.store.CompleteRun(runID, status, violations, errMsg); cerr != nil {
		e.logger.Warn("failed to record run completion", "run_id", runID, "error", cerr)
	}
}
