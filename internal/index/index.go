// Package index walks a project's source tree once and produces the
// normalized file inventory the rest of the pipeline consumes: every source
// file with its feature and folder-derived layer, plus the part-file groups
// paired by filename convention. The walk never mutates the scanned tree.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/layerlint/layerlint/pkg/core"
)

const sourceExt = ".dart"

// Generated-file suffixes excluded when the policy says so.
var generatedSuffixes = []string{".g.dart", ".freezed.dart"}

// Inventory is the product of one walk. Line counts and part-directive
// refinements are filled in by the extraction barrier; everything else is
// final once Scan returns.
type Inventory struct {
	// Root is the absolute project root.
	Root string
	// SourceDir is the absolute path of the scanned source directory.
	SourceDir string
	// Features lists discovered feature names, sorted.
	Features []string
	// Files lists indexed files sorted by RelPath.
	Files []*core.FileInfo
	// Groups lists part-file groups paired by filename convention,
	// sorted by Base.
	Groups []*core.PartGroup
	// SkippedGenerated counts files excluded by the generated-file policy.
	SkippedGenerated int
	// WalkViolations records unreadable entries discovered during the walk.
	WalkViolations []core.Violation
}

// FileByRel returns the indexed file for a project-relative path, or nil.
func (inv *Inventory) FileByRel(rel string) *core.FileInfo {
	for _, f := range inv.Files {
		if f.RelPath == rel {
			return f
		}
	}
	return nil
}

// Scanner walks source trees against a policy's folder table.
type Scanner struct {
	policy *core.Policy
	logger *slog.Logger
}

// NewScanner creates a scanner. A nil logger discards.
func NewScanner(policy *core.Policy, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{policy: policy, logger: logger}
}

// Scan walks root's source dir and builds the inventory. The returned error
// is reserved for a missing or unreadable source dir; per-file problems
// degrade into WalkViolations.
func (s *Scanner) Scan(root string) (*Inventory, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	sourceDir := filepath.Join(absRoot, s.policy.SourceDir)

	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("source dir %s: %w", s.policy.SourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source dir %s is not a directory", s.policy.SourceDir)
	}

	inv := &Inventory{Root: absRoot, SourceDir: sourceDir}
	featureSet := make(map[string]bool)

	walkErr := filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			rel := s.relPath(sourceDir, path)
			inv.WalkViolations = append(inv.WalkViolations, core.Violation{
				RuleID:   "IO01",
				Kind:     core.KindIOError,
				Severity: core.SeverityError,
				File:     rel,
				Message:  fmt.Sprintf("cannot read %s: %v", rel, err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := info.Name()

		// Skip hidden entries
		if strings.HasPrefix(name, ".") && path != sourceDir {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !strings.HasSuffix(name, sourceExt) {
			return nil
		}

		if s.policy.SkipGenerated && IsGenerated(name) {
			inv.SkippedGenerated++
			return nil
		}

		rel := s.relPath(sourceDir, path)
		feature := featureOf(rel)
		if feature != "" {
			featureSet[feature] = true
		}

		inv.Files = append(inv.Files, &core.FileInfo{
			Path:    path,
			RelPath: rel,
			Feature: feature,
			Layer:   s.classify(rel, feature),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan source dir: %w", walkErr)
	}

	sort.Slice(inv.Files, func(i, j int) bool {
		return inv.Files[i].RelPath < inv.Files[j].RelPath
	})
	for f := range featureSet {
		inv.Features = append(inv.Features, f)
	}
	sort.Strings(inv.Features)

	s.pairPartGroups(inv)

	s.logger.Info("indexed source tree",
		"files", len(inv.Files),
		"features", len(inv.Features),
		"part_groups", len(inv.Groups),
		"skipped_generated", inv.SkippedGenerated)

	return inv, nil
}

// relPath renders a path relative to the source dir with forward slashes,
// the form every report uses.
func (s *Scanner) relPath(sourceDir, path string) string {
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// featureOf returns the first path segment, or "" for files directly under
// the source dir.
func featureOf(rel string) string {
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}

// classify resolves the folder-derived layer: the nearest enclosing folder
// between the file and its feature root that matches the policy's folder
// table wins. Folders shared by an interface/impl pair classify as the
// concrete layer here; extraction refines abstract declarations.
func (s *Scanner) classify(rel, feature string) core.Layer {
	if feature == "" {
		return core.LayerUnclassified
	}

	segments := strings.Split(rel, "/")
	// segments[0] is the feature, the last is the filename.
	for i := len(segments) - 2; i >= 1; i-- {
		specs := s.policy.SpecsForFolder(segments[i])
		if len(specs) == 0 {
			continue
		}
		layer := specs[0].Layer
		for _, spec := range specs {
			if !spec.Abstract {
				layer = spec.Layer
			}
		}
		return layer
	}
	return core.LayerUnclassified
}

// pairPartGroups links files by the split-filename convention: a primary
// x.dart with a sibling x<PartSuffix>.dart forms one logical group for
// size rules.
func (s *Scanner) pairPartGroups(inv *Inventory) {
	byRel := make(map[string]*core.FileInfo, len(inv.Files))
	for _, f := range inv.Files {
		byRel[f.RelPath] = f
	}

	for _, f := range inv.Files {
		base := strings.TrimSuffix(f.RelPath, sourceExt)
		companionRel := base + s.policy.PartSuffix + sourceExt
		companion, ok := byRel[companionRel]
		if !ok {
			continue
		}

		f.PartBase = base
		companion.PartBase = base
		inv.Groups = append(inv.Groups, &core.PartGroup{
			Base:    base,
			Feature: f.Feature,
			Layer:   f.Layer,
			Files:   []string{f.RelPath, companionRel},
		})
	}

	sort.Slice(inv.Groups, func(i, j int) bool {
		return inv.Groups[i].Base < inv.Groups[j].Base
	})
}

// IsGenerated reports whether a filename carries a code-generator suffix.
func IsGenerated(name string) bool {
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
