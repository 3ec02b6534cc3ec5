// Package extract performs the per-file structural parse: it strips comment
// and string noise, finds declared units and their line spans, harvests
// candidate reference names, and records part directives. It never resolves
// references; that belongs to the graph builder. A file that defeats the
// structural parse yields one parse-error finding and contributes nothing
// else, the rest of the project is unaffected.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/layerlint/layerlint/pkg/core"
)

// Result is the extraction outcome for one file. Exactly one of Units or
// Failure carries information: a failed file contributes no units.
type Result struct {
	RelPath string
	// Lines is the physical line count.
	Lines int
	// Hash is the hex SHA-256 of the file content, for the optional cache.
	Hash  string
	Units []*core.Unit
	// Parts lists files this one declares as parts, as project-relative
	// paths.
	Parts []string
	// PartOf is set when the file declares itself part of another library.
	PartOf string
	// Failure is the parse or IO finding that excluded this file, nil on
	// success.
	Failure *core.Violation
}

// Extractor runs the structural parse against a policy's layer table.
type Extractor struct {
	policy *core.Policy
	logger *slog.Logger
}

// New creates an extractor. A nil logger discards.
func New(policy *core.Policy, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{policy: policy, logger: logger}
}

// ExtractFile reads and parses one indexed file. Read failures degrade into
// an IO finding on the result, never an error return.
func (e *Extractor) ExtractFile(f *core.FileInfo) *Result {
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return &Result{
			RelPath: f.RelPath,
			Failure: &core.Violation{
				RuleID:   "IO01",
				Kind:     core.KindIOError,
				Severity: core.SeverityError,
				Feature:  f.Feature,
				File:     f.RelPath,
				Message:  fmt.Sprintf("cannot read file: %v", err),
			},
		}
	}
	return e.ExtractContent(f, string(content))
}

// ExtractContent parses file content already in memory.
func (e *Extractor) ExtractContent(f *core.FileInfo, content string) *Result {
	sum := sha256.Sum256([]byte(content))
	result := &Result{
		RelPath: f.RelPath,
		Lines:   countLines(content),
		Hash:    hex.EncodeToString(sum[:]),
	}

	views, cerr := clean(content)
	if cerr != nil {
		result.Failure = parseFailure(f, cerr)
		return result
	}

	e.scanDirectives(f, views.noComments, result)

	decls, cerr := parseDecls(views.code)
	if cerr != nil {
		result.Failure = parseFailure(f, cerr)
		result.Units = nil
		result.Parts = nil
		result.PartOf = ""
		return result
	}

	for _, d := range decls {
		layer := e.refineLayer(f.Layer, d.kind)
		unit := &core.Unit{
			Name:       d.name,
			File:       f.RelPath,
			Feature:    f.Feature,
			Layer:      layer,
			Kind:       d.kind,
			StartLine:  d.startLine + 1,
			EndLine:    d.endLine + 1,
			References: harvestReferences(views.code, d.startLine, d.endLine, d.name),
		}
		unit.NameCompliant = e.nameCompliant(unit)
		result.Units = append(result.Units, unit)
	}

	e.logger.Debug("extracted file",
		"file", f.RelPath, "units", len(result.Units), "lines", result.Lines)

	return result
}

// parseDecls walks the stripped lines, matching declarations at depth zero
// and resolving their spans.
func parseDecls(code []string) ([]decl, *cleanError) {
	var decls []decl
	depth := 0

	for i := 0; i < len(code); i++ {
		if depth == 0 {
			if d, ok := matchDecl(code[i]); ok {
				end, err := spanEnd(code, i)
				if err != nil {
					return nil, err
				}
				d.startLine = i
				d.endLine = end
				decls = append(decls, d)
				i = end
				continue
			}
		}
		var ok bool
		depth, ok = braceDelta(code[i], depth)
		if !ok {
			return nil, &cleanError{line: i + 1, reason: "unbalanced braces"}
		}
	}

	if depth != 0 {
		return nil, &cleanError{line: len(code), reason: "unbalanced braces at end of file"}
	}
	return decls, nil
}

// scanDirectives records part and part-of directives. Part targets are
// normalized to project-relative paths.
func (e *Extractor) scanDirectives(f *core.FileInfo, lines []string, result *Result) {
	dir := path.Dir(f.RelPath)
	for _, line := range lines {
		if m := partOfPattern.FindStringSubmatch(line); m != nil {
			if m[1] != "" {
				result.PartOf = normalizeRel(dir, m[1])
			} else {
				result.PartOf = m[2]
			}
			continue
		}
		if m := partPattern.FindStringSubmatch(line); m != nil {
			result.Parts = append(result.Parts, normalizeRel(dir, m[1]))
		}
	}
}

// refineLayer maps abstract declarations in a shared interface/impl folder
// onto the interface layer. Everything else keeps the folder-derived layer.
func (e *Extractor) refineLayer(fileLayer core.Layer, kind core.UnitKind) core.Layer {
	if !kind.Abstract() {
		return fileLayer
	}
	spec := e.policy.SpecFor(fileLayer)
	if spec == nil {
		return fileLayer
	}
	for _, sibling := range e.policy.SpecsForFolder(spec.Folder) {
		if sibling.Abstract {
			return sibling.Layer
		}
	}
	return fileLayer
}

// nameCompliant evaluates the naming pattern of the unit's layer. Naming
// patterns describe type names; functions and extensions are exempt, as are
// units in unclassified files.
func (e *Extractor) nameCompliant(u *core.Unit) bool {
	if u.Kind == core.KindFunction || u.Kind == core.KindExtension {
		return true
	}
	spec := e.policy.SpecFor(u.Layer)
	if spec == nil {
		return true
	}
	return spec.MatchesName(u.Name)
}

func parseFailure(f *core.FileInfo, cerr *cleanError) *core.Violation {
	return &core.Violation{
		RuleID:   "PE01",
		Kind:     core.KindParseError,
		Severity: core.SeverityError,
		Feature:  f.Feature,
		File:     f.RelPath,
		Line:     cerr.line,
		Message:  fmt.Sprintf("cannot parse file: %s", cerr.reason),
	}
}

// normalizeRel resolves a directive target relative to the declaring file's
// directory.
func normalizeRel(dir, target string) string {
	if dir == "." {
		return path.Clean(target)
	}
	return path.Clean(path.Join(dir, target))
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
