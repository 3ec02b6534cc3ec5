package size

import (
	"fmt"
	"path"
	"strings"

	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "SZ02",
		Name:        "split-convention",
		Group:       "size",
		Description: "Oversized split does not follow the two-file part convention",
		Severity:    core.SeverityWarning,
		Check:       checkSplitConvention,
		ConfigKeys:  []string{"max_file_lines", "part_suffix"},

		Rationale: `The sanctioned remedy for an oversized file is exactly one companion: '<name>' plus
'<name>_components'. Splits with ad-hoc names or more than two files scatter one unit across
the folder and hide how large it really is. A conventional split is accepted as compliant;
any other split of an oversized unit is not.`,

		BadExample: `booking_screen.dart
booking_widgets.dart     // part of booking_screen
booking_dialogs.dart     // part of booking_screen`,

		GoodExample: `booking_screen.dart
booking_screen_components.dart`,

		Fix: "Merge the parts back and re-split into the single '<name>_components' companion.",
	})
}

// checkSplitConvention sizes each part group as one logical file. Groups at
// or under the threshold pass regardless of shape; oversized groups pass
// only as the exact two-file convention.
func checkSplitConvention(ctx *conformance.Context) []core.Violation {
	policy := ctx.Policy()
	var violations []core.Violation

	for _, g := range ctx.Groups() {
		if g.TotalLines <= policy.MaxFileLines {
			continue
		}
		if conventionalSplit(g, policy.PartSuffix) {
			continue
		}

		ext := ".dart"
		if len(g.Files) > 0 {
			ext = path.Ext(g.Files[0])
		}
		primary := g.Base + ext
		companion := g.Base + policy.PartSuffix + ext

		violations = append(violations, core.Violation{
			RuleID:   "SZ02",
			Kind:     core.KindPartFileConventionViolated,
			Severity: core.SeverityWarning,
			Feature:  g.Feature,
			File:     primary,
			Message: fmt.Sprintf("split of '%s' totals %d lines (limit %d) across %s; an oversized file splits into exactly '%s' and '%s'",
				primary, g.TotalLines, policy.MaxFileLines,
				memberList(g.Files), path.Base(primary), path.Base(companion)),
		})
	}

	return violations
}

// conventionalSplit reports whether the group is the sanctioned pair: the
// primary file plus exactly one companion named base + part suffix.
func conventionalSplit(g *core.PartGroup, partSuffix string) bool {
	if len(g.Files) != 2 {
		return false
	}
	ext := path.Ext(g.Files[0])
	primary := g.Base + ext
	companion := g.Base + partSuffix + ext
	if g.Files[0] == primary && g.Files[1] == companion {
		return true
	}
	return g.Files[0] == companion && g.Files[1] == primary
}

func memberList(files []string) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = "'" + path.Base(f) + "'"
	}
	return strings.Join(names, ", ")
}
