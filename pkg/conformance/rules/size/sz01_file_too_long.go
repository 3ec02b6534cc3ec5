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
		ID:          "SZ01",
		Name:        "file-too-long",
		Group:       "size",
		Description: "File exceeds the line threshold and has no split",
		Severity:    core.SeverityWarning,
		Check:       checkFileTooLong,
		ConfigKeys:  []string{"max_file_lines", "part_suffix"},

		Rationale: `Past a few hundred lines a file stops fitting in one reading. The threshold is the
point where a unit must either shed responsibilities or split its layout code into the
companion part file. A file exactly at the threshold passes; one line over does not.`,

		BadExample: `// booking_screen.dart, 612 lines, no part file`,

		GoodExample: `// booking_screen.dart       (the unit)
// booking_screen_components.dart (its extracted layout pieces)`,

		Fix: "Extract widgets or helpers into the '<name>' + '<name>_components' part pair, or break the unit up.",
	})
}

// checkFileTooLong flags standalone files over the threshold. Files that
// belong to a part group are sized by SZ02 as a group.
func checkFileTooLong(ctx *conformance.Context) []core.Violation {
	max := ctx.Policy().MaxFileLines
	suffix := ctx.Policy().PartSuffix
	var violations []core.Violation

	for _, f := range ctx.Files() {
		if ctx.Grouped(f.RelPath) {
			continue
		}
		if f.Lines <= max {
			continue
		}

		ext := path.Ext(f.RelPath)
		companion := strings.TrimSuffix(path.Base(f.RelPath), ext) + suffix + ext

		violations = append(violations, core.Violation{
			RuleID:   "SZ01",
			Kind:     core.KindFileSizeViolation,
			Severity: core.SeverityWarning,
			Feature:  f.Feature,
			File:     f.RelPath,
			Message: fmt.Sprintf("'%s' has %d lines (limit %d) and no split; extract a '%s' part file",
				f.RelPath, f.Lines, max, companion),
		})
	}

	return violations
}
