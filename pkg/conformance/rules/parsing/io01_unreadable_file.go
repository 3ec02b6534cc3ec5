package parsing

import (
	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "IO01",
		Name:        "unreadable-file",
		Group:       "parsing",
		Description: "File or directory could not be read",
		Severity:    core.SeverityError,
		Check:       checkIOErrors,

		Rationale: `An unreadable file or directory leaves a hole in the inventory: whatever it contains
is neither indexed nor judged. The report says so explicitly instead of pretending the tree
was fully checked.`,

		Fix: "Check permissions and dangling symlinks at the reported path, then rerun.",
	})
}

func checkIOErrors(ctx *conformance.Context) []core.Violation {
	return failuresByRule(ctx, "IO01")
}
