package parsing

import (
	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "PE01",
		Name:        "parse-error",
		Group:       "parsing",
		Description: "File could not be structurally parsed",
		Severity:    core.SeverityError,
		Check:       checkParseErrors,

		Rationale: `A file the extractor cannot parse contributes no units and no edges, so every layer
rule is blind to it. The failure is reported as a finding and the rest of the project is
still checked; one broken file never aborts the run.`,

		Fix: "Fix the syntax error at the reported line. The rest of the report already covers every other file.",
	})
}

func checkParseErrors(ctx *conformance.Context) []core.Violation {
	return failuresByRule(ctx, "PE01")
}

// failuresByRule selects the inventory-time findings belonging to one rule.
func failuresByRule(ctx *conformance.Context, ruleID string) []core.Violation {
	var violations []core.Violation
	for _, f := range ctx.Failures() {
		if f.RuleID == ruleID {
			violations = append(violations, f)
		}
	}
	return violations
}
