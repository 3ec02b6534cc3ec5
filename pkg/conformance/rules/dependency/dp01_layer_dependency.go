package dependency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "DP01",
		Name:        "illegal-layer-dependency",
		Group:       "dependency",
		Description: "Dependency target is not in the source layer's allowed set",
		Severity:    core.SeverityError,
		Check:       checkLayerDependency,
		ConfigKeys:  []string{"layers"},

		Rationale: `Each layer may only reach the layers listed as its allowed targets. A screen that
talks to a repository implementation, or a use case that reads a data source directly, couples
the UI edge to storage details and makes the middle layers impossible to swap or test in
isolation. Business objects are the shared data currency and are always a permitted target,
as are references within the same layer.`,

		BadExample: `class BookingScreen extends StatelessWidget {
  final SQLiteBookingDataSource dataSource; // screen reaching into storage
}`,

		GoodExample: `class BookingScreen extends StatelessWidget {
  final BookingCubit cubit; // screen talks to its cubit only
}`,

		Fix: "Route the dependency through the intermediate layers, or adjust the layer's allowed targets in the policy if the architecture really permits it.",
	})
}

// checkLayerDependency flags every edge whose target layer is missing from
// the source layer's allowed set. Business objects and same-layer targets
// are always in the set.
func checkLayerDependency(ctx *conformance.Context) []core.Violation {
	policy := ctx.Policy()
	var violations []core.Violation

	for _, edge := range ctx.Edges() {
		if edge.SelfReference() {
			continue
		}
		// Unclassified endpoints are reported by ST01; their edges cannot
		// be judged against the layer table.
		if edge.FromLayer == core.LayerUnclassified || edge.ToLayer == core.LayerUnclassified {
			continue
		}

		spec := policy.SpecFor(edge.FromLayer)
		if spec == nil || spec.AllowsTarget(edge.ToLayer) {
			continue
		}

		violations = append(violations, core.Violation{
			RuleID:   "DP01",
			Kind:     core.KindIllegalDependency,
			Severity: core.SeverityError,
			Feature:  edge.FromFeature,
			File:     edge.FromFile,
			Line:     edge.Line,
			Unit:     edge.FromName,
			Message: fmt.Sprintf("%s '%s' depends on %s '%s'; %s may only reach %s",
				edge.FromLayer, edge.FromName, edge.ToLayer, edge.ToName,
				edge.FromLayer, allowedTargets(spec)),
		})
	}

	return violations
}

// allowedTargets renders the layer's reachable set for the message, in
// canonical layer order with the implicit business-object target last.
func allowedTargets(spec *core.LayerSpec) string {
	targets := make([]core.Layer, 0, len(spec.AllowedTargets))
	for _, t := range spec.AllowedTargets {
		if t == core.LayerBusinessObject {
			continue
		}
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Rank() < targets[j].Rank() })

	names := make([]string, 0, len(targets)+1)
	for _, t := range targets {
		names = append(names, t.String())
	}
	names = append(names, core.LayerBusinessObject.String())
	return strings.Join(names, ", ")
}
