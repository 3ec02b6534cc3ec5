package dependency

import (
	"fmt"

	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "DP02",
		Name:        "cross-feature-dependency",
		Group:       "dependency",
		Description: "Reference into another feature that is not the common feature",
		Severity:    core.SeverityError,
		Check:       checkCrossFeature,
		ConfigKeys:  []string{"common_feature"},

		Rationale: `Features are vertical slices that must stay independently deletable. Any feature may
depend on the common feature, but a non-common feature may never be depended on by another
feature, the common feature included. Once two features reach into each other neither can be
removed or reworked without breaking the other, and shared code silently accumulates outside
the place reserved for it.`,

		BadExample: `// lib/settings/cubits/settings_cubit.dart
class SettingsCubit extends Cubit<SettingsState> {
  final AuthenticationRepository repository; // declared under lib/authentication/
}`,

		GoodExample: `// lib/settings/cubits/settings_cubit.dart
class SettingsCubit extends Cubit<SettingsState> {
  final SessionRepository repository; // declared under lib/common/
}`,

		Fix: "Move the shared type into the common feature, or duplicate the small piece the feature actually needs.",
	})
}

// checkCrossFeature flags every edge that leaves its feature for a target
// outside the common feature. Edges touching files directly under the
// source root carry no feature and are skipped; those files are already
// reported by ST01.
func checkCrossFeature(ctx *conformance.Context) []core.Violation {
	common := ctx.Policy().CommonFeature
	var violations []core.Violation

	for _, edge := range ctx.Edges() {
		if edge.FromFeature == "" || edge.ToFeature == "" {
			continue
		}
		if !edge.CrossFeature(common) {
			continue
		}

		msg := fmt.Sprintf("cross-feature dependency: '%s' (feature '%s') references '%s' (feature '%s')",
			edge.FromName, edge.FromFeature, edge.ToName, edge.ToFeature)
		if edge.FromFeature == common {
			msg += fmt.Sprintf("; '%s' must not depend on feature code", common)
		} else {
			msg += fmt.Sprintf("; features may only share code through '%s'", common)
		}

		violations = append(violations, core.Violation{
			RuleID:   "DP02",
			Kind:     core.KindIllegalDependency,
			Severity: core.SeverityError,
			Feature:  edge.FromFeature,
			File:     edge.FromFile,
			Line:     edge.Line,
			Unit:     edge.FromName,
			Message:  msg,
		})
	}

	return violations
}
