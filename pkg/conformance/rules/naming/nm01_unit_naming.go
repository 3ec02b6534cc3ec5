package naming

import (
	"fmt"

	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "NM01",
		Name:        "unit-naming",
		Group:       "naming",
		Description: "Declared name does not match the layer's naming pattern",
		Severity:    core.SeverityWarning,
		Check:       checkUnitNaming,
		ConfigKeys:  []string{"layers"},

		Rationale: `The folder decides a unit's layer, and the name repeats that decision for the reader.
A class called 'Login' in the screens folder forces everyone to open the file to learn what it
is; 'LoginScreen' answers at the call site. Names and folders that disagree are also the first
symptom of a file that was dropped into the wrong place.`,

		BadExample: `// lib/authentication/screens/login.dart
class Login extends StatelessWidget {}`,

		GoodExample: `// lib/authentication/screens/login_screen.dart
class LoginScreen extends StatelessWidget {}`,

		Fix: "Rename the unit to match its layer's pattern. If the name is right, the file sits in the wrong folder instead.",
	})
}

// checkUnitNaming re-checks the compliance flag the extractor recorded for
// each unit. Top-level functions and extensions are exempt at extraction
// time; the patterns describe type names.
func checkUnitNaming(ctx *conformance.Context) []core.Violation {
	policy := ctx.Policy()
	var violations []core.Violation

	for _, unit := range ctx.Units() {
		if unit.NameCompliant {
			continue
		}
		if unit.Layer == core.LayerUnclassified {
			continue
		}
		spec := policy.SpecFor(unit.Layer)
		if spec == nil {
			continue
		}
		pattern := spec.PatternDescription()
		if pattern == "" {
			continue
		}

		violations = append(violations, core.Violation{
			RuleID:   "NM01",
			Kind:     core.KindNamingViolation,
			Severity: core.SeverityWarning,
			Feature:  unit.Feature,
			File:     unit.File,
			Line:     unit.StartLine,
			Unit:     unit.Name,
			Message:  fmt.Sprintf("%s '%s' must %s", unit.Layer, unit.Name, pattern),
		})
	}

	return violations
}
