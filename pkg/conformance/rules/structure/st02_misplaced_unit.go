package structure

import (
	"fmt"
	"sort"

	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "ST02",
		Name:        "misplaced-unit",
		Group:       "structure",
		Description: "Name matches another layer's pattern while the folder says a different layer",
		Severity:    core.SeverityWarning,
		Check:       checkMisplacedUnit,
		ConfigKeys:  []string{"layers"},

		Rationale: `The folder decides the layer; the name is never trusted over the location. But when a
name fails its own layer's pattern and matches exactly one other layer, the file almost
certainly sits in the wrong folder, and the unit is being held to rules its author never
intended. The mismatch is reported instead of silently resolving it either way.`,

		BadExample: `// lib/booking/cubits/booking_state.dart
class BookingState extends Equatable {} // named like a state, classified as a cubit`,

		GoodExample: `// lib/booking/states/booking_state.dart
class BookingState extends Equatable {}`,

		Fix: "Move the file into the folder of the layer the name points at, or rename the unit for the layer it actually belongs to.",
	})
}

// checkMisplacedUnit looks for the folder/name disagreement: a unit that
// fails its own layer's pattern while matching the pattern of exactly one
// other layer. Layers sharing the unit's folder (interface/impl pairs) do
// not count as other locations.
func checkMisplacedUnit(ctx *conformance.Context) []core.Violation {
	policy := ctx.Policy()
	var violations []core.Violation

	for _, unit := range ctx.Units() {
		if unit.NameCompliant {
			continue
		}
		if unit.Layer == core.LayerUnclassified {
			continue
		}
		if unit.Kind == core.KindFunction || unit.Kind == core.KindExtension {
			continue
		}
		own := policy.SpecFor(unit.Layer)
		if own == nil {
			continue
		}

		var matches []*core.LayerSpec
		folders := make(map[string]bool)
		for i := range policy.Layers {
			s := &policy.Layers[i]
			if s.Layer == unit.Layer || s.Folder == own.Folder {
				continue
			}
			// A layer without a pattern accepts any name; that is no
			// signal the unit belongs there.
			if s.NamePrefix == "" && s.NameSuffix == "" {
				continue
			}
			if !s.MatchesName(unit.Name) {
				continue
			}
			matches = append(matches, s)
			folders[s.Folder] = true
		}
		if len(folders) != 1 {
			continue
		}

		sort.Slice(matches, func(i, j int) bool { return matches[i].Layer.Rank() < matches[j].Layer.Rank() })
		match := matches[0]

		violations = append(violations, core.Violation{
			RuleID:   "ST02",
			Kind:     core.KindStructureViolation,
			Severity: core.SeverityWarning,
			Feature:  unit.Feature,
			File:     unit.File,
			Line:     unit.StartLine,
			Unit:     unit.Name,
			Message: fmt.Sprintf("'%s' is named like a %s but sits in '%s/' (%s); move it to '%s/' or rename it",
				unit.Name, match.Layer, own.Folder, unit.Layer, match.Folder),
		})
	}

	return violations
}
