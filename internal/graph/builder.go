package graph

import (
	"sort"

	"github.com/layerlint/layerlint/pkg/core"
)

// Result is the resolved dependency graph: the typed edge list the
// conformance rules judge, plus the adjacency view for navigation.
// Immutable once Build returns.
type Result struct {
	Units []*core.Unit
	// Edges carries every resolved reference with its layer and feature
	// pairs, sorted by (FromFile, FromName, ToFile, ToName). Self-references
	// are included; the dependency rules permit them explicitly.
	Edges []core.Edge
	Graph *Graph
	// Ambiguous lists names declared more than once in the project, sorted.
	// Such names are excluded from resolution entirely: resolving them to
	// any one declaration would fabricate edges the author never wrote.
	Ambiguous []string
	// Unresolved counts dropped candidate references (library types).
	Unresolved int
}

// Build resolves every unit's candidate references against the declared-name
// inventory and produces the edge list and adjacency graph.
func Build(units []*core.Unit) *Result {
	result := &Result{Units: units, Graph: NewGraph()}

	byName := make(map[string][]*core.Unit, len(units))
	for _, u := range units {
		byName[u.Name] = append(byName[u.Name], u)
	}

	ambiguous := make(map[string]bool)
	for name, decls := range byName {
		if len(decls) > 1 {
			ambiguous[name] = true
		}
	}
	for name := range ambiguous {
		result.Ambiguous = append(result.Ambiguous, name)
	}
	sort.Strings(result.Ambiguous)

	for _, u := range units {
		result.Graph.AddUnit(u)
	}

	for _, u := range units {
		for _, ref := range u.References {
			if ambiguous[ref] {
				continue
			}
			targets, ok := byName[ref]
			if !ok {
				result.Unresolved++
				continue
			}
			target := targets[0]

			result.Edges = append(result.Edges, core.Edge{
				FromID:      u.ID(),
				ToID:        target.ID(),
				FromName:    u.Name,
				ToName:      target.Name,
				FromFile:    u.File,
				ToFile:      target.File,
				FromFeature: u.Feature,
				ToFeature:   target.Feature,
				FromLayer:   u.Layer,
				ToLayer:     target.Layer,
				Line:        u.StartLine,
			})

			if u.ID() != target.ID() {
				_ = result.Graph.AddDependency(u.ID(), target.ID())
			}
		}
	}

	sort.Slice(result.Edges, func(i, j int) bool {
		a, b := result.Edges[i], result.Edges[j]
		if a.FromFile != b.FromFile {
			return a.FromFile < b.FromFile
		}
		if a.FromName != b.FromName {
			return a.FromName < b.FromName
		}
		if a.ToFile != b.ToFile {
			return a.ToFile < b.ToFile
		}
		return a.ToName < b.ToName
	})

	return result
}
