// Package graph resolves extracted reference names into the project's
// dependency graph. Resolution is case-sensitive exact matching against the
// declared-unit inventory; unresolved names carry no layering information
// and are dropped. The built graph is immutable once Build returns.
package graph

import (
	"fmt"
	"sort"

	"github.com/layerlint/layerlint/pkg/core"
)

// Node is one unit in the dependency graph.
type Node struct {
	// ID is the unit's project-unique identity (file#name).
	ID   string
	Unit *core.Unit
}

// Graph is the adjacency view over resolved dependencies, used by the graph
// and explore surfaces. Self-references are kept in the edge list the rules
// consume but excluded here, where they would only fabricate cycles.
type Graph struct {
	nodes        map[string]*Node
	dependents   map[string][]string // unit -> units referencing it
	dependencies map[string][]string // unit -> units it references
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:        make(map[string]*Node),
		dependents:   make(map[string][]string),
		dependencies: make(map[string][]string),
	}
}

// AddUnit registers a unit as a node.
func (g *Graph) AddUnit(u *core.Unit) {
	id := u.ID()
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Unit: u}
		g.dependents[id] = []string{}
		g.dependencies[id] = []string{}
	} else {
		g.nodes[id].Unit = u
	}
}

// AddDependency records that fromID references toID. Both nodes must exist;
// self-loops are rejected; duplicates are suppressed.
func (g *Graph) AddDependency(fromID, toID string) error {
	if _, exists := g.nodes[fromID]; !exists {
		return fmt.Errorf("unit %q does not exist", fromID)
	}
	if _, exists := g.nodes[toID]; !exists {
		return fmt.Errorf("unit %q does not exist", toID)
	}
	if fromID == toID {
		return fmt.Errorf("self-reference: %s", fromID)
	}

	if !contains(g.dependencies[fromID], toID) {
		g.dependencies[fromID] = append(g.dependencies[fromID], toID)
	}
	if !contains(g.dependents[toID], fromID) {
		g.dependents[toID] = append(g.dependents[toID], fromID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Dependencies returns the units the given unit references.
func (g *Graph) Dependencies(id string) []string {
	return g.dependencies[id]
}

// Dependents returns the units referencing the given unit.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// AllNodes returns all nodes sorted by ID for deterministic output.
func (g *Graph) AllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of adjacency edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, deps := range g.dependencies {
		count += len(deps)
	}
	return count
}

// HasCycle reports whether the reference graph contains a cycle, along with
// one offending path. Mutual references are legal in the analyzed language,
// so a cycle is reported, never fatal.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, depID := range g.dependencies[id] {
			if !visited[depID] {
				path[depID] = id
				if dfs(depID) {
					return true
				}
			} else if recStack[depID] {
				// Found cycle, reconstruct path
				cyclePath = []string{depID}
				for curr := id; curr != depID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{depID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns nodes with dependencies before dependents.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		for _, depID := range g.dependencies[id] {
			visit(depID)
		}

		result = append(result, g.nodes[id])
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		visit(id)
	}

	return result, nil
}

// Levels groups units by dependency depth: level 0 references nothing in
// the project, level N references something at level N-1. Errors on cycles.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	levels := [][]string{}
	assigned := make(map[string]int)

	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}

		deps := g.dependencies[id]
		if len(deps) == 0 {
			assigned[id] = 0
			return 0
		}

		maxDepLevel := 0
		for _, depID := range deps {
			depLevel := getLevel(depID)
			if depLevel > maxDepLevel {
				maxDepLevel = depLevel
			}
		}

		level := maxDepLevel + 1
		assigned[id] = level
		return level
	}

	maxLevel := 0
	for id := range g.nodes {
		level := getLevel(id)
		if level > maxLevel {
			maxLevel = level
		}
	}

	for i := 0; i <= maxLevel; i++ {
		levels = append(levels, []string{})
	}
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}

	for i := range levels {
		sort.Strings(levels[i])
	}

	return levels, nil
}

// Affected returns the given units plus everything transitively referencing
// them, the set a change to those units can break.
func (g *Graph) Affected(changedIDs []string) []string {
	affected := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true

		for _, depID := range g.dependents[id] {
			mark(depID)
		}
	}

	for _, id := range changedIDs {
		if _, exists := g.nodes[id]; exists {
			mark(id)
		}
	}

	result := make([]string, 0, len(affected))
	for id := range affected {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// Upstream returns everything the given unit transitively references.
func (g *Graph) Upstream(id string) []string {
	upstream := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, depID := range g.dependencies[nodeID] {
			if !upstream[depID] {
				upstream[depID] = true
				mark(depID)
			}
		}
	}

	mark(id)

	result := make([]string, 0, len(upstream))
	for nodeID := range upstream {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Path returns a shortest reference chain from one unit to another,
// following reference direction. Nil when no chain exists.
func (g *Graph) Path(fromID, toID string) []string {
	if _, exists := g.nodes[fromID]; !exists {
		return nil
	}
	if _, exists := g.nodes[toID]; !exists {
		return nil
	}
	if fromID == toID {
		return []string{fromID}
	}

	parent := map[string]string{fromID: ""}
	queue := []string{fromID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, depID := range g.dependencies[id] {
			if _, seen := parent[depID]; seen {
				continue
			}
			parent[depID] = id
			if depID == toID {
				var path []string
				for at := toID; at != ""; at = parent[at] {
					path = append(path, at)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, depID)
		}
	}
	return nil
}

// Roots returns units that reference nothing in the project.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.dependencies[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns units nothing references.
func (g *Graph) Leaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.dependents[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns a new graph containing only the specified units and the
// edges between them.
func (g *Graph) Subgraph(ids []string) *Graph {
	sub := NewGraph()
	included := make(map[string]bool)

	for _, id := range ids {
		included[id] = true
		if node, exists := g.nodes[id]; exists {
			sub.AddUnit(node.Unit)
		}
	}

	for _, id := range ids {
		for _, depID := range g.dependencies[id] {
			if included[depID] {
				_ = sub.AddDependency(id, depID)
			}
		}
	}

	return sub
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
