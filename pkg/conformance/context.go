package conformance

import (
	"github.com/layerlint/layerlint/pkg/core"
)

// Context provides all data needed for a conformance run: the policy and the
// immutable inventory assembled by the scan/extract/resolve pipeline. Rules
// only ever read it, so a single Context is safely shared by concurrent
// checks.
type Context struct {
	policy   *core.Policy
	units    []*core.Unit
	files    []*core.FileInfo
	groups   []*core.PartGroup
	grouped  map[string]bool // RelPaths that belong to a part group
	edges    []core.Edge
	failures []core.Violation
}

// NewContext creates a run context. The slices are handed over, not copied;
// callers must not mutate them afterward. failures carries the per-file
// parse/IO findings collected while building the inventory, so they flow
// through the same disable and severity machinery as every other rule.
func NewContext(policy *core.Policy, units []*core.Unit, files []*core.FileInfo, groups []*core.PartGroup, edges []core.Edge, failures []core.Violation) *Context {
	grouped := make(map[string]bool)
	for _, g := range groups {
		for _, member := range g.Files {
			grouped[member] = true
		}
	}
	return &Context{
		policy:   policy,
		units:    units,
		files:    files,
		groups:   groups,
		grouped:  grouped,
		edges:    edges,
		failures: failures,
	}
}

// Policy returns the architecture policy for this run.
func (c *Context) Policy() *core.Policy {
	return c.policy
}

// Units returns every extracted source unit.
func (c *Context) Units() []*core.Unit {
	return c.units
}

// Files returns every indexed source file.
func (c *Context) Files() []*core.FileInfo {
	return c.files
}

// File returns the indexed file for a project-relative path, or nil.
func (c *Context) File(rel string) *core.FileInfo {
	for _, f := range c.files {
		if f.RelPath == rel {
			return f
		}
	}
	return nil
}

// Groups returns every part-file group.
func (c *Context) Groups() []*core.PartGroup {
	return c.groups
}

// Grouped reports whether the file at rel belongs to a part group. Grouped
// files are sized as a group, never individually.
func (c *Context) Grouped(rel string) bool {
	return c.grouped[rel]
}

// Edges returns every resolved dependency edge.
func (c *Context) Edges() []core.Edge {
	return c.edges
}

// Failures returns the parse and IO findings recorded while the inventory
// was built.
func (c *Context) Failures() []core.Violation {
	return c.failures
}
