package core

import "sort"

// ViolationKind classifies a finding. The set is closed: rules may only
// produce these kinds, so a report consumer can switch exhaustively.
type ViolationKind string

// Violation kinds.
const (
	KindIllegalDependency          ViolationKind = "illegal_dependency"
	KindNamingViolation            ViolationKind = "naming_violation"
	KindStructureViolation         ViolationKind = "structure_violation"
	KindFileSizeViolation          ViolationKind = "file_size_violation"
	KindPartFileConventionViolated ViolationKind = "part_file_convention_violation"
	KindParseError                 ViolationKind = "parse_error"
	KindIOError                    ViolationKind = "io_error"
)

// Violation is one conformance finding. Immutable once produced; the engine
// collects, sorts, and reports them, it never mutates them.
type Violation struct {
	RuleID   string        `json:"rule_id"`
	Kind     ViolationKind `json:"kind"`
	Severity Severity      `json:"severity"`
	// Feature owning the offending file, or the common feature name.
	// Empty for findings outside any feature.
	Feature string `json:"feature,omitempty"`
	// File is the project-relative path of the offending file.
	File string `json:"file"`
	// Line and EndLine bound the offending range, 1-based. Zero means the
	// finding applies to the whole file.
	Line    int `json:"line,omitempty"`
	EndLine int `json:"end_line,omitempty"`
	// Unit is the declared name the finding is about, when there is one.
	Unit    string `json:"unit,omitempty"`
	Message string `json:"message"`
}

// SortViolations orders findings by (feature, file, line, rule ID).
// Every reporter sorts with this so identical inputs produce byte-identical
// reports regardless of filesystem enumeration or scheduling order.
func SortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Feature != b.Feature {
			return a.Feature < b.Feature
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
}

// CountBySeverity tallies findings per severity level.
func CountBySeverity(vs []Violation) map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, v := range vs {
		counts[v.Severity]++
	}
	return counts
}

// HasSeverity reports whether any finding is at the given severity or worse.
// Severities order from SeverityError (worst) upward.
func HasSeverity(vs []Violation, max Severity) bool {
	for _, v := range vs {
		if v.Severity <= max {
			return true
		}
	}
	return false
}
