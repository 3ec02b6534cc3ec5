package output

import (
	"fmt"
	"strings"
)

// FormatHeader returns a markdown heading at the given level.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown key-value bullet.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// WrapText wraps prose to the given width, preserving existing line breaks.
// Words longer than the width stay on their own line unbroken.
func WrapText(s string, width int) string {
	if width <= 0 {
		return s
	}

	var b strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(wrapLine(line, width))
	}
	return b.String()
}

func wrapLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}

	var b strings.Builder
	length := 0
	for _, word := range words {
		switch {
		case length == 0:
			b.WriteString(word)
			length = len(word)
		case length+1+len(word) <= width:
			b.WriteString(" ")
			b.WriteString(word)
			length += 1 + len(word)
		default:
			b.WriteString("\n")
			b.WriteString(word)
			length = len(word)
		}
	}
	return b.String()
}

// GraphOutput is the JSON document the graph command emits.
type GraphOutput struct {
	Root       string         `json:"root"`
	Layers     []LayerStats   `json:"layers"`
	Features   []FeatureStats `json:"features"`
	TotalUnits int            `json:"total_units"`
	TotalEdges int            `json:"total_edges"`
	Unresolved int            `json:"unresolved_references"`
	Ambiguous  []string       `json:"ambiguous_names,omitempty"`
	Cycle      []string       `json:"cycle,omitempty"`
}

// LayerStats summarizes one layer's units and reference traffic.
type LayerStats struct {
	Layer    string `json:"layer"`
	Units    int    `json:"units"`
	Outgoing int    `json:"outgoing"`
	Incoming int    `json:"incoming"`
}

// FeatureStats summarizes one feature directory.
type FeatureStats struct {
	Feature  string `json:"feature"`
	Files    int    `json:"files"`
	Units    int    `json:"units"`
	Edges    int    `json:"edges"`
	External int    `json:"external_edges"`
}

// CheckOutput is the JSON document the check command emits.
type CheckOutput struct {
	Root    string            `json:"root"`
	Summary CheckSummary      `json:"summary"`
	Files   []CheckFileResult `json:"files,omitempty"`
}

// CheckSummary aggregates one run's counts. FilesSkipped counts files
// excluded for parse or I/O errors and is never folded into the violation
// tallies.
type CheckSummary struct {
	FilesScanned int   `json:"files_scanned"`
	FilesSkipped int   `json:"files_skipped"`
	Units        int   `json:"units"`
	Edges        int   `json:"edges"`
	Violations   int   `json:"violations"`
	Errors       int   `json:"errors"`
	Warnings     int   `json:"warnings"`
	Info         int   `json:"info"`
	Hints        int   `json:"hints"`
	DurationMS   int64 `json:"duration_ms"`
}

// CheckFileResult groups violations for a single file.
type CheckFileResult struct {
	Path       string           `json:"path"`
	Feature    string           `json:"feature,omitempty"`
	Violations []CheckViolation `json:"violations"`
}

// CheckViolation is one finding in JSON output.
type CheckViolation struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	EndLine  int    `json:"end_line,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Message  string `json:"message"`
}
