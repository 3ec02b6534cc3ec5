package main

import (
	"fmt"
	"strings"
)

// MarkdownWriter accumulates a markdown document line by line.
type MarkdownWriter struct {
	b strings.Builder
}

// NewMarkdownWriter creates an empty writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Frontmatter writes a YAML frontmatter block.
func (w *MarkdownWriter) Frontmatter(title, description string) {
	w.Line("---")
	w.Line(fmt.Sprintf("title: %s", title))
	w.Line(fmt.Sprintf("description: %s", description))
	w.Line("---")
	w.Newline()
}

// generatedHeader marks documents produced by this generator.
const generatedHeader = "<!-- GENERATED by scripts/gendocs. Do not edit by hand. -->"

// GeneratedMarker writes the generated-file warning comment.
func (w *MarkdownWriter) GeneratedMarker() {
	w.Line(generatedHeader)
	w.Newline()
}

// Header writes a markdown header at the given level.
func (w *MarkdownWriter) Header(level int, text string) {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	w.Line(strings.Repeat("#", level) + " " + text)
	w.Newline()
}

// Paragraph writes a paragraph followed by a blank line.
func (w *MarkdownWriter) Paragraph(text string) {
	w.Line(strings.TrimSpace(text))
	w.Newline()
}

// BulletList writes one bullet per item.
func (w *MarkdownWriter) BulletList(items []string) {
	for _, item := range items {
		w.Line("- " + item)
	}
	w.Newline()
}

// Table writes a markdown table. Pipes inside cells are escaped.
func (w *MarkdownWriter) Table(headers []string, rows [][]string) {
	w.Line("| " + strings.Join(escapeCells(headers), " | ") + " |")
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	w.Line("| " + strings.Join(seps, " | ") + " |")
	for _, row := range rows {
		w.Line("| " + strings.Join(escapeCells(row), " | ") + " |")
	}
	w.Newline()
}

// CodeBlock writes a fenced code block with the given language tag.
func (w *MarkdownWriter) CodeBlock(lang, code string) {
	w.Line("```" + lang)
	w.Line(strings.TrimRight(code, "\n"))
	w.Line("```")
	w.Newline()
}

// Line writes one raw line.
func (w *MarkdownWriter) Line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

// Newline writes a blank line.
func (w *MarkdownWriter) Newline() {
	w.b.WriteByte('\n')
}

// Bytes returns the accumulated document.
func (w *MarkdownWriter) Bytes() []byte {
	return []byte(w.b.String())
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", "\\|")
	}
	return out
}

// Bold wraps text in bold markers.
func Bold(s string) string {
	return "**" + s + "**"
}

// InlineCode wraps text in backticks.
func InlineCode(s string) string {
	return "`" + s + "`"
}

// cleanDescription reduces a possibly multi-line description to its
// first line for use in table cells.
func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
