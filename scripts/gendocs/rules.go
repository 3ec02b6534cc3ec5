package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/layerlint/layerlint/pkg/conformance"
	_ "github.com/layerlint/layerlint/pkg/conformance/rules"
)

// groupDescriptions provides human-readable descriptions for rule groups.
var groupDescriptions = map[string]string{
	"dependency": "Rules about cross-layer and cross-feature dependencies.",
	"naming":     "Rules about unit naming conventions per layer.",
	"structure":  "Rules about file placement and folder conventions.",
	"size":       "Rules about file size and split conventions.",
	"parsing":    "Rules reporting files the scanner could not read or extract.",
}

// groupOrder fixes the section order on the rules page.
var groupOrder = []string{"dependency", "naming", "structure", "size", "parsing"}

// generateRuleDocs generates all conformance rule documentation files.
func generateRuleDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rules := conformance.GetAll()

	// Generate index page
	if err := generateRuleIndex(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	// Generate the rule reference page
	if err := generateRulesPage(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated rules.md")

	return nil
}

// generateRuleIndex generates the main rules overview page.
func generateRuleIndex(outDir string, rules []conformance.RuleDef) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Conformance Rules", "Layered architecture conformance rules for layerlint")
	w.GeneratedMarker()

	w.Header(1, "Conformance Rules")
	w.Paragraph(fmt.Sprintf("layerlint ships %d conformance rules that check the dependency graph, unit naming, file placement, and file size against the layer policy.", len(rules)))

	w.Header(2, "Severity Levels")
	w.Table(
		[]string{"Severity", "Description"},
		[][]string{
			{InlineCode("error"), "Layering break that should be fixed"},
			{InlineCode("warning"), "Drift that should be reviewed"},
			{InlineCode("info"), "Informational feedback"},
			{InlineCode("hint"), "Suggestion for improvement"},
		},
	)

	w.Header(2, "Configuration")
	w.Paragraph("Rules can be configured in `layerlint.yaml`:")
	w.CodeBlock("yaml", `check:
  disable:
    - NM01            # skip a rule entirely
  severity:
    SZ01: error       # override a rule's severity
  strict: true        # treat warnings as failures`)

	w.Header(2, "Rule Categories")
	w.Table(
		[]string{"Category", "Prefix", "Description"},
		[][]string{
			{"[Dependency](/rules/rules#dependency)", "DP", "Cross-layer and cross-feature dependencies"},
			{"[Naming](/rules/rules#naming)", "NM", "Unit naming conventions"},
			{"[Structure](/rules/rules#structure)", "ST", "File placement and folder conventions"},
			{"[Size](/rules/rules#size)", "SZ", "File size and split conventions"},
			{"[Parsing](/rules/rules#parsing)", "PE, IO", "Unreadable and unparseable files"},
		},
	)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// generateRulesPage generates the rule reference page.
func generateRulesPage(outDir string, rules []conformance.RuleDef) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Rule Reference", "Conformance rule reference for layerlint")
	w.GeneratedMarker()

	w.Header(1, "Rule Reference")
	w.Paragraph(fmt.Sprintf("layerlint includes %d conformance rules organized into %d categories.", len(rules), len(groupOrder)))

	grouped := groupRulesByGroup(rules)

	for _, group := range groupOrder {
		groupRules, ok := grouped[group]
		if !ok || len(groupRules) == 0 {
			continue
		}

		// Write group header with anchor
		w.Line(fmt.Sprintf("## %s {#%s}", capitalizeFirst(group), group))
		w.Newline()

		if desc, ok := groupDescriptions[group]; ok {
			w.Paragraph(desc)
		}

		// Write each rule with full documentation
		for _, rule := range groupRules {
			writeRuleDoc(w, rule)
		}
	}

	return os.WriteFile(filepath.Join(outDir, "rules.md"), w.Bytes(), 0600)
}

// groupRulesByGroup organizes rules by their Group field.
func groupRulesByGroup(rules []conformance.RuleDef) map[string][]conformance.RuleDef {
	grouped := make(map[string][]conformance.RuleDef)
	for _, r := range rules {
		grouped[r.Group] = append(grouped[r.Group], r)
	}
	// Sort rules within each group by ID
	for group := range grouped {
		sort.Slice(grouped[group], func(i, j int) bool {
			return grouped[group][i].ID < grouped[group][j].ID
		})
	}
	return grouped
}

// capitalizeFirst capitalizes the first letter of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule conformance.RuleDef) {
	// Rule header with anchor: ### DP01 - illegal-layer-dependency {#DP01}
	w.Line(fmt.Sprintf("### %s - %s {#%s}", rule.ID, rule.Name, rule.ID))
	w.Newline()

	// Severity badge and description
	w.Line(fmt.Sprintf("**Severity:** %s", InlineCode(rule.Severity.String())))
	w.Newline()

	w.Paragraph(cleanDescription(rule.Description))

	// Rationale (if available)
	if rule.Rationale != "" {
		w.Header(4, "Why This Matters")
		w.Paragraph(strings.TrimSpace(rule.Rationale))
	}

	// Bad example (if available)
	if rule.BadExample != "" {
		w.Header(4, "Bad")
		w.CodeBlock("dart", rule.BadExample)
	}

	// Good example (if available)
	if rule.GoodExample != "" {
		w.Header(4, "Good")
		w.CodeBlock("dart", rule.GoodExample)
	}

	// Fix (if available)
	if rule.Fix != "" {
		w.Header(4, "How to Fix")
		w.Paragraph(strings.TrimSpace(rule.Fix))
	}

	// Policy keys (if available)
	if len(rule.ConfigKeys) > 0 {
		w.Header(4, "Configuration")
		w.Paragraph(fmt.Sprintf("This rule reads the following policy keys: %s",
			InlineCode(strings.Join(rule.ConfigKeys, ", "))))
	}

	// Horizontal rule between rules for readability
	w.Line("---")
	w.Newline()
}
