// Package conformance evaluates an indexed project against its architecture
// policy and produces the violation report.
//
// Rules are stateless check functions registered under stable IDs. Each rule
// reads the immutable run context (policy, units, files, part groups,
// dependency edges) and returns violations; it never mutates the context and
// never short-circuits the run.
//
// # Rule Categories
//
// Rules are organized into categories:
//
//   - dependency (DP*): layer allow-lists and feature boundaries
//   - naming (NM*): per-layer naming patterns
//   - structure (ST*): folder placement and classification
//   - size (SZ*): file size threshold and the split convention
//   - parsing (PE*, IO*): per-file extraction failures surfaced as findings
//
// # Usage
//
// Build a Context from a finished extraction pass and run the analyzer:
//
//	ctx := conformance.NewContext(policy, units, files, groups, edges, failures)
//	analyzer := conformance.NewAnalyzer(config)
//	violations := analyzer.Analyze(ctx)
//
// Analyze returns violations sorted by (feature, file, line, rule ID), so the
// report for a fixed tree and policy is identical on every run.
package conformance
