package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generateConfigDocs generates the configuration reference.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	// Create output directory
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "cli", "check", "policy", "layer"
}

// getConfigSchema returns the configuration schema definition.
// This is based on internal/cli/config/types.go and pkg/core/policy.go.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		// Top-level CLI settings
		{Name: "source_dir", Type: "string", Default: "lib", Description: "Source directory to scan, relative to the project root", Category: "cli"},
		{Name: "policy_file", Type: "string", Description: "Standalone policy file, overriding the inline policy section", Category: "cli"},
		{Name: "state_path", Type: "string", Default: ".layerlint/state.db", Description: "Run cache database path", Category: "cli"},
		{Name: "output", Type: "string", Default: "auto", Description: "Output format: auto, text, markdown, json", Category: "cli"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Emit debug diagnostics on stderr", Category: "cli"},

		// Check defaults
		{Name: "check.disable", Type: "[]string", Description: "Rule IDs to skip on every run", Category: "check"},
		{Name: "check.severity", Type: "map[string]string", Description: "Per-rule severity overrides", Category: "check"},
		{Name: "check.strict", Type: "bool", Default: "false", Description: "Treat warnings as failures", Category: "check"},
		{Name: "check.cache", Type: "bool", Default: "false", Description: "Reuse extraction results for unchanged files", Category: "check"},

		// Inline policy section
		{Name: "policy.common_feature", Type: "string", Default: "common", Description: "Feature every other feature may depend on", Category: "policy"},
		{Name: "policy.max_file_lines", Type: "int", Default: "400", Description: "Line budget before SZ01 fires", Category: "policy"},
		{Name: "policy.part_suffix", Type: "string", Default: "_components", Description: "Folder suffix pairing part files with their owner", Category: "policy"},
		{Name: "policy.skip_generated", Type: "bool", Default: "true", Description: "Skip .g.dart and .freezed.dart files", Category: "policy"},

		// Layer entries under policy.layers
		{Name: "layer", Type: "string", Description: "Layer name, e.g. UI_SCREEN", Category: "layer"},
		{Name: "folder", Type: "string", Description: "Folder name that classifies files into this layer", Category: "layer"},
		{Name: "name_prefix", Type: "string", Description: "Required unit name prefix", Category: "layer"},
		{Name: "name_suffix", Type: "string", Description: "Required unit name suffix", Category: "layer"},
		{Name: "abstract", Type: "bool", Description: "Abstract declarations in a shared folder classify here", Category: "layer"},
		{Name: "allowed_targets", Type: "[]string", Description: "Layers this layer may reference", Category: "layer"},
	}
}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()

	// Frontmatter
	w.Frontmatter("Configuration", "layerlint configuration reference")
	w.GeneratedMarker()

	// Title and intro
	w.Header(1, "Configuration")
	w.Paragraph("layerlint is configured via `layerlint.yaml`, found by searching upward from the working directory. Flags override `LAYERLINT_` environment variables, which override the file.")

	fields := getConfigSchema()

	// Top-level settings section
	w.Header(2, "Project Settings")
	w.Table([]string{"Field", "Type", "Default", "Description"}, fieldRows(fields, "cli", true))

	// Check section
	w.Header(2, "Check Settings")
	w.Paragraph("Defaults for the `check` command. The `--disable`, `--severity`, `--strict`, and `--cache` flags override these per run.")
	w.Table([]string{"Field", "Type", "Default", "Description"}, fieldRows(fields, "check", true))

	w.Header(3, "Check Example")
	w.CodeBlock("yaml", `check:
  disable:
    - NM01
  severity:
    SZ01: error
  strict: true
  cache: true`)

	// Policy section
	w.Header(2, "Policy")
	w.Paragraph("The layer policy lives in the `policy` section, or in a standalone file named by `policy_file`. Omitted scalar fields keep their defaults; a `layers` list replaces the built-in layer table entirely.")
	w.Table([]string{"Field", "Type", "Default", "Description"}, fieldRows(fields, "policy", true))

	w.Header(3, "Layer Entries")
	w.Paragraph("Each entry under `policy.layers` maps one folder name to one layer:")
	w.Table([]string{"Field", "Type", "Description"}, fieldRows(fields, "layer", false))

	w.Header(3, "Policy Example")
	w.CodeBlock("yaml", `policy:
  common_feature: common
  max_file_lines: 400
  layers:
    - layer: UI_SCREEN
      folder: screens
      name_suffix: Screen
      allowed_targets: [UI_VIEW, UI_COMPONENT, CUBIT, CUBIT_STATE]
    - layer: CUBIT
      folder: cubits
      name_suffix: Cubit
      allowed_targets: [CUBIT_STATE, USE_CASE]`)

	// Full example
	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", `# layerlint.yaml
source_dir: lib
state_path: .layerlint/state.db

check:
  disable: []
  severity: {}
  strict: false
  cache: true

policy:
  common_feature: common
  max_file_lines: 400
  part_suffix: _components
  skip_generated: true`)

	// Environment variables
	w.Header(2, "Environment Variables")
	w.Paragraph("Every top-level key can also be set via a `LAYERLINT_` variable, for example:")
	w.CodeBlock("bash", `LAYERLINT_SOURCE_DIR=app/lib layerlint check
LAYERLINT_POLICY_FILE=architecture.yaml layerlint check`)

	// Write file
	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}

// fieldRows renders the schema fields of one category as table rows.
func fieldRows(fields []ConfigField, category string, withDefault bool) [][]string {
	var rows [][]string
	for _, f := range fields {
		if f.Category != category {
			continue
		}
		if withDefault {
			defVal := f.Default
			if defVal == "" {
				defVal = "-"
			} else {
				defVal = InlineCode(defVal)
			}
			rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
			continue
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, f.Description})
	}
	return rows
}
