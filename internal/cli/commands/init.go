package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new layerlint project",
		Long: `Initialize a layerlint project with a starter configuration.

This creates:
  - layerlint.yaml configuration file
  - .gitignore covering the run state directory

Use --example to also create a small feature-first Dart counter app
whose layer graph passes every rule, as a reference for structuring
your own features.`,
		Example: `  # Initialize in current directory
  layerlint init

  # Initialize with a working example project
  layerlint init --example

  # Initialize in a new directory
  layerlint init my-app --example

  # Force overwrite existing config
  layerlint init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			if example {
				return runInitExample(r, dir, force)
			}
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Create a working example project alongside the config")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := prepareInitDir(dir, force); err != nil {
		return err
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("layerlint project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Point source_dir at your Dart sources (default: lib)")
	r.Println("  2. Run 'layerlint check' to scan for layering violations")
	r.Println("  3. Run 'layerlint rules' to see what gets checked")

	return nil
}

func runInitExample(r *output.Renderer, dir string, force bool) error {
	if err := prepareInitDir(dir, force); err != nil {
		return err
	}

	if err := copyTemplate("example", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("example")
	groups := groupTemplateFiles(files)

	r.Header(2, "Configuration")
	for _, f := range groups["config"] {
		r.StatusLine(f, "success", "")
	}

	if entry := groups["lib"]; len(entry) > 0 {
		r.Println("")
		r.Header(2, "Entrypoint")
		for _, f := range entry {
			r.StatusLine(f, "success", "")
		}
	}

	for _, feature := range sortedFeatureGroups(groups) {
		r.Println("")
		r.Header(2, "Feature: "+feature)
		for _, f := range groups[feature] {
			r.StatusLine(f, "success", "")
		}
	}

	r.Println("")
	r.Success("layerlint example project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  layerlint check      Scan lib/ for layering violations")
	r.Println("  layerlint graph      Visualize the unit dependency graph")
	r.Println("  layerlint explore    Browse dependencies interactively")
	r.Println("  layerlint doctor     Summarize project health")

	return nil
}

// prepareInitDir creates the target directory and refuses to clobber an
// existing config unless forced.
func prepareInitDir(dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := dir + "/layerlint.yaml"
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("layerlint.yaml already exists. Use --force to overwrite")
	}

	return nil
}

// sortedFeatureGroups returns the feature group names, excluding the fixed
// config and entrypoint buckets, in stable order.
func sortedFeatureGroups(groups map[string][]string) []string {
	var features []string
	for name := range groups {
		if name == "config" || name == "lib" {
			continue
		}
		features = append(features, name)
	}
	sort.Strings(features)
	return features
}
