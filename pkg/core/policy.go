package core

import (
	"fmt"
	"strings"
)

// Policy is the declared architecture: the layer table, naming patterns,
// allowed dependency targets, and project-level limits. Loaded once per run
// and read-only afterward.
type Policy struct {
	// SourceDir is the directory scanned for features, relative to the
	// project root.
	SourceDir string `koanf:"source_dir"`
	// CommonFeature names the feature every other feature may depend on.
	CommonFeature string `koanf:"common_feature"`
	// MaxFileLines is the file size threshold. A file (or part group) with
	// more lines than this must follow the split convention.
	MaxFileLines int `koanf:"max_file_lines"`
	// PartSuffix is the filename suffix of the secondary file in a split
	// (base "booking_screen" splits into "booking_screen" plus
	// "booking_screen" + PartSuffix).
	PartSuffix string `koanf:"part_suffix"`
	// SkipGenerated excludes *.g.dart and *.freezed.dart files at index time.
	SkipGenerated bool `koanf:"skip_generated"`
	// Layers is the layer table. Defaults cover all thirteen layers; a
	// policy file may override entries or narrow allowed targets.
	Layers []LayerSpec `koanf:"layers"`
}

// LayerSpec declares one layer: its folder, naming pattern, kind
// discriminator, and the layers its units may depend on.
type LayerSpec struct {
	Layer Layer `koanf:"layer"`
	// Folder is the role folder name that classifies files into this layer.
	// Interface/impl pairs share a folder and are told apart by Abstract.
	Folder string `koanf:"folder"`
	// NamePrefix and NameSuffix form the naming pattern. Empty means no
	// constraint on that side.
	NamePrefix string `koanf:"name_prefix"`
	NameSuffix string `koanf:"name_suffix"`
	// Abstract restricts this layer to interface-like declarations when the
	// folder is shared with an impl layer.
	Abstract bool `koanf:"abstract"`
	// AllowedTargets lists the layers units of this layer may reference.
	// Business objects and same-layer self-references are always permitted
	// and need not be listed.
	AllowedTargets []Layer `koanf:"allowed_targets"`
}

// MatchesName reports whether a declared name satisfies the layer's
// naming pattern.
func (s *LayerSpec) MatchesName(name string) bool {
	if s.NamePrefix != "" && !strings.HasPrefix(name, s.NamePrefix) {
		return false
	}
	if s.NameSuffix != "" && !strings.HasSuffix(name, s.NameSuffix) {
		return false
	}
	// A bare prefix or suffix is not a compliant name.
	return name != s.NamePrefix+s.NameSuffix
}

// PatternDescription renders the naming pattern for report messages,
// e.g. "end with 'Screen'". Empty when the layer has no pattern.
func (s *LayerSpec) PatternDescription() string {
	switch {
	case s.NamePrefix != "" && s.NameSuffix != "":
		return fmt.Sprintf("start with %q and end with %q", s.NamePrefix, s.NameSuffix)
	case s.NamePrefix != "":
		return fmt.Sprintf("start with %q", s.NamePrefix)
	case s.NameSuffix != "":
		return fmt.Sprintf("end with %q", s.NameSuffix)
	default:
		return ""
	}
}

// AllowsTarget reports whether units of this layer may reference units of
// the target layer. Business objects and the layer itself are always
// permitted targets.
func (s *LayerSpec) AllowsTarget(to Layer) bool {
	if to == LayerBusinessObject || to == s.Layer {
		return true
	}
	for _, allowed := range s.AllowedTargets {
		if allowed == to {
			return true
		}
	}
	return false
}

// SpecFor returns the declaration of the given layer, or nil when the
// policy does not declare it.
func (p *Policy) SpecFor(layer Layer) *LayerSpec {
	for i := range p.Layers {
		if p.Layers[i].Layer == layer {
			return &p.Layers[i]
		}
	}
	return nil
}

// SpecsForFolder returns every layer declared for the folder name. Two
// entries mean an interface/impl pair disambiguated by Abstract.
func (p *Policy) SpecsForFolder(folder string) []LayerSpec {
	var specs []LayerSpec
	for _, s := range p.Layers {
		if s.Folder == folder {
			specs = append(specs, s)
		}
	}
	return specs
}

// PolicyError reports an invalid policy. It is the one fatal error class:
// raised before any scanning, it aborts the run.
type PolicyError struct {
	// Field names the offending policy entry, e.g. "layers.CUBIT.folder".
	Field  string
	Reason string
}

func (e *PolicyError) Error() string {
	if e.Field == "" {
		return "invalid policy: " + e.Reason
	}
	return fmt.Sprintf("invalid policy: %s: %s", e.Field, e.Reason)
}
