package policy

import (
	"fmt"

	"github.com/layerlint/layerlint/pkg/core"
)

// Validate checks the policy for structural consistency. It returns a
// *core.PolicyError describing the first problem found, or nil. A policy
// that fails validation aborts the run before any scanning.
func Validate(p *core.Policy) error {
	if p == nil {
		return &core.PolicyError{Reason: "policy is nil"}
	}
	if p.SourceDir == "" {
		return &core.PolicyError{Field: "source_dir", Reason: "must not be empty"}
	}
	if p.CommonFeature == "" {
		return &core.PolicyError{Field: "common_feature", Reason: "must not be empty"}
	}
	if p.MaxFileLines <= 0 {
		return &core.PolicyError{
			Field:  "max_file_lines",
			Reason: fmt.Sprintf("must be a positive integer, got %d", p.MaxFileLines),
		}
	}
	if p.PartSuffix == "" {
		return &core.PolicyError{Field: "part_suffix", Reason: "must not be empty"}
	}
	if len(p.Layers) == 0 {
		return &core.PolicyError{Field: "layers", Reason: "at least one layer must be declared"}
	}

	declared := make(map[core.Layer]bool, len(p.Layers))
	for _, s := range p.Layers {
		if !s.Layer.Valid() {
			return &core.PolicyError{
				Field:  "layers",
				Reason: fmt.Sprintf("unknown layer %q", string(s.Layer)),
			}
		}
		if declared[s.Layer] {
			return &core.PolicyError{
				Field:  "layers." + s.Layer.String(),
				Reason: "declared more than once",
			}
		}
		declared[s.Layer] = true
		if s.Folder == "" {
			return &core.PolicyError{
				Field:  "layers." + s.Layer.String() + ".folder",
				Reason: "must not be empty",
			}
		}
	}

	// Allow-lists may only name declared layers.
	for _, s := range p.Layers {
		for _, target := range s.AllowedTargets {
			if !declared[target] {
				return &core.PolicyError{
					Field: "layers." + s.Layer.String() + ".allowed_targets",
					Reason: fmt.Sprintf("references undeclared layer %q",
						string(target)),
				}
			}
		}
	}

	// A folder may classify at most two layers, and only as an
	// interface/impl pair told apart by the Abstract flag.
	byFolder := make(map[string][]core.LayerSpec)
	for _, s := range p.Layers {
		byFolder[s.Folder] = append(byFolder[s.Folder], s)
	}
	for folder, specs := range byFolder {
		switch len(specs) {
		case 1:
			// fine
		case 2:
			if specs[0].Abstract == specs[1].Abstract {
				return &core.PolicyError{
					Field: "layers",
					Reason: fmt.Sprintf(
						"layers %s and %s share folder %q without an abstract discriminator",
						specs[0].Layer, specs[1].Layer, folder),
				}
			}
		default:
			return &core.PolicyError{
				Field:  "layers",
				Reason: fmt.Sprintf("folder %q is claimed by %d layers", folder, len(specs)),
			}
		}
	}

	return nil
}
