package policy

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/layerlint/layerlint/pkg/core"
)

// LayerDecodeHook converts layer names from config files into core.Layer
// values, accepting lower case and hyphen separators. Unknown names fail the
// decode so a typo surfaces as a PolicyError instead of a silently ignored
// layer entry.
func LayerDecodeHook() mapstructure.DecodeHookFunc {
	layerType := reflect.TypeOf(core.Layer(""))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != layerType || from.Kind() != reflect.String {
			return data, nil
		}
		name, _ := data.(string)
		layer, ok := core.ParseLayer(name)
		if !ok {
			return nil, fmt.Errorf("unknown layer %q", name)
		}
		return layer, nil
	}
}

// Decode unmarshals the policy rooted at path in an already-loaded koanf
// tree, applies defaults, and validates. An empty path decodes the whole
// tree (standalone policy files).
func Decode(k *koanf.Koanf, path string) (*core.Policy, error) {
	var p core.Policy
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       LayerDecodeHook(),
			Result:           &p,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf(path, &p, conf); err != nil {
		return nil, &core.PolicyError{Reason: fmt.Sprintf("cannot decode policy: %v", err)}
	}

	// skip_generated defaults on; ApplyDefaults cannot tell an explicit
	// false from an absent key, so the key's presence decides here.
	if !k.Exists(keyPath(path, "skip_generated")) {
		p.SkipGenerated = true
	}

	ApplyDefaults(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads and validates a standalone YAML policy file, as given to
// the --policy flag. Missing layers fall back to the built-in table.
func LoadFile(path string) (*core.Policy, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, &core.PolicyError{Reason: fmt.Sprintf("cannot read policy file %s: %v", path, err)}
	}
	return Decode(k, "")
}

func keyPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ToMap renders the policy as a plain map with the same keys the config
// file uses, for `policy show` in YAML or JSON form.
func ToMap(p *core.Policy) map[string]any {
	layers := make([]map[string]any, 0, len(p.Layers))
	for _, s := range p.Layers {
		entry := map[string]any{
			"layer":  s.Layer.String(),
			"folder": s.Folder,
		}
		if s.NamePrefix != "" {
			entry["name_prefix"] = s.NamePrefix
		}
		if s.NameSuffix != "" {
			entry["name_suffix"] = s.NameSuffix
		}
		if s.Abstract {
			entry["abstract"] = true
		}
		if len(s.AllowedTargets) > 0 {
			targets := make([]string, len(s.AllowedTargets))
			for i, t := range s.AllowedTargets {
				targets[i] = t.String()
			}
			entry["allowed_targets"] = targets
		}
		layers = append(layers, entry)
	}
	return map[string]any{
		"source_dir":     p.SourceDir,
		"common_feature": p.CommonFeature,
		"max_file_lines": p.MaxFileLines,
		"part_suffix":    p.PartSuffix,
		"skip_generated": p.SkipGenerated,
		"layers":         layers,
	}
}
