package policy

import "github.com/layerlint/layerlint/pkg/core"

// Default policy values.
const (
	DefaultSourceDir     = "lib"
	DefaultCommonFeature = "common"
	DefaultMaxFileLines  = 400
	DefaultPartSuffix    = "_components"
)

// Default returns the built-in policy: the full thirteen-layer table with
// the feature-first folder names, naming patterns, and allowed targets.
// Interface/impl pairs share a folder and are told apart by the Abstract
// flag; business objects are implicit targets everywhere and list none of
// their own.
func Default() *core.Policy {
	return &core.Policy{
		SourceDir:     DefaultSourceDir,
		CommonFeature: DefaultCommonFeature,
		MaxFileLines:  DefaultMaxFileLines,
		PartSuffix:    DefaultPartSuffix,
		SkipGenerated: true,
		Layers:        defaultLayers(),
	}
}

func defaultLayers() []core.LayerSpec {
	return []core.LayerSpec{
		{
			Layer:      core.LayerUIScreen,
			Folder:     "screens",
			NameSuffix: "Screen",
			AllowedTargets: []core.Layer{
				core.LayerUIView, core.LayerUIComponent,
				core.LayerCubit, core.LayerCubitState,
			},
		},
		{
			Layer:      core.LayerUIView,
			Folder:     "views",
			NameSuffix: "View",
			AllowedTargets: []core.Layer{
				core.LayerUIComponent, core.LayerCubit, core.LayerCubitState,
			},
		},
		{
			Layer:  core.LayerUIComponent,
			Folder: "components",
			AllowedTargets: []core.Layer{
				core.LayerCubit, core.LayerCubitState,
			},
		},
		{
			Layer:      core.LayerCubit,
			Folder:     "cubits",
			NameSuffix: "Cubit",
			AllowedTargets: []core.Layer{
				core.LayerCubitState, core.LayerUseCase,
			},
		},
		{
			// Referenced by the UI layers and cubits; references nothing
			// below itself.
			Layer:      core.LayerCubitState,
			Folder:     "states",
			NameSuffix: "State",
		},
		{
			Layer:      core.LayerUseCase,
			Folder:     "use_cases",
			NameSuffix: "UseCase",
			AllowedTargets: []core.Layer{
				core.LayerRepositoryIntf, core.LayerServiceIntf,
			},
		},
		{
			Layer:      core.LayerRepositoryIntf,
			Folder:     "repositories",
			NameSuffix: "Repository",
			Abstract:   true,
		},
		{
			Layer:      core.LayerRepositoryImpl,
			Folder:     "repositories",
			NameSuffix: "Repository",
			AllowedTargets: []core.Layer{
				core.LayerRepositoryIntf, core.LayerDataSource, core.LayerDTO,
			},
		},
		{
			Layer:      core.LayerServiceIntf,
			Folder:     "services",
			NameSuffix: "Service",
			Abstract:   true,
		},
		{
			Layer:      core.LayerServiceImpl,
			Folder:     "services",
			NameSuffix: "Service",
			AllowedTargets: []core.Layer{
				core.LayerServiceIntf, core.LayerDTO,
			},
		},
		{
			Layer:      core.LayerDataSource,
			Folder:     "data_sources",
			NameSuffix: "DataSource",
			AllowedTargets: []core.Layer{
				core.LayerDTO,
			},
		},
		{
			Layer:      core.LayerDTO,
			Folder:     "dtos",
			NameSuffix: "DTO",
		},
		{
			Layer:  core.LayerBusinessObject,
			Folder: "business_objects",
		},
	}
}

// ApplyDefaults fills zero-valued scalar fields and merges the layer table:
// a user-declared layer replaces the default entry for that layer wholesale,
// layers the user never mentions keep their defaults.
func ApplyDefaults(p *core.Policy) {
	if p == nil {
		return
	}
	if p.SourceDir == "" {
		p.SourceDir = DefaultSourceDir
	}
	if p.CommonFeature == "" {
		p.CommonFeature = DefaultCommonFeature
	}
	if p.MaxFileLines == 0 {
		p.MaxFileLines = DefaultMaxFileLines
	}
	if p.PartSuffix == "" {
		p.PartSuffix = DefaultPartSuffix
	}

	declared := make(map[core.Layer]bool, len(p.Layers))
	for _, s := range p.Layers {
		declared[s.Layer] = true
	}
	for _, def := range defaultLayers() {
		if !declared[def.Layer] {
			p.Layers = append(p.Layers, def)
		}
	}
}
