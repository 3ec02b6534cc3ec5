package core

import "strings"

// Layer identifies the architectural role of a source unit.
// The set is closed: every classifiable unit maps to exactly one of these,
// and files outside any recognized role folder map to LayerUnclassified.
type Layer string

// Architectural layers, ordered from the UI edge down to the domain model.
const (
	LayerUIScreen       Layer = "UI_SCREEN"
	LayerUIView         Layer = "UI_VIEW"
	LayerUIComponent    Layer = "UI_COMPONENT"
	LayerCubit          Layer = "CUBIT"
	LayerCubitState     Layer = "CUBIT_STATE"
	LayerUseCase        Layer = "USE_CASE"
	LayerRepositoryIntf Layer = "REPOSITORY_INTERFACE"
	LayerRepositoryImpl Layer = "REPOSITORY_IMPL"
	LayerServiceIntf    Layer = "SERVICE_INTERFACE"
	LayerServiceImpl    Layer = "SERVICE_IMPL"
	LayerDataSource     Layer = "DATA_SOURCE"
	LayerDTO            Layer = "DTO"
	LayerBusinessObject Layer = "BUSINESS_OBJECT"

	// LayerUnclassified marks files under a feature that match no role folder.
	// It is never a legal dependency source or target.
	LayerUnclassified Layer = "UNCLASSIFIED"
)

// Layers returns all classifiable layers in canonical order.
// The order is used for deterministic iteration and report sections.
func Layers() []Layer {
	return []Layer{
		LayerUIScreen,
		LayerUIView,
		LayerUIComponent,
		LayerCubit,
		LayerCubitState,
		LayerUseCase,
		LayerRepositoryIntf,
		LayerRepositoryImpl,
		LayerServiceIntf,
		LayerServiceImpl,
		LayerDataSource,
		LayerDTO,
		LayerBusinessObject,
	}
}

// String returns the canonical layer name.
func (l Layer) String() string { return string(l) }

// Valid reports whether l is one of the classifiable layers.
func (l Layer) Valid() bool {
	for _, known := range Layers() {
		if l == known {
			return true
		}
	}
	return false
}

// Rank returns the position of l in canonical order, or len(Layers()) for
// unknown layers so they sort last.
func (l Layer) Rank() int {
	for i, known := range Layers() {
		if l == known {
			return i
		}
	}
	return len(Layers())
}

// ParseLayer converts a string to a Layer value. Matching is case-insensitive
// and accepts both underscore and hyphen separators.
// Returns the layer and true if valid, or LayerUnclassified and false if not.
func ParseLayer(s string) (Layer, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	l := Layer(normalized)
	if l.Valid() {
		return l, true
	}
	return LayerUnclassified, false
}
