package core

// UnitKind is the syntactic form of a declared source unit.
type UnitKind string

// Declaration kinds recognized by the extractor.
const (
	KindClass         UnitKind = "class"
	KindAbstractClass UnitKind = "abstract_class"
	KindMixin         UnitKind = "mixin"
	KindEnum          UnitKind = "enum"
	KindExtension     UnitKind = "extension"
	KindFunction      UnitKind = "function"
)

// Abstract reports whether the kind declares an interface-like unit.
// In folders shared by an interface/impl layer pair this is the
// discriminator between the two layers.
func (k UnitKind) Abstract() bool {
	return k == KindAbstractClass
}

// Unit is one declared type (or top-level function) in the project.
// Units are immutable once extraction completes.
type Unit struct {
	// Name is the declared identifier.
	Name string
	// File is the project-relative path (slash-separated) of the declaring file.
	File string
	// Feature is the owning feature directory name, or the common feature.
	Feature string
	// Layer is the folder-derived layer. Folder placement is authoritative:
	// a name that suggests a different layer is reported, never reclassified.
	Layer Layer
	// Kind is the declaration's syntactic form.
	Kind UnitKind
	// StartLine and EndLine bound the declaration, 1-based inclusive.
	StartLine int
	EndLine   int
	// References holds the raw candidate identifiers mentioned in the
	// declaration body, before project-wide resolution. Deduplicated,
	// sorted, excluding the unit's own name.
	References []string
	// NameCompliant records whether Name satisfies the naming pattern of
	// the unit's layer. Evaluated at extraction time; the finding itself is
	// emitted by the naming rule.
	NameCompliant bool
}

// ID returns the project-unique identity of the unit. Declared names alone
// are not unique (duplicates across features are legal Dart), so identity
// includes the declaring file.
func (u *Unit) ID() string {
	return u.File + "#" + u.Name
}

// Edge is one resolved dependency between two units, with the layer and
// feature pairs the conformance rules judge.
type Edge struct {
	FromID      string
	ToID        string
	FromName    string
	ToName      string
	FromFile    string
	ToFile      string
	FromFeature string
	ToFeature   string
	FromLayer   Layer
	ToLayer     Layer
	// Line is the first line of the referencing declaration, used for
	// report locations.
	Line int
}

// SelfReference reports whether the edge points from a unit to itself.
// Self-references are always permitted.
func (e *Edge) SelfReference() bool {
	return e.FromID == e.ToID
}

// CrossFeature reports whether the edge leaves its feature for another
// feature that is not the given common feature.
func (e *Edge) CrossFeature(commonFeature string) bool {
	if e.FromFeature == e.ToFeature {
		return false
	}
	return e.ToFeature != commonFeature
}
