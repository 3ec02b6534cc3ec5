package core

// FileInfo is one indexed source file.
type FileInfo struct {
	// Path is the absolute filesystem path.
	Path string
	// RelPath is the project-relative, slash-separated path used in reports.
	RelPath string
	// Feature is the owning feature directory name. Empty for files directly
	// under the source dir (reported, never classified).
	Feature string
	// Layer is the folder-derived layer, LayerUnclassified when no role
	// folder matched.
	Layer Layer
	// Lines is the physical line count recorded at index time.
	Lines int
	// PartBase is the split-group key shared by a primary file and its
	// companion. Empty for standalone files.
	PartBase string
	// Generated marks *.g.dart / *.freezed.dart companions.
	Generated bool
}

// PartGroup is one logical file for size purposes: a primary file plus the
// split companions sharing its base name. Members stay separate files for
// layer and dependency classification.
type PartGroup struct {
	// Base is the shared filename stem, project-relative without extension.
	Base    string
	Feature string
	Layer   Layer
	// Files lists member RelPaths, sorted.
	Files []string
	// TotalLines sums member line counts.
	TotalLines int
}
