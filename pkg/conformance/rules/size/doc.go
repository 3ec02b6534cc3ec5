// Package size provides the file-size conformance rules.
//
//   - SZ01: File Too Long - File over the line threshold with no split
//   - SZ02: Split Convention - Oversized split that is not the two-file convention
//
// Size applies to logical files: a primary file and its part companions are
// summed and judged once as a group.
package size
