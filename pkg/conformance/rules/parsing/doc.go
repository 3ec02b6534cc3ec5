// Package parsing surfaces per-file extraction failures as report findings.
//
//   - PE01: Parse Error - File could not be structurally parsed
//   - IO01: Unreadable File - File or directory could not be read
//
// The findings themselves are recorded while the inventory is built; routing
// them through the registry keeps them subject to the same disable and
// severity configuration as every other rule.
package parsing
