// Package core defines the shared language of the layerlint system.
//
// This package contains:
//   - Domain entities (Unit, Edge, Violation, FileInfo, PartGroup)
//   - Policy types (Policy, LayerSpec) and the closed Layer enum
//   - Service interfaces (Store)
//   - Rule metadata (RuleInfo, Severity)
//
// The Golden Rule: pkg/core imports ONLY the stdlib.
// All other packages depend on core, not the reverse.
package core
