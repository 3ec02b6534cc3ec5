// Package naming provides the naming-pattern conformance rules.
//
//   - NM01: Unit Naming - Declared name fails its layer's prefix/suffix pattern
package naming
