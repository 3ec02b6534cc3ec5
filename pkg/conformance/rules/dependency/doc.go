// Package dependency provides the dependency-edge conformance rules.
//
// These rules judge every resolved reference between source units:
//
//   - DP01: Illegal Layer Dependency - Target layer outside the source layer's allowed set
//   - DP02: Cross-Feature Dependency - Reference into another feature that is not the common feature
package dependency
