// Package policy owns the declared architecture: built-in defaults for the
// thirteen-layer table, loading and merging of policy files, and structural
// validation. Validation failures are core.PolicyError, the one fatal error
// class of a run.
package policy
