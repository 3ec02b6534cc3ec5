// Package conformancerules registers all conformance rules.
// Import this package to register every rule with the global registry.
package conformancerules

import (
	// Blank imports trigger init() functions that register rules with the global registry.
	_ "github.com/layerlint/layerlint/pkg/conformance/rules/dependency" // registers DP* rules
	_ "github.com/layerlint/layerlint/pkg/conformance/rules/naming"     // registers NM* rules
	_ "github.com/layerlint/layerlint/pkg/conformance/rules/parsing"    // registers PE*/IO* rules
	_ "github.com/layerlint/layerlint/pkg/conformance/rules/size"       // registers SZ* rules
	_ "github.com/layerlint/layerlint/pkg/conformance/rules/structure"  // registers ST* rules
)
