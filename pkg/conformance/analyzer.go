package conformance

import (
	"github.com/layerlint/layerlint/pkg/core"
)

// Analyzer runs all registered conformance rules against a run context.
type Analyzer struct {
	config        *Config
	disabledRules map[string]bool
}

// Config holds configuration for the analyzer.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[string]bool

	// SeverityOverrides changes the default severity of rules
	SeverityOverrides map[string]core.Severity
}

// NewConfig creates a default configuration.
func NewConfig() *Config {
	return &Config{
		DisabledRules:     make(map[string]bool),
		SeverityOverrides: make(map[string]core.Severity),
	}
}

// NewAnalyzer creates a new analyzer with optional configuration.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{
		config:        config,
		disabledRules: config.DisabledRules,
	}
}

// Analyze runs every registered rule and returns the collected violations
// sorted by (feature, file, line, rule ID). For a fixed context the result
// is identical on every call.
func (a *Analyzer) Analyze(ctx *Context) []core.Violation {
	if ctx == nil {
		return nil
	}

	var violations []core.Violation
	for _, rule := range GetAll() {
		if a.isDisabled(rule.ID) {
			continue
		}

		found := rule.Check(ctx)

		for i := range found {
			found[i].Severity = a.getSeverity(rule.ID, found[i].Severity)
		}

		violations = append(violations, found...)
	}

	core.SortViolations(violations)
	return violations
}

func (a *Analyzer) isDisabled(ruleID string) bool {
	return a.disabledRules[ruleID]
}

func (a *Analyzer) getSeverity(ruleID string, defaultSev core.Severity) core.Severity {
	if a.config != nil {
		if sev, ok := a.config.SeverityOverrides[ruleID]; ok {
			return sev
		}
	}
	return defaultSev
}

// Disable disables a rule by ID.
func (a *Analyzer) Disable(ruleID string) {
	a.disabledRules[ruleID] = true
}

// Enable enables a previously disabled rule.
func (a *Analyzer) Enable(ruleID string) {
	delete(a.disabledRules, ruleID)
}
