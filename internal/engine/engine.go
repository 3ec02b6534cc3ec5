// Package engine orchestrates conformance runs. A run walks the project's
// source tree, extracts declared units from every file in parallel, builds
// the dependency graph, and hands the assembled picture to the rule
// analyzer. The stages themselves live in internal/index, internal/extract,
// internal/graph, and pkg/conformance; the engine owns their sequencing,
// the concurrency budget, and the optional run cache.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/layerlint/layerlint/internal/extract"
	"github.com/layerlint/layerlint/internal/policy"
	"github.com/layerlint/layerlint/internal/state"
	"github.com/layerlint/layerlint/pkg/conformance"
	_ "github.com/layerlint/layerlint/pkg/conformance/rules" // registers the built-in rules
	"github.com/layerlint/layerlint/pkg/core"
)

// Config holds engine configuration.
type Config struct {
	// Policy is the layering policy runs are checked against. Required.
	Policy *core.Policy

	// Logger receives run progress. Nil discards.
	Logger *slog.Logger

	// StatePath is the path of the run-cache database. Empty runs without
	// a cache; every file is re-parsed on every run.
	StatePath string

	// Store overrides the cache backend. The caller keeps ownership and
	// StatePath is ignored.
	Store core.Store

	// Workers caps concurrent file extraction. Zero uses NumCPU.
	Workers int

	// DisabledRules lists rule IDs excluded from analysis.
	DisabledRules []string

	// SeverityOverrides remaps per-rule severities by ID.
	SeverityOverrides map[string]core.Severity
}

// Engine runs the conformance pipeline against one policy.
type Engine struct {
	logger    *slog.Logger
	policy    *core.Policy
	extractor *extract.Extractor
	analyzer  *conformance.Analyzer
	store     core.Store
	ownsStore bool
	workers   int
}

// New creates an engine from the given configuration. The policy is
// validated up front so a broken policy fails here, before any filesystem
// work touches the project.
func New(cfg Config) (*Engine, error) {
	if cfg.Policy == nil {
		return nil, &core.PolicyError{Reason: "policy is required"}
	}
	if err := policy.Validate(cfg.Policy); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	acfg := conformance.NewConfig()
	for _, id := range cfg.DisabledRules {
		acfg.DisabledRules[id] = true
	}
	for id, sev := range cfg.SeverityOverrides {
		acfg.SeverityOverrides[id] = sev
	}

	e := &Engine{
		logger:    logger,
		policy:    cfg.Policy,
		extractor: extract.New(cfg.Policy, logger),
		analyzer:  conformance.NewAnalyzer(acfg),
		workers:   workers,
	}

	switch {
	case cfg.Store != nil:
		e.store = cfg.Store
	case cfg.StatePath != "":
		st := state.NewStore()
		if err := st.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		if err := st.InitSchema(); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to initialize state schema: %w", err)
		}
		e.store = st
		e.ownsStore = true
	}

	logger.Debug("engine initialized",
		"layers", len(cfg.Policy.Layers),
		"workers", workers,
		"cache", e.store != nil)

	return e, nil
}

// Policy returns the policy the engine checks against.
func (e *Engine) Policy() *core.Policy {
	return e.policy
}

// Store returns the run cache, nil when caching is disabled.
func (e *Engine) Store() core.Store {
	return e.store
}

// Close releases the run cache when the engine owns it. Safe to call more
// than once.
func (e *Engine) Close() error {
	if e.store == nil || !e.ownsStore {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}
