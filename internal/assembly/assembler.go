// Package assembly selects test items from a pool to meet a paper spec,
// relaxing the spec step by step when the pool cannot satisfy it.
package assembly

import (
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/teacherbean/internal/itembank"
)

// Result is the outcome of one assembly run.
type Result struct {
	// Success is true when SelectedItems holds at least the adjusted
	// total, and that total is positive.
	Success bool `json:"success"`

	// AdjustedConfig is the config actually satisfied. Nil when it is
	// identical to the requested one.
	AdjustedConfig *Config `json:"adjusted_config,omitempty"`

	SelectedItems    []itembank.Item `json:"selected_items"`
	FallbacksApplied []Fallback      `json:"fallbacks_applied"`

	// Warnings holds one explanation per applied fallback, in order.
	Warnings []string `json:"warnings"`
}

// Options configures an Assembler.
type Options struct {
	// Rand drives sampling. Nil uses the process-wide source; pass a
	// seeded generator for reproducible selections.
	Rand *rand.Rand

	// Logger receives a debug trace of strategy decisions. Nil disables it.
	Logger *zap.Logger

	// EmergencyLimit caps the emergency fallback. Zero means
	// DefaultEmergencyLimit.
	EmergencyLimit int
}

// Assembler runs the selection and fallback chain. It holds no per-run
// state and is safe for concurrent use.
type Assembler struct {
	mu             sync.Mutex
	rng            *rand.Rand
	log            *zap.Logger
	emergencyLimit int
}

// New creates an Assembler.
func New(opts Options) *Assembler {
	a := &Assembler{
		rng:            opts.Rand,
		log:            opts.Logger,
		emergencyLimit: opts.EmergencyLimit,
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.emergencyLimit <= 0 {
		a.emergencyLimit = DefaultEmergencyLimit
	}
	return a
}

var defaultAssembler = New(Options{})

// AssembleWithFallback assembles with a default Assembler.
func AssembleWithFallback(pool []itembank.Item, cfg Config) Result {
	return defaultAssembler.Assemble(pool, cfg)
}

func (a *Assembler) shuffle(items []itembank.Item) {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if a.rng == nil {
		rand.Shuffle(len(items), swap)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rng.Shuffle(len(items), swap)
}

// strategy is one step of the fallback chain. apply edits the working
// config and reports whether it changed anything worth retrying.
type strategy struct {
	fallback Fallback
	apply    func(cfg *Config, p *poolIndex) (string, bool)
}

var chain = []strategy{
	{FallbackDifficultyRelaxed, relaxDifficulty},
	{FallbackTypesSubstituted, substituteTypes},
	{FallbackTotalReduced, reduceTotal},
}

// Assemble selects items from pool to satisfy cfg. A shortage is never an
// error: the exact attempt is followed by difficulty relaxation, type
// substitution, proportional reduction and finally the emergency
// fallback, stopping at the first attempt that fills the paper. Neither
// pool nor cfg is modified.
func (a *Assembler) Assemble(pool []itembank.Item, cfg Config) Result {
	p := indexPool(pool)
	work := reconcile(cfg, p)
	log := a.log.With(zap.Int("pool_size", p.size()), zap.Int("requested_total", cfg.TotalItems))

	res := Result{
		FallbacksApplied: []Fallback{},
		Warnings:         []string{},
	}

	selected := selectItems(p, work, a.shuffle)
	log.Debug("exact attempt", zap.Int("selected", len(selected)), zap.Int("target", work.TotalItems))
	if filled(selected, work) {
		return finish(res, selected, cfg, work)
	}

	for _, s := range chain {
		warning, ok := s.apply(&work, p)
		if !ok {
			log.Debug("strategy skipped", zap.String("fallback", string(s.fallback)))
			continue
		}
		res.FallbacksApplied = append(res.FallbacksApplied, s.fallback)
		res.Warnings = append(res.Warnings, warning)

		selected = selectItems(p, work, a.shuffle)
		log.Debug("strategy applied",
			zap.String("fallback", string(s.fallback)),
			zap.Int("selected", len(selected)),
			zap.Int("target", work.TotalItems),
		)
		if filled(selected, work) {
			return finish(res, selected, cfg, work)
		}
	}

	limit := a.emergencyLimit
	if work.TotalItems > 0 {
		limit = min(limit, work.TotalItems)
	}
	selected, warning := emergency(&work, p, limit)
	res.FallbacksApplied = append(res.FallbacksApplied, FallbackEmergency)
	res.Warnings = append(res.Warnings, warning)
	log.Debug("emergency fallback", zap.Int("selected", len(selected)))
	if len(selected) == 0 {
		res.SelectedItems = []itembank.Item{}
		return res
	}
	return finish(res, selected, cfg, work)
}

func filled(selected []itembank.Item, cfg Config) bool {
	return cfg.TotalItems > 0 && len(selected) >= cfg.TotalItems
}

func finish(res Result, selected []itembank.Item, requested, satisfied Config) Result {
	if len(selected) > satisfied.TotalItems {
		selected = selected[:satisfied.TotalItems]
	}
	res.SelectedItems = selected
	res.Success = filled(selected, satisfied)
	if !satisfied.Equal(requested) {
		adjusted := satisfied.Clone()
		res.AdjustedConfig = &adjusted
	}
	return res
}
