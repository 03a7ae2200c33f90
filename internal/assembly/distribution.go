package assembly

import (
	"fmt"
	"sort"

	"github.com/abhisek/teacherbean/internal/itembank"
)

// Shortfall records a type, or a (type, band) cell when Band is set,
// that the pool cannot fill.
type Shortfall struct {
	Type      itembank.ItemType `json:"type"`
	Band      Band              `json:"band,omitempty"`
	Available int               `json:"available"`
	Required  int               `json:"required"`
}

// DistributionReport is the outcome of ValidateDistribution.
type DistributionReport struct {
	IsValid     bool        `json:"is_valid"`
	Issues      []string    `json:"issues"`
	Suggestions []Shortfall `json:"suggestions"`
}

// ValidateDistribution checks, without assembling anything, whether pool
// can satisfy cfg as written. It uses the same band thresholds and quota
// rounding as Assemble, so a valid report means the exact attempt fills
// the paper.
func ValidateDistribution(pool []itembank.Item, cfg Config) DistributionReport {
	p := indexPool(pool)
	r := DistributionReport{Issues: []string{}, Suggestions: []Shortfall{}}
	issue := func(format string, args ...any) {
		r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
	}

	if cfg.TotalItems <= 0 {
		issue("Total items must be positive, got %d.", cfg.TotalItems)
	}
	if sum := cfg.DistributionTotal(); sum != cfg.TotalItems {
		issue("Item types add up to %d but the paper asks for %d items.", sum, cfg.TotalItems)
	}
	if !cfg.DifficultyDistribution.Valid() {
		issue("Difficulty fractions add up to %.2f instead of 1.", cfg.DifficultyDistribution.Sum())
	}
	if p.size() < cfg.TotalItems {
		issue("The pool holds %d items but the paper needs %d.", p.size(), cfg.TotalItems)
	}

	var unknown []string
	for t, n := range cfg.ItemDistribution {
		if !t.Valid() && n > 0 {
			unknown = append(unknown, string(t))
		}
	}
	sort.Strings(unknown)
	for _, t := range unknown {
		issue("Unknown item type %q.", t)
	}

	for _, t := range itembank.AllItemTypes {
		n := cfg.ItemDistribution[t]
		if n <= 0 {
			continue
		}
		if avail := p.byType[t]; avail < n {
			issue("Not enough %s items: need %d, have %d.", t.DisplayName(), n, avail)
			r.Suggestions = append(r.Suggestions, Shortfall{Type: t, Available: avail, Required: n})
		}
		q := QuotaFor(n, cfg.DifficultyDistribution)
		for _, b := range AllBands {
			need, avail := q.Get(b), p.available(t, b)
			if need > avail {
				issue("Not enough %s %s items: need %d, have %d.", b, t.DisplayName(), need, avail)
				r.Suggestions = append(r.Suggestions, Shortfall{Type: t, Band: b, Available: avail, Required: need})
			}
		}
	}

	r.IsValid = len(r.Issues) == 0
	return r
}
