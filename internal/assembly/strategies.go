package assembly

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/teacherbean/internal/itembank"
)

// Fallback identifies a relaxation strategy that fired during assembly.
type Fallback string

const (
	FallbackDifficultyRelaxed Fallback = "difficulty_relaxed"
	FallbackTypesSubstituted  Fallback = "item_types_substituted"
	FallbackTotalReduced      Fallback = "total_items_reduced"
	FallbackEmergency         Fallback = "emergency_fallback"
)

// DefaultEmergencyLimit caps how many items the emergency fallback takes.
const DefaultEmergencyLimit = 10

// Substitutes lists, per item type, the types that may stand in for it.
// Substitution is first-fit: the first listed type with spare inventory
// takes the whole transferable shortfall.
var Substitutes = map[itembank.ItemType][]itembank.ItemType{
	itembank.TypeMultipleChoice:       {itembank.TypeCloze, itembank.TypeMatching},
	itembank.TypeCloze:                {itembank.TypeMultipleChoice, itembank.TypeErrorCorrection},
	itembank.TypeErrorCorrection:      {itembank.TypeCloze, itembank.TypeMultipleChoice},
	itembank.TypeMatching:             {itembank.TypeMultipleChoice, itembank.TypeCloze},
	itembank.TypeReadingComprehension: {itembank.TypeWritingTask},
	itembank.TypeWritingTask:          {itembank.TypeReadingComprehension},
}

// reconcile repairs a config whose invariants do not hold on entry.
// Unknown types and non-positive counts are dropped, the total and the
// per-type counts are brought into agreement, and difficulty fractions
// are renormalized.
func reconcile(cfg Config, p *poolIndex) Config {
	out := cfg.Clone()

	dist := make(map[itembank.ItemType]int, len(cfg.ItemDistribution))
	for t, n := range cfg.ItemDistribution {
		if t.Valid() && n > 0 {
			dist[t] = n
		}
	}
	sum := 0
	for _, n := range dist {
		sum += n
	}

	switch {
	case out.TotalItems <= 0:
		out.TotalItems = sum
	case sum == 0:
		dist = spreadEvenly(out.TotalItems, p.typesPresent())
	case sum != out.TotalItems:
		dist = scaleDistribution(dist, out.TotalItems, sum, out.TotalItems)
	}
	out.ItemDistribution = dist

	d := out.DifficultyDistribution
	switch {
	case d.Easy < 0 || d.Medium < 0 || d.Hard < 0 || d.Sum() <= 0:
		out.DifficultyDistribution = DefaultDifficulty
	case !d.Valid():
		s := d.Sum()
		out.DifficultyDistribution = DifficultyDistribution{Easy: d.Easy / s, Medium: d.Medium / s, Hard: d.Hard / s}
	}
	return out
}

// spreadEvenly divides total across types, giving the remainder one at a
// time to the earliest types.
func spreadEvenly(total int, types []itembank.ItemType) map[itembank.ItemType]int {
	dist := make(map[itembank.ItemType]int, len(types))
	if len(types) == 0 {
		return dist
	}
	for i, t := range types {
		n := total / len(types)
		if i < total%len(types) {
			n++
		}
		if n > 0 {
			dist[t] = n
		}
	}
	return dist
}

// scaleDistribution multiplies every count by num/den, flooring, then
// adds whatever is missing to reach target onto the largest bucket
// (earliest type wins ties).
func scaleDistribution(dist map[itembank.ItemType]int, num, den, target int) map[itembank.ItemType]int {
	out := make(map[itembank.ItemType]int, len(dist))
	if den <= 0 {
		return out
	}
	sum := 0
	var largest itembank.ItemType
	for _, t := range itembank.AllItemTypes {
		n, ok := dist[t]
		if !ok || n <= 0 {
			continue
		}
		scaled := n * num / den
		out[t] = scaled
		sum += scaled
		if largest == "" || scaled > out[largest] {
			largest = t
		}
	}
	if rem := target - sum; rem > 0 && largest != "" {
		out[largest] += rem
	}
	for t, n := range out {
		if n <= 0 {
			delete(out, t)
		}
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// relaxDifficulty replaces the difficulty fractions with the pool's
// observed band mix. It only fires when the pool is large enough overall,
// some type has enough items in total, and that type is still short in a
// band; type-level shortages are left to substitution.
func relaxDifficulty(cfg *Config, p *poolIndex) (string, bool) {
	if p.size() < cfg.TotalItems {
		return "", false
	}

	short := false
	for _, t := range itembank.AllItemTypes {
		n := cfg.ItemDistribution[t]
		if n <= 0 || p.byType[t] < n {
			continue
		}
		q := QuotaFor(n, cfg.DifficultyDistribution)
		for _, b := range AllBands {
			if q.Get(b) > p.available(t, b) {
				short = true
			}
		}
	}
	if !short {
		return "", false
	}

	observed := p.observedDifficulty()
	if observed == cfg.DifficultyDistribution {
		return "", false
	}
	prev := cfg.DifficultyDistribution
	cfg.DifficultyDistribution = observed
	return fmt.Sprintf("Difficulty mix changed from %s to %s to match the available items.", prev, observed), true
}

// substituteTypes moves each type's shortfall onto the first substitute
// with spare inventory. The short type's requirement is capped at what the
// pool holds; the substitute's grows by the amount moved.
func substituteTypes(cfg *Config, p *poolIndex) (string, bool) {
	dist := cfg.Clone().ItemDistribution
	var moves []string
	for _, t := range itembank.AllItemTypes {
		req, avail := dist[t], p.byType[t]
		if req <= avail {
			continue
		}
		shortfall := req - avail
		for _, sub := range Substitutes[t] {
			spare := p.byType[sub] - dist[sub]
			if spare <= 0 {
				continue
			}
			moved := min(shortfall, spare)
			dist[sub] += moved
			dist[t] = avail
			if avail == 0 {
				delete(dist, t)
			}
			moves = append(moves, fmt.Sprintf("%d %s replaced by %s", moved, t.DisplayName(), sub.DisplayName()))
			break
		}
	}
	if len(moves) == 0 {
		return "", false
	}
	cfg.ItemDistribution = dist
	return fmt.Sprintf("Not enough items of some types: %s.", strings.Join(moves, ", ")), true
}

// reduceTotal shrinks the paper to the pool size, scaling every type by
// the same ratio.
func reduceTotal(cfg *Config, p *poolIndex) (string, bool) {
	size := p.size()
	if size == 0 || size >= cfg.TotalItems {
		return "", false
	}
	prev := cfg.TotalItems
	cfg.ItemDistribution = scaleDistribution(cfg.ItemDistribution, size, prev, size)
	cfg.TotalItems = size
	return fmt.Sprintf("Only %d items are available, so the paper was reduced from %d to %d items.", size, prev, size), true
}

// emergency takes the first limit items of the pool as-is and rebuilds a
// config describing exactly what was taken.
func emergency(cfg *Config, p *poolIndex, limit int) ([]itembank.Item, string) {
	n := min(limit, p.size())
	taken := make([]itembank.Item, n)
	copy(taken, p.items[:n])

	dist := make(map[itembank.ItemType]int)
	for _, it := range taken {
		dist[it.Type]++
	}
	cfg.TotalItems = n
	cfg.ItemDistribution = dist
	cfg.DifficultyDistribution = EqualDifficulty

	if n == 0 {
		return taken, "No items are available, so no paper could be assembled."
	}
	return taken, fmt.Sprintf("The request could not be met; using the first %d available items instead.", n)
}
