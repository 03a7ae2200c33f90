package assembly

import (
	"slices"

	"github.com/abhisek/teacherbean/internal/itembank"
)

// cell addresses one (type, band) bucket of a pool.
type cell struct {
	Type itembank.ItemType
	Band Band
}

// poolIndex groups a pool by type and band. Buckets keep the pool's order.
type poolIndex struct {
	items  []itembank.Item
	cells  map[cell][]itembank.Item
	byType map[itembank.ItemType]int
	byBand map[Band]int
}

func indexPool(items []itembank.Item) *poolIndex {
	idx := &poolIndex{
		items:  items,
		cells:  make(map[cell][]itembank.Item),
		byType: make(map[itembank.ItemType]int),
		byBand: make(map[Band]int),
	}
	for _, it := range items {
		b := BandOf(it.DifficultyScore)
		c := cell{Type: it.Type, Band: b}
		idx.cells[c] = append(idx.cells[c], it)
		idx.byType[it.Type]++
		idx.byBand[b]++
	}
	return idx
}

func (p *poolIndex) size() int { return len(p.items) }

func (p *poolIndex) available(t itembank.ItemType, b Band) int {
	return len(p.cells[cell{Type: t, Band: b}])
}

// typesPresent returns the item types found in the pool in canonical order.
func (p *poolIndex) typesPresent() []itembank.ItemType {
	var out []itembank.ItemType
	for _, t := range itembank.AllItemTypes {
		if p.byType[t] > 0 {
			out = append(out, t)
		}
	}
	return out
}

// observedDifficulty returns the pool's band mix rounded to two decimals.
func (p *poolIndex) observedDifficulty() DifficultyDistribution {
	if p.size() == 0 {
		return DefaultDifficulty
	}
	frac := func(b Band) float64 {
		return round2(float64(p.byBand[b]) / float64(p.size()))
	}
	return DifficultyDistribution{
		Easy:   frac(BandEasy),
		Medium: frac(BandMedium),
		Hard:   frac(BandHard),
	}
}

// selectItems is the selection primitive every strategy uses: for each
// requested type and each band, shuffle the bucket and take its quota.
// Buckets smaller than their quota contribute everything they hold.
func selectItems(p *poolIndex, cfg Config, shuffle func([]itembank.Item)) []itembank.Item {
	var out []itembank.Item
	for _, t := range itembank.AllItemTypes {
		n := cfg.ItemDistribution[t]
		if n <= 0 {
			continue
		}
		q := QuotaFor(n, cfg.DifficultyDistribution)
		for _, b := range AllBands {
			want := q.Get(b)
			if want <= 0 {
				continue
			}
			bucket := slices.Clone(p.cells[cell{Type: t, Band: b}])
			shuffle(bucket)
			out = append(out, bucket[:min(want, len(bucket))]...)
		}
	}
	return out
}
