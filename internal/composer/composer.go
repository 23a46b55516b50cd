// Package composer assembles full menus, one item per category, from a
// catalog. ComposeBest samples random menus and keeps the one the
// satisfaction model likes most; ComposeByProfile picks the items closest to
// a diner's taste profile.
package composer

import (
	"math"
	"math/rand/v2"

	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/menu"
	"github.com/kartoza/restaurant-bot/internal/taste"
)

// DefaultSamples is the number of random menus ComposeBest scores
const DefaultSamples = 40

// Predictor scores a menu's average taste
type Predictor interface {
	Predict(v taste.Vector) float64
}

// RandomSource draws a uniform index in [0, n)
type RandomSource interface {
	IntN(n int) int
}

// NewRandomSource returns a generator seeded from the runtime's entropy
func NewRandomSource() RandomSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// eligible returns the indices of entries that may be picked. A vegetarian
// preference narrows main courses to vegetarian entries, falling back to
// every entry when none qualify.
func eligible(category string, entries []catalog.Entry, preferVeg bool) []int {
	idx := make([]int, 0, len(entries))
	if preferVeg && category == catalog.MainCourse {
		for i, e := range entries {
			if e.Vegetarian {
				idx = append(idx, i)
			}
		}
		if len(idx) > 0 {
			return idx
		}
	}
	for i := range entries {
		idx = append(idx, i)
	}
	return idx
}

// ComposeBest draws samples random menus and returns the one with the highest
// predicted satisfaction. The first menu seen wins ties. An empty menu means
// no suggestion is available. A nil rng gets a fresh generator.
func ComposeBest(cat *catalog.Catalog, p Predictor, preferVeg bool, samples int, rng RandomSource) *menu.Menu {
	if rng == nil {
		rng = NewRandomSource()
	}

	best := menu.New()
	bestScore := math.Inf(-1)

	for s := 0; s < samples; s++ {
		candidate := menu.New()
		for _, category := range cat.Categories() {
			entries := cat.Entries(category)
			if len(entries) == 0 {
				continue
			}
			idx := eligible(category, entries, preferVeg)
			chosen := idx[rng.IntN(len(idx))]
			candidate.Add(menu.FromEntry(entries[chosen]))
		}
		if candidate.IsEmpty() {
			continue
		}

		score := p.Predict(candidate.TasteAverage())
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	return best
}

// ComposeByProfile picks, per category, the eligible entry whose taste is
// nearest to profile. Earlier entries win ties and empty categories are
// skipped, so the menu may be short.
func ComposeByProfile(cat *catalog.Catalog, profile taste.Vector, preferVeg bool) *menu.Menu {
	result := menu.New()

	for _, category := range cat.Categories() {
		entries := cat.Entries(category)
		if len(entries) == 0 {
			continue
		}

		bestIdx := -1
		bestDist := math.Inf(1)
		for _, i := range eligible(category, entries, preferVeg) {
			d := taste.Distance(entries[i].Taste, profile)
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			result.Add(menu.FromEntry(entries[bestIdx]))
		}
	}

	return result
}
