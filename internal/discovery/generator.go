// Package discovery turns the static catalog into candidate usernames and
// files verified channels under a category. Everything here is pure: no I/O
// and no randomness, so a given catalog always yields the same output.
package discovery

import (
	"errors"
	"fmt"

	"github.com/mathieu-neron/channelfinder/internal/catalog"
	"github.com/mathieu-neron/channelfinder/internal/model"
)

// AllCategories is the wildcard accepted by Generate.
const AllCategories = "all"

// ErrUnknownCategory is returned for a category key not in the catalog.
var ErrUnknownCategory = errors.New("unknown category")

// affixes are applied to every seed, in this order.
var affixes = []func(seed string) string{
	func(s string) string { return s },
	func(s string) string { return s + "_news" },
	func(s string) string { return s + "_channel" },
	func(s string) string { return s + "_official" },
	func(s string) string { return s + "_hub" },
	func(s string) string { return "daily_" + s },
	func(s string) string { return "best_" + s },
	func(s string) string { return "top_" + s },
}

// VariantsPerSeed is the number of candidates each seed expands into.
var VariantsPerSeed = len(affixes)

// Generator expands catalog seed words into candidate usernames.
type Generator struct {
	cat *catalog.Catalog
}

// NewGenerator returns a Generator over the given catalog.
func NewGenerator(cat *catalog.Catalog) *Generator {
	return &Generator{cat: cat}
}

// Generate returns an ordered, duplicate-free list of at most limit
// candidates for the category (or AllCategories). Only the first
// ceil(limit/VariantsPerSeed) seeds are expanded. A limit <= 0 expands every
// seed.
func (g *Generator) Generate(category string, limit int) ([]string, error) {
	seeds, err := g.seedsFor(category)
	if err != nil {
		return nil, err
	}

	if limit > 0 {
		n := (limit + VariantsPerSeed - 1) / VariantsPerSeed
		if n < len(seeds) {
			seeds = seeds[:n]
		}
	}

	out := make([]string, 0, len(seeds)*VariantsPerSeed)
	seen := make(map[string]struct{}, cap(out))
	for _, seed := range seeds {
		for _, affix := range affixes {
			candidate := affix(seed)
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			out = append(out, candidate)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *Generator) seedsFor(category string) ([]string, error) {
	if category == AllCategories {
		var seeds []string
		for _, c := range g.cat.Order() {
			seeds = append(seeds, g.cat.Seeds(c)...)
		}
		return seeds, nil
	}

	c := model.Category(category)
	if !g.cat.Has(c) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return g.cat.Seeds(c), nil
}
