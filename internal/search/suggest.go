package search

import (
	"sort"

	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/taxonomy"
)

// Default caps for cross-category suggestions.
const (
	DefaultExamplesPerGroup = 5
	DefaultMaxGroups        = 5
)

// SuggestOptions bounds the suggestion output. Zero values use the defaults.
type SuggestOptions struct {
	ExamplesPerGroup int
	MaxGroups        int
}

func (o SuggestOptions) withDefaults() SuggestOptions {
	if o.ExamplesPerGroup <= 0 {
		o.ExamplesPerGroup = DefaultExamplesPerGroup
	}
	if o.MaxGroups <= 0 {
		o.MaxGroups = DefaultMaxGroups
	}
	return o
}

// Suggest re-runs query over every canonical subregion other than origin,
// visiting origin's own body region first, then the opposite one. Groups are
// ranked by match count; equal counts keep visiting order.
//
// bySubregion supplies the candidate records of each subregion, normally the
// catalog's subregion index. An empty query yields no suggestions.
func Suggest(query string, origin domain.Subregion, tax *taxonomy.Taxonomy, bySubregion map[domain.Subregion][]domain.Exercise, opts SuggestOptions) []domain.SuggestedGroup {
	if Normalize(query) == "" || tax == nil {
		return nil
	}
	opts = opts.withDefaults()

	first := domain.RegionUpper
	if r, ok := tax.RegionOf(origin); ok {
		first = r
	}
	order := append(tax.InRegion(first), tax.InRegion(first.Opposite())...)

	var groups []domain.SuggestedGroup
	for _, sub := range order {
		if sub == origin {
			continue
		}
		hits := Rank(query, bySubregion[sub])
		if len(hits) == 0 {
			continue
		}
		region, _ := tax.RegionOf(sub)
		examples := hits
		if len(examples) > opts.ExamplesPerGroup {
			examples = examples[:opts.ExamplesPerGroup]
		}
		groups = append(groups, domain.SuggestedGroup{
			Subregion:  sub,
			Region:     region,
			MatchCount: len(hits),
			Examples:   append([]domain.Exercise(nil), examples...),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].MatchCount > groups[j].MatchCount
	})
	if len(groups) > opts.MaxGroups {
		groups = groups[:opts.MaxGroups]
	}
	return groups
}

// Rank returns the records whose name matches query, best score first and
// then in NameLess order.
func Rank(query string, records []domain.Exercise) []domain.Exercise {
	type scored struct {
		ex    domain.Exercise
		score float64
	}
	var hits []scored
	for _, ex := range records {
		if Matches(query, ex.Name) {
			hits = append(hits, scored{ex: ex, score: Score(query, ex.Name)})
		}
	}
	less, release := NameLess()
	defer release()
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return less(hits[i].ex, hits[j].ex)
	})
	out := make([]domain.Exercise, len(hits))
	for i, h := range hits {
		out[i] = h.ex
	}
	return out
}

// GroupBySubregion buckets ranked hits by their subregion tags in taxonomy
// order. Each group keeps the hits' order and is capped like Suggest; groups
// are ranked by size with ties in taxonomy order.
func GroupBySubregion(hits []domain.Exercise, tax *taxonomy.Taxonomy, opts SuggestOptions) []domain.SuggestedGroup {
	if len(hits) == 0 || tax == nil {
		return nil
	}
	opts = opts.withDefaults()

	var groups []domain.SuggestedGroup
	for _, sub := range tax.Subregions() {
		var g domain.SuggestedGroup
		for _, ex := range hits {
			if !ex.HasTag(sub) {
				continue
			}
			g.MatchCount++
			if len(g.Examples) < opts.ExamplesPerGroup {
				g.Examples = append(g.Examples, ex)
			}
		}
		if g.MatchCount == 0 {
			continue
		}
		g.Subregion = sub
		g.Region, _ = tax.RegionOf(sub)
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].MatchCount > groups[j].MatchCount
	})
	if len(groups) > opts.MaxGroups {
		groups = groups[:opts.MaxGroups]
	}
	return groups
}
