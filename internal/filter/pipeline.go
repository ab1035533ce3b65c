// Package filter composes the catalog filter stages into one pure function.
//
// Stages run in a fixed order and each one narrows the output of the one
// before: subregion, deep subregion, category, free text, equipment,
// movement, then a stable sort. Free-text mode replaces the equipment and
// movement stages entirely; the two modes never combine in one query.
package filter

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/search"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"sort"
	"strings"
)

// Env is what the pipeline needs besides the corpus and the query.
type Env struct {
	Taxonomy  *taxonomy.Taxonomy
	Favorites FavoriteSet
}

// Apply runs the pipeline. The returned records share memory with corpus
// and must not be modified. Empty input yields empty output.
func Apply(corpus []domain.Exercise, spec domain.FilterSpec, env Env) []domain.Exercise {
	spec = spec.Normalized()
	out := corpus

	if spec.Subregion != "" {
		out = bySubregion(out, spec, env.Taxonomy)
	}
	if spec.Category != "" {
		out = keep(out, func(ex domain.Exercise) bool {
			return strings.EqualFold(strings.TrimSpace(ex.Category), spec.Category)
		})
	}

	if spec.Searching() {
		return rankByQuery(out, spec.Query)
	}

	if spec.Equipment != domain.EquipmentAll {
		out = keep(out, func(ex domain.Exercise) bool { return ex.Equipment == spec.Equipment })
	}
	if spec.Movement != domain.MovementAll {
		out = keep(out, func(ex domain.Exercise) bool { return ex.Movement == spec.Movement })
	}
	return sortFavoritesFirst(out, env.Favorites)
}

// bySubregion applies the subregion stage and, when selected, the deep
// refinement. An unknown subregion or deep subregion matches nothing.
func bySubregion(in []domain.Exercise, spec domain.FilterSpec, tax *taxonomy.Taxonomy) []domain.Exercise {
	if tax == nil {
		return nil
	}
	sub, ok := tax.Resolve(string(spec.Subregion))
	if !ok {
		return nil
	}

	if spec.DeepSubregion == "" {
		return keep(in, func(ex domain.Exercise) bool {
			return tax.MatchesLabels(sub, ex.PrimaryMuscles)
		})
	}

	rule, ok := tax.Deep(sub, spec.DeepSubregion)
	if !ok {
		return nil
	}
	out := keep(in, func(ex domain.Exercise) bool {
		return tax.MatchesLabels(sub, ex.PrimaryMuscles, ex.SecondaryMuscles)
	})
	return keep(out, rule.Passes)
}

// rankByQuery orders free-text hits exactly as standalone search does.
func rankByQuery(in []domain.Exercise, query string) []domain.Exercise {
	return search.Rank(query, in)
}

// sortFavoritesFirst partitions favorites ahead of the rest; each partition
// is ordered by name.
func sortFavoritesFirst(in []domain.Exercise, favs FavoriteSet) []domain.Exercise {
	out := make([]domain.Exercise, len(in))
	copy(out, in)

	less, release := search.NameLess()
	defer release()
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := favs.Contains(out[i].ID), favs.Contains(out[j].ID)
		if fi != fj {
			return fi
		}
		return less(out[i], out[j])
	})
	return out
}

// keep returns the elements of in that pass. It always allocates, so stages
// never alias each other's backing arrays.
func keep(in []domain.Exercise, pass func(domain.Exercise) bool) []domain.Exercise {
	out := make([]domain.Exercise, 0, len(in))
	for _, ex := range in {
		if pass(ex) {
			out = append(out, ex)
		}
	}
	return out
}
