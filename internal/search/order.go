package search

import (
	"alcyxob/exercise-catalog/internal/domain"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collators keep internal buffers and are not safe for concurrent use.
var collators = sync.Pool{
	New: func() any { return collate.New(language.Und, collate.IgnoreCase, collate.Loose) },
}

// NameLess returns the display order of exercise names: collated,
// ignoring case and accents, then by id. Call release once the sort is done;
// less must not be used after that.
func NameLess() (less func(a, b domain.Exercise) bool, release func()) {
	col := collators.Get().(*collate.Collator)
	less = func(a, b domain.Exercise) bool {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	}
	return less, func() { collators.Put(col) }
}
