package catalog

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"encoding/binary"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// Merge combines bundled and custom records into one id-unique set. A custom
// record replaces a bundled one with the same id. The result is sorted by
// name then id, so merging the same inputs twice yields the same sequence.
func Merge(bundled, custom []domain.Exercise) []domain.Exercise {
	byID := make(map[string]domain.Exercise, len(bundled)+len(custom))
	for _, ex := range bundled {
		byID[ex.ID] = ex
	}
	for _, ex := range custom {
		byID[ex.ID] = ex
	}

	out := make([]domain.Exercise, 0, len(byID))
	for _, ex := range byID {
		out = append(out, ex.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return domain.LessByName(out[i], out[j]) })
	return out
}

// Tag returns a copy of ex whose SubregionTags are its canonical tags plus
// every subregion the taxonomy matches in its muscle labels. Non-canonical
// tags are dropped.
func Tag(tax *taxonomy.Taxonomy, ex domain.Exercise) domain.Exercise {
	ex = ex.Clone()
	ex.SubregionTags = tax.Tags(ex)
	return ex
}

// Indices are the lookup structures built over a merged corpus.
type Indices struct {
	ByID        map[string]int
	BySubregion map[domain.Subregion][]domain.Exercise
}

// BuildIndices indexes a name-sorted corpus in one pass. Each record is
// appended under every tag it carries, so every subregion slice keeps the
// corpus order.
func BuildIndices(corpus []domain.Exercise) Indices {
	idx := Indices{
		ByID:        make(map[string]int, len(corpus)),
		BySubregion: make(map[domain.Subregion][]domain.Exercise),
	}
	for i, ex := range corpus {
		idx.ByID[ex.ID] = i
		for _, tag := range ex.SubregionTags {
			idx.BySubregion[tag] = append(idx.BySubregion[tag], ex)
		}
	}
	return idx
}

// Snapshot is an immutable view of the merged catalog. Nothing reachable
// from a Snapshot is modified after Build returns it.
type Snapshot struct {
	Exercises []domain.Exercise
	Indices
	Version      uint64
	BuiltAt      time.Time
	BundledCount int
	CustomCount  int
}

// Build merges, tags and indexes the two sources.
func Build(tax *taxonomy.Taxonomy, bundled, custom []domain.Exercise) *Snapshot {
	merged := Merge(bundled, custom)
	customCount := 0
	for i := range merged {
		merged[i] = Tag(tax, merged[i])
		if merged[i].IsCustom {
			customCount++
		}
	}
	return &Snapshot{
		Exercises:    merged,
		Indices:      BuildIndices(merged),
		Version:      fingerprint(merged),
		BuiltAt:      time.Now(),
		BundledCount: len(merged) - customCount,
		CustomCount:  customCount,
	}
}

// Lookup returns a copy of the record with the given id.
func (s *Snapshot) Lookup(id string) (domain.Exercise, bool) {
	i, ok := s.ByID[id]
	if !ok {
		return domain.Exercise{}, false
	}
	return s.Exercises[i].Clone(), true
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int { return len(s.Exercises) }

// fingerprint hashes the encoded corpus so that any field change, not just
// an id change, produces a new version.
func fingerprint(corpus []domain.Exercise) uint64 {
	if data, err := json.Marshal(corpus); err == nil {
		return xxh3.Hash(data)
	}
	h := xxh3.New()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(corpus)))
	_, _ = h.Write(n[:])
	for _, ex := range corpus {
		_, _ = h.WriteString(ex.ID)
		_, _ = h.WriteString(ex.Name)
	}
	return h.Sum64()
}
