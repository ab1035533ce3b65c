package domain

import "strings"

// Region is one of the two body regions of the canonical taxonomy.
type Region string

const (
	RegionUpper Region = "upper"
	RegionLower Region = "lower"
)

// Opposite returns the other body region.
func (r Region) Opposite() Region {
	if r == RegionUpper {
		return RegionLower
	}
	return RegionUpper
}

// Subregion is a canonical muscle grouping such as "Chest". Valid values are
// defined by the loaded taxonomy table, not by this package.
type Subregion string

// FilterSpec is the immutable query value. It is comparable, so == tells a
// pagination engine whether the query changed.
type FilterSpec struct {
	Subregion     Subregion       `json:"subregion,omitempty"`
	DeepSubregion Subregion       `json:"deepSubregion,omitempty"`
	Equipment     EquipmentBucket `json:"equipment,omitempty"`
	Movement      MovementBucket  `json:"movement,omitempty"`
	Query         string          `json:"query,omitempty"`
	Category      string          `json:"category,omitempty"`
}

// Normalized fills defaults and trims the free-text query.
func (f FilterSpec) Normalized() FilterSpec {
	if f.Equipment == "" {
		f.Equipment = EquipmentAll
	}
	if f.Movement == "" {
		f.Movement = MovementAll
	}
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	if f.Subregion == "" {
		f.DeepSubregion = ""
	}
	return f
}

// Searching reports whether free-text search mode is active.
func (f FilterSpec) Searching() bool {
	return strings.TrimSpace(f.Query) != ""
}

// SuggestedGroup is a "did you mean" subregion with a few example matches.
type SuggestedGroup struct {
	Subregion  Subregion  `json:"subregion"`
	Region     Region     `json:"region"`
	MatchCount int        `json:"matchCount"`
	Examples   []Exercise `json:"examples"`
}

// ResultPage is one slice of a filtered, sorted result set.
type ResultPage struct {
	Index       int              `json:"index"`
	Exercises   []Exercise       `json:"exercises"`
	TotalCount  int              `json:"totalCount"`
	HasMore     bool             `json:"hasMore"`
	Suggestions []SuggestedGroup `json:"suggestions,omitempty"`
}
