// Package taxonomy holds the canonical muscle taxonomy: two body regions,
// their subregions, the synonym substrings used to match free-text muscle
// labels, and the deep-subregion keyword rules.
//
// The table is data. It is decoded from YAML (an embedded default ships with
// the binary) so that changing a synonym never touches matching code.
package taxonomy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"alcyxob/exercise-catalog/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTable []byte

var ErrInvalidTable = errors.New("invalid taxonomy table")

// DeepRule refines a parent subregion by keywords. A record passes when it
// contains any include keyword (or the include list is empty) and none of
// the exclude keywords.
type DeepRule struct {
	Parent  domain.Subregion
	Name    domain.Subregion
	Include []string
	Exclude []string
}

// Taxonomy is immutable after Load.
type Taxonomy struct {
	order    []domain.Subregion
	byRegion map[domain.Region][]domain.Subregion
	regionOf map[domain.Subregion]domain.Region
	synonyms map[domain.Subregion][]string
	deep     map[domain.Subregion][]DeepRule
	byName   map[string]domain.Subregion
}

type tableFile struct {
	Regions map[string][]subregionEntry `yaml:"regions"`
}

type subregionEntry struct {
	Name     string      `yaml:"name"`
	Synonyms []string    `yaml:"synonyms"`
	Deep     []deepEntry `yaml:"deep"`
}

type deepEntry struct {
	Name    string   `yaml:"name"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Default returns the embedded taxonomy. The embedded table is validated by
// tests, so a decode failure here is a build defect.
func Default() *Taxonomy {
	t, err := Load(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded table: %v", err))
	}
	return t
}

// Load decodes and validates a taxonomy table.
func Load(r io.Reader) (*Taxonomy, error) {
	var tf tableFile
	if err := yaml.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}

	t := &Taxonomy{
		byRegion: make(map[domain.Region][]domain.Subregion),
		regionOf: make(map[domain.Subregion]domain.Region),
		synonyms: make(map[domain.Subregion][]string),
		deep:     make(map[domain.Subregion][]DeepRule),
		byName:   make(map[string]domain.Subregion),
	}

	for key := range tf.Regions {
		if key != string(domain.RegionUpper) && key != string(domain.RegionLower) {
			return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidTable, key)
		}
	}

	for _, region := range []domain.Region{domain.RegionUpper, domain.RegionLower} {
		entries, ok := tf.Regions[string(region)]
		if !ok || len(entries) == 0 {
			return nil, fmt.Errorf("%w: region %q has no subregions", ErrInvalidTable, region)
		}
		for _, e := range entries {
			name := strings.TrimSpace(e.Name)
			if name == "" {
				return nil, fmt.Errorf("%w: empty subregion name in %q", ErrInvalidTable, region)
			}
			key := strings.ToLower(name)
			if _, dup := t.byName[key]; dup {
				return nil, fmt.Errorf("%w: duplicate subregion %q", ErrInvalidTable, name)
			}
			sub := domain.Subregion(name)
			syns := lowerAll(e.Synonyms)
			if len(syns) == 0 {
				return nil, fmt.Errorf("%w: subregion %q has no synonyms", ErrInvalidTable, name)
			}

			t.byName[key] = sub
			t.order = append(t.order, sub)
			t.byRegion[region] = append(t.byRegion[region], sub)
			t.regionOf[sub] = region
			t.synonyms[sub] = syns

			seen := make(map[string]bool)
			for _, d := range e.Deep {
				dn := strings.TrimSpace(d.Name)
				if dn == "" || seen[strings.ToLower(dn)] {
					return nil, fmt.Errorf("%w: bad deep subregion %q under %q", ErrInvalidTable, d.Name, name)
				}
				seen[strings.ToLower(dn)] = true
				t.deep[sub] = append(t.deep[sub], DeepRule{
					Parent:  sub,
					Name:    domain.Subregion(dn),
					Include: lowerAll(d.Include),
					Exclude: lowerAll(d.Exclude),
				})
			}
		}
	}
	return t, nil
}

// Subregions returns every canonical subregion, upper region first.
func (t *Taxonomy) Subregions() []domain.Subregion {
	return append([]domain.Subregion(nil), t.order...)
}

// InRegion returns the subregions of r in table order.
func (t *Taxonomy) InRegion(r domain.Region) []domain.Subregion {
	return append([]domain.Subregion(nil), t.byRegion[r]...)
}

// RegionOf returns the body region of s.
func (t *Taxonomy) RegionOf(s domain.Subregion) (domain.Region, bool) {
	r, ok := t.regionOf[s]
	return r, ok
}

// Resolve maps a case-insensitive subregion name onto its canonical value.
func (t *Taxonomy) Resolve(name string) (domain.Subregion, bool) {
	s, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// IsCanonical reports whether s is exactly a canonical subregion.
func (t *Taxonomy) IsCanonical(s domain.Subregion) bool {
	_, ok := t.regionOf[s]
	return ok
}

// Synonyms returns the lowercase synonym substrings of s.
func (t *Taxonomy) Synonyms(s domain.Subregion) []string {
	return append([]string(nil), t.synonyms[s]...)
}

// DeepSubregions returns the deep rules under parent, if any.
func (t *Taxonomy) DeepSubregions(parent domain.Subregion) []DeepRule {
	return append([]DeepRule(nil), t.deep[parent]...)
}

// Deep looks up a deep rule by case-insensitive name.
func (t *Taxonomy) Deep(parent, name domain.Subregion) (DeepRule, bool) {
	want := strings.ToLower(strings.TrimSpace(string(name)))
	for _, r := range t.deep[parent] {
		if strings.ToLower(string(r.Name)) == want {
			return r, true
		}
	}
	return DeepRule{}, false
}

// MatchesLabels reports whether any synonym of s occurs in any label.
// Matching is substring containment, case-insensitive and independent of
// label order.
func (t *Taxonomy) MatchesLabels(s domain.Subregion, labels ...[]string) bool {
	syns := t.synonyms[s]
	if len(syns) == 0 {
		return false
	}
	for _, group := range labels {
		for _, label := range group {
			l := strings.ToLower(label)
			for _, syn := range syns {
				if strings.Contains(l, syn) {
					return true
				}
			}
		}
	}
	return false
}

// Tags returns the canonical subregions of ex: tags it already carries that
// are canonical, plus every subregion whose synonyms occur in any of its
// muscle labels. Order follows the table.
func (t *Taxonomy) Tags(ex domain.Exercise) []domain.Subregion {
	var out []domain.Subregion
	for _, s := range t.order {
		if ex.HasTag(s) || t.MatchesLabels(s, ex.PrimaryMuscles, ex.SecondaryMuscles, ex.TertiaryMuscles) {
			out = append(out, s)
		}
	}
	return out
}

// Passes applies a deep rule to a record's name and muscle labels.
func (r DeepRule) Passes(ex domain.Exercise) bool {
	var b strings.Builder
	b.WriteString(strings.ToLower(ex.Name))
	for _, l := range ex.MuscleLabels() {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(l))
	}
	text := b.String()

	for _, kw := range r.Exclude {
		if strings.Contains(text, kw) {
			return false
		}
	}
	if len(r.Include) == 0 {
		return true
	}
	for _, kw := range r.Include {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
