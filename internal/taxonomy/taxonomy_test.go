package taxonomy

import (
	"strings"
	"testing"

	"alcyxob/exercise-catalog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Structure(t *testing.T) {
	tax := Default()

	upper := tax.InRegion(domain.RegionUpper)
	lower := tax.InRegion(domain.RegionLower)
	require.NotEmpty(t, upper)
	require.NotEmpty(t, lower)
	assert.Equal(t, domain.Subregion("Chest"), upper[0])
	assert.Len(t, tax.Subregions(), len(upper)+len(lower))

	r, ok := tax.RegionOf("Quads")
	require.True(t, ok)
	assert.Equal(t, domain.RegionLower, r)

	assert.NotEmpty(t, tax.DeepSubregions("Chest"))
	assert.NotEmpty(t, tax.DeepSubregions("Back"))
	assert.Empty(t, tax.DeepSubregions("Calves"))
}

func TestResolve(t *testing.T) {
	tax := Default()

	s, ok := tax.Resolve("  biceps ")
	require.True(t, ok)
	assert.Equal(t, domain.Subregion("Biceps"), s)

	_, ok = tax.Resolve("bicep curls")
	assert.False(t, ok)
}

func TestMatchesLabels(t *testing.T) {
	tax := Default()

	tests := []struct {
		name   string
		sub    domain.Subregion
		labels []string
		want   bool
	}{
		{"canonical name", "Chest", []string{"Chest"}, true},
		{"latin synonym", "Chest", []string{"Pectoralis Major"}, true},
		{"upper case", "Chest", []string{"PEC MINOR"}, true},
		{"order independent", "Chest", []string{"Triceps", "pectoralis"}, true},
		{"no match", "Chest", []string{"Quadriceps"}, false},
		{"empty labels", "Chest", nil, false},
		{"unknown subregion", "Wings", []string{"Chest"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.MatchesLabels(tt.sub, tt.labels))
		})
	}
}

func TestTags(t *testing.T) {
	tax := Default()
	ex := domain.Exercise{
		ID:               "bench",
		Name:             "Bench Press",
		PrimaryMuscles:   []string{"Chest"},
		SecondaryMuscles: []string{"Triceps", "Anterior Deltoid"},
		SubregionTags:    []domain.Subregion{"Wings"},
	}

	assert.Equal(t, []domain.Subregion{"Chest", "Shoulders", "Triceps"}, tax.Tags(ex))
}

func TestDeepRule_Passes(t *testing.T) {
	tax := Default()
	upper, ok := tax.Deep("Chest", "upper chest")
	require.True(t, ok)
	mid, ok := tax.Deep("Chest", "Mid Chest")
	require.True(t, ok)

	incline := domain.Exercise{Name: "Incline Bench Press", PrimaryMuscles: []string{"Chest"}}
	decline := domain.Exercise{Name: "Decline Bench Press", PrimaryMuscles: []string{"Chest"}}
	flat := domain.Exercise{Name: "Bench Press", PrimaryMuscles: []string{"Chest"}}

	assert.True(t, upper.Passes(incline))
	assert.False(t, upper.Passes(decline))
	assert.False(t, upper.Passes(flat))

	assert.True(t, mid.Passes(flat))
	assert.False(t, mid.Passes(incline))
	assert.False(t, mid.Passes(decline))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown region", "regions:\n  middle:\n    - name: X\n      synonyms: [x]\n"},
		{"missing lower", "regions:\n  upper:\n    - name: X\n      synonyms: [x]\n"},
		{"duplicate", "regions:\n  upper:\n    - name: X\n      synonyms: [x]\n  lower:\n    - name: x\n      synonyms: [y]\n"},
		{"no synonyms", "regions:\n  upper:\n    - name: X\n  lower:\n    - name: Y\n      synonyms: [y]\n"},
		{"not yaml", "regions: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}
