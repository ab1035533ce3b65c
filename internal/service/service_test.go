package service

import (
	"alcyxob/exercise-catalog/internal/catalog"
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/repository/file"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	catalog   *catalog.Catalog
	exercises ExerciseService
	queries   CatalogService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := file.Open(filepath.Join(t.TempDir(), "custom.json"), nil)
	require.NoError(t, err)
	res, err := catalog.LoadBundled(catalog.EmbeddedBundled())
	require.NoError(t, err)

	cat := catalog.New(taxonomy.Default(), res.Exercises, store, nil, nil)
	_, err = cat.Rebuild(context.Background())
	require.NoError(t, err)

	return fixture{
		catalog:   cat,
		exercises: NewExerciseService(store, cat, nil, nil),
		queries:   NewCatalogService(cat, nil, CatalogOptions{PageSize: 10, SearchDebounce: 10 * time.Millisecond}, nil, nil),
	}
}

func TestExerciseService_CreateRebuildsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.catalog.Snapshot().Len()

	created, err := f.exercises.CreateCustomExercise(ctx, CustomExerciseInput{
		Name:           "Landmine Press",
		PrimaryMuscles: []string{"Upper Chest"},
		Equipment:      domain.EquipmentBarbell,
		Movement:       domain.MovementPush,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ID, domain.CustomIDPrefix))
	assert.True(t, created.IsCustom)
	assert.Equal(t, "Upper Chest", created.Category)

	assert.Equal(t, before+1, f.catalog.Snapshot().Len())
	got, ok := f.queries.LookupByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, []domain.Subregion{"Chest"}, got.SubregionTags)
}

func TestExerciseService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := 7
	inputs := map[string]CustomExerciseInput{
		"no name":       {Name: "  "},
		"bad equipment": {Name: "X", Equipment: "spaceship"},
		"all equipment": {Name: "X", Equipment: domain.EquipmentAll},
		"bad movement":  {Name: "X", Movement: "teleport"},
		"bad mechanic":  {Name: "X", Mechanic: "hybrid"},
		"bad level":     {Name: "X", Level: &bad},
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := f.exercises.CreateCustomExercise(ctx, in)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestExerciseService_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.exercises.UpdateCustomExercise(ctx, "custom_missing", CustomExerciseInput{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrExerciseNotFound)
	assert.ErrorIs(t, f.exercises.DeleteCustomExercise(ctx, "custom_missing"), ErrExerciseNotFound)

	created, err := f.exercises.CreateCustomExercise(ctx, CustomExerciseInput{Name: "Band Pull Apart", PrimaryMuscles: []string{"rear delts"}})
	require.NoError(t, err)

	updated, err := f.exercises.UpdateCustomExercise(ctx, created.ID, CustomExerciseInput{Name: "Band Pull-Apart", PrimaryMuscles: []string{"rear delts"}})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	got, _ := f.queries.LookupByID(created.ID)
	assert.Equal(t, "Band Pull-Apart", got.Name)

	list, err := f.exercises.ListCustomExercises(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.exercises.DeleteCustomExercise(ctx, created.ID))
	_, ok := f.queries.LookupByID(created.ID)
	assert.False(t, ok)
	_, err = f.exercises.GetCustomExercise(ctx, created.ID)
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestExerciseService_OverrideAndRestoreBundled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.exercises.UpdateCustomExercise(ctx, "plank", CustomExerciseInput{Name: "My Plank"})
	assert.ErrorIs(t, err, ErrExerciseNotFound, "bundled ids are not in the custom set")
}

func TestCatalogService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.queries.Search(ctx, "bencp", 3)
	require.NotEmpty(t, res.Exercises)
	assert.LessOrEqual(t, len(res.Exercises), 3)
	assert.Contains(t, res.Exercises[0].Name, "Bench")
	require.NotEmpty(t, res.SuggestedGroups)
	assert.Equal(t, domain.Subregion("Chest"), res.SuggestedGroups[0].Subregion)

	empty := f.queries.Search(ctx, "   ", 10)
	assert.NotNil(t, empty.Exercises)
	assert.Empty(t, empty.Exercises)

	none := f.queries.Search(ctx, "zzzzzzzz", 10)
	assert.Empty(t, none.Exercises)
	assert.Empty(t, none.SuggestedGroups)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Empty(t, f.queries.Search(cancelled, "bench", 10).Exercises)
}

func TestCatalogService_ExercisesForMuscle(t *testing.T) {
	f := newFixture(t)
	got := f.queries.ExercisesForMuscle("Calves")
	require.NotEmpty(t, got)
	for _, ex := range got {
		assert.True(t, f.queries.Taxonomy().MatchesLabels("Calves", ex.PrimaryMuscles, ex.SecondaryMuscles, ex.TertiaryMuscles), ex.ID)
	}
	assert.NotNil(t, f.queries.ExercisesForMuscle("nonexistent"))
}

func TestCatalogService_Sessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, engine := f.queries.NewSession()
	got, err := f.queries.Session(id)
	require.NoError(t, err)
	assert.Same(t, engine, got)

	st := engine.LoadFirstPage(ctx, domain.FilterSpec{Subregion: "Chest"})
	assert.Len(t, st.Items, 10)
	assert.True(t, st.HasMore)

	f.queries.CloseSession(id)
	_, err = f.queries.Session(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.queries.SubmitSearchInput(id, "x"), ErrSessionNotFound)
}

func TestCatalogService_SessionEviction(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.catalog, nil, CatalogOptions{MaxSessions: 2}, nil, nil)

	first, _ := svc.NewSession()
	time.Sleep(time.Millisecond)
	second, _ := svc.NewSession()
	time.Sleep(time.Millisecond)
	_, _ = svc.Session(first) // touch
	third, _ := svc.NewSession()

	_, err := svc.Session(second)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session(first)
	assert.NoError(t, err)
	_, err = svc.Session(third)
	assert.NoError(t, err)
}

func TestCatalogService_SubmitSearchInput(t *testing.T) {
	f := newFixture(t)
	id, engine := f.queries.NewSession()

	require.NoError(t, f.queries.SubmitSearchInput(id, "squ"))
	require.NoError(t, f.queries.SubmitSearchInput(id, "squat"))

	require.Eventually(t, func() bool {
		st := engine.State()
		return st.Spec.Query == "squat" && st.Phase.String() == "ready"
	}, time.Second, 5*time.Millisecond)
	assert.NotZero(t, engine.State().TotalCount)
}

func TestCatalogService_ExplicitQuerySupersedesPendingInput(t *testing.T) {
	f := newFixture(t)
	id, engine := f.queries.NewSession()

	require.NoError(t, f.queries.SubmitSearchInput(id, "bench"))
	st := engine.LoadFirstPage(context.Background(), domain.FilterSpec{Query: "squat"})
	require.Equal(t, "squat", st.Spec.Query)
	squats := st.TotalCount

	time.Sleep(100 * time.Millisecond)
	st = engine.State()
	assert.Equal(t, "squat", st.Spec.Query)
	assert.Equal(t, squats, st.TotalCount)
}

func TestCatalogService_Favorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, engine := f.queries.NewSession()

	f.queries.SetFavorites([]string{"seated-calf-raise"})
	assert.Equal(t, []string{"seated-calf-raise"}, f.queries.Favorites())

	st := engine.LoadFirstPage(ctx, domain.FilterSpec{})
	require.NotEmpty(t, st.Items)
	assert.Equal(t, "seated-calf-raise", st.Items[0].ID)
}
