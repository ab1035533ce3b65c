package query

import (
	"alcyxob/exercise-catalog/internal/catalog"
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/filter"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSource struct {
	tax  *taxonomy.Taxonomy
	snap atomic.Pointer[catalog.Snapshot]
}

func (s *testSource) Snapshot() *catalog.Snapshot   { return s.snap.Load() }
func (s *testSource) Taxonomy() *taxonomy.Taxonomy { return s.tax }

func newSource(records []domain.Exercise) *testSource {
	s := &testSource{tax: taxonomy.Default()}
	s.snap.Store(catalog.Build(s.tax, records, nil))
	return s
}

// mixedCorpus returns n chest records alternating barbell and dumbbell.
func mixedCorpus(n int) []domain.Exercise {
	out := make([]domain.Exercise, n)
	for i := range out {
		eq := domain.EquipmentBarbell
		if i%2 == 1 {
			eq = domain.EquipmentDumbbell
		}
		out[i] = domain.Exercise{
			ID:             fmt.Sprintf("ex-%02d", i),
			Name:           fmt.Sprintf("%s Press %02d", eq, i),
			PrimaryMuscles: []string{"chest"},
			Equipment:      eq,
			Movement:       domain.MovementPush,
		}
	}
	return out
}

func drain(t *testing.T, e *Engine, spec domain.FilterSpec) State {
	t.Helper()
	st := e.LoadFirstPage(context.Background(), spec)
	for i := 0; st.HasMore; i++ {
		require.Less(t, i, 1000, "pagination does not terminate")
		st = e.LoadNextPage(context.Background())
	}
	return st
}

func TestEngine_Idle(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(3)), Options{})
	st := e.State()
	assert.Equal(t, Idle, st.Phase)
	assert.Equal(t, -1, st.PageIndex)
	assert.Equal(t, DefaultPageSize, e.PageSize())

	next := e.LoadNextPage(context.Background())
	assert.Equal(t, st, next, "next page before first is a no-op")
}

func TestEngine_FirstPage(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(12)), Options{PageSize: 5})
	st := e.LoadFirstPage(context.Background(), domain.FilterSpec{})

	assert.Equal(t, Ready, st.Phase)
	assert.Equal(t, 0, st.PageIndex)
	assert.Equal(t, 12, st.TotalCount)
	assert.True(t, st.HasMore)
	require.Len(t, st.Pages, 1)
	assert.Len(t, st.Items, 5)
	assert.Equal(t, domain.EquipmentAll, st.Spec.Equipment, "spec normalized")
}

func TestEngine_PaginationCompleteness(t *testing.T) {
	src := newSource(mixedCorpus(23))
	specs := []domain.FilterSpec{
		{},
		{Equipment: domain.EquipmentBarbell},
		{Subregion: "Chest", Equipment: domain.EquipmentDumbbell},
		{Query: "press 1"},
		{Subregion: "Back"},
	}
	for _, pageSize := range []int{1, 4, 5, 23, 50} {
		for _, spec := range specs {
			t.Run(fmt.Sprintf("size=%d/%+v", pageSize, spec), func(t *testing.T) {
				e := NewEngine(src, Options{PageSize: pageSize})
				st := drain(t, e, spec)

				want := filter.Apply(src.Snapshot().Exercises, spec, filter.Env{Taxonomy: src.tax})
				assert.Equal(t, ids(want), ids(st.Items))
				assert.Equal(t, len(want), st.TotalCount)
				assert.False(t, st.HasMore)

				seen := map[string]bool{}
				for i, p := range st.Pages {
					assert.Equal(t, i, p.Index)
					for _, ex := range p.Exercises {
						assert.False(t, seen[ex.ID], "duplicate %s", ex.ID)
						seen[ex.ID] = true
					}
				}
				assert.Len(t, seen, len(want))
			})
		}
	}
}

func TestEngine_NextPageNoOpWhenExhausted(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(3)), Options{PageSize: 5})
	st := e.LoadFirstPage(context.Background(), domain.FilterSpec{})
	require.False(t, st.HasMore)

	again := e.LoadNextPage(context.Background())
	assert.Equal(t, st, again)
}

func TestEngine_SpecChangeReplacesPages(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(20)), Options{PageSize: 3})
	e.LoadFirstPage(context.Background(), domain.FilterSpec{})
	e.LoadNextPage(context.Background())
	st := e.LoadNextPage(context.Background())
	require.Equal(t, 2, st.PageIndex)

	st = e.ResetPagination(context.Background(), domain.FilterSpec{Equipment: domain.EquipmentDumbbell})
	assert.Equal(t, 0, st.PageIndex)
	require.Len(t, st.Pages, 1)
	assert.Equal(t, 10, st.TotalCount)
	for _, ex := range st.Items {
		assert.Equal(t, domain.EquipmentDumbbell, ex.Equipment)
	}
}

// A barbell load still computing when the filter switches to dumbbell must
// never show up in the dumbbell pages.
func TestEngine_SupersededLoadNeverCommits(t *testing.T) {
	src := newSource(mixedCorpus(30))
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	slow := func(corpus []domain.Exercise, spec domain.FilterSpec, env filter.Env) []domain.Exercise {
		if spec.Equipment == domain.EquipmentBarbell {
			once.Do(func() { close(started) })
			<-release
		}
		return filter.Apply(corpus, spec, env)
	}
	e := NewEngine(src, Options{PageSize: 4, Filter: slow})

	barbellDone := make(chan State, 1)
	go func() {
		barbellDone <- e.LoadFirstPage(context.Background(), domain.FilterSpec{Equipment: domain.EquipmentBarbell})
	}()
	<-started

	st := e.LoadFirstPage(context.Background(), domain.FilterSpec{Equipment: domain.EquipmentDumbbell})
	require.Equal(t, Ready, st.Phase)

	var stale State
	select {
	case stale = <-barbellDone:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded load did not return")
	}
	close(release)

	assert.Equal(t, domain.EquipmentDumbbell, stale.Spec.Equipment, "stale caller sees the newer request")

	final := drain(t, e, domain.FilterSpec{Equipment: domain.EquipmentDumbbell})
	assert.Equal(t, 15, final.TotalCount)
	for _, ex := range final.Items {
		assert.Equal(t, domain.EquipmentDumbbell, ex.Equipment, ex.ID)
	}
	// Give the abandoned computation a moment to finish; it must not commit.
	time.Sleep(20 * time.Millisecond)
	for _, ex := range e.State().Items {
		assert.Equal(t, domain.EquipmentDumbbell, ex.Equipment, ex.ID)
	}
}

func TestEngine_CancelledContextIsSilent(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(5)), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := e.LoadFirstPage(ctx, domain.FilterSpec{})
	assert.Equal(t, Idle, st.Phase)
	assert.Empty(t, st.Items)
}

func TestEngine_CacheKeyedBySnapshotAndFavorites(t *testing.T) {
	src := newSource(mixedCorpus(10))
	favs := filter.NewFavorites()
	var calls atomic.Int32
	counting := func(corpus []domain.Exercise, spec domain.FilterSpec, env filter.Env) []domain.Exercise {
		calls.Add(1)
		return filter.Apply(corpus, spec, env)
	}
	e := NewEngine(src, Options{PageSize: 3, Favorites: favs, Filter: counting})
	ctx := context.Background()

	e.LoadFirstPage(ctx, domain.FilterSpec{})
	e.LoadNextPage(ctx)
	e.LoadNextPage(ctx)
	e.LoadFirstPage(ctx, domain.FilterSpec{})
	assert.Equal(t, int32(1), calls.Load(), "pages and repeat first page reuse the cached sequence")

	favs.Set([]string{"ex-09"})
	st := e.LoadFirstPage(ctx, domain.FilterSpec{})
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "ex-09", st.Items[0].ID, "favorite sorts first")

	src.snap.Store(catalog.Build(src.tax, mixedCorpus(4), nil))
	st = e.LoadFirstPage(ctx, domain.FilterSpec{})
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 4, st.TotalCount)
}

func TestEngine_CatalogChangeRestartsPagination(t *testing.T) {
	src := newSource(mixedCorpus(10))
	e := NewEngine(src, Options{PageSize: 3})
	e.LoadFirstPage(context.Background(), domain.FilterSpec{})
	st := e.LoadNextPage(context.Background())
	require.Equal(t, 1, st.PageIndex)

	src.snap.Store(catalog.Build(src.tax, mixedCorpus(7), nil))
	st = e.LoadNextPage(context.Background())
	assert.Equal(t, 0, st.PageIndex)
	assert.Equal(t, 7, st.TotalCount)
}

func TestEngine_SuggestionsOnEmptySubregionSearch(t *testing.T) {
	records := []domain.Exercise{
		{ID: "curl", Name: "Barbell Curl", PrimaryMuscles: []string{"biceps"}},
		{ID: "squat", Name: "Barbell Squat", PrimaryMuscles: []string{"quadriceps"}},
		{ID: "front", Name: "Front Squat", PrimaryMuscles: []string{"quadriceps"}, SecondaryMuscles: []string{"glutes"}},
		{ID: "goblet", Name: "Goblet Squat", PrimaryMuscles: []string{"glutes"}},
		{ID: "hack", Name: "Hack Squat", PrimaryMuscles: []string{"quads"}},
	}
	e := NewEngine(newSource(records), Options{})

	st := e.LoadFirstPage(context.Background(), domain.FilterSpec{Subregion: "Biceps", Query: "squat"})
	assert.Zero(t, st.TotalCount)
	require.Len(t, st.Suggestions, 2)
	assert.Equal(t, domain.Subregion("Quads"), st.Suggestions[0].Subregion)
	assert.Equal(t, 3, st.Suggestions[0].MatchCount)
	assert.Equal(t, domain.Subregion("Glutes"), st.Suggestions[1].Subregion)
	assert.Equal(t, 2, st.Suggestions[1].MatchCount)
	require.Len(t, st.Pages, 1)
	assert.Equal(t, st.Suggestions, st.Pages[0].Suggestions)

	st = e.LoadFirstPage(context.Background(), domain.FilterSpec{Subregion: "Biceps"})
	assert.Empty(t, st.Suggestions, "no suggestions without a query")
}

func TestEngine_ReturnedStateIsIsolated(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(6)), Options{PageSize: 2})
	st := e.LoadFirstPage(context.Background(), domain.FilterSpec{})
	_ = append(st.Items, domain.Exercise{ID: "intruder"})

	next := e.LoadNextPage(context.Background())
	require.Len(t, next.Items, 4)
	assert.NotEqual(t, "intruder", next.Items[2].ID)
}

func TestEngine_Close(t *testing.T) {
	src := newSource(mixedCorpus(4))
	block := make(chan struct{})
	e := NewEngine(src, Options{Filter: func(c []domain.Exercise, s domain.FilterSpec, env filter.Env) []domain.Exercise {
		<-block
		return c
	}})
	done := make(chan State, 1)
	go func() { done <- e.LoadFirstPage(context.Background(), domain.FilterSpec{}) }()

	require.Eventually(t, func() bool { return e.State().Phase == Loading }, time.Second, 5*time.Millisecond)
	e.Close()
	st := <-done
	close(block)
	assert.Equal(t, Idle, st.Phase)
}

func ids(records []domain.Exercise) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
