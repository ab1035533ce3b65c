package query

import (
	"alcyxob/exercise-catalog/internal/domain"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_OnlyLastStableInputFires(t *testing.T) {
	var mu sync.Mutex
	var fired []string
	d := NewDebouncer(50*time.Millisecond, func(_ context.Context, text string) {
		mu.Lock()
		defer mu.Unlock()
		fired = append(fired, text)
	})
	defer d.Stop()

	for _, s := range []string{"b", "be", "ben", "bench"} {
		d.Submit(s)
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) > 0
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bench"}, fired)
}

func TestDebouncer_SupersedeCancelsRunningWork(t *testing.T) {
	running := make(chan context.Context, 1)
	d := NewDebouncer(10*time.Millisecond, func(ctx context.Context, text string) {
		if text == "slow" {
			running <- ctx
			<-ctx.Done()
		}
	})
	defer d.Stop()

	d.Submit("slow")
	var ctx context.Context
	select {
	case ctx = <-running:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}

	d.Submit("fast")
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("running call was not cancelled")
	}
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	called := make(chan string, 1)
	d := NewDebouncer(20*time.Millisecond, func(_ context.Context, text string) { called <- text })
	d.Submit("x")
	d.Stop()
	d.Submit("y")

	select {
	case s := <-called:
		t.Fatalf("unexpected call with %q", s)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncer_DefaultDelay(t *testing.T) {
	d := NewDebouncer(0, func(context.Context, string) {})
	assert.Equal(t, DefaultDebounce, d.delay)
}

func TestEngine_SearchDebouncer(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(10)), Options{PageSize: 3})
	e.LoadFirstPage(context.Background(), domain.FilterSpec{Equipment: domain.EquipmentDumbbell})

	results := make(chan State, 4)
	d := e.SearchDebouncer(15*time.Millisecond, func(st State) { results <- st })
	defer d.Stop()

	d.Submit("barbel")
	d.Submit("barbell press 0")

	select {
	case st := <-results:
		assert.Equal(t, "barbell press 0", st.Spec.Query)
		assert.Equal(t, domain.EquipmentDumbbell, st.Spec.Equipment, "rest of the filter kept")
		assert.NotZero(t, st.TotalCount)
	case <-time.After(time.Second):
		t.Fatal("debounced search never committed")
	}
	select {
	case st := <-results:
		t.Fatalf("superseded input fired: %q", st.Spec.Query)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_SearchDebouncerYieldsToExplicitLoad(t *testing.T) {
	e := NewEngine(newSource(mixedCorpus(10)), Options{PageSize: 3})

	results := make(chan State, 2)
	d := e.SearchDebouncer(10*time.Millisecond, func(st State) { results <- st })
	defer d.Stop()

	d.Submit("barbell")
	st := e.LoadFirstPage(context.Background(), domain.FilterSpec{Query: "dumbbell"})
	require.Equal(t, "dumbbell", st.Spec.Query)

	select {
	case st := <-results:
		t.Fatalf("stale input committed: %q", st.Spec.Query)
	case <-time.After(60 * time.Millisecond):
	}
	assert.Equal(t, "dumbbell", e.State().Spec.Query)
	assert.Equal(t, Ready, e.State().Phase)

	d.Submit("barbell")
	select {
	case st := <-results:
		assert.Equal(t, "barbell", st.Spec.Query, "input submitted after the load still runs")
	case <-time.After(time.Second):
		t.Fatal("debounced search never committed")
	}
}
