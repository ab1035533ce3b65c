// Package catalog merges the bundled corpus with custom exercises into an
// immutable, indexed Snapshot and publishes it atomically.
//
// Readers call Snapshot and never lock; a rebuild builds a complete new
// snapshot off to the side and swaps a single pointer, so a reader sees
// either the old corpus or the new one and never a mix.
package catalog

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/metrics"
	"alcyxob/exercise-catalog/internal/repository"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Catalog owns the live snapshot.
type Catalog struct {
	tax     *taxonomy.Taxonomy
	bundled []domain.Exercise
	store   repository.CustomExerciseRepository
	logger  *slog.Logger
	metrics *metrics.Metrics

	current atomic.Pointer[Snapshot]

	// mu serialises rebuilds and guards subscribers.
	mu          sync.Mutex
	subscribers []func(*Snapshot)
}

// New creates a catalog whose initial snapshot holds only the bundled set.
// Call Rebuild to bring in custom exercises.
func New(tax *taxonomy.Taxonomy, bundled []domain.Exercise, store repository.CustomExerciseRepository, logger *slog.Logger, m *metrics.Metrics) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		tax:     tax,
		bundled: bundled,
		store:   store,
		logger:  logger.With("component", "catalog"),
		metrics: m,
	}
	c.current.Store(Build(tax, bundled, nil))
	return c
}

// Taxonomy returns the table used for tagging.
func (c *Catalog) Taxonomy() *taxonomy.Taxonomy { return c.tax }

// Snapshot returns the live snapshot. It is never nil.
func (c *Catalog) Snapshot() *Snapshot { return c.current.Load() }

// Rebuild reads every custom exercise, merges it with the bundled set and
// publishes the result. On a store read error the previous snapshot stays
// live.
func (c *Catalog) Rebuild(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	custom, err := c.store.All(ctx)
	if err != nil {
		c.metrics.ObserveRebuild(0, 0, 0, err)
		c.logger.Error("Catalog rebuild failed, keeping previous snapshot", "error", err)
		return c.current.Load(), fmt.Errorf("read custom exercises: %w", err)
	}

	snap := Build(c.tax, c.bundled, custom)
	prev := c.current.Swap(snap)

	elapsed := time.Since(start)
	c.metrics.ObserveRebuild(elapsed, snap.BundledCount, snap.CustomCount, nil)
	c.logger.Debug("Catalog rebuilt",
		"exercises", snap.Len(),
		"custom", snap.CustomCount,
		"version", snap.Version,
		"changed", prev == nil || prev.Version != snap.Version,
		"took", elapsed)

	for _, fn := range c.subscribers {
		fn(snap)
	}
	return snap, nil
}

// OnRebuild registers fn to run after every successful rebuild, in
// publication order. fn must not call Rebuild.
func (c *Catalog) OnRebuild(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// ExercisesForMuscle returns every record whose muscle labels contain a
// synonym of the subregion that name resolves to, in name order. If name is
// not a canonical subregion it is matched as a plain label substring.
func (s *Snapshot) ExercisesForMuscle(tax *taxonomy.Taxonomy, name string) []domain.Exercise {
	var out []domain.Exercise
	if sub, ok := tax.Resolve(name); ok {
		for _, ex := range s.Exercises {
			if tax.MatchesLabels(sub, ex.PrimaryMuscles, ex.SecondaryMuscles, ex.TertiaryMuscles) {
				out = append(out, ex.Clone())
			}
		}
		return out
	}

	needle := normalizeLabel(name)
	if needle == "" {
		return nil
	}
	for _, ex := range s.Exercises {
		for _, l := range ex.MuscleLabels() {
			if containsFold(l, needle) {
				out = append(out, ex.Clone())
				break
			}
		}
	}
	return out
}

func normalizeLabel(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
