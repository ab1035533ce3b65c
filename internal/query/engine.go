// Package query pages filtered catalog results.
//
// An Engine holds the pages loaded so far for one filter.
// Changing the filter starts over at page zero. A first-page load
// that is superseded by a newer one is cancelled and never committed: the
// last request wins, whatever order the computations finish in.
package query

import (
	"alcyxob/exercise-catalog/internal/catalog"
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/filter"
	"alcyxob/exercise-catalog/internal/metrics"
	"alcyxob/exercise-catalog/internal/search"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 50

// errCancelled marks a superseded load. It never leaves this package.
var errCancelled = errors.New("query: load superseded")

// Phase is the engine's load state.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// MarshalText lets a Phase encode as its name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is a value copy of the engine's state.
type State struct {
	Phase      Phase               `json:"phase"`
	Spec       domain.FilterSpec   `json:"spec"`
	Pages      []domain.ResultPage `json:"pages"`
	Items      []domain.Exercise   `json:"items"`
	TotalCount int                 `json:"totalCount"`
	HasMore    bool                `json:"hasMore"`
	// PageIndex is the index of the last loaded page, -1 before the first.
	PageIndex   int                     `json:"pageIndex"`
	Suggestions []domain.SuggestedGroup `json:"suggestions,omitempty"`
}

// Source supplies catalog snapshots. *catalog.Catalog implements it.
type Source interface {
	Snapshot() *catalog.Snapshot
	Taxonomy() *taxonomy.Taxonomy
}

// FilterFunc computes the full filtered, sorted sequence.
type FilterFunc func(corpus []domain.Exercise, spec domain.FilterSpec, env filter.Env) []domain.Exercise

type Options struct {
	PageSize  int
	Favorites *filter.Favorites
	Suggest   search.SuggestOptions
	// Filter replaces filter.Apply; tests use it to control timing.
	Filter  FilterFunc
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type cacheKey struct {
	spec       domain.FilterSpec
	version    uint64
	favVersion uint64
}

type cachedResult struct {
	key         cacheKey
	items       []domain.Exercise
	suggestions []domain.SuggestedGroup
}

// Engine is safe for concurrent use.
type Engine struct {
	source   Source
	pageSize int
	favs     *filter.Favorites
	suggest  search.SuggestOptions
	apply    FilterFunc
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	cache  *cachedResult
}

// NewEngine creates an idle engine over source.
func NewEngine(source Source, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Filter == nil {
		opts.Filter = filter.Apply
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		source:   source,
		pageSize: opts.PageSize,
		favs:     opts.Favorites,
		suggest:  opts.Suggest,
		apply:    opts.Filter,
		logger:   opts.Logger.With("component", "query"),
		metrics:  opts.Metrics,
		state:    State{Phase: Idle, PageIndex: -1},
	}
}

// PageSize returns the number of records per page.
func (e *Engine) PageSize() int { return e.pageSize }

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyState()
}

// LoadFirstPage discards all loaded pages and loads page zero for spec.
// Any load still running for an older request is cancelled first. If this
// request is itself superseded, or ctx ends, the state of the newer request
// is returned instead and nothing is committed.
func (e *Engine) LoadFirstPage(ctx context.Context, spec domain.FilterSpec) State {
	st, _ := e.loadFirstPage(ctx, func(State) (domain.FilterSpec, bool) { return spec, true })
	return st
}

// loadFirstPage calls prepare with e.mu held and the current state. When
// prepare declines, nothing is started and ran is false.
func (e *Engine) loadFirstPage(ctx context.Context, prepare func(cur State) (domain.FilterSpec, bool)) (st State, ran bool) {
	start := time.Now()

	e.mu.Lock()
	spec, ok := prepare(e.state)
	if !ok {
		defer e.mu.Unlock()
		return e.copyState(), false
	}
	spec = spec.Normalized()
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = State{Phase: Loading, Spec: spec, PageIndex: -1}

	snap := e.source.Snapshot()
	favs := e.favs.Snapshot()
	key := cacheKey{spec: spec, version: snap.Version, favVersion: favs.Version()}
	cached := e.cache
	e.mu.Unlock()
	defer cancel()

	var res *cachedResult
	if cached != nil && cached.key == key {
		res = cached
	} else {
		var err error
		res, err = e.compute(runCtx, key, snap, favs)
		if err != nil {
			return e.abandon(gen), true
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.metrics.IncCancelled()
		return e.copyState(), true
	}
	e.cancel = nil
	e.cache = res
	e.commitPage(res, 0)
	e.metrics.ObserveQuery("first_page", time.Since(start))
	return e.copyState(), true
}

// generation identifies the most recent first-page load or Close.
func (e *Engine) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// LoadNextPage appends the next page. It returns the state unchanged when
// nothing more is available or a first-page load is still running. If the
// catalog or favorites changed since the first page, pagination restarts.
func (e *Engine) LoadNextPage(ctx context.Context) State {
	start := time.Now()

	e.mu.Lock()
	if e.state.Phase != Ready || !e.state.HasMore {
		defer e.mu.Unlock()
		return e.copyState()
	}
	key := cacheKey{
		spec:       e.state.Spec,
		version:    e.source.Snapshot().Version,
		favVersion: e.favs.Snapshot().Version(),
	}
	if e.cache == nil || e.cache.key != key {
		spec := e.state.Spec
		e.mu.Unlock()
		e.logger.Debug("Catalog changed during pagination, restarting", "spec", spec)
		return e.LoadFirstPage(ctx, spec)
	}
	defer e.mu.Unlock()
	e.commitPage(e.cache, e.state.PageIndex+1)
	e.metrics.ObserveQuery("next_page", time.Since(start))
	return e.copyState()
}

// ResetPagination is LoadFirstPage under the name callers use when the
// filter changes.
func (e *Engine) ResetPagination(ctx context.Context, spec domain.FilterSpec) State {
	return e.LoadFirstPage(ctx, spec)
}

// Close cancels any running load.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
	if e.state.Phase == Loading {
		e.state.Phase = Idle
	}
}

// compute runs the pipeline off the caller's goroutine so that a cancelled
// request returns at once. The abandoned computation finishes in the
// background and its result is dropped.
func (e *Engine) compute(ctx context.Context, key cacheKey, snap *catalog.Snapshot, favs filter.FavoriteSet) (*cachedResult, error) {
	if ctx.Err() != nil {
		return nil, errCancelled
	}
	tax := e.source.Taxonomy()
	done := make(chan *cachedResult, 1)
	go func() {
		items := e.apply(snap.Exercises, key.spec, filter.Env{Taxonomy: tax, Favorites: favs})
		res := &cachedResult{key: key, items: items}
		if len(items) == 0 && tax != nil && key.spec.Subregion != "" && key.spec.Searching() {
			if origin, ok := tax.Resolve(string(key.spec.Subregion)); ok {
				res.suggestions = search.Suggest(key.spec.Query, origin, tax, snap.BySubregion, e.suggest)
			}
		}
		done <- res
	}()

	select {
	case <-ctx.Done():
		return nil, errCancelled
	case res := <-done:
		return res, nil
	}
}

// abandon resolves a load that stopped before committing. If it is still
// the newest request the engine goes back to idle, so a cancelled caller
// context does not leave it stuck in Loading.
func (e *Engine) abandon(gen uint64) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics.IncCancelled()
	if gen == e.gen {
		e.cancel = nil
		e.state.Phase = Idle
	}
	return e.copyState()
}

// commitPage appends page index from res. Caller holds e.mu.
func (e *Engine) commitPage(res *cachedResult, index int) {
	total := len(res.items)
	from := min(index*e.pageSize, total)
	to := min(from+e.pageSize, total)

	page := domain.ResultPage{
		Index:      index,
		Exercises:  cloneAll(res.items[from:to]),
		TotalCount: total,
		HasMore:    to < total,
	}
	if index == 0 {
		page.Suggestions = res.suggestions
		e.state.Pages = nil
		e.state.Items = nil
		e.state.Suggestions = res.suggestions
	}

	e.state.Phase = Ready
	e.state.Pages = append(slices.Clip(e.state.Pages), page)
	e.state.Items = append(slices.Clip(e.state.Items), page.Exercises...)
	e.state.TotalCount = total
	e.state.HasMore = page.HasMore
	e.state.PageIndex = index
}

// copyState returns the state with clipped slices, so a caller appending to
// its copy never writes into the engine's arrays. Caller holds e.mu.
func (e *Engine) copyState() State {
	s := e.state
	s.Pages = slices.Clip(s.Pages)
	s.Items = slices.Clip(s.Items)
	return s
}

func cloneAll(in []domain.Exercise) []domain.Exercise {
	out := make([]domain.Exercise, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
