package service

import (
	"alcyxob/exercise-catalog/internal/catalog"
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/filter"
	"alcyxob/exercise-catalog/internal/metrics"
	"alcyxob/exercise-catalog/internal/query"
	"alcyxob/exercise-catalog/internal/search"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSearchLimit = 25
	DefaultMaxSessions = 1024
)

var ErrSessionNotFound = errors.New("query session not found")

// SearchResult is the answer to a free-text search.
type SearchResult struct {
	Exercises       []domain.Exercise       `json:"exercises"`
	SuggestedGroups []domain.SuggestedGroup `json:"suggestedGroups"`
}

// CatalogService is the read side of the catalog. None of its operations
// treat "no results" as an error.
type CatalogService interface {
	// NewSession creates a paginating query engine and returns its id.
	NewSession() (string, *query.Engine)
	Session(id string) (*query.Engine, error)
	CloseSession(id string)
	// SubmitSearchInput feeds type-ahead text to a session. The session
	// reloads page zero once the text has been stable for the debounce
	// window; earlier pending text is dropped.
	SubmitSearchInput(id, text string) error

	Search(ctx context.Context, text string, limit int) SearchResult
	ExercisesForMuscle(name string) []domain.Exercise
	LookupByID(id string) (domain.Exercise, bool)
	Taxonomy() *taxonomy.Taxonomy
	SetFavorites(ids []string)
	Favorites() []string
}

type CatalogOptions struct {
	PageSize       int
	SearchDebounce time.Duration
	MaxSessions    int
}

type session struct {
	engine    *query.Engine
	debouncer *query.Debouncer
	lastUsed  time.Time
}

func (s *session) close() {
	if s.debouncer != nil {
		s.debouncer.Stop()
	}
	s.engine.Close()
}

// catalogService implements CatalogService.
type catalogService struct {
	catalog   *catalog.Catalog
	favorites *filter.Favorites
	opts      CatalogOptions
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*session
}

// NewCatalogService creates the query API over cat.
func NewCatalogService(cat *catalog.Catalog, favorites *filter.Favorites, opts CatalogOptions, logger *slog.Logger, m *metrics.Metrics) CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	if favorites == nil {
		favorites = filter.NewFavorites()
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &catalogService{
		catalog:   cat,
		favorites: favorites,
		opts:      opts,
		logger:    logger.With("component", "catalog-service"),
		metrics:   m,
		sessions:  make(map[string]*session),
	}
}

func (s *catalogService) NewSession() (string, *query.Engine) {
	engine := query.NewEngine(s.catalog, query.Options{
		PageSize:  s.opts.PageSize,
		Favorites: s.favorites,
		Logger:    s.logger,
		Metrics:   s.metrics,
	})
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.opts.MaxSessions {
		s.evictOldestLocked()
	}
	s.sessions[id] = &session{engine: engine, lastUsed: time.Now()}
	return id, engine
}

func (s *catalogService) Session(id string) (*query.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = time.Now()
	return sess.engine, nil
}

func (s *catalogService) CloseSession(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
}

func (s *catalogService) SubmitSearchInput(id, text string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	sess.lastUsed = time.Now()
	if sess.debouncer == nil {
		sess.debouncer = sess.engine.SearchDebouncer(s.opts.SearchDebounce, nil)
	}
	d := sess.debouncer
	s.mu.Unlock()

	d.Submit(text)
	return nil
}

func (s *catalogService) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.lastUsed.Before(oldest) {
			oldestID, oldest = id, sess.lastUsed
		}
	}
	if oldestID != "" {
		s.sessions[oldestID].close()
		delete(s.sessions, oldestID)
		s.logger.Debug("Evicted idle query session", "session", oldestID)
	}
}

// Search ranks every exercise name against text and groups the hits by
// subregion. A cancelled ctx yields an empty result, not an error.
func (s *catalogService) Search(ctx context.Context, text string, limit int) SearchResult {
	start := time.Now()
	result := SearchResult{Exercises: []domain.Exercise{}, SuggestedGroups: []domain.SuggestedGroup{}}
	if search.Normalize(text) == "" || ctx.Err() != nil {
		return result
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	snap := s.catalog.Snapshot()
	hits := search.Rank(text, snap.Exercises)
	if ctx.Err() != nil {
		return result
	}
	if groups := search.GroupBySubregion(hits, s.catalog.Taxonomy(), search.SuggestOptions{}); groups != nil {
		result.SuggestedGroups = groups
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	result.Exercises = cloneAll(hits)
	s.metrics.ObserveQuery("search", time.Since(start))
	return result
}

func (s *catalogService) ExercisesForMuscle(name string) []domain.Exercise {
	out := s.catalog.Snapshot().ExercisesForMuscle(s.catalog.Taxonomy(), name)
	if out == nil {
		out = []domain.Exercise{}
	}
	return out
}

func (s *catalogService) LookupByID(id string) (domain.Exercise, bool) {
	return s.catalog.Snapshot().Lookup(id)
}

func (s *catalogService) Taxonomy() *taxonomy.Taxonomy {
	return s.catalog.Taxonomy()
}

// SetFavorites replaces the favorite ids. Open sessions pick the change up
// on their next load.
func (s *catalogService) SetFavorites(ids []string) {
	s.favorites.Set(ids)
}

func (s *catalogService) Favorites() []string {
	return s.favorites.IDs()
}

func cloneAll(in []domain.Exercise) []domain.Exercise {
	out := make([]domain.Exercise, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
