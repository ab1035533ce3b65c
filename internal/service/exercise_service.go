package service

import (
	"alcyxob/exercise-catalog/internal/catalog"
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/metrics"
	"alcyxob/exercise-catalog/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrValidationFailed  = errors.New("exercise validation failed")
	ErrDuplicateExercise = errors.New("exercise id already exists")
)

// CustomExerciseInput carries the user-editable fields of a custom exercise.
type CustomExerciseInput struct {
	Name             string
	PrimaryMuscles   []string
	SecondaryMuscles []string
	TertiaryMuscles  []string
	Equipment        domain.EquipmentBucket
	Movement         domain.MovementBucket
	Mechanic         domain.Mechanic
	Level            *int
	Category         string
	Subregions       []domain.Subregion
}

// ExerciseService manages user-authored exercises. Every successful
// mutation is followed by a full catalog rebuild.
type ExerciseService interface {
	CreateCustomExercise(ctx context.Context, input CustomExerciseInput) (*domain.Exercise, error)
	GetCustomExercise(ctx context.Context, id string) (*domain.Exercise, error)
	ListCustomExercises(ctx context.Context) ([]domain.Exercise, error)
	UpdateCustomExercise(ctx context.Context, id string, input CustomExerciseInput) (*domain.Exercise, error)
	DeleteCustomExercise(ctx context.Context, id string) error
}

// Rebuilder is the part of the catalog a mutation needs.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*catalog.Snapshot, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	repo      repository.CustomExerciseRepository
	rebuilder Rebuilder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(repo repository.CustomExerciseRepository, rebuilder Rebuilder, logger *slog.Logger, m *metrics.Metrics) ExerciseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &exerciseService{
		repo:      repo,
		rebuilder: rebuilder,
		logger:    logger.With("component", "exercise-service"),
		metrics:   m,
	}
}

// CreateCustomExercise assigns a fresh custom_ id and stores the record.
func (s *exerciseService) CreateCustomExercise(ctx context.Context, input CustomExerciseInput) (*domain.Exercise, error) {
	exercise, err := input.toExercise(domain.CustomIDPrefix + uuid.NewString())
	if err != nil {
		return nil, err
	}

	err = s.repo.Add(ctx, exercise)
	s.metrics.ObserveStoreWrite("add", err)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	s.logger.Info("Custom exercise created", "id", exercise.ID, "name", exercise.Name)
	s.rebuild(ctx)
	return &exercise, nil
}

// GetCustomExercise retrieves a custom exercise from the store, not the
// merged catalog.
func (s *exerciseService) GetCustomExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	exercise, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return &exercise, nil
}

// ListCustomExercises returns every custom exercise sorted by name.
func (s *exerciseService) ListCustomExercises(ctx context.Context) ([]domain.Exercise, error) {
	exercises, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	return exercises, nil
}

// UpdateCustomExercise replaces the whole record stored under id.
func (s *exerciseService) UpdateCustomExercise(ctx context.Context, id string, input CustomExerciseInput) (*domain.Exercise, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrValidationFailed
	}
	exercise, err := input.toExercise(id)
	if err != nil {
		return nil, err
	}

	err = s.repo.Update(ctx, exercise)
	s.metrics.ObserveStoreWrite("update", err)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	s.logger.Info("Custom exercise updated", "id", id)
	s.rebuild(ctx)
	return &exercise, nil
}

// DeleteCustomExercise removes a custom exercise. A bundled exercise it
// was overriding becomes visible again after the rebuild.
func (s *exerciseService) DeleteCustomExercise(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.ObserveStoreWrite("delete", err)
	if err != nil {
		return mapRepositoryError(err)
	}
	s.logger.Info("Custom exercise deleted", "id", id)
	s.rebuild(ctx)
	return nil
}

// rebuild refreshes the catalog after a committed write. The write itself
// already succeeded, so a rebuild failure is logged, not returned; the
// previous snapshot stays live until the next rebuild.
func (s *exerciseService) rebuild(ctx context.Context) {
	if s.rebuilder == nil {
		return
	}
	if _, err := s.rebuilder.Rebuild(ctx); err != nil {
		s.logger.Error("Catalog rebuild after custom exercise change failed", "error", err)
	}
}

func (in CustomExerciseInput) toExercise(id string) (domain.Exercise, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Exercise{}, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if in.Equipment != "" && (!in.Equipment.Valid() || in.Equipment == domain.EquipmentAll) {
		return domain.Exercise{}, fmt.Errorf("%w: unknown equipment %q", ErrValidationFailed, in.Equipment)
	}
	if in.Movement != "" && (!in.Movement.Valid() || in.Movement == domain.MovementAll) {
		return domain.Exercise{}, fmt.Errorf("%w: unknown movement %q", ErrValidationFailed, in.Movement)
	}
	switch in.Mechanic {
	case domain.MechanicNone, domain.MechanicCompound, domain.MechanicIsolation:
	default:
		return domain.Exercise{}, fmt.Errorf("%w: unknown mechanic %q", ErrValidationFailed, in.Mechanic)
	}
	if in.Level != nil && (*in.Level < 1 || *in.Level > 3) {
		return domain.Exercise{}, fmt.Errorf("%w: level must be 1-3", ErrValidationFailed)
	}

	ex := domain.Exercise{
		ID:               id,
		Name:             name,
		PrimaryMuscles:   in.PrimaryMuscles,
		SecondaryMuscles: in.SecondaryMuscles,
		TertiaryMuscles:  in.TertiaryMuscles,
		Equipment:        in.Equipment,
		Movement:         in.Movement,
		Mechanic:         in.Mechanic,
		Level:            in.Level,
		Category:         strings.TrimSpace(in.Category),
		SubregionTags:    in.Subregions,
		IsCustom:         true,
	}
	// Custom exercises are categorised by the muscle they were created for.
	if ex.Category == "" {
		switch {
		case len(in.Subregions) > 0:
			ex.Category = string(in.Subregions[0])
		case len(in.PrimaryMuscles) > 0:
			ex.Category = strings.TrimSpace(in.PrimaryMuscles[0])
		}
	}
	return ex.Clone(), nil
}

func mapRepositoryError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrExerciseNotFound
	case errors.Is(err, repository.ErrDuplicateID):
		return ErrDuplicateExercise
	case errors.Is(err, repository.ErrInvalid):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	default:
		return err
	}
}
