package repository

import (
	"alcyxob/exercise-catalog/internal/domain"
	"context"
	"fmt"
)

// Error constants for the repository layer.
var (
	ErrNotFound    = RepositoryError("not found")
	ErrDuplicateID = RepositoryError("duplicate id")
	ErrInvalid     = RepositoryError("invalid record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// DecodeError reports stored data that could not be parsed.
type DecodeError struct {
	Source string // file path, collection or "bundled"
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CustomExerciseRepository stores user-authored exercises. Ids are unique
// within the custom set only; collisions with bundled ids are resolved by the
// catalog merge, not here.
type CustomExerciseRepository interface {
	// Add fails with ErrDuplicateID if the id already exists in the custom set.
	Add(ctx context.Context, exercise domain.Exercise) error
	// Update replaces the record with the same id, or fails with ErrNotFound.
	Update(ctx context.Context, exercise domain.Exercise) error
	// Delete removes the record, or fails with ErrNotFound.
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.Exercise, bool, error)
	// All returns every custom record sorted by name.
	All(ctx context.Context) ([]domain.Exercise, error)
}

// Validate checks the fields every stored record needs.
func Validate(ex domain.Exercise) error {
	if ex.ID == "" || ex.Name == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalid)
	}
	if ex.Equipment != "" && !ex.Equipment.Valid() {
		return fmt.Errorf("%w: unknown equipment %q", ErrInvalid, ex.Equipment)
	}
	if ex.Movement != "" && !ex.Movement.Valid() {
		return fmt.Errorf("%w: unknown movement %q", ErrInvalid, ex.Movement)
	}
	return nil
}
