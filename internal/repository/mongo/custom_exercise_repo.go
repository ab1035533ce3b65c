package mongo

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const customExerciseCollectionName = "custom_exercises"

// mongoCustomExerciseRepository implements repository.CustomExerciseRepository.
// Records are keyed by their catalog id in an "id" field with a unique index;
// Mongo's own _id is never exposed.
type mongoCustomExerciseRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoCustomExerciseRepository creates a custom exercise store backed by MongoDB.
func NewMongoCustomExerciseRepository(db *mongo.Database, logger *slog.Logger) repository.CustomExerciseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &mongoCustomExerciseRepository{
		collection: db.Collection(customExerciseCollectionName),
		logger:     logger.With("component", "custom-store", "collection", customExerciseCollectionName),
	}
}

// Add inserts a new custom exercise. The unique index turns a concurrent
// duplicate into a write exception, mapped to ErrDuplicateID.
func (r *mongoCustomExerciseRepository) Add(ctx context.Context, exercise domain.Exercise) error {
	exercise = prepare(exercise)
	if err := repository.Validate(exercise); err != nil {
		return err
	}

	_, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateID
		}
		return fmt.Errorf("insert custom exercise: %w", err)
	}
	return nil
}

// Update replaces the whole document; there is no partial field update.
func (r *mongoCustomExerciseRepository) Update(ctx context.Context, exercise domain.Exercise) error {
	exercise = prepare(exercise)
	if err := repository.Validate(exercise); err != nil {
		return err
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"id": exercise.ID}, exercise)
	if err != nil {
		return fmt.Errorf("replace custom exercise: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a custom exercise by id.
func (r *mongoCustomExerciseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete custom exercise: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Get retrieves a custom exercise by id.
func (r *mongoCustomExerciseRepository) Get(ctx context.Context, id string) (domain.Exercise, bool, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Exercise{}, false, nil
		}
		return domain.Exercise{}, false, &repository.DecodeError{Source: customExerciseCollectionName, Err: err}
	}
	return exercise, true, nil
}

// All returns every custom exercise sorted by name. Documents that fail to
// decode are skipped and logged rather than failing the whole read.
func (r *mongoCustomExerciseRepository) All(ctx context.Context) ([]domain.Exercise, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find custom exercises: %w", err)
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	for cursor.Next(ctx) {
		var ex domain.Exercise
		if err := cursor.Decode(&ex); err != nil {
			r.logger.Warn("Skipping undecodable custom exercise", "error", err)
			continue
		}
		exercises = append(exercises, ex)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom exercises: %w", err)
	}
	return exercises, nil
}

// EnsureCustomExerciseIndexes creates the unique id index and a name index
// for sorted listing.
func EnsureCustomExerciseIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("custom_exercise_id"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("custom_exercise_name"),
		},
	}
	if _, err := db.Collection(customExerciseCollectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create custom exercise indexes: %w", err)
	}
	return nil
}

func prepare(ex domain.Exercise) domain.Exercise {
	ex = ex.Clone()
	ex.IsCustom = true
	if ex.Equipment == "" {
		ex.Equipment = domain.EquipmentOther
	}
	if ex.Movement == "" {
		ex.Movement = domain.MovementOther
	}
	return ex
}
