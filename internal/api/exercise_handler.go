package api

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/service"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler serves user-authored exercises.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
	logger          *slog.Logger
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService, logger *slog.Logger) *ExerciseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExerciseHandler{exerciseService: exerciseService, logger: logger.With("component", "exercise-handler")}
}

// --- DTOs for API (Data Transfer Objects) ---

// CustomExerciseRequest defines the expected JSON for creating or replacing
// a custom exercise.
type CustomExerciseRequest struct {
	Name             string             `json:"name" binding:"required"`
	PrimaryMuscles   []string           `json:"primaryMuscles"`
	SecondaryMuscles []string           `json:"secondaryMuscles"`
	TertiaryMuscles  []string           `json:"tertiaryMuscles"`
	Equipment        string             `json:"equipment" binding:"omitempty"`
	Movement         string             `json:"movement" binding:"omitempty"`
	Mechanic         string             `json:"mechanic" binding:"omitempty,oneof=compound isolation"`
	Level            *int               `json:"level" binding:"omitempty,min=1,max=3"`
	Category         string             `json:"category"`
	Subregions       []domain.Subregion `json:"subregions"`
}

func (r CustomExerciseRequest) toInput() service.CustomExerciseInput {
	return service.CustomExerciseInput{
		Name:             r.Name,
		PrimaryMuscles:   r.PrimaryMuscles,
		SecondaryMuscles: r.SecondaryMuscles,
		TertiaryMuscles:  r.TertiaryMuscles,
		Equipment:        domain.EquipmentBucket(r.Equipment),
		Movement:         domain.MovementBucket(r.Movement),
		Mechanic:         domain.Mechanic(r.Mechanic),
		Level:            r.Level,
		Category:         r.Category,
		Subregions:       r.Subregions,
	}
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Create a custom exercise
// @Tags Custom Exercises
// @Accept json
// @Produce json
// @Param exercise body CustomExerciseRequest true "Exercise details"
// @Success 201 {object} domain.Exercise
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Router /custom-exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CustomExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.CreateCustomExercise(c.Request.Context(), req.toInput())
	if err != nil {
		h.writeError(c, err, "Failed to create exercise.")
		return
	}
	h.logger.Debug("Custom exercise created via API", "id", exercise.ID, "user", getUserIDFromContext(c))
	c.JSON(http.StatusCreated, exercise)
}

// ListExercises godoc
// @Summary List custom exercises
// @Tags Custom Exercises
// @Produce json
// @Success 200 {array} domain.Exercise
// @Router /custom-exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	exercises, err := h.exerciseService.ListCustomExercises(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to retrieve exercises.")
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// GetExercise godoc
// @Summary Get a custom exercise
// @Tags Custom Exercises
// @Produce json
// @Param id path string true "Exercise ID"
// @Success 200 {object} domain.Exercise
// @Failure 404 {object} gin.H "Not found"
// @Router /custom-exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exercise, err := h.exerciseService.GetCustomExercise(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to retrieve exercise.")
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// UpdateExercise godoc
// @Summary Replace a custom exercise
// @Tags Custom Exercises
// @Accept json
// @Produce json
// @Param id path string true "Exercise ID"
// @Param exercise body CustomExerciseRequest true "Exercise details"
// @Success 200 {object} domain.Exercise
// @Router /custom-exercises/{id} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	var req CustomExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.UpdateCustomExercise(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		h.writeError(c, err, "Failed to update exercise.")
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// DeleteExercise godoc
// @Summary Delete a custom exercise
// @Tags Custom Exercises
// @Param id path string true "Exercise ID"
// @Success 204
// @Router /custom-exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	if err := h.exerciseService.DeleteCustomExercise(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "Failed to delete exercise.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ExerciseHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, "Exercise not found.")
	case errors.Is(err, service.ErrDuplicateExercise):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		h.logger.Error(fallback, "error", err)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
