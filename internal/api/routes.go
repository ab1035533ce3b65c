package api

import (
	"alcyxob/exercise-catalog/internal/service"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services groups what the HTTP layer needs.
type Services struct {
	Catalog   service.CatalogService
	Exercises service.ExerciseService
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services) {
	catalogHandler := NewCatalogHandler(svc.Catalog)
	exerciseHandler := NewExerciseHandler(svc.Exercises, svc.Logger)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if svc.Metrics != nil {
		router.GET("/metrics", gin.WrapH(svc.Metrics))
	}

	apiV1 := router.Group("/api/v1")
	apiV1.Use(authMiddleware)
	{
		apiV1.GET("/search", catalogHandler.Search)
		apiV1.GET("/taxonomy", catalogHandler.GetTaxonomy)
		apiV1.GET("/exercises/:id", catalogHandler.GetExercise)
		apiV1.GET("/muscles/:name/exercises", catalogHandler.ExercisesForMuscle)

		apiV1.GET("/favorites", catalogHandler.GetFavorites)
		apiV1.PUT("/favorites", catalogHandler.SetFavorites)

		sessions := apiV1.Group("/sessions")
		{
			sessions.POST("", catalogHandler.CreateSession)
			sessions.GET("/:id", catalogHandler.GetSession)
			sessions.DELETE("/:id", catalogHandler.CloseSession)
			sessions.POST("/:id/query", catalogHandler.LoadFirstPage)
			sessions.POST("/:id/next", catalogHandler.LoadNextPage)
			sessions.POST("/:id/input", catalogHandler.SubmitSearchInput)
		}

		custom := apiV1.Group("/custom-exercises")
		{
			custom.GET("", exerciseHandler.ListExercises)
			custom.GET("/:id", exerciseHandler.GetExercise)

			write := ScopeMiddleware(jwtSecret, ScopeWrite)
			custom.POST("", write, exerciseHandler.CreateExercise)
			custom.PUT("/:id", write, exerciseHandler.UpdateExercise)
			custom.DELETE("/:id", write, exerciseHandler.DeleteExercise)
		}
	}
}
