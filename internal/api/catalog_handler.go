package api

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/query"
	"alcyxob/exercise-catalog/internal/service"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the read side: search, lookups and paginated
// query sessions.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

type SessionResponse struct {
	ID    string      `json:"id"`
	State query.State `json:"state"`
}

type SearchInputRequest struct {
	Text string `json:"text"`
}

type FavoritesRequest struct {
	IDs []string `json:"ids"`
}

type DeepSubregionResponse struct {
	Name    domain.Subregion `json:"name"`
	Include []string         `json:"include,omitempty"`
	Exclude []string         `json:"exclude,omitempty"`
}

type SubregionResponse struct {
	Name     domain.Subregion        `json:"name"`
	Region   domain.Region           `json:"region"`
	Synonyms []string                `json:"synonyms"`
	Deep     []DeepSubregionResponse `json:"deep,omitempty"`
}

// --- Handler Methods ---

// CreateSession godoc
// @Summary Open a paginated query session
// @Tags Query
// @Produce json
// @Success 201 {object} SessionResponse
// @Router /sessions [post]
func (h *CatalogHandler) CreateSession(c *gin.Context) {
	id, engine := h.catalogService.NewSession()
	c.JSON(http.StatusCreated, SessionResponse{ID: id, State: engine.State()})
}

// GetSession godoc
// @Summary Current state of a query session
// @Tags Query
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Router /sessions/{id} [get]
func (h *CatalogHandler) GetSession(c *gin.Context) {
	engine, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: c.Param("id"), State: engine.State()})
}

// CloseSession godoc
// @Summary Close a query session
// @Tags Query
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *CatalogHandler) CloseSession(c *gin.Context) {
	h.catalogService.CloseSession(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// LoadFirstPage godoc
// @Summary Run a filter and load its first page
// @Tags Query
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param filter body domain.FilterSpec true "Filter"
// @Success 200 {object} SessionResponse
// @Router /sessions/{id}/query [post]
func (h *CatalogHandler) LoadFirstPage(c *gin.Context) {
	var spec domain.FilterSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if spec.Equipment != "" && !spec.Equipment.Valid() {
		abortWithError(c, http.StatusBadRequest, "Unknown equipment bucket: "+string(spec.Equipment))
		return
	}
	if spec.Movement != "" && !spec.Movement.Valid() {
		abortWithError(c, http.StatusBadRequest, "Unknown movement bucket: "+string(spec.Movement))
		return
	}
	engine, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: c.Param("id"), State: engine.LoadFirstPage(c.Request.Context(), spec)})
}

// LoadNextPage godoc
// @Summary Append the next page of the session's current filter
// @Tags Query
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Router /sessions/{id}/next [post]
func (h *CatalogHandler) LoadNextPage(c *gin.Context) {
	engine, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: c.Param("id"), State: engine.LoadNextPage(c.Request.Context())})
}

// SubmitSearchInput godoc
// @Summary Feed type-ahead text to a session
// @Description The session reloads once the text has been stable for the
// @Description debounce window. Poll GET /sessions/{id} for the result.
// @Tags Query
// @Accept json
// @Param id path string true "Session ID"
// @Param input body SearchInputRequest true "Search text"
// @Success 202
// @Router /sessions/{id}/input [post]
func (h *CatalogHandler) SubmitSearchInput(c *gin.Context) {
	var req SearchInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.catalogService.SubmitSearchInput(c.Param("id"), req.Text); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			abortWithError(c, http.StatusNotFound, "Session not found.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to submit search input.")
		return
	}
	c.Status(http.StatusAccepted)
}

// Search godoc
// @Summary Fuzzy search by exercise name
// @Tags Catalog
// @Produce json
// @Param q query string true "Search text"
// @Param limit query int false "Maximum results"
// @Success 200 {object} service.SearchResult
// @Router /search [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.catalogService.Search(c.Request.Context(), c.Query("q"), limit))
}

// GetExercise godoc
// @Summary Look up any catalog exercise by id
// @Tags Catalog
// @Produce json
// @Param id path string true "Exercise ID"
// @Success 200 {object} domain.Exercise
// @Failure 404 {object} gin.H "Not found"
// @Router /exercises/{id} [get]
func (h *CatalogHandler) GetExercise(c *gin.Context) {
	ex, ok := h.catalogService.LookupByID(c.Param("id"))
	if !ok {
		abortWithError(c, http.StatusNotFound, "Exercise not found.")
		return
	}
	c.JSON(http.StatusOK, ex)
}

// ExercisesForMuscle godoc
// @Summary Exercises that train a muscle
// @Tags Catalog
// @Produce json
// @Param name path string true "Subregion or muscle label"
// @Success 200 {array} domain.Exercise
// @Router /muscles/{name}/exercises [get]
func (h *CatalogHandler) ExercisesForMuscle(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.ExercisesForMuscle(c.Param("name")))
}

// GetTaxonomy godoc
// @Summary The canonical muscle taxonomy
// @Tags Catalog
// @Produce json
// @Success 200 {array} SubregionResponse
// @Router /taxonomy [get]
func (h *CatalogHandler) GetTaxonomy(c *gin.Context) {
	tax := h.catalogService.Taxonomy()
	subs := tax.Subregions()
	out := make([]SubregionResponse, 0, len(subs))
	for _, s := range subs {
		region, _ := tax.RegionOf(s)
		resp := SubregionResponse{Name: s, Region: region, Synonyms: tax.Synonyms(s)}
		for _, d := range tax.DeepSubregions(s) {
			resp.Deep = append(resp.Deep, DeepSubregionResponse{Name: d.Name, Include: d.Include, Exclude: d.Exclude})
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// GetFavorites godoc
// @Summary Favorite exercise ids
// @Tags Favorites
// @Produce json
// @Success 200 {object} FavoritesRequest
// @Router /favorites [get]
func (h *CatalogHandler) GetFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, FavoritesRequest{IDs: h.catalogService.Favorites()})
}

// SetFavorites godoc
// @Summary Replace the favorite exercise ids
// @Tags Favorites
// @Accept json
// @Produce json
// @Param favorites body FavoritesRequest true "Favorite ids"
// @Success 200 {object} FavoritesRequest
// @Router /favorites [put]
func (h *CatalogHandler) SetFavorites(c *gin.Context) {
	var req FavoritesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	h.catalogService.SetFavorites(req.IDs)
	c.JSON(http.StatusOK, FavoritesRequest{IDs: h.catalogService.Favorites()})
}

func (h *CatalogHandler) session(c *gin.Context) (*query.Engine, bool) {
	engine, err := h.catalogService.Session(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Session not found.")
		return nil, false
	}
	return engine, true
}
