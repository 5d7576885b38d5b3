package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/oferta-api/internal/middleware"
	"github.com/eduportal/oferta-api/internal/models"
	"github.com/eduportal/oferta-api/pkg/response"
)

type searchService interface {
	Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, bool, error)
	GetByID(ctx context.Context, id string) (*models.Offering, error)
	GetFilterOptions(ctx context.Context) (*models.FilterOptions, error)
	RefreshFilterOptions(ctx context.Context) (*models.FilterOptions, error)
}

// SearchHandler exposes the catalog search endpoints.
type SearchHandler struct {
	service searchService
}

// NewSearchHandler constructs SearchHandler.
func NewSearchHandler(service searchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// Search godoc
// @Summary Search academic offerings
// @Tags Search
// @Produce json
// @Param q query string false "Free-text query over name, institution and area"
// @Param modalidad query string false "Modality (exact match)"
// @Param institucion query string false "Institution (exact match)"
// @Param nivel query string false "Program level (substring match)"
// @Param area query string false "Knowledge area (substring match)"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Param sortBy query string false "Sort key: carrera, institucion, modalidad, duracion, precio, nivel"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	filters := parseSearchFilters(c)

	result, cacheHit, err := h.service.Search(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.Search(c, result, middleware.ExtractMeta(c))
}

// Filters godoc
// @Summary Distinct filter values for each dimension
// @Tags Search
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /search/filters [get]
func (h *SearchHandler) Filters(c *gin.Context) {
	options, err := h.service.GetFilterOptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// RefreshFilters godoc
// @Summary Recompute filter values immediately
// @Tags Search
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /search/filters/refresh [post]
func (h *SearchHandler) RefreshFilters(c *gin.Context) {
	options, err := h.service.RefreshFilterOptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// GetByID godoc
// @Summary Fetch one offering
// @Tags Search
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /ofertas/{id} [get]
func (h *SearchHandler) GetByID(c *gin.Context) {
	offering, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// parseSearchFilters reads filters off the query string. Numeric params
// that fail to parse are treated as absent rather than rejected.
func parseSearchFilters(c *gin.Context) models.SearchFilters {
	filters := models.SearchFilters{
		Query:       strings.TrimSpace(c.Query("q")),
		Modality:    c.Query("modalidad"),
		Institution: c.Query("institucion"),
		Level:       c.Query("nivel"),
		Area:        c.Query("area"),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filters.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filters.Limit = limit
	}
	return filters
}
