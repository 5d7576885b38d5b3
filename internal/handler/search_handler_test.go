package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/oferta-api/internal/models"
	appErrors "github.com/eduportal/oferta-api/pkg/errors"
)

type searchServiceMock struct {
	result      *models.SearchResult
	searchErr   error
	cacheHit    bool
	offering    *models.Offering
	getErr      error
	options     *models.FilterOptions
	optionsErr  error
	lastFilters models.SearchFilters
	lastID      string
	refreshed   bool
}

func (m *searchServiceMock) Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, bool, error) {
	m.lastFilters = filters
	return m.result, m.cacheHit, m.searchErr
}

func (m *searchServiceMock) GetByID(ctx context.Context, id string) (*models.Offering, error) {
	m.lastID = id
	return m.offering, m.getErr
}

func (m *searchServiceMock) GetFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	return m.options, m.optionsErr
}

func (m *searchServiceMock) RefreshFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	m.refreshed = true
	return m.options, m.optionsErr
}

type searchEnvelope struct {
	Success    bool                   `json:"success"`
	Data       []models.Offering      `json:"data"`
	Pagination *models.Pagination     `json:"pagination"`
	Filters    *models.SearchFilters  `json:"filters"`
	Meta       map[string]interface{} `json:"meta"`
}

func performSearch(t *testing.T, service *searchServiceMock, target string) (*httptest.ResponseRecorder, searchEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewSearchHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)

	handler.Search(c)

	var envelope searchEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return rec, envelope
}

func TestSearchHandlerParsesQueryParams(t *testing.T) {
	service := &searchServiceMock{result: &models.SearchResult{Offerings: []models.Offering{}}}

	rec, _ := performSearch(t, service, "/search?q=ingenieria&modalidad=Virtual&institucion=Uniandes&nivel=Pregrado&area=Salud&page=2&limit=40&sortBy=precio&sortOrder=desc")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SearchFilters{
		Query:       "ingenieria",
		Modality:    "Virtual",
		Institution: "Uniandes",
		Level:       "Pregrado",
		Area:        "Salud",
		Page:        2,
		Limit:       40,
		SortBy:      "precio",
		SortOrder:   "desc",
	}, service.lastFilters)
}

func TestSearchHandlerIgnoresUnparseableNumbers(t *testing.T) {
	service := &searchServiceMock{result: &models.SearchResult{Offerings: []models.Offering{}}}

	rec, _ := performSearch(t, service, "/search?page=abc&limit=xyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, service.lastFilters.Page)
	assert.Equal(t, 0, service.lastFilters.Limit)
}

func TestSearchHandlerEnvelope(t *testing.T) {
	service := &searchServiceMock{
		result: &models.SearchResult{
			Offerings:  []models.Offering{{ID: "1", Name: "Medicina", Institution: "Universidad Nacional"}},
			Pagination: models.Pagination{Page: 1, Limit: 20, Total: 1, TotalPages: 1},
			Filters:    models.SearchFilters{Query: "medicina"},
		},
	}

	rec, envelope := performSearch(t, service, "/search?q=medicina")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, envelope.Success)
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Medicina", envelope.Data[0].Name)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.Total)
	require.NotNil(t, envelope.Filters)
	assert.Equal(t, "medicina", envelope.Filters.Query)
}

func TestSearchHandlerDataSourceError(t *testing.T) {
	service := &searchServiceMock{searchErr: appErrors.Clone(appErrors.ErrDataSource, "query failed")}

	rec, _ := performSearch(t, service, "/search")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.False(t, envelope.Success)
	assert.Equal(t, appErrors.ErrDataSource.Code, envelope.Error.Code)
}

func TestSearchHandlerFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &searchServiceMock{options: &models.FilterOptions{
		Modalities: []string{"Presencial", "Virtual"},
	}}
	handler := NewSearchHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/search/filters", nil)

	handler.Filters(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.FilterOptions `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, []string{"Presencial", "Virtual"}, envelope.Data.Modalities)
}

func TestSearchHandlerRefreshFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &searchServiceMock{options: &models.FilterOptions{}}
	handler := NewSearchHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/search/filters/refresh", nil)

	handler.RefreshFilters(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, service.refreshed)
}

func TestSearchHandlerGetByID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &searchServiceMock{offering: &models.Offering{ID: "of-1", Name: "Derecho"}}
	handler := NewSearchHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ofertas/of-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "of-1"}}

	handler.GetByID(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "of-1", service.lastID)
}

func TestSearchHandlerGetByIDNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &searchServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "offering not found")}
	handler := NewSearchHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ofertas/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetByID(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
