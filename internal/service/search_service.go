package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/eduportal/oferta-api/internal/models"
	"github.com/eduportal/oferta-api/internal/search"
	appErrors "github.com/eduportal/oferta-api/pkg/errors"
)

type offeringRepository interface {
	Search(ctx context.Context, pred search.Predicate, sort search.Sort, offset, limit int) ([]models.Offering, int, error)
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	FacetRows(ctx context.Context, limit int) ([]models.FacetRow, error)
}

// SearchServiceConfig tunes the engine. Zero values fall back to the
// engine defaults.
type SearchServiceConfig struct {
	DefaultLimit   int
	MaxLimit       int
	FacetCacheTTL  time.Duration
	ResultCacheTTL time.Duration
}

// SearchService turns a free-text query plus structured filters into a
// deterministic, paginated, sorted result page, and serves precomputed
// filter facets from a short-lived cache. It is stateless per request
// except for the facet cache.
type SearchService struct {
	repo    offeringRepository
	facets  *FacetCache
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     SearchServiceConfig

	// facetMu serialises facet recomputation; without it concurrent
	// staleness would only cost redundant idempotent work, but one
	// round trip is enough.
	facetMu sync.Mutex
}

// NewSearchService constructs the engine. cache and metrics may be nil.
func NewSearchService(repo offeringRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg SearchServiceConfig, now func() time.Time) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = search.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = search.MaxLimit
	}
	return &SearchService{
		repo:    repo,
		facets:  NewFacetCache(cfg.FacetCacheTTL, now),
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Search executes one catalog query. The caller's filters are echoed back
// verbatim in the result; pagination inputs are clamped only for
// execution. A page past the last yields an empty list, not an error. The
// bool reports whether the page came from the result cache.
func (s *SearchService) Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, bool, error) {
	page := search.ClampPage(filters.Page)
	limit := filters.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	limit = search.ClampLimit(limit, s.cfg.MaxLimit)

	cacheKey := searchCacheKey(filters)
	if s.cache.Enabled() {
		var cached models.SearchResult
		if s.cache.Get(ctx, cacheKey, &cached) {
			return &cached, true, nil
		}
	}

	pred := search.BuildPredicate(filters)
	sortBy := search.ResolveSort(filters.SortBy, filters.SortOrder)

	start := time.Now()
	offerings, total, err := s.repo.Search(ctx, pred, sortBy, search.Offset(page, limit), limit)
	if err != nil {
		return nil, false, appErrors.DataSource(err)
	}
	s.metrics.ObserveSearch(time.Since(start))

	if offerings == nil {
		offerings = []models.Offering{}
	}

	result := &models.SearchResult{
		Offerings:  offerings,
		Pagination: search.Paginate(page, limit, total),
		Filters:    filters,
	}

	if s.cache.Enabled() {
		s.cache.Set(ctx, cacheKey, result, s.cfg.ResultCacheTTL)
	}

	return result, false, nil
}

// GetByID returns one offering or NOT_FOUND.
func (s *SearchService) GetByID(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.DataSource(err)
	}
	return offering, nil
}

// GetFilterOptions serves the facet lists, recomputing lazily when the
// cached value has expired. A recomputation failure propagates the data
// source error and leaves any stale value in place for a later successful
// attempt.
func (s *SearchService) GetFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	if options, fresh := s.facets.Get(); fresh {
		return options, nil
	}

	s.facetMu.Lock()
	defer s.facetMu.Unlock()

	// Another request may have recomputed while we waited on the lock.
	if options, fresh := s.facets.Get(); fresh {
		return options, nil
	}

	rows, err := s.repo.FacetRows(ctx, s.cfg.MaxLimit)
	if err != nil {
		return nil, appErrors.DataSource(err)
	}

	options := buildFilterOptions(rows)
	s.facets.Put(options)
	s.metrics.RecordFacetRecompute()
	return options, nil
}

// RefreshFilterOptions drops the facet cache and recomputes immediately.
// Cached result pages are dropped too; a refresh signals the catalog
// changed underneath them.
func (s *SearchService) RefreshFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	s.facets.Invalidate()
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, "search:*")
	}
	return s.GetFilterOptions(ctx)
}

// spanishCollator sorts facet values case-insensitively with Spanish
// collation so accented institution names interleave naturally.
var spanishCollator = collate.New(language.Spanish, collate.IgnoreCase)

func buildFilterOptions(rows []models.FacetRow) *models.FilterOptions {
	modalities := make(map[string]struct{})
	institutions := make(map[string]struct{})
	areas := make(map[string]struct{})
	levels := make(map[string]struct{})

	for _, row := range rows {
		collect(modalities, row.Modality)
		collect(institutions, row.Institution)
		collect(areas, row.Area)
		collect(levels, row.Level)
	}

	return &models.FilterOptions{
		Modalities:   sortedValues(modalities),
		Institutions: sortedValues(institutions),
		Areas:        sortedValues(areas),
		Levels:       sortedValues(levels),
	}
}

func collect(set map[string]struct{}, value string) {
	if value == "" {
		return
	}
	set[value] = struct{}{}
}

func sortedValues(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	spanishCollator.SortStrings(values)
	return values
}

// searchCacheKey derives a deterministic Redis key from the filter set.
func searchCacheKey(filters models.SearchFilters) string {
	payload, _ := json.Marshal(filters)
	sum := sha256.Sum256(payload)
	return "search:" + hex.EncodeToString(sum[:8])
}
