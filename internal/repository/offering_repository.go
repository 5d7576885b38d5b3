package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/eduportal/oferta-api/internal/models"
	"github.com/eduportal/oferta-api/internal/search"
)

const offeringsTable = "ofertas_academicas"

var offeringColumns = []string{
	"id",
	"carrera",
	"institucion",
	"modalidad",
	"nivel_programa",
	"clasificacion",
	"duracion_semestres",
	"valor_semestre",
	"jornada",
	"enlace_oficial",
	"created_at",
	"updated_at",
}

var facetColumns = []string{"modalidad", "institucion", "clasificacion", "nivel_programa"}

// OfferingRepository reads the academic catalog from PostgreSQL. It is the
// data-source collaborator of the search engine: it interprets predicate
// trees into SQL and serves row pages with exact counts.
type OfferingRepository struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
}

// NewOfferingRepository creates a new repository instance.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Search returns the requested row range ordered by the resolved sort,
// together with the exact total count under the same predicate.
func (r *OfferingRepository) Search(ctx context.Context, pred search.Predicate, sort search.Sort, offset, limit int) ([]models.Offering, int, error) {
	query := r.builder.
		Select(offeringColumns...).
		From(offeringsTable).
		OrderBy(orderClause(sort)).
		Offset(uint64(offset)).
		Limit(uint64(limit))

	count := r.builder.Select("COUNT(*)").From(offeringsTable)

	if pred != nil {
		where := toSqlizer(pred)
		query = query.Where(where)
		count = count.Where(where)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build search query: %w", err)
	}

	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("search offerings: %w", err)
	}

	sql, args, err = count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}

	return offerings, total, nil
}

// FindByID returns a single offering by id.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	sql, args, err := r.builder.
		Select(offeringColumns...).
		From(offeringsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lookup query: %w", err)
	}

	var offering models.Offering
	if err := r.db.GetContext(ctx, &offering, sql, args...); err != nil {
		return nil, err
	}
	return &offering, nil
}

// FacetRows fetches the raw facet columns of up to limit catalog rows for
// facet extraction.
func (r *OfferingRepository) FacetRows(ctx context.Context, limit int) ([]models.FacetRow, error) {
	sql, args, err := r.builder.
		Select(facetColumns...).
		From(offeringsTable).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build facet query: %w", err)
	}

	var rows []models.FacetRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("fetch facet rows: %w", err)
	}
	return rows, nil
}

// toSqlizer interprets a predicate tree into a squirrel condition. Contains
// maps to ILIKE with the value escaped so user input never injects
// wildcards.
func toSqlizer(pred search.Predicate) sq.Sqlizer {
	switch p := pred.(type) {
	case search.Equals:
		return sq.Eq{p.Column: p.Value}
	case search.Contains:
		return sq.ILike{p.Column: "%" + escapeLike(p.Value) + "%"}
	case search.And:
		conj := make(sq.And, 0, len(p))
		for _, child := range p {
			conj = append(conj, toSqlizer(child))
		}
		return conj
	case search.Or:
		disj := make(sq.Or, 0, len(p))
		for _, child := range p {
			disj = append(disj, toSqlizer(child))
		}
		return disj
	default:
		// Unreachable as long as the predicate variants stay closed.
		return sq.And{}
	}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func orderClause(sort search.Sort) string {
	direction := "ASC"
	if !sort.Ascending {
		direction = "DESC"
	}
	return sort.Column + " " + direction
}
