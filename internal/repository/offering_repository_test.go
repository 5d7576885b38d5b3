package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/oferta-api/internal/search"
)

func newOfferingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func offeringRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "carrera", "institucion", "modalidad", "nivel_programa", "clasificacion",
		"duracion_semestres", "valor_semestre", "jornada", "enlace_oficial", "created_at", "updated_at",
	}).AddRow("o1", "Medicina", "Universidad Nacional", "Presencial", "Pregrado", "Salud",
		12, 8500000.0, nil, nil, now, now)
}

func TestOfferingRepositorySearchNoPredicate(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, carrera, institucion, modalidad, nivel_programa, clasificacion, duracion_semestres, valor_semestre, jornada, enlace_oficial, created_at, updated_at FROM ofertas_academicas ORDER BY carrera ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(offeringRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ofertas_academicas")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	offerings, total, err := repo.Search(context.Background(), nil, search.Sort{Column: search.ColumnName, Ascending: true}, 0, 20)
	require.NoError(t, err)
	assert.Len(t, offerings, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Medicina", offerings[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositorySearchWithPredicate(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	pred := search.And{
		search.Or{
			search.Contains{Column: search.ColumnName, Value: "medicina"},
			search.Contains{Column: search.ColumnInstitution, Value: "medicina"},
			search.Contains{Column: search.ColumnArea, Value: "medicina"},
		},
		search.Equals{Column: search.ColumnModality, Value: "Virtual"},
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ((carrera ILIKE $1 OR institucion ILIKE $2 OR clasificacion ILIKE $3) AND modalidad = $4) ORDER BY valor_semestre DESC LIMIT 10 OFFSET 10")).
		WithArgs("%medicina%", "%medicina%", "%medicina%", "Virtual").
		WillReturnRows(offeringRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ofertas_academicas WHERE ((carrera ILIKE $1 OR institucion ILIKE $2 OR clasificacion ILIKE $3) AND modalidad = $4)")).
		WithArgs("%medicina%", "%medicina%", "%medicina%", "Virtual").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	offerings, total, err := repo.Search(context.Background(), pred, search.Sort{Column: search.ColumnTuition, Ascending: false}, 10, 10)
	require.NoError(t, err)
	assert.Len(t, offerings, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositorySearchQueryError(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectQuery("SELECT id, carrera").WillReturnError(errors.New("connection refused"))

	_, _, err := repo.Search(context.Background(), nil, search.Sort{Column: search.ColumnName, Ascending: true}, 0, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestOfferingRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ofertas_academicas WHERE id = $1")).
		WithArgs("o1").
		WillReturnRows(offeringRows())

	offering, err := repo.FindByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "Universidad Nacional", offering.Institution)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ofertas_academicas WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryFacetRows(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	rows := sqlmock.NewRows([]string{"modalidad", "institucion", "clasificacion", "nivel_programa"}).
		AddRow("Presencial", "Universidad Nacional", "Salud", "Pregrado").
		AddRow("Virtual", "Uniandes", "Ingeniería", "Posgrado")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT modalidad, institucion, clasificacion, nivel_programa FROM ofertas_academicas LIMIT 100")).
		WillReturnRows(rows)

	facets, err := repo.FacetRows(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, facets, 2)
	assert.Equal(t, "Uniandes", facets[1].Institution)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
}
