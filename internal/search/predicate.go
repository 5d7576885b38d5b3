package search

import (
	"strings"

	"github.com/eduportal/oferta-api/internal/models"
)

// Storage columns of the ofertas_academicas table referenced by predicates
// and ordering.
const (
	ColumnName        = "carrera"
	ColumnInstitution = "institucion"
	ColumnModality    = "modalidad"
	ColumnLevel       = "nivel_programa"
	ColumnArea        = "clasificacion"
	ColumnDuration    = "duracion_semestres"
	ColumnTuition     = "valor_semestre"
)

// Predicate is a composable filter condition. The engine builds predicates
// without knowing how the data source executes them; the repository layer
// interprets each variant into SQL.
type Predicate interface {
	isPredicate()
}

// Equals matches a column against an exact, case-sensitive value.
type Equals struct {
	Column string
	Value  string
}

// Contains matches a column against a case-insensitive substring.
type Contains struct {
	Column string
	Value  string
}

// And combines predicates so that all must hold.
type And []Predicate

// Or combines predicates so that any may hold.
type Or []Predicate

func (Equals) isPredicate()   {}
func (Contains) isPredicate() {}
func (And) isPredicate()      {}
func (Or) isPredicate()       {}

// textSearchColumns are the fields a free-text term is matched against.
var textSearchColumns = []string{ColumnName, ColumnInstitution, ColumnArea}

// BuildPredicate converts the caller's filters into a predicate tree.
// Free-text terms OR-match as substrings across name, institution and
// classification: a row qualifies when any term hits any of those fields.
// Modality and institution filter by exact equality, level and area by
// case-insensitive containment. All present conditions are ANDed. A nil
// return means "no filtering at all".
func BuildPredicate(filters models.SearchFilters) Predicate {
	var conditions And

	if terms := Normalize(filters.Query); len(terms) > 0 {
		var text Or
		for _, term := range terms {
			for _, column := range textSearchColumns {
				text = append(text, Contains{Column: column, Value: term})
			}
		}
		conditions = append(conditions, text)
	}

	if v := strings.TrimSpace(filters.Modality); v != "" {
		conditions = append(conditions, Equals{Column: ColumnModality, Value: v})
	}
	if v := strings.TrimSpace(filters.Institution); v != "" {
		conditions = append(conditions, Equals{Column: ColumnInstitution, Value: v})
	}
	if v := strings.TrimSpace(filters.Level); v != "" {
		conditions = append(conditions, Contains{Column: ColumnLevel, Value: v})
	}
	if v := strings.TrimSpace(filters.Area); v != "" {
		conditions = append(conditions, Contains{Column: ColumnArea, Value: v})
	}

	if len(conditions) == 0 {
		return nil
	}
	return conditions
}
