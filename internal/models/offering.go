package models

import "time"

// Offering represents one academic program row in the catalog. Rows are
// owned and mutated upstream; this service only reads them.
type Offering struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"carrera" json:"carrera"`
	Institution       string     `db:"institucion" json:"institucion"`
	Modality          string     `db:"modalidad" json:"modalidad"`
	Level             string     `db:"nivel_programa" json:"nivel_programa"`
	Area              string     `db:"clasificacion" json:"clasificacion"`
	DurationSemesters int        `db:"duracion_semestres" json:"duracion_semestres"`
	TuitionPerTerm    float64    `db:"valor_semestre" json:"valor_semestre"`
	Shift             *string    `db:"jornada" json:"jornada,omitempty"`
	OfficialLink      *string    `db:"enlace_oficial" json:"enlace_oficial,omitempty"`
	CreatedAt         *time.Time `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// SearchFilters captures caller-supplied search criteria. Every field is
// optional; zero values mean "not filtered".
type SearchFilters struct {
	Query       string `form:"q" json:"q,omitempty"`
	Modality    string `form:"modalidad" json:"modalidad,omitempty"`
	Institution string `form:"institucion" json:"institucion,omitempty"`
	Level       string `form:"nivel" json:"nivel,omitempty"`
	Area        string `form:"area" json:"area,omitempty"`
	Page        int    `form:"page" json:"page,omitempty"`
	Limit       int    `form:"limit" json:"limit,omitempty"`
	SortBy      string `form:"sortBy" json:"sortBy,omitempty"`
	SortOrder   string `form:"sortOrder" json:"sortOrder,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// SearchResult is the search envelope: the current page of offerings, the
// pagination block, and an echo of the filters exactly as the caller sent
// them (not the clamped values) so clients can reconcile UI state.
type SearchResult struct {
	Offerings  []Offering    `json:"offerings"`
	Pagination Pagination    `json:"pagination"`
	Filters    SearchFilters `json:"filters"`
}

// FilterOptions lists the distinct observed values for each filterable
// dimension, sorted case-insensitively with Spanish collation.
type FilterOptions struct {
	Modalities   []string `json:"modalidades"`
	Institutions []string `json:"instituciones"`
	Areas        []string `json:"areas"`
	Levels       []string `json:"niveles"`
}

// FacetRow carries the raw facet columns of one catalog row as fetched for
// facet extraction; empty strings are discarded downstream.
type FacetRow struct {
	Modality    string `db:"modalidad"`
	Institution string `db:"institucion"`
	Area        string `db:"clasificacion"`
	Level       string `db:"nivel_programa"`
}
