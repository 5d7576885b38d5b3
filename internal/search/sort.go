package search

// Sort describes the resolved ordering for a search query.
type Sort struct {
	Column    string
	Ascending bool
}

// sortColumns maps the public sortBy keys onto storage columns.
var sortColumns = map[string]string{
	"nombre":      ColumnName,
	"carrera":     ColumnName,
	"institucion": ColumnInstitution,
	"modalidad":   ColumnModality,
	"duracion":    ColumnDuration,
	"precio":      ColumnTuition,
	"nivel":       ColumnLevel,
}

// ResolveSort maps a public sort key and order onto a storage column and
// direction. Unknown keys fall back to program name ascending and never
// error. Only the exact string "desc" produces a descending order.
func ResolveSort(key, order string) Sort {
	column, ok := sortColumns[key]
	if !ok {
		column = ColumnName
	}
	return Sort{Column: column, Ascending: order != "desc"}
}
