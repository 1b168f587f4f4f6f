package dbmodel

import (
	"reflect"
	"strings"

	"github.com/untillpro/goutils/logger"
)

// HydrateNoRow is what HydrateRow returns for a nil row.
const HydrateNoRow = -1

// RowScanner is a cursor positioned on a row. *sql.Rows and *sqlx.Rows
// satisfy it.
type RowScanner interface {
	Columns() ([]string, error)
	Scan(dest ...any) error
}

// HydrateRow assigns every attribute of the chain from the column with the
// same name, compared case-insensitively; the first column of a name wins.
// It returns the share of attributes that found a column. Absent columns are
// logged and skipped.
func (r *repository[T]) HydrateRow(row RowScanner, rec *T) (float64, error) {
	if isNilRow(row) {
		return HydrateNoRow, nil
	}

	cols, err := row.Columns()
	if err != nil {
		return 0, &HydrationError{Err: err}
	}

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		return 0, &HydrationError{Err: err}
	}

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		key := strings.ToLower(c)
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	matched, total := 0, 0
	for _, l := range r.model.levels {
		for _, a := range l.attrs {
			total++
			col := r.identifier(a.Name)
			i, ok := index[strings.ToLower(col)]
			if !ok {
				logger.Warning("hydrate", r.model.Name()+":", "column", col, "was not found in the row")
				continue
			}
			if err := a.Set(rec, values[i]); err != nil {
				return 0, &HydrationError{Attribute: a.Name, Err: err}
			}
			matched++
		}
	}

	return float64(matched) / float64(total), nil
}

func isNilRow(row RowScanner) bool {
	if row == nil {
		return true
	}
	rv := reflect.ValueOf(row)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
