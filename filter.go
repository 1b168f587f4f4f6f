package dbmodel

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

type FilterNull interface {
	IsNull() bool
}

type filterNull bool

func (fn filterNull) IsNull() bool {
	return bool(fn)
}

func FilterNullFrom(isNull bool) FilterNull {
	return filterNull(isNull)
}

type FilterStringContains interface {
	Contains() string
}

type filterStringContains string

func (fs filterStringContains) Contains() string {
	return fmt.Sprintf("%%%s%%", fs)
}

func FilterStringContainsFrom(str string) FilterStringContains {
	return filterStringContains(str)
}

// parseFilterMapIntoWhereClause turns attribute/value pairs into bound
// predicates. Slices become IN lists, FilterNull an IS [NOT] NULL test and
// FilterStringContains a LIKE match. Columns are qualified with the most
// derived table that declares them.
func (r *repository[T]) parseFilterMapIntoWhereClause(filterMap map[string]any) (string, []any, error) {
	keys := make([]string, 0, len(filterMap))
	for k := range filterMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var preds []string
	var args []any
	for _, k := range keys {
		col, ok := r.qualifiedColumn(k)
		if !ok {
			return "", nil, fmt.Errorf("filter: %s has no attribute %q", r.model.Name(), k)
		}

		val := filterMap[k]
		if fnull, ok := val.(FilterNull); ok {
			isNot := ""
			if !fnull.IsNull() {
				isNot = "NOT "
			}
			preds = append(preds, fmt.Sprintf("%s IS %sNULL", col, isNot))
			continue
		}

		if fcontain, ok := val.(FilterStringContains); ok {
			preds = append(preds, col+" LIKE ?")
			args = append(args, fcontain.Contains())
			continue
		}

		vval := reflect.ValueOf(val)
		if val == nil || vval.Kind() != reflect.Slice || vval.Type().Elem().Kind() == reflect.Uint8 {
			if val == nil {
				preds = append(preds, col+" IS NULL")
				continue
			}
			preds = append(preds, col+" = ?")
			args = append(args, val)
			continue
		}

		switch vval.Len() {
		case 0:
			return "", nil, fmt.Errorf("filter: cannot match %s against an empty list", k)
		case 1:
			preds = append(preds, col+" = ?")
			args = append(args, vval.Index(0).Interface())
		default:
			preds = append(preds, col+" IN (?)")
			args = append(args, val)
		}
	}

	if len(preds) == 0 {
		return "", nil, nil
	}

	return sqlx.In(strings.Join(preds, " AND "), args...)
}

func (r *repository[T]) qualifiedColumn(name string) (string, bool) {
	for i := len(r.model.levels) - 1; i >= 0; i-- {
		l := r.model.levels[i]
		if a, ok := l.attr(name); ok {
			return r.identifier(l.def.Name) + "." + r.identifier(a.Name), true
		}
	}
	return "", false
}
