package dbmodel

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const timeLayout = "2006-01-02 15:04:05.999999999"

type sqlTransaction struct {
	Tx *sqlx.Tx
}

func (st *sqlTransaction) Rollback(_ context.Context) error {
	return st.Tx.Rollback()
}

func (st *sqlTransaction) Commit(_ context.Context) error {
	return st.Tx.Commit()
}

type statement struct {
	query string
	args  []any
}

func (s statement) String() string {
	if len(s.args) == 0 {
		return s.query
	}
	return fmt.Sprintf("%s %v", s.query, s.args)
}

// sqlBuilder writes statement text. Values become quoted literals, or bind
// arguments when bindVars is set.
type sqlBuilder struct {
	sb       strings.Builder
	args     []any
	bindVars bool
}

func (b *sqlBuilder) write(parts ...string) *sqlBuilder {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
	return b
}

func (b *sqlBuilder) value(v any) error {
	v, err := resolveValue(v)
	if err != nil {
		return err
	}

	switch {
	case v == nil:
		b.sb.WriteString("NULL")
	case b.bindVars:
		b.sb.WriteString("?")
		b.args = append(b.args, v)
	default:
		b.sb.WriteString(quoteLiteral(textOf(v)))
	}
	return nil
}

// equals writes name=value, or name IS NULL for a nil value.
func (b *sqlBuilder) equals(name string, v any) error {
	v, err := resolveValue(v)
	if err != nil {
		return err
	}
	if v == nil {
		b.write(name, " IS NULL")
		return nil
	}
	b.write(name, "=")
	return b.value(v)
}

func (b *sqlBuilder) statement() statement {
	return statement{query: b.sb.String(), args: b.args}
}

// resolveValue unwraps driver.Valuer values and nil pointers.
func resolveValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if valuer, ok := v.(driver.Valuer); ok {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, nil
		}
		val, err := valuer.Value()
		if err != nil {
			return nil, fmt.Errorf("get value from %T: %w", v, err)
		}
		return val, nil
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		return resolveValue(rv.Elem().Interface())
	}

	return v, nil
}

func textOf(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(timeLayout)
	default:
		return fmt.Sprint(val)
	}
}

// quoteLiteral single-quotes s, doubling embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func parenthesize(fragments []string) []string {
	return Map(Filter(fragments, func(f string) bool {
		return strings.TrimSpace(f) != ""
	}), func(f string) string {
		return "(" + strings.TrimSpace(f) + ")"
	})
}
