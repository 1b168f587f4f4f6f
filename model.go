package dbmodel

import (
	"fmt"
	"strings"
)

// Attr maps one column to a record field.
type Attr[T any] struct {
	Name string
	Get  func(rec *T) any
	Set  func(rec *T, value any) error
}

// Field builds an Attr from a pointer to the record field. Column values are
// converted with Assign unless they already have the field's type.
func Field[T any, V any](name string, field func(rec *T) *V) Attr[T] {
	return Attr[T]{
		Name: name,
		Get: func(rec *T) any {
			return *field(rec)
		},
		Set: func(rec *T, value any) error {
			dst := field(rec)
			if v, ok := value.(V); ok {
				*dst = v
				return nil
			}
			return Assign(dst, value)
		},
	}
}

func Attribute[T any](name string, get func(rec *T) any, set func(rec *T, value any) error) Attr[T] {
	return Attr[T]{Name: name, Get: get, Set: set}
}

type level[T any] struct {
	def   TableDef
	attrs []Attr[T]
}

func (l level[T]) attr(name string) (Attr[T], bool) {
	for _, a := range l.attrs {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Attr[T]{}, false
}

// Model is a registered record type: the chain of tables from the root base
// type down to T, each with its own attributes and primary key.
type Model[T any] struct {
	levels []level[T]
}

// Define registers a record type without a base type. def.Columns is filled
// from attrs.
func Define[T any](def TableDef, attrs ...Attr[T]) (*Model[T], error) {
	lvl, err := newLevel(def, attrs)
	if err != nil {
		return nil, err
	}
	return &Model[T]{levels: []level[T]{lvl}}, nil
}

// Extend registers T as a child of parent. embed returns the parent part of a
// T; every parent attribute is read and written through it. The child key must
// have as many attributes as the parent key, the first one being the join key.
func Extend[T any, P any](parent *Model[P], embed func(rec *T) *P, def TableDef, attrs ...Attr[T]) (*Model[T], error) {
	if parent == nil || embed == nil {
		return nil, fmt.Errorf("%w: %s: parent model and embed func are required", ErrInvalidModel, def.Name)
	}

	lvl, err := newLevel(def, attrs)
	if err != nil {
		return nil, err
	}

	parentDef := parent.leaf().def
	if len(parentDef.PrimaryField) != len(def.PrimaryField) {
		return nil, fmt.Errorf("%w: %s key %v is not aligned with %s key %v",
			ErrInvalidModel, def.Name, def.PrimaryField, parentDef.Name, parentDef.PrimaryField)
	}

	levels := make([]level[T], 0, len(parent.levels)+1)
	for _, pl := range parent.levels {
		if strings.EqualFold(pl.def.Name, def.Name) {
			return nil, fmt.Errorf("%w: table %s appears twice in the chain", ErrInvalidModel, def.Name)
		}
		levels = append(levels, level[T]{
			def: pl.def,
			attrs: Map(pl.attrs, func(a Attr[P]) Attr[T] {
				return liftAttr(a, embed)
			}),
		})
	}
	levels = append(levels, lvl)

	return &Model[T]{levels: levels}, nil
}

func liftAttr[T any, P any](a Attr[P], embed func(rec *T) *P) Attr[T] {
	return Attr[T]{
		Name: a.Name,
		Get: func(rec *T) any {
			return a.Get(embed(rec))
		},
		Set: func(rec *T, value any) error {
			return a.Set(embed(rec), value)
		},
	}
}

func newLevel[T any](def TableDef, attrs []Attr[T]) (level[T], error) {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return level[T]{}, fmt.Errorf("%w: table name is empty", ErrInvalidModel)
	}
	if len(attrs) == 0 {
		return level[T]{}, fmt.Errorf("%w: %s has no attributes", ErrInvalidModel, def.Name)
	}

	def.Columns = nil
	for _, a := range attrs {
		if a.Name == "" || a.Get == nil || a.Set == nil {
			return level[T]{}, fmt.Errorf("%w: %s has an incomplete attribute %q", ErrInvalidModel, def.Name, a.Name)
		}
		if def.hasColumn(a.Name) {
			return level[T]{}, fmt.Errorf("%w: %s declares %s twice", ErrInvalidModel, def.Name, a.Name)
		}
		def.Columns = append(def.Columns, a.Name)
	}

	if len(def.PrimaryField) == 0 {
		return level[T]{}, fmt.Errorf("%w: %s has no primary key", ErrInvalidModel, def.Name)
	}
	for _, k := range def.PrimaryField {
		if !def.hasColumn(k) {
			return level[T]{}, fmt.Errorf("%w: %s key %s is not an attribute", ErrInvalidModel, def.Name, k)
		}
	}
	def.PrimaryField = append([]string(nil), def.PrimaryField...)

	return level[T]{def: def, attrs: attrs}, nil
}

func (m *Model[T]) root() level[T] {
	return m.levels[0]
}

func (m *Model[T]) leaf() level[T] {
	return m.levels[len(m.levels)-1]
}

// Name is the table of the most derived type.
func (m *Model[T]) Name() string {
	return m.leaf().def.Name
}

// Tables returns the chain, root first.
func (m *Model[T]) Tables() []TableDef {
	return Map(m.levels, func(l level[T]) TableDef {
		return l.def
	})
}

func (m *Model[T]) New() *T {
	return new(T)
}

// KeyString renders the first primary key value of rec.
func (m *Model[T]) KeyString(rec *T) string {
	l := m.leaf()
	a, _ := l.attr(l.def.KeyField())
	v, err := resolveValue(a.Get(rec))
	if err != nil || v == nil {
		return ""
	}
	return textOf(v)
}

// Describe renders every attribute of rec on one line, root level first.
func (m *Model[T]) Describe(rec *T) string {
	var sb strings.Builder
	sb.WriteString(m.Name())
	sb.WriteString(":")
	for _, l := range m.levels {
		for _, a := range l.attrs {
			v, err := resolveValue(a.Get(rec))
			if err != nil || v == nil {
				fmt.Fprintf(&sb, " %s=null,", a.Name)
				continue
			}
			fmt.Fprintf(&sb, " %s='%s',", a.Name, strings.TrimSpace(textOf(v)))
		}
	}
	return strings.TrimSuffix(sb.String(), ",")
}
