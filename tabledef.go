package dbmodel

import "strings"

// TableDef describes the table behind one level of a record type.
type TableDef struct {
	Name         string
	PrimaryField []string
	Columns      []string
}

func (td TableDef) KeyField() string {
	if len(td.PrimaryField) == 0 {
		return ""
	}
	return td.PrimaryField[0]
}

func (td TableDef) hasColumn(name string) bool {
	return SliceContains(Map(td.Columns, strings.ToLower), strings.ToLower(name))
}
