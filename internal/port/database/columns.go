package database

import (
	"reflect"
	"strings"
	"sync"
)

var columnCache sync.Map // reflect.Type -> []Column

// Column maps a struct field to its column name.
type Column struct {
	Name  string
	Index []int
}

// Columns returns the db-tagged columns of struct type T in field order.
// Fields tagged `db:"-"` or without a db tag are skipped.
func Columns[T any]() []Column {
	var zero T
	return ColumnsOf(reflect.TypeOf(zero))
}

// ColumnsOf is the reflect.Type form of Columns.
func ColumnsOf(t reflect.Type) []Column {
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]Column)
	}
	var cols []Column
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("db"), ",")
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, Column{Name: name, Index: f.Index})
	}
	columnCache.Store(t, cols)
	return cols
}

// ColumnNames returns just the names from Columns[T].
func ColumnNames[T any]() []string {
	cols := Columns[T]()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
