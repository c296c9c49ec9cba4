package core

import "strings"

// Row is one tuple of a relation. Its length equals the column count of the
// relation holding it.
type Row []Value

// Key returns a canonical encoding of the row. Two rows share a key exactly
// when they are equal value by value.
func (row Row) Key() string {
	var sb strings.Builder
	for i, v := range row {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(v.key())
	}
	return sb.String()
}

func (row Row) Equal(other Row) bool {
	if len(row) != len(other) {
		return false
	}
	for i := range row {
		if !row[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (row Row) Strings() []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.String()
	}
	return out
}

// Relation is a named set of rows over an ordered list of typed columns.
// Relations are never modified after construction.
type Relation struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// NewRelation builds a relation, collapsing duplicate rows. The first
// occurrence of each row is kept, so the input order is preserved. Callers
// are responsible for every row having len(columns) values.
func NewRelation(name string, columns []Column, rows []Row) *Relation {
	seen := make(map[string]struct{}, len(rows))
	distinct := make([]Row, 0, len(rows))
	for _, row := range rows {
		key := row.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, row)
	}
	return &Relation{
		Name:    name,
		Columns: columns,
		Rows:    distinct,
	}
}

func (r *Relation) Len() int {
	return len(r.Rows)
}

func (r *Relation) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (r *Relation) ColumnIndex(name string) int {
	for i, col := range r.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Keys returns the set of row keys of the relation.
func (r *Relation) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(r.Rows))
	for _, row := range r.Rows {
		keys[row.Key()] = struct{}{}
	}
	return keys
}

// Equal reports whether both relations have the same column names in the
// same order and the same set of rows.
func (r *Relation) Equal(other *Relation) bool {
	if len(r.Columns) != len(other.Columns) || len(r.Rows) != len(other.Rows) {
		return false
	}
	for i := range r.Columns {
		if r.Columns[i].Name != other.Columns[i].Name {
			return false
		}
	}
	keys := other.Keys()
	for _, row := range r.Rows {
		if _, ok := keys[row.Key()]; !ok {
			return false
		}
	}
	return true
}

// Data renders every row as strings, in row order.
func (r *Relation) Data() [][]string {
	data := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		data[i] = row.Strings()
	}
	return data
}
