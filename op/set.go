package op

import (
	"fmt"

	"github.com/nickyhof/relq/core"
)

// Union returns the rows found in r or s.
func Union(r, s *core.Relation) (*core.Relation, error) {
	if err := checkSchema("union", r, s); err != nil {
		return nil, err
	}

	columns := make([]core.Column, len(r.Columns))
	for i := range columns {
		columns[i] = core.Column{
			Name: r.Columns[i].Name,
			Type: core.WidenType(r.Columns[i].Type, s.Columns[i].Type),
		}
	}

	rows := make([]core.Row, 0, len(r.Rows)+len(s.Rows))
	for _, row := range r.Rows {
		rows = append(rows, widenRow(row, columns))
	}
	for _, row := range s.Rows {
		rows = append(rows, widenRow(row, columns))
	}
	return core.NewRelation(setName("union", r, s), columns, rows), nil
}

// Intersect returns the rows of r also found in s.
func Intersect(r, s *core.Relation) (*core.Relation, error) {
	if err := checkSchema("intersect", r, s); err != nil {
		return nil, err
	}
	keys := s.Keys()
	return filterRows(setName("intersect", r, s), r, func(row core.Row) bool {
		_, ok := keys[row.Key()]
		return ok
	}), nil
}

// Difference returns the rows of r not found in s.
func Difference(r, s *core.Relation) (*core.Relation, error) {
	if err := checkSchema("difference", r, s); err != nil {
		return nil, err
	}
	keys := s.Keys()
	return filterRows(setName("difference", r, s), r, func(row core.Row) bool {
		_, ok := keys[row.Key()]
		return !ok
	}), nil
}

func checkSchema(operation string, r, s *core.Relation) error {
	left, right := r.ColumnNames(), s.ColumnNames()
	mismatch := len(left) != len(right)
	for i := 0; !mismatch && i < len(left); i++ {
		mismatch = left[i] != right[i]
	}
	if mismatch {
		return &core.SchemaMismatchError{Operation: operation, Left: left, Right: right}
	}
	return nil
}

func filterRows(name string, r *core.Relation, keep func(core.Row) bool) *core.Relation {
	var rows []core.Row
	for row := range Wrap(r).Scan() {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return core.NewRelation(name, copyColumns(r.Columns), rows)
}

// widenRow converts each value to the type of its result column: ints
// become floats in a float column and numbers become text in a text column.
// Rows that need no change are returned as is.
func widenRow(row core.Row, columns []core.Column) core.Row {
	var out core.Row
	for i, v := range row {
		if v.Type == columns[i].Type {
			continue
		}
		if out == nil {
			out = make(core.Row, len(row))
			copy(out, row)
		}
		out[i] = v.Widen(columns[i].Type)
	}
	if out == nil {
		return row
	}
	return out
}

func setName(operation string, r, s *core.Relation) string {
	return fmt.Sprintf("%s(%s, %s)", operation, r.Name, s.Name)
}
