package op

import (
	"errors"
	"fmt"
	"iter"

	"github.com/nickyhof/relq/core"
)

var (
	ErrNoColumns       = errors.New("no columns requested")
	ErrDuplicateColumn = errors.New("column requested more than once")
)

type RelationOp struct {
	Relation *core.Relation
}

func Wrap(relation *core.Relation) *RelationOp {
	return &RelationOp{Relation: relation}
}

func (op *RelationOp) Count() int {
	return op.Relation.Len()
}

func (op *RelationOp) Scan() iter.Seq[core.Row] {
	return func(yield func(core.Row) bool) {
		for _, row := range op.Relation.Rows {
			if !yield(row) {
				return
			}
		}
	}
}

// ScanWithFilter yields the rows accepted by filter. Scanning stops at the
// first filter error, which is then yielded with a nil row.
func (op *RelationOp) ScanWithFilter(filter func(core.Row) (bool, error)) iter.Seq2[core.Row, error] {
	return func(yield func(core.Row, error) bool) {
		for _, row := range op.Relation.Rows {
			ok, err := filter(row)
			if err != nil {
				yield(nil, err)
				return
			}
			if ok && !yield(row, nil) {
				return
			}
		}
	}
}

// Project returns the given columns, in the given order.
func (op *RelationOp) Project(columns []string) (*core.Relation, error) {
	return Project(op.Relation, columns)
}

func (op *RelationOp) Select(predicate Predicate) (*core.Relation, error) {
	return Select(op.Relation, predicate)
}

// Select returns the rows of r satisfying predicate, with r's columns.
func Select(r *core.Relation, predicate Predicate) (*core.Relation, error) {
	filter, err := predicate.Compile(r)
	if err != nil {
		return nil, err
	}

	var rows []core.Row
	for row, err := range Wrap(r).ScanWithFilter(filter) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return core.NewRelation(r.Name, copyColumns(r.Columns), rows), nil
}

// Project keeps only the named columns of r and collapses rows that became
// equal.
func Project(r *core.Relation, columns []string) (*core.Relation, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	indexes := make([]int, len(columns))
	projected := make([]core.Column, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, name := range columns {
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		seen[name] = true

		index := r.ColumnIndex(name)
		if index < 0 {
			return nil, &core.ColumnNotFoundError{Column: name, Relation: r.Name}
		}
		indexes[i] = index
		projected[i] = r.Columns[index]
	}

	rows := make([]core.Row, len(r.Rows))
	for i, row := range r.Rows {
		out := make(core.Row, len(indexes))
		for j, index := range indexes {
			out[j] = row[index]
		}
		rows[i] = out
	}
	return core.NewRelation(r.Name, projected, rows), nil
}

// Join pairs every row of r with every row of s that holds an equal value
// in column. Numeric values match numerically. The column must be numeric
// on both sides or text on both sides.
func Join(r, s *core.Relation, column string) (*core.Relation, error) {
	left := r.ColumnIndex(column)
	if left < 0 {
		return nil, &core.ColumnNotFoundError{Column: column, Relation: r.Name}
	}
	right := s.ColumnIndex(column)
	if right < 0 {
		return nil, &core.ColumnNotFoundError{Column: column, Relation: s.Name}
	}
	if leftType, rightType := r.Columns[left].Type, s.Columns[right].Type; leftType.Numeric() != rightType.Numeric() {
		return nil, &core.ColumnNotFoundError{
			Column:   column,
			Relation: s.Name,
			Reason:   fmt.Sprintf("type %s does not match type %s in relation %s", rightType, leftType, r.Name),
		}
	}

	columns := copyColumns(r.Columns)
	taken := make(map[string]bool, len(r.Columns)+len(s.Columns))
	for _, col := range r.Columns {
		taken[col.Name] = true
	}
	for i, col := range s.Columns {
		if i == right {
			continue
		}
		name := col.Name
		for taken[name] {
			name += "_y"
		}
		taken[name] = true
		columns = append(columns, core.Column{Name: name, Type: col.Type})
	}

	// hash the right side on the join value
	index := make(map[string][]core.Row, len(s.Rows))
	for _, row := range s.Rows {
		key := core.Row{row[right]}.Key()
		index[key] = append(index[key], row)
	}

	var rows []core.Row
	for _, row := range r.Rows {
		for _, match := range index[core.Row{row[left]}.Key()] {
			joined := make(core.Row, 0, len(columns))
			joined = append(joined, row...)
			joined = append(joined, match[:right]...)
			joined = append(joined, match[right+1:]...)
			rows = append(rows, joined)
		}
	}

	name := fmt.Sprintf("join(%s, %s)", r.Name, s.Name)
	return core.NewRelation(name, columns, rows), nil
}

func copyColumns(columns []core.Column) []core.Column {
	out := make([]core.Column, len(columns))
	copy(out, columns)
	return out
}
