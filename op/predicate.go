package op

import "github.com/nickyhof/relq/core"

// Predicate is a selection condition. Compile binds it to the columns of a
// relation and returns the per-row test. *ql.Condition implements it.
type Predicate interface {
	Compile(relation *core.Relation) (func(core.Row) (bool, error), error)
}

// RowFunc adapts a plain row test, written against known column positions,
// to a Predicate.
type RowFunc func(row core.Row) bool

func (f RowFunc) Compile(*core.Relation) (func(core.Row) (bool, error), error) {
	return func(row core.Row) (bool, error) {
		return f(row), nil
	}, nil
}
