// Package op implements the relational algebra operators over core relations.
//
// Every operator is a pure function: its operands are never modified and
// its result is a new relation with duplicate rows removed.
//
//	emp, _ := catalog.Lookup("Emp")
//	cond, _ := ql.ParseCondition("age > 27")
//	adults, err := op.Select(emp, cond)
//	names, err := op.Project(adults, []string{"name"})
//
// # Join
//
// Join is a natural join on one column present in both operands. The result
// holds the left columns followed by the right columns without the join
// column. A right column whose name is already taken gets the suffix "_y".
//
// # Set operators
//
// Union, Intersect and Difference require both operands to have the same
// column names in the same order and fail with *core.SchemaMismatchError
// otherwise.
//
// # RelationOp
//
// RelationOp wraps a relation for scanning:
//
//	for row := range op.Wrap(emp).ScanWithFilter(filter) {
//		...
//	}
package op
