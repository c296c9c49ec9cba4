// Package core provides the relation data model used throughout relq.
//
// A Relation is an ordered list of typed columns and a set of rows. Column
// types are inferred when a relation is parsed: a column is numeric (IntType
// or FloatType) when every value in it is a number, and TextType otherwise.
//
//	relation := core.NewRelation("Emp",
//	    []core.Column{
//	        {Name: "id", Type: core.IntType},
//	        {Name: "name", Type: core.TextType},
//	    },
//	    []core.Row{
//	        {core.IntValue(1), core.TextValue("Alice")},
//	        {core.IntValue(2), core.TextValue("Bob")},
//	    },
//	)
//
// # Set Semantics
//
// Rows are compared by value: numeric values compare numerically (1 equals
// 1.0), text compares exactly and a number never equals text. NewRelation
// collapses duplicate rows, so every Relation is a set.
//
// # Catalog
//
// A Catalog maps names to relations. It is built once with NewCatalog and
// is never modified afterwards:
//
//	catalog, err := core.NewCatalog(emp, dept)
//	relation, err := catalog.Lookup("Emp")
//
// # Errors
//
// The error kinds reported by the parsers and the evaluator are defined here
// so callers can inspect them with errors.As.
package core
