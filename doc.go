// Package relq provides an in-memory relational algebra query engine.
//
// Relations are defined one per line in a compact notation, collected into
// an immutable catalog and queried with six set-semantics operators.
//
// # Quick Start
//
//	instance, _ := relq.Parse(`Emp(id, name, age) = {1, Alice, 30; 2, Bob, 25}`)
//	engine := instance.Engine()
//
//	result, _ := engine.Execute("select age > 27(Emp)")
//	result.Display(os.Stdout)
//
// # Relations
//
//	Name(col1, col2, ...) = {v1, v2, ...; v1, v2, ...}
//
// Column types are inferred once: a column whose values all parse as
// integers is int, one whose values all parse as numbers is float, any other
// column is text. Duplicate rows collapse.
//
// # Queries
//
//   - select <condition>(<relation>)
//   - project <col>, <col>, ...(<relation>)
//   - join <relation>, <relation> on <column>
//   - union <relation>, <relation>
//   - intersect <relation>, <relation>
//   - difference <relation>, <relation>
//
// Conditions use comparisons (== != < <= > >=), arithmetic, membership
// (in [..], not in [..]) and the boolean operators and, or, not.
package relq
