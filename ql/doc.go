// Package ql parses the relq text formats: relation definitions, query lines
// and selection conditions.
//
// # Relation Definitions
//
// One relation per line:
//
//	Emp(id, name, age) = {1, Alice, 30; 2, Bob, 25}
//
// ParseRelation turns a line into a *core.Relation, inferring a type for
// each column. Malformed lines fail with *core.ParseError.
//
// # Queries
//
//	query, err := ql.Parse("select age > 27(Emp)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Parse returns one of SelectQuery, ProjectQuery, JoinQuery, UnionQuery,
// IntersectQuery or DifferenceQuery. The recognised shapes are:
//   - select <condition>(<relation>)
//   - project <col1>, <col2>, ...(<relation>)
//   - join <relation>, <relation> on <column>
//   - union <relation>, <relation>
//   - intersect <relation>, <relation>
//   - difference <relation>, <relation>
//
// # Conditions
//
// Conditions use a conventional expression syntax: comparisons (== = !=
// <> < <= > >=), arithmetic (+ - * / %), membership (in, not in), the
// connectives and/or/not (also & | ~), parentheses, numbers, quoted text and
// true/false. Column names are bare identifiers or back-quoted.
package ql
