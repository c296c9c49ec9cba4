package core

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed relation definition.
type ParseError struct {
	Line   string
	LineNo int // 1-based; zero when the line was parsed on its own
	Err    error
}

func (e *ParseError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("error parsing relation on line %d %q: %v", e.LineNo, e.Line, e.Err)
	}
	return fmt.Sprintf("error parsing relation %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// QuerySyntaxError reports a query whose parameters do not match the shape
// expected by its operator.
type QuerySyntaxError struct {
	Query  string
	Reason string
}

func (e *QuerySyntaxError) Error() string {
	return fmt.Sprintf("syntax error in query %q: %s", e.Query, e.Reason)
}

type UnsupportedOperationError struct {
	Operator string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation not supported: %q", e.Operator)
}

type UnknownRelationError struct {
	Name string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("unknown relation: %s", e.Name)
}

// ColumnNotFoundError reports a column missing from a relation, or present
// with a type that cannot serve the operation, in which case Reason is set.
type ColumnNotFoundError struct {
	Column   string
	Relation string
	Reason   string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("column %s in relation %s is not usable: %s", e.Column, e.Relation, e.Reason)
	}
	if e.Relation == "" {
		return fmt.Sprintf("column not found: %s", e.Column)
	}
	return fmt.Sprintf("column %s not found in relation %s", e.Column, e.Relation)
}

// SchemaMismatchError is returned by set operators whose operands do not
// share the same column list.
type SchemaMismatchError struct {
	Operation string
	Left      []string
	Right     []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s requires identical columns: (%s) vs (%s)",
		e.Operation, strings.Join(e.Left, ", "), strings.Join(e.Right, ", "))
}

// ConditionError reports a selection condition that cannot be evaluated,
// such as ordering text against a number.
type ConditionError struct {
	Condition string
	Reason    string
}

func (e *ConditionError) Error() string {
	if e.Condition == "" {
		return "invalid condition: " + e.Reason
	}
	return fmt.Sprintf("invalid condition %q: %s", e.Condition, e.Reason)
}
