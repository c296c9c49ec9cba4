package ql

import (
	"fmt"
	"math"

	"github.com/nickyhof/relq/core"
)

// operand is the result of evaluating an expression node: either a typed
// value or a boolean.
type operand struct {
	isBool bool
	b      bool
	v      core.Value
}

type evalFunc func(row core.Row) (operand, error)

// Compile binds the condition's column references to the columns of
// relation and returns a row filter. Column names are resolved once here;
// a reference to a missing column fails with *core.ColumnNotFoundError.
func (c *Condition) Compile(relation *core.Relation) (func(core.Row) (bool, error), error) {
	eval, err := c.compile(c.Root, relation)
	if err != nil {
		return nil, err
	}
	return func(row core.Row) (bool, error) {
		result, err := eval(row)
		if err != nil {
			return false, err
		}
		if !result.isBool {
			return false, c.fail("condition does not evaluate to a boolean")
		}
		return result.b, nil
	}, nil
}

func (c *Condition) fail(format string, args ...any) error {
	return &core.ConditionError{Condition: c.Source, Reason: fmt.Sprintf(format, args...)}
}

func (c *Condition) compile(expr Expr, relation *core.Relation) (evalFunc, error) {
	switch e := expr.(type) {
	case ColumnRef:
		index := relation.ColumnIndex(e.Name)
		if index < 0 {
			return nil, &core.ColumnNotFoundError{Column: e.Name, Relation: relation.Name}
		}
		return func(row core.Row) (operand, error) {
			return operand{v: row[index]}, nil
		}, nil

	case Literal:
		value := e.Value
		return func(core.Row) (operand, error) {
			return operand{v: value}, nil
		}, nil

	case BoolLiteral:
		value := e.Value
		return func(core.Row) (operand, error) {
			return operand{isBool: true, b: value}, nil
		}, nil

	case UnaryExpr:
		inner, err := c.compile(e.Operand, relation)
		if err != nil {
			return nil, err
		}
		if e.Op == Not {
			return func(row core.Row) (operand, error) {
				result, err := inner(row)
				if err != nil {
					return operand{}, err
				}
				if !result.isBool {
					return operand{}, c.fail("'not' applied to a non-boolean value")
				}
				return operand{isBool: true, b: !result.b}, nil
			}, nil
		}
		return func(row core.Row) (operand, error) {
			result, err := inner(row)
			if err != nil {
				return operand{}, err
			}
			switch {
			case result.isBool || !result.v.Numeric():
				return operand{}, c.fail("cannot negate non-numeric value")
			case result.v.Type == core.IntType:
				return operand{v: core.IntValue(-result.v.Int)}, nil
			default:
				return operand{v: core.FloatValue(-result.v.Float)}, nil
			}
		}, nil

	case BinaryExpr:
		left, err := c.compile(e.Left, relation)
		if err != nil {
			return nil, err
		}
		right, err := c.compile(e.Right, relation)
		if err != nil {
			return nil, err
		}
		switch {
		case e.Op == And || e.Op == Or:
			return c.logical(e.Op, left, right), nil
		case isComparison(e.Op):
			return c.comparison(e.Op, left, right), nil
		default:
			return c.arithmetic(e.Op, left, right), nil
		}

	case InExpr:
		target, err := c.compile(e.Operand, relation)
		if err != nil {
			return nil, err
		}
		items := make([]evalFunc, len(e.List))
		for i, item := range e.List {
			if items[i], err = c.compile(item, relation); err != nil {
				return nil, err
			}
		}
		negated := e.Negated
		return func(row core.Row) (operand, error) {
			value, err := target(row)
			if err != nil {
				return operand{}, err
			}
			found := false
			for _, item := range items {
				candidate, err := item(row)
				if err != nil {
					return operand{}, err
				}
				if equalOperands(value, candidate) {
					found = true
					break
				}
			}
			return operand{isBool: true, b: found != negated}, nil
		}, nil
	}

	return nil, fmt.Errorf("unsupported expression %T", expr)
}

func equalOperands(a, b operand) bool {
	if a.isBool || b.isBool {
		return a.isBool && b.isBool && a.b == b.b
	}
	return a.v.Equal(b.v)
}

func (c *Condition) logical(op TokenType, left, right evalFunc) evalFunc {
	return func(row core.Row) (operand, error) {
		l, err := left(row)
		if err != nil {
			return operand{}, err
		}
		if !l.isBool {
			return operand{}, c.fail("'%s' applied to a non-boolean value", operatorSymbol(op))
		}
		// short-circuit
		if op == And && !l.b {
			return operand{isBool: true, b: false}, nil
		}
		if op == Or && l.b {
			return operand{isBool: true, b: true}, nil
		}
		r, err := right(row)
		if err != nil {
			return operand{}, err
		}
		if !r.isBool {
			return operand{}, c.fail("'%s' applied to a non-boolean value", operatorSymbol(op))
		}
		return operand{isBool: true, b: r.b}, nil
	}
}

func (c *Condition) comparison(op TokenType, left, right evalFunc) evalFunc {
	return func(row core.Row) (operand, error) {
		l, err := left(row)
		if err != nil {
			return operand{}, err
		}
		r, err := right(row)
		if err != nil {
			return operand{}, err
		}

		if l.isBool || r.isBool {
			if !(l.isBool && r.isBool) {
				return operand{}, c.fail("cannot compare a boolean with a value")
			}
			switch op {
			case Equals:
				return operand{isBool: true, b: l.b == r.b}, nil
			case NotEquals:
				return operand{isBool: true, b: l.b != r.b}, nil
			}
			return operand{}, c.fail("booleans cannot be ordered")
		}

		cmp, ok := l.v.Compare(r.v)
		if !ok {
			// numeric and text values are never equal
			switch op {
			case Equals:
				return operand{isBool: true, b: false}, nil
			case NotEquals:
				return operand{isBool: true, b: true}, nil
			}
			return operand{}, c.fail("cannot order %s value %q against %s value %q",
				l.v.Type, l.v.String(), r.v.Type, r.v.String())
		}

		var result bool
		switch op {
		case Equals:
			result = cmp == 0
		case NotEquals:
			result = cmp != 0
		case LessThan:
			result = cmp < 0
		case GreaterThan:
			result = cmp > 0
		case LessThanOrEqual:
			result = cmp <= 0
		case GreaterThanOrEqual:
			result = cmp >= 0
		}
		return operand{isBool: true, b: result}, nil
	}
}

func (c *Condition) arithmetic(op TokenType, left, right evalFunc) evalFunc {
	symbol := operatorSymbol(op)
	return func(row core.Row) (operand, error) {
		l, err := left(row)
		if err != nil {
			return operand{}, err
		}
		r, err := right(row)
		if err != nil {
			return operand{}, err
		}
		if l.isBool || r.isBool {
			return operand{}, c.fail("'%s' applied to a boolean", symbol)
		}

		if l.v.Type == core.TextType || r.v.Type == core.TextType {
			if op == Plus && l.v.Type == core.TextType && r.v.Type == core.TextType {
				return operand{v: core.TextValue(l.v.Text + r.v.Text)}, nil
			}
			return operand{}, c.fail("'%s' requires numeric operands", symbol)
		}

		if l.v.Type == core.IntType && r.v.Type == core.IntType && op != Slash {
			a, b := l.v.Int, r.v.Int
			switch op {
			case Plus:
				return operand{v: core.IntValue(a + b)}, nil
			case Minus:
				return operand{v: core.IntValue(a - b)}, nil
			case Star:
				return operand{v: core.IntValue(a * b)}, nil
			case Percent:
				if b == 0 {
					return operand{}, c.fail("modulo by zero")
				}
				// floored modulo, so the result takes the sign of the divisor
				m := a % b
				if m != 0 && (m < 0) != (b < 0) {
					m += b
				}
				return operand{v: core.IntValue(m)}, nil
			}
		}

		a, b := l.v.AsFloat(), r.v.AsFloat()
		var result float64
		switch op {
		case Plus:
			result = a + b
		case Minus:
			result = a - b
		case Star:
			result = a * b
		case Slash:
			if b == 0 {
				return operand{}, c.fail("division by zero")
			}
			result = a / b
		case Percent:
			if b == 0 {
				return operand{}, c.fail("modulo by zero")
			}
			result = a - b*math.Floor(a/b)
		default:
			return operand{}, c.fail("unsupported operator '%s'", symbol)
		}
		return operand{v: core.FloatValue(result)}, nil
	}
}
