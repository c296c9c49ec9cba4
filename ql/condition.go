package ql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickyhof/relq/core"
)

// Expr is a node of a parsed selection condition.
type Expr interface {
	String() string
}

// ColumnRef names a column of the relation being filtered.
type ColumnRef struct {
	Name string
}

// Literal is a numeric or text constant.
type Literal struct {
	Value core.Value
}

type BoolLiteral struct {
	Value bool
}

// UnaryExpr is a logical negation (Not) or an arithmetic negation (Minus).
type UnaryExpr struct {
	Op      TokenType
	Operand Expr
}

// BinaryExpr covers arithmetic, comparison and the logical connectives.
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

// InExpr tests membership of Operand in a list of expressions.
type InExpr struct {
	Operand Expr
	List    []Expr
	Negated bool
}

func (e ColumnRef) String() string {
	return e.Name
}

func (e Literal) String() string {
	if e.Value.Type == core.TextType {
		return "'" + e.Value.Text + "'"
	}
	return e.Value.String()
}

func (e BoolLiteral) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

func (e UnaryExpr) String() string {
	if e.Op == Not {
		return "not " + e.Operand.String()
	}
	return "-" + e.Operand.String()
}

func (e BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + operatorSymbol(e.Op) + " " + e.Right.String() + ")"
}

func (e InExpr) String() string {
	items := make([]string, len(e.List))
	for i, item := range e.List {
		items[i] = item.String()
	}
	op := " in "
	if e.Negated {
		op = " not in "
	}
	return e.Operand.String() + op + "[" + strings.Join(items, ", ") + "]"
}

func operatorSymbol(op TokenType) string {
	switch op {
	case And:
		return "and"
	case Or:
		return "or"
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Star:
		return "*"
	case Slash:
		return "/"
	case Percent:
		return "%"
	case Equals:
		return "=="
	case NotEquals:
		return "!="
	case LessThan:
		return "<"
	case GreaterThan:
		return ">"
	case LessThanOrEqual:
		return "<="
	case GreaterThanOrEqual:
		return ">="
	default:
		return "?"
	}
}

func isComparison(op TokenType) bool {
	switch op {
	case Equals, NotEquals, LessThan, GreaterThan, LessThanOrEqual, GreaterThanOrEqual:
		return true
	}
	return false
}

// Condition is a parsed selection condition together with its source text.
type Condition struct {
	Source string
	Root   Expr
}

func (c *Condition) String() string {
	return c.Source
}

type conditionParser struct {
	lexer *Lexer
}

// ParseCondition parses a boolean expression over column names and
// literals, e.g. "age > 27 and name != 'Bob'".
func ParseCondition(source string) (*Condition, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("empty condition")
	}
	parser := &conditionParser{lexer: NewLexer(source)}
	root, err := parser.parseOr()
	if err != nil {
		return nil, err
	}
	if token := parser.lexer.NextToken(); token.Type != EOF {
		return nil, fmt.Errorf("unexpected %s after condition", token)
	}
	return &Condition{Source: strings.TrimSpace(source), Root: root}, nil
}

func (parser *conditionParser) parseOr() (Expr, error) {
	left, err := parser.parseAnd()
	if err != nil {
		return nil, err
	}
	for parser.lexer.PeekToken().Type == Or {
		parser.lexer.NextToken() // consume OR
		right, err := parser.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: Or, Left: left, Right: right}
	}
	return left, nil
}

func (parser *conditionParser) parseAnd() (Expr, error) {
	left, err := parser.parseNot()
	if err != nil {
		return nil, err
	}
	for parser.lexer.PeekToken().Type == And {
		parser.lexer.NextToken() // consume AND
		right, err := parser.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: And, Left: left, Right: right}
	}
	return left, nil
}

func (parser *conditionParser) parseNot() (Expr, error) {
	if parser.lexer.PeekToken().Type == Not {
		parser.lexer.NextToken() // consume NOT
		operand, err := parser.parseNot()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: Not, Operand: operand}, nil
	}
	return parser.parseComparison()
}

// parseComparison handles comparisons and membership tests. Chained
// comparisons such as 1 < x <= 5 mean (1 < x) and (x <= 5).
func (parser *conditionParser) parseComparison() (Expr, error) {
	left, err := parser.parseAdditive()
	if err != nil {
		return nil, err
	}

	token := parser.lexer.PeekToken()
	if token.Type == In || token.Type == Not {
		return parser.parseIn(left)
	}

	var result Expr
	for isComparison(parser.lexer.PeekToken().Type) {
		op := parser.lexer.NextToken().Type
		right, err := parser.parseAdditive()
		if err != nil {
			return nil, err
		}
		comparison := BinaryExpr{Op: op, Left: left, Right: right}
		if result == nil {
			result = comparison
		} else {
			result = BinaryExpr{Op: And, Left: result, Right: comparison}
		}
		left = right
	}
	if result == nil {
		return left, nil
	}
	return result, nil
}

func (parser *conditionParser) parseIn(operand Expr) (Expr, error) {
	negated := false
	if parser.lexer.PeekToken().Type == Not {
		parser.lexer.NextToken() // consume NOT
		negated = true
		if parser.lexer.PeekToken().Type != In {
			return nil, errors.New("expected 'in' after 'not'")
		}
	}
	parser.lexer.NextToken() // consume IN

	open := parser.lexer.NextToken()
	var closing TokenType
	switch open.Type {
	case BracketOpen:
		closing = BracketClose
	case ParenOpen:
		closing = ParenClose
	default:
		return nil, errors.New("expected '[' or '(' after 'in'")
	}

	var list []Expr
	if parser.lexer.PeekToken().Type == closing {
		parser.lexer.NextToken()
		return InExpr{Operand: operand, List: list, Negated: negated}, nil
	}
	for {
		item, err := parser.parseAdditive()
		if err != nil {
			return nil, err
		}
		list = append(list, item)

		token := parser.lexer.NextToken()
		if token.Type == closing {
			break
		}
		if token.Type != Comma {
			return nil, errors.New("expected ',' or closing bracket in list")
		}
	}
	return InExpr{Operand: operand, List: list, Negated: negated}, nil
}

func (parser *conditionParser) parseAdditive() (Expr, error) {
	left, err := parser.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op := parser.lexer.PeekToken().Type
		if op != Plus && op != Minus {
			return left, nil
		}
		parser.lexer.NextToken()
		right, err := parser.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (parser *conditionParser) parseMultiplicative() (Expr, error) {
	left, err := parser.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := parser.lexer.PeekToken().Type
		if op != Star && op != Slash && op != Percent {
			return left, nil
		}
		parser.lexer.NextToken()
		right, err := parser.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (parser *conditionParser) parseUnary() (Expr, error) {
	switch parser.lexer.PeekToken().Type {
	case Minus:
		parser.lexer.NextToken()
		operand, err := parser.parseUnary()
		if err != nil {
			return nil, err
		}
		// Fold negative literals so "-5" stays a constant.
		if lit, ok := operand.(Literal); ok && lit.Value.Numeric() {
			if lit.Value.Type == core.IntType {
				return Literal{Value: core.IntValue(-lit.Value.Int)}, nil
			}
			return Literal{Value: core.FloatValue(-lit.Value.Float)}, nil
		}
		return UnaryExpr{Op: Minus, Operand: operand}, nil
	case Plus:
		parser.lexer.NextToken()
		return parser.parseUnary()
	}
	return parser.parsePrimary()
}

func (parser *conditionParser) parsePrimary() (Expr, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case Identifier:
		return ColumnRef{Name: token.Value}, nil
	case Int, Float:
		value, ok := core.ParseNumber(token.Value)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", token.Value)
		}
		return Literal{Value: value}, nil
	case String:
		return Literal{Value: core.TextValue(token.Value)}, nil
	case True:
		return BoolLiteral{Value: true}, nil
	case False:
		return BoolLiteral{Value: false}, nil
	case ParenOpen:
		expr, err := parser.parseOr()
		if err != nil {
			return nil, err
		}
		if next := parser.lexer.NextToken(); next.Type != ParenClose {
			return nil, errors.New("expected ')'")
		}
		return expr, nil
	case EOF:
		return nil, errors.New("unexpected end of condition")
	case Unknown:
		return nil, fmt.Errorf("unexpected input %q", token.Value)
	default:
		return nil, fmt.Errorf("unexpected %s", token)
	}
}
