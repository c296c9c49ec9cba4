package ql

import (
	"strings"
	"unicode"

	"github.com/nickyhof/relq/core"
)

type QueryType int

const (
	SelectQueryType QueryType = iota
	ProjectQueryType
	JoinQueryType
	UnionQueryType
	IntersectQueryType
	DifferenceQueryType
)

func (t QueryType) String() string {
	switch t {
	case SelectQueryType:
		return "select"
	case ProjectQueryType:
		return "project"
	case JoinQueryType:
		return "join"
	case UnionQueryType:
		return "union"
	case IntersectQueryType:
		return "intersect"
	case DifferenceQueryType:
		return "difference"
	default:
		return "unknown"
	}
}

// Query is one parsed query line. The concrete types are SelectQuery,
// ProjectQuery, JoinQuery, UnionQuery, IntersectQuery and DifferenceQuery.
type Query interface {
	Type() QueryType
	// Relations lists the relation names the query reads, in operand order.
	Relations() []string
	String() string
}

type SelectQuery struct {
	Condition *Condition
	Relation  string
}

type ProjectQuery struct {
	Columns  []string
	Relation string
}

type JoinQuery struct {
	Left   string
	Right  string
	Column string
}

type UnionQuery struct {
	Left  string
	Right string
}

type IntersectQuery struct {
	Left  string
	Right string
}

type DifferenceQuery struct {
	Left  string
	Right string
}

func (q SelectQuery) Type() QueryType     { return SelectQueryType }
func (q ProjectQuery) Type() QueryType    { return ProjectQueryType }
func (q JoinQuery) Type() QueryType       { return JoinQueryType }
func (q UnionQuery) Type() QueryType      { return UnionQueryType }
func (q IntersectQuery) Type() QueryType  { return IntersectQueryType }
func (q DifferenceQuery) Type() QueryType { return DifferenceQueryType }

func (q SelectQuery) Relations() []string     { return []string{q.Relation} }
func (q ProjectQuery) Relations() []string    { return []string{q.Relation} }
func (q JoinQuery) Relations() []string       { return []string{q.Left, q.Right} }
func (q UnionQuery) Relations() []string      { return []string{q.Left, q.Right} }
func (q IntersectQuery) Relations() []string  { return []string{q.Left, q.Right} }
func (q DifferenceQuery) Relations() []string { return []string{q.Left, q.Right} }

func (q SelectQuery) String() string {
	return "select " + q.Condition.Source + "(" + q.Relation + ")"
}

func (q ProjectQuery) String() string {
	return "project " + strings.Join(q.Columns, ", ") + "(" + q.Relation + ")"
}

func (q JoinQuery) String() string {
	return "join " + q.Left + ", " + q.Right + " on " + q.Column
}

func (q UnionQuery) String() string {
	return "union " + q.Left + ", " + q.Right
}

func (q IntersectQuery) String() string {
	return "intersect " + q.Left + ", " + q.Right
}

func (q DifferenceQuery) String() string {
	return "difference " + q.Left + ", " + q.Right
}

// Parse parses a single query line of the form "<operator> <parameters>".
//
// Unknown operators fail with *core.UnsupportedOperationError, parameters
// that do not match the operator's shape with *core.QuerySyntaxError.
func Parse(line string) (Query, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, &core.QuerySyntaxError{Query: line, Reason: "empty query"}
	}

	operator, params := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		operator, params = line[:i], strings.TrimSpace(line[i:])
	}

	parser := queryParser{query: line, params: params}

	switch operator {
	case "select":
		return parser.parseSelect()
	case "project":
		return parser.parseProject()
	case "join":
		return parser.parseJoin()
	case "union":
		left, right, err := parser.parsePair()
		if err != nil {
			return nil, err
		}
		return UnionQuery{Left: left, Right: right}, nil
	case "intersect":
		left, right, err := parser.parsePair()
		if err != nil {
			return nil, err
		}
		return IntersectQuery{Left: left, Right: right}, nil
	case "difference":
		left, right, err := parser.parsePair()
		if err != nil {
			return nil, err
		}
		return DifferenceQuery{Left: left, Right: right}, nil
	default:
		return nil, &core.UnsupportedOperationError{Operator: operator}
	}
}

type queryParser struct {
	query  string
	params string
}

func (parser queryParser) fail(reason string) error {
	return &core.QuerySyntaxError{Query: parser.query, Reason: reason}
}

// splitApplication splits "<head>(<relation>)" at the last opening
// parenthesis, so the head may itself contain parentheses.
func (parser queryParser) splitApplication(what string) (head, relation string, err error) {
	if !strings.HasSuffix(parser.params, ")") {
		return "", "", parser.fail("expected " + what + "(<relation>)")
	}
	open := strings.LastIndex(parser.params, "(")
	if open < 0 {
		return "", "", parser.fail("missing '(' before relation name")
	}
	head = strings.TrimSpace(parser.params[:open])
	relation = strings.TrimSpace(parser.params[open+1 : len(parser.params)-1])
	if head == "" {
		return "", "", parser.fail("missing " + what)
	}
	if !validName(relation) {
		return "", "", parser.fail("invalid relation name " + quote(relation))
	}
	return head, relation, nil
}

func (parser queryParser) parseSelect() (Query, error) {
	source, relation, err := parser.splitApplication("<condition>")
	if err != nil {
		return nil, err
	}
	condition, err := ParseCondition(source)
	if err != nil {
		return nil, parser.fail("invalid condition: " + err.Error())
	}
	return SelectQuery{Condition: condition, Relation: relation}, nil
}

func (parser queryParser) parseProject() (Query, error) {
	list, relation, err := parser.splitApplication("<columns>")
	if err != nil {
		return nil, err
	}
	columns, err := splitNames(list)
	if err != nil {
		return nil, parser.fail(err.Error())
	}
	seen := make(map[string]bool, len(columns))
	for _, column := range columns {
		if seen[column] {
			return nil, parser.fail("column " + column + " requested more than once")
		}
		seen[column] = true
	}
	return ProjectQuery{Columns: columns, Relation: relation}, nil
}

func (parser queryParser) parseJoin() (Query, error) {
	i := strings.LastIndex(parser.params, " on ")
	if i < 0 {
		return nil, parser.fail("expected <relation>, <relation> on <column>")
	}
	names, err := splitNames(parser.params[:i])
	if err != nil {
		return nil, parser.fail(err.Error())
	}
	if len(names) != 2 {
		return nil, parser.fail("join expects exactly two relations")
	}
	column := strings.TrimSpace(parser.params[i+len(" on "):])
	if !validName(column) {
		return nil, parser.fail("invalid join column " + quote(column))
	}
	return JoinQuery{Left: names[0], Right: names[1], Column: column}, nil
}

func (parser queryParser) parsePair() (string, string, error) {
	if parser.params == "" {
		return "", "", parser.fail("expected <relation>, <relation>")
	}
	names, err := splitNames(parser.params)
	if err != nil {
		return "", "", parser.fail(err.Error())
	}
	if len(names) != 2 {
		return "", "", parser.fail("expected exactly two relations")
	}
	return names[0], names[1], nil
}

// splitNames splits a comma separated list of names.
func splitNames(list string) ([]string, error) {
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if !validName(name) {
			return nil, &nameError{name: name}
		}
		names = append(names, name)
	}
	return names, nil
}

type nameError struct {
	name string
}

func (e *nameError) Error() string {
	if e.name == "" {
		return "empty name in list"
	}
	return "invalid name " + quote(e.name)
}

// validName reports whether s can name a relation or column: non-empty,
// without whitespace, separators or parentheses.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune(",;(){}=", r) {
			return false
		}
	}
	return true
}

func quote(s string) string {
	return "'" + s + "'"
}
