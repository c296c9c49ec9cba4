package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nickyhof/relq/core"
	"github.com/nickyhof/relq/op"
	"github.com/nickyhof/relq/ql"
)

// Engine evaluates queries against a read-only catalog. It holds no mutable
// state, so one Engine may serve concurrent callers.
type Engine struct {
	Catalog *core.Catalog
	Logger  *slog.Logger
}

func NewEngine(catalog *core.Catalog) *Engine {
	return &Engine{
		Catalog: catalog,
		Logger:  slog.Default(),
	}
}

func (engine *Engine) logger() *slog.Logger {
	if engine.Logger == nil {
		return slog.Default()
	}
	return engine.Logger
}

// Execute parses and evaluates one query line.
func (engine *Engine) Execute(query string) (QueryResult, error) {
	parsed, err := ql.Parse(query)
	if err != nil {
		return QueryResult{}, err
	}
	return engine.Evaluate(parsed)
}

// Evaluate resolves the relations named by query and applies its operator.
func (engine *Engine) Evaluate(query ql.Query) (QueryResult, error) {
	startTime := time.Now()

	operands, err := engine.resolve(query.Relations())
	if err != nil {
		return QueryResult{}, err
	}

	var relation *core.Relation
	switch q := query.(type) {
	case ql.SelectQuery:
		relation, err = op.Select(operands[0], q.Condition)
	case ql.ProjectQuery:
		relation, err = op.Project(operands[0], q.Columns)
	case ql.JoinQuery:
		relation, err = op.Join(operands[0], operands[1], q.Column)
	case ql.UnionQuery:
		relation, err = op.Union(operands[0], operands[1])
	case ql.IntersectQuery:
		relation, err = op.Intersect(operands[0], operands[1])
	case ql.DifferenceQuery:
		relation, err = op.Difference(operands[0], operands[1])
	default:
		return QueryResult{}, fmt.Errorf("unsupported query type: %v", query.Type())
	}
	if err != nil {
		return QueryResult{}, err
	}

	rowsScanned := 0
	for _, operand := range operands {
		rowsScanned += operand.Len()
	}

	result := newQueryResult(query.String(), relation)
	result.ExecutionTimeSec = time.Since(startTime).Seconds()
	result.ExecutionOps = rowsScanned

	engine.logger().Debug("query executed",
		"type", query.Type().String(),
		"rows", result.RecordsRead,
		"scanned", rowsScanned,
		"duration", result.ExecutionTime())

	return result, nil
}

func (engine *Engine) resolve(names []string) ([]*core.Relation, error) {
	if engine.Catalog == nil {
		return nil, &core.UnknownRelationError{Name: names[0]}
	}
	relations := make([]*core.Relation, len(names))
	for i, name := range names {
		relation, err := engine.Catalog.Lookup(name)
		if err != nil {
			return nil, err
		}
		relations[i] = relation
	}
	return relations, nil
}
