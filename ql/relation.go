package ql

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nickyhof/relq/core"
)

var (
	ErrMissingName    = errors.New("missing relation name")
	ErrMissingColumns = errors.New("missing parenthesised column list")
	ErrMissingRows    = errors.New("missing braced row data")
	ErrUnbalanced     = errors.New("unbalanced braces")
	ErrTrailingInput  = errors.New("unexpected text after row data")
)

// ParseRelation parses one relation definition of the form
//
//	Name(col1, col2, ...) = {v1, v2, ...; v1, v2, ...}
//
// Column types are inferred from the data. Duplicate rows collapse. Any
// malformation is reported as a *core.ParseError carrying the line.
func ParseRelation(line string) (*core.Relation, error) {
	relation, err := parseRelation(strings.TrimSpace(line))
	if err != nil {
		return nil, &core.ParseError{Line: strings.TrimSpace(line), Err: err}
	}
	return relation, nil
}

// ParseRelations parses a source holding one relation definition per line.
// Blank lines and lines starting with '#' or '--' are skipped. Parsing stops
// at the first malformed line.
func ParseRelations(r io.Reader) ([]*core.Relation, error) {
	var relations []*core.Relation
	names := make(map[string]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
			continue
		}

		relation, err := parseRelation(line)
		if err != nil {
			return nil, &core.ParseError{Line: line, LineNo: lineNo, Err: err}
		}
		if previous, exists := names[relation.Name]; exists {
			return nil, &core.ParseError{
				Line:   line,
				LineNo: lineNo,
				Err:    fmt.Errorf("relation %s already defined on line %d", relation.Name, previous),
			}
		}
		names[relation.Name] = lineNo
		relations = append(relations, relation)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read relations: %w", err)
	}

	return relations, nil
}

func parseRelation(line string) (*core.Relation, error) {
	open := strings.Index(line, "(")
	if open < 0 {
		return nil, ErrMissingColumns
	}
	name := strings.TrimSpace(line[:open])
	if name == "" {
		return nil, ErrMissingName
	}
	if !validName(name) {
		return nil, fmt.Errorf("invalid relation name %q", name)
	}

	closing := strings.Index(line[open:], ")")
	if closing < 0 {
		return nil, ErrMissingColumns
	}
	closing += open

	names, err := parseColumnNames(line[open+1 : closing])
	if err != nil {
		return nil, err
	}

	rest := strings.TrimSpace(line[closing+1:])
	if !strings.HasPrefix(rest, "=") {
		return nil, ErrMissingRows
	}
	rest = strings.TrimSpace(rest[1:])
	if !strings.HasPrefix(rest, "{") {
		return nil, ErrMissingRows
	}
	end := strings.Index(rest, "}")
	if end < 0 {
		return nil, ErrUnbalanced
	}
	body := rest[1:end]
	if strings.ContainsAny(body, "{") {
		return nil, ErrUnbalanced
	}
	if trailing := strings.TrimSpace(rest[end+1:]); trailing != "" {
		if strings.ContainsAny(trailing, "{}") {
			return nil, ErrUnbalanced
		}
		return nil, ErrTrailingInput
	}

	raw, err := parseRowFields(body, len(names))
	if err != nil {
		return nil, err
	}

	return buildRelation(name, names, raw), nil
}

func parseColumnNames(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, errors.New("empty column list")
	}
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if !validName(name) {
			return nil, fmt.Errorf("invalid column name %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// parseRowFields splits the braced segment into rows of raw field text.
func parseRowFields(body string, arity int) ([][]string, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	rows := strings.Split(body, ";")
	fields := make([][]string, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row) == "" {
			return nil, fmt.Errorf("row %d is empty", i+1)
		}
		values := strings.Split(row, ",")
		if len(values) != arity {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i+1, len(values), arity)
		}
		for j := range values {
			values[j] = strings.TrimSpace(values[j])
		}
		fields = append(fields, values)
	}
	return fields, nil
}

// buildRelation infers a type for every column and converts the raw fields.
// A column is numeric when every value parses as a number: IntType when all
// are integers, FloatType otherwise. Any other column is TextType.
func buildRelation(name string, names []string, raw [][]string) *core.Relation {
	columns := make([]core.Column, len(names))
	rows := make([]core.Row, len(raw))
	for i := range rows {
		rows[i] = make(core.Row, len(names))
	}

	for j, columnName := range names {
		parsed := make([]core.Value, len(raw))
		columnType := core.IntType
		for i, fields := range raw {
			value, ok := core.ParseNumber(fields[j])
			if !ok {
				columnType = core.TextType
				break
			}
			if value.Type == core.FloatType {
				columnType = core.FloatType
			}
			parsed[i] = value
		}
		if len(raw) == 0 {
			columnType = core.TextType
		}

		columns[j] = core.Column{Name: columnName, Type: columnType}
		for i, fields := range raw {
			if columnType == core.TextType {
				rows[i][j] = core.TextValue(fields[j])
			} else {
				rows[i][j] = parsed[i].Widen(columnType)
			}
		}
	}

	return core.NewRelation(name, columns, rows)
}
