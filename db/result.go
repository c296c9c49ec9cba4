package db

import (
	"fmt"
	"io"

	"github.com/nickyhof/relq/core"
)

type QueryResult struct {
	Query            string
	Relation         *core.Relation
	Columns          []string
	Data             [][]string
	RecordsRead      int
	ExecutionTimeSec float64
	ExecutionOps     int
}

func newQueryResult(query string, relation *core.Relation) QueryResult {
	return QueryResult{
		Query:       query,
		Relation:    relation,
		Columns:     relation.ColumnNames(),
		Data:        relation.Data(),
		RecordsRead: relation.Len(),
	}
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	if secs < 0.001 {
		return "<1ms"
	} else if secs < 1 {
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	} else if secs < 60 {
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	}
	mins := int(secs / 60)
	remainSecs := int(secs) % 60
	if remainSecs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, remainSecs)
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

// Throughput renders the scanned rows per second, or "" when unknown.
func (result QueryResult) Throughput() string {
	if result.ExecutionTimeSec <= 0 || result.ExecutionOps <= 0 {
		return ""
	}
	ops := float64(result.ExecutionOps) / result.ExecutionTimeSec
	switch {
	case ops >= 1000000:
		return fmt.Sprintf("%.1fM rows/s", ops/1000000)
	case ops >= 1000:
		return fmt.Sprintf("%.1fK rows/s", ops/1000)
	default:
		return fmt.Sprintf("%.0f rows/s", ops)
	}
}

// Display writes the result as a column-labelled table followed by a
// compact stats line.
func (result QueryResult) Display(w io.Writer) {
	table := NewTable(w)
	table.Header(result.Columns)
	table.Bulk(result.Data)
	table.Render()

	stats := result.ExecutionTime()
	if throughput := result.Throughput(); throughput != "" {
		stats += ", " + throughput
	}
	fmt.Fprintf(w, "%d rows (%s)\n", result.RecordsRead, stats)
}
