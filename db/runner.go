package db

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Report summarises a Run.
type Report struct {
	Queries   int
	Succeeded int
	Failed    int
}

// Run executes every query read from queries, one per line, and writes each
// result to out. A failing query is reported on out and does not stop the
// run. Blank lines and lines starting with '#' or '--' are skipped.
//
// Run returns early with ctx.Err() when ctx is cancelled between queries.
func (engine *Engine) Run(ctx context.Context, queries io.Reader, out io.Writer) (Report, error) {
	var report Report

	scanner := bufio.NewScanner(queries)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		query := strings.TrimSpace(scanner.Text())
		if IsComment(query) {
			continue
		}
		report.Queries++

		fmt.Fprintf(out, "Query: %s\n", query)
		result, err := engine.Execute(query)
		if err != nil {
			report.Failed++
			engine.logger().Warn("query failed", "query", query, "error", err)
			fmt.Fprintf(out, "Error executing query '%s': %v\n\n", query, err)
			continue
		}
		report.Succeeded++
		result.Display(out)
		fmt.Fprintln(out)
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("failed to read queries: %w", err)
	}

	engine.logger().Info("run finished",
		"queries", report.Queries,
		"succeeded", report.Succeeded,
		"failed", report.Failed)
	return report, nil
}

// IsComment reports whether a trimmed input line carries no query.
func IsComment(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--")
}
