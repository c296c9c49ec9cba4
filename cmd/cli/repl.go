package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nickyhof/relq/db"
)

const maxHistory = 1000

var (
	promptColor  = color.New(color.FgCyan, color.Bold)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
)

// openSource is swapped by tests.
var openSource = db.OpenSource

// Repl holds the interactive session state.
type Repl struct {
	engine      *db.Engine
	source      db.SourceConfig
	in          *bufio.Reader
	out         io.Writer
	history     []string
	historyFile string
}

func startRepl(cmd *cobra.Command, args []string) error {
	relations, _ := cmd.Flags().GetString("relations")
	catalog, err := db.LoadCatalog(cmd.Context(), relations, sourceConfig(cmd))
	if err != nil {
		return err
	}

	repl := newRepl(db.NewEngine(catalog), cmd.InOrStdin(), cmd.OutOrStdout())
	repl.source = sourceConfig(cmd)
	repl.historyFile = historyPath()
	repl.loadHistory()
	defer repl.saveHistory()

	repl.printBanner(relations)
	repl.run(cmd.Context())
	return nil
}

func newRepl(engine *db.Engine, in io.Reader, out io.Writer) *Repl {
	return &Repl{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
	}
}

func (repl *Repl) printBanner(source string) {
	fmt.Fprintln(repl.out)
	promptColor.Fprintf(repl.out, "relq v%s\n", Version)
	fmt.Fprintf(repl.out, "%d relations loaded from %s\n", repl.engine.Catalog.Len(), source)
	fmt.Fprintln(repl.out, "Type .help for commands, .quit to exit")
	fmt.Fprintln(repl.out)
}

// run reads queries until .quit, end of input or ctx is done.
func (repl *Repl) run(ctx context.Context) {
	for ctx.Err() == nil {
		promptColor.Fprint(repl.out, "relq> ")

		input, err := repl.in.ReadString('\n')
		line := strings.TrimSpace(input)
		if line != "" {
			if strings.HasPrefix(line, ".") {
				if quit := repl.handleCommand(ctx, line); quit {
					return
				}
			} else if !db.IsComment(line) {
				repl.addToHistory(line)
				repl.execute(line)
			}
		}
		if err != nil {
			successColor.Fprintln(repl.out, "\nGoodbye!")
			return
		}
	}
}

func (repl *Repl) execute(query string) {
	result, err := repl.engine.Execute(query)
	if err != nil {
		errorColor.Fprintf(repl.out, "✗ Error: %v\n", err)
		return
	}
	result.Display(repl.out)
}

// handleCommand runs a dot command and reports whether the session ends.
func (repl *Repl) handleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		successColor.Fprintln(repl.out, "Goodbye!")
		return true

	case ".help", ".h", ".?":
		repl.printHelp()

	case ".relations", ".rels":
		printCatalog(repl.out, repl.engine.Catalog)

	case ".describe", ".d":
		if len(parts) < 2 {
			errorColor.Fprintln(repl.out, "✗ Usage: .describe <relation>")
			break
		}
		repl.describe(parts[1])

	case ".history":
		repl.printHistory()

	case ".clear", ".cls":
		fmt.Fprint(repl.out, "\033[H\033[2J")

	case ".version":
		fmt.Fprintf(repl.out, "relq version %s\n", Version)

	case ".import":
		if len(parts) < 2 {
			errorColor.Fprintln(repl.out, "✗ Usage: .import <queries>")
			break
		}
		if err := repl.importFile(ctx, parts[1]); err != nil {
			errorColor.Fprintf(repl.out, "✗ Error: %v\n", err)
		}

	default:
		errorColor.Fprintf(repl.out, "✗ Unknown command: %s (type .help for commands)\n", parts[0])
	}

	return false
}

func (repl *Repl) printHelp() {
	fmt.Fprintln(repl.out)
	promptColor.Fprintln(repl.out, "Special Commands:")
	fmt.Fprintln(repl.out, "  .help, .h          Show this help message")
	fmt.Fprintln(repl.out, "  .quit, .exit       Exit the REPL")
	fmt.Fprintln(repl.out, "  .relations         List relations and their columns")
	fmt.Fprintln(repl.out, "  .describe <name>   Show the columns and rows of a relation")
	fmt.Fprintln(repl.out, "  .import <file>     Run every query in a file")
	fmt.Fprintln(repl.out, "  .history           Show query history")
	fmt.Fprintln(repl.out, "  .clear             Clear the screen")
	fmt.Fprintln(repl.out, "  .version           Show version info")
	fmt.Fprintln(repl.out)
	promptColor.Fprintln(repl.out, "Queries:")
	fmt.Fprintln(repl.out, "  select <condition>(<relation>)")
	fmt.Fprintln(repl.out, "  project <col>, <col>(<relation>)")
	fmt.Fprintln(repl.out, "  join <relation>, <relation> on <column>")
	fmt.Fprintln(repl.out, "  union | intersect | difference <relation>, <relation>")
	fmt.Fprintln(repl.out)
}

func (repl *Repl) describe(name string) {
	relation, err := repl.engine.Catalog.Lookup(name)
	if err != nil {
		errorColor.Fprintf(repl.out, "✗ Error: %v\n", err)
		return
	}

	table := db.NewTable(repl.out)
	table.Header([]string{"column", "type"})
	for _, column := range relation.Columns {
		table.Row([]string{column.Name, column.Type.String()})
	}
	table.Render()
	fmt.Fprintf(repl.out, "%s: %d rows\n", relation.Name, relation.Len())
}

func (repl *Repl) importFile(ctx context.Context, path string) error {
	reader, err := openSource(ctx, path, repl.source)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	defer reader.Close()

	report, err := repl.engine.Run(ctx, reader, repl.out)
	if err != nil {
		return err
	}
	successColor.Fprintf(repl.out, "✓ Import complete: %d succeeded, %d failed\n", report.Succeeded, report.Failed)
	return nil
}

func (repl *Repl) addToHistory(query string) {
	// skip repeats of the last query
	if len(repl.history) > 0 && repl.history[len(repl.history)-1] == query {
		return
	}
	repl.history = append(repl.history, query)
	if len(repl.history) > maxHistory {
		repl.history = repl.history[len(repl.history)-maxHistory:]
	}
}

func (repl *Repl) printHistory() {
	if len(repl.history) == 0 {
		fmt.Fprintln(repl.out, "No query history")
		return
	}

	start := max(0, len(repl.history)-20)
	for i := start; i < len(repl.history); i++ {
		fmt.Fprintf(repl.out, "  %3d  %s\n", i+1, repl.history[i])
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".relq_history")
}

func (repl *Repl) loadHistory() {
	if repl.historyFile == "" {
		return
	}

	file, err := os.Open(repl.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		repl.history = append(repl.history, scanner.Text())
	}
}

func (repl *Repl) saveHistory() {
	if repl.historyFile == "" {
		return
	}

	file, err := os.Create(repl.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := max(0, len(repl.history)-maxHistory)
	for _, query := range repl.history[start:] {
		_, _ = file.WriteString(query + "\n")
	}
}

