package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nickyhof/relq/db"
)

func runQueries(cmd *cobra.Command, args []string) error {
	relations, _ := cmd.Flags().GetString("relations")
	queries, _ := cmd.Flags().GetString("queries")
	output, _ := cmd.Flags().GetString("output")
	watch, _ := cmd.Flags().GetBool("watch")
	cfg := sourceConfig(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	run := func() error {
		report, err := runOnce(ctx, cfg, relations, queries, output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		printSummary(cmd.ErrOrStderr(), report)
		return nil
	}

	if err := run(); err != nil {
		if !watch {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("✗ Error: %v", err))
	}
	if !watch {
		return nil
	}

	var paths []string
	for _, source := range []string{relations, queries} {
		path, ok := db.LocalPath(source)
		if !ok {
			return fmt.Errorf("--watch needs local files, got %s", source)
		}
		paths = append(paths, path)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), color.CyanString("Watching %d file(s), press Ctrl+C to stop", len(paths)))
	return watchFiles(ctx, paths, func() {
		fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("--- change detected, re-running ---"))
		if err := run(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("✗ Error: %v", err))
		}
	})
}

// runOnce builds the catalog and evaluates every query. A relation parse
// error aborts before any query output is written.
func runOnce(ctx context.Context, cfg db.SourceConfig, relations, queries, output string, stdout io.Writer) (db.Report, error) {
	catalog, err := db.LoadCatalog(ctx, relations, cfg)
	if err != nil {
		return db.Report{}, err
	}

	reader, err := db.OpenSource(ctx, queries, cfg)
	if err != nil {
		return db.Report{}, fmt.Errorf("failed to open queries %s: %w", queries, err)
	}
	defer reader.Close()

	out := stdout
	var sink io.WriteCloser
	if output != "" {
		sink, err = db.CreateSink(ctx, output, cfg)
		if err != nil {
			return db.Report{}, fmt.Errorf("failed to open output %s: %w", output, err)
		}
		out = sink
	}

	engine := db.NewEngine(catalog)
	engine.Logger = slog.Default().With("relations", relations)
	report, err := engine.Run(ctx, reader, out)
	if sink != nil {
		if closeErr := sink.Close(); err == nil {
			err = closeErr
		}
	}
	return report, err
}

func printSummary(w io.Writer, report db.Report) {
	if report.Failed == 0 {
		fmt.Fprintln(w, color.GreenString("✓ %d queries succeeded", report.Succeeded))
		return
	}
	fmt.Fprintln(w, color.YellowString("%d queries succeeded, %d failed", report.Succeeded, report.Failed))
}
