package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nickyhof/relq/db"
)

// Version is set at build time via -ldflags
var Version = "dev"

func newRootCommand() *cobra.Command {
	var closeLogging func() error
	root := &cobra.Command{
		Use:           "relq",
		Short:         "Relational algebra over text-defined relations",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			if noColor {
				color.NoColor = true
			}
			var err error
			closeLogging, err = setupLogging(cmd)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLogging == nil {
				return nil
			}
			err := closeLogging()
			closeLogging = nil
			return err
		},
	}
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "text", "log format, 'text' or 'json'")
	root.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	root.PersistentFlags().String("s3-region", "", "region for s3:// sources")
	root.PersistentFlags().String("s3-endpoint", "", "custom S3-compatible endpoint")
	root.PersistentFlags().Bool("no-color", false, "disable coloured output")

	addCommands(root)
	return root
}

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a query file against a relation file",
		Args:  cobra.NoArgs,
		RunE:  runQueries}
	cmd.Flags().StringP("relations", "r", "", "relation definitions (path or URL)")
	cmd.Flags().StringP("queries", "q", "", "queries, one per line (path or URL)")
	cmd.Flags().StringP("output", "o", "", "write results here instead of stdout")
	cmd.Flags().Bool("watch", false, "re-run when a local input file changes")
	cmd.MarkFlagRequired("relations")
	cmd.MarkFlagRequired("queries")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "check",
		Short: "Parse relation definitions and list their schemas",
		Args:  cobra.NoArgs,
		RunE:  checkRelations}
	cmd.Flags().StringP("relations", "r", "", "relation definitions (path or URL)")
	cmd.MarkFlagRequired("relations")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "repl",
		Short: "Query relations interactively",
		Args:  cobra.NoArgs,
		RunE:  startRepl}
	cmd.Flags().StringP("relations", "r", "", "relation definitions (path or URL)")
	cmd.MarkFlagRequired("relations")
	root.AddCommand(cmd)
}

// sourceConfig builds the source settings from the persistent flags and
// the environment.
func sourceConfig(cmd *cobra.Command) db.SourceConfig {
	region, _ := cmd.Flags().GetString("s3-region")
	endpoint, _ := cmd.Flags().GetString("s3-endpoint")
	return db.SourceConfig{Region: region, Endpoint: endpoint}.WithEnvironment()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ Error: %v", err))
		os.Exit(1)
	}
}
