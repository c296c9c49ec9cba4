package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nickyhof/relq/core"
	"github.com/nickyhof/relq/db"
)

func checkRelations(cmd *cobra.Command, args []string) error {
	relations, _ := cmd.Flags().GetString("relations")

	catalog, err := db.LoadCatalog(cmd.Context(), relations, sourceConfig(cmd))
	if err != nil {
		return err
	}

	printCatalog(cmd.OutOrStdout(), catalog)
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ %d relations OK", catalog.Len()))
	return nil
}

func printCatalog(w io.Writer, catalog *core.Catalog) {
	table := db.NewTable(w)
	table.Header([]string{"relation", "columns", "rows"})
	for _, name := range catalog.Names() {
		relation, _ := catalog.Lookup(name)
		table.Row([]string{name, describeColumns(relation), fmt.Sprint(relation.Len())})
	}
	table.Render()
}

// describeColumns renders "id int, name text".
func describeColumns(relation *core.Relation) string {
	parts := make([]string, len(relation.Columns))
	for i, column := range relation.Columns {
		parts[i] = column.Name + " " + column.Type.String()
	}
	return strings.Join(parts, ", ")
}
