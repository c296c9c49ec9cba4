// Package db evaluates relational algebra queries against a catalog.
//
// The Engine type is the main entry point. It parses a query line, resolves
// the relations it names and applies the operator:
//
//	catalog, err := db.LoadCatalog(ctx, "relations.txt", db.SourceConfig{})
//	engine := db.NewEngine(catalog)
//	result, err := engine.Execute("select age > 27(Emp)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result.Display(os.Stdout)
//
// Run drives a whole query file, printing each result and reporting failing
// queries without stopping:
//
//	report, err := engine.Run(ctx, queries, os.Stdout)
//
// # Sources
//
// OpenSource and CreateSink reach local files and remote locations:
//   - relations.txt, file:///data/relations.txt
//   - https://example.com/relations.txt
//   - s3://bucket/relations.txt
//   - git+https://github.com/org/repo.git#data/relations.txt@main
package db
