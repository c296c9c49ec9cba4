package db

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nickyhof/relq/core"
	"github.com/nickyhof/relq/ql"
)

// ParseCatalog reads one relation definition per line. The first malformed
// line aborts with a *core.ParseError.
func ParseCatalog(r io.Reader) (*core.Catalog, error) {
	relations, err := ql.ParseRelations(r)
	if err != nil {
		return nil, err
	}
	return core.NewCatalog(relations...)
}

// LoadCatalog opens source (see OpenSource) and parses it into a catalog.
func LoadCatalog(ctx context.Context, source string, cfg SourceConfig) (*core.Catalog, error) {
	reader, err := OpenSource(ctx, source, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open relations %s: %w", source, err)
	}
	defer reader.Close()

	catalog, err := ParseCatalog(reader)
	if err != nil {
		return nil, err
	}
	slog.Debug("catalog loaded", "source", source, "relations", catalog.Len())
	return catalog, nil
}
