package relq

import (
	"context"
	"io"
	"strings"

	"github.com/nickyhof/relq/core"
	"github.com/nickyhof/relq/db"
)

type Instance struct {
	Catalog *core.Catalog
}

func Open(catalog *core.Catalog) *Instance {
	return &Instance{
		Catalog: catalog,
	}
}

// Parse builds an instance from relation definitions, one per line.
func Parse(definitions string) (*Instance, error) {
	return Read(strings.NewReader(definitions))
}

func Read(r io.Reader) (*Instance, error) {
	catalog, err := db.ParseCatalog(r)
	if err != nil {
		return nil, err
	}
	return Open(catalog), nil
}

// Load builds an instance from a relation source, see db.OpenSource.
func Load(ctx context.Context, source string, cfg db.SourceConfig) (*Instance, error) {
	catalog, err := db.LoadCatalog(ctx, source, cfg)
	if err != nil {
		return nil, err
	}
	return Open(catalog), nil
}

func (instance *Instance) Engine() *db.Engine {
	return db.NewEngine(instance.Catalog)
}
