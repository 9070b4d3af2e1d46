package ingest

import (
	"context"
	"fmt"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
)

// Target names the ids and metadata the built resources are stored under.
type Target struct {
	CatalogID string
	TableID   string
	Catalog   terminology.CatalogInfo
	Table     terminology.TableInfo
}

// DefaultTarget stores under the ids the deployment has always used.
func DefaultTarget() Target {
	return Target{
		CatalogID: terminology.NamasteCodeSystemID,
		TableID:   terminology.NamasteConceptMapID,
		Catalog:   terminology.DefaultCatalogInfo(),
		Table:     terminology.DefaultTableInfo(),
	}
}

type Summary struct {
	Rows      int
	CatalogID string
	TableID   string
}

type Loader struct {
	store terminology.Store
	log   zerolog.Logger
}

func NewLoader(store terminology.Store, log zerolog.Logger) *Loader {
	return &Loader{
		store: store,
		log:   log.With().Str("component", "ingest").Logger(),
	}
}

// Load builds the catalog and mapping table from rows and upserts both. A
// build failure stores nothing. The catalog is written before the table so
// the table never refers to a catalog the store does not have.
func (l *Loader) Load(ctx context.Context, rows []terminology.Row, target Target) (*Summary, error) {
	catalog, table, err := terminology.Build(rows, target.Catalog, target.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to build terminology: %w", err)
	}
	l.log.Info().
		Int("concepts", len(catalog.Concepts)).
		Int("mappings", len(table.Group)).
		Msg("Built code system and concept map")

	if err := l.store.PutCatalog(ctx, target.CatalogID, catalog); err != nil {
		return nil, fmt.Errorf("failed to store catalog %s: %w", target.CatalogID, err)
	}
	l.log.Info().Str("id", target.CatalogID).Msg("Stored code system")

	if err := l.store.PutMappingTable(ctx, target.TableID, table); err != nil {
		return nil, fmt.Errorf("failed to store mapping table %s: %w", target.TableID, err)
	}
	l.log.Info().Str("id", target.TableID).Msg("Stored concept map")

	return &Summary{Rows: len(rows), CatalogID: target.CatalogID, TableID: target.TableID}, nil
}

// LoadFile reads path and loads its rows.
func (l *Loader) LoadFile(ctx context.Context, path string, target Target) (*Summary, error) {
	l.log.Info().Str("file", path).Msg("Reading mapping sheet")
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, rows, target)
}
