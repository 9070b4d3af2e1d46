// Package memstore is an in-process terminology store. It backs the
// "memory" store driver and the tests of everything that consumes a store.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
)

var _ terminology.Store = (*Store)(nil)

// Store keeps catalogs and mapping tables in maps guarded by one RWMutex.
type Store struct {
	mu       sync.RWMutex
	catalogs map[string]*terminology.CodeCatalog
	tables   map[string]*terminology.MappingTable
	bySource map[string][]string // source URI -> table ids, in insertion order
	log      zerolog.Logger
}

func New(log zerolog.Logger) *Store {
	return &Store{
		catalogs: make(map[string]*terminology.CodeCatalog),
		tables:   make(map[string]*terminology.MappingTable),
		bySource: make(map[string][]string),
		log:      log.With().Str("component", "memstore").Logger(),
	}
}

func (s *Store) PutCatalog(ctx context.Context, id string, catalog *terminology.CodeCatalog) error {
	if id == "" || catalog == nil {
		return fmt.Errorf("catalog id and catalog are required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := *catalog
	stored.Concepts = append([]terminology.Concept(nil), catalog.Concepts...)

	s.mu.Lock()
	s.catalogs[id] = &stored
	s.mu.Unlock()

	s.log.Debug().Str("id", id).Int("concepts", len(stored.Concepts)).Msg("Stored catalog")
	return nil
}

func (s *Store) PutMappingTable(ctx context.Context, id string, table *terminology.MappingTable) error {
	if id == "" || table == nil {
		return fmt.Errorf("mapping table id and table are required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Re-index a private copy so later edits by the caller cannot leak in.
	entries := make([]terminology.MappingEntry, len(table.Group))
	for i, entry := range table.Group {
		entry.Targets = append([]terminology.Target(nil), entry.Targets...)
		entries[i] = entry
	}
	stored, err := terminology.NewMappingTable(table.TableInfo, entries)
	if err != nil {
		return fmt.Errorf("invalid mapping table %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.tables[id]; ok {
		s.bySource[previous.SourceURI] = without(s.bySource[previous.SourceURI], id)
	}
	s.tables[id] = stored
	s.bySource[stored.SourceURI] = append(s.bySource[stored.SourceURI], id)

	s.log.Debug().Str("id", id).Int("entries", len(entries)).Msg("Stored mapping table")
	return nil
}

func (s *Store) GetCatalog(ctx context.Context, id string) (*terminology.CodeCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", terminology.ErrUpstreamUnavailable, err)
	}

	s.mu.RLock()
	catalog, ok := s.catalogs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("catalog %s: %w", id, terminology.ErrNotFound)
	}
	out := *catalog
	out.Concepts = append([]terminology.Concept(nil), catalog.Concepts...)
	return &out, nil
}

// Translate consults every table whose source is system, in the order they
// were stored, and returns the targets of the first table that maps code.
func (s *Store) Translate(ctx context.Context, system, code string) ([]terminology.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", terminology.ErrUpstreamUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.bySource[system]
	if !ok || len(ids) == 0 {
		return nil, fmt.Errorf("no mapping table for system %s: %w", system, terminology.ErrNotFound)
	}
	for _, id := range ids {
		if entry, found := s.tables[id].Lookup(code); found {
			return append([]terminology.Target(nil), entry.Targets...), nil
		}
	}
	return nil, nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
