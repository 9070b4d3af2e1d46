// Package sqlstore is a terminology store gateway on a relational database.
// It runs on Postgres (lib/pq) in deployments and on SQLite (modernc) for
// single-node setups and tests.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know yet.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var _ terminology.Store = (*Store)(nil)

type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

type catalogRow struct {
	ID     string `db:"id"`
	URL    string `db:"url"`
	Name   string `db:"name"`
	Title  string `db:"title"`
	Status string `db:"status"`
}

type targetRow struct {
	TableID     string `db:"table_id"`
	Code        string `db:"target_code"`
	Display     string `db:"target_display"`
	System      string `db:"target_system"`
	Equivalence string `db:"equivalence"`
}

// Open connects to driver ("postgres" or "sqlite") and creates the schema.
func Open(ctx context.Context, driver, dsn string, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// One connection keeps an in-memory database alive and serialises
		// writers.
		db.SetMaxOpenConns(1)
	}
	store := New(db, log)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func New(db *sqlx.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "sqlstore").Str("driver", db.DriverName()).Logger(),
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.log.Debug().Int("statements", len(schema)).Msg("Schema applied")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) PutCatalog(ctx context.Context, id string, catalog *terminology.CodeCatalog) error {
	if id == "" || catalog == nil {
		return fmt.Errorf("catalog id and catalog are required")
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO code_catalog (id, url, name, title, status)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				url = excluded.url, name = excluded.name,
				title = excluded.title, status = excluded.status`),
			id, catalog.URL, catalog.Name, catalog.Title, catalog.Status); err != nil {
			return fmt.Errorf("failed to upsert catalog %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM catalog_concept WHERE catalog_id = ?`), id); err != nil {
			return fmt.Errorf("failed to clear concepts of %s: %w", id, err)
		}

		insert := s.db.Rebind(`INSERT INTO catalog_concept (catalog_id, seq, code, display) VALUES (?, ?, ?, ?)`)
		for i, c := range catalog.Concepts {
			if _, err := tx.ExecContext(ctx, insert, id, i, c.Code, c.Display); err != nil {
				return fmt.Errorf("failed to insert concept %s: %w", c.Code, err)
			}
		}

		s.log.Info().Str("id", id).Int("concepts", len(catalog.Concepts)).Msg("Catalog stored")
		return nil
	})
}

func (s *Store) PutMappingTable(ctx context.Context, id string, table *terminology.MappingTable) error {
	if id == "" || table == nil {
		return fmt.Errorf("mapping table id and table are required")
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO mapping_table (id, url, name, title, status, source_uri, target_uri, stored_seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(stored_seq), 0) + 1 FROM mapping_table))
			ON CONFLICT (id) DO UPDATE SET
				url = excluded.url, name = excluded.name, title = excluded.title,
				status = excluded.status, source_uri = excluded.source_uri,
				target_uri = excluded.target_uri, stored_seq = excluded.stored_seq`),
			id, table.URL, table.Name, table.Title, table.Status, table.SourceURI, table.TargetURI); err != nil {
			return fmt.Errorf("failed to upsert mapping table %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM mapping_target WHERE table_id = ?`), id); err != nil {
			return fmt.Errorf("failed to clear targets of %s: %w", id, err)
		}

		insert := s.db.Rebind(`
			INSERT INTO mapping_target (table_id, source_uri, source_code, source_display, seq,
				target_code, target_display, target_system, equivalence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		rows := 0
		for _, entry := range table.Group {
			for seq, t := range entry.Targets {
				system := t.System
				if system == "" {
					system = table.TargetURI
				}
				if _, err := tx.ExecContext(ctx, insert, id, table.SourceURI, entry.SourceCode, entry.SourceDisplay,
					seq, t.Code, t.Display, system, string(t.Equivalence)); err != nil {
					return fmt.Errorf("failed to insert target for %s: %w", entry.SourceCode, err)
				}
				rows++
			}
		}

		s.log.Info().Str("id", id).Int("entries", len(table.Group)).Int("targets", rows).Msg("Mapping table stored")
		return nil
	})
}

func (s *Store) GetCatalog(ctx context.Context, id string) (*terminology.CodeCatalog, error) {
	var header catalogRow
	err := s.db.GetContext(ctx, &header, s.db.Rebind(`SELECT id, url, name, title, status FROM code_catalog WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog %s: %w", id, terminology.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read catalog %s: %v", terminology.ErrUpstreamUnavailable, id, err)
	}

	concepts := []terminology.Concept{}
	if err := s.db.SelectContext(ctx, &concepts, s.db.Rebind(`
		SELECT code, display FROM catalog_concept WHERE catalog_id = ? ORDER BY seq`), id); err != nil {
		return nil, fmt.Errorf("%w: failed to read concepts of %s: %v", terminology.ErrUpstreamUnavailable, id, err)
	}

	return &terminology.CodeCatalog{
		URL:      header.URL,
		Name:     header.Name,
		Title:    header.Title,
		Status:   header.Status,
		Concepts: concepts,
	}, nil
}

// Translate returns the targets of the earliest stored table that maps code
// from system. Storing a table again moves it last. The lookup is served by the (source_uri, source_code) index.
func (s *Store) Translate(ctx context.Context, system, code string) ([]terminology.Target, error) {
	var tables int
	if err := s.db.GetContext(ctx, &tables, s.db.Rebind(`SELECT COUNT(*) FROM mapping_table WHERE source_uri = ?`), system); err != nil {
		return nil, fmt.Errorf("%w: failed to look up mapping tables: %v", terminology.ErrUpstreamUnavailable, err)
	}
	if tables == 0 {
		return nil, fmt.Errorf("no mapping table for system %s: %w", system, terminology.ErrNotFound)
	}

	var rows []targetRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT t.table_id, t.target_code, t.target_display, t.target_system, t.equivalence
		FROM mapping_target t
		JOIN mapping_table m ON m.id = t.table_id
		WHERE t.source_uri = ? AND t.source_code = ?
		ORDER BY m.stored_seq, t.seq`), system, code); err != nil {
		return nil, fmt.Errorf("%w: failed to translate %s: %v", terminology.ErrUpstreamUnavailable, code, err)
	}

	var targets []terminology.Target
	for _, row := range rows {
		if row.TableID != rows[0].TableID {
			break
		}
		targets = append(targets, terminology.Target{
			Code:        row.Code,
			Display:     row.Display,
			System:      row.System,
			Equivalence: terminology.Equivalence(row.Equivalence),
		})
	}
	return targets, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", terminology.ErrUpstreamUnavailable, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
