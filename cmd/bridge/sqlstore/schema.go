package sqlstore

// schema is portable between Postgres and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS code_catalog (
		id     TEXT PRIMARY KEY,
		url    TEXT NOT NULL,
		name   TEXT NOT NULL,
		title  TEXT NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_concept (
		catalog_id TEXT    NOT NULL,
		seq        INTEGER NOT NULL,
		code       TEXT    NOT NULL,
		display    TEXT    NOT NULL,
		PRIMARY KEY (catalog_id, code)
	)`,
	`CREATE TABLE IF NOT EXISTS mapping_table (
		id         TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		name       TEXT NOT NULL,
		title      TEXT NOT NULL,
		status     TEXT NOT NULL,
		source_uri TEXT NOT NULL,
		target_uri TEXT NOT NULL,
		stored_seq INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mapping_target (
		table_id       TEXT    NOT NULL,
		source_uri     TEXT    NOT NULL,
		source_code    TEXT    NOT NULL,
		source_display TEXT    NOT NULL,
		seq            INTEGER NOT NULL,
		target_code    TEXT    NOT NULL,
		target_display TEXT    NOT NULL,
		target_system  TEXT    NOT NULL,
		equivalence    TEXT    NOT NULL,
		PRIMARY KEY (table_id, source_code, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS mapping_target_lookup ON mapping_target (source_uri, source_code)`,
}
