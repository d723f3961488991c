// Package store is the SQLite persistence layer. It implements the
// game.Store surface; every engine operation runs inside one
// transaction so partial writes never commit.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/rookery/internal/game"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path. Use ":memory:" in tests.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// The engine serializes writers; one connection keeps the in-memory
	// database coherent as well.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn inside a transaction, committing only when fn returns
// nil.
func (db *DB) WithTx(ctx context.Context, fn func(game.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	t := &Tx{tx: tx}
	if err := fn(t); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		nest_name TEXT NOT NULL DEFAULT '',
		twigs INTEGER NOT NULL DEFAULT 0,
		seeds INTEGER NOT NULL DEFAULT 0,
		inspiration INTEGER NOT NULL DEFAULT 0,
		garden_size INTEGER NOT NULL DEFAULT 0,
		bonus_actions INTEGER NOT NULL DEFAULT 0,
		featured_common TEXT NOT NULL DEFAULT '',
		featured_scientific TEXT NOT NULL DEFAULT '',
		last_sung_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS common_ledger (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		twigs INTEGER NOT NULL DEFAULT 0,
		seeds INTEGER NOT NULL DEFAULT 0
	);
	INSERT OR IGNORE INTO common_ledger (id, twigs, seeds) VALUES (1, 0, 0);

	CREATE TABLE IF NOT EXISTS birds (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		common_name TEXT NOT NULL,
		scientific_name TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_birds_owner ON birds(owner_id);

	CREATE TABLE IF NOT EXISTS plants (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		common_name TEXT NOT NULL,
		scientific_name TEXT NOT NULL,
		planted_date TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_plants_owner ON plants(owner_id);

	CREATE TABLE IF NOT EXISTS eggs (
		owner_id TEXT PRIMARY KEY,
		progress INTEGER NOT NULL DEFAULT 0,
		brooded_by_json TEXT NOT NULL DEFAULT '[]',
		brood_day TEXT NOT NULL DEFAULT '',
		multipliers_json TEXT NOT NULL DEFAULT '{}',
		protected INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS daily_actions (
		player_id TEXT NOT NULL,
		day TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		history_json TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (player_id, day)
	);

	CREATE TABLE IF NOT EXISTS daily_songs (
		day TEXT NOT NULL,
		singer TEXT NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (day, singer, target)
	);

	CREATE TABLE IF NOT EXISTS daily_broods (
		day TEXT NOT NULL,
		brooder TEXT NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (day, brooder, target)
	);

	CREATE TABLE IF NOT EXISTS manifested_species (
		scientific_name TEXT PRIMARY KEY,
		common_name TEXT NOT NULL,
		rarity TEXT NOT NULL,
		points INTEGER NOT NULL DEFAULT 0,
		fully_manifested INTEGER NOT NULL DEFAULT 0,
		iconic_taxon TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS adversary (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL,
		resilience INTEGER NOT NULL,
		max_resilience INTEGER NOT NULL,
		tier INTEGER NOT NULL,
		spawned_on TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS defeated_adversaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		max_resilience INTEGER NOT NULL,
		date TEXT NOT NULL,
		blessing TEXT NOT NULL,
		amount INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS research (
		author TEXT PRIMARY KEY,
		points INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exploration (
		region TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS memoirs (
		player_id TEXT NOT NULL,
		day TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (player_id, day)
	);

	CREATE TABLE IF NOT EXISTS realm_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day TEXT NOT NULL,
		text TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS player_treasures (
		player_id TEXT NOT NULL,
		treasure_id TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (player_id, treasure_id)
	);

	CREATE TABLE IF NOT EXISTS placements (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		treasure_id TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		rotation REAL NOT NULL,
		size REAL NOT NULL,
		z_index INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_placements_entity ON placements(entity_type, entity_id);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}
