// Package store persists entities, the outbound sync queue, and open
// conflicts in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/sync"
)

// SQLite is the on-disk store. It implements both sync.Store and
// sync.EntityStore.
type SQLite struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing tables: %w", err)
	}
	return s, nil
}

func (s *SQLite) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			id TEXT NOT NULL,
			type TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (type, id)
		);

		CREATE TABLE IF NOT EXISTS queue (
			position INTEGER NOT NULL,
			id TEXT NOT NULL PRIMARY KEY,
			data TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS conflicts (
			id TEXT NOT NULL PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			detected_at DATETIME NOT NULL,
			data TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);
		CREATE INDEX IF NOT EXISTS idx_conflicts_entity ON conflicts(entity_type, entity_id);
	`)
	return err
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// List returns all entities of the given type.
func (s *SQLite) List(ctx context.Context, t model.EntityType) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM entities WHERE type = ? ORDER BY updated_at DESC", string(t))
	if err != nil {
		return nil, fmt.Errorf("listing %s entities: %w", t, err)
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		var snap model.Snapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return nil, fmt.Errorf("decoding entity: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Get returns one entity by type and id. The second return value reports
// whether it exists.
func (s *SQLite) Get(ctx context.Context, t model.EntityType, id string) (model.Snapshot, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM entities WHERE type = ? AND id = ?", string(t), id).Scan(&data)
	if err == sql.ErrNoRows {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("loading entity %s: %w", id, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("decoding entity %s: %w", id, err)
	}
	return snap, true, nil
}

// Add inserts a new entity.
func (s *SQLite) Add(ctx context.Context, snap model.Snapshot) error {
	return s.upsert(ctx, snap)
}

// Update writes back a changed entity.
func (s *SQLite) Update(ctx context.Context, snap model.Snapshot) error {
	return s.upsert(ctx, snap)
}

func (s *SQLite) upsert(ctx context.Context, snap model.Snapshot) error {
	if snap.IsZero() || snap.EntityID() == "" {
		return fmt.Errorf("cannot store an empty entity")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding entity %s: %w", snap.EntityID(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, type, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, snap.EntityID(), string(snap.Type), string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing entity %s: %w", snap.EntityID(), err)
	}
	return nil
}

// Delete removes an entity.
func (s *SQLite) Delete(ctx context.Context, t model.EntityType, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM entities WHERE type = ? AND id = ?", string(t), id)
	if err != nil {
		return fmt.Errorf("deleting entity %s: %w", id, err)
	}
	return nil
}

// LoadQueue restores the outbound queue in its persisted order.
func (s *SQLite) LoadQueue() ([]sync.Item, error) {
	rows, err := s.db.Query("SELECT data FROM queue ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("loading queue: %w", err)
	}
	defer rows.Close()

	var items []sync.Item
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning queue row: %w", err)
		}
		var item sync.Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, fmt.Errorf("decoding queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveQueue replaces the persisted queue with the given items, preserving
// their order.
func (s *SQLite) SaveQueue(items []sync.Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving queue: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM queue"); err != nil {
		return fmt.Errorf("clearing queue: %w", err)
	}
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding queue item %s: %w", item.ID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO queue (position, id, data) VALUES (?, ?, ?)",
			i, item.ID, string(data)); err != nil {
			return fmt.Errorf("storing queue item %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// LoadConflicts restores the persisted open conflicts ordered by
// detection time.
func (s *SQLite) LoadConflicts() ([]*sync.Conflict, error) {
	rows, err := s.db.Query("SELECT data FROM conflicts ORDER BY detected_at ASC")
	if err != nil {
		return nil, fmt.Errorf("loading conflicts: %w", err)
	}
	defer rows.Close()

	var out []*sync.Conflict
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning conflict row: %w", err)
		}
		var c sync.Conflict
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decoding conflict: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// SaveConflict stores or replaces one conflict record.
func (s *SQLite) SaveConflict(c *sync.Conflict) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding conflict %s: %w", c.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO conflicts (id, entity_type, entity_id, detected_at, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data
	`, c.ID, string(c.EntityType), c.EntityID, c.DetectedAt.UTC().Format(time.RFC3339), string(data))
	if err != nil {
		return fmt.Errorf("storing conflict %s: %w", c.ID, err)
	}
	return nil
}

// DeleteConflict removes a conflict record.
func (s *SQLite) DeleteConflict(id string) error {
	if _, err := s.db.Exec("DELETE FROM conflicts WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting conflict %s: %w", id, err)
	}
	return nil
}
