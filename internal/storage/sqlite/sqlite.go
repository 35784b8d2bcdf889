// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// tables maps entity types to their table names. Only names from this map
// are ever interpolated into SQL.
var tables = map[models.EntityType]string{
	models.EntityTrip:          "trips",
	models.EntityParticipant:   "participants",
	models.EntityItineraryItem: "itinerary_items",
	models.EntityMessage:       "messages",
	models.EntityExpense:       "expenses",
	models.EntityExpenseSplit:  "expense_splits",
	models.EntityDocument:      "documents",
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	ready chan struct{}
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
// The returned store's Ready channel is already closed.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	ready := make(chan struct{})
	close(ready)
	return &SQLiteStore{db: db, ready: ready}, nil
}

// Ready reports initialization completion. New initializes synchronously,
// so the channel is closed before the store is handed out.
func (s *SQLiteStore) Ready() <-chan struct{} {
	return s.ready
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction. Any error rolls back, leaving no
// partial writes.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ensureMeta populates store-assigned fields on first insert.
func ensureMeta(m *models.SyncMeta) {
	if m.LocalID == "" {
		m.LocalID = uuid.New().String()
	}
	now := time.Now().Unix()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	if m.UpdatedAt == 0 {
		m.UpdatedAt = now
	}
}

// nullable maps "" to NULL so the partial unique index on server_id only
// sees genuinely assigned ids.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func tableFor(entity models.EntityType) (string, error) {
	table, ok := tables[entity]
	if !ok {
		return "", fmt.Errorf("unknown entity type: %s", entity)
	}
	return table, nil
}

// MarkSynced assigns serverID to a row and flips is_synced. Server ids are
// assigned exactly once; re-marking with the same id is a harmless no-op,
// re-marking with a different id is an error.
func (s *SQLiteStore) MarkSynced(ctx context.Context, entity models.EntityType, localID, serverID string) error {
	table, err := tableFor(entity)
	if err != nil {
		return err
	}
	if serverID == "" {
		return fmt.Errorf("cannot mark %s %s synced without a server id", entity, localID)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var existing sql.NullString
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT server_id FROM %s WHERE id = ?", table), localID,
		).Scan(&existing)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%s %s: %w", entity, localID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read server id: %w", err)
		}
		if existing.Valid && existing.String != serverID {
			return fmt.Errorf("%s %s already has server id %s, refusing to reassign to %s",
				entity, localID, existing.String, serverID)
		}

		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET server_id = ?, is_synced = 1, updated_at = ? WHERE id = ?", table),
			serverID, time.Now().Unix(), localID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark %s synced: %w", entity, err)
		}
		return nil
	})
}

// ServerID returns the server id of a row, or "" if unassigned.
func (s *SQLiteStore) ServerID(ctx context.Context, entity models.EntityType, localID string) (string, error) {
	table, err := tableFor(entity)
	if err != nil {
		return "", err
	}

	var sid sql.NullString
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT server_id FROM %s WHERE id = ?", table), localID,
	).Scan(&sid)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s %s: %w", entity, localID, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read server id: %w", err)
	}
	return fromNull(sid), nil
}

// LocalIDByServerID resolves a server id to a local row id.
func (s *SQLiteStore) LocalIDByServerID(ctx context.Context, entity models.EntityType, serverID string) (string, error) {
	table, err := tableFor(entity)
	if err != nil {
		return "", err
	}

	var id string
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE server_id = ?", table), serverID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve server id: %w", err)
	}
	return id, nil
}

// SyncedServerIDs returns the server ids of all rows that have one.
func (s *SQLiteStore) SyncedServerIDs(ctx context.Context, entity models.EntityType) ([]string, error) {
	table, err := tableFor(entity)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT server_id FROM %s WHERE server_id IS NOT NULL ORDER BY created_at", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query synced %s rows: %w", entity, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan server id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate server ids: %w", err)
	}
	return ids, nil
}

const lastSyncKey = "last_sync"

// LastSync returns the Unix timestamp of the last completed sync cycle.
func (s *SQLiteStore) LastSync(ctx context.Context) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM sync_state WHERE key = ?", lastSyncKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read last sync: %w", err)
	}
	return value, nil
}

// SetLastSync records the completion time of a sync cycle.
func (s *SQLiteStore) SetLastSync(ctx context.Context, ts int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sync_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		lastSyncKey, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to record last sync: %w", err)
	}
	return nil
}
