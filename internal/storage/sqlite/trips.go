package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
)

const tripCols = "id, name, destination, start_date, end_date, currency, server_id, created_at, updated_at, is_synced"

func scanTrip(row interface{ Scan(...any) error }) (models.Trip, error) {
	var t models.Trip
	var sid sql.NullString
	err := row.Scan(&t.LocalID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate,
		&t.Currency, &sid, &t.CreatedAt, &t.UpdatedAt, &t.IsSynced)
	t.ServerID = fromNull(sid)
	return t, err
}

// CreateTrip persists a new trip row. LocalID, CreatedAt and UpdatedAt are
// assigned when unset; ServerID and IsSynced are written as given.
func (s *SQLiteStore) CreateTrip(ctx context.Context, t *models.Trip) error {
	ensureMeta(&t.SyncMeta)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO trips ("+tripCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			t.LocalID, t.Name, t.Destination, t.StartDate, t.EndDate, t.Currency,
			nullable(t.ServerID), t.CreatedAt, t.UpdatedAt, t.IsSynced,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip: %w", err)
		}
		return nil
	})
}

// GetTrip retrieves a trip by its local id.
func (s *SQLiteStore) GetTrip(ctx context.Context, localID string) (*models.Trip, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+tripCols+" FROM trips WHERE id = ?", localID)
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s: %w", localID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &t, nil
}

// ListTrips returns all locally known trips, newest first.
func (s *SQLiteStore) ListTrips(ctx context.Context) ([]models.Trip, error) {
	return s.queryTrips(ctx, "SELECT "+tripCols+" FROM trips ORDER BY created_at DESC")
}

// ListPendingTrips returns trips awaiting push (is_synced = 0), oldest
// first so server ids are assigned in creation order.
func (s *SQLiteStore) ListPendingTrips(ctx context.Context) ([]models.Trip, error) {
	return s.queryTrips(ctx, "SELECT "+tripCols+" FROM trips WHERE is_synced = 0 AND server_id IS NULL ORDER BY created_at ASC")
}

func (s *SQLiteStore) queryTrips(ctx context.Context, query string, args ...any) ([]models.Trip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

// UpdateTrip rewrites a trip's domain fields. The edit resets is_synced so
// the row becomes eligible for the next push phase.
func (s *SQLiteStore) UpdateTrip(ctx context.Context, t *models.Trip) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE trips SET name = ?, destination = ?, start_date = ?, end_date = ?,
			 currency = ?, updated_at = ?, is_synced = 0 WHERE id = ?`,
			t.Name, t.Destination, t.StartDate, t.EndDate, t.Currency,
			time.Now().Unix(), t.LocalID,
		)
		if err != nil {
			return fmt.Errorf("failed to update trip: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("trip %s: %w", t.LocalID, storage.ErrNotFound)
		}
		t.IsSynced = false
		return nil
	})
}
