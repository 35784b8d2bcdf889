package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voyago/tripsync/internal/models"
)

const itineraryCols = "id, trip_id, day, title, location, starts_at, notes, server_id, created_at, updated_at, is_synced"

func scanItineraryItem(row interface{ Scan(...any) error }) (models.ItineraryItem, error) {
	var it models.ItineraryItem
	var sid sql.NullString
	err := row.Scan(&it.LocalID, &it.TripID, &it.Day, &it.Title, &it.Location,
		&it.StartsAt, &it.Notes, &sid, &it.CreatedAt, &it.UpdatedAt, &it.IsSynced)
	it.ServerID = fromNull(sid)
	return it, err
}

// CreateItineraryItem persists a new itinerary item row.
func (s *SQLiteStore) CreateItineraryItem(ctx context.Context, it *models.ItineraryItem) error {
	ensureMeta(&it.SyncMeta)
	if it.Day == 0 {
		it.Day = 1
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO itinerary_items ("+itineraryCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			it.LocalID, it.TripID, it.Day, it.Title, it.Location, it.StartsAt, it.Notes,
			nullable(it.ServerID), it.CreatedAt, it.UpdatedAt, it.IsSynced,
		)
		if err != nil {
			return fmt.Errorf("failed to insert itinerary item: %w", err)
		}
		return nil
	})
}

// ListItineraryByTrip returns a trip's itinerary ordered by day and start time.
func (s *SQLiteStore) ListItineraryByTrip(ctx context.Context, tripID string) ([]models.ItineraryItem, error) {
	return s.queryItineraryItems(ctx,
		"SELECT "+itineraryCols+" FROM itinerary_items WHERE trip_id = ? ORDER BY day, starts_at", tripID)
}

// ListPendingItineraryItems returns itinerary items awaiting push.
func (s *SQLiteStore) ListPendingItineraryItems(ctx context.Context) ([]models.ItineraryItem, error) {
	return s.queryItineraryItems(ctx,
		"SELECT "+itineraryCols+" FROM itinerary_items WHERE is_synced = 0 AND server_id IS NULL ORDER BY created_at ASC")
}

func (s *SQLiteStore) queryItineraryItems(ctx context.Context, query string, args ...any) ([]models.ItineraryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query itinerary items: %w", err)
	}
	defer rows.Close()

	var items []models.ItineraryItem
	for rows.Next() {
		it, err := scanItineraryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan itinerary item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate itinerary items: %w", err)
	}
	return items, nil
}
