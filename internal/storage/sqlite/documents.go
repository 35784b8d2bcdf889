package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voyago/tripsync/internal/models"
)

const documentCols = "id, trip_id, name, mime_type, size_bytes, remote_url, server_id, created_at, updated_at, is_synced"

func scanDocument(row interface{ Scan(...any) error }) (models.Document, error) {
	var d models.Document
	var sid sql.NullString
	err := row.Scan(&d.LocalID, &d.TripID, &d.Name, &d.MimeType, &d.SizeBytes,
		&d.RemoteURL, &sid, &d.CreatedAt, &d.UpdatedAt, &d.IsSynced)
	d.ServerID = fromNull(sid)
	return d, err
}

// CreateDocument persists a new document metadata row.
func (s *SQLiteStore) CreateDocument(ctx context.Context, d *models.Document) error {
	ensureMeta(&d.SyncMeta)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO documents ("+documentCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			d.LocalID, d.TripID, d.Name, d.MimeType, d.SizeBytes, d.RemoteURL,
			nullable(d.ServerID), d.CreatedAt, d.UpdatedAt, d.IsSynced,
		)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		return nil
	})
}

// ListDocumentsByTrip returns a trip's documents by name.
func (s *SQLiteStore) ListDocumentsByTrip(ctx context.Context, tripID string) ([]models.Document, error) {
	return s.queryDocuments(ctx,
		"SELECT "+documentCols+" FROM documents WHERE trip_id = ? ORDER BY name", tripID)
}

// ListPendingDocuments returns documents awaiting push.
func (s *SQLiteStore) ListPendingDocuments(ctx context.Context) ([]models.Document, error) {
	return s.queryDocuments(ctx,
		"SELECT "+documentCols+" FROM documents WHERE is_synced = 0 AND server_id IS NULL ORDER BY created_at ASC")
}

func (s *SQLiteStore) queryDocuments(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}
