package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voyago/tripsync/internal/models"
)

const messageCols = "id, trip_id, author_id, body, sent_at, server_id, created_at, updated_at, is_synced"

func scanMessage(row interface{ Scan(...any) error }) (models.Message, error) {
	var m models.Message
	var sid sql.NullString
	err := row.Scan(&m.LocalID, &m.TripID, &m.AuthorID, &m.Body, &m.SentAt,
		&sid, &m.CreatedAt, &m.UpdatedAt, &m.IsSynced)
	m.ServerID = fromNull(sid)
	return m, err
}

// CreateMessage persists a new message row.
func (s *SQLiteStore) CreateMessage(ctx context.Context, m *models.Message) error {
	ensureMeta(&m.SyncMeta)
	if m.SentAt == 0 {
		m.SentAt = m.CreatedAt
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO messages ("+messageCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			m.LocalID, m.TripID, m.AuthorID, m.Body, m.SentAt,
			nullable(m.ServerID), m.CreatedAt, m.UpdatedAt, m.IsSynced,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
}

// ListMessagesByTrip returns a trip's messages in send order.
func (s *SQLiteStore) ListMessagesByTrip(ctx context.Context, tripID string) ([]models.Message, error) {
	return s.queryMessages(ctx,
		"SELECT "+messageCols+" FROM messages WHERE trip_id = ? ORDER BY sent_at ASC", tripID)
}

// ListPendingMessages returns messages awaiting push.
func (s *SQLiteStore) ListPendingMessages(ctx context.Context) ([]models.Message, error) {
	return s.queryMessages(ctx,
		"SELECT "+messageCols+" FROM messages WHERE is_synced = 0 AND server_id IS NULL ORDER BY created_at ASC")
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// MarkMessageRead records a read receipt. Re-reading the same message is a
// no-op that keeps the original read time.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, r models.MessageRead) error {
	if r.ReadAt == 0 {
		r.ReadAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_reads (message_id, participant_id, read_at) VALUES (?, ?, ?)
		 ON CONFLICT(message_id, participant_id) DO NOTHING`,
		r.MessageID, r.ParticipantID, r.ReadAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record read receipt: %w", err)
	}
	return nil
}

// ListMessageReads returns the read receipts for a message.
func (s *SQLiteStore) ListMessageReads(ctx context.Context, messageID string) ([]models.MessageRead, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT message_id, participant_id, read_at FROM message_reads WHERE message_id = ? ORDER BY read_at",
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query read receipts: %w", err)
	}
	defer rows.Close()

	var reads []models.MessageRead
	for rows.Next() {
		var r models.MessageRead
		if err := rows.Scan(&r.MessageID, &r.ParticipantID, &r.ReadAt); err != nil {
			return nil, fmt.Errorf("failed to scan read receipt: %w", err)
		}
		reads = append(reads, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate read receipts: %w", err)
	}
	return reads, nil
}
