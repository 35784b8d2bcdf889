package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voyago/tripsync/internal/models"
)

const participantCols = "id, trip_id, name, email, role, server_id, created_at, updated_at, is_synced"

func scanParticipant(row interface{ Scan(...any) error }) (models.Participant, error) {
	var p models.Participant
	var sid sql.NullString
	err := row.Scan(&p.LocalID, &p.TripID, &p.Name, &p.Email, &p.Role,
		&sid, &p.CreatedAt, &p.UpdatedAt, &p.IsSynced)
	p.ServerID = fromNull(sid)
	return p, err
}

// CreateParticipant persists a new participant row.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	ensureMeta(&p.SyncMeta)
	if p.Role == "" {
		p.Role = models.RoleMember
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants ("+participantCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			p.LocalID, p.TripID, p.Name, p.Email, p.Role,
			nullable(p.ServerID), p.CreatedAt, p.UpdatedAt, p.IsSynced,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
		return nil
	})
}

// ListParticipantsByTrip returns all participants of a trip.
func (s *SQLiteStore) ListParticipantsByTrip(ctx context.Context, tripID string) ([]models.Participant, error) {
	return s.queryParticipants(ctx,
		"SELECT "+participantCols+" FROM participants WHERE trip_id = ? ORDER BY name", tripID)
}

// ListPendingParticipants returns participants awaiting push.
func (s *SQLiteStore) ListPendingParticipants(ctx context.Context) ([]models.Participant, error) {
	return s.queryParticipants(ctx,
		"SELECT "+participantCols+" FROM participants WHERE is_synced = 0 AND server_id IS NULL ORDER BY created_at ASC")
}

func (s *SQLiteStore) queryParticipants(ctx context.Context, query string, args ...any) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}
