// Package storage provides abstractions for the device-local persistent store.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/voyago/tripsync/internal/models"
)

// ErrNotFound is returned when a requested record does not exist locally.
var ErrNotFound = errors.New("record not found")

// UnavailableError reports that the local store could not be reached even
// after the bounded retry policy was exhausted. Callers are expected to
// degrade gracefully: read paths return empty results, write paths leave
// the record queued for a later attempt.
type UnavailableError struct {
	// OfflineMode is true when the caller should fall back to
	// queued-write / empty-read behavior instead of surfacing a failure.
	OfflineMode bool

	// Err is the last underlying storage error, if any.
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage unavailable: %v", e.Err)
	}
	return "storage unavailable"
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// Store defines the interface for the local mirrored store.
// This abstraction allows swapping storage backends (SQLite today)
// without changing the sync engine or the service layer.
//
// Create methods assign LocalID, CreatedAt and UpdatedAt when unset and
// persist ServerID/IsSynced exactly as given, so the same methods serve
// both optimistic local creation (empty ServerID, IsSynced=false) and
// inserts of pulled remote records (ServerID set, IsSynced=true).
type Store interface {
	// Trips.
	CreateTrip(ctx context.Context, t *models.Trip) error
	GetTrip(ctx context.Context, localID string) (*models.Trip, error)
	ListTrips(ctx context.Context) ([]models.Trip, error)
	ListPendingTrips(ctx context.Context) ([]models.Trip, error)
	UpdateTrip(ctx context.Context, t *models.Trip) error

	// Participants.
	CreateParticipant(ctx context.Context, p *models.Participant) error
	ListParticipantsByTrip(ctx context.Context, tripID string) ([]models.Participant, error)
	ListPendingParticipants(ctx context.Context) ([]models.Participant, error)

	// Itinerary items.
	CreateItineraryItem(ctx context.Context, it *models.ItineraryItem) error
	ListItineraryByTrip(ctx context.Context, tripID string) ([]models.ItineraryItem, error)
	ListPendingItineraryItems(ctx context.Context) ([]models.ItineraryItem, error)

	// Messages and read receipts.
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessagesByTrip(ctx context.Context, tripID string) ([]models.Message, error)
	ListPendingMessages(ctx context.Context) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, r models.MessageRead) error
	ListMessageReads(ctx context.Context, messageID string) ([]models.MessageRead, error)

	// Expenses and splits.
	CreateExpense(ctx context.Context, e *models.Expense) error
	ListExpensesByTrip(ctx context.Context, tripID string) ([]models.Expense, error)
	ListPendingExpenses(ctx context.Context) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	CreateExpenseSplit(ctx context.Context, s *models.ExpenseSplit) error
	ListSplitsByExpense(ctx context.Context, expenseID string) ([]models.ExpenseSplit, error)
	ListPendingExpenseSplits(ctx context.Context) ([]models.ExpenseSplit, error)

	// Documents.
	CreateDocument(ctx context.Context, d *models.Document) error
	ListDocumentsByTrip(ctx context.Context, tripID string) ([]models.Document, error)
	ListPendingDocuments(ctx context.Context) ([]models.Document, error)

	// Sync bookkeeping, generic across entity tables.

	// MarkSynced assigns serverID to the row and sets is_synced.
	// Server ids are assigned exactly once; marking an already-synced row
	// with a different id is an error.
	MarkSynced(ctx context.Context, entity models.EntityType, localID, serverID string) error

	// ServerID returns the server id of a row, or "" if unassigned.
	ServerID(ctx context.Context, entity models.EntityType, localID string) (string, error)

	// LocalIDByServerID resolves a server id to a local id.
	// Returns ErrNotFound when no local row mirrors that server record.
	LocalIDByServerID(ctx context.Context, entity models.EntityType, serverID string) (string, error)

	// SyncedServerIDs returns the server ids of every row of the entity
	// type that has one, in creation order. Pull phases enumerate child
	// collections per known parent with this.
	SyncedServerIDs(ctx context.Context, entity models.EntityType) ([]string, error)

	// LastSync returns the Unix timestamp of the last completed cycle,
	// or zero if no cycle has completed yet.
	LastSync(ctx context.Context) (int64, error)
	SetLastSync(ctx context.Context, ts int64) error

	// Ready is closed once the store has finished initializing (schema
	// migrated, connection verified). Retry wrappers block on this
	// instead of polling.
	Ready() <-chan struct{}

	// Close releases any resources held by the store.
	Close() error
}
