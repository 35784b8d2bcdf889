package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tripsync-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateTrip(t *testing.T, store *SQLiteStore, name string) *models.Trip {
	t.Helper()
	trip := &models.Trip{Name: name, Currency: "EUR"}
	if err := store.CreateTrip(context.Background(), trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return trip
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateTrip assigns local id and timestamps", func(t *testing.T) {
		trip := &models.Trip{Name: "Paris Weekend", Destination: "Paris", Currency: "EUR"}
		if err := store.CreateTrip(ctx, trip); err != nil {
			t.Fatalf("CreateTrip failed: %v", err)
		}

		if trip.LocalID == "" {
			t.Error("Expected local ID to be generated")
		}
		if trip.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if trip.IsSynced {
			t.Error("Expected new trip to start unsynced")
		}

		retrieved, err := store.GetTrip(ctx, trip.LocalID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if retrieved.Name != trip.Name {
			t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, trip.Name)
		}
		if retrieved.Currency != "EUR" {
			t.Errorf("Currency mismatch: got %s, want EUR", retrieved.Currency)
		}
	})

	t.Run("GetTrip returns ErrNotFound for unknown id", func(t *testing.T) {
		_, err := store.GetTrip(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListPendingTrips excludes synced rows", func(t *testing.T) {
		pendingTrip := mustCreateTrip(t, store, "Pending Trip")
		syncedTrip := mustCreateTrip(t, store, "Synced Trip")
		if err := store.MarkSynced(ctx, models.EntityTrip, syncedTrip.LocalID, "srv-synced-1"); err != nil {
			t.Fatalf("MarkSynced failed: %v", err)
		}

		pending, err := store.ListPendingTrips(ctx)
		if err != nil {
			t.Fatalf("ListPendingTrips failed: %v", err)
		}

		foundPending, foundSynced := false, false
		for _, tr := range pending {
			if tr.LocalID == pendingTrip.LocalID {
				foundPending = true
			}
			if tr.LocalID == syncedTrip.LocalID {
				foundSynced = true
			}
		}
		if !foundPending {
			t.Error("Expected unsynced trip in pending list")
		}
		if foundSynced {
			t.Error("Did not expect synced trip in pending list")
		}
	})

	t.Run("MarkSynced assigns server id exactly once", func(t *testing.T) {
		trip := mustCreateTrip(t, store, "Mark Synced Trip")

		if err := store.MarkSynced(ctx, models.EntityTrip, trip.LocalID, "srv-1"); err != nil {
			t.Fatalf("MarkSynced failed: %v", err)
		}

		sid, err := store.ServerID(ctx, models.EntityTrip, trip.LocalID)
		if err != nil {
			t.Fatalf("ServerID failed: %v", err)
		}
		if sid != "srv-1" {
			t.Errorf("ServerID = %s, want srv-1", sid)
		}

		// Same id again is a no-op.
		if err := store.MarkSynced(ctx, models.EntityTrip, trip.LocalID, "srv-1"); err != nil {
			t.Errorf("Re-marking with same id should succeed, got %v", err)
		}

		// A different id is a refused reassignment.
		if err := store.MarkSynced(ctx, models.EntityTrip, trip.LocalID, "srv-2"); err == nil {
			t.Error("Expected error when reassigning server id")
		}
	})

	t.Run("MarkSynced rejects empty server id", func(t *testing.T) {
		trip := mustCreateTrip(t, store, "Empty SID Trip")
		if err := store.MarkSynced(ctx, models.EntityTrip, trip.LocalID, ""); err == nil {
			t.Error("Expected error for empty server id")
		}
	})

	t.Run("LocalIDByServerID resolves pulled records", func(t *testing.T) {
		trip := &models.Trip{
			SyncMeta: models.SyncMeta{ServerID: "srv-pulled-1", IsSynced: true},
			Name:     "Pulled Trip",
		}
		if err := store.CreateTrip(ctx, trip); err != nil {
			t.Fatalf("CreateTrip failed: %v", err)
		}

		localID, err := store.LocalIDByServerID(ctx, models.EntityTrip, "srv-pulled-1")
		if err != nil {
			t.Fatalf("LocalIDByServerID failed: %v", err)
		}
		if localID != trip.LocalID {
			t.Errorf("LocalIDByServerID = %s, want %s", localID, trip.LocalID)
		}

		_, err = store.LocalIDByServerID(ctx, models.EntityTrip, "srv-unknown")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unknown server id, got %v", err)
		}
	})

	t.Run("Duplicate server id insert is rejected", func(t *testing.T) {
		first := &models.Trip{
			SyncMeta: models.SyncMeta{ServerID: "srv-dup", IsSynced: true},
			Name:     "First Copy",
		}
		if err := store.CreateTrip(ctx, first); err != nil {
			t.Fatalf("CreateTrip failed: %v", err)
		}

		second := &models.Trip{
			SyncMeta: models.SyncMeta{ServerID: "srv-dup", IsSynced: true},
			Name:     "Second Copy",
		}
		if err := store.CreateTrip(ctx, second); err == nil {
			t.Error("Expected unique constraint violation for duplicate server id")
		}
	})

	t.Run("UpdateTrip resets sync flag", func(t *testing.T) {
		trip := mustCreateTrip(t, store, "Editable Trip")
		if err := store.MarkSynced(ctx, models.EntityTrip, trip.LocalID, "srv-edit-1"); err != nil {
			t.Fatalf("MarkSynced failed: %v", err)
		}

		trip.Name = "Renamed Trip"
		if err := store.UpdateTrip(ctx, trip); err != nil {
			t.Fatalf("UpdateTrip failed: %v", err)
		}

		retrieved, err := store.GetTrip(ctx, trip.LocalID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if retrieved.Name != "Renamed Trip" {
			t.Errorf("Name = %s, want Renamed Trip", retrieved.Name)
		}
		if retrieved.IsSynced {
			t.Error("Expected edit to reset IsSynced")
		}
		if retrieved.ServerID != "srv-edit-1" {
			t.Error("Expected edit to keep the server id")
		}
	})

	t.Run("Participants belong to their trip", func(t *testing.T) {
		trip := mustCreateTrip(t, store, "Group Trip")
		other := mustCreateTrip(t, store, "Other Trip")

		alice := &models.Participant{TripID: trip.LocalID, Name: "Alice", Role: models.RoleOrganizer}
		bob := &models.Participant{TripID: trip.LocalID, Name: "Bob", Role: models.RoleMember}
		carol := &models.Participant{TripID: other.LocalID, Name: "Carol", Role: models.RoleMember}
		for _, p := range []*models.Participant{alice, bob, carol} {
			if err := store.CreateParticipant(ctx, p); err != nil {
				t.Fatalf("CreateParticipant failed: %v", err)
			}
		}

		members, err := store.ListParticipantsByTrip(ctx, trip.LocalID)
		if err != nil {
			t.Fatalf("ListParticipantsByTrip failed: %v", err)
		}
		if len(members) != 2 {
			t.Errorf("Expected 2 participants, got %d", len(members))
		}
	})

	t.Run("CreateParticipant enforces trip foreign key", func(t *testing.T) {
		p := &models.Participant{TripID: "no-such-trip", Name: "Ghost"}
		if err := store.CreateParticipant(ctx, p); err == nil {
			t.Error("Expected foreign key violation for unknown trip")
		}
	})

	t.Run("Message read receipts", func(t *testing.T) {
		trip := mustCreateTrip(t, store, "Chat Trip")
		author := &models.Participant{TripID: trip.LocalID, Name: "Dan"}
		if err := store.CreateParticipant(ctx, author); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}
		msg := &models.Message{TripID: trip.LocalID, AuthorID: author.LocalID, Body: "hello", SentAt: 1700000000}
		if err := store.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}

		read := models.MessageRead{MessageID: msg.LocalID, ParticipantID: author.LocalID, ReadAt: 1700000100}
		if err := store.MarkMessageRead(ctx, read); err != nil {
			t.Fatalf("MarkMessageRead failed: %v", err)
		}
		// Marking twice is idempotent.
		if err := store.MarkMessageRead(ctx, read); err != nil {
			t.Errorf("Second MarkMessageRead should be a no-op, got %v", err)
		}

		reads, err := store.ListMessageReads(ctx, msg.LocalID)
		if err != nil {
			t.Fatalf("ListMessageReads failed: %v", err)
		}
		if len(reads) != 1 {
			t.Errorf("Expected 1 read receipt, got %d", len(reads))
		}
	})

	t.Run("Expense splits and pending queries", func(t *testing.T) {
		trip := mustCreateTrip(t, store, "Expense Trip")
		payer := &models.Participant{TripID: trip.LocalID, Name: "Eve"}
		if err := store.CreateParticipant(ctx, payer); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}

		expense := &models.Expense{
			TripID:      trip.LocalID,
			PaidByID:    payer.LocalID,
			Description: "Dinner",
			Amount:      4500,
			Currency:    "EUR",
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		split := &models.ExpenseSplit{ExpenseID: expense.LocalID, ParticipantID: payer.LocalID, Amount: 4500}
		if err := store.CreateExpenseSplit(ctx, split); err != nil {
			t.Fatalf("CreateExpenseSplit failed: %v", err)
		}

		splits, err := store.ListSplitsByExpense(ctx, expense.LocalID)
		if err != nil {
			t.Fatalf("ListSplitsByExpense failed: %v", err)
		}
		if len(splits) != 1 || splits[0].Amount != 4500 {
			t.Errorf("Unexpected splits: %+v", splits)
		}

		pending, err := store.ListPendingExpenseSplits(ctx)
		if err != nil {
			t.Fatalf("ListPendingExpenseSplits failed: %v", err)
		}
		found := false
		for _, sp := range pending {
			if sp.LocalID == split.LocalID {
				found = true
			}
		}
		if !found {
			t.Error("Expected new split in pending list")
		}
	})

	t.Run("SyncedServerIDs returns only assigned ids", func(t *testing.T) {
		fresh := newTestStore(t)
		mustCreateTrip(t, fresh, "Unsynced")
		s1 := mustCreateTrip(t, fresh, "Synced One")
		s2 := mustCreateTrip(t, fresh, "Synced Two")
		for i, tr := range []*models.Trip{s1, s2} {
			sid := []string{"srv-a", "srv-b"}[i]
			if err := fresh.MarkSynced(ctx, models.EntityTrip, tr.LocalID, sid); err != nil {
				t.Fatalf("MarkSynced failed: %v", err)
			}
		}

		ids, err := fresh.SyncedServerIDs(ctx, models.EntityTrip)
		if err != nil {
			t.Fatalf("SyncedServerIDs failed: %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("Expected 2 server ids, got %d: %v", len(ids), ids)
		}
	})

	t.Run("LastSync round trip", func(t *testing.T) {
		fresh := newTestStore(t)

		ts, err := fresh.LastSync(ctx)
		if err != nil {
			t.Fatalf("LastSync failed: %v", err)
		}
		if ts != 0 {
			t.Errorf("Expected zero before first cycle, got %d", ts)
		}

		if err := fresh.SetLastSync(ctx, 1700000000); err != nil {
			t.Fatalf("SetLastSync failed: %v", err)
		}
		if err := fresh.SetLastSync(ctx, 1700000500); err != nil {
			t.Fatalf("SetLastSync upsert failed: %v", err)
		}

		ts, err = fresh.LastSync(ctx)
		if err != nil {
			t.Fatalf("LastSync failed: %v", err)
		}
		if ts != 1700000500 {
			t.Errorf("LastSync = %d, want 1700000500", ts)
		}
	})

	t.Run("Ready channel is closed after New", func(t *testing.T) {
		select {
		case <-store.Ready():
		default:
			t.Error("Expected Ready channel to be closed")
		}
	})
}
