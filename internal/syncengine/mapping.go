package syncengine

import (
	"context"

	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
)

// Field mappers between local models and wire payloads. Parent references
// are translated between local ids and server ids at this boundary and
// nowhere else.
//
// Secondary references (message author, expense payer, split participant)
// are resolved best-effort: a record may legitimately point at a sibling
// that has not synced yet, in which case the reference is sent or stored
// empty and the server/state converges on a later cycle.

func tripToRemote(t models.Trip) gateway.Trip {
	return gateway.Trip{
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Currency:    t.Currency,
	}
}

func tripFromRemote(r gateway.Trip) models.Trip {
	return models.Trip{
		SyncMeta:    pulledMeta(r.ID),
		Name:        r.Name,
		Destination: r.Destination,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Currency:    r.Currency,
	}
}

func participantToRemote(p models.Participant, tripSID string) gateway.Participant {
	return gateway.Participant{
		TripID: tripSID,
		Name:   p.Name,
		Email:  p.Email,
		Role:   p.Role,
	}
}

func participantFromRemote(r gateway.Participant, tripID string) models.Participant {
	return models.Participant{
		SyncMeta: pulledMeta(r.ID),
		TripID:   tripID,
		Name:     r.Name,
		Email:    r.Email,
		Role:     r.Role,
	}
}

func itineraryToRemote(it models.ItineraryItem, tripSID string) gateway.ItineraryItem {
	return gateway.ItineraryItem{
		TripID:   tripSID,
		Day:      it.Day,
		Title:    it.Title,
		Location: it.Location,
		StartsAt: it.StartsAt,
		Notes:    it.Notes,
	}
}

func itineraryFromRemote(r gateway.ItineraryItem, tripID string) models.ItineraryItem {
	return models.ItineraryItem{
		SyncMeta: pulledMeta(r.ID),
		TripID:   tripID,
		Day:      r.Day,
		Title:    r.Title,
		Location: r.Location,
		StartsAt: r.StartsAt,
		Notes:    r.Notes,
	}
}

func messageToRemote(ctx context.Context, st storage.Store, m models.Message, tripSID string) gateway.Message {
	return gateway.Message{
		TripID:   tripSID,
		AuthorID: serverIDOrEmpty(ctx, st, models.EntityParticipant, m.AuthorID),
		Body:     m.Body,
		SentAt:   m.SentAt,
	}
}

func messageFromRemote(ctx context.Context, st storage.Store, r gateway.Message, tripID string) models.Message {
	return models.Message{
		SyncMeta: pulledMeta(r.ID),
		TripID:   tripID,
		AuthorID: localIDOrEmpty(ctx, st, models.EntityParticipant, r.AuthorID),
		Body:     r.Body,
		SentAt:   r.SentAt,
	}
}

func expenseToRemote(ctx context.Context, st storage.Store, e models.Expense, tripSID string) gateway.Expense {
	return gateway.Expense{
		TripID:      tripSID,
		PaidByID:    serverIDOrEmpty(ctx, st, models.EntityParticipant, e.PaidByID),
		Description: e.Description,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Category:    e.Category,
	}
}

func expenseFromRemote(ctx context.Context, st storage.Store, r gateway.Expense, tripID string) models.Expense {
	return models.Expense{
		SyncMeta:    pulledMeta(r.ID),
		TripID:      tripID,
		PaidByID:    localIDOrEmpty(ctx, st, models.EntityParticipant, r.PaidByID),
		Description: r.Description,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Category:    r.Category,
	}
}

func splitToRemote(ctx context.Context, st storage.Store, sp models.ExpenseSplit, expenseSID string) gateway.ExpenseSplit {
	return gateway.ExpenseSplit{
		ExpenseID:     expenseSID,
		ParticipantID: serverIDOrEmpty(ctx, st, models.EntityParticipant, sp.ParticipantID),
		Amount:        sp.Amount,
		Settled:       sp.Settled,
	}
}

func splitFromRemote(ctx context.Context, st storage.Store, r gateway.ExpenseSplit, expenseID string) models.ExpenseSplit {
	return models.ExpenseSplit{
		SyncMeta:      pulledMeta(r.ID),
		ExpenseID:     expenseID,
		ParticipantID: localIDOrEmpty(ctx, st, models.EntityParticipant, r.ParticipantID),
		Amount:        r.Amount,
		Settled:       r.Settled,
	}
}

func documentToRemote(d models.Document, tripSID string) gateway.Document {
	return gateway.Document{
		TripID:    tripSID,
		Name:      d.Name,
		MimeType:  d.MimeType,
		SizeBytes: d.SizeBytes,
		RemoteURL: d.RemoteURL,
	}
}

func documentFromRemote(r gateway.Document, tripID string) models.Document {
	return models.Document{
		SyncMeta:  pulledMeta(r.ID),
		TripID:    tripID,
		Name:      r.Name,
		MimeType:  r.MimeType,
		SizeBytes: r.SizeBytes,
		RemoteURL: r.RemoteURL,
	}
}

// pulledMeta is the metadata for a row inserted from a pull: confirmed by
// the server from the start.
func pulledMeta(serverID string) models.SyncMeta {
	return models.SyncMeta{ServerID: serverID, IsSynced: true}
}

func serverIDOrEmpty(ctx context.Context, st storage.Store, entity models.EntityType, localID string) string {
	if localID == "" {
		return ""
	}
	sid, err := st.ServerID(ctx, entity, localID)
	if err != nil {
		return ""
	}
	return sid
}

func localIDOrEmpty(ctx context.Context, st storage.Store, entity models.EntityType, serverID string) string {
	if serverID == "" {
		return ""
	}
	id, err := st.LocalIDByServerID(ctx, entity, serverID)
	if err != nil {
		return ""
	}
	return id
}
