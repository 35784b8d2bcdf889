package syncengine

import (
	"context"
	"log/slog"

	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
	"github.com/voyago/tripsync/internal/storage/retry"
)

// Constructors for the per-entity write-through creators. They reuse the
// same field mappers as the sync policies, so a record looks identical on
// the wire whether it was pushed opportunistically at creation time or by
// a later cycle.

// Deps bundles the collaborators every creator needs.
type Deps struct {
	Store  storage.Store
	Runner *retry.Runner
	GW     gateway.Gateway
	Online func() bool
}

func (d Deps) logger() *slog.Logger { return slog.Default() }

// NewTripCreator builds the write-through creator for trips.
func NewTripCreator(d Deps) *Creator[models.Trip, *models.Trip, gateway.Trip] {
	return &Creator[models.Trip, *models.Trip, gateway.Trip]{
		entity: models.EntityTrip,
		store:  d.Store,
		runner: d.Runner,
		online: d.Online,
		log:    d.logger(),
		toRemote: func(ctx context.Context, t models.Trip, _ string) (gateway.Trip, error) {
			return tripToRemote(t), nil
		},
		create: d.GW.CreateTrip,
		insert: d.Store.CreateTrip,
	}
}

// NewParticipantCreator builds the write-through creator for participants.
func NewParticipantCreator(d Deps) *Creator[models.Participant, *models.Participant, gateway.Participant] {
	return &Creator[models.Participant, *models.Participant, gateway.Participant]{
		entity:       models.EntityParticipant,
		parentEntity: models.EntityTrip,
		store:        d.Store,
		runner:       d.Runner,
		online:       d.Online,
		log:          d.logger(),
		parentLocal:  func(p models.Participant) string { return p.TripID },
		toRemote: func(ctx context.Context, p models.Participant, tripSID string) (gateway.Participant, error) {
			return participantToRemote(p, tripSID), nil
		},
		create: d.GW.CreateParticipant,
		insert: d.Store.CreateParticipant,
	}
}

// NewItineraryItemCreator builds the write-through creator for itinerary items.
func NewItineraryItemCreator(d Deps) *Creator[models.ItineraryItem, *models.ItineraryItem, gateway.ItineraryItem] {
	return &Creator[models.ItineraryItem, *models.ItineraryItem, gateway.ItineraryItem]{
		entity:       models.EntityItineraryItem,
		parentEntity: models.EntityTrip,
		store:        d.Store,
		runner:       d.Runner,
		online:       d.Online,
		log:          d.logger(),
		parentLocal:  func(it models.ItineraryItem) string { return it.TripID },
		toRemote: func(ctx context.Context, it models.ItineraryItem, tripSID string) (gateway.ItineraryItem, error) {
			return itineraryToRemote(it, tripSID), nil
		},
		create: d.GW.CreateItineraryItem,
		insert: d.Store.CreateItineraryItem,
	}
}

// NewMessageCreator builds the write-through creator for messages.
func NewMessageCreator(d Deps) *Creator[models.Message, *models.Message, gateway.Message] {
	return &Creator[models.Message, *models.Message, gateway.Message]{
		entity:       models.EntityMessage,
		parentEntity: models.EntityTrip,
		store:        d.Store,
		runner:       d.Runner,
		online:       d.Online,
		log:          d.logger(),
		parentLocal:  func(m models.Message) string { return m.TripID },
		toRemote: func(ctx context.Context, m models.Message, tripSID string) (gateway.Message, error) {
			return messageToRemote(ctx, d.Store, m, tripSID), nil
		},
		create: d.GW.CreateMessage,
		insert: d.Store.CreateMessage,
	}
}

// NewExpenseCreator builds the write-through creator for expenses.
func NewExpenseCreator(d Deps) *Creator[models.Expense, *models.Expense, gateway.Expense] {
	return &Creator[models.Expense, *models.Expense, gateway.Expense]{
		entity:       models.EntityExpense,
		parentEntity: models.EntityTrip,
		store:        d.Store,
		runner:       d.Runner,
		online:       d.Online,
		log:          d.logger(),
		parentLocal:  func(e models.Expense) string { return e.TripID },
		toRemote: func(ctx context.Context, e models.Expense, tripSID string) (gateway.Expense, error) {
			return expenseToRemote(ctx, d.Store, e, tripSID), nil
		},
		create: d.GW.CreateExpense,
		insert: d.Store.CreateExpense,
	}
}

// NewExpenseSplitCreator builds the write-through creator for splits.
func NewExpenseSplitCreator(d Deps) *Creator[models.ExpenseSplit, *models.ExpenseSplit, gateway.ExpenseSplit] {
	return &Creator[models.ExpenseSplit, *models.ExpenseSplit, gateway.ExpenseSplit]{
		entity:       models.EntityExpenseSplit,
		parentEntity: models.EntityExpense,
		store:        d.Store,
		runner:       d.Runner,
		online:       d.Online,
		log:          d.logger(),
		parentLocal:  func(sp models.ExpenseSplit) string { return sp.ExpenseID },
		toRemote: func(ctx context.Context, sp models.ExpenseSplit, expenseSID string) (gateway.ExpenseSplit, error) {
			return splitToRemote(ctx, d.Store, sp, expenseSID), nil
		},
		create: d.GW.CreateExpenseSplit,
		insert: d.Store.CreateExpenseSplit,
	}
}

// NewDocumentCreator builds the write-through creator for documents.
func NewDocumentCreator(d Deps) *Creator[models.Document, *models.Document, gateway.Document] {
	return &Creator[models.Document, *models.Document, gateway.Document]{
		entity:       models.EntityDocument,
		parentEntity: models.EntityTrip,
		store:        d.Store,
		runner:       d.Runner,
		online:       d.Online,
		log:          d.logger(),
		parentLocal:  func(doc models.Document) string { return doc.TripID },
		toRemote: func(ctx context.Context, doc models.Document, tripSID string) (gateway.Document, error) {
			return documentToRemote(doc, tripSID), nil
		},
		create: d.GW.CreateDocument,
		insert: d.Store.CreateDocument,
	}
}
