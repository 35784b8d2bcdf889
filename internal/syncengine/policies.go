package syncengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/metrics"
	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
	"github.com/voyago/tripsync/internal/storage/retry"
)

// buildPolicies wires one generic policy per entity type, in dependency
// order. This is the single place that knows how each local model maps to
// its wire form and which gateway pair serves it.
func buildPolicies(
	st storage.Store,
	runner *retry.Runner,
	gw gateway.Gateway,
	m *metrics.SyncMetrics,
	log *slog.Logger,
) []Policy {
	// Root entities pull from a single implicit parent.
	root := func(ctx context.Context) ([]string, error) { return []string{""}, nil }

	syncedParents := func(entity models.EntityType) func(ctx context.Context) ([]string, error) {
		return func(ctx context.Context) ([]string, error) {
			return st.SyncedServerIDs(ctx, entity)
		}
	}

	trips := &policy[models.Trip, gateway.Trip]{
		entity:  models.EntityTrip,
		store:   st,
		runner:  runner,
		m:       m,
		log:     log,
		pending: st.ListPendingTrips,
		localID: func(t models.Trip) string { return t.LocalID },
		toRemote: func(ctx context.Context, t models.Trip, _ string) (gateway.Trip, error) {
			return tripToRemote(t), nil
		},
		create:  gw.CreateTrip,
		parents: root,
		list: func(ctx context.Context, _ string) ([]gateway.Trip, gateway.Status) {
			res := gw.ListTrips(ctx)
			return res.Trips, res.Status
		},
		remoteID: func(r gateway.Trip) string { return r.ID },
		fromRemote: func(ctx context.Context, r gateway.Trip, _ string) (models.Trip, error) {
			return tripFromRemote(r), nil
		},
		insert: st.CreateTrip,
	}

	participants := &policy[models.Participant, gateway.Participant]{
		entity:       models.EntityParticipant,
		parentEntity: models.EntityTrip,
		store:        st,
		runner:       runner,
		m:            m,
		log:          log,
		pending:      st.ListPendingParticipants,
		localID:      func(p models.Participant) string { return p.LocalID },
		parentLocal:  func(p models.Participant) string { return p.TripID },
		toRemote: func(ctx context.Context, p models.Participant, tripSID string) (gateway.Participant, error) {
			return participantToRemote(p, tripSID), nil
		},
		create:  gw.CreateParticipant,
		parents: syncedParents(models.EntityTrip),
		list: func(ctx context.Context, tripSID string) ([]gateway.Participant, gateway.Status) {
			res := gw.ListParticipants(ctx, tripSID)
			return res.Participants, res.Status
		},
		remoteID: func(r gateway.Participant) string { return r.ID },
		fromRemote: func(ctx context.Context, r gateway.Participant, tripSID string) (models.Participant, error) {
			tripID, err := requireLocal(ctx, st, models.EntityTrip, tripSID)
			if err != nil {
				return models.Participant{}, err
			}
			return participantFromRemote(r, tripID), nil
		},
		insert: st.CreateParticipant,
	}

	itinerary := &policy[models.ItineraryItem, gateway.ItineraryItem]{
		entity:       models.EntityItineraryItem,
		parentEntity: models.EntityTrip,
		store:        st,
		runner:       runner,
		m:            m,
		log:          log,
		pending:      st.ListPendingItineraryItems,
		localID:      func(it models.ItineraryItem) string { return it.LocalID },
		parentLocal:  func(it models.ItineraryItem) string { return it.TripID },
		toRemote: func(ctx context.Context, it models.ItineraryItem, tripSID string) (gateway.ItineraryItem, error) {
			return itineraryToRemote(it, tripSID), nil
		},
		create:  gw.CreateItineraryItem,
		parents: syncedParents(models.EntityTrip),
		list: func(ctx context.Context, tripSID string) ([]gateway.ItineraryItem, gateway.Status) {
			res := gw.ListItineraryItems(ctx, tripSID)
			return res.Items, res.Status
		},
		remoteID: func(r gateway.ItineraryItem) string { return r.ID },
		fromRemote: func(ctx context.Context, r gateway.ItineraryItem, tripSID string) (models.ItineraryItem, error) {
			tripID, err := requireLocal(ctx, st, models.EntityTrip, tripSID)
			if err != nil {
				return models.ItineraryItem{}, err
			}
			return itineraryFromRemote(r, tripID), nil
		},
		insert: st.CreateItineraryItem,
	}

	messages := &policy[models.Message, gateway.Message]{
		entity:       models.EntityMessage,
		parentEntity: models.EntityTrip,
		store:        st,
		runner:       runner,
		m:            m,
		log:          log,
		pending:      st.ListPendingMessages,
		localID:      func(msg models.Message) string { return msg.LocalID },
		parentLocal:  func(msg models.Message) string { return msg.TripID },
		toRemote: func(ctx context.Context, msg models.Message, tripSID string) (gateway.Message, error) {
			return messageToRemote(ctx, st, msg, tripSID), nil
		},
		create:  gw.CreateMessage,
		parents: syncedParents(models.EntityTrip),
		list: func(ctx context.Context, tripSID string) ([]gateway.Message, gateway.Status) {
			res := gw.ListMessages(ctx, tripSID)
			return res.Messages, res.Status
		},
		remoteID: func(r gateway.Message) string { return r.ID },
		fromRemote: func(ctx context.Context, r gateway.Message, tripSID string) (models.Message, error) {
			tripID, err := requireLocal(ctx, st, models.EntityTrip, tripSID)
			if err != nil {
				return models.Message{}, err
			}
			return messageFromRemote(ctx, st, r, tripID), nil
		},
		insert: st.CreateMessage,
	}

	expenses := &policy[models.Expense, gateway.Expense]{
		entity:       models.EntityExpense,
		parentEntity: models.EntityTrip,
		store:        st,
		runner:       runner,
		m:            m,
		log:          log,
		pending:      st.ListPendingExpenses,
		localID:      func(e models.Expense) string { return e.LocalID },
		parentLocal:  func(e models.Expense) string { return e.TripID },
		toRemote: func(ctx context.Context, e models.Expense, tripSID string) (gateway.Expense, error) {
			return expenseToRemote(ctx, st, e, tripSID), nil
		},
		create:  gw.CreateExpense,
		parents: syncedParents(models.EntityTrip),
		list: func(ctx context.Context, tripSID string) ([]gateway.Expense, gateway.Status) {
			res := gw.ListExpenses(ctx, tripSID)
			return res.Expenses, res.Status
		},
		remoteID: func(r gateway.Expense) string { return r.ID },
		fromRemote: func(ctx context.Context, r gateway.Expense, tripSID string) (models.Expense, error) {
			tripID, err := requireLocal(ctx, st, models.EntityTrip, tripSID)
			if err != nil {
				return models.Expense{}, err
			}
			return expenseFromRemote(ctx, st, r, tripID), nil
		},
		insert: st.CreateExpense,
	}

	splits := &policy[models.ExpenseSplit, gateway.ExpenseSplit]{
		entity:       models.EntityExpenseSplit,
		parentEntity: models.EntityExpense,
		store:        st,
		runner:       runner,
		m:            m,
		log:          log,
		pending:      st.ListPendingExpenseSplits,
		localID:      func(sp models.ExpenseSplit) string { return sp.LocalID },
		parentLocal:  func(sp models.ExpenseSplit) string { return sp.ExpenseID },
		toRemote: func(ctx context.Context, sp models.ExpenseSplit, expenseSID string) (gateway.ExpenseSplit, error) {
			return splitToRemote(ctx, st, sp, expenseSID), nil
		},
		create:  gw.CreateExpenseSplit,
		parents: syncedParents(models.EntityExpense),
		list: func(ctx context.Context, expenseSID string) ([]gateway.ExpenseSplit, gateway.Status) {
			res := gw.ListExpenseSplits(ctx, expenseSID)
			return res.Splits, res.Status
		},
		remoteID: func(r gateway.ExpenseSplit) string { return r.ID },
		fromRemote: func(ctx context.Context, r gateway.ExpenseSplit, expenseSID string) (models.ExpenseSplit, error) {
			expenseID, err := requireLocal(ctx, st, models.EntityExpense, expenseSID)
			if err != nil {
				return models.ExpenseSplit{}, err
			}
			return splitFromRemote(ctx, st, r, expenseID), nil
		},
		insert: st.CreateExpenseSplit,
	}

	documents := &policy[models.Document, gateway.Document]{
		entity:       models.EntityDocument,
		parentEntity: models.EntityTrip,
		store:        st,
		runner:       runner,
		m:            m,
		log:          log,
		pending:      st.ListPendingDocuments,
		localID:      func(d models.Document) string { return d.LocalID },
		parentLocal:  func(d models.Document) string { return d.TripID },
		toRemote: func(ctx context.Context, d models.Document, tripSID string) (gateway.Document, error) {
			return documentToRemote(d, tripSID), nil
		},
		create:  gw.CreateDocument,
		parents: syncedParents(models.EntityTrip),
		list: func(ctx context.Context, tripSID string) ([]gateway.Document, gateway.Status) {
			res := gw.ListDocuments(ctx, tripSID)
			return res.Documents, res.Status
		},
		remoteID: func(r gateway.Document) string { return r.ID },
		fromRemote: func(ctx context.Context, r gateway.Document, tripSID string) (models.Document, error) {
			tripID, err := requireLocal(ctx, st, models.EntityTrip, tripSID)
			if err != nil {
				return models.Document{}, err
			}
			return documentFromRemote(r, tripID), nil
		},
		insert: st.CreateDocument,
	}

	return []Policy{trips, participants, itinerary, messages, expenses, splits, documents}
}

// requireLocal resolves a parent server id to its local row id. Pull
// enumerates parents from the local store, so failure here means the
// store changed underneath the cycle.
func requireLocal(ctx context.Context, st storage.Store, entity models.EntityType, serverID string) (string, error) {
	localID, err := st.LocalIDByServerID(ctx, entity, serverID)
	if err != nil {
		return "", fmt.Errorf("resolve local %s for server id %s: %w", entity, serverID, err)
	}
	return localID, nil
}
