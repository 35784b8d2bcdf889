// Package service exposes the UI-facing operations of the sync engine.
// Every create goes through the write-through protocol; every read
// degrades to an empty result when local storage is unavailable, so the
// UI renders "no data yet" instead of crashing.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voyago/tripsync/internal/calculator"
	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
	"github.com/voyago/tripsync/internal/storage/retry"
	"github.com/voyago/tripsync/internal/syncengine"
)

// TripService is the application-facing facade over the local store and
// the write-through creators.
type TripService struct {
	store  storage.Store
	runner *retry.Runner
	log    *slog.Logger

	trips        *syncengine.Creator[models.Trip, *models.Trip, gateway.Trip]
	participants *syncengine.Creator[models.Participant, *models.Participant, gateway.Participant]
	itinerary    *syncengine.Creator[models.ItineraryItem, *models.ItineraryItem, gateway.ItineraryItem]
	messages     *syncengine.Creator[models.Message, *models.Message, gateway.Message]
	expenses     *syncengine.Creator[models.Expense, *models.Expense, gateway.Expense]
	splits       *syncengine.Creator[models.ExpenseSplit, *models.ExpenseSplit, gateway.ExpenseSplit]
	documents    *syncengine.Creator[models.Document, *models.Document, gateway.Document]
}

// NewTripService creates the service. online is the connectivity snapshot
// consulted for opportunistic pushes at creation time.
func NewTripService(st storage.Store, runner *retry.Runner, gw gateway.Gateway, online func() bool) *TripService {
	deps := syncengine.Deps{Store: st, Runner: runner, GW: gw, Online: online}
	return &TripService{
		store:        st,
		runner:       runner,
		log:          slog.Default(),
		trips:        syncengine.NewTripCreator(deps),
		participants: syncengine.NewParticipantCreator(deps),
		itinerary:    syncengine.NewItineraryItemCreator(deps),
		messages:     syncengine.NewMessageCreator(deps),
		expenses:     syncengine.NewExpenseCreator(deps),
		splits:       syncengine.NewExpenseSplitCreator(deps),
		documents:    syncengine.NewDocumentCreator(deps),
	}
}

// CreateTrip creates a trip locally and opportunistically pushes it.
func (s *TripService) CreateTrip(ctx context.Context, t models.Trip) (*models.Trip, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("trip name required")
	}
	if err := s.trips.Create(ctx, &t); err != nil {
		return nil, err
	}
	s.log.Info("trip created", "local_id", t.LocalID, "synced", t.IsSynced)
	return &t, nil
}

// AddParticipant adds a member to a trip.
func (s *TripService) AddParticipant(ctx context.Context, p models.Participant) (*models.Participant, error) {
	if p.TripID == "" {
		return nil, fmt.Errorf("trip id required")
	}
	if p.Name == "" {
		return nil, fmt.Errorf("participant name required")
	}
	if err := s.participants.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.log.Info("participant added", "local_id", p.LocalID, "trip_id", p.TripID, "synced", p.IsSynced)
	return &p, nil
}

// AddItineraryItem schedules an activity on a trip.
func (s *TripService) AddItineraryItem(ctx context.Context, it models.ItineraryItem) (*models.ItineraryItem, error) {
	if it.TripID == "" {
		return nil, fmt.Errorf("trip id required")
	}
	if it.Title == "" {
		return nil, fmt.Errorf("itinerary title required")
	}
	if err := s.itinerary.Create(ctx, &it); err != nil {
		return nil, err
	}
	s.log.Info("itinerary item added", "local_id", it.LocalID, "trip_id", it.TripID, "synced", it.IsSynced)
	return &it, nil
}

// SendMessage appends a chat message to a trip.
func (s *TripService) SendMessage(ctx context.Context, m models.Message) (*models.Message, error) {
	if m.TripID == "" {
		return nil, fmt.Errorf("trip id required")
	}
	if m.Body == "" {
		return nil, fmt.Errorf("message body required")
	}
	if err := s.messages.Create(ctx, &m); err != nil {
		return nil, err
	}
	s.log.Info("message sent", "local_id", m.LocalID, "trip_id", m.TripID, "synced", m.IsSynced)
	return &m, nil
}

// AddExpense records a shared expense together with its splits. When no
// explicit splits are given the amount is divided equally among the
// trip's participants. The expense and each split follow the
// write-through protocol individually; splits created after an offline
// expense stay pending until the expense gains a server id.
func (s *TripService) AddExpense(ctx context.Context, e models.Expense, splits []models.ExpenseSplit) (*models.Expense, error) {
	if e.TripID == "" {
		return nil, fmt.Errorf("trip id required")
	}
	if e.Amount <= 0 {
		return nil, fmt.Errorf("expense amount must be positive")
	}

	if e.Currency == "" {
		if trip, err := s.Trip(ctx, e.TripID); err == nil && trip != nil {
			e.Currency = trip.Currency
		}
	}

	if err := s.expenses.Create(ctx, &e); err != nil {
		return nil, err
	}

	if len(splits) == 0 {
		members, err := s.Participants(ctx, e.TripID)
		if err != nil {
			return &e, err
		}
		shares := calculator.EqualShares(e.Amount, len(members))
		for i, member := range members {
			splits = append(splits, models.ExpenseSplit{
				ParticipantID: member.LocalID,
				Amount:        shares[i],
			})
		}
	}

	for i := range splits {
		splits[i].ExpenseID = e.LocalID
		if err := s.splits.Create(ctx, &splits[i]); err != nil {
			return &e, fmt.Errorf("create split %d: %w", i, err)
		}
	}

	s.log.Info("expense added",
		"local_id", e.LocalID, "trip_id", e.TripID, "amount", e.Amount,
		"splits", len(splits), "synced", e.IsSynced)
	return &e, nil
}

// AttachDocument records document metadata on a trip. Content upload is
// handled by the external media pipeline.
func (s *TripService) AttachDocument(ctx context.Context, d models.Document) (*models.Document, error) {
	if d.TripID == "" {
		return nil, fmt.Errorf("trip id required")
	}
	if d.Name == "" {
		return nil, fmt.Errorf("document name required")
	}
	if err := s.documents.Create(ctx, &d); err != nil {
		return nil, err
	}
	s.log.Info("document attached", "local_id", d.LocalID, "trip_id", d.TripID, "synced", d.IsSynced)
	return &d, nil
}

// Trip returns one trip, or nil when storage is unavailable.
func (s *TripService) Trip(ctx context.Context, localID string) (*models.Trip, error) {
	var out *models.Trip
	err := s.runner.Execute(ctx, func(ctx context.Context) error {
		t, err := s.store.GetTrip(ctx, localID)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if storage.IsUnavailable(err) {
		s.log.Warn("storage unavailable, degrading trip read")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Trips lists all locally known trips.
func (s *TripService) Trips(ctx context.Context) ([]models.Trip, error) {
	return listDegraded(ctx, s, "trips", s.store.ListTrips)
}

// Participants lists a trip's members.
func (s *TripService) Participants(ctx context.Context, tripID string) ([]models.Participant, error) {
	return listDegraded(ctx, s, "participants", func(ctx context.Context) ([]models.Participant, error) {
		return s.store.ListParticipantsByTrip(ctx, tripID)
	})
}

// Itinerary lists a trip's scheduled activities.
func (s *TripService) Itinerary(ctx context.Context, tripID string) ([]models.ItineraryItem, error) {
	return listDegraded(ctx, s, "itinerary", func(ctx context.Context) ([]models.ItineraryItem, error) {
		return s.store.ListItineraryByTrip(ctx, tripID)
	})
}

// Messages lists a trip's chat history.
func (s *TripService) Messages(ctx context.Context, tripID string) ([]models.Message, error) {
	return listDegraded(ctx, s, "messages", func(ctx context.Context) ([]models.Message, error) {
		return s.store.ListMessagesByTrip(ctx, tripID)
	})
}

// Expenses lists a trip's expenses.
func (s *TripService) Expenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	return listDegraded(ctx, s, "expenses", func(ctx context.Context) ([]models.Expense, error) {
		return s.store.ListExpensesByTrip(ctx, tripID)
	})
}

// Splits lists an expense's splits.
func (s *TripService) Splits(ctx context.Context, expenseID string) ([]models.ExpenseSplit, error) {
	return listDegraded(ctx, s, "expense splits", func(ctx context.Context) ([]models.ExpenseSplit, error) {
		return s.store.ListSplitsByExpense(ctx, expenseID)
	})
}

// Documents lists a trip's documents.
func (s *TripService) Documents(ctx context.Context, tripID string) ([]models.Document, error) {
	return listDegraded(ctx, s, "documents", func(ctx context.Context) ([]models.Document, error) {
		return s.store.ListDocumentsByTrip(ctx, tripID)
	})
}

// MarkMessageRead records a read receipt for a message.
func (s *TripService) MarkMessageRead(ctx context.Context, messageID, participantID string) error {
	return s.runner.Execute(ctx, func(ctx context.Context) error {
		return s.store.MarkMessageRead(ctx, models.MessageRead{
			MessageID:     messageID,
			ParticipantID: participantID,
		})
	})
}

// MessageReads lists the read receipts of a message.
func (s *TripService) MessageReads(ctx context.Context, messageID string) ([]models.MessageRead, error) {
	return listDegraded(ctx, s, "read receipts", func(ctx context.Context) ([]models.MessageRead, error) {
		return s.store.ListMessageReads(ctx, messageID)
	})
}

// TripBalances computes who owes whom across a trip's expenses.
func (s *TripService) TripBalances(ctx context.Context, tripID string) ([]calculator.Balance, error) {
	expenses, err := s.Expenses(ctx, tripID)
	if err != nil {
		return nil, err
	}

	var allSplits []models.ExpenseSplit
	for _, e := range expenses {
		splits, err := s.Splits(ctx, e.LocalID)
		if err != nil {
			return nil, err
		}
		allSplits = append(allSplits, splits...)
	}
	return calculator.NetBalances(expenses, allSplits), nil
}

// listDegraded runs a list query through the retry runner and maps
// storage unavailability to an empty result.
func listDegraded[T any](ctx context.Context, s *TripService, what string, fn func(ctx context.Context) ([]T, error)) ([]T, error) {
	var out []T
	err := s.runner.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if storage.IsUnavailable(err) {
		s.log.Warn("storage unavailable, degrading to empty result", "collection", what)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
