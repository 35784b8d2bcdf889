// Package gateway defines the contract with the remote trip-planning API.
//
// Results are explicit success/failure values rather than errors so the
// sync engine can branch on per-record outcomes without unwinding the
// surrounding phase. A failed create leaves the local record pending; a
// failed list aborts the cycle (it is a phase-level fault, not a
// per-record one).
package gateway

import "context"

// Status is the shared success/failure part of every gateway result.
type Status struct {
	// OK is true when the remote call was accepted.
	OK bool

	// Err describes the failure when OK is false.
	Err string
}

// Fail builds a failed Status from an error message.
func Fail(msg string) Status {
	return Status{OK: false, Err: msg}
}

// CreateResult is the outcome of a create call.
type CreateResult struct {
	Status

	// ServerID is the authoritative id assigned by the server.
	ServerID string
}

// List results carry the decoded wire records per entity type.
type (
	TripsResult        struct {
		Status
		Trips []Trip
	}
	ParticipantsResult struct {
		Status
		Participants []Participant
	}
	ItineraryResult struct {
		Status
		Items []ItineraryItem
	}
	MessagesResult struct {
		Status
		Messages []Message
	}
	ExpensesResult struct {
		Status
		Expenses []Expense
	}
	SplitsResult struct {
		Status
		Splits []ExpenseSplit
	}
	DocumentsResult struct {
		Status
		Documents []Document
	}
)

// Gateway is the remote API surface the sync engine depends on: one
// create/list pair per entity type. Child records are parented by the
// server id of their trip (or expense, for splits); the engine resolves
// local parent ids to server ids before calling.
type Gateway interface {
	CreateTrip(ctx context.Context, t Trip) CreateResult
	ListTrips(ctx context.Context) TripsResult

	CreateParticipant(ctx context.Context, p Participant) CreateResult
	ListParticipants(ctx context.Context, tripServerID string) ParticipantsResult

	CreateItineraryItem(ctx context.Context, it ItineraryItem) CreateResult
	ListItineraryItems(ctx context.Context, tripServerID string) ItineraryResult

	CreateMessage(ctx context.Context, m Message) CreateResult
	ListMessages(ctx context.Context, tripServerID string) MessagesResult

	CreateExpense(ctx context.Context, e Expense) CreateResult
	ListExpenses(ctx context.Context, tripServerID string) ExpensesResult

	CreateExpenseSplit(ctx context.Context, s ExpenseSplit) CreateResult
	ListExpenseSplits(ctx context.Context, expenseServerID string) SplitsResult

	CreateDocument(ctx context.Context, d Document) CreateResult
	ListDocuments(ctx context.Context, tripServerID string) DocumentsResult
}
