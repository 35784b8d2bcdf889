package models

// Expense represents a shared expense within a trip.
type Expense struct {
	SyncMeta

	// TripID is the local id of the owning trip.
	TripID string

	// PaidByID is the local id of the participant who paid.
	PaidByID string

	// Description is the human-readable expense description.
	Description string

	// Amount is the total in minor currency units (cents).
	Amount int64

	// Currency is the ISO 4217 code. Usually the trip currency.
	Currency string

	// Category is an optional grouping label (e.g., "food", "transport").
	Category string
}

// ExpenseSplit represents one participant's share of an expense.
// Splits are children of an expense, so they are pushed only after the
// expense itself has a server id.
type ExpenseSplit struct {
	SyncMeta

	// ExpenseID is the local id of the owning expense.
	ExpenseID string

	// ParticipantID is the local id of the participant who owes this share.
	ParticipantID string

	// Amount is the share in minor currency units (cents).
	Amount int64

	// Settled is true once this share has been paid back.
	Settled bool
}
