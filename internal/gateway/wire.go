package gateway

// Wire payloads exchanged with the remote API. Unlike the local models,
// parent references here are server ids: the remote system knows nothing
// about device-local ids. The ID field is empty on create requests and
// populated on list responses.

// Trip is the wire form of a trip.
type Trip struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
	StartDate   int64  `json:"start_date,omitempty"`
	EndDate     int64  `json:"end_date,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// Participant is the wire form of a trip member.
type Participant struct {
	ID     string `json:"id,omitempty"`
	TripID string `json:"trip_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// ItineraryItem is the wire form of a scheduled activity.
type ItineraryItem struct {
	ID       string `json:"id,omitempty"`
	TripID   string `json:"trip_id"`
	Day      int    `json:"day"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	StartsAt int64  `json:"starts_at,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Message is the wire form of a chat message.
type Message struct {
	ID       string `json:"id,omitempty"`
	TripID   string `json:"trip_id"`
	AuthorID string `json:"author_id,omitempty"`
	Body     string `json:"body"`
	SentAt   int64  `json:"sent_at"`
}

// Expense is the wire form of a shared expense.
type Expense struct {
	ID          string `json:"id,omitempty"`
	TripID      string `json:"trip_id"`
	PaidByID    string `json:"paid_by_id,omitempty"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ExpenseSplit is the wire form of one participant's share.
type ExpenseSplit struct {
	ID            string `json:"id,omitempty"`
	ExpenseID     string `json:"expense_id"`
	ParticipantID string `json:"participant_id,omitempty"`
	Amount        int64  `json:"amount"`
	Settled       bool   `json:"settled,omitempty"`
}

// Document is the wire form of trip document metadata.
type Document struct {
	ID        string `json:"id,omitempty"`
	TripID    string `json:"trip_id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	RemoteURL string `json:"remote_url,omitempty"`
}
