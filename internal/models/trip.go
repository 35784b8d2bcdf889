package models

// Trip represents a collaborative trip. It is the root of the entity graph;
// every other mirrored entity hangs off a trip via its local id.
type Trip struct {
	SyncMeta

	// Name is the display name of the trip (e.g., "Paris Weekend").
	Name string

	// Destination is the free-form destination description.
	Destination string

	// StartDate and EndDate are Unix timestamps bounding the trip.
	// Zero means not yet decided.
	StartDate int64
	EndDate   int64

	// Currency is the ISO 4217 code used for the trip's expenses.
	Currency string
}

// Participant represents a member of a trip.
type Participant struct {
	SyncMeta

	// TripID is the local id of the owning trip.
	TripID string

	// Name is the participant's display name.
	Name string

	// Email is the participant's contact address, if known.
	Email string

	// Role distinguishes the trip organizer from regular members.
	Role string
}

// Participant roles.
const (
	RoleOrganizer = "organizer"
	RoleMember    = "member"
)
