package models

// ItineraryItem represents a scheduled activity within a trip.
type ItineraryItem struct {
	SyncMeta

	// TripID is the local id of the owning trip.
	TripID string

	// Day is the 1-based day of the trip this item belongs to.
	Day int

	// Title is the short description shown in the itinerary list.
	Title string

	// Location is the free-form place description.
	Location string

	// StartsAt is the Unix timestamp when the activity begins.
	// Zero means unscheduled within the day.
	StartsAt int64

	// Notes holds optional free-form details.
	Notes string
}
