package models

// SyncMeta is the sync bookkeeping embedded in every mirrored entity.
//
// LocalID is assigned by the local store and is stable for the lifetime of
// the record on this device. ServerID is assigned exactly once: on the first
// successful push, or on the first pull of a remote-originated record. Only
// the sync engine and the write-through creation path may mutate ServerID
// and IsSynced; everything else treats them as read-only.
type SyncMeta struct {
	// LocalID is the store-assigned primary key (UUID format).
	LocalID string

	// ServerID is the authoritative identifier assigned by the server.
	// Empty means the record has never been confirmed remotely.
	ServerID string

	// IsSynced is true iff ServerID is set and the local copy is believed
	// to match the last confirmed server state. A false value marks the
	// record as pending for the next push phase.
	IsSynced bool

	// CreatedAt is the Unix timestamp when the local row was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last local modification.
	UpdatedAt int64
}

// Synced reports whether the record has been confirmed by the server.
func (m SyncMeta) Synced() bool {
	return m.IsSynced && m.ServerID != ""
}

// Meta exposes the embedded metadata through a method so generic code can
// constrain on "any mirrored entity" without per-type accessors.
func (m *SyncMeta) Meta() *SyncMeta { return m }

// EntityType identifies one of the mirrored entity tables. The sync engine
// processes types in parent-before-child order; the constants below are
// declared in that order.
type EntityType string

const (
	EntityTrip          EntityType = "trip"
	EntityParticipant   EntityType = "participant"
	EntityItineraryItem EntityType = "itinerary_item"
	EntityMessage       EntityType = "message"
	EntityExpense       EntityType = "expense"
	EntityExpenseSplit  EntityType = "expense_split"
	EntityDocument      EntityType = "document"
)

// SyncOrder is the fixed dependency order for push/pull cycles. Parents
// always precede children so child pushes can resolve parent server ids.
var SyncOrder = []EntityType{
	EntityTrip,
	EntityParticipant,
	EntityItineraryItem,
	EntityMessage,
	EntityExpense,
	EntityExpenseSplit,
	EntityDocument,
}
