package models

// Message represents a chat message within a trip. Transport of live
// messages (sockets, push) is outside this engine; mirrored messages arrive
// here either from local sends or from pull cycles.
type Message struct {
	SyncMeta

	// TripID is the local id of the owning trip.
	TripID string

	// AuthorID is the local id of the participant who sent the message.
	AuthorID string

	// Body is the message text.
	Body string

	// SentAt is the Unix timestamp when the message was composed.
	SentAt int64
}

// MessageRead records that a participant has read a message. Read receipts
// are a child table keyed by (message, participant), not an encoded column.
type MessageRead struct {
	// MessageID is the local id of the message.
	MessageID string

	// ParticipantID is the local id of the reader.
	ParticipantID string

	// ReadAt is the Unix timestamp of the read event.
	ReadAt int64
}
