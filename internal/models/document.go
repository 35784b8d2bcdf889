package models

// Document represents metadata for a file attached to a trip (tickets,
// reservations, maps). The upload pipeline for file contents is external;
// the engine only mirrors the metadata row.
type Document struct {
	SyncMeta

	// TripID is the local id of the owning trip.
	TripID string

	// Name is the display file name.
	Name string

	// MimeType is the declared content type.
	MimeType string

	// SizeBytes is the file size, if known.
	SizeBytes int64

	// RemoteURL is where the uploaded content lives, once the external
	// upload pipeline has run. Empty for local-only documents.
	RemoteURL string
}
