package models

import "time"

// File processing statuses.
const (
	FileStatusPending   = "pending"
	FileStatusProcessed = "processed"
	FileStatusError     = "error"
)

// DateRange is the span of activity dates covered by a file.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	if r.IsZero() || other.IsZero() {
		return false
	}
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// IsZero reports whether the range carries no date information.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// FileMetadata is the persisted record for one uploaded export file. It lives
// in the metadata document next to the raw CSVs and survives across
// processing runs.
type FileMetadata struct {
	Filename        string    `json:"filename"`
	OriginalName    string    `json:"original_name"`
	UploadedAt      time.Time `json:"uploaded_at"`
	Checksum        string    `json:"checksum"` // SHA-256 of the raw file content
	DateRange       DateRange `json:"date_range"`
	Status          string    `json:"status"`
	RecordCount     int       `json:"record_count"`
	TradeCount      int       `json:"trade_count"`
	LastProcessedAt time.Time `json:"last_processed_at,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}
