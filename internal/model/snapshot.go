package model

import "time"

// Snapshot is one imported data upload, keyed by ID and carrying the
// snapshot date and source file metadata.
type Snapshot struct {
	ID             string    `json:"snapshot_id"`
	SnapshotDate   time.Time `json:"snapshot_date"`
	UploadedAt     time.Time `json:"uploaded_at"`
	SourceFilename string    `json:"source_filename"`
}
