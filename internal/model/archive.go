package model

import "time"

// Project is a project referenced by at least one event in a snapshot file.
type Project struct {
	ID         string
	SnapshotID string
	Name       string
}

// Event is a single row from a snapshot file, tied to its project.
type Event struct {
	ID         string
	SnapshotID string
	ProjectID  string
	EventType  string
	OccurredAt time.Time
	Details    string
}
