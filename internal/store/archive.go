package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/snapdock/internal/model"
)

// ArchiveStore persists the contents of one imported snapshot file.
type ArchiveStore struct {
	db *sql.DB
}

func NewArchiveStore(db *sql.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

// SaveImport writes the snapshot row together with its projects and events in
// a single transaction. A failure rolls everything back so a bad file leaves
// no partial rows behind.
func (s *ArchiveStore) SaveImport(ctx context.Context, snap model.Snapshot, projects []model.Project, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (snapshot_id, snapshot_date, uploaded_at, source_filename)
		 VALUES ($1, $2, $3, $4)`,
		snap.ID,
		snap.SnapshotDate.UTC().Format(dateLayout),
		snap.UploadedAt.UTC().Format(timeLayout),
		snap.SourceFilename,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, p := range projects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects (project_id, snapshot_id, name) VALUES ($1, $2, $3)`,
			p.ID, p.SnapshotID, p.Name,
		); err != nil {
			return fmt.Errorf("insert project %q: %w", p.Name, err)
		}
	}

	for _, e := range events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (event_id, snapshot_id, project_id, event_type, occurred_at, details)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.SnapshotID, e.ProjectID, e.EventType,
			e.OccurredAt.UTC().Format(timeLayout), e.Details,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

// CountEvents returns the number of events stored for a snapshot.
func (s *ArchiveStore) CountEvents(ctx context.Context, snapshotID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE snapshot_id = $1`, snapshotID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
