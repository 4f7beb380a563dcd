package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/snapdock/internal/model"
)

// Timestamps are stored as TEXT so the same schema works on sqlite and
// postgres; lexicographic order matches chronological order for both layouts.
const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05"
)

type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Insert persists a single snapshot row.
func (s *SnapshotStore) Insert(ctx context.Context, snap model.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (snapshot_id, snapshot_date, uploaded_at, source_filename)
		 VALUES ($1, $2, $3, $4)`,
		snap.ID,
		snap.SnapshotDate.UTC().Format(dateLayout),
		snap.UploadedAt.UTC().Format(timeLayout),
		snap.SourceFilename,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// List returns all snapshots ordered by snapshot date descending, newest
// upload first within a date.
func (s *SnapshotStore) List(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT snapshot_id, snapshot_date, uploaded_at, source_filename
		 FROM snapshots
		 ORDER BY snapshot_date DESC, uploaded_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []model.Snapshot{}
	for rows.Next() {
		var (
			snap       model.Snapshot
			date       string
			uploadedAt string
		)
		if err := rows.Scan(&snap.ID, &date, &uploadedAt, &snap.SourceFilename); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if snap.SnapshotDate, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parse snapshot date %q: %w", date, err)
		}
		if snap.UploadedAt, err = time.Parse(timeLayout, uploadedAt); err != nil {
			return nil, fmt.Errorf("parse uploaded at %q: %w", uploadedAt, err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// Count returns the number of stored snapshots.
func (s *SnapshotStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}
