package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snapdock/internal/model"
)

func TestSnapshotsListJSON(t *testing.T) {
	lister := &stubLister{snapshots: []model.Snapshot{
		{
			ID:             "id-2",
			SnapshotDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			UploadedAt:     time.Date(2026, 6, 2, 8, 30, 0, 0, time.UTC),
			SourceFilename: "snapshot_2026-06-01.csv",
		},
		{
			ID:             "id-1",
			SnapshotDate:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			UploadedAt:     time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
			SourceFilename: "snapshot_2026-05-01.csv",
		},
	}}
	h := NewSnapshotsHandler(testLogger(), lister)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}

	var resp []snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(resp))
	}
	// Store order is preserved: newest snapshot date first.
	if resp[0].SnapshotID != "id-2" || resp[1].SnapshotID != "id-1" {
		t.Fatalf("order not preserved: %+v", resp)
	}
	if resp[0].SnapshotDate != "2026-06-01" {
		t.Fatalf("unexpected snapshot date %q", resp[0].SnapshotDate)
	}
	if resp[0].UploadedAt != "2026-06-02T08:30:00Z" {
		t.Fatalf("unexpected uploaded at %q", resp[0].UploadedAt)
	}
}

func TestSnapshotsListEmpty(t *testing.T) {
	h := NewSnapshotsHandler(testLogger(), &stubLister{})

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty array, got %q", got)
	}
}
