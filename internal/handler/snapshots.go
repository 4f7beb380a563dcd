package handler

import (
	"log/slog"
	"net/http"
	"time"
)

type snapshotResponse struct {
	SnapshotID     string `json:"snapshot_id"`
	SnapshotDate   string `json:"snapshot_date"`
	UploadedAt     string `json:"uploaded_at"`
	SourceFilename string `json:"source_filename"`
}

// SnapshotsHandler serves the JSON snapshot listing.
type SnapshotsHandler struct {
	BaseHandler
	snapshots snapshotLister
}

func NewSnapshotsHandler(logger *slog.Logger, snapshots snapshotLister) *SnapshotsHandler {
	return &SnapshotsHandler{BaseHandler: BaseHandler{Logger: logger}, snapshots: snapshots}
}

// List returns all snapshots as a JSON array, newest snapshot date first.
func (h *SnapshotsHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.snapshots.List(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]snapshotResponse, len(snapshots))
	for i, snap := range snapshots {
		resp[i] = snapshotResponse{
			SnapshotID:     snap.ID,
			SnapshotDate:   snap.SnapshotDate.Format("2006-01-02"),
			UploadedAt:     snap.UploadedAt.UTC().Format(time.RFC3339),
			SourceFilename: snap.SourceFilename,
		}
	}

	if err := h.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
