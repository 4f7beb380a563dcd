package handler

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/snapdock/internal/importer"
	"github.com/snapdock/internal/model"
)

type snapshotLister interface {
	List(ctx context.Context) ([]model.Snapshot, error)
}

type snapshotImporter interface {
	Import(ctx context.Context, req importer.Request) model.ImportReport
}

type adminPageData struct {
	BodyClass string
	Snapshots []model.Snapshot
	Report    *model.ImportReport
}

// AdminHandler serves the admin page and snapshot uploads.
type AdminHandler struct {
	BaseHandler
	snapshots      snapshotLister
	importer       snapshotImporter
	templates      *template.Template
	maxUploadBytes int64
}

func NewAdminHandler(logger *slog.Logger, snapshots snapshotLister, imp snapshotImporter, tmpl *template.Template, maxUploadMB int) *AdminHandler {
	return &AdminHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		snapshots:      snapshots,
		importer:       imp,
		templates:      tmpl,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// Page renders the admin page with the snapshot list and upload form.
func (h *AdminHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, nil)
}

// Upload imports one or more snapshot files and re-renders the admin page
// with an aggregated report. A single bad file never fails the request; its
// errors show up in the report instead.
func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.Logger.Warn("admin: form parse failed", "err", err)
		http.Error(w, "Form too large or invalid", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "At least one file is required", http.StatusBadRequest)
		return
	}

	var snapshotDate time.Time
	if raw := r.FormValue("snapshot_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "snapshot_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		snapshotDate = parsed
	}

	aggregated := model.ImportReport{Success: true, Warnings: []string{}, Errors: []string{}}
	succeeded := 0

	for _, fh := range files {
		report := h.importFile(r.Context(), fh, snapshotDate)

		aggregated.ProcessedProjects += report.ProcessedProjects
		aggregated.ProcessedEvents += report.ProcessedEvents

		prefix := "[" + fh.Filename + "] "
		for _, msg := range report.Warnings {
			aggregated.Warnings = append(aggregated.Warnings, prefix+msg)
		}
		for _, msg := range report.Errors {
			aggregated.Errors = append(aggregated.Errors, prefix+msg)
		}

		if report.Success {
			succeeded++
		}
	}

	if len(aggregated.Errors) > 0 {
		aggregated.Success = false
		aggregated.Message = fmt.Sprintf("Processed %d files. %d succeeded, %d failed.",
			len(files), succeeded, len(files)-succeeded)
	} else {
		aggregated.Message = fmt.Sprintf("Successfully uploaded %d files.", succeeded)
	}

	h.Logger.Info("admin: upload processed",
		"files", len(files),
		"succeeded", succeeded,
		"projects", aggregated.ProcessedProjects,
		"events", aggregated.ProcessedEvents,
	)

	h.render(w, r, &aggregated)
}

func (h *AdminHandler) importFile(ctx context.Context, fh *multipart.FileHeader, snapshotDate time.Time) model.ImportReport {
	f, err := fh.Open()
	if err != nil {
		return model.ImportReport{
			Success: false,
			Errors:  []string{fmt.Sprintf("opening upload: %v", err)},
		}
	}
	defer f.Close()

	return h.importer.Import(ctx, importer.Request{
		Filename:     fh.Filename,
		SnapshotDate: snapshotDate,
		Data:         f,
	})
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, report *model.ImportReport) {
	snapshots, err := h.snapshots.List(r.Context())
	if err != nil {
		h.logError(r, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := adminPageData{BodyClass: "cockpit", Snapshots: snapshots, Report: report}
	if err := h.templates.ExecuteTemplate(w, "admin.html", data); err != nil {
		h.Logger.Error("admin: template error", "err", err)
	}
}
