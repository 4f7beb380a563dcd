package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/snapdock/internal/model"
)

type stubArchive struct {
	snap     model.Snapshot
	projects []model.Project
	events   []model.Event
	err      error
	calls    int
}

func (s *stubArchive) SaveImport(_ context.Context, snap model.Snapshot, projects []model.Project, events []model.Event) error {
	s.calls++
	s.snap = snap
	s.projects = projects
	s.events = events
	return s.err
}

func newTestImporter(archive *stubArchive) *Importer {
	imp := New(archive, slog.New(slog.NewTextHandler(io.Discard, nil)))
	imp.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}
	return imp
}

func TestImportCSV(t *testing.T) {
	archive := &stubArchive{}
	imp := newTestImporter(archive)

	data := `project,event_type,occurred_at,details
alpha,deploy,2026-05-01 10:00:00,v1.2
alpha,incident,2026-05-01 11:30:00,
beta,deploy,2026-05-01,
gamma,,2026-05-01 12:00:00,missing type
`
	report := imp.Import(context.Background(), Request{
		Filename: "snapshot_2026-05-01.csv",
		Data:     strings.NewReader(data),
	})

	if !report.Success {
		t.Fatalf("expected success, got errors: %v", report.Errors)
	}
	if report.ProcessedProjects != 2 || report.ProcessedEvents != 3 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "row 5") {
		t.Fatalf("expected one warning for row 5, got %v", report.Warnings)
	}

	if archive.calls != 1 {
		t.Fatalf("expected one save, got %d", archive.calls)
	}
	if got := archive.snap.SnapshotDate.Format("2006-01-02"); got != "2026-05-01" {
		t.Fatalf("expected snapshot date from filename, got %s", got)
	}
	if archive.snap.SourceFilename != "snapshot_2026-05-01.csv" {
		t.Fatalf("unexpected source filename %q", archive.snap.SourceFilename)
	}
	if len(archive.projects) != 2 || len(archive.events) != 3 {
		t.Fatalf("expected 2 projects / 3 events stored, got %d / %d", len(archive.projects), len(archive.events))
	}
	for _, e := range archive.events {
		if e.SnapshotID != archive.snap.ID {
			t.Fatalf("event not tied to snapshot: %+v", e)
		}
	}
}

func TestImportCSVWithBOM(t *testing.T) {
	archive := &stubArchive{}
	imp := newTestImporter(archive)

	data := "\xEF\xBB\xBFproject,event_type,occurred_at\nalpha,deploy,2026-05-01\n"
	report := imp.Import(context.Background(), Request{
		Filename: "export.csv",
		Data:     strings.NewReader(data),
	})

	if !report.Success {
		t.Fatalf("expected success, got errors: %v", report.Errors)
	}
	if report.ProcessedEvents != 1 {
		t.Fatalf("expected one event, got %d", report.ProcessedEvents)
	}
}

func TestImportXLSX(t *testing.T) {
	archive := &stubArchive{}
	imp := newTestImporter(archive)

	f := excelize.NewFile()
	rows := [][]any{
		{"project", "event_type", "occurred_at"},
		{"alpha", "deploy", "2026-06-01"},
		{"beta", "deploy", "2026-06-02"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	report := imp.Import(context.Background(), Request{
		Filename: "snapshot.xlsx",
		Data:     buf,
	})

	if !report.Success {
		t.Fatalf("expected success, got errors: %v", report.Errors)
	}
	if report.ProcessedProjects != 2 || report.ProcessedEvents != 2 {
		t.Fatalf("unexpected counts: %+v", report)
	}
}

func TestImportMissingColumn(t *testing.T) {
	archive := &stubArchive{}
	imp := newTestImporter(archive)

	report := imp.Import(context.Background(), Request{
		Filename: "bad.csv",
		Data:     strings.NewReader("project,event_type\nalpha,deploy\n"),
	})

	if report.Success {
		t.Fatal("expected failure")
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], `missing required column "occurred_at"`) {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if archive.calls != 0 {
		t.Fatal("nothing should be persisted for a bad file")
	}
}

func TestImportUnsupportedExtension(t *testing.T) {
	archive := &stubArchive{}
	imp := newTestImporter(archive)

	report := imp.Import(context.Background(), Request{
		Filename: "notes.txt",
		Data:     strings.NewReader("whatever"),
	})

	if report.Success || len(report.Errors) != 1 {
		t.Fatalf("expected a single error, got %+v", report)
	}
	if !strings.Contains(report.Errors[0], "unsupported file format") {
		t.Fatalf("unexpected error: %s", report.Errors[0])
	}
}

func TestImportNoValidRows(t *testing.T) {
	archive := &stubArchive{}
	imp := newTestImporter(archive)

	data := `project,event_type,occurred_at
,deploy,2026-05-01
alpha,,2026-05-01
alpha,deploy,yesterday
`
	report := imp.Import(context.Background(), Request{
		Filename: "empty.csv",
		Data:     strings.NewReader(data),
	})

	if report.Success {
		t.Fatal("expected failure when no rows import")
	}
	if len(report.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", report.Warnings)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "no importable rows") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if archive.calls != 0 {
		t.Fatal("nothing should be persisted")
	}
}

func TestImportSaveFailure(t *testing.T) {
	archive := &stubArchive{err: errors.New("disk full")}
	imp := newTestImporter(archive)

	report := imp.Import(context.Background(), Request{
		Filename: "ok.csv",
		Data:     strings.NewReader("project,event_type,occurred_at\nalpha,deploy,2026-05-01\n"),
	})

	if report.Success {
		t.Fatal("expected failure")
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "saving snapshot") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
}

func TestSnapshotDateResolution(t *testing.T) {
	archive := &stubArchive{}
	imp := newTestImporter(archive)

	data := "project,event_type,occurred_at\nalpha,deploy,2026-05-01\n"

	// Explicit date wins over the filename.
	override := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	imp.Import(context.Background(), Request{
		Filename:     "snapshot_2026-05-01.csv",
		SnapshotDate: override,
		Data:         strings.NewReader(data),
	})
	if !archive.snap.SnapshotDate.Equal(override) {
		t.Fatalf("expected override date, got %v", archive.snap.SnapshotDate)
	}

	// No date anywhere falls back to the upload day.
	imp.Import(context.Background(), Request{
		Filename: "export.csv",
		Data:     strings.NewReader(data),
	})
	if got := archive.snap.SnapshotDate.Format("2006-01-02"); got != "2026-08-25" {
		t.Fatalf("expected upload date fallback, got %s", got)
	}
}
