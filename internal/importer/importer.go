// Package importer parses uploaded snapshot files and persists their
// contents. One file becomes one snapshot row plus the projects and events it
// references; a file that cannot be imported leaves no rows behind.
package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/snapdock/internal/model"
)

// ErrUnsupportedFormat is returned when an uploaded file is not CSV or XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var (
	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	filenameDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	timeLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
)

// Required snapshot file columns, matched case-insensitively.
const (
	columnProject    = "project"
	columnEventType  = "event_type"
	columnOccurredAt = "occurred_at"
	columnDetails    = "details"
)

type archiveWriter interface {
	SaveImport(ctx context.Context, snap model.Snapshot, projects []model.Project, events []model.Event) error
}

// Importer turns snapshot files into stored snapshots.
type Importer struct {
	archive archiveWriter
	logger  *slog.Logger
	now     func() time.Time
}

func New(archive archiveWriter, logger *slog.Logger) *Importer {
	return &Importer{archive: archive, logger: logger, now: time.Now}
}

// Request describes one uploaded snapshot file.
type Request struct {
	Filename string
	// SnapshotDate overrides date resolution when non-zero. Otherwise the
	// date is taken from the filename, falling back to the upload date.
	SnapshotDate time.Time
	Data         io.Reader
}

// Import parses and persists a single snapshot file. Failures are reported
// through the returned report, never as an error: row-level problems become
// warnings and the row is skipped, file-level problems become errors and
// nothing is persisted.
func (imp *Importer) Import(ctx context.Context, req Request) model.ImportReport {
	report := model.ImportReport{Success: true, Warnings: []string{}, Errors: []string{}}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return fail(report, fmt.Sprintf("reading file: %v", err))
	}

	table, err := parseTable(req.Filename, payload)
	if err != nil {
		return fail(report, err.Error())
	}

	columns, err := resolveColumns(table.headers)
	if err != nil {
		return fail(report, err.Error())
	}

	uploadedAt := imp.now().UTC()
	snap := model.Snapshot{
		ID:             uuid.NewString(),
		SnapshotDate:   imp.resolveDate(req, uploadedAt),
		UploadedAt:     uploadedAt,
		SourceFilename: req.Filename,
	}

	projectIDs := map[string]string{}
	var projects []model.Project
	var events []model.Event

	for _, row := range table.rows {
		name := row.cell(columns.project)
		eventType := row.cell(columns.eventType)
		rawTime := row.cell(columns.occurredAt)

		switch {
		case name == "":
			report.Warnings = append(report.Warnings, fmt.Sprintf("row %d: missing project", row.num))
			continue
		case eventType == "":
			report.Warnings = append(report.Warnings, fmt.Sprintf("row %d: missing event_type", row.num))
			continue
		}

		occurredAt, err := parseEventTime(rawTime)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("row %d: unparseable occurred_at %q", row.num, rawTime))
			continue
		}

		projectID, ok := projectIDs[name]
		if !ok {
			projectID = uuid.NewString()
			projectIDs[name] = projectID
			projects = append(projects, model.Project{ID: projectID, SnapshotID: snap.ID, Name: name})
		}

		events = append(events, model.Event{
			ID:         uuid.NewString(),
			SnapshotID: snap.ID,
			ProjectID:  projectID,
			EventType:  eventType,
			OccurredAt: occurredAt,
			Details:    row.cell(columns.details),
		})
	}

	if len(events) == 0 {
		return fail(report, "no importable rows in file")
	}

	if err := imp.archive.SaveImport(ctx, snap, projects, events); err != nil {
		imp.logger.Error("importer: saving snapshot failed", "file", req.Filename, "err", err)
		return fail(report, fmt.Sprintf("saving snapshot: %v", err))
	}

	report.ProcessedProjects = len(projects)
	report.ProcessedEvents = len(events)
	report.Message = fmt.Sprintf("Imported %d events across %d projects.", len(events), len(projects))

	imp.logger.Info("importer: snapshot stored",
		"file", req.Filename,
		"snapshot_id", snap.ID,
		"snapshot_date", snap.SnapshotDate.Format("2006-01-02"),
		"projects", len(projects),
		"events", len(events),
		"skipped_rows", len(report.Warnings),
	)
	return report
}

func fail(report model.ImportReport, msg string) model.ImportReport {
	report.Success = false
	report.Errors = append(report.Errors, msg)
	return report
}

func (imp *Importer) resolveDate(req Request, uploadedAt time.Time) time.Time {
	if !req.SnapshotDate.IsZero() {
		return req.SnapshotDate
	}
	if match := filenameDate.FindString(filepath.Base(req.Filename)); match != "" {
		if d, err := time.Parse("2006-01-02", match); err == nil {
			return d
		}
	}
	return uploadedAt.Truncate(24 * time.Hour)
}

func parseEventTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

// columnIndexes maps the snapshot file columns to their header positions.
// details is -1 when the optional column is absent.
type columnIndexes struct {
	project    int
	eventType  int
	occurredAt int
	details    int
}

func resolveColumns(headers []string) (columnIndexes, error) {
	columns := columnIndexes{project: -1, eventType: -1, occurredAt: -1, details: -1}
	for idx, header := range headers {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case columnProject:
			columns.project = idx
		case columnEventType:
			columns.eventType = idx
		case columnOccurredAt:
			columns.occurredAt = idx
		case columnDetails:
			columns.details = idx
		}
	}

	for name, idx := range map[string]int{
		columnProject:    columns.project,
		columnEventType:  columns.eventType,
		columnOccurredAt: columns.occurredAt,
	} {
		if idx < 0 {
			return columns, fmt.Errorf("missing required column %q", name)
		}
	}
	return columns, nil
}

type tableRow struct {
	// num is the 1-based position in the source file, for warning messages.
	num   int
	cells []string
}

func (r tableRow) cell(idx int) string {
	if idx < 0 || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

type tableData struct {
	headers []string
	rows    []tableRow
}

func parseTable(filename string, payload []byte) (tableData, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("reading csv: %w", err)
	}
	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("opening xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("reading xlsx rows: %w", err)
	}
	return normalizeTable(rows)
}

// normalizeTable takes the first non-blank row as the header and keeps the
// remaining non-blank rows with their original positions.
func normalizeTable(records [][]string) (tableData, error) {
	var table tableData
	for idx, record := range records {
		if blankRow(record) {
			continue
		}
		if table.headers == nil {
			table.headers = record
			continue
		}
		table.rows = append(table.rows, tableRow{num: idx + 1, cells: record})
	}
	if table.headers == nil {
		return tableData{}, errors.New("no rows found in file")
	}
	return table, nil
}

func blankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
