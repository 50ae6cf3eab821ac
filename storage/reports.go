package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/autonode/bls-cleanse/interfaces"
)

// ReportArchive keeps finished cleanse reports in a content-addressed backend.
type ReportArchive struct {
	backend interfaces.StorageBackend
	log     *slog.Logger
}

// NewReportArchive creates an archive on top of backend.
func NewReportArchive(backend interfaces.StorageBackend, log *slog.Logger) *ReportArchive {
	return &ReportArchive{backend: backend, log: log}
}

// Store encodes report as JSON and stores it. The returned ID is the SHA-256
// of the encoded report.
func (a *ReportArchive) Store(ctx context.Context, report *interfaces.CleanseReport) (interfaces.ContentID, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("could not encode report: %w", err)
	}

	id, err := a.backend.Store(ctx, data, interfaces.ReportType)
	if err != nil {
		return id, err
	}

	a.log.Info("Archived cleanse report",
		slog.String("session", report.SessionID),
		slog.String("reportID", id.String()),
		slog.String("location", a.backend.LocationURI()))
	return id, nil
}

// Load fetches and decodes the report stored under id. The content is
// verified against id before decoding.
func (a *ReportArchive) Load(ctx context.Context, id interfaces.ContentID) (*interfaces.CleanseReport, error) {
	data, err := a.backend.Fetch(ctx, id, interfaces.ReportType)
	if err != nil {
		return nil, err
	}

	if got := interfaces.ComputeID(data); !got.Equal(id) {
		return nil, fmt.Errorf("report content does not match ID %s (got %s)", id, got)
	}

	var report interfaces.CleanseReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("could not decode report %s: %w", id, err)
	}
	return &report, nil
}

// AsReporter returns an interfaces.Reporter that archives every final report.
// Each store is bounded by timeout; failures are logged.
func (a *ReportArchive) AsReporter(timeout time.Duration) interfaces.Reporter {
	return archiveReporter{archive: a, timeout: timeout}
}

type archiveReporter struct {
	archive *ReportArchive
	timeout time.Duration
}

func (archiveReporter) Before(string, []interfaces.BLSKeyID, []interfaces.BLSKeyID) {}

func (archiveReporter) Metrics(string, *interfaces.MetricsBlock) {}

func (r archiveReporter) After(report *interfaces.CleanseReport) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.archive.Store(ctx, report); err != nil {
		r.archive.log.Error("Failed to archive cleanse report", slog.String("session", report.SessionID), "err", err)
	}
}
