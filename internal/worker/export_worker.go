package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanze/internal/amqp"
	"finanze/internal/core"
	"finanze/internal/report"
	"finanze/internal/storage"
)

// SnapshotLoader is the slice of the repository the worker needs.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (storage.Snapshot, error)
}

// ExportWorker renders report export jobs to files in the export directory.
type ExportWorker struct {
	snapshots SnapshotLoader
	exportDir string
	pdfOpts   report.PDFOptions
	timeout   time.Duration
}

func NewExportWorker(snapshots SnapshotLoader, exportDir string, pdfOpts report.PDFOptions, timeout time.Duration) *ExportWorker {
	return &ExportWorker{
		snapshots: snapshots,
		exportDir: exportDir,
		pdfOpts:   pdfOpts,
		timeout:   timeout,
	}
}

// HandleExportJob processes a single export job message from AMQP. The
// returned file path is inside the export directory; jobs share the
// deterministic download naming, so re-running a job overwrites its file.
func (w *ExportWorker) HandleExportJob(ctx context.Context, msg *amqp.ExportJobMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	slog.InfoContext(ctx, "Processing export job",
		"job_id", msg.JobID,
		"format", msg.Format)

	q := report.Query{
		From:        core.ParseDate(msg.From).Time,
		To:          core.ParseDate(msg.To).Time,
		CategoryIDs: msg.CategoryIDs,
	}

	snap, err := w.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}

	cats := core.NewCategorySet(snap.Categories)
	filtered := report.Filter(snap.Transactions, cats, q)
	rows := report.BuildRows(filtered, cats)

	data, err := w.render(rows, filtered, cats, q, msg.Format)
	if err != nil {
		return "", err
	}

	fileName := report.ExportFileName(q.From, q.To, msg.Format)
	path := filepath.Join(w.exportDir, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	slog.InfoContext(ctx, "Export job rendered",
		"job_id", msg.JobID,
		"format", msg.Format,
		"file_name", fileName,
		"row_count", len(rows))

	return path, nil
}

func (w *ExportWorker) render(rows []report.Row, filtered []core.Transaction, cats core.CategorySet, q report.Query, format string) ([]byte, error) {
	switch format {
	case amqp.FormatCSV, amqp.FormatExcel:
		return report.RenderCSV(rows), nil
	case amqp.FormatPDF:
		meta := report.DocumentMeta{
			Title:         "Gestione Finanze",
			From:          q.From,
			To:            q.To,
			CategoryNames: categoryNames(cats, q.CategoryIDs),
		}
		data, err := report.RenderPDF(rows, report.BuildSummary(filtered), meta, w.pdfOpts)
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported export format: %s", format)
}

// categoryNames resolves filter ids for the document subtitle. Unresolvable
// ids keep their raw form so the filter stays visible in the header.
func categoryNames(cats core.CategorySet, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if cat, ok := cats.Lookup(id); ok {
			names = append(names, cat.Name)
			continue
		}
		names = append(names, id)
	}
	return names
}
