package http

import (
	"net/http"
	"time"

	"finanze/internal/amqp"
	"finanze/internal/core"
	"finanze/internal/report"
)

// ReportResponse is the filtered report screen: formatted rows plus the
// footer totals for exactly the returned rows.
type ReportResponse struct {
	Rows    []report.Row        `json:"rows"`
	Summary report.RangeSummary `json:"summary"`
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	q := parseReportQuery(r)

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Report load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cats := core.NewCategorySet(snap.Categories)
	filtered := report.Filter(snap.Transactions, cats, q)

	writeJSON(w, http.StatusOK, ReportResponse{
		Rows:    report.BuildRows(filtered, cats),
		Summary: report.BuildSummary(filtered),
	})
}

// handleExportDownload renders the filtered report synchronously and serves
// it as an attachment.
func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	q := parseReportQuery(r)
	format := r.URL.Query().Get("format")

	switch format {
	case report.FormatPDF, report.FormatCSV, report.FormatExcel:
	default:
		writeError(w, http.StatusBadRequest, "format must be one of pdf, csv, excel")
		return
	}

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cats := core.NewCategorySet(snap.Categories)
	filtered := report.Filter(snap.Transactions, cats, q)
	rows := report.BuildRows(filtered, cats)

	var (
		data        []byte
		contentType string
	)
	switch format {
	case report.FormatPDF:
		meta := report.DocumentMeta{
			Title:         "Gestione Finanze",
			From:          q.From,
			To:            q.To,
			CategoryNames: s.filterNames(cats, q.CategoryIDs),
		}
		data, err = report.RenderPDF(rows, report.BuildSummary(filtered), meta, s.pdfOpts)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "PDF render failed", "error", err)
			writeError(w, http.StatusInternalServerError, "pdf rendering unavailable")
			return
		}
		contentType = "application/pdf"
	default:
		data = report.RenderCSV(rows)
		contentType = "text/csv; charset=utf-8"
	}

	fileName := report.ExportFileName(q.From, q.To, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	s.logger.InfoContext(r.Context(), "Report export served",
		"format", format,
		"file_name", fileName,
		"row_count", len(rows))
}

type exportRequest struct {
	Format      string   `json:"format"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

type exportAccepted struct {
	JobID    string `json:"job_id"`
	FileName string `json:"file_name"`
}

// handleExportEnqueue hands the export off to the worker queue and answers
// immediately with the job id and the file name the worker will produce.
func (s *Server) handleExportEnqueue(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "async exports are not configured")
		return
	}

	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg := amqp.NewExportJobMessage(req.Format, req.From, req.To, req.CategoryIDs)
	if !msg.ValidFormat() {
		writeError(w, http.StatusBadRequest, "format must be one of pdf, csv, excel")
		return
	}

	if err := s.publisher.PublishExportJob(r.Context(), msg); err != nil {
		s.logger.ErrorContext(r.Context(), "Export job publish failed", "error", err, "job_id", msg.JobID)
		writeError(w, http.StatusBadGateway, "could not enqueue export job")
		return
	}

	var from, to time.Time
	from = core.ParseDate(req.From).Time
	to = core.ParseDate(req.To).Time
	writeJSON(w, http.StatusAccepted, exportAccepted{
		JobID:    msg.JobID,
		FileName: report.ExportFileName(from, to, req.Format),
	})
}

// filterNames resolves category filter ids to display names, keeping raw
// ids for references that no longer resolve.
func (s *Server) filterNames(cats core.CategorySet, ids []string) []string {
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
