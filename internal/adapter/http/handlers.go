package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/groundwater-monthly/internal/adapter/sheet"
	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/pipeline"
)

type frameResponse struct {
	Variant     domain.Variant    `json:"variant"`
	Statistics  []string          `json:"statistics"`
	GeneratedAt time.Time         `json:"generated_at"`
	Columns     []string          `json:"columns"`
	Rows        [][]any           `json:"rows"`
	Warnings    []string          `json:"warnings"`
	Dropped     domain.DropCounts `json:"dropped"`
	RowsRead    int               `json:"rows_read"`
}

type seriesResponse struct {
	Variant    domain.Variant  `json:"variant"`
	Statistics []string        `json:"statistics"`
	Series     []domain.Series `json:"series"`
	Warnings   []string        `json:"warnings"`
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.reporter.ListTables(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]string{"tables": nonNil(tables)})
}

func (s *Server) handleWells(w http.ResponseWriter, r *http.Request) {
	v, err := domain.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wells, err := s.reporter.Wells(r.Context(), v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"variant": v, "wells": nonNil(wells)})
}

func (s *Server) handleLong(w http.ResponseWriter, r *http.Request) {
	report, ok := s.runReport(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newFrameResponse(report, report.Long.Frame()))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	report, ok := s.runReport(w, r)
	if !ok {
		return
	}
	series := report.Long.Series()
	if series == nil {
		series = []domain.Series{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, seriesResponse{
		Variant:    report.Variant,
		Statistics: report.Statistics.Names(),
		Series:     series,
		Warnings:   nonNil(report.Warnings),
	})
}

func (s *Server) handleWide(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format != "" && format != "json" && format != "csv" {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unsupported format %q", format)})
		return
	}

	report, ok := s.runReport(w, r)
	if !ok {
		return
	}
	frame := report.Wide.Frame()

	if format != "csv" {
		sharedobs.WriteJSON(w, http.StatusOK, newFrameResponse(report, frame))
		return
	}

	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.FileName(report.Variant, report.Statistics)))
	for _, warning := range report.Warnings {
		w.Header().Add("X-Report-Warning", warning)
	}
	w.WriteHeader(http.StatusOK)
	if err := sheet.WriteCSV(w, frame); err != nil {
		s.logger.Error("write csv failed", "variant", report.Variant, "error", err)
	}
}

// runReport parses the variant, statistics and wells of a request and runs
// the pipeline. It writes the error response itself and reports false on failure.
func (s *Server) runReport(w http.ResponseWriter, r *http.Request) (*pipeline.Report, bool) {
	v, err := domain.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}

	q := r.URL.Query()
	stats := listParam(q["stats"])
	if !q.Has("stats") {
		stats = s.opts.DefaultStatistics
	}

	report, err := s.reporter.Run(r.Context(), pipeline.Request{
		Variant:    v,
		Statistics: stats,
		Wells:      listParam(q["wells"]),
	})
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return report, true
}

func newFrameResponse(report *pipeline.Report, f domain.Frame) frameResponse {
	rows := make([][]any, len(f.Rows))
	for i, row := range f.Rows {
		out := make([]any, len(row))
		for j, cell := range row {
			if t, ok := cell.(time.Time); ok {
				out[j] = t.Format(time.DateOnly)
				continue
			}
			out[j] = cell
		}
		rows[i] = out
	}
	return frameResponse{
		Variant:     report.Variant,
		Statistics:  report.Statistics.Names(),
		GeneratedAt: report.GeneratedAt,
		Columns:     f.Columns,
		Rows:        rows,
		Warnings:    nonNil(report.Warnings),
		Dropped:     report.Dropped,
		RowsRead:    report.RowsRead,
	}
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		missing *domain.MissingFieldError
		unknown *domain.UnknownStatisticError
		store   *pipeline.StoreError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyStatisticSelection), errors.As(err, &unknown):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownVariant):
		return http.StatusNotFound
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	case errors.As(err, &store):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	body := map[string]any{"error": err.Error()}
	var missing *domain.MissingFieldError
	if errors.As(err, &missing) {
		body["missing_fields"] = missing.Fields
	}
	sharedobs.WriteJSON(w, status, body)
}

// listParam flattens repeated and comma-separated query values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
