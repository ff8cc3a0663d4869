// Package api exposes HTTP handlers for stored runs, weekly summaries and sync.
package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/runlog/internal/auth"
	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/logging"
	"example.com/runlog/internal/report"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	syncMu  sync.Mutex
	now     func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(auth.ScopeRunsRead))
			r.Get("/runs", h.listRuns)
			r.Get("/runs/latest", h.latestRun)
			r.Get("/summary/weekly", h.weeklySummary)
			r.Get("/summary/weekly/heatmap", h.weeklyHeatmap)
		})
		r.With(auth.RequireScope(auth.ScopeRunsWrite)).Post("/sync", h.sync)
	})
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// RangeQuery is the inclusive date range accepted by list and summary endpoints.
type RangeQuery struct {
	Start string `validate:"required,datetime=2006-01-02"`
	End   string `validate:"required,datetime=2006-01-02"`
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := RangeQuery{Start: r.URL.Query().Get("start"), End: r.URL.Query().Get("end")}
	if err := validate.Struct(q); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, _ := domain.ParseDate(q.Start)
	end, _ := domain.ParseDate(q.End)
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end must not precede start")
	}
	return start, end, nil
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	records, err := h.service.Runs(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]RunView, 0, len(records))
	for _, rec := range records {
		items = append(items, toRunView(rec))
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{Items: items})
}

func (h *Handler) latestRun(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.LatestRun(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", "no runs stored")
		return
	}
	writeJSON(w, http.StatusOK, toRunView(*rec))
}

func (h *Handler) weeklySummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	rows, err := h.service.WeeklySummary(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]WeekView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toWeekView(row))
	}
	writeJSON(w, http.StatusOK, WeeklySummaryResponse{Weeks: items})
}

func (h *Handler) weeklyHeatmap(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	rows, err := h.service.WeeklySummary(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := "Weekly miles " + start.Format(domain.DateLayout) + " to " + end.Format(domain.DateLayout)
	if err := report.WriteHeatmap(w, title, rows); err != nil {
		logging.Error().Err(err).Msg("render heatmap")
	}
}

// SyncRequest is the optional body of POST /v1/sync.
type SyncRequest struct {
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	in := domain.SyncRequest{EndDate: domain.Date(h.now().In(h.service.Location()))}
	if req.EndDate != "" {
		in.EndDate, _ = domain.ParseDate(req.EndDate)
	}
	if req.StartDate != "" {
		start, _ := domain.ParseDate(req.StartDate)
		in.ManualStart = &start
	}

	if !h.syncMu.TryLock() {
		writeError(w, http.StatusConflict, "sync_in_progress", "another sync is running")
		return
	}
	defer h.syncMu.Unlock()

	result, err := h.service.Sync(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := SyncResponse{
		RunID:       result.RunID,
		WindowStart: result.WindowStart,
		WindowEnd:   result.WindowEnd,
		Fetched:     result.Fetched,
		Inserted:    result.Inserted,
	}
	if result.Latest != nil {
		view := toRunView(*result.Latest)
		resp.Latest = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConfig):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrAuthRefresh), errors.Is(err, domain.ErrFetch):
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
	default:
		logging.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}
