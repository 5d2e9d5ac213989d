// Package server exposes a read-only HTTP view over processed documents.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

const (
	defaultPage = 50
	maxPage     = 500
)

// ActionsExporter renders all action items as a workbook.
type ActionsExporter interface {
	ExportActionsXLSX(ctx context.Context) ([]byte, error)
}

// Server serves the read-only API.
type Server struct {
	repo     ports.ReadRepository
	exporter ActionsExporter
	log      *slog.Logger
}

// New builds a Server.
func New(repo ports.ReadRepository, exporter ActionsExporter, logger *slog.Logger) *Server {
	return &Server{repo: repo, exporter: exporter, log: logging.OrDiscard(logger)}
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/documents", s.handleList)
	r.Get("/documents/{id}", s.handleGet)
	r.Get("/actions.xlsx", s.handleExport)
	return r
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Error string `json:"error"`
}

type documentResponse struct {
	ID           int64      `json:"id"`
	Regulator    string     `json:"regulator"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	PubDate      *time.Time `json:"pub_date,omitempty"`
	Hash         string     `json:"hash"`
	State        string     `json:"state"`
	Attempts     int        `json:"attempts"`
	LastError    string     `json:"last_error,omitempty"`
	DiscoveredAt time.Time  `json:"discovered_at"`
}

type documentViewResponse struct {
	documentResponse
	Summary   *string         `json:"summary"`
	Actions   json.RawMessage `json:"actions"`
	Processed *time.Time      `json:"processed_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := ports.ListFilter{
		State:     domain.State(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("state")))),
		Regulator: strings.TrimSpace(r.URL.Query().Get("regulator")),
		Limit:     clampInt(r.URL.Query().Get("limit"), defaultPage, maxPage),
	}
	if filter.State != "" && !filter.State.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown state " + string(filter.State)})
		return
	}

	docs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.Error("list documents", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid document id"})
		return
	}

	view, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.log.Error("get document", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	resp := documentViewResponse{documentResponse: toDocumentResponse(view.Document), Actions: json.RawMessage("[]")}
	if view.Summary != nil {
		resp.Summary = &view.Summary.Text
		created := view.Summary.CreatedAt
		resp.Processed = &created
	}
	if view.Actions != nil && json.Valid([]byte(view.Actions.JSON)) {
		resp.Actions = json.RawMessage(view.Actions.JSON)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "export disabled"})
		return
	}

	data, err := s.exporter.ExportActionsXLSX(r.Context())
	if err != nil {
		s.log.Error("export actions", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="actions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func toDocumentResponse(d domain.Document) documentResponse {
	resp := documentResponse{
		ID:           d.ID,
		Regulator:    d.Regulator,
		Title:        d.Title,
		URL:          d.URL,
		Hash:         d.Hash,
		State:        string(d.State),
		Attempts:     d.Attempts,
		LastError:    d.LastError,
		DiscoveredAt: d.DiscoveredAt,
	}
	if !d.PubDate.IsZero() {
		pub := d.PubDate
		resp.PubDate = &pub
	}
	return resp
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
