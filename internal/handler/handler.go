package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/classinsight/internal/analysis"
	"github.com/pavelanni/classinsight/internal/i18n"
	"github.com/pavelanni/classinsight/internal/ingest"
	"github.com/pavelanni/classinsight/internal/llm"
	"github.com/pavelanni/classinsight/internal/model"
	"github.com/pavelanni/classinsight/internal/store"
)

// maxUploadSize bounds multipart uploads and JSON request bodies.
const maxUploadSize = 10 << 20

// Drafter suggests teaching actions for an analysed question.
type Drafter interface {
	DraftTeachingAction(ctx context.Context, q model.QuestionAnalysis) (*llm.Draft, error)
}

// Config holds handler settings taken from the command line.
type Config struct {
	Teacher string // name printed on exported reports
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	analyzer *analysis.Analyzer
	drafter  Drafter
	config   Config
}

// New creates a new Handler. drafter may be nil, which disables drafting.
func New(s *store.Store, a *analysis.Analyzer, drafter Drafter, cfg Config) (*Handler, error) {
	if s == nil || a == nil {
		return nil, errors.New("handler needs a store and an analyzer")
	}
	return &Handler{store: s, analyzer: a, drafter: drafter, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", h.handleCreateRun)
		r.Get("/", h.handleListRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", h.handleGetRun)
			r.Get("/export", h.handleExport)
			r.With(i18n.Middleware).Get("/report.txt", h.handleReport)
			r.Route("/questions/{questionID}", func(r chi.Router) {
				r.Get("/transparency", h.handleTransparency)
				r.Put("/teaching-action", h.handleSetTeachingAction)
				r.Post("/draft-action", h.handleDraftAction)
			})
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps domain errors to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ingest.ErrInvalidInput), errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
