package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/classinsight/internal/model"
)

type teachingActionRequest struct {
	TeachingAction string `json:"teaching_action"`
}

// question loads the run and question named in the URL, writing an error
// response and returning nil if either is missing.
func (h *Handler) question(w http.ResponseWriter, r *http.Request) *model.QuestionAnalysis {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeStoreError(w, err)
		return nil
	}
	qid := chi.URLParam(r, "questionID")
	q := run.Question(qid)
	if q == nil {
		writeError(w, http.StatusNotFound, "question "+qid+" not found in run "+run.RunID)
		return nil
	}
	return q
}

func (h *Handler) handleTransparency(w http.ResponseWriter, r *http.Request) {
	q := h.question(w, r)
	if q == nil {
		return
	}
	writeJSON(w, http.StatusOK, q.Transparency)
}

func (h *Handler) handleSetTeachingAction(w http.ResponseWriter, r *http.Request) {
	var req teachingActionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.TeachingAction == "" {
		writeError(w, http.StatusBadRequest, "teaching_action is required")
		return
	}

	runID := chi.URLParam(r, "runID")
	qid := chi.URLParam(r, "questionID")
	if err := h.store.SetTeachingAction(r.Context(), runID, qid, req.TeachingAction); err != nil {
		writeStoreError(w, err)
		return
	}
	slog.Info("teaching action overridden", "run_id", runID, "question_id", qid)

	q := h.question(w, r)
	if q == nil {
		return
	}
	writeJSON(w, http.StatusOK, q.Summary)
}

func (h *Handler) handleDraftAction(w http.ResponseWriter, r *http.Request) {
	if h.drafter == nil {
		writeError(w, http.StatusServiceUnavailable, "teaching-action drafting is not configured")
		return
	}
	q := h.question(w, r)
	if q == nil {
		return
	}

	draft, err := h.drafter.DraftTeachingAction(r.Context(), *q)
	if err != nil {
		slog.Error("LLM draft failed", "question_id", q.QuestionID, "error", err)
		writeError(w, http.StatusBadGateway, "LLM draft failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
