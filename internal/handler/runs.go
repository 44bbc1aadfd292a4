package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/classinsight/internal/ingest"
	"github.com/pavelanni/classinsight/internal/model"
	"github.com/pavelanni/classinsight/internal/report"
	"github.com/pavelanni/classinsight/internal/store"
)

// bodyFilename names JSON request bodies for extension dispatch and upload records.
const bodyFilename = "request.json"

// readUpload returns the uploaded bytes and a filename. Multipart requests
// carry the file in the "file" field; anything else is read as a JSON body.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
		if err != nil {
			return nil, "", fmt.Errorf("%w: read body: %v", ingest.ErrInvalidInput, err)
		}
		return data, bodyFilename, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", fmt.Errorf("%w: file too large or malformed form", ingest.ErrInvalidInput)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: no file uploaded", ingest.ErrInvalidInput)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, filename, err := readUpload(w, r)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	existing, err := h.store.RunForUpload(hash)
	if err != nil {
		slog.Error("failed to check upload status", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != "" {
		run, err := h.store.GetRun(ctx, existing)
		if err == nil {
			slog.Info("upload already analysed", "filename", filename, "run_id", existing)
			writeJSON(w, http.StatusOK, run)
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			writeStoreError(w, err)
			return
		}
	}

	records, err := ingest.Parse(filename, bytes.NewReader(data))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "no answers found in upload")
		return
	}

	run := h.analyzer.Run(store.NewRunID(), ingest.GroupByQuestion(records))
	if err := h.store.SaveRun(ctx, run); err != nil {
		writeStoreError(w, err)
		return
	}
	if err := h.store.RecordUpload(hash, filename, run.RunID); err != nil {
		slog.Error("failed to record upload", "error", err)
	}
	if err := h.store.SetMetadata(store.KeyLastRunID, run.RunID); err != nil {
		slog.Error("failed to record last run", "error", err)
	}

	slog.Info("analysed upload",
		"filename", filename,
		"run_id", run.RunID,
		"records", len(records),
		"questions", len(run.Questions),
	)
	writeJSON(w, http.StatusCreated, run)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []model.RunHeader{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := h.store.ExportRun(r.Context(), chi.URLParam(r, "runID"), h.config.Teacher)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	exp, err := h.store.ExportRun(r.Context(), chi.URLParam(r, "runID"), h.config.Teacher)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteText(r.Context(), &buf, exp); err != nil {
		slog.Error("render report", "run_id", exp.RunID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
