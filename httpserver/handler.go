package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxBodySize is the maximum allowed request body size.
const maxBodySize = 4 * 1024

// AnswerRequest is the body of POST /api/pending/{id}.
type AnswerRequest struct {
	Confirm *bool `json:"confirm"`
}

// Handler serves the remote confirmation API.
type Handler struct {
	confirmer *RemoteConfirmer
	log       *slog.Logger
}

// NewHandler creates a handler answering questions of confirmer.
func NewHandler(confirmer *RemoteConfirmer, log *slog.Logger) *Handler {
	return &Handler{confirmer: confirmer, log: log}
}

// HandlePending returns the pending question, or 204 when there is none.
//
// URL format: GET /api/pending
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	q, ok := h.confirmer.Pending()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleAnswer resolves the pending question.
//
// URL format: POST /api/pending/{id}
// Request body: {"confirm": true|false}
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req AnswerRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Confirm == nil {
		http.Error(w, `Request body must be {"confirm": true|false}`, http.StatusBadRequest)
		return
	}

	err = h.confirmer.Answer(id, *req.Confirm)
	switch {
	case errors.Is(err, ErrQuestionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrAlreadyAnswered):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.log.Error("Failed to record answer", "err", err, slog.String("id", id))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	status := "declined"
	if *req.Confirm {
		status = "confirmed"
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": status})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
