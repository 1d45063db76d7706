package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/recall/internal/memory"
	"github.com/flemzord/recall/pkg/session"
)

// appendRequest is the body of POST /sessions/{id}/memory.
type appendRequest struct {
	Messages []session.Message `json:"messages"`
}

// deleteLastRequest is the body of DELETE /sessions/{id}/memory/last.
type deleteLastRequest struct {
	Count       int    `json:"count"`
	MessageText string `json:"message_text"`
}

// handleReadMemory returns the recent window and context for a session.
// An unknown session is an empty result, not a 404.
func (g *Gateway) handleReadMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		mem, err := g.svc.Read(r.Context(), id)
		if err != nil {
			g.serviceError(w, r, err)
			return
		}

		if mem.Messages == nil {
			mem.Messages = []session.Message{}
		}
		writeJSON(w, http.StatusOK, mem)
	}
}

// handleAppendMemory appends a batch of messages. Compaction, if
// triggered, is a pure side effect: the response never waits for it.
func (g *Gateway) handleAppendMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		var req appendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, session.Ack{Status: "Failed: invalid request body"})
			return
		}

		if err := g.svc.Append(r.Context(), id, req.Messages); err != nil {
			g.serviceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session.AckOK)
	}
}

// handleDeleteMemory removes a session's list and context. Idempotent.
func (g *Gateway) handleDeleteMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		if err := g.svc.Delete(r.Context(), id); err != nil {
			g.serviceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session.AckOK)
	}
}

// handleDeleteLast performs the verified trim of the newest count messages.
func (g *Gateway) handleDeleteLast() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		var req deleteLastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, session.Ack{Status: "Failed: invalid request body"})
			return
		}

		if err := g.svc.DeleteLast(r.Context(), id, req.Count, req.MessageText); err != nil {
			g.serviceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session.AckOK)
	}
}

// serviceError maps service failures onto the wire: verification and input
// failures are a rejected request, everything else means the store is
// unreachable.
func (g *Gateway) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	if memory.IsClientError(err) {
		writeJSON(w, http.StatusBadRequest, session.Ack{Status: "Failed: " + userMessage(err)})
		return
	}

	g.logger.Error("memory operation failed",
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusServiceUnavailable, session.Ack{Status: "Failed: store unavailable"})
}

// userMessage strips internal prefixes from client-facing errors.
func userMessage(err error) string {
	switch {
	case errors.Is(err, memory.ErrTextMismatch):
		return "Message text mismatch"
	case errors.Is(err, memory.ErrInvalidRole):
		return `role must not contain ": "`
	case errors.Is(err, memory.ErrInvalidCount):
		return "count must be at least 1"
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
