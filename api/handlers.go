package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"card-flip/apperrors"
	"card-flip/config"
	"card-flip/leaderboard"
	"card-flip/receipt"
)

// Leaderboard is what the handlers need from the leaderboard client.
type Leaderboard interface {
	Submit(ctx context.Context, name string, s leaderboard.Score) leaderboard.Outcome
	Load(ctx context.Context) leaderboard.View
}

// ReceiptVerifier checks run receipts issued by game sessions.
type ReceiptVerifier interface {
	Verify(token string) (*receipt.Claims, error)
}

// SessionStats reports live session counters.
type SessionStats interface {
	Active() int
	Completed() uint64
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config      *config.Config
	Leaderboard Leaderboard
	Receipts    ReceiptVerifier
	Sessions    SessionStats

	mu   sync.Mutex
	used map[string]struct{} // receipts already recorded
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, lb Leaderboard, receipts ReceiptVerifier, sessions SessionStats) *Handler {
	return &Handler{
		Config:      cfg,
		Leaderboard: lb,
		Receipts:    receipts,
		Sessions:    sessions,
		used:        make(map[string]struct{}),
	}
}

// LeaderboardResponse is the JSON structure for /api/leaderboard.
type LeaderboardResponse struct {
	Entries []leaderboard.Row `json:"entries"`
	Message string            `json:"message,omitempty"`
}

// SubmitScoreRequest is the body of POST /api/scores.
type SubmitScoreRequest struct {
	Name    string `json:"name"`
	Receipt string `json:"receipt"`
}

// SubmitScoreResponse is returned for a recorded score.
type SubmitScoreResponse struct {
	Message string            `json:"message"`
	Score   leaderboard.Score `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetLeaderboard returns the top scores. An empty board is a 200 with a message.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	view := h.Leaderboard.Load(r.Context())
	status := http.StatusOK
	if view.Err != nil {
		status = statusFor(view.Err)
	}
	entries := view.Entries
	if entries == nil {
		entries = []leaderboard.Row{}
	}
	writeJSON(w, status, LeaderboardResponse{Entries: entries, Message: view.Message})
}

// SubmitScore records a finished run. The run's numbers come from the
// signed receipt; the request only chooses the display name.
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req SubmitScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Receipt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "receipt is required"})
		return
	}

	claims, err := h.Receipts.Verify(req.Receipt)
	if err != nil {
		slog.Warn("rejected score receipt", "tag", "api", "err", err)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid receipt"})
		return
	}

	h.mu.Lock()
	_, dup := h.used[req.Receipt]
	if !dup {
		h.used[req.Receipt] = struct{}{}
	}
	h.mu.Unlock()
	if dup {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "score already recorded"})
		return
	}

	out := h.Leaderboard.Submit(r.Context(), req.Name, claims.Score())
	if !out.OK {
		h.mu.Lock()
		delete(h.used, req.Receipt)
		h.mu.Unlock()
		writeJSON(w, statusFor(out.Err), errorResponse{Error: out.Alert})
		return
	}
	writeJSON(w, http.StatusCreated, SubmitScoreResponse{Message: out.Alert, Score: claims.Score()})
}

// Stats reports live sessions and completed runs.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"activeSessions": 0, "completedRuns": uint64(0)}
	if h.Sessions != nil {
		resp["activeSessions"] = h.Sessions.Active()
		resp["completedRuns"] = h.Sessions.Completed()
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrInvalidReceipt):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "tag", "api", "err", err)
	}
}
