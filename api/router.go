package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter installs middleware and registers routes. ws serves /ws and is
// kept outside the request timeout.
func NewRouter(h *Handler, ws http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors)

	if ws != nil {
		r.Handle("/ws", ws)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))

		r.Get("/health", h.Health)
		r.Route("/api", func(r chi.Router) {
			r.Get("/leaderboard", h.GetLeaderboard)
			r.Post("/scores", h.SubmitScore)
			r.Get("/stats", h.Stats)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})

	return r
}

// cors allows browser clients from any origin; scores carry no credentials.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("request", "tag", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start).Round(time.Microsecond),
			"req_id", chimw.GetReqID(r.Context()))
	})
}
