package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"card-flip/config"
	"card-flip/leaderboard"
	"card-flip/receipt"
	"card-flip/storage"
)

type fakeSessions struct{}

func (fakeSessions) Active() int       { return 3 }
func (fakeSessions) Completed() uint64 { return 7 }

var fullRun = leaderboard.Score{Attempts: 10, TimeSeconds: 37, MatchedPairs: 8, TotalPairs: 8}

func newTestServer(t *testing.T, store storage.ScoreStore) (http.Handler, *receipt.Signer) {
	t.Helper()
	cfg := config.Defaults()
	signer := receipt.NewSigner("test-secret", time.Hour)
	lb := leaderboard.New(store, 10, cfg.MaxNameLength, time.Second)
	h := NewHandler(cfg, lb, signer, fakeSessions{})
	return NewRouter(h, nil), signer
}

func sqliteStore(t *testing.T) storage.ScoreStore {
	t.Helper()
	s, err := storage.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "scores.db"), "card_flip_scores")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, storage.NewStubStore())
	rec := do(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestPreflight(t *testing.T) {
	h, _ := newTestServer(t, storage.NewStubStore())
	rec := do(t, h, http.MethodOptions, "/api/scores", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestLeaderboardNotConfigured(t *testing.T) {
	h, _ := newTestServer(t, storage.NewStubStore())
	rec := do(t, h, http.MethodGet, "/api/leaderboard", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp LeaderboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != leaderboard.MsgLoadFailed || resp.Entries == nil {
		t.Errorf("unexpected body %+v", resp)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	h, _ := newTestServer(t, sqliteStore(t))
	rec := do(t, h, http.MethodGet, "/api/leaderboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp LeaderboardResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != leaderboard.MsgEmpty || len(resp.Entries) != 0 {
		t.Errorf("unexpected body %+v", resp)
	}
}

func TestSubmitScoreAndList(t *testing.T) {
	h, signer := newTestServer(t, sqliteStore(t))
	token, err := signer.Sign("sess-1", fullRun)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/api/scores", SubmitScoreRequest{Name: " Dana ", Receipt: token})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created SubmitScoreResponse
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Message != leaderboard.MsgSaved || created.Score != fullRun {
		t.Errorf("unexpected body %+v", created)
	}

	rec = do(t, h, http.MethodPost, "/api/scores", SubmitScoreRequest{Name: "again", Receipt: token})
	if rec.Code != http.StatusConflict {
		t.Errorf("replayed receipt: expected 409, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/leaderboard", nil)
	var resp LeaderboardResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %+v", resp)
	}
	e := resp.Entries[0]
	if e.Rank != 1 || e.Name != "Dana" || e.Time != "37s" || e.Attempts != "10 tries" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestSubmitScoreErrors(t *testing.T) {
	h, signer := newTestServer(t, storage.NewStubStore())
	token, _ := signer.Sign("sess-1", fullRun)
	forged, _ := receipt.NewSigner("other", time.Hour).Sign("sess-1", fullRun)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"missing receipt", SubmitScoreRequest{Name: "x"}, http.StatusBadRequest},
		{"forged receipt", SubmitScoreRequest{Receipt: forged}, http.StatusUnauthorized},
		{"not configured", SubmitScoreRequest{Receipt: token}, http.StatusServiceUnavailable},
		{"not configured retry", SubmitScoreRequest{Receipt: token}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/scores", tc.body)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body)
			}
		})
	}
}

func TestStats(t *testing.T) {
	h, _ := newTestServer(t, storage.NewStubStore())
	rec := do(t, h, http.MethodGet, "/api/stats", nil)
	var resp map[string]float64
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["activeSessions"] != 3 || resp["completedRuns"] != 7 {
		t.Errorf("unexpected stats %v", resp)
	}
}

func TestNotFound(t *testing.T) {
	h, _ := newTestServer(t, storage.NewStubStore())
	if rec := do(t, h, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
