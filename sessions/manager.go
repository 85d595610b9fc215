package sessions

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"card-flip/config"
	"card-flip/game"
)

// Manager starts one game session per connection and tracks the live ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*game.Session

	ctx         context.Context
	config      *config.Config
	leaderboard game.Leaderboard
	receipts    game.ReceiptSigner

	completed atomic.Uint64
}

// NewManager creates a Manager. Sessions it starts stop when ctx is cancelled.
func NewManager(ctx context.Context, cfg *config.Config, lb game.Leaderboard, receipts game.ReceiptSigner) *Manager {
	return &Manager{
		sessions:    make(map[string]*game.Session),
		ctx:         ctx,
		config:      cfg,
		leaderboard: lb,
		receipts:    receipts,
	}
}

// Start creates a session writing to send and runs it in its own goroutine.
func (m *Manager) Start(send chan []byte) *game.Session {
	id := uuid.NewString()
	s := game.NewSession(id, m.config, send, m.leaderboard, m.receipts)
	s.OnEnd = m.remove
	s.OnGameOver = func(id string, res game.Result) {
		n := m.completed.Add(1)
		slog.Info("run completed", "tag", "sessions", "session", id, "time", res.TimeSeconds, "attempts", res.Attempts, "completed", n)
	}

	m.mu.Lock()
	m.sessions[id] = s
	active := len(m.sessions)
	m.mu.Unlock()

	slog.Info("session started", "tag", "sessions", "session", id, "active", active)
	go s.Run(m.ctx)
	return s
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*game.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Completed returns how many runs have been finished since startup.
func (m *Manager) Completed() uint64 {
	return m.completed.Load()
}

// Shutdown asks every live session to stop and waits until they have.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*game.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.Post(game.Action{Type: game.ActionClose})
	}
	for _, s := range live {
		<-s.Done
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	active := len(m.sessions)
	m.mu.Unlock()
	slog.Info("session ended", "tag", "sessions", "session", id, "active", active)
}
