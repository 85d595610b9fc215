package game

import (
	"context"
	"log/slog"
	"time"

	"card-flip/config"
	"card-flip/leaderboard"
	"card-flip/wsutil"
)

// ActionType enumerates the kinds of actions a session can process.
type ActionType int

const (
	ActionClick ActionType = iota
	ActionFlip
	ActionHover
	ActionReset
	ActionPlayAgain
	ActionSaveScore
	ActionShowLeaderboard
	ActionRefreshLeaderboard
	ActionCloseLeaderboard
	ActionLeaderboardLoaded // internal: a Load call returned
	ActionScoreSaved        // internal: a Submit call returned
	ActionClose             // connection gone; stop the session
)

// Action is a player or internal event sent into the session's action channel.
type Action struct {
	Type    ActionType
	X, Y    float64             // pixel position (Click, Hover)
	Index   int                 // card index (Flip)
	Name    string              // player name (SaveScore)
	View    leaderboard.View    // LeaderboardLoaded
	Outcome leaderboard.Outcome // ScoreSaved
}

// Leaderboard is what a session needs from the leaderboard client.
type Leaderboard interface {
	Submit(ctx context.Context, name string, s leaderboard.Score) leaderboard.Outcome
	Load(ctx context.Context) leaderboard.View
}

// ReceiptSigner signs the result of a finished run. Optional.
type ReceiptSigner interface {
	Sign(sessionID string, s leaderboard.Score) (string, error)
}

// Session drives one player's games over a websocket: it owns the current
// Run, ticks it every frame and streams state changes to Send. All Run
// mutation happens on the Run goroutine.
type Session struct {
	ID          string
	Config      *config.Config
	Send        chan []byte
	Leaderboard Leaderboard
	Receipts    ReceiptSigner

	Actions chan Action
	Done    chan struct{}

	// OnEnd is called when the session loop exits.
	OnEnd func(id string)
	// OnGameOver is called for every completed run.
	OnGameOver func(id string, res Result)

	current *Run
	lbOpen  bool
	saving  bool
	games   int
	ctx     context.Context
	now     func() time.Time
}

// NewSession creates a session with a freshly dealt run.
func NewSession(id string, cfg *config.Config, send chan []byte, lb Leaderboard, receipts ReceiptSigner) *Session {
	s := &Session{
		ID:          id,
		Config:      cfg,
		Send:        send,
		Leaderboard: lb,
		Receipts:    receipts,
		Actions:     make(chan Action, 64),
		Done:        make(chan struct{}),
		ctx:         context.Background(),
		now:         time.Now,
	}
	s.newRun()
	return s
}

// Current returns the run being played. Only safe to call from the session
// goroutine or before Run starts.
func (s *Session) Current() *Run {
	return s.current
}

// Post delivers an action unless the session has ended.
func (s *Session) Post(a Action) bool {
	select {
	case <-s.Done:
		return false
	default:
	}
	select {
	case s.Actions <- a:
		return true
	case <-s.Done:
		return false
	}
}

// Run is the session loop: it processes actions sequentially and advances
// the current run every frame. It should be run as a goroutine.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx
	defer func() {
		cancel()
		s.current.Stop()
		close(s.Done)
		if s.OnEnd != nil {
			s.OnEnd(s.ID)
		}
	}()

	s.sendIntro()

	ticker := time.NewTicker(s.Config.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		case action, ok := <-s.Actions:
			if !ok {
				return
			}
			if stop := s.handle(action); stop {
				return
			}
		}
	}
}

// tick advances the current run one frame and broadcasts it if anything moved.
func (s *Session) tick() {
	s.current.Tick(s.now())
	if s.current.TakeDirty() {
		s.sendFrame()
	}
}

// handle processes one action and reports whether the session should stop.
func (s *Session) handle(a Action) bool {
	switch a.Type {
	case ActionClick:
		s.current.Click(a.X, a.Y)
	case ActionFlip:
		s.current.Flip(a.Index)
	case ActionHover:
		if s.current.Hover(a.X, a.Y) {
			s.current.TakeDirty()
			s.sendFrame()
		}
	case ActionReset, ActionPlayAgain:
		s.reset()
	case ActionSaveScore:
		s.handleSaveScore(a.Name)
	case ActionShowLeaderboard, ActionRefreshLeaderboard:
		s.lbOpen = true
		s.loadLeaderboard()
	case ActionCloseLeaderboard:
		s.lbOpen = false
		wsutil.SendJSON(s.Send, LeaderboardMsg{Type: "leaderboard", Open: false, Entries: []leaderboard.Row{}})
	case ActionLeaderboardLoaded:
		if s.lbOpen {
			wsutil.SendJSON(s.Send, LeaderboardMsg{
				Type:    "leaderboard",
				Open:    true,
				Entries: a.View.Entries,
				Message: a.View.Message,
			})
		}
	case ActionScoreSaved:
		s.saving = false
		s.sendAlert(a.Outcome.Alert)
		if a.Outcome.OK && s.lbOpen {
			s.loadLeaderboard()
		}
	case ActionClose:
		return true
	}
	return false
}

// newRun replaces the current run. Timers of the old run are cancelled,
// so a pending match or mismatch never lands on the new board.
func (s *Session) newRun() {
	if s.current != nil {
		s.current.Stop()
	}
	r := NewRunFromConfig(s.Config, s.now())
	r.OnStats = func(st Stats) {
		wsutil.SendJSON(s.Send, BuildStatsMsg(st))
	}
	r.OnGameOver = s.gameOver
	s.current = r
	s.games++
}

func (s *Session) reset() {
	s.newRun()
	slog.Debug("new game", "tag", "game", "session", s.ID, "game", s.games)
	s.sendIntro()
}

func (s *Session) gameOver(res Result) {
	slog.Info("game over", "tag", "game", "session", s.ID, "attempts", res.Attempts, "time", res.TimeSeconds)
	msg := GameOverMsg{Type: "game_over", Attempts: res.Attempts, Time: res.TimeSeconds}
	if s.Receipts != nil {
		token, err := s.Receipts.Sign(s.ID, scoreOf(res))
		if err != nil {
			slog.Error("failed to sign receipt", "tag", "game", "session", s.ID, "err", err)
		} else {
			msg.Receipt = token
		}
	}
	wsutil.SendJSON(s.Send, msg)
	if s.OnGameOver != nil {
		s.OnGameOver(s.ID, res)
	}
}

func (s *Session) handleSaveScore(name string) {
	res, ok := s.current.Result()
	if !ok {
		s.sendError("Finish the game before saving a score.")
		return
	}
	if s.saving {
		return
	}
	if s.Leaderboard == nil {
		s.sendAlert(leaderboard.MsgSaveFailed)
		return
	}
	s.saving = true
	lb, ctx := s.Leaderboard, s.ctx
	go func() {
		out := lb.Submit(ctx, name, scoreOf(res))
		s.Post(Action{Type: ActionScoreSaved, Outcome: out})
	}()
}

// loadLeaderboard shows the loading state and fetches entries off the
// session goroutine; the result comes back as ActionLeaderboardLoaded.
func (s *Session) loadLeaderboard() {
	wsutil.SendJSON(s.Send, LeaderboardMsg{
		Type:    "leaderboard",
		Open:    true,
		Loading: true,
		Entries: []leaderboard.Row{},
		Message: leaderboard.MsgLoading,
	})
	if s.Leaderboard == nil {
		s.handle(Action{Type: ActionLeaderboardLoaded, View: leaderboard.View{
			Entries: []leaderboard.Row{},
			Message: leaderboard.MsgLoadFailed,
		}})
		return
	}
	lb, ctx := s.Leaderboard, s.ctx
	go func() {
		view := lb.Load(ctx)
		s.Post(Action{Type: ActionLeaderboardLoaded, View: view})
	}()
}

func (s *Session) sendIntro() {
	l := s.current.Board.Layout
	wsutil.SendJSON(s.Send, SessionMsg{
		Type:      "session",
		SessionID: s.ID,
		Rows:      l.Rows,
		Cols:      l.Cols,
		CardSize:  l.CardSize,
		Spacing:   l.Spacing,
		Width:     l.Width(),
		Height:    l.Height(),
	})
	wsutil.SendJSON(s.Send, BuildStatsMsg(s.current.Stats()))
	s.current.TakeDirty()
	s.sendFrame()
}

func (s *Session) sendFrame() {
	wsutil.SendJSON(s.Send, FrameMsg{
		Type:  "frame",
		Phase: s.current.Phase.String(),
		Cards: BuildCardViews(s.current.Board),
	})
}

func (s *Session) sendAlert(message string) {
	wsutil.SendJSON(s.Send, AlertMsg{Type: "alert", Message: message})
}

func (s *Session) sendError(message string) {
	wsutil.SendJSON(s.Send, ErrorMsg{Type: "error", Message: message})
}

func scoreOf(res Result) leaderboard.Score {
	return leaderboard.Score{
		Attempts:     res.Attempts,
		TimeSeconds:  res.TimeSeconds,
		MatchedPairs: res.MatchedPairs,
		TotalPairs:   res.TotalPairs,
	}
}
