// Package tui plays the card-flip game in a terminal: the board is drawn
// with tcell, mouse cells are mapped onto the board's pixel layout, and the
// leaderboard is reached through the same client the web server uses.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"card-flip/autoplay"
	"card-flip/config"
	"card-flip/game"
	"card-flip/leaderboard"
)

// Terminal geometry of one card slot, in cells.
const (
	cardW  = 8
	cardH  = 4
	gapX   = 2
	gapY   = 1
	boardX = 2
	boardY = 3

	alertDuration = 3 * time.Second
	msgNotDone    = "Finish the game before saving a score."
)

// Options tune an App.
type Options struct {
	Name   string // saved with every score; empty means anonymous
	Demo   bool   // let the autoplay bot play
	Seed   int64  // bot randomness
	Sounds Sounds // nil means Silent
}

// App is one terminal game. Everything except the leaderboard calls runs on
// the Loop goroutine.
type App struct {
	screen tcell.Screen
	cfg    *config.Config
	lb     game.Leaderboard
	sounds Sounds
	name   string
	bot    *autoplay.Player

	run     *game.Run
	result  *game.Result
	games   int
	pressed bool

	alert   string
	alertAt time.Time

	lbOpen    bool
	lbLoading bool
	lbView    leaderboard.View
	saving    bool

	results chan func()
	ctx     context.Context
	now     func() time.Time
}

// New creates an App with a freshly dealt board. lb may be nil.
func New(screen tcell.Screen, cfg *config.Config, lb game.Leaderboard, opts Options) *App {
	a := &App{
		screen:  screen,
		cfg:     cfg,
		lb:      lb,
		sounds:  opts.Sounds,
		name:    opts.Name,
		results: make(chan func(), 8),
		ctx:     context.Background(),
		now:     time.Now,
	}
	if a.sounds == nil {
		a.sounds = Silent{}
	}
	if opts.Demo {
		a.bot = autoplay.New(cfg.Autoplay, opts.Seed)
	}
	screen.EnableMouse()
	a.newRun()
	return a
}

// Run returns the game being played.
func (a *App) Run() *game.Run {
	return a.run
}

// Loop reads terminal events and redraws every frame until the player quits
// or ctx is cancelled.
func (a *App) Loop(ctx context.Context) error {
	a.ctx = ctx
	ticker := time.NewTicker(a.cfg.FrameInterval())
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				// screen finalized
				return
			}
			eventChan <- ev
		}
	}()

	a.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventChan:
			if !a.HandleEvent(ev) {
				return nil
			}
		case fn := <-a.results:
			fn()
		case <-ticker.C:
			a.Tick(a.now())
			a.Draw()
		}
	}
}

// Tick lets the bot move, then advances the run to now.
func (a *App) Tick(now time.Time) {
	if a.bot != nil {
		a.bot.Step(a.run, now)
	}
	a.run.Tick(now)
	if a.alert != "" && now.Sub(a.alertAt) > alertDuration {
		a.alert = ""
	}
}

// HandleEvent applies one terminal event and reports whether to keep going.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case 'r':
		a.reset()
	case 's':
		a.save()
	case 'l':
		if a.lbOpen {
			a.lbOpen = false
		} else {
			a.lbOpen = true
			a.loadLeaderboard()
		}
	case 'a':
		if a.bot == nil {
			a.bot = autoplay.New(a.cfg.Autoplay, a.now().UnixNano())
		} else {
			a.bot = nil
		}
	}
	return true
}

// handleMouse hovers on every move and flips on the press edge of the left
// button only, so dragging across cards flips nothing.
func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	px, py, onBoard := a.cellToPixel(x, y)
	down := ev.Buttons()&tcell.Button1 != 0
	press := down && !a.pressed
	a.pressed = down

	if !onBoard {
		px, py = -1, -1
	}
	a.run.Hover(px, py)
	if press && onBoard && a.bot == nil {
		a.run.Click(px, py)
	}
}

// cellToPixel maps a terminal cell to the centre of the matching region of
// the pixel layout. Card cells land on the card, gap cells in the gap.
func (a *App) cellToPixel(x, y int) (float64, float64, bool) {
	l := a.run.Board.Layout
	dx, dy := x-boardX, y-boardY
	if dx < 0 || dy < 0 {
		return 0, 0, false
	}
	col, row := dx/(cardW+gapX), dy/(cardH+gapY)
	if col >= l.Cols || row >= l.Rows {
		return 0, 0, false
	}
	px := axisToPixel(col, dx%(cardW+gapX), cardW, gapX, l.CardSize, l.Spacing)
	py := axisToPixel(row, dy%(cardH+gapY), cardH, gapY, l.CardSize, l.Spacing)
	return px, py, true
}

func axisToPixel(slot, within, cardCells, gapCells, cardSize, spacing int) float64 {
	p := float64(spacing + slot*(cardSize+spacing))
	if within < cardCells {
		return p + (float64(within)+0.5)*float64(cardSize)/float64(cardCells)
	}
	return p + float64(cardSize) + (float64(within-cardCells)+0.5)*float64(spacing)/float64(gapCells)
}

func (a *App) newRun() {
	if a.run != nil {
		a.run.Stop()
	}
	r := game.NewRunFromConfig(a.cfg, a.now())
	r.OnFlip = func(int) { a.sounds.Flip() }
	r.OnMatch = func(int, int) { a.sounds.Match() }
	r.OnGameOver = func(res game.Result) {
		a.result = &res
		a.sounds.Win()
		slog.Info("game over", "tag", "tui", "game", a.games, "attempts", res.Attempts, "time", res.TimeSeconds)
	}
	a.run = r
	a.result = nil
	a.games++
	if a.bot != nil {
		a.bot.Reset()
	}
}

func (a *App) reset() {
	a.newRun()
	slog.Debug("new game", "tag", "tui", "game", a.games)
}

func (a *App) setAlert(msg string) {
	a.alert = msg
	a.alertAt = a.now()
}

func (a *App) save() {
	if a.result == nil {
		a.setAlert(msgNotDone)
		return
	}
	if a.saving {
		return
	}
	if a.lb == nil {
		a.setAlert(leaderboard.MsgSaveFailed)
		return
	}
	a.saving = true
	a.setAlert("Saving...")
	lb, ctx, name := a.lb, a.ctx, a.name
	score := leaderboard.Score{
		Attempts:     a.result.Attempts,
		TimeSeconds:  a.result.TimeSeconds,
		MatchedPairs: a.result.MatchedPairs,
		TotalPairs:   a.result.TotalPairs,
	}
	go func() {
		out := lb.Submit(ctx, name, score)
		a.results <- func() {
			a.saving = false
			a.setAlert(out.Alert)
			if out.OK && a.lbOpen {
				a.loadLeaderboard()
			}
		}
	}()
}

// loadLeaderboard fetches entries off the loop goroutine. A result that
// arrives after the panel was closed is dropped.
func (a *App) loadLeaderboard() {
	a.lbLoading = true
	a.lbView = leaderboard.View{Message: leaderboard.MsgLoading}
	if a.lb == nil {
		a.lbLoading = false
		a.lbView = leaderboard.View{Message: leaderboard.MsgLoadFailed}
		return
	}
	lb, ctx := a.lb, a.ctx
	go func() {
		view := lb.Load(ctx)
		a.results <- func() {
			if !a.lbOpen {
				return
			}
			a.lbLoading = false
			a.lbView = view
		}
	}()
}

// Draw renders the whole screen.
func (a *App) Draw() {
	s := a.screen
	s.Clear()

	title := tcell.StyleDefault.Bold(true)
	drawText(s, boardX, 0, title, "🃏 Card Flip")

	st := a.run.Stats()
	drawText(s, boardX, 1, tcell.StyleDefault,
		fmt.Sprintf("Attempts: %d   Matches: %d/%d   Time: %ds", st.Attempts, st.Matches, st.TotalPairs, st.Elapsed))

	for i := range a.run.Board.Cards {
		a.drawCard(&a.run.Board.Cards[i])
	}

	l := a.run.Board.Layout
	y := boardY + l.Rows*(cardH+gapY)
	if a.result != nil {
		drawText(s, boardX, y, title, fmt.Sprintf("🎉 Congratulations! %d attempts in %ds.", a.result.Attempts, a.result.TimeSeconds))
		y++
	}
	if a.alert != "" {
		drawText(s, boardX, y, tcell.StyleDefault.Foreground(tcell.ColorYellow), a.alert)
	}
	y++
	help := "click: flip   r: new game   l: leaderboard   a: autoplay   q: quit"
	if a.result != nil {
		help = "s: save score   " + help
	}
	drawText(s, boardX, y, tcell.StyleDefault.Dim(true), help)

	if a.lbOpen {
		a.drawLeaderboard(boardX+l.Cols*(cardW+gapX)+2, boardY)
	}
	s.Show()
}

func (a *App) drawCard(c *game.Card) {
	scale := c.DrawScale()
	if scale < 0.1 {
		return
	}
	w := clamp(int(math.Round(cardW*c.WidthFactor()*scale)), 1, cardW)
	h := clamp(int(math.Round(cardH*scale)), 1, cardH)
	left := boardX + c.Col*(cardW+gapX) + (cardW-w)/2
	top := boardY + c.Row*(cardH+gapY) + (cardH-h)/2

	style := tcell.StyleDefault.Background(tcell.GetColor(c.Color)).Foreground(tcell.ColorWhite)
	fill := '░'
	if c.ShowsFace() {
		style = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
		fill = ' '
		if c.Matched {
			style = style.Background(tcell.ColorPaleGreen)
		}
		if c.MatchPulse > 0 {
			style = style.Background(tcell.ColorGold)
		}
	}
	if c.HoverScale > 1 {
		style = style.Bold(true)
	}

	for y := top; y < top+h; y++ {
		for x := left; x < left+w; x++ {
			a.screen.SetContent(x, y, fill, nil, style)
		}
	}
	midX, midY := left+w/2, top+h/2
	if c.ShowsFace() {
		sym := []rune(c.Symbol)
		if w >= 2 && len(sym) > 0 {
			a.screen.SetContent(midX-1, midY, sym[0], sym[1:], style)
		}
		return
	}
	a.screen.SetContent(midX, midY, '?', nil, style)
}

func (a *App) drawLeaderboard(x, y int) {
	s := a.screen
	drawText(s, x, y, tcell.StyleDefault.Bold(true), "🏆 Leaderboard")
	y += 2
	if a.lbLoading || len(a.lbView.Entries) == 0 {
		msg := a.lbView.Message
		if msg == "" {
			msg = leaderboard.MsgEmpty
		}
		drawText(s, x, y, tcell.StyleDefault, msg)
		return
	}
	for _, r := range a.lbView.Entries {
		drawText(s, x, y, tcell.StyleDefault,
			fmt.Sprintf("%2d. %-12s %5s %9s  %s", r.Rank, runewidth.Truncate(r.Name, 12, "…"), r.Time, r.Attempts, r.Date))
		y++
	}
}

// drawText writes str starting at (x, y), advancing by each rune's cell width.
func drawText(s tcell.Screen, x, y int, style tcell.Style, str string) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
