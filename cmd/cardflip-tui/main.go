package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"card-flip/autoplay"
	"card-flip/config"
	"card-flip/game"
	"card-flip/leaderboard"
	"card-flip/loghandler"
	"card-flip/storage"
	"card-flip/tui"
)

var (
	nameFlag    = flag.String("name", os.Getenv("USER"), "Name saved with your scores (empty for Anonymous)")
	demoFlag    = flag.Bool("demo", false, "Let the autoplay bot play")
	seedFlag    = flag.Int64("seed", 0, "Bot seed (0 picks one from the clock)")
	configFlag  = flag.String("config", "config.json", "Path to the local config file")
	logFlag     = flag.String("log", "", "Write logs to this file (discarded when empty)")
	muteFlag    = flag.Bool("mute", false, "Disable sound")
	volumeFlag  = flag.Float64("volume", 0.5, "Sound volume, 0 to 1")
	benchFlag   = flag.Int("bench", 0, "Play N headless bot games, print the averages and exit")
	noScoreFlag = flag.Bool("offline", false, "Do not connect to the leaderboard backend")
)

func main() {
	flag.Parse()

	logOut := io.Discard
	if *logFlag != "" {
		f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(logOut, slog.LevelDebug)))

	_ = godotenv.Load()
	cfg := config.LoadFile(*configFlag)

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if *benchFlag > 0 {
		bench(cfg, *benchFlag, seed)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lb game.Leaderboard
	if !*noScoreFlag {
		store := storage.Open(ctx, cfg.Leaderboard)
		defer store.Close()
		lb = leaderboard.NewFromConfig(store, cfg)
	}

	var sounds tui.Sounds = tui.Silent{}
	if !*muteFlag {
		if b, err := tui.NewBeeper(*volumeFlag); err == nil {
			sounds = b
		} else {
			slog.Warn("audio unavailable, continuing without sound", "tag", "tui", "err", err)
		}
	}
	defer sounds.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal even if the game crashes.
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "card flip crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	app := tui.New(screen, cfg, lb, tui.Options{
		Name:   *nameFlag,
		Demo:   *demoFlag,
		Seed:   seed,
		Sounds: sounds,
	})
	err = app.Loop(ctx)
	screen.Fini()
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// bench plays n games with the autoplay bot on a simulated clock.
func bench(cfg *config.Config, n int, seed int64) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var attempts, seconds, finished int
	for i := 0; i < n; i++ {
		r := game.NewRunFromConfig(cfg, start)
		p := autoplay.New(cfg.Autoplay, seed+int64(i))
		res, ok := autoplay.Simulate(r, p, start, cfg.FrameInterval(), 1_000_000)
		if !ok {
			continue
		}
		finished++
		attempts += res.Attempts
		seconds += res.TimeSeconds
	}
	if finished == 0 {
		fmt.Println("no game finished")
		return
	}
	fmt.Printf("games: %d/%d  avg attempts: %.2f  avg time: %.2fs\n",
		finished, n, float64(attempts)/float64(finished), float64(seconds)/float64(finished))
}
