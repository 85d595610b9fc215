package tui

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Sounds are the cues the board plays.
type Sounds interface {
	Flip()
	Match()
	Win()
	Close()
}

// Silent is the Sounds used when audio is off or unavailable.
type Silent struct{}

func (Silent) Flip()  {}
func (Silent) Match() {}
func (Silent) Win()   {}
func (Silent) Close() {}

// Beeper plays short sine cues through a mixer on the speaker.
type Beeper struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	volume float64
}

// NewBeeper opens the speaker. On failure the caller should fall back to Silent.
func NewBeeper(volume float64) (*Beeper, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	b := &Beeper{mixer: &beep.Mixer{}, volume: volume}
	speaker.Play(b.mixer)
	return b, nil
}

func (b *Beeper) Flip() {
	b.play(tone(660, 40*time.Millisecond, b.volume))
}

func (b *Beeper) Match() {
	b.play(beep.Seq(
		tone(880, 60*time.Millisecond, b.volume),
		tone(1175, 90*time.Millisecond, b.volume),
	))
}

func (b *Beeper) Win() {
	b.play(beep.Seq(
		tone(523, 90*time.Millisecond, b.volume),
		tone(659, 90*time.Millisecond, b.volume),
		tone(784, 90*time.Millisecond, b.volume),
		tone(1047, 200*time.Millisecond, b.volume),
	))
}

// Close stops all sounds and releases the speaker.
func (b *Beeper) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	speaker.Clear()
	speaker.Close()
}

func (b *Beeper) play(s beep.Streamer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	speaker.Lock()
	b.mixer.Add(s)
	speaker.Unlock()
}

// tone is a short sine cue. Frequencies are always below the Nyquist
// limit, so SineTone cannot fail here.
func tone(freq float64, d time.Duration, volume float64) beep.Streamer {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return beep.Silence(sampleRate.N(d))
	}
	return &effects.Volume{
		Streamer: beep.Take(sampleRate.N(d), sine),
		Base:     2,
		Volume:   math.Log2(math.Max(volume, 0.01)),
		Silent:   volume <= 0,
	}
}
