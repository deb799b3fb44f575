// Package audio turns drained physics events into short sound cues.
// Audio is optional: every method is safe before Initialize or after it fails.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/sgphysics/event"
	"github.com/lixenwraith/sgphysics/fixed"
)

const (
	sampleRate = beep.SampleRate(44100)

	// MaxCuesPerStep caps how many sounds one step can start
	MaxCuesPerStep = 4
)

// Cue is a sound category
type Cue uint8

const (
	CueNone Cue = iota
	CueHit
	CueEnter
	CueExit
)

func (c Cue) String() string {
	switch c {
	case CueHit:
		return "hit"
	case CueEnter:
		return "enter"
	case CueExit:
		return "exit"
	}
	return "none"
}

// CueFor maps an event to its cue. Continue and End events are silent.
func CueFor(r event.Record) Cue {
	switch r.Type {
	case event.CollisionStart:
		return CueHit
	case event.AreaEnter:
		return CueEnter
	case event.AreaExit:
		return CueExit
	}
	return CueNone
}

// Tone builds the finite streamer for a cue. depth scales the hit volume;
// a depth of one world unit or more plays at full gain.
func Tone(c Cue, depth fixed.Num) beep.Streamer {
	switch c {
	case CueHit:
		gain := 0.4 + 0.6*min(depth.Float64(), 1)
		click, _ := generators.SineTone(sampleRate, 880)
		thud := NewThudGenerator(sampleRate, gain)
		return beep.Seq(
			&effects.Volume{Streamer: beep.Take(sampleRate.N(15*time.Millisecond), click), Base: 2, Volume: -3},
			beep.Take(thud.span, thud),
		)
	case CueEnter:
		return beep.Take(sampleRate.N(250*time.Millisecond), NewChimeGenerator(sampleRate, 660, 12))
	case CueExit:
		return &effects.Volume{
			Streamer: beep.Take(sampleRate.N(200*time.Millisecond), NewChimeGenerator(sampleRate, 440, 15)),
			Base:     2,
			Volume:   -1,
		}
	}
	return nil
}

// Cues plays event sounds through a shared mixer
type Cues struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	muted       bool
}

func NewCues() *Cues {
	return &Cues{mixer: &beep.Mixer{}}
}

// Initialize opens the speaker. Failure is non-fatal; cues stay silent.
func (c *Cues) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Cleanup silences pending sounds and closes the speaker
func (c *Cues) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	c.initialized = false
}

func (c *Cues) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
}

func (c *Cues) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Select picks the events that get a sound, at most MaxCuesPerStep per step
// in drain order
func Select(recs []event.Record) []event.Record {
	var out []event.Record
	var step uint64
	n := 0
	for _, r := range recs {
		if CueFor(r) == CueNone {
			continue
		}
		if r.Step != step {
			step, n = r.Step, 0
		}
		if n == MaxCuesPerStep {
			continue
		}
		n++
		out = append(out, r)
	}
	return out
}

// Handle queues sounds for drained events and reports how many it started
func (c *Cues) Handle(recs []event.Record) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.muted {
		return 0
	}
	picked := Select(recs)
	if len(picked) == 0 {
		return 0
	}
	speaker.Lock()
	for _, r := range picked {
		c.mixer.Add(Tone(CueFor(r), r.Depth))
	}
	speaker.Unlock()
	return len(picked)
}
