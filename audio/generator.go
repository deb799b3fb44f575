package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// ChimeGenerator is a decaying sine with two harmonics
type ChimeGenerator struct {
	sr    beep.SampleRate
	freq  float64
	decay float64
	pos   int
}

// NewChimeGenerator creates a chime that fades by decay per second
func NewChimeGenerator(sr beep.SampleRate, freq, decay float64) *ChimeGenerator {
	return &ChimeGenerator{sr: sr, freq: freq, decay: decay}
}

func (g *ChimeGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		sample := 0.5 * math.Sin(2*math.Pi*g.freq*t)
		sample += 0.2 * math.Sin(2*math.Pi*g.freq*2*t)
		sample += 0.1 * math.Sin(2*math.Pi*g.freq*3*t)

		// 5ms attack avoids a click
		attack := math.Min(t/0.005, 1.0)
		sample *= attack * math.Exp(-t*g.decay) * 0.4

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ChimeGenerator) Err() error {
	return nil
}

// ThudGenerator is a short pitch-dropping knock. Louder for deeper hits.
type ThudGenerator struct {
	sr   beep.SampleRate
	gain float64
	pos  int
	span int
}

func NewThudGenerator(sr beep.SampleRate, gain float64) *ThudGenerator {
	return &ThudGenerator{
		sr:   sr,
		gain: math.Max(0, math.Min(gain, 1)),
		span: sr.N(80 * time.Millisecond),
	}
}

func (g *ThudGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		env := 1.0 - float64(g.pos)/float64(g.span)
		if env < 0 {
			env = 0
		}
		freq := 90 * (1 + 2*env)
		sample := g.gain * 0.5 * env * math.Sin(2*math.Pi*freq*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ThudGenerator) Err() error {
	return nil
}
