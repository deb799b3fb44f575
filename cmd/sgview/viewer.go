package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/sgphysics/audio"
	"github.com/lixenwraith/sgphysics/event"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/render"
	"github.com/lixenwraith/sgphysics/scene"
	"github.com/lixenwraith/sgphysics/status"
)

// frameInterval is about 60 FPS, one physics step per frame while running
const frameInterval = 16 * time.Millisecond

const metricRunning = "view.running"

// Viewer drives one world on a terminal screen
type Viewer struct {
	screen        tcell.Screen
	width, height int

	path  string // Empty for the built-in demo
	world *scene.World
	reg   *status.Registry
	vp    viewport

	running bool
	last    *event.Record
	loadErr error

	cues *audio.Cues
	log  *slog.Logger
}

func NewViewer(screen tcell.Screen, path string, cues *audio.Cues, log *slog.Logger) (*Viewer, error) {
	v := &Viewer{screen: screen, path: path, cues: cues, log: log}
	v.width, v.height = screen.Size()
	if err := v.reload(); err != nil {
		return nil, err
	}
	return v, nil
}

// reload rebuilds the world from the scene file. On failure the current
// world keeps running and the error shows in the status bar.
func (v *Viewer) reload() error {
	sc := scene.Default()
	if v.path != "" {
		var err error
		if sc, err = scene.Load(v.path); err != nil {
			v.loadErr = err
			return err
		}
	}
	reg := status.NewRegistry()
	w, err := sc.Build(v.log, reg)
	if err != nil {
		v.loadErr = err
		return err
	}
	if v.reg != nil {
		v.log.Info("scene replaced", "metrics", v.reg)
	}
	v.world, v.reg, v.loadErr, v.last = w, reg, nil, nil
	v.setRunning(v.running)
	v.refit()
	v.log.Info("scene loaded", "scene", sc.Name, "objects", len(sc.Objects))
	return nil
}

// refit frames the world's current contents
func (v *Viewer) refit() {
	b, ok := render.Bounds(v.world)
	if !ok {
		v.vp = viewport{scale: fixed.One, cols: v.width, rows: max(v.height-1, 1)}
		return
	}
	v.vp = fitViewport(b, v.width, max(v.height-1, 1))
}

// step advances one tick and feeds drained events to the cues
func (v *Viewer) step() {
	if err := v.world.Step(); err != nil {
		v.loadErr = err
		v.setRunning(false)
		v.log.Warn("step failed", "err", err)
		return
	}
	recs := v.world.Server.Events()
	if len(recs) > 0 {
		r := recs[len(recs)-1]
		v.last = &r
	}
	if v.cues != nil {
		v.cues.Handle(recs)
	}
}

func (v *Viewer) setRunning(running bool) {
	v.running = running
	v.reg.Bools.Get(metricRunning).Store(running)
}

// handleInput returns false when the viewer should exit
func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			v.setRunning(false)
			v.step()
		case 'r':
			v.setRunning(!v.running)
		case 'm':
			if v.cues != nil {
				v.cues.SetMuted(!v.cues.Muted())
			}
		case 'l':
			_ = v.reload()
		}

	case *tcell.EventResize:
		v.width, v.height = v.screen.Size()
		v.refit()
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) draw() {
	v.screen.Fill(' ', tcell.StyleDefault.Background(RgbBackground))
	drawWorld(v.screen, v.world, v.vp)

	muted := v.cues != nil && v.cues.Muted()
	line := statusLine(v.world, v.running, muted, v.last)
	style := tcell.StyleDefault.Background(RgbBackground).Foreground(RgbStatusBar).Reverse(true)
	if v.loadErr != nil {
		line = fmt.Sprintf(" error: %v", v.loadErr)
		style = tcell.StyleDefault.Foreground(RgbError).Reverse(true)
	}
	for x := 0; x < v.width; x++ {
		v.screen.SetContent(x, v.height-1, ' ', nil, style)
	}
	drawText(v.screen, 0, v.height-1, line, style)
	v.screen.Show()
}

// Run loops until the user quits. changes delivers scene file updates and
// may be nil.
func (v *Viewer) Run(changes <-chan string) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}

		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := v.reload(); err != nil {
				v.log.Warn("reload failed", "err", err)
			}

		case <-ticker.C:
			if v.running {
				v.step()
			}
			v.draw()
		}
	}
}
