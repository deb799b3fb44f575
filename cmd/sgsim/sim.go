package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lixenwraith/sgphysics/astar"
	"github.com/lixenwraith/sgphysics/render"
	"github.com/lixenwraith/sgphysics/scene"
	"github.com/lixenwraith/sgphysics/status"
	"github.com/lixenwraith/sgphysics/trace"
)

// defaultSteps applies when neither the flag nor the scene sets a count
const defaultSteps = 600

// verifyTolerance is the allowed gap between fixed-point and oracle costs
const verifyTolerance = 0.01

type options struct {
	scene    string // Empty runs the embedded demo
	steps    int
	traceDir string
	snapshot string
	verify   bool
}

// report summarizes one run
type report struct {
	Scene  string
	Steps  int
	Events int
	Digest string
	Route  int
}

func loadScene(path string) (*scene.Scene, error) {
	if path == "" {
		return scene.Default(), nil
	}
	return scene.Load(path)
}

// simulate runs one scene headless and writes the requested artifacts
func simulate(opts options, log *slog.Logger) (*report, error) {
	sc, err := loadScene(opts.scene)
	if err != nil {
		return nil, err
	}
	reg := status.NewRegistry()
	w, err := sc.Build(log, reg)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	steps := opts.steps
	if steps <= 0 {
		steps = sc.Steps
	}
	if steps <= 0 {
		steps = defaultSteps
	}

	tw, closeTrace, err := openTrace(opts.traceDir)
	if err != nil {
		return nil, err
	}
	defer closeTrace()

	rep := &report{Scene: sc.Name, Steps: steps, Route: len(w.Route)}
	for range steps {
		if err := w.Step(); err != nil {
			return nil, fmt.Errorf("step %d: %w", w.Server.CurrentStep(), err)
		}
		recs := w.Server.Events()
		rep.Events += len(recs)
		if tw == nil {
			continue
		}
		if err := tw.WriteStep(w.Server); err != nil {
			return nil, err
		}
		if err := tw.WriteEvents(recs); err != nil {
			return nil, err
		}
	}
	rep.Digest = trace.Digest(w.Server)
	log.Info("run complete", "scene", sc.Name, "steps", steps, "metrics", reg)

	if opts.verify {
		if err := verifyRoute(w); err != nil {
			return rep, err
		}
	}
	if opts.snapshot != "" {
		ro := render.DefaultOptions().Fit(w)
		if err := render.WriteFile(opts.snapshot, w, ro); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// openTrace creates the CSV pair in dir; an empty dir disables tracing
func openTrace(dir string) (*trace.Writer, func(), error) {
	if dir == "" {
		return nil, func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("trace dir: %w", err)
	}
	tf, err := os.Create(filepath.Join(dir, "transforms.csv"))
	if err != nil {
		return nil, nil, fmt.Errorf("trace: %w", err)
	}
	ef, err := os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		_ = tf.Close()
		return nil, nil, fmt.Errorf("trace: %w", err)
	}
	return trace.NewWriter(tf, ef), func() {
		_ = tf.Close()
		_ = ef.Close()
	}, nil
}

// verifyRoute checks the scene's grid route against the gonum oracle
func verifyRoute(w *scene.World) error {
	if w.Grid == nil {
		return nil
	}
	if w.Route == nil {
		return fmt.Errorf("verify: %w", astar.ErrNoPath)
	}
	if err := w.Grid.Verify(w.Route, verifyTolerance); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	return nil
}

func printReport(out io.Writer, rep *report) {
	fmt.Fprintf(out, "scene:  %s\n", rep.Scene)
	fmt.Fprintf(out, "steps:  %d\n", rep.Steps)
	fmt.Fprintf(out, "events: %d\n", rep.Events)
	if rep.Route > 0 {
		fmt.Fprintf(out, "route:  %d cells\n", rep.Route)
	}
	fmt.Fprintf(out, "digest: %s\n", rep.Digest)
}
