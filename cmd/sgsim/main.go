// Command sgsim runs a scene headless and prints a digest of the final state.
// Identical scenes and step counts print identical digests on every host.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/lixenwraith/sgphysics/scene"
)

var (
	sceneFlag    = flag.String("scene", "", "Scene file (.toml, .yaml); empty runs the built-in demo")
	stepsFlag    = flag.Int("steps", 0, "Steps to run; 0 uses the scene's count")
	traceFlag    = flag.String("trace", "", "Directory for transforms.csv and events.csv")
	snapshotFlag = flag.String("snapshot", "", "Write a PNG of the final state")
	debugFlag    = flag.Bool("debug", false, "Log to logs/sgsim.log")
	watchFlag    = flag.Bool("watch", false, "Rerun whenever the scene file changes")
	verifyFlag   = flag.Bool("verify", false, "Check the grid route against the oracle")
)

func main() {
	flag.Parse()

	logFile := setupLogging(*debugFlag)
	if logFile != nil {
		defer logFile.Close()
	}

	opts := options{
		scene:    *sceneFlag,
		steps:    *stepsFlag,
		traceDir: *traceFlag,
		snapshot: *snapshotFlag,
		verify:   *verifyFlag,
	}

	if !*watchFlag {
		if err := runOnce(opts); err != nil {
			fmt.Fprintf(os.Stderr, "sgsim: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if opts.scene == "" {
		fmt.Fprintln(os.Stderr, "sgsim: -watch needs -scene")
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watch(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "sgsim: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(opts options) error {
	rep, err := simulate(opts, slog.Default())
	if rep != nil {
		printReport(os.Stdout, rep)
	}
	return err
}

// watch reruns the scene on every change until ctx ends. Run errors are
// printed, not fatal, so a broken edit can be fixed in place.
func watch(ctx context.Context, opts options) error {
	w, err := scene.NewWatcher(opts.scene)
	if err != nil {
		return err
	}
	defer w.Close()

	report := func() {
		if err := runOnce(opts); err != nil {
			fmt.Fprintf(os.Stderr, "sgsim: %v\n", err)
		}
		fmt.Println("watching", opts.scene)
	}
	report()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Events:
			if !ok {
				return nil
			}
			slog.Debug("scene changed", "path", opts.scene)
			report()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		}
	}
}
