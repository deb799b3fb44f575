// Command sgview shows a scene in the terminal. Space steps, r runs, q quits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/sgphysics/audio"
	"github.com/lixenwraith/sgphysics/scene"
)

var (
	sceneFlag = flag.String("scene", "", "Scene file (.toml, .yaml); empty shows the built-in demo")
	debugFlag = flag.Bool("debug", false, "Log to logs/sgview.log")
	muteFlag  = flag.Bool("mute", false, "Start with sound off")
)

func main() {
	flag.Parse()

	logFile := setupLogging(*debugFlag)
	if logFile != nil {
		defer logFile.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal before printing a crash
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "sgview crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cues := audio.NewCues()
	if err := cues.Initialize(); err != nil {
		// Non-fatal, the viewer runs without sound
		slog.Warn("audio initialization failed", "err", err)
	}
	cues.SetMuted(*muteFlag)

	viewer, err := NewViewer(screen, *sceneFlag, cues, slog.Default())
	if err != nil {
		screen.Fini()
		cues.Cleanup()
		fmt.Fprintf(os.Stderr, "sgview: %v\n", err)
		os.Exit(1)
	}

	var changes <-chan string
	if *sceneFlag != "" {
		w, err := scene.NewWatcher(*sceneFlag)
		if err != nil {
			slog.Warn("hot reload disabled", "err", err)
		} else {
			defer w.Close()
			changes = w.Events
		}
	}

	viewer.Run(changes)
	screen.Fini()
	cues.Cleanup()
}
