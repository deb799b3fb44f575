package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/sgphysics/collision"
	"github.com/lixenwraith/sgphysics/event"
	"github.com/lixenwraith/sgphysics/physics"
	"github.com/lixenwraith/sgphysics/scene"
	"github.com/lixenwraith/sgphysics/vmath"
)

var (
	RgbBackground = tcell.NewRGBColor(26, 27, 38)    // Tokyo Night background
	RgbStatic     = tcell.NewRGBColor(120, 124, 150) // Gray blue
	RgbKinematic  = tcell.NewRGBColor(255, 165, 0)   // Orange
	RgbArea       = tcell.NewRGBColor(0, 200, 200)   // Cyan
	RgbSleeping   = tcell.NewRGBColor(100, 100, 110) // Dim gray
	RgbRoute      = tcell.NewRGBColor(50, 255, 50)   // Bright green
	RgbRay        = tcell.NewRGBColor(140, 190, 255) // Light blue
	RgbRayHit     = tcell.NewRGBColor(255, 255, 0)   // Yellow
	RgbContact    = tcell.NewRGBColor(255, 80, 80)   // Bright red
	RgbStatusBar  = tcell.NewRGBColor(255, 255, 255) // White
	RgbError      = tcell.NewRGBColor(255, 80, 80)
)

const (
	glyphBody    = '█'
	glyphArea    = '░'
	glyphRoute   = '·'
	glyphRay     = '∙'
	glyphHit     = 'X'
	glyphContact = '*'
)

func bodyStyle(info physics.ObjectInfo) (rune, tcell.Style) {
	base := tcell.StyleDefault.Background(RgbBackground)
	if info.State == physics.Sleeping {
		return glyphBody, base.Foreground(RgbSleeping)
	}
	switch info.Kind {
	case physics.StaticBody:
		return glyphBody, base.Foreground(RgbStatic)
	case physics.KinematicBody:
		return glyphBody, base.Foreground(RgbKinematic)
	default:
		return glyphArea, base.Foreground(RgbArea)
	}
}

// drawWorld paints objects, route, rays and contacts into the top rows of
// the screen, leaving the last row for the status bar
func drawWorld(screen tcell.Screen, w *scene.World, vp viewport) {
	bg := tcell.StyleDefault.Background(RgbBackground)

	for _, p := range w.RoutePoints() {
		if cx, cy, ok := vp.cell(p); ok {
			screen.SetContent(cx, cy, glyphRoute, nil, bg.Foreground(RgbRoute))
		}
	}

	for _, id := range w.Server.ObjectIDs() {
		info, err := w.Server.Object(id)
		if err != nil {
			continue
		}
		glyph, style := bodyStyle(info)
		for _, ps := range info.Shapes {
			x0, y0, x1, y1 := vp.cellRange(ps.Shape.WorldBounds(ps.Transform))
			for cy := y0; cy <= y1; cy++ {
				for cx := x0; cx <= x1; cx++ {
					if collision.PointInside(ps.Shape, ps.Transform, vp.world(cx, cy)) {
						screen.SetContent(cx, cy, glyph, nil, style)
					}
				}
			}
		}
		if info.Kind == physics.Area {
			continue
		}
		contacts, _ := w.Server.Contacts(id)
		for _, c := range contacts {
			if cx, cy, ok := vp.cell(c.Point); ok {
				screen.SetContent(cx, cy, glyphContact, nil, bg.Foreground(RgbContact))
			}
		}
	}

	for _, hit := range w.CastRays() {
		from := hit.Ray.From.Vector()
		end := hit.Ray.To.Vector()
		if hit.Result != nil {
			end = hit.Result.Point
		}
		drawSegment(screen, vp, from, end, bg.Foreground(RgbRay))
		if hit.Result != nil {
			if cx, cy, ok := vp.cell(end); ok {
				screen.SetContent(cx, cy, glyphHit, nil, bg.Foreground(RgbRayHit))
			}
		}
	}

	for _, id := range w.Server.ObjectIDs() {
		xf, err := w.Server.Transform(id)
		if err != nil {
			continue
		}
		if cx, cy, ok := vp.cell(xf.Origin); ok {
			drawText(screen, cx+1, cy, w.Name(id), bg.Foreground(RgbStatusBar).Dim(true))
		}
	}
}

// drawSegment steps one cell at a time along a-b in screen space
func drawSegment(screen tcell.Screen, vp viewport, a, b vmath.Vector2, style tcell.Style) {
	ax, ay, _ := vp.cell(a)
	bx, by, _ := vp.cell(b)
	n := max(abs(bx-ax), abs(by-ay))
	for i := 0; i <= n; i++ {
		x, y := ax, ay
		if n > 0 {
			x = ax + (bx-ax)*i/n
			y = ay + (by-ay)*i/n
		}
		if x >= 0 && y >= 0 && x < vp.cols && y < vp.rows {
			screen.SetContent(x, y, glyphRay, nil, style)
		}
	}
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// statusLine summarizes the world and the last event
func statusLine(w *scene.World, running, muted bool, last *event.Record) string {
	st := w.Server.Stats()
	mode := "paused"
	if running {
		mode = "running"
	}
	s := fmt.Sprintf(" %s | step %d | objects %d | contacts %d | %s", w.Scene.Name, st.Step, st.Objects, st.Contacts, mode)
	if muted {
		s += " | muted"
	}
	if last != nil {
		s += fmt.Sprintf(" | %s %s-%s", last.Type, w.Name(physics.ObjectID(last.A)), w.Name(physics.ObjectID(last.B)))
	}
	return s + " | space:step r:run m:mute l:reload q:quit"
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
