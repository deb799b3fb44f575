package render

import (
	"image/color"

	"github.com/lixenwraith/sgphysics/physics"
)

// Palette colors a snapshot
type Palette struct {
	Background color.NRGBA
	Grid       color.NRGBA
	Static     color.NRGBA
	Kinematic  color.NRGBA
	Area       color.NRGBA
	Sleeping   color.NRGBA
	Outline    color.NRGBA
	Contact    color.NRGBA
	Ray        color.NRGBA
	RayHit     color.NRGBA
	Route      color.NRGBA
	Curve      color.NRGBA
	Label      color.NRGBA
}

// DefaultPalette is a dark theme on the Tokyo Night background
var DefaultPalette = Palette{
	Background: color.NRGBA{26, 27, 38, 255},
	Grid:       color.NRGBA{48, 50, 66, 255},
	Static:     color.NRGBA{120, 124, 150, 255},
	Kinematic:  color.NRGBA{255, 165, 0, 255},
	Area:       color.NRGBA{0, 200, 200, 90},
	Sleeping:   color.NRGBA{100, 100, 110, 255},
	Outline:    color.NRGBA{230, 230, 230, 255},
	Contact:    color.NRGBA{255, 80, 80, 255},
	Ray:        color.NRGBA{140, 190, 255, 255},
	RayHit:     color.NRGBA{255, 255, 0, 255},
	Route:      color.NRGBA{50, 255, 50, 200},
	Curve:      color.NRGBA{180, 120, 255, 200},
	Label:      color.NRGBA{255, 255, 255, 255},
}

// Body returns the fill color for an object
func (p Palette) Body(info physics.ObjectInfo) color.NRGBA {
	if info.State == physics.Sleeping {
		return p.Sleeping
	}
	switch info.Kind {
	case physics.StaticBody:
		return p.Static
	case physics.KinematicBody:
		return p.Kinematic
	default:
		return p.Area
	}
}
