package export

import (
	"condec/diagram"
	"condec/geometry"
	"math"
)

// Image bounds constants.
const (
	BoundsPadding   = 50
	MinBoundsWidth  = 400
	MinBoundsHeight = 300
)

// DefaultBounds is used for a diagram with nothing to draw.
var DefaultBounds = geometry.Rect{X: 0, Y: 0, Width: 800, Height: 600}

// Bounds returns the area an image of d covers: every node box, relation
// waypoint and stored diamond position, padded and grown to the minimum
// size from the top-left corner.
func Bounds(d *diagram.Diagram) geometry.Rect {
	if d == nil || len(d.Nodes) == 0 {
		return DefaultBounds
	}

	left, top := math.Inf(1), math.Inf(1)
	right, bottom := math.Inf(-1), math.Inf(-1)
	add := func(p geometry.Point) {
		left, right = min(left, p.X), max(right, p.X)
		top, bottom = min(top, p.Y), max(bottom, p.Y)
	}

	for _, n := range d.Nodes {
		b := n.Bounds()
		add(geometry.Point{X: b.X, Y: b.Y})
		add(geometry.Point{X: b.X + b.Width, Y: b.Y + b.Height})
	}
	for _, r := range d.Relations {
		for _, p := range r.Waypoints {
			add(p)
		}
		if r.DiamondPos != nil {
			add(*r.DiamondPos)
		}
	}

	left -= BoundsPadding
	top -= BoundsPadding
	right += BoundsPadding
	bottom += BoundsPadding
	return geometry.Rect{
		X:      left,
		Y:      top,
		Width:  max(right-left, MinBoundsWidth),
		Height: max(bottom-top, MinBoundsHeight),
	}
}
