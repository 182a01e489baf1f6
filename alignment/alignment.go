// Package alignment computes snap guides for a point being dragged across a
// diagram. The engine keeps no state between drags.
package alignment

import (
	"condec/diagram"
	"condec/geometry"
	"math"
)

// DefaultThreshold is the per-axis distance, in diagram units, below which a
// dragged point snaps to a guide.
const DefaultThreshold = 2

// DefaultGridSize is the spacing used by grid snapping.
const DefaultGridSize = 10

// Guides holds the snapped coordinate on each axis, nil when nothing is close
// enough on that axis.
type Guides struct {
	X *float64
	Y *float64
}

// Any reports whether either axis has a guide.
func (g Guides) Any() bool {
	return g.X != nil || g.Y != nil
}

// Exclude names the element being dragged so it does not snap to itself.
// NodeID also excludes the midpoints of that node's relations, which move
// with it. RelationID excludes a dragged diamond.
type Exclude struct {
	NodeID     string
	RelationID string
}

// Engine finds alignment guides. A positive GridSize rounds dragged nodes
// to the grid before guides are applied.
type Engine struct {
	Threshold float64
	GridSize  float64
}

// NewEngine creates an engine; a non-positive threshold uses the default.
func NewEngine(threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{Threshold: threshold}
}

// Guides returns, independently per axis, the nearest node centre, relation
// midpoint or diamond position strictly within the threshold of p.
func (e *Engine) Guides(p geometry.Point, d *diagram.Diagram, ex Exclude) Guides {
	var g Guides
	if d == nil {
		return g
	}
	bestX, bestY := e.Threshold, e.Threshold

	consider := func(c geometry.Point) {
		if dx := math.Abs(c.X - p.X); dx < bestX {
			x := c.X
			g.X, bestX = &x, dx
		}
		if dy := math.Abs(c.Y - p.Y); dy < bestY {
			y := c.Y
			g.Y, bestY = &y, dy
		}
	}

	for _, n := range d.Nodes {
		if n.ID == ex.NodeID {
			continue
		}
		consider(n.Center())
	}
	for _, r := range d.Relations {
		if r.ID == ex.RelationID {
			continue
		}
		if r.IsNary() {
			// A diamond without a stored position sits at the centroid of its
			// activities and moves with them.
			if r.DiamondPos == nil && ex.NodeID != "" && r.Touches(ex.NodeID) {
				continue
			}
			consider(d.DiamondPosition(r))
			continue
		}
		if ex.NodeID != "" && r.Touches(ex.NodeID) {
			continue
		}
		if len(r.Waypoints) >= 2 {
			consider(geometry.PolylineMidpoint(r.Waypoints))
		}
	}
	return g
}

// Snap moves p onto the guides.
func Snap(p geometry.Point, g Guides) geometry.Point {
	if g.X != nil {
		p.X = *g.X
	}
	if g.Y != nil {
		p.Y = *g.Y
	}
	return p
}

// SnapPoint finds the guides for p and returns the snapped point with them.
func (e *Engine) SnapPoint(p geometry.Point, d *diagram.Diagram, ex Exclude) (geometry.Point, Guides) {
	g := e.Guides(p, d, ex)
	return Snap(p, g), g
}

// SnapNode snaps the centre of a dragged node: first to the grid, then onto
// any guides found for the gridded point.
func (e *Engine) SnapNode(p geometry.Point, d *diagram.Diagram, ex Exclude) (geometry.Point, Guides) {
	if e.GridSize > 0 {
		p = SnapToGrid(p, e.GridSize)
	}
	return e.SnapPoint(p, d, ex)
}

// SnapToGrid rounds both coordinates of p to the nearest multiple of grid.
func SnapToGrid(p geometry.Point, grid float64) geometry.Point {
	return geometry.Point{
		X: geometry.SnapToGrid(p.X, grid),
		Y: geometry.SnapToGrid(p.Y, grid),
	}
}
