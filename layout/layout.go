// Package layout provides algorithms for positioning diagram nodes in 2D space.
package layout

import (
	"condec/diagram"
	"math"
)

// LayoutEngine positions nodes. Implementations return new node values and
// never modify their input.
type LayoutEngine interface {
	Layout(nodes []diagram.Node, relations []diagram.Relation) []diagram.Node
	Name() string
}

// DefaultPadding is the margin Normalize leaves above and left of the
// top-most and left-most node.
const DefaultPadding = 50

// Normalize shifts nodes so the smallest x and y both equal padding.
func Normalize(nodes []diagram.Node, padding float64) []diagram.Node {
	out := make([]diagram.Node, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}

	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range out {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
	}
	for i := range out {
		out[i].X = out[i].X - minX + padding
		out[i].Y = out[i].Y - minY + padding
	}
	return out
}

// Apply lays out d's nodes with engine and returns a copy of d carrying the
// new positions. Relations are left as they are; callers re-route.
func Apply(engine LayoutEngine, d *diagram.Diagram) *diagram.Diagram {
	out := d.Clone()
	out.Nodes = Normalize(engine.Layout(out.Nodes, out.Relations), DefaultPadding)
	return out
}
