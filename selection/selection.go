// Package selection tracks what the user has selected and turns drag
// gestures over a selection into a single undoable move.
package selection

import (
	"condec/commands"
	"condec/diagram"
	"condec/geometry"
	"slices"
)

// Hit radii used when testing selection footprints against a box.
const (
	WaypointRadius = 5
	DiamondRadius  = 15
)

// Selection is a mixed selection of nodes, interior relation waypoints and
// choice diamonds.
type Selection struct {
	Nodes          []string
	RelationPoints []commands.WaypointRef
	NaryDiamonds   []string
}

// Nodes returns a selection of just the given nodes.
func Nodes(ids ...string) Selection {
	return Selection{Nodes: slices.Clone(ids)}
}

// Len counts every selected element.
func (s Selection) Len() int {
	return len(s.Nodes) + len(s.RelationPoints) + len(s.NaryDiamonds)
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.Len() == 0
}

// NodeOnly reports whether the selection holds nodes and nothing else.
func (s Selection) NodeOnly() bool {
	return len(s.Nodes) > 0 && len(s.RelationPoints) == 0 && len(s.NaryDiamonds) == 0
}

// HasNode reports whether the node is selected.
func (s Selection) HasNode(id string) bool {
	return slices.Contains(s.Nodes, id)
}

// HasDiamond reports whether the relation's diamond is selected.
func (s Selection) HasDiamond(relationID string) bool {
	return slices.Contains(s.NaryDiamonds, relationID)
}

// HasWaypoint reports whether the waypoint is selected.
func (s Selection) HasWaypoint(ref commands.WaypointRef) bool {
	return slices.Contains(s.RelationPoints, ref)
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	return Selection{
		Nodes:          slices.Clone(s.Nodes),
		RelationPoints: slices.Clone(s.RelationPoints),
		NaryDiamonds:   slices.Clone(s.NaryDiamonds),
	}
}

// Prune drops references to elements that no longer exist in d.
func (s Selection) Prune(d *diagram.Diagram) Selection {
	out := Selection{}
	for _, id := range s.Nodes {
		if d.NodeIndex(id) >= 0 {
			out.Nodes = append(out.Nodes, id)
		}
	}
	for _, ref := range s.RelationPoints {
		if r, ok := d.FindRelation(ref.RelationID); ok && ref.Index > 0 && ref.Index < len(r.Waypoints)-1 {
			out.RelationPoints = append(out.RelationPoints, ref)
		}
	}
	for _, id := range s.NaryDiamonds {
		if r, ok := d.FindRelation(id); ok && r.IsNary() {
			out.NaryDiamonds = append(out.NaryDiamonds, id)
		}
	}
	return out
}

// InBox returns every element whose full footprint lies inside box: a node's
// bounding box, a waypoint with radius WaypointRadius, a diamond with radius
// DiamondRadius. Interior waypoints of relations whose endpoints are both
// selected are included as well.
func InBox(d *diagram.Diagram, box geometry.Rect) Selection {
	var sel Selection
	if d == nil {
		return sel
	}

	for _, n := range d.Nodes {
		if box.ContainsRect(n.Bounds()) {
			sel.Nodes = append(sel.Nodes, n.ID)
		}
	}

	seen := make(map[commands.WaypointRef]bool)
	add := func(ref commands.WaypointRef) {
		if !seen[ref] {
			seen[ref] = true
			sel.RelationPoints = append(sel.RelationPoints, ref)
		}
	}
	for _, r := range d.Relations {
		if r.IsNary() {
			continue
		}
		interior := len(r.Waypoints) - 1
		for i := 1; i < interior; i++ {
			if box.ContainsRect(square(r.Waypoints[i], WaypointRadius)) {
				add(commands.WaypointRef{RelationID: r.ID, Index: i})
			}
		}
		if sel.HasNode(r.SourceID) && sel.HasNode(r.TargetID) {
			for i := 1; i < interior; i++ {
				add(commands.WaypointRef{RelationID: r.ID, Index: i})
			}
		}
	}

	for _, r := range d.Relations {
		if !r.IsNary() || len(r.Activities) < 2 {
			continue
		}
		if box.ContainsRect(square(d.DiamondPosition(r), DiamondRadius)) {
			sel.NaryDiamonds = append(sel.NaryDiamonds, r.ID)
		}
	}
	return sel
}

// BoundingBox returns the rectangle covering every selected element. It
// reports false when the selection resolves to nothing in d.
func BoundingBox(d *diagram.Diagram, s Selection) (geometry.Rect, bool) {
	var (
		box   geometry.Rect
		found bool
	)
	extend := func(r geometry.Rect) {
		if !found {
			box, found = r, true
			return
		}
		box = box.Union(r)
	}

	for _, id := range s.Nodes {
		if n, ok := d.FindNode(id); ok {
			extend(n.Bounds())
		}
	}
	for _, ref := range s.RelationPoints {
		if r, ok := d.FindRelation(ref.RelationID); ok && ref.Index >= 0 && ref.Index < len(r.Waypoints) {
			extend(geometry.Rect{X: r.Waypoints[ref.Index].X, Y: r.Waypoints[ref.Index].Y})
		}
	}
	for _, id := range s.NaryDiamonds {
		if r, ok := d.FindRelation(id); ok {
			p := d.DiamondPosition(r)
			extend(geometry.Rect{X: p.X, Y: p.Y})
		}
	}
	return box, found
}

func square(c geometry.Point, radius float64) geometry.Rect {
	return geometry.Rect{X: c.X - radius, Y: c.Y - radius, Width: 2 * radius, Height: 2 * radius}
}

// Lasso tracks a box-selection gesture in diagram coordinates.
type Lasso struct {
	start, current geometry.Point
	active         bool
}

// Begin starts the gesture at p.
func (l *Lasso) Begin(p geometry.Point) {
	l.start, l.current, l.active = p, p, true
}

// Active reports whether a gesture is in progress.
func (l *Lasso) Active() bool {
	return l.active
}

// Rect returns the current selection rectangle.
func (l *Lasso) Rect() geometry.Rect {
	return geometry.RectFromCorners(l.start, l.current)
}

// Update extends the gesture to p and returns the live selection.
func (l *Lasso) Update(p geometry.Point, d *diagram.Diagram) Selection {
	if !l.active {
		return Selection{}
	}
	l.current = p
	return InBox(d, l.Rect())
}

// End finishes the gesture at p and returns the final selection.
func (l *Lasso) End(p geometry.Point, d *diagram.Diagram) Selection {
	sel := l.Update(p, d)
	l.active = false
	return sel
}

// Cancel abandons the gesture.
func (l *Lasso) Cancel() {
	l.active = false
}
