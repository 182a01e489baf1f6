// Package connections keeps relation waypoints consistent with the nodes
// they join. The first and last waypoints of a binary relation are docking
// points derived from node geometry; interior waypoints belong to the user.
package connections

import (
	"condec/diagram"
	"condec/geometry"
	"slices"
)

// WaypointTolerance is how close a click must be to a segment to insert a
// waypoint on it.
const WaypointTolerance = 5

func endpoints(r diagram.Relation, d *diagram.Diagram) (diagram.Node, diagram.Node, bool) {
	if d == nil || r.IsNary() {
		return diagram.Node{}, diagram.Node{}, false
	}
	source, ok := d.FindNode(r.SourceID)
	if !ok {
		return diagram.Node{}, diagram.Node{}, false
	}
	target, ok := d.FindNode(r.TargetID)
	if !ok {
		return diagram.Node{}, diagram.Node{}, false
	}
	return source, target, true
}

// Route recomputes the relation's docking points for the current node
// geometry. Relations without interior waypoints get a fresh route; otherwise
// only the endpoints are re-pinned, each toward its adjacent interior point.
// N-ary relations and relations with a missing endpoint are returned as is.
func Route(r diagram.Relation, d *diagram.Diagram) diagram.Relation {
	source, target, ok := endpoints(r, d)
	if !ok {
		return r
	}

	out := r.Clone()
	if len(out.Waypoints) <= 2 {
		out.Waypoints = geometry.LayoutConnection(source.Center(), target.Center(),
			source.Size(), target.Size(), geometry.AlignTolerance)
		return out
	}
	pin(out.Waypoints, source, target)
	return out
}

func pin(waypoints []geometry.Point, source, target diagram.Node) {
	last := len(waypoints) - 1
	waypoints[0] = geometry.DockingPoint(source.Center(), waypoints[1], source.Size())
	waypoints[last] = geometry.DockingPoint(target.Center(), waypoints[last-1], target.Size())
}

// RouteNodes returns a copy of d in which every binary relation touching one
// of the given nodes has been re-routed.
func RouteNodes(d *diagram.Diagram, ids ...string) *diagram.Diagram {
	if d == nil {
		return nil
	}
	out := d.Clone()
	for i, r := range out.Relations {
		if r.IsNary() {
			continue
		}
		for _, id := range ids {
			if r.SourceID == id || r.TargetID == id {
				out.Relations[i] = Route(r, out)
				break
			}
		}
	}
	return out
}

// RouteAll re-routes every binary relation in d.
func RouteAll(d *diagram.Diagram) *diagram.Diagram {
	if d == nil {
		return nil
	}
	out := d.Clone()
	for i, r := range out.Relations {
		out.Relations[i] = Route(r, out)
	}
	return out
}

// New builds a relation of the given type between two nodes with a fresh id
// and route. It reports false when either node is missing.
func New(d *diagram.Diagram, sourceID, targetID string, t diagram.RelationType) (diagram.Relation, bool) {
	r := diagram.Relation{
		ID:          diagram.NewID(diagram.PrefixRelation),
		Type:        t,
		SourceID:    sourceID,
		TargetID:    targetID,
		LabelOffset: &geometry.Point{X: 0, Y: -10},
	}
	if _, _, ok := endpoints(r, d); !ok {
		return diagram.Relation{}, false
	}
	return Route(r, d), true
}

// Reconnect moves one or both ends of a relation. An empty id keeps the
// current end. The relation gets a fresh two-point or Manhattan route and its
// interior waypoints are discarded.
func Reconnect(r diagram.Relation, newSourceID, newTargetID string, d *diagram.Diagram) diagram.Relation {
	out := r.Clone()
	if newSourceID != "" {
		out.SourceID = newSourceID
	}
	if newTargetID != "" {
		out.TargetID = newTargetID
	}
	if _, _, ok := endpoints(out, d); !ok {
		return r
	}
	out.Waypoints = nil
	return Route(out, d)
}

// Reverse swaps the relation's source and target and reverses its waypoints,
// keeping interior points.
func Reverse(r diagram.Relation) diagram.Relation {
	if r.IsNary() {
		return r
	}
	out := r.Clone()
	out.SourceID, out.TargetID = r.TargetID, r.SourceID
	slices.Reverse(out.Waypoints)
	return out
}

// WithWaypoints replaces the relation's waypoints and re-pins the endpoints
// to the node boundaries.
func WithWaypoints(r diagram.Relation, waypoints []geometry.Point, d *diagram.Diagram) diagram.Relation {
	out := r.Clone()
	out.Waypoints = slices.Clone(waypoints)
	source, target, ok := endpoints(out, d)
	if !ok || len(out.Waypoints) < 2 {
		return out
	}
	pin(out.Waypoints, source, target)
	return out
}

// InsertWaypoint adds an interior waypoint on the segment nearest p. The
// relation is returned unchanged when p is not within WaypointTolerance of
// any segment.
func InsertWaypoint(r diagram.Relation, p geometry.Point, d *diagram.Diagram) (diagram.Relation, bool) {
	waypoints, idx := geometry.InsertWaypointNear(r.Waypoints, p, WaypointTolerance)
	if idx < 0 {
		return r, false
	}
	return WithWaypoints(r, waypoints, d), true
}

// MoveWaypoint moves the interior waypoint at index to p. Endpoints cannot be
// moved this way.
func MoveWaypoint(r diagram.Relation, index int, p geometry.Point, d *diagram.Diagram) diagram.Relation {
	if index <= 0 || index >= len(r.Waypoints)-1 {
		return r
	}
	waypoints := slices.Clone(r.Waypoints)
	waypoints[index] = p
	return WithWaypoints(r, waypoints, d)
}

// RemoveWaypoint deletes the interior waypoint at index. Removing the last
// interior waypoint gives the relation a fresh route.
func RemoveWaypoint(r diagram.Relation, index int, d *diagram.Diagram) diagram.Relation {
	if index <= 0 || index >= len(r.Waypoints)-1 {
		return r
	}
	waypoints := slices.Delete(slices.Clone(r.Waypoints), index, index+1)
	if len(waypoints) <= 2 {
		out := r.Clone()
		out.Waypoints = waypoints
		return Route(out, d)
	}
	return WithWaypoints(r, waypoints, d)
}

// ResizeNode returns a copy of d with the node resized and its relations
// re-routed.
func ResizeNode(d *diagram.Diagram, id string, size geometry.Size) *diagram.Diagram {
	if d == nil {
		return nil
	}
	i := d.NodeIndex(id)
	if i < 0 {
		return d
	}
	out := d.Clone()
	out.Nodes[i].Width = size.Width
	out.Nodes[i].Height = size.Height
	return RouteNodes(out, id)
}

// Midpoint returns the anchor for a relation's label: the arc-length midpoint
// of a binary relation, or the diamond of an n-ary one.
func Midpoint(r diagram.Relation, d *diagram.Diagram) geometry.Point {
	if r.IsNary() {
		return d.DiamondPosition(r)
	}
	return geometry.PolylineMidpoint(r.Waypoints)
}
