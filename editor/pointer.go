package editor

import (
	"condec/commands"
	"condec/connections"
	"condec/geometry"
	"condec/selection"
	"log/slog"
)

// HitKind identifies what lies under the pointer.
type HitKind int

const (
	HitCanvas HitKind = iota
	HitNode
	HitDiamond
	HitWaypoint
	HitRelation
)

// Hit is the result of a hit test. Index is the waypoint index for
// HitWaypoint.
type Hit struct {
	Kind  HitKind
	ID    string
	Index int
}

type panGesture struct {
	start  geometry.Point // screen
	offset geometry.Point
}

// Zoom returns the view scale.
func (s *Session) Zoom() float64 {
	return s.zoom
}

// Offset returns the screen position of the diagram origin.
func (s *Session) Offset() geometry.Point {
	return s.offset
}

// ToDiagram converts a screen point to diagram coordinates.
func (s *Session) ToDiagram(screen geometry.Point) geometry.Point {
	return screen.Sub(s.offset).Scale(1 / s.zoom)
}

// ToScreen converts a diagram point to screen coordinates.
func (s *Session) ToScreen(p geometry.Point) geometry.Point {
	return p.Scale(s.zoom).Add(s.offset)
}

// ZoomAt scales the view by factor while keeping the diagram point under
// screen fixed. The zoom is clamped to the session's range.
func (s *Session) ZoomAt(screen geometry.Point, factor float64) {
	if factor <= 0 {
		return
	}
	anchor := s.ToDiagram(screen)
	s.zoom = geometry.Clamp(s.zoom*factor, s.opts.MinZoom, s.opts.MaxZoom)
	s.offset = screen.Sub(anchor.Scale(s.zoom))
}

// ResetView restores zoom 1 with the origin at the top-left corner.
func (s *Session) ResetView() {
	s.zoom = 1
	s.offset = geometry.Point{}
}

// HitTest finds the topmost element at diagram point p. Interior waypoints
// win over diamonds, diamonds over nodes and nodes over relation segments.
func (s *Session) HitTest(p geometry.Point) Hit {
	d := s.doc
	for _, r := range d.Relations {
		if r.IsNary() {
			continue
		}
		for i := 1; i < len(r.Waypoints)-1; i++ {
			if geometry.Distance(p, r.Waypoints[i]) <= selection.WaypointRadius {
				return Hit{Kind: HitWaypoint, ID: r.ID, Index: i}
			}
		}
	}
	for _, r := range d.Relations {
		if r.IsNary() && geometry.Distance(p, d.DiamondPosition(r)) <= selection.DiamondRadius {
			return Hit{Kind: HitDiamond, ID: r.ID}
		}
	}
	for i := len(d.Nodes) - 1; i >= 0; i-- {
		if d.Nodes[i].Contains(p) {
			return Hit{Kind: HitNode, ID: d.Nodes[i].ID}
		}
	}
	for _, r := range d.Relations {
		for i := 1; i < len(r.Waypoints); i++ {
			if dist, _ := geometry.DistanceToSegment(p, r.Waypoints[i-1], r.Waypoints[i]); dist <= connections.WaypointTolerance {
				return Hit{Kind: HitRelation, ID: r.ID}
			}
		}
	}
	return Hit{Kind: HitCanvas}
}

// Pointer returns the diagram position of the last pointer event.
func (s *Session) Pointer() geometry.Point {
	return s.pointer
}

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool {
	return s.drag != nil
}

// Lasso returns the selection rectangle in diagram coordinates while a box
// selection is in progress.
func (s *Session) Lasso() (geometry.Rect, bool) {
	if !s.lasso.Active() {
		return geometry.Rect{}, false
	}
	return s.lasso.Rect(), true
}

// PointerDown handles a primary-button press at a screen point.
func (s *Session) PointerDown(screen geometry.Point) {
	p := s.ToDiagram(screen)
	s.pointer = p
	hit := s.HitTest(p)

	switch s.mode {
	case ModeConnect:
		if hit.Kind == HitNode {
			if _, err := s.CompleteConnect(hit.ID); err != nil {
				s.logger.Info("connect failed", slog.String("error", err.Error()))
			}
		}
		return
	case ModeNary:
		if hit.Kind == HitNode {
			_ = s.ToggleNaryActivity(hit.ID)
		}
		return
	}

	var picked selection.Selection
	switch hit.Kind {
	case HitNode:
		picked = selection.Nodes(hit.ID)
	case HitDiamond:
		picked = selection.Selection{NaryDiamonds: []string{hit.ID}}
	case HitWaypoint:
		picked = selection.Selection{RelationPoints: []commands.WaypointRef{{RelationID: hit.ID, Index: hit.Index}}}
	case HitRelation:
		_ = s.SelectRelation(hit.ID)
		return
	default:
		s.ClearSelection()
		if s.tool == ToolSelect {
			s.lasso.Begin(p)
		} else {
			s.pan = &panGesture{start: screen, offset: s.offset}
		}
		return
	}

	// Pressing on a member of a multi-element selection drags all of it.
	if s.sel.Len() < 2 || !s.contains(picked) {
		s.Select(picked)
	}
	s.relation = ""
	s.drag = selection.Begin(s.doc, s.sel, screen, s.zoom, s.align)
}

func (s *Session) contains(picked selection.Selection) bool {
	for _, id := range picked.Nodes {
		if !s.sel.HasNode(id) {
			return false
		}
	}
	for _, id := range picked.NaryDiamonds {
		if !s.sel.HasDiamond(id) {
			return false
		}
	}
	for _, ref := range picked.RelationPoints {
		if !s.sel.HasWaypoint(ref) {
			return false
		}
	}
	return true
}

// PointerMove handles pointer motion at a screen point. Drag frames are
// buffered until Flush.
func (s *Session) PointerMove(screen geometry.Point) {
	p := s.ToDiagram(screen)
	s.pointer = p
	switch {
	case s.drag != nil:
		s.frames.Push(s.drag.Frame(screen))
	case s.lasso.Active():
		s.sel = s.lasso.Update(p, s.doc)
	case s.pan != nil:
		s.offset = s.pan.offset.Add(screen.Sub(s.pan.start))
	}
}

// Flush applies the latest buffered drag frame. It reports whether the
// document changed.
func (s *Session) Flush() bool {
	return s.frames.Flush()
}

// PointerUp ends the current gesture at a screen point. A drag is recorded
// as a single command.
func (s *Session) PointerUp(screen geometry.Point) {
	p := s.ToDiagram(screen)
	s.pointer = p
	switch {
	case s.drag != nil:
		drag := s.drag
		s.drag = nil
		s.frames.Discard()
		if cmd := drag.Commit(screen, s.Diagram, s.set); cmd != nil {
			s.execute(cmd)
		}
	case s.lasso.Active():
		s.sel = s.lasso.End(p, s.doc)
	case s.pan != nil:
		s.offset = s.pan.offset.Add(screen.Sub(s.pan.start))
		s.pan = nil
	}
}

// Guides returns the alignment guides of the drag in progress.
func (s *Session) Guides() (x, y *float64) {
	if s.drag == nil {
		return nil, nil
	}
	g := s.drag.Guides()
	return g.X, g.Y
}
