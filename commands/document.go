package commands

import (
	"condec/connections"
	"condec/diagram"
	"condec/geometry"
	"fmt"
)

// ImportDiagram replaces the whole document.
type ImportDiagram struct {
	doc
	next     *diagram.Diagram
	previous *diagram.Diagram
}

// NewImportDiagram creates a command swapping in next.
func NewImportDiagram(next *diagram.Diagram, get Accessor, set Setter) *ImportDiagram {
	return &ImportDiagram{doc: doc{get, set}, next: next.Clone()}
}

// Execute snapshots the current document on first run and installs the new one.
func (c *ImportDiagram) Execute() {
	if c.previous == nil {
		c.previous = c.current()
	}
	c.set(c.next.Clone())
}

// Undo reinstalls the previous document.
func (c *ImportDiagram) Undo() {
	if c.previous == nil {
		return
	}
	c.set(c.previous.Clone())
}

// Description describes the import.
func (c *ImportDiagram) Description() string {
	return "Import diagram"
}

// WaypointRef addresses one waypoint of a relation.
type WaypointRef struct {
	RelationID string
	Index      int
}

// MoveSelection translates a mixed selection of nodes, interior waypoints and
// choice diamonds as one history entry. Relations touching a moved node are
// re-routed after the waypoints are placed.
type MoveSelection struct {
	doc
	nodes     []string
	waypoints []WaypointRef
	diamonds  []string
	delta     geometry.Point

	before    []indexedNode
	relations []indexedRelation
}

// NewMoveSelection snapshots everything the move can change from the current
// document.
func NewMoveSelection(nodes []string, waypoints []WaypointRef, diamonds []string, delta geometry.Point, get Accessor, set Setter) *MoveSelection {
	c := &MoveSelection{
		doc:       doc{get, set},
		nodes:     nodes,
		waypoints: waypoints,
		diamonds:  diamonds,
		delta:     delta,
	}

	d := c.current()
	for _, id := range nodes {
		if i := d.NodeIndex(id); i >= 0 {
			c.before = append(c.before, indexedNode{index: i, node: d.Nodes[i]})
		}
	}
	affected := make(map[string]bool)
	for _, r := range d.RelationsTouching(nodes...) {
		affected[r.ID] = true
	}
	for _, w := range waypoints {
		affected[w.RelationID] = true
	}
	for _, id := range diamonds {
		affected[id] = true
	}
	for i, r := range d.Relations {
		if affected[r.ID] {
			c.relations = append(c.relations, indexedRelation{index: i, relation: r.Clone()})
		}
	}
	return c
}

// Execute applies the translation.
func (c *MoveSelection) Execute() {
	c.set(Translate(c.current(), c.nodes, c.waypoints, c.diamonds, c.delta))
}

// Undo restores the nodes and relations captured at construction.
func (c *MoveSelection) Undo() {
	d := c.current()
	for _, n := range c.before {
		if i := d.NodeIndex(n.node.ID); i >= 0 {
			d.Nodes[i] = n.node
		}
	}
	for _, r := range c.relations {
		if i := d.RelationIndex(r.relation.ID); i >= 0 {
			d.Relations[i] = r.relation.Clone()
		}
	}
	c.set(d)
}

// Description counts the moved elements.
func (c *MoveSelection) Description() string {
	return fmt.Sprintf("Move %d elements", len(c.nodes)+len(c.waypoints)+len(c.diamonds))
}

// Translate returns a copy of d with the given nodes, interior waypoints and
// diamonds shifted by delta and the moved nodes' relations re-routed. It is
// shared by MoveSelection and live drag frames so both produce the same
// geometry.
func Translate(d *diagram.Diagram, nodes []string, waypoints []WaypointRef, diamonds []string, delta geometry.Point) *diagram.Diagram {
	out := d.Clone()
	for _, id := range nodes {
		if i := out.NodeIndex(id); i >= 0 {
			out.Nodes[i].X += delta.X
			out.Nodes[i].Y += delta.Y
		}
	}
	for _, w := range waypoints {
		i := out.RelationIndex(w.RelationID)
		if i < 0 {
			continue
		}
		wp := out.Relations[i].Waypoints
		if w.Index <= 0 || w.Index >= len(wp)-1 {
			continue
		}
		wp[w.Index] = wp[w.Index].Add(delta)
	}
	for _, id := range diamonds {
		i := out.RelationIndex(id)
		if i < 0 || !out.Relations[i].IsNary() {
			continue
		}
		// Measure from the input so a centroid default ignores moved members.
		p := d.DiamondPosition(d.Relations[i]).Add(delta)
		out.Relations[i].DiamondPos = &p
	}

	out = connections.RouteNodes(out, nodes...)
	// Relations with a moved interior waypoint but no moved endpoint still
	// need their endpoints re-pinned.
	for _, w := range waypoints {
		if i := out.RelationIndex(w.RelationID); i >= 0 {
			r := out.Relations[i]
			out.Relations[i] = connections.WithWaypoints(r, r.Waypoints, out)
		}
	}
	return out
}
