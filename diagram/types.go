// Package diagram contains the ConDec document model: activity nodes, binary
// constraint relations and n-ary choice relations.
package diagram

import (
	"condec/geometry"
	"strconv"
)

// Constraint is a node-level cardinality constraint.
type Constraint string

// Node constraint kinds. The empty constraint means none.
const (
	ConstraintNone       Constraint = ""
	ConstraintAbsence    Constraint = "absence"
	ConstraintAbsenceN   Constraint = "absence_n"
	ConstraintExistenceN Constraint = "existence_n"
	ConstraintExactlyN   Constraint = "exactly_n"
	ConstraintInit       Constraint = "init"
)

// Constraints lists every non-empty constraint kind.
var Constraints = []Constraint{
	ConstraintAbsence,
	ConstraintAbsenceN,
	ConstraintExistenceN,
	ConstraintExactlyN,
	ConstraintInit,
}

// IsCardinality reports whether the constraint takes a constraintValue.
func (c Constraint) IsCardinality() bool {
	return c == ConstraintAbsenceN || c == ConstraintExistenceN || c == ConstraintExactlyN
}

// IsKnown reports whether c is none or one of the defined kinds.
func (c Constraint) IsKnown() bool {
	if c == ConstraintNone {
		return true
	}
	for _, k := range Constraints {
		if c == k {
			return true
		}
	}
	return false
}

// Node represents an activity box. X and Y are the centre of the box.
type Node struct {
	ID              string     `json:"id" validate:"required"`
	Name            string     `json:"name"`
	X               float64    `json:"x"`
	Y               float64    `json:"y"`
	Width           float64    `json:"width,omitempty" validate:"gte=0"`
	Height          float64    `json:"height,omitempty" validate:"gte=0"`
	Constraint      Constraint `json:"constraint,omitempty" validate:"omitempty,constraint"`
	ConstraintValue int        `json:"constraintValue,omitempty" validate:"gte=0"`
}

// Center returns the center point of the node.
func (n Node) Center() geometry.Point {
	return geometry.Point{X: n.X, Y: n.Y}
}

// Size returns the node size, falling back to geometry.DefaultSize.
func (n Node) Size() geometry.Size {
	return geometry.Size{Width: n.Width, Height: n.Height}.OrDefault()
}

// Bounds returns the node's bounding rectangle.
func (n Node) Bounds() geometry.Rect {
	return geometry.RectAround(n.Center(), n.Size())
}

// Contains checks if a point is inside the node.
func (n Node) Contains(p geometry.Point) bool {
	return n.Bounds().Contains(p)
}

// Notation returns the cardinality annotation drawn above the node, such as
// "0..2" for absence_n or "init". It is empty when the node has no
// constraint.
func (n Node) Notation() string {
	v := "n"
	if n.ConstraintValue > 0 {
		v = strconv.Itoa(n.ConstraintValue)
	}
	switch n.Constraint {
	case ConstraintAbsence:
		return "0"
	case ConstraintAbsenceN:
		return "0.." + v
	case ConstraintExistenceN:
		return v + "..*"
	case ConstraintExactlyN:
		return v
	case ConstraintInit:
		return "init"
	}
	return ""
}

// Relation is either a binary constraint between two nodes or, when its type
// is an n-ary kind, a choice over a set of activities joined at a diamond.
type Relation struct {
	ID          string           `json:"id" validate:"required"`
	Type        RelationType     `json:"type" validate:"required,relationtype"`
	SourceID    string           `json:"sourceId,omitempty"`
	TargetID    string           `json:"targetId,omitempty"`
	Waypoints   []geometry.Point `json:"waypoints,omitempty"`
	LabelOffset *geometry.Point  `json:"labelOffset,omitempty"`
	ShowLabel   *bool            `json:"showLabel,omitempty"`

	Activities []string        `json:"activities,omitempty"`
	N          int             `json:"n,omitempty"`
	DiamondPos *geometry.Point `json:"diamondPos,omitempty"`
}

// IsNary reports whether the relation is a choice relation.
func (r Relation) IsNary() bool {
	return r.Type.IsNary()
}

// LabelVisible reports whether the label is shown. Labels are visible unless
// explicitly hidden.
func (r Relation) LabelVisible() bool {
	return r.ShowLabel == nil || *r.ShowLabel
}

// Touches reports whether the relation references the node, either as an
// endpoint or as an n-ary activity.
func (r Relation) Touches(nodeID string) bool {
	if r.SourceID == nodeID || r.TargetID == nodeID {
		return true
	}
	for _, a := range r.Activities {
		if a == nodeID {
			return true
		}
	}
	return false
}

// ClampN forces N into [1, len(Activities)]. With no activities N becomes 1.
func (r *Relation) ClampN() {
	upper := len(r.Activities)
	if upper < 1 {
		upper = 1
	}
	r.N = max(1, min(r.N, upper))
}

// SetActivities replaces the activity set, dropping duplicates while keeping
// first-seen order, and clamps N.
func (r *Relation) SetActivities(ids []string) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	r.Activities = out
	r.ClampN()
}

// Diagram is the root document.
type Diagram struct {
	Nodes     []Node     `json:"nodes" validate:"dive"`
	Relations []Relation `json:"relations" validate:"dive"`
}

// New returns an empty diagram.
func New() *Diagram {
	return &Diagram{Nodes: []Node{}, Relations: []Relation{}}
}

// Default returns the starting document: a single unnamed activity.
func Default() *Diagram {
	return &Diagram{
		Nodes: []Node{
			{ID: "activity_1", Name: "", X: 150, Y: 150},
		},
		Relations: []Relation{},
	}
}

// Clone creates a deep copy of the diagram. Nil and empty slices are kept
// distinct so a clone compares equal to its source.
func (d *Diagram) Clone() *Diagram {
	if d == nil {
		return nil
	}

	clone := &Diagram{}
	if d.Nodes != nil {
		clone.Nodes = make([]Node, len(d.Nodes))
		copy(clone.Nodes, d.Nodes)
	}
	if d.Relations != nil {
		clone.Relations = make([]Relation, len(d.Relations))
		for i, r := range d.Relations {
			clone.Relations[i] = r.Clone()
		}
	}
	return clone
}

// Clone creates a deep copy of the relation.
func (r Relation) Clone() Relation {
	out := r
	if r.Waypoints != nil {
		out.Waypoints = make([]geometry.Point, len(r.Waypoints))
		copy(out.Waypoints, r.Waypoints)
	}
	if r.Activities != nil {
		out.Activities = make([]string, len(r.Activities))
		copy(out.Activities, r.Activities)
	}
	if r.LabelOffset != nil {
		p := *r.LabelOffset
		out.LabelOffset = &p
	}
	if r.ShowLabel != nil {
		b := *r.ShowLabel
		out.ShowLabel = &b
	}
	if r.DiamondPos != nil {
		p := *r.DiamondPos
		out.DiamondPos = &p
	}
	return out
}

// NodeIndex returns the index of the node with the given id, or -1.
func (d *Diagram) NodeIndex(id string) int {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// FindNode returns the node with the given id.
func (d *Diagram) FindNode(id string) (Node, bool) {
	if i := d.NodeIndex(id); i >= 0 {
		return d.Nodes[i], true
	}
	return Node{}, false
}

// RelationIndex returns the index of the relation with the given id, or -1.
func (d *Diagram) RelationIndex(id string) int {
	for i := range d.Relations {
		if d.Relations[i].ID == id {
			return i
		}
	}
	return -1
}

// FindRelation returns the relation with the given id.
func (d *Diagram) FindRelation(id string) (Relation, bool) {
	if i := d.RelationIndex(id); i >= 0 {
		return d.Relations[i], true
	}
	return Relation{}, false
}

// FindBinary returns the binary relation with the given endpoints and type.
func (d *Diagram) FindBinary(sourceID, targetID string, t RelationType) (Relation, bool) {
	for _, r := range d.Relations {
		if !r.IsNary() && r.SourceID == sourceID && r.TargetID == targetID && r.Type == t {
			return r, true
		}
	}
	return Relation{}, false
}

// RelationsTouching returns the relations referencing any of the given nodes.
func (d *Diagram) RelationsTouching(ids ...string) []Relation {
	var out []Relation
	for _, r := range d.Relations {
		for _, id := range ids {
			if r.Touches(id) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// DiamondPosition returns where an n-ary relation's diamond is drawn: its
// stored position, or the centroid of its member nodes.
func (d *Diagram) DiamondPosition(r Relation) geometry.Point {
	if r.DiamondPos != nil {
		return *r.DiamondPos
	}
	var centres []geometry.Point
	for _, id := range r.Activities {
		if n, ok := d.FindNode(id); ok {
			centres = append(centres, n.Center())
		}
	}
	return geometry.Centroid(centres)
}

// WithNode returns a copy of the diagram with the node replaced by id. The
// diagram is returned unchanged when no node matches.
func (d *Diagram) WithNode(n Node) *Diagram {
	out := d.Clone()
	if i := out.NodeIndex(n.ID); i >= 0 {
		out.Nodes[i] = n
	}
	return out
}

// WithRelation returns a copy of the diagram with the relation replaced by id.
func (d *Diagram) WithRelation(r Relation) *Diagram {
	out := d.Clone()
	if i := out.RelationIndex(r.ID); i >= 0 {
		out.Relations[i] = r.Clone()
	}
	return out
}
