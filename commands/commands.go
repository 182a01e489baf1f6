// Package commands implements every undoable change to a diagram. Commands
// read the current document through an Accessor and publish a full
// replacement through a Setter; they never modify a document in place.
package commands

import (
	"condec/diagram"
	"slices"
)

// Accessor returns the current document.
type Accessor func() *diagram.Diagram

// Setter replaces the current document.
type Setter func(*diagram.Diagram)

// Ptr returns a pointer to v, for filling optional command fields.
func Ptr[T any](v T) *T {
	return &v
}

// doc couples the accessor and setter every command carries.
type doc struct {
	get Accessor
	set Setter
}

// current returns a private copy of the current document.
func (d doc) current() *diagram.Diagram {
	cur := d.get()
	if cur == nil {
		return diagram.New()
	}
	return cur.Clone()
}

// indexedNode remembers where a node sat so undo can put it back.
type indexedNode struct {
	index int
	node  diagram.Node
}

// indexedRelation remembers where a relation sat so undo can put it back.
type indexedRelation struct {
	index    int
	relation diagram.Relation
}

func removeNode(d *diagram.Diagram, id string) {
	d.Nodes = slices.DeleteFunc(d.Nodes, func(n diagram.Node) bool { return n.ID == id })
}

func removeRelation(d *diagram.Diagram, id string) {
	d.Relations = slices.DeleteFunc(d.Relations, func(r diagram.Relation) bool { return r.ID == id })
}

func insertNode(d *diagram.Diagram, in indexedNode) {
	i := min(max(in.index, 0), len(d.Nodes))
	d.Nodes = slices.Insert(d.Nodes, i, in.node)
}

// restoreRelation replaces the relation by id, or re-inserts it at its former
// index when it is no longer present.
func restoreRelation(d *diagram.Diagram, in indexedRelation) {
	if i := d.RelationIndex(in.relation.ID); i >= 0 {
		d.Relations[i] = in.relation.Clone()
		return
	}
	i := min(max(in.index, 0), len(d.Relations))
	d.Relations = slices.Insert(d.Relations, i, in.relation.Clone())
}

// cascade removes the given nodes and everything that can no longer stand
// without them: binary relations with a removed endpoint and choice relations
// left with fewer than two activities. Surviving choice relations lose the
// removed activities and have n clamped. It returns the prior state of every
// relation it removed or changed, in ascending index order.
func cascade(d *diagram.Diagram, ids ...string) []indexedRelation {
	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
	}
	d.Nodes = slices.DeleteFunc(d.Nodes, func(n diagram.Node) bool { return removed[n.ID] })

	var touched []indexedRelation
	kept := d.Relations[:0:0]
	for i, r := range d.Relations {
		if r.IsNary() {
			remaining := slices.DeleteFunc(slices.Clone(r.Activities), func(a string) bool { return removed[a] })
			if len(remaining) == len(r.Activities) {
				kept = append(kept, r)
				continue
			}
			touched = append(touched, indexedRelation{index: i, relation: r.Clone()})
			if len(remaining) < 2 {
				continue
			}
			updated := r.Clone()
			updated.SetActivities(remaining)
			kept = append(kept, updated)
			continue
		}
		if removed[r.SourceID] || removed[r.TargetID] {
			touched = append(touched, indexedRelation{index: i, relation: r.Clone()})
			continue
		}
		kept = append(kept, r)
	}
	d.Relations = kept
	return touched
}

// touching captures the binary relations attached to any of the nodes so a
// move can be undone without re-deriving routes that the move itself changed.
func touching(d *diagram.Diagram, ids ...string) []indexedRelation {
	var out []indexedRelation
	for i, r := range d.Relations {
		if r.IsNary() {
			continue
		}
		for _, id := range ids {
			if r.SourceID == id || r.TargetID == id {
				out = append(out, indexedRelation{index: i, relation: r.Clone()})
				break
			}
		}
	}
	return out
}
