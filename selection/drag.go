package selection

import (
	"condec/alignment"
	"condec/commands"
	"condec/diagram"
	"condec/geometry"
	"condec/history"
	"sync"
)

// DragTransaction buffers a drag over a selection. Every frame is computed
// from the document as it was when the drag began, so frames never
// accumulate drift. Commit produces the one command that records the drag.
type DragTransaction struct {
	original *diagram.Diagram
	sel      Selection
	start    geometry.Point
	zoom     float64
	engine   *alignment.Engine

	delta  geometry.Point
	guides alignment.Guides
	done   bool
}

// Begin starts a drag of sel over d from the screen point start. A nil
// engine disables alignment snapping.
func Begin(d *diagram.Diagram, sel Selection, start geometry.Point, zoom float64, engine *alignment.Engine) *DragTransaction {
	if zoom <= 0 {
		zoom = 1
	}
	return &DragTransaction{
		original: d.Clone(),
		sel:      sel.Prune(d),
		start:    start,
		zoom:     zoom,
		engine:   engine,
	}
}

// Selection returns the elements being dragged.
func (t *DragTransaction) Selection() Selection {
	return t.sel.Clone()
}

// Original returns a copy of the document as it was when the drag began.
func (t *DragTransaction) Original() *diagram.Diagram {
	return t.original.Clone()
}

// Guides returns the alignment guides of the latest frame.
func (t *DragTransaction) Guides() alignment.Guides {
	return t.guides
}

// Delta returns the diagram-space displacement of the latest frame.
func (t *DragTransaction) Delta() geometry.Point {
	return t.delta
}

// Frame returns the document with the selection translated to follow the
// pointer at screen point p.
func (t *DragTransaction) Frame(p geometry.Point) *diagram.Diagram {
	t.delta = t.displacement(p)
	return commands.Translate(t.original, t.sel.Nodes, t.sel.RelationPoints, t.sel.NaryDiamonds, t.delta)
}

// displacement converts the screen movement to diagram units and applies
// alignment snapping to single-node and single-diamond drags. Single nodes
// also snap to the engine's grid.
func (t *DragTransaction) displacement(p geometry.Point) geometry.Point {
	delta := p.Sub(t.start).Scale(1 / t.zoom)
	t.guides = alignment.Guides{}
	if t.engine == nil {
		return delta
	}

	var (
		anchor  geometry.Point
		snapped geometry.Point
	)
	switch {
	case len(t.sel.Nodes) == 1 && t.sel.Len() == 1:
		n, ok := t.original.FindNode(t.sel.Nodes[0])
		if !ok {
			return delta
		}
		anchor = n.Center()
		snapped, t.guides = t.engine.SnapNode(anchor.Add(delta), t.original, alignment.Exclude{NodeID: n.ID})
	case len(t.sel.NaryDiamonds) == 1 && t.sel.Len() == 1:
		r, ok := t.original.FindRelation(t.sel.NaryDiamonds[0])
		if !ok {
			return delta
		}
		anchor = t.original.DiamondPosition(r)
		snapped, t.guides = t.engine.SnapPoint(anchor.Add(delta), t.original, alignment.Exclude{RelationID: r.ID})
	default:
		return delta
	}
	return snapped.Sub(anchor)
}

// Commit ends the drag at screen point p. The document is rewound to its
// state before the drag so the returned command captures the right undo
// state; executing it reproduces the final frame. Commit returns nil when the
// selection did not move.
func (t *DragTransaction) Commit(p geometry.Point, get commands.Accessor, set commands.Setter) history.Command {
	if t.done {
		return nil
	}
	t.done = true
	delta := t.displacement(p)
	set(t.original.Clone())
	if delta == (geometry.Point{}) || t.sel.IsEmpty() {
		return nil
	}
	t.delta = delta

	if t.sel.NodeOnly() {
		moves := make([]commands.NodeMove, 0, len(t.sel.Nodes))
		for _, id := range t.sel.Nodes {
			n, ok := t.original.FindNode(id)
			if !ok {
				continue
			}
			moves = append(moves, commands.NodeMove{ID: id, From: n.Center(), To: n.Center().Add(delta)})
		}
		if len(moves) == 1 {
			from := moves[0].From
			return commands.NewMoveNode(moves[0].ID, moves[0].To, &from, get, set)
		}
		return commands.NewMoveMultipleNodes(moves, get, set)
	}
	return commands.NewMoveSelection(t.sel.Nodes, t.sel.RelationPoints, t.sel.NaryDiamonds, delta, get, set)
}

// Cancel abandons the drag and returns the document as it was before it.
func (t *DragTransaction) Cancel() *diagram.Diagram {
	t.done = true
	t.guides = alignment.Guides{}
	return t.original.Clone()
}

// FrameBuffer coalesces intermediate drag frames. Only the most recent frame
// pushed before a Flush is applied.
type FrameBuffer struct {
	mu      sync.Mutex
	set     commands.Setter
	pending *diagram.Diagram
}

// NewFrameBuffer creates a buffer that applies frames through set.
func NewFrameBuffer(set commands.Setter) *FrameBuffer {
	return &FrameBuffer{set: set}
}

// Push replaces any pending frame with d.
func (b *FrameBuffer) Push(d *diagram.Diagram) {
	b.mu.Lock()
	b.pending = d
	b.mu.Unlock()
}

// Pending reports whether a frame is waiting.
func (b *FrameBuffer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}

// Flush applies the latest frame, if any, and reports whether it did.
func (b *FrameBuffer) Flush() bool {
	b.mu.Lock()
	d := b.pending
	b.pending = nil
	b.mu.Unlock()

	if d == nil {
		return false
	}
	b.set(d)
	return true
}

// Discard drops the pending frame.
func (b *FrameBuffer) Discard() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}
