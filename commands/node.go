package commands

import (
	"condec/connections"
	"condec/diagram"
	"condec/geometry"
	"fmt"
)

// CreateNode adds a node.
type CreateNode struct {
	doc
	node diagram.Node
}

// NewCreateNode creates a command adding node to the document.
func NewCreateNode(node diagram.Node, get Accessor, set Setter) *CreateNode {
	return &CreateNode{doc: doc{get, set}, node: node}
}

// Execute appends the node.
func (c *CreateNode) Execute() {
	d := c.current()
	d.Nodes = append(d.Nodes, c.node)
	c.set(d)
}

// Undo removes the node again.
func (c *CreateNode) Undo() {
	d := c.current()
	removeNode(d, c.node.ID)
	c.set(d)
}

// Description names the created node.
func (c *CreateNode) Description() string {
	name := c.node.Name
	if name == "" {
		name = "Unnamed"
	}
	return "Create node: " + name
}

// DeleteNode removes a node and cascades to every relation that references
// it. Undo restores the node and those relations at their former positions.
type DeleteNode struct {
	doc
	id        string
	node      *indexedNode
	relations []indexedRelation
}

// NewDeleteNode snapshots the node and its relations from the current
// document.
func NewDeleteNode(id string, get Accessor, set Setter) *DeleteNode {
	c := &DeleteNode{doc: doc{get, set}, id: id}
	d := c.current()
	if i := d.NodeIndex(id); i >= 0 {
		c.node = &indexedNode{index: i, node: d.Nodes[i]}
		c.relations = cascade(d, id)
	}
	return c
}

// Execute removes the node and its relations.
func (c *DeleteNode) Execute() {
	if c.node == nil {
		return
	}
	d := c.current()
	c.relations = cascade(d, c.id)
	c.set(d)
}

// Undo restores the node and its relations.
func (c *DeleteNode) Undo() {
	if c.node == nil {
		return
	}
	d := c.current()
	insertNode(d, *c.node)
	for _, r := range c.relations {
		restoreRelation(d, r)
	}
	c.set(d)
}

// Description names the deleted node.
func (c *DeleteNode) Description() string {
	return "Delete node: " + c.id
}

// NodeFields selects which node fields an update changes. Nil fields are left
// alone.
type NodeFields struct {
	Name            *string
	X, Y            *float64
	Width, Height   *float64
	Constraint      *diagram.Constraint
	ConstraintValue *int
}

func (f NodeFields) apply(n *diagram.Node) {
	if f.Name != nil {
		n.Name = *f.Name
	}
	if f.X != nil {
		n.X = *f.X
	}
	if f.Y != nil {
		n.Y = *f.Y
	}
	if f.Width != nil {
		n.Width = *f.Width
	}
	if f.Height != nil {
		n.Height = *f.Height
	}
	if f.Constraint != nil {
		n.Constraint = *f.Constraint
	}
	if f.ConstraintValue != nil {
		n.ConstraintValue = *f.ConstraintValue
	}
}

// capture returns the node's current values for exactly the fields set in f.
func (f NodeFields) capture(n diagram.Node) NodeFields {
	var old NodeFields
	if f.Name != nil {
		old.Name = Ptr(n.Name)
	}
	if f.X != nil {
		old.X = Ptr(n.X)
	}
	if f.Y != nil {
		old.Y = Ptr(n.Y)
	}
	if f.Width != nil {
		old.Width = Ptr(n.Width)
	}
	if f.Height != nil {
		old.Height = Ptr(n.Height)
	}
	if f.Constraint != nil {
		old.Constraint = Ptr(n.Constraint)
	}
	if f.ConstraintValue != nil {
		old.ConstraintValue = Ptr(n.ConstraintValue)
	}
	return old
}

func (f NodeFields) geometric() bool {
	return f.X != nil || f.Y != nil || f.Width != nil || f.Height != nil
}

// UpdateNode changes selected fields of a node. Position or size changes
// re-route the node's relations.
type UpdateNode struct {
	doc
	id        string
	fields    NodeFields
	old       NodeFields
	found     bool
	relations []indexedRelation
}

// NewUpdateNode captures the current values of the fields being changed.
func NewUpdateNode(id string, fields NodeFields, get Accessor, set Setter) *UpdateNode {
	c := &UpdateNode{doc: doc{get, set}, id: id, fields: fields}
	if n, ok := c.current().FindNode(id); ok {
		c.old = fields.capture(n)
		c.found = true
	}
	return c
}

// Execute applies the new values.
func (c *UpdateNode) Execute() {
	if !c.found {
		return
	}
	d := c.current()
	i := d.NodeIndex(c.id)
	if i < 0 {
		return
	}
	c.fields.apply(&d.Nodes[i])
	if c.fields.geometric() {
		c.relations = touching(d, c.id)
		d = connections.RouteNodes(d, c.id)
	}
	c.set(d)
}

// Undo restores the captured values and the relation routes they had.
func (c *UpdateNode) Undo() {
	if !c.found {
		return
	}
	d := c.current()
	i := d.NodeIndex(c.id)
	if i < 0 {
		return
	}
	c.old.apply(&d.Nodes[i])
	for _, r := range c.relations {
		restoreRelation(d, r)
	}
	c.set(d)
}

// Description names the updated node.
func (c *UpdateNode) Description() string {
	return "Update node: " + c.id
}

// MoveNode moves one node and re-routes its relations.
type MoveNode struct {
	doc
	id        string
	from, to  geometry.Point
	found     bool
	relations []indexedRelation
}

// NewMoveNode creates a move to the given position. When from is nil the
// node's current position is used as the undo position.
func NewMoveNode(id string, to geometry.Point, from *geometry.Point, get Accessor, set Setter) *MoveNode {
	c := &MoveNode{doc: doc{get, set}, id: id, to: to}
	if from != nil {
		c.from = *from
		c.found = true
	} else if n, ok := c.current().FindNode(id); ok {
		c.from = n.Center()
		c.found = true
	}
	return c
}

// Execute moves the node to its new position and re-routes its relations.
func (c *MoveNode) Execute() {
	if !c.found {
		return
	}
	d := c.current()
	i := d.NodeIndex(c.id)
	if i < 0 {
		return
	}
	c.relations = touching(d, c.id)
	d.Nodes[i].X, d.Nodes[i].Y = c.to.X, c.to.Y
	c.set(connections.RouteNodes(d, c.id))
}

// Undo moves the node back and restores the routes captured by Execute.
// Re-routing instead would keep any elbow the move introduced.
func (c *MoveNode) Undo() {
	if !c.found {
		return
	}
	d := c.current()
	i := d.NodeIndex(c.id)
	if i < 0 {
		return
	}
	d.Nodes[i].X, d.Nodes[i].Y = c.from.X, c.from.Y
	for _, r := range c.relations {
		restoreRelation(d, r)
	}
	c.set(d)
}

// Description describes the move.
func (c *MoveNode) Description() string {
	return "Move node: " + c.id
}

// NodeMove is one node's displacement within a batched move.
type NodeMove struct {
	ID       string
	From, To geometry.Point
}

// MoveMultipleNodes moves several nodes as one history entry.
type MoveMultipleNodes struct {
	doc
	moves     []NodeMove
	relations []indexedRelation
}

// NewMoveMultipleNodes creates a batched move.
func NewMoveMultipleNodes(moves []NodeMove, get Accessor, set Setter) *MoveMultipleNodes {
	return &MoveMultipleNodes{doc: doc{get, set}, moves: moves}
}

// Execute moves every node to its target and re-routes every relation
// touching a moved node.
func (c *MoveMultipleNodes) Execute() {
	d := c.current()
	ids := make([]string, 0, len(c.moves))
	for _, m := range c.moves {
		ids = append(ids, m.ID)
	}
	c.relations = touching(d, ids...)
	for _, m := range c.moves {
		if i := d.NodeIndex(m.ID); i >= 0 {
			d.Nodes[i].X, d.Nodes[i].Y = m.To.X, m.To.Y
		}
	}
	c.set(connections.RouteNodes(d, ids...))
}

// Undo moves every node back and restores the prior routes.
func (c *MoveMultipleNodes) Undo() {
	d := c.current()
	for _, m := range c.moves {
		if i := d.NodeIndex(m.ID); i >= 0 {
			d.Nodes[i].X, d.Nodes[i].Y = m.From.X, m.From.Y
		}
	}
	for _, r := range c.relations {
		restoreRelation(d, r)
	}
	c.set(d)
}

// Description counts the moved nodes.
func (c *MoveMultipleNodes) Description() string {
	return fmt.Sprintf("Move %d nodes", len(c.moves))
}

// DeleteMultipleNodes removes several nodes with their relations. Undo
// restores the whole document as it was before the delete.
type DeleteMultipleNodes struct {
	doc
	ids      []string
	snapshot *diagram.Diagram
}

// NewDeleteMultipleNodes creates a batched delete.
func NewDeleteMultipleNodes(ids []string, get Accessor, set Setter) *DeleteMultipleNodes {
	return &DeleteMultipleNodes{doc: doc{get, set}, ids: ids}
}

// Execute snapshots the document and removes the nodes.
func (c *DeleteMultipleNodes) Execute() {
	d := c.current()
	c.snapshot = d.Clone()
	cascade(d, c.ids...)
	c.set(d)
}

// Undo restores the snapshot.
func (c *DeleteMultipleNodes) Undo() {
	if c.snapshot == nil {
		return
	}
	c.set(c.snapshot.Clone())
}

// Description counts the deleted nodes.
func (c *DeleteMultipleNodes) Description() string {
	return fmt.Sprintf("Delete %d nodes", len(c.ids))
}
