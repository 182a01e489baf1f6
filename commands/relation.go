package commands

import (
	"condec/connections"
	"condec/diagram"
	"condec/geometry"
	"slices"
)

// CreateRelation adds a relation.
type CreateRelation struct {
	doc
	relation diagram.Relation
}

// NewCreateRelation creates a command adding the relation. N-ary relations
// have n clamped.
func NewCreateRelation(r diagram.Relation, get Accessor, set Setter) *CreateRelation {
	r = r.Clone()
	if r.IsNary() {
		r.SetActivities(r.Activities)
	}
	return &CreateRelation{doc: doc{get, set}, relation: r}
}

// Execute appends the relation.
func (c *CreateRelation) Execute() {
	d := c.current()
	d.Relations = append(d.Relations, c.relation.Clone())
	c.set(d)
}

// Undo removes the relation.
func (c *CreateRelation) Undo() {
	d := c.current()
	removeRelation(d, c.relation.ID)
	c.set(d)
}

// Description names the relation type.
func (c *CreateRelation) Description() string {
	return "Create relation: " + string(c.relation.Type)
}

// Relation returns the relation being created.
func (c *CreateRelation) Relation() diagram.Relation {
	return c.relation.Clone()
}

// DeleteRelation removes a relation.
type DeleteRelation struct {
	doc
	id       string
	snapshot *indexedRelation
}

// NewDeleteRelation creates a command deleting the relation with the given id.
func NewDeleteRelation(id string, get Accessor, set Setter) *DeleteRelation {
	return &DeleteRelation{doc: doc{get, set}, id: id}
}

// Execute captures and removes the relation.
func (c *DeleteRelation) Execute() {
	d := c.current()
	i := d.RelationIndex(c.id)
	if i < 0 {
		return
	}
	c.snapshot = &indexedRelation{index: i, relation: d.Relations[i].Clone()}
	removeRelation(d, c.id)
	c.set(d)
}

// Undo re-inserts the relation where it was.
func (c *DeleteRelation) Undo() {
	if c.snapshot == nil {
		return
	}
	d := c.current()
	restoreRelation(d, *c.snapshot)
	c.set(d)
}

// Description names the deleted relation.
func (c *DeleteRelation) Description() string {
	return "Delete relation: " + c.id
}

// RelationFields selects which relation fields an update changes. Nil fields
// are left alone; a non-nil empty Waypoints or Activities replaces the value.
type RelationFields struct {
	Type        *diagram.RelationType
	SourceID    *string
	TargetID    *string
	Waypoints   []geometry.Point
	LabelOffset *geometry.Point
	ShowLabel   *bool
	Activities  []string
	N           *int
	DiamondPos  *geometry.Point
}

func (f RelationFields) apply(r *diagram.Relation) {
	if f.Type != nil {
		r.Type = *f.Type
	}
	if f.SourceID != nil {
		r.SourceID = *f.SourceID
	}
	if f.TargetID != nil {
		r.TargetID = *f.TargetID
	}
	if f.Waypoints != nil {
		r.Waypoints = slices.Clone(f.Waypoints)
	}
	if f.LabelOffset != nil {
		p := *f.LabelOffset
		r.LabelOffset = &p
	}
	if f.ShowLabel != nil {
		b := *f.ShowLabel
		r.ShowLabel = &b
	}
	if f.DiamondPos != nil {
		p := *f.DiamondPos
		r.DiamondPos = &p
	}
	if f.N != nil {
		r.N = *f.N
	}
	if f.Activities != nil {
		r.SetActivities(f.Activities)
	}
	if r.IsNary() && (f.N != nil || f.Activities != nil) {
		r.ClampN()
	}
}

// UpdateRelation changes selected fields of a relation. Undo restores the
// whole prior relation.
type UpdateRelation struct {
	doc
	id       string
	fields   RelationFields
	previous *diagram.Relation
}

// NewUpdateRelation creates a relation update.
func NewUpdateRelation(id string, fields RelationFields, get Accessor, set Setter) *UpdateRelation {
	return &UpdateRelation{doc: doc{get, set}, id: id, fields: fields}
}

// Execute captures the prior relation and applies the update.
func (c *UpdateRelation) Execute() {
	d := c.current()
	i := d.RelationIndex(c.id)
	if i < 0 {
		return
	}
	prev := d.Relations[i].Clone()
	c.previous = &prev
	c.fields.apply(&d.Relations[i])
	c.set(d)
}

// Undo restores the prior relation.
func (c *UpdateRelation) Undo() {
	if c.previous == nil {
		return
	}
	d := c.current()
	if i := d.RelationIndex(c.id); i >= 0 {
		d.Relations[i] = c.previous.Clone()
		c.set(d)
	}
}

// Description names the updated relation.
func (c *UpdateRelation) Description() string {
	return "Update relation: " + c.id
}

// AppendActivity adds an unnamed activity to the right of a source node and
// joins them with a responded-existence relation, as one step.
type AppendActivity struct {
	doc
	node     diagram.Node
	relation diagram.Relation
	ok       bool
}

// AppendGap is the horizontal space between the source and appended node.
const AppendGap = 100

// NewAppendActivity plans the new node and relation from the current
// document. The command does nothing when the source node is missing.
func NewAppendActivity(sourceID string, get Accessor, set Setter) *AppendActivity {
	c := &AppendActivity{doc: doc{get, set}}
	d := c.current()
	source, ok := d.FindNode(sourceID)
	if !ok {
		return c
	}

	c.node = diagram.Node{
		ID:     diagram.NewID(diagram.PrefixActivity),
		X:      source.X + source.Size().Width + AppendGap,
		Y:      source.Y,
		Width:  source.Width,
		Height: source.Height,
	}
	d.Nodes = append(d.Nodes, c.node)
	c.relation, c.ok = connections.New(d, sourceID, c.node.ID, diagram.RespExistence)
	return c
}

// Execute adds the node and relation.
func (c *AppendActivity) Execute() {
	if !c.ok {
		return
	}
	d := c.current()
	d.Nodes = append(d.Nodes, c.node)
	d.Relations = append(d.Relations, c.relation.Clone())
	c.set(d)
}

// Undo removes both.
func (c *AppendActivity) Undo() {
	if !c.ok {
		return
	}
	d := c.current()
	removeRelation(d, c.relation.ID)
	removeNode(d, c.node.ID)
	c.set(d)
}

// Description describes the append.
func (c *AppendActivity) Description() string {
	return "Append activity"
}

// NodeID returns the id of the appended node, empty when nothing is appended.
func (c *AppendActivity) NodeID() string {
	if !c.ok {
		return ""
	}
	return c.node.ID
}

// CreateNaryFromBinary replaces a binary relation with a choice relation, or
// just adds the choice relation when there is no original.
type CreateNaryFromBinary struct {
	doc
	original *indexedRelation
	nary     diagram.Relation
}

// NewCreateNaryFromBinary creates the conversion. originalID may be empty.
func NewCreateNaryFromBinary(originalID string, nary diagram.Relation, get Accessor, set Setter) *CreateNaryFromBinary {
	c := &CreateNaryFromBinary{doc: doc{get, set}, nary: nary.Clone()}
	c.nary.SetActivities(c.nary.Activities)
	if originalID != "" {
		d := c.current()
		if i := d.RelationIndex(originalID); i >= 0 {
			c.original = &indexedRelation{index: i, relation: d.Relations[i].Clone()}
		}
	}
	return c
}

// Execute removes the original and adds the choice relation.
func (c *CreateNaryFromBinary) Execute() {
	d := c.current()
	if c.original != nil {
		removeRelation(d, c.original.relation.ID)
	}
	d.Relations = append(d.Relations, c.nary.Clone())
	c.set(d)
}

// Undo removes the choice relation and restores the original.
func (c *CreateNaryFromBinary) Undo() {
	d := c.current()
	removeRelation(d, c.nary.ID)
	if c.original != nil {
		restoreRelation(d, *c.original)
	}
	c.set(d)
}

// Description names the new relation type.
func (c *CreateNaryFromBinary) Description() string {
	if c.original == nil {
		return "Create n-ary relation: " + string(c.nary.Type)
	}
	return "Convert to n-ary relation: " + string(c.nary.Type)
}
