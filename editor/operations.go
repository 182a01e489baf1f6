package editor

import (
	"condec/commands"
	"condec/connections"
	"condec/diagram"
	"condec/geometry"
	"condec/history"
	"condec/selection"
	"condec/validation"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

func (s *Session) node(id string) (diagram.Node, error) {
	n, ok := s.doc.FindNode(id)
	if !ok {
		return diagram.Node{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

func (s *Session) findRelation(id string) (diagram.Relation, error) {
	r, ok := s.doc.FindRelation(id)
	if !ok {
		return diagram.Relation{}, fmt.Errorf("%w: %s", ErrUnknownRelation, id)
	}
	return r, nil
}

// updateRelation runs an UpdateRelation command.
func (s *Session) updateRelation(id string, f commands.RelationFields) {
	s.execute(commands.NewUpdateRelation(id, f, s.Diagram, s.set))
}

// AddNode creates an unnamed activity centred on p and selects it.
func (s *Session) AddNode(p geometry.Point, name string) string {
	n := diagram.Node{
		ID:   diagram.NewID(diagram.PrefixActivity),
		Name: strings.TrimSpace(name),
		X:    p.X,
		Y:    p.Y,
	}
	s.execute(commands.NewCreateNode(n, s.Diagram, s.set))
	s.Select(selection.Nodes(n.ID))
	return n.ID
}

// RenameNode sets a node's name. Blank or unchanged names are ignored.
func (s *Session) RenameNode(id, name string) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" || name == n.Name {
		return nil
	}
	s.execute(commands.NewUpdateNode(id, commands.NodeFields{Name: &name}, s.Diagram, s.set))
	return nil
}

// SetConstraint sets a node's cardinality constraint. value is ignored for
// kinds that take none and must be at least 1 for those that do.
func (s *Session) SetConstraint(id string, c diagram.Constraint, value int) error {
	if _, err := s.node(id); err != nil {
		return err
	}
	if !c.IsKnown() {
		return fmt.Errorf("%w: constraint %q", ErrInvalidValue, c)
	}
	if !c.IsCardinality() {
		value = 0
	} else if value < 1 {
		return fmt.Errorf("%w: %s needs a value of at least 1", ErrInvalidValue, c)
	}
	s.execute(commands.NewUpdateNode(id, commands.NodeFields{
		Constraint:      &c,
		ConstraintValue: &value,
	}, s.Diagram, s.set))
	return nil
}

// ResizeNode changes a node's size and re-routes its relations.
func (s *Session) ResizeNode(id string, size geometry.Size) error {
	if _, err := s.node(id); err != nil {
		return err
	}
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("%w: size %vx%v", ErrInvalidValue, size.Width, size.Height)
	}
	s.execute(commands.NewUpdateNode(id, commands.NodeFields{
		Width:  &size.Width,
		Height: &size.Height,
	}, s.Diagram, s.set))
	return nil
}

// MoveNode moves a node to p as one step.
func (s *Session) MoveNode(id string, p geometry.Point) error {
	if _, err := s.node(id); err != nil {
		return err
	}
	s.execute(commands.NewMoveNode(id, p, nil, s.Diagram, s.set))
	return nil
}

// DeleteNode removes a node and every relation that depends on it.
func (s *Session) DeleteNode(id string) error {
	if _, err := s.node(id); err != nil {
		return err
	}
	s.execute(commands.NewDeleteNode(id, s.Diagram, s.set))
	return nil
}

// DeleteSelection removes the selected nodes, the choice relations whose
// diamonds are selected and the selected relation, as one step. It reports
// whether anything was deleted.
func (s *Session) DeleteSelection() bool {
	var cmds []history.Command
	if len(s.sel.Nodes) > 0 {
		cmds = append(cmds, commands.NewDeleteMultipleNodes(slices.Clone(s.sel.Nodes), s.Diagram, s.set))
	}
	relations := slices.Clone(s.sel.NaryDiamonds)
	if s.relation != "" && !slices.Contains(relations, s.relation) {
		relations = append(relations, s.relation)
	}
	for _, id := range relations {
		cmds = append(cmds, commands.NewDeleteRelation(id, s.Diagram, s.set))
	}
	if len(cmds) == 0 {
		return false
	}

	s.ClearSelection()
	if len(cmds) == 1 {
		s.execute(cmds[0])
	} else {
		s.execute(history.NewComposite("Delete selection", cmds...))
	}
	return true
}

// AppendActivity adds a new activity to the right of id, joined to it by a
// responded-existence relation, and selects it.
func (s *Session) AppendActivity(id string) (string, error) {
	if _, err := s.node(id); err != nil {
		return "", err
	}
	cmd := commands.NewAppendActivity(id, s.Diagram, s.set)
	s.execute(cmd)
	s.Select(selection.Nodes(cmd.NodeID()))
	return cmd.NodeID(), nil
}

// CreateRelation creates a binary relation and selects it. When an identical
// relation already exists it is selected instead. Relations refused by the
// target's or source's constraint return an error wrapping
// validation.ErrRelationNotAllowed.
func (s *Session) CreateRelation(sourceID, targetID string, t diagram.RelationType) (string, error) {
	if _, err := s.node(sourceID); err != nil {
		return "", err
	}
	if _, err := s.node(targetID); err != nil {
		return "", err
	}
	if sourceID == targetID {
		return "", fmt.Errorf("%w: source and target are the same activity", validation.ErrRelationNotAllowed)
	}
	if existing, ok := s.doc.FindBinary(sourceID, targetID, t); ok {
		s.relation = existing.ID
		s.sel = selection.Selection{}
		return existing.ID, nil
	}
	if err := validation.CheckRelation(s.doc, sourceID, targetID, t); err != nil {
		s.logger.Debug("relation refused",
			slog.String("source", sourceID),
			slog.String("target", targetID),
			slog.String("type", string(t)),
			slog.String("reason", err.Error()))
		return "", err
	}

	r, _ := connections.New(s.doc, sourceID, targetID, t)
	s.execute(commands.NewCreateRelation(r, s.Diagram, s.set))
	s.sel = selection.Selection{}
	s.relation = r.ID
	return r.ID, nil
}

// without returns the document minus one relation, for gate checks that
// replace that relation.
func (s *Session) without(id string) *diagram.Diagram {
	d := s.doc.Clone()
	d.Relations = slices.DeleteFunc(d.Relations, func(r diagram.Relation) bool { return r.ID == id })
	return d
}

// DeleteRelation removes a relation.
func (s *Session) DeleteRelation(id string) error {
	if _, err := s.findRelation(id); err != nil {
		return err
	}
	s.execute(commands.NewDeleteRelation(id, s.Diagram, s.set))
	return nil
}

// SetRelationType changes a relation's kind. Binary relations stay binary and
// choices stay choices; the new binary kind must pass the constraint gate.
func (s *Session) SetRelationType(id string, t diagram.RelationType) error {
	r, err := s.findRelation(id)
	if err != nil {
		return err
	}
	if !t.IsKnown() || t.IsNary() != r.IsNary() {
		return fmt.Errorf("%w: cannot change %s to %q", ErrInvalidValue, r.Type, t)
	}
	if t == r.Type {
		return nil
	}
	if !r.IsNary() {
		if err := validation.CheckRelation(s.without(id), r.SourceID, r.TargetID, t); err != nil {
			return err
		}
	}
	s.updateRelation(id, commands.RelationFields{Type: &t})
	return nil
}

// ReverseRelation swaps a relation's source and target.
func (s *Session) ReverseRelation(id string) error {
	r, err := s.findRelation(id)
	if err != nil {
		return err
	}
	if r.IsNary() {
		return fmt.Errorf("%w: a choice has no direction", ErrInvalidValue)
	}
	if err := validation.CheckRelation(s.without(id), r.TargetID, r.SourceID, r.Type); err != nil {
		return err
	}
	rev := connections.Reverse(r)
	s.updateRelation(id, commands.RelationFields{
		SourceID:  &rev.SourceID,
		TargetID:  &rev.TargetID,
		Waypoints: rev.Waypoints,
	})
	return nil
}

// ReconnectRelation moves one or both ends of a relation. An empty id keeps
// that end.
func (s *Session) ReconnectRelation(id, sourceID, targetID string) error {
	r, err := s.findRelation(id)
	if err != nil {
		return err
	}
	if r.IsNary() {
		return fmt.Errorf("%w: use SetNaryActivities for a choice", ErrInvalidValue)
	}
	for _, n := range []string{sourceID, targetID} {
		if n == "" {
			continue
		}
		if _, err := s.node(n); err != nil {
			return err
		}
	}
	next := connections.Reconnect(r, sourceID, targetID, s.doc)
	if next.SourceID == next.TargetID {
		return fmt.Errorf("%w: source and target are the same activity", validation.ErrRelationNotAllowed)
	}
	if err := validation.CheckRelation(s.without(id), next.SourceID, next.TargetID, r.Type); err != nil {
		return err
	}
	s.updateRelation(id, commands.RelationFields{
		SourceID:  &next.SourceID,
		TargetID:  &next.TargetID,
		Waypoints: next.Waypoints,
	})
	return nil
}

// ToggleLabel shows or hides a relation's label.
func (s *Session) ToggleLabel(id string) error {
	r, err := s.findRelation(id)
	if err != nil {
		return err
	}
	show := !r.LabelVisible()
	s.updateRelation(id, commands.RelationFields{ShowLabel: &show})
	return nil
}

// MoveLabel sets the offset of a relation's label from its midpoint.
func (s *Session) MoveLabel(id string, offset geometry.Point) error {
	if _, err := s.findRelation(id); err != nil {
		return err
	}
	s.updateRelation(id, commands.RelationFields{LabelOffset: &offset})
	return nil
}

// InsertWaypoint adds a bend point on the relation segment nearest p. It
// returns the new waypoint's index, or -1 when p is not on the relation.
func (s *Session) InsertWaypoint(id string, p geometry.Point) (int, error) {
	r, err := s.findRelation(id)
	if err != nil {
		return -1, err
	}
	next, ok := connections.InsertWaypoint(r, p, s.doc)
	if !ok {
		return -1, nil
	}
	_, idx := geometry.InsertWaypointNear(r.Waypoints, p, connections.WaypointTolerance)
	s.updateRelation(id, commands.RelationFields{Waypoints: next.Waypoints})
	return idx, nil
}

// MoveWaypoint moves an interior bend point.
func (s *Session) MoveWaypoint(id string, index int, p geometry.Point) error {
	r, err := s.findRelation(id)
	if err != nil {
		return err
	}
	if index <= 0 || index >= len(r.Waypoints)-1 {
		return fmt.Errorf("%w: waypoint %d is not an interior point", ErrInvalidValue, index)
	}
	next := connections.MoveWaypoint(r, index, p, s.doc)
	s.updateRelation(id, commands.RelationFields{Waypoints: next.Waypoints})
	return nil
}

// RemoveWaypoint deletes an interior bend point.
func (s *Session) RemoveWaypoint(id string, index int) error {
	r, err := s.findRelation(id)
	if err != nil {
		return err
	}
	if index <= 0 || index >= len(r.Waypoints)-1 {
		return fmt.Errorf("%w: waypoint %d is not an interior point", ErrInvalidValue, index)
	}
	next := connections.RemoveWaypoint(r, index, s.doc)
	s.updateRelation(id, commands.RelationFields{Waypoints: next.Waypoints})
	return nil
}

func (s *Session) choice(id string) (diagram.Relation, error) {
	r, err := s.findRelation(id)
	if err != nil {
		return r, err
	}
	if !r.IsNary() {
		return r, fmt.Errorf("%w: %s is not a choice", ErrInvalidValue, id)
	}
	return r, nil
}

// MoveDiamond places a choice relation's diamond at p.
func (s *Session) MoveDiamond(id string, p geometry.Point) error {
	if _, err := s.choice(id); err != nil {
		return err
	}
	s.updateRelation(id, commands.RelationFields{DiamondPos: &p})
	return nil
}

// SetNaryN sets how many of a choice's activities must occur. n is clamped to
// the number of activities.
func (s *Session) SetNaryN(id string, n int) error {
	if _, err := s.choice(id); err != nil {
		return err
	}
	s.updateRelation(id, commands.RelationFields{N: &n})
	return nil
}

// SetNaryActivities replaces a choice's activities.
func (s *Session) SetNaryActivities(id string, activities []string) error {
	if _, err := s.choice(id); err != nil {
		return err
	}
	for _, a := range activities {
		if _, err := s.node(a); err != nil {
			return err
		}
	}
	if !validation.IsNaryAllowed(s.doc, activities) {
		return fmt.Errorf("%w: a choice needs at least two activities", validation.ErrRelationNotAllowed)
	}
	s.updateRelation(id, commands.RelationFields{Activities: slices.Clone(activities)})
	return nil
}

// ConvertToNary replaces a binary relation by a choice of type t over its two
// activities, with the diamond at the relation's midpoint.
func (s *Session) ConvertToNary(id string, t diagram.RelationType) (string, error) {
	r, err := s.findRelation(id)
	if err != nil {
		return "", err
	}
	if r.IsNary() {
		return "", fmt.Errorf("%w: %s is already a choice", ErrInvalidValue, id)
	}
	if !t.IsNary() {
		return "", fmt.Errorf("%w: %q is not a choice type", ErrInvalidValue, t)
	}
	if !validation.IsNaryAllowed(s.doc, []string{r.SourceID, r.TargetID}) {
		return "", fmt.Errorf("%w: a choice needs two distinct activities", validation.ErrRelationNotAllowed)
	}

	mid := connections.Midpoint(r, s.doc)
	nary := diagram.Relation{
		ID:         diagram.NewID(diagram.PrefixNary),
		Type:       t,
		Activities: []string{r.SourceID, r.TargetID},
		N:          1,
		DiamondPos: &mid,
	}
	s.execute(commands.NewCreateNaryFromBinary(id, nary, s.Diagram, s.set))
	s.relation = nary.ID
	return nary.ID, nil
}
