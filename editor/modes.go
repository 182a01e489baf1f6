package editor

import (
	"condec/commands"
	"condec/diagram"
	"condec/validation"
	"fmt"
	"log/slog"
	"slices"
)

// Mode is the session's interaction mode.
type Mode int

const (
	ModeIdle    Mode = iota // Plain selection and dragging
	ModeConnect             // Awaiting the target of a new relation
	ModeNary                // Collecting activities for a choice relation
)

// String returns the mode name for display
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeConnect:
		return "CONNECT"
	case ModeNary:
		return "CHOICE"
	default:
		return "UNKNOWN"
	}
}

// Tool selects what a press on empty canvas does.
type Tool int

const (
	ToolHand   Tool = iota // Pan the view
	ToolSelect             // Draw a selection box
)

// Mode returns the current interaction mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// ConnectSource returns the source node while in ModeConnect.
func (s *Session) ConnectSource() string {
	return s.source
}

// NaryActivities returns the activities collected in ModeNary.
func (s *Session) NaryActivities() []string {
	return slices.Clone(s.activity)
}

// Tool returns the active canvas tool.
func (s *Session) Tool() Tool {
	return s.tool
}

// SetTool switches the canvas tool.
func (s *Session) SetTool(t Tool) {
	s.tool = t
}

func (s *Session) resetMode() {
	s.mode = ModeIdle
	s.source = ""
	s.activity = nil
}

// StartConnect waits for the target of a new relation from sourceID.
func (s *Session) StartConnect(sourceID string) error {
	if s.doc.NodeIndex(sourceID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, sourceID)
	}
	s.resetMode()
	s.mode = ModeConnect
	s.source = sourceID
	return nil
}

// CompleteConnect creates a responded-existence relation from the connect
// source to targetID and returns to ModeIdle. Choosing the source itself
// keeps waiting. A rejected relation still leaves connect mode.
func (s *Session) CompleteConnect(targetID string) (string, error) {
	if s.mode != ModeConnect {
		return "", fmt.Errorf("%w: not connecting", ErrInvalidMode)
	}
	if targetID == s.source {
		return "", nil
	}
	source := s.source
	s.resetMode()
	return s.CreateRelation(source, targetID, diagram.RespExistence)
}

// StartNary begins collecting activities for a new choice relation, seeded
// with the given activities. Repeated seeds are collected once.
func (s *Session) StartNary(seed ...string) error {
	for _, id := range seed {
		if s.doc.NodeIndex(id) < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
	}
	s.resetMode()
	s.mode = ModeNary
	for _, id := range seed {
		if !slices.Contains(s.activity, id) {
			s.activity = append(s.activity, id)
		}
	}
	return nil
}

// ToggleNaryActivity adds the node to the collected activities, or removes it
// when already collected.
func (s *Session) ToggleNaryActivity(nodeID string) error {
	if s.mode != ModeNary {
		return fmt.Errorf("%w: not collecting activities", ErrInvalidMode)
	}
	if s.doc.NodeIndex(nodeID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	if i := slices.Index(s.activity, nodeID); i >= 0 {
		s.activity = slices.Delete(s.activity, i, i+1)
		return nil
	}
	s.activity = append(s.activity, nodeID)
	return nil
}

// CompleteNary creates a choice relation of type t over the collected
// activities and returns to ModeIdle.
func (s *Session) CompleteNary(t diagram.RelationType) (string, error) {
	if s.mode != ModeNary {
		return "", fmt.Errorf("%w: not collecting activities", ErrInvalidMode)
	}
	if !t.IsNary() {
		return "", fmt.Errorf("%w: %q is not a choice type", ErrInvalidValue, t)
	}
	if !validation.IsNaryAllowed(s.doc, s.activity) {
		return "", fmt.Errorf("%w: a choice needs at least two activities", validation.ErrRelationNotAllowed)
	}

	r := diagram.Relation{
		ID:         diagram.NewID(diagram.PrefixNary),
		Type:       t,
		Activities: slices.Clone(s.activity),
		N:          1,
	}
	s.resetMode()
	s.execute(commands.NewCreateNaryFromBinary("", r, s.Diagram, s.set))
	s.relation = r.ID
	s.logger.Debug("choice created", slog.String("relation", r.ID), slog.Int("activities", len(r.Activities)))
	return r.ID, nil
}

// Cancel aborts whatever gesture or mode is in progress without touching the
// document history. A drag in progress is rolled back.
func (s *Session) Cancel() {
	s.resetMode()
	if s.drag != nil {
		s.frames.Discard()
		s.set(s.drag.Cancel())
		s.drag = nil
	}
	s.lasso.Cancel()
	s.pan = nil
}
