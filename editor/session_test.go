package editor

import (
	"condec/commands"
	"condec/diagram"
	"condec/geometry"
	"condec/selection"
	"condec/validation"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "a", Name: "A", X: 100, Y: 100},
			{ID: "b", Name: "B", X: 400, Y: 100},
			{ID: "c", Name: "C", X: 400, Y: 300},
		},
		Relations: []diagram.Relation{},
	}
	return NewSession(d, DefaultOptions())
}

func TestConnectModeStateMachine(t *testing.T) {
	s := newTestSession(t)

	_, err := s.CompleteConnect("b")
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.ErrorIs(t, s.StartConnect("missing"), ErrUnknownNode)
	assert.Equal(t, ModeIdle, s.Mode())

	require.NoError(t, s.StartConnect("a"))
	assert.Equal(t, ModeConnect, s.Mode())
	assert.Equal(t, "a", s.ConnectSource())

	id, err := s.CompleteConnect("a")
	require.NoError(t, err)
	assert.Empty(t, id, "choosing the source keeps waiting")
	assert.Equal(t, ModeConnect, s.Mode())

	id, err = s.CompleteConnect("b")
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, s.Mode())
	assert.Empty(t, s.ConnectSource())

	r, ok := s.Diagram().FindRelation(id)
	require.True(t, ok)
	assert.Equal(t, diagram.RespExistence, r.Type)
	assert.Equal(t, id, s.SelectedRelation())
	assert.Equal(t, 1, s.History().Len())
}

func TestCreateRelationDuplicateSelectsExisting(t *testing.T) {
	s := newTestSession(t)
	first, err := s.CreateRelation("a", "b", diagram.RespExistence)
	require.NoError(t, err)
	s.ClearSelection()

	second, err := s.CreateRelation("a", "b", diagram.RespExistence)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, s.SelectedRelation())
	assert.Len(t, s.Diagram().Relations, 1)
	assert.Equal(t, 1, s.History().Len())
}

func TestCreateRelationRejectedByConstraint(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetConstraint("b", diagram.ConstraintAbsence, 0))
	depth := s.History().Len()
	before := s.Diagram().Clone()

	_, err := s.CreateRelation("a", "b", diagram.Response)
	assert.ErrorIs(t, err, validation.ErrRelationNotAllowed)
	assert.Equal(t, depth, s.History().Len())
	assert.Equal(t, before, s.Diagram())

	_, err = s.CreateRelation("a", "b", diagram.NegResponse)
	assert.NoError(t, err, "negative relations never count")

	_, err = s.CreateRelation("a", "a", diagram.Response)
	assert.ErrorIs(t, err, validation.ErrRelationNotAllowed)
}

func TestCancelLeavesDocumentAndHistoryAlone(t *testing.T) {
	s := newTestSession(t)
	before := s.Diagram().Clone()

	require.NoError(t, s.StartConnect("a"))
	s.Cancel()
	assert.Equal(t, ModeIdle, s.Mode())

	require.NoError(t, s.StartNary("a", "b"))
	s.Cancel()
	assert.Equal(t, ModeIdle, s.Mode())
	assert.Empty(t, s.NaryActivities())

	assert.Equal(t, before, s.Diagram())
	assert.Equal(t, 0, s.History().Len())
}

func TestNaryMode(t *testing.T) {
	s := newTestSession(t)

	assert.ErrorIs(t, s.ToggleNaryActivity("a"), ErrInvalidMode)
	require.NoError(t, s.StartNary("a"))
	_, err := s.CompleteNary(diagram.Choice)
	assert.ErrorIs(t, err, validation.ErrRelationNotAllowed)
	assert.Equal(t, ModeNary, s.Mode(), "a failed completion keeps collecting")

	require.NoError(t, s.ToggleNaryActivity("b"))
	require.NoError(t, s.ToggleNaryActivity("c"))
	require.NoError(t, s.ToggleNaryActivity("b"))
	assert.Equal(t, []string{"a", "c"}, s.NaryActivities())

	_, err = s.CompleteNary(diagram.Response)
	assert.ErrorIs(t, err, ErrInvalidValue)

	id, err := s.CompleteNary(diagram.ExChoice)
	require.NoError(t, err)
	r, ok := s.Diagram().FindRelation(id)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, r.Activities)
	assert.Equal(t, 1, r.N)
	assert.Equal(t, ModeIdle, s.Mode())
}

func TestStartNaryCollectsRepeatedSeedOnce(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.StartNary("a", "b", "a"))
	assert.Equal(t, []string{"a", "b"}, s.NaryActivities())

	id, err := s.CompleteNary(diagram.Choice)
	require.NoError(t, err)
	r, _ := s.Diagram().FindRelation(id)
	assert.Equal(t, []string{"a", "b"}, r.Activities)

	assert.ErrorIs(t, s.StartNary("a", "missing"), ErrUnknownNode)
	assert.Equal(t, ModeIdle, s.Mode())
}

func TestRenameNode(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.RenameNode("a", "  Pay invoice "))
	n, _ := s.Diagram().FindNode("a")
	assert.Equal(t, "Pay invoice", n.Name)

	require.NoError(t, s.RenameNode("a", "   "))
	require.NoError(t, s.RenameNode("a", "Pay invoice"))
	assert.Equal(t, 1, s.History().Len(), "blank and unchanged names are ignored")

	assert.ErrorIs(t, s.RenameNode("zz", "x"), ErrUnknownNode)
}

func TestSetConstraint(t *testing.T) {
	s := newTestSession(t)

	assert.ErrorIs(t, s.SetConstraint("a", diagram.ConstraintExactlyN, 0), ErrInvalidValue)
	assert.ErrorIs(t, s.SetConstraint("a", "sometimes", 1), ErrInvalidValue)

	require.NoError(t, s.SetConstraint("a", diagram.ConstraintExactlyN, 2))
	res, err := s.Validate("a")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Len(t, s.Violations(), 1)

	require.NoError(t, s.SetConstraint("a", diagram.ConstraintInit, 7))
	n, _ := s.Diagram().FindNode("a")
	assert.Equal(t, 0, n.ConstraintValue)

	require.True(t, s.Undo())
	n, _ = s.Diagram().FindNode("a")
	assert.Equal(t, diagram.ConstraintExactlyN, n.Constraint)
	assert.Equal(t, 2, n.ConstraintValue)
}

func TestExactlyNScenario(t *testing.T) {
	s := newTestSession(t)
	d := s.Diagram().Clone()
	d.Nodes = append(d.Nodes, diagram.Node{ID: "d", X: 700, Y: 300})
	require.NoError(t, s.Import(d))
	require.NoError(t, s.SetConstraint("c", diagram.ConstraintExactlyN, 2))

	_, err := s.CreateRelation("a", "c", diagram.Response)
	require.NoError(t, err)
	_, err = s.CreateRelation("b", "c", diagram.Precedence)
	require.NoError(t, err)

	res, _ := s.Validate("c")
	assert.True(t, res.Valid)
	assert.Equal(t, 2, res.IncomingCount)

	_, err = s.CreateRelation("d", "c", diagram.Response)
	assert.ErrorIs(t, err, validation.ErrRelationNotAllowed)
}

func TestSetRelationTypeGate(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetConstraint("c", diagram.ConstraintExactlyN, 1))
	pos, err := s.CreateRelation("a", "c", diagram.Response)
	require.NoError(t, err)
	neg, err := s.CreateRelation("b", "c", diagram.NegResponse)
	require.NoError(t, err)

	// Replacing the only positive relation with another positive kind fits.
	require.NoError(t, s.SetRelationType(pos, diagram.ChainResponse))
	// Turning the negative one positive would make two.
	assert.ErrorIs(t, s.SetRelationType(neg, diagram.Response), validation.ErrRelationNotAllowed)
	assert.ErrorIs(t, s.SetRelationType(neg, diagram.Choice), ErrInvalidValue)
	assert.ErrorIs(t, s.SetRelationType("zz", diagram.Response), ErrUnknownRelation)

	r, _ := s.Diagram().FindRelation(pos)
	assert.Equal(t, diagram.ChainResponse, r.Type)
}

func TestReverseAndReconnect(t *testing.T) {
	s := newTestSession(t)
	id, err := s.CreateRelation("a", "b", diagram.Response)
	require.NoError(t, err)

	require.NoError(t, s.ReverseRelation(id))
	r, _ := s.Diagram().FindRelation(id)
	assert.Equal(t, "b", r.SourceID)
	assert.Equal(t, "a", r.TargetID)

	require.NoError(t, s.ReconnectRelation(id, "", "c"))
	r, _ = s.Diagram().FindRelation(id)
	assert.Equal(t, "b", r.SourceID)
	assert.Equal(t, "c", r.TargetID)
	assert.Len(t, r.Waypoints, 2, "b and c are vertically aligned")

	assert.ErrorIs(t, s.ReconnectRelation(id, "c", ""), validation.ErrRelationNotAllowed)
	assert.ErrorIs(t, s.ReconnectRelation(id, "zz", ""), ErrUnknownNode)

	s.Undo()
	s.Undo()
	r, _ = s.Diagram().FindRelation(id)
	assert.Equal(t, "a", r.SourceID)
	assert.Equal(t, "b", r.TargetID)
}

func TestRelationEditing(t *testing.T) {
	s := newTestSession(t)
	id, err := s.CreateRelation("a", "c", diagram.Succession)
	require.NoError(t, err)
	r, _ := s.Diagram().FindRelation(id)
	require.Len(t, r.Waypoints, 4, "a and c are not aligned")

	require.NoError(t, s.ToggleLabel(id))
	r, _ = s.Diagram().FindRelation(id)
	assert.False(t, r.LabelVisible())

	require.NoError(t, s.MoveLabel(id, geometry.Point{X: 5, Y: 5}))
	r, _ = s.Diagram().FindRelation(id)
	assert.Equal(t, &geometry.Point{X: 5, Y: 5}, r.LabelOffset)

	require.NoError(t, s.MoveWaypoint(id, 1, geometry.Point{X: 260, Y: 90}))
	r, _ = s.Diagram().FindRelation(id)
	assert.Equal(t, geometry.Point{X: 260, Y: 90}, r.Waypoints[1])
	assert.ErrorIs(t, s.MoveWaypoint(id, 0, geometry.Point{}), ErrInvalidValue)

	mid := r.Waypoints[1].Add(r.Waypoints[2]).Scale(0.5)
	idx, err := s.InsertWaypoint(id, mid)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	r, _ = s.Diagram().FindRelation(id)
	assert.Len(t, r.Waypoints, 5)

	idx, err = s.InsertWaypoint(id, geometry.Point{X: 2000, Y: 2000})
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	require.NoError(t, s.RemoveWaypoint(id, 2))
	r, _ = s.Diagram().FindRelation(id)
	assert.Len(t, r.Waypoints, 4)
}

func TestChoiceEditing(t *testing.T) {
	s := newTestSession(t)
	bin, err := s.CreateRelation("a", "b", diagram.Response)
	require.NoError(t, err)

	id, err := s.ConvertToNary(bin, diagram.Choice)
	require.NoError(t, err)
	_, ok := s.Diagram().FindRelation(bin)
	assert.False(t, ok)
	r, _ := s.Diagram().FindRelation(id)
	require.NotNil(t, r.DiamondPos)
	assert.Equal(t, geometry.Point{X: 250, Y: 100}, *r.DiamondPos)

	require.NoError(t, s.SetNaryActivities(id, []string{"a", "b", "c"}))
	require.NoError(t, s.SetNaryN(id, 5))
	r, _ = s.Diagram().FindRelation(id)
	assert.Equal(t, 3, r.N)

	assert.ErrorIs(t, s.SetNaryActivities(id, []string{"a"}), validation.ErrRelationNotAllowed)
	assert.ErrorIs(t, s.SetNaryN(bin, 1), ErrUnknownRelation)

	require.NoError(t, s.MoveDiamond(id, geometry.Point{X: 300, Y: 250}))
	r, _ = s.Diagram().FindRelation(id)
	assert.Equal(t, geometry.Point{X: 300, Y: 250}, *r.DiamondPos)

	for s.History().CanUndo() {
		s.Undo()
	}
	assert.Empty(t, s.Diagram().Relations)
}

func TestDeleteSelection(t *testing.T) {
	s := newTestSession(t)
	_, err := s.CreateRelation("a", "b", diagram.Response)
	require.NoError(t, err)
	require.NoError(t, s.StartNary("b", "c"))
	nary, err := s.CompleteNary(diagram.Choice)
	require.NoError(t, err)
	before := s.Diagram().Clone()

	assert.False(t, NewSession(nil, DefaultOptions()).DeleteSelection())

	s.Select(selection.Selection{Nodes: []string{"a"}, NaryDiamonds: []string{nary}})
	require.True(t, s.DeleteSelection())
	assert.Len(t, s.Diagram().Nodes, 2)
	assert.Empty(t, s.Diagram().Relations)
	assert.True(t, s.Selection().IsEmpty())

	require.True(t, s.Undo())
	assert.Equal(t, before, s.Diagram())
}

func TestAppendActivity(t *testing.T) {
	s := newTestSession(t)
	id, err := s.AppendActivity("b")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, s.Selection().Nodes)

	n, _ := s.Diagram().FindNode(id)
	assert.Equal(t, 600.0, n.X)

	_, err = s.AppendActivity("zz")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestAddNodeAndDelete(t *testing.T) {
	s := newTestSession(t)
	id := s.AddNode(geometry.Point{X: 700, Y: 500}, " New ")
	n, ok := s.Diagram().FindNode(id)
	require.True(t, ok)
	assert.Equal(t, "New", n.Name)
	assert.True(t, s.Selection().HasNode(id))

	require.NoError(t, s.DeleteNode(id))
	assert.True(t, s.Selection().IsEmpty(), "deleted nodes leave the selection")
	assert.ErrorIs(t, s.DeleteNode(id), ErrUnknownNode)
}

func TestResizeNode(t *testing.T) {
	s := newTestSession(t)
	assert.ErrorIs(t, s.ResizeNode("a", geometry.Size{Width: 0, Height: 10}), ErrInvalidValue)
	require.NoError(t, s.ResizeNode("a", geometry.Size{Width: 160, Height: 80}))
	n, _ := s.Diagram().FindNode("a")
	assert.Equal(t, geometry.Size{Width: 160, Height: 80}, n.Size())
}

func TestImportAndNew(t *testing.T) {
	s := newTestSession(t)
	original := s.Diagram().Clone()

	bad := &diagram.Diagram{Nodes: []diagram.Node{{ID: "x"}, {ID: "x"}}, Relations: []diagram.Relation{}}
	assert.Error(t, s.Import(bad))
	assert.Equal(t, original, s.Diagram())

	require.NoError(t, s.Import(diagram.Default()))
	assert.Equal(t, diagram.Default(), s.Diagram())
	require.True(t, s.Undo())
	assert.Equal(t, original, s.Diagram())

	s.New()
	assert.Equal(t, diagram.Default(), s.Diagram())
	assert.False(t, s.History().CanUndo())
	assert.False(t, s.History().CanRedo())
}

func TestOnChangeSeesEveryReplacement(t *testing.T) {
	s := newTestSession(t)
	var seen int
	s.OnChange(func(d *diagram.Diagram) {
		seen++
		assert.Same(t, s.Diagram(), d)
	})

	s.AddNode(geometry.Point{}, "")
	s.Undo()
	s.Redo()
	assert.Equal(t, 3, seen)
}

func TestSelectPrunesUnknown(t *testing.T) {
	s := newTestSession(t)
	s.Select(selection.Selection{
		Nodes:          []string{"a", "ghost"},
		RelationPoints: []commands.WaypointRef{{RelationID: "ghost", Index: 1}},
	})
	assert.Equal(t, []string{"a"}, s.Selection().Nodes)
	assert.Empty(t, s.Selection().RelationPoints)
	assert.ErrorIs(t, s.SelectRelation("ghost"), ErrUnknownRelation)
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeIdle, "IDLE"},
		{ModeConnect, "CONNECT"},
		{ModeNary, "CHOICE"},
		{Mode(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}
