package terminal

import (
	"condec/diagram"
	"condec/editor"
	"errors"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func twoNodes() *diagram.Diagram {
	return &diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "a", Name: "Alpha", X: 150, Y: 150},
			{ID: "b", Name: "Beta", X: 350, Y: 150},
		},
		Relations: []diagram.Relation{},
	}
}

func row(screen tcell.SimulationScreen, y int) string {
	cells, w, _ := screen.GetContents()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		runes := cells[y*w+x].Runes
		if len(runes) == 0 {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(runes[0])
	}
	return sb.String()
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func click(v *View, x, y int) {
	v.Handle(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
	v.Handle(tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone))
}

func TestDrawNodes(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})
	v.Draw()

	assert.Equal(t, "┌─────────┐", string([]rune(row(screen, 6))[10:21]))
	assert.Contains(t, row(screen, 7), "│  Alpha  │")
	assert.Contains(t, row(screen, 7), "Beta")
	assert.Contains(t, row(screen, 23), "IDLE | hand | 0 selected | 0 violations")
}

func TestConnectWithMouse(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	click(v, 15, 7)
	require.Equal(t, []string{"a"}, s.Selection().Nodes)

	assert.False(t, v.Handle(key('c')))
	require.Equal(t, editor.ModeConnect, s.Mode())
	click(v, 35, 7)

	require.Len(t, s.Diagram().Relations, 1)
	r := s.Diagram().Relations[0]
	assert.Equal(t, diagram.RespExistence, r.Type)
	assert.Equal(t, "a", r.SourceID)
	assert.Equal(t, "b", r.TargetID)
	assert.Equal(t, editor.ModeIdle, s.Mode())

	v.Draw()
	assert.Equal(t, '─', []rune(row(screen, 7))[25])

	v.Handle(key('t'))
	assert.Equal(t, diagram.Coexistence, s.Diagram().Relations[0].Type)
	assert.Equal(t, "Coexistence", v.Status())

	v.Handle(tcell.NewEventKey(tcell.KeyCtrlZ, 0, tcell.ModCtrl))
	assert.Equal(t, diagram.RespExistence, s.Diagram().Relations[0].Type)
	v.Handle(tcell.NewEventKey(tcell.KeyCtrlY, 0, tcell.ModCtrl))
	assert.Equal(t, diagram.Coexistence, s.Diagram().Relations[0].Type)
}

func TestConnectRequiresSingleSelection(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	v.Handle(key('c'))
	assert.Equal(t, editor.ModeIdle, s.Mode())
	assert.Equal(t, "select one activity to connect from", v.Status())
}

func TestEscapeCancelsConnect(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	click(v, 15, 7)
	v.Handle(key('c'))
	v.Handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.Equal(t, editor.ModeIdle, s.Mode())

	click(v, 35, 7)
	assert.Empty(t, s.Diagram().Relations)
}

func TestDragMovesNode(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	v.Handle(tcell.NewEventMouse(15, 7, tcell.Button1, tcell.ModNone))
	v.Handle(tcell.NewEventMouse(18, 7, tcell.Button1, tcell.ModNone))
	assert.True(t, s.Dragging())
	assert.InDelta(t, 180, s.Diagram().Nodes[0].X, 1e-9)

	v.Handle(tcell.NewEventMouse(20, 7, tcell.ButtonNone, tcell.ModNone))
	assert.False(t, s.Dragging())
	assert.InDelta(t, 200, s.Diagram().Nodes[0].X, 1e-9)
	assert.Equal(t, 1, s.History().Len())

	v.Handle(tcell.NewEventKey(tcell.KeyCtrlZ, 0, tcell.ModCtrl))
	assert.InDelta(t, 150, s.Diagram().Nodes[0].X, 1e-9)
}

func TestNaryAndDelete(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	v.Handle(key('n'))
	require.Equal(t, editor.ModeNary, s.Mode())
	click(v, 15, 7)
	click(v, 35, 7)
	assert.Equal(t, []string{"a", "b"}, s.NaryActivities())

	v.Handle(key('x'))
	require.Len(t, s.Diagram().Relations, 1)
	assert.Equal(t, diagram.ExChoice, s.Diagram().Relations[0].Type)

	v.Draw()
	assert.Contains(t, row(screen, 7), "◆1/2")

	v.Handle(tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModNone))
	assert.Empty(t, s.Diagram().Relations)

	v.Handle(tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModNone))
	assert.Equal(t, "nothing selected", v.Status())
}

func TestToolsAndAdd(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	v.Handle(key('s'))
	assert.Equal(t, editor.ToolSelect, s.Tool())

	// Box-select both nodes from empty canvas.
	v.Handle(tcell.NewEventMouse(5, 3, tcell.Button1, tcell.ModNone))
	v.Handle(tcell.NewEventMouse(45, 10, tcell.Button1, tcell.ModNone))
	v.Handle(tcell.NewEventMouse(45, 10, tcell.ButtonNone, tcell.ModNone))
	assert.ElementsMatch(t, []string{"a", "b"}, s.Selection().Nodes)

	v.Handle(key('h'))
	assert.Equal(t, editor.ToolHand, s.Tool())

	v.Handle(tcell.NewEventMouse(60, 15, tcell.Button1, tcell.ModNone))
	v.Handle(tcell.NewEventMouse(60, 15, tcell.ButtonNone, tcell.ModNone))
	v.Handle(key('a'))
	require.Len(t, s.Diagram().Nodes, 3)
	assert.InDelta(t, 605, s.Diagram().Nodes[2].X, 1e-9)
	assert.InDelta(t, 310, s.Diagram().Nodes[2].Y, 1e-9)
}

func TestSave(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())

	v := NewView(screen, s, Options{})
	v.Handle(tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl))
	assert.Equal(t, "saving is not available", v.Status())

	var saved *diagram.Diagram
	v = NewView(screen, s, Options{Save: func(d *diagram.Diagram) error {
		saved = d
		return nil
	}})
	v.Handle(tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl))
	assert.Equal(t, "saved", v.Status())
	assert.Len(t, saved.Nodes, 2)

	v = NewView(screen, s, Options{Save: func(*diagram.Diagram) error { return errors.New("disk full") }})
	v.Handle(tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl))
	assert.Equal(t, "disk full", v.Status())
}

func TestRunQuits(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())

	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	require.NoError(t, Run(screen, s, Options{}))
	assert.Len(t, s.Diagram().Nodes, 3)

	assert.True(t, NewView(screen, s, Options{}).Handle(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))
}

func TestRenameNode(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	v.Handle(key('e'))
	assert.Equal(t, "select one activity to rename", v.Status())

	click(v, 15, 7)
	v.Handle(key('e'))
	v.Handle(tcell.NewEventKey(tcell.KeyCtrlW, 0, tcell.ModCtrl))
	for _, r := range "Receive" {
		v.Handle(key(r))
	}
	// Keys are typed into the name, not run as commands.
	assert.Len(t, s.Diagram().Nodes, 2)

	v.Draw()
	assert.Contains(t, row(screen, 23), "rename: Receive")

	v.Handle(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	assert.Equal(t, "Receive", s.Diagram().Nodes[0].Name)

	v.Handle(key('e'))
	v.Handle(key('x'))
	v.Handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.Equal(t, "Receive", s.Diagram().Nodes[0].Name)
}

func TestConstraintKeys(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	v.Handle(key('k'))
	assert.Equal(t, "select one activity", v.Status())

	click(v, 15, 7)
	v.Handle(key('k'))
	assert.Equal(t, diagram.ConstraintAbsence, s.Diagram().Nodes[0].Constraint)
	v.Handle(key(']'))
	assert.Equal(t, "constraint takes no value", v.Status())

	v.Handle(key('k'))
	n := s.Diagram().Nodes[0]
	assert.Equal(t, diagram.ConstraintAbsenceN, n.Constraint)
	assert.Equal(t, 1, n.ConstraintValue)

	v.Handle(key(']'))
	assert.Equal(t, 2, s.Diagram().Nodes[0].ConstraintValue)
	v.Handle(key('['))
	v.Handle(key('['))
	assert.Equal(t, 1, s.Diagram().Nodes[0].ConstraintValue)
	assert.NotEmpty(t, v.Status())

	v.Draw()
	assert.Contains(t, row(screen, 5), "0..1")

	for i := 0; i < 4; i++ {
		v.Handle(key('k'))
	}
	assert.Equal(t, diagram.ConstraintNone, s.Diagram().Nodes[0].Constraint)
	assert.Equal(t, "no constraint", v.Status())
}

func TestHelpOverlay(t *testing.T) {
	screen := newScreen(t)
	s := editor.NewSession(twoNodes(), editor.DefaultOptions())
	v := NewView(screen, s, Options{})

	v.Handle(key('?'))
	v.Draw()
	var found bool
	for y := 0; y < 23; y++ {
		if strings.Contains(row(screen, y), "CONDEC HELP") {
			found = true
		}
	}
	assert.True(t, found)

	// The next key only closes the panel.
	v.Handle(key('a'))
	assert.Len(t, s.Diagram().Nodes, 2)
	v.Draw()
	for y := 0; y < 23; y++ {
		assert.NotContains(t, row(screen, y), "CONDEC HELP")
	}
}

func TestHelpLinesAligned(t *testing.T) {
	lines := helpLines()
	width := len([]rune(lines[0]))
	for _, line := range lines {
		assert.Equal(t, width, len([]rune(line)), line)
	}
}

func TestTextInput(t *testing.T) {
	in := newTextInput("send the invoice")
	in.deleteWordBackward()
	assert.Equal(t, "send the ", in.String())
	in.deleteWordBackward()
	assert.Equal(t, "send ", in.String())

	in.move(-10)
	assert.Equal(t, 0, in.cursor)
	in.insert('>')
	assert.Equal(t, ">send ", in.String())
	in.deleteToEnd()
	assert.Equal(t, ">", in.String())

	in = newTextInput("abc")
	in.move(-1)
	in.backspace()
	assert.Equal(t, "ac", in.String())
	in.deleteForward()
	assert.Equal(t, "a", in.String())
	in.insert('z')
	in.deleteToStart()
	assert.Equal(t, "", in.String())
	assert.Equal(t, 0, in.cursor)

	assert.True(t, in.handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, in.handle(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
	assert.Equal(t, "q", in.String())
}
