// Package terminal drives an editing session from a character terminal. The
// diagram is drawn on a cell grid and mouse and key events are mapped onto
// the session's pointer and mode operations.
package terminal

import (
	"condec/diagram"
	"condec/editor"
	"condec/export"
	"condec/geometry"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/gdamore/tcell/v2"
)

// Options configures the terminal view.
type Options struct {
	// CellWidth and CellHeight are the screen units covered by one cell.
	// Zero means 10 by 20.
	CellWidth, CellHeight float64

	// Save is called on Ctrl+S. Nil disables saving.
	Save func(*diagram.Diagram) error

	Logger *slog.Logger
}

var (
	styleDefault   = tcell.StyleDefault
	styleRelation  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleNegated   = tcell.StyleDefault.Foreground(tcell.ColorIndianRed)
	styleSelected  = tcell.StyleDefault.Reverse(true)
	styleViolation = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleCollected = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleSource    = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleDiamond   = tcell.StyleDefault.Foreground(tcell.ColorNavy)
	styleGuide     = tcell.StyleDefault.Foreground(tcell.ColorTeal).Dim(true)
	styleStatus    = tcell.StyleDefault.Reverse(true)
)

// View renders a session on a screen and feeds it events.
type View struct {
	screen  tcell.Screen
	session *editor.Session
	opts    Options
	logger  *slog.Logger

	down   bool
	status string
	help   bool

	// rename holds the edit buffer while an activity is being renamed.
	rename   *textInput
	renameID string
}

// NewView creates a view over an initialised screen.
func NewView(screen tcell.Screen, s *editor.Session, opts Options) *View {
	if opts.CellWidth <= 0 {
		opts.CellWidth = 10
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &View{screen: screen, session: s, opts: opts, logger: logger}
}

// Run draws the session and handles events until the user quits. The
// caller owns the screen: it must be initialised and is not finalised here.
func Run(screen tcell.Screen, s *editor.Session, opts Options) error {
	v := NewView(screen, s, opts)
	screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	screen.HideCursor()
	v.Draw()

	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		if v.Handle(ev) {
			return nil
		}
		v.Draw()
	}
}

// Status returns the last message shown in the status line.
func (v *View) Status() string {
	return v.status
}

// Handle applies one event and reports whether the user asked to quit.
func (v *View) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventMouse:
		v.handleMouse(ev)
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return false
}

func (v *View) report(err error) {
	if err != nil {
		v.status = err.Error()
		v.logger.Debug("terminal action failed", slog.String("error", err.Error()))
	}
}

func (v *View) handleKey(ev *tcell.EventKey) bool {
	s := v.session
	v.status = ""

	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	if v.help {
		v.help = false
		return false
	}
	if v.rename != nil {
		v.handleRename(ev)
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		s.Cancel()
		return false
	case tcell.KeyCtrlZ:
		if !s.Undo() {
			v.status = "nothing to undo"
		}
		return false
	case tcell.KeyCtrlY:
		if !s.Redo() {
			v.status = "nothing to redo"
		}
		return false
	case tcell.KeyCtrlS:
		if v.opts.Save == nil {
			v.status = "saving is not available"
			return false
		}
		if err := v.opts.Save(s.Diagram()); err != nil {
			v.report(err)
		} else {
			v.status = "saved"
		}
		return false
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		if !s.DeleteSelection() {
			v.status = "nothing selected"
		}
		return false
	case tcell.KeyEnter:
		if s.Mode() == editor.ModeNary {
			_, err := s.CompleteNary(diagram.Choice)
			v.report(err)
		}
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'a':
		s.AddNode(s.Pointer(), "")
	case 'e':
		sel := s.Selection()
		if len(sel.Nodes) != 1 {
			v.status = "select one activity to rename"
			return false
		}
		n, _ := s.Diagram().FindNode(sel.Nodes[0])
		v.rename, v.renameID = newTextInput(n.Name), n.ID
	case 'k':
		v.cycleConstraint()
	case '[':
		v.adjustConstraintValue(-1)
	case ']':
		v.adjustConstraintValue(1)
	case '?':
		v.help = true
	case 'c':
		sel := s.Selection()
		if len(sel.Nodes) != 1 {
			v.status = "select one activity to connect from"
			return false
		}
		v.report(s.StartConnect(sel.Nodes[0]))
	case 'n':
		v.report(s.StartNary(s.Selection().Nodes...))
	case 'x':
		if s.Mode() == editor.ModeNary {
			_, err := s.CompleteNary(diagram.ExChoice)
			v.report(err)
		}
	case 't':
		v.cycleRelationType()
	case 'r':
		if id := s.SelectedRelation(); id != "" {
			v.report(s.ReverseRelation(id))
		}
	case 'l':
		if id := s.SelectedRelation(); id != "" {
			v.report(s.ToggleLabel(id))
		}
	case 's':
		s.SetTool(editor.ToolSelect)
	case 'h':
		s.SetTool(editor.ToolHand)
	case '+':
		s.ZoomAt(v.centre(), 1.25)
	case '-':
		s.ZoomAt(v.centre(), 0.8)
	case '0':
		s.ResetView()
	}
	return false
}

func (v *View) handleRename(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		v.rename = nil
	case tcell.KeyEnter:
		v.report(v.session.RenameNode(v.renameID, v.rename.String()))
		v.rename = nil
	default:
		v.rename.handle(ev)
	}
}

// selectedNode returns the only selected activity.
func (v *View) selectedNode() (diagram.Node, bool) {
	sel := v.session.Selection()
	if len(sel.Nodes) != 1 {
		v.status = "select one activity"
		return diagram.Node{}, false
	}
	return v.session.Diagram().FindNode(sel.Nodes[0])
}

// cycleConstraint steps the selected activity through no constraint and
// each constraint kind in turn.
func (v *View) cycleConstraint() {
	n, ok := v.selectedNode()
	if !ok {
		return
	}
	kinds := append([]diagram.Constraint{diagram.ConstraintNone}, diagram.Constraints...)
	next := kinds[(slices.Index(kinds, n.Constraint)+1)%len(kinds)]
	v.report(v.session.SetConstraint(n.ID, next, max(n.ConstraintValue, 1)))
	if next == diagram.ConstraintNone {
		v.status = "no constraint"
	} else {
		v.status = string(next)
	}
}

func (v *View) adjustConstraintValue(delta int) {
	n, ok := v.selectedNode()
	if !ok {
		return
	}
	if !n.Constraint.IsCardinality() {
		v.status = "constraint takes no value"
		return
	}
	v.report(v.session.SetConstraint(n.ID, n.Constraint, n.ConstraintValue+delta))
}

// cycleRelationType steps the selected binary relation to the next kind
// the validator accepts.
func (v *View) cycleRelationType() {
	s := v.session
	r, ok := s.Diagram().FindRelation(s.SelectedRelation())
	if !ok || r.IsNary() {
		v.status = "select a relation to change its type"
		return
	}
	i := slices.Index(diagram.BinaryTypes, r.Type)
	for step := 1; step < len(diagram.BinaryTypes); step++ {
		next := diagram.BinaryTypes[(i+step)%len(diagram.BinaryTypes)]
		if err := s.SetRelationType(r.ID, next); err == nil {
			v.status = next.Label()
			return
		}
	}
	v.status = "no other relation type is allowed here"
}

func (v *View) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p := v.toScreen(x, y)
	s := v.session
	buttons := ev.Buttons()

	switch {
	case buttons&tcell.WheelUp != 0:
		s.ZoomAt(p, 1.1)
	case buttons&tcell.WheelDown != 0:
		s.ZoomAt(p, 1/1.1)
	case buttons&tcell.Button1 != 0 && !v.down:
		v.down = true
		v.status = ""
		s.PointerDown(p)
	case buttons&tcell.Button1 != 0:
		s.PointerMove(p)
		s.Flush()
	case v.down:
		v.down = false
		s.PointerUp(p)
	default:
		s.PointerMove(p)
	}
}

// toScreen returns the session screen point at the centre of a cell.
func (v *View) toScreen(x, y int) geometry.Point {
	return geometry.Point{
		X: (float64(x) + 0.5) * v.opts.CellWidth,
		Y: (float64(y) + 0.5) * v.opts.CellHeight,
	}
}

// toCell returns the cell holding a diagram point.
func (v *View) toCell(p geometry.Point) (int, int) {
	sp := v.session.ToScreen(p)
	return int(math.Floor(sp.X / v.opts.CellWidth)), int(math.Floor(sp.Y / v.opts.CellHeight))
}

func (v *View) centre() geometry.Point {
	w, h := v.screen.Size()
	return v.toScreen(w/2, h/2)
}

// Draw renders the session and shows the screen.
func (v *View) Draw() {
	s := v.session
	d := s.Diagram()
	v.screen.Clear()

	if gx, gy := s.Guides(); gx != nil || gy != nil {
		v.drawGuides(gx, gy)
	}

	for _, r := range d.Relations {
		if r.IsNary() {
			v.drawChoice(d, r)
		} else {
			v.drawRelation(r)
		}
	}

	violated := make(map[string]bool)
	for _, viol := range s.Violations() {
		violated[viol.NodeID] = true
	}
	for _, n := range d.Nodes {
		v.drawNode(n, v.nodeStyle(n.ID, violated[n.ID]))
	}

	if box, ok := s.Lasso(); ok {
		v.drawBox(box, styleSelected, '┄', '┆')
	}

	v.drawStatus(len(violated))
	if v.help {
		v.drawHelp()
	}
	v.screen.Show()
}

func (v *View) nodeStyle(id string, violated bool) tcell.Style {
	s := v.session
	switch {
	case s.Mode() == editor.ModeConnect && s.ConnectSource() == id:
		return styleSource
	case s.Mode() == editor.ModeNary && slices.Contains(s.NaryActivities(), id):
		return styleCollected
	case s.Selection().HasNode(id):
		return styleSelected
	case violated:
		return styleViolation
	}
	return styleDefault
}

func (v *View) put(x, y int, r rune, style tcell.Style) {
	v.screen.SetContent(x, y, r, nil, style)
}

func (v *View) puts(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		v.put(x, y, r, style)
		x++
	}
}

func (v *View) drawGuides(gx, gy *float64) {
	w, h := v.screen.Size()
	if gx != nil {
		x, _ := v.toCell(geometry.Point{X: *gx})
		for y := 0; y < h-1; y++ {
			v.put(x, y, '┊', styleGuide)
		}
	}
	if gy != nil {
		_, y := v.toCell(geometry.Point{Y: *gy})
		for x := 0; x < w; x++ {
			v.put(x, y, '┈', styleGuide)
		}
	}
}

// line draws a cell line between two cells.
func (v *View) line(x0, y0, x1, y1 int, style tcell.Style) {
	glyph := '·'
	switch {
	case y0 == y1:
		glyph = '─'
	case x0 == x1:
		glyph = '│'
	}

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		v.put(x0, y0, glyph, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (v *View) drawRelation(r diagram.Relation) {
	if len(r.Waypoints) < 2 {
		return
	}
	style := styleRelation
	st := export.StyleOf(r.Type)
	if st.Negated {
		style = styleNegated
	}
	if v.session.SelectedRelation() == r.ID {
		style = style.Reverse(true)
	}

	cells := make([][2]int, len(r.Waypoints))
	for i, p := range r.Waypoints {
		x, y := v.toCell(p)
		cells[i] = [2]int{x, y}
	}
	for i := 1; i < len(cells); i++ {
		v.line(cells[i-1][0], cells[i-1][1], cells[i][0], cells[i][1], style)
	}

	first, last := cells[0], cells[len(cells)-1]
	if st.Start != export.MarkerNone {
		v.put(first[0], first[1], '●', style)
	}
	if st.End != export.MarkerNone {
		v.put(last[0], last[1], endGlyph(st.End, cells[len(cells)-2], last), style)
	}

	if st.Negated {
		x, y := v.toCell(geometry.PolylineMidpoint(r.Waypoints))
		v.put(x, y, '╫', style)
	}
	if r.LabelVisible() {
		at := geometry.PolylineMidpoint(r.Waypoints)
		if r.LabelOffset != nil {
			at = at.Add(*r.LabelOffset)
		}
		x, y := v.toCell(at)
		label := r.Type.Label()
		v.puts(x-len(label)/2, y-1, label, style)
	}
}

// endGlyph returns the glyph for the end marker arriving from prev.
func endGlyph(m export.Marker, prev, end [2]int) rune {
	if m == export.MarkerBall {
		return '●'
	}
	dx, dy := end[0]-prev[0], end[1]-prev[1]
	switch {
	case abs(dx) >= abs(dy) && dx >= 0:
		return '▶'
	case abs(dx) >= abs(dy):
		return '◀'
	case dy > 0:
		return '▼'
	}
	return '▲'
}

func (v *View) drawChoice(d *diagram.Diagram, r diagram.Relation) {
	style := styleDiamond
	if v.session.Selection().HasDiamond(r.ID) || v.session.SelectedRelation() == r.ID {
		style = style.Reverse(true)
	}
	cx, cy := v.toCell(d.DiamondPosition(r))
	for _, id := range r.Activities {
		if n, ok := d.FindNode(id); ok {
			x, y := v.toCell(n.Center())
			v.line(x, y, cx, cy, styleRelation)
		}
	}
	v.put(cx, cy, '◆', style)
	v.puts(cx+1, cy, fmt.Sprintf("%d/%d", r.N, len(r.Activities)), style)
}

func (v *View) drawBox(r geometry.Rect, style tcell.Style, horizontal, vertical rune) (int, int, int, int) {
	x0, y0 := v.toCell(geometry.Point{X: r.X, Y: r.Y})
	x1, y1 := v.toCell(geometry.Point{X: r.Right(), Y: r.Bottom()})
	for x := x0; x <= x1; x++ {
		v.put(x, y0, horizontal, style)
		v.put(x, y1, horizontal, style)
	}
	for y := y0; y <= y1; y++ {
		v.put(x0, y, vertical, style)
		v.put(x1, y, vertical, style)
	}
	return x0, y0, x1, y1
}

func (v *View) drawNode(n diagram.Node, style tcell.Style) {
	x0, y0, x1, y1 := v.drawBox(n.Bounds(), style, '─', '│')
	for y := y0 + 1; y < y1; y++ {
		for x := x0 + 1; x < x1; x++ {
			v.put(x, y, ' ', style)
		}
	}
	v.put(x0, y0, '┌', style)
	v.put(x1, y0, '┐', style)
	v.put(x0, y1, '└', style)
	v.put(x1, y1, '┘', style)

	if note := n.Notation(); note != "" {
		v.puts((x0+x1)/2-len(note)/2, y0-1, note, style)
	}

	name := []rune(n.Name)
	room := x1 - x0 - 1
	if room <= 0 {
		return
	}
	if len(name) > room {
		name = append(name[:max(room-1, 0)], '…')
	}
	v.puts(x0+1+(room-len(name))/2, (y0+y1)/2, string(name), style)
}

func (v *View) drawStatus(violations int) {
	w, h := v.screen.Size()
	tool := "hand"
	if v.session.Tool() == editor.ToolSelect {
		tool = "select"
	}
	line := fmt.Sprintf(" %s | %s | %d selected | %d violations", v.session.Mode(), tool, v.session.Selection().Len(), violations)
	switch {
	case v.rename != nil:
		line = " rename: "
		v.screen.ShowCursor(len([]rune(line))+v.rename.cursor, h-1)
		line += v.rename.String()
	case v.status != "":
		line += " | " + v.status
	case len([]rune(line))+len(compactHelp)+3 <= w:
		line += " | " + compactHelp
	}
	if v.rename == nil {
		v.screen.HideCursor()
	}
	for x := 0; x < w; x++ {
		v.put(x, h-1, ' ', styleStatus)
	}
	v.puts(0, h-1, line, styleStatus)
}

func (v *View) drawHelp() {
	w, h := v.screen.Size()
	lines := helpLines()
	width := len([]rune(lines[0]))
	x0 := max((w-width)/2, 0)
	y0 := max((h-1-len(lines))/2, 0)
	for i, line := range lines {
		v.puts(x0, y0+i, line, styleDefault)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
