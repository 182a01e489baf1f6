// Package editor holds an editing session over one ConDec diagram: the
// document, its undo history, the selection, the viewport and the interaction
// mode. Every undoable change goes through the session's command stack.
package editor

import (
	"condec/alignment"
	"condec/commands"
	"condec/diagram"
	"condec/geometry"
	"condec/history"
	"condec/selection"
	"condec/validation"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrUnknownNode is returned for operations on a node id not in the document.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownRelation is returned for operations on a missing relation.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrInvalidMode is returned when an operation does not apply to the
	// current interaction mode.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidValue is returned for out-of-range arguments.
	ErrInvalidValue = errors.New("invalid value")
)

// Options configures a session.
type Options struct {
	Logger         *slog.Logger
	HistoryLimit   int
	AlignThreshold float64
	GridSize       float64
	MinZoom        float64
	MaxZoom        float64
}

// DefaultOptions returns the options used by the CLI when no config is given.
func DefaultOptions() Options {
	return Options{
		AlignThreshold: alignment.DefaultThreshold,
		GridSize:       alignment.DefaultGridSize,
		MinZoom:        0.2,
		MaxZoom:        3,
	}
}

// Session is one open document.
type Session struct {
	doc   *diagram.Diagram
	stack *history.Stack
	align *alignment.Engine
	opts  Options

	sel      selection.Selection
	relation string // selected relation, if any

	mode     Mode
	source   string   // connect source
	activity []string // n-ary activities being collected

	tool    Tool
	zoom    float64
	offset  geometry.Point
	drag    *selection.DragTransaction
	lasso   selection.Lasso
	pan     *panGesture
	frames  *selection.FrameBuffer
	pointer geometry.Point

	observers []func(*diagram.Diagram)
	logger    *slog.Logger
}

// NewSession opens d, or the default document when d is nil.
func NewSession(d *diagram.Diagram, opts Options) *Session {
	if d == nil {
		d = diagram.Default()
	}
	def := DefaultOptions()
	if opts.MinZoom <= 0 {
		opts.MinZoom = def.MinZoom
	}
	if opts.MaxZoom <= opts.MinZoom {
		opts.MaxZoom = max(def.MaxZoom, opts.MinZoom)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	align := alignment.NewEngine(opts.AlignThreshold)
	align.GridSize = opts.GridSize

	s := &Session{
		doc:    d.Clone(),
		align:  align,
		opts:   opts,
		zoom:   1,
		logger: logger,
	}
	s.stack = history.NewStack(history.WithLimit(opts.HistoryLimit), history.WithLogger(logger))
	s.frames = selection.NewFrameBuffer(s.set)
	return s
}

// Diagram returns the current document. Callers must not modify it.
func (s *Session) Diagram() *diagram.Diagram {
	return s.doc
}

// Accessor returns the document reader handed to commands.
func (s *Session) Accessor() commands.Accessor {
	return s.Diagram
}

// Setter returns the document writer handed to commands.
func (s *Session) Setter() commands.Setter {
	return s.set
}

func (s *Session) set(d *diagram.Diagram) {
	s.doc = d
	for _, fn := range s.observers {
		fn(d)
	}
}

// OnChange registers fn to run after every document replacement, including
// intermediate drag frames.
func (s *Session) OnChange(fn func(*diagram.Diagram)) {
	s.observers = append(s.observers, fn)
}

// History returns the session's command stack.
func (s *Session) History() *history.Stack {
	return s.stack
}

// execute runs cmd through the stack and drops selection entries the command
// removed.
func (s *Session) execute(cmd history.Command) {
	s.stack.Execute(cmd)
	s.afterChange()
}

func (s *Session) afterChange() {
	s.sel = s.sel.Prune(s.doc)
	if s.relation != "" && s.doc.RelationIndex(s.relation) < 0 {
		s.relation = ""
	}
	if s.mode == ModeConnect && s.doc.NodeIndex(s.source) < 0 {
		s.resetMode()
	}
}

// Undo reverts the last command.
func (s *Session) Undo() bool {
	if s.busy() {
		return false
	}
	ok := s.stack.Undo()
	s.afterChange()
	return ok
}

// Redo re-applies the last undone command.
func (s *Session) Redo() bool {
	if s.busy() {
		return false
	}
	ok := s.stack.Redo()
	s.afterChange()
	return ok
}

// busy reports whether a pointer gesture is holding an uncommitted document.
func (s *Session) busy() bool {
	return s.drag != nil
}

// Selection returns the current selection.
func (s *Session) Selection() selection.Selection {
	return s.sel.Clone()
}

// Select replaces the selection. Unknown elements are dropped.
func (s *Session) Select(sel selection.Selection) {
	s.sel = sel.Prune(s.doc)
	s.relation = ""
}

// SelectedRelation returns the selected relation id, empty when none.
func (s *Session) SelectedRelation() string {
	return s.relation
}

// SelectRelation selects a single relation.
func (s *Session) SelectRelation(id string) error {
	if s.doc.RelationIndex(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRelation, id)
	}
	s.sel = selection.Selection{}
	s.relation = id
	return nil
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.sel = selection.Selection{}
	s.relation = ""
}

// Validate evaluates one node's constraint.
func (s *Session) Validate(nodeID string) (validation.Result, error) {
	n, ok := s.doc.FindNode(nodeID)
	if !ok {
		return validation.Result{}, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	return validation.ValidateNode(n, s.doc), nil
}

// Violations lists every node whose constraint is currently violated.
func (s *Session) Violations() []validation.Violation {
	return validation.Violations(s.doc)
}

// Import replaces the document with d as one undoable step.
func (s *Session) Import(d *diagram.Diagram) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	s.Cancel()
	s.ClearSelection()
	s.execute(commands.NewImportDiagram(d, s.Diagram, s.set))
	s.logger.Info("diagram imported",
		slog.Int("nodes", len(d.Nodes)),
		slog.Int("relations", len(d.Relations)))
	return nil
}

// New discards the document and its history and starts over from the
// default document.
func (s *Session) New() {
	s.Cancel()
	s.ClearSelection()
	s.stack.Clear()
	s.set(diagram.Default())
}
