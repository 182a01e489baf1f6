// Package history provides the undo/redo command log.
package history

import (
	"fmt"
	"log/slog"
)

// Command is an undoable document change. Execute and Undo must be exact
// inverses; a command may be executed again after being undone.
type Command interface {
	Execute()
	Undo()
	Description() string
}

// Event identifies a stack transition reported to listeners.
type Event string

const (
	EventExecuted Event = "executed"
	EventUndone   Event = "undone"
	EventRedone   Event = "redone"
	EventCleared  Event = "cleared"
)

// Listener is notified after every stack transition. cmd is nil for
// EventCleared.
type Listener func(event Event, cmd Command)

// Stack is a linear command history with a cursor. The cursor is -1 before the
// first command; executing a command discards any redo tail.
type Stack struct {
	commands  []Command
	index     int
	limit     int
	listeners map[int]Listener
	order     []int
	nextID    int
	logger    *slog.Logger
}

// Option configures a Stack.
type Option func(*Stack)

// WithLimit bounds the history to n commands, dropping the oldest first.
// A limit of zero or less keeps every command.
func WithLimit(n int) Option {
	return func(s *Stack) { s.limit = n }
}

// WithLogger sets the logger used for debug output and listener failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stack) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStack creates an empty command stack.
func NewStack(opts ...Option) *Stack {
	s := &Stack{
		index:     -1,
		listeners: make(map[int]Listener),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the command and records it at the cursor.
func (s *Stack) Execute(cmd Command) {
	if cmd == nil {
		return
	}
	cmd.Execute()

	s.commands = append(s.commands[:s.index+1], cmd)
	s.index++
	if s.limit > 0 && len(s.commands) > s.limit {
		drop := len(s.commands) - s.limit
		s.commands = append([]Command(nil), s.commands[drop:]...)
		s.index -= drop
	}

	s.logger.Debug("command executed",
		slog.String("command", cmd.Description()),
		slog.Int("index", s.index))
	s.notify(EventExecuted, cmd)
}

// Undo reverts the command at the cursor. It returns false when there is
// nothing to undo.
func (s *Stack) Undo() bool {
	if !s.CanUndo() {
		return false
	}
	cmd := s.commands[s.index]
	cmd.Undo()
	s.index--

	s.logger.Debug("command undone",
		slog.String("command", cmd.Description()),
		slog.Int("index", s.index))
	s.notify(EventUndone, cmd)
	return true
}

// Redo re-applies the command after the cursor. It returns false when there
// is nothing to redo.
func (s *Stack) Redo() bool {
	if !s.CanRedo() {
		return false
	}
	s.index++
	cmd := s.commands[s.index]
	cmd.Execute()

	s.logger.Debug("command redone",
		slog.String("command", cmd.Description()),
		slog.Int("index", s.index))
	s.notify(EventRedone, cmd)
	return true
}

// CanUndo returns true if we can undo
func (s *Stack) CanUndo() bool {
	return s.index >= 0
}

// CanRedo returns true if we can redo
func (s *Stack) CanRedo() bool {
	return s.index < len(s.commands)-1
}

// Clear drops the whole history.
func (s *Stack) Clear() {
	s.commands = nil
	s.index = -1
	s.notify(EventCleared, nil)
}

// Len returns the number of recorded commands.
func (s *Stack) Len() int {
	return len(s.commands)
}

// Index returns the cursor position, -1 when nothing can be undone.
func (s *Stack) Index() int {
	return s.index
}

// Peek returns the command that Undo would revert, or nil.
func (s *Stack) Peek() Command {
	if !s.CanUndo() {
		return nil
	}
	return s.commands[s.index]
}

// Subscribe registers a listener and returns a function that removes it.
// Listeners are called in subscription order.
func (s *Stack) Subscribe(l Listener) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)
	return func() {
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Stack) notify(event Event, cmd Command) {
	for _, id := range append([]int(nil), s.order...) {
		l, ok := s.listeners[id]
		if !ok {
			continue
		}
		s.call(l, event, cmd)
	}
}

// call invokes one listener; a panicking listener is logged and skipped.
func (s *Stack) call(l Listener, event Event, cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("command stack listener failed",
				slog.String("event", string(event)),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	l(event, cmd)
}
