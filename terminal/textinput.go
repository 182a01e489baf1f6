package terminal

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// textInput is a single-line edit buffer with a cursor, used to rename
// activities in place.
type textInput struct {
	buf    []rune
	cursor int
}

func newTextInput(text string) *textInput {
	buf := []rune(text)
	return &textInput{buf: buf, cursor: len(buf)}
}

func (t *textInput) String() string {
	return string(t.buf)
}

func (t *textInput) insert(r rune) {
	t.buf = append(t.buf[:t.cursor], append([]rune{r}, t.buf[t.cursor:]...)...)
	t.cursor++
}

func (t *textInput) backspace() {
	if t.cursor == 0 {
		return
	}
	t.buf = append(t.buf[:t.cursor-1], t.buf[t.cursor:]...)
	t.cursor--
}

func (t *textInput) deleteForward() {
	if t.cursor >= len(t.buf) {
		return
	}
	t.buf = append(t.buf[:t.cursor], t.buf[t.cursor+1:]...)
}

// deleteWordBackward removes the word before the cursor along with any
// spaces between it and the cursor (Ctrl+W).
func (t *textInput) deleteWordBackward() {
	start := t.cursor
	for start > 0 && unicode.IsSpace(t.buf[start-1]) {
		start--
	}
	for start > 0 && !isWordBoundary(t.buf[start-1]) {
		start--
	}
	t.buf = append(t.buf[:start], t.buf[t.cursor:]...)
	t.cursor = start
}

// deleteToStart removes everything before the cursor (Ctrl+U).
func (t *textInput) deleteToStart() {
	t.buf = t.buf[t.cursor:]
	t.cursor = 0
}

// deleteToEnd removes everything after the cursor (Ctrl+K).
func (t *textInput) deleteToEnd() {
	t.buf = t.buf[:t.cursor]
}

func (t *textInput) move(delta int) {
	t.cursor = min(max(t.cursor+delta, 0), len(t.buf))
}

// handle applies an editing key. It returns false for keys it does not
// consume, such as Enter and Escape.
func (t *textInput) handle(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		t.insert(ev.Rune())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		t.backspace()
	case tcell.KeyDelete:
		t.deleteForward()
	case tcell.KeyCtrlW:
		t.deleteWordBackward()
	case tcell.KeyCtrlU:
		t.deleteToStart()
	case tcell.KeyCtrlK:
		t.deleteToEnd()
	case tcell.KeyLeft:
		t.move(-1)
	case tcell.KeyRight:
		t.move(1)
	case tcell.KeyHome, tcell.KeyCtrlA:
		t.cursor = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		t.cursor = len(t.buf)
	default:
		return false
	}
	return true
}

func isWordBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}
