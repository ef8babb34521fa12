package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/plume-lang/plume/logging"
	"golang.org/x/term"
)

// errInterrupted reports a Ctrl-C while editing; the REPL drops the
// pending input and shows a fresh prompt.
var errInterrupted = errors.New("interrupted")

// completion is a single suggestion in the popup.
type completion struct {
	Text string // the replacement text
	Type string // "command", "proc" or "repl"
	Help string // usage line, when one is known
}

// keyResult is one key press delivered by the reader goroutine.
type keyResult struct {
	key string
	err error
}

// LineEditor reads lines from a raw-mode terminal with cursor movement
// and tab completion over the interpreter's registered commands.
type LineEditor struct {
	shell    *Shell
	oldState *term.State
	fd       int

	line   []rune
	cursor int

	completions    []completion
	selected       int
	showPopup      bool
	popupLineCount int // popup lines currently on screen

	// accumulated multi-line input, for completion context
	inputBuffer string

	// bytes read ahead of the current key
	pendingInput []byte

	keyChan       chan keyResult
	readerRunning bool
}

// NewLineEditor creates a line editor bound to the shell's interpreter.
func NewLineEditor(s *Shell) *LineEditor {
	return &LineEditor{
		shell: s,
		fd:    int(os.Stdin.Fd()),
	}
}

func (e *LineEditor) enterRawMode() error {
	oldState, err := term.MakeRaw(e.fd)
	if err != nil {
		return err
	}
	e.oldState = oldState
	return nil
}

func (e *LineEditor) exitRawMode() {
	if e.oldState != nil {
		term.Restore(e.fd, e.oldState)
		e.oldState = nil
	}
}

// getTerminalWidth returns the terminal width or a default.
func (e *LineEditor) getTerminalWidth() int {
	width, _, err := term.GetSize(e.fd)
	if err != nil || width <= 0 {
		return 80
	}
	// some terminals report width including the scrollbar column
	if width > 80 {
		return width - 1
	}
	return width
}

// readByte reads a single byte, draining the read-ahead buffer first.
func (e *LineEditor) readByte() (byte, error) {
	if len(e.pendingInput) > 0 {
		b := e.pendingInput[0]
		e.pendingInput = e.pendingInput[1:]
		return b, nil
	}

	buf := make([]byte, 32)
	n, err := os.Stdin.Read(buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	logging.Trace("editor read", "bytes", n)

	if n > 1 {
		e.pendingInput = append(e.pendingInput, buf[1:n]...)
	}
	return buf[0], nil
}

// skipToTerminator discards bytes until a CSI terminator (0x40-0x7E).
func (e *LineEditor) skipToTerminator() {
	for {
		b, err := e.readByte()
		if err != nil {
			return
		}
		if b >= 0x40 && b <= 0x7E {
			return
		}
	}
}

// readKey reads one key press, folding escape sequences into key names.
func (e *LineEditor) readKey() (string, error) {
	ch, err := e.readByte()
	if err != nil {
		return "", err
	}

	if ch == 0x1b {
		ch2, err := e.readByte()
		if err != nil {
			return "escape", nil
		}
		if ch2 == '[' {
			ch3, err := e.readByte()
			if err != nil {
				return "escape", nil
			}
			switch ch3 {
			case 'A':
				return "up", nil
			case 'B':
				return "down", nil
			case 'C':
				return "right", nil
			case 'D':
				return "left", nil
			case 'H':
				return "home", nil
			case 'F':
				return "end", nil
			case 'Z':
				return "shift-tab", nil
			case '3':
				e.readByte() // trailing ~
				return "delete", nil
			case 'I', 'O':
				// focus events
				return e.readKey()
			}
			// numeric CSI sequences like ESC[200~ (bracketed paste)
			if ch3 >= '0' && ch3 <= '9' {
				e.skipToTerminator()
				return e.readKey()
			}
			if ch3 < 0x40 || ch3 > 0x7E {
				e.skipToTerminator()
			}
			return e.readKey()
		}
		logging.Trace("editor unknown escape", "byte", ch2)
		return "escape", nil
	}

	switch ch {
	case 0x01: // Ctrl-A
		return "home", nil
	case 0x03: // Ctrl-C
		return "ctrl-c", nil
	case 0x04: // Ctrl-D
		return "ctrl-d", nil
	case 0x05: // Ctrl-E
		return "end", nil
	case 0x09: // Tab
		return "tab", nil
	case 0x0d, 0x0a: // Enter
		return "enter", nil
	case 0x7f, 0x08: // Backspace
		return "backspace", nil
	case 0x15: // Ctrl-U
		return "ctrl-u", nil
	case 0x17: // Ctrl-W
		return "ctrl-w", nil
	}
	return string(rune(ch)), nil
}

// render redraws the prompt, the line, and the popup when active.
func (e *LineEditor) render(prompt string) {
	// clear any popup lines left from the previous render
	if e.popupLineCount > 0 {
		for i := 0; i < e.popupLineCount; i++ {
			fmt.Print("\n\033[2K")
		}
		fmt.Printf("\033[%dA\r", e.popupLineCount)
		e.popupLineCount = 0
	}

	fmt.Print("\r\033[K")
	fmt.Print(prompt)
	fmt.Print(string(e.line))

	if e.showPopup && len(e.completions) > 0 {
		e.renderPopup()
	}

	fmt.Printf("\r\033[%dC", len(prompt)+e.cursor)
}

// typeIndicator returns the single-letter tag shown in the popup.
func typeIndicator(t string) string {
	switch t {
	case "command":
		return "C"
	case "proc":
		return "P"
	case "repl":
		return "R"
	}
	if t != "" {
		return strings.ToUpper(t[:1])
	}
	return "?"
}

// renderPopup draws the completion list below the input line.
func (e *LineEditor) renderPopup() {
	maxDisplay := min(len(e.completions), 10)
	termWidth := e.getTerminalWidth()

	maxLen := termWidth - 2
	if maxLen < 40 {
		maxLen = 40
	}
	e.popupLineCount = maxDisplay

	nameWidth := 0
	for i := 0; i < maxDisplay; i++ {
		if n := len(e.completions[i].Text); n > nameWidth {
			nameWidth = n
		}
	}
	nameWidth += 2
	if nameWidth > 30 {
		nameWidth = 30
	}
	if nameWidth < 8 {
		nameWidth = 8
	}

	for i := 0; i < maxDisplay; i++ {
		c := e.completions[i]
		fmt.Print("\n\r\033[K")

		prefix := "  "
		if i == e.selected {
			prefix = "> "
		}
		text := c.Text
		if len(text) > nameWidth-2 {
			text = text[:nameWidth-5] + "..."
		}
		formatStr := fmt.Sprintf("%%s%%-%ds [%%s]", nameWidth)
		line := fmt.Sprintf(formatStr, prefix, text, typeIndicator(c.Type))

		if c.Help != "" {
			remaining := maxLen - len(line) - 1
			if remaining > 10 {
				help := c.Help
				if len(help) > remaining {
					help = help[:remaining-3] + "..."
				}
				line += " " + help
			}
		}
		if len(line) > maxLen {
			line = line[:maxLen]
		}

		if i == e.selected {
			fmt.Printf("\033[7m%s\033[0m", line)
		} else {
			fmt.Printf("\033[2m%s\033[0m", line)
		}
	}

	if maxDisplay > 0 {
		fmt.Printf("\033[%dA\r", maxDisplay)
	}
}

// clearPopup removes the popup from the screen.
func (e *LineEditor) clearPopup() {
	if e.popupLineCount == 0 {
		return
	}
	for i := 0; i < e.popupLineCount; i++ {
		fmt.Print("\n\033[2K")
	}
	fmt.Printf("\033[%dA", e.popupLineCount)
	fmt.Print("\r")
	e.popupLineCount = 0
}

// getCompletions fills the candidate list from the registered command
// names matching the word under the cursor, plus procedures defined in
// the pending multi-line input and the REPL literals.
func (e *LineEditor) getCompletions() {
	wordStart := e.cursor
	for wordStart > 0 && !isWordBreak(e.line[wordStart-1]) {
		wordStart--
	}
	prefix := string(e.line[wordStart:e.cursor])

	e.completions = nil
	seen := make(map[string]bool)
	for _, name := range e.shell.interp.Commands() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		seen[name] = true
		c := completion{Text: name, Type: "command", Help: helpFor(name)}
		if reg, ok := e.shell.interp.Command(name); ok && reg.IsProc() {
			c.Type = "proc"
			c.Help = fmt.Sprintf("proc {%s}", reg.Params())
		}
		e.completions = append(e.completions, c)
	}
	// procs named in the pending input are not registered until it evals
	if e.inputBuffer != "" {
		fields := strings.FieldsFunc(e.inputBuffer, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n' || r == ';'
		})
		for n := 0; n+1 < len(fields); n++ {
			name := fields[n+1]
			if fields[n] != "proc" || seen[name] || !strings.HasPrefix(name, prefix) {
				continue
			}
			seen[name] = true
			e.completions = append(e.completions, completion{Text: name, Type: "proc", Help: "pending definition"})
		}
	}
	if prefix != "" {
		for _, name := range []string{"exit", "quit"} {
			if strings.HasPrefix(name, prefix) {
				e.completions = append(e.completions, completion{Text: name, Type: "repl", Help: "leave the session"})
			}
		}
	}
	logging.Trace("editor completions", "prefix", prefix, "count", len(e.completions))
}

// applyCompletion replaces the word under the cursor with the selected
// candidate.
func (e *LineEditor) applyCompletion() {
	if len(e.completions) == 0 || e.selected < 0 || e.selected >= len(e.completions) {
		return
	}
	c := e.completions[e.selected]

	wordStart := e.cursor
	for wordStart > 0 && !isWordBreak(e.line[wordStart-1]) {
		wordStart--
	}

	newLine := make([]rune, 0, len(e.line)+len(c.Text)+1)
	newLine = append(newLine, e.line[:wordStart]...)
	newLine = append(newLine, []rune(c.Text)...)
	newLine = append(newLine, ' ')
	newLine = append(newLine, e.line[e.cursor:]...)

	e.line = newLine
	e.cursor = wordStart + len(c.Text) + 1

	e.showPopup = false
	e.completions = nil
}

func isWordBreak(r rune) bool {
	return r == ' ' || r == '\t' || r == ';' || r == '\n' || r == '{' || r == '}'
}

// startKeyReader starts the persistent reader goroutine once.
func (e *LineEditor) startKeyReader() {
	if e.readerRunning {
		return
	}
	e.keyChan = make(chan keyResult, 16)
	e.readerRunning = true
	go func() {
		for {
			key, err := e.readKey()
			e.keyChan <- keyResult{key, err}
			if err != nil {
				e.readerRunning = false
				return
			}
		}
	}()
}

// ReadLine reads one line of input with editing and completion.
func (e *LineEditor) ReadLine(prompt string) (string, error) {
	if err := e.enterRawMode(); err != nil {
		return "", err
	}
	defer e.exitRawMode()

	resize, stopResize := setupResizeSignal()
	defer stopResize()

	e.startKeyReader()

	e.line = nil
	e.cursor = 0
	e.showPopup = false
	e.completions = nil
	e.selected = 0

	e.render(prompt)

	for {
		var key string
		var err error
		select {
		case <-resize:
			e.render(prompt)
			continue
		case kr := <-e.keyChan:
			key = kr.key
			err = kr.err
		}
		if err != nil {
			return "", err
		}

		switch key {
		case "enter":
			if e.showPopup && len(e.completions) > 0 {
				e.applyCompletion()
				e.render(prompt)
			} else {
				e.clearPopup()
				fmt.Print("\r\n")
				return string(e.line), nil
			}

		case "ctrl-c":
			e.clearPopup()
			fmt.Print("\r\n")
			return "", errInterrupted

		case "ctrl-d":
			if len(e.line) == 0 {
				e.clearPopup()
				fmt.Print("\r\n")
				return "", io.EOF
			}
			if e.cursor < len(e.line) {
				e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
				e.hidePopup()
			}

		case "tab":
			if e.showPopup && len(e.completions) > 0 {
				e.selected = (e.selected + 1) % len(e.completions)
			} else {
				e.getCompletions()
				e.selected = 0
				e.showPopup = len(e.completions) > 0
			}

		case "shift-tab":
			if e.showPopup && len(e.completions) > 0 {
				e.selected--
				if e.selected < 0 {
					e.selected = len(e.completions) - 1
				}
			} else {
				e.getCompletions()
				if len(e.completions) > 0 {
					e.selected = len(e.completions) - 1
					e.showPopup = true
				}
			}

		case "up":
			if e.showPopup && len(e.completions) > 0 {
				e.selected--
				if e.selected < 0 {
					e.selected = len(e.completions) - 1
				}
			}

		case "down":
			if e.showPopup && len(e.completions) > 0 {
				e.selected = (e.selected + 1) % len(e.completions)
			}

		case "left":
			if e.cursor > 0 {
				e.cursor--
			}
			e.hidePopup()

		case "right":
			if e.cursor < len(e.line) {
				e.cursor++
			}
			e.hidePopup()

		case "home":
			e.cursor = 0
			e.hidePopup()

		case "end":
			e.cursor = len(e.line)
			e.hidePopup()

		case "backspace":
			if e.cursor > 0 {
				e.line = append(e.line[:e.cursor-1], e.line[e.cursor:]...)
				e.cursor--
				e.hidePopup()
			}

		case "delete":
			if e.cursor < len(e.line) {
				e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
				e.hidePopup()
			}

		case "ctrl-u":
			e.line = e.line[e.cursor:]
			e.cursor = 0
			e.hidePopup()

		case "ctrl-w":
			newCursor := e.cursor
			for newCursor > 0 && e.line[newCursor-1] == ' ' {
				newCursor--
			}
			for newCursor > 0 && e.line[newCursor-1] != ' ' {
				newCursor--
			}
			e.line = append(e.line[:newCursor], e.line[e.cursor:]...)
			e.cursor = newCursor
			e.hidePopup()

		case "escape":
			if e.showPopup {
				e.hidePopup()
			}

		default:
			if len(key) == 1 {
				ch := rune(key[0])
				if ch >= 32 && ch < 127 {
					newLine := make([]rune, len(e.line)+1)
					copy(newLine, e.line[:e.cursor])
					newLine[e.cursor] = ch
					copy(newLine[e.cursor+1:], e.line[e.cursor:])
					e.line = newLine
					e.cursor++
					e.hidePopup()
				}
			}
		}

		e.render(prompt)
	}
}

// hidePopup clears and deactivates the completion popup.
func (e *LineEditor) hidePopup() {
	if e.showPopup || e.popupLineCount > 0 {
		e.clearPopup()
		e.showPopup = false
		e.completions = nil
	}
}

// SetInputBuffer hands the editor the accumulated multi-line input so
// completion sees the whole pending script.
func (e *LineEditor) SetInputBuffer(buf string) {
	e.inputBuffer = buf
}
