package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// TuiIO implements the IO interface by sending messages to a bubbletea Program.
// All methods are safe to call from any goroutine.
type TuiIO struct {
	program *tea.Program
	inputCh chan inputResult
}

var _ IO = (*TuiIO)(nil)

func (t *TuiIO) ReadInput() (string, error) {
	t.program.Send(readInputMsg{})

	// Block until the user submits or the TUI exits.
	res := <-t.inputCh
	if res.err != nil {
		return "", io.EOF
	}
	return res.text, nil
}

func (t *TuiIO) UserMessage(text string)     { t.program.Send(userMsg{text: text}) }
func (t *TuiIO) ThinkingStart()              { t.program.Send(thinkingStartMsg{}) }
func (t *TuiIO) ThinkingDone()               { t.program.Send(thinkingDoneMsg{}) }
func (t *TuiIO) Response(label, text string) { t.program.Send(responseMsg{label: label, text: text}) }
func (t *TuiIO) SystemMessage(text string)   { t.program.Send(systemMsg{text: text}) }
func (t *TuiIO) Warning(msg string)          { t.program.Send(warningMsg{text: msg}) }
func (t *TuiIO) Success(msg string)          { t.program.Send(successMsg{text: msg}) }
func (t *TuiIO) Error(msg string)            { t.program.Send(errorMsg{text: msg}) }

func (t *TuiIO) SetStatus(mode, state string) {
	t.program.Send(statusMsg{mode: mode, state: state})
}
