package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PlainIO implements IO with plain line-oriented output. It is used when TUI
// mode is disabled or stdout is not a terminal.
type PlainIO struct {
	scanner *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	prompt  string
}

var _ IO = (*PlainIO)(nil)

// NewPlainIO creates a PlainIO on stdin/stdout/stderr.
func NewPlainIO() *PlainIO {
	return NewPlainIOFrom(os.Stdin, os.Stdout, os.Stderr)
}

// NewPlainIOFrom creates a PlainIO over arbitrary streams.
func NewPlainIOFrom(in io.Reader, out, errOut io.Writer) *PlainIO {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 1024*1024), 1024*1024)
	return &PlainIO{scanner: s, out: out, errOut: errOut, prompt: "> "}
}

func (p *PlainIO) ReadInput() (string, error) {
	fmt.Fprint(p.out, "\n"+p.prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func (p *PlainIO) UserMessage(_ string) {
	// The user already sees what they typed.
}

func (p *PlainIO) ThinkingStart() {}
func (p *PlainIO) ThinkingDone()  {}

func (p *PlainIO) Response(label, text string) {
	fmt.Fprintf(p.out, "\n## %s\n\n%s\n", label, strings.TrimRight(text, "\n"))
}

func (p *PlainIO) SystemMessage(text string) {
	fmt.Fprintln(p.out, text)
}

func (p *PlainIO) Warning(msg string) {
	fmt.Fprintf(p.out, "warning: %s\n", msg)
}

func (p *PlainIO) Success(msg string) {
	fmt.Fprintf(p.out, "ok: %s\n", msg)
}

func (p *PlainIO) Error(msg string) {
	fmt.Fprintf(p.errOut, "error: %s\n", msg)
}

// SetStatus updates the input prompt, e.g. "[search] > ".
func (p *PlainIO) SetStatus(mode, _ string) {
	if mode == "" {
		p.prompt = "> "
		return
	}
	p.prompt = "[" + mode + "] > "
}
