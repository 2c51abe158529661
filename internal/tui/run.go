package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// RunTUI starts the bubbletea program in alt-screen mode and runs shellFn
// concurrently. It blocks until either the shell finishes or the user quits.
// Quitting cancels the context handed to shellFn.
func RunTUI(ctx context.Context, cfg TUIConfig, shellFn func(ctx context.Context, io IO) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputCh := make(chan inputResult, 1)
	model := NewModel(inputCh, cfg)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	tuiIO := &TuiIO{program: p, inputCh: inputCh}

	var (
		shellErr error
		wg       sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		shellErr = shellFn(ctx, tuiIO)
		p.Send(shellDoneMsg{err: shellErr})
	}()

	_, runErr := p.Run()
	stopShell(cancel, inputCh)
	wg.Wait()

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}

	return shellErr
}

// stopShell aborts whatever the shell is generating and hands its next
// read EOF so it can return.
func stopShell(cancel context.CancelFunc, inputCh chan<- inputResult) {
	cancel()
	select {
	case inputCh <- inputResult{err: io.EOF}:
	default:
	}
}
