// Package tui defines the IO interface between the assistant shell and the
// user interface layer, plus PlainIO (terminal fallback), TuiIO (bubbletea)
// and BufferIO (scripted, for tests and one-shot commands).
package tui

// IO is the contract between the shell and the UI layer.
// Every method maps to a distinct visual event.
type IO interface {
	// ReadInput blocks until the user submits a line of input.
	// Returns ("", io.EOF) when the user quits.
	ReadInput() (string, error)

	// UserMessage echoes the user's submitted message in the output area.
	UserMessage(text string)

	// ThinkingStart signals that a generation call is in flight.
	ThinkingStart()

	// ThinkingDone clears the indicator shown by ThinkingStart.
	ThinkingDone()

	// Response shows one labelled model output. text is markdown.
	Response(label, text string)

	// SystemMessage displays a neutral notice (command feedback, listings).
	SystemMessage(text string)

	// Warning displays a non-fatal problem, e.g. a missing input.
	Warning(msg string)

	// Success displays a confirmation line.
	Success(msg string)

	// Error displays an error message with prominent styling.
	Error(msg string)

	// SetStatus updates the mode and key-state shown in the status area.
	SetStatus(mode, state string)
}
