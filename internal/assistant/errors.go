package assistant

import (
	"errors"
	"fmt"
)

// Kind classifies a failed user action.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidCredential: the key test failed. Blocks every feature.
	KindInvalidCredential
	// KindMissingInput: a required field was empty. Reported as a warning.
	KindMissingInput
	// KindFetch: a URL, document or search retrieval failed.
	KindFetch
	// KindGeneration: the generation call failed.
	KindGeneration
	// KindNotReady: a feature was invoked before a key was validated.
	KindNotReady
	// KindUnsupported: the feature mode has no handler.
	KindUnsupported
	// KindPersistence: saving memory failed.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid credential"
	case KindMissingInput:
		return "missing input"
	case KindFetch:
		return "fetch failure"
	case KindGeneration:
		return "generation failure"
	case KindNotReady:
		return "not ready"
	case KindUnsupported:
		return "unsupported"
	case KindPersistence:
		return "persistence failure"
	}
	return "unknown"
}

// Error is returned by every Session operation that fails.
type Error struct {
	Kind Kind
	Op   string // feature or step, e.g. "basic", "rag.fetch", "key"
	Msg  string // user-facing message
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsWarning reports whether err should be shown as a warning rather than an error.
func IsWarning(err error) bool {
	switch KindOf(err) {
	case KindMissingInput, KindNotReady:
		return true
	}
	return false
}
