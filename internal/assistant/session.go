// Package assistant implements the session state machine and the feature
// handlers: basic generation, RAG, web search, self-improvement and follow-up
// questions, all backed by a conversation log and persisted memory.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fr33kai/Fr3kAi/internal/conversation"
	"github.com/fr33kai/Fr3kAi/internal/document"
	"github.com/fr33kai/Fr3kAi/internal/memory"
	"github.com/fr33kai/Fr3kAi/internal/web"
)

// KeyTestPrompt is the probe sent to validate an API key.
const KeyTestPrompt = "Test API key."

// Generator maps a prompt to a completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher maps a query to ranked results.
type Searcher interface {
	Search(ctx context.Context, query string) ([]web.Result, error)
}

// Fetcher retrieves the text of a URL.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// DocumentReader extracts text from an uploaded document.
type DocumentReader interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// GeneratorFactory builds a Generator from an API key. It may fail for a
// malformed key; an unusable key usually only fails on the first call.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

// SearcherFactory builds the search client installed alongside the generator.
type SearcherFactory func() (Searcher, error)

// State is the session's position in the key-validation state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingKeyValidation
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingKeyValidation:
		return "awaiting key validation"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Options configures a Session.
type Options struct {
	NewGenerator GeneratorFactory // required
	NewSearcher  SearcherFactory  // default: keyless web search
	Fetcher      Fetcher          // default: web.NewFetcher with a 10s timeout
	Documents    DocumentReader   // default: document.Reader
	Store        memory.Store     // required
	Logger       *zap.Logger

	// HistoryWindow limits how many trailing turns are rendered into prompts.
	// 0 renders the whole conversation. FollowUp always renders all of it.
	HistoryWindow int
}

// Session is the per-user context threaded through every handler. It owns
// one conversation log and one memory; nothing is shared across sessions.
//
// Invariant: generator and searcher are non-nil iff state == StateReady.
type Session struct {
	id     string
	opts   Options
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	generator Generator
	searcher  Searcher
	conv      *conversation.Log
	mem       *memory.Memory
}

// NewSession creates a session in StateIdle with an empty conversation and
// the memory loaded from opts.Store.
func NewSession(opts Options) (*Session, error) {
	if opts.NewGenerator == nil {
		return nil, errors.New("assistant: NewGenerator is required")
	}
	if opts.Store == nil {
		return nil, errors.New("assistant: Store is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewSearcher == nil {
		opts.NewSearcher = func() (Searcher, error) {
			return web.NewSearcher("", "", 0), nil
		}
	}
	if opts.Fetcher == nil {
		opts.Fetcher = web.NewFetcher(0)
	}
	if opts.Documents == nil {
		opts.Documents = &document.Reader{}
	}

	id := uuid.New().String()
	logger := opts.Logger.With(zap.String("session", id))
	mem := opts.Store.Load()
	logger.Info("session started", zap.Int("memory_keys", mem.Len()))

	return &Session{
		id:     id,
		opts:   opts,
		logger: logger,
		state:  StateIdle,
		conv:   conversation.New(),
		mem:    mem,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// KeyValid reports whether a key has been validated.
func (s *Session) KeyValid() bool {
	return s.State() == StateReady
}

// Conversation returns a copy of the conversation log.
func (s *Session) Conversation() []conversation.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.All()
}

// Memory returns a snapshot of the memory.
func (s *Session) Memory() *memory.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Clone()
}

// TestKey validates key by building a generator and sending KeyTestPrompt.
// On success the session becomes Ready with fresh generator and searcher
// handles; on failure it returns to Idle with both handles cleared.
func (s *Session) TestKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return newError(KindMissingInput, "key", "Please enter an API key.", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateAwaitingKeyValidation
	s.generator, s.searcher = nil, nil

	fail := func(err error) error {
		s.state = StateIdle
		s.generator, s.searcher = nil, nil
		s.logger.Warn("API key test failed", zap.Error(err))
		return newError(KindInvalidCredential, "key", "API key test failed", err)
	}

	gen, err := s.opts.NewGenerator(ctx, key)
	if err != nil {
		return fail(err)
	}
	if _, err := gen.Generate(ctx, KeyTestPrompt); err != nil {
		return fail(err)
	}
	searcher, err := s.opts.NewSearcher()
	if err != nil {
		return fail(err)
	}

	s.generator, s.searcher = gen, searcher
	s.state = StateReady
	s.logger.Info("API key validated")
	return nil
}

// Clear empties the conversation and the memory and persists the empty memory.
// It is allowed in any state.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conv.Clear()
	s.mem.Clear()
	if err := s.opts.Store.Save(s.mem); err != nil {
		return newError(KindPersistence, "clear", "failed to save memory", err)
	}
	s.logger.Info("conversation and memory cleared")
	return nil
}

// history returns the turns rendered into prompts. Callers hold s.mu.
func (s *Session) history() []conversation.Turn {
	return s.conv.Window(s.opts.HistoryWindow)
}

// ready returns NotReady unless the session holds a validated key. Callers hold s.mu.
func (s *Session) ready(op string) error {
	if s.state != StateReady || s.generator == nil || s.searcher == nil {
		return newError(KindNotReady, op, "Please enter a valid API key to use the features.", nil)
	}
	return nil
}

// generate calls the generator once. Callers hold s.mu.
func (s *Session) generate(ctx context.Context, op, prompt string) (string, error) {
	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("generation failed", zap.String("op", op), zap.Error(err))
		return "", newError(KindGeneration, op, "generation failed", err)
	}
	return out, nil
}

// remember writes key and persists the memory. Callers hold s.mu.
func (s *Session) remember(op, key string, v memory.Value) error {
	s.mem.Set(key, v)
	if err := s.opts.Store.Save(s.mem); err != nil {
		s.logger.Error("memory save failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return newError(KindPersistence, op, "failed to save memory", err)
	}
	s.logger.Debug("memory updated", zap.String("op", op), zap.String("key", key))
	return nil
}
