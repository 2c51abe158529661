package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fr33kai/Fr3kAi/internal/memory"
)

func TestNewSessionRequiresCollaborators(t *testing.T) {
	_, err := NewSession(Options{Store: &countingStore{}})
	assert.Error(t, err)

	_, err = NewSession(Options{NewGenerator: func(context.Context, string) (Generator, error) { return nil, nil }})
	assert.Error(t, err)
}

func TestNewSessionLoadsMemory(t *testing.T) {
	initial := memory.New()
	initial.SetText("k", "v")
	f := newFixture(func(o *Options) { o.Store = &countingStore{initial: initial} })

	assert.Equal(t, StateIdle, f.session.State())
	assert.False(t, f.session.KeyValid())
	assert.Empty(t, f.session.Conversation())
	assert.Equal(t, []string{"k"}, f.session.Memory().Keys())
	assert.NotEmpty(t, f.session.ID())
}

func TestTestKeySuccess(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.TestKey(context.Background(), "  gsk-good  "))

	assert.Equal(t, StateReady, f.session.State())
	assert.True(t, f.session.KeyValid())
	assert.Equal(t, []string{KeyTestPrompt}, f.gen.promptsSince(0))
}

func TestTestKeyEmptyIsWarning(t *testing.T) {
	f := newFixture()
	err := f.session.TestKey(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, KindMissingInput, KindOf(err))
	assert.True(t, IsWarning(err))
	assert.Equal(t, StateIdle, f.session.State())
}

func TestTestKeyFailureReturnsToIdle(t *testing.T) {
	f := newFixture().ready()
	require.True(t, f.session.KeyValid())

	err := f.session.TestKey(context.Background(), "bad-key")
	require.Error(t, err)
	assert.Equal(t, KindInvalidCredential, KindOf(err))
	assert.Equal(t, StateIdle, f.session.State())
	assert.False(t, f.session.KeyValid())

	// Handles were cleared: every feature is now a no-op.
	before := f.gen.calls()
	_, err = f.session.Basic(context.Background(), "hello")
	assert.Equal(t, KindNotReady, KindOf(err))
	assert.Equal(t, before, f.gen.calls())
	assert.Empty(t, f.session.Conversation())
}

func TestTestKeyFactoryError(t *testing.T) {
	f := newFixture(func(o *Options) {
		o.NewGenerator = func(context.Context, string) (Generator, error) {
			return nil, errors.New("malformed key")
		}
	})
	err := f.session.TestKey(context.Background(), "x")
	assert.Equal(t, KindInvalidCredential, KindOf(err))
	assert.ErrorContains(t, err, "malformed key")
	assert.Equal(t, StateIdle, f.session.State())
}

func TestTestKeySearcherError(t *testing.T) {
	f := newFixture(func(o *Options) {
		o.NewSearcher = func() (Searcher, error) { return nil, errors.New("no search backend") }
	})
	err := f.session.TestKey(context.Background(), "gsk-good")
	assert.Equal(t, KindInvalidCredential, KindOf(err))
	assert.False(t, f.session.KeyValid())
}

func TestClearEmptiesAndPersists(t *testing.T) {
	f := newFixture().ready()
	_, err := f.session.Basic(context.Background(), "remember me")
	require.NoError(t, err)
	require.Equal(t, 1, f.session.Memory().Len())

	require.NoError(t, f.session.Clear())
	assert.Empty(t, f.session.Conversation())
	assert.Equal(t, 0, f.session.Memory().Len())
	assert.Equal(t, "{}", f.store.saved)
}

func TestClearAllowedWhenIdle(t *testing.T) {
	initial := memory.New()
	initial.SetText("old", "value")
	f := newFixture(func(o *Options) { o.Store = &countingStore{initial: initial} })
	store := f.session.opts.Store.(*countingStore)

	require.NoError(t, f.session.Clear())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "{}", store.saved)
}

func TestClearPersistenceFailure(t *testing.T) {
	f := newFixture(func(o *Options) { o.Store = &countingStore{failErr: errors.New("disk full")} })
	err := f.session.Clear()
	assert.Equal(t, KindPersistence, KindOf(err))
}

func TestSessionWithFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	store := memory.NewFileStore(path, zap.NewNop())
	gen := &scriptedGenerator{}
	s, err := NewSession(Options{
		NewGenerator: func(context.Context, string) (Generator, error) { return gen, nil },
		NewSearcher:  func() (Searcher, error) { return &fakeSearcher{}, nil },
		Store:        store,
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)
	require.NoError(t, s.TestKey(context.Background(), "k"))

	gen.replies = []any{"Go is a language.", "User asked about Go."}
	_, err = s.Basic(context.Background(), "What is Go?")
	require.NoError(t, err)

	reloaded := store.Load()
	v, ok := reloaded.Get("What is Go?")
	require.True(t, ok)
	assert.Equal(t, "User asked about Go.", v.String())

	// A fresh session over the same file starts with that memory.
	s2, err := NewSession(Options{
		NewGenerator: func(context.Context, string) (Generator, error) { return gen, nil },
		Store:        store,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Memory().Len())
	assert.Empty(t, s2.Conversation())
}

func TestErrorFormatting(t *testing.T) {
	e := &Error{Kind: KindFetch, Op: "rag.fetch", Msg: "Failed to fetch", Err: errors.New("timeout")}
	assert.Equal(t, "Failed to fetch: timeout", e.Error())
	assert.True(t, errors.Is(e, e.Err))

	assert.Equal(t, "not ready", (&Error{Kind: KindNotReady}).Error())
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsWarning(errors.New("plain")))
}
