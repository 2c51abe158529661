package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fr33kai/Fr3kAi/internal/memory"
	"github.com/fr33kai/Fr3kAi/internal/web"
)

// scriptedGenerator answers prompts in order from replies and records every prompt.
// A reply that is an error is returned as the failure of that call.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []any
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if len(g.replies) == 0 {
		return fmt.Sprintf("reply %d", len(g.prompts)), nil
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	switch v := r.(type) {
	case error:
		return "", v
	case string:
		return v, nil
	}
	return "", errors.New("bad script")
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *scriptedGenerator) promptsSince(n int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts[n:]...)
}

type fakeSearcher struct {
	results []web.Result
	err     error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, q string) ([]web.Result, error) {
	s.queries = append(s.queries, q)
	return s.results, s.err
}

type fakeFetcher struct {
	pages   map[string]string
	fails   map[string]error
	fetched []string
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	if err, ok := f.fails[url]; ok {
		return "", err
	}
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return "", fmt.Errorf("HTTP 404 for %s", url)
}

type fakeDocs struct {
	texts map[string]string
}

func (d *fakeDocs) ReadText(_ context.Context, path string) (string, error) {
	if t, ok := d.texts[path]; ok {
		return t, nil
	}
	return "", errors.New("no such file")
}

// countingStore is an in-memory Store that records saves.
type countingStore struct {
	initial *memory.Memory
	saved   string
	saves   int
	failErr error
}

func (s *countingStore) Load() *memory.Memory {
	if s.initial == nil {
		return memory.New()
	}
	return s.initial.Clone()
}

func (s *countingStore) Save(m *memory.Memory) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.saves++
	s.saved = m.String()
	return nil
}

func (s *countingStore) Close() error { return nil }

// fixture wires a session with fakes. keyOK decides whether the key probe succeeds.
type fixture struct {
	gen      *scriptedGenerator
	searcher *fakeSearcher
	fetcher  *fakeFetcher
	docs     *fakeDocs
	store    *countingStore
	session  *Session
}

func newFixture(opts ...func(*Options)) *fixture {
	f := &fixture{
		gen:      &scriptedGenerator{},
		searcher: &fakeSearcher{},
		fetcher:  &fakeFetcher{pages: map[string]string{}, fails: map[string]error{}},
		docs:     &fakeDocs{texts: map[string]string{}},
		store:    &countingStore{},
	}
	o := Options{
		NewGenerator: func(_ context.Context, key string) (Generator, error) {
			if strings.HasPrefix(key, "bad") {
				return &scriptedGenerator{replies: []any{errors.New("401 invalid api key")}}, nil
			}
			return f.gen, nil
		},
		NewSearcher: func() (Searcher, error) { return f.searcher, nil },
		Fetcher:     f.fetcher,
		Documents:   f.docs,
		Store:       f.store,
	}
	for _, fn := range opts {
		fn(&o)
	}
	s, err := NewSession(o)
	if err != nil {
		panic(err)
	}
	f.session = s
	return f
}

// ready validates a good key; the probe consumes one generator call.
func (f *fixture) ready() *fixture {
	if err := f.session.TestKey(context.Background(), "gsk-good"); err != nil {
		panic(err)
	}
	return f
}
