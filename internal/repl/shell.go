// Package repl is the interactive shell: it reads lines from a tui.IO,
// runs slash commands and dispatches plain input to the current feature mode.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/fr33kai/Fr3kAi/internal/assistant"
	"github.com/fr33kai/Fr3kAi/internal/tui"
)

// Options configures a Shell.
type Options struct {
	Session *assistant.Session
	IO      tui.IO
	Logger  *zap.Logger

	// APIKey, when set, is tested before the first prompt.
	APIKey string
	// Mode is the initial feature mode. Defaults to basic.
	Mode assistant.Feature
}

// Shell maps user input onto a single assistant session.
type Shell struct {
	session *assistant.Session
	io      tui.IO
	logger  *zap.Logger
	apiKey  string

	mode     assistant.Feature
	source   assistant.Source
	filePath string
	url      string
}

// New creates a Shell.
func New(opts Options) *Shell {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = assistant.FeatureBasic
	}
	return &Shell{
		session: opts.Session,
		io:      opts.IO,
		logger:  opts.Logger,
		apiKey:  opts.APIKey,
		mode:    opts.Mode,
	}
}

// Mode returns the current feature mode.
func (s *Shell) Mode() assistant.Feature { return s.mode }

// Run starts the interactive loop. It returns nil on /quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	s.updateStatus()
	if s.apiKey != "" {
		s.testKey(ctx, s.apiKey)
	} else {
		s.io.Warning("No API key configured. Use /key <api-key> to enter one.")
	}

	for {
		input, err := s.io.ReadInput()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if input == "" {
			continue
		}
		if quit := s.Handle(ctx, input); quit {
			return nil
		}
		if ctx.Err() != nil {
			s.io.SystemMessage("Interrupted.")
			return ctx.Err()
		}
	}
}

// Handle processes one line of input and reports whether the shell should exit.
func (s *Shell) Handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/") {
		return s.handleSlashCommand(ctx, input)
	}

	s.io.UserMessage(input)
	in := assistant.Input{Text: input, Query: input}
	if s.mode == assistant.FeatureRAG {
		in.Source, in.FilePath, in.URL = s.source, s.filePath, s.url
	}
	s.run(ctx, func() (*assistant.Result, error) {
		return s.session.Dispatch(ctx, s.mode, in)
	})
	return false
}

// handleSlashCommand processes built-in commands. Returns shouldQuit.
func (s *Shell) handleSlashCommand(ctx context.Context, input string) bool {
	parts := strings.SplitN(input, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	s.logger.Debug("command", zap.String("cmd", cmd))

	switch cmd {
	case "/quit", "/exit", "/q":
		s.io.SystemMessage("Bye.")
		return true
	case "/help":
		s.io.SystemMessage(helpText)
	case "/key":
		if arg == "" {
			s.io.SystemMessage("Key state: " + s.session.State().String() + "\nUsage: /key <api-key>")
			return false
		}
		s.testKey(ctx, arg)
	case "/mode":
		s.handleMode(arg)
	case "/source":
		s.handleSource(arg)
	case "/improve":
		s.run(ctx, func() (*assistant.Result, error) { return s.session.SelfImprove(ctx) })
	case "/followup":
		if arg != "" {
			s.io.UserMessage(arg)
		}
		s.run(ctx, func() (*assistant.Result, error) { return s.session.FollowUp(ctx, arg) })
	case "/history":
		s.io.SystemMessage(tui.RenderHistory(s.session.Conversation()))
	case "/memory":
		s.handleMemory(arg)
	case "/clear":
		if err := s.session.Clear(); err != nil {
			s.report(nil, err)
			return false
		}
		s.io.Success("Conversation and memory cleared!")
	default:
		s.io.Warning(fmt.Sprintf("Unknown command %s. Type /help for the list.", cmd))
	}
	return false
}

func (s *Shell) testKey(ctx context.Context, key string) {
	s.io.ThinkingStart()
	err := s.session.TestKey(ctx, key)
	s.io.ThinkingDone()
	if err != nil {
		s.report(nil, err)
	} else {
		s.io.Success("API key is valid!")
	}
	s.updateStatus()
}

func (s *Shell) handleMode(arg string) {
	if arg == "" {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Current mode: %s\nAvailable modes:", s.mode.Title())
		for _, f := range assistant.Features() {
			marker := " "
			if f == s.mode {
				marker = "*"
			}
			fmt.Fprintf(&sb, "\n %s %-8s %s", marker, f, f.Title())
		}
		s.io.SystemMessage(sb.String())
		return
	}
	f, err := assistant.ParseFeature(arg)
	if err != nil {
		s.io.Warning(err.Error())
		return
	}
	s.mode = f
	s.io.SystemMessage("Mode: " + f.Title())
	if f == assistant.FeatureRAG && s.source == "" {
		s.io.SystemMessage("Choose a source with /source file <path> or /source url <url>.")
	}
	s.updateStatus()
}

func (s *Shell) handleSource(arg string) {
	kind, value, _ := strings.Cut(arg, " ")
	value = strings.TrimSpace(value)
	switch strings.ToLower(kind) {
	case "":
		switch s.source {
		case assistant.SourceFile:
			s.io.SystemMessage("RAG source: document " + s.filePath)
		case assistant.SourceURL:
			s.io.SystemMessage("RAG source: webpage " + s.url)
		default:
			s.io.SystemMessage("No RAG source selected.\nUsage: /source file <path> | /source url <url>")
		}
	case "file", "doc", "document":
		s.source, s.filePath = assistant.SourceFile, value
		s.io.SystemMessage("RAG source: document " + value)
	case "url", "web", "webpage":
		s.source, s.url = assistant.SourceURL, value
		s.io.SystemMessage("RAG source: webpage " + value)
	default:
		s.io.Warning("Usage: /source file <path> | /source url <url>")
	}
}

func (s *Shell) handleMemory(key string) {
	mem := s.session.Memory()
	if key == "" {
		s.io.SystemMessage(tui.RenderMemoryKeys(mem))
		return
	}
	v, ok := mem.Get(key)
	if !ok {
		s.io.Warning(fmt.Sprintf("No memory stored under %q.", key))
		return
	}
	s.io.SystemMessage(tui.RenderMemoryEntry(key, v))
}

func (s *Shell) run(ctx context.Context, fn func() (*assistant.Result, error)) {
	s.io.ThinkingStart()
	res, err := fn()
	s.io.ThinkingDone()
	if err != nil && ctx.Err() != nil {
		return
	}
	s.report(res, err)
}

// report shows a handler's outputs first, then its notices, then the error.
func (s *Shell) report(res *assistant.Result, err error) {
	Report(s.io, res, err)
	if err != nil {
		s.logger.Debug("action failed", zap.String("kind", assistant.KindOf(err).String()), zap.Error(err))
	}
}

// Report writes res and err to ui. It is shared by the shell and the
// one-shot subcommands.
func Report(ui tui.IO, res *assistant.Result, err error) {
	if res != nil {
		for _, o := range res.Outputs {
			ui.Response(o.Label, o.Text)
		}
		for _, n := range res.Notices {
			ui.Warning(n)
		}
		if res.Success != "" && err == nil {
			ui.Success(res.Success)
		}
	}
	if err == nil {
		return
	}
	if assistant.IsWarning(err) {
		ui.Warning(err.Error())
		return
	}
	ui.Error(err.Error())
}

func (s *Shell) updateStatus() {
	s.io.SetStatus(string(s.mode), s.session.State().String())
}

const helpText = `Available commands:
  /help                  Show this help message
  /key <api-key>         Test an API key and enable the features
  /mode [name]           Show or switch the feature mode (basic, rag, cot, vision, search, improve)
  /source file <path>    Use a .txt or .pdf document as the RAG source
  /source url <url>      Use a webpage as the RAG source
  /improve               Run the self-improvement analysis
  /followup <question>   Ask a follow-up question about the conversation
  /history               Show the conversation history
  /memory [key]          List memory keys, or show one entry
  /clear                 Clear conversation and memory
  /quit                  Exit
Any other input is sent to the current mode.`
