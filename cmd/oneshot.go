package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fr33kai/Fr3kAi/internal/assistant"
	"github.com/fr33kai/Fr3kAi/internal/repl"
	"github.com/fr33kai/Fr3kAi/internal/tui"
	"github.com/fr33kai/Fr3kAi/internal/web"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ask <prompt>",
		Short:   "Answer one prompt with basic generation",
		Example: `  fr3kai ask "explain goroutines in two sentences"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd.Context(), func(ctx context.Context, s *assistant.Session) (*assistant.Result, error) {
				return s.Basic(ctx, strings.Join(args, " "))
			})
		},
	}
}

func newRAGCmd() *cobra.Command {
	var file, url string

	cmd := &cobra.Command{
		Use:   "rag <query>",
		Short: "Answer a query from a document or a webpage",
		Example: `  fr3kai rag --file notes.pdf "what are the deadlines?"
  fr3kai rag --url https://go.dev/doc/effective_go "how are errors handled?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (url == "") {
				return errors.New("exactly one of --file or --url is required")
			}
			in := assistant.Input{Query: strings.Join(args, " "), FilePath: file, URL: url}
			return runOneShot(cmd.Context(), func(ctx context.Context, s *assistant.Session) (*assistant.Result, error) {
				return s.RAG(ctx, in)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "document to answer from (.txt or .pdf)")
	cmd.Flags().StringVarP(&url, "url", "u", "", "webpage to answer from")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the web and analyze the top results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if list {
				return runSearchList(cmd, query)
			}
			return runOneShot(cmd.Context(), func(ctx context.Context, s *assistant.Session) (*assistant.Result, error) {
				return s.WebSearch(ctx, query)
			})
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "only list the search results, without analysis")
	return cmd
}

// runSearchList prints raw search results. It needs no API key.
func runSearchList(cmd *cobra.Command, query string) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	s := web.NewSearcher(cfg.Web.SearchProvider, cfg.Web.SearchAPIKey, cfg.Web.MaxResults)
	results, err := s.Search(cmd.Context(), query)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), web.FormatResults(query, results))
	return nil
}

func newImproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "improve",
		Short: "Run the self-improvement analysis over the stored memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd.Context(), func(ctx context.Context, s *assistant.Session) (*assistant.Result, error) {
				return s.SelfImprove(ctx)
			})
		},
	}
}

// runOneShot starts a session, validates the configured key and runs one action.
func runOneShot(ctx context.Context, action func(context.Context, *assistant.Session) (*assistant.Result, error)) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	key := a.cfg.APIKey()
	if key == "" {
		return fmt.Errorf("API key not configured for provider %q.\n"+
			"Set it via:\n"+
			"  - flag: --api-key\n"+
			"  - config file: providers.%s.api_key\n"+
			"  - environment: LLM_API_KEY\n"+
			"  - run: fr3kai init",
			a.cfg.Provider, a.cfg.Provider)
	}
	if err := a.session.TestKey(ctx, key); err != nil {
		return err
	}

	ui := tui.NewPlainIO()
	res, err := action(ctx, a.session)
	repl.Report(ui, res, err)
	if err != nil && !assistant.IsWarning(err) {
		return errReported
	}
	return nil
}

// errReported marks a failure the UI has already shown to the user.
var errReported = errors.New("reported")
