package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fr33kai/Fr3kAi/internal/assistant"
	"github.com/fr33kai/Fr3kAi/internal/repl"
	"github.com/fr33kai/Fr3kAi/internal/tui"
)

func newChatCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive shell (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := assistant.FeatureBasic
			if mode != "" {
				var err error
				if f, err = assistant.ParseFeature(mode); err != nil {
					return err
				}
			}
			return runChatMode(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "initial feature mode (basic, rag, cot, vision, search, improve)")
	return cmd
}

func runChat(ctx context.Context) error {
	return runChatMode(ctx, assistant.FeatureBasic)
}

// runChatMode starts the interactive shell in TUI or plain mode.
func runChatMode(ctx context.Context, mode assistant.Feature) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// The first signal cancels the in-flight action; the next one gets the default behavior.
	go func() {
		<-ctx.Done()
		stop()
	}()

	newShell := func(ui tui.IO) *repl.Shell {
		return repl.New(repl.Options{
			Session: a.session,
			IO:      ui,
			Logger:  a.logger.Named("repl"),
			APIKey:  a.cfg.APIKey(),
			Mode:    mode,
		})
	}

	if useTUI {
		sessionID := a.session.ID()
		if len(sessionID) > 8 {
			sessionID = sessionID[:8]
		}
		tuiCfg := tui.TUIConfig{
			Version:   displayVersion(),
			Provider:  a.cfg.Provider,
			Model:     resolveModel(a.cfg),
			SessionID: sessionID,
		}
		return tui.RunTUI(ctx, tuiCfg, func(ctx context.Context, ui tui.IO) error {
			return newShell(ui).Run(ctx)
		})
	}

	err = newShell(tui.NewPlainIO()).Run(ctx)
	if ctx.Err() != nil {
		os.Stdout.WriteString("\n")
		return nil
	}
	return err
}
