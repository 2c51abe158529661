package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fr33kai/Fr3kAi/internal/config"
)

var (
	cfgFile        string
	modelFlag      string
	providerFlag   string
	apiKeyFlag     string
	memoryPathFlag string
	useTUI         bool
	verbose        bool

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "fr3kai",
		Short: "Terminal AI assistant with memory, RAG and web search",
		Long: "fr3kai is an interactive assistant that keeps a conversation and a persisted memory,\n" +
			"answers from documents or webpages, analyzes web search results and reviews its own performance.",
		// Running fr3kai with no subcommand starts chat mode.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Default TUI on when stdout is a terminal and --tui was not explicitly set.
			if !cmd.Root().PersistentFlags().Changed("tui") && term.IsTerminal(int(os.Stdout.Fd())) {
				useTUI = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/fr3kai/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override provider (groq, openai, anthropic, gemini, ...)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key for the active provider")
	rootCmd.PersistentFlags().StringVar(&memoryPathFlag, "memory-path", "", "memory store path (default ~/.local/share/fr3kai/memory.json)")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "use bubbletea TUI mode (default: auto-detect terminal)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	// Subcommands
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newRAGCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newImproveCmd())
	rootCmd.AddCommand(newMemoryCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// displayVersion returns a formatted version string, e.g. "v0.1.0 (abc1234)".
func displayVersion() string {
	v := "v" + appVersion
	if appCommit != "" && appCommit != "none" {
		v += " (" + appCommit + ")"
	}
	return v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fr3kai %s built %s\n", displayVersion(), appDate)
		},
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if apiKeyFlag != "" {
		pc := cfg.Providers[cfg.Provider]
		if pc == nil {
			pc = &config.ProviderConfig{}
			cfg.Providers[cfg.Provider] = pc
		}
		pc.APIKey = apiKeyFlag
	}
	if memoryPathFlag != "" {
		cfg.Memory.Path = memoryPathFlag
	}
}
