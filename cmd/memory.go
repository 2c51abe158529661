package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fr33kai/Fr3kAi/internal/config"
	"github.com/fr33kai/Fr3kAi/internal/logging"
	"github.com/fr33kai/Fr3kAi/internal/memory"
	"github.com/fr33kai/Fr3kAi/internal/tui"
)

func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear the persisted memory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List memory keys in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s memory.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMemoryKeys(s.Load()))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <key>",
		Short: "Show one memory entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.Join(args, " ")
			return withStore(func(s memory.Store) error {
				v, ok := s.Load().Get(key)
				if !ok {
					return fmt.Errorf("no memory stored under %q", key)
				}
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMemoryEntry(key, v))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the whole memory as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s memory.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), s.Load().String())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every memory entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s memory.Store) error {
				if err := s.Save(memory.New()); err != nil {
					return fmt.Errorf("clear memory: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Memory cleared.")
				return nil
			})
		},
	})

	return cmd
}

// withStore opens the configured memory store without starting a session.
func withStore(fn func(memory.Store) error) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	return withStoreConfig(cfg, fn)
}

func withStoreConfig(cfg *config.Config, fn func(memory.Store) error) error {
	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
