package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fr33kai/Fr3kAi/internal/config"
)

// wizardProviders is the order providers are offered in by init.
var wizardProviders = []string{
	"groq", "openai", "anthropic", "gemini", "deepseek", "openrouter", "together", "ollama",
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive configuration wizard",
		Long:  "Guides you through setting up fr3kai: choose a provider, enter your API key, and save the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				dir, err := config.Dir()
				if err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
				path = filepath.Join(dir, "config.yaml")
			}
			return runInit(os.Stdin, cmd.OutOrStdout(), path)
		},
	}
}

func runInit(in io.Reader, out io.Writer, path string) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Welcome to the fr3kai configuration wizard!")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Available providers:")
	for i, p := range wizardProviders {
		fmt.Fprintf(out, "  %d. %s\n", i+1, p)
	}
	fmt.Fprintf(out, "\nSelect provider (1-%d) [1]: ", len(wizardProviders))
	input := readLine(reader)

	selectedIdx := 0
	if input != "" {
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(wizardProviders) {
			return fmt.Errorf("invalid choice %q", input)
		}
		selectedIdx = n - 1
	}
	providerName := wizardProviders[selectedIdx]
	fmt.Fprintf(out, "Selected: %s\n\n", providerName)

	fmt.Fprintf(out, "Enter API key for %s: ", providerName)
	apiKey := readLine(reader)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	pc := config.ProviderConfig{APIKey: apiKey}
	if def := config.KnownProviderModels[providerName]; def != "" {
		fmt.Fprintf(out, "Model [%s]: ", def)
	} else {
		fmt.Fprint(out, "Model: ")
	}
	pc.Model = readLine(reader)

	if err := config.SaveProviderToFile(path, providerName, pc); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfig saved to %s\n", path)
	fmt.Fprintln(out, "You can now run: fr3kai")
	return nil
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
