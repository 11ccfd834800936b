package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageask/internal/config"
)

// NewRootCmd creates the root command for pageask.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pageask",
		Short: "Ask a language model questions about web pages",
		Long: `pageask answers natural-language questions about web pages.

It renders the page in headless Chromium, embeds CAPTCHA-like images as
base64 data URIs, and asks an OpenAI compatible model (Ollama by default)
for an answer, the reasoning behind it and the supporting HTML element.

Answers are recorded in a local SQLite history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output (debug logging)")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .pageask in current or home directory)")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory of the answer history database")

	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
