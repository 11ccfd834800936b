package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageask/internal/config"
	"github.com/nao1215/pageask/internal/database"
	"github.com/nao1215/pageask/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent answers",
		Long: `History lists answers recorded by previous runs of ask and serve,
newest first.

Examples:
  # Show the last 20 answers
  pageask history

  # Show every answer about one page as JSON
  pageask history --url https://example.com --limit 100 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", database.DefaultListLimit,
		"Maximum number of answers to show")
	cmd.Flags().StringP("url", "u", "",
		"Only show answers about this URL")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	pageURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "No answers recorded yet.")
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	answers, err := db.ListAnswers(context.Background(), database.ListFilter{URL: pageURL, Limit: limit})
	if err != nil {
		return err
	}
	if len(answers) == 0 && !cfg.JSONReport {
		fmt.Fprintln(out, "No answers recorded yet.")
		return nil
	}

	w := newReportWriter(cfg, out)
	if _, err := w.WriteBatch(report.EntriesFromAnswers(answers)); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
