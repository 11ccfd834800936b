package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageask/internal/config"
	"github.com/nao1215/pageask/internal/log"
	"github.com/nao1215/pageask/internal/pipeline"
	"github.com/nao1215/pageask/internal/report"
)

// errInvalidTargetURL is returned for targets that are not absolute http(s) URLs.
var errInvalidTargetURL = errors.New("must be an absolute http or https URL")

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [url]...",
		Short: "Ask a question about one or more web pages",
		Long: `Ask loads each page, embeds its CAPTCHA-like images and asks the model
the question given with --query.

With more than one page the questions are answered concurrently and a
single batch report is written at the end.

Examples:
  # Ask about one page
  pageask ask https://example.com -q "What is the price of the first product?"

  # Ask the same question about several pages
  pageask ask https://a.example https://b.example -q "Who is the author?"

  # Read pages and questions from a file (url<TAB>question per line)
  pageask ask --list questions.tsv

  # Use a hosted model and write a Markdown report
  PAGEASK_API_KEY=sk-... pageask ask https://example.com -q "..." \
    --base-url https://api.openai.com/v1 --model gpt-4o -m -o report.md

  # Fetch through Tor
  pageask ask --tor http://exampleonion.onion -q "Is the shop open?"`,
		Args: cobra.ArbitraryArgs,
		RunE: runAskCmd,
	}

	cmd.Flags().StringP("query", "q", "",
		"Question to ask about every page")
	cmd.Flags().StringP("list", "l", "",
		"File of pages to ask about: one URL per line, optionally followed by a TAB and a question")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent asks")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	addModelFlags(cmd)
	addFetchFlags(cmd)

	return cmd
}

// runAskCmd executes the ask command.
func runAskCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return err
	}
	jobs, err := buildJobs(args, listPath, cfg.Question)
	if err != nil {
		return err
	}
	cfg.Targets = jobURLs(jobs)

	if err := cfg.ValidateAsk(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	return runAsk(ctx, cfg, a.pipeline, jobs, cmd.ErrOrStderr())
}

// runAsk answers jobs with asker and writes the report. progress receives
// one line per finished page in batch mode.
func runAsk(ctx context.Context, cfg *config.Config, asker pipeline.Asker, jobs []pipeline.Job, progress io.Writer) (err error) {
	out, closeOut, err := openOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	w := newReportWriter(cfg, out)

	if len(jobs) == 1 {
		job := jobs[0]
		answer, err := asker.Ask(ctx, job.URL, job.Question)
		if err != nil {
			return fmt.Errorf("failed to answer %s: %w", job.URL, err)
		}
		if _, err := w.Write(answer); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}

	fmt.Fprintf(progress, "Asking about %d pages (concurrency: %d)...\n", len(jobs), cfg.BatchSize)
	start := time.Now()

	bp := pipeline.NewBatchProcessor(asker,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(slog.Default()),
	)

	var (
		mu      sync.Mutex
		done    int
		entries = make([]report.Entry, len(jobs))
	)
	batchErr := bp.ProcessBatchWithCallback(ctx, jobs, func(r pipeline.Result, index int) {
		mu.Lock()
		defer mu.Unlock()

		done++
		entries[index] = report.Entry{URL: r.Job.URL, Query: r.Job.Question, Answer: r.Answer, Err: r.Err}
		status := "done"
		if r.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, len(jobs), status, r.Job.URL)
	})
	fmt.Fprintf(progress, "Finished in %s\n\n", time.Since(start).Round(time.Millisecond))

	if _, err := w.WriteBatch(entries); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if batchErr != nil {
		return batchErr
	}

	failed := 0
	for _, e := range entries {
		if e.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d questions could not be answered", failed, len(entries))
	}
	return nil
}

// buildJobs combines positional URLs and the list file into jobs. Lines of
// the list file may carry their own question after a TAB; every other job
// asks question.
func buildJobs(args []string, listPath, question string) ([]pipeline.Job, error) {
	jobs := make([]pipeline.Job, 0, len(args))
	for _, arg := range args {
		jobs = append(jobs, pipeline.Job{URL: strings.TrimSpace(arg), Question: question})
	}

	if listPath != "" {
		listed, err := readJobList(listPath, question)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, listed...)
	}

	for _, job := range jobs {
		if err := validateTargetURL(job.URL); err != nil {
			return nil, err
		}
		if strings.TrimSpace(job.Question) == "" {
			return nil, fmt.Errorf("%w (for %s)", config.ErrNoQuestion, job.URL)
		}
	}
	return jobs, nil
}

// readJobList parses a list file. Blank lines and lines starting with '#'
// are ignored.
func readJobList(path, question string) ([]pipeline.Job, error) {
	f, err := os.Open(path) //nolint:gosec // user supplied list path
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer f.Close()

	return parseJobList(f, question)
}

func parseJobList(r io.Reader, question string) ([]pipeline.Job, error) {
	var jobs []pipeline.Job
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		job := pipeline.Job{URL: line, Question: question}
		if u, q, ok := strings.Cut(line, "\t"); ok {
			job.URL = strings.TrimSpace(u)
			if q = strings.TrimSpace(q); q != "" {
				job.Question = q
			}
		}
		jobs = append(jobs, job)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	return jobs, nil
}

func validateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: %w", raw, errInvalidTargetURL)
	}
	return nil
}

func jobURLs(jobs []pipeline.Job) []string {
	urls := make([]string, len(jobs))
	for i, job := range jobs {
		urls[i] = job.URL
	}
	return urls
}

// newReportWriter selects the report format from cfg.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// openOutput returns the report destination: stdout, or path created with
// owner-only permissions since reports may contain page content.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user supplied output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
