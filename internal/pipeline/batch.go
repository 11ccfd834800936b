package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pageask/internal/model"
)

// defaultConcurrency bounds concurrent asks. Each one runs its own browser.
const defaultConcurrency = 4

// Job is one question about one page.
type Job struct {
	URL      string
	Question string
}

// Result is the outcome of a Job. Exactly one of Answer and Err is set.
type Result struct {
	Job    Job
	Answer *model.Answer
	Err    error
}

// BatchProcessor answers many questions concurrently.
type BatchProcessor struct {
	asker       Asker
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent asks.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that sends every job to asker.
func NewBatchProcessor(asker Asker, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		asker:       asker,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch answers every job and returns the results in input order.
// A failed job does not stop the others; its error is kept in its Result.
// The returned error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	err := bp.run(ctx, jobs, func(r Result, i int) {
		results[i] = r
	})
	return results, err
}

// ProcessBatchWithCallback answers every job and calls callback as each
// one completes. callback runs on the worker goroutine and must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, jobs []Job, callback func(r Result, index int)) error {
	return bp.run(ctx, jobs, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, jobs []Job, done func(Result, int)) error {
	bp.logger.Info("starting batch processing",
		"total_jobs", len(jobs),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				done(Result{Job: job, Err: ctx.Err()}, i)
				return ctx.Err()
			default:
			}

			bp.logger.Info("asking",
				"url", job.URL,
				"index", i+1,
				"total", len(jobs),
			)

			answer, err := bp.asker.Ask(ctx, job.URL, job.Question)
			done(Result{Job: job, Answer: answer, Err: err}, i)
			if err != nil {
				bp.logger.Warn("job failed",
					"url", job.URL,
					"error", err,
				)
			}
			// Job errors stay in the result so the other jobs keep running.
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_jobs", len(jobs),
		"elapsed", time.Since(start),
	)
	return err
}
