package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/pageask/internal/browser"
	"github.com/nao1215/pageask/internal/captcha"
	"github.com/nao1215/pageask/internal/embed"
	"github.com/nao1215/pageask/internal/metrics"
	"github.com/nao1215/pageask/internal/model"
)

// ErrCaptchaUnresolved is returned when the page still shows a CAPTCHA
// after every allowed read attempt.
var ErrCaptchaUnresolved = errors.New("captcha still present")

// PageSession fetches pages within one browser session.
type PageSession interface {
	Fetch(ctx context.Context, url string) (*model.PageContent, error)
	Close() error
}

// Opener starts a new PageSession.
type Opener func(ctx context.Context) (PageSession, error)

// BrowserOpener adapts a browser.Fetcher to an Opener.
func BrowserOpener(f *browser.Fetcher) Opener {
	return func(ctx context.Context) (PageSession, error) {
		s, err := f.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Analyzer answers a question about HTML.
type Analyzer interface {
	Analyze(ctx context.Context, html, question string, images model.ImageMap) (model.AnalysisResult, error)
}

// CaptchaReader reads the text of a CAPTCHA image.
type CaptchaReader interface {
	SolveImage(ctx context.Context, dataURI, hint string) (string, error)
}

// History records answers.
type History interface {
	SaveAnswer(ctx context.Context, a *model.Answer) error
	PreviousHash(ctx context.Context, url string) (string, error)
}

// Asker answers one question about one page. *Pipeline implements it.
type Asker interface {
	Ask(ctx context.Context, url, question string) (*model.Answer, error)
}

// Pipeline runs the fetch, detect and analyze stages for a question.
type Pipeline struct {
	open     Opener
	analyzer Analyzer

	solver          CaptchaReader
	captchaAttempts int

	history   History
	metrics   *metrics.Collector
	modelName string
	logger    *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithCaptchaSolver enables the CAPTCHA read loop. Up to attempts images
// are read before the page is given up on. Zero attempts disables the loop.
func WithCaptchaSolver(solver CaptchaReader, attempts int) Option {
	return func(p *Pipeline) {
		p.solver = solver
		p.captchaAttempts = attempts
	}
}

// WithHistory stores every answer in h. A failed save is logged and does
// not fail the ask.
func WithHistory(h History) Option {
	return func(p *Pipeline) {
		p.history = h
	}
}

// WithMetrics records stage durations and outcomes in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = c
	}
}

// WithModelName records the model name on each answer.
func WithModelName(name string) Option {
	return func(p *Pipeline) {
		p.modelName = name
	}
}

// New creates a Pipeline that opens sessions with open and answers with a.
func New(open Opener, a Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		open:     open,
		analyzer: a,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Ask fetches url and asks question about it. The browser session is
// opened for this call only and is closed before Ask returns.
//
// Errors are a *browser.FetchError when the page cannot be loaded, a
// *analyzer.ModelError when the model call fails, captcha.ErrSolve when
// reading a CAPTCHA fails and ErrCaptchaUnresolved when the CAPTCHA
// survives every attempt.
func (p *Pipeline) Ask(ctx context.Context, url, question string) (*model.Answer, error) {
	start := time.Now()

	answer, err := p.ask(ctx, url, question)
	if err != nil {
		p.metrics.RecordAsk("error")
		p.logger.Error("ask failed",
			"url", url,
			"error", err,
			"elapsed", time.Since(start),
		)
		return nil, err
	}

	answer.Elapsed = time.Since(start)
	p.metrics.RecordAsk("ok")
	p.logger.Info("ask completed",
		"url", url,
		"captcha", answer.CaptchaDetected,
		"images", answer.ImageCount,
		"elapsed", answer.Elapsed,
	)

	p.save(ctx, answer)
	return answer, nil
}

func (p *Pipeline) ask(ctx context.Context, url, question string) (*model.Answer, error) {
	askedAt := time.Now()

	session, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			p.logger.Warn("failed to close browser session", "error", cerr)
		}
	}()

	page, err := p.fetch(ctx, session, url)
	if err != nil {
		return nil, err
	}

	attempts := 0
	if page.CaptchaDetected {
		p.logger.Info("captcha detected", "url", url)
		page, attempts, err = p.resolveCaptcha(ctx, session, page)
		if err != nil {
			return nil, err
		}
	}

	p.logger.Debug("analyzing page",
		"url", url,
		"bytes", len(page.HTML),
		"images", len(page.Images),
	)
	analyzeStart := time.Now()
	result, err := p.analyzer.Analyze(ctx, page.HTML, question, page.Images)
	p.metrics.ObserveAnalyze(time.Since(analyzeStart), err)
	if err != nil {
		return nil, err
	}

	return &model.Answer{
		URL:             url,
		Query:           question,
		Result:          result,
		CaptchaDetected: page.CaptchaDetected,
		CaptchaAttempts: attempts,
		ImageCount:      embed.Count(page.HTML, page.Images),
		ContentHash:     page.ContentHash(),
		Model:           p.modelName,
		AskedAt:         askedAt,
	}, nil
}

func (p *Pipeline) fetch(ctx context.Context, s PageSession, url string) (*model.PageContent, error) {
	p.logger.Debug("fetching page", "url", url)

	start := time.Now()
	page, err := s.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveFetch(time.Since(start), len(page.Images), page.CaptchaDetected)
	return page, nil
}

// resolveCaptcha reads the CAPTCHA image and refetches the page until the
// challenge is gone or the attempts run out. Without a CAPTCHA image the
// page is returned as it is.
func (p *Pipeline) resolveCaptcha(ctx context.Context, s PageSession, page *model.PageContent) (*model.PageContent, int, error) {
	if p.solver == nil || p.captchaAttempts <= 0 {
		return page, 0, nil
	}

	attempts := 0
	for page.CaptchaDetected && attempts < p.captchaAttempts {
		ref, dataURI, ok := captcha.FindImage(page.Images)
		if !ok {
			p.logger.Info("no captcha image found, analyzing page as is", "url", page.URL)
			return page, attempts, nil
		}

		attempts++
		p.metrics.IncCaptchaAttempt()

		solution, err := p.solver.SolveImage(ctx, dataURI, "")
		if err != nil {
			if !errors.Is(err, captcha.ErrSolve) {
				err = fmt.Errorf("%w: %w", captcha.ErrSolve, err)
			}
			return nil, attempts, err
		}
		p.logger.Debug("captcha read",
			"image", ref,
			"solution", solution,
			"attempt", attempts,
		)

		page, err = p.fetch(ctx, s, page.URL)
		if err != nil {
			return nil, attempts, err
		}
	}

	if page.CaptchaDetected {
		return nil, attempts, fmt.Errorf("%w after %d attempts", ErrCaptchaUnresolved, attempts)
	}
	return page, attempts, nil
}

func (p *Pipeline) save(ctx context.Context, a *model.Answer) {
	if p.history == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	prev, err := p.history.PreviousHash(ctx, a.URL)
	if err != nil {
		p.logger.Warn("failed to read previous answer", "url", a.URL, "error", err)
	} else if prev != "" && prev != a.ContentHash {
		p.logger.Info("page content changed since last ask", "url", a.URL)
	}

	if err := p.history.SaveAnswer(ctx, a); err != nil {
		p.logger.Warn("failed to save answer", "url", a.URL, "error", err)
	}
}
