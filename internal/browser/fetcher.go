package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/pageask/internal/captcha"
	"github.com/nao1215/pageask/internal/config"
	"github.com/nao1215/pageask/internal/model"
	"github.com/nao1215/pageask/internal/socks"
)

var errUnknownEngine = errors.New("unknown fetch engine")

// Fetcher opens browser sessions configured from a Config.
type Fetcher struct {
	engine       string
	bin          string
	userAgent    string
	sites        *config.File
	navTimeout   time.Duration
	imageTimeout time.Duration
	maxImageSize int64
	proxy        *socks.Client
	logger       *slog.Logger

	// newRenderer is replaced in tests.
	newRenderer func(ctx context.Context) (Renderer, error)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithProxy routes pages and image downloads through a SOCKS5 proxy.
func WithProxy(c *socks.Client) Option {
	return func(f *Fetcher) {
		f.proxy = c
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher returns a Fetcher using the engine, timeouts and site settings
// of cfg.
func NewFetcher(cfg *config.Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		engine:       cfg.Engine,
		bin:          cfg.BrowserBin,
		userAgent:    cfg.UserAgent,
		sites:        cfg.SiteConfigs,
		navTimeout:   cfg.NavigationTimeout,
		imageTimeout: cfg.ImageTimeout,
		maxImageSize: cfg.MaxImageSize,
		logger:       slog.Default(),
	}
	if f.maxImageSize <= 0 {
		f.maxImageSize = config.DefaultMaxImageSize
	}
	for _, opt := range opts {
		opt(f)
	}
	f.newRenderer = f.defaultRenderer
	return f
}

// Engine returns the configured fetch engine.
func (f *Fetcher) Engine() string {
	return f.engine
}

func (f *Fetcher) defaultRenderer(_ context.Context) (Renderer, error) {
	switch f.engine {
	case config.EngineBrowser, "":
		opts := rodOptions{
			bin:        f.bin,
			userAgent:  f.userAgent,
			sites:      f.sites,
			navTimeout: f.navTimeout,
		}
		if f.proxy != nil {
			opts.proxyURL = f.proxy.URL()
		}
		return newRodRenderer(opts)
	case config.EngineStatic:
		return newStaticRenderer(f.httpClient(f.navTimeout)), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownEngine, f.engine)
	}
}

// httpClient returns a client that goes through the proxy, when one is
// configured, and carries the per-site headers.
func (f *Fetcher) httpClient(timeout time.Duration) *http.Client {
	var base *http.Transport
	if f.proxy != nil {
		base = f.proxy.Transport()
	} else {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &headerInjectingTransport{
			base:      base,
			userAgent: f.userAgent,
			sites:     f.sites,
		},
	}
}

// Open starts a rendering engine and returns a session bound to it. The
// caller must Close the session.
func (f *Fetcher) Open(ctx context.Context) (*Session, error) {
	r, err := f.newRenderer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	f.logger.Debug("browser session opened", "engine", f.engine)
	return &Session{
		renderer:     r,
		images:       f.httpClient(0),
		imageTimeout: f.imageTimeout,
		maxImageSize: f.maxImageSize,
		logger:       f.logger,
	}, nil
}

// WithSession opens a session, runs fn with it and closes it afterwards,
// also when fn fails or panics.
func (f *Fetcher) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	s, err := f.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close browser session: %w", cerr)
		}
	}()
	return fn(s)
}

// Session is one open rendering engine. A Session is owned by a single
// query and is not reused across queries.
type Session struct {
	renderer     Renderer
	images       *http.Client
	imageTimeout time.Duration
	maxImageSize int64
	logger       *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Fetch loads url and returns its rendered HTML with the inline data of
// every embeddable image. It fails with a *FetchError when the page does
// not load or is empty. Image failures are logged and skipped.
func (s *Session) Fetch(ctx context.Context, url string) (*model.PageContent, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, &FetchError{URL: url, Err: ErrSessionClosed}
	}

	start := time.Now()
	html, err := s.renderer.Render(ctx, url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if strings.TrimSpace(html) == "" {
		return nil, &FetchError{URL: url, Err: ErrEmptyDocument}
	}

	images := s.extractImages(ctx, url, html)
	page := &model.PageContent{
		URL:             url,
		HTML:            html,
		Images:          images,
		CaptchaDetected: captcha.Detect(html),
		FetchedAt:       time.Now(),
	}

	s.logger.Debug("page fetched",
		"url", url,
		"bytes", len(html),
		"images", len(images),
		"captcha", page.CaptchaDetected,
		"elapsed", time.Since(start),
	)
	return page, nil
}

// Close releases the rendering engine. Calling it more than once is safe.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.images.CloseIdleConnections()
	return s.renderer.Close()
}
