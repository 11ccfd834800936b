package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/nao1215/pageask/internal/config"
)

// maxDocumentSize caps the bytes read by the static engine.
const maxDocumentSize = 32 * 1024 * 1024

// Renderer turns a URL into the HTML of the loaded document.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// rodRenderer drives headless Chromium through go-rod.
type rodRenderer struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	userAgent  string
	sites      *config.File
	navTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

type rodOptions struct {
	bin        string
	proxyURL   string
	userAgent  string
	sites      *config.File
	navTimeout time.Duration
}

// newRodRenderer launches Chromium and connects to it.
func newRodRenderer(opts rodOptions) (*rodRenderer, error) {
	l := launcher.New().Headless(true)
	if opts.bin != "" {
		l = l.Bin(opts.bin)
	}
	if opts.proxyURL != "" {
		l = l.Proxy(opts.proxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &rodRenderer{
		launcher:   l,
		browser:    b,
		userAgent:  opts.userAgent,
		sites:      opts.sites,
		navTimeout: opts.navTimeout,
	}, nil
}

// Render opens a fresh page, navigates to url and returns the document
// once the load event has fired. The page is closed before returning.
func (r *rodRenderer) Render(ctx context.Context, url string) (string, error) {
	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if r.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.navTimeout)
		defer cancel()
	}
	p := page.Context(ctx)

	if err := r.prepare(p, url); err != nil {
		return "", err
	}
	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("page did not finish loading: %w", err)
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return html, nil
}

// prepare applies the user agent, cookie and extra headers configured for
// the target host.
func (r *rodRenderer) prepare(p *rod.Page, rawURL string) error {
	site := siteConfig(r.sites, hostOf(rawURL))

	ua := r.userAgent
	if site.UserAgent != "" {
		ua = site.UserAgent
	}
	if ua != "" {
		if err := (proto.NetworkSetUserAgentOverride{UserAgent: ua}).Call(p); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	headers := make(proto.NetworkHeaders, len(site.Headers)+1)
	for k, v := range site.Headers {
		headers[k] = gson.New(v)
	}
	if site.Cookie != "" {
		headers["Cookie"] = gson.New(site.Cookie)
	}
	if len(headers) == 0 {
		return nil
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(p); err != nil {
		return fmt.Errorf("failed to set request headers: %w", err)
	}
	return nil
}

// Close shuts the browser down and removes its profile directory.
func (r *rodRenderer) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.browser.Close()
		r.launcher.Kill()
		r.launcher.Cleanup()
	})
	return r.closeErr
}

// staticRenderer fetches the raw document without running JavaScript.
type staticRenderer struct {
	client *http.Client
}

func newStaticRenderer(client *http.Client) *staticRenderer {
	return &staticRenderer{client: client}
}

// Render performs a GET request. Non-2xx responses are errors.
func (r *staticRenderer) Render(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	if len(body) == 0 {
		return "", ErrEmptyDocument
	}
	return string(body), nil
}

// Close releases idle connections.
func (r *staticRenderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

var _ Renderer = (*rodRenderer)(nil)
var _ Renderer = (*staticRenderer)(nil)
