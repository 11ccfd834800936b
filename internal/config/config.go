package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName is used for XDG directory paths and the config file name.
const AppName = "pageask"

// Fetch engines.
const (
	// EngineBrowser renders pages in headless Chromium.
	EngineBrowser = "browser"
	// EngineStatic fetches pages with a plain HTTP GET, without JavaScript.
	EngineStatic = "static"
)

// Default configuration values.
const (
	// DefaultModelBaseURL is the OpenAI compatible endpoint of a local Ollama.
	DefaultModelBaseURL = "http://localhost:11434/v1"

	// DefaultModel is a vision capable model available in Ollama.
	DefaultModel = "llava"

	// DefaultTemperature is the sampling temperature for analysis requests.
	DefaultTemperature = 0.5

	// DefaultModelTimeout bounds a single model call. Local vision models
	// are slow on large pages.
	DefaultModelTimeout = 120 * time.Second

	// DefaultNavigationTimeout bounds page navigation and rendering.
	DefaultNavigationTimeout = 60 * time.Second

	// DefaultImageTimeout bounds each image download.
	DefaultImageTimeout = 10 * time.Second

	// DefaultMaxImageSize caps the bytes read for one image.
	DefaultMaxImageSize = 5 * 1024 * 1024

	// DefaultBatchSize is the number of pages processed concurrently in
	// batch mode. Each one holds a browser.
	DefaultBatchSize = 4

	// DefaultListenAddress is where `pageask serve` listens.
	DefaultListenAddress = ":8000"

	// DefaultUserAgent is sent by the static engine and image downloads.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// DefaultTorStartupTimeout is how long the embedded Tor daemon may take
	// to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all options for a pageask run. It is built once from flags
// and the config file, then passed down explicitly.
type Config struct {
	// ModelBaseURL is the OpenAI compatible API root, e.g. http://localhost:11434/v1.
	ModelBaseURL string
	// Model is the chat model name.
	Model string
	// APIKey is sent as a bearer token. Ollama ignores it.
	APIKey string
	// Temperature is the sampling temperature.
	Temperature float64
	// ModelTimeout bounds one model call.
	ModelTimeout time.Duration
	// MaxHTMLChars truncates the HTML sent to the model. 0 disables truncation.
	MaxHTMLChars int

	// Engine selects how pages are fetched: EngineBrowser or EngineStatic.
	Engine string
	// BrowserBin is an explicit Chromium binary. Empty lets the launcher
	// find or download one.
	BrowserBin string
	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration
	// ImageTimeout bounds each image download.
	ImageTimeout time.Duration
	// MaxImageSize caps the size of one downloaded image.
	MaxImageSize int64
	// UserAgent overrides the User-Agent header.
	UserAgent string

	// ProxyAddress is a SOCKS5 proxy in host:port form used for pages and images.
	ProxyAddress string
	// UseTor starts an embedded Tor daemon and routes traffic through it.
	UseTor bool
	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// MaxCaptchaAttempts enables the CAPTCHA read-and-refetch loop when positive.
	MaxCaptchaAttempts int

	// BatchSize is the number of concurrent asks in batch mode.
	BatchSize int
	// ListenAddress is the HTTP server address.
	ListenAddress string

	// Verbose enables debug logging.
	Verbose bool
	// LogJSON switches server logs to JSON lines.
	LogJSON bool

	// ConfigFilePath is an explicit config file location.
	ConfigFilePath string
	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output.
	JSONReport bool
	// MarkdownReport selects Markdown output.
	MarkdownReport bool
	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Targets are the URLs to ask about.
	Targets []string
	// Question is asked about every target that has no question of its own.
	Question string

	// DBDir is where the history database lives.
	DBDir string
	// SaveToDB records answers in the history database.
	SaveToDB bool
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		ModelBaseURL:      DefaultModelBaseURL,
		Model:             DefaultModel,
		Temperature:       DefaultTemperature,
		ModelTimeout:      DefaultModelTimeout,
		Engine:            EngineBrowser,
		NavigationTimeout: DefaultNavigationTimeout,
		ImageTimeout:      DefaultImageTimeout,
		MaxImageSize:      DefaultMaxImageSize,
		UserAgent:         DefaultUserAgent,
		TorStartupTimeout: DefaultTorStartupTimeout,
		BatchSize:         DefaultBatchSize,
		ListenAddress:     DefaultListenAddress,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/pageask.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/pageask.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command and returns the
// first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ModelBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidModelURL
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return ErrInvalidTemperature
	}
	if c.ModelTimeout <= 0 || c.NavigationTimeout <= 0 || c.ImageTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.UseTor && c.TorStartupTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Engine != EngineBrowser && c.Engine != EngineStatic {
		return ErrInvalidEngine
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	if c.MaxCaptchaAttempts < 0 {
		return ErrInvalidCaptchaAttempts
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}

// ValidateAsk validates a one-shot or batch ask.
func (c *Config) ValidateAsk() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return c.Validate()
}

// ValidateServe validates the HTTP server settings.
func (c *Config) ValidateServe() error {
	if c.ListenAddress == "" {
		return ErrInvalidListenAddress
	}
	return c.Validate()
}
