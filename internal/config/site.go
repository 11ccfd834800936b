package config

import (
	"maps"
	"time"
)

// SiteConfig holds request settings for one host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header, e.g. "a=1; b=2".
	Cookie string `yaml:"cookie,omitempty"`
	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`
	// UserAgent overrides the global user agent for this host.
	UserAgent string `yaml:"user_agent,omitempty"`
}

// ModelSection is the `model:` block of the config file.
type ModelSection struct {
	BaseURL     string        `yaml:"base_url,omitempty"`
	Name        string        `yaml:"name,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// BrowserSection is the `browser:` block of the config file.
type BrowserSection struct {
	Engine            string        `yaml:"engine,omitempty"`
	Bin               string        `yaml:"bin,omitempty"`
	UserAgent         string        `yaml:"user_agent,omitempty"`
	Proxy             string        `yaml:"proxy,omitempty"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout,omitempty"`
	CaptchaAttempts   int           `yaml:"captcha_attempts,omitempty"`
}

// ServerSection is the `server:` block of the config file.
type ServerSection struct {
	Listen string `yaml:"listen,omitempty"`
}

// File is the structure of the .pageask configuration file.
type File struct {
	Model   ModelSection   `yaml:"model,omitempty"`
	Browser BrowserSection `yaml:"browser,omitempty"`
	Server  ServerSection  `yaml:"server,omitempty"`

	// Defaults apply to every host unless a Sites entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
	// Sites maps a host name (e.g. "example.com") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the settings for host, merged over the defaults.
func (f *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Cookie:    f.Defaults.Cookie,
		UserAgent: f.Defaults.UserAgent,
	}
	if len(f.Defaults.Headers) > 0 {
		result.Headers = maps.Clone(f.Defaults.Headers)
	}

	site, ok := f.Sites[host]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

// Apply copies every value set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	m := f.Model
	if m.BaseURL != "" {
		cfg.ModelBaseURL = m.BaseURL
	}
	if m.Name != "" {
		cfg.Model = m.Name
	}
	if m.APIKey != "" {
		cfg.APIKey = m.APIKey
	}
	if m.Temperature != nil {
		cfg.Temperature = *m.Temperature
	}
	if m.Timeout > 0 {
		cfg.ModelTimeout = m.Timeout
	}

	b := f.Browser
	if b.Engine != "" {
		cfg.Engine = b.Engine
	}
	if b.Bin != "" {
		cfg.BrowserBin = b.Bin
	}
	if b.UserAgent != "" {
		cfg.UserAgent = b.UserAgent
	}
	if b.Proxy != "" {
		cfg.ProxyAddress = b.Proxy
	}
	if b.NavigationTimeout > 0 {
		cfg.NavigationTimeout = b.NavigationTimeout
	}
	if b.CaptchaAttempts > 0 {
		cfg.MaxCaptchaAttempts = b.CaptchaAttempts
	}

	if f.Server.Listen != "" {
		cfg.ListenAddress = f.Server.Listen
	}
	cfg.SiteConfigs = f
}
