package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.ModelBaseURL != "http://localhost:11434/v1" {
		t.Errorf("expected Ollama base URL, got %q", cfg.ModelBaseURL)
	}
	if cfg.Model != "llava" {
		t.Errorf("expected model llava, got %q", cfg.Model)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("expected temperature 0.5, got %v", cfg.Temperature)
	}
	if cfg.NavigationTimeout != 60*time.Second {
		t.Errorf("expected navigation timeout 60s, got %v", cfg.NavigationTimeout)
	}
	if cfg.ImageTimeout != 10*time.Second {
		t.Errorf("expected image timeout 10s, got %v", cfg.ImageTimeout)
	}
	if cfg.Engine != EngineBrowser {
		t.Errorf("expected browser engine, got %q", cfg.Engine)
	}
	if cfg.MaxCaptchaAttempts != 0 {
		t.Errorf("expected CAPTCHA loop disabled by default, got %d", cfg.MaxCaptchaAttempts)
	}
	if cfg.ListenAddress != ":8000" {
		t.Errorf("expected listen :8000, got %q", cfg.ListenAddress)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: nil},
		{name: "static engine", mutate: func(c *Config) { c.Engine = EngineStatic }, wantErr: nil},
		{name: "https model", mutate: func(c *Config) { c.ModelBaseURL = "https://api.openai.com/v1" }, wantErr: nil},
		{name: "relative model url", mutate: func(c *Config) { c.ModelBaseURL = "/v1" }, wantErr: ErrInvalidModelURL},
		{name: "ftp model url", mutate: func(c *Config) { c.ModelBaseURL = "ftp://host/v1" }, wantErr: ErrInvalidModelURL},
		{name: "negative temperature", mutate: func(c *Config) { c.Temperature = -0.1 }, wantErr: ErrInvalidTemperature},
		{name: "temperature too high", mutate: func(c *Config) { c.Temperature = 2.5 }, wantErr: ErrInvalidTemperature},
		{name: "zero navigation timeout", mutate: func(c *Config) { c.NavigationTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero image timeout", mutate: func(c *Config) { c.ImageTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero model timeout", mutate: func(c *Config) { c.ModelTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "unknown engine", mutate: func(c *Config) { c.Engine = "firefox" }, wantErr: ErrInvalidEngine},
		{
			name:    "tor and proxy",
			mutate:  func(c *Config) { c.UseTor = true; c.ProxyAddress = "127.0.0.1:1080" },
			wantErr: ErrConflictingProxy,
		},
		{name: "negative captcha attempts", mutate: func(c *Config) { c.MaxCaptchaAttempts = -1 }, wantErr: ErrInvalidCaptchaAttempts},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigValidateAsk(t *testing.T) {
	t.Parallel()

	t.Run("no targets", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		if err := cfg.ValidateAsk(); !errors.Is(err, ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.ValidateAsk(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		if err := cfg.ValidateAsk(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestConfigValidateServe(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.ListenAddress = ""
	if err := cfg.ValidateServe(); !errors.Is(err, ErrInvalidListenAddress) {
		t.Errorf("expected ErrInvalidListenAddress, got %v", err)
	}
}

func TestGetSiteConfig(t *testing.T) {
	t.Parallel()

	f := &File{
		Defaults: SiteConfig{
			Cookie:  "consent=yes",
			Headers: map[string]string{"Accept-Language": "en"},
		},
		Sites: map[string]SiteConfig{
			"shop.example.com": {
				Cookie:    "session=xyz",
				UserAgent: "custom-agent",
				Headers:   map[string]string{"X-Token": "abc"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()
		got := f.GetSiteConfig("other.example.com")
		if got.Cookie != "consent=yes" {
			t.Errorf("expected default cookie, got %q", got.Cookie)
		}
		if got.Headers["Accept-Language"] != "en" {
			t.Errorf("expected default header, got %v", got.Headers)
		}
	})

	t.Run("site overrides and merges", func(t *testing.T) {
		t.Parallel()
		got := f.GetSiteConfig("shop.example.com")
		if got.Cookie != "session=xyz" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
		if got.UserAgent != "custom-agent" {
			t.Errorf("expected site user agent, got %q", got.UserAgent)
		}
		if len(got.Headers) != 2 {
			t.Errorf("expected merged headers, got %v", got.Headers)
		}
	})

	t.Run("merging does not mutate defaults", func(t *testing.T) {
		t.Parallel()
		_ = f.GetSiteConfig("shop.example.com")
		if _, ok := f.Defaults.Headers["X-Token"]; ok {
			t.Error("expected defaults to stay untouched")
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		f, err := LoadConfigFile(filepath.Join(t.TempDir(), ".pageask"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got %v", err)
		}
		if f != nil {
			t.Error("expected nil file")
		}
	})

	t.Run("full file applied to config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".pageask")
		content := `model:
  base_url: "https://api.openai.com/v1"
  name: "gpt-4o-mini"
  api_key: "sk-test"
  temperature: 0
  timeout: 30s
browser:
  engine: static
  proxy: "127.0.0.1:9050"
  navigation_timeout: 45s
  captcha_attempts: 2
server:
  listen: "127.0.0.1:9000"
defaults:
  cookie: "consent=yes"
sites:
  example.com:
    headers:
      X-Debug: "1"
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		f.Apply(cfg)

		if cfg.ModelBaseURL != "https://api.openai.com/v1" {
			t.Errorf("unexpected base url %q", cfg.ModelBaseURL)
		}
		if cfg.Model != "gpt-4o-mini" || cfg.APIKey != "sk-test" {
			t.Errorf("unexpected model settings %q %q", cfg.Model, cfg.APIKey)
		}
		if cfg.Temperature != 0 {
			t.Errorf("expected explicit zero temperature, got %v", cfg.Temperature)
		}
		if cfg.ModelTimeout != 30*time.Second {
			t.Errorf("expected 30s model timeout, got %v", cfg.ModelTimeout)
		}
		if cfg.Engine != EngineStatic || cfg.ProxyAddress != "127.0.0.1:9050" {
			t.Errorf("unexpected browser settings %q %q", cfg.Engine, cfg.ProxyAddress)
		}
		if cfg.NavigationTimeout != 45*time.Second {
			t.Errorf("expected 45s navigation timeout, got %v", cfg.NavigationTimeout)
		}
		if cfg.MaxCaptchaAttempts != 2 {
			t.Errorf("expected 2 captcha attempts, got %d", cfg.MaxCaptchaAttempts)
		}
		if cfg.ListenAddress != "127.0.0.1:9000" {
			t.Errorf("unexpected listen address %q", cfg.ListenAddress)
		}
		if cfg.SiteConfigs == nil || cfg.SiteConfigs.GetSiteConfig("example.com").Headers["X-Debug"] != "1" {
			t.Error("expected site configs to be attached")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".pageask")
		if err := os.WriteFile(path, []byte("model: [}"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("empty file initializes sites", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".pageask")
		if err := os.WriteFile(path, []byte("defaults: {}\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Sites == nil {
			t.Error("expected Sites to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("defaults: {}"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("missing explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       map[string]string
		wantKey   string
		wantURL   string
		wantModel string
	}{
		{
			name:    "pageask key wins over openai key",
			env:     map[string]string{EnvAPIKey: "a", EnvOpenAIAPIKey: "b"},
			wantKey: "a",
			wantURL: DefaultModelBaseURL,
		},
		{
			name:    "openai key",
			env:     map[string]string{EnvOpenAIAPIKey: "b"},
			wantKey: "b",
			wantURL: DefaultModelBaseURL,
		},
		{
			name:    "ollama host without scheme",
			env:     map[string]string{EnvOllamaHost: "gpu.lan:11434"},
			wantURL: "http://gpu.lan:11434/v1",
		},
		{
			name:    "ollama host with scheme and v1",
			env:     map[string]string{EnvOllamaHost: "https://ollama.example.com/v1/"},
			wantURL: "https://ollama.example.com/v1",
		},
		{
			name:      "model override",
			env:       map[string]string{EnvModel: "llama3.2-vision"},
			wantURL:   DefaultModelBaseURL,
			wantModel: "llama3.2-vision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			ApplyEnv(cfg, func(k string) string { return tt.env[k] })

			if cfg.APIKey != tt.wantKey {
				t.Errorf("expected api key %q, got %q", tt.wantKey, cfg.APIKey)
			}
			if cfg.ModelBaseURL != tt.wantURL {
				t.Errorf("expected base url %q, got %q", tt.wantURL, cfg.ModelBaseURL)
			}
			wantModel := tt.wantModel
			if wantModel == "" {
				wantModel = DefaultModel
			}
			if cfg.Model != wantModel {
				t.Errorf("expected model %q, got %q", wantModel, cfg.Model)
			}
		})
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if XDGDataDir() == "" {
		t.Error("expected non-empty data dir")
	}
	if XDGConfigDir() == "" {
		t.Error("expected non-empty config dir")
	}
}
