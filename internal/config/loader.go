package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name.
const DefaultConfigFile = ".pageask"

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey       = "PAGEASK_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvModel        = "PAGEASK_MODEL"
	EnvOllamaHost   = "OLLAMA_HOST"
)

// LoadConfigFile parses the YAML file at path. A missing file yields
// ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Sites == nil {
		f.Sites = make(map[string]SiteConfig)
	}
	return &f, nil
}

// FindConfigFile looks for the config file in this order: configPath if
// given, ./.pageask, ~/.pageask, then $XDG_CONFIG_HOME/pageask/config.yaml.
// It returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// ApplyEnv overlays environment variables on cfg. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	switch {
	case getenv(EnvAPIKey) != "":
		cfg.APIKey = getenv(EnvAPIKey)
	case getenv(EnvOpenAIAPIKey) != "":
		cfg.APIKey = getenv(EnvOpenAIAPIKey)
	}
	if m := getenv(EnvModel); m != "" {
		cfg.Model = m
	}
	if host := getenv(EnvOllamaHost); host != "" {
		cfg.ModelBaseURL = ollamaBaseURL(host)
	}
}

// ollamaBaseURL turns an OLLAMA_HOST value ("0.0.0.0:11434",
// "http://gpu:11434") into the OpenAI compatible API root.
func ollamaBaseURL(host string) string {
	host = strings.TrimRight(host, "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if strings.HasSuffix(host, "/v1") {
		return host
	}
	return host + "/v1"
}
