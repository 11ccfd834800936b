package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageask/internal/config"
)

// addModelFlags registers the flags shared by commands that call the model.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", config.DefaultModel,
		"Chat model name")
	cmd.Flags().String("base-url", config.DefaultModelBaseURL,
		"OpenAI compatible API root")
	cmd.Flags().Float64("temperature", config.DefaultTemperature,
		"Sampling temperature (0-2)")
	cmd.Flags().Duration("model-timeout", config.DefaultModelTimeout,
		"Timeout for one model call")
	cmd.Flags().Int("max-html-chars", 0,
		"Truncate the HTML sent to the model (0 sends the whole page)")
}

// addFetchFlags registers the flags shared by commands that load pages.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().String("engine", config.EngineBrowser,
		`Fetch engine: "browser" (headless Chromium) or "static" (plain HTTP GET)`)
	cmd.Flags().String("browser-bin", "",
		"Chromium binary (default: found or downloaded automatically)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for pages and images")
	cmd.Flags().Duration("nav-timeout", config.DefaultNavigationTimeout,
		"Timeout for loading a page")
	cmd.Flags().Duration("image-timeout", config.DefaultImageTimeout,
		"Timeout for downloading one image")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for pages and images (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and fetch through it")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().Int("captcha-attempts", 0,
		"Read CAPTCHA images with the model and reload the page up to N times (CAPTCHA solving is off unless N > 0)")
	cmd.Flags().Bool("no-save", false,
		"Do not record answers in the history database")
}

// loadConfig builds the configuration for cmd. Values are applied in
// order of increasing priority: defaults, config file, environment, flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	// An explicit path must exist. Otherwise a missing file means defaults.
	found := config.FindConfigFile(configPath)
	switch {
	case found != "":
		f, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		f.Apply(cfg)
	case configPath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	config.ApplyEnv(cfg, os.Getenv)

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag the user set on the command line onto cfg.
// Flags left at their default do not override the file or environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	setters := []error{
		stringFlag(cmd, "model", &cfg.Model),
		stringFlag(cmd, "base-url", &cfg.ModelBaseURL),
		floatFlag(cmd, "temperature", &cfg.Temperature),
		durationFlag(cmd, "model-timeout", &cfg.ModelTimeout),
		intFlag(cmd, "max-html-chars", &cfg.MaxHTMLChars),

		stringFlag(cmd, "engine", &cfg.Engine),
		stringFlag(cmd, "browser-bin", &cfg.BrowserBin),
		stringFlag(cmd, "user-agent", &cfg.UserAgent),
		durationFlag(cmd, "nav-timeout", &cfg.NavigationTimeout),
		durationFlag(cmd, "image-timeout", &cfg.ImageTimeout),
		stringFlag(cmd, "proxy", &cfg.ProxyAddress),
		boolFlag(cmd, "tor", &cfg.UseTor),
		durationFlag(cmd, "tor-timeout", &cfg.TorStartupTimeout),
		intFlag(cmd, "captcha-attempts", &cfg.MaxCaptchaAttempts),

		intFlag(cmd, "batch", &cfg.BatchSize),
		stringFlag(cmd, "query", &cfg.Question),
		boolFlag(cmd, "json", &cfg.JSONReport),
		boolFlag(cmd, "markdown", &cfg.MarkdownReport),
		stringFlag(cmd, "output", &cfg.ReportFile),

		stringFlag(cmd, "listen", &cfg.ListenAddress),
		boolFlag(cmd, "log-json", &cfg.LogJSON),

		stringFlag(cmd, "db-dir", &cfg.DBDir),
	}
	for _, err := range setters {
		if err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("no-save") {
		noSave, err := cmd.Flags().GetBool("no-save")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noSave
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

func stringFlag(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func intFlag(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func floatFlag(cmd *cobra.Command, name string, dst *float64) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func durationFlag(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
