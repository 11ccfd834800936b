package config

import "errors"

// Validation errors returned by Config.Validate and Config.ValidateAsk.
var (
	// ErrNoTarget is returned when no URL or list file was given.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrNoQuestion is returned when a target has no question to ask.
	ErrNoQuestion = errors.New("no question specified: use --query")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when --json and --markdown are combined.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidEngine is returned for an unknown fetch engine.
	ErrInvalidEngine = errors.New("invalid engine: must be \"browser\" or \"static\"")

	// ErrInvalidCaptchaAttempts is returned when the CAPTCHA attempt limit is negative.
	ErrInvalidCaptchaAttempts = errors.New("invalid captcha attempts: must be non-negative")

	// ErrInvalidTemperature is returned when the sampling temperature is outside [0, 2].
	ErrInvalidTemperature = errors.New("invalid temperature: must be between 0 and 2")

	// ErrInvalidModelURL is returned when the model base URL is not an absolute http(s) URL.
	ErrInvalidModelURL = errors.New("invalid model base URL: must be an absolute http or https URL")

	// ErrInvalidListenAddress is returned when the server listen address is empty.
	ErrInvalidListenAddress = errors.New("invalid listen address")

	// ErrConflictingProxy is returned when both --tor and --proxy are set.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --tor and --proxy cannot be used together")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
