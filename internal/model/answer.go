package model

import "time"

// Answer is everything known about one question asked of one page.
type Answer struct {
	// ID is the history row id. Zero until the answer is stored.
	ID int64 `json:"id,omitempty"`

	URL    string         `json:"url"`
	Query  string         `json:"query"`
	Result AnalysisResult `json:"result"`

	// CaptchaDetected reports whether the last fetched page looked like a
	// CAPTCHA challenge.
	CaptchaDetected bool `json:"captcha_detected"`

	// CaptchaAttempts counts CAPTCHA images sent to the model for reading.
	CaptchaAttempts int `json:"captcha_attempts,omitempty"`

	// ImageCount is the number of images embedded into the prompt.
	ImageCount int `json:"image_count"`

	// ContentHash identifies the analyzed HTML; equal hashes mean the page
	// did not change between two asks.
	ContentHash string `json:"content_hash,omitempty"`

	// Model is the model that produced the answer.
	Model string `json:"model,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
	AskedAt time.Time     `json:"asked_at"`
}
