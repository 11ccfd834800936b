package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/pageask/internal/model"
)

// JSONWriter outputs answers as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONAnswer is the JSON form of an answer. The answer fields are flattened
// so the shape matches the HTTP API response.
type JSONAnswer struct {
	ID              int64   `json:"id,omitempty"`
	URL             string  `json:"url"`
	Query           string  `json:"query"`
	Answer          string  `json:"answer"`
	Reasoning       string  `json:"reasoning"`
	HTMLElement     *string `json:"html_element"`
	CaptchaDetected bool    `json:"captcha_detected"`
	CaptchaAttempts int     `json:"captcha_attempts,omitempty"`
	ImageCount      int     `json:"image_count"`
	ContentHash     string  `json:"content_hash,omitempty"`
	Model           string  `json:"model,omitempty"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	AskedAt         string  `json:"asked_at,omitempty"`
}

// NewJSONAnswer converts a.
func NewJSONAnswer(a *model.Answer) JSONAnswer {
	out := JSONAnswer{
		ID:              a.ID,
		URL:             a.URL,
		Query:           a.Query,
		Answer:          a.Result.Answer,
		Reasoning:       a.Result.Reasoning,
		HTMLElement:     a.Result.HTMLElement,
		CaptchaDetected: a.CaptchaDetected,
		CaptchaAttempts: a.CaptchaAttempts,
		ImageCount:      a.ImageCount,
		ContentHash:     a.ContentHash,
		Model:           a.Model,
		ElapsedSeconds:  a.Elapsed.Seconds(),
	}
	if !a.AskedAt.IsZero() {
		out.AskedAt = a.AskedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

// jsonEntry is one element of a JSON batch report.
type jsonEntry struct {
	URL    string      `json:"url"`
	Query  string      `json:"query"`
	Result *JSONAnswer `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Write outputs a single answer.
func (w *JSONWriter) Write(answer *model.Answer) (int, error) {
	return w.writeJSON(NewJSONAnswer(answer))
}

// WriteBatch outputs an array with one element per entry.
func (w *JSONWriter) WriteBatch(entries []Entry) (int, error) {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = jsonEntry{URL: e.URL, Query: e.Query}
		if e.Failed() {
			if e.Err != nil {
				out[i].Error = e.Err.Error()
			}
			continue
		}
		a := NewJSONAnswer(e.Answer)
		out[i].Result = &a
	}
	return w.writeJSON(out)
}

// writeJSON encodes v without HTML escaping; answers quote markup.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
