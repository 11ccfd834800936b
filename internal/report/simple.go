package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/pageask/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text without colors, so the output
// can be piped to files.
type SimpleWriter struct {
	baseWriter

	// verbose adds the content hash, timing and model to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs a single answer.
func (w *SimpleWriter) Write(answer *model.Answer) (int, error) {
	var sb strings.Builder
	w.writeBanner(&sb, "PAGEASK ANSWER")
	w.writeAnswer(&sb, answer)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs every entry followed by a summary line.
func (w *SimpleWriter) WriteBatch(entries []Entry) (int, error) {
	var sb strings.Builder
	w.writeBanner(&sb, "PAGEASK REPORT")

	failed := 0
	for i, e := range entries {
		fmt.Fprintf(&sb, "[%d/%d] %s\n", i+1, len(entries), e.URL)
		if e.Failed() {
			failed++
			fmt.Fprintf(&sb, "Question:  %s\n", e.Query)
			fmt.Fprintf(&sb, "Status:    FAILED - %v\n\n", e.Err)
			continue
		}
		w.writeAnswer(&sb, e.Answer)
	}

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%d answered, %d failed\n", len(entries)-failed, failed)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := max((ruleWidth-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeAnswer(sb *strings.Builder, a *model.Answer) {
	fmt.Fprintf(sb, "URL:       %s\n", a.URL)
	fmt.Fprintf(sb, "Question:  %s\n", a.Query)
	if !a.AskedAt.IsZero() {
		fmt.Fprintf(sb, "Asked:     %s\n", a.AskedAt.Format(timeFormat))
	}
	fmt.Fprintf(sb, "CAPTCHA:   %s\n", captchaStatus(a))
	fmt.Fprintf(sb, "Images:    %d embedded\n", a.ImageCount)
	if w.verbose {
		if a.Model != "" {
			fmt.Fprintf(sb, "Model:     %s\n", a.Model)
		}
		fmt.Fprintf(sb, "Elapsed:   %s\n", a.Elapsed.Round(time.Millisecond))
		if a.ContentHash != "" {
			fmt.Fprintf(sb, "Content:   %s\n", a.ContentHash)
		}
	}
	sb.WriteString("\n")

	w.writeSection(sb, "ANSWER", a.Result.Answer)
	w.writeSection(sb, "REASONING", a.Result.Reasoning)
	element := a.Result.Element()
	if element == "" {
		element = "(none)"
	}
	w.writeSection(sb, "SUPPORTING ELEMENT", element)
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title, body string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
	for line := range strings.SplitSeq(strings.TrimRight(body, "\n"), "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func captchaStatus(a *model.Answer) string {
	switch {
	case a.CaptchaAttempts == 1:
		return fmt.Sprintf("%s after 1 read attempt", detected(a))
	case a.CaptchaAttempts > 1:
		return fmt.Sprintf("%s after %d read attempts", detected(a), a.CaptchaAttempts)
	default:
		return detected(a)
	}
}

func detected(a *model.Answer) string {
	if a.CaptchaDetected {
		return "detected"
	}
	return "none"
}
