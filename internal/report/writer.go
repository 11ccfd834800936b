package report

import (
	"io"

	"github.com/nao1215/pageask/internal/model"
)

// Writer outputs answers in one format.
type Writer interface {
	// Write outputs a single answer.
	Write(answer *model.Answer) (int, error)

	// WriteBatch outputs one entry per asked page, failures included.
	WriteBatch(entries []Entry) (int, error)
}

// Entry is one row of a batch report. Exactly one of Answer and Err is set.
type Entry struct {
	URL    string
	Query  string
	Answer *model.Answer
	Err    error
}

// Failed reports whether the entry has no answer.
func (e Entry) Failed() bool {
	return e.Answer == nil
}

// EntriesFromAnswers wraps stored answers, e.g. from the history database.
func EntriesFromAnswers(answers []*model.Answer) []Entry {
	entries := make([]Entry, len(answers))
	for i, a := range answers {
		entries[i] = Entry{URL: a.URL, Query: a.Query, Answer: a}
	}
	return entries
}

// MultiWriter writes to multiple Writers in order, stopping at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the answer to all configured Writers.
func (m *MultiWriter) Write(answer *model.Answer) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(answer)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the entries to all configured Writers.
func (m *MultiWriter) WriteBatch(entries []Entry) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(entries)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString shortens s to maxLen runes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// timeFormat is used for timestamps in text and Markdown reports.
const timeFormat = "2006-01-02 15:04:05 MST"
