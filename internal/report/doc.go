// Package report writes answers for people and tools.
//
// Three formats are supported:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: JSON for scripts and other tools
//   - MarkdownWriter: Markdown for sharing
//
// Every writer handles a single answer and a batch of entries, where
// failed entries carry their error instead of an answer.
package report
