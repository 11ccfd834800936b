// Package pipeline answers questions about web pages.
//
// A Pipeline runs one question end to end: open a browser session, fetch
// the page, check for a CAPTCHA, optionally read it and refetch, then ask
// the language model and record the answer. The stages are called
// directly in that order. Every Ask owns its session exclusively and
// closes it before returning.
//
// BatchProcessor runs many questions concurrently with errgroup,
// bounding the number of browsers alive at once.
package pipeline
