// Package browser loads web pages for analysis.
//
// A Fetcher opens Sessions. Each Session owns one rendering engine, either
// headless Chromium driven over the DevTools protocol (go-rod) or a plain
// HTTP client, and returns the rendered HTML together with the inline data
// of images that look like CAPTCHA challenges. Sessions must be closed;
// WithSession does that on every exit path.
package browser
