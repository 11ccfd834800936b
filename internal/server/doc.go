// Package server exposes the ask pipeline over HTTP.
//
// Routes:
//
//	POST /ask      {"url": "...", "query": "..."} -> answer, reasoning, html_element
//	GET  /health   {"status": "healthy"}
//	GET  /metrics  Prometheus exposition
//
// Invalid requests get 422 with {"detail": "..."}; pipeline failures get
// 500 with {"detail": "Error processing request: ..."}. Every response
// carries an X-Request-ID header.
package server
