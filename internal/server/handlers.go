package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxBodyBytes caps the /ask request body.
const maxBodyBytes = 1 << 20

// AskRequest is the body of POST /ask.
type AskRequest struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

// AskResponse is the body of a successful POST /ask.
type AskResponse struct {
	URL         string  `json:"url"`
	Query       string  `json:"query"`
	Answer      string  `json:"answer"`
	Reasoning   string  `json:"reasoning"`
	HTMLElement *string `json:"html_element"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

var (
	errEmptyBody    = errors.New("request body is empty")
	errMissingURL   = errors.New("url is required")
	errInvalidURL   = errors.New("url must be an absolute http or https URL")
	errMissingQuery = errors.New("query is required")
)

// decodeAskRequest parses and validates the body of POST /ask.
func decodeAskRequest(r *http.Request) (AskRequest, error) {
	var req AskRequest

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, errEmptyBody
		}
		return req, err
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return req, errMissingURL
	}
	if !validTargetURL(req.URL) {
		return req, errInvalidURL
	}
	if strings.TrimSpace(req.Query) == "" {
		return req, errMissingQuery
	}
	return req, nil
}

// validTargetURL reports whether raw is an absolute http(s) URL with a host.
func validTargetURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, err := decodeAskRequest(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request: "+err.Error())
		return
	}

	answer, err := s.asker.Ask(r.Context(), req.URL, req.Query)
	if err != nil {
		s.logger.Error("ask failed",
			"url", req.URL,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeDetail(w, http.StatusInternalServerError, "Error processing request: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, AskResponse{
		URL:         req.URL,
		Query:       req.Query,
		Answer:      answer.Result.Answer,
		Reasoning:   answer.Result.Reasoning,
		HTMLElement: answer.Result.HTMLElement,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}
