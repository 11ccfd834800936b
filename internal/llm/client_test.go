package llm

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "llava",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestClientComplete(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		gotBody  map[string]any
		gotAuth  string
		gotReqID string
		gotPath  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-Id")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatResponse("hello"))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/v1", Model: "llava", Temperature: 0.5})

	got, err := c.Complete(t.Context(), []Message{
		System("be brief"),
		UserWithImages("what is this?", "data:image/png;base64,AAAA"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if c.Model() != "llava" {
		t.Errorf("expected model llava, got %q", c.Model())
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer ollama" {
		t.Errorf("expected placeholder bearer token, got %q", gotAuth)
	}
	if gotReqID == "" {
		t.Error("expected X-Request-Id header")
	}
	if gotBody["model"] != "llava" {
		t.Errorf("expected model in body, got %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.5 {
		t.Errorf("expected temperature 0.5, got %v", gotBody["temperature"])
	}

	msgs, ok := gotBody["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", gotBody["messages"])
	}
	user, _ := msgs[1].(map[string]any)
	parts, ok := user["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %v", user["content"])
	}
	img, _ := parts[1].(map[string]any)
	if img["type"] != "image_url" {
		t.Errorf("expected image_url part, got %v", img["type"])
	}
}

func TestClientCompleteTextOnly(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		content any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		var body struct {
			Messages []map[string]any `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) == 1 {
			content = body.Messages[0]["content"]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatResponse("ok"))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Model: "m", APIKey: "secret"})
	if _, err := c.Complete(t.Context(), []Message{User("plain question")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if content != "plain question" {
		t.Errorf("expected plain string content, got %v", content)
	}
}

func TestClientCompleteErrors(t *testing.T) {
	t.Parallel()

	t.Run("server error is not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"model not loaded","type":"server_error"}}`)
		}))
		defer srv.Close()

		c := New(Options{BaseURL: srv.URL, Model: "m"})
		_, err := c.Complete(t.Context(), []Message{User("q")})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("expected exactly 1 request, got %d", calls.Load())
		}
	})

	t.Run("no choices", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
		}))
		defer srv.Close()

		c := New(Options{BaseURL: srv.URL, Model: "m"})
		_, err := c.Complete(t.Context(), []Message{User("q")})
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := New(Options{BaseURL: url, Model: "m"})
		_, err := c.Complete(t.Context(), []Message{User("q")})
		if err == nil || !strings.Contains(err.Error(), "chat completion failed") {
			t.Errorf("expected wrapped transport error, got %v", err)
		}
	})
}

func TestMessageHelpers(t *testing.T) {
	t.Parallel()

	m := UserWithImages("look", "data:image/png;base64,A", "https://example.com/b.png")
	if len(m.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(m.Parts))
	}
	if !m.hasImages() {
		t.Error("expected images")
	}
	if m.Text() != "look" {
		t.Errorf("expected text look, got %q", m.Text())
	}
	if System("s").hasImages() {
		t.Error("expected no images in system message")
	}

	parts := toContentParts([]Part{{Text: ""}, {ImageURL: "x"}})
	if len(parts) != 1 {
		t.Errorf("expected empty text parts to be dropped, got %d", len(parts))
	}
}
