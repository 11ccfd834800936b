package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pageask/internal/database"
	"github.com/nao1215/pageask/internal/model"
)

func seedHistory(t *testing.T, dir string) {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, url := range []string{"https://a.example", "https://b.example", "https://a.example"} {
		a := &model.Answer{
			URL:     url,
			Query:   "What is this?",
			Result:  model.AnalysisResult{Answer: "answer", Reasoning: "reason"},
			AskedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.SaveAnswer(context.Background(), a); err != nil {
			t.Fatalf("failed to save answer: %v", err)
		}
	}
}

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"history"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("no database yet", func(t *testing.T) {
		t.Parallel()
		out, err := runHistory(t, "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No answers recorded yet.") {
			t.Errorf("expected empty history message, got %q", out)
		}
	})

	t.Run("json filtered by url", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedHistory(t, dir)

		out, err := runHistory(t, "--db-dir", dir, "--url", "https://a.example", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var entries []struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(out), &entries); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, out)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		for _, e := range entries {
			if e.URL != "https://a.example" {
				t.Errorf("expected only https://a.example, got %q", e.URL)
			}
		}
	})

	t.Run("text with limit", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedHistory(t, dir)

		out, err := runHistory(t, "--db-dir", dir, "-n", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "PAGEASK REPORT") {
			t.Errorf("expected report banner, got %q", out)
		}
		if !strings.Contains(out, "1 answered, 0 failed") {
			t.Errorf("expected one answer, got %q", out)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()
		_, err := runHistory(t, "--db-dir", t.TempDir(), "-j", "-m")
		if err == nil {
			t.Error("expected error for --json with --markdown")
		}
	})
}
