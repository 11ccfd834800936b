package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHashContent(t *testing.T) {
	t.Parallel()

	t.Run("known vector", func(t *testing.T) {
		t.Parallel()
		want := "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"
		if got := HashContent("abc"); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("empty document has no hash", func(t *testing.T) {
		t.Parallel()
		p := &PageContent{}
		if got := p.ContentHash(); got != "" {
			t.Errorf("expected empty hash, got %q", got)
		}
	})

	t.Run("different documents differ", func(t *testing.T) {
		t.Parallel()
		a := &PageContent{HTML: "<p>a</p>"}
		b := &PageContent{HTML: "<p>b</p>"}
		if a.ContentHash() == b.ContentHash() {
			t.Error("expected different hashes")
		}
	})
}

func TestIsDataURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  string
		want bool
	}{
		{"data:image/png;base64,AAAA", true},
		{"DATA:IMAGE/GIF;base64,R0lG", true},
		{"data:text/plain,hello", false},
		{"https://example.com/captcha.png", false},
		{"/img/data:image.png", false},
		{"data:", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()
			if got := IsDataURI(tt.ref); got != tt.want {
				t.Errorf("IsDataURI(%q) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestImageMapClone(t *testing.T) {
	t.Parallel()

	orig := ImageMap{"/a.png": "data:image/png;base64,AA"}
	clone := orig.Clone()
	clone["/b.png"] = "data:image/png;base64,BB"

	if len(orig) != 1 {
		t.Errorf("expected original to be untouched, got %v", orig)
	}
	if ImageMap(nil).Clone() != nil {
		t.Error("expected nil clone of nil map")
	}
}

func TestAnalysisResultJSON(t *testing.T) {
	t.Parallel()

	t.Run("absent element is null", func(t *testing.T) {
		t.Parallel()
		b, err := json.Marshal(AnalysisResult{Answer: "42", Reasoning: "r"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(b), `"html_element":null`) {
			t.Errorf("expected null html_element, got %s", b)
		}
	})

	t.Run("present element", func(t *testing.T) {
		t.Parallel()
		r := AnalysisResult{Answer: "42", HTMLElement: StringPtr("<span>42</span>")}
		if r.Element() != "<span>42</span>" {
			t.Errorf("unexpected element %q", r.Element())
		}
		if (AnalysisResult{}).Element() != "" {
			t.Error("expected empty element for nil pointer")
		}
	})
}
