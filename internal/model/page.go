package model

import (
	"encoding/hex"
	"maps"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// ImageMap maps an image reference, the raw src attribute value as it
// appears in the page, to a data URI holding the image bytes.
type ImageMap map[string]string

// Clone returns an independent copy of m. A nil map clones to nil.
func (m ImageMap) Clone() ImageMap {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// PageContent is the result of fetching one URL. It is not modified after
// the fetch returns.
type PageContent struct {
	// URL is the address that was fetched.
	URL string `json:"url"`

	// HTML is the fully rendered document, after scripts ran.
	HTML string `json:"-"`

	// Images holds the embeddable images found on the page.
	Images ImageMap `json:"-"`

	// CaptchaDetected is set by the pipeline after running the detector.
	CaptchaDetected bool `json:"captcha_detected"`

	// FetchedAt is when rendering finished.
	FetchedAt time.Time `json:"fetched_at"`
}

// ContentHash returns the hex SHA3-256 of the rendered HTML, or "" for an
// empty document.
func (p *PageContent) ContentHash() string {
	return HashContent(p.HTML)
}

// HashContent returns the hex SHA3-256 of s, or "" when s is empty.
func HashContent(s string) string {
	if s == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// dataImagePrefix is the prefix of inline image references.
const dataImagePrefix = "data:image"

// IsDataURI reports whether ref is already an inline image.
func IsDataURI(ref string) bool {
	return len(ref) >= len(dataImagePrefix) && strings.EqualFold(ref[:len(dataImagePrefix)], dataImagePrefix)
}
