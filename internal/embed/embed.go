// Package embed rewrites image references in an HTML document to inline
// data URIs so the document can be rendered without network access.
package embed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pageask/internal/model"
)

// Embed replaces the src of every <img> found in images with the mapped
// data URI. Images without a mapping keep their original reference.
//
// When no attribute changes, rawHTML is returned as is, so embedding an
// already embedded document is a no-op.
func Embed(rawHTML string, images model.ImageMap) string {
	if len(images) == 0 {
		return rawHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	changed := 0
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		inline, ok := images[src]
		if !ok || inline == src {
			return
		}
		s.SetAttr("src", inline)
		changed++
	})
	if changed == 0 {
		return rawHTML
	}

	out, err := doc.Html()
	if err != nil {
		return rawHTML
	}
	return out
}

// Count returns how many <img> elements in rawHTML reference a key of
// images.
func Count(rawHTML string, images model.ImageMap) int {
	if len(images) == 0 {
		return 0
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return 0
	}
	n := 0
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); images[src] != "" {
			n++
		}
	})
	return n
}
