package captcha

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"

	"github.com/nao1215/pageask/internal/model"
)

// challengePatterns are matched case-insensitively against page text and
// element markup.
var challengePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)captcha`),
	regexp.MustCompile(`(?i)verify.*human`),
	regexp.MustCompile(`(?i)prove.*human`),
	regexp.MustCompile(`(?i)are you a robot`),
	regexp.MustCompile(`(?i)not.*robot`),
}

// markupSelector lists the elements whose markup is inspected.
const markupSelector = "img, input, form, div"

const keyword = "captcha"

func matchesChallenge(s string) bool {
	for _, p := range challengePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// containsKeyword folds s before searching. Casers are stateful, so each
// call gets its own.
func containsKeyword(s string) bool {
	return strings.Contains(cases.Fold().String(s), keyword)
}

// Detect reports whether rawHTML looks like a CAPTCHA challenge. It checks,
// in order: the visible text, the markup of img/input/form/div elements,
// and img src and alt attributes.
func Detect(rawHTML string) bool {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// html.Parse only fails on reader errors.
		return matchesChallenge(rawHTML)
	}

	if matchesChallenge(visibleText(root)) {
		return true
	}

	doc := goquery.NewDocumentFromNode(root)
	if markupMatches(doc) {
		return true
	}

	found := false
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		found = containsKeyword(src) || containsKeyword(alt)
		return !found
	})
	return found
}

// markupMatches tests the rendered markup of the inspected elements. A
// nested element's markup is a substring of its ancestor's, so only the
// outermost matches need rendering.
func markupMatches(doc *goquery.Document) bool {
	outermost := doc.Find(markupSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered(markupSelector).Length() == 0
	})

	found := false
	outermost.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			return true
		}
		found = matchesChallenge(markup)
		return !found
	})
	return found
}

// visibleText concatenates the text nodes of the document, skipping
// script, style and template contents.
func visibleText(root *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return sb.String()
}

// IsSuspiciousImage reports whether an image should be embedded as a likely
// CAPTCHA: its src mentions "captcha" in any case, or its markup matches
// one of the challenge patterns.
func IsSuspiciousImage(src, markup string) bool {
	return containsKeyword(src) || matchesChallenge(markup)
}

// FindImage returns the first image in images whose reference mentions
// "captcha". Keys are visited in sorted order so the choice is stable.
func FindImage(images model.ImageMap) (ref, dataURI string, ok bool) {
	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if containsKeyword(k) {
			return k, images[k], true
		}
	}
	return "", "", false
}
