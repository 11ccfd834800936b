package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const systemPrompt = `You analyse web pages. You receive the HTML of a page, with some images
inlined as data URIs, and a question about it.
Find the answer in the page text, its structure or its images.
Always name the specific HTML element that supports your answer.
Reply with a single JSON object with exactly these fields:
- "answer": the direct answer to the question
- "reasoning": a short explanation of how you found it
- "html_element": the supporting element, tag and content, as a string`

const (
	htmlBegin = "----- BEGIN HTML -----"
	htmlEnd   = "----- END HTML -----"
)

func buildUserPrompt(html, question string) string {
	var sb strings.Builder
	sb.WriteString("HTML content:\n")
	sb.WriteString(htmlBegin)
	sb.WriteByte('\n')
	sb.WriteString(html)
	sb.WriteByte('\n')
	sb.WriteString(htmlEnd)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nRespond with a JSON object containing answer, reasoning and html_element.")
	return sb.String()
}

// truncateHTML shortens s to at most limit bytes on a rune boundary and
// appends a marker. A non-positive limit disables truncation.
func truncateHTML(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n<!-- truncated %d bytes -->", len(s)-cut)
}
