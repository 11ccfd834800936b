package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/pageask/internal/model"
)

// MarkdownWriter outputs answers as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs a single answer.
func (w *MarkdownWriter) Write(answer *model.Answer) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("pageask Answer")
	md.PlainText("")
	w.writeProperties(md, answer)
	w.writeCaptchaAlert(md, answer)
	w.writeResult(md, answer, md.H2)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a summary table followed by one section per entry.
func (w *MarkdownWriter) WriteBatch(entries []Entry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("pageask Report")
	md.PlainText("")

	rows := make([][]string, len(entries))
	failed := 0
	for i, e := range entries {
		status, answer := "✅ Answered", "-"
		if e.Failed() {
			failed++
			status = "❌ Failed"
		} else {
			answer = truncateString(e.Answer.Result.Answer, 60)
		}
		rows[i] = []string{strconv.Itoa(i + 1), e.URL, truncateString(e.Query, 50), answer, status}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "URL", "Question", "Answer", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if failed > 0 {
		md.Warningf("%d of %d question(s) could not be answered.", failed, len(entries))
		md.PlainText("")
	}

	for i, e := range entries {
		md.H2(fmt.Sprintf("%d. %s", i+1, e.URL))
		md.PlainText("")
		if e.Failed() {
			md.PlainTextf("**Question:** %s", e.Query)
			md.PlainText("")
			md.Cautionf("Error: %v", e.Err)
			md.PlainText("")
			continue
		}
		w.writeProperties(md, e.Answer)
		w.writeCaptchaAlert(md, e.Answer)
		w.writeResult(md, e.Answer, md.H3)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeProperties(md *markdown.Markdown, a *model.Answer) {
	rows := [][]string{
		{"URL", a.URL},
		{"Question", a.Query},
	}
	if !a.AskedAt.IsZero() {
		rows = append(rows, []string{"Asked", a.AskedAt.Format(timeFormat)})
	}
	if a.Model != "" {
		rows = append(rows, []string{"Model", "`" + a.Model + "`"})
	}
	rows = append(rows,
		[]string{"CAPTCHA", captchaStatus(a)},
		[]string{"Embedded images", strconv.Itoa(a.ImageCount)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCaptchaAlert(md *markdown.Markdown, a *model.Answer) {
	if !a.CaptchaDetected {
		return
	}
	md.Warning("The analyzed page shows a CAPTCHA challenge. The answer may describe the challenge instead of the content behind it.")
	md.PlainText("")
}

func (w *MarkdownWriter) writeResult(md *markdown.Markdown, a *model.Answer, heading func(string) *markdown.Markdown) {
	heading("Answer")
	md.PlainText("")
	md.PlainText(a.Result.Answer)
	md.PlainText("")

	heading("Reasoning")
	md.PlainText("")
	md.PlainText(a.Result.Reasoning)
	md.PlainText("")

	heading("Supporting Element")
	md.PlainText("")
	if a.Result.HTMLElement == nil {
		md.PlainText("The model did not name an element.")
	} else {
		md.CodeBlocks(markdown.SyntaxHighlight("html"), *a.Result.HTMLElement)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pageask](https://github.com/nao1215/pageask)*")
}
