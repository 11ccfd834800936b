package analyzer

import (
	"context"
	"log/slog"
	"sort"

	"github.com/nao1215/pageask/internal/embed"
	"github.com/nao1215/pageask/internal/llm"
	"github.com/nao1215/pageask/internal/model"
)

// maxImageParts caps how many images are attached as separate image parts.
const maxImageParts = 8

// Completer sends a chat request and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, msgs []llm.Message) (string, error)
}

// Analyzer answers questions about HTML pages with a language model.
type Analyzer struct {
	model        Completer
	modelName    string
	maxHTMLChars int
	imageParts   bool
	logger       *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxHTMLChars truncates the HTML sent to the model to n bytes.
// Zero, the default, sends the whole page.
func WithMaxHTMLChars(n int) Option {
	return func(a *Analyzer) {
		a.maxHTMLChars = n
	}
}

// WithImageParts controls whether embedded images are also attached as
// image parts of the user message. Enabled by default; vision models
// cannot see pixels in base64 text.
func WithImageParts(enabled bool) Option {
	return func(a *Analyzer) {
		a.imageParts = enabled
	}
}

// WithModelName records the model name in errors.
func WithModelName(name string) Option {
	return func(a *Analyzer) {
		a.modelName = name
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Analyzer that sends its prompts to m.
func New(m Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		model:      m,
		imageParts: true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze asks question about html. Images, when given, are embedded into
// the document first. The only error is a *ModelError.
func (a *Analyzer) Analyze(ctx context.Context, html, question string, images model.ImageMap) (model.AnalysisResult, error) {
	if len(images) > 0 {
		html = embed.Embed(html, images)
	}

	msgs := []llm.Message{
		llm.System(systemPrompt),
		a.userMessage(truncateHTML(html, a.maxHTMLChars), question, images),
	}

	raw, err := a.model.Complete(ctx, msgs)
	if err != nil {
		return model.AnalysisResult{}, &ModelError{Model: a.modelName, Err: err}
	}

	reply := ParseReply(raw)
	a.logger.Debug("model replied",
		"kind", reply.Kind.String(),
		"bytes", len(raw),
	)
	return reply.Result(), nil
}

func (a *Analyzer) userMessage(html, question string, images model.ImageMap) llm.Message {
	text := buildUserPrompt(html, question)
	if !a.imageParts || len(images) == 0 {
		return llm.User(text)
	}
	return llm.UserWithImages(text, imageURIs(images)...)
}

// imageURIs returns the distinct inline images sorted by reference.
func imageURIs(images model.ImageMap) []string {
	refs := make([]string, 0, len(images))
	for ref := range images {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, min(len(refs), maxImageParts))
	for _, ref := range refs {
		uri := images[ref]
		if !model.IsDataURI(uri) || seen[uri] {
			continue
		}
		seen[uri] = true
		out = append(out, uri)
		if len(out) == maxImageParts {
			break
		}
	}
	return out
}
