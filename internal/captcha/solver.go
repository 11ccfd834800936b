package captcha

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/pageask/internal/llm"
)

// ErrSolve is returned when the model could not be asked to read a CAPTCHA.
var ErrSolve = errors.New("captcha solve failed")

const (
	imageSystemPrompt = "You read CAPTCHA images. Reply with exactly the characters shown " +
		"in the image and nothing else."
	imageQuestion = "What text is shown in this CAPTCHA image?"

	textSystemPrompt = "You answer text CAPTCHA challenges such as arithmetic or simple " +
		"logic questions. Reply with the answer only, without explanation."
)

// Completer sends a chat request and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, msgs []llm.Message) (string, error)
}

// Solver asks a vision model to read CAPTCHA challenges.
type Solver struct {
	model Completer
}

// NewSolver returns a Solver backed by model.
func NewSolver(model Completer) *Solver {
	return &Solver{model: model}
}

// SolveImage returns the text the model reads from the image at dataURI.
// hint, when non-empty, is passed along as extra context such as the
// surrounding form markup.
func (s *Solver) SolveImage(ctx context.Context, dataURI, hint string) (string, error) {
	question := imageQuestion
	if hint != "" {
		question += "\n\nContext: " + hint
	}
	return s.ask(ctx, []llm.Message{
		llm.System(imageSystemPrompt),
		llm.UserWithImages(question, dataURI),
	})
}

// SolveText answers a textual challenge such as "What is 3 + 4?".
func (s *Solver) SolveText(ctx context.Context, challenge string) (string, error) {
	return s.ask(ctx, []llm.Message{
		llm.System(textSystemPrompt),
		llm.User("Solve this CAPTCHA challenge: " + challenge),
	})
}

func (s *Solver) ask(ctx context.Context, msgs []llm.Message) (string, error) {
	reply, err := s.model.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSolve, err)
	}
	return cleanSolution(reply), nil
}

// cleanSolution strips surrounding whitespace and quotes.
func cleanSolution(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
