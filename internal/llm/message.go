package llm

import (
	"strings"

	"github.com/openai/openai-go/v3"
)

// Role identifies the author of a message.
type Role string

// Supported roles.
const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Part is one piece of message content: text or an image URL. Image URLs
// may be data URIs.
type Part struct {
	Text     string
	ImageURL string
}

// Message is a single chat turn.
type Message struct {
	Role  Role
	Parts []Part
}

// System returns a system message.
func System(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{{Text: text}}}
}

// User returns a text-only user message.
func User(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// UserWithImages returns a user message with text followed by images.
func UserWithImages(text string, imageURLs ...string) Message {
	parts := make([]Part, 0, len(imageURLs)+1)
	parts = append(parts, Part{Text: text})
	for _, u := range imageURLs {
		parts = append(parts, Part{ImageURL: u})
	}
	return Message{Role: RoleUser, Parts: parts}
}

// Text concatenates the text parts of m.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (m Message) hasImages() bool {
	for _, p := range m.Parts {
		if p.ImageURL != "" {
			return true
		}
	}
	return false
}

func toChatMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case m.hasImages():
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: toContentParts(m.Parts),
					},
				},
			})
		default:
			out = append(out, openai.UserMessage(m.Text()))
		}
	}
	return out
}

func toContentParts(parts []Part) []openai.ChatCompletionContentPartUnionParam {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		if p.ImageURL != "" {
			out = append(out, openai.ChatCompletionContentPartUnionParam{
				OfImageURL: &openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
						URL:    p.ImageURL,
						Detail: "auto",
					},
				},
			})
			continue
		}
		if p.Text == "" {
			continue
		}
		out = append(out, openai.ChatCompletionContentPartUnionParam{
			OfText: &openai.ChatCompletionContentPartTextParam{Text: p.Text},
		})
	}
	return out
}
