package analyzer

import (
	"bytes"
	"encoding/json"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/nao1215/pageask/internal/model"
)

// Default texts used when the reply lacks a field or is not JSON at all.
const (
	DefaultReasoning  = "Direct response from model"
	FallbackReasoning = "Raw response from model (not in expected JSON format)"
)

// ReplyKind tells how a model reply was interpreted.
type ReplyKind int

const (
	// ReplyRaw means no JSON object could be extracted.
	ReplyRaw ReplyKind = iota
	// ReplyStructured means the reply held a JSON object.
	ReplyStructured
)

func (k ReplyKind) String() string {
	if k == ReplyStructured {
		return "structured"
	}
	return "raw"
}

// Reply is a parsed model reply. Fields is only set for ReplyStructured.
type Reply struct {
	Kind   ReplyKind
	Raw    string
	Fields map[string]any
}

// ParseReply extracts a JSON object from raw. It accepts the object on its
// own, wrapped in a markdown code fence, surrounded by prose, or written as
// JSON5 (single quotes, trailing commas, comments). An object cut out of
// surrounding prose only counts when it carries one of the reply fields.
func ParseReply(raw string) Reply {
	for _, c := range candidates(raw) {
		fields, ok := decodeObject(c.text)
		if !ok {
			continue
		}
		if c.embedded && !hasReplyField(fields) {
			continue
		}
		return Reply{Kind: ReplyStructured, Raw: raw, Fields: fields}
	}
	return Reply{Kind: ReplyRaw, Raw: raw}
}

// replyFields are the keys the system prompt asks the model to return.
var replyFields = []string{"answer", "reasoning", "html_element"}

func hasReplyField(fields map[string]any) bool {
	for _, k := range replyFields {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

// candidate is a piece of the reply that may hold the JSON object.
// embedded marks a brace span taken from inside other text.
type candidate struct {
	text     string
	embedded bool
}

func candidates(raw string) []candidate {
	trimmed := strings.TrimSpace(raw)
	out := []candidate{{text: trimmed}}
	if unfenced, ok := stripFence(trimmed); ok {
		out = append(out, candidate{text: unfenced})
		trimmed = unfenced
	}
	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start >= 0 && end > start && (start > 0 || end < len(trimmed)-1) {
		out = append(out, candidate{text: trimmed[start : end+1], embedded: true})
	}
	return out
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return "", false
	}
	body := s[3 : len(s)-3]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if !strings.ContainsAny(body[:nl], "{[\"") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body), true
}

func decodeObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err == nil {
		return fields, fields != nil
	}
	if err := json5.Unmarshal([]byte(s), &fields); err == nil {
		return fields, fields != nil
	}
	return nil, false
}

// Result converts the reply into an AnalysisResult.
func (r Reply) Result() model.AnalysisResult {
	if r.Kind != ReplyStructured {
		return model.AnalysisResult{
			Answer:    r.Raw,
			Reasoning: FallbackReasoning,
		}
	}

	res := model.AnalysisResult{
		Answer:    r.Raw,
		Reasoning: DefaultReasoning,
	}
	if v, ok := fieldString(r.Fields, "answer"); ok {
		res.Answer = v
	}
	if v, ok := fieldString(r.Fields, "reasoning"); ok {
		res.Reasoning = v
	}
	if v, ok := fieldString(r.Fields, "html_element"); ok {
		res.HTMLElement = &v
	}
	return res
}

// fieldString returns the field as text. Missing and null fields report
// false; non-string values are rendered as compact JSON.
func fieldString(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", false
	}
	return strings.TrimSpace(buf.String()), true
}
