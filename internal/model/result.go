package model

// AnalysisResult is the structured answer extracted from a model reply.
type AnalysisResult struct {
	// Answer is the direct answer to the question.
	Answer string `json:"answer"`

	// Reasoning explains how the answer was derived.
	Reasoning string `json:"reasoning"`

	// HTMLElement is the element that supports the answer. Nil means the
	// model did not name one and serializes as null.
	HTMLElement *string `json:"html_element"`
}

// Element returns the supporting element, or "" when absent.
func (r AnalysisResult) Element() string {
	if r.HTMLElement == nil {
		return ""
	}
	return *r.HTMLElement
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
