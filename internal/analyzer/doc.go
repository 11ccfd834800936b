// Package analyzer asks a language model a question about an HTML page and
// turns the reply into a model.AnalysisResult.
//
// Analyze only fails when the model call fails. A reply that is not the
// requested JSON object still produces a result: the reply text becomes
// the answer and the reasoning says the format was not followed.
package analyzer
