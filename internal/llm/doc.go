// Package llm is a small chat client for OpenAI compatible endpoints such
// as Ollama, vLLM or the OpenAI API. It sends text and image parts and
// returns the plain text of the first choice.
package llm
