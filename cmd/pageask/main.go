// Package main is the entry point for pageask.
//
// pageask loads a web page in a headless browser, inlines its CAPTCHA-like
// images as data URIs and asks a vision capable language model a question
// about it. It runs as a one-shot CLI or as an HTTP service.
package main

func main() {
	Execute()
}
