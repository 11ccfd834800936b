// Package captcha recognises pages that present a CAPTCHA challenge and
// can ask a vision model to read one.
//
// Detection is a heuristic over the rendered HTML. It accepts false
// negatives on obfuscated challenges and false positives on pages that
// merely talk about CAPTCHAs.
package captcha
