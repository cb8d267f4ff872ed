// Package gemini implements the generation.ContentGenerator and
// generation.AnswerEvaluator interfaces with Google's Gemini API.
//
// This package is an infrastructure adapter: it turns question requests and
// learner answers into prompts, calls the model, and maps the JSON replies
// back into generation types without leaking genai types to callers.
//
// Prompts are text/template files embedded in the binary. Every call asks
// the model for a JSON response and validates it before returning.
//
// Transient API failures (rate limits, server errors, timeouts) are retried
// with exponential backoff and jitter; blocked content and malformed
// responses are permanent and returned immediately.
package gemini
