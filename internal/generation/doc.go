// Package generation is the boundary between the review engine and content
// providers. It defines the ContentGenerator and AnswerEvaluator interfaces
// that produce practice questions and grade free-text answers, plus a
// fallback implementation that works without any language model. The
// Gemini-backed implementation lives in internal/platform/gemini.
package generation
