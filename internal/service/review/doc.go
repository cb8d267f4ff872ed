// Package review implements adaptive review sessions.
//
// A Session merges due flashcards with on-demand practice questions into a
// single queue and hands items out through a two-phase protocol: Next draws
// (and for questions, generates) the head of the queue without consuming it,
// and only a successful submit removes it. Repeated draws before a submit
// always return the same item.
//
// Sessions are owned by a Registry, which serializes every operation on a
// session and evicts completed sessions after a retention window.
package review
