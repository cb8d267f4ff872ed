// Package api exposes the review engine over HTTP: review sessions, decks
// and progress. Handlers decode and validate JSON requests, call the
// services, and map service errors onto status codes and safe messages in
// one place (errors.go). NewRouter assembles the chi router with its
// middleware.
package api
