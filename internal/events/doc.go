// Package events carries review session events from the session registry to
// the components that react to them, such as history recording and
// flashcard creation.
//
// The registry emits events without knowing which handlers consume them.
// InMemoryEventEmitter dispatches synchronously; AsyncEmitter queues events
// and dispatches them from a fixed pool of workers.
package events
