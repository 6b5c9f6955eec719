// Package dispatch relays values to a handler on a single background
// goroutine.
//
// A [Dispatcher] owns a bounded queue. When DropIfFull is set a full queue
// drops the value and counts it; otherwise Submit blocks until there is room,
// the caller's context ends, or the dispatcher closes. Close drains whatever
// is still queued before returning.
//
// The engine runs two dispatchers: one for audit events and one for outgoing
// email.
package dispatch
