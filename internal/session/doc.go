// Package session maintains the cache of root directory to backend
// session mappings.
//
// A Manager owns one registry keyed by root directory. Sessions are
// created lazily through an injected Factory and started through a
// Transport; the manager records the session identifier as soon as the
// start call returns, so the slot is reserved before the backend has
// finished initializing and a second Add for the same root cannot race
// a duplicate start.
//
// # Lifecycle
//
// An entry is absent, live, or removed. Add for a live root returns the
// existing identifier without invoking the factory. When a session
// terminates, its exit listeners fire; the manager's own cleanup
// listener runs first and deletes the entry, so a subsequent Add builds
// a brand-new session rather than resurrecting the old handle.
//
// # Exit listeners
//
// Teardown logic is an explicit ordered listener list on Config, not
// nested callback wrapping. Listeners run in registration order; the
// manager prepends its cleanup listener ahead of any the factory
// registered.
//
// # Thread safety
//
// All Manager state is guarded by a single mutex, serializing Add, exit
// cleanup, and Clients with each other. Transports must deliver exit
// notifications asynchronously, never from within Start.
package session
