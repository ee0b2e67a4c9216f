// Package server implements the connection acceptor and per-connection
// request handler for the event-ingestion service.
//
// # Architecture
//
//	┌───────────────────────────────────────┐
//	│              Server                   │
//	├───────────────────────────────────────┤
//	│  Acceptor:                            │
//	│    TCP listener (REUSEADDR/REUSEPORT) │
//	│    one goroutine per connection       │
//	├───────────────────────────────────────┤
//	│  Handler (per connection):            │
//	│    bounded initial read               │
//	│    protocol.Classify                  │
//	│    stats  → snapshot response         │
//	│    event  → apply + snapshot response │
//	│    other  → 404                       │
//	│    write response, close              │
//	└───────────────────────────────────────┘
//
// # Concurrency Model
//
// Connections are fully independent: each handler goroutine runs to
// completion and touches only the shared store, which handles its own
// synchronization. No cross-connection ordering is guaranteed. Within one
// connection the apply-then-snapshot sequence is strictly ordered, so an
// event response always reflects that connection's own write.
//
// # Failure Containment
//
// Every failure is contained within its connection: transport errors, decode
// failures, and handler panics all resolve to the fixed 500 response (or a
// silent close when the peer is already gone) and leave the acceptor and all
// other handlers running. Accept errors are logged and retried.
//
// # Shutdown
//
// Start runs until its context is cancelled, which closes the listener. Stop
// then drains in-flight handlers up to a grace period. Handlers are never
// cancelled mid-request; each always writes its one response and closes.
package server
