// Package transport defines the narrow boundary between the probe harness and
// the external QUIC engine: dialing, stream allocation, raw writes, teardown,
// and an asynchronous event stream describing what the peer did in response.
//
// The rest of the codebase only depends on the Connection interface and the
// Event union defined here; the quic-go adapter is the production
// implementation, and mockh3 provides an in-memory one for tests.
package transport
