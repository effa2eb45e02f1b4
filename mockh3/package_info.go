// Package mockh3 provides the test doubles and the local conformance target
// used to exercise the harness without a real peer: an in-memory transport
// that records writes and lets tests inject transport events, self-signed
// certificate generation, and an HTTP/3 echo server (the target that
// cmd/h3server runs standalone).
package mockh3
