// Package framework contains the low-level test harness infrastructure that
// is independent of what is being tested. The base package holds shared
// types such as Logger; subpackages provide the test scope machinery
// (h3test), the probe lifecycle (harness), optional values (opt), and small
// generic helpers (helpers).
//
// The general model is:
//
// 1. The harness dials one QUIC connection per test case and aims scripted
// protocol violations at the target, via the override layer in the h3
// package.
//
// 2. A test scope similar to Go's testing.T associates each case with a
// test identifier and accumulates success/failure results, debug output,
// and the probe's observation report.
//
// 3. The domain-specific case scripts live in h3tests; everything in
// framework is reusable plumbing.
package framework
