// Package h3test contains the test runner that drives probe cases against a target endpoint.
// It is similar to Go's testing package, but runs as regular application code rather than
// under "go test", and adds richer capabilities for configuration, logging, and result
// reporting.
package h3test
