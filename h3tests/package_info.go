// Package h3tests contains the violation-case suite.
//
// Cases in this package use other packages as follows:
//
// data: header-violation data file schemas and loader
//
// h3test: the basic test scope framework
//
// harness: probe lifecycle, per-case reports, and connections to the target
//
// h3: the override layer that puts deliberately illegal bytes on the wire
package h3tests
