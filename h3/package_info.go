// Package h3 is the frame/stream override layer: it gives probe scripts
// complete, unchecked control over the HTTP/3 bytes that cross the wire,
// while delegating transport mechanics to the transport package.
//
// Nothing here validates protocol state. Streams of any declared type can be
// opened any number of times, frames of any type can be placed on any
// stream, and header lists are emitted in exactly the order the caller
// supplies them. Producing a *specific* violation, and nothing else, is the
// calling script's responsibility.
package h3
