package mockh3

import (
	"errors"
	"fmt"
	"sync"

	"github.com/h3probe/h3probe/framework/helpers"
	"github.com/h3probe/h3probe/transport"
)

// ErrConnectionClosed is returned by MockConnection writes and opens after
// the connection has been closed from either side.
var ErrConnectionClosed = errors.New("connection is closed")

// MockConnection is an in-memory implementation of transport.Connection. It
// allocates stream IDs with real QUIC numbering (client bidi 0, 4, 8...;
// client uni 2, 6, 10...), records every byte written per stream, and lets
// tests inject the events a real peer would produce.
type MockConnection struct {
	mu          sync.Mutex
	nextBidi    transport.StreamID
	nextUni     transport.StreamID
	openOrder   []transport.StreamID
	writes      map[transport.StreamID][]byte
	finished    map[transport.StreamID]bool
	closed      bool
	closeCode   uint64
	closeReason string

	forcedWriteErr error
	forcedOpenErr  error

	events       chan transport.Event
	eventsClosed bool
}

// NewMockConnection returns an open mock connection.
func NewMockConnection() *MockConnection {
	return &MockConnection{
		nextBidi: 0,
		nextUni:  2,
		writes:   make(map[transport.StreamID][]byte),
		finished: make(map[transport.StreamID]bool),
		events:   make(chan transport.Event, 16),
	}
}

// OpenUniStream allocates the next client-initiated unidirectional stream.
func (c *MockConnection) OpenUniStream() (transport.StreamID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.openErrLocked(); err != nil {
		return 0, err
	}
	id := c.nextUni
	c.nextUni += 4
	c.registerLocked(id)
	return id, nil
}

// OpenStream allocates the next client-initiated bidirectional stream.
func (c *MockConnection) OpenStream() (transport.StreamID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.openErrLocked(); err != nil {
		return 0, err
	}
	id := c.nextBidi
	c.nextBidi += 4
	c.registerLocked(id)
	return id, nil
}

func (c *MockConnection) openErrLocked() error {
	if c.forcedOpenErr != nil {
		return c.forcedOpenErr
	}
	if c.closed {
		return ErrConnectionClosed
	}
	return nil
}

func (c *MockConnection) registerLocked(id transport.StreamID) {
	c.openOrder = append(c.openOrder, id)
	c.writes[id] = nil
}

// Write appends p to the stream's recorded bytes.
func (c *MockConnection) Write(id transport.StreamID, p []byte, endStream bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.forcedWriteErr != nil {
		return c.forcedWriteErr
	}
	if c.closed {
		return ErrConnectionClosed
	}
	if _, ok := c.writes[id]; !ok {
		return fmt.Errorf("write to unknown stream %d", id)
	}
	if c.finished[id] {
		return fmt.Errorf("write to stream %d after end_stream", id)
	}
	c.writes[id] = append(c.writes[id], p...)
	if endStream {
		c.finished[id] = true
	}
	return nil
}

// Events returns the injectable event channel.
func (c *MockConnection) Events() <-chan transport.Event {
	return c.events
}

// CloseWithError records a local close. Pending writes fail afterward, and the event
// channel is closed without emitting a Terminated event: the probe has stopped listening
// by the time it tears its own connection down, so only reactions from the peer are ever
// observable as events. Closing an already-closed connection is a no-op, as it is for a
// real QUIC connection.
func (c *MockConnection) CloseWithError(code uint64, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	if !c.eventsClosed {
		c.eventsClosed = true
		close(c.events)
	}
	return nil
}

// InjectTermination emits a remote Terminated event, closes the event
// channel, and fails all subsequent writes, mimicking a peer that closed the
// connection with the given application error code.
func (c *MockConnection) InjectTermination(code uint64, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.eventsClosed {
		return
	}
	c.events <- transport.Terminated{Code: code, Reason: reason, Remote: true}
	c.eventsClosed = true
	close(c.events)
}

// InjectStreamReset emits a StreamReset event for the given stream.
func (c *MockConnection) InjectStreamReset(id transport.StreamID, code uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eventsClosed {
		return
	}
	c.events <- transport.StreamReset{Stream: id, Code: code}
}

// EndEvents closes the event channel without a termination, for tests that
// need the listener to drain and stop.
func (c *MockConnection) EndEvents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eventsClosed {
		return
	}
	c.eventsClosed = true
	close(c.events)
}

// FailWritesWith makes every subsequent Write return err (nil restores
// normal behavior).
func (c *MockConnection) FailWritesWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forcedWriteErr = err
}

// FailOpensWith makes every subsequent stream open return err (nil restores
// normal behavior).
func (c *MockConnection) FailOpensWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forcedOpenErr = err
}

// WrittenBytes returns everything written to the stream so far.
func (c *MockConnection) WrittenBytes(id transport.StreamID) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return helpers.CopyOf(c.writes[id])
}

// StreamFinished reports whether end_stream was set on the stream.
func (c *MockConnection) StreamFinished(id transport.StreamID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished[id]
}

// OpenedStreams returns the IDs of all opened streams in open order.
func (c *MockConnection) OpenedStreams() []transport.StreamID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return helpers.CopyOf(c.openOrder)
}

// Closed reports whether the connection was closed locally, and with what
// application error code and reason.
func (c *MockConnection) Closed() (bool, uint64, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeCode, c.closeReason
}
