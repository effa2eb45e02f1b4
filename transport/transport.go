package transport

import "fmt"

// StreamID is a QUIC stream identifier as assigned by the transport.
// Client-initiated bidirectional streams are 0, 4, 8, ...; client-initiated
// unidirectional streams are 2, 6, 10, ...
type StreamID int64

// Connection is the minimal transport surface the harness and the override
// layer require. All writes are buffered sends: a nil error means the bytes
// were queued with the transport, not that the peer accepted them.
type Connection interface {
	// OpenUniStream allocates a new locally-initiated unidirectional stream
	// and returns its ID. No bytes are written.
	OpenUniStream() (StreamID, error)

	// OpenStream allocates a new locally-initiated bidirectional stream and
	// returns its ID. No bytes are written.
	OpenStream() (StreamID, error)

	// Write queues p on the given stream, optionally closing the sending side
	// afterward. The write is all-or-nothing: on error, none of p should be
	// considered sent.
	Write(id StreamID, p []byte, endStream bool) error

	// Events returns the channel on which asynchronous transport events are
	// delivered. The channel is closed once a Terminated event has been
	// emitted and all internal readers have drained.
	Events() <-chan Event

	// CloseWithError closes the connection with an application error code.
	CloseWithError(code uint64, reason string) error
}

// Event is a closed union of the transport-level signals the harness
// observes. The concrete types are Terminated and StreamReset; listeners
// switch over them exhaustively.
type Event interface {
	fmt.Stringer
	isTransportEvent()
}

// Terminated reports that the connection is gone. Remote distinguishes a
// peer-initiated close (CONNECTION_CLOSE received) from a local one (our own
// teardown, idle timeout, handshake failure). Code carries the application
// or transport error code from the close; for closes that carry no peer code,
// such as an idle timeout, Code is zero and Reason describes the cause.
type Terminated struct {
	Code   uint64
	Reason string
	Remote bool
}

func (Terminated) isTransportEvent() {}

func (e Terminated) String() string {
	origin := "local"
	if e.Remote {
		origin = "remote"
	}
	return fmt.Sprintf("connection terminated (%s, code 0x%x): %s", origin, e.Code, e.Reason)
}

// StreamReset reports that the peer reset one of our streams (RESET_STREAM
// on a receiving half, or STOP_SENDING surfacing as a reset on a sending
// half). It is informational and does not imply connection failure.
type StreamReset struct {
	Stream StreamID
	Code   uint64
}

func (StreamReset) isTransportEvent() {}

func (e StreamReset) String() string {
	return fmt.Sprintf("stream %d reset (code 0x%x)", e.Stream, e.Code)
}
