package h3

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go/quicvarint"

	"github.com/h3probe/h3probe/transport"
)

// DeclaredStream is one entry of the stream-type registry: a locally-opened
// unidirectional stream and the type it declared on the wire.
type DeclaredStream struct {
	ID   transport.StreamID
	Type StreamType
}

// Conn is the override-layer handle over one transport connection.
//
// Unlike a conformant HTTP/3 connection, nothing happens automatically at
// construction: no control stream, no SETTINGS, no QPACK streams. Every
// stream and every frame exists because a caller asked for it, which is what
// lets a script place exactly one violation on an otherwise clean wire.
//
// Every send method either queues its complete frame with the transport or
// returns an error; there is no partial-frame state. A nil error means the
// bytes were queued locally, and says nothing about whether the peer will
// accept them. Peer reactions arrive asynchronously on the transport's event
// channel.
type Conn struct {
	tr transport.Connection

	mu       sync.Mutex
	declared []DeclaredStream

	// Shared encoder for the compliant header path. Raw header sends use a
	// throwaway encoder per call instead.
	fieldBuf bytes.Buffer
	enc      *qpack.Encoder
}

// NewConn wraps a transport connection in the override layer.
func NewConn(tr transport.Connection) *Conn {
	c := &Conn{tr: tr}
	c.enc = qpack.NewEncoder(&c.fieldBuf)
	return c
}

// OpenUniStream opens a unidirectional stream, immediately writes
// declaredType as the stream's leading varint, and records the pair in the
// registry. The type value is not validated and no uniqueness is enforced:
// declaring a second control stream is exactly the kind of thing this layer
// exists for.
func (c *Conn) OpenUniStream(declaredType StreamType) (transport.StreamID, error) {
	id, err := c.tr.OpenUniStream()
	if err != nil {
		return 0, err
	}
	if err := c.tr.Write(id, quicvarint.Append(nil, uint64(declaredType)), false); err != nil {
		return id, fmt.Errorf("could not declare stream %d as %s: %w", id, declaredType, err)
	}
	c.mu.Lock()
	c.declared = append(c.declared, DeclaredStream{ID: id, Type: declaredType})
	c.mu.Unlock()
	return id, nil
}

// OpenRequestStream opens a bidirectional stream. Request streams carry no
// type preamble.
func (c *Conn) OpenRequestStream() (transport.StreamID, error) {
	return c.tr.OpenStream()
}

// SendSettings sends a SETTINGS frame whose body is the given pairs in slice
// order. A nil slice sends DefaultSettings. The slice may contain the same
// identifier more than once; bodies that cannot be expressed as pairs at all
// go through SendRawFrame instead.
func (c *Conn) SendSettings(id transport.StreamID, settings []Setting) error {
	if settings == nil {
		settings = DefaultSettings()
	}
	return c.tr.Write(id, AppendFrame(nil, FrameTypeSettings, AppendSettings(nil, settings)), false)
}

// SendHeaders encodes the field list through the connection's shared QPACK
// encoder and sends it as a HEADERS frame. Relative field order is
// preserved. This is the only compressing operation on the connection.
func (c *Conn) SendHeaders(id transport.StreamID, fields []qpack.HeaderField, endStream bool) error {
	c.mu.Lock()
	payload, err := c.encodeFieldsLocked(fields)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.tr.Write(id, AppendFrame(nil, FrameTypeHeaders, payload), endStream)
}

func (c *Conn) encodeFieldsLocked(fields []qpack.HeaderField) ([]byte, error) {
	c.fieldBuf.Reset()
	for _, f := range fields {
		if err := c.enc.WriteField(f); err != nil {
			return nil, fmt.Errorf("QPACK encoding of %q failed: %w", f.Name, err)
		}
	}
	if err := c.enc.Close(); err != nil {
		return nil, err
	}
	payload := make([]byte, c.fieldBuf.Len())
	copy(payload, c.fieldBuf.Bytes())
	return payload, nil
}

// SendRawHeaders encodes the field list through a fresh QPACK encoder so
// that the wire order of name/value pairs is exactly the caller-supplied
// sequence, including orderings a conformant client would never produce,
// such as pseudo-fields after regular fields, and values containing bytes
// that are illegal in field content.
func (c *Conn) SendRawHeaders(id transport.StreamID, fields []qpack.HeaderField, endStream bool) error {
	var buf bytes.Buffer
	enc := qpack.NewEncoder(&buf)
	for _, f := range fields {
		if err := enc.WriteField(f); err != nil {
			return fmt.Errorf("QPACK encoding of %q failed: %w", f.Name, err)
		}
	}
	return c.tr.Write(id, AppendFrame(nil, FrameTypeHeaders, buf.Bytes()), endStream)
}

// SendData sends payload as a DATA frame. No check is made that a HEADERS
// frame preceded it on the stream.
func (c *Conn) SendData(id transport.StreamID, payload []byte, endStream bool) error {
	return c.tr.Write(id, AppendFrame(nil, FrameTypeData, payload), endStream)
}

// SendRawFrame is the universal escape hatch: it wraps arbitrary payload
// bytes under an arbitrary frame-type varint and writes them to any stream,
// regardless of what RFC 9114 permits there.
func (c *Conn) SendRawFrame(id transport.StreamID, frameType FrameType, payload []byte) error {
	return c.tr.Write(id, AppendFrame(nil, frameType, payload), false)
}

// SendStreamBytes writes bytes to a stream with no frame envelope at all.
// Stream-level preambles that are not frames (a push stream's push ID) and
// deliberately unframed garbage both go through here.
func (c *Conn) SendStreamBytes(id transport.StreamID, b []byte, endStream bool) error {
	return c.tr.Write(id, b, endStream)
}

// SendGoAway sends a GOAWAY frame carrying the given stream or push ID. Any
// stream ID is accepted, not just the control stream, so placement
// violations remain expressible.
func (c *Conn) SendGoAway(id transport.StreamID, streamOrPushID uint64) error {
	return c.SendRawFrame(id, FrameTypeGoAway, quicvarint.Append(nil, streamOrPushID))
}

// SendMaxPushID sends a MAX_PUSH_ID frame. Any stream ID is accepted.
func (c *Conn) SendMaxPushID(id transport.StreamID, maxPushID uint64) error {
	return c.SendRawFrame(id, FrameTypeMaxPushID, quicvarint.Append(nil, maxPushID))
}

// SendPriorityUpdate sends a request-typed PRIORITY_UPDATE frame for the
// given element with the raw priority field value. Any stream ID is
// accepted.
func (c *Conn) SendPriorityUpdate(id transport.StreamID, elementID uint64, priorityField []byte) error {
	payload := quicvarint.Append(nil, elementID)
	payload = append(payload, priorityField...)
	return c.SendRawFrame(id, FrameTypePriorityUpdateRequest, payload)
}

// DeclaredStreams returns the registry contents in creation order.
func (c *Conn) DeclaredStreams() []DeclaredStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DeclaredStream, len(c.declared))
	copy(out, c.declared)
	return out
}

// StreamsOfType returns all registered streams of the given declared type,
// in creation order. Opening two control streams yields two entries here; no
// registration ever overwrites another.
func (c *Conn) StreamsOfType(t StreamType) []transport.StreamID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []transport.StreamID
	for _, d := range c.declared {
		if d.Type == t {
			out = append(out, d.ID)
		}
	}
	return out
}

// ControlStream returns the first stream declared as a control stream.
func (c *Conn) ControlStream() (transport.StreamID, bool) {
	return c.firstOfType(StreamTypeControl)
}

// EncoderStream returns the first stream declared as a QPACK encoder stream.
func (c *Conn) EncoderStream() (transport.StreamID, bool) {
	return c.firstOfType(StreamTypeQPACKEncoder)
}

// DecoderStream returns the first stream declared as a QPACK decoder stream.
func (c *Conn) DecoderStream() (transport.StreamID, bool) {
	return c.firstOfType(StreamTypeQPACKDecoder)
}

func (c *Conn) firstOfType(t StreamType) (transport.StreamID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.declared {
		if d.Type == t {
			return d.ID, true
		}
	}
	return 0, false
}
