package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/h3probe/h3probe/framework"
	"github.com/h3probe/h3probe/framework/helpers"
)

// NextProtoH3 is the TLS ALPN token for HTTP/3.
const NextProtoH3 = "h3"

const (
	defaultMaxIdleTimeout   = 30 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
)

// Config describes how to reach the peer under test. Certificate
// verification is always disabled: the harness targets local conformance
// servers with self-signed certificates.
type Config struct {
	Host string
	Port int

	// ALPN defaults to [NextProtoH3] when empty.
	ALPN []string

	MaxIdleTimeout   time.Duration
	HandshakeTimeout time.Duration

	// Logger receives debug output; nil means discard.
	Logger framework.Logger
}

// Address returns the host:port dial target.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// sendableStream is the common sending surface of quic.Stream and
// quic.SendStream.
type sendableStream interface {
	io.Writer
	Close() error
}

// QUICConn adapts a quic-go connection to the Connection interface. It keeps
// its own table of opened streams so that all writes go through the
// all-or-nothing Write method, and it pumps inbound stream data and
// connection state changes into the event channel.
type QUICConn struct {
	conn   quic.Connection
	logger framework.Logger

	streamsMu sync.Mutex
	streams   map[StreamID]sendableStream

	eventsMu     sync.Mutex
	events       chan Event
	eventsClosed bool
}

// Dial establishes a QUIC connection to the configured target and starts the
// background readers that feed the event channel. The returned connection is
// ready for use; no HTTP/3 bytes have been sent.
func Dial(ctx context.Context, cfg Config) (*QUICConn, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	alpn := cfg.ALPN
	if len(alpn) == 0 {
		alpn = []string{NextProtoH3}
	}
	maxIdle := cfg.MaxIdleTimeout
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleTimeout
	}
	handshake := cfg.HandshakeTimeout
	if handshake == 0 {
		handshake = defaultHandshakeTimeout
	}

	tlsConf := &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // the harness only talks to local test targets
		NextProtos:         alpn,
		MinVersion:         tls.VersionTLS13,
	}
	quicConf := &quic.Config{
		MaxIdleTimeout:       maxIdle,
		HandshakeIdleTimeout: handshake,
	}

	conn, err := quic.DialAddr(ctx, cfg.Address(), tlsConf, quicConf)
	if err != nil {
		return nil, fmt.Errorf("QUIC dial %s failed: %w", cfg.Address(), err)
	}
	logger.Printf("QUIC connection established to %s (ALPN %q)",
		conn.RemoteAddr(), conn.ConnectionState().TLS.NegotiatedProtocol)

	c := &QUICConn{
		conn:    conn,
		logger:  logger,
		streams: make(map[StreamID]sendableStream),
		events:  make(chan Event, 64),
	}
	go c.acceptLoop()
	return c, nil
}

// OpenUniStream allocates a locally-initiated unidirectional stream.
func (c *QUICConn) OpenUniStream() (StreamID, error) {
	s, err := c.conn.OpenUniStream()
	if err != nil {
		return 0, fmt.Errorf("could not open unidirectional stream: %w", err)
	}
	id := StreamID(s.StreamID())
	c.streamsMu.Lock()
	c.streams[id] = s
	c.streamsMu.Unlock()
	c.logger.Printf("opened unidirectional stream %d", id)
	return id, nil
}

// OpenStream allocates a locally-initiated bidirectional stream. The
// receiving half is drained in the background; response bytes are discarded
// but stream resets are reported as events.
func (c *QUICConn) OpenStream() (StreamID, error) {
	s, err := c.conn.OpenStream()
	if err != nil {
		return 0, fmt.Errorf("could not open bidirectional stream: %w", err)
	}
	id := StreamID(s.StreamID())
	c.streamsMu.Lock()
	c.streams[id] = s
	c.streamsMu.Unlock()
	go c.drain(id, s)
	c.logger.Printf("opened bidirectional stream %d", id)
	return id, nil
}

// Write queues p on the stream, closing the sending half afterward if
// endStream is set.
func (c *QUICConn) Write(id StreamID, p []byte, endStream bool) error {
	c.streamsMu.Lock()
	s, ok := c.streams[id]
	c.streamsMu.Unlock()
	if !ok {
		return fmt.Errorf("write to unknown stream %d", id)
	}
	if len(p) > 0 {
		if _, err := s.Write(p); err != nil {
			return fmt.Errorf("write to stream %d failed: %w", id, err)
		}
	}
	if endStream {
		if err := s.Close(); err != nil {
			return fmt.Errorf("closing stream %d failed: %w", id, err)
		}
	}
	c.logger.Printf("wrote %d bytes to stream %d (end_stream=%t)", len(p), id, endStream)
	return nil
}

// Events returns the transport event channel.
func (c *QUICConn) Events() <-chan Event {
	return c.events
}

// CloseWithError tears the connection down with an application error code.
func (c *QUICConn) CloseWithError(code uint64, reason string) error {
	return c.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}

// ConnectionState exposes the negotiated QUIC and TLS parameters, for the
// preflight summary.
func (c *QUICConn) ConnectionState() quic.ConnectionState {
	return c.conn.ConnectionState()
}

// RemoteAddr returns the peer's address.
func (c *QUICConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// acceptLoop accepts peer-initiated unidirectional streams (the server's
// control, QPACK, and push streams) and drains them. It doubles as the
// connection-death watcher: AcceptUniStream unblocks with the close reason
// once the connection is gone, whatever the cause.
func (c *QUICConn) acceptLoop() {
	for {
		s, err := c.conn.AcceptUniStream(context.Background())
		if err != nil {
			c.connectionLost(err)
			return
		}
		id := StreamID(s.StreamID())
		c.logger.Printf("peer opened unidirectional stream %d", id)
		go c.drain(id, s)
	}
}

// drain consumes inbound bytes from a receiving stream half. Payloads are
// discarded (the harness never validates responses); resets become events.
func (c *QUICConn) drain(id StreamID, r io.Reader) {
	buf := make([]byte, 4096)
	for {
		_, err := r.Read(buf)
		if err == nil {
			continue
		}
		var streamErr *quic.StreamError
		if errors.As(err, &streamErr) {
			c.emit(StreamReset{Stream: StreamID(streamErr.StreamID), Code: uint64(streamErr.ErrorCode)})
		}
		return
	}
}

func (c *QUICConn) emit(ev Event) {
	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	if c.eventsClosed {
		return
	}
	if !helpers.NonBlockingSend(c.events, ev) {
		c.logger.Printf("event channel full, dropping %s", ev)
	}
}

func (c *QUICConn) connectionLost(err error) {
	ev := classifyClose(err)
	c.logger.Printf("%s", ev)
	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	if c.eventsClosed {
		return
	}
	helpers.NonBlockingSend[Event](c.events, ev)
	c.eventsClosed = true
	close(c.events)
}

// classifyClose maps a quic-go connection error to a Terminated event. Peer
// closes carry the peer's error code; local causes (our own teardown, idle
// or handshake timeouts) carry code zero unless we closed with one.
func classifyClose(err error) Terminated {
	var (
		appErr       *quic.ApplicationError
		transportErr *quic.TransportError
		idleErr      *quic.IdleTimeoutError
		resetErr     *quic.StatelessResetError
	)
	switch {
	case errors.As(err, &appErr):
		return Terminated{Code: uint64(appErr.ErrorCode), Reason: appErr.ErrorMessage, Remote: appErr.Remote}
	case errors.As(err, &transportErr):
		return Terminated{Code: uint64(transportErr.ErrorCode), Reason: transportErr.ErrorMessage, Remote: transportErr.Remote}
	case errors.As(err, &idleErr):
		return Terminated{Reason: "idle timeout"}
	case errors.As(err, &resetErr):
		return Terminated{Reason: "stateless reset", Remote: true}
	default:
		return Terminated{Reason: err.Error()}
	}
}
