package harness

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/h3probe/h3probe/h3"
	"github.com/h3probe/h3probe/targetinfo"
	"github.com/h3probe/h3probe/transport"
)

const preflightAttemptTimeout = 2 * time.Second

// queryTargetInfo dials the target to prove it is answering QUIC handshakes, and records
// what the handshake negotiated. A target that is still starting up is retried until the
// timeout expires. The connection is closed cleanly with H3_NO_ERROR; no HTTP/3 traffic is
// sent on it.
func queryTargetInfo(target transport.Config, timeout time.Duration, output io.Writer) (targetinfo.TargetInfo, error) {
	fmt.Fprintf(output, "Connecting to target at %s", target.Address())

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		conn, err := dialOnce(target)
		if err == nil {
			fmt.Fprintln(output)
			state := conn.ConnectionState()
			info := targetinfo.New(targetinfo.TargetInfoBase{
				Address:        target.Address(),
				ALPN:           state.TLS.NegotiatedProtocol,
				QUICVersion:    state.Version.String(),
				TLSCipherSuite: tls.CipherSuiteName(state.TLS.CipherSuite),
			})
			_ = conn.CloseWithError(uint64(h3.ErrCodeNoError), "")
			fmt.Fprintf(output, "Target is ready: %s\n", string(info.FullData))
			return info, nil
		}
		if !time.Now().Before(deadline) {
			return targetinfo.Empty(), fmt.Errorf("timed out, result of last attempt was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

func dialOnce(target transport.Config) (*transport.QUICConn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), preflightAttemptTimeout)
	defer cancel()
	return transport.Dial(ctx, target)
}
