package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
)

func TestConfigAddress(t *testing.T) {
	assert.Equal(t, "localhost:4433", Config{Host: "localhost", Port: 4433}.Address())
	assert.Equal(t, "[::1]:443", Config{Host: "::1", Port: 443}.Address())
}

func TestClassifyClose(t *testing.T) {
	for _, p := range []struct {
		name string
		err  error
		want Terminated
	}{
		{
			"remote application close",
			&quic.ApplicationError{Remote: true, ErrorCode: 0x103, ErrorMessage: "stream creation error"},
			Terminated{Code: 0x103, Reason: "stream creation error", Remote: true},
		},
		{
			"local application close",
			&quic.ApplicationError{Remote: false, ErrorCode: 0x100},
			Terminated{Code: 0x100},
		},
		{
			"wrapped application close",
			fmt.Errorf("connection gone: %w",
				&quic.ApplicationError{Remote: true, ErrorCode: 0x109, ErrorMessage: "settings"}),
			Terminated{Code: 0x109, Reason: "settings", Remote: true},
		},
		{
			"transport close",
			&quic.TransportError{Remote: true, ErrorCode: quic.FrameEncodingError, ErrorMessage: "bad frame"},
			Terminated{Code: uint64(quic.FrameEncodingError), Reason: "bad frame", Remote: true},
		},
		{
			"idle timeout",
			&quic.IdleTimeoutError{},
			Terminated{Reason: "idle timeout"},
		},
		{
			"stateless reset",
			&quic.StatelessResetError{},
			Terminated{Reason: "stateless reset", Remote: true},
		},
		{
			"anything else",
			errors.New("socket exploded"),
			Terminated{Reason: "socket exploded"},
		},
	} {
		t.Run(p.name, func(t *testing.T) {
			assert.Equal(t, p.want, classifyClose(p.err))
		})
	}
}

func TestEventStrings(t *testing.T) {
	assert.Equal(t, "connection terminated (remote, code 0x103): bad stream",
		Terminated{Code: 0x103, Reason: "bad stream", Remote: true}.String())
	assert.Equal(t, "connection terminated (local, code 0x0): idle timeout",
		Terminated{Reason: "idle timeout"}.String())
	assert.Equal(t, "stream 4 reset (code 0x10c)",
		StreamReset{Stream: 4, Code: 0x10c}.String())
}
