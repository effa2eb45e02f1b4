package h3

import (
	"errors"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

// FrameType identifies an HTTP/3 frame. Like StreamType, this is an open
// integer space: the override layer encodes whatever value it is given,
// including types reserved by RFC 9114 and types that do not exist at all.
type FrameType uint64

const (
	FrameTypeData        FrameType = 0x0
	FrameTypeHeaders     FrameType = 0x1
	FrameTypeCancelPush  FrameType = 0x3
	FrameTypeSettings    FrameType = 0x4
	FrameTypePushPromise FrameType = 0x5
	FrameTypeGoAway      FrameType = 0x7
	FrameTypeMaxPushID   FrameType = 0xd

	// RFC 9218 PRIORITY_UPDATE frames.
	FrameTypePriorityUpdateRequest FrameType = 0xf0700
	FrameTypePriorityUpdatePush    FrameType = 0xf0701
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeData:
		return "DATA"
	case FrameTypeHeaders:
		return "HEADERS"
	case FrameTypeCancelPush:
		return "CANCEL_PUSH"
	case FrameTypeSettings:
		return "SETTINGS"
	case FrameTypePushPromise:
		return "PUSH_PROMISE"
	case FrameTypeGoAway:
		return "GOAWAY"
	case FrameTypeMaxPushID:
		return "MAX_PUSH_ID"
	case FrameTypePriorityUpdateRequest:
		return "PRIORITY_UPDATE (request)"
	case FrameTypePriorityUpdatePush:
		return "PRIORITY_UPDATE (push)"
	default:
		return fmt.Sprintf("UNKNOWN_FRAME_0x%x", uint64(t))
	}
}

// Frame is one encoded HTTP/3 frame: type varint, length varint, payload.
// Frames are immutable once encoded; this layer never retransmits or
// mutates them.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// Append appends the frame's wire encoding to b:
// varint(type) || varint(len(payload)) || payload.
func (f Frame) Append(b []byte) []byte {
	b = quicvarint.Append(b, uint64(f.Type))
	b = quicvarint.Append(b, uint64(len(f.Payload)))
	return append(b, f.Payload...)
}

// AppendFrame appends a single frame encoding to b.
func AppendFrame(b []byte, t FrameType, payload []byte) []byte {
	return Frame{Type: t, Payload: payload}.Append(b)
}

// ReadFrame decodes one frame from r. It is used by the in-memory test
// transport and by unit tests to check what the override layer put on the
// wire; the production path never parses frames.
func ReadFrame(r quicvarint.Reader) (Frame, error) {
	t, err := quicvarint.Read(r)
	if err != nil {
		return Frame{}, err
	}
	length, err := quicvarint.Read(r)
	if err != nil {
		return Frame{}, fmt.Errorf("frame 0x%x: missing length: %w", t, err)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("frame 0x%x: truncated payload: %w", t, err)
	}
	return Frame{Type: FrameType(t), Payload: payload}, nil
}

// ReadAllFrames decodes frames from r until EOF.
func ReadAllFrames(r quicvarint.Reader) ([]Frame, error) {
	var frames []Frame
	for {
		f, err := ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, err
		}
		frames = append(frames, f)
	}
}
