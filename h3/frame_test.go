package h3

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameAppendWireEncoding(t *testing.T) {
	// varint(type) || varint(len) || payload, with no padding or framing
	// beyond that.
	assert.Equal(t, []byte{0x00, 0x03, 'a', 'b', 'c'},
		AppendFrame(nil, FrameTypeData, []byte("abc")))

	assert.Equal(t, []byte{0x01, 0x00},
		AppendFrame(nil, FrameTypeHeaders, nil))

	// A type above the one-byte varint range gets the four-byte form.
	assert.Equal(t, []byte{0x80, 0x0f, 0x07, 0x00, 0x02, 0x00, 'i'},
		AppendFrame(nil, FrameTypePriorityUpdateRequest, []byte{0x00, 'i'}))
}

func TestFrameRoundTrip(t *testing.T) {
	for _, f := range []Frame{
		{Type: FrameTypeData, Payload: []byte("body bytes")},
		{Type: FrameTypeSettings, Payload: AppendSettings(nil, DefaultSettings())},
		{Type: FrameTypeCancelPush, Payload: []byte{0x05}},
		{Type: FrameType(0x2f), Payload: nil},
	} {
		t.Run(f.Type.String(), func(t *testing.T) {
			got, err := ReadFrame(bytes.NewReader(f.Append(nil)))
			require.NoError(t, err)
			assert.Equal(t, f.Type, got.Type)
			assert.Equal(t, []byte(f.Payload), []byte(got.Payload))
		})
	}
}

func TestReadFrameTruncated(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x00, 0x05, 'a'}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated payload")

	_, err = ReadFrame(bytes.NewReader([]byte{0x04}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing length")
}

func TestReadAllFrames(t *testing.T) {
	var b []byte
	b = AppendFrame(b, FrameTypeSettings, AppendSettings(nil, DefaultSettings()))
	b = AppendFrame(b, FrameTypeGoAway, []byte{0x04})

	frames, err := ReadAllFrames(bytes.NewReader(b))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, FrameTypeSettings, frames[0].Type)
	assert.Equal(t, FrameTypeGoAway, frames[1].Type)

	empty, err := ReadAllFrames(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFrameTypeString(t *testing.T) {
	for _, p := range []struct {
		t    FrameType
		want string
	}{
		{FrameTypeData, "DATA"},
		{FrameTypeHeaders, "HEADERS"},
		{FrameTypeCancelPush, "CANCEL_PUSH"},
		{FrameTypeSettings, "SETTINGS"},
		{FrameTypePushPromise, "PUSH_PROMISE"},
		{FrameTypeGoAway, "GOAWAY"},
		{FrameTypeMaxPushID, "MAX_PUSH_ID"},
		{FrameTypePriorityUpdateRequest, "PRIORITY_UPDATE (request)"},
		{FrameType(0x2f), "UNKNOWN_FRAME_0x2f"},
	} {
		t.Run(fmt.Sprintf("0x%x", uint64(p.t)), func(t *testing.T) {
			assert.Equal(t, p.want, p.t.String())
		})
	}
}
