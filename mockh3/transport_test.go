package mockh3

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h3probe/h3probe/framework/helpers"
	"github.com/h3probe/h3probe/transport"
)

func TestMockConnectionStreamNumbering(t *testing.T) {
	c := NewMockConnection()

	b1, err := c.OpenStream()
	require.NoError(t, err)
	u1, err := c.OpenUniStream()
	require.NoError(t, err)
	b2, err := c.OpenStream()
	require.NoError(t, err)
	u2, err := c.OpenUniStream()
	require.NoError(t, err)

	assert.Equal(t, transport.StreamID(0), b1)
	assert.Equal(t, transport.StreamID(2), u1)
	assert.Equal(t, transport.StreamID(4), b2)
	assert.Equal(t, transport.StreamID(6), u2)
	assert.Equal(t, []transport.StreamID{0, 2, 4, 6}, c.OpenedStreams())
}

func TestMockConnectionWriteRules(t *testing.T) {
	c := NewMockConnection()
	id, err := c.OpenStream()
	require.NoError(t, err)

	require.NoError(t, c.Write(id, []byte("one"), false))
	require.NoError(t, c.Write(id, []byte("two"), true))
	assert.Equal(t, []byte("onetwo"), c.WrittenBytes(id))
	assert.True(t, c.StreamFinished(id))

	err = c.Write(id, []byte("three"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after end_stream")

	err = c.Write(99, []byte("x"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stream")
}

func TestMockConnectionWrittenBytesReturnsCopy(t *testing.T) {
	c := NewMockConnection()
	id, _ := c.OpenStream()
	require.NoError(t, c.Write(id, []byte{1, 2, 3}, false))

	got := c.WrittenBytes(id)
	got[0] = 0xFF
	assert.Equal(t, []byte{1, 2, 3}, c.WrittenBytes(id))
}

func TestMockConnectionCloseStopsTraffic(t *testing.T) {
	c := NewMockConnection()
	id, _ := c.OpenStream()

	require.NoError(t, c.CloseWithError(0x100, "done"))

	closed, code, reason := c.Closed()
	assert.True(t, closed)
	assert.Equal(t, uint64(0x100), code)
	assert.Equal(t, "done", reason)

	assert.ErrorIs(t, c.Write(id, []byte("x"), false), ErrConnectionClosed)
	_, err := c.OpenStream()
	assert.ErrorIs(t, err, ErrConnectionClosed)
	_, err = c.OpenUniStream()
	assert.ErrorIs(t, err, ErrConnectionClosed)

	// The event channel closes without a termination event; local teardown
	// is not a peer reaction.
	_, open := <-c.Events()
	assert.False(t, open)

	require.NoError(t, c.CloseWithError(0x1, "again"), "second close is a no-op")
	_, _, reason = c.Closed()
	assert.Equal(t, "done", reason)
}

func TestMockConnectionInjectTermination(t *testing.T) {
	c := NewMockConnection()

	c.InjectTermination(0x103, "stream creation error")

	ev := helpers.RequireValue(t, c.Events(), time.Second)
	term, ok := ev.(transport.Terminated)
	require.True(t, ok)
	assert.Equal(t, uint64(0x103), term.Code)
	assert.Equal(t, "stream creation error", term.Reason)
	assert.True(t, term.Remote)

	_, open := <-c.Events()
	assert.False(t, open, "channel should close after termination")

	assert.ErrorIs(t, c.Write(0, nil, false), ErrConnectionClosed)
}

func TestMockConnectionInjectStreamReset(t *testing.T) {
	c := NewMockConnection()
	id, _ := c.OpenStream()

	c.InjectStreamReset(id, 0x10c)

	ev := helpers.RequireValue(t, c.Events(), time.Second)
	reset, ok := ev.(transport.StreamReset)
	require.True(t, ok)
	assert.Equal(t, id, reset.Stream)
	assert.Equal(t, uint64(0x10c), reset.Code)

	c.EndEvents()
	_, open := <-c.Events()
	assert.False(t, open)
}

func TestMockConnectionForcedFailures(t *testing.T) {
	c := NewMockConnection()
	id, _ := c.OpenStream()

	c.FailWritesWith(ErrConnectionClosed)
	assert.Error(t, c.Write(id, []byte("x"), false))
	c.FailWritesWith(nil)
	assert.NoError(t, c.Write(id, []byte("x"), false))

	c.FailOpensWith(ErrConnectionClosed)
	_, err := c.OpenStream()
	assert.Error(t, err)
	c.FailOpensWith(nil)
	_, err = c.OpenStream()
	assert.NoError(t, err)
}
