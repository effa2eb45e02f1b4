package testmodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderFieldJSON(t *testing.T) {
	t.Run("unmarshals pair", func(t *testing.T) {
		var h HeaderField
		require.NoError(t, json.Unmarshal([]byte(`[":method", "GET"]`), &h))
		assert.Equal(t, HeaderField{Name: ":method", Value: "GET"}, h)
	})

	t.Run("rejects wrong arity", func(t *testing.T) {
		var h HeaderField
		assert.Error(t, json.Unmarshal([]byte(`[":method"]`), &h))
		assert.Error(t, json.Unmarshal([]byte(`["a", "b", "c"]`), &h))
	})

	t.Run("rejects non-string elements", func(t *testing.T) {
		var h HeaderField
		assert.Error(t, json.Unmarshal([]byte(`[":status", 200]`), &h))
	})

	t.Run("round-trips", func(t *testing.T) {
		data, err := json.Marshal(HeaderField{Name: "x-test-case", Value: "12"})
		require.NoError(t, err)
		assert.JSONEq(t, `["x-test-case", "12"]`, string(data))
	})
}

func TestHeaderCaseParsing(t *testing.T) {
	input := `{
		"id": 19,
		"name": "Response pseudo-headers in client request",
		"violation": "Response pseudo-headers MUST NOT appear in requests",
		"rfcSection": "HTTP/3 Request Pseudo-Header Requirements",
		"requests": [
			{
				"step": "response_pseudo_headers_sent",
				"headers": [[":method", "GET"], [":status", "200"]],
				"body": {"step": "request_body_sent", "data": "hello"}
			}
		],
		"notes": ["note one"]
	}`
	var c HeaderCase
	require.NoError(t, json.Unmarshal([]byte(input), &c))
	assert.Equal(t, 19, c.ID)
	require.Len(t, c.Requests, 1)
	r := c.Requests[0]
	assert.False(t, r.EndStream)
	require.True(t, r.Body.IsDefined())
	assert.Equal(t, RequestBody{Step: "request_body_sent", Data: "hello"}, r.Body.Value())
	assert.False(t, r.Body.Value().KeepOpen)
}
