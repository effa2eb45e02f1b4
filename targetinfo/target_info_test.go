package targetinfo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRendersFullData(t *testing.T) {
	base := TargetInfoBase{
		Address:        "localhost:4433",
		ALPN:           "h3",
		QUICVersion:    "v1",
		TLSCipherSuite: "TLS_AES_128_GCM_SHA256",
	}
	info := New(base)

	assert.Equal(t, base, info.TargetInfoBase)

	var back TargetInfoBase
	require.NoError(t, json.Unmarshal(info.FullData, &back))
	assert.Equal(t, base, back)
}

func TestEmpty(t *testing.T) {
	info := Empty()
	assert.Empty(t, info.Address)
	assert.Nil(t, info.FullData)
}
