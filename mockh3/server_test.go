package mockh3

import (
	"crypto/x509"
	"encoding/pem"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSignedCertPEM(t *testing.T) {
	certPEM, keyPEM, err := GenerateSelfSignedCertPEM("test-server")
	require.NoError(t, err)

	block, rest := pem.Decode(certPEM)
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "CERTIFICATE", block.Type)

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	assert.Contains(t, cert.DNSNames, "localhost")
	assert.Contains(t, cert.DNSNames, "test-server")

	keyBlock, _ := pem.Decode(keyPEM)
	require.NotNil(t, keyBlock)
	assert.Equal(t, "PRIVATE KEY", keyBlock.Type)
}

func TestGenerateSelfSignedCertForIPTarget(t *testing.T) {
	certPEM, _, err := GenerateSelfSignedCertPEM("192.0.2.10")
	require.NoError(t, err)

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	var ips []string
	for _, ip := range cert.IPAddresses {
		ips = append(ips, ip.String())
	}
	assert.Contains(t, ips, "192.0.2.10")
	assert.Contains(t, ips, "127.0.0.1")
	// The loopback IP is already a SAN; asking for it must not duplicate it.
	assert.NotContains(t, cert.DNSNames, "192.0.2.10")
}

func TestNewServerDefaults(t *testing.T) {
	s, err := NewServer(ServerConfig{Port: 4433})
	require.NoError(t, err)
	assert.Equal(t, "localhost:4433", s.Addr())
}

func TestServerHandlers(t *testing.T) {
	s, err := NewServer(ServerConfig{Port: 4433})
	require.NoError(t, err)

	t.Run("index", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.serveIndex(rec, httptest.NewRequest("GET", "/index.html", nil))

		assert.Equal(t, 200, rec.Code)
		assert.Contains(t, rec.Body.String(), "conformance target")
	})

	t.Run("echo", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/anything/else", strings.NewReader("some body"))
		s.serveEcho(rec, req)

		assert.Equal(t, 200, rec.Code)
		assert.Contains(t, rec.Body.String(), "You requested: POST /anything/else")
		assert.Contains(t, rec.Body.String(), "Request body: 9 bytes")
	})
}
