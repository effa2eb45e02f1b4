// Package targetinfo provides a data model for information learned about the endpoint under test.
package targetinfo

import "encoding/json"

// TargetInfo is what the harness discovered about the target endpoint during the preflight
// connection, before any probes ran.
type TargetInfo struct {
	TargetInfoBase

	// FullData is a JSON rendering of all known target properties, suitable for inclusion in
	// report metadata.
	FullData []byte
}

// TargetInfoBase is the basic set of properties that every reachable target provides.
type TargetInfoBase struct {
	// Address is the host:port the harness dialed.
	Address string `json:"address"`

	// ALPN is the application protocol negotiated in the TLS handshake, normally "h3".
	ALPN string `json:"alpn"`

	// QUICVersion is the QUIC version negotiated for the preflight connection.
	QUICVersion string `json:"quicVersion"`

	// TLSCipherSuite is the name of the negotiated TLS 1.3 cipher suite.
	TLSCipherSuite string `json:"tlsCipherSuite"`
}

func New(base TargetInfoBase) TargetInfo {
	data, _ := json.Marshal(base)
	return TargetInfo{TargetInfoBase: base, FullData: data}
}

func Empty() TargetInfo {
	return TargetInfo{}
}
