package h3

import "fmt"

// ErrorCode is an HTTP/3 or QPACK application error code as carried by a
// CONNECTION_CLOSE or stream reset.
type ErrorCode uint64

const (
	ErrCodeNoError              ErrorCode = 0x100
	ErrCodeGeneralProtocolError ErrorCode = 0x101
	ErrCodeInternalError        ErrorCode = 0x102
	ErrCodeStreamCreationError  ErrorCode = 0x103
	ErrCodeClosedCriticalStream ErrorCode = 0x104
	ErrCodeFrameUnexpected      ErrorCode = 0x105
	ErrCodeFrameError           ErrorCode = 0x106
	ErrCodeExcessiveLoad        ErrorCode = 0x107
	ErrCodeIDError              ErrorCode = 0x108
	ErrCodeSettingsError        ErrorCode = 0x109
	ErrCodeMissingSettings      ErrorCode = 0x10a
	ErrCodeRequestRejected      ErrorCode = 0x10b
	ErrCodeRequestCancelled     ErrorCode = 0x10c
	ErrCodeRequestIncomplete    ErrorCode = 0x10d
	ErrCodeMessageError         ErrorCode = 0x10e
	ErrCodeConnectError         ErrorCode = 0x10f
	ErrCodeVersionFallback      ErrorCode = 0x110

	ErrCodeQPACKDecompressionFailed ErrorCode = 0x200
	ErrCodeQPACKEncoderStreamError  ErrorCode = 0x201
	ErrCodeQPACKDecoderStreamError  ErrorCode = 0x202
)

// errorCodeNames is the classification table surfaced in reports. It is
// read-only process-wide state; codes outside it render as UNKNOWN_0x<hex>
// rather than failing report generation.
var errorCodeNames = map[ErrorCode]string{
	ErrCodeNoError:                  "H3_NO_ERROR",
	ErrCodeGeneralProtocolError:     "H3_GENERAL_PROTOCOL_ERROR",
	ErrCodeInternalError:            "H3_INTERNAL_ERROR",
	ErrCodeStreamCreationError:      "H3_STREAM_CREATION_ERROR",
	ErrCodeClosedCriticalStream:     "H3_CLOSED_CRITICAL_STREAM",
	ErrCodeFrameUnexpected:          "H3_FRAME_UNEXPECTED",
	ErrCodeFrameError:               "H3_FRAME_ERROR",
	ErrCodeExcessiveLoad:            "H3_EXCESSIVE_LOAD",
	ErrCodeIDError:                  "H3_ID_ERROR",
	ErrCodeSettingsError:            "H3_SETTINGS_ERROR",
	ErrCodeMissingSettings:          "H3_MISSING_SETTINGS",
	ErrCodeRequestRejected:          "H3_REQUEST_REJECTED",
	ErrCodeRequestCancelled:         "H3_REQUEST_CANCELLED",
	ErrCodeRequestIncomplete:        "H3_REQUEST_INCOMPLETE",
	ErrCodeMessageError:             "H3_MESSAGE_ERROR",
	ErrCodeConnectError:             "H3_CONNECT_ERROR",
	ErrCodeVersionFallback:          "H3_VERSION_FALLBACK",
	ErrCodeQPACKDecompressionFailed: "QPACK_DECOMPRESSION_FAILED",
	ErrCodeQPACKEncoderStreamError:  "QPACK_ENCODER_STREAM_ERROR",
	ErrCodeQPACKDecoderStreamError:  "QPACK_DECODER_STREAM_ERROR",
}

// String returns the symbolic name of the code, or UNKNOWN_0x<hex> for
// codes outside the known set.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_0x%x", uint64(c))
}

// IsKnown reports whether the code is in the classification table.
func (c ErrorCode) IsKnown() bool {
	_, ok := errorCodeNames[c]
	return ok
}
