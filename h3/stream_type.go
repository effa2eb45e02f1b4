package h3

import "fmt"

// StreamType is the declared type of a unidirectional stream, written as the
// stream's leading varint. The space is open: values outside the registered
// set are legal to declare (peers must ignore unknown types), and the
// override layer will happily declare reserved or unknown values.
type StreamType uint64

const (
	StreamTypeControl      StreamType = 0x00
	StreamTypePush         StreamType = 0x01
	StreamTypeQPACKEncoder StreamType = 0x02
	StreamTypeQPACKDecoder StreamType = 0x03
)

func (t StreamType) String() string {
	switch t {
	case StreamTypeControl:
		return "control"
	case StreamTypePush:
		return "push"
	case StreamTypeQPACKEncoder:
		return "QPACK encoder"
	case StreamTypeQPACKDecoder:
		return "QPACK decoder"
	default:
		return fmt.Sprintf("unknown (0x%x)", uint64(t))
	}
}
