package testmodel

import (
	"encoding/json"
	"fmt"

	o "github.com/h3probe/h3probe/framework/opt"
)

// HeaderCaseSuite is the model for one data file under data-files/header-violations. Each
// suite is a group of related probe cases that differ only in the header lists they send.
type HeaderCaseSuite struct {
	Name  string       `json:"name"`
	Cases []HeaderCase `json:"cases"`
}

func (s HeaderCaseSuite) GetName() string { return s.Name }

// HeaderCase is one probe case that is fully described by data: after the conformant
// connection preamble, the harness replays each request exactly as written here and then
// watches how the target reacts.
type HeaderCase struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	Violation  string        `json:"violation"`
	RFCSection string        `json:"rfcSection"`
	Requests   []CaseRequest `json:"requests"`
	Notes      []string      `json:"notes,omitempty"`
}

// CaseRequest is one request stream within a case. All HEADERS frames in a case are sent
// first, each on its own stream in the order written; DATA frames follow in the same order.
type CaseRequest struct {
	Step      string               `json:"step"`
	Headers   []HeaderField        `json:"headers"`
	EndStream bool                 `json:"endStream,omitempty"`
	Body      o.Maybe[RequestBody] `json:"body,omitempty"`
}

// RequestBody is the DATA frame for a request stream. The stream is closed after the frame
// unless KeepOpen is set, as it is for CONNECT tunnels that should stay half-open.
type RequestBody struct {
	Step     string `json:"step"`
	Data     string `json:"data"`
	KeepOpen bool   `json:"keepOpen,omitempty"`
}

// HeaderField is one name-value pair. In data files it is written as a two-element array,
// such as [":method", "GET"], to keep the long header lists readable.
type HeaderField struct {
	Name  string
	Value string
}

func (h HeaderField) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{h.Name, h.Value})
}

func (h *HeaderField) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("header field must be a [name, value] pair, got %d elements", len(pair))
	}
	h.Name, h.Value = pair[0], pair[1]
	return nil
}
