package data

import (
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONOrYAML(t *testing.T) {
	type caseFields struct {
		Method  string `json:"method"`
		Closes  bool   `json:"closes"`
		Streams []int  `json:"streams"`
	}
	expected := caseFields{Method: "GET", Closes: true, Streams: []int{0, 4}}
	for _, params := range []struct {
		desc  string
		input string
	}{
		{"JSON", `{"method":"GET","closes":true,"streams":[0,4]}`},
		{"YAML", `---
method: GET
closes: true
streams:
  - 0
  - 4
`},
	} {
		t.Run(params.desc, func(t *testing.T) {
			var out caseFields
			require.NoError(t, ParseJSONOrYAML([]byte(params.input), &out))
			assert.Equal(t, expected, out)
		})
	}
}

func TestParseYAMLAnchorReferences(t *testing.T) {
	input := `---
constants:
  reusable: &base_headers
    method: GET
    scheme: https

values:
  extended_request:
    <<: *base_headers
    path: /status
`
	var s testExpandStruct
	require.NoError(t, ParseJSONOrYAML([]byte(input), &s))
	m.In(t).Assert(s.Values, m.JSONStrEqual(`{
      "extended_request": {"method": "GET", "scheme": "https", "path": "/status"}
    }`))
}

func TestParseRejectsNonStringMapKeys(t *testing.T) {
	input := `---
values:
  5: numeric key
`
	var s testExpandStruct
	err := ParseJSONOrYAML([]byte(input), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only string keys are allowed")
}
