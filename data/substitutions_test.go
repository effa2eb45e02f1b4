package data

import (
	"encoding/json"
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testExpandStruct struct {
	Name   string          `json:"name"`
	Values json.RawMessage `json:"values"`
}

func expandAndParseAll(t *testing.T, input string) []testExpandStruct {
	sources, err := expandSubstitutions([]byte(input))
	require.NoError(t, err)
	ret := make([]testExpandStruct, 0, len(sources))
	for _, source := range sources {
		var s testExpandStruct
		require.NoError(t, ParseJSONOrYAML(source.Data, &s))
		ret = append(ret, s)
	}
	return ret
}

func TestExpandWithNoSubstitutions(t *testing.T) {
	input := `{"name": "x", "values": {"a": 1}}`
	sources, err := expandSubstitutions([]byte(input))
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, input, string(sources[0].Data))
	assert.Nil(t, sources[0].Params)
}

func TestExpandConstants(t *testing.T) {
	input := `---
constants:
  GREETING: hello
  COUNT: 3

name: "saying <GREETING>"
values:
  whole: "<COUNT>"
  embedded: "<GREETING> world"
`
	all := expandAndParseAll(t, input)
	require.Len(t, all, 1)
	assert.Equal(t, "saying hello", all[0].Name)
	m.In(t).Assert(all[0].Values, m.JSONStrEqual(`{"whole": 3, "embedded": "hello world"}`))
}

func TestExpandParameterList(t *testing.T) {
	input := `---
constants:
  SUFFIX: "!"

parameters:
  - ANIMAL: cat
    SOUND: meow
  - ANIMAL: dog
    SOUND: woof

name: "the <ANIMAL>"
values:
  says: "<SOUND><SUFFIX>"
`
	all := expandAndParseAll(t, input)
	require.Len(t, all, 2)
	assert.Equal(t, "the cat", all[0].Name)
	m.In(t).Assert(all[0].Values, m.JSONStrEqual(`{"says": "meow!"}`))
	assert.Equal(t, "the dog", all[1].Name)
	m.In(t).Assert(all[1].Values, m.JSONStrEqual(`{"says": "woof!"}`))
}

func TestExpandParameterMatrix(t *testing.T) {
	input := `---
parameters:
  - - A: 1
    - A: 2
  - - B: x
    - B: y

name: "combination"
values:
  a: "<A>"
  b: "<B>"
`
	all := expandAndParseAll(t, input)
	require.Len(t, all, 4)
	seen := make(map[string]bool)
	for _, s := range all {
		seen[string(s.Values)] = true
	}
	assert.Len(t, seen, 4)
}

func TestExpandRecordsParams(t *testing.T) {
	input := `---
parameters:
  - CHAR: "a"
  - CHAR: "b"

name: "<CHAR>"
`
	sources, err := expandSubstitutions([]byte(input))
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, json.RawMessage(`"a"`), sources[0].Params["CHAR"])
	assert.Equal(t, json.RawMessage(`"b"`), sources[1].Params["CHAR"])
}

func TestExpandControlCharactersSurviveSubstitution(t *testing.T) {
	input := `---
parameters:
  - BAD_VALUE: "one\rtwo"
  - BAD_VALUE: "three\0four"

name: test
values:
  v: "<BAD_VALUE>"
`
	all := expandAndParseAll(t, input)
	require.Len(t, all, 2)
	var v1, v2 struct {
		V string `json:"v"`
	}
	require.NoError(t, json.Unmarshal(all[0].Values, &v1))
	require.NoError(t, json.Unmarshal(all[1].Values, &v2))
	assert.Equal(t, "one\rtwo", v1.V)
	assert.Equal(t, "three\x00four", v2.V)
}

func TestExpandRejectsMalformedParameters(t *testing.T) {
	input := `{"parameters": ["scalar"], "name": "x"}`
	_, err := expandSubstitutions([]byte(input))
	assert.Error(t, err)
}
