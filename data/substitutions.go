package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type substitutionSet map[string]json.RawMessage

// expandSubstitutions reads the optional constants and parameters sections
// of a data file and applies them to the file's raw text. Constants are
// applied both before and after parameters, so the value of either kind of
// variable can reference the other.
func expandSubstitutions(originalData []byte) ([]SourceInfo, error) {
	var spec struct {
		Constants  substitutionSet   `json:"constants"`
		Parameters []json.RawMessage `json:"parameters"`
	}
	if err := ParseJSONOrYAML(originalData, &spec); err != nil {
		return nil, err
	}
	if len(spec.Constants) == 0 && len(spec.Parameters) == 0 {
		return []SourceInfo{{Data: originalData}}, nil
	}
	parameterSets, err := makeParameterPermutations(spec.Parameters)
	if err != nil {
		return nil, err
	}
	if len(parameterSets) == 0 {
		return []SourceInfo{{Data: replaceVariables(originalData, spec.Constants)}}, nil
	}
	expanded := make([]SourceInfo, 0, len(parameterSets))
	for _, params := range parameterSets {
		data := replaceVariables(originalData, spec.Constants)
		data = replaceVariables(data, params)
		data = replaceVariables(data, spec.Constants)
		expanded = append(expanded, SourceInfo{Data: data, Params: params})
	}
	return expanded, nil
}

// A flat list of objects is used as-is; a list of lists produces the
// cartesian product of one object from each list.
func makeParameterPermutations(paramsData []json.RawMessage) ([]substitutionSet, error) {
	if len(paramsData) == 0 {
		return nil, nil
	}
	allData, _ := json.Marshal(paramsData)
	switch firstJSONToken(paramsData[0]) {
	case '{':
		var sets []substitutionSet
		if err := json.Unmarshal(allData, &sets); err != nil {
			return nil, err
		}
		return sets, nil
	case '[':
		var axes [][]substitutionSet
		if err := json.Unmarshal(allData, &axes); err != nil {
			return nil, err
		}
		return crossProduct(axes), nil
	default:
		return nil, errors.New("unable to parse parameters - must be an array of objects or an array of arrays")
	}
}

func crossProduct(axes [][]substitutionSet) []substitutionSet {
	cursor := make([]int, len(axes))
	var product []substitutionSet
	for {
		merged := make(substitutionSet)
		for i, axis := range axes {
			for name, value := range axis[cursor[i]] {
				merged[name] = value
			}
		}
		product = append(product, merged)

		pos := 0
		for pos < len(axes) {
			cursor[pos]++
			if cursor[pos] < len(axes[pos]) {
				break
			}
			cursor[pos] = 0
			pos++
		}
		if pos == len(axes) {
			return product
		}
	}
}

func replaceVariables(originalData []byte, substs substitutionSet) []byte {
	text := string(originalData)
	// json.Marshal escapes angle brackets, which would hide the tokens
	text = strings.ReplaceAll(text, `\u003c`, "<")
	text = strings.ReplaceAll(text, `\u003e`, ">")
	for name, value := range substs {
		rawJSON := string(value)
		text = strings.ReplaceAll(text, `"<`+name+`>"`, rawJSON)
		inline := rawJSON
		if s, ok := jsonStringValue(value); ok {
			inline = s
		}
		text = strings.ReplaceAll(text, "<"+name+">", inline)
	}
	return []byte(text)
}

func firstJSONToken(data json.RawMessage) byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func jsonStringValue(data json.RawMessage) (string, bool) {
	if firstJSONToken(data) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}
