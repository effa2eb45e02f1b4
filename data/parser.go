package data

import (
	"encoding/json"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// ParseJSONOrYAML unmarshals data into target the way json.Unmarshal does,
// accepting either JSON or YAML input. YAML is converted to a
// JSON-compatible structure first, so the target's json tags apply either
// way.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	var parsed interface{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}
	compatible, err := yamlToJSONCompatible(parsed)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(compatible)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

// yamlToJSONCompatible rewrites the container types the YAML parser
// produces into ones json.Marshal accepts. Map keys must be strings.
func yamlToJSONCompatible(value interface{}) (interface{}, error) {
	switch value := value.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(value))
		for _, element := range value {
			converted, err := yamlToJSONCompatible(element)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, v := range value {
			converted, err := yamlToJSONCompatible(v)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, v := range value {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("YAML data contained a map key of type %T; only string keys are allowed", k)
			}
			converted, err := yamlToJSONCompatible(v)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}
