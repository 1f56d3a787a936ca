package formatting

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PrettyJSON formats any value as indented JSON, falling back to %v when
// it cannot be marshaled.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// PrettyYAML formats any value as YAML, falling back to %v when it cannot
// be marshaled.
func PrettyYAML(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
