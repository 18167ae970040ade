package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultYAML renders Defaults as a nested YAML document suitable for
// config.yaml. Secrets are left empty.
func DefaultYAML() ([]byte, error) {
	root := map[string]interface{}{}
	for key, value := range Defaults() {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return yaml.Marshal(root)
}
