package config

import (
	"encoding/json"

	"github.com/grovetools/ckanconsole/schema"
)

// GenerateSchema generates the JSON Schema for the configuration file,
// using YAML field names for property names.
func GenerateSchema() ([]byte, error) {
	s := schema.ReflectStrict(&Config{}, "yaml")
	s.Title = "ckan-console Configuration"
	s.Description = "Schema for ckan-console.yml."
	s.Version = "http://json-schema.org/draft-07/schema#"
	// Extension sections such as logging are free-form.
	s.AdditionalProperties = nil

	return json.MarshalIndent(s, "", "  ")
}
