// Package schema validates untrusted JSON against schemas reflected from Go
// types. Host responses and configuration both pass through it before they
// are decoded into the console's model.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator validates documents against one compiled JSON Schema.
type Validator struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles a schema document under the given resource name.
func Compile(name string, doc []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}

	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	return &Validator{name: name, schema: s}, nil
}

// ForType reflects v's type and compiles the resulting schema.
func ForType(name string, v any) (*Validator, error) {
	doc, err := Reflect(v)
	if err != nil {
		return nil, err
	}
	return Compile(name, doc)
}

// ValidateJSON validates a raw JSON document.
func (v *Validator) ValidateJSON(raw []byte) error {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%s: malformed JSON: %w", v.name, err)
	}
	return v.validate(doc)
}

// Validate validates any value that can be marshaled to JSON.
func (v *Validator) Validate(data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s for validation: %w", v.name, err)
	}
	return v.ValidateJSON(jsonData)
}

func (v *Validator) validate(doc interface{}) error {
	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var errorMessages []string
			collectErrors(validationErr, &errorMessages)
			return fmt.Errorf("%s: schema validation failed:\n%s", v.name, strings.Join(errorMessages, "\n"))
		}
		return fmt.Errorf("%s: schema validation failed: %w", v.name, err)
	}
	return nil
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*messages = append(*messages, fmt.Sprintf("- %s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
