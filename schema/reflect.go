package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Reflect generates a JSON Schema document for v's type. Only fields tagged
// `jsonschema:"required"` are required and unknown properties are allowed,
// so hosts can add fields without breaking older consoles.
func Reflect(v any) ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		Anonymous:                  true,
	}
	s := r.Reflect(v)
	return json.Marshal(s)
}

// ReflectStrict is like Reflect but rejects unknown properties and names
// properties after the given struct tag. It is used for configuration files.
func ReflectStrict(v any, fieldTag string) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		Anonymous:                  true,
		FieldNameTag:               fieldTag,
	}
	return r.Reflect(v)
}
