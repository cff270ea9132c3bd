package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for sensorsession.yml from the
// Config types. Nothing is required at the schema level because every field
// has a default; the schema exists to catch unknown keys and wrong types.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "Sensor Session Configuration"
	schema.Description = "Schema for sensorsession.yml and sensorsession.toml."

	return json.MarshalIndent(schema, "", "  ")
}
