package toolsrv

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema derives a JSON Schema for a tool input struct. Fields use
// `json` tags for names and `jsonschema_description` tags for descriptions.
func GenerateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := json.Marshal(schema)
	if err != nil {
		// Reflection over our own structs; a marshal failure is a programming error.
		panic(err)
	}
	return b
}
