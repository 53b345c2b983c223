package params

import (
	"github.com/invopop/jsonschema"
)

// Schema renders the declaration as a JSON schema object. Unknown properties
// are rejected, mirroring Resolve.
func (d *Decl) Schema() *jsonschema.Schema {
	props := jsonschema.NewProperties()

	for _, f := range d.fields {
		props.Set(f.Name, &jsonschema.Schema{
			Type:        jsonType(f.Default),
			Default:     f.Default,
			Description: f.Doc,
		})
	}

	return &jsonschema.Schema{
		Title:                d.owner,
		Type:                 "object",
		Properties:           props,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case int:
		return "integer"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	default:
		return ""
	}
}
