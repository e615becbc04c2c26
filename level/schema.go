package level

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of a level file. Editors that understand
// JSON schema can validate YAML level files against it.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Level))
	schema.Title = "Bounce Level"
	schema.Description = "Arena layout: spawn and goal zones, obstacles, items, boss and keyframe tracks"
	return schema
}
