package gemini

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const metadataSchema = `{
  "type": "object",
  "properties": {
    "date":       {"type": ["string", "null"]},
    "speaker":    {"type": ["string", "null"]},
    "title":      {"type": ["string", "null"]},
    "theme":      {"type": ["string", "null"]},
    "references": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("metadata.json", strings.NewReader(metadataSchema)); err != nil {
		return nil, fmt.Errorf("add metadata schema: %w", err)
	}
	schema, err := compiler.Compile("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("compile metadata schema: %w", err)
	}
	return schema, nil
}
