// CUE schema validation code
package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// ValidateYAML checks a YAML document against the CUE definition named
// definition (for example "#Config") in schemaSrc.
func ValidateYAML(yamlBytes []byte, schemaSrc, definition string) error {
	ctx := cuecontext.New()

	var data map[string]interface{}
	if err := yaml.Unmarshal(yamlBytes, &data); err != nil {
		return fmt.Errorf("cannot unmarshal YAML: %w", err)
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	configVal := ctx.Encode(data)
	if configVal.Err() != nil {
		return fmt.Errorf("cannot encode YAML for CUE: %w", configVal.Err())
	}

	schemaVal := ctx.CompileString(schemaSrc)
	if schemaVal.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", schemaVal.Err())
	}
	def := schemaVal.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("schema has no definition %s", definition)
	}

	// Merge values with schema
	final := def.Unify(configVal)
	if final.Err() != nil {
		return fmt.Errorf("schema unify failed: %w", final.Err())
	}

	// Validate final structure
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
