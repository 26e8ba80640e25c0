package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"map3d-scenarios/internal/config"
)

//go:embed schema.cue
var catalogueSchema string

// Catalogue is the on-disk list of scenario definitions.
type Catalogue struct {
	Scenarios []Definition `yaml:"scenarios"`
}

// Load reads a YAML scenario catalogue and validates it against the embedded CUE schema.
func Load(path string) ([]Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	if err := config.ValidateYAML(b, catalogueSchema, "#Catalogue"); err != nil {
		return nil, fmt.Errorf("validate catalogue %s: %w", path, err)
	}
	var c Catalogue
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return c.Scenarios, nil
}

// LoadInto decodes the catalogue at path and merges it over r. Scenarios with
// an existing name replace the built-in in place.
func LoadInto(r *Registry, path string) (int, error) {
	defs, err := Load(path)
	if err != nil {
		return 0, err
	}
	for _, d := range defs {
		r.Put(New(d))
	}
	return len(defs), nil
}
