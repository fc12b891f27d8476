// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"activities-service/internal/common/validation"
)

// Parse validates data against Schema and decodes it.
func Parse(data []byte) (*Catalog, error) {
	result, err := validation.ValidateJSON(Schema, data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("catalog does not match schema: %s", result.Error())
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the rules the schema cannot express.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Activities))
	for _, a := range c.Activities {
		if seen[a.Name] {
			return fmt.Errorf("duplicate activity name: %s", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// Find returns the index of the named activity or -1.
func (c *Catalog) Find(name string) int {
	for i := range c.Activities {
		if c.Activities[i].Name == name {
			return i
		}
	}
	return -1
}

// Save writes the catalog as indented JSON, creating parent directories.
func Save(c *Catalog, path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}
