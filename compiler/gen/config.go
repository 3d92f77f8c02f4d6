package gen

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config customizes the generated output. It is usually loaded from an
// instant.gen.yaml next to the project.
type Config struct {
	// Package is the package name of the generated files.
	Package string `yaml:"package" validate:"omitempty,alphanum,lowercase"`
	// Out is the target directory for the generated files.
	Out string `yaml:"out"`
	// Entities holds per-entity overrides keyed by wire name.
	Entities map[string]EntityConfig `yaml:"entities" validate:"dive"`
}

// EntityConfig overrides generation settings of a single entity.
type EntityConfig struct {
	// TypeName replaces the derived Go type name.
	TypeName string `yaml:"type_name" validate:"omitempty,alpha"`
	// Skip excludes the entity from generation.
	Skip bool `yaml:"skip"`
}

// LoadConfig reads and validates a generator config file.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gen: reading config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("gen: parsing config %s: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("gen: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// typeNameFor resolves the Go type name of an entity honoring overrides.
func (c *Config) typeNameFor(entity string) string {
	if c != nil {
		if ec, ok := c.Entities[entity]; ok && ec.TypeName != "" {
			return ec.TypeName
		}
	}
	return typeName(entity)
}

// skips reports whether the entity is excluded from generation.
func (c *Config) skips(entity string) bool {
	if c == nil {
		return false
	}
	ec, ok := c.Entities[entity]
	return ok && ec.Skip
}
