// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for recall.
package config

import (
	"gopkg.in/yaml.v3"

	"github.com/flemzord/recall/internal/telemetry"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "memory.service").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Telemetry configures trace export. Optional.
	Telemetry telemetry.Config `yaml:"telemetry,omitempty"`
}
