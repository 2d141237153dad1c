package config

import (
	"fmt"

	"github.com/resink-ai/resinker/internal/schema"
)

// Config is the root of a resolved simulation configuration.
type Config struct {
	Version            string                         `yaml:"version"`
	SimulationSettings SimulationSettings             `yaml:"simulation_settings"`
	Schemas            map[string]*schema.Schema      `yaml:"schemas"`
	Entities           map[string]EntityDefinition    `yaml:"entities"`
	EventTypes         map[string]EventTypeDefinition `yaml:"event_types"`
	Scenarios          map[string]ScenarioDefinition  `yaml:"scenarios"`
	Outputs            []OutputConfig                 `yaml:"outputs"`
	Observability      ObservabilityConfig            `yaml:"observability"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version:            "1.0",
		SimulationSettings: DefaultSimulationSettings(),
		Schemas:            map[string]*schema.Schema{},
		Entities:           map[string]EntityDefinition{},
		EventTypes:         map[string]EventTypeDefinition{},
		Scenarios:          map[string]ScenarioDefinition{},
		Observability:      DefaultObservabilityConfig(),
	}
}

// ObservabilityConfig groups logging and metrics settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Development bool   `yaml:"development"`
}

// MetricsConfig controls the optional Prometheus endpoint of a run.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

// DefaultObservabilityConfig returns the default observability configuration.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    "9090",
		},
	}
}

// Registry builds the schema registry from the configured schemas.
func (c *Config) Registry() *schema.Registry {
	return schema.NewRegistry(c.Schemas)
}

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.SimulationSettings.Validate(); err != nil {
		return fmt.Errorf("%w: simulation_settings: %s", ErrConfigInvalid, err)
	}
	if err := c.validateSchemas(); err != nil {
		return err
	}
	if err := c.validateEntities(); err != nil {
		return err
	}
	if err := c.validateEventTypes(); err != nil {
		return err
	}
	if err := c.validateScenarios(); err != nil {
		return err
	}
	if err := c.validateOutputs(); err != nil {
		return err
	}
	return nil
}
