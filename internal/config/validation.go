package config

import (
	"fmt"
	"strings"

	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/schema"
)

func (c *Config) validateSchemas() error {
	for name, s := range c.Schemas {
		if err := validateSchema(s, c.Schemas); err != nil {
			return fmt.Errorf("%w: schema %q: %s", ErrConfigInvalid, name, err)
		}
	}
	return nil
}

// validateSchema walks one schema tree checking structural constraints.
func validateSchema(s *schema.Schema, known map[string]*schema.Schema) error {
	if s == nil {
		return nil
	}
	if s.Ref != "" {
		name := strings.TrimPrefix(s.Ref, constants.SchemaRefPrefix)
		if _, ok := known[name]; !ok {
			return fmt.Errorf("$ref %q does not resolve", s.Ref)
		}
	}
	if s.MinItems != nil && s.MaxItems != nil && *s.MaxItems < *s.MinItems {
		return fmt.Errorf("max_items %d < min_items %d", *s.MaxItems, *s.MinItems)
	}
	if s.NullableProbability != nil && (*s.NullableProbability < 0 || *s.NullableProbability > 1) {
		return fmt.Errorf("nullable_probability %v outside [0,1]", *s.NullableProbability)
	}
	for _, p := range s.Properties {
		if err := validateSchema(p.Schema, known); err != nil {
			return fmt.Errorf("property %q: %w", p.Name, err)
		}
	}
	if s.Items != nil {
		if err := validateSchema(s.Items, known); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}
	return nil
}

func (c *Config) validateEntities() error {
	for name, def := range c.Entities {
		if def.SchemaRef == "" {
			return fmt.Errorf("%w: entity %q: schema is required", ErrConfigInvalid, name)
		}
		if def.PrimaryKey == "" {
			return fmt.Errorf("%w: entity %q: primary_key is required", ErrConfigInvalid, name)
		}
		ref := strings.TrimPrefix(def.SchemaRef, constants.SchemaRefPrefix)
		if _, ok := c.Schemas[ref]; !ok {
			return fmt.Errorf("%w: entity %q: schema %q does not resolve", ErrConfigInvalid, name, def.SchemaRef)
		}
	}
	for entityType := range c.SimulationSettings.InitialEntityCounts {
		if _, ok := c.Entities[entityType]; !ok {
			return fmt.Errorf("%w: initial_entity_counts references unknown entity %q", ErrConfigInvalid, entityType)
		}
	}
	return nil
}

func (c *Config) validateEventTypes() error {
	for name, def := range c.EventTypes {
		if def.PayloadSchema == "" {
			return fmt.Errorf("%w: event type %q: payload_schema is required", ErrConfigInvalid, name)
		}
		ref := strings.TrimPrefix(def.PayloadSchema, constants.SchemaRefPrefix)
		if _, ok := c.Schemas[ref]; !ok {
			return fmt.Errorf("%w: event type %q: payload_schema %q does not resolve", ErrConfigInvalid, name, def.PayloadSchema)
		}
		if def.FrequencyWeight < 0 {
			return fmt.Errorf("%w: event type %q: frequency_weight must be >= 0", ErrConfigInvalid, name)
		}
		if def.UpdateExistingProbability < 0 || def.UpdateExistingProbability > 1 {
			return fmt.Errorf("%w: event type %q: update_existing_probability outside [0,1]", ErrConfigInvalid, name)
		}
		if def.ProducesEntity != "" {
			if _, ok := c.Entities[def.ProducesEntity]; !ok {
				return fmt.Errorf("%w: event type %q: produces_entity references unknown entity %q", ErrConfigInvalid, name, def.ProducesEntity)
			}
		}
		if def.ProducesOrUpdatesEntity != "" {
			if _, ok := c.Entities[def.ProducesOrUpdatesEntity]; !ok {
				return fmt.Errorf("%w: event type %q: produces_or_updates_entity references unknown entity %q", ErrConfigInvalid, name, def.ProducesOrUpdatesEntity)
			}
		}
		for _, cons := range def.ConsumesEntities {
			if cons.MinRequired < 1 {
				return fmt.Errorf("%w: event type %q: min_required must be >= 1, got %d", ErrConfigInvalid, name, cons.MinRequired)
			}
			if _, ok := c.Entities[cons.EntityType]; !ok {
				return fmt.Errorf("%w: event type %q: consumes unknown entity %q", ErrConfigInvalid, name, cons.EntityType)
			}
			if err := validateFilters(cons.SelectionFilter); err != nil {
				return fmt.Errorf("%w: event type %q: %s", ErrConfigInvalid, name, err)
			}
		}
	}
	return nil
}

func (c *Config) validateScenarios() error {
	for name, def := range c.Scenarios {
		if def.InitiationWeight < 0 {
			return fmt.Errorf("%w: scenario %q: initiation_weight must be >= 0", ErrConfigInvalid, name)
		}
		for _, req := range def.RequiresInitialEntities {
			if _, ok := c.Entities[req.EntityType]; !ok {
				return fmt.Errorf("%w: scenario %q: requires unknown entity %q", ErrConfigInvalid, name, req.EntityType)
			}
			if err := validateFilters(req.SelectionFilter); err != nil {
				return fmt.Errorf("%w: scenario %q: %s", ErrConfigInvalid, name, err)
			}
		}
		for i, step := range def.Steps {
			if _, ok := c.EventTypes[step.EventType]; !ok {
				return fmt.Errorf("%w: scenario %q: step %d references unknown event type %q", ErrConfigInvalid, name, i, step.EventType)
			}
		}
	}
	return nil
}

func (c *Config) validateOutputs() error {
	for i, out := range c.Outputs {
		switch out.Type {
		case constants.OutputStdout, constants.OutputFile, constants.OutputKafka:
		default:
			return fmt.Errorf("%w: outputs[%d]: unknown type %q", ErrConfigInvalid, i, out.Type)
		}
		switch out.Format {
		case constants.OutputFormatJSON, constants.OutputFormatJSONPretty:
		default:
			return fmt.Errorf("%w: outputs[%d]: unknown format %q", ErrConfigInvalid, i, out.Format)
		}
	}
	return nil
}

func validateFilters(filters []Predicate) error {
	for _, f := range filters {
		if f.Field == "" {
			return fmt.Errorf("selection_filter: field is required")
		}
		if !KnownOperator(f.Operator) {
			return fmt.Errorf("selection_filter: unknown operator %q", f.Operator)
		}
	}
	return nil
}
