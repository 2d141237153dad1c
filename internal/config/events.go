package config

import (
	"gopkg.in/yaml.v3"
)

// Selection filter operator constants
const (
	OpEq          = "eq"
	OpNe          = "ne"
	OpGt          = "gt"
	OpLt          = "lt"
	OpGe          = "ge"
	OpLe          = "le"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpIn          = "in"
	OpNotIn       = "not_in"
)

// KnownOperator reports whether op is a supported predicate operator.
func KnownOperator(op string) bool {
	switch op {
	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe, OpContains, OpNotContains, OpIn, OpNotIn:
		return true
	}
	return false
}

// EntityDefinition describes a long-lived entity type.
type EntityDefinition struct {
	SchemaRef       string                    `yaml:"schema"`
	PrimaryKey      string                    `yaml:"primary_key"`
	StateAttributes map[string]StateAttribute `yaml:"state_attributes"`
}

// StateAttribute describes one mutable state attribute of an entity type.
type StateAttribute struct {
	Type      string `yaml:"type"`
	Default   any    `yaml:"default"`
	Nullable  bool   `yaml:"nullable"`
	Precision *int   `yaml:"precision"`
	FromField string `yaml:"from_field"`
}

// Predicate is one selection filter clause. Field is a dotted path into an
// entity's data map, or "state.<key>" into its state map.
type Predicate struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

// Consumption declares entities an event requires to exist.
type Consumption struct {
	EntityType      string      `yaml:"name"`
	Alias           string      `yaml:"alias"`
	SelectionFilter []Predicate `yaml:"selection_filter"`
	MinRequired     int         `yaml:"min_required"`
}

// UnmarshalYAML applies defaults before decoding so absent keys keep them.
func (c *Consumption) UnmarshalYAML(node *yaml.Node) error {
	type raw Consumption
	tmp := raw{MinRequired: 1}
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*c = Consumption(tmp)
	return nil
}

// StateUpdate mutates entity state after payload generation. Values are
// literals or {from_payload_field: <dotted-path>} indirections.
type StateUpdate struct {
	EntityAlias         string         `yaml:"entity_alias"`
	SetAttributes       map[string]any `yaml:"set_attributes"`
	IncrementAttributes map[string]any `yaml:"increment_attributes"`
}

// EventTypeDefinition describes one generatable event type.
type EventTypeDefinition struct {
	PayloadSchema             string        `yaml:"payload_schema"`
	ProducesEntity            string        `yaml:"produces_entity"`
	ProducesOrUpdatesEntity   string        `yaml:"produces_or_updates_entity"`
	UpdateExistingProbability float64       `yaml:"update_existing_probability"`
	ConsumesEntities          []Consumption `yaml:"consumes_entities"`
	UpdatesEntityState        []StateUpdate `yaml:"updates_entity_state"`
	FrequencyWeight           float64       `yaml:"frequency_weight"`
}

// UnmarshalYAML applies defaults before decoding so absent keys keep them.
func (d *EventTypeDefinition) UnmarshalYAML(node *yaml.Node) error {
	type raw EventTypeDefinition
	tmp := raw{FrequencyWeight: 1.0, UpdateExistingProbability: 0.5}
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*d = EventTypeDefinition(tmp)
	return nil
}

// Requirement names an entity a scenario needs before it can start.
type Requirement struct {
	EntityType      string      `yaml:"name"`
	Alias           string      `yaml:"alias"`
	SelectionFilter []Predicate `yaml:"selection_filter"`
}

// Step is one event in a scenario's predetermined sequence.
type Step struct {
	EventType        string         `yaml:"event_type"`
	PayloadOverrides map[string]any `yaml:"payload_overrides"`
}

// ScenarioDefinition describes a multi-step scenario.
type ScenarioDefinition struct {
	Description             string        `yaml:"description"`
	InitiationWeight        float64       `yaml:"initiation_weight"`
	RequiresInitialEntities []Requirement `yaml:"requires_initial_entities"`
	Steps                   []Step        `yaml:"steps"`
}

// UnmarshalYAML applies defaults before decoding so absent keys keep them.
func (d *ScenarioDefinition) UnmarshalYAML(node *yaml.Node) error {
	type raw ScenarioDefinition
	tmp := raw{InitiationWeight: 1.0}
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*d = ScenarioDefinition(tmp)
	return nil
}
