package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Schema describes how a single value is generated. A schema is either an
// object (ordered properties), an array, a scalar (string/integer/number/
// boolean, optionally driven by a named generator), a reference to a
// registered schema, or an entity-backed field lookup.
type Schema struct {
	Type                string
	Format              string
	Generator           string
	Params              map[string]any
	Description         string
	Properties          []Property
	Items               *Schema
	MinItems            *int
	MaxItems            *int
	NullableProbability *float64
	Ref                 string
	FromEntity          string
	Field               string
	// Value pins generation to a fixed result. Payload overrides set it,
	// and a "value" key in a configuration schema sets it too.
	Value any
}

// Property is a named child schema of an object. Declaration order is
// preserved so later properties can reference earlier ones through context.
type Property struct {
	Name   string
	Schema *Schema
}

// Property returns the child schema with the given name, or nil.
func (s *Schema) Property(name string) *Schema {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// UnmarshalYAML decodes a schema from a YAML mapping node. Object property
// order follows the document, which the default map decoding would lose.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema must be a mapping, got %s", nodeKind(node))
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		switch keyNode.Value {
		case "type":
			if err := valNode.Decode(&s.Type); err != nil {
				return err
			}
		case "format":
			if err := valNode.Decode(&s.Format); err != nil {
				return err
			}
		case "generator":
			if err := valNode.Decode(&s.Generator); err != nil {
				return err
			}
		case "params":
			if err := valNode.Decode(&s.Params); err != nil {
				return err
			}
		case "description":
			if err := valNode.Decode(&s.Description); err != nil {
				return err
			}
		case "properties":
			if valNode.Kind != yaml.MappingNode {
				return fmt.Errorf("properties must be a mapping, got %s", nodeKind(valNode))
			}
			for j := 0; j+1 < len(valNode.Content); j += 2 {
				child := &Schema{}
				if err := valNode.Content[j+1].Decode(child); err != nil {
					return fmt.Errorf("property %q: %w", valNode.Content[j].Value, err)
				}
				s.Properties = append(s.Properties, Property{
					Name:   valNode.Content[j].Value,
					Schema: child,
				})
			}
		case "items":
			s.Items = &Schema{}
			if err := valNode.Decode(s.Items); err != nil {
				return err
			}
		case "min_items":
			s.MinItems = new(int)
			if err := valNode.Decode(s.MinItems); err != nil {
				return err
			}
		case "max_items":
			s.MaxItems = new(int)
			if err := valNode.Decode(s.MaxItems); err != nil {
				return err
			}
		case "nullable_probability":
			s.NullableProbability = new(float64)
			if err := valNode.Decode(s.NullableProbability); err != nil {
				return err
			}
		case "$ref":
			if err := valNode.Decode(&s.Ref); err != nil {
				return err
			}
		case "from_entity":
			if err := valNode.Decode(&s.FromEntity); err != nil {
				return err
			}
		case "field":
			if err := valNode.Decode(&s.Field); err != nil {
				return err
			}
		case "value":
			if err := valNode.Decode(&s.Value); err != nil {
				return err
			}
		default:
			// Unknown keys are tolerated so configs can carry annotations.
		}
	}

	return nil
}

// Merge overlays the referencing schema on a shallow copy of the referenced
// one. Every field set on ref except the $ref itself takes precedence.
func Merge(base *Schema, ref *Schema) *Schema {
	merged := *base
	merged.Ref = ""

	if ref.Type != "" {
		merged.Type = ref.Type
	}
	if ref.Format != "" {
		merged.Format = ref.Format
	}
	if ref.Generator != "" {
		merged.Generator = ref.Generator
	}
	if ref.Params != nil {
		merged.Params = ref.Params
	}
	if ref.Description != "" {
		merged.Description = ref.Description
	}
	if ref.Properties != nil {
		merged.Properties = ref.Properties
	}
	if ref.Items != nil {
		merged.Items = ref.Items
	}
	if ref.MinItems != nil {
		merged.MinItems = ref.MinItems
	}
	if ref.MaxItems != nil {
		merged.MaxItems = ref.MaxItems
	}
	if ref.NullableProbability != nil {
		merged.NullableProbability = ref.NullableProbability
	}
	if ref.FromEntity != "" {
		merged.FromEntity = ref.FromEntity
	}
	if ref.Field != "" {
		merged.Field = ref.Field
	}
	if ref.Value != nil {
		merged.Value = ref.Value
	}

	return &merged
}

// WithValue returns a copy of the schema pinned to a fixed value.
func (s *Schema) WithValue(v any) *Schema {
	pinned := *s
	pinned.Value = v
	return &pinned
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
