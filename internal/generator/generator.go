package generator

import (
	"fmt"
	"time"

	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/schema"
	"github.com/resink-ai/resinker/internal/state"
)

// Generator materializes values from schemas. It recursively walks
// object/array/scalar shapes, propagating a context mapping so later
// sibling properties, conditional choices and derived expressions can see
// earlier values.
type Generator struct {
	registry *schema.Registry
	store    *state.Store
	src      *Source
	fakers   map[string]FakerFunc
}

// New creates a generator over the given registry, entity store and random
// source, with the built-in faker registry installed.
func New(registry *schema.Registry, store *state.Store, src *Source) *Generator {
	return &Generator{
		registry: registry,
		store:    store,
		src:      src,
		fakers:   defaultFakers(src),
	}
}

// RegisterFaker adds or replaces a named fake-value function.
func (g *Generator) RegisterFaker(name string, fn FakerFunc) {
	g.fakers[name] = fn
}

// Generate produces a value for the schema under the given context.
//
// RNG draw order is fixed for reproducibility: nullable gate, then
// dispatch, then (for arrays) item count, then per-item generation.
func (g *Generator) Generate(s *schema.Schema, ctx Context) (any, error) {
	if ctx == nil {
		ctx = Context{}
	}

	if s.Ref != "" {
		base, err := g.registry.ResolveRef(s.Ref)
		if err != nil {
			return nil, err
		}
		return g.Generate(schema.Merge(base, s), ctx)
	}

	if s.Value != nil {
		return s.Value, nil
	}

	if s.NullableProbability != nil && *s.NullableProbability > 0 {
		if g.src.Float64() < *s.NullableProbability {
			return nil, nil
		}
	}

	if s.FromEntity != "" {
		return g.fromEntity(s, ctx)
	}

	switch typ := s.Type; typ {
	case "object":
		return g.generateObject(s, ctx)
	case "array":
		return g.generateArray(s, ctx)
	case "string", "":
		return g.generateString(s, ctx)
	case "number":
		if s.Generator != "" {
			return g.leaf(s.Generator, s, ctx)
		}
		return g.src.Uniform(0, 100), nil
	case "integer":
		if s.Generator != "" {
			return g.leaf(s.Generator, s, ctx)
		}
		return g.src.IntBetween(0, 100), nil
	case "boolean":
		if s.Generator != "" {
			return g.leaf(s.Generator, s, ctx)
		}
		return g.src.Bool(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidSchema, typ)
	}
}

// generateObject walks properties in declaration order. Each generated
// value lands in the output and in the child context, so later siblings
// can reference it.
func (g *Generator) generateObject(s *schema.Schema, ctx Context) (any, error) {
	result := make(map[string]any, len(s.Properties))
	childCtx := ctx.Clone()

	for _, prop := range s.Properties {
		value, err := g.Generate(prop.Schema, childCtx)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.Name, err)
		}
		result[prop.Name] = value
		childCtx[prop.Name] = value
	}
	return result, nil
}

// generateArray draws the item count uniformly in [min_items, max_items]
// (max defaults to min+5) and generates items under a child context that
// carries the array index.
func (g *Generator) generateArray(s *schema.Schema, ctx Context) (any, error) {
	if s.Items == nil {
		return []any{}, nil
	}
	min := 0
	if s.MinItems != nil {
		min = *s.MinItems
	}
	max := min + 5
	if s.MaxItems != nil {
		max = *s.MaxItems
	}
	if max < min {
		return nil, fmt.Errorf("%w: max_items %d < min_items %d", ErrInvalidSchema, max, min)
	}

	n := g.src.IntBetween(min, max)
	result := make([]any, 0, n)
	for i := 0; i < n; i++ {
		itemCtx := ctx.Clone()
		itemCtx[constants.ContextKeyArrayIndex] = i
		item, err := g.Generate(s.Items, itemCtx)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		result = append(result, item)
	}
	return result, nil
}

// generateString runs the configured leaf and stringifies time-valued
// results per the schema format.
func (g *Generator) generateString(s *schema.Schema, ctx Context) (any, error) {
	if s.Generator != "" {
		value, err := g.leaf(s.Generator, s, ctx)
		if err != nil {
			return nil, err
		}
		switch v := value.(type) {
		case time.Time:
			return formatStringTime(v, s.Format), nil
		case string:
			return v, nil
		case nil:
			return nil, nil
		default:
			return fmt.Sprint(v), nil
		}
	}

	switch s.Format {
	case constants.FormatISO8601, constants.FormatDate, constants.FormatTime:
		return formatStringTime(timeFromContext(ctx), s.Format), nil
	}
	return g.src.Word(), nil
}

func formatStringTime(t time.Time, format string) string {
	switch format {
	case constants.FormatDate:
		return t.Format("2006-01-02")
	case constants.FormatTime:
		return t.Format("15:04:05")
	default:
		return t.Format(time.RFC3339Nano)
	}
}

// ApplyOverrides pins top-level object properties named in overrides to
// fixed values. Keys absent from the schema are ignored.
func ApplyOverrides(s *schema.Schema, overrides map[string]any) *schema.Schema {
	if len(overrides) == 0 || len(s.Properties) == 0 {
		return s
	}
	pinned := *s
	pinned.Properties = make([]schema.Property, len(s.Properties))
	for i, prop := range s.Properties {
		if value, ok := overrides[prop.Name]; ok {
			pinned.Properties[i] = schema.Property{Name: prop.Name, Schema: prop.Schema.WithValue(value)}
		} else {
			pinned.Properties[i] = prop
		}
	}
	return &pinned
}
