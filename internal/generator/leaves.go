package generator

import (
	"crypto/md5" // #nosec G501 - shapes synthetic hashes, no security use
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/schema"
	"github.com/resink-ai/resinker/internal/state"
)

// Error kinds raised during generation. Both abort the current event only.
var (
	ErrInvalidSchema = errors.New("invalid schema")
	ErrUnknownName   = errors.New("unknown name")
)

// leaf dispatches a generator identifier to its producer.
func (g *Generator) leaf(id string, s *schema.Schema, ctx Context) (any, error) {
	switch id {
	case constants.GeneratorUUIDv4:
		return uuid.NewString(), nil

	case constants.GeneratorRandomInt:
		min := paramInt(s.Params, "min", 0)
		max := paramInt(s.Params, "max", 100)
		if max < min {
			return nil, fmt.Errorf("%w: random_int max %d < min %d", ErrInvalidSchema, max, min)
		}
		return g.src.IntBetween(min, max), nil

	case constants.GeneratorRandomFloat:
		min := paramFloat(s.Params, "min", 0)
		max := paramFloat(s.Params, "max", 1)
		if max < min {
			return nil, fmt.Errorf("%w: random_float max %v < min %v", ErrInvalidSchema, max, min)
		}
		precision := paramInt(s.Params, "precision", 2)
		return Round(g.src.Uniform(min, max), precision), nil

	case constants.GeneratorRandomAlphanumeric:
		return g.src.Alphanumeric(paramInt(s.Params, "length", 10)), nil

	case constants.GeneratorRandomPattern:
		pattern := paramString(s.Params, "pattern", "")
		if pattern == "" {
			return nil, fmt.Errorf("%w: random_pattern requires params.pattern", ErrInvalidSchema)
		}
		out, err := g.src.Pattern(pattern, paramInt(s.Params, "limit", 10))
		if err != nil {
			return nil, fmt.Errorf("%w: random_pattern %q: %s", ErrInvalidSchema, pattern, err)
		}
		return out, nil

	case constants.GeneratorChoice:
		return g.choose(paramSlice(s.Params, "choices"), paramFloats(s.Params, "weights"))

	case constants.GeneratorConditionalChoice:
		return g.conditionalChoice(s, ctx)

	case constants.GeneratorCurrentTimestamp:
		return formatTimestamp(timeFromContext(ctx), s.Format), nil

	case constants.GeneratorStaticHashed:
		return g.staticHashed(s)

	case constants.GeneratorDerived:
		return g.derived(s, ctx)

	case constants.GeneratorFromEntity:
		return g.fromEntity(s, ctx)

	default:
		if name, ok := strings.CutPrefix(id, constants.GeneratorFakerPrefix); ok {
			fn, ok := g.fakers[name]
			if !ok {
				return nil, fmt.Errorf("%w: unknown faker %q", ErrInvalidSchema, name)
			}
			return fn(s.Params)
		}
		return nil, fmt.Errorf("%w: unknown generator %q", ErrInvalidSchema, id)
	}
}

// choose picks uniformly, or weighted when weights are given. Weight count
// must match choice count.
func (g *Generator) choose(choices []any, weights []float64) (any, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: choice requires non-empty params.choices", ErrInvalidSchema)
	}
	if weights != nil {
		if len(weights) != len(choices) {
			return nil, fmt.Errorf("%w: %d weights for %d choices", ErrInvalidSchema, len(weights), len(choices))
		}
		idx := g.src.WeightedIndex(weights)
		if idx < 0 {
			return nil, fmt.Errorf("%w: choice weights sum to zero", ErrInvalidSchema)
		}
		return choices[idx], nil
	}
	return choices[g.src.Intn(len(choices))], nil
}

// conditionalChoice selects a case by comparing a context value, then draws
// from the case's choices like choice does.
func (g *Generator) conditionalChoice(s *schema.Schema, ctx Context) (any, error) {
	cases := paramSlice(s.Params, "cases")
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: conditional_choice requires params.cases", ErrInvalidSchema)
	}
	conditionField := paramString(s.Params, "condition_field", "")

	pick := func(c map[string]any) (any, error) {
		return g.choose(anySlice(c["choices"]), floatSlice(c["weights"]))
	}

	fallback := func() (any, error) {
		for _, raw := range cases {
			if c, ok := raw.(map[string]any); ok && truthy(c["default"]) {
				return pick(c)
			}
		}
		if c, ok := cases[0].(map[string]any); ok {
			return pick(c)
		}
		return nil, fmt.Errorf("%w: conditional_choice case is not a mapping", ErrInvalidSchema)
	}

	value, ok := ctx[conditionField]
	if !ok || value == nil {
		return fallback()
	}

	for _, raw := range cases {
		c, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: conditional_choice case is not a mapping", ErrInvalidSchema)
		}
		if expected, ok := c["condition_value"]; ok && looseEqual(expected, value) {
			return pick(c)
		}
		if threshold, ok := c["condition_value_greater_than"]; ok && greaterThan(value, threshold) {
			return pick(c)
		}
		if threshold, ok := c["condition_value_less_than"]; ok && lessThan(value, threshold) {
			return pick(c)
		}
		if members, ok := c["condition_value_in"]; ok && memberOf(value, members) {
			return pick(c)
		}
	}
	return fallback()
}

// staticHashed generates a raw value (nested generator spec or a random
// 12-char alphanumeric) and hashes it. The bcrypt-style shape keeps the
// $2a$10$ prefix over a truncated digest so seeded runs stay reproducible;
// real bcrypt salts would not.
func (g *Generator) staticHashed(s *schema.Schema) (string, error) {
	var raw string
	if source, ok := s.Params["raw_value_source"].(map[string]any); ok {
		sub := &schema.Schema{Type: "string"}
		if gen, ok := source["generator"].(string); ok {
			sub.Generator = gen
		}
		if params, ok := source["params"].(map[string]any); ok {
			sub.Params = params
		}
		if format, ok := source["format"].(string); ok {
			sub.Format = format
		}
		if sub.Generator == "" {
			raw = g.src.Alphanumeric(12)
		} else {
			value, err := g.leaf(sub.Generator, sub, Context{})
			if err != nil {
				return "", err
			}
			raw = fmt.Sprint(value)
		}
	} else {
		raw = g.src.Alphanumeric(12)
	}

	switch algorithm := paramString(s.Params, "algorithm", "bcrypt"); algorithm {
	case "bcrypt", "bcrypt-style":
		sum := md5.Sum([]byte(raw)) // #nosec G401
		return "$2a$10$" + hex.EncodeToString(sum[:])[:22], nil
	case "sha256":
		sum := sha256.Sum256([]byte(raw))
		return hex.EncodeToString(sum[:]), nil
	case "md5":
		sum := md5.Sum([]byte(raw)) // #nosec G401
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%w: unknown hash algorithm %q", ErrInvalidSchema, algorithm)
	}
}

// fromEntity resolves an entity from context (alias binding, consumed
// entities, or any stored instance) and navigates the dotted field path
// through its data.
func (g *Generator) fromEntity(s *schema.Schema, ctx Context) (any, error) {
	if s.FromEntity == "" || s.Field == "" {
		return nil, fmt.Errorf("%w: from_entity requires from_entity and field", ErrInvalidSchema)
	}

	entity := g.resolveEntity(s.FromEntity, ctx)
	if entity == nil {
		return nil, fmt.Errorf("no entity available for %q", s.FromEntity)
	}
	return state.Navigate(entity.Data, s.Field), nil
}

func (g *Generator) resolveEntity(name string, ctx Context) *state.Entity {
	if bound, ok := ctx[constants.ContextKeyEntityPrefix+name]; ok {
		if e := g.entityFromBinding(bound); e != nil {
			return e
		}
	}

	if consumed, ok := ctx[constants.ContextKeyConsumedEntities].(map[string][]state.Ref); ok {
		if refs, ok := consumed[name]; ok && len(refs) > 0 {
			if e := g.store.Resolve(refs[0]); e != nil {
				return e
			}
		}
		for _, alias := range sortedKeys(consumed) {
			refs := consumed[alias]
			if len(refs) > 0 && refs[0].EntityType == name {
				if e := g.store.Resolve(refs[0]); e != nil {
					return e
				}
			}
		}
	}

	all := g.store.AllOf(name)
	if len(all) == 0 {
		return nil
	}
	return all[g.src.Intn(len(all))]
}

func (g *Generator) entityFromBinding(bound any) *state.Entity {
	switch b := bound.(type) {
	case state.Ref:
		return g.store.Resolve(b)
	case []state.Ref:
		if len(b) > 0 {
			return g.store.Resolve(b[0])
		}
	}
	return nil
}

// timeFromContext reads the simulation clock, falling back to wall clock
// when a run never set it.
func timeFromContext(ctx Context) time.Time {
	if t, ok := ctx[constants.ContextKeySimulationTime].(time.Time); ok {
		return t
	}
	return time.Now()
}

// formatTimestamp renders a timestamp per format: iso8601 (default), unix
// or unix_ms.
func formatTimestamp(t time.Time, format string) any {
	switch format {
	case constants.FormatUnix:
		return t.Unix()
	case constants.FormatUnixMs:
		return t.UnixMilli()
	default:
		return t.Format(time.RFC3339Nano)
	}
}

// ---- parameter and comparison helpers ----

func paramInt(params map[string]any, key string, def int) int {
	if v, ok := params[key]; ok {
		if f, ok := toFloat(v); ok {
			return int(f)
		}
	}
	return def
}

func paramFloat(params map[string]any, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return def
}

func paramString(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func paramSlice(params map[string]any, key string) []any {
	return anySlice(params[key])
}

func paramFloats(params map[string]any, key string) []float64 {
	if _, ok := params[key]; !ok {
		return nil
	}
	return floatSlice(params[key])
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// floatSlice coerces a yaml list of numbers. Non-numeric entries become
// zero weight, which choose then reports as invalid if everything is.
func floatSlice(v any) []float64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, len(raw))
	for i, item := range raw {
		if f, ok := toFloat(item); ok {
			out[i] = f
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func greaterThan(v, threshold any) bool {
	vf, vok := toFloat(v)
	tf, tok := toFloat(threshold)
	return vok && tok && vf > tf
}

func lessThan(v, threshold any) bool {
	vf, vok := toFloat(v)
	tf, tok := toFloat(threshold)
	return vok && tok && vf < tf
}

func memberOf(v, members any) bool {
	for _, item := range anySlice(members) {
		if looseEqual(item, v) {
			return true
		}
	}
	return false
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func sortedKeys(m map[string][]state.Ref) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
