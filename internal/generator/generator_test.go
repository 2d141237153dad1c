package generator

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/schema"
	"github.com/resink-ai/resinker/internal/state"
)

var uuidV4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func decodeSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s := &schema.Schema{}
	require.NoError(t, yaml.Unmarshal([]byte(doc), s))
	return s
}

func newTestGenerator(seed int64, schemas map[string]*schema.Schema) (*Generator, *state.Store) {
	store := state.NewStore(nil)
	return New(schema.NewRegistry(schemas), store, NewSource(seed)), store
}

func TestUUIDLeaf(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	value, err := g.Generate(decodeSchema(t, `{type: string, generator: uuid_v4}`), nil)
	require.NoError(t, err)
	assert.Regexp(t, uuidV4Pattern, value)
}

func TestRandomIntBounds(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	s := decodeSchema(t, `{type: integer, generator: random_int, params: {min: 5, max: 5}}`)

	for i := 0; i < 10; i++ {
		value, err := g.Generate(s, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, value)
	}

	s = decodeSchema(t, `{type: integer, generator: random_int, params: {min: 1, max: 3}}`)
	for i := 0; i < 50; i++ {
		value, err := g.Generate(s, nil)
		require.NoError(t, err)
		n := value.(int)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 3)
	}
}

func TestRandomFloatPrecision(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	s := decodeSchema(t, `{type: number, generator: random_float, params: {min: 10, max: 20, precision: 1}}`)

	for i := 0; i < 20; i++ {
		value, err := g.Generate(s, nil)
		require.NoError(t, err)
		f := value.(float64)
		assert.GreaterOrEqual(t, f, 10.0)
		assert.LessOrEqual(t, f, 20.0)
		assert.Equal(t, Round(f, 1), f)
	}
}

func TestRandomAlphanumeric(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	value, err := g.Generate(decodeSchema(t, `{type: string, generator: random_alphanumeric, params: {length: 24}}`), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Za-z0-9]{24}$`, value)

	value, err = g.Generate(decodeSchema(t, `{type: string, generator: random_alphanumeric}`), nil)
	require.NoError(t, err)
	assert.Len(t, value, 10)
}

func TestRandomPattern(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	value, err := g.Generate(decodeSchema(t, `{type: string, generator: random_pattern, params: {pattern: "^[a-z]{5}-[0-9]{3}$"}}`), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z]{5}-[0-9]{3}$`, value)

	_, err = g.Generate(decodeSchema(t, `{type: string, generator: random_pattern}`), nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestChoice(t *testing.T) {
	g, _ := newTestGenerator(42, nil)

	s := decodeSchema(t, `{type: string, generator: choice, params: {choices: [a, b, c]}}`)
	value, err := g.Generate(s, nil)
	require.NoError(t, err)
	assert.Contains(t, []any{"a", "b", "c"}, value)

	// Weighted selection never picks a zero-weight choice, so the only
	// positive weight always wins.
	s = decodeSchema(t, `{type: string, generator: choice, params: {choices: [a, b], weights: [1, 0]}}`)
	for i := 0; i < 25; i++ {
		value, err := g.Generate(s, nil)
		require.NoError(t, err)
		assert.Equal(t, "a", value)
	}
}

func TestChoiceWeightsLengthMismatch(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	s := decodeSchema(t, `{type: string, generator: choice, params: {choices: [a, b, c], weights: [1, 2]}}`)
	_, err := g.Generate(s, nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestChoiceEmpty(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	_, err := g.Generate(decodeSchema(t, `{type: string, generator: choice}`), nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestConditionalChoice(t *testing.T) {
	doc := `
type: string
generator: conditional_choice
params:
  condition_field: tier
  cases:
    - condition_value: gold
      choices: [vip]
    - condition_value_greater_than: 100
      choices: [big]
    - condition_value_in: [silver, bronze]
      choices: [regular]
    - default: true
      choices: [unknown]
`
	g, _ := newTestGenerator(42, nil)
	s := decodeSchema(t, doc)

	tests := []struct {
		name string
		ctx  Context
		want any
	}{
		{"eq match", Context{"tier": "gold"}, "vip"},
		{"greater_than match", Context{"tier": 150}, "big"},
		{"in match", Context{"tier": "bronze"}, "regular"},
		{"no match falls to default", Context{"tier": "lead"}, "unknown"},
		{"missing condition falls to default", Context{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := g.Generate(s, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestConditionalChoiceFirstCaseFallback(t *testing.T) {
	doc := `
type: string
generator: conditional_choice
params:
  condition_field: tier
  cases:
    - condition_value: gold
      choices: [vip]
    - condition_value: silver
      choices: [regular]
`
	g, _ := newTestGenerator(42, nil)
	value, err := g.Generate(decodeSchema(t, doc), Context{"tier": "lead"})
	require.NoError(t, err)
	assert.Equal(t, "vip", value)
}

func TestConditionalChoiceEmptyCases(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	s := decodeSchema(t, `{type: string, generator: conditional_choice, params: {condition_field: x}}`)
	_, err := g.Generate(s, Context{"x": 1})
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestCurrentTimestampFormats(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	at := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	ctx := Context{constants.ContextKeySimulationTime: at}

	value, err := g.Generate(decodeSchema(t, `{type: string, generator: current_timestamp}`), ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:30:45Z", value)

	value, err = g.Generate(decodeSchema(t, `{type: integer, generator: current_timestamp, format: unix}`), ctx)
	require.NoError(t, err)
	assert.Equal(t, at.Unix(), value)

	value, err = g.Generate(decodeSchema(t, `{type: integer, generator: current_timestamp, format: unix_ms}`), ctx)
	require.NoError(t, err)
	assert.Equal(t, at.UnixMilli(), value)
}

func TestStaticHashedShapes(t *testing.T) {
	g, _ := newTestGenerator(42, nil)

	value, err := g.Generate(decodeSchema(t, `{type: string, generator: static_hashed}`), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^\$2a\$10\$[0-9a-f]{22}$`, value)

	value, err = g.Generate(decodeSchema(t, `{type: string, generator: static_hashed, params: {algorithm: sha256}}`), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{64}$`, value)

	value, err = g.Generate(decodeSchema(t, `{type: string, generator: static_hashed, params: {algorithm: md5}}`), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{32}$`, value)

	_, err = g.Generate(decodeSchema(t, `{type: string, generator: static_hashed, params: {algorithm: rot13}}`), nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestStaticHashedNestedSource(t *testing.T) {
	doc := `
type: string
generator: static_hashed
params:
  algorithm: sha256
  raw_value_source:
    generator: choice
    params:
      choices: [hunter2]
`
	// sha256("hunter2")
	const want = "f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7"

	g, _ := newTestGenerator(42, nil)
	value, err := g.Generate(decodeSchema(t, doc), nil)
	require.NoError(t, err)
	assert.Equal(t, want, value)
}

func TestDerivedExpression(t *testing.T) {
	g, _ := newTestGenerator(42, nil)

	s := decodeSchema(t, `{type: number, generator: derived, params: {expression: "price * quantity", precision: 2}}`)
	value, err := g.Generate(s, Context{"price": 2.5, "quantity": 4})
	require.NoError(t, err)
	assert.Equal(t, 10.0, value)

	s = decodeSchema(t, `{type: number, generator: derived, params: {expression: "sum(amounts)"}}`)
	value, err = g.Generate(s, Context{"amounts": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.EqualValues(t, 6, value)

	s = decodeSchema(t, `{type: boolean, generator: derived, params: {expression: "total > 5"}}`)
	value, err = g.Generate(s, Context{"total": 10})
	require.NoError(t, err)
	assert.Equal(t, true, value)
}

func TestDerivedUnknownName(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	s := decodeSchema(t, `{type: number, generator: derived, params: {expression: "missing + 1"}}`)
	_, err := g.Generate(s, Context{"present": 1})
	assert.ErrorIs(t, err, ErrUnknownName)
}

func TestDerivedRequiresExpression(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	_, err := g.Generate(decodeSchema(t, `{type: number, generator: derived}`), nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestFakerLeaves(t *testing.T) {
	g, _ := newTestGenerator(42, nil)

	value, err := g.Generate(decodeSchema(t, `{type: string, generator: faker.email}`), nil)
	require.NoError(t, err)
	assert.Contains(t, value.(string), "@")

	value, err = g.Generate(decodeSchema(t, `{type: string, generator: faker.ecommerce.product_name}`), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, value)

	_, err = g.Generate(decodeSchema(t, `{type: string, generator: faker.unobtainium}`), nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestUnknownGenerator(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	_, err := g.Generate(decodeSchema(t, `{type: string, generator: quantum_noise}`), nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestNullableProbabilityOne(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	s := decodeSchema(t, `{type: string, generator: uuid_v4, nullable_probability: 1.0}`)

	for i := 0; i < 20; i++ {
		value, err := g.Generate(s, nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	}
}

func TestNullableProbabilityZeroIsDeterministic(t *testing.T) {
	doc := `
type: object
properties:
  id:
    type: string
    generator: uuid_v4
    nullable_probability: 0.0
  amount:
    type: number
    generator: random_float
    params: {min: 0, max: 100}
`
	s := decodeSchema(t, doc)

	// Sources are created and used one at a time: NewSource reseeds the
	// process-wide faker and uuid streams.
	first, _ := newTestGenerator(7, nil)
	a, err := first.Generate(s, Context{})
	require.NoError(t, err)

	second, _ := newTestGenerator(7, nil)
	b, err := second.Generate(s, Context{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestObjectSiblingContext(t *testing.T) {
	doc := `
type: object
properties:
  quantity:
    type: integer
    generator: random_int
    params: {min: 3, max: 3}
  unit_price:
    type: number
    generator: random_float
    params: {min: 2, max: 2}
  total:
    type: number
    generator: derived
    params:
      expression: "quantity * unit_price"
`
	g, _ := newTestGenerator(42, nil)
	value, err := g.Generate(decodeSchema(t, doc), Context{})
	require.NoError(t, err)

	obj := value.(map[string]any)
	assert.Equal(t, 3, obj["quantity"])
	assert.Equal(t, 2.0, obj["unit_price"])
	assert.EqualValues(t, 6, obj["total"])
}

func TestObjectContextDoesNotLeakToParent(t *testing.T) {
	g, _ := newTestGenerator(42, nil)
	ctx := Context{"outer": 1}
	_, err := g.Generate(decodeSchema(t, `
type: object
properties:
  inner:
    type: integer
    generator: random_int
`), ctx)
	require.NoError(t, err)
	_, leaked := ctx["inner"]
	assert.False(t, leaked)
}

func TestArrayBoundsAndIndexContext(t *testing.T) {
	doc := `
type: array
min_items: 2
max_items: 4
items:
  type: integer
  generator: derived
  params:
    expression: "array_index * 10"
`
	g, _ := newTestGenerator(42, nil)
	value, err := g.Generate(decodeSchema(t, doc), Context{})
	require.NoError(t, err)

	items := value.([]any)
	assert.GreaterOrEqual(t, len(items), 2)
	assert.LessOrEqual(t, len(items), 4)
	for i, item := range items {
		assert.EqualValues(t, i*10, item)
	}
}

func TestArrayMaxDefaultsToMinPlusFive(t *testing.T) {
	doc := `
type: array
min_items: 1
items:
  type: string
`
	g, _ := newTestGenerator(42, nil)
	for i := 0; i < 20; i++ {
		value, err := g.Generate(decodeSchema(t, doc), Context{})
		require.NoError(t, err)
		n := len(value.([]any))
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 6)
	}
}

func TestRefMergeAndRecurse(t *testing.T) {
	schemas := map[string]*schema.Schema{
		"code": decodeSchema(t, `{type: string, generator: random_alphanumeric, params: {length: 4}}`),
	}
	g, _ := newTestGenerator(42, schemas)

	value, err := g.Generate(decodeSchema(t, `{"$ref": "#/schemas/code", params: {length: 9}}`), nil)
	require.NoError(t, err)
	assert.Len(t, value, 9)

	_, err = g.Generate(decodeSchema(t, `{"$ref": "#/schemas/ghost"}`), nil)
	assert.ErrorIs(t, err, schema.ErrSchemaNotFound)
}

func TestFromEntityNavigatesData(t *testing.T) {
	g, store := newTestGenerator(42, nil)
	entity := store.Create("user", map[string]any{
		"user_id": "u-1",
		"address": map[string]any{"city": "Lisbon"},
	}, "user_id")

	s := decodeSchema(t, `{from_entity: user, field: address.city}`)

	// Bound through the context handle.
	ctx := Context{constants.ContextKeyEntityPrefix + "user": entity.Ref()}
	value, err := g.Generate(s, ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", value)

	// Missing path segments resolve to null.
	s = decodeSchema(t, `{from_entity: user, field: address.zip}`)
	value, err = g.Generate(s, ctx)
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestFromEntityConsumedAndStoreFallback(t *testing.T) {
	g, store := newTestGenerator(42, nil)
	entity := store.Create("user", map[string]any{"user_id": "u-1", "name": "Ada"}, "user_id")

	s := decodeSchema(t, `{from_entity: buyer, field: name}`)
	ctx := Context{
		constants.ContextKeyConsumedEntities: map[string][]state.Ref{
			"buyer": {entity.Ref()},
		},
	}
	value, err := g.Generate(s, ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", value)

	// With no binding at all, any stored entity of the type serves.
	value, err = g.Generate(decodeSchema(t, `{from_entity: user, field: name}`), Context{})
	require.NoError(t, err)
	assert.Equal(t, "Ada", value)

	// No entity anywhere is an error.
	_, err = g.Generate(decodeSchema(t, `{from_entity: order, field: id}`), Context{})
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	s := decodeSchema(t, `
type: object
properties:
  status:
    type: string
    generator: choice
    params: {choices: [pending, shipped]}
  note:
    type: string
`)
	g, _ := newTestGenerator(42, nil)

	pinned := ApplyOverrides(s, map[string]any{"status": "cancelled", "ghost": true})
	value, err := g.Generate(pinned, Context{})
	require.NoError(t, err)

	obj := value.(map[string]any)
	assert.Equal(t, "cancelled", obj["status"])
	_, hasGhost := obj["ghost"]
	assert.False(t, hasGhost)

	// The original schema still generates.
	value, err = g.Generate(s, Context{})
	require.NoError(t, err)
	assert.Contains(t, []any{"pending", "shipped"}, value.(map[string]any)["status"])
}

func TestDefaultScalars(t *testing.T) {
	g, _ := newTestGenerator(42, nil)

	value, err := g.Generate(decodeSchema(t, `{type: string}`), nil)
	require.NoError(t, err)
	assert.IsType(t, "", value)

	value, err = g.Generate(decodeSchema(t, `{type: integer}`), nil)
	require.NoError(t, err)
	n := value.(int)
	assert.GreaterOrEqual(t, n, 0)
	assert.LessOrEqual(t, n, 100)

	value, err = g.Generate(decodeSchema(t, `{type: number}`), nil)
	require.NoError(t, err)
	f := value.(float64)
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Less(t, f, 100.0)

	value, err = g.Generate(decodeSchema(t, `{type: boolean}`), nil)
	require.NoError(t, err)
	assert.IsType(t, true, value)

	_, err = g.Generate(decodeSchema(t, `{type: tensor}`), nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}
