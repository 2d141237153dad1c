package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decodeSchema(t *testing.T, doc string) *Schema {
	t.Helper()
	s := &Schema{}
	require.NoError(t, yaml.Unmarshal([]byte(doc), s))
	return s
}

func TestUnmarshalPreservesPropertyOrder(t *testing.T) {
	s := decodeSchema(t, `
type: object
properties:
  zulu:
    type: string
  alpha:
    type: integer
  mike:
    type: boolean
`)

	require.Len(t, s.Properties, 3)
	assert.Equal(t, "zulu", s.Properties[0].Name)
	assert.Equal(t, "alpha", s.Properties[1].Name)
	assert.Equal(t, "mike", s.Properties[2].Name)
}

func TestUnmarshalScalarFields(t *testing.T) {
	s := decodeSchema(t, `
type: integer
generator: random_int
params:
  min: 5
  max: 10
nullable_probability: 0.25
`)

	assert.Equal(t, "integer", s.Type)
	assert.Equal(t, "random_int", s.Generator)
	assert.Equal(t, 5, s.Params["min"])
	assert.Equal(t, 10, s.Params["max"])
	require.NotNil(t, s.NullableProbability)
	assert.Equal(t, 0.25, *s.NullableProbability)
}

func TestUnmarshalArrayBounds(t *testing.T) {
	s := decodeSchema(t, `
type: array
items:
  type: string
min_items: 2
max_items: 4
`)

	require.NotNil(t, s.Items)
	assert.Equal(t, "string", s.Items.Type)
	require.NotNil(t, s.MinItems)
	require.NotNil(t, s.MaxItems)
	assert.Equal(t, 2, *s.MinItems)
	assert.Equal(t, 4, *s.MaxItems)
}

func TestUnmarshalRejectsNonMapping(t *testing.T) {
	s := &Schema{}
	err := yaml.Unmarshal([]byte(`[1, 2, 3]`), s)
	assert.Error(t, err)
}

func TestMergeOverlaysReferencingFields(t *testing.T) {
	base := decodeSchema(t, `
type: string
generator: random_alphanumeric
params:
  length: 8
`)
	ref := decodeSchema(t, `
$ref: "#/schemas/code"
nullable_probability: 0.5
params:
  length: 16
`)

	merged := Merge(base, ref)

	assert.Empty(t, merged.Ref)
	assert.Equal(t, "string", merged.Type)
	assert.Equal(t, "random_alphanumeric", merged.Generator)
	assert.Equal(t, 16, merged.Params["length"])
	require.NotNil(t, merged.NullableProbability)
	assert.Equal(t, 0.5, *merged.NullableProbability)

	// The referenced schema is untouched.
	assert.Equal(t, 8, base.Params["length"])
	assert.Nil(t, base.NullableProbability)
}

func TestRegistryResolve(t *testing.T) {
	user := decodeSchema(t, `{type: object}`)
	registry := NewRegistry(map[string]*Schema{"user": user})

	resolved, err := registry.Resolve("user")
	require.NoError(t, err)
	assert.Same(t, user, resolved)

	resolved, err = registry.ResolveRef("#/schemas/user")
	require.NoError(t, err)
	assert.Same(t, user, resolved)

	_, err = registry.Resolve("ghost")
	assert.ErrorIs(t, err, ErrSchemaNotFound)

	_, err = registry.ResolveRef("#/schemas/ghost")
	assert.ErrorIs(t, err, ErrSchemaNotFound)
}

func TestWithValue(t *testing.T) {
	s := decodeSchema(t, `{type: string, generator: uuid_v4}`)
	pinned := s.WithValue("fixed")

	assert.Equal(t, "fixed", pinned.Value)
	assert.Nil(t, s.Value)
}
