package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resink-ai/resinker/internal/constants"
)

// ErrSchemaNotFound is returned when a name or $ref has no registered schema.
var ErrSchemaNotFound = errors.New("schema not found")

// Registry is an immutable lookup of named schemas.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry builds a registry over the given named schemas.
func NewRegistry(schemas map[string]*Schema) *Registry {
	if schemas == nil {
		schemas = map[string]*Schema{}
	}
	return &Registry{schemas: schemas}
}

// Resolve returns the schema registered under name.
func (r *Registry) Resolve(name string) (*Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	return s, nil
}

// ResolveRef resolves a "#/schemas/<name>" reference. Bare names are
// accepted too, matching how event definitions may spell schema_ref.
func (r *Registry) ResolveRef(ref string) (*Schema, error) {
	return r.Resolve(strings.TrimPrefix(ref, constants.SchemaRefPrefix))
}

// Len reports the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.schemas)
}
