package state

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/observability"
)

// ErrTypeMismatch is returned when an increment touches a non-numeric
// current value or carries a non-numeric delta.
var ErrTypeMismatch = errors.New("type mismatch")

// Entity is one instance of an entity type. Data is the originating payload
// snapshot; State is a mutable attribute bag in a disjoint namespace.
type Entity struct {
	EntityType string
	ID         string
	PrimaryKey string
	Data       map[string]any
	State      map[string]any
	CreatedAt  time.Time
}

// Ref is a stable handle to an entity, resolved against the store on use.
// Contexts and scenario instances carry refs, never entity pointers.
type Ref struct {
	EntityType string
	ID         string
}

// Ref returns the entity's handle.
func (e *Entity) Ref() Ref {
	return Ref{EntityType: e.EntityType, ID: e.ID}
}

type bucket struct {
	byID  map[string]*Entity
	order []*Entity
}

// Store is the typed in-memory registry of entity instances. Iteration over
// a type follows insertion order, which keeps selection deterministic under
// a fixed seed.
type Store struct {
	buckets map[string]*bucket
	logger  *observability.Logger
}

// NewStore creates an empty store.
func NewStore(logger *observability.Logger) *Store {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Store{
		buckets: map[string]*bucket{},
		logger:  logger,
	}
}

func (s *Store) bucketFor(entityType string) *bucket {
	b, ok := s.buckets[entityType]
	if !ok {
		b = &bucket{byID: map[string]*Entity{}}
		s.buckets[entityType] = b
		s.logger.Debug("registered entity type", zap.String("entity_type", entityType))
	}
	return b
}

// Create registers a new entity. The id comes from data[primaryKey] when
// present, otherwise a fresh uuid. An entity with the same id is replaced,
// last writer wins.
func (s *Store) Create(entityType string, data map[string]any, primaryKey string) *Entity {
	b := s.bucketFor(entityType)

	var id string
	if v, ok := data[primaryKey]; ok && v != nil {
		id = fmt.Sprint(v)
	} else {
		id = uuid.NewString()
	}

	entity := &Entity{
		EntityType: entityType,
		ID:         id,
		PrimaryKey: primaryKey,
		Data:       data,
		State:      map[string]any{},
		CreatedAt:  time.Now(),
	}

	if prev, ok := b.byID[id]; ok {
		for i, e := range b.order {
			if e == prev {
				b.order[i] = entity
				break
			}
		}
	} else {
		b.order = append(b.order, entity)
	}
	b.byID[id] = entity

	s.logger.Debug("created entity",
		zap.String("entity_type", entityType),
		zap.String("id", id))
	return entity
}

// UpdateData shallow-merges delta into the entity's data. Returns nil when
// the entity does not exist; that is non-fatal.
func (s *Store) UpdateData(entityType, id string, delta map[string]any) *Entity {
	entity := s.Get(entityType, id)
	if entity == nil {
		s.logger.Warn("entity not found for data update",
			zap.String("entity_type", entityType),
			zap.String("id", id))
		return nil
	}
	for k, v := range delta {
		entity.Data[k] = v
	}
	s.logger.Debug("updated entity data",
		zap.String("entity_type", entityType),
		zap.String("id", id))
	return entity
}

// UpdateState applies sets then increments against the entity. Increments
// are validated up front so a failing update leaves the state untouched.
func (s *Store) UpdateState(entityType, id string, sets, increments map[string]any) (*Entity, error) {
	entity := s.Get(entityType, id)
	if entity == nil {
		s.logger.Warn("entity not found for state update",
			zap.String("entity_type", entityType),
			zap.String("id", id))
		return nil, nil
	}

	type pending struct {
		key   string
		value any
	}
	applied := make([]pending, 0, len(increments))
	for key, delta := range increments {
		current, ok := entity.State[key]
		if !ok || current == nil {
			current = 0
		}
		cur, curOK := toFloat(current)
		d, deltaOK := toFloat(delta)
		if !curOK || !deltaOK {
			return nil, fmt.Errorf("%w: cannot increment %s.state.%s (current %T, delta %T)",
				ErrTypeMismatch, entityType, key, current, delta)
		}
		if isInt(current) && isInt(delta) {
			applied = append(applied, pending{key, int64(cur) + int64(d)})
		} else {
			applied = append(applied, pending{key, cur + d})
		}
	}

	for key, value := range sets {
		entity.State[key] = value
	}
	for _, p := range applied {
		entity.State[p.key] = p.value
	}

	s.logger.Debug("updated entity state",
		zap.String("entity_type", entityType),
		zap.String("id", id),
		zap.Int("set", len(sets)),
		zap.Int("incremented", len(applied)))
	return entity, nil
}

// Get returns an entity by type and id, or nil.
func (s *Store) Get(entityType, id string) *Entity {
	b, ok := s.buckets[entityType]
	if !ok {
		return nil
	}
	return b.byID[id]
}

// Resolve turns a handle back into the live entity, or nil.
func (s *Store) Resolve(ref Ref) *Entity {
	return s.Get(ref.EntityType, ref.ID)
}

// AllOf returns all entities of a type in insertion order.
func (s *Store) AllOf(entityType string) []*Entity {
	b, ok := s.buckets[entityType]
	if !ok {
		return nil
	}
	out := make([]*Entity, len(b.order))
	copy(out, b.order)
	return out
}

// Find returns entities of a type matching all filters, in insertion order.
// A limit <= 0 means unbounded.
func (s *Store) Find(entityType string, filters []config.Predicate, limit int) ([]*Entity, error) {
	b, ok := s.buckets[entityType]
	if !ok {
		return nil, nil
	}
	var out []*Entity
	for _, e := range b.order {
		match, err := Matches(e, filters)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// Count counts entities of a type, optionally filtered.
func (s *Store) Count(entityType string, filters []config.Predicate) (int, error) {
	b, ok := s.buckets[entityType]
	if !ok {
		return 0, nil
	}
	if len(filters) == 0 {
		return len(b.order), nil
	}
	matched, err := s.Find(entityType, filters, 0)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// Delete removes an entity by id.
func (s *Store) Delete(entityType, id string) bool {
	b, ok := s.buckets[entityType]
	if !ok {
		return false
	}
	entity, ok := b.byID[id]
	if !ok {
		s.logger.Warn("entity not found for deletion",
			zap.String("entity_type", entityType),
			zap.String("id", id))
		return false
	}
	delete(b.byID, id)
	for i, e := range b.order {
		if e == entity {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	s.logger.Debug("deleted entity",
		zap.String("entity_type", entityType),
		zap.String("id", id))
	return true
}

// Types returns all registered entity types, sorted.
func (s *Store) Types() []string {
	types := make([]string, 0, len(s.buckets))
	for t := range s.buckets {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
