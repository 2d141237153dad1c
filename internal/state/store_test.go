package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resink-ai/resinker/internal/config"
)

func newTestStore() *Store {
	return NewStore(nil)
}

func TestCreateUsesPrimaryKey(t *testing.T) {
	s := newTestStore()
	e := s.Create("user", map[string]any{"user_id": "u-1", "name": "Ada"}, "user_id")

	assert.Equal(t, "u-1", e.ID)
	assert.Same(t, e, s.Get("user", "u-1"))
}

func TestCreateFallsBackToUUID(t *testing.T) {
	s := newTestStore()
	e := s.Create("user", map[string]any{"name": "Ada"}, "user_id")

	assert.NotEmpty(t, e.ID)
	assert.Same(t, e, s.Get("user", e.ID))
}

func TestCreateLastWriterWins(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "u-1", "name": "Ada"}, "user_id")
	second := s.Create("user", map[string]any{"user_id": "u-1", "name": "Grace"}, "user_id")

	assert.Same(t, second, s.Get("user", "u-1"))
	assert.Len(t, s.AllOf("user"), 1)
}

func TestAllOfKeepsInsertionOrder(t *testing.T) {
	s := newTestStore()
	for _, id := range []string{"c", "a", "b"} {
		s.Create("user", map[string]any{"user_id": id}, "user_id")
	}

	all := s.AllOf("user")
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.Equal(t, "b", all[2].ID)
}

func TestUpdateData(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "u-1", "name": "Ada"}, "user_id")

	e := s.UpdateData("user", "u-1", map[string]any{"name": "Grace", "tier": "gold"})
	require.NotNil(t, e)
	assert.Equal(t, "Grace", e.Data["name"])
	assert.Equal(t, "gold", e.Data["tier"])

	assert.Nil(t, s.UpdateData("user", "ghost", map[string]any{"name": "x"}))
}

func TestUpdateStateSetAndIncrement(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "u-1"}, "user_id")

	e, err := s.UpdateState("user", "u-1",
		map[string]any{"status": "active"},
		map[string]any{"purchase_count": 1})
	require.NoError(t, err)
	assert.Equal(t, "active", e.State["status"])
	assert.Equal(t, int64(1), e.State["purchase_count"])

	_, err = s.UpdateState("user", "u-1", nil, map[string]any{"purchase_count": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Get("user", "u-1").State["purchase_count"])
}

func TestUpdateStateFloatIncrement(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "u-1"}, "user_id")

	_, err := s.UpdateState("user", "u-1", map[string]any{"total": 1.5}, nil)
	require.NoError(t, err)
	_, err = s.UpdateState("user", "u-1", nil, map[string]any{"total": 2})
	require.NoError(t, err)
	assert.Equal(t, 3.5, s.Get("user", "u-1").State["total"])
}

func TestUpdateStateTypeMismatch(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "u-1"}, "user_id")
	_, err := s.UpdateState("user", "u-1", map[string]any{"status": "active"}, nil)
	require.NoError(t, err)

	_, err = s.UpdateState("user", "u-1", nil, map[string]any{"status": 1})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = s.UpdateState("user", "u-1", nil, map[string]any{"purchase_count": "one"})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

// A failing increment must leave the whole update unapplied so no event
// observes a partially-updated entity.
func TestUpdateStateAtomicOnFailure(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "u-1"}, "user_id")
	_, err := s.UpdateState("user", "u-1", map[string]any{"status": "old"}, nil)
	require.NoError(t, err)

	_, err = s.UpdateState("user", "u-1",
		map[string]any{"status": "new"},
		map[string]any{"status": 1})
	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, "old", s.Get("user", "u-1").State["status"])
}

func TestUpdateStateMissingEntity(t *testing.T) {
	s := newTestStore()
	e, err := s.UpdateState("user", "ghost", map[string]any{"a": 1}, nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestDelete(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "u-1"}, "user_id")

	assert.True(t, s.Delete("user", "u-1"))
	assert.Nil(t, s.Get("user", "u-1"))
	assert.Empty(t, s.AllOf("user"))
	assert.False(t, s.Delete("user", "u-1"))
}

func TestFindAndCountWithFilters(t *testing.T) {
	s := newTestStore()
	for i, tier := range []string{"gold", "silver", "gold"} {
		e := s.Create("user", map[string]any{
			"user_id": []string{"a", "b", "c"}[i],
			"tier":    tier,
			"age":     30 + i,
		}, "user_id")
		e.State["active"] = i != 1
	}

	tests := []struct {
		name    string
		filters []config.Predicate
		wantIDs []string
	}{
		{
			name:    "eq on data",
			filters: []config.Predicate{{Field: "tier", Operator: config.OpEq, Value: "gold"}},
			wantIDs: []string{"a", "c"},
		},
		{
			name:    "ne",
			filters: []config.Predicate{{Field: "tier", Operator: config.OpNe, Value: "gold"}},
			wantIDs: []string{"b"},
		},
		{
			name:    "gt numeric",
			filters: []config.Predicate{{Field: "age", Operator: config.OpGt, Value: 30}},
			wantIDs: []string{"b", "c"},
		},
		{
			name:    "le numeric",
			filters: []config.Predicate{{Field: "age", Operator: config.OpLe, Value: 31}},
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "state prefix",
			filters: []config.Predicate{{Field: "state.active", Operator: config.OpEq, Value: true}},
			wantIDs: []string{"a", "c"},
		},
		{
			name:    "in list",
			filters: []config.Predicate{{Field: "tier", Operator: config.OpIn, Value: []any{"silver", "bronze"}}},
			wantIDs: []string{"b"},
		},
		{
			name:    "not_in list",
			filters: []config.Predicate{{Field: "tier", Operator: config.OpNotIn, Value: []any{"silver"}}},
			wantIDs: []string{"a", "c"},
		},
		{
			name:    "contains substring",
			filters: []config.Predicate{{Field: "tier", Operator: config.OpContains, Value: "old"}},
			wantIDs: []string{"a", "c"},
		},
		{
			name: "conjunction",
			filters: []config.Predicate{
				{Field: "tier", Operator: config.OpEq, Value: "gold"},
				{Field: "age", Operator: config.OpGt, Value: 30},
			},
			wantIDs: []string{"c"},
		},
		{
			name:    "missing field ordering is false",
			filters: []config.Predicate{{Field: "height", Operator: config.OpGt, Value: 1}},
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := s.Find("user", tt.filters, 0)
			require.NoError(t, err)
			var ids []string
			for _, e := range found {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)

			count, err := s.Count("user", tt.filters)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantIDs), count)
		})
	}
}

func TestFindLimit(t *testing.T) {
	s := newTestStore()
	for _, id := range []string{"a", "b", "c"} {
		s.Create("user", map[string]any{"user_id": id}, "user_id")
	}

	found, err := s.Find("user", nil, 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "a", found[0].ID)
}

func TestFindUnknownOperator(t *testing.T) {
	s := newTestStore()
	s.Create("user", map[string]any{"user_id": "a"}, "user_id")

	_, err := s.Find("user", []config.Predicate{{Field: "user_id", Operator: "resembles", Value: "a"}}, 0)
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestNavigateDottedPath(t *testing.T) {
	data := map[string]any{
		"address": map[string]any{
			"city": "Lisbon",
		},
	}
	assert.Equal(t, "Lisbon", Navigate(data, "address.city"))
	assert.Nil(t, Navigate(data, "address.zip"))
	assert.Nil(t, Navigate(data, "missing.path"))
}
