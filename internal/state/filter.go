package state

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/resink-ai/resinker/internal/config"
)

// ErrUnknownOperator is returned when a predicate names an operator the
// store does not implement.
var ErrUnknownOperator = errors.New("unknown filter operator")

const statePrefix = "state."

// Matches reports whether the entity satisfies every predicate (AND).
func Matches(e *Entity, filters []config.Predicate) (bool, error) {
	for _, f := range filters {
		actual := fieldValue(e, f.Field)
		ok, err := apply(f.Operator, actual, f.Value)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// fieldValue resolves a predicate field against the entity. "state.<key>"
// reads the state map; anything else walks the data map by dotted path.
// Missing segments yield nil.
func fieldValue(e *Entity, field string) any {
	if key, ok := strings.CutPrefix(field, statePrefix); ok {
		return e.State[key]
	}
	return Navigate(e.Data, field)
}

// Navigate walks a nested map by dotted path, returning nil when any
// segment is missing.
func Navigate(obj map[string]any, path string) any {
	var value any = obj
	for _, part := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value, ok = m[part]
		if !ok {
			return nil
		}
	}
	return value
}

func apply(operator string, actual, expected any) (bool, error) {
	switch operator {
	case config.OpEq:
		return looseEqual(actual, expected), nil
	case config.OpNe:
		return !looseEqual(actual, expected), nil
	case config.OpGt:
		cmp, ok := compare(actual, expected)
		return ok && cmp > 0, nil
	case config.OpLt:
		cmp, ok := compare(actual, expected)
		return ok && cmp < 0, nil
	case config.OpGe:
		cmp, ok := compare(actual, expected)
		return ok && cmp >= 0, nil
	case config.OpLe:
		cmp, ok := compare(actual, expected)
		return ok && cmp <= 0, nil
	case config.OpContains:
		return contains(actual, expected), nil
	case config.OpNotContains:
		return !contains(actual, expected), nil
	case config.OpIn:
		return contains(expected, actual), nil
	case config.OpNotIn:
		return !contains(expected, actual), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, operator)
	}
}

// looseEqual compares with numeric coercion so yaml ints match payload
// floats and vice versa.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values when they are mutually comparable. Null and
// mixed-type pairs are not, which makes ordering predicates false.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// contains reports whether container holds element: substring for strings,
// membership for slices. Non-containers hold nothing.
func contains(container, element any) bool {
	switch c := container.(type) {
	case string:
		s, ok := element.(string)
		return ok && strings.Contains(c, s)
	case []any:
		for _, item := range c {
			if looseEqual(item, element) {
				return true
			}
		}
	}
	return false
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

func isInt(v any) bool {
	switch v.(type) {
	case int, int32, int64, uint64:
		return true
	}
	return false
}
