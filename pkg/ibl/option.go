package ibl

import (
	"fmt"
	"reflect"

	"github.com/rogerlew/goibl/internal/instance"
)

// canonicalize turns a caller-supplied option into the declared-schema
// ordered attribute tuple the instance store and activation engine operate
// on (spec §4.5 step 2 "canonicalize its attribute tuple").
//
// With an empty schema, opt is the raw decision value carried under the
// single synthetic _decision attribute (spec §3). With a schema of exactly
// one attribute, opt may be the raw value directly or a one-entry map.
// Otherwise opt must be a map[string]any covering exactly the declared
// attributes.
func canonicalize(schema []string, opt any) (instance.Tuple, error) {
	if len(schema) == 0 {
		if err := requireComparable("_decision", opt); err != nil {
			return nil, err
		}
		return instance.Tuple{{Name: "_decision", Value: opt}}, nil
	}

	if m, ok := opt.(map[string]any); ok {
		return tupleFromMap(schema, m)
	}

	if len(schema) == 1 {
		if err := requireComparable(schema[0], opt); err != nil {
			return nil, err
		}
		return instance.Tuple{{Name: schema[0], Value: opt}}, nil
	}

	return nil, fmt.Errorf("%w: option must be a map[string]any for a schema with %d attributes", ErrSchema, len(schema))
}

func tupleFromMap(schema []string, m map[string]any) (instance.Tuple, error) {
	out := make(instance.Tuple, 0, len(schema))
	for _, name := range schema {
		v, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("%w: option missing attribute %q", ErrSchema, name)
		}
		if err := requireComparable(name, v); err != nil {
			return nil, err
		}
		out = append(out, instance.Attr{Name: name, Value: v})
	}
	if len(m) != len(schema) {
		declared := make(map[string]bool, len(schema))
		for _, name := range schema {
			declared[name] = true
		}
		for k := range m {
			if !declared[k] {
				return nil, fmt.Errorf("%w: unknown attribute %q", ErrSchema, k)
			}
		}
	}
	return out, nil
}

// requireComparable rejects attribute values that cannot be compared with
// ==, since activation's exact-match prefilter relies on native equality
// (spec §9 "Dynamic attribute values").
func requireComparable(name string, v any) error {
	if v == nil {
		return nil
	}
	if !reflect.TypeOf(v).Comparable() {
		return fmt.Errorf("%w: attribute %q value of type %T is not comparable", ErrSchema, name, v)
	}
	return nil
}
