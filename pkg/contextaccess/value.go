package contextaccess

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the concrete type held by a Value.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindMap    ValueKind = "map"
)

// Value is a tagged union for context payloads. Using a closed set of kinds
// keeps the collaborator contract statically checkable instead of passing
// bare any values around.
type Value struct {
	Kind ValueKind        `json:"kind"`
	Str  string           `json:"str,omitempty"`
	Num  float64          `json:"num,omitempty"`
	Bool bool             `json:"bool,omitempty"`
	Map  map[string]Value `json:"map,omitempty"`
}

func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

func Map(m map[string]Value) Value {
	return Value{Kind: KindMap, Map: m}
}

// Interface returns the natural Go representation of the value.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, member := range v.Map {
			out[k] = member.Interface()
		}

		return out
	default:
		return nil
	}
}

// FromAny converts a decoded JSON value into a Value. Unsupported types
// return an error rather than being silently coerced.
func FromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case string:
		return String(typed), nil
	case float64:
		return Number(typed), nil
	case int:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case bool:
		return Bool(typed), nil
	case map[string]any:
		members := make(map[string]Value, len(typed))

		for k, rawMember := range typed {
			member, err := FromAny(rawMember)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}

			members[k] = member
		}

		return Map(members), nil
	default:
		return Value{}, fmt.Errorf("unsupported context value type %T", raw)
	}
}

// clone returns a deep copy.
func (v Value) clone() Value {
	if v.Kind != KindMap {
		return v
	}

	members := make(map[string]Value, len(v.Map))
	for k, member := range v.Map {
		members[k] = member.clone()
	}

	return Value{Kind: KindMap, Map: members}
}

// MarshalJSON emits the natural JSON form rather than the tagged struct, so
// snapshots serialize the way callers expect to read them.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON reverses MarshalJSON by inferring the kind from the JSON type.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	value, err := FromAny(raw)
	if err != nil {
		return err
	}

	*v = value

	return nil
}
