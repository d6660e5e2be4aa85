package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is a tagged variant holding one extra-field value: a scalar, a
// string, a sequence or a nested mapping. Wire payloads are dynamically
// typed; Value pins each decoded field to one of these shapes so the
// rest of the system never deals with ambient interface{} values.
//
// The zero Value is the nil value.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

func Nil() Value            { return Value{} }
func Bool(v bool) Value     { return Value{kind: KindBool, b: v} }
func Int(v int64) Value     { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }
func List(v []Value) Value  { return Value{kind: KindList, list: v} }

func Map(v map[string]Value) Value {
	if v == nil {
		v = map[string]Value{}
	}
	return Value{kind: KindMap, m: v}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNil() bool     { return v.kind == KindNil }

// BoolVal returns the boolean payload; false unless KindBool.
func (v Value) BoolVal() bool { return v.b }

// IntVal returns the integer payload; 0 unless KindInt.
func (v Value) IntVal() int64 { return v.i }

// FloatVal returns the float payload. For KindInt the integer is
// converted, so numeric fields can be read uniformly.
func (v Value) FloatVal() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// StrVal returns the string payload; "" unless KindString.
func (v Value) StrVal() string { return v.s }

// ListVal returns the sequence payload; nil unless KindList.
func (v Value) ListVal() []Value { return v.list }

// MapVal returns the mapping payload; nil unless KindMap.
func (v Value) MapVal() map[string]Value { return v.m }

// FromAny normalizes a dynamically typed decoded value into a Value.
// Unsupported types are rendered with fmt, matching the original
// behavior of stringifying anything that is not a scalar.
func FromAny(in any) Value {
	switch t := in.(type) {
	case nil:
		return Nil()
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return Int(int64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t))
		}
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return String(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case []any:
		list := make([]Value, len(t))
		for i, el := range t {
			list[i] = FromAny(el)
		}
		return List(list)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, el := range t {
			m[k] = FromAny(el)
		}
		return Map(m)
	case map[any]any:
		m := make(map[string]Value, len(t))
		for k, el := range t {
			m[fmt.Sprint(k)] = FromAny(el)
		}
		return Map(m)
	case Value:
		return t
	default:
		return String(fmt.Sprint(t))
	}
}

// Any converts the value back to its dynamically typed form.
func (v Value) Any() any {
	switch v.kind {
	case KindNil:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, el := range v.list {
			out[i] = el.Any()
		}
		return out
	default:
		out := make(map[string]any, len(v.m))
		for k, el := range v.m {
			out[k] = el.Any()
		}
		return out
	}
}

// String renders the value for display and for text search over extra
// fields. Maps render with sorted keys so the output is stable.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, el := range v.list {
			parts[i] = el.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.m[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}

// Equal reports deep equality. Int and float values are distinct kinds
// and never compare equal, mirroring the wire formats which keep the
// distinction.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, el := range v.m {
			oel, ok := other.m[k]
			if !ok || !el.Equal(oel) {
				return false
			}
		}
		return true
	}
}

// MarshalJSON emits the value in its natural JSON shape. Whole floats
// are written with a trailing ".0" so the kind survives a round-trip.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNil:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("model: unsupported float value %v", v.f)
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		return json.Marshal(v.list)
	default:
		return json.Marshal(v.m)
	}
}

// UnmarshalJSON parses any JSON value. Numbers without a fraction or
// exponent decode as integers so snapshot round-trips preserve kinds.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
