package ipa

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Placeholders substituted by the normalizer when a value cannot be
// represented directly.
const (
	PlaceholderMaxDepth       = "[Max Depth Exceeded]"
	PlaceholderUnserializable = "[Unserializable Object]"
)

// DefaultMaxDepth bounds normalization recursion.
const DefaultMaxDepth = 10

// Normalize converts an arbitrary backend payload into a tree of primitives,
// slices, and string-keyed maps that is safe to serialize and hand to a
// caller. It never panics and never returns an unrepresentable value.
func Normalize(value any) any {
	return NormalizeDepth(value, DefaultMaxDepth, 0)
}

// NormalizeDepth is Normalize with explicit depth bookkeeping. Values nested
// deeper than maxDepth degrade to PlaceholderMaxDepth regardless of type;
// values outside the representable set degrade to their text form, and a
// failing text conversion degrades to PlaceholderUnserializable.
func NormalizeDepth(value any, maxDepth, depth int) any {
	if depth > maxDepth {
		return PlaceholderMaxDepth
	}

	switch v := value.(type) {
	case nil:
		return nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		json.Number:
		return v
	case []byte:
		return string(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = NormalizeDepth(elem, maxDepth, depth+1)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			out[key] = NormalizeDepth(elem, maxDepth, depth+1)
		}
		return out
	}

	return normalizeReflect(value, maxDepth, depth)
}

// normalizeReflect handles the long tail: typed slices, typed maps, pointers,
// and everything else via text conversion. Values with a text form of their
// own take it before any structural traversal, so errors and Stringers keep
// their message even behind a pointer.
func normalizeReflect(value any, maxDepth, depth int) any {
	switch value.(type) {
	case error, fmt.Stringer:
		return stringifyValue(value)
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = NormalizeDepth(rv.Index(i).Interface(), maxDepth, depth+1)
		}
		return out

	case reflect.Map:
		// Keys are stringified; collisions resolve last-write-wins in map
		// iteration order.
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := stringifyValue(iter.Key().Interface())
			out[key] = NormalizeDepth(iter.Value().Interface(), maxDepth, depth+1)
		}
		return out

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return NormalizeDepth(rv.Elem().Interface(), maxDepth, depth)

	default:
		return stringifyValue(value)
	}
}

// stringifyValue renders a value as text, recovering from panicking String
// and Error methods.
func stringifyValue(value any) (s string) {
	defer func() {
		if recover() != nil {
			s = PlaceholderUnserializable
		}
	}()

	switch v := value.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(value)
	}
}

// InnerResult extracts the nested "result" payload that FreeIPA commands
// carry inside their envelope result. Payloads without one come back as an
// empty map; non-map payloads pass through unchanged.
func InnerResult(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if inner, ok := m["result"]; ok {
		return inner
	}
	return map[string]any{}
}

// StringList coerces a backend attribute value into a string slice. FreeIPA
// returns multi-valued attributes as arrays; single values and non-string
// members are rendered as text.
func StringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, stringifyValue(elem))
		}
		return out
	case string:
		return []string{v}
	default:
		return []string{stringifyValue(v)}
	}
}
