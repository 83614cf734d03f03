package signing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Record is a flat payload of primitive values: strings, booleans, numbers
// and null.
type Record map[string]any

// Canonicalize encodes r as compact JSON with keys in lexicographic byte order
// and no HTML escaping. Numbers decoded as json.Number are normalized to
// int64 when integral and float64 otherwise, so 5e4, 50000 and 50000.0 all
// encode the same way.
func Canonicalize(r Record) ([]byte, error) {
	normalized := make(map[string]any, len(r))
	for _, k := range sortedKeys(r) {
		v, err := normalize(r[k])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrSigning, k, err)
		}
		normalized[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding/json writes map keys sorted.
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Validate reports whether r can be canonicalized.
func Validate(r Record) error {
	_, err := Canonicalize(r)
	return err
}

func normalize(v any) (any, error) {
	switch n := v.(type) {
	case nil, string, bool:
		return n, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return n, nil
	case float32:
		return checkFloat(float64(n))
	case float64:
		return checkFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", n.String())
		}
		return checkFloat(f)
	default:
		return normalizeKind(v)
	}
}

// normalizeKind maps named primitive types such as `type Status string` onto
// their underlying value.
func normalizeKind(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return checkFloat(rv.Float())
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func checkFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	return f, nil
}

// sortedKeys keeps error reporting deterministic: the first offending key in
// canonical order is the one named.
func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
