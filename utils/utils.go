// Package utils holds conversions between Go structs and the generic maps that
// flow through statements: struct values become property maps for patterns
// and SET clauses, and result records decode back into structs.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// StructToMap converts a struct (or pointer to struct) into a map[string]any
// keyed by its JSON field names.
//
// The conversion round-trips through encoding/json, so `json:"name"` tags,
// `omitempty` and `-` are honoured. Nested structs come back as nested
// map[string]any values and slices as []any, which is the shape graph
// drivers accept as parameter values.
//
// Example:
//
//	type Person struct {
//		Name string `json:"name"`
//		Age  int    `json:"age,omitempty"`
//	}
//	props, err := StructToMap(Person{Name: "Alice"})
//	// props == map[string]any{"name": "Alice"}
func StructToMap[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}

	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToMap: failed to marshal input record to JSON: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil, fmt.Errorf("StructToMap: failed to unmarshal JSON to map[string]any: %w", err)
	}
	return NormalizeNumbers(result).(map[string]any), nil
}

// NormalizeNumbers turns the float64 values produced by encoding/json back
// into int64 when they carry no fractional part, so integer properties stay
// integers once they reach the database.
func NormalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = NormalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = NormalizeNumbers(item)
		}
		return t
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	default:
		return v
	}
}

// MapToStruct converts a map[string]any into a new value of the struct type
// T, matching keys against T's JSON field names. It is the inverse of
// StructToMap. If T is a pointer type the map is decoded into the pointed-to
// struct.
//
// Example:
//
//	type Person struct {
//		Name string `json:"name"`
//	}
//	p, err := MapToStruct[Person](map[string]any{"name": "Alice"})
//	// p == Person{Name: "Alice"}
func MapToStruct[T any](input map[string]any) (T, error) {
	var zero T

	if input == nil {
		return zero, fmt.Errorf("MapToStruct: input map cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ == nil {
		return zero, fmt.Errorf("MapToStruct: generic type T must be a struct type (or pointer to struct), got interface")
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("MapToStruct: generic type T must be a struct type (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to marshal input map to JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}
