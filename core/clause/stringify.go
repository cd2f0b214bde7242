package clause

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/asaidimu/go-cypher/utils"
)

var placeholderPattern = regexp.MustCompile(`\$([A-Za-z0-9_]+)`)

// Interpolate replaces every "$name" placeholder found in params with the
// literal form of its value. Unknown placeholders are left untouched.
func Interpolate(query string, params map[string]any) string {
	if len(params) == 0 {
		return query
	}
	return placeholderPattern.ReplaceAllStringFunc(query, func(m string) string {
		if v, ok := params[m[1:]]; ok {
			return Stringify(v)
		}
		return m
	})
}

// Stringify renders value as a Cypher literal: strings are single-quoted,
// numbers and booleans are bare, nil is null, slices become lists and maps
// become map literals with sorted keys.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case Expr:
		return string(v)
	case Var:
		return string(v)
	case string:
		return quote(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return quote(v.Format(time.RFC3339Nano))
	case time.Duration:
		return quote(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
		return Stringify(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.String:
		return quote(rv.String())
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "null"
		}
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = Stringify(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ", ") + "]"
	case reflect.Map:
		if rv.IsNil() {
			return "null"
		}
		entries := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return stringifyMap(entries)
	case reflect.Struct:
		if m, err := utils.StructToMap(value); err == nil {
			return stringifyMap(m)
		}
	}
	return quote(fmt.Sprint(value))
}

func stringifyMap(entries map[string]any) string {
	if len(entries) == 0 {
		return "{}"
	}
	keys := sortedKeys(entries)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + Stringify(entries[k])
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
