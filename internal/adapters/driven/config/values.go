// Package config holds what the config stores have in common: loose
// conversion of stored values, and the mapping between dotted keys and the
// nested tables they are written as.
package config

import (
	"fmt"
	"strings"
)

// String returns v if it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Bool returns v if it is a bool.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Int narrows int64, which TOML decodes integers as, and truncates floats.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Float widens integers, which hand-edited files often hold where a float
// is meant.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Flatten turns nested tables into dotted keys: {"a": {"b": 1}} becomes
// {"a.b": 1}.
func Flatten(tables map[string]any) map[string]any {
	flat := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if prefix != "" {
				k = prefix + "." + k
			}
			if sub, ok := v.(map[string]any); ok {
				walk(k, sub)
				continue
			}
			flat[k] = v
		}
	}
	walk("", tables)
	return flat
}

// Nest undoes Flatten. It fails when one key is both a value and a table,
// as with "a" and "a.b".
func Nest(flat map[string]any) (map[string]any, error) {
	root := make(map[string]any)
	for key, value := range flat {
		path := strings.Split(key, ".")
		last := len(path) - 1
		node := root
		for i, part := range path[:last] {
			switch child := node[part].(type) {
			case nil:
				table := make(map[string]any)
				node[part] = table
				node = table
			case map[string]any:
				node = child
			default:
				return nil, fmt.Errorf("config key %q conflicts with %q", key, strings.Join(path[:i+1], "."))
			}
		}
		if _, isTable := node[path[last]].(map[string]any); isTable {
			return nil, fmt.Errorf("config key %q conflicts with a table of the same name", key)
		}
		node[path[last]] = value
	}
	return root, nil
}
