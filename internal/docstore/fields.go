package docstore

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"
)

// The accessors below decode a field leniently: a missing or mistyped value
// yields the fallback instead of an error, so one corrupt field never fails
// the document that contains it.

// String returns fields[key] as a string.
func String(fields map[string]any, key, fallback string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return fallback
}

// OptString returns fields[key] as a string pointer, nil when absent.
func OptString(fields map[string]any, key string) *string {
	if s, ok := fields[key].(string); ok {
		return &s
	}
	return nil
}

// Bool returns fields[key] as a bool.
func Bool(fields map[string]any, key string, fallback bool) bool {
	if b, ok := fields[key].(bool); ok {
		return b
	}
	return fallback
}

// Int returns fields[key] as an int, accepting any numeric representation a
// backend may produce.
func Int(fields map[string]any, key string, fallback int) int {
	if n, ok := toInt(fields[key]); ok {
		return n
	}
	return fallback
}

// Strings returns fields[key] as a string slice. Non-string elements are skipped.
func Strings(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// StringList is Strings that also accepts a single string as a one-element
// list.
func StringList(fields map[string]any, key string) []string {
	if s, ok := fields[key].(string); ok {
		return []string{s}
	}
	return Strings(fields, key)
}

// Maps returns fields[key] as a slice of maps. Non-map elements are skipped.
func Maps(fields map[string]any, key string) []map[string]any {
	switch v := fields[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return []map[string]any{}
}

// Map returns fields[key] as a map, nil when absent.
func Map(fields map[string]any, key string) map[string]any {
	if m, ok := fields[key].(map[string]any); ok {
		return m
	}
	return nil
}

// Time returns fields[key] as a time. It accepts time.Time, RFC 3339 strings
// and unix milliseconds.
func Time(fields map[string]any, key string) time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	default:
		if n, ok := toInt(v); ok {
			return time.UnixMilli(int64(n))
		}
	}
	return time.Time{}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case float32:
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

// mergeFields merges src into dst in place. Nested maps merge recursively.
func mergeFields(dst, src map[string]any) {
	for k, v := range src {
		sm, srcIsMap := v.(map[string]any)
		dm, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeFields(dm, sm)
			continue
		}
		dst[k] = cloneValue(v)
	}
}

// cloneFields deep-copies a field map so callers never share state with a store.
func cloneFields(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneFields(e)
		}
		return out
	}
	return v
}

// valuesEqual compares two scalar field values, treating all numeric types alike.
func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

// compareValues orders two field values: numbers numerically, strings
// lexically, numbers before strings. Missing values sort after present ones.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
		return -1
	}
	if _, ok := toFloat(b); ok {
		return 1
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return strings.Compare(sa, sb)
	}
	return 0
}

// applyQuery filters, orders and limits docs in memory. Backends that cannot
// express a query natively share it.
func applyQuery(docs []Doc, opts QueryOpts) []Doc {
	var ids map[string]bool
	if len(opts.IDs) > 0 {
		ids = make(map[string]bool, len(opts.IDs))
		for _, id := range opts.IDs {
			ids[id] = true
		}
	}

	out := docs[:0]
	for _, d := range docs {
		if ids != nil && !ids[d.ID] {
			continue
		}
		if !matches(d, opts.Where) {
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.OrderBy != "" {
			if c := compareValues(out[i].Fields[opts.OrderBy], out[j].Fields[opts.OrderBy]); c != 0 {
				return c < 0
			}
		}
		return out[i].ID < out[j].ID
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func matches(d Doc, where []Filter) bool {
	for _, f := range where {
		if !valuesEqual(d.Fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}
