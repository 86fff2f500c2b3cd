package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Record: одна запись модели Odoo в том виде, в котором её вернул сервер (имя поля → значение).
//
// many2one поля приходят парой [id, display_name], many2many/one2many плоским списком id,
// пустые значения приходят как false.
type Record map[string]any

// ID returns the record identifier or 0 when it is missing.
func (r Record) ID() int64 {
	id, _ := ToInt64(r["id"])
	return id
}

// Has reports whether the field is present and holds a non-empty value.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && Truthy(v)
}

// String returns a text field, "" for false/nil and fmt formatting for anything else.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || !Truthy(v) {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns a numeric field as int64.
func (r Record) Int(field string) (int64, bool) {
	return ToInt64(r[field])
}

// Many2One decodes a [id, name] pair.
func (r Record) Many2One(field string) (int64, string, bool) {
	return Many2One(r[field])
}

// IDs returns the ids of a many2many/one2many field.
func (r Record) IDs(field string) []int64 {
	list, ok := r[field].([]any)
	if !ok {
		if ints, ok := r[field].([]int64); ok {
			return append([]int64(nil), ints...)
		}
		return nil
	}
	out := make([]int64, 0, len(list))
	for _, v := range list {
		if id, ok := ToInt64(v); ok {
			out = append(out, id)
		}
	}
	return out
}

// Keys returns the field names sorted alphabetically.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Many2One decodes a relation value of the form [id, display_name].
func Many2One(v any) (int64, string, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return 0, "", false
	}
	id, ok := ToInt64(pair[0])
	if !ok {
		return 0, "", false
	}
	name, _ := pair[1].(string)
	return id, name, true
}

// Truthy mirrors how the backend treats empty values: nil, false, "", 0 and empty lists are empty.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []int64:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if n, ok := ToFloat64(v); ok {
		return n != 0
	}
	return true
}

// ToInt64 converts integral values of any Go numeric type. Floats are accepted only when whole.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// ToFloat64 converts any numeric value. Booleans are not numbers here.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// IsNumber reports whether v is an integer or a float.
func IsNumber(v any) bool {
	_, ok := ToFloat64(v)
	return ok
}
