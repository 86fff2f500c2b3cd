package assign

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Kind tags the type a raw token value was recognised as.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindJSON:
		return "json"
	}
	return "string"
}

// Value is a typed right-hand side of an assignment. Only the field matching Kind is set.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	JSON  any
}

// Any returns the value as it should be sent to the server.
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindJSON:
		return v.JSON
	}
	return v.Str
}

// Literal renders the value back into a token that types to the same value.
func (v Value) Literal() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindJSON:
		b, _ := json.Marshal(v.JSON)
		return "json:" + string(b)
	}
	return "'" + v.Str + "'"
}

// number is a numeric operand; i is exact when isInt.
type number struct {
	f     float64
	i     int64
	isInt bool
}

func intNumber(i int64) number { return number{f: float64(i), i: i, isInt: true} }

// number returns the numeric view of v. JSON numbers count, booleans do not.
func (v Value) number() (number, bool) {
	switch v.Kind {
	case KindInt:
		return intNumber(v.Int), true
	case KindFloat:
		return number{f: v.Float}, true
	case KindJSON:
		switch n := v.JSON.(type) {
		case int64:
			return intNumber(n), true
		case float64:
			return number{f: n}, true
		}
	}
	return number{}, false
}

// matcher claims a raw value or passes. A claimed value ends the cascade.
type matcher func(raw string) (Value, bool, error)

// matchers run in order; the first claim wins.
var matchers = []matcher{matchJSON, matchInt, matchFloat, matchBool, matchQuoted}

// TypeValue assigns a type to the raw text after the operator.
func TypeValue(raw string) (Value, error) {
	for _, m := range matchers {
		v, ok, err := m(raw)
		if err != nil {
			return Value{}, err
		}
		if ok {
			return v, nil
		}
	}
	return Value{Kind: KindString, Str: raw}, nil
}

func matchJSON(raw string) (Value, bool, error) {
	rest, ok := strings.CutPrefix(raw, "json:")
	if !ok {
		return Value{}, false, nil
	}
	dec := json.NewDecoder(strings.NewReader(rest))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return Value{}, false, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, false, errors.New("extra data after JSON value")
	}
	return Value{Kind: KindJSON, JSON: jsonNumbers(out)}, true, nil
}

func matchInt(raw string) (Value, bool, error) {
	if !isDigits(raw) && !(strings.HasPrefix(raw, "-") && isDigits(raw[1:])) {
		return Value{}, false, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// не влезает в int64, оставляем как есть
		return Value{Kind: KindString, Str: raw}, true, nil
	}
	return Value{Kind: KindInt, Int: n}, true, nil
}

// matchFloat accepts digits with at most one '.' and one '-'. A candidate that then fails to
// parse (e.g. "1-2") is still claimed and kept as the raw string.
func matchFloat(raw string) (Value, bool, error) {
	candidate := strings.Replace(strings.Replace(raw, ".", "", 1), "-", "", 1)
	if !isDigits(candidate) {
		return Value{}, false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Value{Kind: KindString, Str: raw}, true, nil
	}
	return Value{Kind: KindFloat, Float: f}, true, nil
}

func matchBool(raw string) (Value, bool, error) {
	switch strings.ToLower(raw) {
	case "true":
		return Value{Kind: KindBool, Bool: true}, true, nil
	case "false":
		return Value{Kind: KindBool, Bool: false}, true, nil
	}
	return Value{}, false, nil
}

func matchQuoted(raw string) (Value, bool, error) {
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) {
			if len(raw) < 2 {
				return Value{Kind: KindString}, true, nil
			}
			return Value{Kind: KindString, Str: raw[1 : len(raw)-1]}, true, nil
		}
	}
	return Value{}, false, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func jsonNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = jsonNumbers(t[i])
		}
	case map[string]any:
		for k := range t {
			t[k] = jsonNumbers(t[k])
		}
	}
	return v
}
