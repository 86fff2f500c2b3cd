// Package assign parses "field<op>value" tokens into typed field values.
//
// Supported operators are =, +=, -=, *= and /=. Arithmetic operators read the current value
// of the field from the server first.
package assign

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/semadox/odoo-ninja/internal/cli/model"
)

var (
	ErrInvalidFormat     = errors.New("invalid assignment format")
	ErrInvalidJSON       = errors.New("invalid JSON")
	ErrFieldNotFound     = errors.New("field not found or empty")
	ErrNonNumericField   = errors.New("field has non-numeric value")
	ErrNonNumericOperand = errors.New("operator requires numeric value")
	ErrDivisionByZero    = errors.New("division by zero")
)

// Operator is one of =, +=, -=, *=, /=.
type Operator string

const (
	OpSet Operator = "="
	OpAdd Operator = "+="
	OpSub Operator = "-="
	OpMul Operator = "*="
	OpDiv Operator = "/="
)

// Arithmetic reports whether the operator needs the current field value.
func (o Operator) Arithmetic() bool { return o != OpSet }

// Getter reads a record; service.Records satisfies it.
type Getter interface {
	Get(ctx context.Context, modelName string, id int64, fields []string) (model.Record, error)
}

// Assignment is a parsed token with its final value.
type Assignment struct {
	Field string
	Op    Operator
	Raw   string // value text as typed, trimmed
	Value Value
}

var tokenRe = regexp.MustCompile(`^([^=+\-*/]+)([\+\-*/]?=)(.+)$`)

// ParseToken splits and types a token without talking to the server.
func ParseToken(token string) (Assignment, error) {
	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return Assignment{}, fmt.Errorf("%w: '%s'. Use field=value or field+=value", ErrInvalidFormat, token)
	}
	a := Assignment{
		Field: strings.TrimSpace(m[1]),
		Op:    Operator(m[2]),
		Raw:   strings.TrimSpace(m[3]),
	}
	v, err := TypeValue(a.Raw)
	if err != nil {
		return Assignment{}, fmt.Errorf("%w for field '%s': %v", ErrInvalidJSON, a.Field, err)
	}
	a.Value = v
	return a, nil
}

// Parse parses token and, for arithmetic operators, combines it with the current value of the
// field on record id.
func Parse(ctx context.Context, g Getter, modelName string, id int64, token string) (Assignment, error) {
	a, err := ParseToken(token)
	if err != nil || !a.Op.Arithmetic() {
		return a, err
	}

	operand, numeric := a.Value.number()
	if a.Op == OpDiv && numeric && operand.f == 0 {
		return Assignment{}, ErrDivisionByZero
	}

	rec, err := g.Get(ctx, modelName, id, []string{a.Field})
	if err != nil {
		return Assignment{}, err
	}
	cur, ok := rec[a.Field]
	if !ok || cur == nil || cur == false {
		return Assignment{}, fmt.Errorf("%w: '%s'", ErrFieldNotFound, a.Field)
	}
	current, curNumeric := numberOf(cur)
	if !curNumeric {
		return Assignment{}, fmt.Errorf("%w: field '%s' is %v", ErrNonNumericField, a.Field, cur)
	}
	if !numeric {
		return Assignment{}, fmt.Errorf("%w: '%s' got %s", ErrNonNumericOperand, a.Op, a.Raw)
	}

	a.Value = compute(a.Op, current, operand)
	return a, nil
}

// numberOf reads a server value; booleans are not numbers.
func numberOf(v any) (number, bool) {
	switch n := v.(type) {
	case bool:
		return number{}, false
	case int64:
		return intNumber(n), true
	case int:
		return intNumber(int64(n)), true
	case int32:
		return intNumber(int64(n)), true
	}
	f, ok := model.ToFloat64(v)
	return number{f: f}, ok
}

// compute keeps integer arithmetic exact; /= is always float division.
// An int64 overflow yields the float result instead of a wrapped integer.
func compute(op Operator, cur, operand number) Value {
	if cur.isInt && operand.isInt {
		if r, ok := intOp(op, cur.i, operand.i); ok {
			return Value{Kind: KindInt, Int: r}
		}
	}
	var r float64
	switch op {
	case OpAdd:
		r = cur.f + operand.f
	case OpSub:
		r = cur.f - operand.f
	case OpMul:
		r = cur.f * operand.f
	case OpDiv:
		r = cur.f / operand.f
	}
	return Value{Kind: KindFloat, Float: r}
}

// intOp reports false for /= and when the result does not fit in int64.
func intOp(op Operator, a, b int64) (int64, bool) {
	switch op {
	case OpAdd:
		r := a + b
		return r, (a >= 0) != (b >= 0) || (r >= 0) == (a >= 0)
	case OpSub:
		r := a - b
		return r, (a >= 0) == (b >= 0) || (r >= 0) == (a >= 0)
	case OpMul:
		if a == 0 || b == 0 {
			return 0, true
		}
		if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return 0, false
		}
		r := a * b
		return r, r/b == a
	}
	return 0, false
}
