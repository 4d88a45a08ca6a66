package task

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindAbsent marks a parameter that is disabled for a record.
	KindAbsent Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Numeric reports whether values of this kind compare as numbers.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a comparable scalar parameter value. The zero Value is absent.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
}

// Absent returns the reserved value for a disabled parameter.
func Absent() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// FromAny converts a Go scalar into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case bool:
		return Bool(t), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", x)
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the disabled marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Str returns the string payload; it is empty for other kinds.
func (v Value) Str() string { return v.str }

// IntValue returns the integer payload; it is zero for other kinds.
func (v Value) IntValue() int64 {
	if v.kind != KindInt {
		return 0
	}
	return v.num
}

// FloatValue returns the numeric payload as a float64.
func (v Value) FloatValue() float64 {
	switch v.kind {
	case KindFloat:
		return v.flt
	case KindInt:
		return float64(v.num)
	default:
		return 0
	}
}

// BoolValue returns the boolean payload; it is false for other kinds.
func (v Value) BoolValue() bool { return v.kind == KindBool && v.num != 0 }

// String formats v for humans: the translation log, diagnostics and glob
// matching in sweep rules.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		if math.IsInf(v.flt, 0) || math.IsNaN(v.flt) {
			return strconv.FormatFloat(v.flt, 'g', -1, 64)
		}
		s := strconv.FormatFloat(v.flt, 'g', -1, 64)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			// Keep floats distinguishable from ints in text output.
			s += ".0"
		}
		return s
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	default:
		return "<disabled>"
	}
}
