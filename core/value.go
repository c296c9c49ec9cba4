package core

import (
	"math"
	"strconv"
	"strings"
)

// Value is a single typed scalar inside a row.
type Value struct {
	Type  ColumnType
	Int   int64
	Float float64
	Text  string
}

func IntValue(i int64) Value {
	return Value{Type: IntType, Int: i}
}

func FloatValue(f float64) Value {
	return Value{Type: FloatType, Float: f}
}

func TextValue(s string) Value {
	return Value{Type: TextType, Text: s}
}

// ParseNumber parses a decimal integer or floating point literal. Hex,
// octal, infinities and NaN are not accepted.
func ParseNumber(s string) (Value, bool) {
	if !isDecimalLiteral(s) {
		return Value{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, false
	}
	return FloatValue(f), true
}

func isDecimalLiteral(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	seenDot, seenExp := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '+' || ch == '-':
			if i != 0 && s[i-1] != 'e' && s[i-1] != 'E' {
				return false
			}
		case ch == '.':
			if seenDot || seenExp {
				return false
			}
			seenDot = true
		case ch == 'e' || ch == 'E':
			if seenExp || digits == 0 || i == len(s)-1 {
				return false
			}
			seenExp = true
		default:
			return false
		}
	}
	return digits > 0
}

func (v Value) Numeric() bool {
	return v.Type.Numeric()
}

// AsFloat returns the numeric value as float64. Text values return 0.
func (v Value) AsFloat() float64 {
	switch v.Type {
	case IntType:
		return float64(v.Int)
	case FloatType:
		return v.Float
	default:
		return 0
	}
}

// Widen converts v to the representation used by a column of type t. Ints
// widen to floats and numbers widen to their text form. Narrowing is never
// done, so v is returned unchanged otherwise.
func (v Value) Widen(t ColumnType) Value {
	switch {
	case t == FloatType && v.Type == IntType:
		return FloatValue(float64(v.Int))
	case t == TextType && v.Numeric():
		return TextValue(v.String())
	}
	return v
}

// Compare orders two values. ok is false when one value is numeric and the
// other is text, which never compare.
func (v Value) Compare(other Value) (cmp int, ok bool) {
	switch {
	case v.Type == IntType && other.Type == IntType:
		switch {
		case v.Int < other.Int:
			return -1, true
		case v.Int > other.Int:
			return 1, true
		}
		return 0, true
	case v.Type == IntType && other.Type == FloatType:
		return compareIntFloat(v.Int, other.Float), true
	case v.Type == FloatType && other.Type == IntType:
		return -compareIntFloat(other.Int, v.Float), true
	case v.Numeric() && other.Numeric():
		a, b := v.AsFloat(), other.AsFloat()
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	case v.Type == TextType && other.Type == TextType:
		return strings.Compare(v.Text, other.Text), true
	default:
		return 0, false
	}
}

// compareIntFloat orders i against f exactly, without rounding i to a
// float64.
func compareIntFloat(i int64, f float64) int {
	switch {
	case f < -(1 << 63):
		return 1
	case f >= 1<<63:
		return -1
	}
	whole := math.Trunc(f)
	if n := int64(whole); i != n {
		if i < n {
			return -1
		}
		return 1
	}
	switch {
	case f > whole:
		return -1
	case f < whole:
		return 1
	}
	return 0
}

// Equal reports value equality: numeric values compare numerically, text
// compares exactly, and numeric never equals text.
func (v Value) Equal(other Value) bool {
	cmp, ok := v.Compare(other)
	return ok && cmp == 0
}

func (v Value) String() string {
	switch v.Type {
	case IntType:
		return strconv.FormatInt(v.Int, 10)
	case FloatType:
		s := strconv.FormatFloat(v.Float, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	default:
		return v.Text
	}
}

// key is a canonical encoding used for hashing: equal values share a key.
// Integral floats inside the int64 range encode like the int they equal.
// Text is length prefixed so a key never depends on separators.
func (v Value) key() string {
	switch v.Type {
	case IntType:
		return "n" + strconv.FormatInt(v.Int, 10)
	case FloatType:
		if v.Float == math.Trunc(v.Float) && v.Float >= -(1<<63) && v.Float < 1<<63 {
			return "n" + strconv.FormatInt(int64(v.Float), 10)
		}
		return "n" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return "t" + strconv.Itoa(len(v.Text)) + ":" + v.Text
	}
}
