// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package numlit parses and formats the numeric literals of Dson text.
//
// An integer literal has an optional sign, an optional radix prefix (0x or 0X
// for hexadecimal, 0b or 0B for binary), and digits that may be grouped by
// single underscores. An underscore may not begin or end the digits or follow
// another underscore. Floating-point literals follow the same grouping rule
// and additionally accept Infinity, -Infinity, and NaN.
package numlit

import (
	"errors"
	"math"
	"math/bits"
	"strconv"

	"go4.org/mem"
)

var (
	errEmpty     = errors.New("empty number")
	errSeparator = errors.New("misplaced digit separator")
	errDigit     = errors.New("invalid digit")
	errRange     = errors.New("value out of range")
	errNotFloat  = errors.New("invalid floating-point literal")
	errNoDigits  = errors.New("missing digits after prefix")
	errTooLong   = errors.New("literal too long")
)

const maxFloatChars = 128

// ParseInt parses s as an integer literal that fits in the given number of
// bits (32 or 64).
func ParseInt(s mem.RO, bitSize int) (int64, error) {
	neg, mag, err := parseMagnitude(s)
	if err != nil {
		return 0, err
	}
	limit := uint64(1) << (bitSize - 1)
	if neg {
		if mag > limit {
			return 0, errRange
		}
		return -int64(mag - 1) - 1, nil
	}
	if mag >= limit {
		return 0, errRange
	}
	return int64(mag), nil
}

// ParseFloat parses s as a floating-point literal of the given precision
// (32 or 64).
func ParseFloat(s mem.RO, bitSize int) (float64, error) {
	switch {
	case s.EqualString("Infinity"), s.EqualString("+Infinity"):
		return math.Inf(1), nil
	case s.EqualString("-Infinity"):
		return math.Inf(-1), nil
	case s.EqualString("NaN"):
		return math.NaN(), nil
	}
	if s.Len() == 0 {
		return 0, errEmpty
	} else if s.Len() > maxFloatChars {
		return 0, errTooLong
	}

	// Reject forms the standard parser would accept that are not Dson
	// literals, such as "inf" and "nan".
	body := s
	if b := body.At(0); b == '+' || b == '-' {
		body = body.SliceFrom(1)
	}
	if body.Len() == 0 || !(isDigit(body.At(0)) || body.At(0) == '.') {
		return 0, errNotFloat
	} else if mem.IndexByte(body, 'x') >= 0 || mem.IndexByte(body, 'X') >= 0 {
		return 0, errNotFloat
	}

	var buf [128]byte
	n, err := stripSeparators(buf[:0], s)
	if err != nil {
		return 0, err
	}
	v, err := mem.ParseFloat(mem.B(n), bitSize)
	if err != nil {
		return 0, errNotFloat
	}
	return v, nil
}

// A Number is the result of classifying an unlabeled literal.
type Number struct {
	IsInt bool    // the literal is an integer that fits in 64 bits
	Int   int64   // the value, if IsInt
	Float float64 // the value, if !IsInt
}

// Fits32 reports whether n is an integer in the range of int32.
func (n Number) Fits32() bool {
	return n.IsInt && n.Int >= math.MinInt32 && n.Int <= math.MaxInt32
}

// Classify reports whether s is a number literal, and if so, its value.
// Infinity and NaN are not numbers for this purpose, since an unlabeled
// literal of that spelling is read as a string.
func Classify(s mem.RO) (Number, bool) {
	if s.Len() == 0 {
		return Number{}, false
	}
	if b := s.At(0); !(isDigit(b) || b == '-' || b == '+' || b == '.') {
		return Number{}, false
	}
	if v, err := ParseInt(s, 64); err == nil {
		return Number{IsInt: true, Int: v}, true
	}
	v, err := ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return Number{}, false
	}
	return Number{Float: v}, true
}

// IsNumber reports whether s would be read as a number, Infinity, or NaN by
// any of the numeric parsers.
func IsNumber(s string) bool {
	m := mem.S(s)
	if _, ok := Classify(m); ok {
		return true
	}
	_, err := ParseFloat(m, 64)
	return err == nil
}

func parseMagnitude(s mem.RO) (neg bool, mag uint64, err error) {
	if s.Len() == 0 {
		return false, 0, errEmpty
	}
	switch s.At(0) {
	case '-':
		neg = true
		s = s.SliceFrom(1)
	case '+':
		s = s.SliceFrom(1)
	}
	base := uint64(10)
	if s.Len() >= 2 && s.At(0) == '0' {
		switch s.At(1) {
		case 'x', 'X':
			base = 16
			s = s.SliceFrom(2)
		case 'b', 'B':
			base = 2
			s = s.SliceFrom(2)
		}
		if base != 10 && s.Len() == 0 {
			return false, 0, errNoDigits
		}
	}
	if s.Len() == 0 {
		return false, 0, errEmpty
	}
	if s.At(0) == '_' || s.At(s.Len()-1) == '_' {
		return false, 0, errSeparator
	}
	prevSep := false
	for i := 0; i < s.Len(); i++ {
		b := s.At(i)
		if b == '_' {
			if prevSep {
				return false, 0, errSeparator
			}
			prevSep = true
			continue
		}
		prevSep = false
		d, ok := digitValue(b)
		if !ok || d >= base {
			return false, 0, errDigit
		}
		hi, lo := bits.Mul64(mag, base)
		if hi != 0 {
			return false, 0, errRange
		}
		sum, carry := bits.Add64(lo, d, 0)
		if carry != 0 {
			return false, 0, errRange
		}
		mag = sum
	}
	return neg, mag, nil
}

// stripSeparators appends s to dst with digit separators removed, checking
// that each separator is surrounded by digits.
func stripSeparators(dst []byte, s mem.RO) ([]byte, error) {
	for i := 0; i < s.Len(); i++ {
		b := s.At(i)
		if b != '_' {
			dst = append(dst, b)
			continue
		}
		if i == 0 || i == s.Len()-1 || !isDigit(s.At(i-1)) || !isDigit(s.At(i+1)) {
			return nil, errSeparator
		}
	}
	return dst, nil
}

func digitValue(b byte) (uint64, bool) {
	switch {
	case '0' <= b && b <= '9':
		return uint64(b - '0'), true
	case 'a' <= b && b <= 'f':
		return uint64(b-'a') + 10, true
	case 'A' <= b && b <= 'F':
		return uint64(b-'A') + 10, true
	}
	return 0, false
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// Style selects the radix used to format an integer.
type Style byte

// Constants defining the valid Style values.
const (
	Decimal Style = iota
	Hex
	Binary
)

// FormatInt formats v in the given style. Negative values in hexadecimal or
// binary are written as a sign followed by the magnitude.
func FormatInt(v int64, style Style) string {
	return string(AppendInt(nil, v, style))
}

// AppendInt appends the formatted representation of v to dst.
func AppendInt(dst []byte, v int64, style Style) []byte {
	if style == Decimal {
		return strconv.AppendInt(dst, v, 10)
	}
	mag := uint64(v)
	if v < 0 {
		dst = append(dst, '-')
		mag = -mag
	}
	if style == Hex {
		return strconv.AppendUint(append(dst, "0x"...), mag, 16)
	}
	return strconv.AppendUint(append(dst, "0b"...), mag, 2)
}

// FormatFloat formats v with the shortest representation that reads back as
// the same value at the given precision. Finite values always include a
// decimal point or an exponent, so they are not mistaken for integers.
func FormatFloat(v float64, bitSize int) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'g', -1, bitSize)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'e', 'E':
			return s
		}
	}
	return s + ".0"
}
