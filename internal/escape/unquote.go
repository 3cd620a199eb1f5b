// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of Dson strings.
package escape

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// Unquote decodes the escape sequences in src and appends the result to dst.
// The input must have any enclosing quotation marks already removed.
//
// Unpaired UTF-16 surrogates are replaced by the Unicode replacement rune.
// Unquote reports an error for an unknown or incomplete escape sequence.
func Unquote(dst []byte, src mem.RO) ([]byte, error) {
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(dst, src), nil
	}

	putByte := func(bs ...byte) { dst = append(dst, bs...) }
	for src.Len() != 0 {
		dst = mem.Append(dst, src.SliceTo(i))

		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return dst, errors.New("incomplete escape sequence")
		}
		r, n := mem.DecodeRune(src)
		src = src.SliceFrom(n)
		switch r {
		case '"', '\\', '/':
			putByte(byte(r))
		case 'b':
			putByte('\b')
		case 'f':
			putByte('\f')
		case 'n':
			putByte('\n')
		case 'r':
			putByte('\r')
		case 't':
			putByte('\t')
		case 'u':
			r, n, err := decodeUnicode(src)
			if err != nil {
				return dst, err
			}
			dst = utf8.AppendRune(dst, r)
			src = src.SliceFrom(n)
		default:
			return dst, fmt.Errorf("invalid escape %q", `\`+string(r))
		}

		// Look for the next escape sequence, and if one is not found we can blit
		// the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dst = mem.Append(dst, src)
			break
		}
	}
	return dst, nil
}

// decodeUnicode decodes the hex digits following a \u escape, including the
// low half of a surrogate pair if one follows. It returns the decoded rune and
// the number of bytes of src consumed.
func decodeUnicode(src mem.RO) (rune, int, error) {
	if src.Len() < 4 {
		return 0, 0, errors.New("incomplete Unicode escape")
	}
	v, err := parseHex(src.SliceTo(4))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid Unicode escape: %w", err)
	}
	r := rune(v)
	if !utf16.IsSurrogate(r) {
		return r, 4, nil
	}
	if src.Len() >= 10 && src.At(4) == '\\' && src.At(5) == 'u' {
		if lo, err := parseHex(src.Slice(6, 10)); err == nil {
			if c := utf16.DecodeRune(r, rune(lo)); c != utf8.RuneError {
				return c, 10, nil
			}
		}
	}
	return utf8.RuneError, 4, nil
}

// ValidEscape reports whether b may follow a backslash in an escape sequence.
func ValidEscape(b rune) bool {
	switch b {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}

// IsHexDigit reports whether ch is a hexadecimal digit.
func IsHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return v, nil
}
