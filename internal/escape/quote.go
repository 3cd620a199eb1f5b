// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package escape

import (
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote appends the escaped encoding of src to dst, without enclosing
// quotation marks. If ascii is true, all non-ASCII and non-printable runes
// are encoded as \u escapes, using surrogate pairs outside the BMP.
func Quote(dst []byte, src mem.RO, ascii bool) []byte {
	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		src = src.SliceFrom(n)
		if r < utf8.RuneSelf {
			if r < ' ' {
				if b := controlEsc[r]; b != 0 && b != ' ' {
					dst = append(dst, '\\', b)
				} else {
					dst = appendU(dst, r)
				}
			} else if r == '\\' || r == '"' {
				dst = append(dst, '\\', byte(r))
			} else if r == 0x7f {
				dst = appendU(dst, r)
			} else {
				dst = append(dst, byte(r))
			}
			continue
		}
		dst = appendRune(dst, r, ascii)
	}
	return dst
}

// NeedsEscape reports whether r must be escaped to appear in a quoted string
// under the given ASCII setting.
func NeedsEscape(r rune, ascii bool) bool {
	switch {
	case r < ' ' || r == 0x7f || r == '"' || r == '\\':
		return true
	case r < utf8.RuneSelf:
		return false
	case r == utf8.RuneError || r == '\u2028' || r == '\u2029':
		return true
	}
	return ascii || !unicode.IsPrint(r)
}

func appendRune(dst []byte, r rune, ascii bool) []byte {
	switch r {
	case utf8.RuneError, '\u2028', '\u2029':
		return appendU(dst, r)
	}
	if !ascii && unicode.IsPrint(r) {
		return utf8.AppendRune(dst, r)
	}
	if r > 0xffff {
		hi, lo := utf16.EncodeRune(r)
		return appendU(appendU(dst, hi), lo)
	}
	return appendU(dst, r)
}

func appendU(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigit[(r>>12)&15], hexDigit[(r>>8)&15], hexDigit[(r>>4)&15], hexDigit[r&15])
}
