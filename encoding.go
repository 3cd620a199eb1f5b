// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"errors"
	"strings"

	"github.com/creachadair/dson/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a quoted Dson string. The contents are escaped and
// double quotation marks are added. If ascii is true, all non-ASCII runes are
// written as \u escapes.
func Quote(src string, ascii bool) string {
	buf := make([]byte, 1, len(src)+2)
	buf[0] = '"'
	buf = escape.Quote(buf, mem.S(src), ascii)
	return string(append(buf, '"'))
}

// Unquote decodes a quoted Dson string. Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents.
//
// Unpaired surrogate escapes are replaced by the Unicode replacement rune.
// Unquote reports an error for an unknown or incomplete escape sequence.
func Unquote(src string) (string, error) {
	if len(src) < 2 || !strings.HasPrefix(src, `"`) || !strings.HasSuffix(src, `"`) {
		return "", errors.New("missing quotations")
	}
	dec, err := escape.Unquote(nil, mem.S(src[1:len(src)-1]))
	if err != nil {
		return "", err
	}
	return string(dec), nil
}
