// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package dson

import "fmt"

// A Span describes a contiguous span of a source input.
type Span struct {
	Pos int // the start position, 0-based
	End int // the end position, 0-based (noninclusive)
}

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // column offset in line, 0-based, with tabs expanded
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// A Location describes the complete location of a range of source text,
// including line and column offsets.
type Location struct {
	Span
	First, Last LineCol
}
