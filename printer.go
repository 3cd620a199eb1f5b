// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"io"
	"unicode/utf8"

	"github.com/creachadair/dson/internal/pool"
)

// flushSize is the amount of buffered output that triggers a write.
const flushSize = 4096

// A printer buffers output text and tracks the current column.
type printer struct {
	w      io.Writer
	buf    *[]byte
	sep    string // line separator
	column int    // column of the next character, 0-based
	wrote  bool   // whether anything has been printed
	err    error  // sticky write error
}

func newPrinter(w io.Writer, sep string) *printer {
	return &printer{w: w, buf: pool.Bytes.Get(), sep: sep}
}

// print writes s, which must not contain line breaks.
func (p *printer) print(s string) {
	*p.buf = append(*p.buf, s...)
	p.column += utf8.RuneCountInString(s)
	p.wrote = true
	p.maybeFlush()
}

// printBytes writes b, which must not contain line breaks.
func (p *printer) printBytes(b []byte) {
	*p.buf = append(*p.buf, b...)
	p.column += utf8.RuneCount(b)
	p.wrote = true
	p.maybeFlush()
}

func (p *printer) printByte(b byte) {
	*p.buf = append(*p.buf, b)
	p.column++
	p.wrote = true
}

// newline ends the current line.
func (p *printer) newline() {
	*p.buf = append(*p.buf, p.sep...)
	p.column = 0
	p.wrote = true
	p.maybeFlush()
}

// pad writes spaces until the column reaches col.
func (p *printer) pad(col int) {
	for p.column < col {
		p.printByte(' ')
	}
}

func (p *printer) maybeFlush() {
	if len(*p.buf) >= flushSize {
		p.flush()
	}
}

func (p *printer) flush() error {
	if p.err == nil && len(*p.buf) != 0 {
		_, p.err = p.w.Write(*p.buf)
	}
	*p.buf = (*p.buf)[:0]
	return p.err
}

// release returns the buffer to the pool. The printer must not be used
// afterward.
func (p *printer) release() {
	if p.buf != nil {
		pool.Bytes.Put(p.buf)
		p.buf = nil
	}
}
