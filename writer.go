// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/creachadair/dson/internal/escape"
	"github.com/creachadair/dson/internal/numlit"
	"go4.org/mem"
)

// Style is the layout style of a container.
type Style byte

// Constants defining the valid Style values.
const (
	Indent Style = iota // elements on indented lines, wrapped at the soft line length
	Flow                // elements on one line, wrapped at the soft line length
)

// NumberStyle selects how a number is written.
type NumberStyle byte

// Constants defining the valid NumberStyle values.
const (
	Simple NumberStyle = iota // unlabeled where that is unambiguous
	Typed                     // always labeled
	Hex                       // hexadecimal digits, labeled as for Simple
	Bin                       // binary digits, labeled as for Simple
)

// StringStyle selects how a string is written.
type StringStyle byte

// Constants defining the valid StringStyle values.
const (
	Auto       StringStyle = iota // unquoted, quoted, or a text block, by content
	Quoted                        // always quoted
	Unquoted                      // unquoted if possible, otherwise as Auto
	Text                          // always a text block
	StringLine                    // @sL to the end of the line if possible, otherwise as Auto
)

// binaryChunk is the number of bytes encoded at a time for binary values.
const binaryChunk = 64

type writerContext struct {
	typ         contextType
	style       Style
	count       int       // elements written, not counting headers
	headerCount int       // headers written
	hint        TokenType // the type of unlabeled values, if not InvalidToken
	body        int       // column of the elements of the container
}

// A Writer writes a stream of typed values as Dson text.
//
// Inside an object or header, call WriteName before each value. At the top
// level and inside arrays, write values directly. Calling a method in the
// wrong position panics. Write errors are sticky, and output is buffered
// until Flush or Close. A Writer is not safe for concurrent use.
type Writer struct {
	p    *printer
	opts WriterOptions

	ctxs  []writerContext
	depth int

	name      string
	hasName   bool
	afterLine bool // the last value extends to the end of its line
}

// NewWriter constructs a Writer that writes text to w.
// A nil opts is equivalent to a zero-valued WriterOptions.
func NewWriter(w io.Writer, opts *WriterOptions) *Writer {
	out := &Writer{ctxs: make([]writerContext, 1, 8)}
	if opts != nil {
		out.opts = *opts
	}
	out.p = newPrinter(w, out.opts.lineSeparator())
	return out
}

// Flush writes any buffered output to the underlying writer.
func (w *Writer) Flush() error { return w.p.flush() }

// Close ends the current line, flushes buffered output, and releases the
// resources held by w. Close is idempotent.
func (w *Writer) Close() error {
	if w.p.buf == nil {
		return w.p.err
	}
	if w.p.column != 0 || w.afterLine {
		w.p.newline()
		w.afterLine = false
	}
	err := w.p.flush()
	w.p.release()
	return err
}

// Depth reports the number of open containers.
func (w *Writer) Depth() int { return w.depth }

// WriteName sets the name of the next value in an object or a header.
func (w *Writer) WriteName(name string) error {
	c := w.checkOpen("WriteName")
	if c.typ != objectContext && c.typ != headerContext {
		panic("dson: WriteName called in " + c.typ.String())
	} else if w.hasName {
		panic("dson: WriteName called twice")
	}
	w.name, w.hasName = name, true
	return w.p.err
}

// WriteInt32 writes an int32 value.
func (w *Writer) WriteInt32(v int32, style NumberStyle) error {
	w.beginValue("WriteInt32")
	text := numlit.FormatInt(int64(v), radix(style))
	w.writeScalar("@i", text, style != Typed && w.bareAllowed(Int32Token, true))
	return w.p.err
}

// WriteInt64 writes an int64 value.
func (w *Writer) WriteInt64(v int64, style NumberStyle) error {
	w.beginValue("WriteInt64")
	text := numlit.FormatInt(v, radix(style))
	natural := v < math.MinInt32 || v > math.MaxInt32
	w.writeScalar("@L", text, style != Typed && w.bareAllowed(Int64Token, natural))
	return w.p.err
}

// WriteFloat writes a float32 value.
func (w *Writer) WriteFloat(v float32, style NumberStyle) error {
	w.beginValue("WriteFloat")
	text := numlit.FormatFloat(float64(v), 32)
	w.writeScalar("@f", text, style != Typed && w.bareAllowed(FloatToken, false))
	return w.p.err
}

// WriteDouble writes a float64 value.
func (w *Writer) WriteDouble(v float64, style NumberStyle) error {
	w.beginValue("WriteDouble")
	text := numlit.FormatFloat(v, 64)
	natural := !math.IsInf(v, 0) && !math.IsNaN(v)
	w.writeScalar("@d", text, style != Typed && w.bareAllowed(DoubleToken, natural))
	return w.p.err
}

// WriteBool writes a Boolean value.
func (w *Writer) WriteBool(v bool) error {
	w.beginValue("WriteBool")
	w.writeScalar("@b", strconv.FormatBool(v), w.bareAllowed(BoolToken, true))
	return w.p.err
}

// WriteNull writes a null value.
func (w *Writer) WriteNull() error {
	w.beginValue("WriteNull")
	w.writeScalar("@N", "null", w.bareAllowed(NullToken, true))
	return w.p.err
}

// WriteScalar writes a value of any fixed-size type in the given style.
func (w *Writer) WriteScalar(v Scalar, style NumberStyle) error {
	switch v.Kind() {
	case Int32Scalar:
		return w.WriteInt32(v.Int32(), style)
	case Int64Scalar:
		return w.WriteInt64(v.Int64(), style)
	case FloatScalar:
		return w.WriteFloat(v.Float(), style)
	case DoubleScalar:
		return w.WriteDouble(v.Double(), style)
	case BoolScalar:
		return w.WriteBool(v.Bool())
	case DateTimeScalar:
		return w.WriteDateTime(v.DateTime())
	case TimestampScalar:
		return w.WriteTimestamp(v.Timestamp())
	}
	panic("dson: WriteScalar called with an empty scalar")
}

func radix(style NumberStyle) numlit.Style {
	switch style {
	case Hex:
		return numlit.Hex
	case Bin:
		return numlit.Binary
	}
	return numlit.Decimal
}

// bareAllowed reports whether a value of type t may be written without a
// label, given whether it would be unambiguous in an ordinary container.
func (w *Writer) bareAllowed(t TokenType, natural bool) bool {
	c := w.ctxs[w.depth]
	switch {
	case c.typ == headerContext && w.name == LocalIDKey:
		// The type of an unlabeled localId depends on the reader's settings.
		return t == StringToken && natural
	case c.hint != InvalidToken:
		return t == c.hint
	}
	return natural
}

func (w *Writer) writeScalar(label, text string, bare bool) {
	if !bare {
		w.p.print(label)
		w.p.printByte(' ')
	}
	w.p.print(text)
}

// WriteString writes a string value in the given style.
func (w *Writer) WriteString(s string, style StringStyle) error {
	c := w.beginValue("WriteString")

	// A component class in a header sets the type of unlabeled elements of
	// the enclosing array.
	if c.typ == headerContext && w.name == ComponentClassKey && w.depth > 0 {
		if p := &w.ctxs[w.depth-1]; p.typ == arrayContext {
			p.hint = hintLabels[s]
		}
	}
	w.writeString(s, style)
	return w.p.err
}

func (w *Writer) writeString(s string, style StringStyle) {
	switch style {
	case StringLine:
		if w.lineSafe(s) {
			w.p.print("@sL ")
			w.p.print(s)
			w.afterLine = true
			return
		}
	case Quoted:
		w.writeQuoted(s)
		return
	case Text:
		w.writeText(s)
		return
	}
	switch {
	case w.canUnquote(s) && w.bareAllowed(StringToken, true):
		w.p.print(s)
	case w.opts.textEnabled() && utf8.RuneCountInString(s) > w.opts.textStringLength():
		w.writeText(s)
	default:
		w.writeQuoted(s)
	}
}

// canUnquote reports whether s can be written as an unquoted string and be
// read back as the same string.
func (w *Writer) canUnquote(s string) bool {
	if !w.nameSafe(s) {
		return false
	}
	switch s {
	case "true", "false", "null":
		return false
	}
	return !numlit.IsNumber(s)
}

// nameSafe reports whether s can be written unquoted in name position.
func (w *Writer) nameSafe(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > w.opts.maxUnquoteLength() {
		return false
	}
	ascii := w.opts.asciiOnly()
	for _, r := range s {
		if isSpace(r) || isUnsafe(r) || escape.NeedsEscape(r, ascii) {
			return false
		}
	}
	return true
}

// lineSafe reports whether s can be written with @sL.
func (w *Writer) lineSafe(s string) bool {
	ascii := w.opts.asciiOnly()
	for _, r := range s {
		if r != '"' && r != '\\' && r != '\t' && escape.NeedsEscape(r, ascii) {
			return false
		}
	}
	return true
}

func (w *Writer) writeQuoted(s string) {
	w.p.printByte('"')
	w.p.printBytes(escape.Quote(w.scratch(), mem.S(s), w.opts.asciiOnly()))
	w.p.printByte('"')
}

func (w *Writer) scratch() []byte { return make([]byte, 0, 64) }

// writeText writes s as a Dson text block. Each line of s begins with @|,
// except the first, and lines longer than the soft line length are continued
// with @-. Lines that need escapes are written with @^.
func (w *Writer) writeText(s string) {
	if w.opts.textAlignLeft() && w.p.column != 0 {
		w.p.newline()
	}
	col := w.p.column
	w.p.print(`@"""`)

	width := max(w.opts.softLineLength()-col-3, 16)
	ascii := w.opts.asciiOnly()
	for i, line := range strings.Split(s, "\n") {
		ctl := "@|"
		if i == 0 {
			ctl = "@-"
		}
		if !w.lineSafe(line) {
			if i != 0 {
				w.textLine(col, ctl, "")
			}
			w.textLine(col, "@^", string(escape.Quote(w.scratch(), mem.S(line), ascii)))
			continue
		}
		for first := true; first || line != ""; first = false {
			chunk := line
			if n := runeIndex(line, width); n < len(line) {
				chunk, line = line[:n], line[n:]
			} else {
				line = ""
			}
			w.textLine(col, ctl, chunk)
			ctl = "@-"
		}
	}
	w.p.newline()
	w.p.pad(col)
	w.p.print(`@"""`)
}

func (w *Writer) textLine(col int, ctl, content string) {
	w.p.newline()
	w.p.pad(col)
	w.p.print(ctl)
	if content != "" {
		w.p.printByte(' ')
		w.p.print(content)
	}
}

// runeIndex returns the byte offset of the nth rune of s, or len(s).
func runeIndex(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}

func fmtInt[T int32 | int64](v T) string { return strconv.FormatInt(int64(v), 10) }

// writeFields writes the full form of a builtin structure, omitting the
// fields that are not ok.
func (w *Writer) writeFields(fields ...field) {
	w.p.printByte('{')
	n := 0
	for _, f := range fields {
		if !f.ok {
			continue
		}
		if n > 0 {
			w.p.print(", ")
		}
		n++
		w.p.print(f.name)
		w.p.print(": ")
		w.writeFieldString(f.text)
	}
	w.p.printByte('}')
}

// writeFieldString writes s unquoted if the scanner reads it back as the
// same text, otherwise quoted.
func (w *Writer) writeFieldString(s string) {
	if w.nameSafe(s) {
		w.p.print(s)
	} else {
		w.writeQuoted(s)
	}
}

// WriteStartObject begins an object in the given style.
func (w *Writer) WriteStartObject(style Style) error {
	w.beginValue("WriteStartObject")
	w.p.printByte('{')
	w.pushContext(objectContext, style)
	return w.p.err
}

// WriteStartArray begins an array in the given style.
func (w *Writer) WriteStartArray(style Style) error {
	w.beginValue("WriteStartArray")
	w.p.printByte('[')
	w.pushContext(arrayContext, style)
	return w.p.err
}

// WriteStartHeader begins a header. A header may be written anywhere at the
// top level, or as the first element of an object or an array.
func (w *Writer) WriteStartHeader() error {
	w.beginHeader("WriteStartHeader")
	w.p.print("@{")
	w.pushContext(headerContext, Flow)
	return w.p.err
}

// WriteSimpleHeader writes the abbreviated header @{clsName}.
func (w *Writer) WriteSimpleHeader(clsName string) error {
	w.beginHeader("WriteSimpleHeader")
	w.p.print("@{")
	w.writeFieldString(clsName)
	w.p.printByte('}')
	return w.p.err
}

// WriteEndObject ends the current object.
func (w *Writer) WriteEndObject() error { return w.writeEnd("WriteEndObject", objectContext, '}') }

// WriteEndArray ends the current array.
func (w *Writer) WriteEndArray() error { return w.writeEnd("WriteEndArray", arrayContext, ']') }

// WriteEndHeader ends the current header.
func (w *Writer) WriteEndHeader() error { return w.writeEnd("WriteEndHeader", headerContext, '}') }

func (w *Writer) writeEnd(op string, want contextType, closer byte) error {
	c := w.checkOpen(op)
	if c.typ != want {
		panic(fmt.Sprintf("dson: %s called in %v", op, c.typ))
	} else if w.hasName {
		panic(fmt.Sprintf("dson: %s called with a pending name", op))
	}
	indent := w.ctxs[w.depth-1].body
	if w.afterLine {
		w.afterLine = false
		w.p.newline()
		w.p.pad(indent)
	} else if c.style == Indent && c.count > 0 {
		w.p.newline()
		w.p.pad(indent)
	}
	w.p.printByte(closer)
	w.depth--
	return w.p.err
}

func (w *Writer) pushContext(t contextType, style Style) {
	parent := w.ctxs[w.depth]
	if parent.style == Flow && parent.typ != topLevel {
		style = Flow
	}
	w.depth++
	if w.depth == len(w.ctxs) {
		w.ctxs = append(w.ctxs, writerContext{})
	}
	w.ctxs[w.depth] = writerContext{
		typ:   t,
		style: style,
		body:  parent.body + w.opts.indentWidth(),
	}
}

func (w *Writer) checkOpen(op string) *writerContext {
	if w.p.buf == nil {
		panic(fmt.Sprintf("dson: %s called on a closed writer", op))
	}
	return &w.ctxs[w.depth]
}

// beginValue places the next value and writes its name, if any.
func (w *Writer) beginValue(op string) *writerContext {
	c := w.checkOpen(op)
	switch c.typ {
	case objectContext, headerContext:
		if !w.hasName {
			panic(fmt.Sprintf("dson: %s called without a name", op))
		}
	}
	w.place(c, false)
	c.count++
	if w.hasName {
		if w.nameSafe(w.name) {
			w.p.print(w.name)
		} else {
			w.writeQuoted(w.name)
		}
		w.p.print(": ")
		w.hasName = false
	}
	return c
}

func (w *Writer) beginHeader(op string) {
	c := w.checkOpen(op)
	switch {
	case w.hasName:
		panic(fmt.Sprintf("dson: %s called with a pending name", op))
	case c.typ == headerContext:
		panic(fmt.Sprintf("dson: %s called in a header", op))
	case c.typ != topLevel && (c.count > 0 || c.headerCount > 0):
		panic(fmt.Sprintf("dson: %s called after the first element", op))
	}
	w.place(c, true)
	c.headerCount++
}

// place writes the separator and whitespace before an element of c.
func (w *Writer) place(c *writerContext, header bool) {
	if w.afterLine {
		w.afterLine = false
		w.p.newline()
		w.p.pad(c.body)
		if c.count > 0 && c.typ != topLevel {
			w.p.print(", ")
		}
		return
	}
	if c.count > 0 && c.typ != topLevel {
		w.p.printByte(',')
	}
	switch {
	case c.typ == topLevel:
		if w.p.wrote {
			w.p.newline()
		}
	case header:
		// A header follows its opening bracket directly.
	case c.style == Flow:
		if w.p.column > w.opts.softLineLength() {
			w.p.newline()
			w.p.pad(c.body)
		} else if c.count > 0 || c.headerCount > 0 {
			w.p.printByte(' ')
		}
	case c.count == 0, w.p.column > w.opts.softLineLength():
		// Indent: the first element starts a fresh line, and so does any
		// element past the soft line length.
		w.p.newline()
		w.p.pad(c.body)
	case w.p.column < c.body:
		w.p.pad(c.body)
	default:
		w.p.printByte(' ')
	}
}

// WriteBinary writes a binary value as hexadecimal digits.
func (w *Writer) WriteBinary(data []byte) error {
	w.beginValue("WriteBinary")
	w.p.print("@bin ")
	if len(data) == 0 {
		w.p.print(`""`)
		return w.p.err
	}
	buf := make([]byte, 0, 2*binaryChunk)
	for len(data) > 0 {
		n := min(len(data), binaryChunk)
		w.p.printBytes(hex.AppendEncode(buf[:0], data[:n]))
		data = data[n:]
	}
	return w.p.err
}

type field struct {
	name, text string
	ok         bool
}

// WritePtr writes an object pointer, abbreviated where possible.
func (w *Writer) WritePtr(p ObjectPtr) error {
	w.beginValue("WritePtr")
	w.p.print("@ptr ")
	if p.IsAbbreviable() && w.nameSafe(p.LocalID) {
		w.p.print(p.LocalID)
		return w.p.err
	}
	w.writeFields(
		field{"localId", p.LocalID, true},
		field{"ns", p.Namespace, p.Namespace != ""},
		field{"type", fmtInt(p.Type), p.Type != 0},
		field{"policy", fmtInt(p.Policy), p.Policy != 0},
	)
	return w.p.err
}

// WriteLitePtr writes a lite pointer, abbreviated where possible.
func (w *Writer) WriteLitePtr(p LitePtr) error {
	w.beginValue("WriteLitePtr")
	w.p.print("@lptr ")
	if p.IsAbbreviable() {
		w.p.print(fmtInt(p.LocalID))
		return w.p.err
	}
	w.writeFields(
		field{"localId", fmtInt(p.LocalID), true},
		field{"ns", p.Namespace, p.Namespace != ""},
		field{"type", fmtInt(p.Type), p.Type != 0},
		field{"policy", fmtInt(p.Policy), p.Policy != 0},
	)
	return w.p.err
}

// WriteDateTime writes a datetime value. It reports an error without writing
// anything if d is not valid.
func (w *Writer) WriteDateTime(d DateTime) error {
	if err := d.Validate(); err != nil {
		return err
	}
	w.beginValue("WriteDateTime")
	w.p.print("@dt ")
	if d.IsAbbreviable() {
		w.writeQuoted(time.Unix(d.Seconds, 0).UTC().Format(dateTimeLayout))
		return w.p.err
	}
	var date, tod, off []byte
	if d.HasDate() {
		date = appendDate(nil, d.Seconds)
	}
	if d.HasTime() {
		tod = appendTime(nil, d.Seconds)
	}
	if d.HasOffset() {
		off = appendOffset(nil, d.Offset)
	}
	millis := d.Nanos%1e6 == 0
	w.writeFields(
		field{"date", string(date), d.HasDate()},
		field{"time", string(tod), d.HasTime()},
		field{"offset", string(off), d.HasOffset()},
		field{"nanos", fmtInt(d.Nanos), d.Nanos != 0 && !millis},
		field{"millis", fmtInt(d.Nanos / 1e6), d.Nanos != 0 && millis},
	)
	return w.p.err
}

// WriteTimestamp writes a timestamp value, as seconds or milliseconds where
// that is exact. It reports an error without writing anything if ts is not
// valid.
func (w *Writer) WriteTimestamp(ts Timestamp) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	w.beginValue("WriteTimestamp")
	w.p.print("@ts ")
	if ts.Nanos == 0 {
		w.p.print(fmtInt(ts.Seconds))
	} else if ms, ok := ts.Millis(); ok {
		w.p.print(fmtInt(ms) + "ms")
	} else {
		w.writeFields(
			field{"seconds", fmtInt(ts.Seconds), true},
			field{"nanos", fmtInt(ts.Nanos), true},
		)
	}
	return w.p.err
}
