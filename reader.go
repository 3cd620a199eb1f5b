// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/creachadair/dson/charstream"
	"github.com/creachadair/dson/internal/numlit"
	"go4.org/mem"
)

// ReaderState is the state of a Reader between calls.
type ReaderState byte

// Constants defining the valid ReaderState values.
const (
	StateType    ReaderState = iota // ready for ReadDsonType
	StateName                       // a name is pending
	StateValue                      // a value is pending
	StateWaitEnd                    // the current container has ended
	StateDone                       // the input is exhausted
)

var stateStr = [...]string{
	StateType:    "type",
	StateName:    "name",
	StateValue:   "value",
	StateWaitEnd: "wait end",
	StateDone:    "done",
}

func (s ReaderState) String() string {
	if int(s) >= len(stateStr) {
		return "invalid state"
	}
	return stateStr[s]
}

type contextType byte

const (
	topLevel contextType = iota
	objectContext
	arrayContext
	headerContext
)

func (c contextType) String() string {
	return [...]string{"top level", "object", "array", "header"}[c]
}

// A readerContext records the progress of one open container.
type readerContext struct {
	typ         contextType
	count       int       // elements read, not counting headers
	headerCount int       // headers read
	hint        TokenType // the type of unlabeled values, if not InvalidToken
}

// pending is the value classified by ReadDsonType and not yet consumed.
type pending struct {
	typ    DsonType
	name   string
	str    string
	scalar Scalar
	data   []byte
	ptr    ObjectPtr
	lptr   LitePtr
}

// A Reader reads a stream of typed values from Dson text.
//
// Call ReadDsonType to advance to the next value. Inside an object or header,
// then call ReadName or SkipName to consume its name. Finally, call the read
// method matching the reported type, or SkipValue. When ReadDsonType reports
// EndOfObject, call the end method matching the open container. Calling a
// method that does not match the state of the reader panics.
//
// Errors are sticky: once a method has reported an error, every subsequent
// call reports the same error. A Reader is not safe for concurrent use.
type Reader struct {
	s     *Scanner
	opts  ReaderOptions
	names Interner

	ctxs  []readerContext // ctxs[0] is the top level
	depth int
	state ReaderState
	next  pending
	loc   LineCol

	tokens   []Token // pushback stack; the last element is next
	marks    []Token // tokens scanned while peeking, in order
	marking  bool
	skipping bool

	err error
}

// NewReader constructs a Reader that consumes input from r.
// A nil opts is equivalent to a zero-valued ReaderOptions.
func NewReader(r io.Reader, opts *ReaderOptions) *Reader {
	return NewReaderWithScanner(NewScanner(charstream.NewReader(r)), opts)
}

// NewStringReader constructs a Reader that consumes input from s.
func NewStringReader(s string, opts *ReaderOptions) *Reader {
	return NewReaderWithScanner(NewScanner(charstream.NewString(s)), opts)
}

// NewReaderWithScanner constructs a Reader that consumes tokens from s.
// The reader takes ownership of s.
func NewReaderWithScanner(s *Scanner, opts *ReaderOptions) *Reader {
	r := &Reader{s: s, ctxs: make([]readerContext, 1, 8)}
	if opts != nil {
		r.opts = *opts
	}
	if r.opts.internNames() {
		r.names = make(Interner)
	}
	return r
}

// Close releases the resources held by r. Close is idempotent and always
// returns nil.
func (r *Reader) Close() error {
	if r.s != nil {
		r.s.Close()
		r.s = nil
		r.tokens, r.marks = nil, nil
	}
	return nil
}

// State reports the current state of r.
func (r *Reader) State() ReaderState { return r.state }

// Depth reports the number of open containers.
func (r *Reader) Depth() int { return r.depth }

// Location reports the location of the most recently classified value.
func (r *Reader) Location() LineCol { return r.loc }

// ReadDsonType advances r to the next value and reports its type. At the end
// of a container, or at the end of input at the top level, it reports
// EndOfObject.
func (r *Reader) ReadDsonType() (_ DsonType, err error) {
	if r.err != nil {
		return Invalid, r.err
	} else if r.state == StateDone {
		return EndOfObject, nil
	}
	defer r.recoverError(&err)
	r.checkState("ReadDsonType", StateType)
	return r.readType(), nil
}

// PeekDsonType reports the type of the next value without consuming it.
// A subsequent call to ReadDsonType reports the same type and value.
func (r *Reader) PeekDsonType() (_ DsonType, err error) {
	if r.err != nil {
		return Invalid, r.err
	} else if r.state == StateDone {
		return EndOfObject, nil
	}
	defer r.recoverError(&err)
	r.checkState("PeekDsonType", StateType)

	saved := slices.Clone(r.tokens)
	savedCtx := slices.Clone(r.ctxs[:r.depth+1])
	savedState, savedNext, savedLoc := r.state, r.next, r.loc
	r.marking, r.marks = true, r.marks[:0]
	defer func() {
		r.marking = false
		slices.Reverse(r.marks)
		r.tokens = append(append(r.tokens[:0], r.marks...), saved...)
		copy(r.ctxs, savedCtx)
		r.state, r.next, r.loc = savedState, savedNext, savedLoc
	}()
	return r.readType(), nil
}

// ReadName returns the name of the pending value.
func (r *Reader) ReadName() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.checkState("ReadName", StateName)
	r.state = StateValue
	return r.next.name, nil
}

// SkipName discards the name of the pending value.
func (r *Reader) SkipName() error {
	_, err := r.ReadName()
	return err
}

// take checks that a value of type t is pending and consumes it.
func (r *Reader) take(op string, t DsonType) (pending, error) {
	if r.err != nil {
		return pending{}, r.err
	}
	r.checkState(op, StateValue)
	if r.next.typ != t {
		panic(fmt.Sprintf("dson: %s called with a pending %v", op, r.next.typ))
	}
	v := r.next
	r.next = pending{}
	r.state = StateType
	return v, nil
}

// ReadInt32 consumes a pending Int32 value.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.take("ReadInt32", Int32)
	return v.scalar.Int32(), err
}

// ReadInt64 consumes a pending Int64 value.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.take("ReadInt64", Int64)
	return v.scalar.Int64(), err
}

// ReadFloat consumes a pending Float value.
func (r *Reader) ReadFloat() (float32, error) {
	v, err := r.take("ReadFloat", Float)
	return v.scalar.Float(), err
}

// ReadDouble consumes a pending Double value.
func (r *Reader) ReadDouble() (float64, error) {
	v, err := r.take("ReadDouble", Double)
	return v.scalar.Double(), err
}

// ReadBool consumes a pending Boolean value.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.take("ReadBool", Boolean)
	return v.scalar.Bool(), err
}

// ReadString consumes a pending String value.
func (r *Reader) ReadString() (string, error) {
	v, err := r.take("ReadString", String)
	return v.str, err
}

// ReadNull consumes a pending Null value.
func (r *Reader) ReadNull() error {
	_, err := r.take("ReadNull", Null)
	return err
}

// ReadBinary consumes a pending Binary value.
func (r *Reader) ReadBinary() ([]byte, error) {
	v, err := r.take("ReadBinary", Binary)
	return v.data, err
}

// ReadPtr consumes a pending Pointer value.
func (r *Reader) ReadPtr() (ObjectPtr, error) {
	v, err := r.take("ReadPtr", Pointer)
	return v.ptr, err
}

// ReadLitePtr consumes a pending LitePointer value.
func (r *Reader) ReadLitePtr() (LitePtr, error) {
	v, err := r.take("ReadLitePtr", LitePointer)
	return v.lptr, err
}

// ReadDateTime consumes a pending DateTimeType value.
func (r *Reader) ReadDateTime() (DateTime, error) {
	v, err := r.take("ReadDateTime", DateTimeType)
	return v.scalar.DateTime(), err
}

// ReadTimestamp consumes a pending TimestampType value.
func (r *Reader) ReadTimestamp() (Timestamp, error) {
	v, err := r.take("ReadTimestamp", TimestampType)
	return v.scalar.Timestamp(), err
}

// ReadScalar consumes a pending value of any fixed-size type.
func (r *Reader) ReadScalar() (Scalar, error) {
	if r.err != nil {
		return Scalar{}, r.err
	}
	r.checkState("ReadScalar", StateValue)
	if r.next.scalar.Kind() == NoScalar {
		panic(fmt.Sprintf("dson: ReadScalar called with a pending %v", r.next.typ))
	}
	v := r.next.scalar
	r.next = pending{}
	r.state = StateType
	return v, nil
}

// ReadStartObject enters a pending Object.
func (r *Reader) ReadStartObject() error { return r.readStart("ReadStartObject", Object) }

// ReadStartArray enters a pending Array.
func (r *Reader) ReadStartArray() error { return r.readStart("ReadStartArray", Array) }

// ReadStartHeader enters a pending Header.
func (r *Reader) ReadStartHeader() error { return r.readStart("ReadStartHeader", Header) }

// ReadEndObject leaves the current Object after ReadDsonType has reported
// EndOfObject.
func (r *Reader) ReadEndObject() error { return r.readEnd("ReadEndObject", objectContext) }

// ReadEndArray leaves the current Array after ReadDsonType has reported
// EndOfObject.
func (r *Reader) ReadEndArray() error { return r.readEnd("ReadEndArray", arrayContext) }

// ReadEndHeader leaves the current Header after ReadDsonType has reported
// EndOfObject.
func (r *Reader) ReadEndHeader() error { return r.readEnd("ReadEndHeader", headerContext) }

func (r *Reader) readStart(op string, t DsonType) error {
	if _, err := r.take(op, t); err != nil {
		return err
	}
	r.pushContext(contextFor(t))
	return nil
}

func (r *Reader) readEnd(op string, want contextType) error {
	if r.err != nil {
		return r.err
	}
	r.checkState(op, StateWaitEnd)
	if got := r.ctxs[r.depth].typ; got != want {
		panic(fmt.Sprintf("dson: %s called at the end of %v", op, got))
	}
	r.depth--
	r.state = StateType
	return nil
}

// SkipValue discards the pending value. If the value is a container, its
// contents are read and discarded. Malformed contents are reported as errors.
func (r *Reader) SkipValue() (err error) {
	if r.err != nil {
		return r.err
	}
	defer r.recoverError(&err)
	r.checkState("SkipValue", StateValue)

	r.skipping = true
	defer func() { r.skipping = false }()
	r.skipPending()
	return nil
}

// SkipToEndOfObject discards the rest of the current container, including
// any pending name and value. Afterward, call the end method matching the
// container.
func (r *Reader) SkipToEndOfObject() (err error) {
	if r.err != nil {
		return r.err
	}
	defer r.recoverError(&err)

	r.skipping = true
	defer func() { r.skipping = false }()
	switch r.state {
	case StateName, StateValue:
		r.skipPending()
	case StateType:
	case StateWaitEnd:
		return nil
	default:
		panic(fmt.Sprintf("dson: SkipToEndOfObject called in state %v", r.state))
	}
	r.skipRest()
	return nil
}

// skipPending discards the pending value and any contents it has.
func (r *Reader) skipPending() {
	t := r.next.typ
	r.next = pending{}
	r.state = StateType
	if !t.IsContainer() {
		return
	}
	r.pushContext(contextFor(t))
	r.skipRest()
	r.depth--
	r.state = StateType
}

// skipRest discards values until the end of the current container.
func (r *Reader) skipRest() {
	for r.readType() != EndOfObject {
		r.skipPending()
	}
}

func (r *Reader) pushContext(t contextType) {
	r.depth++
	if r.depth == len(r.ctxs) {
		r.ctxs = append(r.ctxs, readerContext{})
	}
	r.ctxs[r.depth] = readerContext{typ: t}
	r.state = StateType
}

func contextFor(t DsonType) contextType {
	switch t {
	case Object:
		return objectContext
	case Array:
		return arrayContext
	case Header:
		return headerContext
	}
	panic("not a container: " + t.String())
}

func closerFor(t contextType) TokenType {
	if t == arrayContext {
		return EndArray
	}
	return EndObject
}

// readType reads the next element of the current container and classifies
// it into r.next.
func (r *Reader) readType() DsonType {
	c := &r.ctxs[r.depth]
	tok := r.pop()
	if c.typ == topLevel {
		// A comma between top-level values is optional.
		if tok.Type == Comma && (c.count > 0 || c.headerCount > 0) {
			tok = r.pop()
		}
		if tok.Type == EOF {
			r.state = StateDone
			return EndOfObject
		}
	} else {
		closer := closerFor(c.typ)
		if c.count > 0 && tok.Type != closer {
			if tok.Type != Comma {
				r.structuralf(tok, "expected %v or %v, got %v", Comma, closer, tok.Type)
			}
			tok = r.pop()
			if tok.Type == closer {
				r.structuralf(tok, "unexpected %v after %v", tok.Type, Comma)
			}
		}
		switch tok.Type {
		case closer:
			r.state = StateWaitEnd
			return EndOfObject
		case EndObject, EndArray, EOF:
			r.structuralf(tok, "unexpected %v in %v", tok.Type, c.typ)
		}
	}

	if tok.Type == BeginHeader {
		if !r.headerAllowed(c) {
			r.structuralf(tok, "header is not allowed here")
		}
		c.headerCount++
		r.resolveHeader()
		r.next = pending{typ: Header}
		r.loc = tok.Loc
		r.state = StateValue
		return Header
	}

	if c.typ == objectContext || c.typ == headerContext {
		if !tok.Type.isString() {
			r.structuralf(tok, "expected name, got %v", tok.Type)
		}
		name := tok.Text
		if r.names != nil {
			name = r.names.Intern(name)
		}
		if colon := r.pop(); colon.Type != Colon {
			r.structuralf(colon, "expected %v after name, got %v", Colon, colon.Type)
		}
		r.classify(r.pop(), name)
		r.next.name = name
		c.count++
		r.state = StateName
		return r.next.typ
	}

	r.classify(tok, "")
	c.count++
	r.state = StateValue
	return r.next.typ
}

// headerAllowed reports whether a header may appear as the next element of c.
func (r *Reader) headerAllowed(c *readerContext) bool {
	switch c.typ {
	case topLevel:
		return true
	case objectContext, arrayContext:
		return c.count == 0 && c.headerCount == 0
	}
	return false
}

// resolveHeader rewrites the abbreviated header @{Name} into the canonical
// form @{clsName: Name} on the pushback stack. Other headers are left alone.
// Precondition: the BeginHeader token has been read.
func (r *Reader) resolveHeader() {
	defer r.materialize()()

	var seen []Token
	for {
		tok := r.pop()
		seen = append(seen, tok)
		switch tok.Type {
		case Colon, EOF:
			r.pushAll(seen)
			return
		case EndObject:
			if len(seen) == 2 && seen[0].Type.isString() {
				name := seen[0]
				name.Type = StringToken // a class name is never a number
				r.push(tok)
				r.push(name)
				r.push(Token{Type: Colon, Pos: name.Pos, Loc: name.Loc})
				r.push(Token{Type: UnquoteString, Text: ClassNameKey, Pos: name.Pos, Loc: name.Loc})
				return
			} else if len(seen) > 1 {
				r.structuralf(seen[0], "invalid header: expected name or class name")
			}
			r.pushAll(seen)
			return
		}
	}
}

// ClassNameKey is the header key of the class name given by an abbreviated
// header, so that @{Foo} and @{clsName: Foo} are equivalent.
const ClassNameKey = "clsName"

// ComponentClassKey is the header key that sets the type of unlabeled
// elements of an array, when its value is one of the scalar labels i, L, f,
// d, b, or s.
const ComponentClassKey = "compClsName"

// LocalIDKey is the header key whose unlabeled value has the type selected by
// ReaderOptions.LocalIDType.
const LocalIDKey = "localId"

var hintLabels = map[string]TokenType{
	"i": Int32Token,
	"L": Int64Token,
	"f": FloatToken,
	"d": DoubleToken,
	"b": BoolToken,
	"s": StringToken,
}

// classify records the value denoted by tok, whose name is name, in r.next.
func (r *Reader) classify(tok Token, name string) {
	r.loc = tok.Loc
	switch tok.Type {
	case Int32Token:
		r.next = pending{typ: Int32, scalar: tok.Value}
	case Int64Token:
		r.next = pending{typ: Int64, scalar: tok.Value}
	case FloatToken:
		r.next = pending{typ: Float, scalar: tok.Value}
	case DoubleToken:
		r.next = pending{typ: Double, scalar: tok.Value}
	case BoolToken:
		r.next = pending{typ: Boolean, scalar: tok.Value}
	case NullToken:
		r.next = pending{typ: Null}
	case StringToken:
		r.next = pending{typ: String, str: tok.Text}
	case BinaryToken:
		r.next = pending{typ: Binary, data: tok.Data}
	case UnquoteString:
		r.classifyUnquoted(tok, name)
	case BuiltinStruct:
		r.readBuiltin(tok)
	case BeginObject:
		r.next = pending{typ: Object}
	case BeginArray:
		r.next = pending{typ: Array}
	default:
		r.structuralf(tok, "unexpected %v", tok.Type)
	}

	// A component class in a header sets the type of unlabeled elements of
	// the enclosing array.
	if name == ComponentClassKey && r.next.typ == String && r.depth > 0 {
		if c := r.ctxs[r.depth]; c.typ == headerContext {
			if p := &r.ctxs[r.depth-1]; p.typ == arrayContext {
				p.hint = hintLabels[r.next.str]
			}
		}
	}
}

func (r *Reader) classifyUnquoted(tok Token, name string) {
	c := &r.ctxs[r.depth]
	text := tok.Text
	if c.typ == headerContext && name == LocalIDKey {
		if r.opts.localIDInt64() {
			r.next = pending{typ: Int64, scalar: ScalarInt64(r.parseInt(tok, 64))}
		} else {
			r.next = pending{typ: String, str: text}
		}
		return
	}

	switch c.hint {
	case Int32Token:
		r.next = pending{typ: Int32, scalar: ScalarInt32(int32(r.parseInt(tok, 32)))}
		return
	case Int64Token:
		r.next = pending{typ: Int64, scalar: ScalarInt64(r.parseInt(tok, 64))}
		return
	case FloatToken:
		r.next = pending{typ: Float, scalar: ScalarFloat(float32(r.parseFloat(tok, 32)))}
		return
	case DoubleToken:
		r.next = pending{typ: Double, scalar: ScalarDouble(r.parseFloat(tok, 64))}
		return
	case BoolToken:
		switch text {
		case "true", "false":
			r.next = pending{typ: Boolean, scalar: ScalarBool(text == "true")}
		default:
			r.lexicalf(tok, "invalid bool %q", text)
		}
		return
	case StringToken:
		r.next = pending{typ: String, str: text}
		return
	}

	switch text {
	case "true", "false":
		r.next = pending{typ: Boolean, scalar: ScalarBool(text == "true")}
	case "null":
		r.next = pending{typ: Null}
	default:
		n, ok := numlit.Classify(mem.S(text))
		switch {
		case !ok:
			r.next = pending{typ: String, str: text}
		case n.Fits32():
			r.next = pending{typ: Int32, scalar: ScalarInt32(int32(n.Int))}
		case n.IsInt:
			r.next = pending{typ: Int64, scalar: ScalarInt64(n.Int)}
		default:
			r.next = pending{typ: Double, scalar: ScalarDouble(n.Float)}
		}
	}
}

func (r *Reader) parseInt(tok Token, bits int) int64 {
	switch tok.Type {
	case Int32Token:
		return int64(tok.Value.Int32())
	case Int64Token:
		v := tok.Value.Int64()
		if bits == 32 && int64(int32(v)) != v {
			r.lexicalf(tok, "value %d out of range for int32", v)
		}
		return v
	case StringToken, UnquoteString:
		v, err := numlit.ParseInt(mem.S(tok.Text), bits)
		if err != nil {
			r.lexicalf(tok, "invalid int%d %q: %v", bits, tok.Text, err)
		}
		return v
	}
	r.structuralf(tok, "expected integer, got %v", tok.Type)
	panic("unreachable")
}

func (r *Reader) parseFloat(tok Token, bits int) float64 {
	v, err := numlit.ParseFloat(mem.S(tok.Text), bits)
	if err != nil {
		r.lexicalf(tok, "invalid float%d %q: %v", bits, tok.Text, err)
	}
	return v
}

func (r *Reader) stringValue(tok Token, field string) string {
	if !tok.Type.isString() {
		r.structuralf(tok, "expected string for %q, got %v", field, tok.Type)
	}
	return tok.Text
}

// Field names of the full forms of the builtin structures.
var builtinFields = map[string][]string{
	"ptr":  {"localId", "ns", "type", "policy"},
	"lptr": {"localId", "ns", "type", "policy"},
	"dt":   {"date", "time", "offset", "nanos", "millis"},
	"ts":   {"seconds", "nanos", "millis"},
}

// readBuiltin reads the payload of a builtin structure, in either its
// abbreviated or its full form.
func (r *Reader) readBuiltin(label Token) {
	defer r.materialize()()

	tok := r.pop()
	if tok.Type == BeginObject {
		r.readBuiltinFields(label)
		return
	}
	switch label.Text {
	case "ptr":
		r.next = pending{typ: Pointer, ptr: ObjectPtr{LocalID: r.stringValue(tok, "localId")}}

	case "lptr":
		r.next = pending{typ: LitePointer, lptr: LitePtr{LocalID: r.parseInt(tok, 64)}}

	case "dt":
		text := r.stringValue(tok, "dt")
		t, err := time.Parse(dateTimeLayout, text)
		if err != nil {
			r.lexicalf(tok, "invalid datetime %q", text)
		}
		r.next = pending{typ: DateTimeType, scalar: ScalarDateTime(DateTime{
			Seconds: t.Unix(),
			Enables: MaskDateTime,
		})}

	case "ts":
		var ts Timestamp
		if ms, ok := strings.CutSuffix(tok.Text, "ms"); ok && tok.Type.isString() {
			ts = TimestampMillis(r.parseInt(Token{Type: tok.Type, Text: ms, Loc: tok.Loc}, 64))
		} else {
			ts = Timestamp{Seconds: r.parseInt(tok, 64)}
		}
		r.next = pending{typ: TimestampType, scalar: ScalarTimestamp(ts)}
	}
}

// readBuiltinFields reads the fields of the full form of a builtin structure.
// Precondition: the opening brace has been read.
func (r *Reader) readBuiltinFields(label Token) {
	fields := builtinFields[label.Text]
	vals := make([]Token, len(fields))
	seen := make([]bool, len(fields))

	for n := 0; ; n++ {
		tok := r.pop()
		if n > 0 && tok.Type != EndObject {
			if tok.Type != Comma {
				r.structuralf(tok, "expected %v or %v, got %v", Comma, EndObject, tok.Type)
			}
			tok = r.pop()
			if tok.Type == EndObject {
				r.structuralf(tok, "unexpected %v after %v", tok.Type, Comma)
			}
		}
		if tok.Type == EndObject {
			break
		} else if !tok.Type.isString() {
			r.structuralf(tok, "expected field name, got %v", tok.Type)
		}
		i := slices.Index(fields, tok.Text)
		if i < 0 {
			r.structuralf(tok, "unknown field %q for @%s", tok.Text, label.Text)
		} else if seen[i] {
			r.structuralf(tok, "duplicate field %q for @%s", tok.Text, label.Text)
		}
		if colon := r.pop(); colon.Type != Colon {
			r.structuralf(colon, "expected %v after name, got %v", Colon, colon.Type)
		}
		seen[i] = true
		vals[i] = r.pop()
	}

	field := func(name string) (Token, bool) {
		i := slices.Index(fields, name)
		return vals[i], seen[i]
	}
	int32Field := func(name string) int32 {
		if tok, ok := field(name); ok {
			return int32(r.parseInt(tok, 32))
		}
		return 0
	}
	stringField := func(name string) string {
		if tok, ok := field(name); ok {
			return r.stringValue(tok, name)
		}
		return ""
	}
	// Both forms of the fractional second are accepted, but not together.
	nanosField := func() int32 {
		ns, hasNanos := field("nanos")
		ms, hasMillis := field("millis")
		switch {
		case hasNanos && hasMillis:
			r.structuralf(ms, "@%s has both nanos and millis", label.Text)
		case hasNanos:
			v := r.parseInt(ns, 32)
			if v < 0 || v >= 1e9 {
				r.lexicalf(ns, "nanos %d out of range", v)
			}
			return int32(v)
		case hasMillis:
			v := r.parseInt(ms, 32)
			if v < 0 || v >= 1000 {
				r.lexicalf(ms, "millis %d out of range", v)
			}
			return int32(v * 1e6)
		}
		return 0
	}

	switch label.Text {
	case "ptr":
		r.next = pending{typ: Pointer, ptr: ObjectPtr{
			LocalID:   stringField("localId"),
			Namespace: stringField("ns"),
			Type:      int32Field("type"),
			Policy:    int32Field("policy"),
		}}

	case "lptr":
		var id int64
		if tok, ok := field("localId"); ok {
			id = r.parseInt(tok, 64)
		}
		r.next = pending{typ: LitePointer, lptr: LitePtr{
			LocalID:   id,
			Namespace: stringField("ns"),
			Type:      int32Field("type"),
			Policy:    int32Field("policy"),
		}}

	case "dt":
		var dt DateTime
		if tok, ok := field("date"); ok {
			secs, err := parseDate(r.stringValue(tok, "date"))
			if err != nil {
				r.lexicalf(tok, "%v", err)
			}
			dt.Seconds += secs
			dt.Enables |= MaskDate
		}
		if tok, ok := field("time"); ok {
			secs, err := parseTime(r.stringValue(tok, "time"))
			if err != nil {
				r.lexicalf(tok, "%v", err)
			}
			dt.Seconds += secs
			dt.Enables |= MaskTime
		}
		if tok, ok := field("offset"); ok {
			off, err := parseOffset(r.stringValue(tok, "offset"))
			if err != nil {
				r.lexicalf(tok, "%v", err)
			}
			dt.Offset = off
			dt.Enables |= MaskOffset
		}
		dt.Nanos = nanosField()
		if err := dt.Validate(); err != nil {
			r.lexicalf(label, "%v", err)
		}
		r.next = pending{typ: DateTimeType, scalar: ScalarDateTime(dt)}

	case "ts":
		var ts Timestamp
		if tok, ok := field("seconds"); ok {
			ts.Seconds = r.parseInt(tok, 64)
		}
		ts.Nanos = nanosField()
		r.next = pending{typ: TimestampType, scalar: ScalarTimestamp(ts)}
	}
}

// materialize disables skip mode until the returned function is called.
func (r *Reader) materialize() func() {
	old := r.skipping
	r.skipping = false
	return func() { r.skipping = old }
}

// pop returns the next token, from the pushback stack if it is not empty, or
// else from the scanner.
func (r *Reader) pop() Token {
	if n := len(r.tokens); n > 0 {
		tok := r.tokens[n-1]
		r.tokens = r.tokens[:n-1]
		return tok
	}
	skip := r.skipping && r.ctxs[r.depth].typ != headerContext
	tok, err := r.s.NextToken(skip)
	if err != nil {
		panic(err)
	}
	if r.marking {
		r.marks = append(r.marks, tok)
	}
	return tok
}

func (r *Reader) push(tok Token) { r.tokens = append(r.tokens, tok) }

// pushAll pushes back toks so that they will be popped in their original
// order.
func (r *Reader) pushAll(toks []Token) {
	for i := len(toks) - 1; i >= 0; i-- {
		r.push(toks[i])
	}
}

func (r *Reader) checkState(op string, want ReaderState) {
	if r.s == nil {
		panic(fmt.Sprintf("dson: %s called on a closed reader", op))
	} else if r.state != want {
		panic(fmt.Sprintf("dson: %s called in state %v", op, r.state))
	}
}

func (r *Reader) recoverError(errp *error) {
	if v := recover(); v != nil {
		serr, ok := v.(*SyntaxError)
		if !ok {
			panic(v)
		}
		r.err = serr
		*errp = serr
	}
}

func (r *Reader) structuralf(tok Token, msg string, args ...any) {
	panic(&SyntaxError{Kind: Structural, Location: tok.Loc, Message: fmt.Sprintf(msg, args...)})
}

func (r *Reader) lexicalf(tok Token, msg string, args ...any) {
	panic(&SyntaxError{Kind: Lexical, Location: tok.Loc, Message: fmt.Sprintf(msg, args...)})
}
