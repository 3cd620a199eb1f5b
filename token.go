// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"bytes"
	"fmt"
	"math"
)

// TokenType is the type of a lexical token in the Dson grammar.
type TokenType byte

// Constants defining the valid TokenType values.
const (
	InvalidToken  TokenType = iota // invalid token
	EOF                            // end of input
	BeginObject                    // left brace "{"
	EndObject                      // right brace "}"
	BeginArray                     // left square bracket "["
	EndArray                       // right square bracket "]"
	BeginHeader                    // header start "@{"
	Colon                          // colon ":"
	Comma                          // comma ","
	StringToken                    // quoted string, text block, or @s value
	UnquoteString                  // unquoted literal
	BuiltinStruct                  // @ptr, @lptr, @dt, or @ts label
	Int32Token                     // @i value
	Int64Token                     // @L value
	FloatToken                     // @f value
	DoubleToken                    // @d value
	BoolToken                      // @b value
	NullToken                      // @N value
	BinaryToken                    // @bin value
)

var tokenStr = [...]string{
	InvalidToken:  "invalid token",
	EOF:           "end of input",
	BeginObject:   `"{"`,
	EndObject:     `"}"`,
	BeginArray:    `"["`,
	EndArray:      `"]"`,
	BeginHeader:   `"@{"`,
	Colon:         `":"`,
	Comma:         `","`,
	StringToken:   "string",
	UnquoteString: "unquoted string",
	BuiltinStruct: "builtin struct",
	Int32Token:    "int32",
	Int64Token:    "int64",
	FloatToken:    "float",
	DoubleToken:   "double",
	BoolToken:     "bool",
	NullToken:     "null",
	BinaryToken:   "binary",
}

func (t TokenType) String() string {
	if int(t) >= len(tokenStr) {
		return tokenStr[InvalidToken]
	}
	return tokenStr[t]
}

// isString reports whether t carries string text.
func (t TokenType) isString() bool { return t == StringToken || t == UnquoteString }

// ScalarKind identifies the contents of a Scalar.
type ScalarKind byte

// Constants defining the valid ScalarKind values.
const (
	NoScalar ScalarKind = iota
	Int32Scalar
	Int64Scalar
	FloatScalar
	DoubleScalar
	BoolScalar
	DateTimeScalar
	TimestampScalar
)

// A Scalar is a tagged union of the fixed-size values carried by tokens and
// reported by a Reader. The zero value holds no value.
type Scalar struct {
	kind ScalarKind
	bits uint64
	dt   DateTime
	ts   Timestamp
}

// Constructors for each kind of Scalar.
func ScalarInt32(v int32) Scalar       { return Scalar{kind: Int32Scalar, bits: uint64(int64(v))} }
func ScalarInt64(v int64) Scalar       { return Scalar{kind: Int64Scalar, bits: uint64(v)} }
func ScalarFloat(v float32) Scalar     { return Scalar{kind: FloatScalar, bits: uint64(math.Float32bits(v))} }
func ScalarDouble(v float64) Scalar    { return Scalar{kind: DoubleScalar, bits: math.Float64bits(v)} }
func ScalarDateTime(v DateTime) Scalar { return Scalar{kind: DateTimeScalar, dt: v} }
func ScalarTimestamp(v Timestamp) Scalar {
	return Scalar{kind: TimestampScalar, ts: v}
}

func ScalarBool(v bool) Scalar {
	if v {
		return Scalar{kind: BoolScalar, bits: 1}
	}
	return Scalar{kind: BoolScalar}
}

// Kind reports the kind of value held by s.
func (s Scalar) Kind() ScalarKind { return s.kind }

// Accessors for the value of s. Each returns the zero value if s does not
// hold a value of the requested kind.
func (s Scalar) Int32() int32 {
	if s.kind != Int32Scalar {
		return 0
	}
	return int32(int64(s.bits))
}

func (s Scalar) Int64() int64 {
	if s.kind != Int64Scalar {
		return 0
	}
	return int64(s.bits)
}

func (s Scalar) Float() float32 {
	if s.kind != FloatScalar {
		return 0
	}
	return math.Float32frombits(uint32(s.bits))
}

func (s Scalar) Double() float64 {
	if s.kind != DoubleScalar {
		return 0
	}
	return math.Float64frombits(s.bits)
}

func (s Scalar) Bool() bool { return s.kind == BoolScalar && s.bits != 0 }

func (s Scalar) DateTime() DateTime {
	if s.kind != DateTimeScalar {
		return DateTime{}
	}
	return s.dt
}

func (s Scalar) Timestamp() Timestamp {
	if s.kind != TimestampScalar {
		return Timestamp{}
	}
	return s.ts
}

func (s Scalar) String() string {
	switch s.kind {
	case Int32Scalar:
		return fmt.Sprint(s.Int32())
	case Int64Scalar:
		return fmt.Sprint(s.Int64())
	case FloatScalar:
		return fmt.Sprint(s.Float())
	case DoubleScalar:
		return fmt.Sprint(s.Double())
	case BoolScalar:
		return fmt.Sprint(s.Bool())
	case DateTimeScalar:
		return s.dt.String()
	case TimestampScalar:
		return s.ts.String()
	}
	return "<none>"
}

// A Token is a lexical token reported by a Scanner. Tokens compare equal by
// type and contents, regardless of their position.
type Token struct {
	Type  TokenType
	Text  string // string contents, or the label of a BuiltinStruct
	Value Scalar // the value of a typed scalar token
	Data  []byte // the contents of a BinaryToken

	Pos int     // position of the first character of the token
	Loc LineCol // line and column of the first character of the token
}

// Equal reports whether t and u have the same type and contents.
// Floating-point values compare by representation, so NaN equals NaN.
func (t Token) Equal(u Token) bool {
	return t.Type == u.Type && t.Text == u.Text && t.Value == u.Value && bytes.Equal(t.Data, u.Data)
}

func (t Token) String() string {
	switch {
	case t.Type.isString() || t.Type == BuiltinStruct:
		return fmt.Sprintf("%v %q", t.Type, t.Text)
	case t.Value.Kind() != NoScalar:
		return fmt.Sprintf("%v %v", t.Type, t.Value)
	case t.Type == BinaryToken:
		return fmt.Sprintf("%v [%d bytes]", t.Type, len(t.Data))
	}
	return t.Type.String()
}
