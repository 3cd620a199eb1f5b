// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"errors"
	"fmt"
	"io"

	"github.com/creachadair/dson"
)

// Parse parses and returns the Dson values from r. A header at the top level
// is returned as a value of its own. In case of error, any complete values
// already parsed are returned along with the error.
func Parse(r io.Reader, opts *dson.ReaderOptions) ([]Value, error) {
	h := new(parseHandler)
	st := dson.NewStream(r, opts)
	defer st.Close()
	var vs []Value
	for {
		if err := st.ParseOne(h); err == io.EOF {
			return vs, nil
		} else if err != nil {
			return vs, err
		}
		if h.result == nil {
			return vs, errors.New("incomplete value")
		}
		vs = append(vs, h.result)
		h.result = nil
	}
}

// ParseSingle parses and returns a single Dson value from r. It is an error
// if r does not contain exactly one value.
func ParseSingle(r io.Reader, opts *dson.ReaderOptions) (Value, error) {
	vs, err := Parse(r, opts)
	if err != nil {
		return nil, err
	} else if len(vs) != 1 {
		return nil, fmt.Errorf("got %d values, want 1", len(vs))
	}
	return vs[0], nil
}

// A parseHandler implements the dson.Handler interface to construct abstract
// syntax trees for Dson values. The stack holds the containers and members
// under construction.
type parseHandler struct {
	stk    []any
	result Value
}

func (h *parseHandler) top() any { return h.stk[len(h.stk)-1] }

func (h *parseHandler) pop() any {
	last := h.top()
	h.stk = h.stk[:len(h.stk)-1]
	return last
}

func (h *parseHandler) push(v any) { h.stk = append(h.stk, v) }

// reduceValue attaches a completed value to the element atop the stack, or
// records it as the result if the stack is empty.
func (h *parseHandler) reduceValue(v Value) error {
	if len(h.stk) == 0 {
		h.result = v
		return nil
	}
	switch prev := h.top().(type) {
	case *Member:
		prev.Value = v
	case *Array:
		prev.Values = append(prev.Values, v)
	default:
		return fmt.Errorf("unexpected value in %T", prev)
	}
	return nil
}

func (h *parseHandler) BeginObject(dson.LineCol) error { h.push(new(Object)); return nil }

func (h *parseHandler) EndObject() error { return h.reduceValue(*h.pop().(*Object)) }

func (h *parseHandler) BeginArray(dson.LineCol) error { h.push(new(Array)); return nil }

func (h *parseHandler) EndArray() error { return h.reduceValue(*h.pop().(*Array)) }

func (h *parseHandler) BeginHeader(dson.LineCol) error {
	h.push(Header{})
	return nil
}

// EndHeader attaches the completed header to its container. A header at the
// top level is a value of its own.
func (h *parseHandler) EndHeader() error {
	hdr := h.pop().(Header)
	if len(h.stk) == 0 {
		h.result = hdr
		return nil
	}
	switch c := h.top().(type) {
	case *Object:
		c.Header = hdr
	case *Array:
		c.Header = hdr
	default:
		return fmt.Errorf("unexpected header in %T", c)
	}
	return nil
}

func (h *parseHandler) BeginMember(name string) error {
	h.push(&Member{Key: name})
	return nil
}

// EndMember adds the completed member to the object or header beneath it.
func (h *parseHandler) EndMember() error {
	m := h.pop().(*Member)
	switch c := h.top().(type) {
	case *Object:
		c.Members = append(c.Members, m)
	case Header:
		h.stk[len(h.stk)-1] = append(c, m)
	default:
		return fmt.Errorf("unexpected member in %T", c)
	}
	return nil
}

func (h *parseHandler) Value(d *dson.Datum) error {
	v, err := datumValue(d)
	if err != nil {
		return err
	}
	return h.reduceValue(v)
}

func (h *parseHandler) EndOfInput() {}

func datumValue(d *dson.Datum) (Value, error) {
	switch d.Type {
	case dson.Int32:
		return Int32(d.Scalar.Int32()), nil
	case dson.Int64:
		return Int64(d.Scalar.Int64()), nil
	case dson.Float:
		return Float(d.Scalar.Float()), nil
	case dson.Double:
		return Double(d.Scalar.Double()), nil
	case dson.Boolean:
		return Bool(d.Scalar.Bool()), nil
	case dson.String:
		return String(d.Str), nil
	case dson.Null:
		return Null, nil
	case dson.Binary:
		return Binary(d.Data), nil
	case dson.Pointer:
		return Pointer(d.Ptr), nil
	case dson.LitePointer:
		return LitePointer(d.Lite), nil
	case dson.DateTimeType:
		return DateTime(d.Scalar.DateTime()), nil
	case dson.TimestampType:
		return Timestamp(d.Scalar.Timestamp()), nil
	}
	return nil, fmt.Errorf("unknown value type %v", d.Type)
}
