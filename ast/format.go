// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/creachadair/dson"
)

// Format writes the Dson text of vs to w, each top-level value on its own
// line. Objects with members, and arrays that contain nonempty containers,
// are indented; everything else is written on one line.
func Format(w io.Writer, opts *dson.WriterOptions, vs ...Value) error {
	return format(w, opts, dson.Indent, vs)
}

// FormatToString returns the Dson text of vs as formatted by Format.
func FormatToString(opts *dson.WriterOptions, vs ...Value) (string, error) {
	var buf strings.Builder
	if err := Format(&buf, opts, vs...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// compact renders v on a single line.
func compact(v Value) string {
	var buf strings.Builder
	opts := &dson.WriterOptions{DisableText: true, SoftLineLength: 1 << 30}
	if err := format(&buf, opts, dson.Flow, []Value{v}); err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func format(w io.Writer, opts *dson.WriterOptions, style dson.Style, vs []Value) error {
	f := formatter{w: dson.NewWriter(w, opts), style: style}
	for _, v := range vs {
		if err := f.value(v); err != nil {
			f.w.Close()
			return err
		}
	}
	return f.w.Close()
}

type formatter struct {
	w     *dson.Writer
	style dson.Style // the widest style to use for containers
}

func (f formatter) value(v Value) error {
	const n = dson.Simple
	switch t := v.(type) {
	case Object:
		if err := f.w.WriteStartObject(f.objectStyle(t)); err != nil {
			return err
		}
		if err := f.header(t.Header); err != nil {
			return err
		}
		if err := f.members(t.Members); err != nil {
			return err
		}
		return f.w.WriteEndObject()

	case Array:
		if err := f.w.WriteStartArray(f.arrayStyle(t)); err != nil {
			return err
		}
		if err := f.header(t.Header); err != nil {
			return err
		}
		for _, elt := range t.Values {
			if err := f.value(elt); err != nil {
				return err
			}
		}
		return f.w.WriteEndArray()

	case Header:
		if f.w.Depth() != 0 {
			return fmt.Errorf("header is not allowed as a nested value")
		}
		return f.header(t)

	case *Member:
		return f.value(Object{Members: []*Member{t}})

	case Int32:
		return f.w.WriteInt32(int32(t), n)
	case Int64:
		return f.w.WriteInt64(int64(t), n)
	case Float:
		return f.w.WriteFloat(float32(t), n)
	case Double:
		return f.w.WriteDouble(float64(t), n)
	case Bool:
		return f.w.WriteBool(bool(t))
	case String:
		return f.w.WriteString(string(t), dson.Auto)
	case Binary:
		return f.w.WriteBinary(t)
	case Pointer:
		return f.w.WritePtr(dson.ObjectPtr(t))
	case LitePointer:
		return f.w.WriteLitePtr(dson.LitePtr(t))
	case DateTime:
		return f.w.WriteDateTime(dson.DateTime(t))
	case Timestamp:
		return f.w.WriteTimestamp(dson.Timestamp(t))
	case nullValue:
		return f.w.WriteNull()
	case nil:
		return fmt.Errorf("invalid nil value")
	}
	return fmt.Errorf("unknown value type %T", v)
}

func (f formatter) header(h Header) error {
	if h == nil {
		return nil
	} else if h.isSimple() {
		return f.w.WriteSimpleHeader(string(h[0].Value.(String)))
	}
	if err := f.w.WriteStartHeader(); err != nil {
		return err
	}
	if err := f.members(h); err != nil {
		return err
	}
	return f.w.WriteEndHeader()
}

func (f formatter) members(ms []*Member) error {
	for _, m := range ms {
		if err := f.w.WriteName(m.Key); err != nil {
			return err
		}
		if err := f.value(m.Value); err != nil {
			return err
		}
	}
	return nil
}

func (f formatter) objectStyle(o Object) dson.Style {
	if f.style == dson.Flow || len(o.Members) == 0 {
		return dson.Flow
	}
	return dson.Indent
}

func (f formatter) arrayStyle(a Array) dson.Style {
	if f.style == dson.Flow {
		return dson.Flow
	}
	for _, v := range a.Values {
		switch t := v.(type) {
		case Object:
			if t.Len() != 0 {
				return dson.Indent
			}
		case Array:
			if t.Len() != 0 {
				return dson.Indent
			}
		}
	}
	return dson.Flow
}
