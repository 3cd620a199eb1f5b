// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package dsonjson converts between Dson syntax trees and JSON.
//
// JSON input may use the JWCC extensions (comments and trailing commas). A
// JSON number without a fraction or exponent becomes an Int32 or Int64,
// according to its magnitude; other numbers become Double values.
//
// The header of an object is represented in JSON by a leading member whose key
// is HeaderKey and whose value is an object holding the header fields. JSON
// arrays have no place for metadata, so array headers are omitted from JSON
// output. Values with no JSON equivalent are rendered as strings (datetimes,
// timestamps, binary data as hex, and non-finite floats) or as objects
// (pointers).
package dsonjson

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/creachadair/dson"
	"github.com/creachadair/dson/ast"
	"github.com/creachadair/dson/internal/numlit"
	"github.com/tailscale/hujson"
)

// HeaderKey is the JSON object key that holds the header of a Dson object.
const HeaderKey = "@"

// FromJSON parses a JSON or JWCC value from data and converts it to a Dson
// syntax tree.
func FromJSON(data []byte) (ast.Value, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return nil, err
	}
	return fromValue(v.Value)
}

func fromValue(v hujson.ValueTrimmed) (ast.Value, error) {
	switch t := v.(type) {
	case *hujson.Object:
		var obj ast.Object
		for i, m := range t.Members {
			key := m.Name.Value.(hujson.Literal).String()
			if i == 0 && key == HeaderKey {
				if hobj, ok := m.Value.Value.(*hujson.Object); ok {
					hdr, err := fromHeader(hobj)
					if err != nil {
						return nil, err
					}
					obj.Header = hdr
					continue
				}
			}
			val, err := fromValue(m.Value.Value)
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", key, err)
			}
			obj.Members = append(obj.Members, ast.Field(key, val))
		}
		return obj, nil

	case *hujson.Array:
		var arr ast.Array
		for i, elt := range t.Elements {
			val, err := fromValue(elt.Value)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr.Values = append(arr.Values, val)
		}
		return arr, nil

	case hujson.Literal:
		return fromLiteral(t)
	}
	return nil, fmt.Errorf("unknown JSON value %T", v)
}

func fromHeader(obj *hujson.Object) (ast.Header, error) {
	hdr := ast.Header{}
	for _, m := range obj.Members {
		key := m.Name.Value.(hujson.Literal).String()
		val, err := fromValue(m.Value.Value)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", key, err)
		}
		switch val.(type) {
		case ast.Object, ast.Array:
			return nil, fmt.Errorf("header %q: containers are not allowed in a header", key)
		}
		hdr = append(hdr, ast.Field(key, val))
	}
	return hdr, nil
}

func fromLiteral(lit hujson.Literal) (ast.Value, error) {
	switch lit.Kind() {
	case 'n':
		return ast.Null, nil
	case 't', 'f':
		return ast.Bool(lit.Bool()), nil
	case '"':
		return ast.String(lit.String()), nil
	case '0':
		text := string(lit)
		if !strings.ContainsAny(text, ".eE") {
			if z, err := strconv.ParseInt(text, 10, 64); err == nil {
				return ast.ToValue(z), nil
			}
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", text, err)
		}
		return ast.Double(f), nil
	}
	return nil, fmt.Errorf("invalid literal %q", lit)
}

// ToJSON converts a Dson syntax tree to formatted JSON text.
func ToJSON(v ast.Value) ([]byte, error) {
	jv, err := toValue(v)
	if err != nil {
		return nil, err
	}
	out := hujson.Value{Value: jv}
	out.Format()
	return out.Pack(), nil
}

func toValue(v ast.Value) (hujson.ValueTrimmed, error) {
	switch t := v.(type) {
	case ast.Object:
		obj := new(hujson.Object)
		if t.Header != nil {
			hdr, err := toMembers(t.Header)
			if err != nil {
				return nil, err
			}
			obj.Members = append(obj.Members, member(HeaderKey, &hujson.Object{Members: hdr}))
		}
		mems, err := toMembers(t.Members)
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, mems...)
		return obj, nil

	case ast.Header:
		mems, err := toMembers(t)
		if err != nil {
			return nil, err
		}
		return &hujson.Object{Members: mems}, nil

	case ast.Array:
		arr := &hujson.Array{Elements: make([]hujson.ArrayElement, 0, len(t.Values))}
		for i, elt := range t.Values {
			jv, err := toValue(elt)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr.Elements = append(arr.Elements, hujson.ArrayElement{Value: jv})
		}
		return arr, nil

	case *ast.Member:
		return toValue(ast.Object{Members: []*ast.Member{t}})

	case ast.Int32:
		return hujson.Int(int64(t)), nil
	case ast.Int64:
		return hujson.Int(int64(t)), nil
	case ast.Float:
		return floatLiteral(float64(t), 32), nil
	case ast.Double:
		return floatLiteral(float64(t), 64), nil
	case ast.Bool:
		return hujson.Bool(bool(t)), nil
	case ast.String:
		return hujson.String(string(t)), nil
	case ast.Binary:
		return hujson.String(hex.EncodeToString(t)), nil
	case ast.Pointer:
		return pointerObject(t.LocalID, t.Namespace, t.Type, t.Policy), nil
	case ast.LitePointer:
		return pointerObject(t.LocalID, t.Namespace, t.Type, t.Policy), nil
	case ast.DateTime:
		if err := dson.DateTime(t).Validate(); err != nil {
			return nil, err
		}
		return hujson.String(dson.DateTime(t).String()), nil
	case ast.Timestamp:
		if err := dson.Timestamp(t).Validate(); err != nil {
			return nil, err
		}
		return hujson.String(dson.Timestamp(t).String()), nil
	case nil:
		return nil, fmt.Errorf("invalid nil value")
	}
	if v.DsonType() == dson.Null {
		return hujson.Literal("null"), nil
	}
	return nil, fmt.Errorf("unknown value type %T", v)
}

func toMembers(ms []*ast.Member) ([]hujson.ObjectMember, error) {
	out := make([]hujson.ObjectMember, 0, len(ms))
	for _, m := range ms {
		jv, err := toValue(m.Value)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m.Key, err)
		}
		out = append(out, member(m.Key, jv))
	}
	return out, nil
}

func member(key string, v hujson.ValueTrimmed) hujson.ObjectMember {
	return hujson.ObjectMember{
		Name:  hujson.Value{Value: hujson.String(key)},
		Value: hujson.Value{Value: v},
	}
}

// floatLiteral renders a finite float as a JSON number, and a non-finite
// float as a string in Dson notation. A finite value always carries a point
// or an exponent, so it reads back as a Double.
func floatLiteral(f float64, bits int) hujson.Literal {
	s := numlit.FormatFloat(f, bits)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return hujson.String(s)
	}
	return hujson.Literal(s)
}

func pointerObject[T string | int64](id T, ns string, typ, policy int32) *hujson.Object {
	var idv hujson.Literal
	switch t := any(id).(type) {
	case string:
		idv = hujson.String(t)
	case int64:
		idv = hujson.Int(t)
	}
	obj := &hujson.Object{Members: []hujson.ObjectMember{member("localId", idv)}}
	if ns != "" {
		obj.Members = append(obj.Members, member("ns", hujson.String(ns)))
	}
	if typ != 0 {
		obj.Members = append(obj.Members, member("type", hujson.Int(int64(typ))))
	}
	if policy != 0 {
		obj.Members = append(obj.Members, member("policy", hujson.Int(int64(policy))))
	}
	return obj
}
