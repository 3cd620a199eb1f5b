// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package ast defines an abstract syntax tree for Dson values, and a parser
// that constructs syntax trees from Dson source.
package ast

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/creachadair/dson"
)

// A Value is an arbitrary Dson value.
type Value interface {
	// DsonType reports the type of the value.
	DsonType() dson.DsonType

	// Dson returns the text of the value in compact form.
	Dson() string
}

// An Object is a collection of key-value members with an optional header.
type Object struct {
	Header  Header
	Members []*Member
}

// DsonType satisfies the Value interface.
func (Object) DsonType() dson.DsonType { return dson.Object }

// Dson satisfies the Value interface.
func (o Object) Dson() string { return compact(o) }

// Len reports the number of members in o.
func (o Object) Len() int { return len(o.Members) }

// Find returns the first member of o with the given key, or nil.
func (o Object) Find(key string) *Member { return findMember(o.Members, key) }

// IndexKey returns the index of the first member of o with the given key,
// or -1.
func (o Object) IndexKey(key string) int { return indexMember(o.Members, key) }

// Sort sorts the members of o in order by key. Members with equal keys keep
// their relative order.
func (o Object) Sort() {
	slices.SortStableFunc(o.Members, func(a, b *Member) int { return strings.Compare(a.Key, b.Key) })
}

// An Array is a sequence of values with an optional header.
type Array struct {
	Header Header
	Values []Value
}

// DsonType satisfies the Value interface.
func (Array) DsonType() dson.DsonType { return dson.Array }

// Dson satisfies the Value interface.
func (a Array) Dson() string { return compact(a) }

// Len reports the number of values in a.
func (a Array) Len() int { return len(a.Values) }

// A Header is the metadata attached to an object or an array, or standing at
// the top level of the input. A nil Header is absent.
type Header []*Member

// DsonType satisfies the Value interface.
func (Header) DsonType() dson.DsonType { return dson.Header }

// Dson satisfies the Value interface.
func (h Header) Dson() string { return compact(h) }

// Len reports the number of members in h.
func (h Header) Len() int { return len(h) }

// Find returns the first member of h with the given key, or nil.
func (h Header) Find(key string) *Member { return findMember(h, key) }

// ClassName returns the class name recorded by h, or "".
func (h Header) ClassName() string { return h.stringField(dson.ClassNameKey) }

// ComponentClass returns the component class recorded by h, or "".
func (h Header) ComponentClass() string { return h.stringField(dson.ComponentClassKey) }

func (h Header) stringField(key string) string {
	if m := h.Find(key); m != nil {
		if s, ok := m.Value.(String); ok {
			return string(s)
		}
	}
	return ""
}

// isSimple reports whether h can be written as @{Name}.
func (h Header) isSimple() bool {
	if len(h) != 1 || h[0].Key != dson.ClassNameKey {
		return false
	}
	_, ok := h[0].Value.(String)
	return ok
}

// A Member is a single key-value pair belonging to an Object or a Header.
type Member struct {
	Key   string
	Value Value
}

// Field constructs an object member with the given key and value.
func Field(key string, val Value) *Member { return &Member{Key: key, Value: val} }

// DsonType reports the type of the value of m.
func (m *Member) DsonType() dson.DsonType { return m.Value.DsonType() }

// Dson renders m as a single-member object.
func (m *Member) Dson() string { return compact(Object{Members: []*Member{m}}) }

func findMember(ms []*Member, key string) *Member {
	if i := indexMember(ms, key); i >= 0 {
		return ms[i]
	}
	return nil
}

func indexMember(ms []*Member, key string) int {
	return slices.IndexFunc(ms, func(m *Member) bool { return m.Key == key })
}

// An Int32 is a 32-bit integer value.
type Int32 int32

// An Int64 is a 64-bit integer value.
type Int64 int64

// A Float is a 32-bit floating-point value.
type Float float32

// A Double is a 64-bit floating-point value.
type Double float64

// A Bool is a Boolean constant, true or false.
type Bool bool

// A String is a string value.
type String string

// A Binary is a binary data value.
type Binary []byte

// A Pointer is a reference to an object by identifier.
type Pointer dson.ObjectPtr

// A LitePointer is a reference to an object by numeric identifier.
type LitePointer dson.LitePtr

// A DateTime is a calendar date and time of day.
type DateTime dson.DateTime

// A Timestamp is an instant measured from the Unix epoch.
type Timestamp dson.Timestamp

type nullValue struct{}

// Null represents the null constant.
var Null Value = nullValue{}

func (Int32) DsonType() dson.DsonType       { return dson.Int32 }
func (Int64) DsonType() dson.DsonType       { return dson.Int64 }
func (Float) DsonType() dson.DsonType       { return dson.Float }
func (Double) DsonType() dson.DsonType      { return dson.Double }
func (Bool) DsonType() dson.DsonType        { return dson.Boolean }
func (String) DsonType() dson.DsonType      { return dson.String }
func (Binary) DsonType() dson.DsonType      { return dson.Binary }
func (Pointer) DsonType() dson.DsonType     { return dson.Pointer }
func (LitePointer) DsonType() dson.DsonType { return dson.LitePointer }
func (DateTime) DsonType() dson.DsonType    { return dson.DateTimeType }
func (Timestamp) DsonType() dson.DsonType   { return dson.TimestampType }
func (nullValue) DsonType() dson.DsonType   { return dson.Null }

func (v Int32) Dson() string       { return compact(v) }
func (v Int64) Dson() string       { return compact(v) }
func (v Float) Dson() string       { return compact(v) }
func (v Double) Dson() string      { return compact(v) }
func (v Bool) Dson() string        { return compact(v) }
func (v String) Dson() string      { return compact(v) }
func (v Binary) Dson() string      { return compact(v) }
func (v Pointer) Dson() string     { return compact(v) }
func (v LitePointer) Dson() string { return compact(v) }
func (v DateTime) Dson() string    { return compact(v) }
func (v Timestamp) Dson() string   { return compact(v) }
func (v nullValue) Dson() string   { return "null" }

// Time returns the time.Time corresponding to v.
func (v DateTime) Time() time.Time { return dson.DateTime(v).Time() }

// Time returns the time.Time corresponding to v, in UTC.
func (v Timestamp) Time() time.Time { return dson.Timestamp(v).Time() }

// ToValue converts a Go value into an equivalent Value. It panics if v does
// not have a Dson equivalent.
//
// Integers are converted to Int32 if they fit, otherwise Int64. Slices and
// arrays become Array values, maps with string keys become Object values with
// members sorted by key, and a time.Time becomes a Timestamp. A nil value or
// pointer converts to Null.
func ToValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case []byte:
		return Binary(t)
	case int:
		return intValue(int64(t))
	case int32:
		return Int32(t)
	case int64:
		return intValue(t)
	case float32:
		return Float(t)
	case float64:
		return Double(t)
	case time.Time:
		return Timestamp(dson.TimestampOf(t))
	case dson.ObjectPtr:
		return Pointer(t)
	case dson.LitePtr:
		return LitePointer(t)
	case dson.DateTime:
		return DateTime(t)
	case dson.Timestamp:
		return Timestamp(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return ToValue(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return intValue(int64(u))
		}
	case reflect.Float32, reflect.Float64:
		return Double(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice, reflect.Array:
		arr := Array{Values: make([]Value, rv.Len())}
		for i := range rv.Len() {
			arr.Values[i] = ToValue(rv.Index(i).Interface())
		}
		return arr
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		obj := Object{Members: make([]*Member, 0, rv.Len())}
		for it := rv.MapRange(); it.Next(); {
			obj.Members = append(obj.Members, Field(it.Key().String(), ToValue(it.Value().Interface())))
		}
		obj.Sort()
		return obj
	}
	panic(fmt.Sprintf("ast: cannot convert %T to a value", v))
}

func intValue(v int64) Value {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return Int32(v)
	}
	return Int64(v)
}
