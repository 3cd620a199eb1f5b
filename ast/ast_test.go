// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package ast_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/creachadair/dson"
	"github.com/creachadair/dson/ast"
	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDson(t *testing.T) {
	tests := []struct {
		input ast.Value
		want  string
	}{
		{ast.Null, "null"},

		{ast.Bool(false), "false"},
		{ast.Bool(true), "true"},

		{ast.String(""), `""`},
		{ast.String("a \t b"), `"a \t b"`},
		{ast.String("plain"), `plain`},
		{ast.String("17"), `"17"`},

		{ast.Double(-0.00239), `-0.00239`},
		{ast.Double(3), `3.0`},
		{ast.Float(0.5), `@f 0.5`},
		{ast.Double(math.Inf(-1)), `@d -Infinity`},

		{ast.Int32(0), `0`},
		{ast.Int32(-25), `-25`},
		{ast.Int64(15), `@L 15`},
		{ast.Int64(1 << 40), `1099511627776`},

		{ast.Binary{0xde, 0xad}, `@bin dead`},
		{ast.Pointer{LocalID: "x"}, `@ptr x`},
		{ast.LitePointer{LocalID: 4, Type: 1}, `@lptr {localId: 4, type: 1}`},
		{ast.Timestamp{Seconds: 9}, `@ts 9`},
		{ast.DateTime{Seconds: 86400, Enables: dson.MaskDate}, `@dt {date: 1970-01-02}`},
		{ast.DateTime{}, `<invalid: datetime has neither date nor time>`},

		{ast.Array{}, `[]`},
		{ast.Array{Values: []ast.Value{ast.Bool(false)}}, `[false]`},
		{ast.Array{Values: []ast.Value{
			ast.Bool(true),
			ast.Int32(199),
		}}, `[true, 199]`},
		{ast.Array{Values: []ast.Value{
			ast.String("free"),
			ast.String("your"),
			ast.String("mind"),
		}}, `[free, your, mind]`},
		{ast.Array{
			Header: ast.Header{ast.Field(dson.ComponentClassKey, ast.String("L"))},
			Values: []ast.Value{ast.Int64(1), ast.Int64(2)},
		}, `[@{compClsName: L} 1, 2]`},

		{ast.Object{}, `{}`},
		{ast.Object{Members: []*ast.Member{
			ast.Field("xs", ast.Null),
		}}, `{xs: null}`},
		{ast.Object{Members: []*ast.Member{
			ast.Field("name", ast.String("Dennis")),
			ast.Field("age", ast.Int32(37)),
			ast.Field("is old", ast.Bool(false)),
		}}, `{name: Dennis, age: 37, "is old": false}`},
		{ast.Object{
			Header: ast.Header{ast.Field(dson.ClassNameKey, ast.String("Page"))},
			Members: []*ast.Member{
				ast.Field("values", ast.Array{Values: []ast.Value{ast.Int32(5), ast.Bool(true)}}),
				ast.Field("page", ast.Object{Members: []*ast.Member{
					ast.Field("token", ast.String("xyz-pdq-zvm")),
				}}),
			},
		}, `{@{Page} values: [5, true], page: {token: xyz-pdq-zvm}}`},

		{ast.Header{ast.Field("a", ast.Int32(1))}, `@{a: 1}`},
		{ast.Field("k", ast.String("v")), `{k: v}`},
	}
	for _, test := range tests {
		got := test.input.Dson()
		if got != test.want {
			t.Errorf("Input: %+v\nGot:  %s\nWant: %s", test.input, got, test.want)
		}
	}
}

func TestFormat(t *testing.T) {
	const want = `@{Catalog}
{
  title: "Spring list", count: 3, big: 4294967296, ratio: @f 0.5, items: [@{compClsName: s} apple, pear], grid: [
    [1, 2], [3]
  ], owner: {@{clsName: Person, localId: p1}
    name: Ann, ok: true, none: null
  }, ref: @ptr p1, seen: @ts 1500ms, day: @dt {date: 2024-03-01}, blob: @bin 00ff
}
`
	got, err := ast.FormatToString(nil, testValues...)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format (-want, +got):\n%s", diff)
	}
}

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		v    ast.Value
	}{
		{"NilMember", ast.Object{Members: []*ast.Member{ast.Field("a", nil)}}},
		{"NestedHeader", ast.Array{Values: []ast.Value{ast.Header{}}}},
		{"BadTimestamp", ast.Timestamp{Nanos: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf strings.Builder
			if err := ast.Format(&buf, nil, tc.v); err == nil {
				t.Errorf("Format: got %q, want error", buf.String())
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	opts := []*dson.WriterOptions{
		nil,
		{ASCIIOnly: true, IndentWidth: 4},
		{SoftLineLength: 10, TextStringLength: 5},
		{DisableText: true, MaxLengthOfUnquoteString: 1},
	}
	vs := append(testValues, ast.Array{Values: []ast.Value{
		ast.String("caf\u00e9\nline two\n\ttabbed"),
		ast.Double(math.Inf(1)),
		ast.Float(-1.25),
		ast.LitePointer{LocalID: -3, Namespace: "ns", Policy: 2},
		ast.DateTime{Seconds: 3723, Nanos: 4000, Offset: 3600, Enables: dson.MaskDateTime | dson.MaskOffset},
		ast.Timestamp{Seconds: -1, Nanos: 1},
		ast.Binary{},
		ast.Object{Header: ast.Header{}},
	}})
	for _, o := range opts {
		text, err := ast.FormatToString(o, vs...)
		if err != nil {
			t.Fatalf("Format %+v: %v", o, err)
		}
		got, err := ast.Parse(strings.NewReader(text), nil)
		if err != nil {
			t.Fatalf("Parse %+v: %v\nText:\n%s", o, err, text)
		}
		if diff := cmp.Diff(vs, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Round trip %+v (-want, +got):\n%s\nText:\n%s", o, diff, text)
		}
	}
}

func TestToValue(t *testing.T) {
	type named int16
	var nilPtr *int
	tests := []struct {
		input any
		want  ast.Value
	}{
		{nil, ast.Null},
		{nilPtr, ast.Null},
		{true, ast.Bool(true)},
		{"s", ast.String("s")},
		{[]byte{1, 2}, ast.Binary{1, 2}},
		{25, ast.Int32(25)},
		{int64(1 << 40), ast.Int64(1 << 40)},
		{int32(-1), ast.Int32(-1)},
		{uint8(7), ast.Int32(7)},
		{named(9), ast.Int32(9)},
		{float32(0.5), ast.Float(0.5)},
		{2.5, ast.Double(2.5)},
		{time.Unix(5, 6), ast.Timestamp{Seconds: 5, Nanos: 6}},
		{dson.ObjectPtr{LocalID: "p"}, ast.Pointer{LocalID: "p"}},
		{dson.LitePtr{LocalID: 3}, ast.LitePointer{LocalID: 3}},
		{ast.String("v"), ast.String("v")},
		{[]any{true, nil, "x"}, ast.Array{Values: []ast.Value{ast.Bool(true), ast.Null, ast.String("x")}}},
		{map[string]any{"b": 1, "a": []int{2}}, ast.Object{Members: []*ast.Member{
			ast.Field("a", ast.Array{Values: []ast.Value{ast.Int32(2)}}),
			ast.Field("b", ast.Int32(1)),
		}}},
	}
	for _, tc := range tests {
		got := ast.ToValue(tc.input)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ToValue(%#v) (-want, +got):\n%s", tc.input, diff)
		}
	}

	mtest.MustPanic(t, func() { ast.ToValue(struct{}{}) })
	mtest.MustPanic(t, func() { ast.ToValue(map[int]string{1: "x"}) })
	mtest.MustPanic(t, func() { ast.ToValue(uint64(math.MaxUint64)) })
}

func TestSort(t *testing.T) {
	o := ast.Object{Members: []*ast.Member{
		ast.Field("c", ast.Int32(1)),
		ast.Field("a", ast.Int32(2)),
		ast.Field("b", ast.Int32(3)),
		ast.Field("a", ast.Int32(4)),
	}}
	o.Sort()
	var keys []string
	for _, m := range o.Members {
		keys = append(keys, m.Key+"="+m.Value.Dson())
	}
	if diff := cmp.Diff([]string{"a=2", "a=4", "b=3", "c=1"}, keys); diff != "" {
		t.Errorf("Sort (-want, +got):\n%s", diff)
	}
}
