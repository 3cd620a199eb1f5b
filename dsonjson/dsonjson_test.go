// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dsonjson_test

import (
	"math"
	"strings"
	"testing"

	"github.com/creachadair/dson"
	"github.com/creachadair/dson/ast"
	"github.com/creachadair/dson/dsonjson"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFromJSON(t *testing.T) {
	tests := []struct {
		input string
		want  ast.Value
	}{
		{`null`, ast.Null},
		{`true`, ast.Bool(true)},
		{`"a\tb"`, ast.String("a\tb")},
		{`15`, ast.Int32(15)},
		{`-2147483648`, ast.Int32(math.MinInt32)},
		{`2147483648`, ast.Int64(2147483648)},
		{`99999999999999999999`, ast.Double(1e20)},
		{`2.5`, ast.Double(2.5)},
		{`1e3`, ast.Double(1000)},
		{`[]`, ast.Array{}},
		{`{}`, ast.Object{}},
		{`[1, "two", [null],]`, ast.Array{Values: []ast.Value{
			ast.Int32(1), ast.String("two"), ast.Array{Values: []ast.Value{ast.Null}},
		}}},
		{`{
  // The name.
  "name": "widget",
  "size": {"w": 3, "h": 4.5}, /* trailing */
}`, ast.Object{Members: []*ast.Member{
			ast.Field("name", ast.String("widget")),
			ast.Field("size", ast.Object{Members: []*ast.Member{
				ast.Field("w", ast.Int32(3)),
				ast.Field("h", ast.Double(4.5)),
			}}),
		}}},
		{`{"@": {"clsName": "Doc", "version": 2}, "x": 1}`, ast.Object{
			Header: ast.Header{
				ast.Field("clsName", ast.String("Doc")),
				ast.Field("version", ast.Int32(2)),
			},
			Members: []*ast.Member{ast.Field("x", ast.Int32(1))},
		}},

		// Only a leading "@" member whose value is an object is a header.
		{`{"x": 1, "@": {}}`, ast.Object{Members: []*ast.Member{
			ast.Field("x", ast.Int32(1)),
			ast.Field("@", ast.Object{}),
		}}},
		{`{"@": "plain"}`, ast.Object{Members: []*ast.Member{
			ast.Field("@", ast.String("plain")),
		}}},
	}
	for _, tc := range tests {
		got, err := dsonjson.FromJSON([]byte(tc.input))
		if err != nil {
			t.Errorf("FromJSON(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("FromJSON(%q) (-want, +got):\n%s", tc.input, diff)
		}
	}
}

func TestFromJSONErrors(t *testing.T) {
	tests := []string{
		``,
		`{`,
		`[1 2]`,
		`{"a": }`,
		`{"@": {"nested": [1]}}`,
		`{"@": {"nested": {}}}`,
	}
	for _, input := range tests {
		got, err := dsonjson.FromJSON([]byte(input))
		if err == nil {
			t.Errorf("FromJSON(%q): got %v, want error", input, got)
		}
	}
}

func TestToJSON(t *testing.T) {
	doc := ast.Object{
		Header: ast.Header{ast.Field("clsName", ast.String("Doc"))},
		Members: []*ast.Member{
			ast.Field("n", ast.Int64(1<<40)),
			ast.Field("f", ast.Float(0.5)),
			ast.Field("d", ast.Double(3)),
			ast.Field("inf", ast.Double(math.Inf(1))),
			ast.Field("bin", ast.Binary("\x01\xab")),
			ast.Field("ptr", ast.Pointer{LocalID: "p1"}),
			ast.Field("lite", ast.LitePointer{LocalID: 7, Namespace: "ns", Type: 2}),
			ast.Field("when", ast.DateTime(dson.DateTime{Seconds: 86400, Enables: dson.MaskDate})),
			ast.Field("ts", ast.Timestamp(dson.Timestamp{Seconds: 3})),
			ast.Field("list", ast.Array{
				Header: ast.Header{ast.Field("clsName", ast.String("List"))},
				Values: []ast.Value{ast.Bool(false), ast.Null},
			}),
		},
	}
	out, err := dsonjson.ToJSON(doc)
	if err != nil {
		t.Fatalf("ToJSON: unexpected error: %v", err)
	}
	t.Logf("JSON output:\n%s", out)

	got, err := dsonjson.FromJSON(out)
	if err != nil {
		t.Fatalf("FromJSON: unexpected error: %v", err)
	}
	want := ast.Object{
		Header: ast.Header{ast.Field("clsName", ast.String("Doc"))},
		Members: []*ast.Member{
			ast.Field("n", ast.Int64(1<<40)),
			ast.Field("f", ast.Double(0.5)),
			ast.Field("d", ast.Double(3)),
			ast.Field("inf", ast.String("Infinity")),
			ast.Field("bin", ast.String("01ab")),
			ast.Field("ptr", ast.Object{Members: []*ast.Member{
				ast.Field("localId", ast.String("p1")),
			}}),
			ast.Field("lite", ast.Object{Members: []*ast.Member{
				ast.Field("localId", ast.Int32(7)),
				ast.Field("ns", ast.String("ns")),
				ast.Field("type", ast.Int32(2)),
			}}),
			ast.Field("when", ast.String("1970-01-02")),
			ast.Field("ts", ast.String("1970-01-01T00:00:03Z")),
			ast.Field("list", ast.Array{Values: []ast.Value{ast.Bool(false), ast.Null}}),
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Round trip (-want, +got):\n%s", diff)
	}
}

func TestToJSONScalar(t *testing.T) {
	tests := []struct {
		input ast.Value
		want  string
	}{
		{ast.Null, `null`},
		{ast.Int32(-5), `-5`},
		{ast.Double(2), `2.0`},
		{ast.String("a\"b"), `"a\"b"`},
	}
	for _, tc := range tests {
		out, err := dsonjson.ToJSON(tc.input)
		if err != nil {
			t.Errorf("ToJSON(%v): unexpected error: %v", tc.input, err)
			continue
		}
		if got := strings.TrimSpace(string(out)); got != tc.want {
			t.Errorf("ToJSON(%v): got %#q, want %#q", tc.input, got, tc.want)
		}
	}
}

func TestToJSONErrors(t *testing.T) {
	tests := []ast.Value{
		nil,
		ast.Array{Values: []ast.Value{nil}},
		ast.Object{Members: []*ast.Member{ast.Field("bad", ast.Timestamp(dson.Timestamp{Nanos: -1}))}},
		ast.DateTime(dson.DateTime{}),
	}
	for _, v := range tests {
		if out, err := dsonjson.ToJSON(v); err == nil {
			t.Errorf("ToJSON(%#v): got %q, want error", v, out)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	const input = `{
  "title": "round trip",
  "count": 12,
  "ratio": 0.25,
  "tags": ["a", "b"],
  "meta": {"ok": true, "none": null}
}`
	v, err := dsonjson.FromJSON([]byte(input))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	// Through Dson text and back.
	text, err := ast.FormatToString(nil, v)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	back, err := ast.ParseSingle(strings.NewReader(text), nil)
	if err != nil {
		t.Fatalf("Parse %q: %v", text, err)
	}
	if diff := cmp.Diff(v, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Dson round trip (-want, +got):\n%s", diff)
	}

	// Through JSON and back.
	out, err := dsonjson.ToJSON(back)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	again, err := dsonjson.FromJSON(out)
	if err != nil {
		t.Fatalf("FromJSON %q: %v", out, err)
	}
	if diff := cmp.Diff(v, again, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("JSON round trip (-want, +got):\n%s", diff)
	}
}
