// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package query_test

import (
	"testing"

	"github.com/creachadair/dson/ast"
	"github.com/creachadair/dson/query"
	"github.com/creachadair/mds/mtest"
)

const testInput = `{@{clsName: Episodes, version: "3"}
  title: "Doctor Who",
  episodes: [@{compClsName: Episode}
    {number: 1, airDate: "2021-11-30", tags: [new, two-part]},
    {number: 2, airDate: "2021-12-07", tags: []},
    {number: 3, airDate: "2021-12-14", special: true, tags: [finale]}
  ],
  rating: null,
  blob: @bin 0102
}`

func TestQuery(t *testing.T) {
	val := mustParseOne(testInput)

	tests := []struct {
		name  string
		query query.Query
		want  string // compact Dson
	}{
		{"Root", query.Path(), val.Dson()},
		{"Seq", query.Seq{query.Key("episodes"), query.Index(0), query.Key("airDate")}, `2021-11-30`},
		{"Path", query.Path("episodes", -1, "number"), `3`},
		{"Each", query.Path("episodes", query.Each("number")), `[1, 2, 3]`},
		{"Slice", query.Path("episodes", query.Slice(1, 0), query.Each("number")), `[2, 3]`},
		{"SliceNeg", query.Path("episodes", query.Slice(0, -2), query.Each("number")), `[1]`},
		{"Pick", query.Path("episodes", query.Pick(2, 0), query.Each("number")), `[3, 1]`},
		{"Header", query.Header("version"), `"3"`},
		{"HeaderAlt", query.Path("episodes", query.Header("clsName", "compClsName")), `Episode`},
		{"WholeHeader", query.Path("episodes", query.Header()), `@{compClsName: Episode}`},
		{"Len", query.Path("episodes", query.Len()), `3`},
		{"LenString", query.Path("title", query.Len()), `10`},
		{"LenBinary", query.Path("blob", query.Len()), `2`},
		{"LenNull", query.Path("rating", query.Len()), `0`},
		{"LenHeader", query.Seq{query.Header(), query.Len()}, `2`},
		{"Recur", query.Recur("tags", 0), `[new, finale]`},
		{"Glob", query.Path("episodes", 0, query.Glob()), `[1, 2021-11-30, [new, two-part]]`},
		{"Alt", query.Alt{query.Key("nonesuch"), query.Key("title")}, `"Doctor Who"`},
		{"Select", query.Path("episodes", query.Exists("special"), query.Each("number")), `[3]`},
		{"Filter", query.Path("episodes", query.Each("tags"),
			query.Filter(func(a ast.Array) bool { return a.Len() > 0 })), `[[new, two-part], [finale]]`},
		{"IsNot", query.Path("episodes", 0, query.Glob(), query.IsNot[ast.Array]()), `[1, 2021-11-30]`},
		{"HasClass", query.Seq{query.Array{query.Path()}, query.HasClass("Episodes"), query.Each(query.Header("version"))}, `["3"]`},
		{"Map", query.Path("episodes", query.Each("number"), query.Map(func(z ast.Int32) ast.Int32 { return z * 10 })),
			`[10, 20, 30]`},
		{"Array", query.Array{query.Path("title"), query.Int(5), query.Bool(true), query.Null(), query.Double(0.5)},
			`["Doctor Who", 5, true, null, 0.5]`},
		{"Object", query.Object{"z": query.String("last"), "a": query.Path("episodes", 1, "number")},
			`{a: 2, z: last}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := query.Eval(val, tc.query)
			if err != nil {
				t.Fatalf("Eval failed: %v", err)
			}
			if got := v.Dson(); got != tc.want {
				t.Errorf("Result: got %#q, want %#q", got, tc.want)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	val := mustParseOne(testInput)

	tests := []struct {
		name  string
		query query.Query
	}{
		{"KeyNotFound", query.Key("nonesuch")},
		{"KeyOnArray", query.Path("episodes", "x")},
		{"IndexOnObject", query.Index(0)},
		{"IndexRange", query.Path("episodes", 3)},
		{"SliceRange", query.Path("episodes", query.Slice(5, 0))},
		{"SliceOrder", query.Path("episodes", query.Slice(2, 1))},
		{"PickRange", query.Path("episodes", query.Pick(0, 9))},
		{"NoHeader", query.Path("title", query.Header())},
		{"MissingHeader", query.Path("episodes", 0, query.Header())},
		{"HeaderKey", query.Header("nonesuch")},
		{"LenBool", query.Path("episodes", 2, "special", query.Len())},
		{"EachFails", query.Path("episodes", query.Each("special"))},
		{"NoAlternatives", query.Alt{}},
		{"NoRecurMatch", query.Recur("nonesuch")},
		{"GlobScalar", query.Path("title", query.Glob())},
		{"ObjectFails", query.Object{"x": query.Key("nonesuch")}},
		{"ArrayFails", query.Array{query.Key("nonesuch")}},
		{"SelectObject", query.Exists("x")},
		{"MapObject", query.Map(func(v ast.String) ast.String { return v })},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if v, err := query.Eval(val, tc.query); err == nil {
				t.Errorf("Eval: got %v, want error", v.Dson())
			}
		})
	}
}

func TestPathPanic(t *testing.T) {
	mtest.MustPanic(t, func() { query.Path(1.5) })
}
