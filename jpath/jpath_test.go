// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package jpath_test

import (
	"strings"
	"testing"

	"github.com/creachadair/dson/ast"
	"github.com/creachadair/dson/jpath"
	"github.com/creachadair/dson/query"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
	}{
		{"$.store.book[*]..author"},
		{"$..author"},
		{"$.store.*"},
		{"$.store..price"},
		{"$..book[2]"},
		{"$..book[-1:]"},
		{"$..book[0,1]"},
		{"$..book[:2]"},
		{"$..*"},
		{"$['apple sauce'].pearPlum..'cherry apple'"},
		{"$[a][1:3][b]['c d e']"},
		{"$.store.@clsName"},
		{"$..@"},
		{"$.list[@][@compClsName]"},
	}
	for _, test := range tests {
		e, err := jpath.Parse(test.input)
		if err != nil {
			t.Errorf("Parse %q: %v", test.input, err)
			continue
		}

		want := test.input
		if got := e.String(); got != want {
			t.Errorf("Parse %q:\n got %q\nwant %q", test.input, got, want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"store.book",
		"$.",
		"$[1",
		"$[?(@.x]",
		"$..book[?(@.isbn)]",
		"$..book[(@.length-1)]",
		"$..",
		"$[:]",
	}
	for _, input := range tests {
		if e, err := jpath.Parse(input); err == nil {
			t.Errorf("Parse %q: got %v, want error", input, e)
		}
	}
}

const storeInput = `{
  store: {@{Store}
    book: [
      {category: reference, author: "Nigel Rees", title: Sayings, price: 8.95},
      {category: fiction, author: "Evelyn Waugh", title: Sword, price: 12.99},
      {category: fiction, author: "Herman Melville", title: Moby, isbn: "0-553", price: 8.99}
    ],
    bicycle: {@{Bike} color: red, price: 19.95}
  }
}`

func TestQuery(t *testing.T) {
	root, err := ast.ParseSingle(strings.NewReader(storeInput), nil)
	if err != nil {
		t.Fatalf("Parse input: %v", err)
	}

	tests := []struct {
		expr string
		want string // compact Dson
	}{
		{"$", root.Dson()},
		{"$.store.book[1].title", `Sword`},
		{"$.store.book[-1].author", `"Herman Melville"`},
		{"$['store']['bicycle'].color", `red`},
		{"$.store.book[*].author", `["Nigel Rees", "Evelyn Waugh", "Herman Melville"]`},
		{"$..author", `["Nigel Rees", "Evelyn Waugh", "Herman Melville"]`},
		{"$.store..price", `[8.95, 12.99, 8.99, 19.95]`},
		{"$..book[2].title", `[Moby]`},
		{"$.store.book[1:][*].title", `[Sword, Moby]`},
		{"$.store.book[0,2][*].price", `[8.95, 8.99]`},
		{"$.store.@clsName", `Store`},
		{"$.store.bicycle[@]", `@{Bike}`},
		{"$..@clsName", `[Store, Bike]`},
	}
	for _, tc := range tests {
		e, err := jpath.Parse(tc.expr)
		if err != nil {
			t.Errorf("Parse %q: %v", tc.expr, err)
			continue
		}
		q, err := e.Query()
		if err != nil {
			t.Errorf("Query %q: %v", tc.expr, err)
			continue
		}
		v, err := query.Eval(root, q)
		if err != nil {
			t.Errorf("Eval %q: %v", tc.expr, err)
			continue
		}
		if got := v.Dson(); got != tc.want {
			t.Errorf("Eval %q:\n got %#q\nwant %#q", tc.expr, got, tc.want)
		}
	}
}

func TestQueryErrors(t *testing.T) {
	root, err := ast.ParseSingle(strings.NewReader(storeInput), nil)
	if err != nil {
		t.Fatalf("Parse input: %v", err)
	}

	// Expressions that do not compile.
	for _, expr := range []string{"$.store.book[99999999999999999999]", "$..book[1:99999999999999999999]"} {
		e, err := jpath.Parse(expr)
		if err != nil {
			t.Fatalf("Parse %q: %v", expr, err)
		}
		if q, err := e.Query(); err == nil {
			t.Errorf("Query %q: got %v, want error", expr, q)
		}
	}

	// Expressions that compile but do not match.
	for _, expr := range []string{
		"$.nonesuch",
		"$.store.book[3]",
		"$.store.book[*].isbn",
		"$.store.book.@clsName",
		"$.store.book[@]",
		"$..nonesuch",
	} {
		e, err := jpath.Parse(expr)
		if err != nil {
			t.Fatalf("Parse %q: %v", expr, err)
		}
		q, err := e.Query()
		if err != nil {
			t.Fatalf("Query %q: %v", expr, err)
		}
		if v, err := query.Eval(root, q); err == nil {
			t.Errorf("Eval %q: got %v, want error", expr, v.Dson())
		}
	}
}
