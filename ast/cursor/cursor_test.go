// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package cursor_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/creachadair/dson/ast"
	"github.com/creachadair/dson/ast/cursor"
	"github.com/google/go-cmp/cmp"
)

const testInput = `{
  list: [@{compClsName: i}
    {x: 1},
    {x: 2}
  ],
  y: {@{clsName: Greeting, localId: g1} hello: there},
  o: [hi, yourself],
  xyz: {p: true, d: true, q: false}
}`

func TestCursor(t *testing.T) {
	v, err := ast.ParseSingle(strings.NewReader(testInput), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := v.(ast.Object)
	list := root.Find("list").Value.(ast.Array)
	y := root.Find("y").Value.(ast.Object)
	xyz := root.Find("xyz").Value.(ast.Object)

	tests := []struct {
		name string
		path []any
		want ast.Value
		fail bool
	}{
		{"NilInput", nil, v, false},
		{"NoMatch", []any{"nonesuch"}, v, true},
		{"WrongType", []any{11}, v, true},

		{"ArrayPos", []any{"list", 1}, list.Values[1], false},
		{"ArrayNeg", []any{"list", -1}, list.Values[1], false},
		{"ArrayRange", []any{"o", 25}, root.Find("o").Value, true},
		{"ObjPath", []any{"xyz", "d"}, xyz.Find("d"), false},
		{"ObjIndex", []any{"xyz", -1}, xyz.Members[2], false},
		{"MemberValue", []any{"xyz", "d", nil}, ast.Bool(true), false},

		{"Header", []any{"y", "@"}, y.Header, false},
		{"HeaderKey", []any{"y", "@localId"}, y.Header.Find("localId"), false},
		{"HeaderKeyNil", []any{"y", "@localId", nil}, ast.String("g1"), false},
		{"HeaderKeyValue", []any{"list", "@compClsName", testPathFunc}, ast.String("i"), false},
		{"HeaderIndex", []any{"y", "@", 0}, y.Header[0], false},
		{"HeaderName", []any{"y", "@", "clsName"}, y.Header[0], false},
		{"NoHeader", []any{"xyz", "@"}, xyz, true},
		{"NoHeaderKey", []any{"y", "@nonesuch"}, y, true},
		{"HeaderWrongType", []any{"o", 0, "@"}, ast.String("hi"), true},

		{"FuncArray", []any{"o", testPathFunc}, ast.ToValue(2), false},
		{"FuncObj", []any{"xyz", testPathFunc}, ast.ToValue(3), false},
		{"FuncWrong", []any{"xyz", "d", testPathFunc}, ast.Bool(true), true},
		{"BadElement", []any{1.5}, v, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := cursor.New(v).Down(tc.path...)
			err := c.Err()
			if err != nil {
				if tc.fail {
					t.Logf("Got expected error: %v", err)
				} else {
					t.Fatalf("Down %+v: unexpected error: %v", tc.path, err)
				}
			} else if tc.fail {
				t.Fatalf("Down %+v: got %v, want error", tc.path, c.Value())
			}
			got := c.Value()
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Down %+v: wrong result (-got, +want):\n%s", tc.path, diff)
			} else if err == nil {
				t.Logf("Found %s OK", got.Dson())
			}
		})
	}
}

func TestCursorNavigation(t *testing.T) {
	v, err := ast.ParseSingle(strings.NewReader(testInput), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c := cursor.New(v)
	if !c.AtOrigin() {
		t.Error("New cursor is not at its origin")
	}
	c.Down("list", 0, "x")
	if err := c.Err(); err != nil {
		t.Fatalf("Down: unexpected error: %v", err)
	}
	if got := len(c.Path()); got != 5 {
		t.Errorf("Path length: got %d, want 5", got)
	}
	if got := c.Up().Value().Dson(); got != "{x: 1}" {
		t.Errorf("Up: got %s, want {x: 1}", got)
	}
	c.Reset()
	if !c.AtOrigin() || c.Err() != nil {
		t.Errorf("Reset: at origin %v, error %v", c.AtOrigin(), c.Err())
	}
	if diff := cmp.Diff(c.Origin(), c.Value()); diff != "" {
		t.Errorf("Value after Reset (-origin, +value):\n%s", diff)
	}

	x, err := cursor.Path[ast.Int32](v, "list", 1, "x", nil)
	if err != nil {
		t.Fatalf("Path: unexpected error: %v", err)
	} else if x != 2 {
		t.Errorf("Path: got %v, want 2", x)
	}
	if s, err := cursor.Path[ast.String](v, "y", "@clsName", nil); err != nil {
		t.Errorf("Path: unexpected error: %v", err)
	} else if s != "Greeting" {
		t.Errorf("Path: got %q, want Greeting", s)
	}
	if _, err := cursor.Path[ast.String](v, "list", 1, "x", nil); err == nil {
		t.Error("Path with the wrong type: got nil, want error")
	}
}

func testPathFunc(v ast.Value) (ast.Value, error) {
	switch t := v.(type) {
	case ast.Array:
		return ast.ToValue(t.Len()), nil
	case ast.Object:
		return ast.ToValue(t.Len()), nil
	case ast.String:
		return t, nil
	default:
		return nil, errors.New("not a thing with length")
	}
}
