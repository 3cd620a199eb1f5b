// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run parses and executes args with the given standard input, and returns
// the standard output and standard error text.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(strings.NewReader(stdin), &stdout, &stderr)
	_, err := app.Parse(args)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFormat(t *testing.T) {
	const input = `{b: [1,2], a: x}`
	const want = "{\n  b: [1, 2], a: x\n}\n"

	t.Run("Stdin", func(t *testing.T) {
		out, _, err := run(t, input, "fmt")
		require.NoError(t, err)
		assert.Equal(t, want, out)
	})

	t.Run("DefaultCommand", func(t *testing.T) {
		out, _, err := run(t, input)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	})

	t.Run("Indent", func(t *testing.T) {
		out, _, err := run(t, input, "--indent", "4", "fmt")
		require.NoError(t, err)
		assert.Equal(t, "{\n    b: [1, 2], a: x\n}\n", out)
	})

	t.Run("Files", func(t *testing.T) {
		p1 := writeFile(t, "one.dson", "[1]")
		p2 := writeFile(t, "two.dson", "{}")
		out, _, err := run(t, "", "fmt", p1, p2)
		require.NoError(t, err)
		assert.Equal(t, "[1]\n{}\n", out)
	})

	t.Run("Rewrite", func(t *testing.T) {
		path := writeFile(t, "doc.dson", input)
		out, logs, err := run(t, "", "fmt", "-w", path)
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Contains(t, logs, `msg="rewrote file"`)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	})

	t.Run("DebugLog", func(t *testing.T) {
		_, logs, err := run(t, input, "--log.level", "debug", "fmt")
		require.NoError(t, err)
		assert.Contains(t, logs, "msg=formatted")
		assert.Contains(t, logs, "values=1")
	})

	t.Run("SyntaxError", func(t *testing.T) {
		_, _, err := run(t, "{a: [1, 2}", "fmt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing -")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, _, err := run(t, "", "fmt", filepath.Join(t.TempDir(), "nonesuch"))
		require.Error(t, err)
	})
}

func TestConfigFile(t *testing.T) {
	const input = `{b: [1,2], a: x}`

	t.Run("Valid", func(t *testing.T) {
		cfg := writeFile(t, "config.yaml", "writer:\n  indentWidth: 3\n")
		out, _, err := run(t, input, "--config.file", cfg, "fmt")
		require.NoError(t, err)
		assert.Equal(t, "{\n   b: [1, 2], a: x\n}\n", out)
	})

	t.Run("FlagOverrides", func(t *testing.T) {
		cfg := writeFile(t, "config.yaml", "writer:\n  indentWidth: 3\n")
		out, _, err := run(t, input, "--config.file", cfg, "--indent", "1", "fmt")
		require.NoError(t, err)
		assert.Equal(t, "{\n b: [1, 2], a: x\n}\n", out)
	})

	t.Run("Empty", func(t *testing.T) {
		cfg := writeFile(t, "config.yaml", "")
		_, _, err := run(t, input, "--config.file", cfg, "fmt")
		require.NoError(t, err)
	})

	t.Run("UnknownField", func(t *testing.T) {
		cfg := writeFile(t, "config.yaml", "writer:\n  bogus: 1\n")
		_, _, err := run(t, input, "--config.file", cfg, "fmt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to parse config file")
	})

	t.Run("BadLocalIDType", func(t *testing.T) {
		cfg := writeFile(t, "config.yaml", "reader:\n  localIdType: float\n")
		_, _, err := run(t, input, "--config.file", cfg, "fmt")
		require.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, _, err := run(t, input, "--config.file", filepath.Join(t.TempDir(), "nonesuch"), "fmt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to read config file")
	})
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "good.dson", "@{Doc}\n{a: 1, b: [true, null]}")
	bad := writeFile(t, "bad.dson", "{a: [1, 2}")

	out, logs, err := run(t, "", "check", good)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, logs, "msg=valid")
	assert.Contains(t, logs, "objects=1 arrays=1 headers=1 values=4")

	out, _, err = run(t, "", "check", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found errors in 1 of 2 files")
	assert.True(t, strings.HasPrefix(out, bad+": "), "output: %q", out)
}

func TestFromJSON(t *testing.T) {
	out, _, err := run(t, `{"n": 1, "s": "hi", /* note */ "list": [true,],}`, "from-json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  n: 1, s: hi, list: [true]\n}\n", out)

	_, _, err = run(t, `{"n": }`, "from-json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON")
}

func TestToJSON(t *testing.T) {
	path := writeFile(t, "doc.dson", `{@{Doc} n: 1, list: [a, @f 0.5], when: "2000-01-02T03:04:05"}`)
	out, _, err := run(t, "", "to-json", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
  "@": {"clsName": "Doc"},
  "n": 1,
  "list": ["a", 0.5],
  "when": "2000-01-02T03:04:05"
}`, out)

	_, _, err = run(t, "[1", "to-json")
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	const input = `{@{Doc} items: [a, {name: b}], count: 2}`
	tests := []struct {
		path string
		want string
	}{
		{"items/1/name", "b"},
		{"/count/", "2"},
		{"items/-1", "{\n  name: b\n}"},
		{"@clsName", "Doc"},
	}
	for _, tc := range tests {
		out, _, err := run(t, input, "get", tc.path)
		require.NoError(t, err, "path %q", tc.path)
		assert.Equal(t, tc.want, strings.TrimSpace(out), "path %q", tc.path)
	}

	_, _, err := run(t, input, "get", "items/5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `path "items/5"`)

	_, _, err = run(t, "1 2", "get", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input has 2 values")
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, []any{"a", 0, "@", "@b", -1}, parsePath("a/0/@/@b/-1"))
	assert.Empty(t, parsePath("/"))
}

func TestQuery(t *testing.T) {
	const input = `{@{Shelf} books: [{title: Dune, year: 1965}, {title: Emma, year: 1815}]}
[{title: Kim}]`

	out, _, err := run(t, input, "query", "$.books[*].title")
	require.NoError(t, err)
	assert.Equal(t, "[Dune, Emma]\n", out)

	out, _, err = run(t, input, "query", "$..title")
	require.NoError(t, err)
	assert.Equal(t, "[Dune, Emma]\n[Kim]\n", out)

	out, _, err = run(t, input, "query", "$.@clsName")
	require.NoError(t, err)
	assert.Equal(t, "Shelf\n", out)

	_, _, err = run(t, input, "query", "$.nonesuch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no values match")

	_, _, err = run(t, input, "query", "books")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid expression")

	_, _, err = run(t, input, "query", "$.books[?(@.year)]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling")
}
