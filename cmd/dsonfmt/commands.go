// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/creachadair/dson"
	"github.com/creachadair/dson/ast"
	"github.com/creachadair/dson/ast/cursor"
	"github.com/creachadair/dson/dsonjson"
	"github.com/creachadair/dson/jpath"
	"github.com/creachadair/dson/query"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// stdinName denotes standard input in a list of file arguments.
const stdinName = "-"

// Commands implements the dsonfmt subcommands.
type Commands struct {
	cfg  *Config
	logs *LoggerConfig
	in   io.Reader
	out  io.Writer

	files []string
	write bool
	path  string
	input string
}

// Register adds the subcommands to app. Input is read from in when no files
// are named, and output is written to out.
func (c *Commands) Register(app *kingpin.Application, cfg *Config, logs *LoggerConfig, in io.Reader, out io.Writer) {
	c.cfg, c.logs, c.in, c.out = cfg, logs, in, out

	fmtCmd := app.Command("fmt", "Reformat Dson files.").Default().Action(c.format)
	fmtCmd.Flag("write", "Rewrite files in place instead of printing them.").Short('w').BoolVar(&c.write)
	fmtCmd.Arg("files", "Files to format (default stdin).").StringsVar(&c.files)

	checkCmd := app.Command("check", "Report syntax errors in Dson files.").Action(c.check)
	checkCmd.Arg("files", "Files to check (default stdin).").StringsVar(&c.files)

	fromCmd := app.Command("from-json", "Convert JSON or JWCC to Dson.").Action(c.fromJSON)
	fromCmd.Arg("file", "File to convert (default stdin).").StringVar(&c.input)

	toCmd := app.Command("to-json", "Convert Dson to JSON.").Action(c.toJSON)
	toCmd.Arg("file", "File to convert (default stdin).").StringVar(&c.input)

	getCmd := app.Command("get", "Print the value at a path in a Dson value.").Action(c.get)
	getCmd.Arg("path", `Slash-separated path of keys, indices, "@" and "@key" header steps.`).
		Required().StringVar(&c.path)
	getCmd.Arg("file", "File to read (default stdin).").StringVar(&c.input)

	queryCmd := app.Command("query", "Evaluate a JSONPath expression against each Dson value.").Action(c.runQuery)
	queryCmd.Arg("expr", `JSONPath expression, such as "$.items[*].name" or "$..@clsName".`).
		Required().StringVar(&c.path)
	queryCmd.Arg("file", "File to read (default stdin).").StringVar(&c.input)
}

func (c *Commands) format(*kingpin.ParseContext) error {
	files := c.files
	if len(files) == 0 {
		files = []string{stdinName}
	}
	for _, name := range files {
		data, err := c.readInput(name)
		if err != nil {
			return err
		}
		vs, err := ast.Parse(bytes.NewReader(data), &c.cfg.Reader)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", name)
		}
		var buf bytes.Buffer
		if err := ast.Format(&buf, &c.cfg.Writer, vs...); err != nil {
			return errors.Wrapf(err, "formatting %s", name)
		}
		level.Debug(c.logs.Logger()).Log("msg", "formatted", "file", name, "values", len(vs),
			"in", humanize.Bytes(uint64(len(data))), "out", humanize.Bytes(uint64(buf.Len())))

		if !c.write || name == stdinName {
			if _, err := c.out.Write(buf.Bytes()); err != nil {
				return errors.Wrap(err, "writing output")
			}
			continue
		}
		if bytes.Equal(data, buf.Bytes()) {
			continue
		}
		fi, err := os.Stat(name)
		if err != nil {
			return errors.Wrap(err, "unable to stat file")
		}
		if err := os.WriteFile(name, buf.Bytes(), fi.Mode().Perm()); err != nil {
			return errors.Wrapf(err, "rewriting %s", name)
		}
		level.Info(c.logs.Logger()).Log("msg", "rewrote file", "file", name, "size", humanize.Bytes(uint64(buf.Len())))
	}
	return nil
}

func (c *Commands) check(*kingpin.ParseContext) error {
	files := c.files
	if len(files) == 0 {
		files = []string{stdinName}
	}
	var nbad int
	for _, name := range files {
		data, err := c.readInput(name)
		if err != nil {
			return err
		}
		var st stats
		s := dson.NewStream(bytes.NewReader(data), &c.cfg.Reader)
		err = s.Parse(&st)
		s.Close()
		if err != nil {
			nbad++
			fmt.Fprintf(c.out, "%s: %v\n", name, err)
			continue
		}
		level.Info(c.logs.Logger()).Log("msg", "valid", "file", name, "size", humanize.Bytes(uint64(len(data))),
			"objects", st.objects, "arrays", st.arrays, "headers", st.headers, "values", st.values)
	}
	if nbad != 0 {
		return errors.Errorf("found errors in %d of %d files", nbad, len(files))
	}
	return nil
}

func (c *Commands) fromJSON(*kingpin.ParseContext) error {
	data, err := c.readInput(c.inputName())
	if err != nil {
		return err
	}
	v, err := dsonjson.FromJSON(data)
	if err != nil {
		return errors.Wrap(err, "parsing JSON")
	}
	return errors.Wrap(ast.Format(c.out, &c.cfg.Writer, v), "writing output")
}

func (c *Commands) toJSON(*kingpin.ParseContext) error {
	vs, err := c.parseInput()
	if err != nil {
		return err
	}
	for _, v := range vs {
		out, err := dsonjson.ToJSON(v)
		if err != nil {
			return errors.Wrap(err, "converting to JSON")
		}
		if _, err := c.out.Write(out); err != nil {
			return errors.Wrap(err, "writing output")
		}
	}
	return nil
}

func (c *Commands) get(*kingpin.ParseContext) error {
	vs, err := c.parseInput()
	if err != nil {
		return err
	} else if len(vs) != 1 {
		return errors.Errorf("input has %d values, want 1", len(vs))
	}
	path := parsePath(c.path)
	v, err := cursor.Path[ast.Value](vs[0], append(path, nil)...)
	if err != nil {
		return errors.Wrapf(err, "path %q", c.path)
	}
	return errors.Wrap(ast.Format(c.out, &c.cfg.Writer, v), "writing output")
}

func (c *Commands) runQuery(*kingpin.ParseContext) error {
	expr, err := jpath.Parse(c.path)
	if err != nil {
		return errors.Wrapf(err, "invalid expression %q", c.path)
	}
	q, err := expr.Query()
	if err != nil {
		return errors.Wrapf(err, "compiling %q", c.path)
	}
	vs, err := c.parseInput()
	if err != nil {
		return err
	}
	var results []ast.Value
	for i, v := range vs {
		r, err := query.Eval(v, q)
		if err != nil {
			level.Debug(c.logs.Logger()).Log("msg", "no match", "value", i, "err", err)
			continue
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return errors.Errorf("no values match %q", c.path)
	}
	return errors.Wrap(ast.Format(c.out, &c.cfg.Writer, results...), "writing output")
}

func (c *Commands) inputName() string {
	if c.input == "" {
		return stdinName
	}
	return c.input
}

func (c *Commands) parseInput() ([]ast.Value, error) {
	name := c.inputName()
	data, err := c.readInput(name)
	if err != nil {
		return nil, err
	}
	vs, err := ast.Parse(bytes.NewReader(data), &c.cfg.Reader)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	return vs, nil
}

func (c *Commands) readInput(name string) ([]byte, error) {
	if name == stdinName {
		data, err := io.ReadAll(c.in)
		return data, errors.Wrap(err, "reading stdin")
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read input")
	}
	return data, nil
}

// parsePath splits a slash-separated path into cursor steps. Elements that
// parse as integers are indices, and all others are keys.
func parsePath(s string) []any {
	var out []any
	for elt := range strings.SplitSeq(strings.Trim(s, "/"), "/") {
		if elt == "" {
			continue
		} else if n, err := strconv.Atoi(elt); err == nil {
			out = append(out, n)
		} else {
			out = append(out, elt)
		}
	}
	return out
}

// stats is a dson.Handler that counts the elements of its input.
type stats struct {
	objects, arrays, headers, values int
}

func (s *stats) BeginObject(dson.LineCol) error { s.objects++; return nil }
func (s *stats) EndObject() error               { return nil }
func (s *stats) BeginArray(dson.LineCol) error  { s.arrays++; return nil }
func (s *stats) EndArray() error                { return nil }
func (s *stats) BeginHeader(dson.LineCol) error { s.headers++; return nil }
func (s *stats) EndHeader() error               { return nil }
func (s *stats) BeginMember(string) error       { return nil }
func (s *stats) EndMember() error               { return nil }
func (s *stats) Value(*dson.Datum) error        { s.values++; return nil }
func (s *stats) EndOfInput()                    {}
