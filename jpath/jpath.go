// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package jpath implements a minimal JSONPath expression parser for Dson
// values, and compiles parsed expressions into structural queries.
package jpath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/creachadair/dson/query"
)

/*
Grammar:

  expr = root steps
  root = "$"
 steps = step [steps]
  step = "." name
  step = ".." name
  step = "[" value "]"
  step = "[" slice "]"
  name = WORD
  name = "'" QTEXT "'"
  name = "*"
  name = "@" [WORD]
 value = name
 value = INDEX
 slice = INDEX ":" INDEX

  WORD = RE `\w+`
 QTEXT = RE `([^']|\\')*`
 INDEX = RE `-?\d+`

A name beginning with "@" selects the header of an object or array ("@") or a
field of that header ("@clsName").

Source:
  https://www.ietf.org/archive/id/draft-goessner-dispatch-jsonpath-00.html
*/

// An Expr is a parsed JSONPath expression.
type Expr []Step

// Parse parses s as a JSONPath expression.
func Parse(s string) (Expr, error) {
	st, _, err := parseExpr(s)
	if err != nil {
		return Expr{}, err
	}
	return st, nil
}

func (e Expr) String() string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, s := range e {
		switch s.Op {
		case Member, Recur:
			if s.Arg2 == "qname" {
				fmt.Fprintf(&buf, "%s'%s'", s.Op, s.Arg1)
			} else {
				fmt.Fprint(&buf, s.Op, s.Arg1)
			}

		case Slice:
			fmt.Fprintf(&buf, "[%s:%s]", s.Arg1, s.Arg2)

		default:
			if s.Op == QName {
				fmt.Fprintf(&buf, "['%s']", s.Arg1)
			} else {
				fmt.Fprintf(&buf, "[%s]", s.Arg1)
			}
		}
	}
	return buf.String()
}

// Query compiles e into a query. A step following a recursive descent applies
// to each match of the descent, and a step following a wildcard applies to
// each of the wildcard values.
func (e Expr) Query() (query.Query, error) {
	if len(e) == 0 {
		return query.Seq{}, nil
	}
	first, err := e[0].query()
	if err != nil {
		return nil, err
	}
	rest, err := e[1:].Query()
	if err != nil {
		return nil, err
	}
	switch {
	case e[0].Op == Recur:
		return query.Recur(first, rest), nil
	case e[0].isWildcard() && len(e) > 1:
		return query.Seq{first, query.Each(rest)}, nil
	}
	return query.Path(first, rest), nil
}

func (s Step) isWildcard() bool { return s.Op == Wildcard || s.Arg2 == Wildcard.String() }

// query returns the query for s alone.
func (s Step) query() (query.Query, error) {
	switch s.Op {
	case Member, Recur, Name, QName, Wildcard, Header:
		kind := s.Op
		if s.Op == Member || s.Op == Recur {
			kind = opKind[s.Arg2]
		}
		switch kind {
		case Wildcard:
			return query.Glob(), nil
		case Header:
			if key := strings.TrimPrefix(s.Arg1, "@"); key != "" {
				return query.Header(key), nil
			}
			return query.Header(), nil
		}
		return query.Key(s.Arg1), nil

	case Index:
		var offs []int
		for t := range strings.SplitSeq(s.Arg1, ",") {
			z, err := strconv.Atoi(t)
			if err != nil {
				return nil, fmt.Errorf("invalid index %q: %w", t, err)
			}
			offs = append(offs, z)
		}
		if len(offs) == 1 {
			return query.Index(offs[0]), nil
		}
		return query.Pick(offs...), nil

	case Slice:
		lo, err := sliceBound(s.Arg1)
		if err != nil {
			return nil, err
		}
		hi, err := sliceBound(s.Arg2)
		if err != nil {
			return nil, err
		}
		return query.Slice(lo, hi), nil
	}
	return nil, fmt.Errorf("unsupported step %v", s.Op)
}

func sliceBound(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	z, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid slice bound %q: %w", s, err)
	}
	return z, nil
}

func parseExpr(s string) ([]Step, string, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, s, errors.New("missing root marker")
	}
	return parseSteps(t)
}

func parseSteps(s string) (steps []Step, rest string, _ error) {
	for s != "" {
		step, rest, err := parseStep(s)
		if err != nil {
			return nil, s, err
		}
		steps = append(steps, step)
		s = rest
	}
	return steps, s, nil
}

func parseStep(s string) (_ Step, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, ".."); ok {
		kind, name, u, err := parseName(t)
		if err != nil {
			return Step{}, s, fmt.Errorf("invalid ..name: %w", err)
		}
		return Step{Op: Recur, Arg1: name, Arg2: kind.String()}, u, nil
	}
	if t, ok := strings.CutPrefix(s, "."); ok {
		kind, name, u, err := parseName(t)
		if err != nil {
			return Step{}, s, fmt.Errorf("invalid .name: %w", err)
		}
		return Step{Op: Member, Arg1: name, Arg2: kind.String()}, u, nil
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		kind, val, u, err := parseValue(t)
		if err != nil {
			return Step{}, t, err
		}
		out := Step{Op: kind, Arg1: val}
		if out.Op == Slice {
			arg2, rest, err := parseIndex(u)
			if err == nil {
				out.Arg2 = arg2
				u = rest
			} else if out.Arg1 == "" {
				return Step{}, u, errors.New("invalid slice")
			}
		}
		u, ok := strings.CutPrefix(u, "]")
		if !ok {
			return Step{}, u, errors.New("missing close bracket")
		}
		return out, u, nil
	}
	return Step{}, s, errors.New("invalid path step")
}

func parseName(s string) (kind Op, name, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "*"); ok {
		return Wildcard, "*", t, nil
	}
	if m := headerRE.FindStringSubmatch(s); m != nil {
		return Header, m[1], s[len(m[0]):], nil
	}
	if m := wordRE.FindStringSubmatch(s); m != nil {
		return Name, m[1], s[len(m[0]):], nil
	}
	if m := quoteRE.FindStringSubmatch(s); m != nil {
		return QName, m[1], s[len(m[0]):], nil
	}
	return Invalid, "", s, errors.New("invalid name")
}

func parseIndex(s string) (text, rest string, _ error) {
	if m := indexRE.FindStringSubmatch(s); m != nil {
		return m[1], s[len(m[0]):], nil
	}
	return "", "", errors.New("invalid index")
}

func parseValue(s string) (kind Op, value, rest string, _ error) {
	if text, rest, err := parseIndex(s); err == nil {
		if u, ok := strings.CutPrefix(rest, ":"); ok {
			return Slice, text, u, nil
		}
		return Index, text, rest, nil
	}
	if u, ok := strings.CutPrefix(s, ":"); ok {
		return Slice, "", u, nil
	}
	if kind, text, rest, err := parseName(s); err == nil {
		return kind, text, rest, nil
	}
	return Invalid, "", s, fmt.Errorf("invalid value: %q", s)
}

var (
	wordRE   = regexp.MustCompile(`^(\w+)`)
	headerRE = regexp.MustCompile(`^(@\w*)`)
	indexRE  = regexp.MustCompile(`^(-?\d+(?:,-?\d+)*)`)
	quoteRE  = regexp.MustCompile(`^'([^\']*)'`)
)

// An Op is a path operator.
type Op byte

const (
	Invalid  Op = iota // invalid operator
	Member             // member lookup (.)
	Index              // array index lookup
	Slice              // array slice
	Wildcard           // wildcard expansion (*)
	Name               // unquoted name expansion
	QName              // quoted name expansion
	Recur              // recur operator
	Header             // header or header field (@)
)

var opText = map[Op]string{
	Invalid:  "invalid",
	Member:   ".",
	Index:    "index",
	Slice:    "slice",
	Wildcard: "*",
	Name:     "name",
	QName:    "qname",
	Recur:    "..",
	Header:   "header",
}

// opKind maps the name kinds recorded in Step.Arg2 back to operators.
var opKind = map[string]Op{
	"*":      Wildcard,
	"name":   Name,
	"qname":  QName,
	"header": Header,
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return opText[Invalid]
}

// A Step is a single step of a JSONPath expression.
type Step struct {
	Op   Op
	Arg1 string
	Arg2 string
}
