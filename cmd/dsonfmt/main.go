// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Program dsonfmt formats, checks, queries, and converts Dson text.
//
// Usage:
//
//	dsonfmt [flags] fmt [-w] [files...]
//	dsonfmt [flags] check [files...]
//	dsonfmt [flags] from-json [file]
//	dsonfmt [flags] to-json [file]
//	dsonfmt [flags] get <path> [file]
//	dsonfmt [flags] query <expr> [file]
//
// Reader and writer settings may be given in a YAML file with --config.file:
//
//	reader:
//	  localIdType: int64
//	writer:
//	  indentWidth: 4
//	  softLineLength: 100
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	kingpin.MustParse(app.Parse(os.Args[1:]))
}

// newApp constructs the command-line application. Commands read from stdin
// when no files are named, write results to stdout, and log to stderr.
func newApp(stdin io.Reader, stdout, stderr io.Writer) *kingpin.Application {
	app := kingpin.New("dsonfmt", "Format, check, query, and convert Dson text.")

	// Register the logger first so its pre-action runs before the others.
	var (
		logConfig LoggerConfig
		config    Config
		commands  Commands
	)
	logConfig.Register(app, stderr)
	config.Register(app)
	commands.Register(app, &config, &logConfig, stdin, stdout)
	return app
}
