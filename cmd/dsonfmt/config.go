// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/creachadair/dson"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the reader and writer settings shared by all commands. Values
// are read from an optional YAML file, and then flags given on the command
// line replace the corresponding file settings.
type Config struct {
	Reader dson.ReaderOptions `yaml:"reader"`
	Writer dson.WriterOptions `yaml:"writer"`

	configFile  string
	indent      int
	width       int
	asciiOnly   bool
	noText      bool
	localIDType string
}

// Register adds the configuration flags to app.
func (c *Config) Register(app *kingpin.Application) {
	app.Flag("config.file", "YAML file of reader and writer settings.").StringVar(&c.configFile)
	app.Flag("indent", "Columns of indentation per level of nesting.").IntVar(&c.indent)
	app.Flag("width", "Soft limit on the length of output lines.").IntVar(&c.width)
	app.Flag("ascii", "Escape all non-ASCII characters in output.").BoolVar(&c.asciiOnly)
	app.Flag("no-text", "Do not write long strings as text blocks.").BoolVar(&c.noText)
	app.Flag("local-id-type", "Type of unlabeled localId values in headers.").
		EnumVar(&c.localIDType, string(dson.LocalIDString), string(dson.LocalIDInt64))
	app.PreAction(c.load)
}

func (c *Config) load(*kingpin.ParseContext) error {
	if c.configFile != "" {
		data, err := os.ReadFile(c.configFile)
		if err != nil {
			return errors.Wrap(err, "unable to read config file")
		}
		if err := decodeConfig(data, c); err != nil {
			return errors.Wrapf(err, "unable to parse config file %q", c.configFile)
		}
	}
	if c.indent > 0 {
		c.Writer.IndentWidth = c.indent
	}
	if c.width > 0 {
		c.Writer.SoftLineLength = c.width
	}
	if c.asciiOnly {
		c.Writer.ASCIIOnly = true
	}
	if c.noText {
		c.Writer.DisableText = true
	}
	if c.localIDType != "" {
		c.Reader.LocalIDType = dson.LocalIDType(c.localIDType)
	}
	switch c.Reader.LocalIDType {
	case "", dson.LocalIDString, dson.LocalIDInt64:
	default:
		return errors.Errorf("invalid localIdType %q", c.Reader.LocalIDType)
	}
	return nil
}

// decodeConfig decodes YAML settings from data into c. Unknown fields are
// reported as errors.
func decodeConfig(data []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}
