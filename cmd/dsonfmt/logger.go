// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"io"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// LoggerConfig is used to configure the diagnostic logger.
type LoggerConfig struct {
	Level string

	w      io.Writer
	logger log.Logger
}

// Register adds the logging flags to app. The logger is constructed before
// any command action runs.
func (l *LoggerConfig) Register(app *kingpin.Application, w io.Writer) {
	l.w = w
	app.Flag("log.level", "Log level to emit (debug, info, warn, error).").
		Default("info").EnumVar(&l.Level, "debug", "info", "warn", "error")
	app.PreAction(l.setup)
}

func (l *LoggerConfig) setup(*kingpin.ParseContext) error {
	var opt level.Option
	switch l.Level {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(l.w))
	l.logger = level.NewFilter(log.With(logger, "caller", log.DefaultCaller), opt)
	return nil
}

// Logger returns the configured logger. It is a no-op logger until the
// command line has been parsed.
func (l *LoggerConfig) Logger() log.Logger {
	if l.logger == nil {
		return log.NewNopLogger()
	}
	return l.logger
}
