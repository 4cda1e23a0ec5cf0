// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package logging builds the console loggers used by bstool.
package logging

import (
	"io"

	"github.com/fatih/color"
	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogDestination is a single console output of a logger.
type LogDestination struct {
	level  zapcore.LevelEnabler
	writer io.Writer
	config zapcore.EncoderConfig
}

// EncoderOption defines a log destination encoder config setter.
type EncoderOption func(config *zapcore.EncoderConfig)

// WithoutTimestamp disables timestamp.
func WithoutTimestamp() EncoderOption {
	return func(config *zapcore.EncoderConfig) {
		config.EncodeTime = nil
	}
}

// WithoutLogLevels disables log level.
func WithoutLogLevels() EncoderOption {
	return func(config *zapcore.EncoderConfig) {
		config.EncodeLevel = nil
	}
}

// WithColoredLevels enables log level colored output.
func WithColoredLevels() EncoderOption {
	return func(config *zapcore.EncoderConfig) {
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
}

// WithoutCaller drops the caller annotation.
func WithoutCaller() EncoderOption {
	return func(config *zapcore.EncoderConfig) {
		config.CallerKey = zapcore.OmitKey
	}
}

// NewLogDestination creates new log destination.
func NewLogDestination(writer io.Writer, level zapcore.LevelEnabler, options ...EncoderOption) *LogDestination {
	config := zap.NewDevelopmentEncoderConfig()
	config.ConsoleSeparator = " "
	config.StacktraceKey = "error"

	for _, option := range options {
		option(&config)
	}

	return &LogDestination{
		level:  level,
		config: config,
		writer: writer,
	}
}

// ZapLogger tees log entries to every destination.
func ZapLogger(dests ...*LogDestination) *zap.Logger {
	if len(dests) == 0 {
		panic("at least one writer must be defined")
	}

	cores := xslices.Map(dests, func(dest *LogDestination) zapcore.Core {
		return zapcore.NewCore(
			zapcore.NewConsoleEncoder(dest.config),
			zapcore.AddSync(dest.writer),
			dest.level,
		)
	})

	return zap.New(zapcore.NewTee(cores...))
}

// Wrap is a simple helper to wrap io.Writer with default arguments.
func Wrap(writer io.Writer) *zap.Logger {
	return ZapLogger(
		NewLogDestination(writer, zapcore.DebugLevel),
	)
}

// NewCLILogger returns the logger of the command line tool.
//
// Entries carry no timestamp, levels are colored unless colors are disabled
// (not a terminal, NO_COLOR set).
func NewCLILogger(writer io.Writer, level zapcore.LevelEnabler) *zap.Logger {
	options := []EncoderOption{WithoutTimestamp(), WithoutCaller()}

	if !color.NoColor {
		options = append(options, WithColoredLevels())
	}

	return ZapLogger(NewLogDestination(writer, level, options...))
}

// Component helper for creating zap.Field.
func Component(name string) zapcore.Field {
	return zap.String("component", name)
}
