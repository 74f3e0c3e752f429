// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package debuglog configures Logrus for programs embedding the evaluator. It
// reports callers relative to the module root, stamps entries in UTC with
// subsecond precision, and attaches default fields to every entry.
package debuglog

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options control the logger's behavior. The zero value logs at info level to
// the standard Logrus logger.
type Options struct {
	// If true, level names and field keys are highlighted with ANSI colors.
	// Setting the environment variable "CLICOLOR_FORCE" to "1" has the same
	// effect.
	ForceColors bool

	// The minimum level to log at. Defaults to logrus.InfoLevel.
	Level logrus.Level

	// If set, entries are written here instead of the logger's current
	// output.
	Out io.Writer

	// Fields are added to every entry that doesn't already set them.
	Fields logrus.Fields

	// The logger to set up. Defaults to logrus.StandardLogger(); tests use
	// their own.
	Logger *logrus.Logger
}

// Configure sets up the logger and returns it. It may be called more than
// once, but not concurrently.
func Configure(opts Options) *logrus.Logger {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Level == 0 {
		opts.Level = logrus.InfoLevel
	}
	if opts.Out != nil {
		logger.SetOutput(opts.Out)
	}
	logger.SetLevel(opts.Level)
	logger.SetReportCaller(true)
	logger.ReplaceHooks(make(logrus.LevelHooks))
	logger.AddHook(newEntryHook(opts.Fields))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:             true,
		TimestampFormat:           "2006-01-02 15:04:05.000000 MST",
		ForceColors:               opts.ForceColors,
		EnvironmentOverrideColors: true,
	})
	logger.WithFields(logrus.Fields{
		"minLevel":    opts.Level.String(),
		"forceColors": opts.ForceColors,
	}).Debug("Configured logger")
	return logger
}

// entryHook rewrites every entry before it's formatted.
type entryHook struct {
	// Stripped from caller filenames; it's the path of the module root.
	prefix string
	fields logrus.Fields
}

func newEntryHook(fields logrus.Fields) *entryHook {
	return &entryHook{
		prefix: modulePrefix(),
		fields: fields,
	}
}

// modulePrefix returns the directory containing this module, with a trailing
// slash, or "" if it can't be determined.
func modulePrefix() string {
	const self = "util/debuglog/setup.go"
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	if !strings.HasSuffix(file, self) {
		panic(fmt.Sprintf("debuglog: %v should end in %v", file, self))
	}
	return strings.TrimSuffix(file, self)
}

func (h *entryHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *entryHook) Fire(entry *logrus.Entry) error {
	entry.Time = entry.Time.UTC()
	if entry.HasCaller() {
		entry.Caller.File = strings.TrimPrefix(entry.Caller.File, h.prefix)
	}
	if len(h.fields) > 0 {
		data := make(logrus.Fields, len(entry.Data)+len(h.fields))
		for k, v := range h.fields {
			data[k] = v
		}
		for k, v := range entry.Data {
			data[k] = v
		}
		entry.Data = data
	}
	return nil
}
