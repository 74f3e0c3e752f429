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

package debuglog

import (
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configure runs Configure on a fresh logger writing into a buffer.
func configure(t *testing.T, opts Options) (*logrus.Logger, *strings.Builder) {
	// CLICOLOR_FORCE would turn on colors regardless of the options.
	if value, isSet := os.LookupEnv("CLICOLOR_FORCE"); isSet {
		require.NoError(t, os.Unsetenv("CLICOLOR_FORCE"))
		t.Cleanup(func() { os.Setenv("CLICOLOR_FORCE", value) })
	}
	var buf strings.Builder
	opts.Logger = logrus.New()
	opts.Out = &buf
	logger := Configure(opts)
	require.True(t, logger == opts.Logger)
	return logger, &buf
}

func Test_Configure(t *testing.T) {
	tests := []struct {
		name     string
		options  Options
		log      func(*logrus.Logger)
		contains []string
		excludes []string
	}{
		{
			name:    "debug",
			options: Options{Level: logrus.DebugLevel},
			contains: []string{
				" level=debug ",
				` msg="Configured logger"`,
				" minLevel=debug",
				" forceColors=false",
				` UTC"`,
				` file="util/debuglog/setup.go:`,
			},
		},
		{
			name:     "default level hides debug",
			options:  Options{},
			log:      func(l *logrus.Logger) { l.Info("koala") },
			contains: []string{" level=info ", " msg=koala"},
			excludes: []string{"Configured logger"},
		},
		{
			name:     "warn level",
			options:  Options{Level: logrus.WarnLevel},
			log:      func(l *logrus.Logger) { l.Info("koala"); l.Warn("wombat") },
			contains: []string{" msg=wombat"},
			excludes: []string{"koala"},
		},
		{
			name:    "forceColors",
			options: Options{ForceColors: true},
			log:     func(l *logrus.Logger) { l.WithField("animal", "koala").Info("hi") },
			contains: []string{
				"\x1b[36mINFO\x1b[0m",
				"\x1b[36manimal\x1b[0m=koala",
			},
		},
		{
			name:    "fields",
			options: Options{Fields: logrus.Fields{"component": "sparql", "node": 1}},
			log: func(l *logrus.Logger) {
				l.Info("first")
				l.WithField("component", "explain").Info("second")
			},
			contains: []string{
				"component=sparql node=1",
				"component=explain node=1",
			},
		},
		{
			name:     "caller is this test",
			options:  Options{},
			log:      func(l *logrus.Logger) { l.Info("here") },
			contains: []string{` file="util/debuglog/setup_test.go:`},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			logger, buf := configure(t, test.options)
			if test.log != nil {
				test.log(logger)
			}
			output := buf.String()
			for _, needle := range test.contains {
				assert.Contains(t, output, needle, "output: %#v", output)
			}
			for _, needle := range test.excludes {
				assert.NotContains(t, output, needle)
			}
		})
	}
}

func Test_entryHook(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	hook := newEntryHook(nil)
	assert.True(t, strings.HasSuffix(hook.prefix, "/"))

	for in, expected := range map[string]string{
		thisFile:           "util/debuglog/setup_test.go",
		"/some/other/path": "/some/other/path",
	} {
		logger := logrus.New()
		logger.SetReportCaller(true)
		entry := logrus.Entry{
			Logger: logger,
			Caller: &runtime.Frame{File: in},
		}
		require.True(t, entry.HasCaller())
		assert.NoError(t, hook.Fire(&entry))
		assert.Equal(t, expected, entry.Caller.File)
		assert.Nil(t, entry.Data)
	}
}
