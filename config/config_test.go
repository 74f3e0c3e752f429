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

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ebay/akutan-sparql/dataset/explain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
		return path
	}

	t.Run("file not found", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "404.yaml"))
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "404.yaml")
		}
	})

	t.Run("file contains garbage", func(t *testing.T) {
		_, err := Load(write("garbage.yaml", "rigorous: [koala"))
		if assert.Error(t, err) {
			assert.Regexp(t, `^error loading .*/garbage\.yaml: error decoding YAML value: `, err.Error())
		}
	})

	t.Run("file is empty", func(t *testing.T) {
		_, err := Load(write("empty.yaml", ""))
		if assert.Error(t, err) {
			assert.Regexp(t, `^error loading .*/empty\.yaml: empty config$`, err.Error())
		}
	})

	t.Run("file contains null", func(t *testing.T) {
		_, err := Load(write("null.yaml", "null"))
		if assert.Error(t, err) {
			assert.Regexp(t, `^error loading .*/null\.yaml: null config$`, err.Error())
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Load(write("unknown.yaml", "roflcopter: true\n"))
		if assert.Error(t, err) {
			assert.Regexp(t, `(?s)^error loading .*/unknown\.yaml: error decoding YAML value: .*roflcopter`, err.Error())
		}
	})

	t.Run("more", func(t *testing.T) {
		_, err := Load(write("more.yaml", "rigorous: true\n---\nrigorous: false\n"))
		if assert.Error(t, err) {
			assert.Regexp(t, `^error loading .*/more\.yaml: found unexpected data after config$`, err.Error())
		}
	})

	t.Run("unknown capability", func(t *testing.T) {
		_, err := Load(write("caps.yaml", "explain:\n  capabilities: [graphSwitches, koalas]\n"))
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), `unknown explain capability "koalas"`)
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := Load(write("level.yaml", "logLevel: chatty\n"))
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "invalid logLevel")
		}
	})

	t.Run("ok", func(t *testing.T) {
		cfg, err := Load(write("ok.yaml", `
rigorous: true
fastPaths: false
logLevel: debug
explain:
  capabilities:
    - graphSwitches
    - fastPaths
`))
		require.NoError(t, err)
		assert.True(t, cfg.Rigorous)
		if assert.NotNil(t, cfg.FastPaths) {
			assert.False(t, *cfg.FastPaths)
		}
		assert.Equal(t, "debug", cfg.LogLevel)
		if assert.NotNil(t, cfg.Explain) {
			assert.Equal(t, []string{"graphSwitches", "fastPaths"}, cfg.Explain.Capabilities)
		}
	})
}

func Test_QueryOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Parse([]byte("rigorous: false\n"))
		require.NoError(t, err)
		opts, err := cfg.QueryOptions(nil)
		require.NoError(t, err)
		assert.False(t, opts.Rigorous)
		assert.True(t, opts.FastPaths)
		assert.Nil(t, opts.Explain)
	})
	t.Run("explain", func(t *testing.T) {
		cfg, err := Parse([]byte("fastPaths: false\nexplain:\n  capabilities: [graphSwitches]\n"))
		require.NoError(t, err)
		var sink bytes.Buffer
		opts, err := cfg.QueryOptions(&sink)
		require.NoError(t, err)
		assert.False(t, opts.FastPaths)
		if assert.NotNil(t, opts.Explain) {
			assert.True(t, opts.Explain.Capabilities.Has(explain.TraceGraphSwitches))
			assert.False(t, opts.Explain.Capabilities.Has(explain.TraceFastPaths))
			assert.True(t, opts.Explain.Sink == &sink)
		}
	})
	t.Run("explain without capabilities", func(t *testing.T) {
		cfg, err := Parse([]byte("explain: {capabilities: []}\n"))
		require.NoError(t, err)
		opts, err := cfg.QueryOptions(nil)
		require.NoError(t, err)
		if assert.NotNil(t, opts.Explain) {
			assert.Empty(t, opts.Explain.Capabilities.List())
		}
	})
	t.Run("invalid after parse", func(t *testing.T) {
		cfg := &Evaluator{Explain: &Explain{Capabilities: []string{"koalas"}}}
		_, err := cfg.QueryOptions(nil)
		assert.Error(t, err)
	})
}

func Test_ConfigureLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	require.NoError(t, new(Evaluator).ConfigureLogging(logger))
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	require.NoError(t, (&Evaluator{LogLevel: "warn"}).ConfigureLogging(logger))
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	logger.Warn("koala")
	assert.Contains(t, buf.String(), "component=sparql")

	err := (&Evaluator{LogLevel: "chatty"}).ConfigureLogging(logger)
	assert.Error(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}

func Test_Write(t *testing.T) {
	dir := t.TempDir()
	fastPaths := false
	cfg := &Evaluator{
		Rigorous:  true,
		FastPaths: &fastPaths,
		Explain:   &Explain{Capabilities: []string{"fastPaths"}},
	}
	path := filepath.Join(dir, "ok.yaml")
	require.NoError(t, Write(cfg, path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	// Errors from writing a directory include the filename.
	err = os.MkdirAll(filepath.Join(dir, "subdir"), 0755)
	require.NoError(t, err)
	err = Write(cfg, filepath.Join(dir, "subdir"))
	if assert.Error(t, err) {
		assert.Regexp(t, `^failed to write .*/subdir: `, err.Error())
	}
}
