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

// Package config loads the evaluator's options from a YAML file.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/ebay/akutan-sparql/dataset/explain"
	"github.com/ebay/akutan-sparql/query"
	"github.com/ebay/akutan-sparql/util/debuglog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Evaluator is the top-level configuration. The zero value is a valid
// configuration with fast paths enabled and explain disabled.
type Evaluator struct {
	// Rigorous makes pattern matching re-check every candidate triple.
	Rigorous bool `yaml:"rigorous"`
	// FastPaths enables the specialized evaluation of recognized query
	// shapes. Defaults to true when absent.
	FastPaths *bool `yaml:"fastPaths,omitempty"`
	// LogLevel is a Logrus level name such as "debug" or "warn". Defaults to
	// "info" when empty.
	LogLevel string `yaml:"logLevel,omitempty"`
	// Explain selects which execution events are traced. Explain output is
	// disabled when nil.
	Explain *Explain `yaml:"explain,omitempty"`
}

// Explain configures the explain instrumentation.
type Explain struct {
	// Capabilities lists the names of the enabled trace capabilities, such
	// as "graphSwitches".
	Capabilities []string `yaml:"capabilities"`
}

// Load parses the configuration from the given YAML file. Upon success, it
// returns a non-nil configuration. Otherwise, it returns an error, which
// already includes the filename.
func Load(filename string) (*Evaluator, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %v", filename)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration from a YAML document. Unknown
// fields are rejected.
func Parse(data []byte) (*Evaluator, error) {
	var docs []yaml.Node
	scan := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := scan.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error decoding YAML value")
		}
		docs = append(docs, doc)
	}
	switch {
	case len(docs) == 0:
		return nil, errors.New("empty config")
	case len(docs) > 1:
		return nil, errors.New("found unexpected data after config")
	case isNull(&docs[0]):
		return nil, errors.New("null config")
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	cfg := new(Evaluator)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "error decoding YAML value")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isNull(doc *yaml.Node) bool {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}
	return doc.Kind == yaml.ScalarNode && doc.ShortTag() == "!!null"
}

// Validate returns an error if a capability name or the log level is not
// recognized.
func (cfg *Evaluator) Validate() error {
	if _, err := cfg.capabilities(); err != nil {
		return err
	}
	if _, err := cfg.level(); err != nil {
		return err
	}
	return nil
}

// Write marshals the configuration as YAML to the given file. It truncates the
// file if it already exists. It returns an error, which already includes the
// filename, upon failure.
func Write(cfg *Evaluator, filename string) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	err := encoder.Encode(cfg)
	if err == nil {
		err = encoder.Close()
	}
	if err == nil {
		err = os.WriteFile(filename, buf.Bytes(), 0644)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to write %v", filename)
	}
	return nil
}

// QueryOptions returns the execution options described by the configuration.
// Explain trace lines are written to sink, which may be nil when explain is
// not configured.
func (cfg *Evaluator) QueryOptions(sink io.Writer) (query.Options, error) {
	opts := query.Options{
		Rigorous:  cfg.Rigorous,
		FastPaths: cfg.FastPaths == nil || *cfg.FastPaths,
	}
	caps, err := cfg.capabilities()
	if err != nil {
		return query.Options{}, err
	}
	if caps != nil {
		opts.Explain = &explain.Config{
			Capabilities: caps,
			Sink:         sink,
		}
	}
	return opts, nil
}

// ConfigureLogging sets up logger, or the standard Logrus logger if nil, at
// the configured level.
func (cfg *Evaluator) ConfigureLogging(logger *logrus.Logger) error {
	level, err := cfg.level()
	if err != nil {
		return err
	}
	debuglog.Configure(debuglog.Options{
		Level:  level,
		Logger: logger,
		Fields: logrus.Fields{"component": "sparql"},
	})
	return nil
}

func (cfg *Evaluator) capabilities() (explain.Capabilities, error) {
	if cfg.Explain == nil {
		return nil, nil
	}
	caps := explain.NewCapabilities()
	for _, name := range cfg.Explain.Capabilities {
		c, err := explain.ParseCapability(name)
		if err != nil {
			return nil, err
		}
		caps[c] = struct{}{}
	}
	return caps, nil
}

func (cfg *Evaluator) level() (logrus.Level, error) {
	if cfg.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return 0, errors.Wrap(err, "invalid logLevel")
	}
	return level, nil
}
