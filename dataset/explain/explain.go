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

// Package explain wraps a dataset so that query execution can describe what
// it's doing. Which events are described, and where the description goes, is
// fixed when the wrapper is created. Tracing never changes what the wrapped
// dataset is asked to do or what it returns.
package explain

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ebay/akutan-sparql/dataset"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Capability is a kind of event that can be traced.
type Capability int

// Capabilities that can be enabled.
const (
	// TraceGraphSwitches describes every change to the active graph scope.
	TraceGraphSwitches Capability = iota + 1
	// TraceFastPaths describes when execution takes a specialized path for a
	// recognized query shape.
	TraceFastPaths
)

var capabilityNames = map[Capability]string{
	TraceGraphSwitches: "graphSwitches",
	TraceFastPaths:     "fastPaths",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// ParseCapability returns the capability with the given name, as returned by
// Capability.String.
func ParseCapability(name string) (Capability, error) {
	for c, n := range capabilityNames {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown explain capability %q", name)
}

// Capabilities is a set of enabled capabilities. The nil set is empty.
type Capabilities map[Capability]struct{}

// NewCapabilities returns a set containing the given capabilities.
func NewCapabilities(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has returns true if c is in the set.
func (set Capabilities) Has(c Capability) bool {
	_, ok := set[c]
	return ok
}

// List returns the capabilities in the set, in order.
func (set Capabilities) List() []Capability {
	list := make([]Capability, 0, len(set))
	for c := range set {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i] < list[j]
	})
	return list
}

func (set Capabilities) String() string {
	names := make([]string, 0, len(set))
	for _, c := range set.List() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

// Config controls what a wrapped dataset traces.
type Config struct {
	// Capabilities selects which events are traced.
	Capabilities Capabilities
	// Sink receives the trace, one event per line. Nothing is traced if Sink
	// is nil.
	Sink io.Writer
}

// Dataset is a dataset.Dataset that traces selected events on the way to the
// wrapped dataset. It's not safe for concurrent use; create one per query
// execution.
type Dataset struct {
	inner dataset.Dataset
	// caps and sink are copied from the Config at construction. sink is nil
	// when tracing is off.
	caps Capabilities
	sink io.Writer
}

// New returns a Dataset wrapping inner. The config is copied, so later changes
// to it have no effect on the wrapper. A nil config disables tracing.
func New(inner dataset.Dataset, config *Config) *Dataset {
	d := &Dataset{inner: inner}
	if config != nil && config.Sink != nil {
		d.caps = NewCapabilities(config.Capabilities.List()...)
		d.sink = config.Sink
	}
	return d
}

// Unwrap returns the wrapped dataset.
func (d *Dataset) Unwrap() dataset.Dataset {
	return d.inner
}

// Enabled returns true if events of the given capability are traced.
func (d *Dataset) Enabled(c Capability) bool {
	return d.sink != nil && d.caps.Has(c)
}

func (d *Dataset) write(lines ...string) {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(d.sink, b.String()); err != nil {
		logrus.WithError(err).Warn("Unable to write explain trace")
	}
}

// SetActiveGraphs implements dataset.Dataset. With TraceGraphSwitches
// enabled, it describes the new scope before switching to it: one line for a
// single graph, or a header line followed by a line per graph, in the given
// order.
func (d *Dataset) SetActiveGraphs(ctx context.Context, graphs ...rdf.IRI) error {
	if d.Enabled(TraceGraphSwitches) {
		d.write(describeScope(graphs)...)
	}
	return d.inner.SetActiveGraphs(ctx, graphs...)
}

func describeScope(graphs []rdf.IRI) []string {
	switch len(graphs) {
	case 0:
		return []string{"active graphs: default graph"}
	case 1:
		return []string{"active graph: " + graphs[0].String()}
	}
	lines := make([]string, 0, len(graphs)+1)
	lines = append(lines, fmt.Sprintf("active graphs: merge of %d graphs", len(graphs)))
	for _, g := range graphs {
		lines = append(lines, "    "+g.String())
	}
	return lines
}

// Trace writes a line describing a fast path, if TraceFastPaths is enabled.
func (d *Dataset) Trace(format string, args ...interface{}) {
	if d.Enabled(TraceFastPaths) {
		d.write(fmt.Sprintf(format, args...))
	}
}

// Find implements dataset.Dataset.
func (d *Dataset) Find(ctx context.Context, s, p, o rdf.Term, fn func(rdf.Triple) bool) error {
	return d.inner.Find(ctx, s, p, o, fn)
}

// Contains implements dataset.Dataset.
func (d *Dataset) Contains(ctx context.Context, t rdf.Triple) (bool, error) {
	return d.inner.Contains(ctx, t)
}

// GraphNames implements dataset.Dataset.
func (d *Dataset) GraphNames(ctx context.Context) ([]rdf.IRI, error) {
	return d.inner.GraphNames(ctx)
}
