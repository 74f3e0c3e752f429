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

// Package cmp contains small comparison helpers and the Key interface used to
// give operators, terms, and expressions a stable identity.
package cmp

import "strings"

// Key is implemented by types that can describe their identity as a string.
// Two values with equal keys are considered equivalent.
type Key interface {
	// Key writes the identity of the receiver to the builder.
	Key(b *strings.Builder)
}

// GetKey returns the key of the given value as a string.
func GetKey(k Key) string {
	var b strings.Builder
	k.Key(&b)
	return b.String()
}

// WriteKeys writes the keys of the given values to b, separated by sep.
func WriteKeys[K Key](b *strings.Builder, sep string, keys []K) {
	for i, k := range keys {
		if i > 0 {
			b.WriteString(sep)
		}
		k.Key(b)
	}
}
