// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package packlog supplies the small structured-logging helper shared by
// dispatch, packout, and packidx. It wraps a *logrus.Logger the way the
// teacher configures one per component rather than reaching for a global
// logger.
package packlog

import "github.com/sirupsen/logrus"

// Logger tags every entry it produces with a "component" field, matching
// the structured-field logging style the teacher uses around its store
// internals.
type Logger struct {
	base *logrus.Logger
}

// New wraps l. A nil l is replaced with a logger that discards everything,
// so callers never need a nil check before logging.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.New()
		l.SetOutput(discard{})
	}
	return Logger{base: l}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// For returns an entry pre-tagged with the given component name. The zero
// Logger (no call to New) is a safe no-op, so callers never need to thread
// a default through their own Options.withDefaults.
func (l Logger) For(component string) *logrus.Entry {
	base := l.base
	if base == nil {
		base = New(nil).base
	}
	return base.WithField("component", component)
}

// Dispatch returns the entry used by the chunked parallel dispatcher.
func (l Logger) Dispatch() *logrus.Entry { return l.For("dispatch") }

// Expand returns the entry used by the object-expansion worker.
func (l Logger) Expand() *logrus.Entry { return l.For("packout") }

// Ingest returns the entry used by the index builder's ingest phase.
func (l Logger) Ingest() *logrus.Entry { return l.For("packidx.ingest") }

// Resolve returns the entry used by the index builder's resolve phase.
func (l Logger) Resolve() *logrus.Entry { return l.For("packidx.resolve") }
