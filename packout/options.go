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

// Package packout implements the object-to-entry pipeline (spec §4.1-4.3):
// converting a stream of object identifiers into self-contained pack
// entries, optionally expanding commits into their reachable trees and
// blobs.
package packout

import (
	"errors"

	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/objects"
	"github.com/dolthub/gitpack/packdata"
	"github.com/dolthub/gitpack/packlog"
)

// ExpansionMode is the rule for turning one input identifier into one or
// more pack entries (spec §4.2, §6.4).
type ExpansionMode uint8

const (
	// AsIs emits exactly one entry per input identifier.
	AsIs ExpansionMode = iota
	// TreeContents expands commits to their root tree and every
	// transitively reachable tree/blob, and expands trees directly.
	TreeContents
	// TreeAdditionsComparedToAncestor is not implemented (spec §1, §4.2
	// non-goal); Expand returns ErrUnimplementedExpansion for it.
	TreeAdditionsComparedToAncestor
)

// ErrUnimplementedExpansion is returned when InputObjectExpansion is
// TreeAdditionsComparedToAncestor.
var ErrUnimplementedExpansion = errors.New("packout: tree-additions-compared-to-ancestor expansion is not yet supported")

// Options configures ObjectsToEntries (spec §6.4, plus the ambient logging
// addition from SPEC_FULL.md).
type Options struct {
	// Version is the pack data version to produce. Only packdata.V2 is
	// accepted; ObjectsToEntries returns an error for anything else.
	Version packdata.Version
	// HashKind selects the identifier width objects are addressed by.
	HashKind hash.Kind
	// ThreadLimit bounds the worker pool; zero means all logical cores.
	ThreadLimit int
	// ChunkSize is the number of identifiers per unit of work; zero means
	// the spec default of 10.
	ChunkSize int
	// InputObjectExpansion selects AsIs/TreeContents/TreeAdditions...
	InputObjectExpansion ExpansionMode
	// Compressor performs the actual DEFLATE-compatible compression the
	// pack wire format requires (spec §6.2). A nil Compressor defaults to
	// the stdlib compress/zlib-backed implementation.
	Compressor Compressor
	// CacheFactory builds one decode cache per worker; nil means workers
	// get a no-op cache.
	CacheFactory objects.CacheFactory
	// Logger receives structured progress/error logging; the zero value
	// is a safe no-op logger.
	Logger packlog.Logger
}

func (o Options) withDefaults() Options {
	if o.Compressor == nil {
		o.Compressor = ZlibCompressor{}
	}
	if o.CacheFactory == nil {
		o.CacheFactory = func() objects.Cache { return noopCache{} }
	}
	return o
}

type noopCache struct{}

func (noopCache) Purge() {}
