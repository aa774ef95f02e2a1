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

package packidx

import (
	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/objects"
)

// Item is one resolved forest node: the payload_mut that base_fn/child_fn
// populate during traversal (spec §4.4). ID and ReconstructedSize start
// zero and are filled in by the traversal callbacks.
type Item struct {
	Offset           uint64
	CRC32            uint32
	ObjectKind       objects.Kind
	ID               hash.Hash
	ReconstructedSize uint64
}

// ByteRange is the [Start, End) span of one entry's compressed payload
// within the completed pack, handed to a Resolver.
type ByteRange struct {
	Start, End uint64
}

// Resolver is the random-access reader into the now-complete pack file
// (spec §4.5 phase 2): given a byte range it returns those bytes, reusing
// scratch across calls where convenient.
type Resolver func(r ByteRange, scratch *[]byte) ([]byte, error)

// MakeResolver is a factory for Resolver, separated from the resolver
// itself because the caller may need to finish writing the pack (flush,
// close, fsync) before a resolver can safely read it back.
type MakeResolver func() (Resolver, error)
