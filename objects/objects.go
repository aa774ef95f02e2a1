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

// Package objects defines the heterogeneous object model (blob, tree,
// commit, tag) and the narrow interface gitpack requires of an object
// database. The database implementation itself is out of scope for this
// module; only its contract lives here.
package objects

import (
	"fmt"

	"github.com/dolthub/gitpack/hash"
)

// Kind enumerates the four object kinds a content-addressed object
// database may store.
type Kind uint8

const (
	KindBlob Kind = iota
	KindTree
	KindCommit
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindCommit:
		return "commit"
	case KindTag:
		return "tag"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Object is the decompressed, in-memory representation of one stored
// object: its kind plus opaque bytes. Interpreting Data is the job of the
// Tree/Commit parsers in this package.
type Object struct {
	Kind Kind
	Data []byte
}

// DatabaseLookupError wraps a failure from Database.Find, preserving the
// identifier that was being looked up and the underlying cause.
type DatabaseLookupError struct {
	ID  hash.Hash
	Err error
}

func (e *DatabaseLookupError) Error() string {
	return fmt.Sprintf("object database lookup failed for %s: %v", e.ID, e.Err)
}

func (e *DatabaseLookupError) Unwrap() error { return e.Err }

// NotFoundError reports that an identifier is known-absent from the
// database.
type NotFoundError struct {
	ID hash.Hash
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object %s not found in object database", e.ID)
}

// StoredEntry is the database's optional fast-path answer to "is this
// object already present, verbatim, as a pack entry" (spec §6.1 pack_entry).
type StoredEntry struct {
	// Version is the pack data version the stored bytes were encoded for.
	Version int
	// IsDelta reports whether the stored entry is an offset/ref delta
	// rather than a base. Delta stored entries are never reused verbatim
	// by packout (spec §4.3): the caller must recompress them as bases.
	IsDelta bool
	// Data is the full serialized entry: header bytes followed by the
	// compressed payload.
	Data []byte
	// HeaderSize is the length of the header prefix within Data.
	HeaderSize int
	// CRC32, if non-nil, is the CRC the database recorded when it stored
	// Data; the caller must verify it against a freshly computed CRC32(Data)
	// before trusting the fast path.
	CRC32 *uint32
}

// Payload returns the compressed payload within Data, i.e. the bytes
// right after the header.
func (s StoredEntry) Payload() []byte {
	return s.Data[s.HeaderSize:]
}

// Cache is the black-box, non-thread-safe decode cache a Database may use
// internally to amortize delta-base reconstruction. gitpack never inspects
// its contents; it only ever asks a worker-owned Factory to build one per
// worker and threads it back into Find.
type Cache interface {
	// Purge discards all cached state. Implementations that don't need
	// explicit teardown may no-op.
	Purge()
}

// CacheFactory builds a fresh, non-shared Cache. Database implementations
// that don't need caching may ignore the supplied factory's output.
type CacheFactory func() Cache

// Database is the external object database collaborator (spec §6.1): a
// lookup service returning decompressed object bytes for an identifier,
// and optionally pre-compressed pack bytes when an identical entry is
// already stored as part of a pack.
//
// Find must be safe for concurrent callers; gitpack shares one Database
// across a worker pool (spec §5). Scratch and cache are always owned by a
// single worker and reused across calls by that worker only.
type Database interface {
	// Find returns the object identified by id, or ok=false if it is not
	// present. scratch is a reusable buffer the implementation may write
	// into and return a sub-slice of; cache is this worker's decode cache.
	Find(id hash.Hash, scratch *[]byte, cache Cache) (obj Object, ok bool, err error)

	// PackEntry optionally returns a pre-compressed pack-entry encoding of
	// obj, if the database already has one on hand (e.g. because obj was
	// itself read out of an existing pack). Returning false is always
	// correct; it just forfeits the copy fast path.
	PackEntry(obj Object) (entry StoredEntry, ok bool)
}
