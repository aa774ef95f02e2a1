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

package objects

import (
	"encoding/binary"
	"fmt"

	"github.com/dolthub/gitpack/hash"
)

// TreeEntry is one (name, mode, identifier) record inside a Tree's bytes.
// IsSubtree distinguishes a nested Tree from a leaf (Blob, or a Tag/Tree
// referenced but not walked further).
type TreeEntry struct {
	Name     string
	Mode     uint32
	ID       hash.Hash
	IsSubtree bool
}

// ParseTree decodes the flat entry sequence out of a Tree object's bytes.
// The on-wire layout is mode/name/id triples length-prefixed the way the
// teacher encodes its own fixed-width chunk records directly with
// encoding/binary rather than through a schema-driven serializer (see
// DESIGN.md, package packdata) -- here: a 4-byte mode, a length-prefixed
// name, then a Kind.Size()-byte identifier.
func ParseTree(kind hash.Kind, data []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	off := 0
	idSize := kind.Size()
	for off < len(data) {
		if off+4+2 > len(data) {
			return nil, fmt.Errorf("objects: truncated tree entry header at offset %d", off)
		}
		mode := binary.BigEndian.Uint32(data[off:])
		off += 4
		nameLen := int(binary.BigEndian.Uint16(data[off:]))
		off += 2
		if off+nameLen+idSize > len(data) {
			return nil, fmt.Errorf("objects: truncated tree entry body at offset %d", off)
		}
		name := string(data[off : off+nameLen])
		off += nameLen
		id, err := hash.New(kind, data[off:off+idSize])
		if err != nil {
			return nil, fmt.Errorf("objects: tree entry %q: %w", name, err)
		}
		off += idSize
		entries = append(entries, TreeEntry{
			Name:      name,
			Mode:      mode,
			ID:        id,
			IsSubtree: mode == ModeTree,
		})
	}
	return entries, nil
}

// ModeTree is the entry mode that marks a tree entry as a subtree rather
// than a leaf blob/tag reference.
const ModeTree uint32 = 0o040000

// TreeLookup resolves the bytes of a Tree object by identifier, reusing a
// caller-owned scratch buffer, mirroring the `buf` parameter threaded
// through the Rust source's `db.find_existing_tree_iter(oid, buf, cache)`.
type TreeLookup func(id hash.Hash, scratch *[]byte) ([]byte, error)

// TraversalError wraps a failure encountered mid breadth-first-search over
// a tree, preserving the identifier being expanded when the failure
// occurred (spec §7 TreeTraversal).
type TraversalError struct {
	ID  hash.Hash
	Err error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("tree traversal failed resolving %s: %v", e.ID, e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }

// WalkTreeContents performs a breadth-first walk starting from rootID's
// already-decoded bytes, collecting every transitively referenced
// identifier (subtrees and leaves alike) into the returned slice, in BFS
// emission order. seen de-duplicates within this single call; the caller
// is responsible for handing WalkTreeContents a fresh seen set per input
// object (spec §9 Open Question: dedup is scoped to one expansion, not one
// chunk).
func WalkTreeContents(kind hash.Kind, rootID hash.Hash, rootData []byte, lookup TreeLookup, seen map[hash.Hash]struct{}) ([]hash.Hash, error) {
	var out []hash.Hash
	queue := []struct {
		id   hash.Hash
		data []byte
	}{{rootID, rootData}}

	var scratch []byte
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		entries, err := ParseTree(kind, cur.data)
		if err != nil {
			return nil, &TraversalError{ID: cur.id, Err: err}
		}
		for _, e := range entries {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			out = append(out, e.ID)
			if e.IsSubtree {
				data, err := lookup(e.ID, &scratch)
				if err != nil {
					return nil, &TraversalError{ID: e.ID, Err: err}
				}
				// Copy out of scratch before it's reused by the next lookup.
				owned := append([]byte(nil), data...)
				queue = append(queue, struct {
					id   hash.Hash
					data []byte
				}{e.ID, owned})
			}
		}
	}
	return out, nil
}
