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

package packout

import (
	"bytes"
	"fmt"

	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/objects"
	"github.com/dolthub/gitpack/packdata"
)

// PackToPackCrcMismatchError reports that a stored entry's recorded CRC32
// disagreed with a freshly computed one (spec §7, data corruption).
type PackToPackCrcMismatchError struct {
	ID       hash.Hash
	Expected uint32
	Actual   uint32
}

func (e *PackToPackCrcMismatchError) Error() string {
	return fmt.Sprintf("packout: stored entry for %s has CRC32 %08x, recomputed %08x", e.ID, e.Expected, e.Actual)
}

// NewEntryError wraps a compression or header-encoding failure while
// materializing a fresh entry.
type NewEntryError struct {
	ID  hash.Hash
	Err error
}

func (e *NewEntryError) Error() string {
	return fmt.Sprintf("packout: failed to build entry for %s: %v", e.ID, e.Err)
}

func (e *NewEntryError) Unwrap() error { return e.Err }

// MakeEntry converts one decompressed object into a pack Entry (spec §4.3).
//
// Fast path: if db reports obj already exists verbatim as a pack entry for
// targetVersion, and that stored entry is a base (not a delta), the stored
// compressed bytes are reused directly after two checks: the stored CRC32
// (if present) matches a freshly computed one, and a freshly encoded
// header for (kind, size) matches the stored header byte-for-byte (spec
// §9's Open Question, resolved in DESIGN.md: a header mismatch falls
// through to the slow path rather than erroring, since the object bytes
// are still valid).
//
// Slow path: compress obj.Data with compressor and emit a fresh base
// entry.
func MakeEntry(db objects.Database, targetVersion packdata.Version, hashKind hash.Kind, compressor Compressor, id hash.Hash, obj objects.Object) (Entry, error) {
	if stored, ok := db.PackEntry(obj); ok && !stored.IsDelta && packdata.Version(stored.Version) == targetVersion {
		if stored.CRC32 != nil {
			actual := packdata.CRC32(stored.Data[:stored.HeaderSize], stored.Payload())
			if actual != *stored.CRC32 {
				return Entry{}, &PackToPackCrcMismatchError{ID: id, Expected: *stored.CRC32, Actual: actual}
			}
		}
		hdr, _, err := packdata.DecodeHeader(stored.Data, hashKind.Size())
		if err == nil && hdr.IsBase() {
			freshHeader, encErr := packdata.EncodeBaseHeader(nil, obj.Kind, uint64(len(obj.Data)))
			if encErr == nil && bytes.Equal(freshHeader, stored.Data[:stored.HeaderSize]) {
				return newBaseEntry(id, obj.Kind, uint64(len(obj.Data)), freshHeader, append([]byte(nil), stored.Payload()...)), nil
			}
		}
		// Stored header didn't parse, wasn't a base, or didn't byte-match
		// a fresh encoding: fall through to the slow path below.
	}

	compressed, err := compressor.Compress(obj.Data)
	if err != nil {
		return Entry{}, &NewEntryError{ID: id, Err: err}
	}
	header, err := packdata.EncodeBaseHeader(nil, obj.Kind, uint64(len(obj.Data)))
	if err != nil {
		return Entry{}, &NewEntryError{ID: id, Err: err}
	}
	return newBaseEntry(id, obj.Kind, uint64(len(obj.Data)), header, compressed), nil
}
