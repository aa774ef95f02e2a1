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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dolthub/gitpack/hash"
)

// indexMagic and indexVersion identify the fixed layout spec §4.6
// describes: magic, version, 256-entry fanout, sorted identifiers, CRC32
// table, 32-bit offsets with a 64-bit overflow table, pack trailer,
// index trailer.
var indexMagic = [4]byte{0xff, 't', 'O', 'c'}

const indexVersion uint32 = 2

// offsetOverflowBit marks a 32-bit offset table slot as an index into
// the overflow table rather than a direct offset, for entries at or
// beyond 2^31 (spec §4.6).
const offsetOverflowBit = uint32(1) << 31

// Encoder writes the sorted items an index builder produced into the
// fixed index file layout, returning the hash of the bytes written.
type Encoder interface {
	Encode(items []Item, packTrailer hash.Hash) (hash.Hash, error)
}

// StreamEncoder is the default Encoder, writing directly to an
// io.Writer (a file, typically) while hashing everything it writes.
type StreamEncoder struct {
	w        io.Writer
	hashKind hash.Kind
}

func NewStreamEncoder(w io.Writer, hashKind hash.Kind) *StreamEncoder {
	return &StreamEncoder{w: w, hashKind: hashKind}
}

// Encode assumes items is already sorted by identifier ascending;
// fanout correctness depends entirely on that precondition (spec §4.6).
func (e *StreamEncoder) Encode(items []Item, packTrailer hash.Hash) (hash.Hash, error) {
	hasher := e.hashKind.NewHasher()
	tw := io.MultiWriter(e.w, hasher)

	if err := writeAll(tw, indexMagic[:]); err != nil {
		return hash.Hash{}, err
	}
	if err := writeUint32(tw, indexVersion); err != nil {
		return hash.Hash{}, err
	}

	if _, err := e.writeFanout(tw, items); err != nil {
		return hash.Hash{}, err
	}

	for _, it := range items {
		if err := writeAll(tw, it.ID.Bytes()); err != nil {
			return hash.Hash{}, err
		}
	}

	for _, it := range items {
		if err := writeUint32(tw, it.CRC32); err != nil {
			return hash.Hash{}, err
		}
	}

	var overflow []uint64
	for _, it := range items {
		if it.Offset < uint64(offsetOverflowBit) {
			if err := writeUint32(tw, uint32(it.Offset)); err != nil {
				return hash.Hash{}, err
			}
			continue
		}
		overflowIdx := uint32(len(overflow))
		overflow = append(overflow, it.Offset)
		if err := writeUint32(tw, offsetOverflowBit|overflowIdx); err != nil {
			return hash.Hash{}, err
		}
	}
	for _, off := range overflow {
		if err := writeUint64(tw, off); err != nil {
			return hash.Hash{}, err
		}
	}

	if err := writeAll(tw, packTrailer.Bytes()); err != nil {
		return hash.Hash{}, err
	}

	sum := hasher.Sum(nil)
	if err := writeAll(e.w, sum); err != nil {
		return hash.Hash{}, err
	}

	indexHash, err := hash.New(e.hashKind, sum)
	if err != nil {
		return hash.Hash{}, fmt.Errorf("packidx: index trailer: %w", err)
	}
	return indexHash, nil
}

// writeFanout emits the 256 cumulative counts f[b] = number of
// identifiers whose first byte <= b.
func (e *StreamEncoder) writeFanout(w io.Writer, items []Item) ([256]uint32, error) {
	var fanout [256]uint32
	var bucket int
	var cumulative uint32
	for _, it := range items {
		b := it.ID.Bytes()
		first := 0
		if len(b) > 0 {
			first = int(b[0])
		}
		for bucket < first {
			fanout[bucket] = cumulative
			bucket++
		}
		cumulative++
	}
	for bucket < 256 {
		fanout[bucket] = cumulative
		bucket++
	}
	for _, v := range fanout {
		if err := writeUint32(w, v); err != nil {
			return fanout, err
		}
	}
	return fanout, nil
}

func writeAll(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return writeAll(w, b[:])
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return writeAll(w, b[:])
}
