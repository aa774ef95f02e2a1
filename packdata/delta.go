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

package packdata

import "fmt"

// ApplyDelta reconstructs an object's bytes by applying delta (in the
// standard copy/insert instruction format used by offset- and ref-deltas)
// to base. It is used by packidx's resolve phase to compute the identifier
// of a delta entry by hashing its reconstructed bytes (spec §4.5).
func ApplyDelta(base, delta []byte) ([]byte, error) {
	baseSize, n, err := decodeDeltaSize(delta)
	if err != nil {
		return nil, fmt.Errorf("packdata: delta base size: %w", err)
	}
	if uint64(len(base)) != baseSize {
		return nil, fmt.Errorf("packdata: delta expects base of %d bytes, got %d", baseSize, len(base))
	}
	delta = delta[n:]

	resultSize, n, err := decodeDeltaSize(delta)
	if err != nil {
		return nil, fmt.Errorf("packdata: delta result size: %w", err)
	}
	delta = delta[n:]

	out := make([]byte, 0, resultSize)
	for len(delta) > 0 {
		op := delta[0]
		delta = delta[1:]
		if op&0x80 != 0 {
			// Copy instruction: bits 0-3 select which offset bytes follow,
			// bits 4-6 select which size bytes follow, matching git's
			// packed delta copy-opcode layout.
			var offset, size uint32
			for i := 0; i < 4; i++ {
				if op&(1<<uint(i)) != 0 {
					if len(delta) == 0 {
						return nil, fmt.Errorf("packdata: truncated delta copy offset")
					}
					offset |= uint32(delta[0]) << uint(8*i)
					delta = delta[1:]
				}
			}
			for i := 0; i < 3; i++ {
				if op&(1<<uint(4+i)) != 0 {
					if len(delta) == 0 {
						return nil, fmt.Errorf("packdata: truncated delta copy size")
					}
					size |= uint32(delta[0]) << uint(8*i)
					delta = delta[1:]
				}
			}
			if size == 0 {
				size = 0x10000
			}
			if uint64(offset)+uint64(size) > uint64(len(base)) {
				return nil, fmt.Errorf("packdata: delta copy [%d,%d) exceeds base of %d bytes", offset, uint64(offset)+uint64(size), len(base))
			}
			out = append(out, base[offset:offset+size]...)
		} else if op != 0 {
			// Insert instruction: op is itself the literal byte count.
			n := int(op)
			if len(delta) < n {
				return nil, fmt.Errorf("packdata: truncated delta insert of %d bytes", n)
			}
			out = append(out, delta[:n]...)
			delta = delta[n:]
		} else {
			return nil, fmt.Errorf("packdata: reserved delta opcode 0")
		}
	}
	if uint64(len(out)) != resultSize {
		return nil, fmt.Errorf("packdata: delta produced %d bytes, expected %d", len(out), resultSize)
	}
	return out, nil
}

// decodeDeltaSize reads one of the two little-endian, 7-bit-per-byte size
// varints at the start of a delta stream (base size, then result size).
func decodeDeltaSize(data []byte) (uint64, int, error) {
	var size uint64
	var shift uint
	for i, b := range data {
		size |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return size, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("truncated size varint")
}
