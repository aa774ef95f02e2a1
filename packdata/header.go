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

// Package packdata implements the wire-level pieces of the version-2 pack
// format (spec §6.2): entry header encode/decode, the base-128 offset
// encoding used by offset-deltas, CRC32 helpers, and the pack file's fixed
// preamble layout. Both packout (producer) and packidx (consumer)
// build on this package rather than duplicating the bit layout.
package packdata

import (
	"fmt"

	"github.com/dolthub/gitpack/objects"
)

// HeaderKind distinguishes a base entry (tagged with an objects.Kind) from
// the two delta forms. RefDelta entries are representable on the wire but
// are always rejected by packidx (spec §3, §7).
type HeaderKind uint8

const (
	HeaderBase HeaderKind = iota
	HeaderOfsDelta
	HeaderRefDelta
)

// Header is the decoded form of a pack entry's variable-length header.
type Header struct {
	Kind HeaderKind
	// Object is populated when Kind == HeaderBase.
	Object objects.Kind
	// BaseDistance is populated when Kind == HeaderOfsDelta: the backward
	// byte distance from this entry's header to its base's header.
	BaseDistance uint64
	// RefID, when Kind == HeaderRefDelta, is the raw identifier bytes
	// (width depends on the pack's hash kind); packidx never needs to
	// decode further than recognizing the kind, since ref-deltas are
	// rejected outright.
	RefID []byte
}

// IsBase reports whether this header describes a base (non-delta) entry.
func (h Header) IsBase() bool { return h.Kind == HeaderBase }

// packTypeForKind maps an object kind to its 3-bit pack type tag. Pack type
// 6 is OfsDelta, 7 is RefDelta; 1-4 are Commit/Tree/Blob/Tag respectively,
// matching git's on-wire numbering.
func packTypeForKind(k objects.Kind) (uint8, error) {
	switch k {
	case objects.KindCommit:
		return 1, nil
	case objects.KindTree:
		return 2, nil
	case objects.KindBlob:
		return 3, nil
	case objects.KindTag:
		return 4, nil
	default:
		return 0, fmt.Errorf("packdata: unknown object kind %v", k)
	}
}

func kindForPackType(t uint8) (objects.Kind, error) {
	switch t {
	case 1:
		return objects.KindCommit, nil
	case 2:
		return objects.KindTree, nil
	case 3:
		return objects.KindBlob, nil
	case 4:
		return objects.KindTag, nil
	default:
		return 0, fmt.Errorf("packdata: pack type %d is not a base object type", t)
	}
}

// EncodeBaseHeader appends the variable-length (type, decompressedSize)
// header for a base entry to dst and returns the extended slice.
func EncodeBaseHeader(dst []byte, kind objects.Kind, decompressedSize uint64) ([]byte, error) {
	t, err := packTypeForKind(kind)
	if err != nil {
		return nil, err
	}
	return encodeTypedSize(dst, t, decompressedSize), nil
}

// EncodeOfsDeltaHeader appends the header for an offset-delta entry:
// the (type=OfsDelta, decompressedSize) varint, followed by the base-128
// encoded backward byte distance to the delta's base.
func EncodeOfsDeltaHeader(dst []byte, decompressedSize uint64, baseDistance uint64) []byte {
	dst = encodeTypedSize(dst, 6, decompressedSize)
	return encodeOffsetDistance(dst, baseDistance)
}

// encodeTypedSize writes git's packed (3-bit type, variable-width size)
// header encoding: the first byte holds the low 4 size bits plus the type
// in bits 4-6 and a continuation flag in bit 7; subsequent bytes hold 7
// size bits each, MSB-first continuation flagged the same way.
func encodeTypedSize(dst []byte, packType uint8, size uint64) []byte {
	first := byte(packType<<4) | byte(size&0x0f)
	size >>= 4
	if size != 0 {
		first |= 0x80
	}
	dst = append(dst, first)
	for size != 0 {
		b := byte(size & 0x7f)
		size >>= 7
		if size != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

// encodeOffsetDistance encodes a backward byte distance using git's
// offset-delta varint: big-endian-ish base-128 digits where every digit
// after the first represents (digit+1) to keep the encoding byte-minimal
// and unambiguous, matching the canonical git pack format.
func encodeOffsetDistance(dst []byte, distance uint64) []byte {
	var buf [10]byte
	n := len(buf)
	n--
	buf[n] = byte(distance & 0x7f)
	distance >>= 7
	for distance != 0 {
		distance--
		n--
		buf[n] = byte(distance&0x7f) | 0x80
		distance >>= 7
	}
	return append(dst, buf[n:]...)
}

// DecodeHeader decodes a pack entry header starting at data[0], returning
// the parsed Header and the number of bytes consumed. idSize is the
// identifier width to expect for a RefDelta header (spec §3's "future
// widening" hash kind).
func DecodeHeader(data []byte, idSize int) (Header, int, error) {
	if len(data) == 0 {
		return Header{}, 0, fmt.Errorf("packdata: empty header")
	}
	first := data[0]
	packType := (first >> 4) & 0x07
	off := 1
	for first&0x80 != 0 {
		if off >= len(data) {
			return Header{}, 0, fmt.Errorf("packdata: truncated header size varint")
		}
		first = data[off]
		off++
	}

	switch packType {
	case 6: // OfsDelta
		dist, n, err := decodeOffsetDistance(data[off:])
		if err != nil {
			return Header{}, 0, err
		}
		return Header{Kind: HeaderOfsDelta, BaseDistance: dist}, off + n, nil
	case 7: // RefDelta
		if off+idSize > len(data) {
			return Header{}, 0, fmt.Errorf("packdata: truncated ref-delta identifier")
		}
		id := append([]byte(nil), data[off:off+idSize]...)
		return Header{Kind: HeaderRefDelta, RefID: id}, off + idSize, nil
	default:
		k, err := kindForPackType(packType)
		if err != nil {
			return Header{}, 0, err
		}
		return Header{Kind: HeaderBase, Object: k}, off, nil
	}
}

func decodeOffsetDistance(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("packdata: truncated offset-delta distance")
	}
	var result uint64
	n := 0
	for {
		if n >= len(data) {
			return 0, 0, fmt.Errorf("packdata: truncated offset-delta distance")
		}
		b := data[n]
		n++
		result = (result << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			break
		}
		result++
	}
	return result, n, nil
}

// VerifiedBaseOffset validates and computes a child's base offset: the
// base must lie strictly before the child (spec §3, §4.5). It returns
// ok=false when baseDistance is invalid (>= pack_offset), matching
// IteratorInvariantBaseOffset.
func VerifiedBaseOffset(packOffset uint64, baseDistance uint64) (baseOffset uint64, ok bool) {
	if baseDistance == 0 || baseDistance >= packOffset {
		return 0, false
	}
	return packOffset - baseDistance, true
}
