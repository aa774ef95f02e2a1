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
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/packdata"
)

// DataEntry is one raw record from the pack entry stream the builder
// ingests (spec §4.5 phase 1): the entry's parsed header, its position
// and size within the pack, and, on the final entry, the pack's own
// trailing hash.
type DataEntry struct {
	Header           packdata.Header
	PackOffset       uint64
	HeaderSize       int
	CompressedBytes  []byte
	DecompressedSize uint64
	Trailer          *hash.Hash
}

// EntrySource pulls the next raw entry from the stream; ok=false, err=nil
// is a clean end of input.
type EntrySource func() (DataEntry, bool, error)

// Outcome is the result of a successful index build (spec §4.5 phase 3).
type Outcome struct {
	IndexKind  Kind
	IndexHash  hash.Hash
	PackHash   hash.Hash
	NumObjects uint32
}

// WriteDataIterToStream ingests entries, resolves every entry's object
// identifier, sorts by identifier, and encodes the index (spec §4.5).
func WriteDataIterToStream(ctx context.Context, opts Options, entries EntrySource, makeResolver MakeResolver, out Encoder) (Outcome, error) {
	opts = opts.withDefaults()
	if opts.IndexKind != Default {
		return Outcome{}, fmt.Errorf("packidx: index kind %d: %w", opts.IndexKind, ErrUnsupportedIndexKind)
	}

	forest := NewForest[chainState](0)

	var (
		sawBase        bool
		trailer        *hash.Hash
		packEntriesEnd uint64
		count          uint64
	)

	for {
		e, ok, err := entries()
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			break
		}

		if e.Header.Kind == packdata.HeaderRefDelta {
			return Outcome{}, ErrNoRefDelta
		}

		headerBytes, err := reEncodeHeader(e.Header, e.DecompressedSize)
		if err != nil {
			return Outcome{}, fmt.Errorf("packidx: re-encoding header at offset %d: %w", e.PackOffset, err)
		}
		crc := packdata.CRC32(headerBytes, e.CompressedBytes)

		switch e.Header.Kind {
		case packdata.HeaderBase:
			if err := forest.AddRoot(e.PackOffset, crc, e.Header.Object, e.HeaderSize, len(e.CompressedBytes), e.DecompressedSize); err != nil {
				return Outcome{}, err
			}
			sawBase = true

		case packdata.HeaderOfsDelta:
			parentOffset, ok := packdata.VerifiedBaseOffset(e.PackOffset, e.Header.BaseDistance)
			if !ok {
				return Outcome{}, fmt.Errorf("%w: base_distance=%d pack_offset=%d", ErrBadBaseOffset, e.Header.BaseDistance, e.PackOffset)
			}
			if err := forest.AddChild(parentOffset, e.PackOffset, crc, e.HeaderSize, len(e.CompressedBytes), e.DecompressedSize); err != nil {
				return Outcome{}, err
			}
		}

		if e.Trailer != nil {
			trailer = e.Trailer
		}
		end := e.PackOffset + uint64(e.HeaderSize) + uint64(len(e.CompressedBytes))
		if end > packEntriesEnd {
			packEntriesEnd = end
		}
		count++
		opts.Progress.Inc(1)
	}

	if !sawBase {
		return Outcome{}, ErrNoBases
	}
	if count > math.MaxUint32 {
		return Outcome{}, ErrTooManyObjects
	}
	if trailer == nil {
		return Outcome{}, ErrNoTrailer
	}
	opts.Logger.Ingest().WithField("entries", count).Debug("ingest complete")

	resolver, err := makeResolver()
	if err != nil {
		return Outcome{}, fmt.Errorf("packidx: constructing resolver: %w", err)
	}

	runParallel := int64(packEntriesEnd) > opts.ParallelThreshold
	opts.Logger.Resolve().WithField("parallel", runParallel).Debug("starting resolve")
	items, err := forest.Traverse(
		ctx,
		runParallel,
		opts.ThreadLimit,
		resolver,
		packEntriesEnd,
		opts.Progress,
		newBaseFn(opts.HashKind, opts.Decompressor),
		newChildFn(opts.HashKind, opts.Decompressor),
	)
	if err != nil {
		return Outcome{}, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ID.Compare(items[j].ID) < 0
	})

	indexHash, err := out.Encode(items, *trailer)
	if err != nil {
		return Outcome{}, fmt.Errorf("packidx: encoding index: %w", err)
	}

	return Outcome{
		IndexKind:  opts.IndexKind,
		IndexHash:  indexHash,
		PackHash:   *trailer,
		NumObjects: uint32(count),
	}, nil
}

// reEncodeHeader re-serializes a parsed header so CRC32 is computed over
// the same bytes the header decoded from, independent of how the
// EntrySource chose to hand the header to us.
func reEncodeHeader(h packdata.Header, decompressedSize uint64) ([]byte, error) {
	if h.Kind == packdata.HeaderBase {
		return packdata.EncodeBaseHeader(nil, h.Object, decompressedSize)
	}
	return packdata.EncodeOfsDeltaHeader(nil, decompressedSize, h.BaseDistance), nil
}
