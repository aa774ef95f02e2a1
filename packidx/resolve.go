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
	"fmt"

	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/objects"
	"github.com/dolthub/gitpack/packdata"
)

// chainState is what flows from a base down its delta chain during
// resolve: the reconstructed object bytes and kind a child needs to
// apply its own delta and compute its identifier (spec §4.5 phase 2).
type chainState struct {
	kind objects.Kind
	data []byte
}

// hashObject computes an identifier the same way the object database
// itself would: "kind + space + size + NUL + bytes" (spec §4.5), the
// standard content-addressing scheme this whole system is built on.
func hashObject(hashKind hash.Kind, kind objects.Kind, data []byte) hash.Hash {
	header := fmt.Sprintf("%s %d\x00", kind.String(), len(data))
	buf := make([]byte, 0, len(header)+len(data))
	buf = append(buf, header...)
	buf = append(buf, data...)
	return hash.Of(hashKind, buf)
}

// newBaseFn builds the base_fn callback (spec §4.4): decompress, hash,
// seed the chain state for any children.
func newBaseFn(hashKind hash.Kind, decompressor packdata.Decompressor) BaseFn[chainState] {
	return func(item *Item, nodeBytes []byte) (chainState, error) {
		data, err := decompressor.Decompress(nodeBytes, item.ReconstructedSize)
		if err != nil {
			return chainState{}, fmt.Errorf("packidx: decompressing base at offset %d: %w", item.Offset, err)
		}
		item.ID = hashObject(hashKind, item.ObjectKind, data)
		item.ReconstructedSize = uint64(len(data))
		return chainState{kind: item.ObjectKind, data: data}, nil
	}
}

// newChildFn builds the child_fn callback: decompress this node's delta
// instructions, apply them to the parent's reconstructed bytes, hash the
// result, and pass the reconstructed bytes on to this node's own
// children (a delta chain may be more than one link deep).
func newChildFn(hashKind hash.Kind, decompressor packdata.Decompressor) ChildFn[chainState] {
	return func(parent chainState, item *Item, nodeBytes []byte) (chainState, error) {
		deltaBytes, err := decompressor.Decompress(nodeBytes, item.ReconstructedSize)
		if err != nil {
			return chainState{}, fmt.Errorf("packidx: decompressing delta at offset %d: %w", item.Offset, err)
		}
		reconstructed, err := packdata.ApplyDelta(parent.data, deltaBytes)
		if err != nil {
			return chainState{}, fmt.Errorf("packidx: applying delta at offset %d: %w", item.Offset, err)
		}
		item.ObjectKind = parent.kind
		item.ID = hashObject(hashKind, parent.kind, reconstructed)
		item.ReconstructedSize = uint64(len(reconstructed))
		return chainState{kind: parent.kind, data: reconstructed}, nil
	}
}
