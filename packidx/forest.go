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
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dolthub/gitpack/objects"
)

// forestNode is one entry recorded during ingest: either a root (base
// pack entry) or a child (offset-delta) hanging off an earlier root.
type forestNode struct {
	offset           uint64
	crc32            uint32
	isBase           bool
	objectKind       objects.Kind // valid only when isBase
	headerSize       int
	compressedLen    int
	decompressedSize uint64
	parentIdx        int // index into Forest.nodes, -1 for roots
	childIdx         []int
}

// Forest is the delta tree the index builder populates during ingest
// (spec §4.4, §9): backed by an offset-sorted array plus binary search
// rather than a hash map, so "node at parent_offset" is a log-N probe
// and a root's subtree is the set of descendant indices reached by
// following childIdx, not a map traversal. Those indices are not
// necessarily contiguous: another root's nodes can lie between them.
//
// S is the per-node state threaded from a base down its delta chain
// during Traverse (spec §4.4's base_state/child_base_state).
type Forest[S any] struct {
	nodes []forestNode
}

// NewForest pre-sizes the backing array to the given lower-bound entry
// count hint (spec §4.4's with_capacity).
func NewForest[S any](capacityHint int) *Forest[S] {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Forest[S]{nodes: make([]forestNode, 0, capacityHint)}
}

// Len reports the number of nodes inserted so far.
func (f *Forest[S]) Len() int { return len(f.nodes) }

// indexOf returns the index of the node at offset via binary search over
// the offset-sorted backing array, matching spec §9's design note.
func (f *Forest[S]) indexOf(offset uint64) (int, bool) {
	i := sort.Search(len(f.nodes), func(i int) bool { return f.nodes[i].offset >= offset })
	if i < len(f.nodes) && f.nodes[i].offset == offset {
		return i, true
	}
	return i, false
}

// AddRoot inserts a base entry. Ingest delivers offsets in strictly
// increasing pack order (a pack offset is unique and monotonically
// increasing within a pack, spec §9), so insertion is always an append;
// that invariant is checked rather than assumed.
func (f *Forest[S]) AddRoot(offset uint64, crc32 uint32, objectKind objects.Kind, headerSize, compressedLen int, decompressedSize uint64) error {
	if err := f.checkMonotonic(offset); err != nil {
		return err
	}
	f.nodes = append(f.nodes, forestNode{
		offset:           offset,
		crc32:            crc32,
		isBase:           true,
		objectKind:       objectKind,
		headerSize:       headerSize,
		compressedLen:    compressedLen,
		decompressedSize: decompressedSize,
		parentIdx:        -1,
	})
	return nil
}

// AddChild inserts a delta entry whose parent must already be present at
// exactly parentOffset (spec §4.4: "no nearest preceding base heuristic").
func (f *Forest[S]) AddChild(parentOffset, childOffset uint64, crc32 uint32, headerSize, compressedLen int, decompressedSize uint64) error {
	if parentOffset >= childOffset {
		return fmt.Errorf("%w: parent offset %d is not less than child offset %d", ErrBadBaseOffset, parentOffset, childOffset)
	}
	parentIdx, found := f.indexOf(parentOffset)
	if !found {
		return fmt.Errorf("%w: no node at parent offset %d", ErrBadBaseOffset, parentOffset)
	}
	if err := f.checkMonotonic(childOffset); err != nil {
		return err
	}
	childIdx := len(f.nodes)
	f.nodes = append(f.nodes, forestNode{
		offset:           childOffset,
		crc32:            crc32,
		isBase:           false,
		headerSize:       headerSize,
		compressedLen:    compressedLen,
		decompressedSize: decompressedSize,
		parentIdx:        parentIdx,
	})
	f.nodes[parentIdx].childIdx = append(f.nodes[parentIdx].childIdx, childIdx)
	return nil
}

func (f *Forest[S]) checkMonotonic(offset uint64) error {
	if len(f.nodes) > 0 && offset <= f.nodes[len(f.nodes)-1].offset {
		return fmt.Errorf("packidx: offsets must be strictly increasing, got %d after %d", offset, f.nodes[len(f.nodes)-1].offset)
	}
	return nil
}

// BaseFn computes a base node's identifier and seeds the state its
// children will consume.
type BaseFn[S any] func(item *Item, nodeBytes []byte) (S, error)

// ChildFn computes a delta node's identifier from its parent's state and
// returns the state this node's own children should consume.
type ChildFn[S any] func(parentState S, item *Item, nodeBytes []byte) (S, error)

// Traverse visits every base and, depth-first, every transitive child
// (spec §4.4). Each node's compressed byte range is resolved via
// resolver; packEndOffset bounds the final entry's slice. When parallel
// is true, roots are distributed across up to threadLimit goroutines;
// an entire subtree stays on one goroutine since children depend on
// their parent's reconstructed bytes.
func (f *Forest[S]) Traverse(ctx context.Context, parallel bool, threadLimit int, resolver Resolver, packEndOffset uint64, progress Progress, baseFn BaseFn[S], childFn ChildFn[S]) ([]Item, error) {
	if progress == nil {
		progress = NoopProgress{}
	}
	items := make([]Item, len(f.nodes))

	var roots []int
	for i, n := range f.nodes {
		if n.parentIdx == -1 {
			roots = append(roots, i)
		}
	}

	process := func(rootIdx int) error {
		return f.resolveSubtree(rootIdx, resolver, packEndOffset, progress, baseFn, childFn, items)
	}

	if !parallel || threadLimit <= 1 {
		for _, r := range roots {
			if err := process(r); err != nil {
				return nil, err
			}
		}
		return items, nil
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(threadLimit)
	for _, r := range roots {
		r := r
		eg.Go(func() error {
			return process(r)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// resolveSubtree walks one root's entire subtree with an explicit stack,
// never recursion, so delta chain depth never grows the call stack.
func (f *Forest[S]) resolveSubtree(rootIdx int, resolver Resolver, packEndOffset uint64, progress Progress, baseFn BaseFn[S], childFn ChildFn[S], items []Item) error {
	type frame struct {
		idx         int
		parentState S
	}
	stack := []frame{{idx: rootIdx}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := f.nodes[cur.idx]
		rng := f.byteRange(cur.idx, packEndOffset)
		var scratch []byte
		raw, err := resolver(rng, &scratch)
		if err != nil {
			return fmt.Errorf("packidx: resolving bytes at offset %d: %w", n.offset, err)
		}

		item := &items[cur.idx]
		item.Offset = n.offset
		item.CRC32 = n.crc32

		var state S
		if n.parentIdx == -1 {
			item.ObjectKind = n.objectKind
			state, err = baseFn(item, raw)
		} else {
			state, err = childFn(cur.parentState, item, raw)
		}
		if err != nil {
			return err
		}
		progress.Inc(1)

		for i := len(n.childIdx) - 1; i >= 0; i-- {
			stack = append(stack, frame{idx: n.childIdx[i], parentState: state})
		}
	}
	return nil
}

func (f *Forest[S]) byteRange(idx int, packEndOffset uint64) ByteRange {
	n := f.nodes[idx]
	start := n.offset + uint64(n.headerSize)
	end := start + uint64(n.compressedLen)
	if end > packEndOffset {
		end = packEndOffset
	}
	return ByteRange{Start: start, End: end}
}
