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
	"context"
	"fmt"

	"github.com/dolthub/gitpack/dispatch"
	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/objects"
	"github.com/dolthub/gitpack/packdata"
)

// IDSource pulls the next identifier from the caller's iterator over an
// arbitrary object database; ok=false, err=nil is a clean end of input.
type IDSource func() (id hash.Hash, ok bool, err error)

// ObjectsToEntries is the public pipeline entry point (spec §2's data
// flow for pack generation): it cuts ids into chunks via dispatch.Run,
// expands and materializes each chunk's objects into pack Entries, and
// returns a lazy, order-preserving sequence of entries.
func ObjectsToEntries(ctx context.Context, db objects.Database, ids IDSource, opts Options) (*dispatch.ResultSeq[Entry], error) {
	opts = opts.withDefaults()
	if opts.Version != packdata.V2 {
		return nil, fmt.Errorf("packout: only pack data version 2 is supported, got %v", opts.Version)
	}

	dispatchOpts := dispatch.Options{
		ChunkSize:   opts.ChunkSize,
		ThreadLimit: opts.ThreadLimit,
		Logger:      opts.Logger,
	}

	seq := dispatch.Run[hash.Hash, *workerState, Entry](
		ctx,
		dispatch.NextFunc[hash.Hash](ids),
		dispatchOpts,
		func() (*workerState, error) {
			return &workerState{cache: opts.CacheFactory()}, nil
		},
		func(_ context.Context, chunk []hash.Hash, st *workerState) ([]Entry, error) {
			var out []Entry
			for _, id := range chunk {
				entries, err := Expand(db, opts, st, id)
				if err != nil {
					return nil, err
				}
				out = append(out, entries...)
			}
			return out, nil
		},
	)
	return seq, nil
}
