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
	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/objects"
)

// workerState is the per-worker resource bundle (spec §4.2 "per-worker
// resources"): one scratch buffer reused across lookups, one decode cache
// never shared with another worker.
type workerState struct {
	scratch []byte
	cache   objects.Cache
}

// Expand converts one input identifier into one or more pack entries
// according to opts.InputObjectExpansion (spec §4.2).
func Expand(db objects.Database, opts Options, st *workerState, id hash.Hash) ([]Entry, error) {
	obj, ok, err := db.Find(id, &st.scratch, st.cache)
	if err != nil {
		return nil, &objects.DatabaseLookupError{ID: id, Err: err}
	}
	if !ok {
		return nil, &objects.NotFoundError{ID: id}
	}

	switch opts.InputObjectExpansion {
	case TreeAdditionsComparedToAncestor:
		return nil, ErrUnimplementedExpansion
	case TreeContents:
		return expandTreeContents(db, opts, st, id, obj)
	default: // AsIs
		e, err := MakeEntry(db, opts.Version, opts.HashKind, opts.Compressor, id, obj)
		if err != nil {
			return nil, err
		}
		return []Entry{e}, nil
	}
}

// expandTreeContents implements the explicit Commit->Tree state machine
// spec §9 asks for in place of the source's recursive descent loop:
// terminal states {Blob, Tag} emit and stop, Commit transitions to its
// root Tree, and Tree is walked breadth-first.
func expandTreeContents(db objects.Database, opts Options, st *workerState, id hash.Hash, obj objects.Object) ([]Entry, error) {
	var out []Entry

	curID, curObj := id, obj
	for {
		e, err := MakeEntry(db, opts.Version, opts.HashKind, opts.Compressor, curID, curObj)
		if err != nil {
			return nil, err
		}
		out = append(out, e)

		switch curObj.Kind {
		case objects.KindCommit:
			commit, err := objects.ParseCommit(opts.HashKind, curObj.Data)
			if err != nil {
				return nil, &objects.TraversalError{ID: curID, Err: err}
			}
			treeObj, ok, err := db.Find(commit.RootTreeID, &st.scratch, st.cache)
			if err != nil {
				return nil, &objects.DatabaseLookupError{ID: commit.RootTreeID, Err: err}
			}
			if !ok {
				return nil, &objects.NotFoundError{ID: commit.RootTreeID}
			}
			curID, curObj = commit.RootTreeID, treeObj
			continue

		case objects.KindTree:
			children, err := walkAndMaterializeTree(db, opts, st, curID, curObj.Data)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
			return out, nil

		default: // Blob, Tag
			return out, nil
		}
	}
}

// walkAndMaterializeTree performs the breadth-first walk (spec §4.2) over
// rootData and materializes an entry for every distinct identifier it
// reaches. The seen-set is fresh for this call only: dedup is scoped to
// one input identifier's expansion, never shared across the chunk (spec
// §9 Open Question, resolved in DESIGN.md).
func walkAndMaterializeTree(db objects.Database, opts Options, st *workerState, rootID hash.Hash, rootData []byte) ([]Entry, error) {
	seen := map[hash.Hash]struct{}{rootID: {}}

	lookup := func(tid hash.Hash, scratch *[]byte) ([]byte, error) {
		tobj, ok, err := db.Find(tid, scratch, st.cache)
		if err != nil {
			return nil, &objects.DatabaseLookupError{ID: tid, Err: err}
		}
		if !ok {
			return nil, &objects.NotFoundError{ID: tid}
		}
		return tobj.Data, nil
	}

	ids, err := objects.WalkTreeContents(opts.HashKind, rootID, rootData, lookup, seen)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(ids))
	for _, cid := range ids {
		cobj, ok, err := db.Find(cid, &st.scratch, st.cache)
		if err != nil {
			return nil, &objects.DatabaseLookupError{ID: cid, Err: err}
		}
		if !ok {
			return nil, &objects.NotFoundError{ID: cid}
		}
		e, err := MakeEntry(db, opts.Version, opts.HashKind, opts.Compressor, cid, cobj)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
