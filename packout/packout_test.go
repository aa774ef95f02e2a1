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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/objects"
	"github.com/dolthub/gitpack/packdata"
)

// fakeDatabase is a minimal in-memory objects.Database, matching the
// teacher's hand-written fake-store-for-tests pattern (nbs/archive_test.go
// testChunkSource) rather than a generated mock.
type fakeDatabase struct {
	objs       map[hash.Hash]objects.Object
	packEntry  map[hash.Hash]objects.StoredEntry
	findErrors map[hash.Hash]error
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		objs:       map[hash.Hash]objects.Object{},
		packEntry:  map[hash.Hash]objects.StoredEntry{},
		findErrors: map[hash.Hash]error{},
	}
}

func (f *fakeDatabase) put(data []byte, kind objects.Kind) hash.Hash {
	id := hash.Of(hash.Sha1, data)
	f.objs[id] = objects.Object{Kind: kind, Data: data}
	return id
}

func (f *fakeDatabase) Find(id hash.Hash, scratch *[]byte, cache objects.Cache) (objects.Object, bool, error) {
	if err, ok := f.findErrors[id]; ok {
		return objects.Object{}, false, err
	}
	obj, ok := f.objs[id]
	return obj, ok, nil
}

func (f *fakeDatabase) PackEntry(obj objects.Object) (objects.StoredEntry, bool) {
	id := hash.Of(hash.Sha1, obj.Data)
	e, ok := f.packEntry[id]
	return e, ok
}

func encodeTreeEntry(name string, mode uint32, id hash.Hash) []byte {
	buf := make([]byte, 4+2+len(name)+len(id.Bytes()))
	binary.BigEndian.PutUint32(buf, mode)
	binary.BigEndian.PutUint16(buf[4:], uint16(len(name)))
	copy(buf[6:], name)
	copy(buf[6+len(name):], id.Bytes())
	return buf
}

func encodeCommit(root hash.Hash, parents ...hash.Hash) []byte {
	data := append([]byte(nil), root.Bytes()...)
	count := make([]byte, 4)
	binary.BigEndian.PutUint32(count, uint32(len(parents)))
	data = append(data, count...)
	for _, p := range parents {
		data = append(data, p.Bytes()...)
	}
	return data
}

func baseOptions() Options {
	return Options{
		Version:  packdata.V2,
		HashKind: hash.Sha1,
	}
}

func TestExpandAsIsOneEntryPerInput(t *testing.T) {
	db := newFakeDatabase()
	idA := db.put([]byte("hello"), objects.KindBlob)
	idB := db.put([]byte("world"), objects.KindBlob)

	opts := baseOptions().withDefaults()
	st := &workerState{cache: opts.CacheFactory()}

	for _, id := range []hash.Hash{idA, idB} {
		entries, err := Expand(db, opts, st, id)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].ID.Equal(id))
		assert.Equal(t, objects.KindBlob, entries[0].ObjectKind)
	}
}

func TestExpandAsIsNotFound(t *testing.T) {
	db := newFakeDatabase()
	opts := baseOptions().withDefaults()
	st := &workerState{cache: opts.CacheFactory()}

	missing := hash.Of(hash.Sha1, []byte("nope"))
	_, err := Expand(db, opts, st, missing)
	require.Error(t, err)
	var nf *objects.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestExpandTreeContentsOfCommit(t *testing.T) {
	db := newFakeDatabase()
	blobA := db.put([]byte("blob-a"), objects.KindBlob)
	blobB := db.put([]byte("blob-b"), objects.KindBlob)

	treeData := append(
		encodeTreeEntry("a", 0o100644, blobA),
		encodeTreeEntry("b", 0o100644, blobB)...,
	)
	treeID := db.put(treeData, objects.KindTree)
	commitData := encodeCommit(treeID)
	commitID := db.put(commitData, objects.KindCommit)

	opts := baseOptions()
	opts.InputObjectExpansion = TreeContents
	opts = opts.withDefaults()
	st := &workerState{cache: opts.CacheFactory()}

	entries, err := Expand(db, opts, st, commitID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.True(t, entries[0].ID.Equal(commitID))
	assert.True(t, entries[1].ID.Equal(treeID))
	assert.True(t, entries[2].ID.Equal(blobA))
	assert.True(t, entries[3].ID.Equal(blobB))
}

func TestExpandTreeContentsOfTreeDirectly(t *testing.T) {
	db := newFakeDatabase()
	blob := db.put([]byte("leaf"), objects.KindBlob)
	treeData := encodeTreeEntry("leaf", 0o100644, blob)
	treeID := db.put(treeData, objects.KindTree)

	opts := baseOptions()
	opts.InputObjectExpansion = TreeContents
	opts = opts.withDefaults()
	st := &workerState{cache: opts.CacheFactory()}

	entries, err := Expand(db, opts, st, treeID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].ID.Equal(treeID))
	assert.True(t, entries[1].ID.Equal(blob))
}

func TestExpandTreeContentsDedupWithinOneExpansion(t *testing.T) {
	db := newFakeDatabase()
	shared := db.put([]byte("shared-blob"), objects.KindBlob)
	subTreeData := encodeTreeEntry("shared", 0o100644, shared)
	subTreeID := db.put(subTreeData, objects.KindTree)
	rootData := append(
		encodeTreeEntry("sub1", objects.ModeTree, subTreeID),
		encodeTreeEntry("sub2", objects.ModeTree, subTreeID)...,
	)
	rootID := db.put(rootData, objects.KindTree)

	opts := baseOptions()
	opts.InputObjectExpansion = TreeContents
	opts = opts.withDefaults()
	st := &workerState{cache: opts.CacheFactory()}

	entries, err := Expand(db, opts, st, rootID)
	require.NoError(t, err)
	// root, sub1 (subTreeID), sub2 is a duplicate reference to the same
	// subTreeID and must not be re-emitted, nor its child re-emitted twice.
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID.String()
	}
	assert.Len(t, ids, 3, "expected root + subtree + shared blob, got %v", ids)
}

func TestExpandUnimplementedTreeAdditions(t *testing.T) {
	db := newFakeDatabase()
	id := db.put([]byte("x"), objects.KindBlob)
	opts := baseOptions()
	opts.InputObjectExpansion = TreeAdditionsComparedToAncestor
	opts = opts.withDefaults()
	st := &workerState{cache: opts.CacheFactory()}

	_, err := Expand(db, opts, st, id)
	assert.ErrorIs(t, err, ErrUnimplementedExpansion)
}

func TestMakeEntryPackToPackCopyFastPath(t *testing.T) {
	db := newFakeDatabase()
	data := []byte("reuse me please")
	obj := objects.Object{Kind: objects.KindBlob, Data: data}
	id := hash.Of(hash.Sha1, data)

	header, err := packdata.EncodeBaseHeader(nil, objects.KindBlob, uint64(len(data)))
	require.NoError(t, err)
	compressed := ZlibCompressor{}
	payload, err := compressed.Compress(data)
	require.NoError(t, err)

	full := append(append([]byte(nil), header...), payload...)
	crc := packdata.CRC32(header, payload)
	db.packEntry[id] = objects.StoredEntry{
		Version:    2,
		IsDelta:    false,
		Data:       full,
		HeaderSize: len(header),
		CRC32:      &crc,
	}

	entry, err := MakeEntry(db, packdata.V2, hash.Sha1, ZlibCompressor{}, id, obj)
	require.NoError(t, err)
	assert.Equal(t, payload, entry.CompressedData)
}

func TestMakeEntryPackToPackCrcMismatch(t *testing.T) {
	db := newFakeDatabase()
	data := []byte("corrupted")
	obj := objects.Object{Kind: objects.KindBlob, Data: data}
	id := hash.Of(hash.Sha1, data)

	header, err := packdata.EncodeBaseHeader(nil, objects.KindBlob, uint64(len(data)))
	require.NoError(t, err)
	payload, err := (ZlibCompressor{}).Compress(data)
	require.NoError(t, err)
	full := append(append([]byte(nil), header...), payload...)
	badCRC := uint32(0xdeadbeef)
	db.packEntry[id] = objects.StoredEntry{
		Version:    2,
		Data:       full,
		HeaderSize: len(header),
		CRC32:      &badCRC,
	}

	_, err = MakeEntry(db, packdata.V2, hash.Sha1, ZlibCompressor{}, id, obj)
	require.Error(t, err)
	var mismatch *PackToPackCrcMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestMakeEntrySlowPathCompressesFresh(t *testing.T) {
	db := newFakeDatabase()
	data := []byte("never stored before")
	obj := objects.Object{Kind: objects.KindBlob, Data: data}
	id := hash.Of(hash.Sha1, data)

	entry, err := MakeEntry(db, packdata.V2, hash.Sha1, ZlibCompressor{}, id, obj)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.CompressedData)
	assert.NotNil(t, entry.CRC32)
}

func TestObjectsToEntriesTwoBlobsInOrder(t *testing.T) {
	db := newFakeDatabase()
	idA := db.put([]byte("37d4e6"), objects.KindBlob)
	idB := db.put([]byte("501b29"), objects.KindBlob)

	ids := []hash.Hash{idA, idB}
	i := 0
	next := IDSource(func() (hash.Hash, bool, error) {
		if i >= len(ids) {
			return hash.Hash{}, false, nil
		}
		v := ids[i]
		i++
		return v, true, nil
	})

	seq, err := ObjectsToEntries(context.Background(), db, next, baseOptions())
	require.NoError(t, err)

	var got []Entry
	for {
		e, ok, err := seq.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, e)
	}
	require.Len(t, got, 2)
	assert.True(t, got[0].ID.Equal(idA))
	assert.True(t, got[1].ID.Equal(idB))
}
