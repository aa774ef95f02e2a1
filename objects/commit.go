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

package objects

import (
	"encoding/binary"
	"fmt"

	"github.com/dolthub/gitpack/hash"
)

// Commit is the parsed form of a Commit object's decompressed bytes: a
// reference to exactly one root Tree plus zero or more parent Commits
// (spec §3).
type Commit struct {
	RootTreeID hash.Hash
	ParentIDs  []hash.Hash
}

// ParseCommit decodes a Commit's root tree and parent identifiers out of
// its object bytes. The layout mirrors ParseTree's style: the root tree id
// first, then a count-prefixed run of parent ids, all fixed-width per kind.
func ParseCommit(kind hash.Kind, data []byte) (Commit, error) {
	var c Commit
	idSize := kind.Size()
	if len(data) < idSize+4 {
		return c, fmt.Errorf("objects: commit body too short (%d bytes)", len(data))
	}
	off := 0
	rootID, err := hash.New(kind, data[off:off+idSize])
	if err != nil {
		return c, fmt.Errorf("objects: commit root tree id: %w", err)
	}
	off += idSize
	c.RootTreeID = rootID

	numParents := int(binary.BigEndian.Uint32(data[off:]))
	off += 4
	for i := 0; i < numParents; i++ {
		if off+idSize > len(data) {
			return c, fmt.Errorf("objects: commit truncated reading parent %d of %d", i, numParents)
		}
		pid, err := hash.New(kind, data[off:off+idSize])
		if err != nil {
			return c, fmt.Errorf("objects: commit parent %d id: %w", i, err)
		}
		c.ParentIDs = append(c.ParentIDs, pid)
		off += idSize
	}
	return c, nil
}
