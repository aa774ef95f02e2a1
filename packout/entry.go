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
	"github.com/dolthub/gitpack/packdata"
)

// Entry is a self-contained pack entry ready for assembly into a pack
// file (spec §3). This pipeline only ever produces base entries --
// delta selection is explicit future work (spec §4.3) -- but the type
// carries enough to be fed straight into packidx for round-trip tests.
type Entry struct {
	ID               hash.Hash
	ObjectKind       objects.Kind
	DecompressedSize uint64
	// Header is the encoded variable-length entry header.
	Header []byte
	// CompressedData is the compressed payload following Header.
	CompressedData []byte
	// CRC32, when non-nil, is the CRC over Header||CompressedData.
	CRC32 *uint32
}

func newBaseEntry(id hash.Hash, kind objects.Kind, decompressedSize uint64, header, compressed []byte) Entry {
	crc := packdata.CRC32(header, compressed)
	return Entry{
		ID:               id,
		ObjectKind:       kind,
		DecompressedSize: decompressedSize,
		Header:           header,
		CompressedData:   compressed,
		CRC32:            &crc,
	}
}
