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

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Decompressor is the read-side counterpart of packout.Compressor: the
// black-box collaborator that inflates a pack entry's compressed payload
// (spec §1). packidx needs this during resolve to recover object bytes
// for hashing and delta application.
type Decompressor interface {
	Decompress(compressed []byte, decompressedSizeHint uint64) ([]byte, error)
}

// ZlibDecompressor is the default Decompressor, backed by the standard
// library's compress/zlib, for the same wire-format-compatibility reason
// ZlibCompressor is the default on the write side (see DESIGN.md).
type ZlibDecompressor struct{}

func (ZlibDecompressor) Decompress(compressed []byte, sizeHint uint64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("packdata: zlib decompress: %w", err)
	}
	defer r.Close()
	out := make([]byte, 0, sizeHint)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("packdata: zlib decompress: %w", err)
	}
	return buf.Bytes(), nil
}
