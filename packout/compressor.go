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
	"bytes"
	"compress/zlib"
	"fmt"
)

// Compressor is the black-box compression collaborator referenced by spec
// §1 ("compression (a black-box deflate encoder)"). It is the real seam:
// callers that already have a compression pipeline (pools of zlib
// writers, hardware-accelerated deflate, etc.) provide their own.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// ZlibCompressor is the default Compressor, backed by the standard
// library's compress/zlib. It exists because the pack wire format (spec
// §6.2) requires zlib-compatible bytes for the format to be valid, not
// because any example dependency offers a git-compatible deflate encoder
// (see DESIGN.md).
type ZlibCompressor struct{}

func (ZlibCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("packout: zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("packout: zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}
