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
	"os"
)

// NewFileResolver builds a MakeResolver that reads entry byte ranges back
// from the completed pack file at path via ReadAt, closing the file once
// the caller is done with it. Opening is deferred to the returned factory
// so a caller can finish writing (flush, fsync, rename into place) before
// WriteDataIterToStream's resolve phase ever opens the file for reading.
func NewFileResolver(path string) (MakeResolver, func() error) {
	var f *os.File
	closeFn := func() error {
		if f == nil {
			return nil
		}
		return f.Close()
	}
	return func() (Resolver, error) {
		opened, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("packidx: opening pack file %s: %w", path, err)
		}
		f = opened
		return func(r ByteRange, scratch *[]byte) ([]byte, error) {
			n := int(r.End - r.Start)
			if cap(*scratch) < n {
				*scratch = make([]byte, n)
			}
			buf := (*scratch)[:n]
			if _, err := f.ReadAt(buf, int64(r.Start)); err != nil {
				return nil, fmt.Errorf("packidx: reading pack range [%d,%d): %w", r.Start, r.End, err)
			}
			return buf, nil
		}, nil
	}, closeFn
}
