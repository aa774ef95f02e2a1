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
	"runtime"

	"github.com/dolthub/gitpack/hash"
	"github.com/dolthub/gitpack/packdata"
	"github.com/dolthub/gitpack/packlog"
)

// Kind identifies an index file format. Only Default is implemented;
// anything else is rejected at entry (spec §6.3).
type Kind uint8

const Default Kind = 0

// defaultParallelThreshold mirrors the source's bytes_to_process > 5_000_000
// gate (spec §4.5) for deciding whether phase-2 resolution is worth the
// cost of spinning up worker goroutines.
const defaultParallelThreshold = 5_000_000

// Options configures WriteDataIterToStream.
type Options struct {
	IndexKind         Kind
	HashKind          hash.Kind
	ThreadLimit       int
	ParallelThreshold int64
	Decompressor      packdata.Decompressor
	Progress          Progress
	Logger            packlog.Logger
}

func (o Options) withDefaults() Options {
	if o.ThreadLimit <= 0 {
		o.ThreadLimit = runtime.NumCPU()
	}
	if o.ParallelThreshold <= 0 {
		o.ParallelThreshold = defaultParallelThreshold
	}
	if o.Decompressor == nil {
		o.Decompressor = packdata.ZlibDecompressor{}
	}
	if o.Progress == nil {
		o.Progress = NoopProgress{}
	}
	return o
}
