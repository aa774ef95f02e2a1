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

import "errors"

// Sentinel errors for the ingest/resolve invariants (spec §7's error
// taxonomy, IteratorInvariant* entries).
var (
	ErrNoRefDelta           = errors.New("packidx: input stream contains a reference delta, which is not supported")
	ErrBadBaseOffset        = errors.New("packidx: offset-delta's base offset is invalid or absent")
	ErrTooManyObjects       = errors.New("packidx: entry count exceeds the 32-bit object count limit")
	ErrNoBases              = errors.New("packidx: no base entries were seen during ingest")
	ErrNoTrailer            = errors.New("packidx: no pack trailer was observed during ingest")
	ErrUnsupportedIndexKind = errors.New("packidx: unsupported index kind requested")
)
