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

// Version is the pack data format version. Only V2 is supported anywhere
// in gitpack (spec §6.2, §6.4).
type Version uint32

const V2 Version = 2

// Signature is the 4-byte magic that opens every pack file.
var Signature = [4]byte{'P', 'A', 'C', 'K'}

// PreambleSize is the length, in bytes, of the fixed pack file preamble:
// signature + version + object count.
const PreambleSize = 4 + 4 + 4
