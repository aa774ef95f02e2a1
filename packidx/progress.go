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

// Progress is the hierarchical counter sink referenced by interface only
// (spec §1's "progress reporting" external collaborator, threaded through
// Forest.Traverse and WriteDataIterToStream per spec §4.4/§4.5). This repo
// never implements a concrete renderer; NoopProgress is the default.
type Progress interface {
	Inc(delta int64)
}

// NoopProgress discards every increment.
type NoopProgress struct{}

func (NoopProgress) Inc(int64) {}
