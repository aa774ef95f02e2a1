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
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dolthub/gitpack/hash"
)

// LRUCache is a ready-made Cache a Database implementation can use to
// amortize delta-base reconstruction, instead of hand-rolling one. gitpack
// itself never calls its methods; Get, Add and Purge are for the Database
// on the other side of the Find call to use.
type LRUCache struct {
	inner *lru.Cache[hash.Hash, Object]
}

// NewLRUCacheFactory returns a CacheFactory that builds one fixed-size
// LRUCache per call, matching the "factory, not instance"
// contract worker pools require (spec's per-worker decode cache).
func NewLRUCacheFactory(size int) CacheFactory {
	return func() Cache {
		c, err := lru.New[hash.Hash, Object](size)
		if err != nil {
			// Only returned by golang-lru when size <= 0; callers own
			// choosing a sane size, so fall back to a single-entry cache
			// rather than propagating a constructor error through Cache.
			c, _ = lru.New[hash.Hash, Object](1)
		}
		return &LRUCache{inner: c}
	}
}

// Get returns the cached object for id, if present.
func (c *LRUCache) Get(id hash.Hash) (Object, bool) {
	return c.inner.Get(id)
}

// Add inserts or updates the cached entry for id.
func (c *LRUCache) Add(id hash.Hash, obj Object) {
	c.inner.Add(id, obj)
}

// Purge discards every cached entry.
func (c *LRUCache) Purge() {
	c.inner.Purge()
}
