/*
   dos86 - Sector cache over the key/value store.

   Copyright 2026, the dos86 authors

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package fat12

import (
	"strconv"

	"dos86/fs/store"
)

// sectorCache lazily faults sectors in from the store and tracks which
// ones have been modified. An unwritten sector reads as all zero. Flush
// writes every dirty sector back; all-zero sectors are stored as an absent
// key so a freshly formatted disk stays small on disk.
type sectorCache struct {
	st     store.Store
	sector map[int][]uint8
	dirty  map[int]bool
}

func newSectorCache(st store.Store) *sectorCache {
	return &sectorCache{
		st:     st,
		sector: make(map[int][]uint8),
		dirty:  make(map[int]bool),
	}
}

func sectorKey(lba int) string {
	return strconv.Itoa(lba)
}

// get returns the cached sector, faulting it in on first touch. The
// returned slice is the cache's own buffer; callers that modify it must
// go through put.
func (c *sectorCache) get(lba int) []uint8 {
	if sec, ok := c.sector[lba]; ok {
		return sec
	}
	sec := make([]uint8, SectorSize)
	if data, ok := c.st.Get(sectorKey(lba)); ok {
		copy(sec, data)
	}
	c.sector[lba] = sec
	return sec
}

// put replaces a sector and marks it dirty.
func (c *sectorCache) put(lba int, data []uint8) {
	sec := make([]uint8, SectorSize)
	copy(sec, data)
	c.sector[lba] = sec
	c.dirty[lba] = true
}

// mark flags an already cached sector that was modified in place.
func (c *sectorCache) mark(lba int) {
	c.dirty[lba] = true
}

// wipe discards everything, in cache and in the store.
func (c *sectorCache) wipe() {
	for _, key := range c.st.Keys("") {
		c.st.Delete(key)
	}
	c.sector = make(map[int][]uint8)
	c.dirty = make(map[int]bool)
}

// flush writes all dirty sectors to the store and clears the dirty set.
func (c *sectorCache) flush() {
	for lba := range c.dirty {
		sec := c.sector[lba]
		if allZero(sec) {
			c.st.Delete(sectorKey(lba))
		} else {
			c.st.Put(sectorKey(lba), sec)
		}
	}
	c.dirty = make(map[int]bool)
}

func allZero(data []uint8) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
