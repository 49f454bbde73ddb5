/*
   dos86 - Sector key/value store.

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

// Package store holds the durable backing for the emulated floppy. Keys are
// sector index strings, values are raw 512 byte payloads. A text backed
// store serialises payloads as base-64. Reads of an unwritten key report
// absence; the filesystem engine treats an absent sector as zero filled, so
// a blank store behaves like a freshly wiped disk.
package store

import (
	"strings"
	"sync"
)

// Store is the key/value contract the filesystem engine persists through.
type Store interface {
	// Get returns the payload for key, or ok=false when absent.
	Get(key string) (data []uint8, ok bool)
	// Put stores a payload under key.
	Put(key string, data []uint8)
	// Delete removes key. Removing an absent key is not an error.
	Delete(key string)
	// Keys returns all keys beginning with prefix, in no defined order.
	Keys(prefix string) []string
}

// MemStore keeps sectors in a map. Used by tests and the dosdisk tool
// when no file is attached.
type MemStore struct {
	mu   sync.Mutex
	data map[string][]uint8
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]uint8)}
}

func (s *MemStore) Get(key string) ([]uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	if !ok {
		return nil, false
	}
	out := make([]uint8, len(data))
	copy(out, data)
	return out, true
}

func (s *MemStore) Put(key string, data []uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make([]uint8, len(data))
	copy(keep, data)
	s.data[key] = keep
}

func (s *MemStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemStore) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}
