/*
   dos86 - File backed sector store.

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

package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// FileStore persists the sector map to a single JSON file. Payloads are
// base-64 in the file and raw bytes in memory. Every Put/Delete rewrites
// the file; at 1.44 MB a full rewrite is cheap and keeps the on-disk state
// consistent with the engine's flush-after-mutate rule.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string // key -> base-64 payload
}

// OpenFileStore loads path, creating an empty store when the file does not
// exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, data: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("disk store %s: %w", path, err)
	}
	if len(raw) != 0 {
		if err := json.Unmarshal(raw, &fs.data); err != nil {
			return nil, fmt.Errorf("disk store %s: %w", path, err)
		}
	}
	return fs, nil
}

func (s *FileStore) Get(key string) ([]uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc, ok := s.data[key]
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		// A corrupt sector reads as unwritten.
		return nil, false
	}
	return data, true
}

func (s *FileStore) Put(key string, data []uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = base64.StdEncoding.EncodeToString(data)
	s.save()
}

func (s *FileStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.save()
}

func (s *FileStore) Keys(prefix string) []string {
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

func (s *FileStore) save() {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, s.path)
}
