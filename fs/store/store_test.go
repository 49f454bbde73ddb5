/*
   dos86 - Sector store tests.

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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundTrip(t *testing.T) {
	st := NewMemStore()
	_, ok := st.Get("0")
	assert.False(t, ok)

	st.Put("0", []uint8{1, 2, 3})
	data, ok := st.Get("0")
	require.True(t, ok)
	assert.Equal(t, []uint8{1, 2, 3}, data)

	// The store keeps its own copy.
	data[0] = 99
	again, _ := st.Get("0")
	assert.Equal(t, uint8(1), again[0])

	st.Delete("0")
	_, ok = st.Get("0")
	assert.False(t, ok)
}

func TestMemStorePrefix(t *testing.T) {
	st := NewMemStore()
	st.Put("10", nil)
	st.Put("11", nil)
	st.Put("20", nil)
	assert.Len(t, st.Keys("1"), 2)
	assert.Len(t, st.Keys(""), 3)
}

func TestFileStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.json")
	st, err := OpenFileStore(path)
	require.NoError(t, err)
	st.Put("0", []uint8{0xEB, 0x3C, 0x90})

	again, err := OpenFileStore(path)
	require.NoError(t, err)
	data, ok := again.Get("0")
	require.True(t, ok)
	assert.Equal(t, []uint8{0xEB, 0x3C, 0x90}, data)

	again.Delete("0")
	third, err := OpenFileStore(path)
	require.NoError(t, err)
	_, ok = third.Get("0")
	assert.False(t, ok)
}

// Payloads are base-64 in the backing file.
func TestFileStoreWireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.json")
	st, err := OpenFileStore(path)
	require.NoError(t, err)
	st.Put("7", []uint8("ABC"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "QUJD", decoded["7"])
}

func TestFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	st, err := OpenFileStore(path)
	require.NoError(t, err)
	_, ok := st.Get("0")
	assert.False(t, ok)
}
