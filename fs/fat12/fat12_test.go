/*
   dos86 - FAT12 engine tests.

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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dos86/fs/store"
)

func newTestFS() *Filesystem {
	fs := New(store.NewMemStore())
	fs.Now = func() time.Time {
		return time.Date(1994, 6, 15, 10, 30, 42, 0, time.UTC)
	}
	fs.Format("TESTDISK")
	return fs
}

// requireMirrored checks both FATs are byte identical and carry the
// F0 FF FF head.
func requireMirrored(t *testing.T, fs *Filesystem) {
	t.Helper()
	for i := 0; i < SectorsPerFAT; i++ {
		f1 := fs.ReadSector(fat1Start + i)
		f2 := fs.ReadSector(fat2Start + i)
		require.True(t, bytes.Equal(f1, f2), "FAT sector %d differs between copies", i)
	}
	head := fs.ReadSector(fat1Start)
	require.Equal(t, []uint8{0xF0, 0xFF, 0xFF}, head[:3])
}

func TestFormatBootSector(t *testing.T) {
	fs := newTestFS()
	assert.True(t, fs.IsFormatted())

	boot := fs.ReadSector(0)
	assert.Equal(t, uint8(0xEB), boot[0])
	assert.Equal(t, uint8(0x3C), boot[1])
	assert.Equal(t, uint8(0x90), boot[2])
	assert.Equal(t, uint16(512), uint16(boot[11])|uint16(boot[12])<<8)
	assert.Equal(t, uint8(1), boot[13])
	assert.Equal(t, uint8(2), boot[16])
	assert.Equal(t, uint16(224), uint16(boot[17])|uint16(boot[18])<<8)
	assert.Equal(t, uint16(2880), uint16(boot[19])|uint16(boot[20])<<8)
	assert.Equal(t, uint8(0xF0), boot[21])
	assert.Equal(t, uint16(9), uint16(boot[22])|uint16(boot[23])<<8)
	assert.Equal(t, uint16(18), uint16(boot[24])|uint16(boot[25])<<8)
	assert.Equal(t, uint16(2), uint16(boot[26])|uint16(boot[27])<<8)
	assert.Equal(t, uint8(0x29), boot[38])
	assert.Equal(t, "FAT12   ", string(boot[54:62]))
	assert.Equal(t, uint8(0x55), boot[510])
	assert.Equal(t, uint8(0xAA), boot[511])
	assert.Equal(t, "TESTDISK", fs.VolumeLabel())
	requireMirrored(t, fs)
}

// Two formats yield bit identical boot and FAT sectors.
func TestFormatIdempotent(t *testing.T) {
	fs := newTestFS()
	first := [][]uint8{fs.ReadSector(0)}
	for i := 0; i < SectorsPerFAT; i++ {
		first = append(first, fs.ReadSector(fat1Start+i), fs.ReadSector(fat2Start+i))
	}
	fs.Format("TESTDISK")
	second := [][]uint8{fs.ReadSector(0)}
	for i := 0; i < SectorsPerFAT; i++ {
		second = append(second, fs.ReadSector(fat1Start+i), fs.ReadSector(fat2Start+i))
	}
	for i := range first {
		assert.True(t, bytes.Equal(first[i], second[i]), "sector group %d differs", i)
	}
}

// S2: single small file round trip.
func TestWriteReadSmall(t *testing.T) {
	fs := newTestFS()
	require.NoError(t, fs.WriteFile(nil, "A.TXT", []uint8{0x41, 0x42, 0x43}))

	entries, err := fs.ListDir(nil)
	require.NoError(t, err)
	require.Len(t, entries, 1) // Volume label entry is filtered out.
	assert.Equal(t, "A.TXT", entries[0].Name)
	assert.Equal(t, uint8(AttrArchive), entries[0].Attr)
	assert.Equal(t, uint32(3), entries[0].Size)
	assert.Equal(t, uint16(2), entries[0].Cluster)

	data, err := fs.ReadFile(nil, "A.TXT")
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x41, 0x42, 0x43}, data)
	requireMirrored(t, fs)
}

// S3: a 1500 byte file occupies clusters 2, 3, 4 with a terminal mark.
func TestClusterChain(t *testing.T) {
	fs := newTestFS()
	data := make([]uint8, 1500)
	for i := range data {
		data[i] = uint8(i * 7)
	}
	require.NoError(t, fs.WriteFile(nil, "B.BIN", data))

	entry, err := fs.Stat(nil, "B.BIN")
	require.NoError(t, err)
	assert.Equal(t, uint16(2), entry.Cluster)
	assert.Equal(t, uint16(3), fs.fatGet(2))
	assert.Equal(t, uint16(4), fs.fatGet(3))
	assert.GreaterOrEqual(t, fs.fatGet(4), uint16(0xFF8))

	got, err := fs.ReadFile(nil, "B.BIN")
	require.NoError(t, err)
	assert.Equal(t, data, got)
	requireMirrored(t, fs)
}

// Chain length times 512 brackets the file size.
func TestChainLengthInvariant(t *testing.T) {
	fs := newTestFS()
	for _, size := range []int{1, 511, 512, 513, 1024, 5000} {
		name := "F.DAT"
		require.NoError(t, fs.WriteFile(nil, name, make([]uint8, size)))
		entry, err := fs.Stat(nil, name)
		require.NoError(t, err)
		chain := 0
		for c := entry.Cluster; c >= 2 && c < endOfChain; c = fs.fatGet(c) {
			chain++
		}
		assert.GreaterOrEqual(t, chain*SectorSize, size, "size %d", size)
		assert.Less(t, (chain-1)*SectorSize, size, "size %d", size)
	}
}

// Rewriting a file frees its old chain.
func TestRewriteReleasesClusters(t *testing.T) {
	fs := newTestFS()
	free := fs.FreeClusters()
	require.NoError(t, fs.WriteFile(nil, "A.TXT", make([]uint8, 4096)))
	require.NoError(t, fs.WriteFile(nil, "A.TXT", []uint8{1}))
	assert.Equal(t, free-1, fs.FreeClusters())
}

func TestDeleteFreesChain(t *testing.T) {
	fs := newTestFS()
	free := fs.FreeClusters()
	require.NoError(t, fs.WriteFile(nil, "A.TXT", make([]uint8, 2000)))
	assert.Equal(t, free-4, fs.FreeClusters())

	found, err := fs.Delete(nil, "A.TXT")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, free, fs.FreeClusters())

	found, err = fs.Delete(nil, "A.TXT")
	require.NoError(t, err)
	assert.False(t, found)
	requireMirrored(t, fs)
}

func TestRename(t *testing.T) {
	fs := newTestFS()
	require.NoError(t, fs.WriteFile(nil, "OLD.TXT", []uint8{1, 2, 3}))
	entry, err := fs.Stat(nil, "OLD.TXT")
	require.NoError(t, err)

	require.NoError(t, fs.Rename(nil, "OLD.TXT", "NEW.TXT"))
	_, err = fs.Stat(nil, "OLD.TXT")
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := fs.Stat(nil, "NEW.TXT")
	require.NoError(t, err)
	assert.Equal(t, entry.Cluster, renamed.Cluster)
	assert.Equal(t, entry.Size, renamed.Size)

	require.NoError(t, fs.WriteFile(nil, "OTHER.TXT", []uint8{9}))
	assert.ErrorIs(t, fs.Rename(nil, "OTHER.TXT", "NEW.TXT"), ErrExists)
}

func TestMkdirAndNesting(t *testing.T) {
	fs := newTestFS()
	require.NoError(t, fs.Mkdir(nil, "SUB"))
	assert.ErrorIs(t, fs.Mkdir(nil, "sub"), ErrExists)

	entry, err := fs.Stat(nil, "SUB")
	require.NoError(t, err)
	assert.True(t, entry.IsDir())

	// Dot entries are present in the new directory.
	entries, err := fs.ListDir([]string{"SUB"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ".", entries[0].Name)
	assert.Equal(t, "..", entries[1].Name)

	require.NoError(t, fs.WriteFile([]string{"SUB"}, "DEEP.TXT", []uint8{0xAA}))
	data, err := fs.ReadFile([]string{"SUB"}, "DEEP.TXT")
	require.NoError(t, err)
	assert.Equal(t, []uint8{0xAA}, data)

	require.NoError(t, fs.Mkdir([]string{"SUB"}, "SUB2"))
	require.NoError(t, fs.WriteFile([]string{"SUB", "SUB2"}, "X.TXT", []uint8{1}))

	_, err = fs.ListDir([]string{"NOPE"})
	assert.ErrorIs(t, err, ErrPathNotFound)
	requireMirrored(t, fs)
}

func TestCaseInsensitiveLookup(t *testing.T) {
	fs := newTestFS()
	require.NoError(t, fs.WriteFile(nil, "hello.txt", []uint8{1}))
	entry, err := fs.Stat(nil, "HELLO.TXT")
	require.NoError(t, err)
	assert.Equal(t, "HELLO.TXT", entry.Name)
}

func TestDiskFull(t *testing.T) {
	fs := newTestFS()
	// One file large enough to exhaust all data clusters.
	huge := make([]uint8, (maxCluster-2)*SectorSize)
	require.NoError(t, fs.WriteFile(nil, "BIG.BIN", huge))
	assert.Equal(t, 0, fs.FreeClusters())

	err := fs.WriteFile(nil, "MORE.BIN", []uint8{1})
	assert.ErrorIs(t, err, ErrDiskFull)

	// The failed write must not leak clusters or a directory entry.
	found, err := fs.Delete(nil, "BIG.BIN")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, maxCluster-2, fs.FreeClusters())
	_, err = fs.Stat(nil, "MORE.BIN")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryFull(t *testing.T) {
	fs := New(store.NewMemStore())
	fs.Now = time.Now
	fs.Format("") // No volume label so all 224 root slots are free.
	for i := 0; i < RootEntries; i++ {
		name := string([]uint8{'A' + uint8(i/26%26), 'A' + uint8(i%26), '0' + uint8(i/676)})
		require.NoError(t, fs.WriteFile(nil, name, nil))
	}
	err := fs.WriteFile(nil, "FULL.TXT", nil)
	assert.ErrorIs(t, err, ErrDirectoryFull)
}

func TestEmptyFileHasNoChain(t *testing.T) {
	fs := newTestFS()
	require.NoError(t, fs.WriteFile(nil, "EMPTY", nil))
	entry, err := fs.Stat(nil, "EMPTY")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), entry.Cluster)
	data, err := fs.ReadFile(nil, "EMPTY")
	require.NoError(t, err)
	assert.Empty(t, data)
}

// State survives reattaching a fresh engine to the same store.
func TestPersistence(t *testing.T) {
	st := store.NewMemStore()
	fs := New(st)
	fs.Format("KEEP")
	require.NoError(t, fs.WriteFile(nil, "SAVED.TXT", []uint8("hello")))

	again := New(st)
	assert.True(t, again.IsFormatted())
	data, err := again.ReadFile(nil, "SAVED.TXT")
	require.NoError(t, err)
	assert.Equal(t, []uint8("hello"), data)
	assert.Equal(t, "KEEP", again.VolumeLabel())
}

// A blank store reads as an unformatted disk, not an error.
func TestBlankStore(t *testing.T) {
	fs := New(store.NewMemStore())
	assert.False(t, fs.IsFormatted())
	sec := fs.ReadSector(100)
	assert.Equal(t, make([]uint8, SectorSize), sec)
}

func TestTimestampPacking(t *testing.T) {
	fs := newTestFS()
	require.NoError(t, fs.WriteFile(nil, "T.TXT", []uint8{1}))
	entry, err := fs.Stat(nil, "T.TXT")
	require.NoError(t, err)
	// 1994-06-15 10:30:42.
	assert.Equal(t, uint16(10<<11|30<<5|21), entry.Time)
	assert.Equal(t, uint16(14<<9|6<<5|15), entry.Date)
}

func TestFatEntryPacking(t *testing.T) {
	fs := newTestFS()
	fs.fatSet(2, 0xABC)
	fs.fatSet(3, 0x123)
	assert.Equal(t, uint16(0xABC), fs.fatGet(2))
	assert.Equal(t, uint16(0x123), fs.fatGet(3))
	// Neighbours must not bleed into each other.
	fs.fatSet(2, 0)
	assert.Equal(t, uint16(0x123), fs.fatGet(3))
	// An entry straddling a sector boundary: offset 3c/2 around 512.
	fs.fatSet(341, 0xFFF)
	fs.fatSet(342, 0x456)
	assert.Equal(t, uint16(0xFFF), fs.fatGet(341))
	assert.Equal(t, uint16(0x456), fs.fatGet(342))
}
