/*
   dos86 - FAT12 floppy filesystem engine.

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

// Package fat12 implements the standard 1.44 MB floppy layout: a boot
// sector carrying the BPB, two mirrored FATs with 12 bit entries, a fixed
// 224 slot root directory and 512 byte data clusters. Sectors persist one
// at a time through a write-through cache over a key/value store.
package fat12

import (
	"errors"
	"strings"
	"time"

	"dos86/fs/store"
)

// Geometry of a 3.5 inch high density floppy.
const (
	SectorSize      = 512
	TotalSectors    = 2880
	SectorsPerFAT   = 9
	NumFATs         = 2
	RootEntries     = 224
	ReservedSectors = 1
	SectorsPerTrack = 18
	Heads           = 2
	MediaDescriptor = 0xF0

	fat1Start   = 1
	fat2Start   = fat1Start + SectorsPerFAT
	rootStart   = fat2Start + SectorsPerFAT
	rootSectors = RootEntries * 32 / SectorSize
	dataStart   = rootStart + rootSectors

	// First cluster index past the end of the data area.
	maxCluster = (TotalSectors-dataStart)/1 + 2

	// TotalClusters is the number of allocatable data clusters.
	TotalClusters = maxCluster - 2

	// Any FAT entry at or above this value terminates a chain.
	endOfChain = 0xFF8
)

var (
	ErrDiskFull      = errors.New("disk full")
	ErrDirectoryFull = errors.New("directory full")
	ErrExists        = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrPathNotFound  = errors.New("path not found")
)

// Filesystem is the FAT12 engine. All mutating public operations flush the
// sector cache before returning, so externally observable state is always
// consistent.
type Filesystem struct {
	cache *sectorCache

	// Now supplies directory stamps. Tests pin it.
	Now func() time.Time
}

// New attaches an engine to a sector store.
func New(st store.Store) *Filesystem {
	return &Filesystem{
		cache: newSectorCache(st),
		Now:   time.Now,
	}
}

// IsFormatted reports whether sector 0 begins with the boot jump opcode.
func (fs *Filesystem) IsFormatted() bool {
	return fs.cache.get(0)[0] == 0xEB
}

// Format wipes every sector, writes a fresh boot sector and FAT heads, and
// records the volume label both in the boot sector and as a root entry.
func (fs *Filesystem) Format(label string) {
	fs.cache.wipe()

	boot := make([]uint8, SectorSize)
	boot[0] = 0xEB
	boot[1] = 0x3C
	boot[2] = 0x90
	copy(boot[3:11], padded("DOS86  ", 8))
	putWord(boot, 11, SectorSize)
	boot[13] = 1 // Sectors per cluster.
	putWord(boot, 14, ReservedSectors)
	boot[16] = NumFATs
	putWord(boot, 17, RootEntries)
	putWord(boot, 19, TotalSectors)
	boot[21] = MediaDescriptor
	putWord(boot, 22, SectorsPerFAT)
	putWord(boot, 24, SectorsPerTrack)
	putWord(boot, 26, Heads)
	boot[36] = 0x00 // Drive A:.
	boot[38] = 0x29
	stamp := fs.Now()
	serial := uint32(stamp.Unix())
	boot[39] = uint8(serial)
	boot[40] = uint8(serial >> 8)
	boot[41] = uint8(serial >> 16)
	boot[42] = uint8(serial >> 24)
	copy(boot[43:54], padded(label, 11))
	copy(boot[54:62], padded("FAT12", 8))
	boot[510] = 0x55
	boot[511] = 0xAA
	fs.cache.put(0, boot)

	// Media descriptor in entry 0, end marker in entry 1, mirrored.
	for _, base := range []int{fat1Start, fat2Start} {
		head := make([]uint8, SectorSize)
		head[0] = 0xF0
		head[1] = 0xFF
		head[2] = 0xFF
		fs.cache.put(base, head)
	}

	if label != "" {
		if lba, off, ok := fs.freeSlot(rootDir()); ok {
			sec := fs.cache.get(lba)
			encodeEntry(sec[off:off+32], label, AttrVolume, 0, 0, stamp)
			fs.cache.mark(lba)
		}
	}
	fs.cache.flush()
}

// VolumeLabel returns the label recorded in the boot sector.
func (fs *Filesystem) VolumeLabel() string {
	boot := fs.cache.get(0)
	return strings.TrimRight(string(boot[43:54]), " ")
}

// Serial returns the volume serial number from the boot sector.
func (fs *Filesystem) Serial() uint32 {
	boot := fs.cache.get(0)
	return uint32(boot[39]) | uint32(boot[40])<<8 |
		uint32(boot[41])<<16 | uint32(boot[42])<<24
}

// ListDir returns the visible entries of the directory named by path,
// hiding volume-label slots.
func (fs *Filesystem) ListDir(path []string) ([]DirEntry, error) {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return nil, err
	}
	var out []DirEntry
	fs.walkDir(dir, func(_, _ int, entry DirEntry) bool {
		if entry.Attr&AttrVolume == 0 {
			out = append(out, entry)
		}
		return true
	})
	return out, nil
}

// Stat returns the directory entry for name inside path.
func (fs *Filesystem) Stat(path []string, name string) (DirEntry, error) {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return DirEntry{}, err
	}
	_, _, entry, found := fs.findEntry(dir, name)
	if !found {
		return DirEntry{}, ErrNotFound
	}
	return entry, nil
}

// ReadFile walks the cluster chain of name and returns exactly the number
// of bytes recorded in the directory entry. The size field wins over the
// chain length.
func (fs *Filesystem) ReadFile(path []string, name string) ([]uint8, error) {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return nil, err
	}
	_, _, entry, found := fs.findEntry(dir, name)
	if !found || entry.IsDir() {
		return nil, ErrNotFound
	}
	out := make([]uint8, 0, entry.Size)
	cluster := entry.Cluster
	for cluster >= 2 && cluster < endOfChain && uint32(len(out)) < entry.Size {
		sec := fs.cache.get(clusterSector(cluster))
		need := entry.Size - uint32(len(out))
		if need > SectorSize {
			need = SectorSize
		}
		out = append(out, sec[:need]...)
		cluster = fs.fatGet(cluster)
	}
	// A truncated chain reads short; pad to the recorded size.
	for uint32(len(out)) < entry.Size {
		out = append(out, 0)
	}
	return out, nil
}

// WriteFile replaces any existing entry with that name, allocates a fresh
// chain and writes a new directory entry with a current stamp.
func (fs *Filesystem) WriteFile(path []string, name string, data []uint8) error {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return err
	}
	if lba, off, entry, found := fs.findEntry(dir, name); found {
		if entry.IsDir() {
			return ErrExists
		}
		fs.removeSlot(lba, off, entry)
	}
	lba, off, ok := fs.freeSlot(dir)
	if !ok {
		fs.cache.flush()
		return ErrDirectoryFull
	}

	first, err := fs.writeChain(data)
	if err != nil {
		fs.cache.flush()
		return err
	}
	sec := fs.cache.get(lba)
	encodeEntry(sec[off:off+32], name, AttrArchive, first, uint32(len(data)), fs.Now())
	fs.cache.mark(lba)
	fs.cache.flush()
	return nil
}

// Mkdir creates a one cluster subdirectory seeded with the "." and ".."
// entries. A sibling of any kind with the same name is an error.
func (fs *Filesystem) Mkdir(path []string, name string) error {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return err
	}
	if _, _, _, found := fs.findEntry(dir, name); found {
		return ErrExists
	}
	lba, off, ok := fs.freeSlot(dir)
	if !ok {
		return ErrDirectoryFull
	}
	cluster, err := fs.allocCluster()
	if err != nil {
		return err
	}
	fs.fatSet(cluster, 0xFFF)

	stamp := fs.Now()
	sec := make([]uint8, SectorSize)
	encodeEntry(sec[0:32], ".", AttrDirectory, cluster, 0, stamp)
	encodeEntry(sec[32:64], "..", AttrDirectory, dir.cluster, 0, stamp)
	fs.cache.put(clusterSector(cluster), sec)

	slot := fs.cache.get(lba)
	encodeEntry(slot[off:off+32], name, AttrDirectory, cluster, 0, stamp)
	fs.cache.mark(lba)
	fs.cache.flush()
	return nil
}

// Delete marks the directory slot deleted and frees the cluster chain.
// Reports whether the entry was found.
func (fs *Filesystem) Delete(path []string, name string) (bool, error) {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return false, err
	}
	lba, off, entry, found := fs.findEntry(dir, name)
	if !found {
		return false, nil
	}
	fs.removeSlot(lba, off, entry)
	fs.cache.flush()
	return true, nil
}

// Rename rewrites the 8.3 name in place. The cluster chain is untouched.
func (fs *Filesystem) Rename(path []string, oldName, newName string) error {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return err
	}
	if _, _, _, found := fs.findEntry(dir, newName); found && !sameName(oldName, newName) {
		return ErrExists
	}
	lba, off, _, found := fs.findEntry(dir, oldName)
	if !found {
		return ErrNotFound
	}
	sec := fs.cache.get(lba)
	packed := encodeName(newName)
	copy(sec[off:off+11], packed[:])
	fs.cache.mark(lba)
	fs.cache.flush()
	return nil
}

// SetAttributes rewrites the attribute byte of an entry.
func (fs *Filesystem) SetAttributes(path []string, name string, attr uint8) error {
	dir, err := fs.lookupDir(path)
	if err != nil {
		return err
	}
	lba, off, _, found := fs.findEntry(dir, name)
	if !found {
		return ErrNotFound
	}
	sec := fs.cache.get(lba)
	sec[off+11] = attr&^AttrDirectory | sec[off+11]&AttrDirectory
	fs.cache.mark(lba)
	fs.cache.flush()
	return nil
}

// FreeClusters counts FAT entries still zero in [2, maxCluster).
func (fs *Filesystem) FreeClusters() int {
	count := 0
	for c := uint16(2); c < maxCluster; c++ {
		if fs.fatGet(c) == 0 {
			count++
		}
	}
	return count
}

// ReadSector returns a copy of the sector at lba. Used by the BIOS disk
// service and host tooling.
func (fs *Filesystem) ReadSector(lba int) []uint8 {
	out := make([]uint8, SectorSize)
	copy(out, fs.cache.get(lba))
	return out
}

// WriteSector replaces the sector at lba and flushes.
func (fs *Filesystem) WriteSector(lba int, data []uint8) {
	fs.cache.put(lba, data)
	fs.cache.flush()
}

// dirRef names a directory: the fixed root or a cluster chain.
type dirRef struct {
	root    bool
	cluster uint16
}

func rootDir() dirRef {
	return dirRef{root: true}
}

// lookupDir resolves path components from the root, case insensitively.
func (fs *Filesystem) lookupDir(path []string) (dirRef, error) {
	dir := rootDir()
	for _, component := range path {
		_, _, entry, found := fs.findEntry(dir, component)
		if !found || !entry.IsDir() {
			return dirRef{}, ErrPathNotFound
		}
		dir = dirRef{cluster: entry.Cluster}
	}
	return dir, nil
}

// walkDir calls fn for each live slot of dir with its sector and byte
// offset. Enumeration honours the 0x00 terminator and skips deleted and
// long-name slots. fn returns false to stop.
func (fs *Filesystem) walkDir(dir dirRef, fn func(lba, off int, entry DirEntry) bool) {
	for _, lba := range fs.dirSectors(dir) {
		sec := fs.cache.get(lba)
		for off := 0; off < SectorSize; off += 32 {
			switch sec[off] {
			case slotFree:
				return
			case slotDeleted:
				continue
			}
			if sec[off+11] == attrLongName {
				continue
			}
			if !fn(lba, off, decodeEntry(sec[off:off+32])) {
				return
			}
		}
	}
}

// dirSectors lists the sectors holding dir's slots, in order.
func (fs *Filesystem) dirSectors(dir dirRef) []int {
	if dir.root {
		out := make([]int, rootSectors)
		for i := range out {
			out[i] = rootStart + i
		}
		return out
	}
	var out []int
	cluster := dir.cluster
	for cluster >= 2 && cluster < endOfChain {
		out = append(out, clusterSector(cluster))
		cluster = fs.fatGet(cluster)
	}
	return out
}

// findEntry locates name in dir. The "." and ".." entries are findable.
func (fs *Filesystem) findEntry(dir dirRef, name string) (int, int, DirEntry, bool) {
	var foundLba, foundOff int
	var foundEntry DirEntry
	found := false
	fs.walkDir(dir, func(lba, off int, entry DirEntry) bool {
		if sameName(entry.Name, name) {
			foundLba, foundOff, foundEntry, found = lba, off, entry, true
			return false
		}
		return true
	})
	return foundLba, foundOff, foundEntry, found
}

// freeSlot returns the first free or deleted slot of dir.
func (fs *Filesystem) freeSlot(dir dirRef) (int, int, bool) {
	for _, lba := range fs.dirSectors(dir) {
		sec := fs.cache.get(lba)
		for off := 0; off < SectorSize; off += 32 {
			if sec[off] == slotFree || sec[off] == slotDeleted {
				return lba, off, true
			}
		}
	}
	return 0, 0, false
}

// removeSlot marks a slot deleted and frees its chain.
func (fs *Filesystem) removeSlot(lba, off int, entry DirEntry) {
	sec := fs.cache.get(lba)
	sec[off] = slotDeleted
	fs.cache.mark(lba)
	fs.freeChain(entry.Cluster)
}

// writeChain allocates clusters for data, links them, writes the data with
// a zero filled tail and returns the head cluster (0 for empty data). On a
// full disk the partial chain is released.
func (fs *Filesystem) writeChain(data []uint8) (uint16, error) {
	if len(data) == 0 {
		return 0, nil
	}
	var first, prev uint16
	for pos := 0; pos < len(data); pos += SectorSize {
		cluster, err := fs.allocCluster()
		if err != nil {
			if first != 0 {
				fs.freeChain(first)
			}
			return 0, err
		}
		fs.fatSet(cluster, 0xFFF)
		if prev != 0 {
			fs.fatSet(prev, cluster)
		} else {
			first = cluster
		}
		prev = cluster

		sec := make([]uint8, SectorSize)
		copy(sec, data[pos:])
		fs.cache.put(clusterSector(cluster), sec)
	}
	return first, nil
}

// freeChain zeroes every FAT entry of the chain headed by cluster.
func (fs *Filesystem) freeChain(cluster uint16) {
	for cluster >= 2 && cluster < endOfChain {
		next := fs.fatGet(cluster)
		fs.fatSet(cluster, 0)
		cluster = next
	}
}

// allocCluster scans the first FAT from cluster 2 for a zero entry.
func (fs *Filesystem) allocCluster() (uint16, error) {
	for c := uint16(2); c < maxCluster; c++ {
		if fs.fatGet(c) == 0 {
			return c, nil
		}
	}
	return 0, ErrDiskFull
}

// clusterSector maps a data cluster to its LBA.
func clusterSector(cluster uint16) int {
	return dataStart + int(cluster) - 2
}

// fatGet reads the 12 bit entry for cluster from the first FAT. The byte
// offset is 3c/2 and the word there holds the entry in its low 12 bits
// when c is even, high 12 bits when odd.
func (fs *Filesystem) fatGet(cluster uint16) uint16 {
	off := int(cluster) + int(cluster)>>1
	word := uint16(fs.fatByte(off)) | uint16(fs.fatByte(off+1))<<8
	if cluster&1 == 0 {
		return word & 0xFFF
	}
	return word >> 4
}

// fatSet read-modify-writes the entry in both FATs, keeping them identical.
func (fs *Filesystem) fatSet(cluster, value uint16) {
	off := int(cluster) + int(cluster)>>1
	word := uint16(fs.fatByte(off)) | uint16(fs.fatByte(off+1))<<8
	if cluster&1 == 0 {
		word = word&0xF000 | value&0xFFF
	} else {
		word = word&0x000F | (value&0xFFF)<<4
	}
	fs.putFATByte(off, uint8(word))
	fs.putFATByte(off+1, uint8(word>>8))
}

// fatByte reads one byte of the first FAT; the offset may straddle a
// sector boundary.
func (fs *Filesystem) fatByte(off int) uint8 {
	sec := fs.cache.get(fat1Start + off/SectorSize)
	return sec[off%SectorSize]
}

// putFATByte writes one byte of both FATs.
func (fs *Filesystem) putFATByte(off int, value uint8) {
	for _, base := range []int{fat1Start, fat2Start} {
		lba := base + off/SectorSize
		sec := fs.cache.get(lba)
		sec[off%SectorSize] = value
		fs.cache.mark(lba)
	}
}

func putWord(buf []uint8, off int, value uint16) {
	buf[off] = uint8(value)
	buf[off+1] = uint8(value >> 8)
}

func padded(s string, width int) []uint8 {
	out := make([]uint8, width)
	for i := range out {
		out[i] = ' '
	}
	s = strings.ToUpper(s)
	for i := 0; i < len(s) && i < width; i++ {
		out[i] = s[i]
	}
	return out
}
