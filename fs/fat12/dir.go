/*
   dos86 - Directory entries and 8.3 names.

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
	"strings"
	"time"
)

// Attribute bits of a directory entry.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolume    = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	// All four low bits set marks a long-name fragment; skipped when
	// enumerating.
	attrLongName = 0x0F
)

const (
	slotFree    = 0x00 // Terminates enumeration; all later slots are free.
	slotDeleted = 0xE5
)

// DirEntry is the decoded form of one 32 byte directory slot.
type DirEntry struct {
	Name    string // Reconstructed NAME.EXT form.
	Attr    uint8
	Time    uint16 // Packed last-write time.
	Date    uint16 // Packed last-write date.
	Cluster uint16 // First cluster, 0 for an empty file.
	Size    uint32
}

// IsDir reports whether the entry names a subdirectory.
func (e DirEntry) IsDir() bool {
	return e.Attr&AttrDirectory != 0
}

// encodeName packs NAME.EXT into the 11 byte padded on-disk form. Names
// are folded to upper case; overlong parts are truncated.
func encodeName(name string) [11]uint8 {
	var out [11]uint8
	for i := range out {
		out[i] = ' '
	}
	name = strings.ToUpper(name)
	// The "." and ".." entries store their dots literally.
	if name == "." || name == ".." {
		copy(out[:], name)
		return out
	}
	base := name
	ext := ""
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		base = name[:dot]
		ext = name[dot+1:]
	}
	for i := 0; i < len(base) && i < 8; i++ {
		out[i] = base[i]
	}
	for i := 0; i < len(ext) && i < 3; i++ {
		out[8+i] = ext[i]
	}
	return out
}

// decodeName reconstructs NAME.EXT from the padded on-disk bytes. The dot
// appears only when an extension exists.
func decodeName(raw []uint8) string {
	base := strings.TrimRight(string(raw[0:8]), " ")
	ext := strings.TrimRight(string(raw[8:11]), " ")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// sameName compares two file names the way DOS does, case insensitively
// through the canonical 8.3 form.
func sameName(a, b string) bool {
	return encodeName(a) == encodeName(b)
}

// decodeEntry unpacks a 32 byte slot.
func decodeEntry(raw []uint8) DirEntry {
	return DirEntry{
		Name:    decodeName(raw),
		Attr:    raw[11],
		Time:    uint16(raw[22]) | uint16(raw[23])<<8,
		Date:    uint16(raw[24]) | uint16(raw[25])<<8,
		Cluster: uint16(raw[26]) | uint16(raw[27])<<8,
		Size: uint32(raw[28]) | uint32(raw[29])<<8 |
			uint32(raw[30])<<16 | uint32(raw[31])<<24,
	}
}

// encodeEntry packs an entry into slot, a 32 byte slice.
func encodeEntry(slot []uint8, name string, attr uint8, cluster uint16, size uint32, stamp time.Time) {
	for i := range slot {
		slot[i] = 0
	}
	packed := encodeName(name)
	copy(slot, packed[:])
	slot[11] = attr
	t, d := packStamp(stamp)
	slot[22] = uint8(t)
	slot[23] = uint8(t >> 8)
	slot[24] = uint8(d)
	slot[25] = uint8(d >> 8)
	slot[26] = uint8(cluster)
	slot[27] = uint8(cluster >> 8)
	slot[28] = uint8(size)
	slot[29] = uint8(size >> 8)
	slot[30] = uint8(size >> 16)
	slot[31] = uint8(size >> 24)
}

// packStamp converts a wall time to the DOS packed time and date words.
func packStamp(t time.Time) (uint16, uint16) {
	tm := uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
	year := t.Year()
	if year < 1980 {
		year = 1980
	}
	dt := uint16(year-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
	return tm, dt
}
