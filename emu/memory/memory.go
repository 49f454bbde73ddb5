/*
   dos86 - Flat real-mode memory.

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

package memory

// Size of the address space. Real mode addresses wrap at one megabyte.
const (
	Size  = 1 << 20
	AMASK = Size - 1 // Mask address bits.
)

// Memory is the flat byte addressed store shared by the CPU and the
// BIOS/DOS service layer. All access is through the masking helpers so
// callers never observe an out of range fault.
type Memory struct {
	mem [Size]uint8
}

// New returns zeroed memory.
func New() *Memory {
	return &Memory{}
}

// Physical converts a segment:offset pair to a 20 bit physical address.
func Physical(seg, off uint16) uint32 {
	return (uint32(seg)<<4 + uint32(off)) & AMASK
}

// GetByte returns the byte at a physical address.
func (m *Memory) GetByte(addr uint32) uint8 {
	return m.mem[addr&AMASK]
}

// PutByte sets the byte at a physical address.
func (m *Memory) PutByte(addr uint32, data uint8) {
	m.mem[addr&AMASK] = data
}

// GetWord returns the little endian word at a physical address. The
// address need not be aligned; the second byte wraps independently.
func (m *Memory) GetWord(addr uint32) uint16 {
	low := m.mem[addr&AMASK]
	high := m.mem[(addr+1)&AMASK]
	return uint16(low) | uint16(high)<<8
}

// PutWord stores a little endian word at a physical address.
func (m *Memory) PutWord(addr uint32, data uint16) {
	m.mem[addr&AMASK] = uint8(data)
	m.mem[(addr+1)&AMASK] = uint8(data >> 8)
}

// GetSegByte returns the byte at segment:offset.
func (m *Memory) GetSegByte(seg, off uint16) uint8 {
	return m.GetByte(Physical(seg, off))
}

// PutSegByte sets the byte at segment:offset.
func (m *Memory) PutSegByte(seg, off uint16, data uint8) {
	m.PutByte(Physical(seg, off), data)
}

// GetSegWord returns the word at segment:offset.
func (m *Memory) GetSegWord(seg, off uint16) uint16 {
	return m.GetWord(Physical(seg, off))
}

// PutSegWord stores a word at segment:offset.
func (m *Memory) PutSegWord(seg, off uint16, data uint16) {
	m.PutWord(Physical(seg, off), data)
}

// Load copies an image into memory starting at a physical address.
func (m *Memory) Load(addr uint32, data []uint8) {
	for i, b := range data {
		m.mem[(addr+uint32(i))&AMASK] = b
	}
}

// Read copies length bytes starting at a physical address into a new slice.
func (m *Memory) Read(addr uint32, length int) []uint8 {
	out := make([]uint8, length)
	for i := range out {
		out[i] = m.mem[(addr+uint32(i))&AMASK]
	}
	return out
}

// Fill sets length bytes starting at a physical address to a value.
func (m *Memory) Fill(addr uint32, length int, data uint8) {
	for i := range length {
		m.mem[(addr+uint32(i))&AMASK] = data
	}
}
