/*
   dos86 - Flat memory tests.

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

import (
	"testing"
)

// Check byte access wraps at one megabyte.
func TestByteWrap(t *testing.T) {
	mem := New()
	mem.PutByte(Size, 0x55)
	r := mem.GetByte(0)
	if r != 0x55 {
		t.Errorf("PutByte did not wrap got: %02x expected: %02x", r, 0x55)
	}
	mem.PutByte(0xFFFFF, 0xAA)
	r = mem.GetByte(0xFFFFF + Size)
	if r != 0xAA {
		t.Errorf("GetByte did not wrap got: %02x expected: %02x", r, 0xAA)
	}
}

// Check words are little endian and may be unaligned.
func TestWordOrder(t *testing.T) {
	mem := New()
	mem.PutWord(0x101, 0x1234)
	r := mem.GetByte(0x101)
	if r != 0x34 {
		t.Errorf("PutWord low byte got: %02x expected: %02x", r, 0x34)
	}
	r = mem.GetByte(0x102)
	if r != 0x12 {
		t.Errorf("PutWord high byte got: %02x expected: %02x", r, 0x12)
	}
	w := mem.GetWord(0x101)
	if w != 0x1234 {
		t.Errorf("GetWord got: %04x expected: %04x", w, 0x1234)
	}
}

// Check a word written at the top of memory wraps its high byte to zero.
func TestWordWrap(t *testing.T) {
	mem := New()
	mem.PutWord(0xFFFFF, 0xBEEF)
	r := mem.GetByte(0xFFFFF)
	if r != 0xEF {
		t.Errorf("PutWord top byte got: %02x expected: %02x", r, 0xEF)
	}
	r = mem.GetByte(0)
	if r != 0xBE {
		t.Errorf("PutWord wrapped byte got: %02x expected: %02x", r, 0xBE)
	}
	w := mem.GetWord(0xFFFFF)
	if w != 0xBEEF {
		t.Errorf("GetWord wrapped got: %04x expected: %04x", w, 0xBEEF)
	}
}

// Check segment arithmetic.
func TestPhysical(t *testing.T) {
	r := Physical(0xB800, 0)
	if r != 0xB8000 {
		t.Errorf("Physical got: %05x expected: %05x", r, 0xB8000)
	}
	r = Physical(0xFFFF, 0x10)
	if r != 0 {
		t.Errorf("Physical did not wrap got: %05x expected: 0", r)
	}
	mem := New()
	mem.PutSegWord(0x1000, 0x100, 0x20CD)
	r2 := mem.GetWord(0x10100)
	if r2 != 0x20CD {
		t.Errorf("PutSegWord got: %04x expected: %04x", r2, 0x20CD)
	}
}

// Check bulk image load and read back.
func TestLoad(t *testing.T) {
	mem := New()
	image := []uint8{0xB4, 0x4C, 0xCD, 0x21}
	mem.Load(0x10100, image)
	for i, b := range image {
		r := mem.GetByte(0x10100 + uint32(i))
		if r != b {
			t.Errorf("Load byte %d got: %02x expected: %02x", i, r, b)
		}
	}
	out := mem.Read(0x10100, 4)
	for i, b := range image {
		if out[i] != b {
			t.Errorf("Read byte %d got: %02x expected: %02x", i, out[i], b)
		}
	}
	mem.Fill(0x200, 4, 0xFF)
	for i := range 4 {
		r := mem.GetByte(0x200 + uint32(i))
		if r != 0xFF {
			t.Errorf("Fill byte %d got: %02x expected: %02x", i, r, 0xFF)
		}
	}
}
