/*
   dos86 - PSP, environment block and paragraph allocator.

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

package dos

import (
	"dos86/emu/cpu"
	"dos86/emu/memory"
)

// The paragraph allocator is a free bump from segment 0x1000 up to the
// video region, with a side list recording who owns what.
const (
	allocBase uint16 = 0x1000
	allocTop  uint16 = 0xA000
)

type allocRec struct {
	seg   uint16
	paras uint16
	owner uint16 // Owning PSP segment.
}

type allocator struct {
	next uint16
	recs []allocRec
}

func newAllocator() allocator {
	return allocator{next: allocBase}
}

// alloc grabs paras paragraphs, returning the segment.
func (a *allocator) alloc(paras, owner uint16) (uint16, bool) {
	if paras > a.largest() {
		return 0, false
	}
	seg := a.next
	a.next += paras
	a.recs = append(a.recs, allocRec{seg: seg, paras: paras, owner: owner})
	return seg, true
}

// free releases the block at seg. Space is reclaimed when the block is
// the topmost one.
func (a *allocator) free(seg uint16) bool {
	for i, rec := range a.recs {
		if rec.seg == seg {
			a.recs = append(a.recs[:i], a.recs[i+1:]...)
			if rec.seg+rec.paras == a.next {
				a.next = rec.seg
			}
			return true
		}
	}
	return false
}

// resize shrinks any block, or grows the topmost one.
func (a *allocator) resize(seg, paras uint16) bool {
	for i, rec := range a.recs {
		if rec.seg != seg {
			continue
		}
		if paras <= rec.paras {
			a.recs[i].paras = paras
			if rec.seg+rec.paras == a.next {
				a.next = rec.seg + paras
			}
			return true
		}
		if rec.seg+rec.paras == a.next && seg+paras <= allocTop {
			a.recs[i].paras = paras
			a.next = seg + paras
			return true
		}
		return false
	}
	return false
}

// largest reports the biggest block a fresh alloc could return.
func (a *allocator) largest() uint16 {
	if a.next >= allocTop {
		return 0
	}
	return allocTop - a.next
}

// AllocParagraphs carves a block for the loader.
func (d *DOS) AllocParagraphs(paras uint16) (uint16, bool) {
	return d.alloc.alloc(paras, d.pspSeg)
}

// FreeParagraphs releases a block; the loader tears programs down with it.
func (d *DOS) FreeParagraphs(seg uint16) bool {
	return d.alloc.free(seg)
}

// SetPSP records the active program segment prefix.
func (d *DOS) SetPSP(seg uint16) {
	d.pspSeg = seg
}

// PSP returns the active program segment prefix.
func (d *DOS) PSP() uint16 {
	return d.pspSeg
}

// allocMemory is AH=48h: BX paragraphs in, AX segment out. On failure BX
// reports the largest available block.
func (d *DOS) allocMemory(c *cpu.CPU) {
	seg, ok := d.alloc.alloc(c.Reg(cpu.BX), d.pspSeg)
	if !ok {
		c.SetReg(cpu.BX, d.alloc.largest())
		d.fail(c, errNoMemory)
		return
	}
	c.SetReg(cpu.AX, seg)
	d.succeed(c)
}

// freeMemory is AH=49h: release the block at ES.
func (d *DOS) freeMemory(c *cpu.CPU) {
	if !d.alloc.free(c.Sreg(cpu.ES)) {
		d.fail(c, errNoMemory)
		return
	}
	d.succeed(c)
}

// resizeMemory is AH=4Ah: resize the block at ES to BX paragraphs.
func (d *DOS) resizeMemory(c *cpu.CPU) {
	if !d.alloc.resize(c.Sreg(cpu.ES), c.Reg(cpu.BX)) {
		c.SetReg(cpu.BX, d.alloc.largest())
		d.fail(c, errNoMemory)
		return
	}
	d.succeed(c)
}

// Environment variables written into every environment block, in order.
var defaultEnvironment = [][2]string{
	{"COMSPEC", "A:\\COMMAND.COM"},
	{"PATH", "A:\\"},
	{"PROMPT", "$P$G"},
	{"TEMP", "A:\\"},
}

// BuildEnvironment writes the environment block at seg: NAME=value pairs
// each NUL terminated, an empty string, a count word of one and the fully
// qualified program name. Extra pairs override the defaults.
func (d *DOS) BuildEnvironment(seg uint16, progName string, extra map[string]string) {
	off := uint16(0)
	putString := func(s string) {
		for i := 0; i < len(s); i++ {
			d.mem.PutSegByte(seg, off, s[i])
			off++
		}
		d.mem.PutSegByte(seg, off, 0)
		off++
	}
	seen := map[string]bool{}
	for _, pair := range defaultEnvironment {
		value := pair[1]
		if v, ok := extra[pair[0]]; ok {
			value = v
		}
		seen[pair[0]] = true
		putString(pair[0] + "=" + value)
	}
	for name, value := range extra {
		if !seen[name] {
			putString(name + "=" + value)
		}
	}
	d.mem.PutSegByte(seg, off, 0) // Empty string ends the list.
	off++
	d.mem.PutSegWord(seg, off, 1) // One trailing string: the program name.
	off += 2
	putString(progName)
}

// BuildPSP writes the 256 byte program segment prefix at pspSeg: the
// INT 20h pair, the top of memory, the INT 21h far-return trampolines,
// the standard-handle table, the environment segment and the command
// tail.
func (d *DOS) BuildPSP(pspSeg, envSeg uint16, tail string) {
	base := memory.Physical(pspSeg, 0)
	d.mem.Fill(base, 256, 0)

	d.mem.PutByte(base+0, 0xCD) // INT 20h.
	d.mem.PutByte(base+1, 0x20)
	d.mem.PutWord(base+2, allocTop) // Top of allocated memory.
	d.mem.PutByte(base+5, 0xCD)     // INT 21h; RETF.
	d.mem.PutByte(base+6, 0x21)
	d.mem.PutByte(base+7, 0xCB)

	// Standard-handle table: 0-4 mapped, the rest closed.
	for i := uint32(0); i < 20; i++ {
		if i < 5 {
			d.mem.PutByte(base+0x18+i, uint8(i))
		} else {
			d.mem.PutByte(base+0x18+i, 0xFF)
		}
	}
	d.mem.PutWord(base+0x2C, envSeg)
	d.mem.PutByte(base+0x32, 20)         // JFT length.
	d.mem.PutWord(base+0x34, 0x18)       // JFT pointer offset,
	d.mem.PutWord(base+0x36, pspSeg)     // and segment.
	d.mem.PutByte(base+0x50, 0xCD) // Alternate dispatch entry: INT 21h; RETF.
	d.mem.PutByte(base+0x51, 0x21)
	d.mem.PutByte(base+0x52, 0xCB)

	if len(tail) > 126 {
		tail = tail[:126]
	}
	d.mem.PutByte(base+0x80, uint8(len(tail)))
	for i := 0; i < len(tail); i++ {
		d.mem.PutByte(base+0x81+uint32(i), tail[i])
	}
	d.mem.PutByte(base+0x81+uint32(len(tail)), 0x0D)

	d.pspSeg = pspSeg
}
