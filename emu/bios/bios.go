/*
   dos86 - BIOS interrupt services.

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

// Package bios synthesises the observable behaviour of an original PC
// BIOS: video, keyboard, disk, timer and the assorted equipment queries.
// Handlers run entirely on the host; the trampoline in the cpu package
// balances the stack afterwards.
package bios

import (
	"time"

	"dos86/emu/cpu"
	"dos86/emu/memory"
	"dos86/fs/fat12"
)

// BIOS holds the synthesised machine state outside the CPU: cursor, video
// mode, the keyboard FIFO and a mouse.
type BIOS struct {
	cpu *cpu.CPU
	mem *memory.Memory
	fs  *fat12.Filesystem

	videoMode uint8
	cursorRow int
	cursorCol int

	keys  []uint16
	shift uint8

	mouseX, mouseY int16
	mouseButtons   uint16
	mouseVisible   int

	started time.Time

	// Now supplies the wall clock for INT 1Ah; tests pin it.
	Now func() time.Time
}

// New wires the BIOS handlers into the CPU's interrupt table.
func New(c *cpu.CPU, mem *memory.Memory, fs *fat12.Filesystem) *BIOS {
	b := &BIOS{
		cpu:     c,
		mem:     mem,
		fs:      fs,
		started: time.Now(),
		Now:     time.Now,
	}
	b.setMode(0x03)

	c.RegisterHandler(0x10, func(c *cpu.CPU, _ uint8) { b.intVideo(c) })
	c.RegisterHandler(0x11, func(c *cpu.CPU, _ uint8) { b.intEquipment(c) })
	c.RegisterHandler(0x12, func(c *cpu.CPU, _ uint8) { b.intMemorySize(c) })
	c.RegisterHandler(0x13, func(c *cpu.CPU, _ uint8) { b.intDisk(c) })
	c.RegisterHandler(0x14, func(c *cpu.CPU, _ uint8) { b.intSerial(c) })
	c.RegisterHandler(0x15, func(c *cpu.CPU, _ uint8) { b.intSystem(c) })
	c.RegisterHandler(0x16, func(c *cpu.CPU, _ uint8) { b.intKeyboard(c) })
	c.RegisterHandler(0x17, func(c *cpu.CPU, _ uint8) { b.intPrinter(c) })
	c.RegisterHandler(0x19, func(c *cpu.CPU, _ uint8) { b.intBootstrap(c) })
	c.RegisterHandler(0x1A, func(c *cpu.CPU, _ uint8) { b.intClock(c) })
	c.RegisterHandler(0x33, func(c *cpu.CPU, _ uint8) { b.intMouse(c) })
	return b
}

// PushKey appends one key word (scan code high, ASCII low) to the FIFO.
// The host event pump calls this; a CPU halted for a key wait resumes.
func (b *BIOS) PushKey(key uint16) {
	b.keys = append(b.keys, key)
	if b.cpu.Halted && b.cpu.Reason == cpu.HaltKeyWait {
		b.cpu.Resume()
	}
}

// SetShiftState records the host modifier state reported by INT 16h AH=02.
func (b *BIOS) SetShiftState(state uint8) {
	b.shift = state
}

// HasKey reports whether the FIFO holds a key.
func (b *BIOS) HasKey() bool {
	return len(b.keys) > 0
}

// HasLine reports whether the FIFO holds a complete line, i.e. a carriage
// return. Buffered line input only completes on a whole line.
func (b *BIOS) HasLine() bool {
	for _, key := range b.keys {
		if uint8(key) == '\r' {
			return true
		}
	}
	return false
}

// PopKey removes and returns the oldest key word.
func (b *BIOS) PopKey() (uint16, bool) {
	if len(b.keys) == 0 {
		return 0, false
	}
	key := b.keys[0]
	b.keys = b.keys[1:]
	return key, true
}

// intKeyboard is INT 16h: blocking read, peek and shift state.
func (b *BIOS) intKeyboard(c *cpu.CPU) {
	switch c.Reg8(cpu.AH) {
	case 0x00, 0x10:
		key, ok := b.PopKey()
		if !ok {
			// Empty buffer: rewind IP over the two byte INT so the
			// instruction retries when the scheduler resumes us.
			c.SetIP(c.IP() - 2)
			c.Halt(cpu.HaltKeyWait)
			return
		}
		c.SetReg(cpu.AX, key)
	case 0x01, 0x11:
		if len(b.keys) == 0 {
			c.SetFlag(cpu.FlagZ, true)
			return
		}
		c.SetFlag(cpu.FlagZ, false)
		c.SetReg(cpu.AX, b.keys[0])
	case 0x02:
		c.SetReg8(cpu.AL, b.shift)
	}
}

// intEquipment is INT 11h: one floppy, 80 column color video.
func (b *BIOS) intEquipment(c *cpu.CPU) {
	c.SetReg(cpu.AX, 0x0021)
}

// intMemorySize is INT 12h: conventional memory in KiB.
func (b *BIOS) intMemorySize(c *cpu.CPU) {
	c.SetReg(cpu.AX, 640)
}

// intDisk is INT 13h. Sector addresses arrive as cylinder/head/sector and
// convert with LBA = (cyl*heads + head)*sectorsPerTrack + sector - 1.
func (b *BIOS) intDisk(c *cpu.CPU) {
	switch c.Reg8(cpu.AH) {
	case 0x00: // Reset.
		c.SetReg8(cpu.AH, 0)
		c.SetFlag(cpu.FlagC, false)
	case 0x02: // Read sectors to ES:BX.
		count := int(c.Reg8(cpu.AL))
		lba, ok := b.chsToLBA(c)
		if !ok {
			c.SetReg8(cpu.AH, 0x04) // Sector not found.
			c.SetFlag(cpu.FlagC, true)
			return
		}
		seg := c.Sreg(cpu.ES)
		off := c.Reg(cpu.BX)
		for i := 0; i < count; i++ {
			data := b.fs.ReadSector(lba + i)
			b.mem.Load(memory.Physical(seg, off+uint16(i*fat12.SectorSize)), data)
		}
		c.SetReg8(cpu.AH, 0)
		c.SetFlag(cpu.FlagC, false)
	case 0x03: // Write sectors from ES:BX.
		count := int(c.Reg8(cpu.AL))
		lba, ok := b.chsToLBA(c)
		if !ok {
			c.SetReg8(cpu.AH, 0x04)
			c.SetFlag(cpu.FlagC, true)
			return
		}
		seg := c.Sreg(cpu.ES)
		off := c.Reg(cpu.BX)
		for i := 0; i < count; i++ {
			data := b.mem.Read(memory.Physical(seg, off+uint16(i*fat12.SectorSize)), fat12.SectorSize)
			b.fs.WriteSector(lba+i, data)
		}
		c.SetReg8(cpu.AH, 0)
		c.SetFlag(cpu.FlagC, false)
	case 0x08: // Drive parameters of a 1.44 MB floppy.
		c.SetReg8(cpu.AH, 0)
		c.SetReg8(cpu.BL, 0x04)
		c.SetReg8(cpu.CH, 79)
		c.SetReg8(cpu.CL, fat12.SectorsPerTrack)
		c.SetReg8(cpu.DH, fat12.Heads-1)
		c.SetReg8(cpu.DL, 1)
		c.SetFlag(cpu.FlagC, false)
	case 0x15: // Drive type: floppy with change detection.
		c.SetReg8(cpu.AH, 0x02)
		c.SetFlag(cpu.FlagC, false)
	default:
		c.SetReg8(cpu.AH, 0x01) // Invalid function.
		c.SetFlag(cpu.FlagC, true)
	}
}

// chsToLBA converts the CH/CL/DH register convention. Sector numbers are
// one based.
func (b *BIOS) chsToLBA(c *cpu.CPU) (int, bool) {
	cyl := int(c.Reg8(cpu.CH)) | int(c.Reg8(cpu.CL)&0xC0)<<2
	sector := int(c.Reg8(cpu.CL) & 0x3F)
	head := int(c.Reg8(cpu.DH))
	if sector == 0 || sector > fat12.SectorsPerTrack || head >= fat12.Heads {
		return 0, false
	}
	lba := (cyl*fat12.Heads+head)*fat12.SectorsPerTrack + sector - 1
	if lba >= fat12.TotalSectors {
		return 0, false
	}
	return lba, true
}

// intSerial is INT 14h: no UART, every call reports a timeout.
func (b *BIOS) intSerial(c *cpu.CPU) {
	c.SetReg8(cpu.AH, 0x80)
}

// intSystem is INT 15h.
func (b *BIOS) intSystem(c *cpu.CPU) {
	switch c.Reg8(cpu.AH) {
	case 0x86: // Wait CX:DX microseconds, advanced as a cycle count at
		// roughly 4.77 cycles per microsecond.
		usec := uint64(c.Reg(cpu.CX))<<16 | uint64(c.Reg(cpu.DX))
		c.Cycles += usec * 477 / 100
		c.SetFlag(cpu.FlagC, false)
	case 0x88: // Extended memory size.
		c.SetReg(cpu.AX, 0)
		c.SetFlag(cpu.FlagC, false)
	case 0x24: // A20 gate: report enabled.
		c.SetReg8(cpu.AH, 0)
		c.SetFlag(cpu.FlagC, false)
	default:
		c.SetReg8(cpu.AH, 0x86)
		c.SetFlag(cpu.FlagC, true)
	}
}

// intPrinter is INT 17h: no printer attached.
func (b *BIOS) intPrinter(c *cpu.CPU) {
	c.SetReg8(cpu.AH, 0x01) // Timeout.
}

// intBootstrap is INT 19h: load sector 0 at 0000:7C00 and jump to it.
func (b *BIOS) intBootstrap(c *cpu.CPU) {
	b.mem.Load(0x7C00, b.fs.ReadSector(0))
	c.SetSreg(cpu.CS, 0)
	c.SetIP(0x7C00)
}

// intClock is INT 1Ah: tick count and the real-time clock.
func (b *BIOS) intClock(c *cpu.CPU) {
	now := b.Now()
	switch c.Reg8(cpu.AH) {
	case 0x00: // Ticks since midnight at 18.2 Hz.
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		ticks := uint32(now.Sub(midnight).Seconds() * 18.2065)
		c.SetReg(cpu.CX, uint16(ticks>>16))
		c.SetReg(cpu.DX, uint16(ticks))
		c.SetReg8(cpu.AL, 0)
	case 0x02: // RTC time in BCD.
		c.SetReg8(cpu.CH, toBCD(now.Hour()))
		c.SetReg8(cpu.CL, toBCD(now.Minute()))
		c.SetReg8(cpu.DH, toBCD(now.Second()))
		c.SetReg8(cpu.DL, 0)
		c.SetFlag(cpu.FlagC, false)
	case 0x04: // RTC date in BCD.
		c.SetReg8(cpu.CH, toBCD(now.Year()/100))
		c.SetReg8(cpu.CL, toBCD(now.Year()%100))
		c.SetReg8(cpu.DH, toBCD(int(now.Month())))
		c.SetReg8(cpu.DL, toBCD(now.Day()))
		c.SetFlag(cpu.FlagC, false)
	}
}

func toBCD(v int) uint8 {
	return uint8(v/10<<4 | v%10)
}

// intMouse is INT 33h: a two button mouse whose state the host updates.
func (b *BIOS) intMouse(c *cpu.CPU) {
	switch c.Reg(cpu.AX) {
	case 0x0000: // Detect and reset.
		c.SetReg(cpu.AX, 0xFFFF)
		c.SetReg(cpu.BX, 2)
		b.mouseVisible = 0
		b.mouseX = 0
		b.mouseY = 0
	case 0x0001:
		b.mouseVisible++
	case 0x0002:
		b.mouseVisible--
	case 0x0003:
		c.SetReg(cpu.BX, b.mouseButtons)
		c.SetReg(cpu.CX, uint16(b.mouseX))
		c.SetReg(cpu.DX, uint16(b.mouseY))
	case 0x0004:
		b.mouseX = int16(c.Reg(cpu.CX))
		b.mouseY = int16(c.Reg(cpu.DX))
	case 0x000B: // Motion counters: nothing accumulated.
		c.SetReg(cpu.CX, 0)
		c.SetReg(cpu.DX, 0)
	}
}

// SetMouse lets the host report pointer state.
func (b *BIOS) SetMouse(x, y int16, buttons uint16) {
	b.mouseX = x
	b.mouseY = y
	b.mouseButtons = buttons
}
