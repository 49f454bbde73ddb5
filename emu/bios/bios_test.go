/*
   dos86 - BIOS service tests.

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

package bios

import (
	"testing"
	"time"

	"dos86/emu/cpu"
	"dos86/emu/memory"
	"dos86/fs/fat12"
	"dos86/fs/store"
)

func newTestBIOS() (*BIOS, *cpu.CPU, *memory.Memory, *fat12.Filesystem) {
	mem := memory.New()
	c := cpu.New(mem)
	fs := fat12.New(store.NewMemStore())
	fs.Format("TEST")
	b := New(c, mem, fs)
	c.SetSreg(cpu.CS, 0x1000)
	c.SetSreg(cpu.SS, 0x1000)
	c.SetIP(0x100)
	c.SetReg(cpu.SP, 0xFFFE)
	return b, c, mem, fs
}

func textCell(mem *memory.Memory, row, col int) (uint8, uint8) {
	addr := cellAddr(row, col)
	return mem.GetByte(addr), mem.GetByte(addr + 1)
}

// Teletype writes char plus attribute 0x07 and advances the cursor.
func TestTeletypePrint(t *testing.T) {
	b, _, mem, _ := newTestBIOS()
	for _, ch := range []uint8("Hi") {
		b.Teletype(ch)
	}
	ch, attr := textCell(mem, 0, 0)
	if ch != 'H' || attr != 0x07 {
		t.Errorf("cell 0 got: %02x/%02x expected: 48/07", ch, attr)
	}
	ch, _ = textCell(mem, 0, 1)
	if ch != 'i' {
		t.Errorf("cell 1 got: %02x expected: 69", ch)
	}
	row, col := b.Cursor()
	if row != 0 || col != 2 {
		t.Errorf("cursor got: %d,%d expected: 0,2", row, col)
	}
}

// Control characters: bell ignored, backspace no wrap, CR, LF.
func TestTeletypeControls(t *testing.T) {
	b, _, _, _ := newTestBIOS()
	b.Teletype(7)
	row, col := b.Cursor()
	if row != 0 || col != 0 {
		t.Errorf("bell moved cursor to %d,%d", row, col)
	}
	b.Teletype(8)
	if _, col = b.Cursor(); col != 0 {
		t.Errorf("backspace wrapped to %d", col)
	}
	b.Teletype('A')
	b.Teletype('B')
	b.Teletype(8)
	if _, col = b.Cursor(); col != 1 {
		t.Errorf("backspace got: %d expected: 1", col)
	}
	b.Teletype(13)
	if _, col = b.Cursor(); col != 0 {
		t.Errorf("CR got: %d expected: 0", col)
	}
	b.Teletype(10)
	if row, _ = b.Cursor(); row != 1 {
		t.Errorf("LF got: %d expected: 1", row)
	}
}

// A line feed on the last row scrolls the screen up.
func TestTeletypeScroll(t *testing.T) {
	b, _, mem, _ := newTestBIOS()
	b.Teletype('X')
	b.cursorRow = Rows - 1
	b.cursorCol = 0
	b.Teletype('Y')
	b.Teletype(10)
	ch, _ := textCell(mem, 0, 0)
	if ch != ' ' {
		t.Errorf("row 0 not scrolled away got: %02x", ch)
	}
	ch, _ = textCell(mem, Rows-2, 0)
	if ch != 'Y' {
		t.Errorf("scrolled row got: %02x expected: 59", ch)
	}
	ch, attr := textCell(mem, Rows-1, 0)
	if ch != ' ' || attr != 0x07 {
		t.Errorf("blanked row got: %02x/%02x expected: 20/07", ch, attr)
	}
}

// Column 80 wraps to the next row.
func TestTeletypeWrap(t *testing.T) {
	b, _, _, _ := newTestBIOS()
	for range Columns {
		b.Teletype('a')
	}
	row, col := b.Cursor()
	if row != 1 || col != 0 {
		t.Errorf("wrap got: %d,%d expected: 1,0", row, col)
	}
}

// Property 8: INT 16h AH=0 on an empty buffer sets key-wait and rewinds
// IP to the INT bytes.
func TestKeyWait(t *testing.T) {
	_, c, mem, _ := newTestBIOS()
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x16})
	c.Step()
	if !c.Halted || c.Reason != cpu.HaltKeyWait {
		t.Errorf("halt got: %v/%s expected: true/key-wait", c.Halted, c.Reason)
	}
	if r := c.IP(); r != 0x100 {
		t.Errorf("IP got: %04x expected: 0100", r)
	}
	if r := mem.GetSegByte(0x1000, c.IP()); r != 0xCD {
		t.Errorf("IP does not point at INT got: %02x", r)
	}
}

// A pushed key resumes the wait and lands in AX.
func TestKeyDelivery(t *testing.T) {
	b, c, mem, _ := newTestBIOS()
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x16, 0xF4})
	c.Step()
	if !c.Halted {
		t.Errorf("expected key wait")
	}
	b.PushKey(0x1C0D) // Enter.
	if c.Halted {
		t.Errorf("push did not resume the CPU")
	}
	c.Step()
	if r := c.Reg(cpu.AX); r != 0x1C0D {
		t.Errorf("AX got: %04x expected: 1c0d", r)
	}
	c.Step()
	if c.Reason != cpu.HaltHLT {
		t.Errorf("reason got: %s expected: hlt", c.Reason)
	}
}

// Non-blocking peek reports via ZF and leaves the key queued.
func TestKeyPeek(t *testing.T) {
	b, c, mem, _ := newTestBIOS()
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xB4, 0x01, 0xCD, 0x16})
	c.Step()
	c.Step()
	if !c.GetFlag(cpu.FlagZ) {
		t.Errorf("empty peek did not set ZF")
	}
	b.PushKey(0x1E61)
	c.SetIP(0x100)
	c.Step()
	c.Step()
	if c.GetFlag(cpu.FlagZ) {
		t.Errorf("peek with key set ZF")
	}
	if r := c.Reg(cpu.AX); r != 0x1E61 {
		t.Errorf("AX got: %04x expected: 1e61", r)
	}
	if !b.HasKey() {
		t.Errorf("peek consumed the key")
	}
}

// INT 13h AH=02 reads sectors by CHS to ES:BX.
func TestDiskReadCHS(t *testing.T) {
	_, c, mem, fs := newTestBIOS()
	sec := make([]uint8, fat12.SectorSize)
	for i := range sec {
		sec[i] = uint8(i)
	}
	// LBA 19 = cylinder 0, head 1, sector 2.
	fs.WriteSector(19, sec)

	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x13})
	c.SetReg8(cpu.AH, 0x02)
	c.SetReg8(cpu.AL, 1)
	c.SetReg8(cpu.CH, 0)
	c.SetReg8(cpu.CL, 2)
	c.SetReg8(cpu.DH, 1)
	c.SetReg8(cpu.DL, 0)
	c.SetSreg(cpu.ES, 0x2000)
	c.SetReg(cpu.BX, 0x0000)
	c.Step()
	if c.GetFlag(cpu.FlagC) {
		t.Errorf("read failed with AH=%02x", c.Reg8(cpu.AH))
	}
	for i := 0; i < 16; i++ {
		if r := mem.GetSegByte(0x2000, uint16(i)); r != uint8(i) {
			t.Errorf("byte %d got: %02x expected: %02x", i, r, i)
		}
	}
}

// Bad CHS values set carry and a status code.
func TestDiskReadBadSector(t *testing.T) {
	_, c, mem, _ := newTestBIOS()
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x13})
	c.SetReg8(cpu.AH, 0x02)
	c.SetReg8(cpu.AL, 1)
	c.SetReg8(cpu.CL, 0) // Sector numbers are one based.
	c.Step()
	if !c.GetFlag(cpu.FlagC) {
		t.Errorf("bad sector did not set carry")
	}
}

// Drive parameter query matches the 1.44 MB geometry.
func TestDiskParameters(t *testing.T) {
	_, c, mem, _ := newTestBIOS()
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x13})
	c.SetReg8(cpu.AH, 0x08)
	c.Step()
	if r := c.Reg8(cpu.CL); r != 18 {
		t.Errorf("sectors got: %d expected: 18", r)
	}
	if r := c.Reg8(cpu.DH); r != 1 {
		t.Errorf("heads got: %d expected: 1", r)
	}
	if r := c.Reg8(cpu.BL); r != 4 {
		t.Errorf("type got: %d expected: 4", r)
	}
}

// The RTC reports BCD.
func TestClockBCD(t *testing.T) {
	b, c, mem, _ := newTestBIOS()
	b.Now = func() time.Time {
		return time.Date(1994, 6, 15, 23, 59, 8, 0, time.UTC)
	}
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x1A, 0xCD, 0x1A})
	c.SetReg8(cpu.AH, 0x02)
	c.Step()
	if r := c.Reg8(cpu.CH); r != 0x23 {
		t.Errorf("hours got: %02x expected: 23", r)
	}
	if r := c.Reg8(cpu.CL); r != 0x59 {
		t.Errorf("minutes got: %02x expected: 59", r)
	}
	if r := c.Reg8(cpu.DH); r != 0x08 {
		t.Errorf("seconds got: %02x expected: 08", r)
	}
	c.SetReg8(cpu.AH, 0x04)
	c.Step()
	if r := c.Reg8(cpu.CH); r != 0x19 {
		t.Errorf("century got: %02x expected: 19", r)
	}
	if r := c.Reg8(cpu.CL); r != 0x94 {
		t.Errorf("year got: %02x expected: 94", r)
	}
}

// Equipment and memory size words.
func TestEquipment(t *testing.T) {
	_, c, mem, _ := newTestBIOS()
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x11, 0xCD, 0x12})
	c.Step()
	if r := c.Reg(cpu.AX); r != 0x0021 {
		t.Errorf("equipment got: %04x expected: 0021", r)
	}
	c.Step()
	if r := c.Reg(cpu.AX); r != 640 {
		t.Errorf("memory size got: %d expected: 640", r)
	}
}

// Scroll window clears with the requested attribute.
func TestScrollWindowClear(t *testing.T) {
	b, c, mem, _ := newTestBIOS()
	b.Teletype('Q')
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x10})
	c.SetReg8(cpu.AH, 0x06)
	c.SetReg8(cpu.AL, 0) // Clear whole window.
	c.SetReg8(cpu.BH, 0x1F)
	c.SetReg8(cpu.CH, 0)
	c.SetReg8(cpu.CL, 0)
	c.SetReg8(cpu.DH, Rows-1)
	c.SetReg8(cpu.DL, Columns-1)
	c.Step()
	ch, attr := textCell(mem, 0, 0)
	if ch != ' ' || attr != 0x1F {
		t.Errorf("cell got: %02x/%02x expected: 20/1f", ch, attr)
	}
}

// Serial is a stub that always reports a timeout.
func TestSerialTimeout(t *testing.T) {
	_, c, mem, _ := newTestBIOS()
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xCD, 0x14})
	c.Step()
	if r := c.Reg8(cpu.AH); r&0x80 == 0 {
		t.Errorf("serial status got: %02x expected timeout bit", r)
	}
}

// Mode 13h clears the graphics framebuffer.
func TestGraphicsMode(t *testing.T) {
	b, c, mem, _ := newTestBIOS()
	mem.PutByte(GraphicsBase, 0xFF)
	mem.Load(memory.Physical(0x1000, 0x100), []uint8{0xB8, 0x13, 0x00, 0xCD, 0x10})
	c.Step()
	c.Step()
	if b.Mode() != 0x13 {
		t.Errorf("mode got: %02x expected: 13", b.Mode())
	}
	if r := mem.GetByte(GraphicsBase); r != 0 {
		t.Errorf("graphics memory not cleared: %02x", r)
	}
}
