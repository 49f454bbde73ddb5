/*
   dos86 - INT 10h video services.

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
	"dos86/emu/cpu"
)

// Video layout. The text framebuffer is two byte cells at 0xB8000; mode
// 13h pixels are single bytes at 0xA0000.
const (
	TextBase     = 0xB8000
	GraphicsBase = 0xA0000
	Columns      = 80
	Rows         = 25

	defaultAttr = 0x07
)

// cellAddr returns the framebuffer address of a text cell.
func cellAddr(row, col int) uint32 {
	return TextBase + uint32(row*Columns+col)*2
}

// Cursor returns the current text cursor position for the renderer.
func (b *BIOS) Cursor() (row, col int) {
	return b.cursorRow, b.cursorCol
}

// Mode returns the current video mode byte; the renderer polls it.
func (b *BIOS) Mode() uint8 {
	return b.videoMode
}

// setMode clears the framebuffer for the new mode.
func (b *BIOS) setMode(mode uint8) {
	b.videoMode = mode
	b.cursorRow = 0
	b.cursorCol = 0
	if mode == 0x13 {
		b.mem.Fill(GraphicsBase, 320*200, 0)
		return
	}
	b.clearText(defaultAttr)
}

func (b *BIOS) clearText(attr uint8) {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			addr := cellAddr(row, col)
			b.mem.PutByte(addr, ' ')
			b.mem.PutByte(addr+1, attr)
		}
	}
}

// scrollUp moves the window up by lines, blanking vacated rows with
// space and attr. lines of zero clears the whole window.
func (b *BIOS) scrollUp(lines, attr, top, left, bottom, right int) {
	if bottom >= Rows {
		bottom = Rows - 1
	}
	if right >= Columns {
		right = Columns - 1
	}
	if lines == 0 || lines > bottom-top {
		lines = bottom - top + 1
	}
	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			dst := cellAddr(row, col)
			if row+lines <= bottom {
				src := cellAddr(row+lines, col)
				b.mem.PutByte(dst, b.mem.GetByte(src))
				b.mem.PutByte(dst+1, b.mem.GetByte(src+1))
			} else {
				b.mem.PutByte(dst, ' ')
				b.mem.PutByte(dst+1, uint8(attr))
			}
		}
	}
}

func (b *BIOS) scrollDown(lines, attr, top, left, bottom, right int) {
	if bottom >= Rows {
		bottom = Rows - 1
	}
	if right >= Columns {
		right = Columns - 1
	}
	if lines == 0 || lines > bottom-top {
		lines = bottom - top + 1
	}
	for row := bottom; row >= top; row-- {
		for col := left; col <= right; col++ {
			dst := cellAddr(row, col)
			if row-lines >= top {
				src := cellAddr(row-lines, col)
				b.mem.PutByte(dst, b.mem.GetByte(src))
				b.mem.PutByte(dst+1, b.mem.GetByte(src+1))
			} else {
				b.mem.PutByte(dst, ' ')
				b.mem.PutByte(dst+1, uint8(attr))
			}
		}
	}
}

// Clear blanks the text screen and homes the cursor.
func (b *BIOS) Clear() {
	b.clearText(defaultAttr)
	b.cursorRow = 0
	b.cursorCol = 0
}

// Teletype writes one character at the cursor with the default attribute,
// honouring bell, backspace, line feed and carriage return, advancing and
// scrolling as needed.
func (b *BIOS) Teletype(ch uint8) {
	switch ch {
	case 7: // Bell.
	case 8:
		if b.cursorCol > 0 {
			b.cursorCol--
		}
	case 10:
		b.cursorRow++
	case 13:
		b.cursorCol = 0
	default:
		addr := cellAddr(b.cursorRow, b.cursorCol)
		b.mem.PutByte(addr, ch)
		b.mem.PutByte(addr+1, defaultAttr)
		b.cursorCol++
		if b.cursorCol >= Columns {
			b.cursorCol = 0
			b.cursorRow++
		}
	}
	if b.cursorRow >= Rows {
		b.scrollUp(1, defaultAttr, 0, 0, Rows-1, Columns-1)
		b.cursorRow = Rows - 1
	}
}

// intVideo dispatches INT 10h by function code in AH.
func (b *BIOS) intVideo(c *cpu.CPU) {
	switch c.Reg8(cpu.AH) {
	case 0x00:
		b.setMode(c.Reg8(cpu.AL) & 0x7F)
	case 0x01: // Cursor shape: not modelled.
	case 0x02:
		b.cursorRow = int(c.Reg8(cpu.DH))
		b.cursorCol = int(c.Reg8(cpu.DL))
	case 0x03:
		c.SetReg8(cpu.DH, uint8(b.cursorRow))
		c.SetReg8(cpu.DL, uint8(b.cursorCol))
		c.SetReg(cpu.CX, 0x0607)
	case 0x05: // Page select: single page.
	case 0x06:
		b.scrollUp(int(c.Reg8(cpu.AL)), int(c.Reg8(cpu.BH)),
			int(c.Reg8(cpu.CH)), int(c.Reg8(cpu.CL)),
			int(c.Reg8(cpu.DH)), int(c.Reg8(cpu.DL)))
	case 0x07:
		b.scrollDown(int(c.Reg8(cpu.AL)), int(c.Reg8(cpu.BH)),
			int(c.Reg8(cpu.CH)), int(c.Reg8(cpu.CL)),
			int(c.Reg8(cpu.DH)), int(c.Reg8(cpu.DL)))
	case 0x08:
		addr := cellAddr(b.cursorRow, b.cursorCol)
		c.SetReg8(cpu.AL, b.mem.GetByte(addr))
		c.SetReg8(cpu.AH, b.mem.GetByte(addr+1))
	case 0x09:
		ch := c.Reg8(cpu.AL)
		attr := c.Reg8(cpu.BL)
		row, col := b.cursorRow, b.cursorCol
		for range int(c.Reg(cpu.CX)) {
			addr := cellAddr(row, col)
			b.mem.PutByte(addr, ch)
			b.mem.PutByte(addr+1, attr)
			col++
			if col >= Columns {
				col = 0
				row++
				if row >= Rows {
					break
				}
			}
		}
	case 0x0A:
		ch := c.Reg8(cpu.AL)
		row, col := b.cursorRow, b.cursorCol
		for range int(c.Reg(cpu.CX)) {
			b.mem.PutByte(cellAddr(row, col), ch)
			col++
			if col >= Columns {
				col = 0
				row++
				if row >= Rows {
					break
				}
			}
		}
	case 0x0E:
		b.Teletype(c.Reg8(cpu.AL))
	case 0x0F:
		c.SetReg8(cpu.AL, b.videoMode)
		c.SetReg8(cpu.AH, Columns)
		c.SetReg8(cpu.BH, 0)
	case 0x10: // Palette: not modelled.
	case 0x11: // Character generator.
		if c.Reg8(cpu.AL) == 0x30 {
			c.SetReg(cpu.CX, 16)
			c.SetReg8(cpu.DL, Rows-1)
			c.SetSreg(cpu.ES, 0)
			c.SetReg(cpu.BP, 0)
		}
	case 0x12: // Alternate select.
		if c.Reg8(cpu.BL) == 0x10 {
			c.SetReg8(cpu.BH, 0) // Color mode.
			c.SetReg8(cpu.BL, 3) // 256K of video memory.
			c.SetReg(cpu.CX, 0)
		}
	case 0x13: // Write string at DH:DL from ES:BP.
		row := int(c.Reg8(cpu.DH))
		col := int(c.Reg8(cpu.DL))
		attr := c.Reg8(cpu.BL)
		seg := c.Sreg(cpu.ES)
		off := c.Reg(cpu.BP)
		move := c.Reg8(cpu.AL)&1 != 0
		for i := uint16(0); i < c.Reg(cpu.CX); i++ {
			ch := b.mem.GetSegByte(seg, off+i)
			addr := cellAddr(row, col)
			b.mem.PutByte(addr, ch)
			b.mem.PutByte(addr+1, attr)
			col++
			if col >= Columns {
				col = 0
				row++
				if row >= Rows {
					row = Rows - 1
				}
			}
		}
		if move {
			b.cursorRow = row
			b.cursorCol = col
		}
	case 0x1A: // Display combination code: VGA with color display.
		c.SetReg8(cpu.AL, 0x1A)
		c.SetReg8(cpu.BL, 0x08)
	}
}
