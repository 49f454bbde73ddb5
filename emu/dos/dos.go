/*
   dos86 - DOS interrupt services.

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

// Package dos synthesises the INT 21h file and process personality: the
// open-file table, the Program Segment Prefix, the environment block, the
// Disk Transfer Area and the paragraph allocator. Engine errors are
// translated to DOS error codes returned in AX with CF set.
package dos

import (
	"strings"
	"time"

	"dos86/emu/bios"
	"dos86/emu/cpu"
	"dos86/emu/memory"
	"dos86/fs/fat12"
)

// DOS error codes reported to the guest.
const (
	errInvalidFunction = 0x01
	errFileNotFound    = 0x02
	errPathNotFound    = 0x03
	errAccessDenied    = 0x05
	errInvalidHandle   = 0x06
	errNoMemory        = 0x08
	errNoMoreFiles     = 0x12
)

// DOS is the service layer state.
type DOS struct {
	cpu  *cpu.CPU
	mem  *memory.Memory
	fs   *fat12.Filesystem
	bios *bios.BIOS

	files      map[uint16]*openFile
	nextHandle uint16

	cwd []string

	dtaSeg, dtaOff uint16
	found          []fat12.DirEntry
	foundIdx       int

	pspSeg   uint16
	exitCode uint8

	alloc allocator

	// Now supplies the DOS clock; tests pin it.
	Now func() time.Time
}

// New wires the DOS handlers into the CPU's interrupt table.
func New(c *cpu.CPU, mem *memory.Memory, fs *fat12.Filesystem, b *bios.BIOS) *DOS {
	d := &DOS{
		cpu:        c,
		mem:        mem,
		fs:         fs,
		bios:       b,
		files:      make(map[uint16]*openFile),
		nextHandle: firstFileHandle,
		alloc:      newAllocator(),
		Now:        time.Now,
	}
	c.RegisterHandler(0x20, func(c *cpu.CPU, _ uint8) { d.terminate(c) })
	c.RegisterHandler(0x21, func(c *cpu.CPU, _ uint8) { d.intDOS(c) })
	c.RegisterHandler(0x22, func(_ *cpu.CPU, _ uint8) {})
	c.RegisterHandler(0x23, func(_ *cpu.CPU, _ uint8) {})
	c.RegisterHandler(0x24, func(_ *cpu.CPU, _ uint8) {})
	c.RegisterHandler(0x27, func(c *cpu.CPU, _ uint8) { d.terminate(c) })
	c.RegisterHandler(0x28, func(_ *cpu.CPU, _ uint8) {})
	c.RegisterHandler(0x2F, func(c *cpu.CPU, _ uint8) { c.SetReg(cpu.AX, 0) })
	return d
}

// Cwd returns the current directory components.
func (d *DOS) Cwd() []string {
	return d.cwd
}

// SetCwd replaces the current directory; the shell drives this.
func (d *DOS) SetCwd(path []string) {
	d.cwd = path
}

// ExitCode returns the code of the last terminated program.
func (d *DOS) ExitCode() uint8 {
	return d.exitCode
}

// terminate ends the running program.
func (d *DOS) terminate(c *cpu.CPU) {
	d.closeAll()
	c.Halt(cpu.HaltProgramExit)
}

// fail reports a DOS error in AX with carry set.
func (d *DOS) fail(c *cpu.CPU, code uint16) {
	c.SetReg(cpu.AX, code)
	c.SetFlag(cpu.FlagC, true)
}

func (d *DOS) succeed(c *cpu.CPU) {
	c.SetFlag(cpu.FlagC, false)
}

// fsError maps a filesystem engine error to a DOS code.
func fsError(err error) uint16 {
	switch err {
	case fat12.ErrPathNotFound:
		return errPathNotFound
	case fat12.ErrNotFound:
		return errFileNotFound
	case fat12.ErrDiskFull, fat12.ErrDirectoryFull:
		return errAccessDenied
	case fat12.ErrExists:
		return errAccessDenied
	}
	return errAccessDenied
}

// readString reads a NUL terminated string from guest memory.
func (d *DOS) readString(seg, off uint16) string {
	var sb strings.Builder
	for i := uint16(0); i < 256; i++ {
		ch := d.mem.GetSegByte(seg, off+i)
		if ch == 0 {
			break
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// intDOS dispatches INT 21h by the function code in AH. Every file opcode
// routes through the open-file table; the console handles 0-2 reach the
// BIOS teletype.
func (d *DOS) intDOS(c *cpu.CPU) {
	switch c.Reg8(cpu.AH) {
	case 0x00: // Terminate, old style.
		d.terminate(c)

	case 0x01: // Char input with echo.
		key, ok := d.readKey(c)
		if !ok {
			return
		}
		c.SetReg8(cpu.AL, uint8(key))
		d.bios.Teletype(uint8(key))

	case 0x02: // Char output.
		d.bios.Teletype(c.Reg8(cpu.DL))
		c.SetReg8(cpu.AL, c.Reg8(cpu.DL))

	case 0x06: // Direct console I/O.
		if c.Reg8(cpu.DL) == 0xFF {
			key, ok := d.bios.PopKey()
			if !ok {
				c.SetFlag(cpu.FlagZ, true)
				c.SetReg8(cpu.AL, 0)
				return
			}
			c.SetFlag(cpu.FlagZ, false)
			c.SetReg8(cpu.AL, uint8(key))
		} else {
			d.bios.Teletype(c.Reg8(cpu.DL))
		}

	case 0x07, 0x08: // Char input without echo.
		key, ok := d.readKey(c)
		if !ok {
			return
		}
		c.SetReg8(cpu.AL, uint8(key))

	case 0x09: // Print $-terminated string at DS:DX.
		seg := c.Sreg(cpu.DS)
		off := c.Reg(cpu.DX)
		for i := uint16(0); i < 4096; i++ {
			ch := d.mem.GetSegByte(seg, off+i)
			if ch == '$' {
				break
			}
			d.bios.Teletype(ch)
		}
		c.SetReg8(cpu.AL, '$')

	case 0x0A: // Buffered line input.
		d.bufferedInput(c)

	case 0x0B: // Input status.
		if d.bios.HasKey() {
			c.SetReg8(cpu.AL, 0xFF)
		} else {
			c.SetReg8(cpu.AL, 0x00)
		}

	case 0x0C: // Flush buffer, then run the function in AL.
		for {
			if _, ok := d.bios.PopKey(); !ok {
				break
			}
		}
		sub := c.Reg8(cpu.AL)
		if sub == 0x01 || sub == 0x06 || sub == 0x07 || sub == 0x08 || sub == 0x0A {
			c.SetReg8(cpu.AH, sub)
			d.intDOS(c)
		}

	case 0x0E: // Select disk: one drive.
		c.SetReg8(cpu.AL, 1)

	case 0x19: // Current disk: A.
		c.SetReg8(cpu.AL, 0)

	case 0x1A: // Set DTA.
		d.dtaSeg = c.Sreg(cpu.DS)
		d.dtaOff = c.Reg(cpu.DX)

	case 0x25: // Set interrupt vector AL from DS:DX.
		vector := uint32(c.Reg8(cpu.AL)) * 4
		d.mem.PutWord(vector, c.Reg(cpu.DX))
		d.mem.PutWord(vector+2, c.Sreg(cpu.DS))

	case 0x2A: // Get date.
		now := d.Now()
		c.SetReg(cpu.CX, uint16(now.Year()))
		c.SetReg8(cpu.DH, uint8(now.Month()))
		c.SetReg8(cpu.DL, uint8(now.Day()))
		c.SetReg8(cpu.AL, uint8(now.Weekday()))

	case 0x2B: // Set date: accepted, not tracked.
		c.SetReg8(cpu.AL, 0)

	case 0x2C: // Get time.
		now := d.Now()
		c.SetReg8(cpu.CH, uint8(now.Hour()))
		c.SetReg8(cpu.CL, uint8(now.Minute()))
		c.SetReg8(cpu.DH, uint8(now.Second()))
		c.SetReg8(cpu.DL, uint8(now.Nanosecond()/10000000))

	case 0x2D: // Set time.
		c.SetReg8(cpu.AL, 0)

	case 0x2F: // Get DTA.
		c.SetSreg(cpu.ES, d.dtaSeg)
		c.SetReg(cpu.BX, d.dtaOff)

	case 0x30: // Version: DOS 5.0.
		c.SetReg(cpu.AX, 0x0005)
		c.SetReg(cpu.BX, 0)
		c.SetReg(cpu.CX, 0)

	case 0x33: // Break flag.
		c.SetReg8(cpu.DL, 0)

	case 0x35: // Get interrupt vector AL into ES:BX.
		vector := uint32(c.Reg8(cpu.AL)) * 4
		c.SetReg(cpu.BX, d.mem.GetWord(vector))
		c.SetSreg(cpu.ES, d.mem.GetWord(vector+2))

	case 0x36: // Free disk space.
		c.SetReg(cpu.AX, 1) // Sectors per cluster.
		c.SetReg(cpu.BX, uint16(d.fs.FreeClusters()))
		c.SetReg(cpu.CX, fat12.SectorSize)
		c.SetReg(cpu.DX, uint16(fat12.TotalClusters))

	case 0x3B: // Chdir.
		d.chdir(c)

	case 0x3C:
		d.createFile(c)
	case 0x3D:
		d.openFileCall(c)
	case 0x3E:
		d.closeFile(c)
	case 0x3F:
		d.readFile(c)
	case 0x40:
		d.writeFile(c)
	case 0x41:
		d.deleteFile(c)
	case 0x42:
		d.seekFile(c)
	case 0x43:
		d.fileAttributes(c)

	case 0x44: // IOCTL.
		d.ioctl(c)

	case 0x47: // Current directory into DS:SI.
		d.currentDir(c)

	case 0x48:
		d.allocMemory(c)
	case 0x49:
		d.freeMemory(c)
	case 0x4A:
		d.resizeMemory(c)

	case 0x4B: // Exec: not supported from the guest side.
		d.fail(c, errFileNotFound)

	case 0x4C: // Terminate with return code.
		d.exitCode = c.Reg8(cpu.AL)
		d.terminate(c)

	case 0x4D: // Exit code of last child.
		c.SetReg(cpu.AX, uint16(d.exitCode))

	case 0x4E:
		d.findFirst(c)
	case 0x4F:
		d.findNext(c)

	case 0x54: // Verify flag.
		c.SetReg8(cpu.AL, 0)

	case 0x56:
		d.renameFile(c)

	case 0x57: // File date and time by handle.
		d.fileStamp(c)

	case 0x62: // Current PSP segment.
		c.SetReg(cpu.BX, d.pspSeg)

	default:
		d.fail(c, errInvalidFunction)
	}
}

// readKey pops a key or arranges a retry of the INT when the buffer is
// empty, exactly like the BIOS blocking read.
func (d *DOS) readKey(c *cpu.CPU) (uint16, bool) {
	key, ok := d.bios.PopKey()
	if !ok {
		c.SetIP(c.IP() - 2)
		c.Halt(cpu.HaltKeyWait)
		return 0, false
	}
	return key, true
}

// bufferedInput implements AH=0Ah. The call completes only once a whole
// line is buffered; otherwise it retries on resume without consuming
// anything, so no partial line is lost.
func (d *DOS) bufferedInput(c *cpu.CPU) {
	if !d.bios.HasLine() {
		c.SetIP(c.IP() - 2)
		c.Halt(cpu.HaltKeyWait)
		return
	}
	seg := c.Sreg(cpu.DS)
	off := c.Reg(cpu.DX)
	max := int(d.mem.GetSegByte(seg, off))
	count := 0
	for {
		key, ok := d.bios.PopKey()
		if !ok {
			break
		}
		ch := uint8(key)
		if ch == '\r' {
			d.bios.Teletype('\r')
			d.bios.Teletype('\n')
			break
		}
		if ch == 8 {
			if count > 0 {
				count--
				d.bios.Teletype(8)
				d.bios.Teletype(' ')
				d.bios.Teletype(8)
			}
			continue
		}
		if count < max-1 {
			d.mem.PutSegByte(seg, off+2+uint16(count), ch)
			count++
			d.bios.Teletype(ch)
		}
	}
	d.mem.PutSegByte(seg, off+1, uint8(count))
	d.mem.PutSegByte(seg, off+2+uint16(count), '\r')
}

// chdir resolves the path at DS:DX against the current directory.
func (d *DOS) chdir(c *cpu.CPU) {
	path := d.readString(c.Sreg(cpu.DS), c.Reg(cpu.DX))
	components, _, ok := d.resolveDir(path)
	if !ok {
		d.fail(c, errPathNotFound)
		return
	}
	d.cwd = components
	d.succeed(c)
}

// currentDir writes the cwd as PATH\SUBDIR (no drive, no leading slash)
// into the 64 byte buffer at DS:SI.
func (d *DOS) currentDir(c *cpu.CPU) {
	seg := c.Sreg(cpu.DS)
	off := c.Reg(cpu.SI)
	text := strings.Join(d.cwd, "\\")
	for i := 0; i < len(text) && i < 63; i++ {
		d.mem.PutSegByte(seg, off+uint16(i), text[i])
	}
	d.mem.PutSegByte(seg, off+uint16(len(text)), 0)
	c.SetReg8(cpu.AL, 0)
	d.succeed(c)
}

// ioctl subfunction 0 reports device information; the standard handles
// are character devices.
func (d *DOS) ioctl(c *cpu.CPU) {
	switch c.Reg8(cpu.AL) {
	case 0x00:
		handle := c.Reg(cpu.BX)
		if handle <= 2 {
			c.SetReg(cpu.DX, 0x80D3)
		} else if _, ok := d.files[handle]; ok {
			c.SetReg(cpu.DX, 0x0000)
		} else {
			d.fail(c, errInvalidHandle)
			return
		}
		d.succeed(c)
	case 0x01: // Set device information: accepted.
		d.succeed(c)
	default:
		d.fail(c, errInvalidFunction)
	}
}
