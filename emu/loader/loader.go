/*
   dos86 - COM and MZ program loader.

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

// Package loader recognises COM and MZ images, places them in memory
// behind a fresh PSP and arranges the initial register state.
package loader

import (
	"errors"
	"fmt"

	"dos86/emu/cpu"
	"dos86/emu/dos"
	"dos86/emu/memory"
)

var ErrNoMemory = errors.New("not enough memory")

// Program describes a loaded image, so the orchestrator can tear the
// allocation down at exit.
type Program struct {
	PSPSeg uint16
	EnvSeg uint16
	Name   string
}

// envParagraphs is generous for the four standard variables plus a path.
const envParagraphs = 0x20

// Load places image into memory and primes the CPU. The image kind is
// recognised by its first two bytes: MZ marks an EXE, anything else loads
// as a flat COM image at offset 0x100.
func Load(c *cpu.CPU, mem *memory.Memory, d *dos.DOS, image []uint8, name, tail string, env map[string]string) (*Program, error) {
	envSeg, ok := d.AllocParagraphs(envParagraphs)
	if !ok {
		return nil, ErrNoMemory
	}
	d.BuildEnvironment(envSeg, "A:\\"+name, env)

	if len(image) >= 2 && image[0] == 'M' && image[1] == 'Z' {
		prog, err := loadMZ(c, mem, d, image, name, tail, envSeg)
		if err != nil {
			d.FreeParagraphs(envSeg)
			return nil, err
		}
		return prog, nil
	}
	prog, err := loadCOM(c, mem, d, image, name, tail, envSeg)
	if err != nil {
		d.FreeParagraphs(envSeg)
		return nil, err
	}
	return prog, nil
}

// Unload releases a program's memory.
func Unload(d *dos.DOS, prog *Program) {
	d.FreeParagraphs(prog.PSPSeg)
	d.FreeParagraphs(prog.EnvSeg)
}

// loadCOM: a full 64K segment with the image at offset 0x100. All
// segments point at the PSP and a zero word on the stack provides a near
// return to the INT 20h at PSP offset 0.
func loadCOM(c *cpu.CPU, mem *memory.Memory, d *dos.DOS, image []uint8, name, tail string, envSeg uint16) (*Program, error) {
	if len(image) > 0xFF00-0x100 {
		return nil, fmt.Errorf("%s: image too large for a COM segment", name)
	}
	pspSeg, ok := d.AllocParagraphs(0x1000)
	if !ok {
		return nil, ErrNoMemory
	}
	d.BuildPSP(pspSeg, envSeg, tail)
	mem.Load(memory.Physical(pspSeg, 0x100), image)

	c.Resume()
	c.SetSreg(cpu.CS, pspSeg)
	c.SetSreg(cpu.DS, pspSeg)
	c.SetSreg(cpu.ES, pspSeg)
	c.SetSreg(cpu.SS, pspSeg)
	c.SetReg(cpu.SP, 0xFFFE)
	mem.PutSegWord(pspSeg, 0xFFFE, 0x0000)
	c.SetIP(0x0100)
	return &Program{PSPSeg: pspSeg, EnvSeg: envSeg, Name: name}, nil
}

// MZ header word offsets.
const (
	mzRelocCount  = 6
	mzHeaderParas = 8
	mzMinAlloc    = 10
	mzInitSS      = 14
	mzInitSP      = 16
	mzInitIP      = 20
	mzInitCS      = 22
	mzRelocTable  = 24
)

func headerWord(image []uint8, off int) uint16 {
	return uint16(image[off]) | uint16(image[off+1])<<8
}

// loadMZ parses the 28 byte EXE header, copies the load module, applies
// the relocation table and derives the entry point from the header plus
// the load segment.
func loadMZ(c *cpu.CPU, mem *memory.Memory, d *dos.DOS, image []uint8, name, tail string, envSeg uint16) (*Program, error) {
	if len(image) < 28 {
		return nil, fmt.Errorf("%s: truncated EXE header", name)
	}
	headerBytes := int(headerWord(image, mzHeaderParas)) * 16
	if headerBytes > len(image) {
		return nil, fmt.Errorf("%s: EXE header larger than file", name)
	}
	module := image[headerBytes:]

	moduleParas := uint16((len(module) + 15) / 16)
	paras := 16 + moduleParas + headerWord(image, mzMinAlloc)
	pspSeg, ok := d.AllocParagraphs(paras)
	if !ok {
		return nil, ErrNoMemory
	}
	loadSeg := pspSeg + 16
	d.BuildPSP(pspSeg, envSeg, tail)
	mem.Load(memory.Physical(loadSeg, 0), module)

	relocCount := int(headerWord(image, mzRelocCount))
	relocOff := int(headerWord(image, mzRelocTable))
	for i := 0; i < relocCount; i++ {
		entry := relocOff + i*4
		if entry+4 > headerBytes {
			break
		}
		off := headerWord(image, entry)
		seg := headerWord(image, entry+2)
		addr := memory.Physical(loadSeg+seg, off)
		mem.PutWord(addr, mem.GetWord(addr)+loadSeg)
	}

	c.Resume()
	c.SetSreg(cpu.CS, headerWord(image, mzInitCS)+loadSeg)
	c.SetIP(headerWord(image, mzInitIP))
	c.SetSreg(cpu.SS, headerWord(image, mzInitSS)+loadSeg)
	c.SetReg(cpu.SP, headerWord(image, mzInitSP))
	c.SetSreg(cpu.DS, pspSeg)
	c.SetSreg(cpu.ES, pspSeg)
	return &Program{PSPSeg: pspSeg, EnvSeg: envSeg, Name: name}, nil
}
