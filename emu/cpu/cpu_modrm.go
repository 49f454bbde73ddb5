/*
   dos86 - ModR/M decode and operand access.

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

package cpu

import (
	"dos86/emu/memory"
)

// fetchModRM consumes the ModR/M byte and any displacement, resolving the
// memory operand to a physical address. It runs once per instruction; the
// resolved address lives in step so read-modify-write handlers reuse it.
func (cpu *CPU) fetchModRM(step *stepInfo) {
	modrm := cpu.fetchByte()
	step.mod = modrm >> 6
	step.reg = (modrm >> 3) & 7
	step.rm = modrm & 7

	if step.mod == 3 {
		step.isReg = true
		return
	}
	step.isReg = false

	var off uint16
	seg := DS
	switch step.rm {
	case 0:
		off = cpu.regs[BX] + cpu.regs[SI]
	case 1:
		off = cpu.regs[BX] + cpu.regs[DI]
	case 2:
		off = cpu.regs[BP] + cpu.regs[SI]
		seg = SS
	case 3:
		off = cpu.regs[BP] + cpu.regs[DI]
		seg = SS
	case 4:
		off = cpu.regs[SI]
	case 5:
		off = cpu.regs[DI]
	case 6:
		if step.mod == 0 {
			off = cpu.fetchWord()
		} else {
			off = cpu.regs[BP]
			seg = SS
		}
	case 7:
		off = cpu.regs[BX]
	}

	switch step.mod {
	case 1:
		off += uint16(int16(int8(cpu.fetchByte())))
	case 2:
		off += cpu.fetchWord()
	}

	if cpu.segOverride >= 0 {
		seg = cpu.segOverride
	}
	step.ea = memory.Physical(cpu.sregs[seg], off)
}

// segBase returns the segment to use for a data reference whose default
// is def, honouring an override prefix.
func (cpu *CPU) segBase(def int) uint16 {
	if cpu.segOverride >= 0 {
		return cpu.sregs[cpu.segOverride]
	}
	return cpu.sregs[def]
}

// readRM8 reads the byte selected by ModR/M.
func (cpu *CPU) readRM8(step *stepInfo) uint8 {
	if step.isReg {
		return cpu.Reg8(int(step.rm))
	}
	return cpu.Mem.GetByte(step.ea)
}

// writeRM8 writes the byte selected by ModR/M.
func (cpu *CPU) writeRM8(step *stepInfo, value uint8) {
	if step.isReg {
		cpu.SetReg8(int(step.rm), value)
	} else {
		cpu.Mem.PutByte(step.ea, value)
	}
}

// readRM16 reads the word selected by ModR/M.
func (cpu *CPU) readRM16(step *stepInfo) uint16 {
	if step.isReg {
		return cpu.regs[step.rm]
	}
	return cpu.Mem.GetWord(step.ea)
}

// writeRM16 writes the word selected by ModR/M.
func (cpu *CPU) writeRM16(step *stepInfo, value uint16) {
	if step.isReg {
		cpu.regs[step.rm] = value
	} else {
		cpu.Mem.PutWord(step.ea, value)
	}
}
