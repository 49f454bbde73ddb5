/*
   dos86 - String primitives and repeat prefixes.

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

// stride returns the per-iteration pointer delta for the width, honouring
// the direction flag.
func (cpu *CPU) stride(wide bool) uint16 {
	d := uint16(1)
	if wide {
		d = 2
	}
	if cpu.GetFlag(FlagD) {
		return -d
	}
	return d
}

// repLoop runs body once for a bare string opcode, or CX-counted when a
// repeat prefix is active. For the compare forms (checkZF), the loop also
// stops when ZF disagrees with the prefix after an iteration. A repeat
// with CX=0 executes nothing.
func (cpu *CPU) repLoop(checkZF bool, body func()) {
	if cpu.repeat == repNone {
		body()
		return
	}
	for cpu.regs[CX] != 0 {
		body()
		cpu.regs[CX]--
		if checkZF {
			if cpu.repeat == repWhileEqual && !cpu.GetFlag(FlagZ) {
				return
			}
			if cpu.repeat == repWhileNotEqual && cpu.GetFlag(FlagZ) {
				return
			}
		}
	}
}

// srcAddr is DS:SI (overridable); dstAddr is always ES:DI.
func (cpu *CPU) srcAddr() uint32 {
	return memory.Physical(cpu.segBase(DS), cpu.regs[SI])
}

func (cpu *CPU) dstAddr() uint32 {
	return memory.Physical(cpu.sregs[ES], cpu.regs[DI])
}

// opMovs copies DS:SI to ES:DI.
func (cpu *CPU) opMovs(step *stepInfo) {
	wide := step.opcode&1 != 0
	delta := cpu.stride(wide)
	cpu.repLoop(false, func() {
		if wide {
			cpu.Mem.PutWord(cpu.dstAddr(), cpu.Mem.GetWord(cpu.srcAddr()))
		} else {
			cpu.Mem.PutByte(cpu.dstAddr(), cpu.Mem.GetByte(cpu.srcAddr()))
		}
		cpu.regs[SI] += delta
		cpu.regs[DI] += delta
	})
}

// opCmps compares DS:SI with ES:DI, setting the full arithmetic flags.
func (cpu *CPU) opCmps(step *stepInfo) {
	wide := step.opcode&1 != 0
	delta := cpu.stride(wide)
	cpu.repLoop(true, func() {
		if wide {
			cpu.sub16(cpu.Mem.GetWord(cpu.srcAddr()), cpu.Mem.GetWord(cpu.dstAddr()), false)
		} else {
			cpu.sub8(cpu.Mem.GetByte(cpu.srcAddr()), cpu.Mem.GetByte(cpu.dstAddr()), false)
		}
		cpu.regs[SI] += delta
		cpu.regs[DI] += delta
	})
}

// opStos stores the accumulator at ES:DI.
func (cpu *CPU) opStos(step *stepInfo) {
	wide := step.opcode&1 != 0
	delta := cpu.stride(wide)
	cpu.repLoop(false, func() {
		if wide {
			cpu.Mem.PutWord(cpu.dstAddr(), cpu.regs[AX])
		} else {
			cpu.Mem.PutByte(cpu.dstAddr(), cpu.Reg8(AL))
		}
		cpu.regs[DI] += delta
	})
}

// opLods loads the accumulator from DS:SI.
func (cpu *CPU) opLods(step *stepInfo) {
	wide := step.opcode&1 != 0
	delta := cpu.stride(wide)
	cpu.repLoop(false, func() {
		if wide {
			cpu.regs[AX] = cpu.Mem.GetWord(cpu.srcAddr())
		} else {
			cpu.SetReg8(AL, cpu.Mem.GetByte(cpu.srcAddr()))
		}
		cpu.regs[SI] += delta
	})
}

// opScas compares the accumulator with ES:DI.
func (cpu *CPU) opScas(step *stepInfo) {
	wide := step.opcode&1 != 0
	delta := cpu.stride(wide)
	cpu.repLoop(true, func() {
		if wide {
			cpu.sub16(cpu.regs[AX], cpu.Mem.GetWord(cpu.dstAddr()), false)
		} else {
			cpu.sub8(cpu.Reg8(AL), cpu.Mem.GetByte(cpu.dstAddr()), false)
		}
		cpu.regs[DI] += delta
	})
}

// opIns reads a port into ES:DI; opOuts writes DS:SI to a port.
func (cpu *CPU) opIns(step *stepInfo) {
	wide := step.opcode&1 != 0
	delta := cpu.stride(wide)
	port := cpu.regs[DX]
	cpu.repLoop(false, func() {
		if wide {
			low := cpu.portIn(port)
			high := cpu.portIn(port + 1)
			cpu.Mem.PutWord(cpu.dstAddr(), uint16(low)|uint16(high)<<8)
		} else {
			cpu.Mem.PutByte(cpu.dstAddr(), cpu.portIn(port))
		}
		cpu.regs[DI] += delta
	})
}

func (cpu *CPU) opOuts(step *stepInfo) {
	wide := step.opcode&1 != 0
	delta := cpu.stride(wide)
	port := cpu.regs[DX]
	cpu.repLoop(false, func() {
		if wide {
			word := cpu.Mem.GetWord(cpu.srcAddr())
			cpu.portOut(port, uint8(word))
			cpu.portOut(port+1, uint8(word>>8))
		} else {
			cpu.portOut(port, cpu.Mem.GetByte(cpu.srcAddr()))
		}
		cpu.regs[SI] += delta
	})
}
