/*
   dos86 - 8086 interpreter core.

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

// Package cpu interprets real-mode 8086 machine code against the flat one
// megabyte memory. On a software interrupt it consults a table of
// synthesised handlers before falling back to the interrupt vector table
// in guest memory.
package cpu

import (
	"log/slog"

	"dos86/emu/memory"
)

/*
   The 8086 executes 16 bit instructions of one to six bytes:

      [prefixes] opcode [ModR/M] [displacement] [immediate]

   Prefixes (segment override, REP/REPNE, LOCK) attach to the single
   following instruction. The ModR/M byte selects an addressing form:

      mod reg r/m
       2   3   3  bits

   with mod choosing no/8 bit/16 bit displacement or a register operand,
   and r/m choosing the base register pair for the effective address.
*/

// CPU holds the architected state of the interpreter.
type CPU struct {
	Mem *memory.Memory

	regs  [8]uint16 // AX CX DX BX SP BP SI DI
	sregs [6]uint16 // ES CS SS DS FS GS
	ip    uint16
	flags uint16

	// Ephemeral prefix state, cleared at each top level instruction.
	segOverride int // Segment index, -1 for none.
	repeat      int

	// Halt state observed by the scheduler.
	Halted bool
	Reason HaltReason

	handlers [256]func(*CPU, uint8)
	ports    map[uint16]Port
	table    [256]func(*stepInfo)

	// Cycles is a coarse executed-instruction count, used as the time
	// proxy for INT 15h waits.
	Cycles uint64
}

// New returns a reset CPU attached to mem.
func New(mem *memory.Memory) *CPU {
	cpu := &CPU{
		Mem:   mem,
		ports: make(map[uint16]Port),
	}
	cpu.createTable()
	cpu.Reset()
	return cpu
}

// Reset restores power-on state. Memory and handler tables are untouched.
func (cpu *CPU) Reset() {
	for i := range cpu.regs {
		cpu.regs[i] = 0
	}
	for i := range cpu.sregs {
		cpu.sregs[i] = 0
	}
	cpu.ip = 0
	cpu.flags = flagsReserved
	cpu.segOverride = -1
	cpu.repeat = repNone
	cpu.Halted = false
	cpu.Reason = HaltNone
}

// Register accessors. Registers alias their 8 bit halves, so there is one
// 16 bit field per register and the half accessors shift.

// Reg returns a 16 bit general register.
func (cpu *CPU) Reg(index int) uint16 {
	return cpu.regs[index]
}

// SetReg sets a 16 bit general register.
func (cpu *CPU) SetReg(index int, value uint16) {
	cpu.regs[index] = value
}

// Reg8 returns a byte register (AL..BH order).
func (cpu *CPU) Reg8(index int) uint8 {
	if index < 4 {
		return uint8(cpu.regs[index])
	}
	return uint8(cpu.regs[index-4] >> 8)
}

// SetReg8 sets a byte register.
func (cpu *CPU) SetReg8(index int, value uint8) {
	if index < 4 {
		cpu.regs[index] = cpu.regs[index]&0xFF00 | uint16(value)
	} else {
		cpu.regs[index-4] = cpu.regs[index-4]&0x00FF | uint16(value)<<8
	}
}

// Sreg returns a segment register.
func (cpu *CPU) Sreg(index int) uint16 {
	return cpu.sregs[index]
}

// SetSreg sets a segment register.
func (cpu *CPU) SetSreg(index int, value uint16) {
	cpu.sregs[index] = value
}

// IP returns the instruction pointer.
func (cpu *CPU) IP() uint16 {
	return cpu.ip
}

// SetIP sets the instruction pointer.
func (cpu *CPU) SetIP(value uint16) {
	cpu.ip = value
}

// Flags returns the flag word with the reserved bit forced on.
func (cpu *CPU) Flags() uint16 {
	return cpu.flags&flagsMask | flagsReserved
}

// SetFlags replaces the flag word, normalising reserved bits.
func (cpu *CPU) SetFlags(value uint16) {
	cpu.flags = value&flagsMask | flagsReserved
}

// GetFlag reports one flag bit.
func (cpu *CPU) GetFlag(bit uint16) bool {
	return cpu.flags&bit != 0
}

// SetFlag sets or clears one flag bit.
func (cpu *CPU) SetFlag(bit uint16, on bool) {
	if on {
		cpu.flags |= bit
	} else {
		cpu.flags &^= bit
	}
}

// RegisterHandler installs a synthesised interrupt handler for vector. The
// handler receives the vector so one function can serve several vectors.
func (cpu *CPU) RegisterHandler(vector uint8, handler func(*CPU, uint8)) {
	cpu.handlers[vector] = handler
}

// RegisterPort installs an I/O port.
func (cpu *CPU) RegisterPort(port uint16, p Port) {
	cpu.ports[port] = p
}

// Halt stops the interpreter with a reason tag.
func (cpu *CPU) Halt(reason HaltReason) {
	cpu.Halted = true
	cpu.Reason = reason
}

// Resume clears the halt state; the scheduler calls this when input
// arrives for a key wait.
func (cpu *CPU) Resume() {
	cpu.Halted = false
	cpu.Reason = HaltNone
}

// Instruction fetch.

func (cpu *CPU) fetchByte() uint8 {
	b := cpu.Mem.GetSegByte(cpu.sregs[CS], cpu.ip)
	cpu.ip++
	return b
}

func (cpu *CPU) fetchWord() uint16 {
	w := cpu.Mem.GetSegWord(cpu.sregs[CS], cpu.ip)
	cpu.ip += 2
	return w
}

// Step executes one top level instruction, including any prefixes and a
// whole repeated string operation. It is a no-op while halted.
func (cpu *CPU) Step() {
	if cpu.Halted {
		return
	}
	cpu.segOverride = -1
	cpu.repeat = repNone

	step := &stepInfo{}
	for {
		opcode := cpu.fetchByte()
		switch opcode {
		case 0x26:
			cpu.segOverride = ES
			continue
		case 0x2E:
			cpu.segOverride = CS
			continue
		case 0x36:
			cpu.segOverride = SS
			continue
		case 0x3E:
			cpu.segOverride = DS
			continue
		case 0x64:
			cpu.segOverride = FS
			continue
		case 0x65:
			cpu.segOverride = GS
			continue
		case 0xF0:
			// LOCK: single bus, nothing to lock.
			continue
		case 0xF2:
			cpu.repeat = repWhileNotEqual
			continue
		case 0xF3:
			cpu.repeat = repWhileEqual
			continue
		}
		step.opcode = opcode
		cpu.table[opcode](step)
		cpu.Cycles++
		return
	}
}

// Stack.

func (cpu *CPU) push(value uint16) {
	cpu.regs[SP] -= 2
	cpu.Mem.PutSegWord(cpu.sregs[SS], cpu.regs[SP], value)
}

func (cpu *CPU) pop() uint16 {
	value := cpu.Mem.GetSegWord(cpu.sregs[SS], cpu.regs[SP])
	cpu.regs[SP] += 2
	return value
}

// Interrupt runs the software interrupt trampoline for vector: push flags,
// clear IF and TF, push CS:IP, then either run a synthesised handler or
// vector through the table in guest memory. After a synthesised handler the
// three pushed words are discarded so the stack balances; a handler that
// rewound IP to retry the interrupt keeps its CS:IP.
func (cpu *CPU) Interrupt(vector uint8) {
	cpu.push(cpu.Flags())
	cpu.SetFlag(FlagI, false)
	cpu.SetFlag(FlagT, false)
	cpu.push(cpu.sregs[CS])
	cpu.push(cpu.ip)

	if handler := cpu.handlers[vector]; handler != nil {
		handler(cpu, vector)
		cpu.regs[SP] += 6
		return
	}

	addr := uint32(vector) * 4
	cpu.ip = cpu.Mem.GetWord(addr)
	cpu.sregs[CS] = cpu.Mem.GetWord(addr + 2)
}

// I/O ports.

func (cpu *CPU) portIn(port uint16) uint8 {
	if p, ok := cpu.ports[port]; ok && p.In != nil {
		return p.In()
	}
	return 0xFF
}

func (cpu *CPU) portOut(port uint16, value uint8) {
	if p, ok := cpu.ports[port]; ok && p.Out != nil {
		p.Out(value)
	}
}

// opUnknown consumes an undecodable opcode and keeps going. FPU escapes
// also consume their ModR/M and displacement to stay synchronised.
func (cpu *CPU) opUnknown(step *stepInfo) {
	if step.opcode >= 0xD8 && step.opcode <= 0xDF {
		cpu.fetchModRM(step)
	}
	slog.Debug("cpu: unknown opcode", "opcode", step.opcode, "cs", cpu.sregs[CS], "ip", cpu.ip)
}
