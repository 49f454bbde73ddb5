/*
   dos86 - Data movement, stack and control flow.

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
	"log/slog"

	"dos86/emu/memory"
)

// MOV family.

func (cpu *CPU) opMov(step *stepInfo) {
	switch step.opcode {
	case 0x88:
		cpu.fetchModRM(step)
		cpu.writeRM8(step, cpu.Reg8(int(step.reg)))
	case 0x89:
		cpu.fetchModRM(step)
		cpu.writeRM16(step, cpu.regs[step.reg])
	case 0x8A:
		cpu.fetchModRM(step)
		cpu.SetReg8(int(step.reg), cpu.readRM8(step))
	case 0x8B:
		cpu.fetchModRM(step)
		cpu.regs[step.reg] = cpu.readRM16(step)
	case 0x8C: // MOV r/m16, sreg
		cpu.fetchModRM(step)
		cpu.writeRM16(step, cpu.sregs[step.reg%6])
	case 0x8E: // MOV sreg, r/m16
		cpu.fetchModRM(step)
		cpu.sregs[step.reg%6] = cpu.readRM16(step)
	case 0xC6:
		cpu.fetchModRM(step)
		cpu.writeRM8(step, cpu.fetchByte())
	case 0xC7:
		cpu.fetchModRM(step)
		cpu.writeRM16(step, cpu.fetchWord())
	}
}

// opMovRegImm covers B0-BF: MOV reg, imm.
func (cpu *CPU) opMovRegImm(step *stepInfo) {
	if step.opcode < 0xB8 {
		cpu.SetReg8(int(step.opcode&7), cpu.fetchByte())
	} else {
		cpu.regs[step.opcode&7] = cpu.fetchWord()
	}
}

// opMovAccMem covers A0-A3: MOV between the accumulator and a direct
// offset in the data segment.
func (cpu *CPU) opMovAccMem(step *stepInfo) {
	off := cpu.fetchWord()
	addr := memory.Physical(cpu.segBase(DS), off)
	switch step.opcode {
	case 0xA0:
		cpu.SetReg8(AL, cpu.Mem.GetByte(addr))
	case 0xA1:
		cpu.regs[AX] = cpu.Mem.GetWord(addr)
	case 0xA2:
		cpu.Mem.PutByte(addr, cpu.Reg8(AL))
	case 0xA3:
		cpu.Mem.PutWord(addr, cpu.regs[AX])
	}
}

func (cpu *CPU) opXchg(step *stepInfo) {
	switch step.opcode {
	case 0x86:
		cpu.fetchModRM(step)
		a := cpu.readRM8(step)
		cpu.writeRM8(step, cpu.Reg8(int(step.reg)))
		cpu.SetReg8(int(step.reg), a)
	case 0x87:
		cpu.fetchModRM(step)
		a := cpu.readRM16(step)
		cpu.writeRM16(step, cpu.regs[step.reg])
		cpu.regs[step.reg] = a
	default: // 90-97: XCHG AX, r16. 90 is NOP.
		reg := step.opcode & 7
		cpu.regs[AX], cpu.regs[reg] = cpu.regs[reg], cpu.regs[AX]
	}
}

// opLEA stores the effective offset, not the physical address, so it
// recomputes the 16 bit offset from the ModR/M fields.
func (cpu *CPU) opLEA(step *stepInfo) {
	// Decode without an override so the raw offset is recoverable.
	saved := cpu.segOverride
	cpu.segOverride = -1
	modrm := cpu.fetchByte()
	step.mod = modrm >> 6
	step.reg = (modrm >> 3) & 7
	step.rm = modrm & 7
	cpu.segOverride = saved

	var off uint16
	switch step.rm {
	case 0:
		off = cpu.regs[BX] + cpu.regs[SI]
	case 1:
		off = cpu.regs[BX] + cpu.regs[DI]
	case 2:
		off = cpu.regs[BP] + cpu.regs[SI]
	case 3:
		off = cpu.regs[BP] + cpu.regs[DI]
	case 4:
		off = cpu.regs[SI]
	case 5:
		off = cpu.regs[DI]
	case 6:
		if step.mod == 0 {
			off = cpu.fetchWord()
		} else {
			off = cpu.regs[BP]
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
	cpu.regs[step.reg] = off
}

// opLoadFar is LES (C4) and LDS (C5): load register plus segment from a
// memory doubleword.
func (cpu *CPU) opLoadFar(step *stepInfo) {
	cpu.fetchModRM(step)
	cpu.regs[step.reg] = cpu.Mem.GetWord(step.ea)
	seg := cpu.Mem.GetWord(step.ea + 2)
	if step.opcode == 0xC4 {
		cpu.sregs[ES] = seg
	} else {
		cpu.sregs[DS] = seg
	}
}

// Stack operations.

func (cpu *CPU) opPushReg(step *stepInfo) {
	reg := step.opcode & 7
	cpu.push(cpu.regs[reg])
}

func (cpu *CPU) opPopReg(step *stepInfo) {
	cpu.regs[step.opcode&7] = cpu.pop()
}

func (cpu *CPU) opPushSreg(step *stepInfo) {
	cpu.push(cpu.sregs[step.opcode>>3])
}

func (cpu *CPU) opPopSreg(step *stepInfo) {
	cpu.sregs[step.opcode>>3] = cpu.pop()
}

func (cpu *CPU) opPushImm(step *stepInfo) {
	if step.opcode == 0x6A {
		cpu.push(uint16(int16(int8(cpu.fetchByte()))))
	} else {
		cpu.push(cpu.fetchWord())
	}
}

func (cpu *CPU) opPopRM(step *stepInfo) {
	cpu.fetchModRM(step)
	cpu.writeRM16(step, cpu.pop())
}

// opPusha pushes all eight registers with the original SP value.
func (cpu *CPU) opPusha(_ *stepInfo) {
	sp := cpu.regs[SP]
	for _, reg := range []int{AX, CX, DX, BX} {
		cpu.push(cpu.regs[reg])
	}
	cpu.push(sp)
	for _, reg := range []int{BP, SI, DI} {
		cpu.push(cpu.regs[reg])
	}
}

// opPopa restores all registers except SP, whose slot is discarded.
func (cpu *CPU) opPopa(_ *stepInfo) {
	for _, reg := range []int{DI, SI, BP} {
		cpu.regs[reg] = cpu.pop()
	}
	cpu.pop()
	for _, reg := range []int{BX, DX, CX, AX} {
		cpu.regs[reg] = cpu.pop()
	}
}

func (cpu *CPU) opPushf(_ *stepInfo) {
	cpu.push(cpu.Flags())
}

func (cpu *CPU) opPopf(_ *stepInfo) {
	cpu.SetFlags(cpu.pop())
}

// opEnter builds a stack frame; the nesting level is masked to five bits.
func (cpu *CPU) opEnter(_ *stepInfo) {
	size := cpu.fetchWord()
	level := cpu.fetchByte() & 0x1F
	cpu.push(cpu.regs[BP])
	frame := cpu.regs[SP]
	if level > 0 {
		for i := uint8(1); i < level; i++ {
			cpu.regs[BP] -= 2
			cpu.push(cpu.Mem.GetSegWord(cpu.sregs[SS], cpu.regs[BP]))
		}
		cpu.push(frame)
	}
	cpu.regs[BP] = frame
	cpu.regs[SP] -= size
}

func (cpu *CPU) opLeave(_ *stepInfo) {
	cpu.regs[SP] = cpu.regs[BP]
	cpu.regs[BP] = cpu.pop()
}

// Conversions and flag transfers.

func (cpu *CPU) opCBW(_ *stepInfo) {
	cpu.regs[AX] = uint16(int16(int8(cpu.Reg8(AL))))
}

func (cpu *CPU) opCWD(_ *stepInfo) {
	if cpu.regs[AX]&0x8000 != 0 {
		cpu.regs[DX] = 0xFFFF
	} else {
		cpu.regs[DX] = 0
	}
}

func (cpu *CPU) opSAHF(_ *stepInfo) {
	low := uint16(cpu.Reg8(AH)) & (FlagS | FlagZ | FlagA | FlagP | FlagC)
	cpu.flags = cpu.flags&0xFF00 | low | flagsReserved
}

func (cpu *CPU) opLAHF(_ *stepInfo) {
	cpu.SetReg8(AH, uint8(cpu.Flags()))
}

func (cpu *CPU) opXlat(_ *stepInfo) {
	addr := memory.Physical(cpu.segBase(DS), cpu.regs[BX]+uint16(cpu.Reg8(AL)))
	cpu.SetReg8(AL, cpu.Mem.GetByte(addr))
}

// Flag set/clear opcodes: CMC CLC STC CLI STI CLD STD.
func (cpu *CPU) opFlag(step *stepInfo) {
	switch step.opcode {
	case 0xF5:
		cpu.SetFlag(FlagC, !cpu.GetFlag(FlagC))
	case 0xF8:
		cpu.SetFlag(FlagC, false)
	case 0xF9:
		cpu.SetFlag(FlagC, true)
	case 0xFA:
		cpu.SetFlag(FlagI, false)
	case 0xFB:
		cpu.SetFlag(FlagI, true)
	case 0xFC:
		cpu.SetFlag(FlagD, false)
	case 0xFD:
		cpu.SetFlag(FlagD, true)
	}
}

// Jumps, calls, returns.

// condition evaluates the standard condition encoding of Jcc.
func (cpu *CPU) condition(code uint8) bool {
	var result bool
	switch code >> 1 {
	case 0: // O
		result = cpu.GetFlag(FlagO)
	case 1: // B/C
		result = cpu.GetFlag(FlagC)
	case 2: // Z
		result = cpu.GetFlag(FlagZ)
	case 3: // BE
		result = cpu.GetFlag(FlagC) || cpu.GetFlag(FlagZ)
	case 4: // S
		result = cpu.GetFlag(FlagS)
	case 5: // P
		result = cpu.GetFlag(FlagP)
	case 6: // L
		result = cpu.GetFlag(FlagS) != cpu.GetFlag(FlagO)
	case 7: // LE
		result = cpu.GetFlag(FlagZ) ||
			cpu.GetFlag(FlagS) != cpu.GetFlag(FlagO)
	}
	if code&1 != 0 {
		return !result
	}
	return result
}

// opJcc covers the 70-7F short conditional jumps.
func (cpu *CPU) opJcc(step *stepInfo) {
	disp := int8(cpu.fetchByte())
	if cpu.condition(step.opcode & 0x0F) {
		cpu.ip += uint16(int16(disp))
	}
}

func (cpu *CPU) opJmpShort(_ *stepInfo) {
	disp := int8(cpu.fetchByte())
	cpu.ip += uint16(int16(disp))
}

func (cpu *CPU) opJmpNear(_ *stepInfo) {
	disp := cpu.fetchWord()
	cpu.ip += disp
}

func (cpu *CPU) opJmpFar(_ *stepInfo) {
	off := cpu.fetchWord()
	seg := cpu.fetchWord()
	cpu.ip = off
	cpu.sregs[CS] = seg
}

func (cpu *CPU) opCallNear(_ *stepInfo) {
	disp := cpu.fetchWord()
	cpu.push(cpu.ip)
	cpu.ip += disp
}

func (cpu *CPU) opCallFar(_ *stepInfo) {
	off := cpu.fetchWord()
	seg := cpu.fetchWord()
	cpu.push(cpu.sregs[CS])
	cpu.push(cpu.ip)
	cpu.sregs[CS] = seg
	cpu.ip = off
}

func (cpu *CPU) opRetNear(step *stepInfo) {
	var drop uint16
	if step.opcode == 0xC2 {
		drop = cpu.fetchWord()
	}
	cpu.ip = cpu.pop()
	cpu.regs[SP] += drop
}

func (cpu *CPU) opRetFar(step *stepInfo) {
	var drop uint16
	if step.opcode == 0xCA {
		drop = cpu.fetchWord()
	}
	cpu.ip = cpu.pop()
	cpu.sregs[CS] = cpu.pop()
	cpu.regs[SP] += drop
}

// opLoop covers E0-E3: LOOPNE, LOOPE, LOOP, JCXZ.
func (cpu *CPU) opLoop(step *stepInfo) {
	disp := int8(cpu.fetchByte())
	taken := false
	switch step.opcode {
	case 0xE0:
		cpu.regs[CX]--
		taken = cpu.regs[CX] != 0 && !cpu.GetFlag(FlagZ)
	case 0xE1:
		cpu.regs[CX]--
		taken = cpu.regs[CX] != 0 && cpu.GetFlag(FlagZ)
	case 0xE2:
		cpu.regs[CX]--
		taken = cpu.regs[CX] != 0
	case 0xE3:
		taken = cpu.regs[CX] == 0
	}
	if taken {
		cpu.ip += uint16(int16(disp))
	}
}

// opGroup5 is FF: INC, DEC, CALL, CALL far, JMP, JMP far, PUSH on r/m16.
func (cpu *CPU) opGroup5(step *stepInfo) {
	cpu.fetchModRM(step)
	switch step.reg {
	case 0:
		saved := cpu.GetFlag(FlagC)
		cpu.writeRM16(step, cpu.add16(cpu.readRM16(step), 1, false))
		cpu.SetFlag(FlagC, saved)
	case 1:
		saved := cpu.GetFlag(FlagC)
		cpu.writeRM16(step, cpu.sub16(cpu.readRM16(step), 1, false))
		cpu.SetFlag(FlagC, saved)
	case 2: // CALL near indirect
		target := cpu.readRM16(step)
		cpu.push(cpu.ip)
		cpu.ip = target
	case 3: // CALL far indirect
		off := cpu.Mem.GetWord(step.ea)
		seg := cpu.Mem.GetWord(step.ea + 2)
		cpu.push(cpu.sregs[CS])
		cpu.push(cpu.ip)
		cpu.sregs[CS] = seg
		cpu.ip = off
	case 4: // JMP near indirect
		cpu.ip = cpu.readRM16(step)
	case 5: // JMP far indirect
		cpu.ip = cpu.Mem.GetWord(step.ea)
		cpu.sregs[CS] = cpu.Mem.GetWord(step.ea + 2)
	case 6:
		cpu.push(cpu.readRM16(step))
	default:
		slog.Debug("cpu: bad group5 sub-opcode", "reg", step.reg)
	}
}

// Interrupt opcodes.

func (cpu *CPU) opInt(step *stepInfo) {
	switch step.opcode {
	case 0xCC:
		cpu.Interrupt(3)
	case 0xCD:
		cpu.Interrupt(cpu.fetchByte())
	case 0xCE:
		if cpu.GetFlag(FlagO) {
			cpu.Interrupt(4)
		}
	}
}

// opIRET pops IP, CS and flags. Reserved flag bits are normalised.
func (cpu *CPU) opIRET(_ *stepInfo) {
	cpu.ip = cpu.pop()
	cpu.sregs[CS] = cpu.pop()
	cpu.SetFlags(cpu.pop())
}

// opBound raises interrupt 5 when the register is outside the pair of
// signed bounds at the memory operand.
func (cpu *CPU) opBound(step *stepInfo) {
	cpu.fetchModRM(step)
	value := int16(cpu.regs[step.reg])
	lower := int16(cpu.Mem.GetWord(step.ea))
	upper := int16(cpu.Mem.GetWord(step.ea + 2))
	if value < lower || value > upper {
		cpu.Interrupt(5)
	}
}

// opHLT stops the clock.
func (cpu *CPU) opHLT(_ *stepInfo) {
	cpu.Halt(HaltHLT)
}

// I/O opcodes.

func (cpu *CPU) opIn(step *stepInfo) {
	var port uint16
	if step.opcode&0x08 == 0 {
		port = uint16(cpu.fetchByte())
	} else {
		port = cpu.regs[DX]
	}
	if step.opcode&1 == 0 {
		cpu.SetReg8(AL, cpu.portIn(port))
	} else {
		low := cpu.portIn(port)
		high := cpu.portIn(port + 1)
		cpu.regs[AX] = uint16(low) | uint16(high)<<8
	}
}

func (cpu *CPU) opOut(step *stepInfo) {
	var port uint16
	if step.opcode&0x08 == 0 {
		port = uint16(cpu.fetchByte())
	} else {
		port = cpu.regs[DX]
	}
	if step.opcode&1 == 0 {
		cpu.portOut(port, cpu.Reg8(AL))
	} else {
		cpu.portOut(port, uint8(cpu.regs[AX]))
		cpu.portOut(port+1, uint8(cpu.regs[AX]>>8))
	}
}

// opExtended dispatches the 0F escape: conditional near jumps, MOVZX and
// MOVSX, and FS/GS stack traffic. Anything else logs and is skipped.
func (cpu *CPU) opExtended(step *stepInfo) {
	sub := cpu.fetchByte()
	switch {
	case sub >= 0x80 && sub <= 0x8F: // Jcc near
		disp := cpu.fetchWord()
		if cpu.condition(sub & 0x0F) {
			cpu.ip += disp
		}
	case sub == 0xB6: // MOVZX r16, r/m8
		cpu.fetchModRM(step)
		cpu.regs[step.reg] = uint16(cpu.readRM8(step))
	case sub == 0xB7: // MOVZX r16, r/m16
		cpu.fetchModRM(step)
		cpu.regs[step.reg] = cpu.readRM16(step)
	case sub == 0xBE: // MOVSX r16, r/m8
		cpu.fetchModRM(step)
		cpu.regs[step.reg] = uint16(int16(int8(cpu.readRM8(step))))
	case sub == 0xBF: // MOVSX r16, r/m16
		cpu.fetchModRM(step)
		cpu.regs[step.reg] = cpu.readRM16(step)
	case sub == 0xA0:
		cpu.push(cpu.sregs[FS])
	case sub == 0xA1:
		cpu.sregs[FS] = cpu.pop()
	case sub == 0xA8:
		cpu.push(cpu.sregs[GS])
	case sub == 0xA9:
		cpu.sregs[GS] = cpu.pop()
	default:
		slog.Debug("cpu: unknown 0F opcode", "sub", sub)
	}
}
