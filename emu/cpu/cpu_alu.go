/*
   dos86 - Arithmetic, logic, shifts and BCD adjust.

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
)

// Flag computation. Arithmetic sets all six flags; logic clears CF and OF
// and sets SF/ZF/PF from the result.

func (cpu *CPU) setSZP8(result uint8) {
	cpu.SetFlag(FlagS, result&0x80 != 0)
	cpu.SetFlag(FlagZ, result == 0)
	cpu.SetFlag(FlagP, parityTable[result])
}

func (cpu *CPU) setSZP16(result uint16) {
	cpu.SetFlag(FlagS, result&0x8000 != 0)
	cpu.SetFlag(FlagZ, result == 0)
	cpu.SetFlag(FlagP, parityTable[uint8(result)])
}

// add8 computes a+b+carry and sets CF/OF/AF/SF/ZF/PF.
func (cpu *CPU) add8(a, b uint8, carry bool) uint8 {
	c := uint16(0)
	if carry {
		c = 1
	}
	full := uint16(a) + uint16(b) + c
	result := uint8(full)
	cpu.SetFlag(FlagC, full > 0xFF)
	cpu.SetFlag(FlagA, (a^b^result)&0x10 != 0)
	cpu.SetFlag(FlagO, (a^result)&(b^result)&0x80 != 0)
	cpu.setSZP8(result)
	return result
}

func (cpu *CPU) add16(a, b uint16, carry bool) uint16 {
	c := uint32(0)
	if carry {
		c = 1
	}
	full := uint32(a) + uint32(b) + c
	result := uint16(full)
	cpu.SetFlag(FlagC, full > 0xFFFF)
	cpu.SetFlag(FlagA, (a^b^result)&0x10 != 0)
	cpu.SetFlag(FlagO, (a^result)&(b^result)&0x8000 != 0)
	cpu.setSZP16(result)
	return result
}

// sub8 computes a-b-borrow and sets CF/OF/AF/SF/ZF/PF.
func (cpu *CPU) sub8(a, b uint8, borrow bool) uint8 {
	c := uint16(0)
	if borrow {
		c = 1
	}
	full := uint16(a) - uint16(b) - c
	result := uint8(full)
	cpu.SetFlag(FlagC, full > 0xFF)
	cpu.SetFlag(FlagA, (a^b^result)&0x10 != 0)
	cpu.SetFlag(FlagO, (a^b)&(a^result)&0x80 != 0)
	cpu.setSZP8(result)
	return result
}

func (cpu *CPU) sub16(a, b uint16, borrow bool) uint16 {
	c := uint32(0)
	if borrow {
		c = 1
	}
	full := uint32(a) - uint32(b) - c
	result := uint16(full)
	cpu.SetFlag(FlagC, full > 0xFFFF)
	cpu.SetFlag(FlagA, (a^b^result)&0x10 != 0)
	cpu.SetFlag(FlagO, (a^b)&(a^result)&0x8000 != 0)
	cpu.setSZP16(result)
	return result
}

func (cpu *CPU) logic8(result uint8) uint8 {
	cpu.SetFlag(FlagC, false)
	cpu.SetFlag(FlagO, false)
	cpu.SetFlag(FlagA, false)
	cpu.setSZP8(result)
	return result
}

func (cpu *CPU) logic16(result uint16) uint16 {
	cpu.SetFlag(FlagC, false)
	cpu.SetFlag(FlagO, false)
	cpu.SetFlag(FlagA, false)
	cpu.setSZP16(result)
	return result
}

// aluOp8 and aluOp16 apply one of the eight classic ALU operations selected by the
// middle bits of the opcode (ADD OR ADC SBB AND SUB XOR CMP).
func (cpu *CPU) aluOp8(op uint8, a, b uint8) (uint8, bool) {
	switch op {
	case 0:
		return cpu.add8(a, b, false), true
	case 1:
		return cpu.logic8(a | b), true
	case 2:
		return cpu.add8(a, b, cpu.GetFlag(FlagC)), true
	case 3:
		return cpu.sub8(a, b, cpu.GetFlag(FlagC)), true
	case 4:
		return cpu.logic8(a & b), true
	case 5:
		return cpu.sub8(a, b, false), true
	case 6:
		return cpu.logic8(a ^ b), true
	default: // CMP: flags only.
		return cpu.sub8(a, b, false), false
	}
}

func (cpu *CPU) aluOp16(op uint8, a, b uint16) (uint16, bool) {
	switch op {
	case 0:
		return cpu.add16(a, b, false), true
	case 1:
		return cpu.logic16(a | b), true
	case 2:
		return cpu.add16(a, b, cpu.GetFlag(FlagC)), true
	case 3:
		return cpu.sub16(a, b, cpu.GetFlag(FlagC)), true
	case 4:
		return cpu.logic16(a & b), true
	case 5:
		return cpu.sub16(a, b, false), true
	case 6:
		return cpu.logic16(a ^ b), true
	default:
		return cpu.sub16(a, b, false), false
	}
}

// opALU decodes the 00-3B block: op r/m,r; op r,r/m; op acc,imm in all
// widths, with the operation in bits 3-5 of the opcode.
func (cpu *CPU) opALU(step *stepInfo) {
	op := (step.opcode >> 3) & 7
	switch step.opcode & 7 {
	case 0: // r/m8, r8
		cpu.fetchModRM(step)
		result, write := cpu.aluOp8(op, cpu.readRM8(step), cpu.Reg8(int(step.reg)))
		if write {
			cpu.writeRM8(step, result)
		}
	case 1: // r/m16, r16
		cpu.fetchModRM(step)
		result, write := cpu.aluOp16(op, cpu.readRM16(step), cpu.regs[step.reg])
		if write {
			cpu.writeRM16(step, result)
		}
	case 2: // r8, r/m8
		cpu.fetchModRM(step)
		result, write := cpu.aluOp8(op, cpu.Reg8(int(step.reg)), cpu.readRM8(step))
		if write {
			cpu.SetReg8(int(step.reg), result)
		}
	case 3: // r16, r/m16
		cpu.fetchModRM(step)
		result, write := cpu.aluOp16(op, cpu.regs[step.reg], cpu.readRM16(step))
		if write {
			cpu.regs[step.reg] = result
		}
	case 4: // AL, imm8
		result, write := cpu.aluOp8(op, cpu.Reg8(AL), cpu.fetchByte())
		if write {
			cpu.SetReg8(AL, result)
		}
	case 5: // AX, imm16
		result, write := cpu.aluOp16(op, cpu.regs[AX], cpu.fetchWord())
		if write {
			cpu.regs[AX] = result
		}
	}
}

// opALUImm decodes the 80-83 group: op r/m, imm with the operation in the
// reg field of ModR/M. 83 sign extends a byte immediate to a word.
func (cpu *CPU) opALUImm(step *stepInfo) {
	cpu.fetchModRM(step)
	op := step.reg
	switch step.opcode {
	case 0x80, 0x82:
		a := cpu.readRM8(step)
		result, write := cpu.aluOp8(op, a, cpu.fetchByte())
		if write {
			cpu.writeRM8(step, result)
		}
	case 0x81:
		a := cpu.readRM16(step)
		result, write := cpu.aluOp16(op, a, cpu.fetchWord())
		if write {
			cpu.writeRM16(step, result)
		}
	case 0x83:
		a := cpu.readRM16(step)
		imm := uint16(int16(int8(cpu.fetchByte())))
		result, write := cpu.aluOp16(op, a, imm)
		if write {
			cpu.writeRM16(step, result)
		}
	}
}

// opTest handles TEST r/m,r and TEST acc,imm: AND flags without a write.
func (cpu *CPU) opTest(step *stepInfo) {
	switch step.opcode {
	case 0x84:
		cpu.fetchModRM(step)
		cpu.logic8(cpu.readRM8(step) & cpu.Reg8(int(step.reg)))
	case 0x85:
		cpu.fetchModRM(step)
		cpu.logic16(cpu.readRM16(step) & cpu.regs[step.reg])
	case 0xA8:
		cpu.logic8(cpu.Reg8(AL) & cpu.fetchByte())
	case 0xA9:
		cpu.logic16(cpu.regs[AX] & cpu.fetchWord())
	}
}

// opIncReg16 and opDecReg16 preserve CF.
func (cpu *CPU) opIncReg16(step *stepInfo) {
	saved := cpu.GetFlag(FlagC)
	reg := step.opcode & 7
	cpu.regs[reg] = cpu.add16(cpu.regs[reg], 1, false)
	cpu.SetFlag(FlagC, saved)
}

func (cpu *CPU) opDecReg16(step *stepInfo) {
	saved := cpu.GetFlag(FlagC)
	reg := step.opcode & 7
	cpu.regs[reg] = cpu.sub16(cpu.regs[reg], 1, false)
	cpu.SetFlag(FlagC, saved)
}

// opGroup4 is FE: INC/DEC r/m8.
func (cpu *CPU) opGroup4(step *stepInfo) {
	cpu.fetchModRM(step)
	saved := cpu.GetFlag(FlagC)
	a := cpu.readRM8(step)
	switch step.reg {
	case 0:
		cpu.writeRM8(step, cpu.add8(a, 1, false))
	case 1:
		cpu.writeRM8(step, cpu.sub8(a, 1, false))
	default:
		slog.Debug("cpu: bad group4 sub-opcode", "reg", step.reg)
		return
	}
	cpu.SetFlag(FlagC, saved)
}

// opGroup3 is F6/F7: TEST imm, NOT, NEG, MUL, IMUL, DIV, IDIV.
func (cpu *CPU) opGroup3(step *stepInfo) {
	cpu.fetchModRM(step)
	wide := step.opcode == 0xF7
	switch step.reg {
	case 0, 1: // TEST r/m, imm
		if wide {
			cpu.logic16(cpu.readRM16(step) & cpu.fetchWord())
		} else {
			cpu.logic8(cpu.readRM8(step) & cpu.fetchByte())
		}
	case 2: // NOT: no flags.
		if wide {
			cpu.writeRM16(step, ^cpu.readRM16(step))
		} else {
			cpu.writeRM8(step, ^cpu.readRM8(step))
		}
	case 3: // NEG
		if wide {
			cpu.writeRM16(step, cpu.sub16(0, cpu.readRM16(step), false))
		} else {
			cpu.writeRM8(step, cpu.sub8(0, cpu.readRM8(step), false))
		}
	case 4:
		cpu.opMul(step, wide)
	case 5:
		cpu.opIMul(step, wide)
	case 6:
		cpu.opDiv(step, wide)
	case 7:
		cpu.opIDiv(step, wide)
	}
}

// opMul: unsigned multiply into DX:AX (or AX). CF=OF set when the high
// half is nonzero.
func (cpu *CPU) opMul(step *stepInfo, wide bool) {
	if wide {
		full := uint32(cpu.regs[AX]) * uint32(cpu.readRM16(step))
		cpu.regs[AX] = uint16(full)
		cpu.regs[DX] = uint16(full >> 16)
		over := cpu.regs[DX] != 0
		cpu.SetFlag(FlagC, over)
		cpu.SetFlag(FlagO, over)
	} else {
		full := uint16(cpu.Reg8(AL)) * uint16(cpu.readRM8(step))
		cpu.regs[AX] = full
		over := full>>8 != 0
		cpu.SetFlag(FlagC, over)
		cpu.SetFlag(FlagO, over)
	}
}

// opIMul: signed multiply. CF=OF set when the result does not fit the low
// half sign extended.
func (cpu *CPU) opIMul(step *stepInfo, wide bool) {
	if wide {
		full := int32(int16(cpu.regs[AX])) * int32(int16(cpu.readRM16(step)))
		cpu.regs[AX] = uint16(full)
		cpu.regs[DX] = uint16(uint32(full) >> 16)
		over := full != int32(int16(full))
		cpu.SetFlag(FlagC, over)
		cpu.SetFlag(FlagO, over)
	} else {
		full := int16(int8(cpu.Reg8(AL))) * int16(int8(cpu.readRM8(step)))
		cpu.regs[AX] = uint16(full)
		over := full != int16(int8(full))
		cpu.SetFlag(FlagC, over)
		cpu.SetFlag(FlagO, over)
	}
}

// opIMulImm is 69/6B: r16 = r/m16 * imm.
func (cpu *CPU) opIMulImm(step *stepInfo) {
	cpu.fetchModRM(step)
	src := int32(int16(cpu.readRM16(step)))
	var imm int32
	if step.opcode == 0x6B {
		imm = int32(int8(cpu.fetchByte()))
	} else {
		imm = int32(int16(cpu.fetchWord()))
	}
	full := src * imm
	cpu.regs[step.reg] = uint16(full)
	over := full != int32(int16(full))
	cpu.SetFlag(FlagC, over)
	cpu.SetFlag(FlagO, over)
}

// opDiv: unsigned divide of DX:AX (or AX). Divide by zero or a quotient
// overflow raises interrupt 0.
func (cpu *CPU) opDiv(step *stepInfo, wide bool) {
	if wide {
		divisor := uint32(cpu.readRM16(step))
		if divisor == 0 {
			cpu.Interrupt(0)
			return
		}
		dividend := uint32(cpu.regs[DX])<<16 | uint32(cpu.regs[AX])
		quotient := dividend / divisor
		if quotient > 0xFFFF {
			cpu.Interrupt(0)
			return
		}
		cpu.regs[AX] = uint16(quotient)
		cpu.regs[DX] = uint16(dividend % divisor)
	} else {
		divisor := uint16(cpu.readRM8(step))
		if divisor == 0 {
			cpu.Interrupt(0)
			return
		}
		dividend := cpu.regs[AX]
		quotient := dividend / divisor
		if quotient > 0xFF {
			cpu.Interrupt(0)
			return
		}
		cpu.SetReg8(AL, uint8(quotient))
		cpu.SetReg8(AH, uint8(dividend%divisor))
	}
}

// opIDiv: signed divide, truncating toward zero.
func (cpu *CPU) opIDiv(step *stepInfo, wide bool) {
	if wide {
		divisor := int32(int16(cpu.readRM16(step)))
		if divisor == 0 {
			cpu.Interrupt(0)
			return
		}
		dividend := int32(uint32(cpu.regs[DX])<<16 | uint32(cpu.regs[AX]))
		quotient := dividend / divisor
		if quotient > 32767 || quotient < -32768 {
			cpu.Interrupt(0)
			return
		}
		cpu.regs[AX] = uint16(quotient)
		cpu.regs[DX] = uint16(dividend % divisor)
	} else {
		divisor := int16(int8(cpu.readRM8(step)))
		if divisor == 0 {
			cpu.Interrupt(0)
			return
		}
		dividend := int16(cpu.regs[AX])
		quotient := dividend / divisor
		if quotient > 127 || quotient < -128 {
			cpu.Interrupt(0)
			return
		}
		cpu.SetReg8(AL, uint8(quotient))
		cpu.SetReg8(AH, uint8(dividend%divisor))
	}
}

// Shifts and rotates: a single dispatcher keyed by the reg field. The
// count is masked to five bits. OF is architecturally defined only for a
// count of one.
func (cpu *CPU) opShift(step *stepInfo) {
	cpu.fetchModRM(step)
	var count uint8
	switch step.opcode {
	case 0xC0, 0xC1:
		count = cpu.fetchByte()
	case 0xD0, 0xD1:
		count = 1
	case 0xD2, 0xD3:
		count = cpu.Reg8(CL)
	}
	count &= 0x1F
	if count == 0 {
		return
	}
	if step.opcode&1 == 0 {
		cpu.writeRM8(step, cpu.shift8(step.reg, cpu.readRM8(step), count))
	} else {
		cpu.writeRM16(step, cpu.shift16(step.reg, cpu.readRM16(step), count))
	}
}

func (cpu *CPU) shift8(op, value, count uint8) uint8 {
	original := value
	for range count {
		switch op {
		case 0: // ROL
			carry := value >> 7
			value = value<<1 | carry
			cpu.SetFlag(FlagC, carry != 0)
		case 1: // ROR
			carry := value & 1
			value = value>>1 | carry<<7
			cpu.SetFlag(FlagC, carry != 0)
		case 2: // RCL
			carry := value >> 7
			value <<= 1
			if cpu.GetFlag(FlagC) {
				value |= 1
			}
			cpu.SetFlag(FlagC, carry != 0)
		case 3: // RCR
			carry := value & 1
			value >>= 1
			if cpu.GetFlag(FlagC) {
				value |= 0x80
			}
			cpu.SetFlag(FlagC, carry != 0)
		case 4, 6: // SHL/SAL
			cpu.SetFlag(FlagC, value&0x80 != 0)
			value <<= 1
		case 5: // SHR
			cpu.SetFlag(FlagC, value&1 != 0)
			value >>= 1
		case 7: // SAR
			cpu.SetFlag(FlagC, value&1 != 0)
			value = uint8(int8(value) >> 1)
		}
	}
	if op >= 4 {
		cpu.setSZP8(value)
	}
	if count == 1 {
		switch op {
		case 0, 1, 2, 3:
			carry := uint8(0)
			if cpu.GetFlag(FlagC) {
				carry = 1
			}
			cpu.SetFlag(FlagO, value>>7 != carry)
		case 4, 6:
			cpu.SetFlag(FlagO, value>>7 != original>>7)
		case 5:
			cpu.SetFlag(FlagO, original&0x80 != 0)
		case 7:
			cpu.SetFlag(FlagO, false)
		}
	}
	return value
}

func (cpu *CPU) shift16(op uint8, value uint16, count uint8) uint16 {
	original := value
	for range count {
		switch op {
		case 0: // ROL
			carry := value >> 15
			value = value<<1 | carry
			cpu.SetFlag(FlagC, carry != 0)
		case 1: // ROR
			carry := value & 1
			value = value>>1 | carry<<15
			cpu.SetFlag(FlagC, carry != 0)
		case 2: // RCL
			carry := value >> 15
			value <<= 1
			if cpu.GetFlag(FlagC) {
				value |= 1
			}
			cpu.SetFlag(FlagC, carry != 0)
		case 3: // RCR
			carry := value & 1
			value >>= 1
			if cpu.GetFlag(FlagC) {
				value |= 0x8000
			}
			cpu.SetFlag(FlagC, carry != 0)
		case 4, 6: // SHL/SAL
			cpu.SetFlag(FlagC, value&0x8000 != 0)
			value <<= 1
		case 5: // SHR
			cpu.SetFlag(FlagC, value&1 != 0)
			value >>= 1
		case 7: // SAR
			cpu.SetFlag(FlagC, value&1 != 0)
			value = uint16(int16(value) >> 1)
		}
	}
	if op >= 4 {
		cpu.setSZP16(value)
	}
	if count == 1 {
		switch op {
		case 0, 1, 2, 3:
			carry := uint16(0)
			if cpu.GetFlag(FlagC) {
				carry = 1
			}
			cpu.SetFlag(FlagO, value>>15 != carry)
		case 4, 6:
			cpu.SetFlag(FlagO, value>>15 != original>>15)
		case 5:
			cpu.SetFlag(FlagO, original&0x8000 != 0)
		case 7:
			cpu.SetFlag(FlagO, false)
		}
	}
	return value
}

// BCD adjust group.

// opDAA: decimal adjust AL after addition.
func (cpu *CPU) opDAA(_ *stepInfo) {
	al := cpu.Reg8(AL)
	carry := cpu.GetFlag(FlagC)
	if al&0x0F > 9 || cpu.GetFlag(FlagA) {
		al += 6
		cpu.SetFlag(FlagA, true)
	} else {
		cpu.SetFlag(FlagA, false)
	}
	if cpu.Reg8(AL) > 0x99 || carry {
		al += 0x60
		cpu.SetFlag(FlagC, true)
	} else {
		cpu.SetFlag(FlagC, false)
	}
	cpu.SetReg8(AL, al)
	cpu.setSZP8(al)
}

// opDAS: decimal adjust AL after subtraction.
func (cpu *CPU) opDAS(_ *stepInfo) {
	al := cpu.Reg8(AL)
	carry := cpu.GetFlag(FlagC)
	if al&0x0F > 9 || cpu.GetFlag(FlagA) {
		al -= 6
		cpu.SetFlag(FlagA, true)
	} else {
		cpu.SetFlag(FlagA, false)
	}
	if cpu.Reg8(AL) > 0x99 || carry {
		al -= 0x60
		cpu.SetFlag(FlagC, true)
	} else {
		cpu.SetFlag(FlagC, false)
	}
	cpu.SetReg8(AL, al)
	cpu.setSZP8(al)
}

// opAAA: ASCII adjust after addition.
func (cpu *CPU) opAAA(_ *stepInfo) {
	if cpu.Reg8(AL)&0x0F > 9 || cpu.GetFlag(FlagA) {
		cpu.regs[AX] += 0x106
		cpu.SetFlag(FlagA, true)
		cpu.SetFlag(FlagC, true)
	} else {
		cpu.SetFlag(FlagA, false)
		cpu.SetFlag(FlagC, false)
	}
	cpu.SetReg8(AL, cpu.Reg8(AL)&0x0F)
}

// opAAS: ASCII adjust after subtraction.
func (cpu *CPU) opAAS(_ *stepInfo) {
	if cpu.Reg8(AL)&0x0F > 9 || cpu.GetFlag(FlagA) {
		cpu.regs[AX] -= 6
		cpu.SetReg8(AH, cpu.Reg8(AH)-1)
		cpu.SetFlag(FlagA, true)
		cpu.SetFlag(FlagC, true)
	} else {
		cpu.SetFlag(FlagA, false)
		cpu.SetFlag(FlagC, false)
	}
	cpu.SetReg8(AL, cpu.Reg8(AL)&0x0F)
}

// opAAM: ASCII adjust after multiply. The immediate base is almost always
// ten; zero divides trap like DIV.
func (cpu *CPU) opAAM(_ *stepInfo) {
	base := cpu.fetchByte()
	if base == 0 {
		cpu.Interrupt(0)
		return
	}
	al := cpu.Reg8(AL)
	cpu.SetReg8(AH, al/base)
	cpu.SetReg8(AL, al%base)
	cpu.setSZP8(cpu.Reg8(AL))
}

// opAAD: ASCII adjust before divide.
func (cpu *CPU) opAAD(_ *stepInfo) {
	base := cpu.fetchByte()
	al := cpu.Reg8(AH)*base + cpu.Reg8(AL)
	cpu.SetReg8(AL, al)
	cpu.SetReg8(AH, 0)
	cpu.setSZP8(al)
}
