/*
   dos86 - Opcode dispatch table.

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

// createTable fills the 256 entry dispatch table. Prefix bytes are handled
// by the fetch loop and never dispatch; their slots fall through to
// opUnknown. Unfilled slots decode as unknown opcodes and are skipped.
func (cpu *CPU) createTable() {
	for i := range cpu.table {
		cpu.table[i] = cpu.opUnknown
	}

	// 00-3D: the classic ALU block, eight operations by six forms.
	for _, base := range []uint8{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		for form := uint8(0); form < 6; form++ {
			cpu.table[base+form] = cpu.opALU
		}
	}

	cpu.table[0x06] = cpu.opPushSreg // PUSH ES
	cpu.table[0x07] = cpu.opPopSreg  // POP ES
	cpu.table[0x0E] = cpu.opPushSreg // PUSH CS
	cpu.table[0x0F] = cpu.opExtended
	cpu.table[0x16] = cpu.opPushSreg // PUSH SS
	cpu.table[0x17] = cpu.opPopSreg  // POP SS
	cpu.table[0x1E] = cpu.opPushSreg // PUSH DS
	cpu.table[0x1F] = cpu.opPopSreg  // POP DS
	cpu.table[0x27] = cpu.opDAA
	cpu.table[0x2F] = cpu.opDAS
	cpu.table[0x37] = cpu.opAAA
	cpu.table[0x3F] = cpu.opAAS

	for op := 0x40; op <= 0x47; op++ {
		cpu.table[op] = cpu.opIncReg16
	}
	for op := 0x48; op <= 0x4F; op++ {
		cpu.table[op] = cpu.opDecReg16
	}
	for op := 0x50; op <= 0x57; op++ {
		cpu.table[op] = cpu.opPushReg
	}
	for op := 0x58; op <= 0x5F; op++ {
		cpu.table[op] = cpu.opPopReg
	}

	cpu.table[0x60] = cpu.opPusha
	cpu.table[0x61] = cpu.opPopa
	cpu.table[0x62] = cpu.opBound
	cpu.table[0x68] = cpu.opPushImm
	cpu.table[0x69] = cpu.opIMulImm
	cpu.table[0x6A] = cpu.opPushImm
	cpu.table[0x6B] = cpu.opIMulImm
	cpu.table[0x6C] = cpu.opIns
	cpu.table[0x6D] = cpu.opIns
	cpu.table[0x6E] = cpu.opOuts
	cpu.table[0x6F] = cpu.opOuts

	for op := 0x70; op <= 0x7F; op++ {
		cpu.table[op] = cpu.opJcc
	}

	cpu.table[0x80] = cpu.opALUImm
	cpu.table[0x81] = cpu.opALUImm
	cpu.table[0x82] = cpu.opALUImm
	cpu.table[0x83] = cpu.opALUImm
	cpu.table[0x84] = cpu.opTest
	cpu.table[0x85] = cpu.opTest
	cpu.table[0x86] = cpu.opXchg
	cpu.table[0x87] = cpu.opXchg
	cpu.table[0x88] = cpu.opMov
	cpu.table[0x89] = cpu.opMov
	cpu.table[0x8A] = cpu.opMov
	cpu.table[0x8B] = cpu.opMov
	cpu.table[0x8C] = cpu.opMov
	cpu.table[0x8D] = cpu.opLEA
	cpu.table[0x8E] = cpu.opMov
	cpu.table[0x8F] = cpu.opPopRM

	for op := 0x90; op <= 0x97; op++ {
		cpu.table[op] = cpu.opXchg
	}
	cpu.table[0x98] = cpu.opCBW
	cpu.table[0x99] = cpu.opCWD
	cpu.table[0x9A] = cpu.opCallFar
	cpu.table[0x9B] = cpu.opNop // WAIT
	cpu.table[0x9C] = cpu.opPushf
	cpu.table[0x9D] = cpu.opPopf
	cpu.table[0x9E] = cpu.opSAHF
	cpu.table[0x9F] = cpu.opLAHF

	cpu.table[0xA0] = cpu.opMovAccMem
	cpu.table[0xA1] = cpu.opMovAccMem
	cpu.table[0xA2] = cpu.opMovAccMem
	cpu.table[0xA3] = cpu.opMovAccMem
	cpu.table[0xA4] = cpu.opMovs
	cpu.table[0xA5] = cpu.opMovs
	cpu.table[0xA6] = cpu.opCmps
	cpu.table[0xA7] = cpu.opCmps
	cpu.table[0xA8] = cpu.opTest
	cpu.table[0xA9] = cpu.opTest
	cpu.table[0xAA] = cpu.opStos
	cpu.table[0xAB] = cpu.opStos
	cpu.table[0xAC] = cpu.opLods
	cpu.table[0xAD] = cpu.opLods
	cpu.table[0xAE] = cpu.opScas
	cpu.table[0xAF] = cpu.opScas

	for op := 0xB0; op <= 0xBF; op++ {
		cpu.table[op] = cpu.opMovRegImm
	}

	cpu.table[0xC0] = cpu.opShift
	cpu.table[0xC1] = cpu.opShift
	cpu.table[0xC2] = cpu.opRetNear
	cpu.table[0xC3] = cpu.opRetNear
	cpu.table[0xC4] = cpu.opLoadFar
	cpu.table[0xC5] = cpu.opLoadFar
	cpu.table[0xC6] = cpu.opMov
	cpu.table[0xC7] = cpu.opMov
	cpu.table[0xC8] = cpu.opEnter
	cpu.table[0xC9] = cpu.opLeave
	cpu.table[0xCA] = cpu.opRetFar
	cpu.table[0xCB] = cpu.opRetFar
	cpu.table[0xCC] = cpu.opInt
	cpu.table[0xCD] = cpu.opInt
	cpu.table[0xCE] = cpu.opInt
	cpu.table[0xCF] = cpu.opIRET

	cpu.table[0xD0] = cpu.opShift
	cpu.table[0xD1] = cpu.opShift
	cpu.table[0xD2] = cpu.opShift
	cpu.table[0xD3] = cpu.opShift
	cpu.table[0xD4] = cpu.opAAM
	cpu.table[0xD5] = cpu.opAAD
	cpu.table[0xD7] = cpu.opXlat
	// D8-DF are FPU escapes; opUnknown swallows their ModR/M.

	cpu.table[0xE0] = cpu.opLoop
	cpu.table[0xE1] = cpu.opLoop
	cpu.table[0xE2] = cpu.opLoop
	cpu.table[0xE3] = cpu.opLoop
	cpu.table[0xE4] = cpu.opIn
	cpu.table[0xE5] = cpu.opIn
	cpu.table[0xE6] = cpu.opOut
	cpu.table[0xE7] = cpu.opOut
	cpu.table[0xE8] = cpu.opCallNear
	cpu.table[0xE9] = cpu.opJmpNear
	cpu.table[0xEA] = cpu.opJmpFar
	cpu.table[0xEB] = cpu.opJmpShort
	cpu.table[0xEC] = cpu.opIn
	cpu.table[0xED] = cpu.opIn
	cpu.table[0xEE] = cpu.opOut
	cpu.table[0xEF] = cpu.opOut

	cpu.table[0xF4] = cpu.opHLT
	cpu.table[0xF5] = cpu.opFlag
	cpu.table[0xF6] = cpu.opGroup3
	cpu.table[0xF7] = cpu.opGroup3
	cpu.table[0xF8] = cpu.opFlag
	cpu.table[0xF9] = cpu.opFlag
	cpu.table[0xFA] = cpu.opFlag
	cpu.table[0xFB] = cpu.opFlag
	cpu.table[0xFC] = cpu.opFlag
	cpu.table[0xFD] = cpu.opFlag
	cpu.table[0xFE] = cpu.opGroup4
	cpu.table[0xFF] = cpu.opGroup5
}

// opNop does nothing; used for WAIT.
func (cpu *CPU) opNop(_ *stepInfo) {
}
