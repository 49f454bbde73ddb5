/*
   dos86 - 8086 CPU definitions.

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

// General register indices, in 8086 encoding order.
const (
	AX = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

// Byte register indices, in 8086 encoding order. The high four alias the
// upper halves of AX..BX.
const (
	AL = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
)

// Segment register indices, in 8086 encoding order.
const (
	ES = iota
	CS
	SS
	DS
	FS
	GS
)

// Flag bits. Bit 1 is reserved and always reads as one.
const (
	FlagC uint16 = 0x0001 // Carry
	FlagP uint16 = 0x0004 // Parity
	FlagA uint16 = 0x0010 // Auxiliary carry
	FlagZ uint16 = 0x0040 // Zero
	FlagS uint16 = 0x0080 // Sign
	FlagT uint16 = 0x0100 // Trap
	FlagI uint16 = 0x0200 // Interrupt enable
	FlagD uint16 = 0x0400 // Direction
	FlagO uint16 = 0x0800 // Overflow

	flagsReserved uint16 = 0x0002 // Always set.
	flagsMask     uint16 = FlagC | FlagP | FlagA | FlagZ | FlagS |
		FlagT | FlagI | FlagD | FlagO
)

// Repeat prefix state.
const (
	repNone = iota
	repWhileEqual    // F3: REP / REPE
	repWhileNotEqual // F2: REPNE
)

// HaltReason tags why the interpreter stopped.
type HaltReason string

const (
	HaltNone        HaltReason = ""
	HaltHLT         HaltReason = "hlt"
	HaltProgramExit HaltReason = "program-exit"
	HaltKeyWait     HaltReason = "key-wait"
)

// stepInfo carries per-instruction decode state between the dispatch loop
// and the opcode handlers. ModR/M is decoded at most once per instruction,
// so displacement bytes are never consumed twice.
type stepInfo struct {
	opcode uint8

	// ModR/M fields, valid after fetchModRM.
	mod uint8
	reg uint8
	rm  uint8

	// Memory operand, valid when isReg is false.
	ea    uint32
	isReg bool
}

// Port is one I/O port: a read side and a write side. Either may be nil.
type Port struct {
	In  func() uint8
	Out func(uint8)
}

// parityTable maps the low result byte to the PF value: set for an even
// number of one bits.
var parityTable [256]bool

func init() {
	for i := range parityTable {
		bits := 0
		for b := i; b != 0; b >>= 1 {
			bits += b & 1
		}
		parityTable[i] = bits&1 == 0
	}
}
