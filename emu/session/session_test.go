/*
   dos86 - Session scenario tests.

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

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dos86/emu/bios"
	"dos86/emu/cpu"
	"dos86/fs/store"
)

// S1: the teletype hello program prints through INT 10h and exits through
// INT 21h AH=4Ch.
func TestTeletypeHello(t *testing.T) {
	s := New(store.NewMemStore())
	image := []uint8{
		0xBE, 0x12, 0x01, // MOV SI,0x112 (the message below)
		0xAC,             // LODSB
		0x08, 0xC0,       // OR AL,AL
		0x74, 0x06,       // JZ exit
		0xB4, 0x0E,       // MOV AH,0x0E
		0xCD, 0x10,       // INT 10h
		0xEB, 0xF5,       // JMP loop
		0xB4, 0x4C,       // MOV AH,0x4C
		0xCD, 0x21,       // INT 21h
		0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x21, 0x00, // "Hello!"
	}
	require.NoError(t, s.Load(image, "HELLO.COM", "", nil))
	state := s.Run(10)
	assert.Equal(t, Exited, state)

	want := "Hello!"
	for i := 0; i < len(want); i++ {
		addr := uint32(bios.TextBase + i*2)
		assert.Equal(t, want[i], s.Mem.GetByte(addr), "char %d", i)
		assert.Equal(t, uint8(0x07), s.Mem.GetByte(addr+1), "attr %d", i)
	}
}

// S6: a bare INT 20h image exits after one step with a balanced stack.
func TestInt20Exit(t *testing.T) {
	s := New(store.NewMemStore())
	require.NoError(t, s.Load([]uint8{0xCD, 0x20}, "EXIT.COM", "", nil))
	spBefore := s.CPU.Reg(cpu.SP)
	state := s.Run(1)
	assert.Equal(t, Exited, state)
	assert.Equal(t, spBefore, s.CPU.Reg(cpu.SP))
	s.EndProgram()
	assert.Equal(t, Idle, s.State())
}

// A blocking keyboard read parks the session until the pump delivers.
func TestKeyWaitLifecycle(t *testing.T) {
	s := New(store.NewMemStore())
	// MOV AH,0; INT 16h; MOV AH,0x4C; INT 21h
	image := []uint8{0xB4, 0x00, 0xCD, 0x16, 0xB4, 0x4C, 0xCD, 0x21}
	require.NoError(t, s.Load(image, "KEY.COM", "", nil))

	state := s.Run(3)
	assert.Equal(t, WaitingForKey, state)

	s.BIOS.PushKey(0x1E61)
	state = s.Run(3)
	assert.Equal(t, Exited, state)
}

// A fresh session formats its blank disk.
func TestAutoFormat(t *testing.T) {
	st := store.NewMemStore()
	s := New(st)
	assert.True(t, s.FS.IsFormatted())
	assert.Equal(t, "DOS86", s.FS.VolumeLabel())

	// A second session on the same store must not reformat.
	require.NoError(t, s.FS.WriteFile(nil, "KEEP.TXT", []uint8{1}))
	s2 := New(st)
	_, err := s2.FS.Stat(nil, "KEEP.TXT")
	assert.NoError(t, err)
}

// Ticks stop at the step bound even for an endless program.
func TestTickBounded(t *testing.T) {
	s := New(store.NewMemStore())
	// An infinite loop: JMP $.
	require.NoError(t, s.Load([]uint8{0xEB, 0xFE}, "SPIN.COM", "", nil))
	state := s.Tick()
	assert.Equal(t, Running, state)
	assert.LessOrEqual(t, s.CPU.Cycles, uint64(StepsPerTick))
}
