/*
   dos86 - Emulation session and tick scheduler.

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

// Package session owns one emulated machine: memory, CPU, BIOS, DOS and
// the filesystem, glued by a cooperative tick scheduler. Exactly one
// execution context runs at a time; there is no preemption.
package session

import (
	"log/slog"
	"time"

	"dos86/emu/bios"
	"dos86/emu/cpu"
	"dos86/emu/dos"
	"dos86/emu/loader"
	"dos86/emu/memory"
	"dos86/fs/fat12"
	"dos86/fs/store"
)

// State of the session machine.
type State int

const (
	Idle State = iota
	Running
	WaitingForKey
	Exited
)

// Scheduling bounds: a tick runs at most StepsPerTick instructions and at
// most TickBudget of wall clock, whichever comes first.
const (
	StepsPerTick = 100000
	TickBudget   = 14 * time.Millisecond
)

// Session is the façade the front ends drive.
type Session struct {
	Mem  *memory.Memory
	CPU  *cpu.CPU
	BIOS *bios.BIOS
	DOS  *dos.DOS
	FS   *fat12.Filesystem

	program *Program
}

// Program is the currently loaded guest program.
type Program struct {
	loaded *loader.Program
}

// New builds a machine over the sector store, formatting a blank disk on
// first boot.
func New(st store.Store) *Session {
	mem := memory.New()
	c := cpu.New(mem)
	fs := fat12.New(st)
	b := bios.New(c, mem, fs)
	d := dos.New(c, mem, fs, b)

	if !fs.IsFormatted() {
		slog.Info("session: formatting blank disk")
		fs.Format("DOS86")
	}
	return &Session{Mem: mem, CPU: c, BIOS: b, DOS: d, FS: fs}
}

// Load places a program image and makes the session runnable.
func (s *Session) Load(image []uint8, name, tail string, env map[string]string) error {
	prog, err := loader.Load(s.CPU, s.Mem, s.DOS, image, name, tail, env)
	if err != nil {
		return err
	}
	s.program = &Program{loaded: prog}
	slog.Debug("session: loaded program", "name", name, "bytes", len(image))
	return nil
}

// State derives the machine state from the CPU halt tag.
func (s *Session) State() State {
	if s.program == nil {
		return Idle
	}
	if !s.CPU.Halted {
		return Running
	}
	switch s.CPU.Reason {
	case cpu.HaltKeyWait:
		return WaitingForKey
	default:
		return Exited
	}
}

// Tick runs one scheduler slice. It returns the state afterwards; the
// caller renders the framebuffer between ticks and feeds key events,
// which transition WaitingForKey back to Running.
func (s *Session) Tick() State {
	if s.State() != Running {
		return s.State()
	}
	deadline := time.Now().Add(TickBudget)
	for i := 0; i < StepsPerTick; i++ {
		s.CPU.Step()
		if s.CPU.Halted {
			break
		}
		// The wall clock check is coarse so long repeated string
		// operations cannot starve the renderer.
		if i&0x3FF == 0x3FF && time.Now().After(deadline) {
			break
		}
	}
	return s.State()
}

// Run drives the session to completion without a renderer, for headless
// execution and tests. Waiting for a key with no pump attached would spin
// forever, so key waits end the run too.
func (s *Session) Run(maxTicks int) State {
	for i := 0; i < maxTicks; i++ {
		state := s.Tick()
		if state != Running {
			return state
		}
	}
	return s.State()
}

// EndProgram releases the loaded program's memory after an exit.
func (s *Session) EndProgram() {
	if s.program == nil {
		return
	}
	loader.Unload(s.DOS, s.program.loaded)
	s.program = nil
	s.CPU.Resume()
	slog.Debug("session: program torn down")
}

// ExitCode reports the last program's return code.
func (s *Session) ExitCode() uint8 {
	return s.DOS.ExitCode()
}
