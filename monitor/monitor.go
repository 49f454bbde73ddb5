/*
   dos86 - Machine monitor.

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

// Package monitor is the interactive machine inspector: step the CPU,
// dump registers and memory, poke bytes, run until halt. It reads lines
// with history and completion and prints to the controlling terminal, so
// it is mutually exclusive with the framebuffer console.
package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterh/liner"

	"dos86/emu/cpu"
	"dos86/emu/memory"
	"dos86/emu/session"
)

var commands = []string{
	"regs", "step", "go", "dump", "poke", "reset", "keys", "quit", "help",
}

// Run reads monitor commands until quit or EOF.
func Run(sess *session.Session) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, strings.ToLower(prefix)) {
				out = append(out, cmd)
			}
		}
		return out
	})

	fmt.Println("dos86 monitor; help lists commands")
	for {
		input, err := line.Prompt("dos86> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			fmt.Println("read error: " + err.Error())
			return
		}
		line.AppendHistory(input)
		if quit := process(sess, input); quit {
			return
		}
	}
}

// process runs one command; returns true on quit.
func process(sess *session.Session, input string) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "quit", "q", "exit":
		return true
	case "help", "?":
		fmt.Println("regs             dump registers and halt state")
		fmt.Println("step [n]         execute n instructions (default 1)")
		fmt.Println("go [n]           run up to n scheduler ticks (default 100)")
		fmt.Println("dump seg:off [n] hex dump n bytes (default 128)")
		fmt.Println("poke seg:off b.. store bytes")
		fmt.Println("keys text        type text into the key buffer")
		fmt.Println("reset            reset the CPU")
		fmt.Println("quit             leave the monitor")
	case "regs":
		printRegs(sess.CPU)
	case "step":
		n := 1
		if len(fields) > 1 {
			n, _ = strconv.Atoi(fields[1])
		}
		for i := 0; i < n; i++ {
			sess.CPU.Step()
		}
		printRegs(sess.CPU)
	case "go":
		n := 100
		if len(fields) > 1 {
			n, _ = strconv.Atoi(fields[1])
		}
		state := sess.Run(n)
		fmt.Printf("state=%v halted=%v reason=%q\n", state, sess.CPU.Halted, sess.CPU.Reason)
	case "dump":
		if len(fields) < 2 {
			fmt.Println("usage: dump seg:off [len]")
			return false
		}
		addr, err := parseAddr(fields[1])
		if err != nil {
			fmt.Println(err.Error())
			return false
		}
		length := 128
		if len(fields) > 2 {
			length, _ = strconv.Atoi(fields[2])
		}
		hexDump(sess.Mem, addr, length)
	case "poke":
		if len(fields) < 3 {
			fmt.Println("usage: poke seg:off byte...")
			return false
		}
		addr, err := parseAddr(fields[1])
		if err != nil {
			fmt.Println(err.Error())
			return false
		}
		for i, tok := range fields[2:] {
			value, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				fmt.Println("bad byte: " + tok)
				return false
			}
			sess.Mem.PutByte(addr+uint32(i), uint8(value))
		}
	case "keys":
		text := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
		for i := 0; i < len(text); i++ {
			sess.BIOS.PushKey(uint16(text[i]))
		}
		sess.BIOS.PushKey(0x1C0D)
	case "reset":
		sess.CPU.Reset()
	default:
		fmt.Println("unknown command: " + fields[0])
	}
	return false
}

// regView is the register snapshot handed to spew for dumping.
type regView struct {
	AX, BX, CX, DX uint16
	SI, DI, BP, SP uint16
	CS, DS, ES, SS uint16
	IP, Flags      uint16
}

func printRegs(c *cpu.CPU) {
	view := regView{
		AX: c.Reg(cpu.AX), BX: c.Reg(cpu.BX), CX: c.Reg(cpu.CX), DX: c.Reg(cpu.DX),
		SI: c.Reg(cpu.SI), DI: c.Reg(cpu.DI), BP: c.Reg(cpu.BP), SP: c.Reg(cpu.SP),
		CS: c.Sreg(cpu.CS), DS: c.Sreg(cpu.DS), ES: c.Sreg(cpu.ES), SS: c.Sreg(cpu.SS),
		IP: c.IP(), Flags: c.Flags(),
	}
	dumper := spew.ConfigState{Indent: "  ", DisableMethods: true}
	dumper.Dump(view)
	flags := ""
	for _, f := range []struct {
		bit  uint16
		name string
	}{
		{cpu.FlagC, "C"}, {cpu.FlagZ, "Z"}, {cpu.FlagS, "S"}, {cpu.FlagO, "O"},
		{cpu.FlagP, "P"}, {cpu.FlagA, "A"}, {cpu.FlagD, "D"}, {cpu.FlagI, "I"},
	} {
		if c.GetFlag(f.bit) {
			flags += f.name
		} else {
			flags += "-"
		}
	}
	fmt.Printf("flags %s  halted=%v reason=%q\n", flags, c.Halted, c.Reason)
}

// parseAddr accepts seg:off or a flat hex address.
func parseAddr(s string) (uint32, error) {
	if colon := strings.IndexByte(s, ':'); colon >= 0 {
		seg, err1 := strconv.ParseUint(s[:colon], 16, 16)
		off, err2 := strconv.ParseUint(s[colon+1:], 16, 16)
		if err1 != nil || err2 != nil {
			return 0, errors.New("bad address: " + s)
		}
		return memory.Physical(uint16(seg), uint16(off)), nil
	}
	flat, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.New("bad address: " + s)
	}
	return uint32(flat) & memory.AMASK, nil
}

func hexDump(mem *memory.Memory, addr uint32, length int) {
	for base := addr &^ 0xF; base < addr+uint32(length); base += 16 {
		fmt.Printf("%05X ", base)
		ascii := ""
		for i := uint32(0); i < 16; i++ {
			b := mem.GetByte(base + i)
			fmt.Printf(" %02X", b)
			if b >= 0x20 && b <= 0x7E {
				ascii += string(rune(b))
			} else {
				ascii += "."
			}
		}
		fmt.Println("  " + ascii)
	}
}
