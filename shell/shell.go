/*
   dos86 - Command interpreter.

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

// Package shell interprets the DOS command line: built-ins, redirection,
// pipes, batch files and guest program execution. It runs host side,
// writing through the BIOS teletype and reading the BIOS key buffer, so
// the terminal front end only ever deals with the framebuffer.
package shell

import (
	"strings"

	"dos86/emu/session"
)

// mode of the interpreter between keystrokes.
type mode int

const (
	modePrompt  mode = iota // Editing a command line.
	modeProgram             // A guest program owns the machine.
	modeCopyCon             // COPY CON is collecting lines.
	modeMore                // MORE is paging output.
)

const pageRows = 24

// Shell is the command interpreter state.
type Shell struct {
	sess  *session.Session
	sinks []Sink

	env    map[string]string
	prompt string

	mode mode
	line []uint8

	// COPY CON state.
	copyTarget string
	copyLines  []string

	// MORE state.
	moreLines []string
	moreIdx   int

	// Batch execution state: a stack for CALL.
	batches  []*batchFrame
	echoOff  bool
	lastExit uint8
}

// New builds a shell over a session and prints the banner and first
// prompt.
func New(sess *session.Session) *Shell {
	sh := &Shell{
		sess: sess,
		env: map[string]string{
			"COMSPEC": "A:\\COMMAND.COM",
			"PATH":    "A:\\",
			"PROMPT":  "$P$G",
			"TEMP":    "A:\\",
		},
	}
	sh.sinks = []Sink{&consoleSink{bios: sess.BIOS}}
	sh.println("DOS86 version 5.0")
	sh.println("")
	sh.showPrompt()
	return sh
}

// Busy reports whether a guest program owns the machine.
func (sh *Shell) Busy() bool {
	return sh.mode == modeProgram
}

// showPrompt expands the PROMPT variable: $P path, $G greater-than, $L
// less-than, $N drive, $$ dollar. Any other $x, $D and $T included,
// prints the letter x itself.
func (sh *Shell) showPrompt() {
	pattern := sh.env["PROMPT"]
	if pattern == "" {
		pattern = "$P$G"
	}
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '$' || i+1 >= len(pattern) {
			sb.WriteByte(pattern[i])
			continue
		}
		i++
		switch pattern[i] {
		case 'P', 'p':
			sb.WriteString(sh.cwdString())
		case 'G', 'g':
			sb.WriteByte('>')
		case 'L', 'l':
			sb.WriteByte('<')
		case 'N', 'n':
			sb.WriteByte('A')
		case '$':
			sb.WriteByte('$')
		default:
			sb.WriteByte(pattern[i])
		}
	}
	sh.print(sb.String())
}

func (sh *Shell) cwdString() string {
	cwd := sh.sess.DOS.Cwd()
	if len(cwd) == 0 {
		return "A:\\"
	}
	return "A:\\" + strings.Join(cwd, "\\")
}

// Poll advances the interpreter: it drains keyboard input in line-edit
// modes, resumes batch work, and notices program exit. The front end
// calls it every tick.
func (sh *Shell) Poll() {
	switch sh.mode {
	case modeProgram:
		if sh.sess.State() == session.Exited {
			sh.sess.EndProgram()
			sh.lastExit = sh.sess.ExitCode()
			sh.mode = modePrompt
			sh.advanceBatch()
			if sh.mode == modePrompt && len(sh.batches) == 0 {
				sh.showPrompt()
			}
		}
	case modePrompt, modeCopyCon:
		sh.readKeys()
	case modeMore:
		if _, ok := sh.sess.BIOS.PopKey(); ok {
			sh.morePage()
		}
	}
}

// readKeys consumes buffered keys as line editing.
func (sh *Shell) readKeys() {
	for {
		key, ok := sh.sess.BIOS.PopKey()
		if !ok {
			return
		}
		ch := uint8(key)
		switch ch {
		case '\r':
			sh.print("\n")
			line := string(sh.line)
			sh.line = sh.line[:0]
			sh.submit(line)
			if sh.mode != modePrompt && sh.mode != modeCopyCon {
				return
			}
		case 8:
			if len(sh.line) > 0 {
				sh.line = sh.line[:len(sh.line)-1]
				sh.sess.BIOS.Teletype(8)
				sh.sess.BIOS.Teletype(' ')
				sh.sess.BIOS.Teletype(8)
			}
		case 0: // Extended key without an ASCII code.
		default:
			sh.line = append(sh.line, ch)
			sh.sess.BIOS.Teletype(ch)
		}
	}
}

// submit handles one entered line according to the mode.
func (sh *Shell) submit(line string) {
	if sh.mode == modeCopyCon {
		if line == "\x1A" || line == "^Z" {
			sh.finishCopyCon()
			return
		}
		sh.copyLines = append(sh.copyLines, line)
		return
	}
	sh.Execute(line)
	if sh.mode == modePrompt && len(sh.batches) == 0 {
		sh.showPrompt()
	}
}

// Execute runs one command line: substitution, redirection, dispatch.
func (sh *Shell) Execute(line string) {
	line = strings.TrimSpace(sh.substitute(line))
	if line == "" || strings.HasPrefix(line, "::") {
		return
	}

	// Split off redirection and a trailing pipe to MORE.
	command, redirect, appendMode, pipeMore := splitRedirect(line)
	if redirect != "" || pipeMore {
		buffer := &bufferSink{}
		sh.pushSink(buffer)
		sh.dispatch(command)
		sh.popSink()
		if redirect != "" {
			sh.writeRedirect(redirect, buffer.String(), appendMode)
		}
		if pipeMore {
			sh.startMore(buffer.String())
		}
		return
	}
	sh.dispatch(command)
}

// substitute expands %VAR% references and, inside a batch, %0-%9.
func (sh *Shell) substitute(line string) string {
	if frame := sh.currentBatch(); frame != nil {
		for i := 9; i >= 0; i-- {
			marker := "%" + string(rune('0'+i))
			value := ""
			if i < len(frame.args) {
				value = frame.args[i]
			}
			line = strings.ReplaceAll(line, marker, value)
		}
	}
	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] != '%' {
			sb.WriteByte(line[i])
			continue
		}
		end := strings.IndexByte(line[i+1:], '%')
		if end == 0 { // A doubled percent is a literal one.
			sb.WriteByte('%')
			i++
			continue
		}
		if end > 0 {
			name := line[i+1 : i+1+end]
			if isVarName(name) {
				sb.WriteString(sh.env[strings.ToUpper(name)])
				i += end + 1
				continue
			}
		}
		// Not a variable reference; FOR loop markers pass through.
		sb.WriteByte('%')
	}
	return sb.String()
}

func isVarName(name string) bool {
	for i := 0; i < len(name); i++ {
		ch := name[i]
		ok := ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' ||
			ch >= '0' && ch <= '9' || ch == '_'
		if !ok {
			return false
		}
	}
	return name != ""
}

// splitRedirect peels "> file", ">> file" and "| MORE" off the end of a
// command line.
func splitRedirect(line string) (command, redirect string, appendMode, pipeMore bool) {
	if bar := strings.LastIndexByte(line, '|'); bar >= 0 {
		rest := strings.TrimSpace(line[bar+1:])
		if strings.EqualFold(rest, "MORE") {
			pipeMore = true
			line = strings.TrimSpace(line[:bar])
		}
	}
	if gt := strings.IndexByte(line, '>'); gt >= 0 {
		target := strings.TrimSpace(line[gt+1:])
		if strings.HasPrefix(target, ">") {
			appendMode = true
			target = strings.TrimSpace(target[1:])
		}
		redirect = target
		line = strings.TrimSpace(line[:gt])
	}
	return line, redirect, appendMode, pipeMore
}

// writeRedirect stores captured output in a file, appending when asked.
func (sh *Shell) writeRedirect(target, text string, appendMode bool) {
	text = strings.ReplaceAll(text, "\n", "\r\n")
	path, name := sh.splitPath(target)
	if appendMode {
		if old, err := sh.sess.FS.ReadFile(path, name); err == nil {
			text = string(old) + text
		}
	}
	if err := sh.sess.FS.WriteFile(path, name, []uint8(text)); err != nil {
		sh.println(fsMessage(err))
	}
}

// startMore begins paging captured output.
func (sh *Shell) startMore(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	sh.moreLines = strings.Split(text, "\n")
	sh.moreIdx = 0
	sh.morePage()
}

// morePage prints the next page; the mode stays modeMore until done.
func (sh *Shell) morePage() {
	limit := sh.moreIdx + pageRows
	for sh.moreIdx < len(sh.moreLines) && sh.moreIdx < limit {
		sh.println(sh.moreLines[sh.moreIdx])
		sh.moreIdx++
	}
	if sh.moreIdx < len(sh.moreLines) {
		sh.print("-- More --")
		sh.mode = modeMore
		return
	}
	if sh.mode == modeMore {
		sh.mode = modePrompt
		sh.advanceBatch()
		if sh.mode == modePrompt && len(sh.batches) == 0 {
			sh.showPrompt()
		}
	}
	sh.moreLines = nil
}

// tokens splits a command line on blanks.
func tokens(line string) []string {
	return strings.Fields(line)
}

// dispatch routes one command to a built-in or a program on disk.
func (sh *Shell) dispatch(line string) {
	parts := tokens(line)
	if len(parts) == 0 {
		return
	}
	name := strings.ToUpper(parts[0])
	args := parts[1:]

	// A batch label line is inert when executed.
	if strings.HasPrefix(name, ":") {
		return
	}

	switch name {
	case "DIR":
		sh.cmdDir(args)
	case "CD", "CHDIR":
		sh.cmdCd(args)
	case "MD", "MKDIR":
		sh.cmdMd(args)
	case "RD", "RMDIR":
		sh.cmdRd(args)
	case "TYPE":
		sh.cmdType(args)
	case "COPY":
		sh.cmdCopy(args)
	case "DEL", "ERASE":
		sh.cmdDel(args)
	case "REN", "RENAME":
		sh.cmdRen(args)
	case "MOVE":
		sh.cmdMove(args)
	case "ECHO":
		sh.cmdEcho(line)
	case "SET":
		sh.cmdSet(line)
	case "PATH":
		sh.cmdPath(args)
	case "PROMPT":
		sh.cmdPrompt(args)
	case "FORMAT":
		sh.cmdFormat(args)
	case "CHKDSK":
		sh.cmdChkdsk(args)
	case "ATTRIB":
		sh.cmdAttrib(args)
	case "FIND":
		sh.cmdFind(line)
	case "SORT":
		sh.cmdSort(args)
	case "TREE":
		sh.cmdTree(args)
	case "MEM":
		sh.cmdMem(args)
	case "CLS":
		sh.cmdCls(args)
	case "VER":
		sh.println("DOS86 version 5.0")
	case "VOL":
		sh.cmdVol(args)
	case "HELP":
		sh.cmdHelp(args)
	case "GOTO":
		sh.cmdGoto(args)
	case "CALL":
		sh.cmdCall(args)
	case "IF":
		sh.cmdIf(line)
	case "FOR":
		sh.cmdFor(line)
	case "REM":
	case "PAUSE":
		sh.println("Press any key to continue . . .")
	case "EXIT":
		// The interpreter is the session; nothing to exit to.
	default:
		sh.runProgram(parts[0], args, line)
	}
}
