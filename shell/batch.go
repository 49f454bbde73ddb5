/*
   dos86 - Batch file execution.

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

package shell

import (
	"strings"
)

// batchFrame is one executing batch file. CALL pushes another frame on
// top; the outer file resumes when the inner one finishes.
type batchFrame struct {
	name  string
	lines []string
	index int
	args  []string // %0 is the batch name.
}

func (sh *Shell) currentBatch() *batchFrame {
	if len(sh.batches) == 0 {
		return nil
	}
	return sh.batches[len(sh.batches)-1]
}

// startBatch loads a batch file and begins executing it.
func (sh *Shell) startBatch(path []string, name string, args []string) {
	data, err := sh.sess.FS.ReadFile(path, name)
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	frame := &batchFrame{
		name:  name,
		lines: strings.Split(text, "\n"),
		args:  args,
	}
	sh.batches = append(sh.batches, frame)
	sh.advanceBatch()
}

// advanceBatch runs batch lines until a program takes over, MORE starts
// paging, or every frame is done.
func (sh *Shell) advanceBatch() {
	for sh.mode == modePrompt {
		frame := sh.currentBatch()
		if frame == nil {
			return
		}
		if frame.index >= len(frame.lines) {
			sh.batches = sh.batches[:len(sh.batches)-1]
			continue
		}
		line := strings.TrimSpace(frame.lines[frame.index])
		frame.index++
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		echo := !sh.echoOff
		if strings.HasPrefix(line, "@") {
			line = line[1:]
			echo = false
		}
		if echo {
			sh.println(sh.cwdString() + ">" + sh.substitute(line))
		}
		sh.Execute(line)
	}
}

// cmdGoto jumps to a :label in the current batch file.
func (sh *Shell) cmdGoto(args []string) {
	frame := sh.currentBatch()
	if frame == nil || len(args) == 0 {
		return
	}
	label := strings.ToUpper(strings.TrimPrefix(args[0], ":"))
	for i, line := range frame.lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ":") &&
			strings.EqualFold(strings.TrimPrefix(trimmed, ":"), label) {
			frame.index = i + 1
			return
		}
	}
	sh.println("Label not found: " + label)
	frame.index = len(frame.lines)
}

// cmdCall runs another batch file and returns to the caller.
func (sh *Shell) cmdCall(args []string) {
	if len(args) == 0 {
		return
	}
	sh.dispatch(strings.Join(args, " "))
}

// cmdIf handles IF [NOT] EXIST file cmd and IF [NOT] a==b cmd.
func (sh *Shell) cmdIf(line string) {
	rest := strings.TrimSpace(line[2:])
	negate := false
	if len(rest) >= 4 && strings.EqualFold(rest[:4], "NOT ") {
		negate = true
		rest = strings.TrimSpace(rest[4:])
	}

	condition := false
	if len(rest) >= 6 && strings.EqualFold(rest[:6], "EXIST ") {
		rest = strings.TrimSpace(rest[6:])
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return
		}
		target := rest[:idx]
		rest = strings.TrimSpace(rest[idx:])
		_, entries, err := sh.matchEntries(target)
		condition = err == nil && len(entries) > 0
	} else if eq := strings.Index(rest, "=="); eq >= 0 {
		left := strings.TrimSpace(rest[:eq])
		after := strings.TrimSpace(rest[eq+2:])
		idx := strings.IndexAny(after, " \t")
		if idx < 0 {
			return
		}
		right := after[:idx]
		rest = strings.TrimSpace(after[idx:])
		condition = left == right
	} else {
		return
	}

	if condition != negate {
		sh.Execute(rest)
	}
}

// cmdFor expands FOR %x IN (a b c) DO cmd into one command per item.
// Inside a batch file the variable is written %%x.
func (sh *Shell) cmdFor(line string) {
	rest := strings.TrimSpace(line[3:])
	rest = strings.ReplaceAll(rest, "%%", "%")
	if !strings.HasPrefix(rest, "%") || len(rest) < 2 {
		sh.println("Syntax error")
		return
	}
	variable := rest[:2]
	rest = strings.TrimSpace(rest[2:])
	if len(rest) < 3 || !strings.EqualFold(rest[:3], "IN ") {
		sh.println("Syntax error")
		return
	}
	rest = strings.TrimSpace(rest[3:])
	open := strings.IndexByte(rest, '(')
	closing := strings.IndexByte(rest, ')')
	if open != 0 || closing < 0 {
		sh.println("Syntax error")
		return
	}
	items := tokens(rest[1:closing])
	rest = strings.TrimSpace(rest[closing+1:])
	if len(rest) < 3 || !strings.EqualFold(rest[:3], "DO ") {
		sh.println("Syntax error")
		return
	}
	body := strings.TrimSpace(rest[3:])

	// A wildcard item expands to the matching files.
	var expanded []string
	for _, item := range items {
		if strings.ContainsAny(item, "*?") {
			if _, entries, err := sh.matchEntries(item); err == nil {
				for _, entry := range entries {
					if !entry.IsDir() {
						expanded = append(expanded, entry.Name)
					}
				}
			}
			continue
		}
		expanded = append(expanded, item)
	}
	for _, item := range expanded {
		sh.Execute(strings.ReplaceAll(body, variable, item))
	}
}
