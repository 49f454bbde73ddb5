/*
   dos86 - Output sinks and redirection.

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

	"dos86/emu/bios"
)

// Sink receives command output. Every write goes to the sink on top of
// the stack; redirection pushes a buffer sink for the duration of one
// command, then pops it.
type Sink interface {
	Print(s string)
}

// consoleSink is the bottom of the stack: the BIOS teletype, with LF
// expanded to CRLF.
type consoleSink struct {
	bios *bios.BIOS
}

func (s *consoleSink) Print(text string) {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			s.bios.Teletype('\r')
		}
		s.bios.Teletype(text[i])
	}
}

// bufferSink collects output for a redirection target or a pipe.
type bufferSink struct {
	sb strings.Builder
}

func (s *bufferSink) Print(text string) {
	s.sb.WriteString(text)
}

func (s *bufferSink) String() string {
	return s.sb.String()
}

func (sh *Shell) sink() Sink {
	return sh.sinks[len(sh.sinks)-1]
}

func (sh *Shell) pushSink(s Sink) {
	sh.sinks = append(sh.sinks, s)
}

func (sh *Shell) popSink() Sink {
	top := sh.sinks[len(sh.sinks)-1]
	sh.sinks = sh.sinks[:len(sh.sinks)-1]
	return top
}

func (sh *Shell) print(s string) {
	sh.sink().Print(s)
}

func (sh *Shell) println(s string) {
	sh.sink().Print(s + "\n")
}
