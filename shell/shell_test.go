/*
   dos86 - Shell tests.

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dos86/emu/session"
	"dos86/fs/store"
)

func newShell(t *testing.T) (*Shell, *session.Session) {
	t.Helper()
	sess := session.New(store.NewMemStore())
	return New(sess), sess
}

// run executes a line with output captured.
func run(sh *Shell, line string) string {
	buf := &bufferSink{}
	sh.pushSink(buf)
	sh.Execute(line)
	sh.popSink()
	return buf.String()
}

func TestEcho(t *testing.T) {
	sh, _ := newShell(t)
	out := run(sh, "ECHO hello world")
	assert.Equal(t, "hello world\n", out)
}

func TestVer(t *testing.T) {
	sh, _ := newShell(t)
	assert.Contains(t, run(sh, "VER"), "DOS86 version 5.0")
}

func TestUnknownCommand(t *testing.T) {
	sh, _ := newShell(t)
	assert.Contains(t, run(sh, "FROBNICATE"), "Bad command or file name")
}

func TestMdCdDir(t *testing.T) {
	sh, sess := newShell(t)
	assert.Empty(t, run(sh, "MD GAMES"))
	run(sh, "CD GAMES")
	assert.Equal(t, []string{"GAMES"}, sess.DOS.Cwd())

	require.NoError(t, sess.FS.WriteFile([]string{"GAMES"}, "README.TXT", []uint8("hi")))
	out := run(sh, "DIR")
	assert.Contains(t, out, "README")
	assert.Contains(t, out, "Directory of A:\\GAMES")

	run(sh, "CD ..")
	assert.Empty(t, sess.DOS.Cwd())

	out = run(sh, "DIR /B")
	assert.Contains(t, out, "GAMES")
	assert.NotContains(t, out, "Volume")
}

func TestDirWide(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "ONE.TXT", nil))
	require.NoError(t, sess.FS.Mkdir(nil, "SUB"))
	out := run(sh, "DIR /W")
	assert.Contains(t, out, "ONE.TXT")
	assert.Contains(t, out, "[SUB]")
}

func TestTypeAndRedirect(t *testing.T) {
	sh, sess := newShell(t)
	run(sh, "ECHO first line > OUT.TXT")
	data, err := sess.FS.ReadFile(nil, "OUT.TXT")
	require.NoError(t, err)
	assert.Equal(t, "first line\r\n", string(data))

	run(sh, "ECHO second line >> OUT.TXT")
	data, err = sess.FS.ReadFile(nil, "OUT.TXT")
	require.NoError(t, err)
	assert.Equal(t, "first line\r\nsecond line\r\n", string(data))

	out := run(sh, "TYPE OUT.TXT")
	assert.Equal(t, "first line\nsecond line\n", out)
}

func TestCopyAndDel(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "A.TXT", []uint8("data")))
	out := run(sh, "COPY A.TXT B.TXT")
	assert.Contains(t, out, "1 file(s) copied")
	data, err := sess.FS.ReadFile(nil, "B.TXT")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	run(sh, "DEL *.TXT")
	entries, err := sess.FS.ListDir(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCopyToDirectory(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "A.TXT", []uint8("x")))
	require.NoError(t, sess.FS.Mkdir(nil, "DEST"))
	run(sh, "COPY A.TXT DEST")
	data, err := sess.FS.ReadFile([]string{"DEST"}, "A.TXT")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestRenMove(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "A.TXT", []uint8("x")))
	run(sh, "REN A.TXT B.TXT")
	_, err := sess.FS.Stat(nil, "B.TXT")
	assert.NoError(t, err)

	require.NoError(t, sess.FS.Mkdir(nil, "SUB"))
	run(sh, "MOVE B.TXT SUB")
	_, err = sess.FS.Stat([]string{"SUB"}, "B.TXT")
	assert.NoError(t, err)
	_, err = sess.FS.Stat(nil, "B.TXT")
	assert.Error(t, err)
}

func TestRdRequiresEmpty(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.Mkdir(nil, "SUB"))
	require.NoError(t, sess.FS.WriteFile([]string{"SUB"}, "F.TXT", []uint8{1}))
	out := run(sh, "RD SUB")
	assert.Contains(t, out, "not directory, or directory not empty")

	run(sh, "DEL SUB\\F.TXT")
	run(sh, "RD SUB")
	_, err := sess.FS.Stat(nil, "SUB")
	assert.Error(t, err)
}

func TestSetAndSubstitution(t *testing.T) {
	sh, _ := newShell(t)
	run(sh, "SET GREETING=hi there")
	out := run(sh, "ECHO %GREETING%")
	assert.Equal(t, "hi there\n", out)

	out = run(sh, "SET")
	assert.Contains(t, out, "GREETING=hi there")
	assert.Contains(t, out, "PATH=A:\\")

	run(sh, "SET GREETING=")
	out = run(sh, "ECHO %GREETING%")
	assert.Equal(t, "ECHO is on\n", out)
}

func TestPromptAndPath(t *testing.T) {
	sh, _ := newShell(t)
	run(sh, "PROMPT $G$G")
	assert.Equal(t, "$G$G", sh.env["PROMPT"])
	run(sh, "PATH A:\\;A:\\BIN")
	assert.Equal(t, "A:\\;A:\\BIN", sh.env["PATH"])
}

func TestFormatNeedsConfirmation(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "KEEP.TXT", []uint8{1}))
	out := run(sh, "FORMAT")
	assert.Contains(t, out, "FORMAT /Y")
	_, err := sess.FS.Stat(nil, "KEEP.TXT")
	assert.NoError(t, err)

	out = run(sh, "FORMAT /Y")
	assert.Contains(t, out, "Format complete")
	_, err = sess.FS.Stat(nil, "KEEP.TXT")
	assert.Error(t, err)
}

func TestChkdsk(t *testing.T) {
	sh, _ := newShell(t)
	out := run(sh, "CHKDSK")
	assert.Contains(t, out, "bytes total disk space")
	assert.Contains(t, out, "No errors found")
}

func TestAttrib(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "A.TXT", []uint8{1}))
	run(sh, "ATTRIB +R A.TXT")
	entry, err := sess.FS.Stat(nil, "A.TXT")
	require.NoError(t, err)
	assert.NotZero(t, entry.Attr&0x01)

	out := run(sh, "ATTRIB A.TXT")
	assert.Contains(t, out, "R")

	run(sh, "ATTRIB -R A.TXT")
	entry, err = sess.FS.Stat(nil, "A.TXT")
	require.NoError(t, err)
	assert.Zero(t, entry.Attr&0x01)
}

func TestFindAndSort(t *testing.T) {
	sh, sess := newShell(t)
	text := "zebra\r\napple\r\nmango\r\n"
	require.NoError(t, sess.FS.WriteFile(nil, "L.TXT", []uint8(text)))

	out := run(sh, "FIND \"an\" L.TXT")
	assert.Contains(t, out, "mango")
	assert.NotContains(t, out, "zebra")

	out = run(sh, "SORT L.TXT")
	apple := strings.Index(out, "apple")
	mango := strings.Index(out, "mango")
	zebra := strings.Index(out, "zebra")
	assert.True(t, apple < mango && mango < zebra, "sorted order: %q", out)
}

func TestTree(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.Mkdir(nil, "A"))
	require.NoError(t, sess.FS.Mkdir([]string{"A"}, "B"))
	out := run(sh, "TREE")
	assert.Contains(t, out, "\\---A")
	assert.Contains(t, out, "\\---B")
}

func TestVol(t *testing.T) {
	sh, _ := newShell(t)
	out := run(sh, "VOL")
	assert.Contains(t, out, "Volume in drive A is DOS86")
}

func TestBatchExecution(t *testing.T) {
	sh, sess := newShell(t)
	batch := "@ECHO OFF\r\nECHO start\r\nGOTO END\r\nECHO skipped\r\n:END\r\nECHO done\r\n"
	require.NoError(t, sess.FS.WriteFile(nil, "T.BAT", []uint8(batch)))
	out := run(sh, "T")
	assert.Contains(t, out, "start")
	assert.Contains(t, out, "done")
	assert.NotContains(t, out, "skipped")
}

func TestBatchArgsAndIf(t *testing.T) {
	sh, sess := newShell(t)
	batch := "@ECHO OFF\r\nIF %1==yes ECHO affirmative\r\nIF NOT %1==yes ECHO negative\r\n"
	require.NoError(t, sess.FS.WriteFile(nil, "ARG.BAT", []uint8(batch)))
	out := run(sh, "ARG yes")
	assert.Contains(t, out, "affirmative")
	assert.NotContains(t, out, "negative")
}

func TestIfExist(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "YES.TXT", []uint8{1}))
	out := run(sh, "IF EXIST YES.TXT ECHO found")
	assert.Equal(t, "found\n", out)
	out = run(sh, "IF EXIST NO.TXT ECHO found")
	assert.Empty(t, out)
	out = run(sh, "IF NOT EXIST NO.TXT ECHO missing")
	assert.Equal(t, "missing\n", out)
}

func TestForLoop(t *testing.T) {
	sh, _ := newShell(t)
	out := run(sh, "FOR %x IN (a b c) DO ECHO item %x")
	assert.Equal(t, "item a\nitem b\nitem c\n", out)
}

func TestForWildcard(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "A.TXT", nil))
	require.NoError(t, sess.FS.WriteFile(nil, "B.TXT", nil))
	out := run(sh, "FOR %f IN (*.TXT) DO ECHO %f")
	assert.Contains(t, out, "A.TXT")
	assert.Contains(t, out, "B.TXT")
}

func TestCallBatch(t *testing.T) {
	sh, sess := newShell(t)
	require.NoError(t, sess.FS.WriteFile(nil, "INNER.BAT", []uint8("@ECHO OFF\r\nECHO inner\r\n")))
	require.NoError(t, sess.FS.WriteFile(nil, "OUTER.BAT",
		[]uint8("@ECHO OFF\r\nECHO before\r\nCALL INNER\r\nECHO after\r\n")))
	out := run(sh, "OUTER")
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "inner")
	assert.Contains(t, out, "after")
}

func TestPipeMore(t *testing.T) {
	sh, sess := newShell(t)
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, "line")
	}
	require.NoError(t, sess.FS.WriteFile(nil, "BIG.TXT",
		[]uint8(strings.Join(lines, "\r\n")+"\r\n")))
	out := run(sh, "TYPE BIG.TXT | MORE")
	assert.Contains(t, out, "-- More --")
	assert.Equal(t, modeMore, sh.mode)

	// A key advances to the rest of the file.
	buf := &bufferSink{}
	sh.pushSink(buf)
	sess.BIOS.PushKey(' ')
	sh.Poll()
	sh.popSink()
	assert.Equal(t, modePrompt, sh.mode)
}

func TestCopyCon(t *testing.T) {
	sh, sess := newShell(t)
	sh.Execute("COPY CON NOTE.TXT")
	assert.Equal(t, modeCopyCon, sh.mode)
	sh.submit("hello")
	sh.submit("world")
	sh.submit("^Z")
	assert.Equal(t, modePrompt, sh.mode)

	data, err := sess.FS.ReadFile(nil, "NOTE.TXT")
	require.NoError(t, err)
	assert.Equal(t, "hello\r\nworld\r\n", string(data))
}

func TestRunProgramFromDisk(t *testing.T) {
	sh, sess := newShell(t)
	// MOV AL,7; MOV AH,0x4C; INT 21h: exit with code 7.
	image := []uint8{0xB0, 0x07, 0xB4, 0x4C, 0xCD, 0x21}
	require.NoError(t, sess.FS.WriteFile(nil, "RET7.COM", image))

	sh.Execute("RET7")
	assert.True(t, sh.Busy())
	state := sess.Run(5)
	assert.Equal(t, session.Exited, state)
	sh.Poll()
	assert.False(t, sh.Busy())
	assert.Equal(t, uint8(7), sh.lastExit)
}

func TestLineEditing(t *testing.T) {
	sh, sess := newShell(t)
	for _, ch := range "VERX" {
		sess.BIOS.PushKey(uint16(ch))
	}
	sess.BIOS.PushKey(8) // Backspace removes the X.
	sess.BIOS.PushKey('\r')
	sh.Poll()
	// After Enter the edited line has been submitted and the shell is
	// back in prompt mode.
	assert.Equal(t, modePrompt, sh.mode)
}
