/*
   dos86 - Open-file table and file system calls.

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

package dos

import (
	"strings"

	"dos86/emu/cpu"
	"dos86/fs/fat12"
)

// Handles 0-4 are the standard streams; files start above them.
const firstFileHandle = 5

// openFile is one entry of the open-file table. Contents live in a host
// buffer between open and close; a modified entry flushes to the
// filesystem engine on close.
type openFile struct {
	name     string
	path     []string
	data     []uint8
	pos      int
	mode     uint8
	modified bool
}

// splitPath breaks a DOS path like A:\DIR\FILE.TXT into its directory
// components and the final name, resolved against the current directory.
// Both slash styles are accepted.
func (d *DOS) splitPath(raw string) (components []string, name string) {
	raw = strings.ReplaceAll(raw, "/", "\\")
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[1] == ':' {
		raw = raw[2:]
	}
	absolute := strings.HasPrefix(raw, "\\")
	parts := []string{}
	for _, p := range strings.Split(raw, "\\") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, ""
	}
	name = parts[len(parts)-1]
	dir := parts[:len(parts)-1]
	if absolute {
		return normalize(nil, dir), name
	}
	return normalize(d.cwd, dir), name
}

// resolveDir resolves a whole path as a directory, returning its
// components. "." and ".." collapse logically.
func (d *DOS) resolveDir(raw string) ([]string, string, bool) {
	raw = strings.ReplaceAll(raw, "/", "\\")
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[1] == ':' {
		raw = raw[2:]
	}
	base := d.cwd
	if strings.HasPrefix(raw, "\\") {
		base = nil
	}
	parts := []string{}
	for _, p := range strings.Split(raw, "\\") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	components := normalize(base, parts)
	if _, err := d.fs.ListDir(components); err != nil {
		return nil, raw, false
	}
	return components, raw, true
}

// normalize appends parts to base, collapsing dot components.
func normalize(base, parts []string) []string {
	out := append([]string{}, base...)
	for _, p := range parts {
		switch p {
		case ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// closeAll flushes and drops every open file; called at program exit.
func (d *DOS) closeAll() {
	for handle, file := range d.files {
		if file.modified {
			_ = d.fs.WriteFile(file.path, file.name, file.data)
		}
		delete(d.files, handle)
	}
	d.nextHandle = firstFileHandle
}

// createFile is AH=3Ch: create or truncate, returning a handle.
func (d *DOS) createFile(c *cpu.CPU) {
	path, name := d.splitPath(d.readString(c.Sreg(cpu.DS), c.Reg(cpu.DX)))
	if name == "" {
		d.fail(c, errPathNotFound)
		return
	}
	if _, err := d.fs.ListDir(path); err != nil {
		d.fail(c, errPathNotFound)
		return
	}
	if entry, err := d.fs.Stat(path, name); err == nil && entry.IsDir() {
		d.fail(c, errAccessDenied)
		return
	}
	if err := d.fs.WriteFile(path, name, nil); err != nil {
		d.fail(c, fsError(err))
		return
	}
	handle := d.nextHandle
	d.nextHandle++
	d.files[handle] = &openFile{name: name, path: path, mode: 2, modified: false}
	c.SetReg(cpu.AX, handle)
	d.succeed(c)
}

// openFileCall is AH=3Dh: open an existing file with the mode in AL.
func (d *DOS) openFileCall(c *cpu.CPU) {
	path, name := d.splitPath(d.readString(c.Sreg(cpu.DS), c.Reg(cpu.DX)))
	if name == "" {
		d.fail(c, errFileNotFound)
		return
	}
	data, err := d.fs.ReadFile(path, name)
	if err != nil {
		d.fail(c, fsError(err))
		return
	}
	handle := d.nextHandle
	d.nextHandle++
	d.files[handle] = &openFile{
		name: name,
		path: path,
		data: data,
		mode: c.Reg8(cpu.AL) & 3,
	}
	c.SetReg(cpu.AX, handle)
	d.succeed(c)
}

// closeFile is AH=3Eh: flush a modified entry to the engine.
func (d *DOS) closeFile(c *cpu.CPU) {
	handle := c.Reg(cpu.BX)
	if handle < firstFileHandle {
		d.succeed(c) // Standard streams close silently.
		return
	}
	file, ok := d.files[handle]
	if !ok {
		d.fail(c, errInvalidHandle)
		return
	}
	if file.modified {
		if err := d.fs.WriteFile(file.path, file.name, file.data); err != nil {
			d.fail(c, fsError(err))
			return
		}
	}
	delete(d.files, handle)
	d.succeed(c)
}

// readFile is AH=3Fh: read CX bytes into DS:DX. Handle 0 reads buffered
// console input.
func (d *DOS) readFile(c *cpu.CPU) {
	handle := c.Reg(cpu.BX)
	count := int(c.Reg(cpu.CX))
	seg := c.Sreg(cpu.DS)
	off := c.Reg(cpu.DX)

	if handle == 0 {
		d.readConsole(c, seg, off, count)
		return
	}
	file, ok := d.files[handle]
	if !ok {
		d.fail(c, errInvalidHandle)
		return
	}
	avail := len(file.data) - file.pos
	if count > avail {
		count = avail
	}
	if count < 0 {
		count = 0
	}
	for i := 0; i < count; i++ {
		d.mem.PutSegByte(seg, off+uint16(i), file.data[file.pos+i])
	}
	file.pos += count
	c.SetReg(cpu.AX, uint16(count))
	d.succeed(c)
}

// readConsole services a handle 0 read from the key buffer, a line at a
// time with echo, retrying until a full line exists.
func (d *DOS) readConsole(c *cpu.CPU, seg, off uint16, count int) {
	if !d.bios.HasLine() {
		c.SetIP(c.IP() - 2)
		c.Halt(cpu.HaltKeyWait)
		return
	}
	n := 0
	for n < count {
		key, ok := d.bios.PopKey()
		if !ok {
			break
		}
		ch := uint8(key)
		if ch == '\r' {
			d.bios.Teletype('\r')
			d.bios.Teletype('\n')
			if n < count {
				d.mem.PutSegByte(seg, off+uint16(n), '\r')
				n++
			}
			if n < count {
				d.mem.PutSegByte(seg, off+uint16(n), '\n')
				n++
			}
			break
		}
		d.mem.PutSegByte(seg, off+uint16(n), ch)
		d.bios.Teletype(ch)
		n++
	}
	c.SetReg(cpu.AX, uint16(n))
	d.succeed(c)
}

// writeFile is AH=40h: write CX bytes from DS:DX. Handles 1 and 2 write
// to the console; CX=0 truncates the file at the current position.
func (d *DOS) writeFile(c *cpu.CPU) {
	handle := c.Reg(cpu.BX)
	count := int(c.Reg(cpu.CX))
	seg := c.Sreg(cpu.DS)
	off := c.Reg(cpu.DX)

	if handle == 1 || handle == 2 {
		for i := 0; i < count; i++ {
			d.bios.Teletype(d.mem.GetSegByte(seg, off+uint16(i)))
		}
		c.SetReg(cpu.AX, uint16(count))
		d.succeed(c)
		return
	}
	file, ok := d.files[handle]
	if !ok {
		d.fail(c, errInvalidHandle)
		return
	}
	if file.mode == 0 {
		d.fail(c, errAccessDenied)
		return
	}
	if count == 0 {
		file.data = file.data[:min(file.pos, len(file.data))]
		file.modified = true
		c.SetReg(cpu.AX, 0)
		d.succeed(c)
		return
	}
	// Zero fill any gap a past-end seek created.
	for len(file.data) < file.pos {
		file.data = append(file.data, 0)
	}
	for i := 0; i < count; i++ {
		b := d.mem.GetSegByte(seg, off+uint16(i))
		if file.pos < len(file.data) {
			file.data[file.pos] = b
		} else {
			file.data = append(file.data, b)
		}
		file.pos++
	}
	file.modified = true
	c.SetReg(cpu.AX, uint16(count))
	d.succeed(c)
}

// deleteFile is AH=41h.
func (d *DOS) deleteFile(c *cpu.CPU) {
	path, name := d.splitPath(d.readString(c.Sreg(cpu.DS), c.Reg(cpu.DX)))
	if entry, err := d.fs.Stat(path, name); err == nil && entry.IsDir() {
		d.fail(c, errAccessDenied)
		return
	}
	found, err := d.fs.Delete(path, name)
	if err != nil {
		d.fail(c, fsError(err))
		return
	}
	if !found {
		d.fail(c, errFileNotFound)
		return
	}
	d.succeed(c)
}

// seekFile is AH=42h: move the position by the method in AL; the new
// offset returns in DX:AX.
func (d *DOS) seekFile(c *cpu.CPU) {
	file, ok := d.files[c.Reg(cpu.BX)]
	if !ok {
		d.fail(c, errInvalidHandle)
		return
	}
	offset := int(int32(uint32(c.Reg(cpu.CX))<<16 | uint32(c.Reg(cpu.DX))))
	switch c.Reg8(cpu.AL) {
	case 0:
		file.pos = offset
	case 1:
		file.pos += offset
	case 2:
		file.pos = len(file.data) + offset
	default:
		d.fail(c, errInvalidFunction)
		return
	}
	if file.pos < 0 {
		file.pos = 0
	}
	c.SetReg(cpu.DX, uint16(uint32(file.pos)>>16))
	c.SetReg(cpu.AX, uint16(file.pos))
	d.succeed(c)
}

// fileAttributes is AH=43h: AL=0 reads CX, AL=1 writes CX.
func (d *DOS) fileAttributes(c *cpu.CPU) {
	path, name := d.splitPath(d.readString(c.Sreg(cpu.DS), c.Reg(cpu.DX)))
	entry, err := d.fs.Stat(path, name)
	if err != nil {
		d.fail(c, fsError(err))
		return
	}
	switch c.Reg8(cpu.AL) {
	case 0:
		c.SetReg(cpu.CX, uint16(entry.Attr))
		d.succeed(c)
	case 1:
		if err := d.fs.SetAttributes(path, name, uint8(c.Reg(cpu.CX))); err != nil {
			d.fail(c, fsError(err))
			return
		}
		d.succeed(c)
	default:
		d.fail(c, errInvalidFunction)
	}
}

// renameFile is AH=56h: old name at DS:DX, new name at ES:DI. Both must
// name the same directory; cross-directory moves go through the shell.
func (d *DOS) renameFile(c *cpu.CPU) {
	oldPath, oldName := d.splitPath(d.readString(c.Sreg(cpu.DS), c.Reg(cpu.DX)))
	_, newName := d.splitPath(d.readString(c.Sreg(cpu.ES), c.Reg(cpu.DI)))
	if err := d.fs.Rename(oldPath, oldName, newName); err != nil {
		d.fail(c, fsError(err))
		return
	}
	d.succeed(c)
}

// fileStamp is AH=57h: report or accept the date and time of an open file.
func (d *DOS) fileStamp(c *cpu.CPU) {
	file, ok := d.files[c.Reg(cpu.BX)]
	if !ok {
		d.fail(c, errInvalidHandle)
		return
	}
	switch c.Reg8(cpu.AL) {
	case 0:
		entry, err := d.fs.Stat(file.path, file.name)
		if err != nil {
			d.fail(c, fsError(err))
			return
		}
		c.SetReg(cpu.CX, entry.Time)
		c.SetReg(cpu.DX, entry.Date)
		d.succeed(c)
	case 1: // Set: the close-time stamp wins; accepted silently.
		d.succeed(c)
	default:
		d.fail(c, errInvalidFunction)
	}
}

// Find-first and find-next fill the DTA with the classic 43 byte record:
// attribute at 0x15, time 0x16, date 0x18, size 0x1A, 8.3 name 0x1E.

// matchMask checks an 8.3 name against a ? and * pattern.
func matchMask(name, mask string) bool {
	if mask == "" || mask == "*.*" || mask == "*" {
		return true
	}
	nameBase, nameExt := splitExt(name)
	maskBase, maskExt := splitExt(mask)
	return matchPart(nameBase, maskBase) && matchPart(nameExt, maskExt)
}

func splitExt(s string) (string, string) {
	if dot := strings.LastIndexByte(s, '.'); dot >= 0 {
		return s[:dot], s[dot+1:]
	}
	return s, ""
}

// matchPart matches one name part: * matches the rest, ? matches one
// character or the end.
func matchPart(part, mask string) bool {
	part = strings.ToUpper(part)
	mask = strings.ToUpper(mask)
	pi := 0
	for mi := 0; mi < len(mask); mi++ {
		switch mask[mi] {
		case '*':
			return true
		case '?':
			if pi < len(part) {
				pi++
			}
		default:
			if pi >= len(part) || part[pi] != mask[mi] {
				return false
			}
			pi++
		}
	}
	return pi == len(part)
}

// findFirst is AH=4Eh: the mask at DS:DX may carry a directory prefix.
func (d *DOS) findFirst(c *cpu.CPU) {
	raw := d.readString(c.Sreg(cpu.DS), c.Reg(cpu.DX))
	path, mask := d.splitPath(raw)
	entries, err := d.fs.ListDir(path)
	if err != nil {
		d.fail(c, errPathNotFound)
		return
	}
	attrs := uint8(c.Reg(cpu.CX))
	d.found = d.found[:0]
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		if entry.IsDir() && attrs&fat12.AttrDirectory == 0 {
			continue
		}
		if matchMask(entry.Name, mask) {
			d.found = append(d.found, entry)
		}
	}
	d.foundIdx = 0
	d.findNext(c)
}

// findNext is AH=4Fh: deposit the next match, error 0x12 at the end.
func (d *DOS) findNext(c *cpu.CPU) {
	if d.foundIdx >= len(d.found) {
		d.fail(c, errNoMoreFiles)
		return
	}
	entry := d.found[d.foundIdx]
	d.foundIdx++

	seg, off := d.dtaSeg, d.dtaOff
	d.mem.PutSegByte(seg, off+0x15, entry.Attr)
	d.mem.PutSegWord(seg, off+0x16, entry.Time)
	d.mem.PutSegWord(seg, off+0x18, entry.Date)
	d.mem.PutSegWord(seg, off+0x1A, uint16(entry.Size))
	d.mem.PutSegWord(seg, off+0x1C, uint16(entry.Size>>16))
	for i := 0; i < 13; i++ {
		var ch uint8
		if i < len(entry.Name) {
			ch = entry.Name[i]
		}
		d.mem.PutSegByte(seg, off+0x1E+uint16(i), ch)
	}
	c.SetReg(cpu.AX, 0)
	d.succeed(c)
}
