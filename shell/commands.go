/*
   dos86 - Shell built-in commands.

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
	"fmt"
	"sort"
	"strings"

	"dos86/fs/fat12"
)

// fsMessage turns an engine error into the classic console message.
func fsMessage(err error) string {
	switch err {
	case fat12.ErrNotFound:
		return "File not found"
	case fat12.ErrPathNotFound:
		return "Path not found"
	case fat12.ErrDiskFull:
		return "Insufficient disk space"
	case fat12.ErrDirectoryFull:
		return "Directory is full"
	case fat12.ErrExists:
		return "A duplicate file name exists"
	}
	return "Access denied"
}

// splitPath resolves a DOS path against the current directory, returning
// directory components and the final name.
func (sh *Shell) splitPath(raw string) ([]string, string) {
	raw = strings.ReplaceAll(raw, "/", "\\")
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
	name := parts[len(parts)-1]
	dir := parts[:len(parts)-1]
	base := sh.sess.DOS.Cwd()
	if absolute {
		base = nil
	}
	out := append([]string{}, base...)
	for _, p := range dir {
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
	return out, strings.ToUpper(name)
}

// resolveDirArg resolves a whole argument as a directory path.
func (sh *Shell) resolveDirArg(raw string) ([]string, bool) {
	raw = strings.ReplaceAll(raw, "/", "\\")
	if len(raw) >= 2 && raw[1] == ':' {
		raw = raw[2:]
	}
	base := sh.sess.DOS.Cwd()
	if strings.HasPrefix(raw, "\\") {
		base = nil
	}
	out := append([]string{}, base...)
	for _, p := range strings.Split(raw, "\\") {
		switch p {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, strings.ToUpper(p))
		}
	}
	if _, err := sh.sess.FS.ListDir(out); err != nil {
		return nil, false
	}
	return out, true
}

// matchEntries lists directory entries matching a mask argument.
func (sh *Shell) matchEntries(arg string) ([]string, []fat12.DirEntry, error) {
	path, mask := sh.splitPath(arg)
	if mask == "" {
		mask = "*.*"
	}
	// A bare directory name means everything inside it.
	if entry, err := sh.sess.FS.Stat(path, mask); err == nil && entry.IsDir() {
		path = append(path, mask)
		mask = "*.*"
	}
	entries, err := sh.sess.FS.ListDir(path)
	if err != nil {
		return nil, nil, err
	}
	var out []fat12.DirEntry
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		if maskMatch(entry.Name, mask) {
			out = append(out, entry)
		}
	}
	return path, out, nil
}

// maskMatch checks one 8.3 name against a ? and * pattern.
func maskMatch(name, mask string) bool {
	if mask == "" || mask == "*.*" || mask == "*" {
		return true
	}
	nb, ne := splitDot(name)
	mb, me := splitDot(mask)
	return partMatch(nb, mb) && partMatch(ne, me)
}

func splitDot(s string) (string, string) {
	if dot := strings.LastIndexByte(s, '.'); dot >= 0 {
		return s[:dot], s[dot+1:]
	}
	return s, ""
}

func partMatch(part, mask string) bool {
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

func stampString(entry fat12.DirEntry) string {
	year := int(entry.Date>>9) + 1980
	month := int(entry.Date >> 5 & 0x0F)
	day := int(entry.Date & 0x1F)
	hour := int(entry.Time >> 11)
	minute := int(entry.Time >> 5 & 0x3F)
	return fmt.Sprintf("%02d-%02d-%04d  %02d:%02d", month, day, year, hour, minute)
}

// cmdDir lists a directory; /W is the wide format, /B names only.
func (sh *Shell) cmdDir(args []string) {
	wide := false
	bare := false
	target := ""
	for _, a := range args {
		switch strings.ToUpper(a) {
		case "/W":
			wide = true
		case "/B":
			bare = true
		default:
			target = a
		}
	}
	if target == "" {
		target = "*.*"
	}
	path, entries, err := sh.matchEntries(target)
	if err != nil {
		sh.println(fsMessage(err))
		return
	}

	if !bare {
		sh.println(" Volume in drive A is " + sh.sess.FS.VolumeLabel())
		sh.println(" Directory of A:\\" + strings.Join(path, "\\"))
		sh.println("")
	}
	files := 0
	dirs := 0
	var bytes uint64
	if wide {
		var names []string
		for _, entry := range entries {
			if entry.IsDir() {
				names = append(names, "["+entry.Name+"]")
				dirs++
			} else {
				names = append(names, entry.Name)
				files++
				bytes += uint64(entry.Size)
			}
		}
		for i, name := range names {
			sh.print(fmt.Sprintf("%-16s", name))
			if i%5 == 4 {
				sh.print("\n")
			}
		}
		if len(names)%5 != 0 {
			sh.print("\n")
		}
	} else {
		for _, entry := range entries {
			base, ext := splitDot(entry.Name)
			if bare {
				sh.println(entry.Name)
				continue
			}
			kind := fmt.Sprintf("%10d", entry.Size)
			if entry.IsDir() {
				kind = "     <DIR>"
				dirs++
			} else {
				files++
				bytes += uint64(entry.Size)
			}
			sh.println(fmt.Sprintf("%-8s %-3s %s  %s", base, ext, kind, stampString(entry)))
		}
	}
	if !bare {
		sh.println("")
		sh.println(fmt.Sprintf("%10d file(s) %10d bytes", files, bytes))
		sh.println(fmt.Sprintf("%10d dir(s)  %10d bytes free",
			dirs, sh.sess.FS.FreeClusters()*fat12.SectorSize))
	}
}

func (sh *Shell) cmdCd(args []string) {
	if len(args) == 0 {
		sh.println(sh.cwdString())
		return
	}
	path, ok := sh.resolveDirArg(args[0])
	if !ok {
		sh.println("Path not found")
		return
	}
	sh.sess.DOS.SetCwd(path)
}

func (sh *Shell) cmdMd(args []string) {
	if len(args) == 0 {
		sh.println("Required parameter missing")
		return
	}
	path, name := sh.splitPath(args[0])
	if err := sh.sess.FS.Mkdir(path, name); err != nil {
		sh.println(fsMessage(err))
	}
}

func (sh *Shell) cmdRd(args []string) {
	if len(args) == 0 {
		sh.println("Required parameter missing")
		return
	}
	path, name := sh.splitPath(args[0])
	entry, err := sh.sess.FS.Stat(path, name)
	if err != nil || !entry.IsDir() {
		sh.println("Invalid path, not directory, or directory not empty")
		return
	}
	inside, err := sh.sess.FS.ListDir(append(append([]string{}, path...), name))
	if err == nil {
		for _, e := range inside {
			if e.Name != "." && e.Name != ".." {
				sh.println("Invalid path, not directory, or directory not empty")
				return
			}
		}
	}
	if _, err := sh.sess.FS.Delete(path, name); err != nil {
		sh.println(fsMessage(err))
	}
}

func (sh *Shell) cmdType(args []string) {
	if len(args) == 0 {
		sh.println("Required parameter missing")
		return
	}
	path, name := sh.splitPath(args[0])
	data, err := sh.sess.FS.ReadFile(path, name)
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	sh.print(normalizeText(data))
}

// normalizeText converts stored CRLF text to sink line feeds.
func normalizeText(data []uint8) string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text
}

// cmdCopy copies files; COPY CON collects console lines until ^Z.
func (sh *Shell) cmdCopy(args []string) {
	if len(args) < 2 {
		sh.println("Required parameter missing")
		return
	}
	if strings.EqualFold(args[0], "CON") {
		sh.copyTarget = args[1]
		sh.copyLines = nil
		sh.mode = modeCopyCon
		return
	}
	srcPath, _ := sh.splitPath(args[0])
	_, entries, err := sh.matchEntries(args[0])
	if err != nil || len(entries) == 0 {
		sh.println("File not found")
		return
	}
	// Destination: a directory keeps names, a file renames one source.
	destDir, destOK := sh.resolveDirArg(args[1])
	copied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := sh.sess.FS.ReadFile(srcPath, entry.Name)
		if err != nil {
			continue
		}
		if destOK {
			err = sh.sess.FS.WriteFile(destDir, entry.Name, data)
		} else {
			destPath, destName := sh.splitPath(args[1])
			err = sh.sess.FS.WriteFile(destPath, destName, data)
		}
		if err != nil {
			sh.println(fsMessage(err))
			return
		}
		copied++
		if !destOK {
			break
		}
	}
	sh.println(fmt.Sprintf("%9d file(s) copied", copied))
}

// finishCopyCon writes the collected console lines.
func (sh *Shell) finishCopyCon() {
	text := ""
	if len(sh.copyLines) > 0 {
		text = strings.Join(sh.copyLines, "\r\n") + "\r\n"
	}
	path, name := sh.splitPath(sh.copyTarget)
	if err := sh.sess.FS.WriteFile(path, name, []uint8(text)); err != nil {
		sh.println(fsMessage(err))
	} else {
		sh.println("        1 file(s) copied")
	}
	sh.mode = modePrompt
	sh.showPrompt()
}

func (sh *Shell) cmdDel(args []string) {
	if len(args) == 0 {
		sh.println("Required parameter missing")
		return
	}
	path, entries, err := sh.matchEntries(args[0])
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if found, _ := sh.sess.FS.Delete(path, entry.Name); found {
			deleted++
		}
	}
	if deleted == 0 {
		sh.println("File not found")
	}
}

func (sh *Shell) cmdRen(args []string) {
	if len(args) < 2 {
		sh.println("Required parameter missing")
		return
	}
	path, oldName := sh.splitPath(args[0])
	_, newName := sh.splitPath(args[1])
	if err := sh.sess.FS.Rename(path, oldName, newName); err != nil {
		sh.println(fsMessage(err))
	}
}

// cmdMove copies across directories and removes the source.
func (sh *Shell) cmdMove(args []string) {
	if len(args) < 2 {
		sh.println("Required parameter missing")
		return
	}
	srcPath, srcName := sh.splitPath(args[0])
	data, err := sh.sess.FS.ReadFile(srcPath, srcName)
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	destDir, destOK := sh.resolveDirArg(args[1])
	if destOK {
		err = sh.sess.FS.WriteFile(destDir, srcName, data)
	} else {
		destPath, destName := sh.splitPath(args[1])
		err = sh.sess.FS.WriteFile(destPath, destName, data)
	}
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	_, _ = sh.sess.FS.Delete(srcPath, srcName)
	sh.println("        1 file(s) moved")
}

// cmdEcho prints its argument text, or toggles batch echo.
func (sh *Shell) cmdEcho(line string) {
	rest := strings.TrimSpace(line[4:])
	switch strings.ToUpper(rest) {
	case "":
		if sh.echoOff {
			sh.println("ECHO is off")
		} else {
			sh.println("ECHO is on")
		}
	case "ON":
		sh.echoOff = false
	case "OFF":
		sh.echoOff = true
	case ".":
		sh.println("")
	default:
		sh.println(rest)
	}
}

// cmdSet lists, sets or clears environment variables.
func (sh *Shell) cmdSet(line string) {
	rest := strings.TrimSpace(line[3:])
	if rest == "" {
		names := make([]string, 0, len(sh.env))
		for name := range sh.env {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sh.println(name + "=" + sh.env[name])
		}
		return
	}
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		name := strings.ToUpper(rest)
		if value, ok := sh.env[name]; ok {
			sh.println(name + "=" + value)
		} else {
			sh.println("Environment variable " + name + " not defined")
		}
		return
	}
	name := strings.ToUpper(strings.TrimSpace(rest[:eq]))
	value := strings.TrimSpace(rest[eq+1:])
	if value == "" {
		delete(sh.env, name)
	} else {
		sh.env[name] = value
	}
}

func (sh *Shell) cmdPath(args []string) {
	if len(args) == 0 {
		sh.println("PATH=" + sh.env["PATH"])
		return
	}
	sh.env["PATH"] = strings.Join(args, " ")
}

func (sh *Shell) cmdPrompt(args []string) {
	if len(args) == 0 {
		sh.env["PROMPT"] = "$P$G"
		return
	}
	sh.env["PROMPT"] = strings.Join(args, " ")
}

// cmdFormat wipes the disk; it insists on /Y since there is no way to
// ask interactively mid-command.
func (sh *Shell) cmdFormat(args []string) {
	confirmed := false
	for _, a := range args {
		if strings.EqualFold(a, "/Y") {
			confirmed = true
		}
	}
	if !confirmed {
		sh.println("All data on the disk will be lost; use FORMAT /Y to proceed")
		return
	}
	sh.sess.FS.Format("DOS86")
	sh.sess.DOS.SetCwd(nil)
	sh.println("Format complete")
	sh.println(fmt.Sprintf("%10d bytes free", sh.sess.FS.FreeClusters()*fat12.SectorSize))
}

// cmdChkdsk reports volume statistics and verifies the FAT copies agree.
func (sh *Shell) cmdChkdsk(_ []string) {
	sh.println(" Volume " + sh.sess.FS.VolumeLabel())
	total := fat12.TotalClusters * fat12.SectorSize
	free := sh.sess.FS.FreeClusters() * fat12.SectorSize
	sh.println(fmt.Sprintf("%10d bytes total disk space", total))
	sh.println(fmt.Sprintf("%10d bytes available on disk", free))
	sh.println("")
	mismatch := false
	for i := 0; i < fat12.SectorsPerFAT; i++ {
		a := sh.sess.FS.ReadSector(1 + i)
		b := sh.sess.FS.ReadSector(10 + i)
		for j := range a {
			if a[j] != b[j] {
				mismatch = true
			}
		}
	}
	if mismatch {
		sh.println("FAT copies disagree")
	} else {
		sh.println("No errors found")
	}
}

// cmdAttrib shows or changes attribute bits: +R -R +H -H +S -S +A -A.
func (sh *Shell) cmdAttrib(args []string) {
	var set, clear uint8
	target := ""
	for _, a := range args {
		bit := uint8(0)
		switch strings.ToUpper(strings.TrimLeft(a, "+-")) {
		case "R":
			bit = fat12.AttrReadOnly
		case "H":
			bit = fat12.AttrHidden
		case "S":
			bit = fat12.AttrSystem
		case "A":
			bit = fat12.AttrArchive
		}
		switch {
		case bit != 0 && strings.HasPrefix(a, "+"):
			set |= bit
		case bit != 0 && strings.HasPrefix(a, "-"):
			clear |= bit
		default:
			target = a
		}
	}
	if target == "" {
		target = "*.*"
	}
	path, entries, err := sh.matchEntries(target)
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	for _, entry := range entries {
		if set != 0 || clear != 0 {
			attr := entry.Attr&^clear | set
			if err := sh.sess.FS.SetAttributes(path, entry.Name, attr); err != nil {
				sh.println(fsMessage(err))
			}
			continue
		}
		flags := []uint8{' ', ' ', ' ', ' '}
		if entry.Attr&fat12.AttrArchive != 0 {
			flags[0] = 'A'
		}
		if entry.Attr&fat12.AttrSystem != 0 {
			flags[1] = 'S'
		}
		if entry.Attr&fat12.AttrHidden != 0 {
			flags[2] = 'H'
		}
		if entry.Attr&fat12.AttrReadOnly != 0 {
			flags[3] = 'R'
		}
		sh.println(string(flags) + "     A:\\" + entry.Name)
	}
}

// cmdFind prints lines containing a quoted string.
func (sh *Shell) cmdFind(line string) {
	first := strings.IndexByte(line, '"')
	last := strings.LastIndexByte(line, '"')
	if first < 0 || last <= first {
		sh.println("FIND: Required parameter missing")
		return
	}
	needle := line[first+1 : last]
	rest := tokens(line[last+1:])
	if len(rest) == 0 {
		sh.println("FIND: Required parameter missing")
		return
	}
	path, name := sh.splitPath(rest[0])
	data, err := sh.sess.FS.ReadFile(path, name)
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	sh.println("---------- " + strings.ToUpper(rest[0]))
	for _, l := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.Contains(l, needle) {
			sh.println(l)
		}
	}
}

// cmdSort prints a file's lines in order.
func (sh *Shell) cmdSort(args []string) {
	if len(args) == 0 {
		sh.println("Required parameter missing")
		return
	}
	reverse := false
	target := ""
	for _, a := range args {
		if strings.EqualFold(a, "/R") {
			reverse = true
		} else {
			target = a
		}
	}
	path, name := sh.splitPath(target)
	data, err := sh.sess.FS.ReadFile(path, name)
	if err != nil {
		sh.println(fsMessage(err))
		return
	}
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), "\n")
	sort.Strings(lines)
	if reverse {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	for _, l := range lines {
		sh.println(l)
	}
}

// cmdTree draws the directory hierarchy.
func (sh *Shell) cmdTree(args []string) {
	start := sh.sess.DOS.Cwd()
	if len(args) > 0 {
		if path, ok := sh.resolveDirArg(args[0]); ok {
			start = path
		} else {
			sh.println("Path not found")
			return
		}
	}
	sh.println("A:\\" + strings.Join(start, "\\"))
	sh.tree(start, "")
}

func (sh *Shell) tree(path []string, indent string) {
	entries, err := sh.sess.FS.ListDir(path)
	if err != nil {
		return
	}
	var dirs []fat12.DirEntry
	for _, entry := range entries {
		if entry.IsDir() && entry.Name != "." && entry.Name != ".." {
			dirs = append(dirs, entry)
		}
	}
	for i, entry := range dirs {
		connector := "+---"
		next := indent + "|   "
		if i == len(dirs)-1 {
			connector = "\\---"
			next = indent + "    "
		}
		sh.println(indent + connector + entry.Name)
		sh.tree(append(append([]string{}, path...), entry.Name), next)
	}
}

// cmdMem reports the conventional memory picture.
func (sh *Shell) cmdMem(_ []string) {
	sh.println("Memory Type        Total")
	sh.println("----------------  ------")
	sh.println("Conventional        640K")
	sh.println("Extended (XMS)        0K")
	sh.println("----------------  ------")
}

func (sh *Shell) cmdCls(_ []string) {
	sh.sess.BIOS.Clear()
}

func (sh *Shell) cmdVol(_ []string) {
	sh.println(" Volume in drive A is " + sh.sess.FS.VolumeLabel())
	sh.println(fmt.Sprintf(" Volume Serial Number is %04X-%04X",
		sh.sess.FS.Serial()>>16, sh.sess.FS.Serial()&0xFFFF))
}

func (sh *Shell) cmdHelp(_ []string) {
	sh.println("ATTRIB   CD      CHDIR   CHKDSK  CLS     COPY    DEL     DIR")
	sh.println("ECHO     ERASE   FIND    FORMAT  HELP    MD      MEM     MKDIR")
	sh.println("MOVE     PATH    PROMPT  RD      REN     RENAME  RMDIR   SET")
	sh.println("SORT     TREE    TYPE    VER     VOL")
	sh.println("")
	sh.println("Run .COM, .EXE and .BAT programs by name; > >> redirect, | MORE pages.")
}

// runProgram searches the working directory and PATH for name.COM,
// name.EXE or name.BAT and starts it.
func (sh *Shell) runProgram(name string, args []string, line string) {
	upper := strings.ToUpper(name)
	candidates := []string{upper}
	if !strings.ContainsRune(upper, '.') {
		candidates = []string{upper + ".COM", upper + ".EXE", upper + ".BAT"}
	}

	dirs := [][]string{sh.sess.DOS.Cwd()}
	for _, p := range strings.Split(sh.env["PATH"], ";") {
		if p == "" {
			continue
		}
		if path, ok := sh.resolveDirArg(p); ok {
			dirs = append(dirs, path)
		}
	}

	for _, dir := range dirs {
		for _, candidate := range candidates {
			path, file := sh.splitPath(candidate)
			full := append(append([]string{}, dir...), path...)
			entry, err := sh.sess.FS.Stat(full, file)
			if err != nil || entry.IsDir() {
				continue
			}
			if strings.HasSuffix(file, ".BAT") {
				sh.startBatch(full, file, append([]string{file}, args...))
				return
			}
			image, err := sh.sess.FS.ReadFile(full, file)
			if err != nil {
				sh.println(fsMessage(err))
				return
			}
			tail := ""
			if idx := strings.IndexAny(line, " \t"); idx >= 0 {
				tail = " " + strings.TrimSpace(line[idx:])
			}
			if err := sh.sess.Load(image, file, tail, sh.env); err != nil {
				sh.println("Cannot load " + file)
				return
			}
			sh.mode = modeProgram
			return
		}
	}
	sh.println("Bad command or file name")
}
