/*
   dos86 - Terminal front end.

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

// Package console renders the 80x25 text framebuffer in the terminal and
// pumps host key events into the BIOS keyboard buffer. One tea tick is
// one scheduler tick of the session.
package console

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dos86/emu/bios"
	"dos86/emu/session"
	"dos86/shell"
)

// tickMsg paces the scheduler; the interval approximates the session's
// per-tick wall budget.
type tickMsg time.Time

const tickInterval = 16 * time.Millisecond

// CGA color order mapped to ANSI palette indices.
var cgaColors = [16]string{
	"0", "4", "2", "6", "1", "5", "3", "7",
	"8", "12", "10", "14", "9", "13", "11", "15",
}

type model struct {
	sess  *session.Session
	shell *shell.Shell
	done  bool
}

// New builds the tea model for a session with an interactive shell.
func New(sess *session.Session) tea.Model {
	return model{sess: sess, shell: shell.New(sess)}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick()
}

// Update feeds keys to the BIOS buffer and steps the scheduler.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlBackslash {
			m.done = true
			return m, tea.Quit
		}
		for _, key := range translateKey(msg) {
			m.sess.BIOS.PushKey(key)
		}
		return m, nil
	case tickMsg:
		m.sess.Tick()
		m.shell.Poll()
		return m, tick()
	}
	return m, nil
}

// translateKey converts a tea key event to BIOS key words: scan code in
// the high byte, ASCII in the low byte.
func translateKey(msg tea.KeyMsg) []uint16 {
	switch msg.Type {
	case tea.KeyEnter:
		return []uint16{0x1C0D}
	case tea.KeyBackspace:
		return []uint16{0x0E08}
	case tea.KeyTab:
		return []uint16{0x0F09}
	case tea.KeyEsc:
		return []uint16{0x011B}
	case tea.KeySpace:
		return []uint16{0x3920}
	case tea.KeyUp:
		return []uint16{0x4800}
	case tea.KeyDown:
		return []uint16{0x5000}
	case tea.KeyLeft:
		return []uint16{0x4B00}
	case tea.KeyRight:
		return []uint16{0x4D00}
	case tea.KeyHome:
		return []uint16{0x4700}
	case tea.KeyEnd:
		return []uint16{0x4F00}
	case tea.KeyPgUp:
		return []uint16{0x4900}
	case tea.KeyPgDown:
		return []uint16{0x5100}
	case tea.KeyDelete:
		return []uint16{0x5300}
	case tea.KeyCtrlC:
		return []uint16{0x2E03}
	case tea.KeyRunes:
		var keys []uint16
		for _, r := range msg.Runes {
			if r < 128 {
				keys = append(keys, uint16(r)&0xFF)
			}
		}
		return keys
	}
	return nil
}

// View draws the framebuffer as styled terminal rows with the cursor
// cell inverted.
func (m model) View() string {
	if m.done {
		return ""
	}
	mem := m.sess.Mem
	curRow, curCol := m.sess.BIOS.Cursor()

	rows := make([]string, 0, bios.Rows+1)
	for row := 0; row < bios.Rows; row++ {
		var sb strings.Builder
		col := 0
		for col < bios.Columns {
			addr := uint32(bios.TextBase + (row*bios.Columns+col)*2)
			attr := mem.GetByte(addr + 1)

			// Group a run of cells sharing one attribute into a single
			// styled span.
			var span strings.Builder
			start := col
			for col < bios.Columns {
				a := uint32(bios.TextBase + (row*bios.Columns+col)*2)
				if mem.GetByte(a+1) != attr || (row == curRow && col == curCol) {
					break
				}
				span.WriteByte(printable(mem.GetByte(a)))
				col++
			}
			if col == start && row == curRow && col == curCol {
				ch := printable(mem.GetByte(addr))
				sb.WriteString(cellStyle(attr).Reverse(true).Render(string(ch)))
				col++
				continue
			}
			sb.WriteString(cellStyle(attr).Render(span.String()))
		}
		rows = append(rows, sb.String())
	}
	rows = append(rows, lipgloss.NewStyle().Faint(true).Render("ctrl+\\ quits"))
	return strings.Join(rows, "\n")
}

func printable(ch uint8) uint8 {
	if ch < 0x20 || ch > 0x7E {
		if ch == 0 {
			return ' '
		}
		return '.'
	}
	return ch
}

func cellStyle(attr uint8) lipgloss.Style {
	fg := cgaColors[attr&0x0F]
	bg := cgaColors[attr>>4&0x07]
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg))
}

// Run starts the terminal UI and blocks until it quits.
func Run(sess *session.Session) error {
	_, err := tea.NewProgram(New(sess), tea.WithAltScreen()).Run()
	return err
}
