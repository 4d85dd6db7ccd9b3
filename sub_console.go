// sub_console.go - The host's Sub-screen text console

/*
███╗   ██╗██╗████████╗██████╗  ██████╗ ██╗     ██╗███╗   ██╗██╗  ██╗
████╗  ██║██║╚══██╔══╝██╔══██╗██╔═══██╗██║     ██║████╗  ██║██║ ██╔╝
██╔██╗ ██║██║   ██║   ██████╔╝██║   ██║██║     ██║██╔██╗ ██║█████╔╝
██║╚██╗██║██║   ██║   ██╔══██╗██║   ██║██║     ██║██║╚██╗██║██╔═██╗
██║ ╚████║██║   ██║   ██║  ██║╚██████╔╝███████╗██║██║ ╚████║██║  ██╗
╚═╝  ╚═══╝╚═╝   ╚═╝   ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝

(c) 2025 - 2026 The NitroLink Authors
https://github.com/nitrobridge/nitrolink

License: GPLv3 or later
*/

// A 32x24 character console, the size of the screen at an 8x8 font.
// Cartridge text and fatal diagnostics land here; frontends rasterise
// the line buffer, and an optional echo writer mirrors everything to
// the terminal.

package main

import (
	"io"
	"sync"
)

const (
	CONSOLE_COLS = SCREEN_WIDTH / 8
	CONSOLE_ROWS = SCREEN_HEIGHT / 8
)

type SubConsole struct {
	mu    sync.Mutex
	lines []string
	cur   []byte
	echo  io.Writer
}

func NewSubConsole() *SubConsole {
	return &SubConsole{lines: make([]string, 0, CONSOLE_ROWS)}
}

// SetEcho mirrors all console output to w.
func (t *SubConsole) SetEcho(w io.Writer) {
	t.mu.Lock()
	t.echo = w
	t.mu.Unlock()
}

// Write appends bytes to the console, wrapping at the column limit and
// scrolling past the row limit.
func (t *SubConsole) Write(p []byte) (int, error) {
	t.mu.Lock()
	for _, b := range p {
		switch b {
		case '\n':
			t.pushLine()
		case '\r':
		case '\t':
			for len(t.cur)%8 != 0 {
				t.cur = append(t.cur, ' ')
			}
		default:
			t.cur = append(t.cur, b)
			if len(t.cur) >= CONSOLE_COLS {
				t.pushLine()
			}
		}
	}
	echo := t.echo
	t.mu.Unlock()

	if echo != nil {
		echo.Write(p)
	}
	return len(p), nil
}

func (t *SubConsole) pushLine() {
	t.lines = append(t.lines, string(t.cur))
	t.cur = t.cur[:0]
	if len(t.lines) > CONSOLE_ROWS {
		t.lines = append(t.lines[:0], t.lines[len(t.lines)-CONSOLE_ROWS:]...)
	}
}

// Clear empties the console.
func (t *SubConsole) Clear() {
	t.mu.Lock()
	t.lines = t.lines[:0]
	t.cur = t.cur[:0]
	t.mu.Unlock()
}

// Lines returns a snapshot of the visible lines, the pending partial
// line included.
func (t *SubConsole) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines), len(t.lines)+1)
	copy(out, t.lines)
	if len(t.cur) > 0 {
		out = append(out, string(t.cur))
	}
	return out
}

// Contents returns the whole console as one string.
func (t *SubConsole) Contents() string {
	var s string
	for _, line := range t.Lines() {
		s += line + "\n"
	}
	return s
}
