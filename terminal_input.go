// terminal_input.go - Raw-mode stdin as a keypad source for headless runs

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

/*
terminal_input.go - Terminal Keypad

A keypad source for running without a window: stdin goes to raw mode so
keystrokes arrive unbuffered, and each mapped key holds its button down
for a short decay interval, since a terminal delivers key repeats
rather than press/release pairs. WASD is the pad, z/x/a/s the face
buttons, enter start, backspace select.
*/

package main

import (
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// terminalHold is how long one keystroke keeps its button pressed.
const terminalHold = 150 * time.Millisecond

var terminalKeymap = map[byte]uint16{
	'z':  DS_BUTTON_A,
	'x':  DS_BUTTON_B,
	'a':  DS_BUTTON_Y,
	's':  DS_BUTTON_X,
	'i':  DS_BUTTON_UP,
	'k':  DS_BUTTON_DOWN,
	'j':  DS_BUTTON_LEFT,
	'l':  DS_BUTTON_RIGHT,
	'q':  DS_BUTTON_L,
	'w':  DS_BUTTON_R,
	'\r': DS_BUTTON_START,
	0x7F: DS_BUTTON_SELECT,
}

type TerminalKeypad struct {
	mu       sync.Mutex
	deadline map[uint16]time.Time

	fd       int
	oldState *term.State
	stopCh   chan struct{}
	done     chan struct{}
}

func NewTerminalKeypad() *TerminalKeypad {
	return &TerminalKeypad{
		deadline: make(map[uint16]time.Time),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start puts stdin into raw mode and begins reading. Call Stop to
// restore the terminal.
func (k *TerminalKeypad) Start() error {
	k.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(k.fd)
	if err != nil {
		close(k.done)
		return err
	}
	k.oldState = oldState

	go k.readLoop()
	return nil
}

func (k *TerminalKeypad) readLoop() {
	defer close(k.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-k.stopCh:
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if mask, ok := terminalKeymap[buf[0]]; ok {
			k.mu.Lock()
			k.deadline[mask] = time.Now().Add(terminalHold)
			k.mu.Unlock()
		}
	}
}

// Stop restores the terminal state.
func (k *TerminalKeypad) Stop() {
	close(k.stopCh)
	if k.oldState != nil {
		term.Restore(k.fd, k.oldState)
	}
}

// InputState reports every button whose hold interval has not expired.
func (k *TerminalKeypad) InputState() InputState {
	now := time.Now()
	var buttons uint16

	k.mu.Lock()
	for mask, deadline := range k.deadline {
		if now.Before(deadline) {
			buttons |= mask
		} else {
			delete(k.deadline, mask)
		}
	}
	k.mu.Unlock()

	return InputState{Buttons: buttons}
}
