// video_frontend.go - Frontend interface, keypad source and pixel conversion

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
video_frontend.go - Frontends

A VideoFrontend shows the two screens and, when it owns a window, is
usually also the KeypadSource the machine polls for button and touch
state. The null frontend keeps both screens in memory for tests and
headless runs.

The wire pixel format is BGR555 with the high bit set; frontends that
render convert to RGBA on the way out.
*/

package main

import "sync"

// KeypadSource is anything that can report the current button and
// touch state: a window frontend, raw-mode stdin, or a test script.
type KeypadSource interface {
	InputState() InputState
}

// VideoFrontend shows the host's screens.
type VideoFrontend interface {
	// Run blocks until the frontend is closed by the user or Stop.
	Run() error
	Stop()
}

// bgr555ToRGBA expands one wire pixel into four RGBA bytes.
func bgr555ToRGBA(px uint16, dst []byte) {
	b := uint8(px>>10) & 31
	g := uint8(px>>5) & 31
	r := uint8(px) & 31
	dst[0] = r<<3 | r>>2
	dst[1] = g<<3 | g>>2
	dst[2] = b<<3 | b>>2
	dst[3] = 0xFF
}

// frameToRGBA converts a whole screen.
func frameToRGBA(src []uint16, dst []byte) {
	for i, px := range src {
		bgr555ToRGBA(px, dst[i*4:])
	}
}

// FixedKeypad is a script-controlled keypad for tests and headless
// runs without a terminal.
type FixedKeypad struct {
	mu    sync.Mutex
	state InputState
}

func NewFixedKeypad() *FixedKeypad { return &FixedKeypad{} }

func (k *FixedKeypad) InputState() InputState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

// Set replaces the reported state.
func (k *FixedKeypad) Set(state InputState) {
	k.mu.Lock()
	k.state = state
	k.mu.Unlock()
}

// NullFrontend renders nothing; the screens stay reachable through the
// host's frame accessors.
type NullFrontend struct {
	stop chan struct{}
	once sync.Once
}

func NewNullFrontend() *NullFrontend {
	return &NullFrontend{stop: make(chan struct{})}
}

func (n *NullFrontend) Run() error {
	<-n.stop
	return nil
}

func (n *NullFrontend) Stop() {
	n.once.Do(func() { close(n.stop) })
}
