//go:build headless

// video_backend_headless.go - Headless stand-in for the window frontend

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

package main

// EbitenFrontend headless: no window, a scriptable keypad, screens
// reachable through the host's frame accessors.
type EbitenFrontend struct {
	*NullFrontend
	keypad *FixedKeypad
}

func NewEbitenFrontend(host *Host, scale int, title string) *EbitenFrontend {
	return &EbitenFrontend{
		NullFrontend: NewNullFrontend(),
		keypad:       NewFixedKeypad(),
	}
}

func (e *EbitenFrontend) InputState() InputState {
	return e.keypad.InputState()
}

func bindFrontendHost(e *EbitenFrontend, h *Host) {}
