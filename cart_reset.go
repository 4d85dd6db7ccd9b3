// cart_reset.go - Cartridge reset vector

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

// The reset vector runs once the reset-request packet has fully left
// the wire. The firmware returns to its power-on state and hands
// control to whatever the machine installed as the reset handler -
// normally the loader that picks up the next program from the host.

package main

// reset takes the cartridge's reset vector. Caller must hold the hub.
func (c *Cart) reset() {
	handler := c.onReset
	c.initVariables()
	if handler != nil {
		handler()
	}
}
