// cart_text.go - Text channel from cartridge standard output to the host console

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

// Text encoding 0 carries up to 508 raw bytes per reply, written to the
// host's Sub-screen console. One slot holds the chunk in flight; the
// producer blocks while the slot is full and refills it once the
// scheduler has flushed it. The cartridge's standard output is an
// io.Writer over this channel.

package main

import "fmt"

// textDequeue answers one SEND_QUEUE with the queued text chunk.
// Caller must hold the hub.
func (c *Cart) textDequeue() {
	putWord(c.temp[0:], packHeader1(DATA_KIND_TEXT, 0, uint16(c.txtSize), false))
	copy(c.temp[4:], c.txtData[:c.txtSize])
	c.sendReply(c.temp[:512])
	c.txtSize = 0
}

// textEnqueue queues text for the host, blocking while the slot is
// full.
func (c *Cart) textEnqueue(text []byte) {
	c.irq.Lock()
	defer c.irq.Unlock()

	for len(text) > 0 {
		c.irq.AwaitCond(func() bool { return c.txtSize == 0 })

		entry := len(text)
		if entry > len(c.txtData) {
			entry = len(c.txtData)
		}
		copy(c.txtData[:], text[:entry])
		c.txtSize = entry
		text = text[entry:]

		c.addPendingSend(PENDING_SEND_TEXT)
	}
}

// cartStdout is the cartridge's standard output stream.
type cartStdout struct{ cart *Cart }

func (w cartStdout) Write(p []byte) (int, error) {
	w.cart.textEnqueue(p)
	return len(p), nil
}

// Stdout returns the cartridge's standard output, routed over the link
// to the host console.
func (c *Cart) Stdout() cartStdout { return cartStdout{c} }

// Printf formats to the cartridge's standard output.
func (c *Cart) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}
