// host_text.go - Text reception onto the Sub-screen console

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

// Text encoding 0: up to 508 raw bytes per reply, shown on the Sub
// Screen, which switches to its text console the moment text arrives.

package main

// receiveText handles one text reply.
func (h *Host) receiveText(header1 uint32, encoding uint8) {
	if encoding != 0 {
		h.fatalLinkError("cartridge sent text using unsupported encoding %d", encoding)
	}

	_, _, byteCount, _ := unpackHeader1(header1)
	bytes := int(byteCount)
	if bytes > 508 {
		h.fatalLinkError("text encoding 0 data is larger than 508 bytes\n\n%d extra uncompressed bytes", bytes-508)
	}

	h.setSubText()
	h.cardReadData((bytes+3)&^3, h.scratch[:], false)
	h.cardIgnoreReply()

	h.console.Write(h.scratch[:bytes])
}
