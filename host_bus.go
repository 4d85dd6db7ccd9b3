// host_bus.go - Raw bus access, reply draining and the dead-man timer

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
host_bus.go - Host Bus Layer

sendCommand is the whole transaction discipline in one place: reset the
bridge FIFO, write the command, poll FIFO_STATUS until the declared
reply length is queued, then issue the drain command. It is a
programming error not to then read exactly that many bytes - use
cardIgnoreReply for the remainder if the data is unwanted - because
anything less desynchronises the FIFO for every later command.

Every wait loop runs the dead-man check: if the VBlank counter advances
more than VBLANK_LAG_MAX past the count at which the command started,
the cartridge is declared gone and a fatal link error is raised with
the last command byte and the FIFO state.
*/

package main

import "fmt"

// VBLANK_LAG_MAX is how many VBlanks a command may stall before the
// link is declared dead (5 frames, roughly 83 ms).
const VBLANK_LAG_MAX = 5

// LinkError is a fatal protocol failure. It never reaches user code:
// the command loop catches it, renders it and halts the link.
type LinkError struct {
	msg string
}

func (e *LinkError) Error() string { return e.msg }

// fatalLinkError aborts the command loop with a diagnostic.
func (h *Host) fatalLinkError(format string, args ...any) {
	panic(&LinkError{msg: fmt.Sprintf(format, args...)})
}

// lagCheck runs inside every bus wait. fifoLen and pendingRead are the
// bridge's state snapshot for the diagnostic.
func (h *Host) lagCheck(fifoLen, pendingRead int) {
	if h.vblankCount.Load()-h.cmdVblank > VBLANK_LAG_MAX {
		h.fatalLinkError("cartridge did not reply to a command for %d frames\n\n"+
			"command %02X    expected %d bytes\n"+
			"fifo holds %d bytes, %d undrained\n\n%s",
			VBLANK_LAG_MAX, h.cmdByte, h.cmdReplyLen, fifoLen, pendingRead,
			h.busyText(pendingRead))
	}
}

func (h *Host) busyText(pendingRead int) string {
	if pendingRead > 0 {
		return "the card bus is busy"
	}
	return "the card bus is not busy"
}

// rawSendCommand writes one command frame with the declared reply
// block size. Only the lengths the bus controller can encode are legal.
func (h *Host) rawSendCommand(cmd CardCommand, replyLen int) {
	switch replyLen {
	case 0, 4, 512, 1024:
	default:
		h.fatalLinkError("attempting to await a reply of an invalid length\n\ninvalid length: %d", replyLen)
	}
	h.bridge.IssueCommand(cmd, replyLen)
}

// cardFinishReply waits until the bus is no longer busy after a reply.
func (h *Host) cardFinishReply() {
	for h.bridge.Busy() {
		h.bridge.AwaitChangeLag(h.lagCheck)
	}
}

// cardReadWord returns the next 32-bit word of the current reply.
// replyEnds waits out the bus afterwards as a convenience for reading
// the final word.
func (h *Host) cardReadWord(replyEnds bool) uint32 {
	w := h.bridge.ReadWordWait(h.lagCheck)
	if replyEnds {
		h.cardFinishReply()
	}
	return w
}

// cardReadData reads replyLen bytes of the current reply into dst.
// replyLen must be a multiple of 4.
func (h *Host) cardReadData(replyLen int, dst []byte, replyEnds bool) {
	for i := 0; i < replyLen/4; i++ {
		w := h.bridge.ReadWordWait(h.lagCheck)
		dst[i*4+0] = byte(w)
		dst[i*4+1] = byte(w >> 8)
		dst[i*4+2] = byte(w >> 16)
		dst[i*4+3] = byte(w >> 24)
	}
	if replyEnds {
		h.cardFinishReply()
	}
}

// cardIgnoreReply reads the remainder of the current reply into
// nothing, advancing the protocol properly.
func (h *Host) cardIgnoreReply() {
	h.bridge.IgnoreRest(h.lagCheck)
}

// waitForFIFO polls FIFO_STATUS until the bridge holds length bytes.
func (h *Host) waitForFIFO(length int) {
	for {
		h.rawSendCommand(commandByte(FPGA_CMD_FIFO_STATUS), 4)
		status := h.cardReadWord(true)
		if status&FIFO_STATUS_READ_FULL != 0 ||
			int((status>>FIFO_STATUS_LEN_BIT)&FIFO_STATUS_LEN_MASK) >= length {
			return
		}
		h.bridge.AwaitChangeLag(h.lagCheck)
	}
}

// sendCommand runs one full transaction setup: FIFO reset, command
// write, wait for the declared reply length, drain command. The caller
// must then read exactly replyLen bytes.
func (h *Host) sendCommand(cmd CardCommand, replyLen int) {
	h.cmdByte = cmd[0]
	h.cmdReplyLen = replyLen
	h.cmdVblank = h.vblankCount.Load()

	h.rawSendCommand(commandByte(FPGA_CMD_FIFO_RESET), 4)
	h.cardIgnoreReply()

	h.rawSendCommand(cmd, 0)
	h.cardFinishReply()

	if replyLen > 0 {
		h.waitForFIFO(replyLen)
	}
	h.rawSendCommand(commandByte(FPGA_CMD_FIFO_READ), replyLen)
}

// sendCommandByte sends a bare command tag with 7 zero bytes.
func (h *Host) sendCommandByte(tag uint8, replyLen int) {
	h.sendCommand(commandByte(tag), replyLen)
}
