// fpga_bridge_test.go - Bridge FIFO, status word and video fixup tests

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

import "testing"

func noLag(int, int) {}

// statusWord issues FIFO_STATUS and returns the reply word.
func statusWord(b *FPGABridge) uint32 {
	b.IssueCommand(commandByte(FPGA_CMD_FIFO_STATUS), 4)
	return b.ReadWordWait(noLag)
}

// TestFIFOStatusLength checks the length field and the full flag of
// the status word.
func TestFIFOStatusLength(t *testing.T) {
	b := NewFPGABridge()

	if got := statusWord(b); got != 0 {
		t.Fatalf("empty FIFO status %08X, want 0", got)
	}

	b.WriteHalf(0x1234)
	b.WriteHalf(0x5678)
	got := statusWord(b)
	if length := got >> FIFO_STATUS_LEN_BIT & FIFO_STATUS_LEN_MASK; length != 4 {
		t.Fatalf("length field %d, want 4", length)
	}

	b.StartReply()
	buf := make([]byte, FIFO_CAPACITY)
	b.WriteReply(buf)
	if got := statusWord(b); got&FIFO_STATUS_READ_FULL == 0 {
		t.Fatalf("full flag not set at capacity: %08X", got)
	}
}

// TestFIFOReadDrains checks that FIFO_READ hands over exactly the
// declared byte count in write order.
func TestFIFOReadDrains(t *testing.T) {
	b := NewFPGABridge()
	b.StartReply()
	b.WriteHalf(0xBEEF)
	b.WriteHalf(0xDEAD)

	b.IssueCommand(commandByte(FPGA_CMD_FIFO_READ), 4)
	if got := b.ReadWordWait(noLag); got != 0xDEADBEEF {
		t.Fatalf("drained %08X, want DEADBEEF", got)
	}
	if b.Busy() {
		t.Fatal("bridge still busy after full drain")
	}
}

// TestStartReplyClearsFIFO checks that a new reply discards any
// leftovers.
func TestStartReplyClearsFIFO(t *testing.T) {
	b := NewFPGABridge()
	b.WriteHalf(0xAAAA)
	b.StartReply()
	if got := statusWord(b); got>>FIFO_STATUS_LEN_BIT&FIFO_STATUS_LEN_MASK != 0 {
		t.Fatalf("FIFO not cleared: status %08X", got)
	}
}

// TestVideoFixup verifies the wire fixup: the high bit is forced on,
// and the RGB swap exchanges the red and blue components.
func TestVideoFixup(t *testing.T) {
	tests := []struct {
		name string
		ctrl uint16
		in   uint16
		want uint16
	}{
		{"passthrough", FPGA_CTR_FPGA_MODE, 0x7C1F, 0x7C1F},
		{"high_bit", FPGA_CTR_FPGA_MODE | FPGA_CTR_FIX_VIDEO_EN, 0x7C1F, 0xFC1F},
		{"rgb_swap", FPGA_CTR_FPGA_MODE | FPGA_CTR_FIX_VIDEO_EN | FPGA_CTR_FIX_VIDEO_RGB_EN,
			0x001F, 0xFC00},
		{"green_untouched", FPGA_CTR_FPGA_MODE | FPGA_CTR_FIX_VIDEO_EN | FPGA_CTR_FIX_VIDEO_RGB_EN,
			0x03E0, 0x83E0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewFPGABridge()
			b.StartReply()
			b.SetControl(tc.ctrl)
			b.WriteReply([]byte{byte(tc.in), byte(tc.in >> 8), 0, 0})

			b.IssueCommand(commandByte(FPGA_CMD_FIFO_READ), 4)
			w := b.ReadWordWait(noLag)
			if got := uint16(w); got != tc.want {
				t.Fatalf("fixup of %04X: got %04X, want %04X", tc.in, got, tc.want)
			}
		})
	}
}

// TestCommandForwarding checks that protocol commands reach the
// cartridge channel while FPGA-internal bytes do not.
func TestCommandForwarding(t *testing.T) {
	b := NewFPGABridge()

	b.IssueCommand(commandByte(FPGA_CMD_FIFO_STATUS), 4)
	b.IssueCommand(commandByte(FPGA_CMD_FIFO_RESET), 4)
	select {
	case cmd := <-b.Commands():
		t.Fatalf("FPGA-internal command forwarded: %02X", cmd[0])
	default:
	}

	b.IssueCommand(commandByte(CMD_VBLANK), 0)
	select {
	case cmd := <-b.Commands():
		if cmd[0] != CMD_VBLANK {
			t.Fatalf("forwarded %02X, want VBLANK", cmd[0])
		}
	default:
		t.Fatal("protocol command not forwarded")
	}
}
