// host_video_test.go - Host-side video validation and flip tests

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

import (
	"strings"
	"testing"
)

// stageVideoFrame plants one 512-byte video reply in the bridge and
// arms the host's data stream, returning the first header word the way
// processSendQueue would have read it.
func stageVideoFrame(t *testing.T, h *Host, header2 uint32, payload []byte, byteCount uint16) uint32 {
	t.Helper()
	header1 := packHeader1(DATA_KIND_VIDEO, 0, byteCount, true)

	frame := make([]byte, 512)
	putWord(frame[0:], header1)
	putWord(frame[4:], header2)
	copy(frame[8:], payload)

	h.bridge.StartReply()
	h.bridge.WriteReply(frame)
	h.bridge.IssueCommand(commandByte(FPGA_CMD_FIFO_READ), 512)
	return h.bridge.ReadWordWait(noLag)
}

// expectFatal runs f and returns the LinkError message it panicked
// with.
func expectFatal(t *testing.T, f func()) string {
	t.Helper()
	var msg string
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected a fatal link error")
			}
			le, ok := r.(*LinkError)
			if !ok {
				panic(r)
			}
			msg = le.msg
		}()
		f()
	}()
	return msg
}

// TestReceiveVideoValid writes one packet into VRAM and checks the
// pixels and the scheduled flip.
func TestReceiveVideoValid(t *testing.T) {
	h := NewHost(NewFPGABridge(), nil)

	payload := make([]byte, 8)
	for i, px := range []uint16{0x8001, 0x8002, 0x8003, 0x8004} {
		payload[i*2] = byte(px)
		payload[i*2+1] = byte(px >> 8)
	}
	header1 := stageVideoFrame(t, h, packHeader2(100, ENGINE_MAIN, 1, true), payload, 8)
	h.receiveVideo(header1, 0)

	for i, want := range []uint16{0x8001, 0x8002, 0x8003, 0x8004} {
		if got := h.vram[1][100+i]; got != want {
			t.Fatalf("vram pixel %d: got %04X, want %04X", 100+i, got, want)
		}
	}

	h.irq.Lock()
	flips := len(h.pendingFlips)
	h.irq.Unlock()
	if flips != 1 {
		t.Fatalf("end-of-frame scheduled %d flips, want 1", flips)
	}

	// The VBlank applies the flip and queues the displayed ack.
	h.irq.Lock()
	h.applyPendingFlip()
	displayed := h.vidDisplayed
	pending := h.pendingSends
	h.irq.Unlock()
	if displayed != 1 {
		t.Fatalf("displayed page %d after flip, want 1", displayed)
	}
	if pending&HOST_SEND_VIDEO_DISPLAYED == 0 {
		t.Fatal("flip did not queue the displayed ack")
	}
}

// TestReceiveVideoValidation covers every fatal framing check.
func TestReceiveVideoValidation(t *testing.T) {
	tests := []struct {
		name      string
		header2   uint32
		byteCount uint16
		want      string
	}{
		{"off_screen_offset", packHeader2(SCREEN_PIXELS, ENGINE_MAIN, 0, false), 8,
			"exceeds screen boundaries"},
		{"odd_offset", packHeader2(101, ENGINE_MAIN, 0, false), 8,
			"does not start on an even pixel"},
		{"sub_multi_buffer", packHeader2(0, ENGINE_SUB, 1, false), 8,
			"multiple buffering on the Sub Screen"},
		{"main_quad_buffer", packHeader2(0, ENGINE_MAIN, 3, false), 8,
			"quadruple buffering on the Main Screen"},
		{"odd_byte_count", packHeader2(0, ENGINE_MAIN, 0, false), 7,
			"not an even number of bytes"},
		{"overflow", packHeader2(SCREEN_PIXELS-2, ENGINE_MAIN, 0, false), 8,
			"not fully inside the screen"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHost(NewFPGABridge(), nil)
			header1 := stageVideoFrame(t, h, tc.header2, make([]byte, 16), tc.byteCount)
			msg := expectFatal(t, func() { h.receiveVideo(header1, 0) })
			if !strings.Contains(msg, tc.want) {
				t.Fatalf("fatal message %q does not mention %q", msg, tc.want)
			}
		})
	}
}

// TestAddPendingFlipDedup checks that two frames for the same page cost
// one flip and that the queue is bounded.
func TestAddPendingFlipDedup(t *testing.T) {
	h := NewHost(NewFPGABridge(), nil)

	h.irq.Lock()
	h.addPendingFlip(1)
	h.addPendingFlip(1)
	if len(h.pendingFlips) != 1 {
		t.Fatalf("duplicate flip queued: %v", h.pendingFlips)
	}
	h.addPendingFlip(2)
	h.addPendingFlip(0)
	h.addPendingFlip(1)
	if len(h.pendingFlips) != 3 {
		t.Fatalf("flip queue length %d, want 3 (bounded)", len(h.pendingFlips))
	}
	h.irq.Unlock()
}

// TestReceiveTextTooLarge checks the oversized-text fatal.
func TestReceiveTextTooLarge(t *testing.T) {
	h := NewHost(NewFPGABridge(), nil)
	header1 := packHeader1(DATA_KIND_TEXT, 0, 600, true)
	msg := expectFatal(t, func() { h.receiveText(header1, 0) })
	if !strings.Contains(msg, "larger than 508 bytes") {
		t.Fatalf("unexpected fatal message %q", msg)
	}
}
