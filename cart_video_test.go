// cart_video_test.go - Cartridge video transfer and back-pressure tests

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
	"testing"
	"time"
)

func replyHeader(reply []byte) (uint32, uint32) {
	h1 := uint32(reply[0]) | uint32(reply[1])<<8 | uint32(reply[2])<<16 | uint32(reply[3])<<24
	h2 := uint32(reply[4]) | uint32(reply[5])<<8 | uint32(reply[6])<<16 | uint32(reply[7])<<24
	return h1, h2
}

// TestFullFramePacketCount flips one full Main page and counts the
// encoding-0 packets on the wire: 195 of 252 pixels, one of 12, the
// end-of-frame flag only on the last, then the END frame.
func TestFullFramePacketCount(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)

	screen := c.GetMainScreen()
	for i := range screen {
		screen[i] = uint16(i)
	}
	if err := c.FlipMainScreen(); err != nil {
		t.Fatalf("FlipMainScreen: %v", err)
	}

	packets := 0
	sawEndFrame := false
	for {
		if packets > 200 {
			t.Fatal("frame drain did not terminate")
		}
		cartCommand(c, commandByte(CMD_SEND_QUEUE))
		reply := drainReply(t, b, 512)
		h1, h2 := replyHeader(reply)
		kind, encoding, byteCount, _ := unpackHeader1(h1)

		if kind == DATA_KIND_NONE {
			break
		}
		if kind != DATA_KIND_VIDEO || encoding != 0 {
			t.Fatalf("unexpected frame kind %d encoding %d", kind, encoding)
		}

		offset, engine, buffer, endFrame := unpackHeader2(h2)
		if engine != ENGINE_MAIN || buffer != 0 {
			t.Fatalf("packet addressed to engine %d buffer %d", engine, buffer)
		}
		if int(offset) != packets*252 {
			t.Fatalf("packet %d starts at pixel %d, want %d", packets, offset, packets*252)
		}

		if endFrame {
			sawEndFrame = true
			if byteCount != 24 {
				t.Fatalf("final packet carries %d bytes, want 24", byteCount)
			}
		} else if byteCount != 504 {
			t.Fatalf("packet %d carries %d bytes, want 504", packets, byteCount)
		}

		// Spot-check the wire fixup: pixels leave with the high bit set.
		px := uint16(reply[8]) | uint16(reply[9])<<8
		if want := uint16(packets*252) | 0x8000; px != want {
			t.Fatalf("packet %d first pixel %04X, want %04X", packets, px, want)
		}

		packets++
		if endFrame && packets != 196 {
			t.Fatalf("end of frame after %d packets, want 196", packets)
		}
	}

	if !sawEndFrame {
		t.Fatal("no end-of-frame packet seen")
	}
	if packets != 196 {
		t.Fatalf("frame took %d packets, want 196", packets)
	}
}

// TestFlipAdvancesCurrent checks that a flip hands out the next page
// and a plain update does not.
func TestFlipAdvancesCurrent(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)

	first := c.GetMainScreen()
	if err := c.FlipMainScreen(); err != nil {
		t.Fatalf("FlipMainScreen: %v", err)
	}
	second := c.GetMainScreen()
	if &first[0] == &second[0] {
		t.Fatal("flip did not advance the current page")
	}
}

// TestFlipBackpressure checks rule 2: a second consecutive flip into a
// page the host still displays must block until VIDEO_DISPLAYED moves
// on.
func TestFlipBackpressure(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)

	drainQueue := func() {
		for i := 0; i < 512; i++ {
			cartCommand(c, commandByte(CMD_SEND_QUEUE))
			reply := drainReply(t, b, 512)
			h1, _ := replyHeader(reply)
			if kind, _, _, _ := unpackHeader1(h1); kind == DATA_KIND_NONE {
				return
			}
		}
		t.Fatal("queue drain did not terminate")
	}

	// Flip page 0, drain it fully; the host still displays page 0.
	if err := c.FlipMainScreen(); err != nil {
		t.Fatalf("first flip: %v", err)
	}
	drainQueue()

	// Writing and flipping pages 1 and 2 is fine; flipping back into
	// page 0 while it is displayed must block.
	if err := c.FlipMainScreen(); err != nil {
		t.Fatalf("second flip: %v", err)
	}
	drainQueue()
	if err := c.FlipMainScreen(); err != nil {
		t.Fatalf("third flip: %v", err)
	}
	drainQueue()

	done := make(chan error, 1)
	go func() { done <- c.FlipMainScreen() }()

	select {
	case <-done:
		t.Fatal("flip into the displayed page did not block")
	case <-time.After(50 * time.Millisecond):
	}

	// The host flips to page 0's successor; the blocked flip resumes.
	cartCommand(c, makeVideoDisplayedCommand(1))
	drainReply(t, b, 4)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("resumed flip failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("flip did not resume after the displayed ack")
	}
}

// TestVideoEnqueueValidation covers the argument checks.
func TestVideoEnqueueValidation(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)

	tests := []struct {
		name string
		call func() error
	}{
		{"bad_engine", func() error { return c.UpdateScreen(Engine(9)) }},
		{"sub_flip", func() error { return c.videoEnqueue(ENGINE_SUB, 0, SCREEN_HEIGHT, true) }},
		{"start_past_end", func() error { return c.UpdateScreenPart(ENGINE_MAIN, 100, 50) }},
		{"off_screen", func() error { return c.UpdateScreenPart(ENGINE_MAIN, 0, SCREEN_HEIGHT+1) }},
		{"backlight", func() error { return c.SetScreenBacklights(Screen(7)) }},
		{"pixel_format", func() error { return c.SetPixelFormat(ENGINE_MAIN, PixelFormat(9)) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != ErrInval {
				t.Fatalf("got %v, want ErrInval", err)
			}
		})
	}

	if err := c.UpdateScreenPart(ENGINE_MAIN, 10, 10); err != nil {
		t.Fatalf("empty range must be a no-op, got %v", err)
	}
}

// TestPartialUpdate sends three rows of the Sub Screen and checks the
// packet addressing.
func TestPartialUpdate(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)

	if err := c.UpdateScreenPart(ENGINE_SUB, 10, 13); err != nil {
		t.Fatalf("UpdateScreenPart: %v", err)
	}

	pixels := 0
	for packets := 0; ; packets++ {
		if packets > 8 {
			t.Fatal("partial update did not terminate")
		}
		cartCommand(c, commandByte(CMD_SEND_QUEUE))
		reply := drainReply(t, b, 512)
		h1, h2 := replyHeader(reply)
		kind, _, byteCount, _ := unpackHeader1(h1)
		if kind == DATA_KIND_NONE {
			break
		}

		offset, engine, _, _ := unpackHeader2(h2)
		if engine != ENGINE_SUB {
			t.Fatalf("packet addressed to engine %d, want sub", engine)
		}
		if int(offset) != 10*SCREEN_WIDTH+pixels {
			t.Fatalf("packet starts at %d, want %d", offset, 10*SCREEN_WIDTH+pixels)
		}
		pixels += int(byteCount) / 2
	}

	if pixels != 3*SCREEN_WIDTH {
		t.Fatalf("transferred %d pixels, want %d", pixels, 3*SCREEN_WIDTH)
	}
}
