// main_test.go - linkdump frame decoding tests

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

func frameWith(h1, h2 uint32) []byte {
	frame := make([]byte, frameLen)
	for i, w := range []uint32{h1, h2} {
		frame[i*4+0] = byte(w)
		frame[i*4+1] = byte(w >> 8)
		frame[i*4+2] = byte(w >> 16)
		frame[i*4+3] = byte(w >> 24)
	}
	return frame
}

// TestDecodeVideoFrame checks the one-line rendering of a video frame
// with its sub-header.
func TestDecodeVideoFrame(t *testing.T) {
	// kind=video, enc 0, 504 bytes; main engine, buffer 2, offset 252,
	// end of frame.
	h1 := uint32(kindVideo)<<24 | 504<<6
	h2 := uint32(252)<<16 | 1<<15 | 2<<13 | 1<<12

	var out strings.Builder
	decodeFrame(7, frameWith(h1, h2), &out)

	line := out.String()
	for _, want := range []string{"frame    7", "video", "504 bytes", "main buf 2 px 252", "eof=true"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

// TestDecodeEndFrame checks the queue-end rendering.
func TestDecodeEndFrame(t *testing.T) {
	h1 := uint32(kindNone)<<24 | 1

	var out strings.Builder
	decodeFrame(0, frameWith(h1, 0), &out)

	line := out.String()
	if !strings.Contains(line, "none") || !strings.Contains(line, "end=true") {
		t.Errorf("unexpected rendering %q", line)
	}
}
