// card_protocol_test.go - Wire protocol codec tests

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHeader1RoundTrip verifies that every defined kind survives a
// pack/unpack cycle for representative byte counts and both end-flag
// states.
func TestHeader1RoundTrip(t *testing.T) {
	kinds := []uint8{
		DATA_KIND_NONE, DATA_KIND_VIDEO, DATA_KIND_AUDIO,
		DATA_KIND_REQUESTS, DATA_KIND_TEXT,
		DATA_KIND_MIPS_ASSERT, DATA_KIND_MIPS_EXCEPTION,
	}
	for _, kind := range kinds {
		for _, count := range []uint16{0, 1, 252, 504, 508, 1023} {
			for _, end := range []bool{false, true} {
				w := packHeader1(kind, 0, count, end)
				gotKind, gotEnc, gotCount, gotEnd := unpackHeader1(w)
				assert.Equal(t, kind, gotKind)
				assert.Equal(t, uint8(0), gotEnc)
				assert.Equal(t, count, gotCount)
				assert.Equal(t, end, gotEnd)
			}
		}
	}
}

// TestHeader2RoundTrip covers both engines, all Main buffers and the
// end-of-frame flag.
func TestHeader2RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		offset   uint16
		engine   Engine
		buffer   uint8
		endFrame bool
	}{
		{"main_start", 0, ENGINE_MAIN, 0, false},
		{"main_buffer2_eof", 48888, ENGINE_MAIN, 2, true},
		{"sub", 1234, ENGINE_SUB, 0, false},
		{"last_pixel", SCREEN_PIXELS - 2, ENGINE_MAIN, 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := packHeader2(tc.offset, tc.engine, tc.buffer, tc.endFrame)
			offset, engine, buffer, endFrame := unpackHeader2(w)
			assert.Equal(t, tc.offset, offset)
			assert.Equal(t, tc.engine, engine)
			assert.Equal(t, tc.buffer, buffer)
			assert.Equal(t, tc.endFrame, endFrame)
		})
	}
}

// TestHelloReply checks the full hello layout: magic, encodings,
// extension byte, zero reserved bytes and the end-sync pattern.
func TestHelloReply(t *testing.T) {
	reply := encodeHelloReply(1, 1, true)
	require.Len(t, reply, HELLO_REPLY_LEN)

	magic := uint32(reply[0]) | uint32(reply[1])<<8 | uint32(reply[2])<<16 | uint32(reply[3])<<24
	assert.Equal(t, uint32(CARD_HELLO_VALUE), magic)
	assert.Equal(t, uint8(1), reply[4])
	assert.Equal(t, uint8(1), reply[5])
	assert.Equal(t, uint8(1), reply[6])

	for i := 0; i < HELLO_RESERVED_LEN; i++ {
		assert.Zero(t, reply[7+i], "reserved byte %d", i)
	}
	for i := 0; i < HELLO_END_SYNC_LEN; i++ {
		assert.Equal(t, byte(i), reply[256+i], "end-sync byte %d", i)
	}
}

// TestCommandCodecs round-trips every parametrised command frame.
func TestCommandCodecs(t *testing.T) {
	t.Run("hello", func(t *testing.T) {
		cmd := makeHelloCommand(3, 7)
		assert.Equal(t, uint8(CMD_HELLO), cmd[0])
		v, a := helloCommandEncodings(cmd)
		assert.Equal(t, uint8(3), v)
		assert.Equal(t, uint8(7), a)
	})

	t.Run("input", func(t *testing.T) {
		state := InputState{Buttons: DS_BUTTON_A | DS_BUTTON_TOUCH, TouchX: 120, TouchY: 88}
		cmd := makeInputCommand(state)
		assert.Equal(t, uint8(CMD_INPUT), cmd[0])
		assert.Equal(t, state, inputCommandState(cmd))
	})

	t.Run("rtc", func(t *testing.T) {
		rtc := RTC{Year: 26, Month: 8, Day: 1, Weekday: 5, Hour: 13, Minute: 37, Second: 59}
		cmd := makeRTCCommand(rtc)
		assert.Equal(t, uint8(CMD_RTC), cmd[0])
		assert.Equal(t, rtc, rtcCommandData(cmd))
	})

	t.Run("audio_consumed", func(t *testing.T) {
		cmd := makeAudioConsumedCommand(512)
		assert.Equal(t, uint8(CMD_AUDIO_CONSUMED), cmd[0])
		assert.Equal(t, uint16(512), audioConsumedCount(cmd))
	})

	t.Run("video_displayed", func(t *testing.T) {
		cmd := makeVideoDisplayedCommand(2)
		assert.Equal(t, uint8(CMD_VIDEO_DISPLAYED), cmd[0])
		assert.Equal(t, uint8(2), videoDisplayedIndex(cmd))
	})

	t.Run("audio_status", func(t *testing.T) {
		assert.True(t, audioStatusStarted(makeAudioStatusCommand(true)))
		assert.False(t, audioStatusStarted(makeAudioStatusCommand(false)))
	})
}

// TestRequestsCodec round-trips a fully populated requests packet.
func TestRequestsCodec(t *testing.T) {
	requests := Requests{
		StartAudio:       true,
		AudioFreq:        22050,
		BufferSize:       1024,
		Is16Bit:          true,
		IsStereo:         true,
		ChangeSwap:       true,
		SwapScreens:      true,
		ChangeBacklight:  true,
		ScreenBacklights: SCREEN_UPPER,
		Sleep:            true,
	}
	var wire [REQUESTS_WIRE_LEN]byte
	encodeRequests(&requests, wire[:])
	assert.Equal(t, requests, decodeRequests(wire[:]))
}

// TestAssertReportCodec covers the packed file/text layout, including
// truncation of oversized texts.
func TestAssertReportCodec(t *testing.T) {
	report := AssertReport{Line: 321, File: "video.go", Text: "pixelCount > 0"}
	var wire [508]byte
	encodeAssertReport(&report, wire[:])
	assert.Equal(t, report, decodeAssertReport(wire[:]))

	long := AssertReport{Line: 1, File: "f.go", Text: string(make([]byte, 600))}
	encodeAssertReport(&long, wire[:])
	decoded := decodeAssertReport(wire[:])
	assert.Len(t, decoded.Text, ASSERT_DATA_LEN-len(long.File))
}

// TestExceptionReportCodec round-trips the register block.
func TestExceptionReportCodec(t *testing.T) {
	report := ExceptionReport{
		Excode: 4,
		Registers: RegisterBlock{
			AT: 1, V0: 2, V1: 3, A0: 4, A1: 5, A2: 6, A3: 7,
			T0: 8, T1: 9, T2: 10, T3: 11, T4: 12, T5: 13, T6: 14, T7: 15,
			S0: 16, S1: 17, S2: 18, S3: 19, S4: 20, S5: 21, S6: 22, S7: 23,
			T8: 24, T9: 25, GP: 26, SP: 27, FP: 28, RA: 29, HI: 30, LO: 31,
		},
		EPC:    0x80001234,
		Op:     0x8C820000,
		NextOp: 0x00000000,
		Mapped: 1,
	}
	var wire [508]byte
	encodeExceptionReport(&report, wire[:])
	assert.Equal(t, report, decodeExceptionReport(wire[:]))
}
