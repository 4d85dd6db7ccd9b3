// card_protocol.go - Shared wire protocol between the host console and the cartridge

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
card_protocol.go - Cartridge Bus Wire Protocol

Everything that must be bit-for-bit identical on both sides of the link
lives here: command bytes, reply header words, the hello payload, and
the packed command/reply layouts. The wire is little-endian throughout.

A command is 8 bytes; byte 0 is the tag, bytes 1-7 carry parameters.
A reply is 0, 4, 512 or 1024 bytes. 512-byte send-queue replies carry
one header word (audio, text, requests, faults, end) or two (video),
followed by payload; the byte-count field counts meaningful payload
bytes after the header words, and the remaining bytes of the frame are
undefined filler.

The command and reply unions of a packed-struct design are really
tagged variants keyed by the command byte and by the header kind field.
They are kept here as fixed-size byte frames with explicit encode and
decode helpers rather than reinterpreted memory.
*/

package main

import "encoding/binary"

// ------------------------------------------------------------------------------
// Screen geometry
// ------------------------------------------------------------------------------

const (
	SCREEN_WIDTH  = 256
	SCREEN_HEIGHT = 192
	SCREEN_PIXELS = SCREEN_WIDTH * SCREEN_HEIGHT

	MAIN_BUFFER_COUNT = 3
)

// ------------------------------------------------------------------------------
// Command bytes
// ------------------------------------------------------------------------------

const (
	CMD_SEND_QUEUE      = 0xC0
	CMD_VBLANK          = 0xC1
	CMD_RTC             = 0xC2
	CMD_INPUT           = 0xC3
	CMD_AUDIO_CONSUMED  = 0xC4
	CMD_VIDEO_DISPLAYED = 0xC5
	CMD_AUDIO_STATUS    = 0xC6
	CMD_HELLO           = 0xCF
)

// FPGA-internal command bytes. The bridge answers these itself; the
// cartridge CPU never sees them.
const (
	FPGA_CMD_FIFO_STATUS = 0xE0
	FPGA_CMD_FIFO_RESET  = 0xE1
	FPGA_CMD_FIFO_READ   = 0xE8
)

// FIFO_STATUS reply word layout.
const (
	FIFO_STATUS_READ_FULL   = 1 << 0
	FIFO_STATUS_READ_ERROR  = 1 << 6
	FIFO_STATUS_WRITE_ERROR = 1 << 7
	FIFO_STATUS_LEN_BIT     = 19
	FIFO_STATUS_LEN_MASK    = 0x3FE
)

// CARD_HELLO_VALUE is the magic word at the start of the hello reply.
const CARD_HELLO_VALUE = 0xA1F15CDC

// Encodings supported by this implementation, advertised in the hello
// exchange. Encoding 0 is raw; encoding 1 (palette indexed) is not
// negotiated by either endpoint here.
const (
	VIDEO_ENCODINGS_SUPPORTED = 1
	AUDIO_ENCODINGS_SUPPORTED = 1
)

// ------------------------------------------------------------------------------
// Send-queue reply header word 1
// ------------------------------------------------------------------------------

const (
	DATA_KIND_BIT  = 24
	DATA_KIND_MASK = 0xFF << DATA_KIND_BIT

	DATA_KIND_NONE           = 0
	DATA_KIND_VIDEO          = 1
	DATA_KIND_AUDIO          = 2
	DATA_KIND_REQUESTS       = 3
	DATA_KIND_TEXT           = 4
	DATA_KIND_MIPS_ASSERT    = 0xFD
	DATA_KIND_MIPS_EXCEPTION = 0xFE

	DATA_ENCODING_BIT  = 16
	DATA_ENCODING_MASK = 0xFF << DATA_ENCODING_BIT

	DATA_BYTE_COUNT_BIT  = 6
	DATA_BYTE_COUNT_MASK = 0x3FF << DATA_BYTE_COUNT_BIT

	// DATA_END set means no more data is queued on the cartridge. The
	// reply carrying it may still be meaningful if its kind is not NONE.
	DATA_END = 1 << 0
)

// ------------------------------------------------------------------------------
// Video header word 2
// ------------------------------------------------------------------------------

const (
	VIDEO_PIXEL_OFFSET_BIT  = 16
	VIDEO_PIXEL_OFFSET_MASK = 0xFFFF << VIDEO_PIXEL_OFFSET_BIT

	VIDEO_ENGINE_BIT  = 15
	VIDEO_ENGINE_MASK = 1 << VIDEO_ENGINE_BIT

	VIDEO_BUFFER_BIT  = 13
	VIDEO_BUFFER_MASK = 3 << VIDEO_BUFFER_BIT

	// VIDEO_END_FRAME asks the host to flip the Main Screen to the buffer
	// in VIDEO_BUFFER_MASK once this reply has been written to VRAM.
	VIDEO_END_FRAME = 1 << 12

	// Reserved for video encoding 1 (palette upload).
	VIDEO_SET_PALETTE = 1 << 11
)

func packHeader1(kind, encoding uint8, byteCount uint16, end bool) uint32 {
	w := uint32(kind)<<DATA_KIND_BIT |
		uint32(encoding)<<DATA_ENCODING_BIT |
		uint32(byteCount&0x3FF)<<DATA_BYTE_COUNT_BIT
	if end {
		w |= DATA_END
	}
	return w
}

func unpackHeader1(w uint32) (kind, encoding uint8, byteCount uint16, end bool) {
	kind = uint8((w & DATA_KIND_MASK) >> DATA_KIND_BIT)
	encoding = uint8((w & DATA_ENCODING_MASK) >> DATA_ENCODING_BIT)
	byteCount = uint16((w & DATA_BYTE_COUNT_MASK) >> DATA_BYTE_COUNT_BIT)
	end = w&DATA_END != 0
	return
}

func packHeader2(pixelOffset uint16, engine Engine, buffer uint8, endFrame bool) uint32 {
	w := uint32(pixelOffset)<<VIDEO_PIXEL_OFFSET_BIT |
		uint32(buffer&3)<<VIDEO_BUFFER_BIT
	if engine == ENGINE_MAIN {
		w |= VIDEO_ENGINE_MASK
	}
	if endFrame {
		w |= VIDEO_END_FRAME
	}
	return w
}

func unpackHeader2(w uint32) (pixelOffset uint16, engine Engine, buffer uint8, endFrame bool) {
	pixelOffset = uint16((w & VIDEO_PIXEL_OFFSET_MASK) >> VIDEO_PIXEL_OFFSET_BIT)
	if w&VIDEO_ENGINE_MASK != 0 {
		engine = ENGINE_MAIN
	} else {
		engine = ENGINE_SUB
	}
	buffer = uint8((w & VIDEO_BUFFER_MASK) >> VIDEO_BUFFER_BIT)
	endFrame = w&VIDEO_END_FRAME != 0
	return
}

// ------------------------------------------------------------------------------
// Input, RTC and screen types shared by both endpoints
// ------------------------------------------------------------------------------

const (
	DS_BUTTON_A      = 1 << 0
	DS_BUTTON_B      = 1 << 1
	DS_BUTTON_SELECT = 1 << 2
	DS_BUTTON_START  = 1 << 3
	DS_BUTTON_RIGHT  = 1 << 4
	DS_BUTTON_LEFT   = 1 << 5
	DS_BUTTON_UP     = 1 << 6
	DS_BUTTON_DOWN   = 1 << 7
	DS_BUTTON_R      = 1 << 8
	DS_BUTTON_L      = 1 << 9
	DS_BUTTON_X      = 1 << 10
	DS_BUTTON_Y      = 1 << 11
	DS_BUTTON_TOUCH  = 1 << 12
	DS_BUTTON_LID    = 1 << 13
)

// InputState is the packed button and touch state carried by the INPUT
// command. TouchX and TouchY are meaningful only while Buttons has
// DS_BUTTON_TOUCH set.
type InputState struct {
	Buttons uint16
	TouchX  uint8
	TouchY  uint8
}

// RTC is the packed real-time clock snapshot carried by the RTC
// command. Year 0-99 stands for 2000-2099; Weekday 0 is Monday; Hour is
// 0-23, or 0-11/40-51 in 12-hour mode.
type RTC struct {
	Year    uint8
	Month   uint8
	Day     uint8
	Weekday uint8
	Hour    uint8
	Minute  uint8
	Second  uint8
}

// Engine selects one of the two display controllers. The Main engine
// has page flipping; the Sub engine is single-buffered.
type Engine uint8

const (
	ENGINE_MAIN Engine = 1
	ENGINE_SUB  Engine = 2
	ENGINE_BOTH        = ENGINE_MAIN | ENGINE_SUB
)

// PixelFormat is the in-memory layout of a framebuffer pixel. The wire
// format is always BGR555 with the high bit set; the bridge applies the
// fixup at DMA time.
type PixelFormat uint8

const (
	PIXEL_FORMAT_BGR555 PixelFormat = 0
	PIXEL_FORMAT_RGB555 PixelFormat = 1
)

// Screen is a bitmask of physical screens, used for the backlights.
type Screen uint8

const (
	SCREEN_LOWER Screen = 1
	SCREEN_UPPER Screen = 2
	SCREEN_BOTH         = SCREEN_LOWER | SCREEN_UPPER
)

// ------------------------------------------------------------------------------
// Command frames
// ------------------------------------------------------------------------------

// CardCommand is one 8-byte command frame. Byte 0 is the tag.
type CardCommand [8]byte

func commandByte(tag uint8) CardCommand {
	var cmd CardCommand
	cmd[0] = tag
	return cmd
}

func makeHelloCommand(videoEncodings, audioEncodings uint8) CardCommand {
	var cmd CardCommand
	cmd[0] = CMD_HELLO
	cmd[1] = videoEncodings
	cmd[2] = audioEncodings
	return cmd
}

func helloCommandEncodings(cmd CardCommand) (videoEncodings, audioEncodings uint8) {
	return cmd[1], cmd[2]
}

func makeInputCommand(state InputState) CardCommand {
	var cmd CardCommand
	cmd[0] = CMD_INPUT
	binary.LittleEndian.PutUint16(cmd[1:3], state.Buttons)
	cmd[3] = state.TouchX
	cmd[4] = state.TouchY
	return cmd
}

func inputCommandState(cmd CardCommand) InputState {
	return InputState{
		Buttons: binary.LittleEndian.Uint16(cmd[1:3]),
		TouchX:  cmd[3],
		TouchY:  cmd[4],
	}
}

func makeRTCCommand(rtc RTC) CardCommand {
	return CardCommand{CMD_RTC, rtc.Year, rtc.Month, rtc.Day, rtc.Weekday, rtc.Hour, rtc.Minute, rtc.Second}
}

func rtcCommandData(cmd CardCommand) RTC {
	return RTC{cmd[1], cmd[2], cmd[3], cmd[4], cmd[5], cmd[6], cmd[7]}
}

func makeAudioConsumedCommand(count uint16) CardCommand {
	var cmd CardCommand
	cmd[0] = CMD_AUDIO_CONSUMED
	binary.LittleEndian.PutUint16(cmd[6:8], count)
	return cmd
}

func audioConsumedCount(cmd CardCommand) uint16 {
	return binary.LittleEndian.Uint16(cmd[6:8])
}

func makeVideoDisplayedCommand(index uint8) CardCommand {
	var cmd CardCommand
	cmd[0] = CMD_VIDEO_DISPLAYED
	cmd[7] = index
	return cmd
}

func videoDisplayedIndex(cmd CardCommand) uint8 { return cmd[7] }

func makeAudioStatusCommand(started bool) CardCommand {
	var cmd CardCommand
	cmd[0] = CMD_AUDIO_STATUS
	if started {
		cmd[7] = 1
	}
	return cmd
}

func audioStatusStarted(cmd CardCommand) bool { return cmd[7] != 0 }

// ------------------------------------------------------------------------------
// Hello reply
// ------------------------------------------------------------------------------

// Hello reply layout, 512 bytes:
//
//	[0:4]     magic word CARD_HELLO_VALUE
//	[4]       video encodings supported
//	[5]       audio encodings supported
//	[6]       extension flag: audio-status acknowledgement required
//	[7:256]   reserved, must be zero
//	[256:512] end-sync pattern 0x00..0xFF
const (
	HELLO_REPLY_LEN    = 512
	HELLO_RESERVED_LEN = 249
	HELLO_END_SYNC_LEN = 256
)

func encodeHelloReply(videoEncodings, audioEncodings uint8, audioStatusExt bool) []byte {
	reply := make([]byte, HELLO_REPLY_LEN)
	binary.LittleEndian.PutUint32(reply[0:4], CARD_HELLO_VALUE)
	reply[4] = videoEncodings
	reply[5] = audioEncodings
	if audioStatusExt {
		reply[6] = 1
	}
	for i := 0; i < HELLO_END_SYNC_LEN; i++ {
		reply[256+i] = byte(i)
	}
	return reply
}

// ------------------------------------------------------------------------------
// Requests reply
// ------------------------------------------------------------------------------

// Requests is the coalescing control packet sent by the cartridge. Each
// boolean rides the wire as one byte; 16-bit fields are little-endian.
type Requests struct {
	StartAudio       bool
	AudioFreq        uint16
	BufferSize       uint16
	Is16Bit          bool
	IsStereo         bool
	StopAudio        bool
	ChangeSwap       bool
	SwapScreens      bool
	ChangeBacklight  bool
	ScreenBacklights Screen
	Reset            bool
	Sleep            bool
	Shutdown         bool
}

const REQUESTS_WIRE_LEN = 15

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func encodeRequests(r *Requests, dst []byte) {
	dst[0] = b2u8(r.StartAudio)
	binary.LittleEndian.PutUint16(dst[1:3], r.AudioFreq)
	binary.LittleEndian.PutUint16(dst[3:5], r.BufferSize)
	dst[5] = b2u8(r.Is16Bit)
	dst[6] = b2u8(r.IsStereo)
	dst[7] = b2u8(r.StopAudio)
	dst[8] = b2u8(r.ChangeSwap)
	dst[9] = b2u8(r.SwapScreens)
	dst[10] = b2u8(r.ChangeBacklight)
	dst[11] = uint8(r.ScreenBacklights)
	dst[12] = b2u8(r.Reset)
	dst[13] = b2u8(r.Sleep)
	dst[14] = b2u8(r.Shutdown)
}

func decodeRequests(src []byte) Requests {
	return Requests{
		StartAudio:       src[0] != 0,
		AudioFreq:        binary.LittleEndian.Uint16(src[1:3]),
		BufferSize:       binary.LittleEndian.Uint16(src[3:5]),
		Is16Bit:          src[5] != 0,
		IsStereo:         src[6] != 0,
		StopAudio:        src[7] != 0,
		ChangeSwap:       src[8] != 0,
		SwapScreens:      src[9] != 0,
		ChangeBacklight:  src[10] != 0,
		ScreenBacklights: Screen(src[11]),
		Reset:            src[12] != 0,
		Sleep:            src[13] != 0,
		Shutdown:         src[14] != 0,
	}
}

// ------------------------------------------------------------------------------
// Fault replies
// ------------------------------------------------------------------------------

// AssertReport is the payload of a DATA_KIND_MIPS_ASSERT reply: the
// source line, then the file name and asserted text packed back to back.
type AssertReport struct {
	Line uint32
	File string
	Text string
}

const ASSERT_DATA_LEN = 501

func encodeAssertReport(r *AssertReport, dst []byte) {
	fileLen := len(r.File)
	if fileLen > 255 {
		fileLen = 255
	}
	textLen := len(r.Text)
	if fileLen+textLen > ASSERT_DATA_LEN {
		textLen = ASSERT_DATA_LEN - fileLen
	}
	binary.LittleEndian.PutUint32(dst[0:4], r.Line)
	dst[4] = uint8(fileLen)
	binary.LittleEndian.PutUint16(dst[5:7], uint16(textLen))
	copy(dst[7:7+fileLen], r.File[:fileLen])
	copy(dst[7+fileLen:7+fileLen+textLen], r.Text[:textLen])
}

func decodeAssertReport(src []byte) AssertReport {
	fileLen := int(src[4])
	textLen := int(binary.LittleEndian.Uint16(src[5:7]))
	return AssertReport{
		Line: binary.LittleEndian.Uint32(src[0:4]),
		File: string(src[7 : 7+fileLen]),
		Text: string(src[7+fileLen : 7+fileLen+textLen]),
	}
}

// RegisterBlock is the MIPS register file captured at an unhandled
// exception, in wire order.
type RegisterBlock struct {
	AT, V0, V1, A0, A1, A2, A3             uint32
	T0, T1, T2, T3, T4, T5, T6, T7         uint32
	S0, S1, S2, S3, S4, S5, S6, S7, T8, T9 uint32
	GP, SP, FP, RA, HI, LO                 uint32
}

// ExceptionReport is the payload of a DATA_KIND_MIPS_EXCEPTION reply.
// Op and NextOp are the instruction words at and after EPC; Mapped is
// zero when EPC was not a readable code address.
type ExceptionReport struct {
	Excode    uint32
	Registers RegisterBlock
	EPC       uint32
	Op        uint32
	NextOp    uint32
	Mapped    uint32
}

const EXCEPTION_WIRE_LEN = 4 + 31*4 + 4*4

func encodeExceptionReport(r *ExceptionReport, dst []byte) {
	le := binary.LittleEndian
	le.PutUint32(dst[0:], r.Excode)
	regs := [...]uint32{
		r.Registers.AT, r.Registers.V0, r.Registers.V1,
		r.Registers.A0, r.Registers.A1, r.Registers.A2, r.Registers.A3,
		r.Registers.T0, r.Registers.T1, r.Registers.T2, r.Registers.T3,
		r.Registers.T4, r.Registers.T5, r.Registers.T6, r.Registers.T7,
		r.Registers.S0, r.Registers.S1, r.Registers.S2, r.Registers.S3,
		r.Registers.S4, r.Registers.S5, r.Registers.S6, r.Registers.S7,
		r.Registers.T8, r.Registers.T9,
		r.Registers.GP, r.Registers.SP, r.Registers.FP, r.Registers.RA,
		r.Registers.HI, r.Registers.LO,
	}
	off := 4
	for _, reg := range regs {
		le.PutUint32(dst[off:], reg)
		off += 4
	}
	le.PutUint32(dst[off+0:], r.EPC)
	le.PutUint32(dst[off+4:], r.Op)
	le.PutUint32(dst[off+8:], r.NextOp)
	le.PutUint32(dst[off+12:], r.Mapped)
}

func decodeExceptionReport(src []byte) ExceptionReport {
	le := binary.LittleEndian
	var r ExceptionReport
	r.Excode = le.Uint32(src[0:])
	regs := make([]uint32, 31)
	off := 4
	for i := range regs {
		regs[i] = le.Uint32(src[off:])
		off += 4
	}
	r.Registers = RegisterBlock{
		AT: regs[0], V0: regs[1], V1: regs[2],
		A0: regs[3], A1: regs[4], A2: regs[5], A3: regs[6],
		T0: regs[7], T1: regs[8], T2: regs[9], T3: regs[10],
		T4: regs[11], T5: regs[12], T6: regs[13], T7: regs[14],
		S0: regs[15], S1: regs[16], S2: regs[17], S3: regs[18],
		S4: regs[19], S5: regs[20], S6: regs[21], S7: regs[22],
		T8: regs[23], T9: regs[24],
		GP: regs[25], SP: regs[26], FP: regs[27], RA: regs[28],
		HI: regs[29], LO: regs[30],
	}
	r.EPC = le.Uint32(src[off+0:])
	r.Op = le.Uint32(src[off+4:])
	r.NextOp = le.Uint32(src[off+8:])
	r.Mapped = le.Uint32(src[off+12:])
	return r
}
