// host.go - Host driver context, command loop and link establishment

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
host.go - Host Driver

The host owns the bus: it initiates every transaction and drains every
reply. One goroutine runs the command loop; everything else - the
VBlank tick, the card-line edge, the companion core's input and RTC
deliveries, the audio backend's pull callback - lands in handlers that
mutate state under the endpoint hub and queue commands in the host's
own pending-send bitset.

Priorities (bit 0 drains first): VBLANK, VIDEO_DISPLAYED,
AUDIO_CONSUMED, AUDIO_STATUS, INPUT, RTC, then SEND_QUEUE last.

The establishment sequence mirrors power-on: the host parks until the
cartridge's card-line pulse arrives, performs the HELLO exchange and
validates the reply down to every end-sync byte, then delivers the
first input and clock readings and enters the main loop.
*/

package main

import (
	"fmt"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
)

// Link status, host side.
type HostLinkStatus uint8

const (
	HOST_LINK_NONE HostLinkStatus = iota
	HOST_LINK_ESTABLISHED
	HOST_LINK_ERROR
)

// Host pending-send bits, sorted by priority: bit 0 drains first.
const (
	HOST_SEND_VBLANK          = 0x00000001
	HOST_SEND_VIDEO_DISPLAYED = 0x00000002
	HOST_SEND_AUDIO_CONSUMED  = 0x00000004
	HOST_SEND_AUDIO_STATUS    = 0x00000008
	HOST_SEND_INPUT           = 0x00000010
	HOST_SEND_RTC             = 0x00000020

	// HOST_SEND_QUEUE asks the cartridge for its send queue. Lowest
	// priority.
	HOST_SEND_QUEUE = 0x80000000
)

// Host is the host endpoint. Fields below irq are guarded by it unless
// noted.
type Host struct {
	irq       *IRQ
	bridge    *FPGABridge
	companion *Companion
	console   *SubConsole
	audioOut  AudioOutput
	keypad    KeypadSource
	log       *charmlog.Logger

	linkStatus   HostLinkStatus
	pendingSends uint32
	helloPending bool
	stopped      bool

	// vblankCount is read by the bus layer's dead-man check without the
	// hub, so it is atomic. Written only by the VBlank tick.
	vblankCount atomic.Uint32

	// Diagnostics for the dead-man fatal message. Owned by the command
	// loop goroutine.
	cmdByte     uint8
	cmdReplyLen int
	cmdVblank   uint32

	vidEncodings   uint8
	sndEncodings   uint8
	audioStatusExt bool

	// Video memory: three Main pages and one Sub page.
	vram         [MAIN_BUFFER_COUNT][]uint16
	vramSub      []uint16
	vidDisplayed uint8 // Main page currently shown
	vidMainLast  uint8 // page data was last received for
	pendingFlips []uint8
	pendingSwap  bool
	newSwapState bool
	swapped      bool
	subGraphics  bool

	// Host audio ring, filled by the bus, drained by the backend pull.
	audioStarted  bool
	audioShift    uint
	audioSamples  int
	audioBuffer   []byte
	audioRead     int
	audioWrite    int
	audioConsumed uint16
	audioFreq     uint16

	// Input assembled from the keypad and the companion's extended
	// button replies.
	input InputState
	rtc   RTC

	handover *Handover

	// onSleep and onShutdown surface the corresponding request flags.
	onSleep    func()
	onShutdown func()
	// resetRequested is latched by the reset sequence; the machine
	// restarts the link after the loop exits.
	resetRequested bool

	done chan struct{}

	scratch [512]byte
}

func NewHost(bridge *FPGABridge, logger *charmlog.Logger) *Host {
	h := &Host{
		irq:     NewIRQ(),
		bridge:  bridge,
		console: NewSubConsole(),
		log:     logger,
		done:    make(chan struct{}),
	}
	for i := range h.vram {
		h.vram[i] = make([]uint16, SCREEN_PIXELS)
	}
	h.vramSub = make([]uint16, SCREEN_PIXELS)
	h.pendingFlips = make([]uint8, 0, MAIN_BUFFER_COUNT)
	h.handover = NewHandover()
	h.subGraphics = true
	// No page has been received yet; 0xFF never matches a real index,
	// so the first frame sent for page 0 still schedules its flip.
	h.vidMainLast = 0xFF
	bridge.SetCardLineHandler(h.cardLineHandler)
	return h
}

// Console returns the Sub-screen text console.
func (h *Host) Console() *SubConsole { return h.console }

// Done is closed when the command loop exits.
func (h *Host) Done() <-chan struct{} { return h.done }

// LinkStatus returns the host's view of the link.
func (h *Host) LinkStatus() HostLinkStatus {
	h.irq.Lock()
	defer h.irq.Unlock()
	return h.linkStatus
}

// addPendingSend and takePendingSend mirror the cartridge's queue over
// the host's own priorities. Caller must hold the hub.
func (h *Host) addPendingSend(mask uint32) {
	h.pendingSends |= mask
}

func (h *Host) takePendingSend() uint32 {
	sends := h.pendingSends
	result := sends & (^sends + 1)
	h.pendingSends = sends &^ result
	return result
}

// cardLineHandler is the edge-triggered card-request interrupt. Before
// establishment it asks the command loop to run the HELLO exchange;
// afterwards it arms the SEND_QUEUE path.
func (h *Host) cardLineHandler() {
	h.irq.Lock()
	switch h.linkStatus {
	case HOST_LINK_NONE:
		h.helloPending = true
	case HOST_LINK_ESTABLISHED:
		h.addPendingSend(HOST_SEND_QUEUE)
	}
	h.irq.Unlock()
	h.irq.Raise()
}

// vblankTick is the VBlank interrupt: apply the pending flip and swap,
// queue the VBLANK notification and ask the companion for fresh input
// and clock readings.
func (h *Host) vblankTick() {
	h.irq.Lock()
	h.applyPendingFlip()
	h.applyPendingSwap()
	established := h.linkStatus == HOST_LINK_ESTABLISHED
	if established {
		h.addPendingSend(HOST_SEND_VBLANK)
	}
	h.irq.Unlock()

	h.vblankCount.Add(1)
	h.irq.Raise()
	h.bridge.NotifyVBlank()

	if established && h.companion != nil {
		h.companion.RequestInput()
		h.companion.RequestRTC()
	}
}

// Stop asks the command loop to exit.
func (h *Host) Stop() {
	h.irq.Lock()
	h.stopped = true
	h.irq.Unlock()
	h.irq.Raise()
	h.bridge.NotifyVBlank()
}

// handleFatal renders a fatal link error. The link is dead afterwards:
// the console shows the diagnostic, both backlights are forced on so it
// can be read, and the command loop idles forever.
func (h *Host) handleFatal(le *LinkError) {
	h.setSubText()
	fmt.Fprintf(h.console, "card link error:\n\n%s\n", le.msg)
	if h.log != nil {
		h.log.Error("fatal link error", "err", le.msg)
	}

	h.irq.Lock()
	h.linkStatus = HOST_LINK_ERROR
	h.irq.Unlock()
	if h.companion != nil {
		h.companion.SetBacklight(SCREEN_BOTH)
	}
	h.audioStop()
	h.irq.Raise()
}

// run is the host command loop.
func (h *Host) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			le, ok := r.(*LinkError)
			if !ok {
				panic(r)
			}
			h.handleFatal(le)
		}
	}()

	// Idle until the cartridge pokes the card line.
	h.irq.Lock()
	h.irq.AwaitCond(func() bool { return h.helloPending || h.stopped })
	stopped := h.stopped
	h.irq.Unlock()
	if stopped {
		return
	}

	h.linkEstablishment()

	h.irq.Lock()
	h.linkStatus = HOST_LINK_ESTABLISHED
	h.irq.Unlock()
	h.irq.Raise()

	if h.log != nil {
		h.log.Info("card link established",
			"video_encodings", h.vidEncodings,
			"audio_encodings", h.sndEncodings,
			"audio_status_ext", h.audioStatusExt)
	}

	// First input and clock readings for the cartridge's pending-recv
	// drain.
	if h.companion != nil {
		h.companion.RequestInput()
		h.companion.RequestRTC()
	}

	for {
		h.irq.Lock()
		if h.stopped || h.linkStatus != HOST_LINK_ESTABLISHED {
			h.irq.Unlock()
			break
		}

		pending := h.takePendingSend()

		// Capture command payloads inside the critical section, the way
		// the original captured them with interrupts masked.
		var input InputState
		var rtc RTC
		var displayed uint8
		var consumed uint16
		var started bool
		switch pending {
		case HOST_SEND_INPUT:
			input = h.input
		case HOST_SEND_RTC:
			rtc = h.rtc
		case HOST_SEND_VIDEO_DISPLAYED:
			displayed = h.vidDisplayed
		case HOST_SEND_AUDIO_CONSUMED:
			consumed = h.audioConsumed
			h.audioConsumed = 0
		case HOST_SEND_AUDIO_STATUS:
			started = h.audioStarted
		case 0:
			h.irq.Await()
			h.irq.Unlock()
			continue
		}
		h.irq.Unlock()

		switch pending {
		case HOST_SEND_VBLANK:
			h.sendCommandByte(CMD_VBLANK, 4)
			h.cardIgnoreReply()

		case HOST_SEND_VIDEO_DISPLAYED:
			h.sendCommand(makeVideoDisplayedCommand(displayed), 4)
			h.cardIgnoreReply()

		case HOST_SEND_AUDIO_CONSUMED:
			h.sendCommand(makeAudioConsumedCommand(consumed), 4)
			h.cardIgnoreReply()

		case HOST_SEND_AUDIO_STATUS:
			h.sendCommand(makeAudioStatusCommand(started), 4)
			h.cardIgnoreReply()

		case HOST_SEND_INPUT:
			h.sendCommand(makeInputCommand(input), 4)
			h.cardIgnoreReply()

		case HOST_SEND_RTC:
			h.sendCommand(makeRTCCommand(rtc), 4)
			h.cardIgnoreReply()

		case HOST_SEND_QUEUE:
			h.processSendQueue()
		}
	}
}

// linkEstablishment performs the HELLO exchange and validates the
// reply: the magic word, every end-sync byte and every reserved byte.
func (h *Host) linkEstablishment() {
	h.sendCommand(makeHelloCommand(VIDEO_ENCODINGS_SUPPORTED, AUDIO_ENCODINGS_SUPPORTED), 512)
	h.cardReadData(512, h.scratch[:512], true)
	reply := h.scratch[:512]

	magic := uint32(reply[0]) | uint32(reply[1])<<8 | uint32(reply[2])<<16 | uint32(reply[3])<<24
	if magic != CARD_HELLO_VALUE {
		h.fatalLinkError("cartridge sent the wrong magic value\n\nexpected 0x%08X\ngot      0x%08X",
			uint32(CARD_HELLO_VALUE), magic)
	}

	for i := 0; i < HELLO_END_SYNC_LEN; i++ {
		if reply[256+i] != byte(i) {
			h.fatalLinkError("initial packet is not properly synchronized\n\nbyte %d is not correct\n\nexpected 0x%02X\ngot      0x%02X",
				i, byte(i), reply[256+i])
		}
	}

	for i := 0; i < HELLO_RESERVED_LEN; i++ {
		if reply[7+i] != 0 {
			h.fatalLinkError("cartridge protocol extension #%d not supported", 1+i)
		}
	}

	h.vidEncodings = VIDEO_ENCODINGS_SUPPORTED
	if reply[4] < h.vidEncodings {
		h.vidEncodings = reply[4]
	}
	h.sndEncodings = AUDIO_ENCODINGS_SUPPORTED
	if reply[5] < h.sndEncodings {
		h.sndEncodings = reply[5]
	}
	h.audioStatusExt = reply[6] != 0
}

// processSendQueue asks the cartridge for one queued item and
// dispatches on the header kind.
func (h *Host) processSendQueue() {
	h.sendCommandByte(CMD_SEND_QUEUE, 512)
	header := h.cardReadWord(false)
	kind, encoding, _, end := unpackHeader1(header)

	if !end {
		h.irq.Lock()
		h.addPendingSend(HOST_SEND_QUEUE)
		h.irq.Unlock()
	}

	switch kind {
	case DATA_KIND_VIDEO:
		h.receiveVideo(header, encoding)

	case DATA_KIND_TEXT:
		h.receiveText(header, encoding)

	case DATA_KIND_AUDIO:
		h.receiveAudio(header, encoding)

	case DATA_KIND_REQUESTS:
		h.receiveRequests()

	case DATA_KIND_MIPS_ASSERT:
		h.receiveAssert()

	case DATA_KIND_MIPS_EXCEPTION:
		h.receiveException()

	default:
		h.cardIgnoreReply()
	}
}
