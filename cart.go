// cart.go - Cartridge firmware context and command dispatch

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
cart.go - Cartridge Firmware Context

All cartridge-side link state lives in one Cart value: link status, the
pending-send bitset, the video page set and its transfer queue, the
audio ring, the input pending masks, the RTC snapshot, the coalesced
requests packet and the fault reports. A single dispatch goroutine
plays the command-arrival interrupt: it runs the current protocol
handler with the endpoint hub locked, exactly as the original handler
ran with interrupts disabled.

The application-facing API (update/flip screen, submit audio, read
input, await VBlank, and so on) is methods on Cart; every entry point
takes the hub for its mutations and parks on the hub for its waits.
*/

package main

import "time"

// Link status, cartridge side.
type CartLinkStatus uint8

const (
	CART_LINK_NONE CartLinkStatus = iota
	CART_LINK_PENDING_RECV
	CART_LINK_ESTABLISHED
)

const (
	PENDING_RECV_INPUT = 0x00000001
	PENDING_RECV_RTC   = 0x00000002
	PENDING_RECV_ALL   = PENDING_RECV_INPUT | PENDING_RECV_RTC
)

// Cartridge pending-send bits, sorted by send priority: bit 0 drains
// first, bit 31 last.
const (
	PENDING_SEND_EXCEPTION = 0x00000001
	PENDING_SEND_ASSERT    = 0x00000002
	PENDING_SEND_REQUESTS  = 0x00000004
	PENDING_SEND_AUDIO     = 0x00000008
	PENDING_SEND_TEXT      = 0x20000000
	PENDING_SEND_VIDEO     = 0x40000000

	// PENDING_SEND_END must have the lowest priority: every non-empty
	// batch finishes with an END-marked reply.
	PENDING_SEND_END = 0x80000000
)

// Audio stream lifecycle. Transitions out of STARTING and STOPPING
// happen only on the host's AUDIO_STATUS acknowledgement.
type AudioStatus uint8

const (
	AUDIO_STOPPED AudioStatus = iota
	AUDIO_STARTING
	AUDIO_STARTED
	AUDIO_STOPPING
)

// MAX_AUDIO_BUFFER_SAMPLES bounds StartAudio allocations the way the
// original's heap did; requests beyond it fail with ErrNomem.
const MAX_AUDIO_BUFFER_SAMPLES = 1 << 16

// videoEntry is one queued screen transfer.
type videoEntry struct {
	src         []uint16 // remaining source pixels
	engine      Engine
	buffer      uint8
	pixelOffset int
	pixelCount  int
	busy        *bool // the owning buffer's busy flag
}

// Cart is the cartridge endpoint. All fields below irq are guarded by
// it unless noted.
type Cart struct {
	irq    *IRQ
	bridge *FPGABridge

	linkStatus   CartLinkStatus
	pendingRecvs uint32
	pendingSends uint32
	protocol     func(CardCommand)

	vidEncodings uint8
	sndEncodings uint8

	rtc         RTC
	vblankCount uint32

	inState    InputState
	inPresses  InputState
	inReleases InputState

	requests Requests

	// Video page set.
	vidMain      [MAIN_BUFFER_COUNT][]uint16
	vidSub       []uint16
	vidFormats   [2]PixelFormat
	vidMainBusy  [MAIN_BUFFER_COUNT]bool
	vidSubBusy   bool
	vidCurrent   uint8
	vidDisplayed uint8
	vidLastFlip  bool
	vidSwap      bool
	vidBacklight Screen
	vidCompress  bool
	vidQueue     []videoEntry

	// Staged video packet, encoded ahead of the host's next SEND_QUEUE
	// so the application can keep writing while the previous packet is
	// still on the wire.
	vidStageValid   bool
	vidStageHeader1 uint32
	vidStageHeader2 uint32
	vidStageData    [504]byte
	vidStageEngine  Engine

	// Audio ring.
	sndStatus    AudioStatus
	sndBuffer    []byte
	sndSizeShift uint
	sndSamples   int // capacity, requested size + 1
	sndRead      int // oldest sample not yet consumed by the host
	sndSend      int // oldest sample not yet forwarded on the wire
	sndWrite     int // next sample to fill
	sndFreq      uint16

	// Text slot, one 508-byte chunk at a time.
	txtData [508]byte
	txtSize int

	// Fault reports.
	assertReport AssertReport
	exception    ExceptionReport

	highClock bool

	// Scratch frame for on-the-fly replies.
	temp [512]byte

	// onReset is called when the firmware takes its reset vector.
	// Runs with the hub locked.
	onReset func()
}

func NewCart(bridge *FPGABridge) *Cart {
	c := &Cart{
		irq:    NewIRQ(),
		bridge: bridge,
	}
	for i := range c.vidMain {
		c.vidMain[i] = make([]uint16, SCREEN_PIXELS)
	}
	c.vidSub = make([]uint16, SCREEN_PIXELS)
	c.vidQueue = make([]videoEntry, 0, MAIN_BUFFER_COUNT+1)
	c.initVariables()
	return c
}

// initVariables restores the power-on link state: graphics mode, all
// buffers idle, buffer 0 displayed, audio stopped, screens not swapped,
// both backlights on, no input or RTC reading yet.
func (c *Cart) initVariables() {
	c.sndStatus = AUDIO_STOPPED
	c.txtSize = 0

	c.vidFormats[0] = PIXEL_FORMAT_BGR555
	c.vidFormats[1] = PIXEL_FORMAT_BGR555
	c.vidDisplayed = 0
	c.vidCurrent = 0
	c.vidSwap = false
	c.vidBacklight = SCREEN_BOTH
	c.vidLastFlip = false
	for i := range c.vidMainBusy {
		c.vidMainBusy[i] = false
	}
	c.vidSubBusy = false
	c.vidQueue = c.vidQueue[:0]
	c.vidStageValid = false
	c.vblankCount = 0

	c.linkStatus = CART_LINK_NONE
	c.pendingRecvs = PENDING_RECV_ALL
	c.pendingSends = 0
	c.protocol = c.linkEstablishmentProtocol

	c.inState = InputState{}
	c.inPresses = InputState{}
	c.inReleases = InputState{}
	c.requests = Requests{}
}

// Start arms the command dispatcher and begins pulsing the card line
// until the host answers with HELLO. It returns once the link is
// established, like the firmware init did.
func (c *Cart) Start() {
	go c.dispatchLoop()

	// Pulse the card line at 1 ms intervals. Early pulses are absorbed
	// by the edge-trigger before the host's interrupt is armed, so
	// retries are required.
	for {
		c.irq.Lock()
		if c.linkStatus != CART_LINK_NONE {
			c.irq.Unlock()
			break
		}
		c.bridge.PulseCardLine()
		c.irq.Unlock()
		time.Sleep(time.Millisecond)
	}

	c.irq.Lock()
	c.irq.AwaitCond(func() bool { return c.linkStatus == CART_LINK_ESTABLISHED })
	c.irq.Unlock()
}

// dispatchLoop is the command-arrival interrupt: one command in flight
// at a time, handled under the hub with the current protocol.
func (c *Cart) dispatchLoop() {
	for cmd := range c.bridge.Commands() {
		c.irq.Lock()
		c.protocol(cmd)
		c.irq.Unlock()
		c.irq.Raise()
	}
}

// SetResetHandler registers the firmware's reset vector.
func (c *Cart) SetResetHandler(handler func()) {
	c.irq.Lock()
	c.onReset = handler
	c.irq.Unlock()
}

// SetHighClockSpeed raises the cartridge core clock, returning the new
// clock in MHz. The link protocol is unaffected; this only changes how
// fast the application side runs.
func (c *Cart) SetHighClockSpeed() int {
	c.irq.Lock()
	c.highClock = true
	c.irq.Unlock()
	return 396
}

// SetLowClockSpeed drops back to the power-saving clock.
func (c *Cart) SetLowClockSpeed() int {
	c.irq.Lock()
	c.highClock = false
	c.irq.Unlock()
	return 120
}

// AwaitVBlank blocks until the host delivers the next VBLANK command.
func (c *Cart) AwaitVBlank() {
	c.irq.Lock()
	saved := c.vblankCount
	c.irq.AwaitCond(func() bool { return c.vblankCount != saved })
	c.irq.Unlock()
}

// VBlankCount returns the number of VBlank ticks seen so far.
func (c *Cart) VBlankCount() uint32 {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.vblankCount
}

// LinkStatus returns the cartridge's view of the link.
func (c *Cart) LinkStatus() CartLinkStatus {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.linkStatus
}

// LastRTC returns the last clock snapshot delivered by the host.
func (c *Cart) LastRTC() RTC {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.rtc
}
