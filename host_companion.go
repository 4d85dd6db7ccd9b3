// host_companion.go - The sound-and-peripheral companion core

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
host_companion.go - Companion Core

The companion owns the touchscreen, the real-time clock, the backlights
and the far side of the reset handover. The host reaches it only
through a word FIFO; replies come back as calls into the host's
handlers, mirroring the value and datagram FIFO handlers of the
original.

Input replies come in two halves: the extended buttons first, then -
only while the pen is down - the touch coordinates. The host merges the
extended bits with its own keypad read and queues the INPUT command
once the last half of a capture has arrived.

Backlight changes are applied at most once per VBlank; flipping them
faster than the display refreshes is a way to damage the panel.
*/

package main

import (
	"sync"
	"time"
)

// Companion word FIFO messages.
const (
	IPC_GET_INPUT     = 0x0001
	IPC_GET_RTC       = 0x0002
	IPC_SET_BACKLIGHT = 0x0003
	IPC_START_RESET   = 0xFFFF

	IPC_BACKLIGHT_DATA_BIT = 16
)

type Companion struct {
	host     *Host
	handover *Handover
	keypad   KeypadSource
	clock    func() time.Time

	fifo chan uint32

	mu             sync.Mutex
	closed         bool
	prevBacklights Screen
	newBacklights  Screen

	done chan struct{}
}

func NewCompanion(host *Host, keypad KeypadSource) *Companion {
	c := &Companion{
		host:           host,
		handover:       host.handover,
		keypad:         keypad,
		clock:          time.Now,
		fifo:           make(chan uint32, 64),
		prevBacklights: SCREEN_BOTH,
		newBacklights:  SCREEN_BOTH,
		done:           make(chan struct{}),
	}
	return c
}

// SetClock overrides the time source.
func (c *Companion) SetClock(clock func() time.Time) { c.clock = clock }

func (c *Companion) run() {
	defer close(c.done)
	for value := range c.fifo {
		switch value & 0xFFFF {
		case IPC_GET_INPUT:
			c.replyInput()

		case IPC_GET_RTC:
			c.host.companionRTC(c.readRTC())

		case IPC_SET_BACKLIGHT:
			c.mu.Lock()
			c.newBacklights = Screen(value >> IPC_BACKLIGHT_DATA_BIT & 0x3)
			c.mu.Unlock()

		case IPC_START_RESET:
			c.startReset()
		}
	}
}

// RequestInput asks for a fresh input capture.
func (c *Companion) RequestInput() { c.send(IPC_GET_INPUT) }

// RequestRTC asks for a clock reading.
func (c *Companion) RequestRTC() { c.send(IPC_GET_RTC) }

// SetBacklight asks for the given screens' backlights, applied at the
// next VBlank.
func (c *Companion) SetBacklight(screens Screen) {
	c.send(IPC_SET_BACKLIGHT | uint32(screens)<<IPC_BACKLIGHT_DATA_BIT)
}

// StartReset asks the companion to run its half of the handover.
func (c *Companion) StartReset() { c.send(IPC_START_RESET) }

func (c *Companion) send(value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.fifo <- value:
	default:
		// A full FIFO drops the word, like the hardware one would.
	}
}

// Stop shuts the companion down.
func (c *Companion) Stop() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.fifo)
	}
	c.mu.Unlock()
	<-c.done
}

// replyInput captures the extended buttons and, while the pen is down,
// the touch position.
func (c *Companion) replyInput() {
	var state InputState
	if c.keypad != nil {
		state = c.keypad.InputState()
	}

	ext := state.Buttons & (DS_BUTTON_X | DS_BUTTON_Y | DS_BUTTON_TOUCH | DS_BUTTON_LID)
	c.host.companionButtons(ext)
	if ext&DS_BUTTON_TOUCH != 0 {
		c.host.companionTouch(state.TouchX, state.TouchY)
	}
}

// readRTC converts the wall clock into the wire snapshot.
func (c *Companion) readRTC() RTC {
	now := c.clock()
	return RTC{
		Year:    uint8(now.Year() % 100),
		Month:   uint8(now.Month()),
		Day:     uint8(now.Day()),
		Weekday: uint8((int(now.Weekday()) + 6) % 7), // Monday = 0
		Hour:    uint8(now.Hour()),
		Minute:  uint8(now.Minute()),
		Second:  uint8(now.Second()),
	}
}

// vblank applies a deferred backlight change, once per frame at most.
func (c *Companion) vblank() {
	c.mu.Lock()
	if c.newBacklights != c.prevBacklights {
		c.prevBacklights = c.newBacklights
	}
	c.mu.Unlock()
}

// Backlights returns the screens currently lit.
func (c *Companion) Backlights() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prevBacklights
}

// startReset runs the companion's half of the handover: quiesce the
// sound hardware, park the loader just below the host's reset stub,
// wait for bus ownership, then publish the loader's entry point.
func (c *Companion) startReset() {
	c.handover.PrepareCompanionLoader()
	c.handover.AwaitBusOwnership()
	c.handover.PublishCompanionEntry()
}

// ------------------------------------------------------------------------------
// Host-side FIFO handlers
// ------------------------------------------------------------------------------

// companionButtons merges an extended-buttons reply with the host's own
// keypad read. When no touch data is expected the capture is complete
// and the INPUT command is queued immediately.
func (h *Host) companionButtons(ext uint16) {
	var lower uint16
	if h.keypad != nil {
		lower = h.keypad.InputState().Buttons & 0x3FF
	}

	h.irq.Lock()
	h.input.Buttons = lower | ext
	if ext&DS_BUTTON_TOUCH == 0 {
		h.input.TouchX = 0
		h.input.TouchY = 0
		h.addPendingSend(HOST_SEND_INPUT)
	}
	h.irq.Unlock()
	h.irq.Raise()
}

// companionTouch completes a capture with touch coordinates.
func (h *Host) companionTouch(x, y uint8) {
	h.irq.Lock()
	h.input.TouchX = x
	h.input.TouchY = y
	h.addPendingSend(HOST_SEND_INPUT)
	h.irq.Unlock()
	h.irq.Raise()
}

// companionRTC banks a clock reading.
func (h *Host) companionRTC(rtc RTC) {
	h.irq.Lock()
	h.rtc = rtc
	h.addPendingSend(HOST_SEND_RTC)
	h.irq.Unlock()
	h.irq.Raise()
}
