// cart_requests.go - Coalesced control requests to the host

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
cart_requests.go - Cartridge Control Requests

Audio start/stop, screen swap, backlights, sleep, shutdown and reset
all share one coalescing packet: each setter fills its fields and
queues the REQUESTS send; everything accumulated by the time the host
drains the queue travels in a single reply, after which the packet is
cleared - unless it carried the reset flag, in which case the firmware
waits for the wire to drain and takes its reset vector instead.
*/

package main

// SetScreenSwap asks the host to put the Main Screen on the top (true)
// or bottom (false) physical screen.
func (c *Cart) SetScreenSwap(swap bool) {
	c.irq.Lock()
	c.requests.ChangeSwap = true
	c.vidSwap = swap
	c.requests.SwapScreens = swap
	c.addPendingSend(PENDING_SEND_REQUESTS)
	c.irq.Unlock()
}

// SetScreenBacklights asks the host to light only the given screens.
func (c *Cart) SetScreenBacklights(screens Screen) error {
	if screens&^SCREEN_BOTH != 0 {
		return ErrInval
	}

	c.irq.Lock()
	c.requests.ChangeBacklight = true
	c.vidBacklight = screens
	c.requests.ScreenBacklights = screens
	c.addPendingSend(PENDING_SEND_REQUESTS)
	c.irq.Unlock()
	return nil
}

// StartAudio opens an audio stream. The ring holds bufferSize samples;
// submission is allowed once the host acknowledges with
// AUDIO_STATUS(1).
func (c *Cart) StartAudio(frequency uint16, bufferSize uint16, is16bit, isStereo bool) error {
	c.irq.Lock()
	defer c.irq.Unlock()

	// Wait for a previous start request to finish, if any.
	c.irq.AwaitCond(func() bool { return c.sndStatus != AUDIO_STARTING })

	if c.sndStatus == AUDIO_STARTED {
		c.stopAudioLocked()
		// And for the stop to be acknowledged before starting again.
		c.irq.AwaitCond(func() bool { return c.sndStatus != AUDIO_STOPPING })
	}

	c.requests.Is16Bit = is16bit
	c.requests.IsStereo = isStereo
	c.requests.BufferSize = bufferSize

	c.sndSizeShift = 0
	if is16bit {
		c.sndSizeShift++
	}
	if isStereo {
		c.sndSizeShift++
	}

	c.sndSamples = int(bufferSize) + 1
	if c.sndSamples > MAX_AUDIO_BUFFER_SAMPLES {
		c.sndSamples = 0
		return ErrNomem
	}
	c.sndBuffer = make([]byte, c.sndSamples<<c.sndSizeShift)

	c.requests.AudioFreq = frequency
	c.requests.StartAudio = true

	c.sndFreq = frequency
	c.sndRead, c.sndSend, c.sndWrite = 0, 0, 0
	c.sndStatus = AUDIO_STARTING

	c.addPendingSend(PENDING_SEND_REQUESTS)
	return nil
}

// stopAudioLocked is StopAudio minus the starting-state wait. Caller
// must hold the hub.
func (c *Cart) stopAudioLocked() {
	if c.sndStatus != AUDIO_STARTED {
		return
	}
	c.requests.StopAudio = true
	c.sndStatus = AUDIO_STOPPING
	c.sndBuffer = nil
	c.removePendingSend(PENDING_SEND_AUDIO)
	c.addPendingSend(PENDING_SEND_REQUESTS)
}

// StopAudio closes the audio stream. The ring is released immediately;
// the state machine settles to STOPPED on the host's AUDIO_STATUS(0).
func (c *Cart) StopAudio() {
	c.irq.Lock()
	c.irq.AwaitCond(func() bool { return c.sndStatus != AUDIO_STARTING })
	c.stopAudioLocked()
	c.irq.Unlock()
}

// RequestHostReset asks the host to reboot into a new program. The
// request packet is sent like any other; the firmware resets itself as
// the packet leaves the wire.
func (c *Cart) RequestHostReset() {
	c.irq.Lock()
	c.requests.Reset = true
	c.addPendingSend(PENDING_SEND_REQUESTS)
	c.irq.Unlock()
}

// RequestSleep asks the host to put the console to sleep.
func (c *Cart) RequestSleep() {
	c.irq.Lock()
	c.requests.Sleep = true
	c.addPendingSend(PENDING_SEND_REQUESTS)
	c.irq.Unlock()
}

// RequestShutdown asks the host to power the console off.
func (c *Cart) RequestShutdown() {
	c.irq.Lock()
	c.requests.Shutdown = true
	c.addPendingSend(PENDING_SEND_REQUESTS)
	c.irq.Unlock()
}

// sendRequests answers one SEND_QUEUE with the accumulated request
// packet. Caller must hold the hub.
func (c *Cart) sendRequests() {
	for i := range c.temp {
		c.temp[i] = 0
	}
	putWord(c.temp[0:], packHeader1(DATA_KIND_REQUESTS, 0, REQUESTS_WIRE_LEN, false))
	encodeRequests(&c.requests, c.temp[4:])

	if c.requests.Reset {
		// The reset request is about to leave. Wait for it to be fully
		// sent, then take our own reset vector immediately.
		c.sendReply(c.temp[:512])
		c.reset()
	} else {
		c.requests = Requests{}
		c.sendReply(c.temp[:512])
	}
}
