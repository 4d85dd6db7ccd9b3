// cart_protocol.go - Cartridge-side protocol handlers and send queue

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
cart_protocol.go - Cartridge Protocol State Machine

Three handlers, advanced in order over the life of the link:

    linkEstablishmentProtocol - answers HELLO with the magic word, the
        supported encodings, the extension bits and the end-sync
        pattern, then clamps encodings to the pairwise minimum.
    pendingRecvProtocol - absorbs the first INPUT and RTC commands; once
        both have arrived the link is established.
    mainProtocol - the full command set, including SEND_QUEUE.

The send queue is one 32-bit bitset. Adding to an empty set pulses the
card-request line and arms the END bit, because every non-empty batch
must finish with an END-marked reply. Extraction takes the lowest set
bit; priorities are encoded in the bit positions.

All of this runs inside the command dispatcher with the hub locked, or
in API code inside a critical section.
*/

package main

// addPendingSend ORs bits into the send queue. On the empty-to-busy
// transition it pulses the card line and arms the END bit. Caller must
// hold the hub.
func (c *Cart) addPendingSend(mask uint32) {
	if c.pendingSends == 0 && mask != 0 {
		// Nothing was queued, now something is. Let the host know; it
		// will send commands to fetch the data. The line returns low
		// immediately: the interrupt is edge-triggered on the host.
		c.bridge.PulseCardLine()
		c.pendingSends = mask | PENDING_SEND_END
	} else {
		c.pendingSends |= mask
	}
}

// removePendingSend clears bits from the send queue. Caller must hold
// the hub.
func (c *Cart) removePendingSend(mask uint32) {
	c.pendingSends &^= mask
}

// takePendingSend extracts the lowest set bit, which is the highest
// send priority. Caller must hold the hub.
func (c *Cart) takePendingSend() uint32 {
	sends := c.pendingSends
	result := sends & (^sends + 1)
	c.pendingSends = sends &^ result
	return result
}

// sendReply4 pushes a 4-byte reply as two half-word writes.
func (c *Cart) sendReply4(reply uint32) {
	c.bridge.WriteHalf(uint16(reply))
	c.bridge.WriteHalf(uint16(reply >> 16))
}

// sendReply pushes a full reply frame through the DMA fast path.
func (c *Cart) sendReply(reply []byte) {
	c.bridge.WriteReply(reply)
}

// sendVideoReply pushes pixel payload with the wire fixup enabled: the
// high bit of every half-word is set so the host does not treat the
// pixels as transparent, and RGB555 sources get their red and blue
// components exchanged.
func (c *Cart) sendVideoReply(reply []byte, engine Engine) {
	ctrl := uint16(FPGA_CTR_FPGA_MODE | FPGA_CTR_FIX_VIDEO_EN)
	if c.vidFormats[engine-1] == PIXEL_FORMAT_RGB555 {
		ctrl |= FPGA_CTR_FIX_VIDEO_RGB_EN
	}
	c.bridge.SetControl(ctrl)
	c.bridge.WriteReply(reply)
}

// sendEnd emits the final frame of a drain cycle: kind NONE, END set.
func (c *Cart) sendEnd() {
	h := packHeader1(DATA_KIND_NONE, 0, 0, true)
	for i := range c.temp {
		c.temp[i] = 0
	}
	putWord(c.temp[0:], h)
	c.sendReply(c.temp[:512])
}

func putWord(dst []byte, w uint32) {
	dst[0] = byte(w)
	dst[1] = byte(w >> 8)
	dst[2] = byte(w >> 16)
	dst[3] = byte(w >> 24)
}

// linkEstablishmentProtocol waits for HELLO and answers it.
func (c *Cart) linkEstablishmentProtocol(cmd CardCommand) {
	if cmd[0] != CMD_HELLO {
		return
	}

	c.bridge.StartReply()
	c.sendReply(encodeHelloReply(VIDEO_ENCODINGS_SUPPORTED, AUDIO_ENCODINGS_SUPPORTED, true))

	hostVideo, hostAudio := helloCommandEncodings(cmd)
	c.vidEncodings = VIDEO_ENCODINGS_SUPPORTED
	if hostVideo < c.vidEncodings {
		c.vidEncodings = hostVideo
	}
	c.sndEncodings = AUDIO_ENCODINGS_SUPPORTED
	if hostAudio < c.sndEncodings {
		c.sndEncodings = hostAudio
	}

	c.linkStatus = CART_LINK_PENDING_RECV
	c.protocol = c.pendingRecvProtocol
}

// pendingRecvProtocol absorbs the initial INPUT and RTC deliveries.
func (c *Cart) pendingRecvProtocol(cmd CardCommand) {
	c.bridge.StartReply()

	switch cmd[0] {
	case CMD_RTC:
		c.sendReply4(0)
		c.rtc = rtcCommandData(cmd)
		c.pendingRecvs &^= PENDING_RECV_RTC

	case CMD_INPUT:
		c.sendReply4(0)
		c.inState = inputCommandState(cmd)
		c.pendingRecvs &^= PENDING_RECV_INPUT

	default:
		// A command racing the establishment drain still gets its
		// reply, or the host's FIFO would desynchronise.
		c.sendReply4(0)
	}

	if c.pendingRecvs == 0 {
		c.linkStatus = CART_LINK_ESTABLISHED
		c.protocol = c.mainProtocol
	}
}

// mainProtocol handles the full command set once the link is up.
func (c *Cart) mainProtocol(cmd CardCommand) {
	c.bridge.StartReply()

	switch cmd[0] {
	case CMD_RTC:
		c.sendReply4(0)
		c.rtc = rtcCommandData(cmd)

	case CMD_INPUT:
		c.sendReply4(0)
		c.mergeInput(inputCommandState(cmd))

	case CMD_VBLANK:
		c.sendReply4(0)
		c.vblankCount++

	case CMD_VIDEO_DISPLAYED:
		c.sendReply4(0)
		c.vidDisplayed = videoDisplayedIndex(cmd)

	case CMD_AUDIO_CONSUMED:
		c.sendReply4(0)
		c.audioConsumed(int(audioConsumedCount(cmd)))

	case CMD_AUDIO_STATUS:
		c.sendReply4(0)
		if audioStatusStarted(cmd) {
			c.sndStatus = AUDIO_STARTED
		} else {
			c.sndStatus = AUDIO_STOPPED
		}

	case CMD_SEND_QUEUE:
		switch c.takePendingSend() {
		case PENDING_SEND_EXCEPTION:
			c.sendException()
		case PENDING_SEND_ASSERT:
			c.sendAssert()
		case PENDING_SEND_REQUESTS:
			c.sendRequests()
		case PENDING_SEND_AUDIO:
			c.audioDequeue()
		case PENDING_SEND_TEXT:
			c.textDequeue()
		case PENDING_SEND_VIDEO:
			c.videoFlushStage()
		case PENDING_SEND_END:
			c.sendEnd()
		}

	default:
		c.sendReply4(0)
	}
}
