// host_video.go - Host video memory, page flips and video reception

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
host_video.go - Host Video Subsystem

Incoming video replies are validated hard - out-of-screen offsets, odd
pixel alignment, multiple buffering on the Sub Screen or quadruple
buffering on the Main Screen are all fatal link errors - then written
straight into video memory.

An end-of-frame packet for a Main page schedules a flip; flips are
applied one per VBlank, in order, and each applied flip queues the
VIDEO_DISPLAYED acknowledgement that drives the cartridge's
back-pressure. A flip to the page data was last received for is
dropped, so two frames sent for the same page cost only one flip even
if the first was never shown.

Screen swap requests are likewise deferred to the VBlank so neither
screen tears.
*/

package main

// addPendingFlip schedules a flip to the given Main page at a coming
// VBlank. Caller must hold the hub.
func (h *Host) addPendingFlip(buffer uint8) {
	if buffer != h.vidMainLast && len(h.pendingFlips) < cap(h.pendingFlips) {
		h.pendingFlips = append(h.pendingFlips, buffer)
		h.vidMainLast = buffer
	}
}

// applyPendingFlip shows the next scheduled page and queues the
// displayed acknowledgement. Caller must hold the hub.
func (h *Host) applyPendingFlip() {
	if len(h.pendingFlips) == 0 {
		return
	}
	h.vidDisplayed = h.pendingFlips[0]
	h.pendingFlips = append(h.pendingFlips[:0], h.pendingFlips[1:]...)
	h.addPendingSend(HOST_SEND_VIDEO_DISPLAYED)
}

// setPendingSwap defers a screen swap to the next VBlank. Caller must
// hold the hub.
func (h *Host) setPendingSwap(swap bool) {
	h.newSwapState = swap
	h.pendingSwap = true
}

// applyPendingSwap performs a deferred swap. Caller must hold the hub.
func (h *Host) applyPendingSwap() {
	if h.pendingSwap {
		h.pendingSwap = false
		h.swapped = h.newSwapState
	}
}

// setSubGraphics and setSubText switch the Sub Screen between the
// graphics page and the text console.
func (h *Host) setSubGraphics() {
	h.irq.Lock()
	h.subGraphics = true
	h.irq.Unlock()
}

func (h *Host) setSubText() {
	h.irq.Lock()
	h.subGraphics = false
	h.irq.Unlock()
}

// receiveVideo handles one video reply: validation, then the encoding.
func (h *Host) receiveVideo(header1 uint32, encoding uint8) {
	header2 := h.cardReadWord(false)
	pixelOffset, engine, buffer, endFrame := unpackHeader2(header2)
	isMain := engine == ENGINE_MAIN

	if int(pixelOffset) >= SCREEN_PIXELS {
		h.fatalLinkError("cartridge sent video data that exceeds screen boundaries")
	} else if pixelOffset&1 != 0 {
		// 4-byte alignment is required to write words straight into
		// video memory.
		h.fatalLinkError("cartridge sent video data that does not start on an even pixel")
	} else if !isMain && buffer != 0 {
		h.fatalLinkError("cartridge attempted to use multiple buffering on the Sub Screen")
	} else if isMain && buffer > 2 {
		h.fatalLinkError("cartridge attempted to use quadruple buffering on the Main Screen")
	}

	if !isMain {
		h.setSubGraphics()
	}

	maxPixels := SCREEN_PIXELS - int(pixelOffset)

	var dest []uint16
	if isMain {
		dest = h.vram[buffer][pixelOffset:]
	} else {
		dest = h.vramSub[pixelOffset:]
	}

	switch encoding {
	case 0:
		h.videoEncoding0(header1, dest, maxPixels)
	default:
		h.fatalLinkError("cartridge sent video data using unsupported encoding %d", encoding)
	}

	if isMain && endFrame {
		h.irq.Lock()
		h.addPendingFlip(buffer)
		h.irq.Unlock()
	}
}

// videoEncoding0 reads raw pixels off the bus and lands them in video
// memory. The bus words are collected first and committed under the
// hub in one go, so a frontend snapshotting the frame never sees a
// torn scanline.
func (h *Host) videoEncoding0(header1 uint32, dest []uint16, maxPixels int) {
	_, _, byteCount, _ := unpackHeader1(header1)
	bytes := int(byteCount)

	if bytes&1 != 0 {
		h.fatalLinkError("video encoding 0 data is not an even number of bytes\n\nsize received: %d", bytes)
	}
	if bytes > maxPixels*2 {
		h.fatalLinkError("video encoding 0 data is not fully inside the screen\n\n%d extra uncompressed bytes", bytes-maxPixels*2)
	}

	h.cardReadData((bytes+3)&^3, h.scratch[:], false)
	h.cardIgnoreReply()

	h.irq.Lock()
	for i := 0; i < bytes/2; i++ {
		dest[i] = uint16(h.scratch[i*2]) | uint16(h.scratch[i*2+1])<<8
	}
	h.irq.Unlock()
}

// DisplayedMainPage returns the index of the Main page on screen.
func (h *Host) DisplayedMainPage() uint8 {
	h.irq.Lock()
	defer h.irq.Unlock()
	return h.vidDisplayed
}

// Swapped reports whether the Main Screen is on the top screen.
func (h *Host) Swapped() bool {
	h.irq.Lock()
	defer h.irq.Unlock()
	return h.swapped
}

// SubTextMode reports whether the Sub Screen shows the text console.
func (h *Host) SubTextMode() bool {
	h.irq.Lock()
	defer h.irq.Unlock()
	return !h.subGraphics
}

// MainFrame copies the displayed Main page for a frontend.
func (h *Host) MainFrame(dst []uint16) {
	h.irq.Lock()
	copy(dst, h.vram[h.vidDisplayed])
	h.irq.Unlock()
}

// SubFrame copies the Sub page for a frontend.
func (h *Host) SubFrame(dst []uint16) {
	h.irq.Lock()
	copy(dst, h.vramSub)
	h.irq.Unlock()
}
