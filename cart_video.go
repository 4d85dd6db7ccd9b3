// cart_video.go - Cartridge video page set, transfer queue and screen API

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
cart_video.go - Cartridge Video Subsystem

Three Main Screen pages support triple buffering; the Sub Screen has a
single page. A small in-order queue holds screen transfers in flight;
each entry remembers the busy flag of the page it is draining so the
flag can be cleared the moment the last pixels have been captured for
the wire.

Back-pressure rules on enqueue, in order:

 1. Wait until the target page's busy flag clears - a page is busy from
    the moment any of its pixels are handed to the wire until the whole
    transfer has been staged.
 2. Flip after flip: wait until the host is no longer displaying the
    page about to be filled, or the new frame would tear on screen.
 3. Update after a flip history: wait until the host displays the page
    just before this one, so the update is not hidden for two VBlanks.

The first packet of every transfer is staged immediately on enqueue so
it is ready the moment the host asks.
*/

package main

import "errors"

// POSIX-flavoured API errors.
var (
	ErrInval = errors.New("invalid argument")
	ErrNomem = errors.New("out of memory")
	ErrFault = errors.New("bad state")
)

// videoEnqueue validates and queues a screen transfer, blocking for the
// back-pressure rules above. flip is only meaningful for the Main
// engine.
func (c *Cart) videoEnqueue(engine Engine, startY, endY int, flip bool) error {
	if startY == endY {
		return nil
	}
	if (engine != ENGINE_MAIN && engine != ENGINE_SUB) ||
		(engine == ENGINE_SUB && flip) ||
		startY < 0 || startY >= SCREEN_HEIGHT || endY > SCREEN_HEIGHT || startY > endY {
		return ErrInval
	}

	c.irq.Lock()
	defer c.irq.Unlock()

	var busy *bool
	var src []uint16

	if engine == ENGINE_MAIN {
		busy = &c.vidMainBusy[c.vidCurrent]
		// Wait for any transfer of this very page to end.
		c.irq.AwaitCond(func() bool { return !*busy })
		src = c.vidMain[c.vidCurrent]

		if flip && c.vidLastFlip {
			// Multiple buffering, and the host may still be showing the
			// page we are about to send. Do not overwrite what is on
			// screen. If the previous operation was not a flip the host
			// is obviously displaying the page we want to flip to, and
			// no wait applies.
			c.irq.AwaitCond(func() bool { return c.vidDisplayed != c.vidCurrent })
		} else if !flip && c.vidLastFlip {
			// Updating in place after a flip history: wait until the
			// host shows the page just before ours, or this update
			// would stay hidden for the next two VBlanks.
			c.irq.AwaitCond(func() bool {
				return (int(c.vidDisplayed)+1)%MAIN_BUFFER_COUNT == int(c.vidCurrent)
			})
		}
	} else {
		busy = &c.vidSubBusy
		c.irq.AwaitCond(func() bool { return !*busy })
		src = c.vidSub
	}

	entry := videoEntry{
		src:         src[SCREEN_WIDTH*startY:],
		engine:      engine,
		buffer:      0,
		pixelOffset: SCREEN_WIDTH * startY,
		pixelCount:  SCREEN_WIDTH * (endY - startY),
		busy:        busy,
	}
	if engine == ENGINE_MAIN {
		entry.buffer = c.vidCurrent
	}

	c.vidQueue = append(c.vidQueue, entry)
	*busy = true

	if flip {
		c.vidCurrent = (c.vidCurrent + 1) % MAIN_BUFFER_COUNT
	}
	if engine == ENGINE_MAIN {
		c.vidLastFlip = flip
	}

	// Stage the first packet straight away if nothing is staged.
	c.videoStageNext()

	return nil
}

// videoStageNext encodes the next packet of the queue head into the
// stage and queues the VIDEO send. On the final packet of an entry the
// pixels are copied out, the page's busy flag is cleared and the entry
// is popped, so the application may resume writing to the page at once.
// Caller must hold the hub.
func (c *Cart) videoStageNext() {
	if c.vidStageValid || len(c.vidQueue) == 0 {
		return
	}

	head := &c.vidQueue[0]
	taken := c.videoEncoding0Stage(head)

	head.src = head.src[taken:]
	head.pixelOffset += taken
	head.pixelCount -= taken

	if head.pixelCount == 0 {
		*head.busy = false
		c.vidQueue = append(c.vidQueue[:0], c.vidQueue[1:]...)
	}

	c.vidStageValid = true
	c.addPendingSend(PENDING_SEND_VIDEO)
}

// videoFlushStage answers one SEND_QUEUE with the staged packet, then
// stages the next one. Caller must hold the hub.
func (c *Cart) videoFlushStage() {
	if !c.vidStageValid {
		return
	}

	c.sendReply4(c.vidStageHeader1)
	c.sendReply4(c.vidStageHeader2)
	c.sendVideoReply(c.vidStageData[:], c.vidStageEngine)

	c.vidStageValid = false
	c.videoStageNext()
}

// ------------------------------------------------------------------------------
// Application surface
// ------------------------------------------------------------------------------

// UseVideoCompression selects whether negotiated compressed encodings
// may be used for screen transfers. With both ends at encoding 0 the
// raw encoding is used either way.
func (c *Cart) UseVideoCompression(compress bool) {
	c.irq.Lock()
	c.vidCompress = compress
	c.irq.Unlock()
}

// FillScreen paints the engine's current page with a solid colour,
// waiting first for any transfer of that page to finish.
func (c *Cart) FillScreen(engine Engine, color uint16) error {
	if engine != ENGINE_MAIN && engine != ENGINE_SUB {
		return ErrInval
	}

	c.irq.Lock()
	var buf []uint16
	if engine == ENGINE_MAIN {
		busy := &c.vidMainBusy[c.vidCurrent]
		c.irq.AwaitCond(func() bool { return !*busy })
		buf = c.vidMain[c.vidCurrent]
	} else {
		c.irq.AwaitCond(func() bool { return !c.vidSubBusy })
		buf = c.vidSub
	}
	c.irq.Unlock()

	for i := range buf {
		buf[i] = color
	}
	return nil
}

// UpdateScreen sends the engine's current page without flipping.
func (c *Cart) UpdateScreen(engine Engine) error {
	return c.videoEnqueue(engine, 0, SCREEN_HEIGHT, false)
}

// FlipMainScreen sends the current Main page and flips to the next.
func (c *Cart) FlipMainScreen() error {
	return c.videoEnqueue(ENGINE_MAIN, 0, SCREEN_HEIGHT, true)
}

// UpdateScreenPart sends rows startY up to but not including endY.
func (c *Cart) UpdateScreenPart(engine Engine, startY, endY int) error {
	return c.videoEnqueue(engine, startY, endY, false)
}

// FlipMainScreenPart sends part of the current Main page, then flips.
func (c *Cart) FlipMainScreenPart(startY, endY int) error {
	return c.videoEnqueue(ENGINE_MAIN, startY, endY, true)
}

// AwaitScreenUpdate blocks until the given engines' current pages are
// no longer being transferred.
func (c *Cart) AwaitScreenUpdate(engine Engine) error {
	if engine&^ENGINE_BOTH != 0 {
		return ErrInval
	}

	c.irq.Lock()
	defer c.irq.Unlock()

	if engine&ENGINE_MAIN != 0 {
		c.irq.AwaitCond(func() bool { return !c.vidMainBusy[c.vidCurrent] })
	}
	if engine&ENGINE_SUB != 0 {
		c.irq.AwaitCond(func() bool { return !c.vidSubBusy })
	}
	return nil
}

// GetMainScreen returns the Main page currently accepting writes. The
// pointer is only stable until the next FlipMainScreen.
func (c *Cart) GetMainScreen() []uint16 {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.vidMain[c.vidCurrent]
}

// GetSubScreen returns the Sub Screen page.
func (c *Cart) GetSubScreen() []uint16 {
	return c.vidSub
}

// GetScreen returns the page for the given engine, or nil.
func (c *Cart) GetScreen(engine Engine) []uint16 {
	switch engine {
	case ENGINE_MAIN:
		return c.GetMainScreen()
	case ENGINE_SUB:
		return c.vidSub
	}
	return nil
}

// GetPixelFormat returns the engine's in-memory pixel format.
func (c *Cart) GetPixelFormat(engine Engine) PixelFormat {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.vidFormats[engine-1]
}

// SetPixelFormat selects BGR555 or RGB555 for the given engines. The
// wire fixup converts at transfer time; no in-memory swizzle happens.
func (c *Cart) SetPixelFormat(engine Engine, format PixelFormat) error {
	if (format != PIXEL_FORMAT_BGR555 && format != PIXEL_FORMAT_RGB555) ||
		engine&^ENGINE_BOTH != 0 {
		return ErrInval
	}

	c.irq.Lock()
	if engine&ENGINE_MAIN != 0 {
		c.vidFormats[ENGINE_MAIN-1] = format
	}
	if engine&ENGINE_SUB != 0 {
		c.vidFormats[ENGINE_SUB-1] = format
	}
	c.irq.Unlock()
	return nil
}

// GetScreenSwap reports whether the Main Screen is on the top screen.
func (c *Cart) GetScreenSwap() bool {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.vidSwap
}

// GetScreenBacklights returns the screens whose backlights are on.
func (c *Cart) GetScreenBacklights() Screen {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.vidBacklight
}
