// cart_video_encoding0.go - Raw pixel encoding, cartridge side

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

// Video encoding 0 is uncompressed 16-bit pixels: up to 252 of them per
// reply after the two header words. The end-of-frame flag rides on the
// last packet of each transfer, telling the host to schedule a flip to
// the page named in the header.

package main

const VIDEO_ENC0_MAX_PIXELS = 252

// videoEncoding0Stage encodes the next packet of the given queue entry
// into the stage and returns the number of pixels consumed. Caller
// must hold the hub.
func (c *Cart) videoEncoding0Stage(entry *videoEntry) int {
	pixels := entry.pixelCount
	end := pixels <= VIDEO_ENC0_MAX_PIXELS
	if !end {
		pixels = VIDEO_ENC0_MAX_PIXELS
	}

	c.vidStageHeader1 = packHeader1(DATA_KIND_VIDEO, 0, uint16(pixels*2), false)
	c.vidStageHeader2 = packHeader2(uint16(entry.pixelOffset), entry.engine, entry.buffer, end)

	for i := 0; i < pixels; i++ {
		px := entry.src[i]
		c.vidStageData[i*2] = byte(px)
		c.vidStageData[i*2+1] = byte(px >> 8)
	}
	c.vidStageEngine = entry.engine

	return pixels
}
