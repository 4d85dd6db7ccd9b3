// host_requests.go - Processing the cartridge's control requests

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

// One requests reply can carry any mix of audio start/stop, screen
// swap, backlight, sleep, shutdown and reset. Reset wins: after audio
// is stopped and the companion told to quiesce, the host hands the bus
// over and soft-resets; nothing after the reset flag is looked at.

package main

// receiveRequests handles one requests reply.
func (h *Host) receiveRequests() {
	h.cardReadData(508, h.scratch[:], true)
	requests := decodeRequests(h.scratch[:REQUESTS_WIRE_LEN])

	if requests.StopAudio || requests.Reset {
		h.audioStop()
	}
	if requests.StartAudio {
		h.audioStart(requests.AudioFreq, requests.BufferSize,
			requests.Is16Bit, requests.IsStereo)
	}
	if requests.ChangeSwap {
		h.irq.Lock()
		h.setPendingSwap(requests.SwapScreens)
		h.irq.Unlock()
	}

	if requests.Reset {
		h.resetSequence()
		return
	}

	if requests.ChangeBacklight && h.companion != nil {
		h.companion.SetBacklight(requests.ScreenBacklights)
	}
	if requests.Sleep && h.onSleep != nil {
		h.onSleep()
	}
	if requests.Shutdown && h.onShutdown != nil {
		h.onShutdown()
	}
}
