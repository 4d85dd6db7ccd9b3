// host_audio.go - Host audio ring, mixer hand-off and audio reception

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
host_audio.go - Host Audio Subsystem

The host mirrors the cartridge's ring: the bus interrupt fills it from
audio replies, the audio backend's pull callback drains it. The pull
zero-fills whatever the ring cannot cover so the mixer never starves,
counts every drained sample, and queues the AUDIO_CONSUMED
acknowledgement that lets the cartridge's producer advance.

An audio reply that would wrap the write index past the read index is
a fatal link error: after the wrap the ring would look empty and a
buffer's worth of audio would vanish, so the overrun is caught here
instead.

Start and stop always queue AUDIO_STATUS. The cartridge holds its
stream in STARTING or STOPPING until the acknowledgement arrives, which
is what makes submission safe against a mixer that is still opening.
*/

package main

// audioStart opens the mixer stream and the host ring. Runs on the
// command loop.
func (h *Host) audioStart(freq uint16, bufferSize uint16, is16bit, isStereo bool) {
	h.irq.Lock()
	if h.audioStarted {
		h.irq.Unlock()
		h.audioStop()
		h.irq.Lock()
	}

	h.audioShift = 0
	if is16bit {
		h.audioShift++
	}
	if isStereo {
		h.audioShift++
	}
	h.audioSamples = int(bufferSize) + 1
	h.audioBuffer = make([]byte, h.audioSamples<<h.audioShift)
	h.audioRead = 0
	h.audioWrite = 0
	h.audioConsumed = 0
	h.audioFreq = freq
	h.audioStarted = true
	h.addPendingSend(HOST_SEND_AUDIO_STATUS)
	h.irq.Unlock()
	h.irq.Raise()

	if h.audioOut != nil {
		if err := h.audioOut.StreamStart(int(freq), is16bit, isStereo, h.audioPull); err != nil && h.log != nil {
			h.log.Error("audio backend start failed", "err", err)
		}
	}
}

// audioStop closes the mixer stream and releases the ring.
func (h *Host) audioStop() {
	if h.audioOut != nil {
		h.audioOut.StreamStop()
	}

	h.irq.Lock()
	if !h.audioStarted {
		h.irq.Unlock()
		return
	}
	h.audioStarted = false
	h.audioBuffer = nil
	h.audioConsumed = 0
	h.pendingSends &^= HOST_SEND_AUDIO_CONSUMED
	h.addPendingSend(HOST_SEND_AUDIO_STATUS)
	h.irq.Unlock()
	h.irq.Raise()
}

// audioPull drains up to len(dst) bytes of samples into dst,
// zero-filling the rest. It is the audio backend's callback and may run
// on any goroutine.
func (h *Host) audioPull(dst []byte) {
	h.irq.Lock()
	defer func() {
		h.irq.Unlock()
		h.irq.Raise()
	}()

	if !h.audioStarted {
		for i := range dst {
			dst[i] = 0
		}
		return
	}

	length := len(dst) >> h.audioShift
	samples := 0

	if h.audioRead < h.audioWrite {
		samples = h.audioWrite - h.audioRead
		if samples > length {
			samples = length
		}
		copy(dst, h.audioBuffer[h.audioRead<<h.audioShift:(h.audioRead+samples)<<h.audioShift])
		h.addPendingSend(HOST_SEND_AUDIO_CONSUMED)
	} else if h.audioRead > h.audioWrite {
		samples = h.audioSamples - (h.audioRead - h.audioWrite)
		if samples > length {
			samples = length
		}
		samplesA := h.audioSamples - h.audioRead
		if samplesA > length {
			samplesA = length
		}
		if samplesA > samples {
			samplesA = samples
		}
		samplesB := samples - samplesA

		copy(dst, h.audioBuffer[h.audioRead<<h.audioShift:(h.audioRead+samplesA)<<h.audioShift])
		copy(dst[samplesA<<h.audioShift:], h.audioBuffer[:samplesB<<h.audioShift])
		h.addPendingSend(HOST_SEND_AUDIO_CONSUMED)
	}

	h.audioRead = addWrapFast(h.audioRead, samples, h.audioSamples)
	h.audioConsumed += uint16(samples)

	for i := samples << h.audioShift; i < len(dst); i++ {
		dst[i] = 0
	}
}

// receiveAudio handles one audio reply: whole samples only, no
// overruns, then into the ring.
func (h *Host) receiveAudio(header1 uint32, encoding uint8) {
	if encoding != 0 {
		h.fatalLinkError("cartridge sent audio data using unsupported encoding %d", encoding)
	}

	_, _, byteCount, _ := unpackHeader1(header1)
	bytes := int(byteCount)

	h.irq.Lock()
	started := h.audioStarted
	shift := h.audioShift
	h.irq.Unlock()

	if !started {
		h.fatalLinkError("cartridge sent audio data while audio is stopped")
	}
	if bytes&((1<<shift)-1) != 0 {
		h.fatalLinkError("audio encoding 0 data is not a whole number of samples\n\nsize received: %d\nsample size: %d", bytes, 1<<shift)
	}
	samples := bytes >> shift

	h.cardReadData((bytes+3)&^3, h.scratch[:], false)
	h.cardIgnoreReply()

	h.irq.Lock()
	defer func() {
		h.irq.Unlock()
		h.irq.Raise()
	}()

	srcSample := 0
	for samples > 0 {
		transfer := h.audioSamples - h.audioWrite
		if transfer > samples {
			transfer = samples
		}
		if (h.audioRead == 0 && h.audioWrite+transfer == h.audioSamples) ||
			(h.audioRead != 0 && h.audioWrite < h.audioRead &&
				h.audioWrite+transfer >= h.audioRead) {
			h.fatalLinkError("cartridge sent enough audio to cause a buffer overrun that behaves like an underrun")
		}

		copy(h.audioBuffer[h.audioWrite<<shift:],
			h.scratch[srcSample<<shift:(srcSample+transfer)<<shift])
		srcSample += transfer
		h.audioWrite = addWrapFast(h.audioWrite, transfer, h.audioSamples)
		samples -= transfer
	}
}
