// cart_audio.go - Cartridge audio ring and submission API

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
cart_audio.go - Cartridge Audio Subsystem

One ring buffer, three indices. The write index belongs to the
application, the send index to the wire scheduler, the read index to
the host's consumption acknowledgements. Capacity is the requested
sample count plus one so an empty ring (read == write) can never look
full.

The sample size in bytes is 1 << shift, with shift = is16bit + stereo.

Lifecycle: STOPPED -> STARTING on StartAudio (the request packet asks
the host to open its mixer), STARTING -> STARTED only on the host's
AUDIO_STATUS(1), STARTED -> STOPPING on StopAudio, STOPPING -> STOPPED
on AUDIO_STATUS(0). Submission never runs ahead of the host's mixer.
*/

package main

func addWrapFast(index, increment, bufferSize int) int {
	index += increment
	if index >= bufferSize {
		index -= bufferSize
	}
	return index
}

// GetFreeAudioSamples returns how many samples can be submitted without
// waiting for the host to consume.
func (c *Cart) GetFreeAudioSamples() int {
	c.irq.Lock()
	defer c.irq.Unlock()

	if c.sndBuffer == nil {
		return 0
	}
	if c.sndRead > c.sndWrite {
		return c.sndRead - c.sndWrite - 1
	}
	return c.sndSamples - (c.sndWrite - c.sndRead) - 1
}

// audioDequeue answers one SEND_QUEUE with a slice of the ring, then
// re-queues itself while unsent samples remain. Caller must hold the
// hub.
func (c *Cart) audioDequeue() {
	taken := c.audioEncoding0(c.sndSend, c.sndWrite)
	c.sndSend = addWrapFast(c.sndSend, taken, c.sndSamples)

	if c.sndSend != c.sndWrite {
		c.addPendingSend(PENDING_SEND_AUDIO)
	}
}

// audioConsumed advances the read index by the host's acknowledged
// sample count, waking any producer parked on a full ring. Caller must
// hold the hub.
func (c *Cart) audioConsumed(samples int) {
	c.sndRead = addWrapFast(c.sndRead, samples, c.sndSamples)
}

// SubmitAudio copies n samples into the ring, blocking while the ring
// is full. It fails with ErrFault once the stream is not started.
func (c *Cart) SubmitAudio(data []byte, n int) error {
	c.irq.Lock()
	defer c.irq.Unlock()

	// Wait until the audio is fully started before submitting samples.
	c.irq.AwaitCond(func() bool { return c.sndStatus != AUDIO_STARTING })

	if c.sndStatus != AUDIO_STARTED {
		return ErrFault
	}

	for n > 0 {
		sndRead, sndWrite := c.sndRead, c.sndWrite

		var transfer int
		if sndWrite >= sndRead {
			transfer = c.sndSamples - sndWrite
			if sndRead == 0 {
				transfer-- // keep the 1-sample gap when wrapping
			}
		} else {
			transfer = sndRead - sndWrite - 1
		}
		if transfer > n {
			transfer = n
		}

		if transfer > 0 {
			copy(c.sndBuffer[sndWrite<<c.sndSizeShift:],
				data[:transfer<<c.sndSizeShift])
			data = data[transfer<<c.sndSizeShift:]
			n -= transfer
			c.sndWrite = addWrapFast(sndWrite, transfer, c.sndSamples)
			c.addPendingSend(PENDING_SEND_AUDIO)
		} else {
			c.irq.AwaitCond(func() bool { return c.sndRead != sndRead })
		}
	}
	return nil
}
