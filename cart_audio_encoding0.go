// cart_audio_encoding0.go - Raw sample encoding, cartridge side

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

// Audio encoding 0 is uncompressed PCM: up to 508 >> shift samples per
// reply after the single header word, taken from the ring in at most
// two runs when the slice wraps the capacity boundary.

package main

// audioEncoding0 assembles one audio reply covering the ring between
// sndSend and sndWrite and returns the number of samples taken. Caller
// must hold the hub.
func (c *Cart) audioEncoding0(sndSend, sndWrite int) int {
	maxSamples := 508 >> c.sndSizeShift
	var samples int

	if sndSend < sndWrite {
		samples = sndWrite - sndSend
		if samples > maxSamples {
			samples = maxSamples
		}
		copy(c.temp[4:], c.sndBuffer[sndSend<<c.sndSizeShift:(sndSend+samples)<<c.sndSizeShift])
	} else {
		samples = c.sndSamples - (sndSend - sndWrite)
		if samples > maxSamples {
			samples = maxSamples
		}
		samplesA := c.sndSamples - sndSend
		if samplesA > maxSamples {
			samplesA = maxSamples
		}
		if samplesA > samples {
			samplesA = samples
		}
		samplesB := samples - samplesA

		copy(c.temp[4:], c.sndBuffer[sndSend<<c.sndSizeShift:(sndSend+samplesA)<<c.sndSizeShift])
		copy(c.temp[4+(samplesA<<c.sndSizeShift):], c.sndBuffer[:samplesB<<c.sndSizeShift])
	}

	putWord(c.temp[0:], packHeader1(DATA_KIND_AUDIO, 0, uint16(samples<<c.sndSizeShift), false))
	c.sendReply(c.temp[:512])

	return samples
}
