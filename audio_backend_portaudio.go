//go:build portaudio && !headless

// audio_backend_portaudio.go - PortAudio audio output implementation

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

// Alternative mixer backend for systems where OTO's device layer
// misbehaves. Select with -tags portaudio and -audio portaudio.
// Same conversion contract as the OTO backend: wire format in, signed
// 16-bit stereo out.

package main

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

type PortAudioOutput struct {
	mu       sync.Mutex
	stream   *portaudio.Stream
	is16bit  bool
	isStereo bool
	pull     func(dst []byte)
	wireBuf  []byte
}

func NewPortAudioOutput() (AudioOutput, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &PortAudioOutput{}, nil
}

func (pa *PortAudioOutput) StreamStart(freq int, is16bit, isStereo bool, pull func(dst []byte)) error {
	pa.StreamStop()

	pa.mu.Lock()
	pa.is16bit = is16bit
	pa.isStereo = isStereo
	pa.pull = pull
	pa.mu.Unlock()

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(freq), portaudio.FramesPerBufferUnspecified, pa.callback)
	if err != nil {
		return err
	}

	pa.mu.Lock()
	pa.stream = stream
	pa.mu.Unlock()
	return stream.Start()
}

func (pa *PortAudioOutput) StreamStop() {
	pa.mu.Lock()
	stream := pa.stream
	pa.stream = nil
	pa.pull = nil
	pa.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
}

func (pa *PortAudioOutput) Close() {
	pa.StreamStop()
	portaudio.Terminate()
}

func (pa *PortAudioOutput) callback(out [][]int16) {
	pa.mu.Lock()
	pull := pa.pull
	is16bit := pa.is16bit
	isStereo := pa.isStereo
	pa.mu.Unlock()

	frames := len(out[0])
	if pull == nil {
		for i := 0; i < frames; i++ {
			out[0][i] = 0
			out[1][i] = 0
		}
		return
	}

	sampleSize := 1
	if is16bit {
		sampleSize *= 2
	}
	if isStereo {
		sampleSize *= 2
	}
	need := frames * sampleSize
	if cap(pa.wireBuf) < need {
		pa.wireBuf = make([]byte, need)
	}
	wire := pa.wireBuf[:need]
	pull(wire)

	for f := 0; f < frames; f++ {
		var left, right int16
		switch {
		case is16bit && isStereo:
			left = int16(uint16(wire[f*4]) | uint16(wire[f*4+1])<<8)
			right = int16(uint16(wire[f*4+2]) | uint16(wire[f*4+3])<<8)
		case is16bit && !isStereo:
			left = int16(uint16(wire[f*2]) | uint16(wire[f*2+1])<<8)
			right = left
		case !is16bit && isStereo:
			left = int16(uint16(wire[f*2])-0x80) << 8
			right = int16(uint16(wire[f*2+1])-0x80) << 8
		default:
			left = int16(uint16(wire[f])-0x80) << 8
			right = left
		}
		out[0][f] = left
		out[1][f] = right
	}
}

func newPortAudioIfBuilt() (AudioOutput, error) { return NewPortAudioOutput() }
