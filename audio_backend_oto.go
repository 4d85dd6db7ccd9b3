//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

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
audio_backend_oto.go - OTO Audio Backend

OTO owns one process-wide context at a fixed format, so the backend
converts from the stream's wire format (unsigned 8-bit or signed
16-bit, mono or stereo) to signed 16-bit stereo at the context rate on
the way through. The player pulls: its Read calls the host's callback
for wire-format samples and widens them in place.

A stream restart with a new frequency opens a new context; OTO cannot
change an existing context's rate. The small gap this opens is
inaudible next to the cartridge's own start/stop handshake.
*/

package main

import (
	"sync"

	"github.com/ebitengine/oto/v3"
)

type OtoOutput struct {
	mu       sync.Mutex
	ctx      *oto.Context
	player   *oto.Player
	freq     int
	is16bit  bool
	isStereo bool
	pull     func(dst []byte)
	wireBuf  []byte
}

func NewOtoOutput() (AudioOutput, error) {
	return &OtoOutput{}, nil
}

func (o *OtoOutput) StreamStart(freq int, is16bit, isStereo bool, pull func(dst []byte)) error {
	o.StreamStop()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx == nil || o.freq != freq {
		op := &oto.NewContextOptions{
			SampleRate:   freq,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			return err
		}
		<-ready
		o.ctx = ctx
		o.freq = freq
	}

	o.is16bit = is16bit
	o.isStereo = isStereo
	o.pull = pull
	o.player = o.ctx.NewPlayer(o)
	o.player.Play()
	return nil
}

func (o *OtoOutput) StreamStop() {
	o.mu.Lock()
	player := o.player
	o.player = nil
	o.pull = nil
	o.mu.Unlock()

	if player != nil {
		player.Close()
	}
}

func (o *OtoOutput) Close() {
	o.StreamStop()
	o.mu.Lock()
	ctx := o.ctx
	o.ctx = nil
	o.mu.Unlock()
	if ctx != nil {
		// OTO contexts cannot be destroyed; suspending parks the mixer
		// thread.
		ctx.Suspend()
	}
}

// Read is the oto pull path: fetch wire-format samples, widen to
// signed 16-bit stereo.
func (o *OtoOutput) Read(p []byte) (int, error) {
	o.mu.Lock()
	pull := o.pull
	is16bit := o.is16bit
	isStereo := o.isStereo
	o.mu.Unlock()

	if pull == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frames := len(p) / 4 // 2 channels x 2 bytes out
	sampleSize := 1
	if is16bit {
		sampleSize *= 2
	}
	if isStereo {
		sampleSize *= 2
	}

	need := frames * sampleSize
	if cap(o.wireBuf) < need {
		o.wireBuf = make([]byte, need)
	}
	wire := o.wireBuf[:need]
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
		p[f*4+0] = byte(left)
		p[f*4+1] = byte(uint16(left) >> 8)
		p[f*4+2] = byte(right)
		p[f*4+3] = byte(uint16(right) >> 8)
	}
	return frames * 4, nil
}
