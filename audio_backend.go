// audio_backend.go - Audio output interface and the null backend

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

// An AudioOutput is the host's mixer. The host opens a stream per
// cartridge request and hands over a pull callback; the backend calls
// it from its own realtime thread whenever it needs samples, in the
// stream's wire format (8 or 16 bit, mono or stereo).

package main

import "sync"

type AudioOutput interface {
	// StreamStart opens a stream. pull fills its whole argument,
	// zero-padding past the available samples.
	StreamStart(freq int, is16bit, isStereo bool, pull func(dst []byte)) error

	// StreamStop closes the stream. The pull callback is not invoked
	// after StreamStop returns.
	StreamStop()

	// Close releases the device.
	Close()
}

// NullAudioOutput is the backend used headless and in tests: it plays
// nothing and drains only when asked to.
type NullAudioOutput struct {
	mu      sync.Mutex
	pull    func(dst []byte)
	started bool
	freq    int
	shift   uint
}

func NewNullAudioOutput() *NullAudioOutput { return &NullAudioOutput{} }

func (n *NullAudioOutput) StreamStart(freq int, is16bit, isStereo bool, pull func(dst []byte)) error {
	n.mu.Lock()
	n.pull = pull
	n.started = true
	n.freq = freq
	n.shift = 0
	if is16bit {
		n.shift++
	}
	if isStereo {
		n.shift++
	}
	n.mu.Unlock()
	return nil
}

func (n *NullAudioOutput) StreamStop() {
	n.mu.Lock()
	n.pull = nil
	n.started = false
	n.mu.Unlock()
}

func (n *NullAudioOutput) Close() { n.StreamStop() }

// Started reports whether a stream is open.
func (n *NullAudioOutput) Started() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.started
}

// Drain pulls exactly samples samples into a fresh buffer, standing in
// for the mixer's realtime callback.
func (n *NullAudioOutput) Drain(samples int) []byte {
	n.mu.Lock()
	pull := n.pull
	shift := n.shift
	n.mu.Unlock()

	dst := make([]byte, samples<<shift)
	if pull != nil {
		pull(dst)
	}
	return dst
}
