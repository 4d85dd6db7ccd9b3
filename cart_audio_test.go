// cart_audio_test.go - Audio ring laws and lifecycle tests

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

package main

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// cartCommand runs one command through the cartridge's current
// protocol handler, the way the dispatch goroutine would.
func cartCommand(c *Cart, cmd CardCommand) {
	c.irq.Lock()
	c.protocol(cmd)
	c.irq.Unlock()
	c.irq.Raise()
}

// drainReply pulls n reply bytes out of the bridge.
func drainReply(t *testing.T, b *FPGABridge, n int) []byte {
	t.Helper()
	b.IssueCommand(commandByte(FPGA_CMD_FIFO_READ), n)
	out := make([]byte, 0, n)
	for len(out) < n {
		w := b.ReadWordWait(noLag)
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}

// establishCart walks a fresh cartridge through HELLO and the
// pending-recv drain so the main protocol is active.
func establishCart(t *testing.T, c *Cart, b *FPGABridge) {
	t.Helper()
	cartCommand(c, makeHelloCommand(1, 1))
	drainReply(t, b, 512)
	cartCommand(c, makeRTCCommand(RTC{Year: 26, Month: 8, Day: 1}))
	drainReply(t, b, 4)
	cartCommand(c, makeInputCommand(InputState{}))
	drainReply(t, b, 4)

	if got := c.LinkStatus(); got != CART_LINK_ESTABLISHED {
		t.Fatalf("link status %d after establishment, want established", got)
	}
}

// startCartAudio drives StartAudio through its handshake: the request
// packet is drained and the host's AUDIO_STATUS(1) delivered.
func startCartAudio(t *testing.T, c *Cart, b *FPGABridge, bufferSize uint16, is16bit, isStereo bool) {
	t.Helper()
	if err := c.StartAudio(22050, bufferSize, is16bit, isStereo); err != nil {
		t.Fatalf("StartAudio: %v", err)
	}
	cartCommand(c, commandByte(CMD_SEND_QUEUE)) // requests
	drainReply(t, b, 512)
	cartCommand(c, commandByte(CMD_SEND_QUEUE)) // end
	drainReply(t, b, 512)
	cartCommand(c, makeAudioStatusCommand(true))
	drainReply(t, b, 4)
}

// TestGetFreeAudioSamples checks the free-space formula across a
// submit/consume cycle: free == capacity - 1 - ((write - read) mod
// capacity).
func TestGetFreeAudioSamples(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)
	startCartAudio(t, c, b, 1024, true, true)

	if got := c.GetFreeAudioSamples(); got != 1024 {
		t.Fatalf("fresh ring free %d, want 1024", got)
	}

	data := make([]byte, 1024<<2)
	if err := c.SubmitAudio(data, 1024); err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}
	if got := c.GetFreeAudioSamples(); got != 0 {
		t.Fatalf("full ring free %d, want 0", got)
	}

	cartCommand(c, makeAudioConsumedCommand(512))
	drainReply(t, b, 4)
	if got := c.GetFreeAudioSamples(); got != 512 {
		t.Fatalf("after consuming 512: free %d, want 512", got)
	}
}

// TestAudioDequeueFrames drains a full ring over the send queue and
// checks every frame carries a whole number of samples and the total
// adds up.
func TestAudioDequeueFrames(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)
	startCartAudio(t, c, b, 1024, true, true)

	data := make([]byte, 1024<<2)
	for i := range data {
		data[i] = byte(i)
	}
	if err := c.SubmitAudio(data, 1024); err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}

	received := 0
	for frames := 0; ; frames++ {
		if frames > 20 {
			t.Fatal("audio drain did not terminate")
		}
		cartCommand(c, commandByte(CMD_SEND_QUEUE))
		reply := drainReply(t, b, 512)
		header := uint32(reply[0]) | uint32(reply[1])<<8 | uint32(reply[2])<<16 | uint32(reply[3])<<24
		kind, _, byteCount, _ := unpackHeader1(header)

		if kind == DATA_KIND_NONE {
			break
		}
		if kind != DATA_KIND_AUDIO {
			t.Fatalf("unexpected kind %d", kind)
		}
		if byteCount%4 != 0 {
			t.Fatalf("frame carries %d bytes, not whole stereo 16-bit samples", byteCount)
		}
		for i := 0; i < int(byteCount); i++ {
			if reply[4+i] != byte(received<<2+i) {
				t.Fatalf("sample byte %d of frame: got %02X, want %02X",
					i, reply[4+i], byte(received<<2+i))
			}
		}
		received += int(byteCount) / 4
	}

	if received != 1024 {
		t.Fatalf("received %d samples, want 1024", received)
	}
}

// TestSubmitAudioBackpressure checks that a producer blocked on a full
// ring resumes when the host acknowledges consumption.
func TestSubmitAudioBackpressure(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)
	startCartAudio(t, c, b, 64, false, false)

	data := make([]byte, 64)
	if err := c.SubmitAudio(data, 64); err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitAudio(data, 32)
	}()

	select {
	case <-done:
		t.Fatal("submit into a full ring did not block")
	case <-time.After(50 * time.Millisecond):
	}

	cartCommand(c, makeAudioConsumedCommand(32))
	drainReply(t, b, 4)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("resumed submit failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("submit did not resume after the consumed ack")
	}
}

// TestSubmitAudioStopped checks the stopped-stream error.
func TestSubmitAudioStopped(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)

	if err := c.SubmitAudio(make([]byte, 4), 1); err != ErrFault {
		t.Fatalf("submit on stopped stream: got %v, want ErrFault", err)
	}
}

// TestRingNeverAmbiguous is the ring-buffer law: over any interleaving
// of bounded writes and reads, the occupancy never reaches the
// capacity, so a full ring is always distinguishable from an empty
// one.
func TestRingNeverAmbiguous(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 64).Draw(t, "capacity")
		write, read := 0, 0

		ops := rapid.IntRange(1, 200).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			free := capacity - 1 - (write-read+capacity)%capacity
			used := (write - read + capacity) % capacity

			if rapid.Bool().Draw(t, "isWrite") {
				if free == 0 {
					continue
				}
				n := rapid.IntRange(1, free).Draw(t, "n")
				write = addWrapFast(write, n, capacity)
			} else {
				if used == 0 {
					continue
				}
				n := rapid.IntRange(1, used).Draw(t, "n")
				read = addWrapFast(read, n, capacity)
			}

			if occ := (write - read + capacity) % capacity; occ > capacity-1 {
				t.Fatalf("ring ambiguous: occupancy %d of %d", occ, capacity)
			}
		}
	})
}

// TestAudioRace hammers the producer and the consumed ack from two
// goroutines while frames drain, looking for torn index updates under
// the race detector.
func TestAudioRace(t *testing.T) {
	b := NewFPGABridge()
	c := NewCart(b)
	establishCart(t, c, b)
	startCartAudio(t, c, b, 256, true, false)

	stop := make(chan struct{})
	go func() {
		data := make([]byte, 32<<1)
		for {
			select {
			case <-stop:
				return
			default:
			}
			c.SubmitAudio(data, 32)
		}
	}()

	for i := 0; i < 200; i++ {
		cartCommand(c, makeAudioConsumedCommand(16))
		drainReply(t, b, 4)

		// Only poll the queue while something is pending; an empty
		// queue means the card line is low and no poll would be sent.
		c.irq.Lock()
		pending := c.pendingSends != 0
		c.irq.Unlock()
		if pending {
			cartCommand(c, commandByte(CMD_SEND_QUEUE))
			drainReply(t, b, 512)
		}
	}
	close(stop)

	cartCommand(c, makeAudioConsumedCommand(256))
	drainReply(t, b, 4)
}
