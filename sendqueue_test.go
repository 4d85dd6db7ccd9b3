// sendqueue_test.go - Pending-send bitset priority and card-line tests

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
	"math/bits"
	"testing"

	"pgregory.net/rapid"
)

// TestTakePendingSendOrder verifies that any subset of the defined
// priorities drains in ascending numeric order and empties the set.
func TestTakePendingSendOrder(t *testing.T) {
	cart := NewCart(NewFPGABridge())

	subsets := [][]uint32{
		{PENDING_SEND_VIDEO},
		{PENDING_SEND_EXCEPTION, PENDING_SEND_VIDEO},
		{PENDING_SEND_TEXT, PENDING_SEND_AUDIO, PENDING_SEND_REQUESTS},
		{PENDING_SEND_EXCEPTION, PENDING_SEND_ASSERT, PENDING_SEND_REQUESTS,
			PENDING_SEND_AUDIO, PENDING_SEND_TEXT, PENDING_SEND_VIDEO,
			PENDING_SEND_END},
	}

	for _, subset := range subsets {
		cart.irq.Lock()
		cart.pendingSends = 0
		for _, bit := range subset {
			cart.pendingSends |= bit
		}

		var last uint32
		for cart.pendingSends != 0 {
			got := cart.takePendingSend()
			if got <= last {
				t.Errorf("extraction out of order: %08X after %08X", got, last)
			}
			last = got
		}
		if got := cart.takePendingSend(); got != 0 {
			t.Errorf("empty set yielded %08X", got)
		}
		cart.irq.Unlock()
	}
}

// TestTakePendingSendIsLowestBit proves the x & -x extraction is
// exactly "lowest set bit" over arbitrary bitsets.
func TestTakePendingSendIsLowestBit(t *testing.T) {
	cart := NewCart(NewFPGABridge())

	rapid.Check(t, func(t *rapid.T) {
		set := rapid.Uint32().Draw(t, "set")

		cart.irq.Lock()
		cart.pendingSends = set
		got := cart.takePendingSend()
		remainder := cart.pendingSends
		cart.irq.Unlock()

		if set == 0 {
			if got != 0 {
				t.Fatalf("empty set yielded %08X", got)
			}
			return
		}
		want := uint32(1) << bits.TrailingZeros32(set)
		if got != want {
			t.Fatalf("got %08X, want lowest bit %08X of %08X", got, want, set)
		}
		if remainder != set&^want {
			t.Fatalf("remainder %08X, want %08X", remainder, set&^want)
		}
	})
}

// TestAddPendingSendPulsesOnce verifies the empty-to-busy transition
// pulses the card line exactly once, arms the END bit, and that later
// additions coalesce without further pulses.
func TestAddPendingSendPulsesOnce(t *testing.T) {
	bridge := NewFPGABridge()
	cart := NewCart(bridge)

	pulses := 0
	bridge.SetCardLineHandler(func() { pulses++ })

	cart.irq.Lock()
	cart.addPendingSend(PENDING_SEND_TEXT)
	if pulses != 1 {
		t.Fatalf("first addition pulsed %d times, want 1", pulses)
	}
	if cart.pendingSends != PENDING_SEND_TEXT|PENDING_SEND_END {
		t.Fatalf("END not armed: %08X", cart.pendingSends)
	}

	cart.addPendingSend(PENDING_SEND_AUDIO)
	cart.addPendingSend(PENDING_SEND_VIDEO)
	if pulses != 1 {
		t.Fatalf("coalesced additions pulsed: %d", pulses)
	}

	// Drain to empty; the next addition must pulse again.
	for cart.pendingSends != 0 {
		cart.takePendingSend()
	}
	cart.addPendingSend(PENDING_SEND_VIDEO)
	if pulses != 2 {
		t.Fatalf("re-arm after drain pulsed %d times, want 2", pulses)
	}
	cart.irq.Unlock()
}

// TestHostTakePendingSendOrder covers the host-side mirror of the
// queue: VBLANK before VIDEO_DISPLAYED before the SEND_QUEUE poll.
func TestHostTakePendingSendOrder(t *testing.T) {
	host := NewHost(NewFPGABridge(), nil)

	host.irq.Lock()
	host.addPendingSend(HOST_SEND_QUEUE)
	host.addPendingSend(HOST_SEND_RTC)
	host.addPendingSend(HOST_SEND_VBLANK)
	host.addPendingSend(HOST_SEND_VIDEO_DISPLAYED)

	want := []uint32{HOST_SEND_VBLANK, HOST_SEND_VIDEO_DISPLAYED, HOST_SEND_RTC, HOST_SEND_QUEUE}
	for i, expected := range want {
		if got := host.takePendingSend(); got != expected {
			t.Fatalf("extraction %d: got %08X, want %08X", i, got, expected)
		}
	}
	host.irq.Unlock()
}
