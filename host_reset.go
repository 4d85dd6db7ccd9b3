// host_reset.go - Reset sequence and the loader handover protocol

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
host_reset.go - Reset and Handover

When the cartridge asks for a reboot, the host must get out of the way
without ever colliding with the incoming program: a tiny loader stub is
parked at the very top of on-chip RAM, a sentinel cell tells the stub
where to jump, and bus ownership moves to the companion core before the
soft reset. The stub spins on the sentinel until the companion rewrites
it with the next program's entry point.

The addresses are platform constants. The property that matters is
that the stub and its stack live above any address the incoming
program can occupy, whatever its size.
*/

package main

import "sync"

const (
	// Top of on-chip RAM modelled by the handover window.
	HANDOVER_BASE = 0x027FF000
	HANDOVER_SIZE = 0x1000

	// The host-core reset stub and the cell its spin loop reads.
	RESET_VECTOR     = 0x027FFDF4
	RESET_ENTRY_CELL = 0x027FFE24

	// The companion-core loader's entry cell.
	COMPANION_ENTRY_CELL = 0x027FFE34
)

// hostResetStub is the relocated spin loop: load the entry cell, test,
// loop back, jump. Three words, the shape the real stub has.
var hostResetStub = [3]uint32{0xE59F0000, 0xE3500000, 0xE12FFF10}

// Handover is the shared on-chip RAM window both cores use during a
// reset, plus the bus-arbitration flag.
type Handover struct {
	mu   sync.Mutex
	cond *sync.Cond

	ram [HANDOVER_SIZE]byte

	// companionOwnsBus is the arbitration flag the companion spins on
	// before touching shared RAM.
	companionOwnsBus bool
}

func NewHandover() *Handover {
	hd := &Handover{}
	hd.cond = sync.NewCond(&hd.mu)
	return hd
}

func (hd *Handover) writeWord(addr, value uint32) {
	off := addr - HANDOVER_BASE
	hd.ram[off+0] = byte(value)
	hd.ram[off+1] = byte(value >> 8)
	hd.ram[off+2] = byte(value >> 16)
	hd.ram[off+3] = byte(value >> 24)
}

func (hd *Handover) readWord(addr uint32) uint32 {
	off := addr - HANDOVER_BASE
	return uint32(hd.ram[off+0]) | uint32(hd.ram[off+1])<<8 |
		uint32(hd.ram[off+2])<<16 | uint32(hd.ram[off+3])<<24
}

// PrepareHostLoader relocates the host-core stub to the reset vector
// and points the sentinel cell at its spin loop, so the stub initially
// jumps to itself.
func (hd *Handover) PrepareHostLoader() {
	hd.mu.Lock()
	for i, w := range hostResetStub {
		hd.writeWord(RESET_VECTOR+uint32(i)*4, w)
	}
	hd.writeWord(RESET_ENTRY_CELL, RESET_VECTOR+4)
	hd.mu.Unlock()
	hd.cond.Broadcast()
}

// TransferBus hands bus arbitration to the companion core.
func (hd *Handover) TransferBus() {
	hd.mu.Lock()
	hd.companionOwnsBus = true
	hd.mu.Unlock()
	hd.cond.Broadcast()
}

// AwaitBusOwnership blocks the companion until the host has released
// the bus.
func (hd *Handover) AwaitBusOwnership() {
	hd.mu.Lock()
	for !hd.companionOwnsBus {
		hd.cond.Wait()
	}
	hd.mu.Unlock()
}

// PrepareCompanionLoader parks the companion loader just below the
// host stub. Loading at the highest possible address keeps the loader
// clear of any incoming program that does not itself reach the top of
// RAM.
func (hd *Handover) PrepareCompanionLoader() {
	hd.mu.Lock()
	hd.writeWord(COMPANION_ENTRY_CELL, RESET_VECTOR-4)
	hd.mu.Unlock()
	hd.cond.Broadcast()
}

// PublishCompanionEntry rewrites the sentinel cell with the loader's
// real entry point, releasing the host stub from its spin.
func (hd *Handover) PublishCompanionEntry() {
	hd.mu.Lock()
	hd.writeWord(RESET_ENTRY_CELL, hd.readWord(COMPANION_ENTRY_CELL))
	hd.mu.Unlock()
	hd.cond.Broadcast()
}

// AwaitEntry is the stub's spin loop: it blocks until the sentinel no
// longer points back at the stub and returns the published entry.
func (hd *Handover) AwaitEntry() uint32 {
	hd.mu.Lock()
	defer hd.mu.Unlock()
	for hd.readWord(RESET_ENTRY_CELL) == RESET_VECTOR+4 {
		hd.cond.Wait()
	}
	return hd.readWord(RESET_ENTRY_CELL)
}

// ------------------------------------------------------------------------------
// Host reset sequence
// ------------------------------------------------------------------------------

// resetSequence is the host's reaction to a reset request: audio is
// already stopped by the caller; quiesce the companion, park the stub,
// hand the bus over and leave the command loop for the soft reset.
func (h *Host) resetSequence() {
	if h.companion != nil {
		h.companion.StartReset()
	}

	h.handover.PrepareHostLoader()
	h.handover.TransferBus()

	if h.log != nil {
		h.log.Info("soft reset: bus handed to companion core")
	}

	h.irq.Lock()
	h.linkStatus = HOST_LINK_NONE
	h.resetRequested = true
	h.irq.Unlock()
	h.irq.Raise()
}
