// fpga_bridge.go - FPGA bridge between the host bus and the cartridge CPU

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
fpga_bridge.go - Cartridge Bus FPGA Bridge

The bridge sits between the two CPUs. The host may only ever initiate:
it writes an 8-byte command, and either the bridge answers it directly
(the FPGA-internal FIFO_STATUS / FIFO_RESET / FIFO_READ bytes) or the
command is forwarded to the cartridge, whose handler pushes the reply
into the bridge's send FIFO for the host to drain.

Cartridge-facing surface (three control knobs plus the FIFO):

    StartReply     - clear the send FIFO for a new reply
    WriteHalf      - push one 16-bit half-word
    WriteReply     - push a whole buffer (the DMA fast path); when the
                     video-fixup control bits are set, the high bit of
                     each half-word is forced on and, optionally, the
                     red and blue components are exchanged on the way
                     through
    PulseCardLine  - raise and drop the card-request line; the host sees
                     a single edge-triggered interrupt however many
                     pulses land before it reads

Host-facing surface:

    IssueCommand   - write a command frame with a declared reply block
                     size; FPGA-internal bytes never reach the cartridge
    ReadWordWait   - pop the next 32-bit word of the current reply

The host must drain exactly as many bytes as the command declared, or
the FIFO desynchronises; that discipline lives in the host bus layer.
*/

package main

import "sync"

// Control register bits (cartridge side).
const (
	FPGA_CTR_FIX_VIDEO_EN     = 1 << 1
	FPGA_CTR_FIFO_CLEAR       = 1 << 5
	FPGA_CTR_FIX_VIDEO_RGB_EN = 1 << 6
	FPGA_CTR_FPGA_MODE        = 1 << 10
)

// FIFO_CAPACITY is the depth of the send FIFO in bytes. A 1024-byte
// reply fills it exactly; the status word reports full at that point.
const FIFO_CAPACITY = 1024

// FPGABridge is the shared transport. All state is guarded by mu; cond
// is raised on every change a host wait loop may be parked on (reply
// bytes arriving, commands being answered, VBlank ticks for the
// dead-man check).
type FPGABridge struct {
	mu   sync.Mutex
	cond *sync.Cond

	ctrl uint16

	// Send FIFO: cartridge writes, host drains via FIFO_READ.
	fifo []byte

	// Data stream the host's read register currently sees: a 4-byte
	// FPGA answer, or up to pendingRead bytes handed over from the FIFO.
	busData     []byte
	pendingRead int

	// Commands forwarded to the cartridge handler. Capacity 1 is
	// deliberate: the host serialises commands, one in flight at a time.
	cmdCh chan CardCommand

	// onCardLine is invoked on each rising edge of the card-request
	// line, outside the bridge lock.
	onCardLine func()

	// dropReplies simulates a wedged cartridge for the stall path:
	// forwarded commands are discarded instead of delivered.
	dropReplies bool

	closed bool
}

func NewFPGABridge() *FPGABridge {
	b := &FPGABridge{cmdCh: make(chan CardCommand, 1)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// SetCardLineHandler registers the host's card-line interrupt handler.
func (b *FPGABridge) SetCardLineHandler(handler func()) {
	b.mu.Lock()
	b.onCardLine = handler
	b.mu.Unlock()
}

// Commands returns the stream of command frames forwarded to the
// cartridge CPU.
func (b *FPGABridge) Commands() <-chan CardCommand { return b.cmdCh }

// NotifyVBlank wakes host wait loops so the dead-man lag check can run
// even when no reply bytes are arriving.
func (b *FPGABridge) NotifyVBlank() {
	b.cond.Broadcast()
}

// ------------------------------------------------------------------------------
// Cartridge side
// ------------------------------------------------------------------------------

// SetControl writes the FPGA control register. The FIFO-clear bit takes
// effect on the transition that sets it.
func (b *FPGABridge) SetControl(value uint16) {
	b.mu.Lock()
	if value&FPGA_CTR_FIFO_CLEAR != 0 && b.ctrl&FPGA_CTR_FIFO_CLEAR == 0 {
		b.fifo = b.fifo[:0]
	}
	b.ctrl = value
	b.mu.Unlock()
	b.cond.Broadcast()
}

// StartReply clears the send FIFO for a new reply: mode plus clear,
// then mode alone.
func (b *FPGABridge) StartReply() {
	b.SetControl(FPGA_CTR_FPGA_MODE | FPGA_CTR_FIFO_CLEAR)
	b.SetControl(FPGA_CTR_FPGA_MODE)
}

func fixupHalf(half uint16, rgbSwap bool) uint16 {
	if rgbSwap {
		half = (half&0x7C00)>>10 | (half&0x001F)<<10 | half&0x03E0
	}
	return half | 0x8000
}

// WriteHalf pushes one half-word into the send FIFO, little-endian.
// Header words are written this way, two halves per word, with the
// video fixup never enabled.
func (b *FPGABridge) WriteHalf(half uint16) {
	b.mu.Lock()
	if b.ctrl&FPGA_CTR_FIX_VIDEO_EN != 0 {
		half = fixupHalf(half, b.ctrl&FPGA_CTR_FIX_VIDEO_RGB_EN != 0)
	}
	b.fifo = append(b.fifo, byte(half), byte(half>>8))
	b.mu.Unlock()
	b.cond.Broadcast()
}

// WriteReply pushes a whole buffer into the send FIFO, standing in for
// the 32-to-16-bit DMA engine. The length must be a multiple of 4.
// With FPGA_CTR_FIX_VIDEO_EN set, every half-word gets its high bit
// forced on; with FPGA_CTR_FIX_VIDEO_RGB_EN also set, the red and blue
// components are exchanged first.
func (b *FPGABridge) WriteReply(reply []byte) {
	b.mu.Lock()
	if b.ctrl&FPGA_CTR_FIX_VIDEO_EN != 0 {
		rgb := b.ctrl&FPGA_CTR_FIX_VIDEO_RGB_EN != 0
		for i := 0; i+1 < len(reply); i += 2 {
			half := fixupHalf(uint16(reply[i])|uint16(reply[i+1])<<8, rgb)
			b.fifo = append(b.fifo, byte(half), byte(half>>8))
		}
	} else {
		b.fifo = append(b.fifo, reply...)
	}
	b.mu.Unlock()
	b.cond.Broadcast()
}

// PulseCardLine raises the card-request line and drops it again. The
// handler runs outside the bridge lock; the caller may hold its own
// endpoint lock, which fixes the cross-endpoint lock order at
// cartridge before host.
func (b *FPGABridge) PulseCardLine() {
	b.mu.Lock()
	handler := b.onCardLine
	b.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// DropReplies wedges or unwedges the cartridge side of the bridge.
// While wedged, forwarded commands vanish and no reply ever arrives;
// the host's dead-man timer is the only way out.
func (b *FPGABridge) DropReplies(drop bool) {
	b.mu.Lock()
	b.dropReplies = drop
	b.mu.Unlock()
}

// ------------------------------------------------------------------------------
// Host side
// ------------------------------------------------------------------------------

// IssueCommand writes one command frame to the bus with the given
// declared reply block size in bytes. FPGA-internal command bytes are
// answered immediately; everything else is forwarded to the cartridge.
func (b *FPGABridge) IssueCommand(cmd CardCommand, replyLen int) {
	b.mu.Lock()
	switch cmd[0] {
	case FPGA_CMD_FIFO_STATUS:
		n := len(b.fifo)
		w := uint32(0)
		if n >= FIFO_CAPACITY {
			w |= FIFO_STATUS_READ_FULL
		}
		w |= uint32(n&FIFO_STATUS_LEN_MASK) << FIFO_STATUS_LEN_BIT
		b.busData = []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
		b.pendingRead = 0

	case FPGA_CMD_FIFO_RESET:
		// Resets the host's view of the data stream. The reply is a
		// status word the host always ignores.
		b.busData = []byte{0, 0, 0, 0}
		b.pendingRead = 0

	case FPGA_CMD_FIFO_READ:
		b.busData = nil
		b.pendingRead = replyLen

	default:
		b.busData = nil
		b.pendingRead = 0
		if !b.dropReplies {
			// The host serialises commands, so the capacity-1 channel is
			// always empty here and the send cannot block.
			b.cmdCh <- cmd
		}
	}
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Close tears the bridge down: later commands are dropped and the
// cartridge dispatcher's command stream ends.
func (b *FPGABridge) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		b.dropReplies = true
		close(b.cmdCh)
	}
	b.mu.Unlock()
	b.cond.Broadcast()
}

// refillBusData hands FIFO bytes over to the host data stream while a
// FIFO_READ transfer is in progress. Caller holds mu.
func (b *FPGABridge) refillBusData() {
	if b.pendingRead > 0 && len(b.fifo) > 0 {
		take := b.pendingRead
		if take > len(b.fifo) {
			take = len(b.fifo)
		}
		b.busData = append(b.busData, b.fifo[:take]...)
		b.fifo = append(b.fifo[:0], b.fifo[take:]...)
		b.pendingRead -= take
	}
}

// popWordLocked pops one 32-bit word from the data stream if a whole
// word is available. Caller holds mu.
func (b *FPGABridge) popWordLocked() (uint32, bool) {
	b.refillBusData()
	if len(b.busData) < 4 {
		return 0, false
	}
	w := uint32(b.busData[0]) | uint32(b.busData[1])<<8 |
		uint32(b.busData[2])<<16 | uint32(b.busData[3])<<24
	b.busData = b.busData[4:]
	return w, true
}

// ReadWordWait blocks until the next 32-bit word of the current reply
// is available and returns it. lagCheck runs on every stall with a
// snapshot of the FIFO state; it is expected to panic with a LinkError
// once the dead-man timer trips.
func (b *FPGABridge) ReadWordWait(lagCheck func(fifoLen, pendingRead int)) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if w, ok := b.popWordLocked(); ok {
			return w
		}
		lagCheck(len(b.fifo), b.pendingRead)
		b.cond.Wait()
	}
}

// IgnoreRest discards the remainder of the current reply, advancing the
// protocol without delivering the data anywhere.
func (b *FPGABridge) IgnoreRest(lagCheck func(fifoLen, pendingRead int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if _, ok := b.popWordLocked(); ok {
			continue
		}
		if b.pendingRead == 0 && len(b.busData) == 0 {
			return
		}
		lagCheck(len(b.fifo), b.pendingRead)
		b.cond.Wait()
	}
}

// Busy reports whether undrained reply words remain on the bus.
func (b *FPGABridge) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.busData) > 0 || b.pendingRead > 0
}

// AwaitChangeLag parks the caller until any bridge state changes,
// running the lag check first so a stalled cartridge is still caught.
func (b *FPGABridge) AwaitChangeLag(lagCheck func(fifoLen, pendingRead int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lagCheck(len(b.fifo), b.pendingRead)
	b.cond.Wait()
}
