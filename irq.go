// irq.go - Interrupt runtime shared by both link endpoints

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
irq.go - Interrupt Runtime for the NitroLink Endpoints

Both endpoints of the cartridge link are single-threaded cooperative
machines whose state is mutated by "interrupt handlers": the cartridge's
command handler, the host's VBlank tick, card-line handler and companion
FIFO handlers. On the original hardware those handlers preempt the
foreground task; waits are "test a condition, idle until any interrupt,
test again" loops bracketed so that a wakeup between the test and the
idle instruction cannot be lost.

On a hosted platform the same contract maps cleanly onto a mutex and a
condition variable. Each endpoint owns one IRQ hub:

    - Handlers run with the hub locked (the moral equivalent of running
      with the interrupt master enable flag cleared).
    - Foreground code enters a critical section by locking the hub.
    - A wait is "for !cond() { hub.Await() }" with the hub locked; any
      handler that changes observable state calls Raise, which stands in
      for the edge of an interrupt line.

sync.Cond already provides the restart-safe outer frame that the
original needed explicit start/stop bracketing for: Wait atomically
releases the lock and parks, so a Raise between the test and the park
is never lost.
*/

package main

import "sync"

// IRQ is the per-endpoint interrupt hub. The zero value is not usable;
// call NewIRQ.
type IRQ struct {
	mu   sync.Mutex
	cond *sync.Cond
}

func NewIRQ() *IRQ {
	irq := &IRQ{}
	irq.cond = sync.NewCond(&irq.mu)
	return irq
}

// Lock enters a critical section. Handlers and API entry points hold the
// lock for the full duration of their state mutation. Not reentrant.
func (irq *IRQ) Lock() { irq.mu.Lock() }

// Unlock leaves a critical section.
func (irq *IRQ) Unlock() { irq.mu.Unlock() }

// Await parks the caller until the next Raise. The hub must be locked;
// it is released while parked and re-acquired before returning, so the
// caller must re-test its condition afterwards.
func (irq *IRQ) Await() { irq.cond.Wait() }

// AwaitCond parks the caller until cond reports true. The hub must be
// locked. This is the rendition of the original's
// "StartAwait; while (!cond) AwaitInterrupt; StopAwait" frame.
func (irq *IRQ) AwaitCond(cond func() bool) {
	for !cond() {
		irq.cond.Wait()
	}
}

// Raise wakes every parked waiter. Callable with or without the hub
// held; handlers call it after mutating state a wait loop may test.
func (irq *IRQ) Raise() { irq.cond.Broadcast() }
