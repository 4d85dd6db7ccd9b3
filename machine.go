// machine.go - Wiring the two endpoints, the bridge and the clock

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
machine.go - Machine Assembly

One Machine is both ends of the link in one process: the FPGA bridge,
the cartridge firmware, the host driver, the companion core, and the
60 Hz VBlank clock. Tests run with the manual clock and step VBlanks
themselves; the real machine ticks on a timer.

The cartridge application runs in its own goroutine via RunApp; a
panic there is converted into the firmware's assertion-failure path, so
a crashing application produces a fault report on the host console
instead of taking the process down.
*/

package main

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// VBLANK_HZ is the display refresh rate.
const VBLANK_HZ = 60

type Machine struct {
	Bridge    *FPGABridge
	Cart      *Cart
	Host      *Host
	Companion *Companion

	log         *charmlog.Logger
	manualClock bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	// OnCartReset fires when the cartridge takes its reset vector;
	// OnHostReset fires after the host's soft-reset path has run.
	OnCartReset func()
	OnHostReset func()
}

// MachineOptions selects the peripherals.
type MachineOptions struct {
	Audio       AudioOutput
	Keypad      KeypadSource
	Logger      *charmlog.Logger
	ManualClock bool
}

func NewMachine(opts MachineOptions) *Machine {
	bridge := NewFPGABridge()
	host := NewHost(bridge, opts.Logger)
	cart := NewCart(bridge)

	host.audioOut = opts.Audio
	host.keypad = opts.Keypad

	companion := NewCompanion(host, opts.Keypad)
	host.companion = companion

	m := &Machine{
		Bridge:      bridge,
		Cart:        cart,
		Host:        host,
		Companion:   companion,
		log:         opts.Logger,
		manualClock: opts.ManualClock,
		stopCh:      make(chan struct{}),
	}

	cart.SetResetHandler(func() {
		if m.OnCartReset != nil {
			m.OnCartReset()
		}
	})
	host.onShutdown = m.Stop

	return m
}

// Start brings the link up: companion, host loop, cartridge boot, and
// the clock unless it is manual. It returns once the cartridge reports
// the link established.
func (m *Machine) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.Companion.run()
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.Host.run()
		m.hostExited()
	}()

	if !m.manualClock {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.clockLoop()
		}()
	}

	m.Cart.Start()
}

// hostExited reacts to the command loop ending: a requested reset runs
// the handover callback.
func (m *Machine) hostExited() {
	m.Host.irq.Lock()
	reset := m.Host.resetRequested
	m.Host.irq.Unlock()

	if reset && m.OnHostReset != nil {
		m.OnHostReset()
	}
}

// StepVBlank advances the display by one frame. Manual-clock machines
// call this from tests; the timer calls it otherwise.
func (m *Machine) StepVBlank() {
	m.Host.vblankTick()
	m.Companion.vblank()
}

func (m *Machine) clockLoop() {
	ticker := time.NewTicker(time.Second / VBLANK_HZ)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.StepVBlank()
		}
	}
}

// RunApp runs a cartridge application. A panic becomes the firmware's
// assertion-failure path, complete with the source position.
func (m *Machine) RunApp(app func(*Cart)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				file := "unknown"
				line := 0
				if _, f, l, ok := runtime.Caller(2); ok {
					file, line = f, l
				}
				m.Cart.AssertFail(file, uint32(line), fmt.Sprint(r))
			}
		}()
		app(m.Cart)
	}()
}

// Stop tears the machine down.
func (m *Machine) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.Host.Stop()
		m.Bridge.Close()
		m.Companion.Stop()
	})
}

// Wait blocks until the host command loop has exited.
func (m *Machine) Wait() {
	<-m.Host.Done()
}
