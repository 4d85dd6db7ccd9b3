// cart_input.go - Input merging and the button wait API

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
cart_input.go - Cartridge Input Subsystem

The host delivers button state asynchronously; the application reads it
whenever it likes. Between two reads any number of deliveries may land,
so edges are banked in two pending masks:

    inPresses  - buttons that went down since the last read
    inReleases - buttons that went up since the last read

A press-then-release pair between two reads surfaces as a press on the
first read and a release on the next; the merge rules below OR a
re-toggled button into the opposite mask so neither edge is lost.
Touch coordinates follow the touch bit: they are only overwritten while
the pen is down.

The Await variants run their test-and-park loop entirely inside the
critical section, so a delivery can never slip between the test and the
park. After waking, AwaitAnyButtonsIn and AwaitAnyButtons re-mark the
triggering buttons as pressed and AwaitNotAllButtonsIn re-marks them as
released, so the edge that satisfied the wait is still visible to the
next reader; the other Await variants leave the pending masks as they
are.
*/

package main

// mergeInput folds a newly delivered state into the pending masks.
// Caller must hold the hub.
func (c *Cart) mergeInput(newState InputState) {
	// New presses: up in the last read state, down now - plus
	// re-presses of buttons whose release is still pending.
	c.inPresses.Buttons |= (newState.Buttons &^ c.inState.Buttons) |
		(c.inState.Buttons & newState.Buttons & c.inReleases.Buttons)
	// New releases, symmetrically.
	c.inReleases.Buttons |= (c.inState.Buttons &^ newState.Buttons) |
		(^c.inState.Buttons & ^newState.Buttons & c.inPresses.Buttons)

	if newState.Buttons&DS_BUTTON_TOUCH != 0 {
		c.inPresses.TouchX = newState.TouchX
		c.inPresses.TouchY = newState.TouchY
	}
}

// getInputStateLocked applies pending edges, clears them and stores the
// result. Caller must hold the hub.
func (c *Cart) getInputStateLocked(state *InputState) {
	presses := ^c.inState.Buttons & c.inPresses.Buttons
	releases := c.inState.Buttons & c.inReleases.Buttons
	c.inState.Buttons = (c.inState.Buttons | presses) &^ releases
	c.inState.TouchX = c.inPresses.TouchX
	c.inState.TouchY = c.inPresses.TouchY
	c.inPresses.Buttons &^= presses
	c.inReleases.Buttons &^= releases
	*state = c.inState
}

// GetInputState applies the pending edges, clears them and returns the
// resulting state.
func (c *Cart) GetInputState(state *InputState) {
	c.irq.Lock()
	c.getInputStateLocked(state)
	c.irq.Unlock()
}

// awaitInput parks until cond holds for a fresh reading, leaving the
// final reading in state.
func (c *Cart) awaitInput(state *InputState, cond func(InputState) bool) {
	c.irq.Lock()
	for {
		c.getInputStateLocked(state)
		if cond(*state) {
			break
		}
		c.irq.Await()
	}
	c.irq.Unlock()
}

// AwaitInputChange blocks until the readable input differs from the
// current reading, then returns the new state.
func (c *Cart) AwaitInputChange(state *InputState) {
	var old InputState
	c.GetInputState(&old)
	c.awaitInput(state, func(s InputState) bool { return s != old })
}

// AwaitAllButtonsIn blocks until every button in the mask is held.
func (c *Cart) AwaitAllButtonsIn(buttons uint16) {
	var state InputState
	c.awaitInput(&state, func(s InputState) bool { return s.Buttons&buttons == buttons })
}

// AwaitAnyButtonsIn blocks until any button in the mask is held. The
// triggering buttons are re-marked as pressed so the next reader still
// sees their press edge.
func (c *Cart) AwaitAnyButtonsIn(buttons uint16) {
	var state InputState
	c.awaitInput(&state, func(s InputState) bool { return s.Buttons&buttons != 0 })

	c.irq.Lock()
	c.inState.Buttons &^= state.Buttons & buttons
	c.inPresses.Buttons |= state.Buttons & buttons
	c.irq.Unlock()
}

// AwaitNotAllButtonsIn blocks until at least one button in the mask is
// up. The triggering buttons are re-marked as released for the next
// reader.
func (c *Cart) AwaitNotAllButtonsIn(buttons uint16) {
	var state InputState
	c.awaitInput(&state, func(s InputState) bool { return s.Buttons&buttons != buttons })

	c.irq.Lock()
	c.inReleases.Buttons |= ^state.Buttons & buttons
	c.inState.Buttons |= buttons
	c.irq.Unlock()
}

// AwaitNoButtonsIn blocks until every button in the mask is up.
func (c *Cart) AwaitNoButtonsIn(buttons uint16) {
	var state InputState
	c.awaitInput(&state, func(s InputState) bool { return s.Buttons&buttons == 0 })
}

// AwaitAnyButtons blocks until any button at all is held, re-marking
// the triggering buttons as pressed for the next reader.
func (c *Cart) AwaitAnyButtons() {
	var state InputState
	c.awaitInput(&state, func(s InputState) bool { return s.Buttons != 0 })

	c.irq.Lock()
	c.inState.Buttons &^= state.Buttons
	c.inPresses.Buttons |= state.Buttons
	c.irq.Unlock()
}

// AwaitNoButtons blocks until no button is held.
func (c *Cart) AwaitNoButtons() {
	var state InputState
	c.awaitInput(&state, func(s InputState) bool { return s.Buttons == 0 })
}

// GetNewlyPressed returns the buttons down in newState but not in
// oldState.
func GetNewlyPressed(oldState, newState *InputState) uint16 {
	return newState.Buttons &^ oldState.Buttons
}

// GetNewlyReleased returns the buttons down in oldState but not in
// newState.
func GetNewlyReleased(oldState, newState *InputState) uint16 {
	return oldState.Buttons &^ newState.Buttons
}
