// demo_app.go - Built-in cartridge application exercising the whole link

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
demo_app.go - Demo Cartridge Application

A moving colour gradient on the Main Screen, a sine tone in the audio
ring, button echo on the console. Press START to stop the audio, SELECT
to start it again, L+R together to ask the host for a reboot. The demo
leans on every application-facing subsystem, which makes it the
quickest way to see a regression with your own eyes.
*/

package main

import "math"

const (
	demoAudioFreq    = 22050
	demoAudioSamples = 1024
	demoToneHz       = 440.0
)

// demoApp is the cartridge application run by the main binary.
func demoApp(c *Cart) {
	c.SetHighClockSpeed()
	c.Printf("nitrolink demo\n")

	if err := c.StartAudio(demoAudioFreq, demoAudioSamples, true, true); err != nil {
		c.Printf("audio unavailable: %v\n", err)
	}

	var phase float64
	tone := make([]byte, 512<<2) // 512 stereo 16-bit samples
	audioOn := true

	var frame uint32
	var prev InputState

	for {
		// Paint the current page and flip.
		screen := c.GetMainScreen()
		for y := 0; y < SCREEN_HEIGHT; y++ {
			row := screen[y*SCREEN_WIDTH : (y+1)*SCREEN_WIDTH]
			for x := range row {
				r := uint16((x + int(frame)) >> 3 & 31)
				g := uint16(y >> 3 & 31)
				b := uint16(31 - (x >> 3 & 31))
				row[x] = b<<10 | g<<5 | r
			}
		}
		if err := c.FlipMainScreen(); err != nil {
			c.Printf("flip failed: %v\n", err)
			return
		}

		// Keep the audio ring topped up.
		if audioOn {
			free := c.GetFreeAudioSamples()
			if free > 512 {
				step := 2 * math.Pi * demoToneHz / demoAudioFreq
				for i := 0; i < 512; i++ {
					sample := int16(12000 * math.Sin(phase))
					phase += step
					tone[i*4+0] = byte(uint16(sample))
					tone[i*4+1] = byte(uint16(sample) >> 8)
					tone[i*4+2] = tone[i*4+0]
					tone[i*4+3] = tone[i*4+1]
				}
				if err := c.SubmitAudio(tone, 512); err != nil {
					c.Printf("submit failed: %v\n", err)
					audioOn = false
				}
			}
		}

		// Echo input edges.
		var in InputState
		c.GetInputState(&in)
		if pressed := GetNewlyPressed(&prev, &in); pressed != 0 {
			c.Printf("pressed %04X\n", pressed)

			if pressed&DS_BUTTON_START != 0 && audioOn {
				c.StopAudio()
				audioOn = false
				c.Printf("audio stopped\n")
			}
			if pressed&DS_BUTTON_SELECT != 0 && !audioOn {
				if err := c.StartAudio(demoAudioFreq, demoAudioSamples, true, true); err == nil {
					audioOn = true
					c.Printf("audio started\n")
				}
			}
		}
		if in.Buttons&(DS_BUTTON_L|DS_BUTTON_R) == DS_BUTTON_L|DS_BUTTON_R {
			c.Printf("rebooting\n")
			c.RequestHostReset()
			return
		}
		prev = in

		c.AwaitVBlank()
		frame++
	}
}
