// main.go - NitroLink entry point

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
main.go - Entry Point

Builds a whole machine - bridge, cartridge, host, companion - wires the
chosen audio and video frontends, starts the demo application and runs
until the window closes, the link dies, or the cartridge asks for a
reboot.
*/

package main

import (
	"os"

	charmlog "github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.String("config", "nitrolink.yaml", "machine config file")
	headless := flag.Bool("headless", false, "run without a window")
	scale := flag.Int("scale", 0, "window scale factor (1-4)")
	audioBackend := flag.String("audio", "", "audio backend: oto, portaudio, none")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		charmlog.Fatal("bad config file", "path", *configPath, "err", err)
	}
	if *headless {
		cfg.Headless = true
	}
	if *scale != 0 {
		cfg.Video.Scale = *scale
	}
	if *audioBackend != "" {
		cfg.Audio.Backend = *audioBackend
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "nitrolink",
	})
	if level, err := charmlog.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var audio AudioOutput
	switch cfg.Audio.Backend {
	case "none":
		audio = NewNullAudioOutput()
	case "portaudio":
		audio, err = newPortAudioIfBuilt()
		if err != nil {
			logger.Warn("portaudio unavailable, audio disabled", "err", err)
			audio = NewNullAudioOutput()
		}
	default:
		audio, err = NewOtoOutput()
		if err != nil {
			logger.Warn("oto unavailable, audio disabled", "err", err)
			audio = NewNullAudioOutput()
		}
	}
	defer audio.Close()

	var keypad KeypadSource
	var frontend VideoFrontend
	var terminal *TerminalKeypad

	if cfg.Headless {
		terminal = NewTerminalKeypad()
		if err := terminal.Start(); err != nil {
			logger.Warn("terminal input unavailable", "err", err)
		}
		keypad = terminal
		frontend = NewNullFrontend()
	} else {
		ebitenFE := NewEbitenFrontend(nil, cfg.Video.Scale, "NitroLink")
		keypad = ebitenFE
		frontend = ebitenFE
	}

	machine := NewMachine(MachineOptions{
		Audio:  audio,
		Keypad: keypad,
		Logger: logger,
	})
	machine.Host.onSleep = func() {
		logger.Info("cartridge requested sleep")
	}
	machine.OnHostReset = func() {
		logger.Info("host reset complete", "entry",
			machine.Host.handover.AwaitEntry())
		machine.Stop()
	}

	if fe, ok := frontend.(*EbitenFrontend); ok {
		bindFrontendHost(fe, machine.Host)
	}
	if cfg.EchoText {
		machine.Host.Console().SetEcho(os.Stdout)
	}

	logger.Info("booting cartridge link")
	machine.Start()
	machine.RunApp(demoApp)

	go func() {
		machine.Wait()
		frontend.Stop()
	}()

	if err := frontend.Run(); err != nil {
		logger.Error("frontend failed", "err", err)
	}

	if terminal != nil {
		terminal.Stop()
	}
	machine.Stop()
}
