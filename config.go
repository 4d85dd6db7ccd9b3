// config.go - Machine configuration file

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

// YAML machine configuration, overridable by command-line flags.

package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Video struct {
		// Scale is the integer window scale factor, 1 to 4.
		Scale int `yaml:"scale"`
	} `yaml:"video"`

	Audio struct {
		// Backend selects the mixer: "oto", "portaudio" or "none".
		Backend string `yaml:"backend"`
	} `yaml:"audio"`

	// Headless runs without a window, taking input from the terminal.
	Headless bool `yaml:"headless"`

	// EchoText mirrors the cartridge's console output to stdout.
	EchoText bool `yaml:"echo_text"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	var cfg Config
	cfg.Video.Scale = 2
	cfg.Audio.Backend = "oto"
	cfg.EchoText = true
	cfg.LogLevel = "info"
	return cfg
}

// LoadConfig reads a YAML config file over the defaults. A missing
// file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
