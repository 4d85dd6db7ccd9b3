// main.go - linkdump: decode a captured reply stream into readable frames

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

// linkdump reads a binary capture of 512-byte send-queue replies on
// stdin (or a file) and prints one line per frame: kind, encoding,
// byte count, end flag, and the video sub-header when present. Handy
// when a logic-analyser dump of the cartridge bus needs eyeballing.

package main

import (
	"fmt"
	"io"
	"os"
)

const frameLen = 512

const (
	kindNone          = 0
	kindVideo         = 1
	kindAudio         = 2
	kindRequests      = 3
	kindText          = 4
	kindMipsAssert    = 0xFD
	kindMipsException = 0xFE
)

var kindNames = map[uint8]string{
	kindNone:          "none",
	kindVideo:         "video",
	kindAudio:         "audio",
	kindRequests:      "requests",
	kindText:          "text",
	kindMipsAssert:    "assert",
	kindMipsException: "exception",
}

func word(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func decodeFrame(n int, frame []byte, out io.Writer) {
	header := word(frame)
	kind := uint8(header >> 24)
	encoding := uint8(header >> 16)
	byteCount := header >> 6 & 0x3FF
	end := header&1 != 0

	name := kindNames[kind]
	if name == "" {
		name = fmt.Sprintf("kind(%02X)", kind)
	}

	fmt.Fprintf(out, "frame %4d  %-9s enc %d  %4d bytes  end=%v",
		n, name, encoding, byteCount, end)

	if kind == kindVideo {
		h2 := word(frame[4:])
		engine := "sub"
		if h2&(1<<15) != 0 {
			engine = "main"
		}
		fmt.Fprintf(out, "  %s buf %d px %d eof=%v",
			engine, h2>>13&3, h2>>16, h2&(1<<12) != 0)
	}
	fmt.Fprintln(out)
}

func main() {
	in := os.Stdin
	if len(os.Args) == 2 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	} else if len(os.Args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: linkdump [capture.bin]")
		os.Exit(1)
	}

	frame := make([]byte, frameLen)
	for n := 0; ; n++ {
		_, err := io.ReadFull(in, frame)
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		decodeFrame(n, frame, os.Stdout)
	}
}
