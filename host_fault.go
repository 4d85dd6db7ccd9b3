// host_fault.go - Rendering cartridge assertion and exception reports

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
host_fault.go - Cartridge Fault Display

A fault report is the last thing the cartridge ever sends. The host
clears the Sub-screen console, renders the report - for exceptions,
the cause, the register file and a disassembly of the two instructions
around the faulting address - and marks the link dead so the command
loop exits to idle.
*/

package main

import "fmt"

// excodeNames maps MIPS cause codes to the names shown on screen.
var excodeNames = map[uint32]string{
	1:  "TLB modification",
	2:  "TLB load/fetch",
	3:  "TLB store",
	4:  "Address error (load/fetch)",
	5:  "Address error (store)",
	6:  "Bus error (fetch)",
	7:  "Bus error (load/store)",
	9:  "Breakpoint",
	10: "Reserved instruction",
	11: "Coprocessor unusable",
	12: "Arithmetic overflow",
	13: "Trap",
	15: "Floating point",
	18: "Coprocessor 2",
	23: "Watchpoint",
	24: "Machine check",
	30: "Cache error",
}

// receiveAssert renders an assertion failure.
func (h *Host) receiveAssert() {
	h.cardReadData(508, h.scratch[:], true)
	report := decodeAssertReport(h.scratch[:])

	h.setSubText()
	h.console.Clear()
	fmt.Fprintf(h.console, "- cartridge assertion failure -\n\nFile: %s\nLine: %d\n\n%s\n",
		report.File, report.Line, report.Text)
	if h.log != nil {
		h.log.Error("cartridge assertion failure",
			"file", report.File, "line", report.Line, "text", report.Text)
	}

	h.irq.Lock()
	h.linkStatus = HOST_LINK_ERROR
	h.irq.Unlock()
	h.irq.Raise()
}

// receiveException renders an unhandled exception with a disassembly of
// the faulting instruction and its successor.
func (h *Host) receiveException() {
	h.cardReadData((EXCEPTION_WIRE_LEN+3)&^3, h.scratch[:], false)
	h.cardIgnoreReply()
	report := decodeExceptionReport(h.scratch[:])

	name := excodeNames[report.Excode]
	if name == "" {
		name = fmt.Sprintf("Exception %d", report.Excode)
	}

	h.setSubText()
	h.console.Clear()
	fmt.Fprintf(h.console, "- cartridge exception -\n%s\n\n", name)

	if report.Mapped != 0 {
		fmt.Fprintf(h.console, "%08X: %s\n", report.EPC,
			mipsDisassemble(report.Op, report.EPC))
		fmt.Fprintf(h.console, "%08X: %s\n\n", report.EPC+4,
			mipsDisassemble(report.NextOp, report.EPC+4))
	} else {
		fmt.Fprintf(h.console, "at unmapped address %08X\n\n", report.EPC)
	}

	// Two registers a row, so every row fits the 32-column console and
	// the whole report fits its 24 rows.
	r := &report.Registers
	regs := [...]uint32{r.AT, r.V0, r.V1, r.A0, r.A1, r.A2, r.A3, r.T0, r.T1,
		r.T2, r.T3, r.T4, r.T5, r.T6, r.T7, r.S0, r.S1, r.S2, r.S3, r.S4,
		r.S5, r.S6, r.S7, r.T8, r.T9, r.GP, r.SP, r.FP, r.RA, r.HI, r.LO}
	names := append(append(mipsRegNames[1:26:26], mipsRegNames[28:]...), "hi", "lo")
	for i := 0; i < len(regs); i += 2 {
		fmt.Fprintf(h.console, "%s %08X", names[i], regs[i])
		if i+1 < len(regs) {
			fmt.Fprintf(h.console, " %s %08X", names[i+1], regs[i+1])
		}
		fmt.Fprintln(h.console)
	}

	if h.log != nil {
		h.log.Error("cartridge exception", "cause", name, "epc",
			fmt.Sprintf("%08X", report.EPC))
	}

	h.irq.Lock()
	h.linkStatus = HOST_LINK_ERROR
	h.irq.Unlock()
	h.irq.Raise()
}
