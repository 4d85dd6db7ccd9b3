// cart_fault.go - Assertion failures and unhandled exceptions

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
cart_fault.go - Cartridge Fault Reporting

A fault is terminal. The report is banked, queued at the highest send
priority, and the faulting goroutine parks forever; the host renders
the report on its Sub-screen console and marks the link dead. When the
report leaves the wire the whole pending-send set is clobbered - the
END bit included - because nothing else the firmware had queued can
matter any more.
*/

package main

// AssertFail reports a failed assertion and parks the calling
// goroutine forever.
func (c *Cart) AssertFail(file string, line uint32, text string) {
	c.irq.Lock()
	c.assertReport = AssertReport{Line: line, File: file, Text: text}
	c.addPendingSend(PENDING_SEND_ASSERT)
	for {
		c.irq.Await()
	}
}

// sendAssert answers one SEND_QUEUE with the assertion report. Caller
// must hold the hub.
func (c *Cart) sendAssert() {
	for i := range c.temp {
		c.temp[i] = 0
	}
	putWord(c.temp[0:], packHeader1(DATA_KIND_MIPS_ASSERT, 0, 7+ASSERT_DATA_LEN, true))
	encodeAssertReport(&c.assertReport, c.temp[4:])
	c.sendReply(c.temp[:512])

	c.pendingSends = 0
}

// RaiseException reports an unhandled processor exception and parks the
// calling goroutine forever. Op and nextOp are the instruction words at
// and after epc when mapped is true.
func (c *Cart) RaiseException(excode uint32, registers RegisterBlock, epc, op, nextOp uint32, mapped bool) {
	c.irq.Lock()
	c.exception = ExceptionReport{
		Excode:    excode,
		Registers: registers,
		EPC:       epc,
	}
	if mapped {
		c.exception.Mapped = 1
		c.exception.Op = op
		c.exception.NextOp = nextOp
	}
	c.addPendingSend(PENDING_SEND_EXCEPTION)
	for {
		c.irq.Await()
	}
}

// sendException answers one SEND_QUEUE with the exception report.
// Caller must hold the hub.
func (c *Cart) sendException() {
	for i := range c.temp {
		c.temp[i] = 0
	}
	putWord(c.temp[0:], packHeader1(DATA_KIND_MIPS_EXCEPTION, 0, EXCEPTION_WIRE_LEN, true))
	encodeExceptionReport(&c.exception, c.temp[4:])
	c.sendReply(c.temp[:512])

	c.pendingSends = 0
}
