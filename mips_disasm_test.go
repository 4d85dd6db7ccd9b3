// mips_disasm_test.go - Disassembler decode tests

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

package main

import "testing"

// TestMIPSDisassemble spot-checks representative encodings from each
// instruction group.
func TestMIPSDisassemble(t *testing.T) {
	tests := []struct {
		name string
		op   uint32
		addr uint32
		want string
	}{
		{"nop", 0x00000000, 0x80000000, "nop"},
		{"addu", 0x00851021, 0x80000000, "addu v0, a0, a1"},
		{"subu", 0x00851023, 0x80000000, "subu v0, a0, a1"},
		{"or", 0x00A62025, 0x80000000, "or a0, a1, a2"},
		{"sll", 0x00042080, 0x80000000, "sll a0, a0, 2"},
		{"jr_ra", 0x03E00008, 0x80000000, "jr ra"},
		{"syscall", 0x0000000C, 0x80000000, "syscall"},
		{"break", 0x0000000D, 0x80000000, "break"},
		{"mfhi", 0x00001010, 0x80000000, "mfhi v0"},
		{"lw", 0x8C820004, 0x80000000, "lw v0, 4(a0)"},
		{"sw", 0xAC82FFFC, 0x80000000, "sw v0, -4(a0)"},
		{"lbu", 0x90850000, 0x80000000, "lbu a1, 0(a0)"},
		{"lui", 0x3C048000, 0x80000000, "lui a0, 0x8000"},
		{"ori", 0x34840123, 0x80000000, "ori a0, a0, 0x0123"},
		{"addiu", 0x2442FFFF, 0x80000000, "addiu v0, v0, -1"},
		{"beq", 0x10850003, 0x80000010, "beq a0, a1, 80000020"},
		{"bne", 0x1485FFFF, 0x80000010, "bne a0, a1, 80000010"},
		{"bltz", 0x04800002, 0x80000000, "bltz a0, 8000000C"},
		{"j", 0x08000040, 0x80000000, "j 80000100"},
		{"jal", 0x0C000040, 0x80000000, "jal 80000100"},
		{"mul", 0x70851002, 0x80000000, "mul v0, a0, a1"},
		{"unknown", 0xFFFFFFFF, 0x80000000, ".word 0xFFFFFFFF"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mipsDisassemble(tc.op, tc.addr); got != tc.want {
				t.Errorf("%08X: got %q, want %q", tc.op, got, tc.want)
			}
		})
	}
}
