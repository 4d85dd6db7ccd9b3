// mips_disasm.go - Compact MIPS32 disassembler for exception reports

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
mips_disasm.go - MIPS32 Disassembler

Just enough of the MIPS32 instruction set to make the two instruction
words in an exception report readable on a 32-column screen: the
SPECIAL and REGIMM groups, loads and stores, immediate arithmetic,
branches and jumps, and the multiplier unit. Anything else renders as
its opcode fields.
*/

package main

import "fmt"

var mipsRegNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// mipsDisassemble renders one instruction word located at addr. Branch
// targets are resolved relative to addr.
func mipsDisassemble(op uint32, addr uint32) string {
	if op == 0 {
		return "nop"
	}

	opcode := op >> 26
	rs := (op >> 21) & 31
	rt := (op >> 16) & 31
	rd := (op >> 11) & 31
	sa := (op >> 6) & 31
	funct := op & 63
	imm := int16(op & 0xFFFF)
	uimm := op & 0xFFFF
	target := (addr+4)&0xF0000000 | (op&0x03FFFFFF)<<2
	branch := addr + 4 + uint32(int32(imm))<<2

	r := func(n uint32) string { return mipsRegNames[n] }

	switch opcode {
	case 0: // SPECIAL
		switch funct {
		case 0x00:
			return fmt.Sprintf("sll %s, %s, %d", r(rd), r(rt), sa)
		case 0x02:
			return fmt.Sprintf("srl %s, %s, %d", r(rd), r(rt), sa)
		case 0x03:
			return fmt.Sprintf("sra %s, %s, %d", r(rd), r(rt), sa)
		case 0x04:
			return fmt.Sprintf("sllv %s, %s, %s", r(rd), r(rt), r(rs))
		case 0x06:
			return fmt.Sprintf("srlv %s, %s, %s", r(rd), r(rt), r(rs))
		case 0x07:
			return fmt.Sprintf("srav %s, %s, %s", r(rd), r(rt), r(rs))
		case 0x08:
			return fmt.Sprintf("jr %s", r(rs))
		case 0x09:
			return fmt.Sprintf("jalr %s, %s", r(rd), r(rs))
		case 0x0A:
			return fmt.Sprintf("movz %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x0B:
			return fmt.Sprintf("movn %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x0C:
			return "syscall"
		case 0x0D:
			return "break"
		case 0x10:
			return fmt.Sprintf("mfhi %s", r(rd))
		case 0x11:
			return fmt.Sprintf("mthi %s", r(rs))
		case 0x12:
			return fmt.Sprintf("mflo %s", r(rd))
		case 0x13:
			return fmt.Sprintf("mtlo %s", r(rs))
		case 0x18:
			return fmt.Sprintf("mult %s, %s", r(rs), r(rt))
		case 0x19:
			return fmt.Sprintf("multu %s, %s", r(rs), r(rt))
		case 0x1A:
			return fmt.Sprintf("div %s, %s", r(rs), r(rt))
		case 0x1B:
			return fmt.Sprintf("divu %s, %s", r(rs), r(rt))
		case 0x20:
			return fmt.Sprintf("add %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x21:
			return fmt.Sprintf("addu %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x22:
			return fmt.Sprintf("sub %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x23:
			return fmt.Sprintf("subu %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x24:
			return fmt.Sprintf("and %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x25:
			return fmt.Sprintf("or %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x26:
			return fmt.Sprintf("xor %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x27:
			return fmt.Sprintf("nor %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x2A:
			return fmt.Sprintf("slt %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x2B:
			return fmt.Sprintf("sltu %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x34:
			return "teq"
		}

	case 1: // REGIMM
		switch rt {
		case 0x00:
			return fmt.Sprintf("bltz %s, %08X", r(rs), branch)
		case 0x01:
			return fmt.Sprintf("bgez %s, %08X", r(rs), branch)
		case 0x10:
			return fmt.Sprintf("bltzal %s, %08X", r(rs), branch)
		case 0x11:
			return fmt.Sprintf("bgezal %s, %08X", r(rs), branch)
		}

	case 0x02:
		return fmt.Sprintf("j %08X", target)
	case 0x03:
		return fmt.Sprintf("jal %08X", target)
	case 0x04:
		return fmt.Sprintf("beq %s, %s, %08X", r(rs), r(rt), branch)
	case 0x05:
		return fmt.Sprintf("bne %s, %s, %08X", r(rs), r(rt), branch)
	case 0x06:
		return fmt.Sprintf("blez %s, %08X", r(rs), branch)
	case 0x07:
		return fmt.Sprintf("bgtz %s, %08X", r(rs), branch)
	case 0x08:
		return fmt.Sprintf("addi %s, %s, %d", r(rt), r(rs), imm)
	case 0x09:
		return fmt.Sprintf("addiu %s, %s, %d", r(rt), r(rs), imm)
	case 0x0A:
		return fmt.Sprintf("slti %s, %s, %d", r(rt), r(rs), imm)
	case 0x0B:
		return fmt.Sprintf("sltiu %s, %s, %d", r(rt), r(rs), imm)
	case 0x0C:
		return fmt.Sprintf("andi %s, %s, 0x%04X", r(rt), r(rs), uimm)
	case 0x0D:
		return fmt.Sprintf("ori %s, %s, 0x%04X", r(rt), r(rs), uimm)
	case 0x0E:
		return fmt.Sprintf("xori %s, %s, 0x%04X", r(rt), r(rs), uimm)
	case 0x0F:
		return fmt.Sprintf("lui %s, 0x%04X", r(rt), uimm)
	case 0x1C: // SPECIAL2
		switch funct {
		case 0x02:
			return fmt.Sprintf("mul %s, %s, %s", r(rd), r(rs), r(rt))
		case 0x20:
			return fmt.Sprintf("clz %s, %s", r(rd), r(rs))
		case 0x21:
			return fmt.Sprintf("clo %s, %s", r(rd), r(rs))
		}
	case 0x20:
		return fmt.Sprintf("lb %s, %d(%s)", r(rt), imm, r(rs))
	case 0x21:
		return fmt.Sprintf("lh %s, %d(%s)", r(rt), imm, r(rs))
	case 0x22:
		return fmt.Sprintf("lwl %s, %d(%s)", r(rt), imm, r(rs))
	case 0x23:
		return fmt.Sprintf("lw %s, %d(%s)", r(rt), imm, r(rs))
	case 0x24:
		return fmt.Sprintf("lbu %s, %d(%s)", r(rt), imm, r(rs))
	case 0x25:
		return fmt.Sprintf("lhu %s, %d(%s)", r(rt), imm, r(rs))
	case 0x26:
		return fmt.Sprintf("lwr %s, %d(%s)", r(rt), imm, r(rs))
	case 0x28:
		return fmt.Sprintf("sb %s, %d(%s)", r(rt), imm, r(rs))
	case 0x29:
		return fmt.Sprintf("sh %s, %d(%s)", r(rt), imm, r(rs))
	case 0x2A:
		return fmt.Sprintf("swl %s, %d(%s)", r(rt), imm, r(rs))
	case 0x2B:
		return fmt.Sprintf("sw %s, %d(%s)", r(rt), imm, r(rs))
	case 0x2E:
		return fmt.Sprintf("swr %s, %d(%s)", r(rt), imm, r(rs))
	case 0x30:
		return fmt.Sprintf("ll %s, %d(%s)", r(rt), imm, r(rs))
	case 0x38:
		return fmt.Sprintf("sc %s, %d(%s)", r(rt), imm, r(rs))
	}

	return fmt.Sprintf(".word 0x%08X", op)
}
