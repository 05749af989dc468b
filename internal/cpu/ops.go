package cpu

var handlers = [numOps]func(*CPU, Mode){
	NOP: (*CPU).nop, JAM: (*CPU).jam, WAI: (*CPU).wai,
	PHP: (*CPU).php, PLP: (*CPU).plp,
	PHA: (*CPU).pha, PLA: (*CPU).pla, PHB: (*CPU).phb, PLB: (*CPU).plb,
	PHX: (*CPU).phx, PLX: (*CPU).plx, PHY: (*CPU).phy, PLY: (*CPU).ply,
	PHD: (*CPU).phd, PLD: (*CPU).pld,
	TAB: (*CPU).tab, TAX: (*CPU).tax, TAY: (*CPU).tay, TBA: (*CPU).tba,
	TXA: (*CPU).txa, TXY: (*CPU).txy, TYA: (*CPU).tya, TYX: (*CPU).tyx,
	TXS: (*CPU).txs, TSX: (*CPU).tsx, THD: (*CPU).thd, TDH: (*CPU).tdh,
	CLC: (*CPU).clc, SEC: (*CPU).sec, CLI: (*CPU).cli, SEI: (*CPU).sei,
	CLF: (*CPU).clf, SEF: (*CPU).sef, CLV: (*CPU).clv,
	INX: (*CPU).inx, DEX: (*CPU).dex, INY: (*CPU).iny, DEY: (*CPU).dey,
	INS: (*CPU).ins, DES: (*CPU).des,
	ASL: (*CPU).asl, LSR: (*CPU).lsr, ROL: (*CPU).rol, ROR: (*CPU).ror,
	CMP: (*CPU).cmp, CPX: (*CPU).cpx, CPY: (*CPU).cpy, CMD: (*CPU).cmd,
	AND: (*CPU).and, ORA: (*CPU).ora, XOR: (*CPU).xor,
	LTA: (*CPU).lta, LTB: (*CPU).ltb, LTX: (*CPU).ltx, LTY: (*CPU).lty, LTD: (*CPU).ltd,
	ADC: (*CPU).adc, SBC: (*CPU).sbc,
	STZ: (*CPU).stz, STA: (*CPU).sta, STB: (*CPU).stb, STX: (*CPU).stx, STY: (*CPU).sty, STD: (*CPU).std,
	BPL: (*CPU).bpl, BMI: (*CPU).bmi, BVC: (*CPU).bvc, BVS: (*CPU).bvs,
	BCC: (*CPU).bcc, BCS: (*CPU).bcs, BNE: (*CPU).bne, BEQ: (*CPU).beq, BRA: (*CPU).bra,
	INC: (*CPU).inc, DEC: (*CPU).dec, BIT: (*CPU).bit,
	MUL: (*CPU).mul, DIV: (*CPU).div, MOD: (*CPU).mod, LTV: (*CPU).ltv,
	JMP: (*CPU).jmp, JSR: (*CPU).jsr, RTS: (*CPU).rts, RTI: (*CPU).rti,
}

func (c *CPU) nop(Mode) {}
func (c *CPU) jam(Mode) { c.halted = true }
func (c *CPU) wai(Mode) { c.waiting = true }

// stack transfers

func (c *CPU) php(Mode) { c.push8(c.P) }
func (c *CPU) plp(Mode) { c.P = c.pull8() }
func (c *CPU) pha(Mode) { c.push16(c.A) }
func (c *CPU) pla(Mode) { c.A = c.pull16(); c.update16(c.A) }
func (c *CPU) phb(Mode) { c.push16(c.B) }
func (c *CPU) plb(Mode) { c.B = c.pull16(); c.update16(c.B) }
func (c *CPU) phx(Mode) { c.push16(c.X) }
func (c *CPU) plx(Mode) { c.X = c.pull16(); c.update16(c.X) }
func (c *CPU) phy(Mode) { c.push16(c.Y) }
func (c *CPU) ply(Mode) { c.Y = c.pull16(); c.update16(c.Y) }
func (c *CPU) phd(Mode) { c.push8(byte(c.A)) }

func (c *CPU) pld(Mode) {
	c.A = c.A&0xFF00 | uint16(c.pull8())
	c.update8(byte(c.A))
}

// register transfers

func (c *CPU) tab(Mode) { c.B = c.A; c.update16(c.B) }
func (c *CPU) tax(Mode) { c.X = c.A; c.update16(c.X) }
func (c *CPU) tay(Mode) { c.Y = c.A; c.update16(c.Y) }
func (c *CPU) tba(Mode) { c.A = c.B; c.update16(c.A) }
func (c *CPU) txa(Mode) { c.A = c.X; c.update16(c.A) }
func (c *CPU) txy(Mode) { c.Y = c.X; c.update16(c.Y) }
func (c *CPU) tya(Mode) { c.A = c.Y; c.update16(c.A) }
func (c *CPU) tyx(Mode) { c.X = c.Y; c.update16(c.X) }
func (c *CPU) tsx(Mode) { c.X = c.S; c.update16(c.X) }

func (c *CPU) txs(Mode) {
	c.S = c.X & StackTop
	if c.S < c.L {
		c.S = StackTop
	}
	c.update16(c.S)
}

// thd copies the high byte of A into its low byte.
func (c *CPU) thd(Mode) {
	c.A = c.A&0xFF00 | c.A>>8
	c.update8(byte(c.A))
}

// tdh copies the low byte of A into its high byte.
func (c *CPU) tdh(Mode) {
	c.A = c.A&0x00FF | c.A<<8
	c.update8(byte(c.A >> 8))
}

// status

func (c *CPU) clc(Mode) { c.setFlag(FlagC, false) }
func (c *CPU) sec(Mode) { c.setFlag(FlagC, true) }
func (c *CPU) cli(Mode) { c.setFlag(FlagI, false) }
func (c *CPU) sei(Mode) { c.setFlag(FlagI, true) }
func (c *CPU) clf(Mode) { c.setFlag(FlagF, false) }
func (c *CPU) sef(Mode) { c.setFlag(FlagF, true) }
func (c *CPU) clv(Mode) { c.setFlag(FlagV, false) }

// index and stack counters

func (c *CPU) inx(Mode) { c.X++; c.update16(c.X) }
func (c *CPU) dex(Mode) { c.X--; c.update16(c.X) }
func (c *CPU) iny(Mode) { c.Y++; c.update16(c.Y) }
func (c *CPU) dey(Mode) { c.Y--; c.update16(c.Y) }
func (c *CPU) ins(Mode) { c.stackUp() }
func (c *CPU) des(Mode) { c.stackDown() }

// shifts: A is shifted as a word, memory as a byte

func (c *CPU) asl(m Mode) {
	if m == ModeAcc {
		c.setFlag(FlagC, c.A&0x8000 != 0)
		c.A <<= 1
		c.update16(c.A)
		return
	}
	addr := c.address(m)
	v := c.read8(addr)
	c.setFlag(FlagC, v&0x80 != 0)
	v <<= 1
	c.write8(addr, v)
	c.update8(v)
}

func (c *CPU) lsr(m Mode) {
	if m == ModeAcc {
		c.setFlag(FlagC, c.A&1 != 0)
		c.A >>= 1
		c.update16(c.A)
		return
	}
	addr := c.address(m)
	v := c.read8(addr)
	c.setFlag(FlagC, v&1 != 0)
	v >>= 1
	c.write8(addr, v)
	c.update8(v)
}

func (c *CPU) rol(m Mode) {
	carry := c.flag(FlagC)
	if m == ModeAcc {
		c.setFlag(FlagC, c.A&0x8000 != 0)
		c.A <<= 1
		if carry {
			c.A |= 1
		}
		c.update16(c.A)
		return
	}
	addr := c.address(m)
	v := c.read8(addr)
	c.setFlag(FlagC, v&0x80 != 0)
	v <<= 1
	if carry {
		v |= 1
	}
	c.write8(addr, v)
	c.update8(v)
}

func (c *CPU) ror(m Mode) {
	carry := c.flag(FlagC)
	if m == ModeAcc {
		c.setFlag(FlagC, c.A&1 != 0)
		c.A >>= 1
		if carry {
			c.A |= 0x8000
		}
		c.update16(c.A)
		return
	}
	addr := c.address(m)
	v := c.read8(addr)
	c.setFlag(FlagC, v&1 != 0)
	v >>= 1
	if carry {
		v |= 0x80
	}
	c.write8(addr, v)
	c.update8(v)
}

// compares

func (c *CPU) compare16(f, s uint16) {
	c.setFlag(FlagN, (f-s)&0x8000 != 0)
	c.setFlag(FlagC, f >= s)
	c.setFlag(FlagZ, f == s)
}

func (c *CPU) cmp(m Mode) { c.compare16(c.A, c.readWord(m)) }
func (c *CPU) cpx(m Mode) { c.compare16(c.X, c.readWord(m)) }
func (c *CPU) cpy(m Mode) { c.compare16(c.Y, c.readWord(m)) }

func (c *CPU) cmd(m Mode) {
	f := byte(c.A)
	s := c.readByte(m)
	c.setFlag(FlagN, (f-s)&0x80 != 0)
	c.setFlag(FlagC, f >= s)
	c.setFlag(FlagZ, f == s)
}

// logic and loads

func (c *CPU) and(m Mode) { c.A &= c.readWord(m); c.update16(c.A) }
func (c *CPU) ora(m Mode) { c.A |= c.readWord(m); c.update16(c.A) }
func (c *CPU) xor(m Mode) { c.A ^= c.readWord(m); c.update16(c.A) }
func (c *CPU) lta(m Mode) { c.A = c.readWord(m); c.update16(c.A) }
func (c *CPU) ltb(m Mode) { c.B = c.readWord(m); c.update16(c.B) }
func (c *CPU) ltx(m Mode) { c.X = c.readWord(m); c.update16(c.X) }
func (c *CPU) lty(m Mode) { c.Y = c.readWord(m); c.update16(c.Y) }

func (c *CPU) ltd(m Mode) {
	c.A = c.A&0xFF00 | uint16(c.readByte(m))
	c.update8(byte(c.A))
}

// arithmetic

func (c *CPU) carry() uint32 {
	if c.flag(FlagC) {
		return 1
	}
	return 0
}

func (c *CPU) adc(m Mode) {
	res := uint32(c.A) + uint32(c.readWord(m)) + c.carry()
	c.A = uint16(res)
	c.setFlag(FlagC, res>>16 != 0)
	c.update16(c.A)
}

// sbc computes A - operand + C - 1; carry out is the inverse of borrow.
func (c *CPU) sbc(m Mode) {
	res := uint32(c.A) - uint32(c.readWord(m)) + c.carry() - 1
	c.A = uint16(res)
	c.setFlag(FlagC, res>>16 == 0)
	c.update16(c.A)
}

func (c *CPU) mul(Mode) {
	if c.flag(FlagF) {
		c.A = uint16(uint32(c.A) * uint32(c.B) >> 8)
	} else {
		c.A = c.A * c.B
	}
	c.update16(c.A)
}

func (c *CPU) div(Mode) {
	if c.B == 0 {
		return
	}
	if c.flag(FlagF) {
		c.A = uint16(uint32(c.A) << 8 / uint32(c.B))
	} else {
		c.A = c.A / c.B
	}
	c.update16(c.A)
}

func (c *CPU) mod(Mode) {
	if c.B == 0 {
		return
	}
	c.A = c.A % c.B
	c.update16(c.A)
}

// stores

func (c *CPU) stz(m Mode) { c.write8(c.address(m), 0) }
func (c *CPU) sta(m Mode) { c.write16(c.address(m), c.A) }
func (c *CPU) stb(m Mode) { c.write16(c.address(m), c.B) }
func (c *CPU) stx(m Mode) { c.write16(c.address(m), c.X) }
func (c *CPU) sty(m Mode) { c.write16(c.address(m), c.Y) }
func (c *CPU) std(m Mode) { c.write8(c.address(m), byte(c.A)) }

// branches land one past the decoded address

func (c *CPU) branch(m Mode, take bool) {
	addr := c.address(m)
	if take {
		c.I = addr + 1
	}
}

func (c *CPU) bpl(m Mode) { c.branch(m, !c.flag(FlagN)) }
func (c *CPU) bmi(m Mode) { c.branch(m, c.flag(FlagN)) }
func (c *CPU) bvc(m Mode) { c.branch(m, !c.flag(FlagV)) }
func (c *CPU) bvs(m Mode) { c.branch(m, c.flag(FlagV)) }
func (c *CPU) bcc(m Mode) { c.branch(m, !c.flag(FlagC)) }
func (c *CPU) bcs(m Mode) { c.branch(m, c.flag(FlagC)) }
func (c *CPU) bne(m Mode) { c.branch(m, !c.flag(FlagZ)) }
func (c *CPU) beq(m Mode) { c.branch(m, c.flag(FlagZ)) }
func (c *CPU) bra(m Mode) { c.branch(m, true) }

// read-modify-write: A as a word, memory as a byte

func (c *CPU) inc(m Mode) {
	if m == ModeAcc {
		c.A++
		c.update16(c.A)
		return
	}
	addr := c.address(m)
	v := c.read8(addr) + 1
	c.update8(v)
	c.write8(addr, v)
}

func (c *CPU) dec(m Mode) {
	if m == ModeAcc {
		c.A--
		c.update16(c.A)
		return
	}
	addr := c.address(m)
	v := c.read8(addr) - 1
	c.update8(v)
	c.write8(addr, v)
}

// bit takes V from bit 14 of the operand, not bit 15.
func (c *CPU) bit(m Mode) {
	d := c.readWord(m)
	c.setFlag(FlagZ, c.A&d == 0)
	c.setFlag(FlagN, d&0x8000 != 0)
	c.setFlag(FlagV, d&0x4000 != 0)
}

// ltv keeps S inside [L, 0x1FFF]; a limit above S resets S to the top.
func (c *CPU) ltv(Mode) {
	c.L = c.X & StackTop
	if c.S < c.L {
		c.S = StackTop
	}
}

// control flow

func (c *CPU) jmp(m Mode) { c.I = c.address(m) }

func (c *CPU) jsr(m Mode) {
	c.push16(c.I + 2)
	c.I = c.address(m)
}

func (c *CPU) rts(Mode) { c.I = c.pull16() }

func (c *CPU) rti(Mode) {
	c.P = c.pull8()
	c.I = c.pull16()
}
