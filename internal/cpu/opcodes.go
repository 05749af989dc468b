package cpu

// Op identifies an operation independent of its addressing mode.
type Op byte

const (
	NOP Op = iota
	JAM
	WAI
	PHP
	PLP
	PHA
	PLA
	PHB
	PLB
	PHX
	PLX
	PHY
	PLY
	PHD
	PLD
	TAB
	TAX
	TAY
	TBA
	TXA
	TXY
	TYA
	TYX
	TXS
	TSX
	THD
	TDH
	CLC
	SEC
	CLI
	SEI
	CLF
	SEF
	CLV
	INX
	DEX
	INY
	DEY
	INS
	DES
	ASL
	LSR
	ROL
	ROR
	CMP
	CPX
	CPY
	CMD
	AND
	ORA
	XOR
	LTA
	LTB
	LTX
	LTY
	LTD
	ADC
	SBC
	STZ
	STA
	STB
	STX
	STY
	STD
	BPL
	BMI
	BVC
	BVS
	BCC
	BCS
	BNE
	BEQ
	BRA
	INC
	DEC
	BIT
	MUL
	DIV
	MOD
	LTV
	JMP
	JSR
	RTS
	RTI
	numOps
)

var opNames = [numOps]string{
	"NOP", "JAM", "WAI", "PHP", "PLP", "PHA", "PLA", "PHB", "PLB", "PHX", "PLX", "PHY", "PLY", "PHD", "PLD",
	"TAB", "TAX", "TAY", "TBA", "TXA", "TXY", "TYA", "TYX", "TXS", "TSX", "THD", "TDH",
	"CLC", "SEC", "CLI", "SEI", "CLF", "SEF", "CLV",
	"INX", "DEX", "INY", "DEY", "INS", "DES",
	"ASL", "LSR", "ROL", "ROR",
	"CMP", "CPX", "CPY", "CMD",
	"AND", "ORA", "XOR",
	"LTA", "LTB", "LTX", "LTY", "LTD",
	"ADC", "SBC",
	"STZ", "STA", "STB", "STX", "STY", "STD",
	"BPL", "BMI", "BVC", "BVS", "BCC", "BCS", "BNE", "BEQ", "BRA",
	"INC", "DEC", "BIT", "MUL", "DIV", "MOD", "LTV",
	"JMP", "JSR", "RTS", "RTI",
}

func (o Op) String() string {
	if o < numOps {
		return opNames[o]
	}
	return "???"
}

// Mode is an operand addressing mode.
type Mode byte

const (
	ModeNone  Mode = iota
	ModeImp        // implied
	ModeAcc        // accumulator A
	ModeBuf        // buffer register B
	ModeImm8       // 8-bit immediate
	ModeImm16      // 16-bit immediate
	ModeRel        // signed byte relative to I
	ModeAbs        // absolute
	ModeAbsX       // absolute + X
	ModeAbsY       // absolute + Y
	ModeZP         // short (zero page)
	ModeZPX        // short + X
	ModeZPY        // short + Y
	ModeInd        // register X as address
)

var modeNames = [...]string{"---", "imp", "acc", "buf", "#8", "#16", "rel", "abs", "abs,x", "abs,y", "zp", "zp,x", "zp,y", "(x)"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "?"
}

// OperandBytes is the number of instruction-stream bytes a mode consumes.
func (m Mode) OperandBytes() int {
	switch m {
	case ModeImm8, ModeRel, ModeZP, ModeZPX, ModeZPY:
		return 1
	case ModeImm16, ModeAbs, ModeAbsX, ModeAbsY:
		return 2
	}
	return 0
}

const (
	non = ModeNone
	imp = ModeImp
	acc = ModeAcc
	buf = ModeBuf
	im8 = ModeImm8
	i16 = ModeImm16
	rel = ModeRel
	abs = ModeAbs
	abx = ModeAbsX
	aby = ModeAbsY
	zpg = ModeZP
	zpx = ModeZPX
	zpy = ModeZPY
	ind = ModeInd
)

// Undefined encodings decode to JAM with ModeNone.
var opTable = [256]Op{
	NOP, AND, ADC, JAM, ASL, AND, ADC, CLC, JAM, AND, ADC, JAM, ASL, AND, ADC, TAB, // 00
	BPL, AND, ADC, JAM, ASL, AND, ADC, SEC, WAI, AND, ADC, JAM, ASL, AND, ADC, TAX, // 10
	JSR, ORA, SBC, JAM, LSR, ORA, SBC, CLI, INS, ORA, SBC, JAM, LSR, ORA, SBC, TAY, // 20
	BMI, ORA, SBC, JAM, LSR, ORA, SBC, SEI, DES, ORA, SBC, JAM, LSR, ORA, SBC, TBA, // 30
	RTI, XOR, INX, JAM, ROL, XOR, STZ, CLF, PHP, XOR, STZ, JAM, ROL, XOR, STZ, TXA, // 40
	BVC, XOR, INY, JAM, ROL, XOR, STZ, SEF, PLP, XOR, STZ, JAM, ROL, XOR, STZ, TXY, // 50
	RTS, LTA, DEX, JAM, ROR, LTA, STA, INC, PHA, LTA, STA, JAM, ROR, LTA, STA, TYA, // 60
	BVS, LTA, DEY, JAM, ROR, LTA, STA, DEC, PLA, LTA, STA, JAM, ROR, LTA, STA, TYX, // 70
	CLV, LTB, ADC, JAM, CMP, LTB, STB, JAM, PHB, LTB, STB, JAM, CMP, LTB, STB, TXS, // 80
	BCC, LTB, SBC, JAM, CMP, LTB, STB, JAM, PLB, LTB, STB, JAM, CMP, LTB, STB, TSX, // 90
	MUL, LTX, AND, JAM, CPX, LTX, STX, JAM, PHX, LTX, INC, JAM, BIT, LTX, STX, THD, // A0
	BCS, LTX, ORA, JAM, CPX, LTX, STX, JAM, PLX, LTX, INC, JAM, CPX, LTX, STX, TDH, // B0
	DIV, LTY, XOR, JAM, CPY, LTY, STY, JAM, PHY, LTY, STY, JAM, CPY, LTY, DEC, BRA, // C0
	BNE, LTY, CMP, JAM, CPY, LTY, STY, JAM, PLY, LTY, STY, JAM, BIT, LTY, DEC, JMP, // D0
	MOD, LTV, CPX, JAM, CMD, LTD, STD, JAM, PHD, LTD, STD, JAM, CMP, LTD, STD, JMP, // E0
	BEQ, LTD, CPY, JAM, CMD, LTD, STD, JAM, PLD, LTD, STD, JAM, CMD, LTD, STD, JSR, // F0
}

var modeTable = [256]Mode{
	imp, i16, i16, non, abs, abs, abs, imp, imp, abx, abx, non, abx, aby, aby, imp, // 00
	rel, im8, im8, non, acc, zpg, zpg, imp, imp, zpx, zpx, non, aby, zpy, zpy, imp, // 10
	abs, i16, i16, non, abs, abs, abs, imp, imp, abx, abx, non, abx, aby, aby, imp, // 20
	rel, im8, im8, non, acc, zpg, zpg, imp, imp, zpx, zpx, non, aby, zpy, zpy, imp, // 30
	imp, i16, imp, non, abs, abs, abs, imp, imp, abx, abx, non, abx, aby, aby, imp, // 40
	rel, im8, imp, non, acc, zpg, zpg, imp, imp, zpx, zpx, non, aby, zpy, zpy, imp, // 50
	imp, i16, imp, non, abs, abs, abs, acc, imp, abx, abx, non, abx, aby, aby, imp, // 60
	rel, im8, imp, non, acc, zpg, zpg, acc, imp, zpx, zpx, non, aby, zpy, zpy, imp, // 70
	imp, i16, buf, non, abs, abs, abs, non, imp, abx, abx, non, abx, aby, aby, imp, // 80
	rel, im8, buf, non, i16, zpg, zpg, non, imp, zpx, zpx, non, aby, zpy, zpy, imp, // 90
	buf, i16, buf, non, abs, abs, abs, non, imp, abx, abs, non, acc, aby, aby, imp, // A0
	rel, im8, buf, non, i16, zpg, zpg, non, imp, zpx, zpg, non, aby, zpy, zpy, imp, // B0
	buf, i16, buf, non, abs, abs, abs, non, imp, abx, abx, non, abx, aby, abs, rel, // C0
	rel, im8, buf, non, i16, zpg, zpg, non, imp, zpx, zpx, non, buf, zpy, zpg, abs, // D0
	buf, ind, buf, non, abs, abs, abs, non, imp, abx, abx, non, abx, aby, aby, ind, // E0
	rel, im8, buf, non, im8, zpg, zpg, non, imp, zpx, zpx, non, aby, zpy, zpy, ind, // F0
}

// Decode returns the operation and addressing mode for an opcode byte.
func Decode(opcode byte) (Op, Mode) {
	return opTable[opcode], modeTable[opcode]
}
