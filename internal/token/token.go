// Package token defines the lexical tokens produced by the VonSim lexer,
// grounded on a prior implementation's InLine/field-splitting approach (shared/assembler/
// assembler.go's parseAsmLine) but generalized into a real token stream so the
// parser can do proper recursive descent over number expressions instead of
// splitting on whitespace.
package token

import "vonsim"

type Kind uint8

const (
	EOF Kind = iota
	EOL

	Ident  // raw identifier, not a known keyword/mnemonic/register
	Number // 123, 7Fh, 1010b
	String // "quoted text"

	Register // AX, AL, BX, ... SP, IP

	// Keywords / directives.
	KwORG
	KwEND
	KwDB
	KwDW
	KwEQU
	KwOFFSET
	KwPTR
	KwBYTE
	KwWORD

	// Mnemonics.
	MnemonicStart
	MnADD
	MnADC
	MnSUB
	MnSBB
	MnCMP
	MnNEG
	MnINC
	MnDEC
	MnAND
	MnOR
	MnXOR
	MnNOT
	MnMOV
	MnPUSH
	MnPOP
	MnPUSHF
	MnPOPF
	MnIN
	MnOUT
	MnJMP
	MnJC
	MnJNC
	MnJZ
	MnJNZ
	MnJS
	MnJNS
	MnJO
	MnJNO
	MnCALL
	MnRET
	MnIRET
	MnINT
	MnCLI
	MnSTI
	MnHLT
	MnNOP
	MnemonicEnd

	// Punctuation.
	LBracket // [
	RBracket // ]
	LParen   // (
	RParen   // )
	Plus     // +
	Minus    // -
	Star     // *
	Comma    // ,
	Colon    // :
	Question // ?
)

var keywords = map[string]Kind{
	"ORG":    KwORG,
	"END":    KwEND,
	"DB":     KwDB,
	"DW":     KwDW,
	"EQU":    KwEQU,
	"OFFSET": KwOFFSET,
	"PTR":    KwPTR,
	"BYTE":   KwBYTE,
	"WORD":   KwWORD,
}

var mnemonics = map[string]Kind{
	"ADD": MnADD, "ADC": MnADC, "SUB": MnSUB, "SBB": MnSBB, "CMP": MnCMP,
	"NEG": MnNEG, "INC": MnINC, "DEC": MnDEC,
	"AND": MnAND, "OR": MnOR, "XOR": MnXOR, "NOT": MnNOT,
	"MOV": MnMOV,
	"PUSH": MnPUSH, "POP": MnPOP, "PUSHF": MnPUSHF, "POPF": MnPOPF,
	"IN": MnIN, "OUT": MnOUT,
	"JMP": MnJMP, "JC": MnJC, "JNC": MnJNC, "JZ": MnJZ, "JNZ": MnJNZ,
	"JS": MnJS, "JNS": MnJNS, "JO": MnJO, "JNO": MnJNO,
	"CALL": MnCALL, "RET": MnRET, "IRET": MnIRET,
	"INT": MnINT, "CLI": MnCLI, "STI": MnSTI, "HLT": MnHLT, "NOP": MnNOP,
}

// LookupWord classifies an upper-cased identifier as a register, keyword,
// mnemonic, or plain identifier, in that precedence order (spec.md §4.1:
// "Reserved words are matched before identifiers").
func LookupWord(upper string) (Kind, bool) {
	if _, ok := vonsim.RegisterByName(upper); ok {
		return Register, true
	}
	if k, ok := keywords[upper]; ok {
		return k, true
	}
	if k, ok := mnemonics[upper]; ok {
		return k, true
	}
	return 0, false
}

// IsMnemonic reports whether k names an instruction mnemonic.
func IsMnemonic(k Kind) bool {
	return k > MnemonicStart && k < MnemonicEnd
}

// Token is one lexical unit.
type Token struct {
	Kind     Kind
	Lexeme   string
	Position vonsim.Position
}

func (t Token) String() string {
	return t.Lexeme
}
