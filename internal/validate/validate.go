// Package validate implements the semantic validator (spec.md §4.3): for
// each instruction statement, checks operand arity and addressing-mode
// legality per mnemonic class and computes the instruction's encoded length
// and operand sizes, ahead of address resolution.
package validate

import (
	"vonsim"
	"vonsim/internal/ascii"
	"vonsim/internal/ast"
	"vonsim/internal/isa"
	"vonsim/internal/labels"
)

// Operand is one validated, addressing-mode-tagged operand, ready for
// encoding once label addresses are known.
type Operand struct {
	Mode     isa.AddrMode
	Register vonsim.RegisterID // Mode == ModeRegister
	Size     vonsim.Size       // resolved operand size, byte or word
	Expr     *ast.Expr         // Mode == ModeDirect (address) or ModeImmediate (value)
}

// Instruction is a fully validated instruction statement: legal operand
// combination, known class, known length, known per-operand size. Addresses
// are filled in later by internal/assemble.
type Instruction struct {
	Mnemonic string
	Class    isa.Class
	Operands []Operand
	Length   int
	Label    string
	Pos      vonsim.Position
}

// Validate checks every StmtInstruction in prog and returns the statements
// that passed, keyed by their index into prog.Statements, plus every
// violation found. A statement that fails validation is omitted from the
// map but does not stop validation of the rest (spec.md §7: "semantic ...
// errors short-circuit their statement but continue to process others").
func Validate(prog ast.Program) (map[int]*Instruction, vonsim.ErrorList) {
	lk := labels.Collect(prog)
	var errs vonsim.ErrorList
	out := make(map[int]*Instruction)

	for i, stmt := range prog.Statements {
		switch stmt.Kind {
		case ast.StmtInstruction:
			inst, ok := validateStatement(stmt, lk, &errs)
			if ok {
				out[i] = inst
			}
		case ast.StmtData:
			validateDataStrings(stmt, &errs)
		}
	}
	return out, errs
}

// validateDataStrings enforces spec.md §6's "Strings in DB: ASCII only"
// rule; a DB literal with a high-bit byte is rejected the way an operand
// size mismatch is, rather than silently truncating or wrapping it.
func validateDataStrings(stmt ast.Statement, errs *vonsim.ErrorList) {
	for _, v := range stmt.DataValues {
		if !v.IsString {
			continue
		}
		if err := ascii.Validate(v.String); err != nil {
			errs.Addf(vonsim.ErrValueOutOfRange, stmt.Pos, "DB string literal: %v", err)
		}
	}
}

func validateStatement(stmt ast.Statement, lk map[string]labels.Kind, errs *vonsim.ErrorList) (*Instruction, bool) {
	m, ok := isa.Lookup(stmt.Mnemonic)
	if !ok {
		errs.Addf(vonsim.ErrExpectedToken, stmt.Pos, "unknown mnemonic %q", stmt.Mnemonic)
		return nil, false
	}

	switch m.Class {
	case isa.Zeroary:
		return validateZeroary(stmt, m, errs)
	case isa.Stack:
		return validateStack(stmt, m, errs)
	case isa.Unary:
		return validateUnary(stmt, m, lk, errs)
	case isa.Binary:
		return validateBinary(stmt, m, lk, errs)
	case isa.Jump:
		return validateJump(stmt, m, lk, errs)
	case isa.Int:
		return validateInt(stmt, m, errs)
	case isa.IO:
		return validateIO(stmt, m, errs)
	default:
		panic("validate: unhandled class")
	}
}

func arity(stmt ast.Statement, want int, errs *vonsim.ErrorList) bool {
	if len(stmt.Operands) != want {
		errs.Addf(vonsim.ErrWrongArity, stmt.Pos, "%s expects %d operand(s), got %d", stmt.Mnemonic, want, len(stmt.Operands))
		return false
	}
	return true
}

func validateZeroary(stmt ast.Statement, m isa.Mnemonic, errs *vonsim.ErrorList) (*Instruction, bool) {
	if !arity(stmt, 0, errs) {
		return nil, false
	}
	return &Instruction{Mnemonic: m.Name, Class: m.Class, Length: 1, Label: stmt.Label, Pos: stmt.Pos}, true
}

func validateStack(stmt ast.Statement, m isa.Mnemonic, errs *vonsim.ErrorList) (*Instruction, bool) {
	if !arity(stmt, 1, errs) {
		return nil, false
	}
	op := stmt.Operands[0]
	if op.Kind != ast.OperandRegister {
		errs.Addf(vonsim.ErrSizeMismatch, op.Pos, "%s requires a word register operand", stmt.Mnemonic)
		return nil, false
	}
	if _, ok := isa.StackRegisterIndex(op.Register); !ok {
		errs.Addf(vonsim.ErrSizeMismatch, op.Pos, "%s cannot operate on %s", stmt.Mnemonic, op.Register)
		return nil, false
	}
	return &Instruction{
		Mnemonic: m.Name, Class: m.Class, Length: 1, Label: stmt.Label, Pos: stmt.Pos,
		Operands: []Operand{{Mode: isa.ModeRegister, Register: op.Register, Size: vonsim.Word}},
	}, true
}

// resolveMemOrRegOperand turns an ast.Operand that may be a register,
// [BX], [expr], or a bare label reference into a validate.Operand with a
// concrete AddrMode and resolved size, or reports the relevant semantic
// error. writable marks contexts (Unary's sole operand, Binary's dst) where
// the operand must name something INC/MOV/etc. can store into; an EQU
// constant or instruction label used there is rejected rather than silently
// treated as a memory address.
func resolveMemOrRegOperand(op ast.Operand, lk map[string]labels.Kind, writable bool, errs *vonsim.ErrorList) (Operand, bool) {
	switch op.Kind {
	case ast.OperandRegister:
		return Operand{Mode: isa.ModeRegister, Register: op.Register, Size: isa.RegisterSize(op.Register)}, true
	case ast.OperandMemoryIndirect:
		size := sizeOf(op.Size)
		if size == 0 {
			errs.Addf(vonsim.ErrUnknownSize, op.Pos, "indirect memory operand needs BYTE PTR or WORD PTR")
			return Operand{}, false
		}
		return Operand{Mode: isa.ModeIndirectBX, Size: size}, true
	case ast.OperandMemoryDirect:
		size := sizeOf(op.Size)
		if size == 0 {
			errs.Addf(vonsim.ErrUnknownSize, op.Pos, "direct memory operand needs BYTE PTR or WORD PTR")
			return Operand{}, false
		}
		return Operand{Mode: isa.ModeDirect, Size: size, Expr: op.Expr}, true
	case ast.OperandLabel:
		kind, known := lk[op.Expr.Label]
		if !known {
			// Forward references to instruction/data labels resolve later;
			// assume data here and let the resolver's label-not-found check
			// catch genuinely missing names.
			return Operand{Mode: isa.ModeDirect, Size: vonsim.Word, Expr: op.Expr}, true
		}
		switch kind {
		case labels.DataByte:
			return Operand{Mode: isa.ModeDirect, Size: vonsim.Byte, Expr: op.Expr}, true
		case labels.DataWord:
			return Operand{Mode: isa.ModeDirect, Size: vonsim.Word, Expr: op.Expr}, true
		case labels.InstructionAddr:
			errs.Addf(vonsim.ErrLabelShouldBeWritable, op.Pos, "%q names an instruction, not data", op.Expr.Label)
			return Operand{}, false
		case labels.Constant:
			if writable {
				errs.Addf(vonsim.ErrLabelShouldBeWritable, op.Pos, "%q is an EQU constant, not a writable location", op.Expr.Label)
				return Operand{}, false
			}
			return Operand{Mode: isa.ModeImmediate, Size: vonsim.Word, Expr: op.Expr}, true
		default:
			return Operand{Mode: isa.ModeDirect, Size: vonsim.Word, Expr: op.Expr}, true
		}
	default:
		errs.Addf(vonsim.ErrExpectsImmediate, op.Pos, "this operand cannot be an immediate value")
		return Operand{}, false
	}
}

func sizeOf(s ast.OperandSize) vonsim.Size {
	switch s {
	case ast.SizeByte:
		return vonsim.Byte
	case ast.SizeWord:
		return vonsim.Word
	default:
		return 0
	}
}

func validateUnary(stmt ast.Statement, m isa.Mnemonic, lk map[string]labels.Kind, errs *vonsim.ErrorList) (*Instruction, bool) {
	if !arity(stmt, 1, errs) {
		return nil, false
	}
	op, ok := resolveMemOrRegOperand(stmt.Operands[0], lk, true, errs)
	if !ok {
		return nil, false
	}
	length := 2
	switch op.Mode {
	case isa.ModeIndirectBX:
		length = 1
	case isa.ModeDirect:
		length = 3
	}
	return &Instruction{
		Mnemonic: m.Name, Class: m.Class, Length: length, Label: stmt.Label, Pos: stmt.Pos,
		Operands: []Operand{op},
	}, true
}

func validateBinary(stmt ast.Statement, m isa.Mnemonic, lk map[string]labels.Kind, errs *vonsim.ErrorList) (*Instruction, bool) {
	if !arity(stmt, 2, errs) {
		return nil, false
	}
	dstAst, srcAst := stmt.Operands[0], stmt.Operands[1]

	if isMemory(dstAst) && isMemory(srcAst) {
		errs.Addf(vonsim.ErrDoubleMemoryAccess, stmt.Pos, "%s cannot access memory on both operands", stmt.Mnemonic)
		return nil, false
	}
	if isImmediateLike(dstAst) {
		errs.Addf(vonsim.ErrDestinationCantBeImm, dstAst.Pos, "destination of %s cannot be an immediate value", stmt.Mnemonic)
		return nil, false
	}

	dst, ok := resolveMemOrRegOperand(dstAst, lk, true, errs)
	if !ok {
		return nil, false
	}

	var src Operand
	if srcAst.Kind == ast.OperandImmediate {
		if dst.Size == 0 {
			errs.Addf(vonsim.ErrUnknownSize, srcAst.Pos, "size of immediate source is ambiguous; size the destination explicitly")
			return nil, false
		}
		src = Operand{Mode: isa.ModeImmediate, Size: dst.Size, Expr: srcAst.Expr}
	} else {
		src, ok = resolveMemOrRegOperand(srcAst, lk, false, errs)
		if !ok {
			return nil, false
		}
	}

	if dst.Size != 0 && src.Size != 0 && dst.Size != src.Size {
		errs.Addf(vonsim.ErrSizeMismatch, stmt.Pos, "%s operand sizes disagree (%d vs %d bits)", stmt.Mnemonic, dst.Size, src.Size)
		return nil, false
	}
	if dst.Size == 0 {
		dst.Size = src.Size
	}

	length := binaryLength(dst, src)
	return &Instruction{
		Mnemonic: m.Name, Class: m.Class, Length: length, Label: stmt.Label, Pos: stmt.Pos,
		Operands: []Operand{dst, src},
	}, true
}

func isMemory(op ast.Operand) bool {
	return op.Kind == ast.OperandMemoryDirect || op.Kind == ast.OperandMemoryIndirect || op.Kind == ast.OperandLabel
}

func isImmediateLike(op ast.Operand) bool {
	return op.Kind == ast.OperandImmediate
}

func binaryLength(dst, src Operand) int {
	length := 2 // opcode byte + mode byte
	length += operandExtraBytes(dst)
	length += operandExtraBytes(src)
	return length
}

func operandExtraBytes(op Operand) int {
	switch op.Mode {
	case isa.ModeRegister:
		return 1
	case isa.ModeDirect:
		return 2
	case isa.ModeIndirectBX:
		return 0
	case isa.ModeImmediate:
		if op.Size == vonsim.Word {
			return 2
		}
		return 1
	default:
		return 0
	}
}

func validateJump(stmt ast.Statement, m isa.Mnemonic, lk map[string]labels.Kind, errs *vonsim.ErrorList) (*Instruction, bool) {
	if !arity(stmt, 1, errs) {
		return nil, false
	}
	op := stmt.Operands[0]
	var target *ast.Expr
	switch op.Kind {
	case ast.OperandLabel:
		if kind, known := lk[op.Expr.Label]; known && kind != labels.InstructionAddr {
			errs.Addf(vonsim.ErrLabelShouldBeANumber, op.Pos, "%q is not an instruction label", op.Expr.Label)
			return nil, false
		}
		target = op.Expr
	case ast.OperandImmediate:
		target = op.Expr
	default:
		errs.Addf(vonsim.ErrExpectsImmediate, op.Pos, "%s expects an instruction label", stmt.Mnemonic)
		return nil, false
	}
	return &Instruction{
		Mnemonic: m.Name, Class: m.Class, Length: 3, Label: stmt.Label, Pos: stmt.Pos,
		Operands: []Operand{{Mode: isa.ModeDirect, Size: vonsim.Word, Expr: target}},
	}, true
}

func validateInt(stmt ast.Statement, m isa.Mnemonic, errs *vonsim.ErrorList) (*Instruction, bool) {
	if !arity(stmt, 1, errs) {
		return nil, false
	}
	op := stmt.Operands[0]
	if op.Kind != ast.OperandImmediate {
		errs.Addf(vonsim.ErrExpectsImmediate, op.Pos, "INT expects an immediate 0..255")
		return nil, false
	}
	if n, ok := constantFold(op.Expr); ok && (n < 0 || n > 255) {
		errs.Addf(vonsim.ErrValueOutOfRange, op.Pos, "INT operand %d does not fit in a byte", n)
		return nil, false
	}
	return &Instruction{
		Mnemonic: m.Name, Class: m.Class, Length: 2, Label: stmt.Label, Pos: stmt.Pos,
		Operands: []Operand{{Mode: isa.ModeImmediate, Size: vonsim.Byte, Expr: op.Expr}},
	}, true
}

// constantFold evaluates expr if it contains no label references, so
// literal-only operands (spec's "INT 256 fails at validate time" boundary)
// can be range-checked before resolve time assigns any label addresses.
func constantFold(expr *ast.Expr) (int64, bool) {
	if expr == nil {
		return 0, false
	}
	switch expr.Kind {
	case ast.ExprNumber:
		return expr.Number, true
	case ast.ExprLabel:
		return 0, false
	case ast.ExprUnary:
		v, ok := constantFold(expr.Left)
		if !ok {
			return 0, false
		}
		if expr.Op == '-' {
			return -v, true
		}
		return v, true
	case ast.ExprBinary:
		l, ok := constantFold(expr.Left)
		if !ok {
			return 0, false
		}
		r, ok := constantFold(expr.Right)
		if !ok {
			return 0, false
		}
		switch expr.Op {
		case '+':
			return l + r, true
		case '-':
			return l - r, true
		case '*':
			return l * r, true
		default:
			return 0, false
		}
	default:
		return 0, false
	}
}

// validateIO handles both orders spec.md §4.3 allows: IN reads
// AX|AL <- imm8|DX, OUT writes imm8|DX <- AX|AL. Operands[0]/[1] are in
// source syntax order; Instruction.Operands is always stored as
// {accumulator, port} regardless of mnemonic, since the CPU core encodes
// direction from the mnemonic itself.
func validateIO(stmt ast.Statement, m isa.Mnemonic, errs *vonsim.ErrorList) (*Instruction, bool) {
	if !arity(stmt, 2, errs) {
		return nil, false
	}
	var accOp, portOp ast.Operand
	if m.Name == "IN" {
		accOp, portOp = stmt.Operands[0], stmt.Operands[1]
	} else {
		portOp, accOp = stmt.Operands[0], stmt.Operands[1]
	}

	if accOp.Kind != ast.OperandRegister || (accOp.Register != vonsim.AX && accOp.Register != vonsim.AL) {
		errs.Addf(vonsim.ErrSizeMismatch, accOp.Pos, "%s requires AX or AL", stmt.Mnemonic)
		return nil, false
	}
	size := isa.RegisterSize(accOp.Register)

	var port Operand
	switch {
	case portOp.Kind == ast.OperandRegister && portOp.Register == vonsim.DX:
		port = Operand{Mode: isa.ModeIndirectBX, Size: vonsim.Byte} // reuses the "no extra byte" shape
	case portOp.Kind == ast.OperandImmediate:
		port = Operand{Mode: isa.ModeImmediate, Size: vonsim.Byte, Expr: portOp.Expr}
	default:
		errs.Addf(vonsim.ErrExpectsImmediate, portOp.Pos, "%s port must be DX or an immediate byte", stmt.Mnemonic)
		return nil, false
	}

	length := 1
	if port.Mode == isa.ModeImmediate {
		length = 2
	}

	operands := []Operand{{Mode: isa.ModeRegister, Register: accOp.Register, Size: size}, port}
	return &Instruction{Mnemonic: m.Name, Class: m.Class, Length: length, Label: stmt.Label, Pos: stmt.Pos, Operands: operands}, true
}
