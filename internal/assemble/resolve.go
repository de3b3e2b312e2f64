// Package assemble implements the address resolver, encoder, and object
// emitter (spec.md §4.4): compile an ast.Program and a validated instruction
// table into a sparse {address -> byte} image plus a label table.
package assemble

import (
	"github.com/rdleal/intervalst/interval"

	"vonsim"
	"vonsim/internal/ast"
	"vonsim/internal/labels"
	"vonsim/internal/validate"
)

// LabelInfo is one resolved label's kind and final address.
type LabelInfo struct {
	Kind    labels.Kind
	Address vonsim.MachineAddress
}

// ResolvedInstruction pairs a validated instruction with the address pass 1
// assigned it.
type ResolvedInstruction struct {
	*validate.Instruction
	Address vonsim.MachineAddress
}

// Program is the fully resolved and encoded result of compiling one source
// file: everything internal/cpu and the simulator façade need to load and
// run it.
type Program struct {
	Instructions []ResolvedInstruction
	Labels       map[string]LabelInfo
	Code         map[vonsim.MachineAddress]byte
	Data         map[vonsim.MachineAddress]byte
	EntryPoint   vonsim.MachineAddress
}

// occupiedRange tracks one statement's byte span, for the overlap check.
type occupiedRange struct {
	label string
	pos   vonsim.Position
}

// Resolve runs the two-pass resolver over prog using the already-validated
// instruction table (keyed by statement index, as returned by
// validate.Validate), then encodes every instruction and data directive into
// sparse images.
func Resolve(prog ast.Program, validated map[int]*validate.Instruction) (*Program, vonsim.ErrorList) {
	var errs vonsim.ErrorList
	result := &Program{
		Labels: make(map[string]LabelInfo),
		Code:   make(map[vonsim.MachineAddress]byte),
		Data:   make(map[vonsim.MachineAddress]byte),
	}

	overlaps := interval.NewSearchTree[occupiedRange, int](func(x, y int) int { return x - y })

	var pointer vonsim.MachineAddress
	var originSet bool
	var equDefs []equDef
	entrySet := false
	stmtAddr := make(map[int]vonsim.MachineAddress)

	checkRange := func(start vonsim.MachineAddress, length int, pos vonsim.Position, label string) bool {
		if length == 0 {
			return true
		}
		end := int(start) + length - 1
		if end > vonsim.MaxAddress {
			errs.Addf(vonsim.ErrInstructionOutOfRange, pos, "statement at %04Xh..%04Xh exceeds memory top %04Xh", start, end, vonsim.MaxAddress)
			return false
		}
		if _, found := overlaps.AnyIntersection(int(start), end); found {
			errs.Addf(vonsim.ErrOccupiedAddress, pos, "statement at %04Xh..%04Xh overlaps a previously assembled range", start, end)
			return false
		}
		_ = overlaps.Insert(int(start), end, occupiedRange{label: label, pos: pos})
		return true
	}

	for i, stmt := range prog.Statements {
		switch stmt.Kind {
		case ast.StmtOrigin:
			v, err := evalExpr(stmt.OriginAddr, env{})
			if err != nil {
				errs.Addf(vonsim.ErrLabelNotFound, stmt.Pos, "ORG operand: %v", err)
				continue
			}
			pointer = vonsim.MachineAddress(v)
			originSet = true

		case ast.StmtEnd:
			// No address footprint.

		case ast.StmtEqu:
			equDefs = append(equDefs, equDef{label: stmt.Label, expr: stmt.EquExpr})

		case ast.StmtData:
			if !originSet {
				errs.Addf(vonsim.ErrMissingOrg, stmt.Pos, "statement before the first ORG")
				continue
			}
			length := dataLength(stmt)
			stmtAddr[i] = pointer
			if stmt.Label != "" {
				kind := labels.DataByte
				if stmt.DataKind == ast.DataDW {
					kind = labels.DataWord
				}
				result.Labels[stmt.Label] = LabelInfo{Kind: kind, Address: pointer}
			}
			checkRange(pointer, length, stmt.Pos, stmt.Label)
			pointer += vonsim.MachineAddress(length)

		case ast.StmtInstruction:
			if !originSet {
				errs.Addf(vonsim.ErrMissingOrg, stmt.Pos, "statement before the first ORG")
				continue
			}
			inst, ok := validated[i]
			if !ok {
				// Already reported by the validator; still occupies no
				// space so later statements aren't misaligned.
				continue
			}
			if stmt.Label != "" {
				result.Labels[stmt.Label] = LabelInfo{Kind: labels.InstructionAddr, Address: pointer}
			}
			if !entrySet {
				result.EntryPoint = pointer
				entrySet = true
			}
			checkRange(pointer, inst.Length, stmt.Pos, stmt.Label)
			result.Instructions = append(result.Instructions, ResolvedInstruction{Instruction: inst, Address: pointer})
			pointer += vonsim.MachineAddress(inst.Length)
		}
	}

	vals := make(env, len(result.Labels)+len(equDefs))
	for name, info := range result.Labels {
		vals[name] = int64(info.Address)
	}
	if cyclic := resolveEquations(equDefs, vals); len(cyclic) > 0 {
		for _, name := range cyclic {
			errs.Addf(vonsim.ErrLabelUndefinedChain, vonsim.Position{}, "EQU %q is part of an unresolvable chain", name)
		}
	}
	for _, d := range equDefs {
		if v, ok := vals[d.label]; ok {
			result.Labels[d.label] = LabelInfo{Kind: labels.Constant, Address: vonsim.MachineAddress(v)}
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}

	for i, stmt := range prog.Statements {
		if stmt.Kind != ast.StmtData {
			continue
		}
		if err := encodeData(stmt, stmtAddr[i], vals, result.Data); err != nil {
			errs.Addf(vonsim.ErrValueOutOfRange, stmt.Pos, "%v", err)
		}
	}
	for idx := range result.Instructions {
		ri := &result.Instructions[idx]
		if err := EncodeInstruction(ri.Instruction, ri.Address, vals, result.Code); err != nil {
			errs.Addf(vonsim.ErrValueOutOfRange, ri.Pos, "%v", err)
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return result, errs
}

func dataLength(stmt ast.Statement) int {
	unit := 1
	if stmt.DataKind == ast.DataDW {
		unit = 2
	}
	total := 0
	for _, v := range stmt.DataValues {
		switch {
		case v.IsString:
			total += len(v.String)
		default:
			total += unit
		}
	}
	if total == 0 {
		total = unit
	}
	return total
}

