package parser

import (
	"testing"

	"vonsim/internal/ast"
)

func TestParseOriginAndData(t *testing.T) {
	src := "ORG 1000h\nX: DB 0\nORG 2000h\nMOV AL, X\nINC AL\nMOV X, AL\nHLT\nEND\n"
	prog, errs := Parse(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	if len(prog.Statements) != 8 {
		t.Fatalf("got %d statements, want 8", len(prog.Statements))
	}
	if prog.Statements[0].Kind != ast.StmtOrigin {
		t.Fatalf("statement 0: got %v", prog.Statements[0].Kind)
	}
	if prog.Statements[1].Kind != ast.StmtData || prog.Statements[1].Label != "X" {
		t.Fatalf("statement 1: got %+v", prog.Statements[1])
	}
	last := prog.Statements[len(prog.Statements)-1]
	if last.Kind != ast.StmtEnd {
		t.Fatalf("last statement should be END, got %v", last.Kind)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	src := "ORG 1+2*3\n"
	prog, errs := Parse(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	e := prog.Statements[0].OriginAddr
	if e.Kind != ast.ExprBinary || e.Op != '+' {
		t.Fatalf("expected top-level +, got %+v", e)
	}
	if e.Right.Kind != ast.ExprBinary || e.Right.Op != '*' {
		t.Fatalf("expected right side to be a product, got %+v", e.Right)
	}
}

func TestDuplicatedLabel(t *testing.T) {
	src := "ORG 1000h\nX: DB 0\nX: DB 1\nEND\n"
	_, errs := Parse(src)
	if !errs.HasErrors() {
		t.Fatal("expected a duplicated-label error")
	}
	found := false
	for _, e := range errs.Errors {
		if e.Code == "duplicated-label" {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors were %v, wanted duplicated-label", errs.Errors)
	}
}

func TestEndMustBeLast(t *testing.T) {
	src := "ORG 1000h\nEND\nHLT\n"
	_, errs := Parse(src)
	if !errs.HasErrors() {
		t.Fatal("expected an end-must-be-last error")
	}
}

func TestMemoryOperandForms(t *testing.T) {
	src := "ORG 1000h\nMOV AL, [BX]\nMOV BYTE PTR [2000h], 1\nEND\n"
	prog, errs := Parse(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	instr1 := prog.Statements[1]
	if instr1.Operands[1].Kind != ast.OperandMemoryIndirect {
		t.Fatalf("got %+v", instr1.Operands[1])
	}
	instr2 := prog.Statements[2]
	if instr2.Operands[0].Kind != ast.OperandMemoryDirect || instr2.Operands[0].Size != ast.SizeByte {
		t.Fatalf("got %+v", instr2.Operands[0])
	}
}
