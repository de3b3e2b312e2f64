package assemble

import (
	"fmt"

	"vonsim/internal/ast"
)

// env maps every label VonSim knows about (EQU constants, DB/DW addresses,
// instruction addresses) to its final numeric value. Expression evaluation
// never touches the AST's Label field once it has an env; env is built once
// resolution finishes assigning addresses and peeling the EQU chain.
type env map[string]int64

func evalExpr(e *ast.Expr, vals env) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("internal: nil expression")
	}
	switch e.Kind {
	case ast.ExprNumber:
		return e.Number, nil
	case ast.ExprLabel:
		v, ok := vals[e.Label]
		if !ok {
			return 0, fmt.Errorf("label-not-found: %q", e.Label)
		}
		return v, nil
	case ast.ExprUnary:
		v, err := evalExpr(e.Left, vals)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case '-':
			return -v, nil
		case '+':
			return v, nil
		default:
			return 0, fmt.Errorf("internal: bad unary operator %q", e.Op)
		}
	case ast.ExprBinary:
		l, err := evalExpr(e.Left, vals)
		if err != nil {
			return 0, err
		}
		r, err := evalExpr(e.Right, vals)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		default:
			return 0, fmt.Errorf("internal: bad binary operator %q", e.Op)
		}
	default:
		return 0, fmt.Errorf("internal: unknown expression kind %d", e.Kind)
	}
}

// labelRefs collects every label name an expression mentions, recursively.
func labelRefs(e *ast.Expr, out map[string]bool) {
	if e == nil {
		return
	}
	if e.Kind == ast.ExprLabel {
		out[e.Label] = true
	}
	labelRefs(e.Left, out)
	labelRefs(e.Right, out)
}

// equDef is one EQU statement awaiting evaluation.
type equDef struct {
	label string
	expr  *ast.Expr
}

// resolveEquations peels the EQU dependency graph with Kahn's algorithm
// (spec.md §9's "topological peel" design note, generalizing a prior implementation's
// single-pass constant folding to support EQU-on-EQU chains) and evaluates
// each one in dependency order against vals, which already holds every
// DB/DW/instruction address. Returns the set of labels it could not resolve
// because their chain is cyclic.
func resolveEquations(defs []equDef, vals env) []string {
	byLabel := make(map[string]equDef, len(defs))
	deps := make(map[string]map[string]bool, len(defs))
	for _, d := range defs {
		byLabel[d.label] = d
	}
	for _, d := range defs {
		refs := make(map[string]bool)
		labelRefs(d.expr, refs)
		// Only EQU-to-EQU references are real dependency edges: a reference
		// to a DB/DW/instruction label is already resolvable from vals.
		depSet := make(map[string]bool)
		for ref := range refs {
			if _, isEqu := byLabel[ref]; isEqu {
				depSet[ref] = true
			}
		}
		deps[d.label] = depSet
	}

	ready := make([]string, 0, len(defs))
	for label, depSet := range deps {
		if len(depSet) == 0 {
			ready = append(ready, label)
		}
	}

	resolvedOrder := make([]string, 0, len(defs))
	resolved := make(map[string]bool, len(defs))
	for len(ready) > 0 {
		label := ready[0]
		ready = ready[1:]
		if resolved[label] {
			continue
		}
		resolved[label] = true
		resolvedOrder = append(resolvedOrder, label)
		for other, depSet := range deps {
			if resolved[other] || !depSet[label] {
				continue
			}
			delete(depSet, label)
			if len(depSet) == 0 {
				ready = append(ready, other)
			}
		}
	}

	for _, label := range resolvedOrder {
		d := byLabel[label]
		v, err := evalExpr(d.expr, vals)
		if err != nil {
			// A reference outside the EQU graph failed to resolve (e.g. a
			// genuinely missing label); leave it out of vals instead of
			// reporting a cycle. Resolve reports nothing for it here; an
			// instruction or data value that uses it then fails to encode
			// with a label-not-found message.
			continue
		}
		vals[label] = v
	}

	var cyclic []string
	for _, d := range defs {
		if !resolved[d.label] {
			cyclic = append(cyclic, d.label)
		}
	}
	return cyclic
}
