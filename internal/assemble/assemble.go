package assemble

import (
	"vonsim"
	"vonsim/internal/macro"
	"vonsim/internal/parser"
	"vonsim/internal/validate"
)

// Compile runs the full front end over source: macro expansion, lex, parse,
// validate, resolve, encode. It mirrors the compile(source) ->
// Result<Program, Errors> entry point external callers (the CLI, the
// simulator façade) are expected to use; internal stages stay reachable
// individually for tests and tools that need partial results.
func Compile(source string) (*Program, vonsim.ErrorList) {
	expanded, err := macro.Expand(source)
	if err != nil {
		var errs vonsim.ErrorList
		errs.Addf(vonsim.ErrExpectedToken, vonsim.Position{}, "macro expansion: %v", err)
		return nil, errs
	}

	prog, errs := parser.Parse(expanded)
	if errs.HasErrors() {
		return nil, errs
	}

	validated, verrs := validate.Validate(prog)
	if verrs.HasErrors() {
		return nil, verrs
	}

	return Resolve(prog, validated)
}
