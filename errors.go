package vonsim

import "fmt"

// Position locates a token or statement in the original source text.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ErrorCode enumerates every diagnostic the pipeline can raise, grouped by
// the phase that raises it (spec.md §7 ERROR HANDLING DESIGN).
type ErrorCode string

const (
	// Lex errors.
	ErrUnexpectedCharacter ErrorCode = "unexpected-character"
	ErrUnterminatedString  ErrorCode = "unterminated-string"

	// Parse errors.
	ErrExpectedToken    ErrorCode = "expected-token"
	ErrDuplicatedLabel  ErrorCode = "duplicated-label"
	ErrEndMustBeLast    ErrorCode = "end-must-be-last"

	// Semantic errors.
	ErrSizeMismatch            ErrorCode = "size-mismatch"
	ErrDoubleMemoryAccess      ErrorCode = "double-memory-access"
	ErrExpectsImmediate        ErrorCode = "expects-immediate"
	ErrUnknownSize             ErrorCode = "unknown-size"
	ErrLabelShouldBeWritable   ErrorCode = "label-should-be-writable"
	ErrLabelShouldBeANumber    ErrorCode = "label-should-be-a-number"
	ErrDestinationCantBeImm    ErrorCode = "destination-cannot-be-immediate"
	ErrWrongArity              ErrorCode = "wrong-argument-count"
	ErrValueOutOfRange         ErrorCode = "value-out-of-range"

	// Resolution errors.
	ErrMissingOrg              ErrorCode = "missing-org"
	ErrInstructionOutOfRange   ErrorCode = "instruction-out-of-range"
	ErrOccupiedAddress         ErrorCode = "occupied-address"
	ErrLabelNotFound           ErrorCode = "label-not-found"
	ErrLabelUndefinedChain     ErrorCode = "label-undefined-chain"

	// Runtime errors (these surface via the event stream, not compile()).
	ErrMemoryOutOfRange  ErrorCode = "memory-out-of-range"
	ErrStackOverflow     ErrorCode = "stack-overflow"
	ErrStackUnderflow    ErrorCode = "stack-underflow"
	ErrReservedInterrupt ErrorCode = "reserved-interrupt"
	ErrInvalidIODevice   ErrorCode = "invalid-io-device"
)

// CompileError is one diagnostic produced while compiling a program. The
// zero value is never used; always build these via NewError.
type CompileError struct {
	Code     ErrorCode
	Message  string
	Position Position
}

func NewError(code ErrorCode, pos Position, format string, args ...any) CompileError {
	return CompileError{Code: code, Message: fmt.Sprintf(format, args...), Position: pos}
}

func (e CompileError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Position)
}

// ErrorList accumulates diagnostics across an entire compile so the caller
// sees every problem in one pass instead of stopping at the first one
// (spec.md §7: "lex/parse errors per line aggregate ... semantic/resolution
// errors short-circuit their statement but continue to process others").
// This mirrors a prior implementation's ErrorList type in shared/errors.go, generalized
// from a single untyped error slice to the typed CompileError above.
type ErrorList struct {
	Errors []CompileError
}

func (l *ErrorList) Add(e CompileError) {
	l.Errors = append(l.Errors, e)
}

func (l *ErrorList) Addf(code ErrorCode, pos Position, format string, args ...any) {
	l.Add(NewError(code, pos, format, args...))
}

func (l *ErrorList) HasErrors() bool {
	return len(l.Errors) > 0
}

func (l *ErrorList) Error() string {
	if len(l.Errors) == 0 {
		return "no errors"
	}
	s := fmt.Sprintf("%d error(s):\n", len(l.Errors))
	for _, e := range l.Errors {
		s += "  " + e.Error() + "\n"
	}
	return s
}

// CollectErrorsAndContinue runs fn over each item, collecting any error it
// returns into the list and continuing with the rest. This is the Go
// rendering of the design note in spec.md §9: "the compiler's safeForEach
// pattern becomes collect_errors_and_continue".
func CollectErrorsAndContinue[T any](list *ErrorList, items []T, fn func(T) *CompileError) {
	for _, item := range items {
		if e := fn(item); e != nil {
			list.Add(*e)
		}
	}
}
