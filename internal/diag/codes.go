package diag

import (
	"fmt"
)

// Code is a stable diagnostic identifier. Ranges follow the error taxonomy:
// 1xxx lexical, 2xxx syntax, 3xxx name resolution, 4xxx type,
// 5xxx mutability/ownership, 6xxx concurrency safety, 7xxx I/O,
// 8xxx analysis notes, 9xxx internal compiler errors.
type Code uint16

const (
	// UnknownCode is the zero placeholder.
	UnknownCode Code = 0

	// Lexical
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexTokenTooLong       Code = 1004
	LexBadEscape          Code = 1005

	// Syntax
	SynUnexpectedToken    Code = 2001
	SynUnexpectedTopLevel Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectExpression   Code = 2004
	SynExpectType         Code = 2005
	SynUnclosedParen      Code = 2006
	SynUnclosedBrace      Code = 2007
	SynUnclosedBracket    Code = 2008
	SynExpectNewline      Code = 2009
	SynForMissingIn       Code = 2010
	SynExpectAssign       Code = 2011
	SynDollarNeedsName    Code = 2012
	SynExpectField        Code = 2013
	SynExpectBlock        Code = 2014

	// Name resolution
	ResUnresolved          Code = 3001
	ResDuplicateFunction   Code = 3002
	ResDuplicateType       Code = 3003
	ResNotAType            Code = 3004
	ResUnknownModuleMember Code = 3005
	ResDuplicateField      Code = 3006
	ResDuplicateParam      Code = 3007

	// Types
	TypeMismatch        Code = 4001
	TypeNoCoercion      Code = 4002
	TypeNotCallable     Code = 4003
	TypeWrongArity      Code = 4004
	TypeUnknownField    Code = 4005
	TypeCannotInfer     Code = 4006
	TypeNotIterable     Code = 4007
	TypeCondNotBool     Code = 4008
	TypeAwaitNonTask    Code = 4009
	TypeChannelExpected Code = 4010
	TypeBadOperands     Code = 4011
	TypeMemberNonStruct Code = 4012

	// Mutability & ownership
	MutAssignImmutable Code = 5001
	MutRedeclare       Code = 5002
	OwnStrongCycle     Code = 5003
	OwnWeakNonStruct   Code = 5004

	// Concurrency safety
	ConcSharedMutable Code = 6001
	ConcUseAfterMove  Code = 6002
	ConcMovedCapture  Code = 6003

	// I/O
	IOLoadFileError Code = 7001

	// Analysis notes (never errors)
	NoteLoopParallel   Code = 8001
	NoteLoopSequential Code = 8002

	// Internal compiler errors: an invariant violation inside the compiler
	// itself. Aborts the whole pipeline immediately.
	Internal Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string literal",
	LexBadNumber:          "Malformed number literal",
	LexTokenTooLong:       "Token exceeds the maximum length",
	LexBadEscape:          "Invalid escape sequence",

	SynUnexpectedToken:    "Unexpected token",
	SynUnexpectedTopLevel: "Unexpected top-level construct",
	SynExpectIdentifier:   "Expected an identifier",
	SynExpectExpression:   "Expected an expression",
	SynExpectType:         "Expected a type",
	SynUnclosedParen:      "Unclosed parenthesis",
	SynUnclosedBrace:      "Unclosed brace",
	SynUnclosedBracket:    "Unclosed bracket",
	SynExpectNewline:      "Expected end of statement",
	SynForMissingIn:       "Missing 'in' in for loop",
	SynExpectAssign:       "Expected '=' in binding",
	SynDollarNeedsName:    "'$' must be followed by a name",
	SynExpectField:        "Expected a field declaration",
	SynExpectBlock:        "Expected a '{' block",

	ResUnresolved:          "Use of undeclared name",
	ResDuplicateFunction:   "Function already defined",
	ResDuplicateType:       "Type already defined",
	ResNotAType:            "Name does not denote a type",
	ResUnknownModuleMember: "Unknown module member",
	ResDuplicateField:      "Duplicate field name",
	ResDuplicateParam:      "Duplicate parameter name",

	TypeMismatch:        "Type mismatch",
	TypeNoCoercion:      "No implicit numeric conversion",
	TypeNotCallable:     "Value is not callable",
	TypeWrongArity:      "Wrong number of arguments",
	TypeUnknownField:    "Unknown field",
	TypeCannotInfer:     "Cannot infer type",
	TypeNotIterable:     "Value is not iterable",
	TypeCondNotBool:     "Condition must be a bool",
	TypeAwaitNonTask:    "'await' needs a task",
	TypeChannelExpected: "Expected a channel",
	TypeBadOperands:     "Invalid operand types",
	TypeMemberNonStruct: "Member access on a non-struct value",

	MutAssignImmutable: "Assignment to an immutable binding",
	MutRedeclare:       "'$' redeclares an existing binding",
	OwnStrongCycle:     "Strong reference cycle",
	OwnWeakNonStruct:   "'weak' is only valid on struct-typed fields",

	ConcSharedMutable: "Mutable binding shared across tasks",
	ConcUseAfterMove:  "Use of a value after it was sent",
	ConcMovedCapture:  "Captured value was moved",

	IOLoadFileError: "Failed to load file",

	NoteLoopParallel:   "Loop is parallelizable",
	NoteLoopSequential: "Loop stays sequential",

	Internal: "Internal compiler error",
}

// ID renders the stable machine form, e.g. "KAI4002".
func (c Code) ID() string {
	return fmt.Sprintf("KAI%04d", uint16(c))
}

func (c Code) String() string {
	return c.ID()
}

// Description returns the one-line human summary for the code.
func (c Code) Description() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return codeDescription[UnknownCode]
}
