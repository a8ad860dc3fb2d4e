package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Newline marks a significant line break (statement boundary).
	Newline

	// Ident represents an identifier token.
	Ident
	// KwFun represents the 'fun' keyword.
	KwFun // fun
	// KwIf represents the 'if' keyword.
	KwIf // if
	// KwElse represents the 'else' keyword.
	KwElse // else
	// KwFor represents the 'for' keyword.
	KwFor // for
	// KwIn represents the 'in' keyword.
	KwIn // in
	// KwReturn represents the 'return' keyword.
	KwReturn // return
	// KwTry represents the 'try' keyword.
	KwTry // try
	// KwMust represents the 'must' keyword.
	KwMust // must
	// KwSpawn represents the 'spawn' keyword.
	KwSpawn // spawn
	// KwAwait represents the 'await' keyword.
	KwAwait // await
	// KwType represents the 'type' keyword.
	KwType // type
	// KwWeak represents the 'weak' field modifier keyword.
	KwWeak // weak
	// KwTrue represents the 'true' keyword.
	KwTrue // true
	// KwFalse represents the 'false' keyword.
	KwFalse // false

	// IntLit represents an integer literal token.
	IntLit
	// FloatLit represents a floating-point literal token.
	FloatLit
	// StringLit represents a string literal token.
	StringLit

	// Dollar represents the '$' mutability-declaration prefix.
	Dollar // $
	// Plus represents the plus operator token.
	Plus // +
	// Minus represents the minus operator token.
	Minus // -
	// Star represents the star operator token.
	Star // *
	// Slash represents the slash operator token.
	Slash // /
	// Percent represents the percent operator token.
	Percent // %
	// Assign represents the assign operator token.
	Assign // =
	// Eq represents the equality operator token.
	Eq // ==
	// Ne represents the inequality operator token.
	Ne // !=
	// Lt represents the less-than operator token.
	Lt // <
	// Le represents the less-or-equal operator token.
	Le // <=
	// Gt represents the greater-than operator token.
	Gt // >
	// Ge represents the greater-or-equal operator token.
	Ge // >=
	// AndAnd represents the logical-and operator token.
	AndAnd // &&
	// OrOr represents the logical-or operator token.
	OrOr // ||
	// Bang represents the logical-not operator token.
	Bang // !

	// LParen represents '('.
	LParen // (
	// RParen represents ')'.
	RParen // )
	// LBrace represents '{'.
	LBrace // {
	// RBrace represents '}'.
	RBrace // }
	// LBracket represents '['.
	LBracket // [
	// RBracket represents ']'.
	RBracket // ]
	// Comma represents ','.
	Comma // ,
	// Colon represents ':'.
	Colon // :
	// Dot represents '.'.
	Dot // .
	// Arrow represents '->'.
	Arrow // ->

	kindCount
)

var kindNames = [...]string{
	Invalid:   "invalid",
	EOF:       "eof",
	Newline:   "newline",
	Ident:     "ident",
	KwFun:     "fun",
	KwIf:      "if",
	KwElse:    "else",
	KwFor:     "for",
	KwIn:      "in",
	KwReturn:  "return",
	KwTry:     "try",
	KwMust:    "must",
	KwSpawn:   "spawn",
	KwAwait:   "await",
	KwType:    "type",
	KwWeak:    "weak",
	KwTrue:    "true",
	KwFalse:   "false",
	IntLit:    "int",
	FloatLit:  "float",
	StringLit: "string",
	Dollar:    "$",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Percent:   "%",
	Assign:    "=",
	Eq:        "==",
	Ne:        "!=",
	Lt:        "<",
	Le:        "<=",
	Gt:        ">",
	Ge:        ">=",
	AndAnd:    "&&",
	OrOr:      "||",
	Bang:      "!",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	LBracket:  "[",
	RBracket:  "]",
	Comma:     ",",
	Colon:     ":",
	Dot:       ".",
	Arrow:     "->",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsKeyword reports whether the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwFun && k <= KwFalse
}

// IsLiteral reports whether the kind is a literal.
func (k Kind) IsLiteral() bool {
	return k == IntLit || k == FloatLit || k == StringLit || k == KwTrue || k == KwFalse
}
