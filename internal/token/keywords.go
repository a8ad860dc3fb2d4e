package token

var keywords = map[string]Kind{
	"fun":    KwFun,
	"if":     KwIf,
	"else":   KwElse,
	"for":    KwFor,
	"in":     KwIn,
	"return": KwReturn,
	"try":    KwTry,
	"must":   KwMust,
	"spawn":  KwSpawn,
	"await":  KwAwait,
	"type":   KwType,
	"weak":   KwWeak,
	"true":   KwTrue,
	"false":  KwFalse,
}

// LookupKeyword resolves an identifier lexeme to its keyword kind.
// Keywords are case-sensitive; only lowercase forms are recognized.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
