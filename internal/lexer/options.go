package lexer

import "kairo/internal/diag"

// DefaultMaxTokenLen bounds a single token so a runaway literal cannot eat
// the whole file in one diagnostic.
const DefaultMaxTokenLen = 1 << 16

// Options configure a lexer instance.
type Options struct {
	Reporter    diag.Reporter
	MaxTokenLen uint32 // 0 means DefaultMaxTokenLen
}

func (o Options) maxTokenLen() uint32 {
	if o.MaxTokenLen == 0 {
		return DefaultMaxTokenLen
	}
	return o.MaxTokenLen
}
