package types

import (
	"fmt"
	"strings"

	"kairo/internal/source"
)

// Format renders a type the way it would appear in source, for diagnostics.
// Inference variables render as ?N.
func (in *Interner) Format(id TypeID, names *source.Interner) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "invalid"
	}
	switch tt.Kind {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindList:
		return "list<" + in.Format(tt.Elem, names) + ">"
	case KindChannel:
		return "channel<" + in.Format(tt.Elem, names) + ">"
	case KindTask:
		return "task<" + in.Format(tt.Elem, names) + ">"
	case KindResult:
		return "result<" + in.Format(tt.Elem, names) + ">"
	case KindFn:
		info, ok := in.FnInfo(id)
		if !ok {
			return "fn"
		}
		var sb strings.Builder
		sb.WriteString("fun(")
		for i, p := range info.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(in.Format(p, names))
		}
		sb.WriteString(")")
		if info.Result != NoTypeID && info.Result != in.builtins.Unit {
			sb.WriteString(" -> ")
			sb.WriteString(in.Format(info.Result, names))
		}
		return sb.String()
	case KindStruct:
		info, ok := in.StructInfo(id)
		if !ok {
			return "struct"
		}
		if names != nil {
			if s, ok := names.Lookup(info.Name); ok && s != "" {
				return s
			}
		}
		return "struct"
	case KindVar:
		return fmt.Sprintf("?%d", tt.Payload)
	default:
		return tt.Kind.String()
	}
}
