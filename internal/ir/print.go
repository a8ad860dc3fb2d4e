package ir

import (
	"fmt"
	"io"
	"strings"
)

// Printer dumps a module in a readable text form, mostly for the check/build
// commands and for tests.
type Printer struct {
	w io.Writer
	m *Module
}

// NewPrinter creates a printer for the given module.
func NewPrinter(w io.Writer, m *Module) *Printer {
	return &Printer{w: w, m: m}
}

// Dump writes a formatted module to the writer.
func Dump(w io.Writer, m *Module) error {
	return NewPrinter(w, m).PrintModule()
}

// PrintModule prints the whole module.
func (p *Printer) PrintModule() error {
	p.printf("module %q schema=%d\n\n", p.m.File, p.m.Schema)
	for i, f := range p.m.Funcs {
		if i > 0 {
			p.printf("\n")
		}
		p.PrintFunc(f)
	}
	return nil
}

// PrintFunc prints one function unit.
func (p *Printer) PrintFunc(f *Func) {
	p.printf("fn %s(", f.Name)
	for i, param := range f.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s %s: %s [%s]", param.Reg, param.Name, p.typeStr(param.Type), param.Storage)
	}
	p.printf(") -> %s", p.typeStr(f.Result))
	if f.Fallible {
		p.printf(" !")
	}
	p.printf(" entry=%s\n", f.Entry)

	for _, hint := range f.Loops {
		p.printf("  loop %s %s", hint.Head, hint.Strategy)
		if hint.Strategy == LoopParReduce {
			p.printf(" acc=%s op=%s", hint.Acc, hint.ReduceOp)
		}
		p.printf("\n")
	}

	for i := range f.Blocks {
		id := BlockID(i + 1)
		p.printf("%s:\n", id)
		blk := &f.Blocks[i]
		for j := range blk.Instrs {
			p.printf("  %s\n", p.instrStr(f, &blk.Instrs[j]))
		}
		p.printf("  %s\n", p.termStr(&blk.Term))
	}
}

func (p *Printer) instrStr(f *Func, in *Instr) string {
	var sb strings.Builder
	if in.Dst.IsValid() {
		fmt.Fprintf(&sb, "%s = ", in.Dst)
	}
	sb.WriteString(in.Op.String())
	if in.Sym != "" {
		fmt.Fprintf(&sb, " %s", in.Sym)
	}
	if in.A.IsValid() {
		fmt.Fprintf(&sb, " %s", in.A)
	}
	if in.B.IsValid() {
		fmt.Fprintf(&sb, " %s", in.B)
	}
	if len(in.Args) > 0 {
		parts := make([]string, len(in.Args))
		for i, a := range in.Args {
			parts[i] = a.String()
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, ", "))
	}
	if in.Type.IsValid() {
		fmt.Fprintf(&sb, " : %s", p.typeStr(in.Type))
	}
	if in.Lit != "" {
		fmt.Fprintf(&sb, " %q", in.Lit)
	}
	if in.Dst.IsValid() {
		if reg := f.Register(in.Dst); reg != nil && reg.Name != "" {
			fmt.Fprintf(&sb, "  ; %s [%s]", reg.Name, reg.Storage)
		}
	}
	return sb.String()
}

func (p *Printer) termStr(t *Terminator) string {
	switch t.Kind {
	case TermJump:
		return fmt.Sprintf("jump %s", t.To)
	case TermBranch:
		return fmt.Sprintf("branch %s ? %s : %s", t.Cond, t.To, t.Else)
	case TermReturn:
		return fmt.Sprintf("return %s", t.Value)
	case TermAbort:
		return fmt.Sprintf("abort %s", t.Value)
	default:
		return "<no terminator>"
	}
}

func (p *Printer) typeStr(ref TypeRef) string {
	t := p.m.TypeOf(ref)
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case TypeList, TypeChannel, TypeTask, TypeResult:
		return fmt.Sprintf("%s<%s>", t.Kind, p.typeStr(t.Elem))
	case TypeFn:
		parts := make([]string, len(t.Params))
		for i, pr := range t.Params {
			parts[i] = p.typeStr(pr)
		}
		return fmt.Sprintf("fun(%s) -> %s", strings.Join(parts, ", "), p.typeStr(t.Result))
	case TypeStruct:
		return t.Name
	default:
		return t.Kind.String()
	}
}

func (p *Printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}
