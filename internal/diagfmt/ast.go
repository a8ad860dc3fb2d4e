package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"kairo/internal/ast"
)

// DumpAST writes an indented tree of the parsed file, one node per line.
func DumpAST(w io.Writer, b *ast.Builder, fileID ast.FileID) {
	p := &astPrinter{w: w, b: b}
	file := b.File(fileID)
	if file == nil {
		return
	}
	p.line("file")
	p.indent++
	for _, item := range file.Items {
		p.printItem(item)
	}
}

type astPrinter struct {
	w      io.Writer
	b      *ast.Builder
	indent int
}

func (p *astPrinter) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *astPrinter) printItem(id ast.ItemID) {
	item := p.b.Items.Get(id)
	if item == nil {
		return
	}
	switch item.Kind {
	case ast.ItemFunc:
		data, _ := p.b.Items.Func(id)
		p.line("func %s", p.b.Lookup(data.Name))
		p.indent++
		for _, param := range data.Params {
			if param.Type.IsValid() {
				p.line("param %s: %s", p.b.Lookup(param.Name), p.typeSynStr(param.Type))
			} else {
				p.line("param %s", p.b.Lookup(param.Name))
			}
		}
		if data.RetType.IsValid() {
			p.line("result %s", p.typeSynStr(data.RetType))
		}
		p.printStmt(data.Body)
		p.indent--
	case ast.ItemTypeDecl:
		data, _ := p.b.Items.TypeDecl(id)
		p.line("type %s", p.b.Lookup(data.Name))
		p.indent++
		for _, f := range data.Fields {
			weak := ""
			if f.Weak {
				weak = "weak "
			}
			p.line("field %s%s: %s", weak, p.b.Lookup(f.Name), p.typeSynStr(f.Type))
		}
		p.indent--
	default:
		p.line("bad item")
	}
}

func (p *astPrinter) printStmt(id ast.StmtID) {
	stmt := p.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		data, _ := p.b.Stmts.Assign(id)
		head := "assign"
		if data.Dollar {
			head = "assign $"
		}
		if data.TypeAnn.IsValid() {
			p.line("%s : %s", head, p.typeSynStr(data.TypeAnn))
		} else {
			p.line("%s", head)
		}
		p.indent++
		p.printExpr(data.Target)
		p.printExpr(data.Value)
		p.indent--
	case ast.StmtExpr:
		data, _ := p.b.Stmts.Expr(id)
		p.line("expr")
		p.indent++
		p.printExpr(data.Expr)
		p.indent--
	case ast.StmtIf:
		data, _ := p.b.Stmts.If(id)
		p.line("if")
		p.indent++
		p.printExpr(data.Cond)
		p.printStmt(data.Then)
		if data.Else.IsValid() {
			p.line("else")
			p.printStmt(data.Else)
		}
		p.indent--
	case ast.StmtFor:
		data, _ := p.b.Stmts.For(id)
		p.line("for %s in", p.b.Lookup(data.Var))
		p.indent++
		p.printExpr(data.Seq)
		p.printStmt(data.Body)
		p.indent--
	case ast.StmtReturn:
		data, _ := p.b.Stmts.Return(id)
		p.line("return")
		if data.Value.IsValid() {
			p.indent++
			p.printExpr(data.Value)
			p.indent--
		}
	case ast.StmtBlock:
		data, _ := p.b.Stmts.Block(id)
		p.line("block")
		p.indent++
		for _, s := range data.Stmts {
			p.printStmt(s)
		}
		p.indent--
	default:
		p.line("bad stmt")
	}
}

func (p *astPrinter) printExpr(id ast.ExprID) {
	expr := p.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := p.b.Exprs.Ident(id)
		p.line("ident %s", p.b.Lookup(data.Name))
	case ast.ExprLit:
		data, _ := p.b.Exprs.Literal(id)
		p.line("lit %s", p.b.Lookup(data.Text))
	case ast.ExprList:
		data, _ := p.b.Exprs.List(id)
		p.line("list")
		p.indent++
		for _, e := range data.Elems {
			p.printExpr(e)
		}
		p.indent--
	case ast.ExprBinary:
		data, _ := p.b.Exprs.Binary(id)
		p.line("binary %s", data.Op)
		p.indent++
		p.printExpr(data.Left)
		p.printExpr(data.Right)
		p.indent--
	case ast.ExprUnary:
		data, _ := p.b.Exprs.Unary(id)
		p.line("unary %s", data.Op)
		p.indent++
		p.printExpr(data.Operand)
		p.indent--
	case ast.ExprCall:
		data, _ := p.b.Exprs.Call(id)
		p.line("call")
		p.indent++
		p.printExpr(data.Callee)
		for _, a := range data.Args {
			p.printExpr(a)
		}
		p.indent--
	case ast.ExprMember:
		data, _ := p.b.Exprs.Member(id)
		p.line("member .%s", p.b.Lookup(data.Name))
		p.indent++
		p.printExpr(data.Recv)
		p.indent--
	case ast.ExprSpawn:
		data, _ := p.b.Exprs.Spawn(id)
		p.line("spawn")
		p.indent++
		p.printExpr(data.Call)
		p.indent--
	case ast.ExprAwait:
		data, _ := p.b.Exprs.Await(id)
		p.line("await")
		p.indent++
		p.printExpr(data.Task)
		p.indent--
	case ast.ExprChanSend:
		data, _ := p.b.Exprs.ChanSend(id)
		p.line("send")
		p.indent++
		p.printExpr(data.Chan)
		p.printExpr(data.Value)
		p.indent--
	case ast.ExprChanRecv:
		data, _ := p.b.Exprs.ChanRecv(id)
		p.line("recv")
		p.indent++
		p.printExpr(data.Chan)
		p.indent--
	case ast.ExprTry, ast.ExprMust:
		data, _ := p.b.Exprs.TryLike(id)
		p.line("%s", expr.Kind)
		p.indent++
		p.printExpr(data.Inner)
		p.indent--
	default:
		p.line("bad expr")
	}
}

func (p *astPrinter) typeSynStr(id ast.TypeSynID) string {
	syn := p.b.Types.Get(id)
	if syn == nil {
		return "?"
	}
	switch syn.Kind {
	case ast.TypeSynName:
		return p.b.Lookup(syn.Name)
	case ast.TypeSynList:
		return "list<" + p.typeSynStr(syn.Elem) + ">"
	case ast.TypeSynChannel:
		return "channel<" + p.typeSynStr(syn.Elem) + ">"
	case ast.TypeSynTask:
		return "task<" + p.typeSynStr(syn.Elem) + ">"
	default:
		return "?"
	}
}
