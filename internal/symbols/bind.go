package symbols

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/source"
	"kairo/internal/types"
)

// Options configures a bind run.
type Options struct {
	Reporter diag.Reporter
}

// Bind resolves every name in the file against a scope tree seeded with the
// prelude. Declarations are collected in two passes so functions and types
// may reference each other regardless of order.
func Bind(b *ast.Builder, fileID ast.FileID, table *Table, opts Options) *Resolution {
	file := b.File(fileID)
	res := newResolution(table)

	bd := &binder{
		b:        b,
		t:        table,
		res:      res,
		reporter: opts.Reporter,
	}

	fileScope := table.Scopes.New(ScopeFile, NoScopeID, file.Span)
	res.FileScope = fileScope
	table.InstallPrelude(fileScope)
	bd.stack = append(bd.stack, fileScope)

	bd.declareTypes(file)
	bd.resolveStructFields(file)
	bd.declareFunctions(file)
	bd.bindBodies(file)
	return res
}

type binder struct {
	b        *ast.Builder
	t        *Table
	res      *Resolution
	reporter diag.Reporter
	stack    []ScopeID
}

func (bd *binder) current() ScopeID {
	return bd.stack[len(bd.stack)-1]
}

func (bd *binder) enter(kind ScopeKind, span source.Span) ScopeID {
	id := bd.t.Scopes.New(kind, bd.current(), span)
	bd.stack = append(bd.stack, id)
	return id
}

func (bd *binder) leave() {
	bd.stack = bd.stack[:len(bd.stack)-1]
}

// declare installs a symbol into the current scope without conflict checks.
func (bd *binder) declare(sym Symbol) SymbolID {
	scopeID := bd.current()
	sym.Scope = scopeID
	id := bd.t.Symbols.New(sym)
	scope := bd.t.Scopes.Get(scopeID)
	scope.Symbols = append(scope.Symbols, id)
	scope.NameIndex[sym.Name] = id
	return id
}

// lookup walks the scope chain from the innermost scope outwards.
func (bd *binder) lookup(name source.StringID) (SymbolID, bool) {
	for i := len(bd.stack) - 1; i >= 0; i-- {
		scope := bd.t.Scopes.Get(bd.stack[i])
		if id, ok := scope.NameIndex[name]; ok {
			return id, true
		}
	}
	return NoSymbolID, false
}

func (bd *binder) name(id source.StringID) string {
	return bd.t.Strings.MustLookup(id)
}

// Pass 1: struct types ------------------------------------------------------

func (bd *binder) declareTypes(file *ast.File) {
	for _, itemID := range file.Items {
		decl, ok := bd.b.Items.TypeDecl(itemID)
		if !ok {
			continue
		}
		if prev, exists := bd.lookup(decl.Name); exists {
			prevSym := bd.t.Symbols.Get(prev)
			diag.ReportError(bd.reporter, diag.ResDuplicateType, decl.NameSpan,
				fmt.Sprintf("type '%s' is already defined", bd.name(decl.Name))).
				WithNote(prevSym.Span, "previous definition here").
				Emit()
			continue
		}
		typeID := bd.t.Types.RegisterStruct(decl.Name, decl.NameSpan)
		bd.res.StructTypes[itemID] = typeID
		bd.declare(Symbol{
			Name: decl.Name,
			Kind: SymbolType,
			Span: decl.NameSpan,
			Decl: SymbolDecl{Item: itemID},
			Type: typeID,
		})
	}
}

func (bd *binder) resolveStructFields(file *ast.File) {
	for _, itemID := range file.Items {
		decl, ok := bd.b.Items.TypeDecl(itemID)
		if !ok {
			continue
		}
		typeID, ok := bd.res.StructTypes[itemID]
		if !ok {
			continue
		}
		seen := make(map[source.StringID]source.Span, len(decl.Fields))
		fields := make([]types.StructField, 0, len(decl.Fields))
		for _, f := range decl.Fields {
			if prev, dup := seen[f.Name]; dup {
				diag.ReportError(bd.reporter, diag.ResDuplicateField, f.NameSpan,
					fmt.Sprintf("field '%s' appears twice", bd.name(f.Name))).
					WithNote(prev, "first declared here").
					Emit()
				continue
			}
			seen[f.Name] = f.NameSpan

			fieldType := bd.resolveTypeSyn(f.Type)
			if f.Weak {
				if tt, ok := bd.t.Types.Lookup(fieldType); !ok || tt.Kind != types.KindStruct {
					diag.ReportError(bd.reporter, diag.OwnWeakNonStruct, f.Span,
						fmt.Sprintf("'weak' needs a struct-typed field, '%s' is %s",
							bd.name(f.Name), bd.t.Types.Format(fieldType, bd.t.Strings))).
						Emit()
				}
			}
			fields = append(fields, types.StructField{
				Name: f.Name,
				Weak: f.Weak,
				Type: fieldType,
			})
		}
		bd.t.Types.SetStructFields(typeID, fields)
	}
}

// Pass 2: function signatures ------------------------------------------------

func (bd *binder) declareFunctions(file *ast.File) {
	for _, itemID := range file.Items {
		fn, ok := bd.b.Items.Func(itemID)
		if !ok {
			continue
		}
		if prev, exists := bd.lookup(fn.Name); exists {
			prevSym := bd.t.Symbols.Get(prev)
			if prevSym.Kind == SymbolFunction || prevSym.Kind == SymbolType {
				msg := fmt.Sprintf("function '%s' is already defined", bd.name(fn.Name))
				if prevSym.Flags&SymbolFlagBuiltin != 0 {
					msg = fmt.Sprintf("'%s' is a built-in and cannot be redefined", bd.name(fn.Name))
				}
				diag.ReportError(bd.reporter, diag.ResDuplicateFunction, fn.NameSpan, msg).
					WithNote(prevSym.Span, "previous definition here").
					Emit()
				continue
			}
		}

		params := make([]types.TypeID, len(fn.Params))
		for i, p := range fn.Params {
			if p.Type.IsValid() {
				params[i] = bd.resolveTypeSyn(p.Type)
			} else {
				params[i] = bd.t.Types.FreshVar()
			}
		}
		var result types.TypeID
		if fn.RetType.IsValid() {
			result = bd.resolveTypeSyn(fn.RetType)
		} else {
			result = bd.t.Types.FreshVar()
		}

		symID := bd.declare(Symbol{
			Name: fn.Name,
			Kind: SymbolFunction,
			Span: fn.NameSpan,
			Decl: SymbolDecl{Item: itemID},
			Type: bd.t.Types.RegisterFn(params, result),
		})
		bd.res.Funcs[itemID] = symID
	}
}

// Pass 3: bodies --------------------------------------------------------------

func (bd *binder) bindBodies(file *ast.File) {
	for _, itemID := range file.Items {
		fn, ok := bd.b.Items.Func(itemID)
		if !ok {
			continue
		}
		if _, declared := bd.res.Funcs[itemID]; !declared {
			continue // duplicate definition, skip the body
		}
		item := bd.b.Items.Get(itemID)
		bd.enter(ScopeFunction, item.Span)

		fnType, _ := bd.t.Types.FnInfo(bd.symbolType(bd.res.Funcs[itemID]))
		paramSyms := make([]SymbolID, 0, len(fn.Params))
		seen := make(map[source.StringID]source.Span, len(fn.Params))
		for i, p := range fn.Params {
			if prev, dup := seen[p.Name]; dup {
				diag.ReportError(bd.reporter, diag.ResDuplicateParam, p.NameSpan,
					fmt.Sprintf("parameter '%s' appears twice", bd.name(p.Name))).
					WithNote(prev, "first declared here").
					Emit()
				continue
			}
			seen[p.Name] = p.NameSpan
			var pt types.TypeID
			if fnType != nil && i < len(fnType.Params) {
				pt = fnType.Params[i]
			}
			paramSyms = append(paramSyms, bd.declare(Symbol{
				Name: p.Name,
				Kind: SymbolParam,
				Span: p.NameSpan,
				Decl: SymbolDecl{Item: itemID},
				Type: pt,
			}))
		}
		bd.res.Params[itemID] = paramSyms

		bd.bindStmt(fn.Body)
		bd.leave()
	}
}

func (bd *binder) symbolType(id SymbolID) types.TypeID {
	if sym := bd.t.Symbols.Get(id); sym != nil {
		return sym.Type
	}
	return types.NoTypeID
}

// Annotations ------------------------------------------------------------------

// resolveTypeSyn turns a written annotation into a TypeID, caching the result
// on the Resolution.
func (bd *binder) resolveTypeSyn(id ast.TypeSynID) types.TypeID {
	if !id.IsValid() {
		return types.NoTypeID
	}
	if cached, ok := bd.res.Annotations[id]; ok {
		return cached
	}
	resolved := bd.resolveTypeSynUncached(id)
	bd.res.Annotations[id] = resolved
	return resolved
}

func (bd *binder) resolveTypeSynUncached(id ast.TypeSynID) types.TypeID {
	ts := bd.b.Types.Get(id)
	if ts == nil {
		return types.NoTypeID
	}
	builtins := bd.t.Types.Builtins()
	switch ts.Kind {
	case ast.TypeSynName:
		switch bd.name(ts.Name) {
		case "int":
			return builtins.Int
		case "float":
			return builtins.Float
		case "str":
			return builtins.String
		case "bool":
			return builtins.Bool
		case "unit":
			return builtins.Unit
		}
		if symID, ok := bd.lookup(ts.Name); ok {
			sym := bd.t.Symbols.Get(symID)
			if sym.Kind == SymbolType {
				return sym.Type
			}
			diag.ReportError(bd.reporter, diag.ResNotAType, ts.Span,
				fmt.Sprintf("'%s' is a %s, not a type", bd.name(ts.Name), sym.Kind)).
				WithNote(sym.Span, "declared here").
				Emit()
			return types.NoTypeID
		}
		diag.ReportError(bd.reporter, diag.ResUnresolved, ts.Span,
			fmt.Sprintf("unknown type '%s'", bd.name(ts.Name))).
			Emit()
		return types.NoTypeID
	case ast.TypeSynList:
		return bd.t.Types.List(bd.resolveTypeSyn(ts.Elem))
	case ast.TypeSynChannel:
		return bd.t.Types.Channel(bd.resolveTypeSyn(ts.Elem))
	case ast.TypeSynTask:
		return bd.t.Types.Task(bd.resolveTypeSyn(ts.Elem))
	default:
		return types.NoTypeID
	}
}
