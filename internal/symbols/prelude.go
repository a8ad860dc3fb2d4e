package symbols

import (
	"kairo/internal/source"
	"kairo/internal/types"
)

// ExternDecl is one externally supplied standard-library function: a name,
// a signature, and a purity bit. The front end type-checks calls against it
// and performs no I/O on its behalf.
type ExternDecl struct {
	Name source.StringID
	Type types.TypeID
	Pure bool
}

// Module groups the extern declarations of one standard-library module.
type Module struct {
	Name    source.StringID
	Members map[source.StringID]ExternDecl
}

// Member returns the module's member named name, if any.
func (m *Module) Member(name source.StringID) (ExternDecl, bool) {
	d, ok := m.Members[name]
	return d, ok
}

// builtinEntry describes one polymorphic prelude function.
type builtinEntry struct {
	name   string
	id     BuiltinID
	impure bool
}

var builtinEntries = []builtinEntry{
	{name: "print", id: BuiltinPrint, impure: true},
	{name: "error", id: BuiltinError},
	{name: "int", id: BuiltinInt},
	{name: "float", id: BuiltinFloat},
	{name: "str", id: BuiltinStr},
	{name: "len", id: BuiltinLen},
	{name: "channel", id: BuiltinChannel},
}

// InstallPrelude declares the built-in functions into scope and registers the
// standard-library modules on the table.
func (t *Table) InstallPrelude(scopeID ScopeID) {
	scope := t.Scopes.Get(scopeID)
	if scope == nil {
		return
	}
	for _, e := range builtinEntries {
		nameID := t.Strings.Intern(e.name)
		flags := SymbolFlagBuiltin
		if e.impure {
			flags |= SymbolFlagImpure
		}
		id := t.Symbols.New(Symbol{
			Name:    nameID,
			Kind:    SymbolFunction,
			Scope:   scopeID,
			Flags:   flags,
			Builtin: e.id,
		})
		scope.Symbols = append(scope.Symbols, id)
		scope.NameIndex[nameID] = id
	}
	t.installModules()
}

// externSig is a compact signature description used only to build the
// prelude tables.
type externSig struct {
	name   string
	params []types.TypeID
	result types.TypeID
	pure   bool
}

func (t *Table) installModules() {
	b := t.Types.Builtins()
	intT, floatT, strT, boolT, unitT := b.Int, b.Float, b.String, b.Bool, b.Unit
	strList := t.Types.List(strT)
	intList := t.Types.List(intT)

	modules := map[string][]externSig{
		"fs": {
			{name: "read", params: []types.TypeID{strT}, result: strT},
			{name: "write", params: []types.TypeID{strT, strT}, result: unitT},
			{name: "exists", params: []types.TypeID{strT}, result: boolT},
			{name: "list", params: []types.TypeID{strT}, result: strList},
		},
		"http": {
			{name: "get", params: []types.TypeID{strT}, result: strT},
			{name: "post", params: []types.TypeID{strT, strT}, result: strT},
		},
		"str": {
			{name: "upper", params: []types.TypeID{strT}, result: strT, pure: true},
			{name: "lower", params: []types.TypeID{strT}, result: strT, pure: true},
			{name: "trim", params: []types.TypeID{strT}, result: strT, pure: true},
			{name: "split", params: []types.TypeID{strT, strT}, result: strList, pure: true},
			{name: "join", params: []types.TypeID{strList, strT}, result: strT, pure: true},
			{name: "contains", params: []types.TypeID{strT, strT}, result: boolT, pure: true},
			{name: "replace", params: []types.TypeID{strT, strT, strT}, result: strT, pure: true},
		},
		"list": {
			{name: "range", params: []types.TypeID{intT, intT}, result: intList, pure: true},
			{name: "sort", params: []types.TypeID{intList}, result: intList, pure: true},
			{name: "reverse", params: []types.TypeID{intList}, result: intList, pure: true},
			{name: "sum", params: []types.TypeID{intList}, result: intT, pure: true},
		},
		"dict": {
			{name: "new", result: unitT, pure: true},
			{name: "keys", params: []types.TypeID{unitT}, result: strList, pure: true},
		},
		"set": {
			{name: "new", result: unitT, pure: true},
			{name: "union", params: []types.TypeID{unitT, unitT}, result: unitT, pure: true},
		},
		"queue": {
			{name: "new", result: unitT, pure: true},
			{name: "push", params: []types.TypeID{unitT, intT}, result: unitT},
			{name: "pop", params: []types.TypeID{unitT}, result: intT},
		},
		"math": {
			{name: "abs", params: []types.TypeID{floatT}, result: floatT, pure: true},
			{name: "sqrt", params: []types.TypeID{floatT}, result: floatT, pure: true},
			{name: "pow", params: []types.TypeID{floatT, floatT}, result: floatT, pure: true},
			{name: "floor", params: []types.TypeID{floatT}, result: intT, pure: true},
			{name: "ceil", params: []types.TypeID{floatT}, result: intT, pure: true},
			{name: "max", params: []types.TypeID{floatT, floatT}, result: floatT, pure: true},
			{name: "min", params: []types.TypeID{floatT, floatT}, result: floatT, pure: true},
			{name: "pi", result: floatT, pure: true},
		},
		"random": {
			{name: "int", params: []types.TypeID{intT, intT}, result: intT},
			{name: "float", result: floatT},
			{name: "choice", params: []types.TypeID{intList}, result: intT},
		},
		"time": {
			{name: "now", result: floatT},
			{name: "sleep", params: []types.TypeID{floatT}, result: unitT},
		},
		"datetime": {
			{name: "now", result: strT},
			{name: "format", params: []types.TypeID{strT, strT}, result: strT, pure: true},
		},
		"test": {
			{name: "assert", params: []types.TypeID{boolT}, result: unitT},
			{name: "assert_eq", params: []types.TypeID{intT, intT}, result: unitT},
			{name: "fail", params: []types.TypeID{strT}, result: unitT},
		},
		"cli": {
			{name: "args", result: strList},
			{name: "input", params: []types.TypeID{strT}, result: strT},
			{name: "exit", params: []types.TypeID{intT}, result: unitT},
		},
	}

	for modName, sigs := range modules {
		nameID := t.Strings.Intern(modName)
		mod := &Module{
			Name:    nameID,
			Members: make(map[source.StringID]ExternDecl, len(sigs)),
		}
		for _, sig := range sigs {
			memberID := t.Strings.Intern(sig.name)
			mod.Members[memberID] = ExternDecl{
				Name: memberID,
				Type: t.Types.RegisterFn(sig.params, sig.result),
				Pure: sig.pure,
			}
		}
		t.modules[nameID] = mod
	}
}
