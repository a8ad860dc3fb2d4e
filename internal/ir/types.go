package ir

import (
	"fmt"

	"fortio.org/safecast"

	"kairo/internal/source"
	"kairo/internal/types"
)

// typeTable copies front-end types into the module's own table so the unit
// stays self-contained. Struct entries are allocated before their fields are
// filled, which keeps self-referential declarations finite.
type typeTable struct {
	module   *Module
	interner *types.Interner
	strings  *source.Interner
	memo     map[types.TypeID]TypeRef
}

func newTypeTable(m *Module, in *types.Interner, strings *source.Interner) *typeTable {
	return &typeTable{
		module:   m,
		interner: in,
		strings:  strings,
		memo:     make(map[types.TypeID]TypeRef),
	}
}

func (tt *typeTable) alloc(t Type) TypeRef {
	tt.module.Types = append(tt.module.Types, t)
	n, err := safecast.Conv[uint32](len(tt.module.Types))
	if err != nil {
		panic(fmt.Errorf("type table overflow: %w", err))
	}
	return TypeRef(n)
}

// ref converts one front-end type, deduplicating by TypeID.
func (tt *typeTable) ref(id types.TypeID) TypeRef {
	if id == types.NoTypeID {
		return NoType
	}
	if ref, ok := tt.memo[id]; ok {
		return ref
	}
	t, ok := tt.interner.Lookup(id)
	if !ok {
		return NoType
	}
	switch t.Kind {
	case types.KindUnit:
		return tt.simple(id, TypeUnit)
	case types.KindBool:
		return tt.simple(id, TypeBool)
	case types.KindInt:
		return tt.simple(id, TypeInt)
	case types.KindFloat:
		return tt.simple(id, TypeFloat)
	case types.KindString:
		return tt.simple(id, TypeString)
	case types.KindList:
		return tt.elemKind(id, TypeList, t.Elem)
	case types.KindChannel:
		return tt.elemKind(id, TypeChannel, t.Elem)
	case types.KindTask:
		return tt.elemKind(id, TypeTask, t.Elem)
	case types.KindResult:
		return tt.elemKind(id, TypeResult, t.Elem)
	case types.KindFn:
		info, ok := tt.interner.FnInfo(id)
		if !ok {
			return NoType
		}
		params := make([]TypeRef, len(info.Params))
		for i, p := range info.Params {
			params[i] = tt.ref(p)
		}
		ref := tt.alloc(Type{Kind: TypeFn, Params: params, Result: tt.ref(info.Result)})
		tt.memo[id] = ref
		return ref
	case types.KindStruct:
		info, ok := tt.interner.StructInfo(id)
		if !ok {
			return NoType
		}
		ref := tt.alloc(Type{Kind: TypeStruct, Name: tt.strings.MustLookup(info.Name)})
		tt.memo[id] = ref
		fields := make([]Field, len(info.Fields))
		for i, f := range info.Fields {
			fields[i] = Field{
				Name: tt.strings.MustLookup(f.Name),
				Weak: f.Weak,
				Type: tt.ref(f.Type),
			}
		}
		tt.module.Types[ref-1].Fields = fields
		return ref
	default:
		return NoType
	}
}

func (tt *typeTable) simple(id types.TypeID, kind TypeKind) TypeRef {
	ref := tt.alloc(Type{Kind: kind})
	tt.memo[id] = ref
	return ref
}

func (tt *typeTable) elemKind(id types.TypeID, kind TypeKind, elem types.TypeID) TypeRef {
	// Reserve the slot first: the element may be this very struct.
	ref := tt.alloc(Type{Kind: kind})
	tt.memo[id] = ref
	tt.module.Types[ref-1].Elem = tt.ref(elem)
	return ref
}
