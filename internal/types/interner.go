package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Float   TypeID
	String  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Structs are nominal and variables are never deduplicated; everything else
// interns structurally.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	fns      []FnInfo
	structs  []StructInfo
	nextVar  uint32
}

// NewInterner constructs an interner seeded with the built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	key := typeKey(t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// FreshVar allocates a new inference variable. Every call yields a distinct
// TypeID.
func (in *Interner) FreshVar() TypeID {
	in.nextVar++
	return in.internRaw(Type{Kind: KindVar, Payload: in.nextVar})
}

// IsVar reports whether id is an inference variable.
func (in *Interner) IsVar(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindVar
}

// List interns list<elem>.
func (in *Interner) List(elem TypeID) TypeID {
	return in.Intern(MakeList(elem))
}

// Channel interns channel<elem>.
func (in *Interner) Channel(elem TypeID) TypeID {
	return in.Intern(MakeChannel(elem))
}

// Task interns task<elem>.
func (in *Interner) Task(elem TypeID) TypeID {
	return in.Intern(MakeTask(elem))
}

// Result interns the hidden result wrapper around ok.
func (in *Interner) Result(ok TypeID) TypeID {
	return in.Intern(MakeResult(ok))
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Payload uint32
}
