package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"kairo/internal/source"
)

// StructField describes a single field inside a nominal struct type. Weak
// fields hold non-owning references and do not keep their target alive.
type StructField struct {
	Name source.StringID
	Weak bool
	Type TypeID
}

// StructInfo stores metadata for a struct type.
type StructInfo struct {
	Name   source.StringID
	Decl   source.Span
	Fields []StructField
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
// Fields are filled in later so self-referential declarations resolve.
func (in *Interner) RegisterStruct(name source.StringID, decl source.Span) TypeID {
	slot := in.appendStructInfo(StructInfo{Name: name, Decl: decl})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

// SetStructFields stores the resolved field descriptors for the struct type.
func (in *Interner) SetStructFields(typeID TypeID, fields []StructField) {
	info := in.structInfo(typeID)
	if info == nil {
		return
	}
	info.Fields = slices.Clone(fields)
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(typeID TypeID) (*StructInfo, bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// StructFieldByName finds a field by interned name.
func (in *Interner) StructFieldByName(typeID TypeID, name source.StringID) (StructField, bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return StructField{}, false
	}
	for _, f := range info.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructField{}, false
}

func (in *Interner) structInfo(typeID TypeID) *StructInfo {
	if typeID == NoTypeID {
		return nil
	}
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindStruct {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[tt.Payload]
}

func (in *Interner) appendStructInfo(info StructInfo) uint32 {
	in.structs = append(in.structs, StructInfo{
		Name:   info.Name,
		Decl:   info.Decl,
		Fields: slices.Clone(info.Fields),
	})
	slot, err := safecast.Conv[uint32](len(in.structs) - 1)
	if err != nil {
		panic(fmt.Errorf("struct info overflow: %w", err))
	}
	return slot
}
