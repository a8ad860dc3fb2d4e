// Package ir is the backend-facing output of the front end: one
// self-contained unit per function with an explicit control-flow graph,
// value registers, resolved types, storage/ARC annotations, explicit task
// and channel operations, and parallel-loop hints. Units carry their own
// type table and hold no references back into the AST.
package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// Schema is the serialization version. Bump it whenever the encoded layout
// changes; decoders reject mismatches instead of misreading.
const Schema uint16 = 1

// Reg names a value register inside one function, 1-based; NoReg is absent.
type Reg uint32

const NoReg Reg = 0

func (r Reg) IsValid() bool { return r != NoReg }

func (r Reg) String() string {
	if r == NoReg {
		return "_"
	}
	return fmt.Sprintf("%%%d", uint32(r))
}

// BlockID names a basic block inside one function, 1-based.
type BlockID uint32

const NoBlock BlockID = 0

func (b BlockID) IsValid() bool { return b != NoBlock }

func (b BlockID) String() string {
	if b == NoBlock {
		return "b?"
	}
	return fmt.Sprintf("b%d", uint32(b))
}

// TypeRef indexes the module type table, 1-based.
type TypeRef uint32

const NoType TypeRef = 0

func (t TypeRef) IsValid() bool { return t != NoType }

// TypeKind mirrors the front end's type constructors in serialized form.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	TypeUnit
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeList
	TypeChannel
	TypeTask
	TypeResult
	TypeFn
	TypeStruct
)

var typeKindNames = [...]string{
	TypeInvalid: "invalid",
	TypeUnit:    "unit",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeString:  "str",
	TypeList:    "list",
	TypeChannel: "channel",
	TypeTask:    "task",
	TypeResult:  "result",
	TypeFn:      "fun",
	TypeStruct:  "struct",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "invalid"
}

// Field is one struct field in the serialized type table.
type Field struct {
	Name string
	Weak bool
	Type TypeRef
}

// Type is one entry of the module type table. Element and signature slots
// are only meaningful for the kinds that use them.
type Type struct {
	Kind   TypeKind
	Elem   TypeRef `msgpack:",omitempty"`
	Params []TypeRef
	Result TypeRef `msgpack:",omitempty"`
	Name   string  `msgpack:",omitempty"`
	Fields []Field
}

// Storage says where a register's value lives.
type Storage uint8

const (
	StoreStack Storage = iota
	StoreHeapARC
)

func (s Storage) String() string {
	if s == StoreHeapARC {
		return "heap"
	}
	return "stack"
}

// Register is one mutable value slot. Name is the source binding when the
// register backs one, empty for temporaries.
type Register struct {
	Type    TypeRef
	Storage Storage
	Name    string `msgpack:",omitempty"`
}

// Param describes one function parameter; its value arrives in Reg.
type Param struct {
	Name    string
	Type    TypeRef
	Reg     Reg
	Storage Storage
}

// Op enumerates the instruction set. Every instruction writes at most one
// register and never branches; control flow lives in terminators only.
type Op uint8

const (
	OpInvalid Op = iota
	OpConst       // Dst = literal Lit of Type
	OpMove        // Dst = A
	OpBin         // Dst = A <Sym> B
	OpUn          // Dst = <Sym> A
	OpCall        // Dst = Sym(Args...)
	OpCallExtern  // Dst = Sym(Args...), Sym is "module.member"
	OpMakeList    // Dst = [Args...]
	OpMakeStruct  // Dst = Type{Args...} positionally
	OpField       // Dst = A.Sym
	OpSetField    // A.Sym = B
	OpIndex       // Dst = A[B]
	OpLen         // Dst = len(A)
	OpConvert     // Dst = Type(A), int/float/str conversions
	OpPrint       // print(Args...)
	OpRetain      // retain A
	OpRelease     // release A
	OpSpawn       // Dst = spawn Sym(Args...), Dst is task
	OpAwait       // Dst = await A
	OpChanNew     // Dst = channel()
	OpChanSend    // send(A, B), the channel owns the retained reference
	OpChanRecv    // Dst = recv(A)
	OpMakeOk      // Dst = Ok(A)
	OpMakeErr     // Dst = Err(A)
	OpIsErr       // Dst = is_err(A)
	OpUnwrapOk    // Dst = ok_of(A)
	OpUnwrapErr   // Dst = err_of(A)
)

var opNames = [...]string{
	OpInvalid:    "invalid",
	OpConst:      "const",
	OpMove:       "move",
	OpBin:        "bin",
	OpUn:         "un",
	OpCall:       "call",
	OpCallExtern: "call.extern",
	OpMakeList:   "make.list",
	OpMakeStruct: "make.struct",
	OpField:      "field.get",
	OpSetField:   "field.set",
	OpIndex:      "index",
	OpLen:        "len",
	OpConvert:    "convert",
	OpPrint:      "print",
	OpRetain:     "retain",
	OpRelease:    "release",
	OpSpawn:      "spawn",
	OpAwait:      "await",
	OpChanNew:    "chan.new",
	OpChanSend:   "chan.send",
	OpChanRecv:   "chan.recv",
	OpMakeOk:     "result.ok",
	OpMakeErr:    "result.err",
	OpIsErr:      "result.is_err",
	OpUnwrapOk:   "result.ok_of",
	OpUnwrapErr:  "result.err_of",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "invalid"
}

// Instr is one flat instruction. Unused slots stay zero; the Op defines
// which ones matter.
type Instr struct {
	Op   Op
	Dst  Reg     `msgpack:",omitempty"`
	A    Reg     `msgpack:",omitempty"`
	B    Reg     `msgpack:",omitempty"`
	Args []Reg   `msgpack:",omitempty"`
	Type TypeRef `msgpack:",omitempty"`
	Sym  string  `msgpack:",omitempty"`
	Lit  string  `msgpack:",omitempty"`
}

// TermKind enumerates block terminators.
type TermKind uint8

const (
	TermInvalid TermKind = iota
	TermJump             // goto To
	TermBranch           // if Cond goto To else goto Else
	TermReturn           // return Value
	TermAbort            // abort with Value, a string register; must on Err
)

func (k TermKind) String() string {
	switch k {
	case TermJump:
		return "jump"
	case TermBranch:
		return "branch"
	case TermReturn:
		return "return"
	case TermAbort:
		return "abort"
	default:
		return "invalid"
	}
}

// Terminator ends a block. Exactly one per block.
type Terminator struct {
	Kind  TermKind
	Cond  Reg     `msgpack:",omitempty"`
	To    BlockID `msgpack:",omitempty"`
	Else  BlockID `msgpack:",omitempty"`
	Value Reg     `msgpack:",omitempty"`
}

// Block is a straight-line instruction run ended by a terminator.
type Block struct {
	Instrs []Instr
	Term   Terminator
}

// LoopStrategy is the parallelization decision attached to a loop header.
type LoopStrategy uint8

const (
	LoopSeq LoopStrategy = iota
	LoopParMap
	LoopParReduce
)

func (s LoopStrategy) String() string {
	switch s {
	case LoopParMap:
		return "par.map"
	case LoopParReduce:
		return "par.reduce"
	default:
		return "seq"
	}
}

// LoopHint tells the backend how a loop may be scheduled. Head is the
// loop's header block; Acc and ReduceOp are set for reductions.
type LoopHint struct {
	Head     BlockID
	Strategy LoopStrategy
	Acc      Reg    `msgpack:",omitempty"`
	ReduceOp string `msgpack:",omitempty"`
}

// Func is one self-contained IR unit. Result is the success type; when
// Fallible is set the runtime signature is result<Result> with a string
// error side, and every return site produces an Ok or Err value.
type Func struct {
	Name      string
	Params    []Param
	Result    TypeRef
	Fallible  bool
	Registers []Register
	Blocks    []Block
	Entry     BlockID
	Loops     []LoopHint
}

// NewReg appends a register and returns its 1-based handle.
func (f *Func) NewReg(t TypeRef, storage Storage, name string) Reg {
	f.Registers = append(f.Registers, Register{Type: t, Storage: storage, Name: name})
	n, err := safecast.Conv[uint32](len(f.Registers))
	if err != nil {
		panic(fmt.Errorf("register overflow: %w", err))
	}
	return Reg(n)
}

// Register returns the register payload, or nil for NoReg.
func (f *Func) Register(r Reg) *Register {
	if r == NoReg || int(r) > len(f.Registers) {
		return nil
	}
	return &f.Registers[r-1]
}

// NewBlock appends an empty block and returns its handle.
func (f *Func) NewBlock() BlockID {
	f.Blocks = append(f.Blocks, Block{})
	n, err := safecast.Conv[uint32](len(f.Blocks))
	if err != nil {
		panic(fmt.Errorf("block overflow: %w", err))
	}
	return BlockID(n)
}

// Block returns the block payload, or nil for NoBlock.
func (f *Func) Block(id BlockID) *Block {
	if id == NoBlock || int(id) > len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id-1]
}

// Module is the serialized product of compiling one source file.
type Module struct {
	Schema uint16
	File   string
	Types  []Type
	Funcs  []*Func
}

// TypeOf returns the type-table entry behind ref, or nil.
func (m *Module) TypeOf(ref TypeRef) *Type {
	if ref == NoType || int(ref) > len(m.Types) {
		return nil
	}
	return &m.Types[ref-1]
}
