package sema

import (
	"kairo/internal/types"
)

// substitution binds inference variables to types. Bindings chain (a var may
// point at another var); resolve follows the chain with path compression.
type substitution struct {
	types   *types.Interner
	binding map[types.TypeID]types.TypeID
}

func newSubstitution(interner *types.Interner) *substitution {
	return &substitution{
		types:   interner,
		binding: make(map[types.TypeID]types.TypeID),
	}
}

// resolve follows variable bindings shallowly: the result is either a
// non-variable type or a free variable.
func (s *substitution) resolve(t types.TypeID) types.TypeID {
	seen := 0
	for {
		bound, ok := s.binding[t]
		if !ok {
			return t
		}
		s.binding[t] = bound // compress
		t = bound
		if seen++; seen > 1<<16 {
			panic("sema: substitution cycle")
		}
	}
}

// deepResolve rebuilds t with every bound variable replaced. Free variables
// stay in place.
func (s *substitution) deepResolve(t types.TypeID) types.TypeID {
	t = s.resolve(t)
	tt, ok := s.types.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case types.KindList:
		return s.types.List(s.deepResolve(tt.Elem))
	case types.KindChannel:
		return s.types.Channel(s.deepResolve(tt.Elem))
	case types.KindTask:
		return s.types.Task(s.deepResolve(tt.Elem))
	case types.KindResult:
		return s.types.Result(s.deepResolve(tt.Elem))
	case types.KindFn:
		info, ok := s.types.FnInfo(t)
		if !ok {
			return t
		}
		params := make([]types.TypeID, len(info.Params))
		changed := false
		for i, p := range info.Params {
			params[i] = s.deepResolve(p)
			changed = changed || params[i] != p
		}
		result := s.deepResolve(info.Result)
		if !changed && result == info.Result {
			return t
		}
		return s.types.RegisterFn(params, result)
	default:
		return t
	}
}

// hasFreeVar reports whether t still contains an unbound variable.
func (s *substitution) hasFreeVar(t types.TypeID) bool {
	t = s.resolve(t)
	tt, ok := s.types.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindVar:
		return true
	case types.KindList, types.KindChannel, types.KindTask, types.KindResult:
		return s.hasFreeVar(tt.Elem)
	case types.KindFn:
		info, ok := s.types.FnInfo(t)
		if !ok {
			return false
		}
		for _, p := range info.Params {
			if s.hasFreeVar(p) {
				return true
			}
		}
		return s.hasFreeVar(info.Result)
	default:
		return false
	}
}

// unifyOutcome distinguishes the no-coercion failure from plain mismatches
// so the caller can attach the dedicated diagnostic.
type unifyOutcome uint8

const (
	unifyOK unifyOutcome = iota
	unifyMismatch
	unifyNoCoercion // int vs float
)

// unify makes a and b the same type, binding variables as needed.
func (s *substitution) unify(a, b types.TypeID) unifyOutcome {
	a, b = s.resolve(a), s.resolve(b)
	if a == b {
		return unifyOK
	}
	at, aok := s.types.Lookup(a)
	bt, bok := s.types.Lookup(b)
	if !aok || !bok {
		// Invalid types come from already-reported errors; stay silent.
		return unifyOK
	}

	if at.Kind == types.KindVar {
		return s.bindVar(a, b)
	}
	if bt.Kind == types.KindVar {
		return s.bindVar(b, a)
	}

	if at.Kind != bt.Kind {
		if isNumericKind(at.Kind) && isNumericKind(bt.Kind) {
			return unifyNoCoercion
		}
		return unifyMismatch
	}

	switch at.Kind {
	case types.KindList, types.KindChannel, types.KindTask, types.KindResult:
		return s.unify(at.Elem, bt.Elem)
	case types.KindFn:
		ai, _ := s.types.FnInfo(a)
		bi, _ := s.types.FnInfo(b)
		if ai == nil || bi == nil || len(ai.Params) != len(bi.Params) {
			return unifyMismatch
		}
		for i := range ai.Params {
			if out := s.unify(ai.Params[i], bi.Params[i]); out != unifyOK {
				return out
			}
		}
		return s.unify(ai.Result, bi.Result)
	case types.KindStruct:
		// Nominal: distinct struct IDs never unify.
		return unifyMismatch
	default:
		return unifyMismatch
	}
}

func (s *substitution) bindVar(v, t types.TypeID) unifyOutcome {
	if s.occurs(v, t) {
		return unifyMismatch
	}
	s.binding[v] = t
	return unifyOK
}

// occurs prevents a variable from being bound to a type containing itself.
func (s *substitution) occurs(v, t types.TypeID) bool {
	t = s.resolve(t)
	if v == t {
		return true
	}
	tt, ok := s.types.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindList, types.KindChannel, types.KindTask, types.KindResult:
		return s.occurs(v, tt.Elem)
	case types.KindFn:
		info, ok := s.types.FnInfo(t)
		if !ok {
			return false
		}
		for _, p := range info.Params {
			if s.occurs(v, p) {
				return true
			}
		}
		return s.occurs(v, info.Result)
	default:
		return false
	}
}

func isNumericKind(k types.Kind) bool {
	return k == types.KindInt || k == types.KindFloat
}
