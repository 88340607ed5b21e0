package structs

import "github.com/racketcore/valuecore/pkg/value"

// StructTypeInfo is struct-type-info's 8-value return (§4.2):
// name, init-field-cnt, auto-field-cnt, accessor, mutator,
// immutable-k-list, super-type-or-false, skipped?.
type StructTypeInfo struct {
	Name           value.Symbol
	InitFieldCnt   int
	AutoFieldCnt   int
	Accessor       *FieldAccessor
	Mutator        *FieldMutator
	ImmutableKs    []int
	Super          *StructType
	Skipped        bool
}

func (t *StructType) StructTypeInfo() StructTypeInfo {
	ks := make([]int, 0, len(t.Immutables))
	for idx := range t.Immutables {
		ks = append(ks, idx)
	}
	return StructTypeInfo{
		Name:         t.Name,
		InitFieldCnt: t.InitFieldCnt,
		AutoFieldCnt: t.AutoFieldCnt,
		Accessor:     &FieldAccessor{Type: t},
		Mutator:      &FieldMutator{Type: t},
		ImmutableKs:  ks,
		Super:        t.Super,
	}
}

// StructInfoResult mirrors pycket's 6-element struct-info list:
// (struct-type constructor predicate (accessor ...) (mutator ...)
//  super-type-or-false). #f stands in for absent entries exactly as
// in struct_structinfo.py's is_struct_info validator.
type StructInfoResult struct {
	Type        *StructType
	Constructor *Constructor
	Predicate   *Predicate
	Accessors   []*FieldAccessor
	Mutators    []*FieldMutator
	Super       *StructType
}

// StructInfo implements struct-info: the type of s plus whether the
// current inspector lacks control of it (in which case Type is nil
// and Skipped is true, per pycket's TODO-turned-real check).
func StructInfo(s *Struct, inspector *Inspector) (typ *StructType, skipped bool) {
	if inspector != nil && s.Type.Inspector != nil && !inspector.Controls(s.Type.Inspector) {
		return nil, true
	}
	return s.Type, false
}

// MakeStructInfoThunk backs make-struct-info: Racket's primitive
// returns a thunk that, called with the macro-expansion-time
// struct-type forms, produces the struct-info list. Since this core
// lies below the macro expander, thunk construction is the caller's
// job (it already has a StructType in hand); this packages the
// closing-over step.
func MakeStructInfoThunk(t *StructType) func() StructInfoResult {
	return func() StructInfoResult {
		return ExtractStructInfo(t)
	}
}

// ExtractStructInfo implements extract-struct-info for the common
// case (a struct-type already resolved, rather than the macro-level
// W_Prim case pycket also threads through).
func ExtractStructInfo(t *StructType) StructInfoResult {
	levels := t.chain()
	accessors := make([]*FieldAccessor, 0, t.TotalFieldCnt)
	mutators := make([]*FieldMutator, 0, t.TotalFieldCnt)
	for _, lvl := range levels {
		for i := 0; i < lvl.InitFieldCnt+lvl.AutoFieldCnt; i++ {
			accessors = append(accessors, &FieldAccessor{Type: lvl, FieldIndex: i})
			mutators = append(mutators, &FieldMutator{Type: lvl, FieldIndex: i})
		}
	}
	return StructInfoResult{
		Type:        t,
		Constructor: &Constructor{Type: t},
		Predicate:   &Predicate{Type: t},
		Accessors:   accessors,
		Mutators:    mutators,
		Super:       t.Super,
	}
}

// IsStructInfo reports whether v has the shape is_struct_info in
// struct_structinfo.py accepts: here that's simply "is a
// *StructInfoResult". The thunk MakeStructInfoThunk returns is a Go
// func, not a value.Value, and is not recognised here.
func IsStructInfo(v value.Value) bool {
	_, ok := v.(*StructInfoResult)
	return ok
}

func (*StructInfoResult) IsValue() {}
