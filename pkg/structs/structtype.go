// Package structs implements the struct-type registry (§4.2) and
// struct instances with first-class accessors/mutators (§4.3).
package structs

import (
	"sync"

	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/value"
)

// GuardFunc is a struct-type guard: it receives the prospective field
// values for one type's own init fields plus the type name, and
// returns the (possibly rewritten) values that actually get stored.
type GuardFunc func(fields []value.Value, typeName value.Symbol) ([]value.Value, error)

// StructType is §3's StructType record.
type StructType struct {
	Name          value.Symbol
	Super         *StructType
	InitFieldCnt  int
	AutoFieldCnt  int
	AutoVal       value.Value
	Props         map[*PropertyDescriptor]value.Value
	Inspector     *Inspector
	Immutables    map[int]bool // indices local to this type's own field block
	Guard         GuardFunc
	ConstrName    value.Symbol
	IsPrefab      bool
	IsOpaque      bool
	TotalFieldCnt int
	PrefabKey     *PrefabKey
}

func (*StructType) IsValue() {}

// TotalInitFieldCnt sums init_field_cnt across this type and every
// super, the value Constructor.Call validates its argument count
// against (§4.3).
func (t *StructType) TotalInitFieldCnt() int {
	n := t.InitFieldCnt
	if t.Super != nil {
		n += t.Super.TotalInitFieldCnt()
	}
	return n
}

// IsSubtypeOf reports whether t is target or a descendant of target.
func (t *StructType) IsSubtypeOf(target *StructType) bool {
	for cur := t; cur != nil; cur = cur.Super {
		if cur == target {
			return true
		}
	}
	return false
}

// chain returns this type and its supers, root-first — the order
// struct fields are laid out in physically (§4.3: "physical offset =
// type.super?.total_field_cnt + field_index").
func (t *StructType) chain() []*StructType {
	if t == nil {
		return nil
	}
	return append(t.Super.chain(), t)
}

// PropertyValue looks up a property value declared on t or inherited
// from a super (closest declaration wins).
func (t *StructType) PropertyValue(p *PropertyDescriptor) (value.Value, bool) {
	for cur := t; cur != nil; cur = cur.Super {
		if v, ok := cur.Props[p]; ok {
			return v, true
		}
	}
	return nil, false
}

// Registry owns the (redesigned, per spec.md §9) current-inspector
// default and this registry's own prefab intern table (§4.2/§5). The
// original threads current_inspector as a VM global; here it is an
// explicit receiver so multiple independent cores (e.g. test cases
// running in parallel) never share mutable global state.
type Registry struct {
	mu               sync.Mutex
	defaultInspector *Inspector
	prefabKeys       map[prefabKeySig]*PrefabKey
	prefabTypes      map[*PrefabKey]*StructType
}

func NewRegistry() *Registry {
	return &Registry{
		defaultInspector: RootInspector(),
		prefabKeys:       make(map[prefabKeySig]*PrefabKey),
		prefabTypes:      make(map[*PrefabKey]*StructType),
	}
}

func (r *Registry) CurrentInspector() *Inspector {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultInspector
}

func (r *Registry) SetCurrentInspector(i *Inspector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultInspector = i
}

// StructTypeResult is make-struct-type's multi-value return: the new
// type plus its derived constructor/predicate/accessor/mutator/super
// (§4.2).
type StructTypeResult struct {
	Type        *StructType
	Constructor *Constructor
	Predicate   *Predicate
	Accessor    *FieldAccessor
	Mutator     *FieldMutator
	Super       *StructType
}

// MakeStructType implements make-struct-type. immutables indices are
// local to this type's own field block (not counting the super),
// matching §4.2.
func (r *Registry) MakeStructType(
	name value.Symbol,
	super *StructType,
	initFieldCnt, autoFieldCnt int,
	autoVal value.Value,
	props map[*PropertyDescriptor]value.Value,
	inspector *Inspector,
	immutables []int,
	guard GuardFunc,
	constrName value.Symbol,
) (*StructTypeResult, error) {
	if initFieldCnt < 0 || autoFieldCnt < 0 {
		return nil, corerr.New("make-struct-type", corerr.ContractViolation, "field counts must be non-negative")
	}
	own := initFieldCnt + autoFieldCnt
	immSet := make(map[int]bool, len(immutables))
	for _, idx := range immutables {
		if idx < 0 || idx >= own {
			return nil, corerr.New("make-struct-type", corerr.ContractViolation, "immutable field index out of range")
		}
		immSet[idx] = true
	}
	if inspector == nil {
		inspector = r.CurrentInspector()
	}
	superTotal := 0
	if super != nil {
		superTotal = super.TotalFieldCnt
	}
	resolvedProps := make(map[*PropertyDescriptor]value.Value, len(props))
	for desc, propVal := range props {
		if desc.Guard != nil {
			guarded, err := desc.Guard(propVal, name)
			if err != nil {
				return nil, err
			}
			propVal = guarded
		}
		resolvedProps[desc] = propVal
	}
	t := &StructType{
		Name:          name,
		Super:         super,
		InitFieldCnt:  initFieldCnt,
		AutoFieldCnt:  autoFieldCnt,
		AutoVal:       autoVal,
		Props:         resolvedProps,
		Inspector:     inspector,
		Immutables:    immSet,
		Guard:         guard,
		ConstrName:    constrName,
		TotalFieldCnt: superTotal + own,
	}
	return &StructTypeResult{
		Type:        t,
		Constructor: &Constructor{Type: t},
		Predicate:   &Predicate{Type: t},
		Accessor:    &FieldAccessor{Type: t},
		Mutator:     &FieldMutator{Type: t},
		Super:       super,
	}, nil
}
