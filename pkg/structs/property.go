package structs

import (
	"github.com/google/uuid"
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

// PropertyDescriptor is an impersonator-property or struct-type
// property identity (§3's PropertyDescriptor). Like Inspector, its
// identity is backed by a uuid.UUID, and Equal compares those ids.
// pkg/structs and pkg/chaperone pass descriptors as
// *PropertyDescriptor and key their property maps on the pointer.
type PropertyDescriptor struct {
	id   uuid.UUID
	Name value.Symbol
	// Guard, if non-nil, rewrites a property value at attach time
	// (make-struct-type-property's guard argument, §4.2); Registry.
	// MakeStructType invokes it for every (descriptor, value) pair in
	// the type's declared props.
	Guard func(val value.Value, typeName value.Symbol) (value.Value, error)
}

func (*PropertyDescriptor) IsValue() {}

// NewPropertyDescriptor mints a bare property identity, the shape
// make-impersonator-property needs (pkg/chaperone.MakeImpersonatorProperty
// wraps the result in its own predicate/accessor closures, since
// impersonator properties attach to procedures, vectors, boxes and
// hashes rather than to a StructType's Props map). Struct-type
// properties go through NewStructTypeProperty instead, which also
// returns the PropertyAccessor/PropertyPredicate pair that
// impersonate-struct and chaperone-struct can override.
func NewPropertyDescriptor(name value.Symbol, guard func(value.Value, value.Symbol) (value.Value, error)) *PropertyDescriptor {
	return &PropertyDescriptor{id: uuid.New(), Name: name, Guard: guard}
}

func (p *PropertyDescriptor) Equal(other *PropertyDescriptor) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.id == other.id
}

// NewStructTypeProperty implements make-struct-type-property: a fresh
// PropertyDescriptor plus its predicate and accessor companions (§3's
// "Equipped with a predicate and accessor companion").
func NewStructTypeProperty(name value.Symbol, guard func(value.Value, value.Symbol) (value.Value, error)) (*PropertyDescriptor, *PropertyPredicate, *PropertyAccessor) {
	desc := NewPropertyDescriptor(name, guard)
	return desc, &PropertyPredicate{Prop: desc}, &PropertyAccessor{Prop: desc}
}

// PropertyReader lets pkg/chaperone interpose on a struct-type-property
// lookup the same way FieldReader does for fields (§4.4 step 3 extends
// impersonate-struct/chaperone-struct's override set to property
// accessors, not just field accessors/mutators).
type PropertyReader interface {
	value.Value
	ReadProperty(acc *PropertyAccessor) (value.Value, error)
}

// PropertyAccessor is a struct type's accessor companion for one
// property (§4.2's (descriptor, predicate, accessor) triple). Calling
// it on a struct instance of a type that declares (or inherits) a
// value for Prop returns that value; any other argument fails.
type PropertyAccessor struct {
	Prop *PropertyDescriptor
}

func (*PropertyAccessor) IsValue() {}

func (a *PropertyAccessor) Call(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	v, err := a.Read(argOrNil(args))
	if err != nil {
		return trampoline.Final(err)
	}
	return cont.Invoke(trampoline.Return(v, env, cont))
}

func (a *PropertyAccessor) Read(v value.Value) (value.Value, error) {
	if v == nil {
		return nil, corerr.New("struct-type-property-accessor", corerr.ArityMismatch, "expected exactly one argument")
	}
	if pr, ok := v.(PropertyReader); ok {
		return pr.ReadProperty(a)
	}
	s, ok := v.(*Struct)
	if !ok {
		return nil, corerr.New("struct-type-property-accessor", corerr.ContractViolation, "argument is not a struct instance")
	}
	val, ok := s.Type.PropertyValue(a.Prop)
	if !ok {
		return nil, corerr.New("struct-type-property-accessor", corerr.ContractViolation, "struct type has no value for this property")
	}
	return val, nil
}

// PropertyPredicate is the companion predicate member of the triple:
// true for any struct instance (through any wrapper chain) whose type
// declares or inherits a value for Prop.
type PropertyPredicate struct {
	Prop *PropertyDescriptor
}

func (*PropertyPredicate) IsValue() {}

func (p *PropertyPredicate) Call(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	res := value.Bool(false)
	if len(args) == 1 {
		if s, ok := value.GetBaseObject(args[0]).(*Struct); ok {
			if _, has := s.Type.PropertyValue(p.Prop); has {
				res = value.Bool(true)
			}
		}
	}
	return cont.Invoke(trampoline.Return(res, env, cont))
}
