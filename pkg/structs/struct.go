package structs

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

// Struct is a struct instance (§3): a type tag plus a flat field
// array laid out root-super-first, as described in StructType.chain.
type Struct struct {
	Type   *StructType
	Fields []value.Value
}

func (*Struct) IsValue() {}

// FieldReader lets pkg/chaperone interpose on field access without
// pkg/structs importing pkg/chaperone: FieldAccessor.Call checks for
// this interface before falling back to a plain *Struct, so a
// chaperoned/impersonated struct can run its handler chain first and
// only then delegate to the real accessor.
type FieldReader interface {
	value.Value
	ReadField(acc *FieldAccessor) (value.Value, error)
}

// FieldWriter is FieldReader's write-side counterpart, consulted by
// FieldMutator.Call.
type FieldWriter interface {
	value.Value
	WriteField(mut *FieldMutator, val value.Value) error
}

// physicalIndex returns where t's field_index (local to t's own init+
// auto block) lands in a Fields slice whose Type is instT (which may
// be t or a subtype of t).
func physicalIndex(t *StructType, fieldIndex int) int {
	offset := 0
	if t.Super != nil {
		offset = t.Super.TotalFieldCnt
	}
	return offset + fieldIndex
}

// Constructor is the first-class constructor procedure returned by
// make-struct-type (§4.3). Arguments are the init fields only, for
// this type and every super, supplied in super-to-subtype order;
// auto fields are filled from each level's auto_val and guards run
// bottom-up per level.
type Constructor struct {
	Type *StructType
}

func (*Constructor) IsValue() {}

func (c *Constructor) Call(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	s, err := c.Construct(args)
	if err != nil {
		return trampoline.Final(err)
	}
	return cont.Invoke(trampoline.Return(s, env, cont))
}

// Construct is the direct (non-CPS) path used by tests and by other
// core operations that already hold a driven trampoline.
func (c *Constructor) Construct(args []value.Value) (*Struct, error) {
	levels := c.Type.chain()
	want := c.Type.TotalInitFieldCnt()
	if len(args) != want {
		return nil, corerr.New("struct-constructor", corerr.ArityMismatch, "wrong number of constructor arguments")
	}

	fields := make([]value.Value, 0, c.Type.TotalFieldCnt)
	pos := 0
	for _, lvl := range levels {
		levelArgs := args[pos : pos+lvl.InitFieldCnt]
		pos += lvl.InitFieldCnt
		if lvl.Guard != nil {
			guarded, err := lvl.Guard(levelArgs, c.Type.Name)
			if err != nil {
				return nil, err
			}
			if len(guarded) != lvl.InitFieldCnt {
				return nil, corerr.New("struct-constructor", corerr.ContractViolation, "guard changed field count")
			}
			levelArgs = guarded
		}
		fields = append(fields, levelArgs...)
		for i := 0; i < lvl.AutoFieldCnt; i++ {
			fields = append(fields, lvl.AutoVal)
		}
	}
	return &Struct{Type: c.Type, Fields: fields}, nil
}

// Predicate implements a struct type's predicate: true for instances
// of Type or any subtype, including through any wrapper chain (§4.4's
// impersonators and chaperones preserve predicate truth).
type Predicate struct {
	Type *StructType
}

func (*Predicate) IsValue() {}

func (p *Predicate) Call(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	res := value.Bool(false)
	if len(args) == 1 {
		if s, ok := value.GetBaseObject(args[0]).(*Struct); ok && s.Type.IsSubtypeOf(p.Type) {
			res = value.Bool(true)
		}
	}
	return cont.Invoke(trampoline.Return(res, env, cont))
}

// FieldAccessor is a struct type's accessor for one of its own
// (possibly inherited) field slots (§4.3).
type FieldAccessor struct {
	Type       *StructType
	FieldIndex int
}

func (*FieldAccessor) IsValue() {}

func (a *FieldAccessor) Call(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	v, err := a.Read(argOrNil(args))
	if err != nil {
		return trampoline.Final(err)
	}
	return cont.Invoke(trampoline.Return(v, env, cont))
}

func argOrNil(args []value.Value) value.Value {
	if len(args) == 1 {
		return args[0]
	}
	return nil
}

func (a *FieldAccessor) Read(v value.Value) (value.Value, error) {
	if v == nil {
		return nil, corerr.New("struct-accessor", corerr.ArityMismatch, "expected exactly one argument")
	}
	if fr, ok := v.(FieldReader); ok {
		return fr.ReadField(a)
	}
	s, ok := v.(*Struct)
	if !ok || !s.Type.IsSubtypeOf(a.Type) {
		return nil, corerr.New("struct-accessor", corerr.ContractViolation, "argument is not an instance of the expected struct type")
	}
	return s.Fields[physicalIndex(a.Type, a.FieldIndex)], nil
}

// FieldMutator is a struct type's mutator for one of its own
// (possibly inherited) field slots (§4.3). Calling it on an instance
// whose physical slot was declared immutable raises
// ImmutableFieldMutation.
type FieldMutator struct {
	Type       *StructType
	FieldIndex int
}

func (*FieldMutator) IsValue() {}

func (m *FieldMutator) Call(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	if len(args) != 2 {
		return trampoline.Final(corerr.New("struct-mutator", corerr.ArityMismatch, "expected exactly two arguments"))
	}
	if err := m.Write(args[0], args[1]); err != nil {
		return trampoline.Final(err)
	}
	return cont.Invoke(trampoline.Return(value.Void{}, env, cont))
}

func (m *FieldMutator) Write(v, val value.Value) error {
	if fw, ok := v.(FieldWriter); ok {
		return fw.WriteField(m, val)
	}
	s, ok := v.(*Struct)
	if !ok || !s.Type.IsSubtypeOf(m.Type) {
		return corerr.New("struct-mutator", corerr.ContractViolation, "argument is not an instance of the expected struct type")
	}
	if m.Type.Immutables[m.FieldIndex] {
		return corerr.New("struct-mutator", corerr.ImmutableFieldMutation, "field is immutable")
	}
	s.Fields[physicalIndex(m.Type, m.FieldIndex)] = val
	return nil
}

// ToVector implements struct->vector: an immutable vector tagged with
// a symbol derived from the type name, holding every field value in
// declaration order (super fields first), or '... in place of any
// field whose type is opaque to the current inspector (§4.3).
func ToVector(s *Struct, inspector *Inspector) *value.Vector {
	items := make([]value.Value, 0, len(s.Fields)+1)
	items = append(items, value.Symbol("struct:"+string(s.Type.Name)))
	visible := inspector != nil && (s.Type.Inspector == nil || inspector.Controls(s.Type.Inspector))
	for _, f := range s.Fields {
		if visible || !s.Type.IsOpaque {
			items = append(items, f)
		} else {
			items = append(items, value.Symbol("..."))
		}
	}
	return value.NewVector(items, true)
}
