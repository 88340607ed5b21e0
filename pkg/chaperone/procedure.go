package chaperone

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

// ProcedureWrapper backs impersonate-procedure/chaperone-procedure. It
// is the one wrapper kind given the full chained-continuation
// treatment: Call never blocks on the check handler, it hands the
// evaluator a continuation that resumes the wrapped procedure once
// the handler's rewritten arguments come back (§9's CPS design note —
// "the core never recurses into user code").
type ProcedureWrapper struct {
	Proc  value.Callable
	Check value.Callable
	K     Kind
	Props props
}

func ImpersonateProcedure(args []value.Value) (value.Value, error) {
	return newProcedureWrapper("impersonate-procedure", args, KindImpersonator)
}

func ChaperoneProcedure(args []value.Value) (value.Value, error) {
	return newProcedureWrapper("chaperone-procedure", args, KindChaperone)
}

func newProcedureWrapper(op string, args []value.Value, kind Kind) (value.Value, error) {
	positional, p, err := unpackProperties(op, args)
	if err != nil {
		return nil, err
	}
	if len(positional) != 2 {
		return nil, corerr.New(op, corerr.ArityMismatch, "not given 2 required arguments")
	}
	proc, err := requireCallable(op, "first argument", positional[0])
	if err != nil {
		return nil, err
	}
	check, err := requireCallable(op, "handler", positional[1])
	if err != nil {
		return nil, err
	}
	return &ProcedureWrapper{Proc: proc, Check: check, K: kind, Props: p}, nil
}

func (*ProcedureWrapper) IsValue()               {}
func (w *ProcedureWrapper) kind() Kind           { return w.K }
func (w *ProcedureWrapper) Inner() value.Value   { return w.Proc }

func (w *ProcedureWrapper) Call(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	return w.Check.Call(args, env, funcContinuation(func(s trampoline.Step) trampoline.Step {
		newArgs, err := asArgs(s.Value)
		if err != nil {
			return trampoline.Final(err)
		}
		return w.Proc.Call(newArgs, env, cont)
	}))
}
