// Command corelab is a hands-on CLI over the value-layer core: numeric
// tower arithmetic, struct types, chaperone/impersonator wrapping, and
// hash tables, one verb per subsystem, in the spirit of z80opt's
// enumerate/target/verify split.
package main

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/racketcore/valuecore/pkg/chaperone"
	"github.com/racketcore/valuecore/pkg/hashtable"
	"github.com/racketcore/valuecore/pkg/numeric"
	"github.com/racketcore/valuecore/pkg/structs"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corelab",
		Short: "Exercise the numeric, struct, chaperone, and hash-table core",
	}

	rootCmd.AddCommand(arithCmd(), structsCmd(), chaperoneCmd(), hashCmd(), selftestCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// arithCmd evaluates a single binary or unary arithmetic operation,
// e.g. `corelab arith 3 + 4`, `corelab arith 7 neg`.
func arithCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arith <a> <op> [b]",
		Short: "Evaluate one numeric-tower operation",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			op := args[1]

			if len(args) == 2 {
				result, err := applyUnary(op, a)
				if err != nil {
					return err
				}
				fmt.Println(print(result))
				return nil
			}

			b, err := parseNumber(args[2])
			if err != nil {
				return err
			}
			result, err := applyBinary(op, a, b)
			if err != nil {
				return err
			}
			fmt.Println(print(result))
			return nil
		},
	}
	return cmd
}

func applyBinary(op string, a, b numeric.Number) (numeric.Number, error) {
	switch op {
	case "+":
		return numeric.Add(a, b)
	case "-":
		return numeric.Sub(a, b)
	case "*":
		return numeric.Mul(a, b)
	case "/":
		return numeric.Div(a, b)
	case "quotient":
		return numeric.Quotient(a, b)
	case "modulo":
		return numeric.Mod(a, b)
	case "expt":
		return numeric.Pow(a, b)
	case "and":
		return numeric.BitAnd(a, b)
	case "or":
		return numeric.BitOr(a, b)
	case "xor":
		return numeric.BitXor(a, b)
	case "shl":
		return numeric.Shl(a, b)
	case "shr":
		return numeric.Shr(a, b)
	case "max":
		return numeric.Max(a, b)
	case "min":
		return numeric.Min(a, b)
	default:
		return nil, fmt.Errorf("unknown binary operator %q", op)
	}
}

func applyUnary(op string, a numeric.Number) (numeric.Number, error) {
	switch op {
	case "neg":
		return numeric.Neg(a)
	case "abs":
		return numeric.Abs(a)
	case "not":
		return numeric.Not(a)
	case "round":
		return numeric.Round(a)
	case "floor":
		return numeric.Floor(a)
	case "ceiling":
		return numeric.Ceiling(a)
	case "sqrt":
		return numeric.Sqrt(a)
	case "exact->inexact":
		return numeric.ExactToInexact(a)
	case "inexact->exact":
		return numeric.InexactToExact(a)
	default:
		return nil, fmt.Errorf("unknown unary operator %q", op)
	}
}

// parseNumber accepts a decimal integer (Fixnum) or a float literal
// (Flonum); a literal wide enough to overflow int64 is parsed as a
// Bignum via math/big directly.
func parseNumber(s string) (numeric.Number, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return numeric.FromHostInt(n), nil
	}
	if bi, ok := new(big.Int).SetString(s, 10); ok {
		return numeric.FromBigInt(bi), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return numeric.FromFloat(f), nil
	}
	return nil, fmt.Errorf("cannot parse %q as a number", s)
}

func print(v value.Value) string {
	if p, ok := v.(value.Printable); ok {
		return p.Print()
	}
	return fmt.Sprintf("%v", v)
}

// structsCmd builds a two-level struct-type hierarchy (posn3d extends
// posn) and shows field layout, predicate dispatch, and struct->vector.
func structsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structs",
		Short: "Demonstrate struct-type definition, construction, and field access",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(headingStyle.Render("struct-type hierarchy"))
			reg := structs.NewRegistry()

			posn, err := reg.MakeStructType(value.Symbol("posn"), nil, 2, 0, value.Bool(false), nil, nil, nil, nil, value.Symbol("posn"))
			if err != nil {
				return err
			}
			posn3d, err := reg.MakeStructType(value.Symbol("posn3d"), posn.Type, 1, 0, value.Bool(false), nil, nil, nil, nil, value.Symbol("posn3d"))
			if err != nil {
				return err
			}

			p, err := posn.Constructor.Construct([]value.Value{numeric.Fixnum(1), numeric.Fixnum(2)})
			if err != nil {
				return err
			}
			p3, err := posn3d.Constructor.Construct([]value.Value{numeric.Fixnum(1), numeric.Fixnum(2), numeric.Fixnum(3)})
			if err != nil {
				return err
			}

			xAcc := &structs.FieldAccessor{Type: posn.Type, FieldIndex: 0}
			x, _ := xAcc.Read(p3)
			fmt.Printf("posn3d is-a posn? %v\n", posn3d.Type.IsSubtypeOf(posn.Type))
			fmt.Printf("(posn-x p3) = %s  (inherited accessor works on the subtype)\n", print(x))
			onP := trampoline.Run(posn.Predicate.Call([]value.Value{p}, nil, trampoline.IdentityContinuation{}))
			onP3 := trampoline.Run(posn.Predicate.Call([]value.Value{p3}, nil, trampoline.IdentityContinuation{}))
			fmt.Printf("posn predicate on p: %v, on p3: %v\n", onP, onP3)

			vec := structs.ToVector(p3, reg.CurrentInspector())
			fmt.Printf("struct->vector p3 length = %d\n", vec.Len())
			return nil
		},
	}
}

// chaperoneCmd impersonates a procedure so every call is doubled
// before the wrapped procedure ever sees its argument, then prints
// chaperone-of? of the impersonated procedure against its base, which
// is false because an impersonator is not a chaperone.
func chaperoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chaperone",
		Short: "Demonstrate impersonating a procedure's arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(headingStyle.Render("procedure impersonation"))
			addOne := value.NewProcedure("add1", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
				n := args[0].(numeric.Number)
				result, err := numeric.Add(n, numeric.Fixnum(1))
				if err != nil {
					return trampoline.Final(err)
				}
				return cont.Invoke(trampoline.Return(result, env, cont))
			})
			doubleArg := value.NewProcedure("double-arg", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
				n := args[0].(numeric.Number)
				doubled, err := numeric.Mul(n, numeric.Fixnum(2))
				if err != nil {
					return trampoline.Final(err)
				}
				return cont.Invoke(trampoline.Return(value.Values{doubled}, env, cont))
			})

			wrapped, err := chaperone.ImpersonateProcedure([]value.Value{addOne, doubleArg})
			if err != nil {
				return err
			}
			callable := wrapped.(value.Callable)
			result := trampoline.Run(callable.Call([]value.Value{numeric.Fixnum(5)}, nil, trampoline.IdentityContinuation{}))
			fmt.Printf("(impersonated-add1 5) = %v  (doubled to 10, then +1)\n", result)
			fmt.Printf("chaperone-of? wrapped base: %v\n", chaperone.ChaperoneOf(wrapped, addOne))
			return nil
		},
	}
}

// hashCmd builds an equal? table, exercises ref/set!/remove!/count,
// and walks it with hash-for-each.
func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Demonstrate hash-table ref/set!/remove!/for-each",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(headingStyle.Render("equal? hash table"))
			tbl := hashtable.New(hashtable.KindEqual, false)
			if err := hashtable.Set(tbl, value.Symbol("one"), numeric.Fixnum(1)); err != nil {
				return err
			}
			if err := hashtable.Set(tbl, value.Symbol("two"), numeric.Fixnum(2)); err != nil {
				return err
			}
			n, _ := hashtable.Count(tbl)
			fmt.Printf("count = %d\n", n)

			visit := value.NewProcedure("print-entry", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
				fmt.Printf("  %s -> %s\n", print(args[0]), print(args[1]))
				return cont.Invoke(trampoline.Return(value.TheVoid, env, cont))
			})
			trampoline.Run(hashtable.ForEach(tbl, visit, nil, trampoline.IdentityContinuation{}))

			if err := hashtable.Remove(tbl, value.Symbol("one")); err != nil {
				return err
			}
			n, _ = hashtable.Count(tbl)
			fmt.Printf("count after removing \"one\" = %d\n", n)
			return nil
		},
	}
}

// selftestCmd runs a battery of small property checks concurrently,
// one goroutine per check, and reports pass/fail the way a CI smoke
// test would, fanning out over a sync.WaitGroup the way the teacher's
// own worker pools do.
func selftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run concurrent property checks across the numeric, struct, chaperone, and hash layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := []struct {
				name string
				fn   func() error
			}{
				{"fixnum-overflow-promotes-to-bignum", checkFixnumOverflow},
				{"struct-predicate-respects-subtyping", checkStructSubtyping},
				{"chaperone-of-is-reflexive", checkChaperoneReflexive},
				{"eq-table-distinguishes-equal-cons", checkEqTableDistinguishesCons},
			}

			results := make([]error, len(checks))
			var wg sync.WaitGroup
			for i, c := range checks {
				i, c := i, c
				wg.Add(1)
				go func() {
					defer wg.Done()
					results[i] = c.fn()
				}()
			}
			wg.Wait()

			failures := 0
			for i, c := range checks {
				if results[i] != nil {
					failures++
					fmt.Printf("%s %s: %v\n", failStyle.Render("FAIL"), c.name, results[i])
				} else {
					fmt.Printf("%s %s\n", okStyle.Render("PASS"), c.name)
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d/%d checks failed", failures, len(checks))
			}
			fmt.Printf("\nall %d checks passed\n", len(checks))
			return nil
		},
	}
}

func checkFixnumOverflow() error {
	huge := numeric.FromHostInt(int64(1) << 62)
	result, err := numeric.Add(huge, huge)
	if err != nil {
		return err
	}
	if _, ok := result.(numeric.Bignum); !ok {
		return fmt.Errorf("expected overflow to promote to Bignum, got %T", result)
	}
	return nil
}

func checkStructSubtyping() error {
	reg := structs.NewRegistry()
	base, err := reg.MakeStructType(value.Symbol("animal"), nil, 1, 0, value.Bool(false), nil, nil, nil, nil, value.Symbol("animal"))
	if err != nil {
		return err
	}
	sub, err := reg.MakeStructType(value.Symbol("dog"), base.Type, 0, 0, value.Bool(false), nil, nil, nil, nil, value.Symbol("dog"))
	if err != nil {
		return err
	}
	d, err := sub.Constructor.Construct([]value.Value{value.Symbol("rex")})
	if err != nil {
		return err
	}
	result := trampoline.Run(base.Predicate.Call([]value.Value{d}, nil, trampoline.IdentityContinuation{}))
	if ok, isBool := result.(value.Bool); !isBool || !bool(ok) {
		return fmt.Errorf("expected base predicate to accept a subtype instance")
	}
	return nil
}

func checkChaperoneReflexive() error {
	vec := value.NewVector([]value.Value{numeric.Fixnum(1)}, false)
	pass := value.NewProcedure("id", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
		return cont.Invoke(trampoline.Return(value.Values(args), env, cont))
	})
	wrapped, err := chaperone.ChaperoneVector([]value.Value{vec, pass, pass})
	if err != nil {
		return err
	}
	if !chaperone.ChaperoneOf(wrapped, wrapped) {
		return fmt.Errorf("chaperone-of? should be reflexive")
	}
	return nil
}

func checkEqTableDistinguishesCons() error {
	tbl := hashtable.New(hashtable.KindEq, false)
	a := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	b := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	if err := hashtable.Set(tbl, a, value.Symbol("a")); err != nil {
		return err
	}
	if _, err := hashtable.Ref(tbl, b, nil); err == nil {
		return fmt.Errorf("eq? table should not find a structurally-equal but distinct key")
	}
	return nil
}
