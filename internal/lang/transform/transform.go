// Package transform declares the contracts a rule's transform and guard
// clauses compile to: small expression sublanguages evaluated against a
// matching once a rule's antecedents are satisfied (spec.md §4.8/§4.9).
//
// The PEG grammar that recognizes fact and rule text is external to this
// engine (spec.md §1); these two sublanguages are the one piece of
// "external" surface SPEC_FULL.md §12 gives a concrete, shippable
// implementation of, since without one the scheduler's transform/guard
// hooks have nothing real to drive in tests.
package transform

import "ruleforge.dev/engine/internal/lang/match"

// A Transform computes a new bound segment from a satisfied matching — the
// right-hand side of a rule's {={ ... }=} clause (spec.md §4.8).
type Transform interface {
	Apply(m match.Matching) (match.Matching, error)
}

// A Guard reports whether a satisfied matching passes a rule's {?{ ... }?}
// clause; a rule whose guard fails never fires (spec.md §4.9).
type Guard interface {
	Eval(m match.Matching) (bool, error)
}

// Func adapts a plain function to the Transform interface.
type Func func(m match.Matching) (match.Matching, error)

// Apply implements Transform.
func (f Func) Apply(m match.Matching) (match.Matching, error) { return f(m) }

// GuardFunc adapts a plain function to the Guard interface.
type GuardFunc func(m match.Matching) (bool, error)

// Eval implements Guard.
func (f GuardFunc) Eval(m match.Matching) (bool, error) { return f(m) }

// chain applies a sequence of Transforms in order, threading each one's
// extended matching into the next — SPEC_FULL.md §12's "per-block
// transform/guard attachment" reinstates a transform clause as a
// conjunction of assignments (original_source/examples/fib-linear/src/main.rs
// binds both <Nxt> and <NxtVal> in one {={ ... }=} clause), and a rule's
// later assignments may reference a variable an earlier one in the same
// clause just bound.
type chain []Transform

// Chain composes ts into a single Transform that applies each in order,
// nil entries skipped. An empty or all-nil chain is itself nil.
func Chain(ts ...Transform) Transform {
	var c chain
	for _, t := range ts {
		if t != nil {
			c = append(c, t)
		}
	}
	if len(c) == 0 {
		return nil
	}
	if len(c) == 1 {
		return c[0]
	}
	return c
}

// Apply implements Transform.
func (c chain) Apply(m match.Matching) (match.Matching, error) {
	for _, t := range c {
		extended, err := t.Apply(m)
		if err != nil {
			return nil, err
		}
		m = extended
	}
	return m, nil
}
