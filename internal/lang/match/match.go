// Package match implements Matching, the finite variable-to-segment
// binding map spec.md §3 builds unification on top of.
package match

import "ruleforge.dev/engine/internal/lang/segment"

// Matching is a finite map from a variable Segment (spec.md: "variable
// segment") to the Segment it is bound to. The zero value is an empty,
// ready-to-use Matching.
type Matching map[segment.Handle]segment.Handle

// Get reports the segment var is bound to, if any.
func (m Matching) Get(v segment.Handle) (segment.Handle, bool) {
	s, ok := m[v]
	return s, ok
}

// Clone returns an independent copy of m, so that extending the copy never
// mutates a Matching a caller still holds a reference to (facttree and
// ruletree queries fan out by cloning the matching at every variable
// choice point, spec.md §4.3/§4.5).
func (m Matching) Clone() Matching {
	c := make(Matching, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Bind returns a clone of m extended with var ↦ val.
func (m Matching) Bind(v, val segment.Handle) Matching {
	c := m.Clone()
	c[v] = val
	return c
}

// Merge returns a clone of m extended with every binding of other. Where a
// variable is bound in both, other's binding wins. Merge is how the
// scheduler recombines an earlier block's accumulated bindings with a
// later block's own matching once a rule's variables are no longer all
// present in one antecedent's path list (spec.md §4.7's block promotion).
func (m Matching) Merge(other Matching) Matching {
	c := make(Matching, len(m)+len(other))
	for k, v := range m {
		c[k] = v
	}
	for k, v := range other {
		c[k] = v
	}
	return c
}

// Invert swaps keys and values. It assumes the Matching is injective
// (spec.md §3: "assumes injectivity, which holds for the uses below"); if
// it is not, later entries in iteration order win arbitrarily.
func (m Matching) Invert() Matching {
	inv := make(Matching, len(m))
	for k, v := range m {
		inv[v] = k
	}
	return inv
}

// RealMatching composes a matching produced against a normalized rule
// antecedent with the rule's varmap (the renaming, inverted, that produced
// the normalization) to recover bindings over the rule's original
// variables (spec.md §4.6's get_real_matching).
//
// normalized maps a rule-local normalized variable (<__Xn>) to the value it
// was bound to during a climb. varmap maps that same normalized variable
// back to the user's original variable segment. The result maps original
// variable ↦ bound value.
func RealMatching(normalized, varmap Matching) Matching {
	real := make(Matching, len(normalized))
	for normVar, val := range normalized {
		if orig, ok := varmap[normVar]; ok {
			real[orig] = val
		} else {
			real[normVar] = val
		}
	}
	return real
}
