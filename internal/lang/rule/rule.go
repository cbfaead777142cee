// Package rule implements Rule, its per-antecedent normalization, and the
// specialization that turns a rule into the indexable entries the rule
// tree stores (spec.md §3, §4.4, §4.6).
package rule

import (
	"ruleforge.dev/engine/internal/lang/fact"
	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/path"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/lang/transform"
)

// Block is one later antecedent block in a rule's block0 -> block1 -> ...
// chain (spec.md §3's "more_antecedents"), together with the transform and
// guard attached to its own arrow: both fire once this block's antecedents
// are all satisfied, before the next block is promoted or, for the last
// block, before consequents are materialized (SPEC_FULL.md §12, grounded
// on original_source/examples/fib-linear/src/main.rs, whose three-block
// rule attaches a distinct transform/guard pair after each of its first
// two blocks).
type Block struct {
	Antecedents []fact.Fact
	Transform   transform.Transform
	Guard       transform.Guard
}

// Rule is a production: the current, "active" antecedent block
// (Antecedents, Transform, Guard) that must be satisfied next, zero or
// more further blocks queued in MoreAntecedents, and the consequents
// derived once every block has been satisfied in turn (spec.md §3/§4.7).
type Rule struct {
	Antecedents     []fact.Fact
	Transform       transform.Transform
	Guard           transform.Guard
	MoreAntecedents []Block
	Consequents     []fact.Fact
}

// Ref pairs a specialized Rule — the original rule with one antecedent
// pulled out to become the indexed, "listening" antecedent — with the
// varmap produced when that one antecedent was normalized: the mapping
// from each normalized local variable (<__Xn>) back to the variable
// segment the user actually wrote for that antecedent (spec.md §4.4).
type Ref struct {
	Rule   Rule
	Varmap match.Matching
}

// Entry is one of the n index entries spec.md §4.4 describes for a rule
// with n antecedents: the normalized form of the antecedent chosen to be
// "listening", paired with the Ref to store at the rule tree's leaf.
type Entry struct {
	NormalizedAntecedent fact.Fact
	Ref                  Ref
}

// NormalizeFact renames every distinct variable segment in f, in
// first-occurrence order over f's leaf paths, to the dense local sequence
// <__X1>, <__X2>, ... (spec.md §4.6). It returns the fact's varmap — the
// inverse renaming, from normalized name back to the original variable
// segment — alongside the normalized fact.
//
// This is the one instance of spec.md §4.8's "normalize_fact" that can be
// implemented structurally rather than by reparsing regenerated text:
// renaming only ever swaps a variable's own segment at a position that
// already exists in f's path list, never introduces new structure, so
// path.Substitute (a single-segment replacement) is exactly sufficient.
func NormalizeFact(pool *segment.Pool, f fact.Fact) (match.Matching, fact.Fact) {
	rename := match.Matching{}
	n := 0
	for _, p := range f.Paths {
		if !p.Value().Value().IsVar {
			continue
		}
		orig := p.Value()
		if _, ok := rename.Get(orig); ok {
			continue
		}
		n++
		rename = rename.Bind(orig, pool.MakeVar(n))
	}

	paths := make([]path.Path, len(f.Paths))
	for i, p := range f.Paths {
		if p.Value().Value().IsVar {
			if _, ok := rename.Get(p.Value()); ok {
				paths[i] = p.Substitute(rename)
				continue
			}
		}
		paths[i] = p
	}
	return rename.Invert(), fact.FromPaths(paths)
}

// Specialize builds one Entry per antecedent (spec.md §4.4): entry i pairs
// antecedent i's normalized form with a Ref whose Rule has antecedent i
// removed from the active block, so any of a rule's antecedents can be the
// one a newly asserted fact climbs to.
func (r Rule) Specialize(pool *segment.Pool) []Entry {
	entries := make([]Entry, len(r.Antecedents))
	for i, a := range r.Antecedents {
		varmap, normalized := NormalizeFact(pool, a)
		rest := make([]fact.Fact, 0, len(r.Antecedents)-1)
		for j, other := range r.Antecedents {
			if j != i {
				rest = append(rest, other)
			}
		}
		entries[i] = Entry{
			NormalizedAntecedent: normalized,
			Ref: Ref{
				Rule: Rule{
					Antecedents:     rest,
					Transform:       r.Transform,
					Guard:           r.Guard,
					MoreAntecedents: r.MoreAntecedents,
					Consequents:     r.Consequents,
				},
				Varmap: varmap,
			},
		}
	}
	return entries
}

// RealMatching recovers a matching over the indexed antecedent's original
// variables from one produced by climbing the rule tree against its
// normalized form (spec.md §4.6's get_real_matching).
func (ref Ref) RealMatching(normalized match.Matching) match.Matching {
	return match.RealMatching(normalized, ref.Varmap)
}
