// Package segment implements the engine's lowest-level intern table: the
// named, typed tokens produced by parsing a fact or rule against the
// caller's PEG grammar.
package segment

import (
	"fmt"
	"hash/maphash"

	"ruleforge.dev/engine/internal/intern"
)

// A Segment is one node of a parsed term: a grammar production name, its
// surface text, and whether it is a leaf of the parse tree. Segments are
// immutable and interned: within the lifetime of a single [Pool], a given
// (Name, Text, IsLeaf) triple always resolves to the same Segment (I1).
//
// IsVar and InVarRange are derived from Name alone (via the Pool's
// [Lexicon]) and are carried on the value purely so callers never need a
// Pool reference to inspect them.
type Segment struct {
	Name       string
	Text       string
	IsLeaf     bool
	IsVar      bool
	InVarRange bool
}

// String renders the segment the way it appears in canonical fact text.
func (s Segment) String() string { return s.Text }

// Handle is an interned Segment. The zero Handle is never produced by
// [Pool.Intern]; it exists only to give callers a comparable placeholder.
type Handle = intern.Handle[Segment]

// Lexicon records the grammar-level naming conventions spec.md §6 requires:
// which production is the distinguished variable production, and which
// prefix marks a production as "variable range" (may be unified against).
// This is the supplemented detail from original_source/src/lexicon.rs
// (see SPEC_FULL.md §12): the convention is a configurable table consulted
// once per production name, not a hard-coded "v_" string check.
type Lexicon struct {
	// VarProduction is the grammar production name identifying variables
	// (spec.md §3: "name equals the distinguished variable production").
	VarProduction string
	// RangePrefix is the prefix identifying variable-range productions
	// (spec.md §3: "name starts with the variable-range prefix").
	RangePrefix string
}

func (l Lexicon) classify(name string) (isVar, inVarRange bool) {
	isVar = name == l.VarProduction
	inVarRange = isVar || hasPrefix(name, l.RangePrefix)
	return isVar, inVarRange
}

func hasPrefix(s, prefix string) bool {
	return len(prefix) > 0 && len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Pool is the segment intern table for a single knowledge base. It is not
// safe for concurrent use, matching the engine's single-writer discipline
// (spec.md §5).
type Pool struct {
	lex     Lexicon
	classes map[string]lexClass
	store   *intern.Store[Segment, hasher]
	varNext int
}

type lexClass struct {
	isVar      bool
	inVarRange bool
}

// NewPool creates a segment pool that classifies production names
// according to lex.
func NewPool(lex Lexicon) *Pool {
	return &Pool{
		lex:     lex,
		classes: make(map[string]lexClass),
		store:   intern.New[Segment](hasher{}),
	}
}

// Intern returns the canonical Segment for (name, text, isLeaf), recording
// the production's variable classification the first time name is seen.
func (p *Pool) Intern(name, text string, isLeaf bool) Handle {
	cls, ok := p.classes[name]
	if !ok {
		isVar, inVarRange := p.lex.classify(name)
		cls = lexClass{isVar: isVar, inVarRange: inVarRange}
		p.classes[name] = cls
	}
	return p.store.Make(Segment{
		Name:       name,
		Text:       text,
		IsLeaf:     isLeaf,
		IsVar:      cls.isVar,
		InVarRange: cls.inVarRange,
	})
}

// MakeVar interns the n-th normalization variable, <__Xn>, used by rule
// normalization (spec.md §4.6). The segment is always a leaf.
func (p *Pool) MakeVar(n int) Handle {
	return p.Intern(p.lex.VarProduction, fmt.Sprintf("<__X%d>", n), true)
}

// FreshVar interns the next unused normalization variable in sequence,
// useful when a caller needs fresh local names without tracking a counter
// itself (e.g. benchmark/example generators).
func (p *Pool) FreshVar() Handle {
	p.varNext++
	return p.MakeVar(p.varNext)
}

// Len reports the number of distinct segments interned so far.
func (p *Pool) Len() int { return p.store.Len() }

type hasher struct{}

func (hasher) Equal(a, b Segment) bool {
	return a.Name == b.Name && a.Text == b.Text && a.IsLeaf == b.IsLeaf
}

func (hasher) Hash(h *maphash.Hash, s Segment) {
	_, _ = h.WriteString(s.Name)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(s.Text)
	_, _ = h.Write([]byte{0})
	if s.IsLeaf {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
