// Package fact implements Fact, the interned, canonical-text representation
// of a parsed ground or pattern term that the fact tree and rule tree both
// index.
package fact

import (
	"hash/maphash"
	"strings"

	"ruleforge.dev/engine/internal/lang/path"
)

// A Fact pairs a term's canonical surface text with its ordered path list:
// every leaf path, plus every interior path whose value segment is in the
// grammar's variable range (spec.md §3). The path list is what the fact
// tree and rule tree actually walk; Text is what two facts compare equal by.
type Fact struct {
	Text  string
	Paths []path.Path
}

// FromPaths builds a Fact from paths, an already-ordered path list as
// produced by parsing one term against the caller's grammar: one entry per
// leaf, plus one entry for every interior variable-range node, in
// left-to-right (pre-order) occurrence.
//
// Canonical text is the concatenation of the *leaf* paths' value text, in
// list order, skipping interior variable-range entries — confirmed against
// original_source/src/fact.rs's FLexicon::from_paths, the authoritative
// constructor (Fact::from_paths's own naive all-paths join is a simpler,
// unused alternative in that source and is not what canonical text means
// there).
func FromPaths(paths []path.Path) Fact {
	var b strings.Builder
	for _, p := range paths {
		if p.IsLeaf() {
			b.WriteString(p.String())
		}
	}
	return Fact{Text: b.String(), Paths: paths}
}

// LeafPaths returns the subsequence of f.Paths whose value segment is a
// leaf, discarding the interior variable-range entries. The rule tree only
// ever indexes and climbs over leaf paths (spec.md §4.4/§4.5).
func (f Fact) LeafPaths() []path.Path {
	out := make([]path.Path, 0, len(f.Paths))
	for _, p := range f.Paths {
		if p.IsLeaf() {
			out = append(out, p)
		}
	}
	return out
}

// String returns the fact's canonical text.
func (f Fact) String() string { return f.Text }

// Pool interns Facts by canonical text: two facts with the same Text are
// the same Fact for the lifetime of a knowledge base (I1). Facts cannot
// share the generic intern.Store used for segments because Fact's Paths
// field makes it non-comparable, so Pool hand-rolls the same
// hash-then-equality-check dedup shape, keyed on Text alone.
type Pool struct {
	seed  maphash.Seed
	byKey map[string]Fact
}

// NewPool creates an empty fact pool.
func NewPool() *Pool {
	return &Pool{seed: maphash.MakeSeed(), byKey: make(map[string]Fact)}
}

// Intern returns the canonical Fact built from paths: if a fact with the
// same canonical text was interned before, that one is returned (and paths
// is discarded); otherwise FromPaths(paths) becomes the new canonical entry.
func (p *Pool) Intern(paths []path.Path) Fact {
	f := FromPaths(paths)
	if existing, ok := p.byKey[f.Text]; ok {
		return existing
	}
	p.byKey[f.Text] = f
	return f
}

// Lookup reports the canonical Fact for text, if one has been interned.
func (p *Pool) Lookup(text string) (Fact, bool) {
	f, ok := p.byKey[text]
	return f, ok
}

// Len reports the number of distinct facts interned so far.
func (p *Pool) Len() int { return len(p.byKey) }
