// Package path implements Path, the root-to-leaf sequence of interned
// segments that both the fact tree and the rule tree index on.
package path

import (
	"strconv"
	"strings"

	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/segment"
)

// Path is an ordered, non-empty sequence of segments from the parse-tree
// root down to one leaf or to one variable-range interior node. Identity
// for hashing/equality is the sequence of segment identities (spec.md §3);
// Key returns a string that preserves that identity and is suitable as a
// map key, since []segment.Handle is not itself comparable.
type Path struct {
	segs []segment.Handle
	key  string
}

// New builds a Path from an already segment-interned, non-empty sequence.
// It panics on an empty sequence: spec.md §3 requires paths be non-empty.
func New(segs []segment.Handle) Path {
	if len(segs) == 0 {
		panic("path: New called with an empty segment sequence")
	}
	cp := make([]segment.Handle, len(segs))
	copy(cp, segs)
	return Path{segs: cp, key: encodeKey(cp)}
}

// Root returns a one-segment path whose only segment is the zero Handle,
// standing in for spec.md §3's distinguished empty root path, since New
// rejects an empty sequence. Neither tree in this module uses it as its
// root.
func Root() Path {
	return New([]segment.Handle{rootSentinel})
}

var rootSentinel = segment.Handle{}

func encodeKey(segs []segment.Handle) string {
	var b strings.Builder
	for _, s := range segs {
		v := s.Value()
		b.WriteString(strconv.Itoa(len(v.Name)))
		b.WriteByte(':')
		b.WriteString(v.Name)
		b.WriteString(strconv.Itoa(len(v.Text)))
		b.WriteByte(':')
		b.WriteString(v.Text)
		if v.IsLeaf {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Key returns a string uniquely identifying this Path's segment sequence,
// suitable as a map key in the fact/rule tree node maps.
func (p Path) Key() string { return p.key }

// Segments returns the path's segment sequence. Callers must not mutate
// the returned slice.
func (p Path) Segments() []segment.Handle { return p.segs }

// Len returns the number of segments in the path.
func (p Path) Len() int { return len(p.segs) }

// Value is the path's last segment, the slot unification attaches to.
func (p Path) Value() segment.Handle { return p.segs[len(p.segs)-1] }

// IsVar reports whether the path's value segment is the variable
// production.
func (p Path) IsVar() bool { return p.Value().Value().IsVar }

// IsLeaf reports whether the path's value segment has no grammar children.
func (p Path) IsLeaf() bool { return p.Value().Value().IsLeaf }

// InVarRange reports whether the path's value segment may be unified
// against.
func (p Path) InVarRange() bool { return p.Value().Value().InVarRange }

// StartsWith reports whether prefix is a prefix of p (spec.md §4.1).
func (p Path) StartsWith(prefix Path) bool {
	if len(p.segs) < len(prefix.segs) {
		return false
	}
	for i, s := range prefix.segs {
		if p.segs[i] != s {
			return false
		}
	}
	return true
}

// Sub returns the path truncated to its first n segments; its Value is the
// original segment at that cut point — the Rust original's
// sub_path (original_source/src/path.rs), used by the rule tree climb to
// recover the slice of a fact a repeat or fresh rule variable stands for.
func (p Path) Sub(n int) Path {
	return New(p.segs[:n])
}

// PathsAfter scans paths (the flat, ordered path list of a fact) for the
// subtree rooted at p and returns the suffix that follows it, letting a
// caller step past a variable-range subtree's own entries while continuing
// with its siblings (spec.md §4.1).
//
// When markSeen is true, the cutoff is only accepted once p's own entry in
// the subtree has first been observed; this is the facttree insertion
// variant that must not mistake the *first* sibling for the end of p's own
// subtree when p itself is also present as a path (spec.md §4.2).
func (p Path) PathsAfter(paths []Path, markSeen bool) []Path {
	seen := false
	after := 0
	for i, other := range paths {
		startsWithSelf := other.StartsWith(p)
		if startsWithSelf {
			after = i
		}
		switch {
		case markSeen && !seen && startsWithSelf:
			seen = true
		case (!markSeen || seen) && (!startsWithSelf || other.Len() == p.Len()):
			after = i
			return paths[after:]
		}
	}
	return paths[after:]
}

// Substitute produces a new path by replacing only the final (value)
// segment via binding; substitution happens at unification slots, never
// mid-path (spec.md §4.1). It panics if p's value segment has no binding
// in m — callers are expected to check InVarRange/IsVar and binding
// presence before calling, as the fact tree and rule tree queries do.
func (p Path) Substitute(m match.Matching) Path {
	val, ok := m.Get(p.Value())
	if !ok {
		panic("path: Substitute: variable has no binding in matching")
	}
	segs := make([]segment.Handle, len(p.segs))
	copy(segs, p.segs)
	segs[len(segs)-1] = val
	return New(segs)
}

// String renders the path as its value segment's text, mirroring the Rust
// original's Display impl. The path/text duality property (spec.md §8) is
// about the *value* text of each path in a fact's ordered path list, not
// about a single path's full segment sequence; see fact.Fact.Text.
func (p Path) String() string {
	return p.Value().Value().Text
}
