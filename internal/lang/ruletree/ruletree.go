// Package ruletree implements RSNode, the discrimination tree that indexes
// normalized rule antecedents so the scheduler can, given a newly learned
// fact, climb directly to the rules it might satisfy instead of scanning
// every rule in the knowledge base (spec.md §4.4/§4.5).
package ruletree

import (
	"ruleforge.dev/engine/internal/lang/fact"
	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/path"
	"ruleforge.dev/engine/internal/lang/rule"
	"ruleforge.dev/engine/internal/lang/segment"
)

type edge struct {
	path path.Path
	node *Node
}

// Node is one node of the rule tree. Only leaf paths of a rule's
// antecedents are indexed (spec.md §4.4): interior variable-range nodes
// are skipped, since a rule always matches against one fully-grounded fact
// at a time and therefore cares about that fact's actual leaves, not its
// own sub-structure boundaries.
//
// children holds literal leaf paths. varChildren holds *repeat* occurrences
// of an already-bound normalized variable, keyed by path so distinct
// variables get distinct branches. varChild is a single slot for the
// *first* occurrence of a not-yet-bound variable at this position: because
// rule.NormalizeFact renames variables to a dense, traversal-order sequence,
// any rule whose antecedents have the same shape up to this point assigns
// the same <__Xn> to its first-seen variable here, so every such rule can
// share one branch regardless of what the user originally named it.
type Node struct {
	path        path.Path
	children    map[string]edge
	varChildren map[string]edge
	varChild    *edge
	ruleRefs    []rule.Ref
	end         bool
}

// NewRoot returns an empty rule tree root.
func NewRoot() *Node {
	return newNode(path.Path{})
}

func newNode(p path.Path) *Node {
	return &Node{path: p, children: make(map[string]edge), varChildren: make(map[string]edge)}
}

// Insert adds one entry to the tree: normalized's leaf paths label one
// walk from root to a terminal node where ref is recorded (spec.md §4.4).
// normalized is the antecedent chosen as this entry's "listening"
// antecedent, already renamed by rule.NormalizeFact; ref carries the
// specialized rule (that antecedent removed from the active block) and
// the varmap needed to recover bindings over its original variables.
func (n *Node) Insert(normalized fact.Fact, ref rule.Ref) {
	n.insert(normalized.LeafPaths(), make(map[segment.Handle]bool), ref)
}

// insert descends one walk from root to a terminal node, tracking which
// rule-variable segments it has already placed via visited: this is keyed
// on the variable segment's own identity (original_source/src/ruletree.rs's
// climb tracks visited.contains(&new_path.value)), not on the structural
// path leading to it, so that the same variable repeated at differing
// structural depths is still recognized as a repeat occurrence.
func (n *Node) insert(paths []path.Path, visited map[segment.Handle]bool, ref rule.Ref) {
	if len(paths) == 0 {
		n.ruleRefs = append(n.ruleRefs, ref)
		n.end = true
		return
	}
	p := paths[0]
	rest := paths[1:]
	if p.Len() == 0 || !p.IsLeaf() {
		n.insert(rest, visited, ref)
		return
	}
	if p.IsVar() {
		if e, ok := n.varChildren[p.Key()]; ok {
			e.node.insert(rest, visited, ref)
			return
		}
		if n.varChild != nil && n.varChild.path.Key() == p.Key() {
			visited[p.Value()] = true
			n.varChild.node.insert(rest, visited, ref)
			return
		}
		if n.varChild == nil && !visited[p.Value()] {
			visited[p.Value()] = true
			child := newNode(p)
			n.varChild = &edge{path: p, node: child}
			child.insert(rest, visited, ref)
			return
		}
		// A different variable already occupies this node's sole var_child
		// slot (e.g. two rules diverge here without diverging earlier);
		// treat this occurrence as a repeat branch of its own rather than
		// clobbering the existing slot.
		visited[p.Value()] = true
		child := newNode(p)
		n.varChildren[p.Key()] = edge{path: p, node: child}
		child.insert(rest, visited, ref)
		return
	}
	e, ok := n.children[p.Key()]
	if !ok {
		child := newNode(p)
		e = edge{path: p, node: child}
		n.children[p.Key()] = e
	}
	e.node.insert(rest, visited, ref)
}

// Found is one terminal node reached while climbing: the rule references
// stored there, together with the matching accumulated to reach it.
type Found struct {
	Refs     []rule.Ref
	Matching match.Matching
}

// Climb walks the tree against a single fully-grounded fact's leaf paths,
// returning every terminal node reached and the matching built up to it
// (spec.md §4.5). Callers compose the result with rule.Ref.RealMatching to
// recover bindings over the rule's original variable names.
func (n *Node) Climb(paths []path.Path, matched match.Matching) []Found {
	var out []Found
	n.climb(paths, matched, &out)
	return out
}

func nextLeaf(paths []path.Path) (path.Path, []path.Path, bool) {
	for len(paths) > 0 {
		p := paths[0]
		rest := paths[1:]
		if p.Len() > 0 && p.IsLeaf() {
			return p, rest, true
		}
		paths = rest
	}
	return path.Path{}, nil, false
}

func (n *Node) climb(paths []path.Path, matched match.Matching, out *[]Found) {
	p, rest, ok := nextLeaf(paths)
	if ok {
		if child, found := n.children[p.Key()]; found {
			child.node.climb(rest, matched, out)
		}
		for _, vc := range n.varChildren {
			cut := p.Sub(vc.path.Len())
			if old, bound := matched.Get(vc.path.Value()); bound && old == cut.Value() {
				newPaths := cut.PathsAfter(rest, false)
				vc.node.climb(newPaths, matched, out)
				break
			}
		}
		if n.varChild != nil {
			cut := p.Sub(n.varChild.path.Len())
			newMatched := matched.Bind(n.varChild.path.Value(), cut.Value())
			newPaths := cut.PathsAfter(rest, false)
			n.varChild.node.climb(newPaths, newMatched, out)
		}
	}
	if n.end {
		*out = append(*out, Found{Refs: n.ruleRefs, Matching: matched})
	}
}
