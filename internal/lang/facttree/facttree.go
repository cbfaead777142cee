// Package facttree implements FSNode, the discrimination tree that indexes
// asserted facts so the scheduler can query them by structural pattern
// instead of scanning a flat list (spec.md §4.2/§4.3).
package facttree

import (
	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/path"
)

// edge is one outgoing transition of a node: the path segment that labels
// it and the node it leads to.
type edge struct {
	path path.Path
	node *Node
}

// Node is one node of the fact tree. Two maps hold outgoing edges:
// children for literal (non-variable-range) paths, lchildren for
// variable-range paths — the split that lets a query either bind a fresh
// variable against every lchild or descend a literal child directly
// (spec.md §3's FSNode, §4.2's "dual descent").
type Node struct {
	children  map[string]edge
	lchildren map[string]edge
	end       bool
}

// NewRoot returns an empty fact tree root.
func NewRoot() *Node {
	return newNode()
}

func newNode() *Node {
	return &Node{children: make(map[string]edge), lchildren: make(map[string]edge)}
}

func (n *Node) childMap(variable bool) map[string]edge {
	if variable {
		return n.lchildren
	}
	return n.children
}

func (n *Node) getOrCreate(p path.Path, variable bool) *Node {
	m := n.childMap(variable)
	if e, ok := m[p.Key()]; ok {
		return e.node
	}
	child := newNode()
	m[p.Key()] = edge{path: p, node: child}
	return child
}

// Insert adds one fact's path list to the tree (spec.md §4.2). paths must
// be the fact's full ordered path list, including interior variable-range
// entries, not just its leaves.
func (n *Node) Insert(paths []path.Path) {
	n.insert(paths)
}

func (n *Node) insert(paths []path.Path) {
	if len(paths) == 0 {
		n.end = true
		return
	}
	p := paths[0]
	rest := paths[1:]
	switch {
	case !p.InVarRange():
		n.getOrCreate(p, false).insert(rest)
	case p.IsLeaf():
		n.getOrCreate(p, true).insert(rest)
	default:
		// Interior variable-range node: dual descent. The variable-binding
		// branch skips the subtree rooted at p and continues with its
		// siblings; the same node also continues literally into the
		// subtree's own content, so a query can reach either branch from
		// here (spec.md §4.2, §9).
		lchild := n.getOrCreate(p, true)
		after := p.PathsAfter(paths, true)
		lchild.insert(after)
		n.insert(rest)
	}
}

// Query returns every matching extending seed consistent with paths, the
// query fact's full ordered path list (spec.md §4.3).
func (n *Node) Query(paths []path.Path, seed match.Matching) []match.Matching {
	var out []match.Matching
	n.query(paths, seed, &out)
	return out
}

func (n *Node) query(paths []path.Path, m match.Matching, out *[]match.Matching) {
	for len(paths) > 0 && !paths[0].IsLeaf() {
		paths = paths[1:]
	}
	if len(paths) == 0 {
		*out = append(*out, m)
		return
	}
	p := paths[0]
	rest := paths[1:]
	if p.IsVar() {
		if _, bound := m.Get(p.Value()); bound {
			n.literal(p.Substitute(m), rest, m, out)
			return
		}
		for _, e := range n.lchildren {
			e.node.query(rest, m.Bind(p.Value(), e.path.Value()), out)
		}
		return
	}
	n.literal(p, rest, m, out)
}

func (n *Node) literal(p path.Path, rest []path.Path, m match.Matching, out *[]match.Matching) {
	children := n.children
	if p.InVarRange() {
		children = n.lchildren
	}
	if e, ok := children[p.Key()]; ok {
		e.node.query(rest, m, out)
	}
}

// Contains reports whether the tree holds exactly the ground fact
// described by paths, short-circuiting on the first match — the fast path
// for ground (variable-free) queries (spec.md §6, SPEC_FULL.md §12).
func (n *Node) Contains(paths []path.Path) bool {
	found := false
	n.queryBool(paths, match.Matching{}, &found)
	return found
}

func (n *Node) queryBool(paths []path.Path, m match.Matching, found *bool) {
	if *found {
		return
	}
	for len(paths) > 0 && !paths[0].IsLeaf() {
		paths = paths[1:]
	}
	if len(paths) == 0 {
		*found = true
		return
	}
	p := paths[0]
	rest := paths[1:]
	children := n.children
	if p.InVarRange() {
		children = n.lchildren
	}
	if e, ok := children[p.Key()]; ok {
		e.node.queryBool(rest, m, found)
	}
}
