package testlang

import (
	"fmt"
	"strconv"
	"strings"

	"ruleforge.dev/engine/internal/lang/fact"
	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/path"
	"ruleforge.dev/engine/internal/lang/rule"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/lang/transform"
	"ruleforge.dev/engine/internal/lang/transform/guard"
	"ruleforge.dev/engine/internal/lang/transform/numtransform"
	"ruleforge.dev/engine/internal/lang/transform/strtransform"
)

// Lexicon is the Lexicon this grammar requires of the segment pool it is
// built against: the distinguished variable production is "var", and
// every production naming a syntactic slot a variable may also fill is
// prefixed "v_" (spec.md §6). testlang has exactly one such slot, the atom
// position a fact's words and tuple values occupy, so every non-variable
// leaf it builds uses the single production name "v_word".
var Lexicon = segment.Lexicon{VarProduction: "var", RangePrefix: "v_"}

// Grammar is a testlang.Parser: it implements the engine's Parser contract
// (spec.md §4.8) against a fixed *segment.Pool supplied at construction,
// so every segment it interns while parsing is the same pool the Runtime
// built from it queries and indexes against.
type Grammar struct {
	pool *segment.Pool
}

// New returns a Grammar that interns through pool, which must use
// [Lexicon] (or an equivalent table classifying "var" and "v_"-prefixed
// productions the same way).
func New(pool *segment.Pool) *Grammar {
	return &Grammar{pool: pool}
}

// pnode is an unbuilt parse-tree node: a grammar production name, its
// surface text (meaningful only if the node is a leaf or in variable
// range), and its children in left-to-right occurrence order. It mirrors
// original_source/src/parser.rs's visit_parse_node input (a pest Pair)
// closely enough that buildPaths below is a direct translation of that
// function's path-list construction.
type pnode struct {
	name     string
	text     string
	children []*pnode
}

// Parse implements scheduler.Parser (spec.md §4.8).
func (g *Grammar) Parse(text string) ([]fact.Fact, []rule.Rule, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks}
	var facts []fact.Fact
	var rules []rule.Rule
	for p.cur().kind != tEOF {
		f, r, err := p.parseStatement(g.pool)
		if err != nil {
			return nil, nil, err
		}
		if r != nil {
			rules = append(rules, *r)
		} else {
			facts = append(facts, f)
		}
	}
	return facts, rules, nil
}

// SubstituteFact implements scheduler.Parser (spec.md §4.8). A real PEG
// grammar must re-parse the substituted surface text, since a bound
// variable may stand for a compound subterm that introduces path
// structure the naked leaf-segment swap can't produce. testlang's one
// variable-range production ("v_word") is always a leaf, so every binding
// it ever produces is a plain leaf-to-leaf substitution. A bound leaf value
// is re-interned as a "v_word" segment, the production reparsing its text
// would give it (a transform's result arrives as "v_decimal" or
// "v_string"), so swapping it into f's existing path list is equivalent to
// reparsing the substituted text, without the round-trip.
func (g *Grammar) SubstituteFact(f fact.Fact, m match.Matching) (fact.Fact, error) {
	paths := make([]path.Path, len(f.Paths))
	for i, p := range f.Paths {
		val, ok := m.Get(p.Value())
		if !ok {
			paths[i] = p
			continue
		}
		if v := val.Value(); v.IsLeaf && !v.IsVar {
			val = g.pool.Intern("v_word", v.Text, true)
		}
		paths[i] = p.Substitute(match.Matching{p.Value(): val})
	}
	return fact.FromPaths(paths), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind) (token, error) {
	if p.cur().kind != k {
		return token{}, fmt.Errorf("testlang: unexpected token %q", p.cur().text)
	}
	return p.advance(), nil
}

// parseStatement parses one fact or rule, consuming its terminator
// (spec.md §6's "zero or more facts and rules separated by the grammar's
// terminator").
func (p *parser) parseStatement(pool *segment.Pool) (fact.Fact, *rule.Rule, error) {
	first, err := p.parseFact(pool)
	if err != nil {
		return fact.Fact{}, nil, err
	}
	block0 := []fact.Fact{first}
	for p.cur().kind == tSep {
		p.advance()
		next, err := p.parseFact(pool)
		if err != nil {
			return fact.Fact{}, nil, err
		}
		block0 = append(block0, next)
	}
	tr, gd, err := p.parseAttachments(pool)
	if err != nil {
		return fact.Fact{}, nil, err
	}
	if p.cur().kind == tArrow {
		p.advance()
		r, err := p.parseRuleTail(pool, block0, tr, gd)
		if err != nil {
			return fact.Fact{}, nil, err
		}
		return fact.Fact{}, &r, nil
	}
	if tr != nil || gd != nil || len(block0) != 1 {
		return fact.Fact{}, nil, fmt.Errorf("testlang: a transform, guard, or conjunction of facts requires a following ->")
	}
	if _, err := p.expect(tTerminator); err != nil {
		return fact.Fact{}, nil, err
	}
	return first, nil, nil
}

// parseRuleTail parses the chain of arrow-separated blocks following a
// rule's first antecedent block, which parseStatement has already
// consumed along with its own trailing transform/guard (spec.md §3's
// block0 -> block1 -> ... -> consequents).
func (p *parser) parseRuleTail(pool *segment.Pool, block0 []fact.Fact, tr transform.Transform, gd transform.Guard) (rule.Rule, error) {
	cur, err := p.parseBlockFacts(pool)
	if err != nil {
		return rule.Rule{}, err
	}
	var blocks []rule.Block
	for {
		t2, g2, err := p.parseAttachments(pool)
		if err != nil {
			return rule.Rule{}, err
		}
		if p.cur().kind == tArrow {
			p.advance()
			blocks = append(blocks, rule.Block{Antecedents: cur, Transform: t2, Guard: g2})
			cur, err = p.parseBlockFacts(pool)
			if err != nil {
				return rule.Rule{}, err
			}
			continue
		}
		if t2 != nil || g2 != nil {
			return rule.Rule{}, fmt.Errorf("testlang: a transform or guard on the consequent block requires a following ->")
		}
		if _, err := p.expect(tTerminator); err != nil {
			return rule.Rule{}, err
		}
		break
	}
	return rule.Rule{
		Antecedents:     block0,
		Transform:       tr,
		Guard:           gd,
		MoreAntecedents: blocks,
		Consequents:     cur,
	}, nil
}

// parseBlockFacts parses a conjunction of facts separated by ';' or '∧'
// (spec.md §3's "antecedent block... a set of conjuncts").
func (p *parser) parseBlockFacts(pool *segment.Pool) ([]fact.Fact, error) {
	first, err := p.parseFact(pool)
	if err != nil {
		return nil, err
	}
	facts := []fact.Fact{first}
	for p.cur().kind == tSep {
		p.advance()
		next, err := p.parseFact(pool)
		if err != nil {
			return nil, err
		}
		facts = append(facts, next)
	}
	return facts, nil
}

// parseAttachments parses the optional transform and guard clauses that
// may trail a block (spec.md §4.8), transform before guard.
func (p *parser) parseAttachments(pool *segment.Pool) (transform.Transform, transform.Guard, error) {
	var tr transform.Transform
	var gd transform.Guard
	if p.cur().kind == tTransform {
		body := p.advance().text
		compiled, err := compileTransform(pool, body)
		if err != nil {
			return nil, nil, fmt.Errorf("testlang: compiling transform %q: %w", body, err)
		}
		tr = compiled
	}
	if p.cur().kind == tGuard {
		body := p.advance().text
		compiled, err := guard.CompileAll(pool, body)
		if err != nil {
			return nil, nil, fmt.Errorf("testlang: compiling guard %q: %w", body, err)
		}
		gd = compiled
	}
	return tr, gd, nil
}

// compileTransform splits a transform clause body into its conjunction of
// assignments (SPEC_FULL.md §12's per-block attachment, grounded on
// original_source/examples/fib-linear/src/main.rs joining two assignments
// with '∧') and compiles each as a numeric transform, falling back to the
// string sublanguage (spec.md §6 lists both) when the numeric parse fails.
func compileTransform(pool *segment.Pool, body string) (transform.Transform, error) {
	var parts []string
	for _, p := range strings.FieldsFunc(body, func(r rune) bool { return r == ';' || r == '∧' }) {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	ts := make([]transform.Transform, len(parts))
	for i, clause := range parts {
		if c, err := numtransform.Compile(pool, clause); err == nil {
			ts[i] = c
			continue
		}
		c, err := strtransform.Compile(pool, clause)
		if err != nil {
			return nil, fmt.Errorf("neither numeric nor string transform matched %q: %w", clause, err)
		}
		ts[i] = c
	}
	return transform.Chain(ts...), nil
}

// parseFact parses one fact: a non-empty sequence of terms wrapped in a
// synthetic "fact" production, giving the whole term a single structural
// root the way a real grammar's top-level fact rule would (spec.md §3).
func (p *parser) parseFact(pool *segment.Pool) (fact.Fact, error) {
	n := &pnode{name: "fact"}
	term, err := p.parseTerm()
	if err != nil {
		return fact.Fact{}, err
	}
	n.children = append(n.children, term)
	for {
		switch p.cur().kind {
		case tWord, tVar, tLParen:
			term, err := p.parseTerm()
			if err != nil {
				return fact.Fact{}, err
			}
			n.children = append(n.children, term)
		default:
			return buildFact(pool, n), nil
		}
	}
}

func (p *parser) parseTerm() (*pnode, error) {
	switch t := p.cur(); t.kind {
	case tVar:
		p.advance()
		return &pnode{name: "var", text: t.text}, nil
	case tWord:
		p.advance()
		return &pnode{name: "v_word", text: t.text}, nil
	case tLParen:
		return p.parseTuple()
	default:
		return nil, fmt.Errorf("testlang: expected a word, variable, or tuple, got %q", t.text)
	}
}

// parseTuple parses a parenthesized key:value tuple (spec.md §8 scenario
// 6's "(what: person, kind: female)"): a structural, non-leaf "tuple"
// production whose children are "pair" nodes, each a literal key paired
// with an arbitrary term.
func (p *parser) parseTuple() (*pnode, error) {
	if _, err := p.expect(tLParen); err != nil {
		return nil, err
	}
	tuple := &pnode{name: "tuple"}
	pair, err := p.parsePair()
	if err != nil {
		return nil, err
	}
	tuple.children = append(tuple.children, pair)
	for p.cur().kind == tComma {
		p.advance()
		pair, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		tuple.children = append(tuple.children, pair)
	}
	if _, err := p.expect(tRParen); err != nil {
		return nil, err
	}
	return tuple, nil
}

func (p *parser) parsePair() (*pnode, error) {
	key, err := p.expect(tWord)
	if err != nil {
		return nil, fmt.Errorf("testlang: expected a tuple key: %w", err)
	}
	if _, err := p.expect(tColon); err != nil {
		return nil, err
	}
	value, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &pnode{name: "pair", children: []*pnode{
		{name: "v_word", text: key.text},
		value,
	}}, nil
}

// buildFact walks n, interning one segment per node and collecting the
// path list spec.md §3 defines (every leaf path, plus every interior path
// whose value segment is in variable range), then wraps it as a Fact.
// This is buildPaths/visit_parse_node from original_source/src/parser.rs
// translated directly: a structural (non-leaf, non-variable-range) node's
// own text is replaced by its index among its siblings, since only its
// position — never its captured text — distinguishes it structurally.
func buildFact(pool *segment.Pool, n *pnode) fact.Fact {
	var paths []path.Path
	visit(pool, n, nil, 0, &paths)
	return fact.FromPaths(paths)
}

func visit(pool *segment.Pool, n *pnode, rootSegs []segment.Handle, index int, paths *[]path.Path) {
	isLeaf := len(n.children) == 0
	canBeVar := n.name == "var" || strings.HasPrefix(n.name, "v_")
	text := n.text
	if !canBeVar && !isLeaf {
		text = strconv.Itoa(index)
	}
	seg := pool.Intern(n.name, text, isLeaf)
	segs := make([]segment.Handle, len(rootSegs)+1)
	copy(segs, rootSegs)
	segs[len(rootSegs)] = seg
	if canBeVar || isLeaf {
		*paths = append(*paths, path.New(segs))
	}
	for i, c := range n.children {
		visit(pool, c, segs, i, paths)
	}
}
