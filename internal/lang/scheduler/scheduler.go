// Package scheduler implements spec.md §4.7's activation queue: the single
// FIFO worklist that drives forward chaining instead of recursion, so a
// long chain of derived consequents can never overflow the call stack.
package scheduler

import (
	"github.com/google/uuid"

	"ruleforge.dev/engine/internal/errors"
	"ruleforge.dev/engine/internal/lang/fact"
	"ruleforge.dev/engine/internal/lang/facttree"
	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/rule"
	"ruleforge.dev/engine/internal/lang/ruletree"
	"ruleforge.dev/engine/internal/lang/segment"
)

// Parser is the external collaborator spec.md §1 and §4.8 describe: the
// caller's PEG grammar, reduced to the two operations the scheduler needs.
// Parse turns a tell/ask payload into the facts and rules it contains.
// SubstituteFact re-parses a fact's text with matching's bindings applied,
// since a bound variable may stand for a compound subterm that introduces
// path structure NormalizeFact's purely structural renaming never needs to.
type Parser interface {
	Parse(text string) (facts []fact.Fact, rules []rule.Rule, err error)
	SubstituteFact(f fact.Fact, m match.Matching) (fact.Fact, error)
}

// kind distinguishes the activation queue's entries. Fact, Rule, and
// Match are spec.md §4.7's three public shapes; reindex is the internal
// fourth tag original_source/src/activation.rs's Activation enum carries
// for the more_antecedents promotion / non-empty-block re-indexing step
// (SPEC_FULL.md §12), kept distinct from Rule so a user-told rule can
// never be confused with one the scheduler re-enqueued on itself.
type kind int

const (
	kindFact kind = iota
	kindRule
	kindMatch
	kindReindex
)

// Activation is one entry of the queue. Only the fields relevant to its
// kind are populated.
type Activation struct {
	id         uuid.UUID
	kind       kind
	fact       fact.Fact
	rule       rule.Rule
	matching   match.Matching
	queryRules bool
}

// Runtime owns the fact tree, rule tree, and segment/fact pools for one
// knowledge base, plus the activation queue that processes every Tell
// against them (spec.md §4/§5).
type Runtime struct {
	Segments *segment.Pool
	Facts    *fact.Pool

	factTree *facttree.Node
	ruleTree *ruletree.Node
	parser   Parser
	logf     func(format string, args ...any)

	queue []Activation
}

// New creates an empty Runtime backed by segPool and factPool, using
// parser to turn tell/ask text into facts and rules and to substitute
// matchings back into fact text. logf may be nil, in which case the
// runtime logs nothing (spec.md §10's ambient logging hook).
func New(segPool *segment.Pool, factPool *fact.Pool, parser Parser, logf func(format string, args ...any)) *Runtime {
	return &Runtime{
		Segments: segPool,
		Facts:    factPool,
		factTree: facttree.NewRoot(),
		ruleTree: ruletree.NewRoot(),
		parser:   parser,
		logf:     logf,
	}
}

func (rt *Runtime) log(format string, args ...any) {
	if rt.logf != nil {
		rt.logf(format, args...)
	}
}

func (rt *Runtime) enqueue(a Activation) {
	a.id = uuid.New()
	rt.queue = append(rt.queue, a)
}

// EnqueueFact seeds the queue with a learned fact (spec.md §4.7's Fact
// activation), as Tell does for every fact a parse produces.
func (rt *Runtime) EnqueueFact(f fact.Fact, queryRules bool) {
	rt.enqueue(Activation{kind: kindFact, fact: rt.Facts.Intern(f.Paths), queryRules: queryRules})
}

// EnqueueRule seeds the queue with a learned rule (spec.md §4.7's Rule
// activation), as Tell does for every rule a parse produces.
func (rt *Runtime) EnqueueRule(r rule.Rule, queryRules bool) {
	rt.enqueue(Activation{kind: kindRule, rule: r, queryRules: queryRules})
}

// Drain processes every activation currently queued, including any
// further activations that processing enqueues, until the queue is empty.
// Each activation's semantic error (spec.md §4.9) is accumulated rather
// than aborting the drain, so a caller sees every failure a batch of
// tells produced, not just the first (spec.md §7).
func (rt *Runtime) Drain() error {
	var errs errors.List
	for len(rt.queue) > 0 {
		act := rt.queue[0]
		rt.queue = rt.queue[1:]
		if err := rt.process(act); err != nil {
			errs.Add(err)
			rt.log("activation %s failed: %s", act.id, err.Error())
		}
	}
	return errs.Err()
}

// FactTree exposes the underlying fact tree for ground-query fast paths
// (SPEC_FULL.md §12's AskBool) and for Ask's query entry point.
func (rt *Runtime) FactTree() *facttree.Node { return rt.factTree }

func (rt *Runtime) process(act Activation) *errors.E {
	switch act.kind {
	case kindFact:
		return rt.processFact(act)
	case kindRule, kindReindex:
		return rt.processRule(act)
	case kindMatch:
		return rt.processMatch(act)
	default:
		panic(errors.Invariantf("scheduler: activation has unknown kind %d", act.kind))
	}
}

// processFact implements spec.md §4.7's Fact(f, query_rules) activation:
// index f in the fact tree, then, if query_rules, climb the rule tree
// against f's full path list so every rule antecedent it satisfies fires.
func (rt *Runtime) processFact(act Activation) *errors.E {
	rt.factTree.Insert(act.fact.Paths)
	if !act.queryRules {
		return nil
	}
	for _, found := range rt.ruleTree.Climb(act.fact.Paths, match.Matching{}) {
		for _, ref := range found.Refs {
			rt.enqueue(Activation{
				kind:       kindMatch,
				rule:       ref.Rule,
				matching:   ref.RealMatching(found.Matching),
				queryRules: act.queryRules,
			})
		}
	}
	return nil
}

// processRule implements spec.md §4.7's Rule(r, query_rules) activation:
// specialize r into its n index entries (rule.Rule.Specialize) and insert
// each into the rule tree, then, if query_rules, cross-check every entry's
// normalized antecedent against the fact tree so a rule learned after the
// facts it depends on still fires immediately rather than waiting for a
// fact that will never be retold. act.matching, when this activation is a
// more_antecedents reindex rather than a freshly told rule, carries every
// binding accumulated by blocks already satisfied; it is merged with each
// cross-check's own matching rather than replaced by it, so a later
// block's transform/guard can still see an earlier block's bindings even
// though substituteRule has already erased those variables from the
// block's own antecedent text.
func (rt *Runtime) processRule(act Activation) *errors.E {
	entries := act.rule.Specialize(rt.Segments)
	for _, e := range entries {
		rt.ruleTree.Insert(e.NormalizedAntecedent, e.Ref)
	}
	if !act.queryRules {
		return nil
	}
	for _, e := range entries {
		for _, m := range rt.factTree.Query(e.NormalizedAntecedent.Paths, match.Matching{}) {
			rt.enqueue(Activation{
				kind:       kindMatch,
				rule:       e.Ref.Rule,
				matching:   act.matching.Merge(e.Ref.RealMatching(m)),
				queryRules: act.queryRules,
			})
		}
	}
	return nil
}

// processMatch implements spec.md §4.7's Match(r, matching, query_rules)
// activation: substitute matching into every remaining antecedent and
// consequent of r. If the active block becomes empty, evaluate r's
// transform (extending matching with a new binding) and guard (silently
// dropping the activation on failure) before deciding whether to
// materialize r's consequents as new facts or promote its next
// more_antecedents block. Otherwise, the reduced rule still has
// antecedents waiting in its active block, so it is re-indexed through an
// internal reindex activation with those bindings baked in.
func (rt *Runtime) processMatch(act Activation) *errors.E {
	r := act.rule
	matching := act.matching

	substituted, err := rt.substituteRule(r, matching)
	if err != nil {
		return err
	}

	if len(substituted.Antecedents) > 0 {
		rt.enqueue(Activation{kind: kindReindex, rule: substituted, matching: matching, queryRules: true})
		return nil
	}

	if r.Transform != nil {
		extended, terr := r.Transform.Apply(matching)
		if terr != nil {
			return errors.SemanticErrorf("evaluating rule transform: %v", terr)
		}
		matching = extended
		substituted, err = rt.substituteRule(r, matching)
		if err != nil {
			return err
		}
	}
	if r.Guard != nil {
		ok, gerr := r.Guard.Eval(matching)
		if gerr != nil {
			return errors.SemanticErrorf("evaluating rule guard: %v", gerr)
		}
		if !ok {
			return nil
		}
	}

	if len(substituted.MoreAntecedents) == 0 {
		for _, c := range substituted.Consequents {
			rt.EnqueueFact(c, true)
		}
		return nil
	}

	next := substituted.MoreAntecedents[0]
	promoted := rule.Rule{
		Antecedents:     next.Antecedents,
		Transform:       next.Transform,
		Guard:           next.Guard,
		MoreAntecedents: substituted.MoreAntecedents[1:],
		Consequents:     substituted.Consequents,
	}
	// matching carries every binding accumulated through the blocks already
	// satisfied (e.g. block0's <N>), even though substituteRule has already
	// erased those variables from the promoted block's own antecedent/
	// consequent text. The promoted block's Transform/Guard may still
	// reference them (spec.md §4.8's per-block transform/guard), so the
	// bindings must ride along on the reindex activation rather than being
	// dropped here and rebuilt solely from the promoted block's own match.
	rt.enqueue(Activation{kind: kindReindex, rule: promoted, matching: matching, queryRules: true})
	return nil
}

func (rt *Runtime) substituteRule(r rule.Rule, m match.Matching) (rule.Rule, *errors.E) {
	antecedents, err := rt.substituteFacts(r.Antecedents, m)
	if err != nil {
		return rule.Rule{}, err
	}
	consequents, err := rt.substituteFacts(r.Consequents, m)
	if err != nil {
		return rule.Rule{}, err
	}
	more := make([]rule.Block, len(r.MoreAntecedents))
	for i, block := range r.MoreAntecedents {
		substituted, err := rt.substituteFacts(block.Antecedents, m)
		if err != nil {
			return rule.Rule{}, err
		}
		more[i] = rule.Block{Antecedents: substituted, Transform: block.Transform, Guard: block.Guard}
	}
	return rule.Rule{
		Antecedents:     antecedents,
		Transform:       r.Transform,
		Guard:           r.Guard,
		MoreAntecedents: more,
		Consequents:     consequents,
	}, nil
}

func (rt *Runtime) substituteFacts(facts []fact.Fact, m match.Matching) ([]fact.Fact, *errors.E) {
	out := make([]fact.Fact, len(facts))
	for i, f := range facts {
		substituted, err := rt.parser.SubstituteFact(f, m)
		if err != nil {
			return nil, errors.SemanticErrorf("substituting %q: %v", f.Text, err)
		}
		out[i] = rt.Facts.Intern(substituted.Paths)
	}
	return out, nil
}
