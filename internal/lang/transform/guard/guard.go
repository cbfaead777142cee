// Package guard implements the condition sublanguage reinstated by
// SPEC_FULL.md §12, grounded on original_source/src/condition.rs: a
// semicolon-separated conjunction of numeric comparisons ("<X0> < <X1>; ...")
// that all must pass for a rule to fire (spec.md §4.9).
package guard

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/lang/transform"
	"ruleforge.dev/engine/internal/lang/transform/lexutil"
)

type term interface {
	eval(m match.Matching) (*apd.Decimal, error)
}

type numLit struct{ d apd.Decimal }

func (t numLit) eval(match.Matching) (*apd.Decimal, error) { return &t.d, nil }

type varRef struct{ v segment.Handle }

func (t varRef) eval(m match.Matching) (*apd.Decimal, error) {
	bound, ok := m.Get(t.v)
	if !ok {
		return nil, fmt.Errorf("guard: %s is unbound", t.v.Value().Text)
	}
	d, _, err := apd.NewFromString(bound.Value().Text)
	if err != nil {
		return nil, fmt.Errorf("guard: %s is not a number: %w", bound.Value().Text, err)
	}
	return d, nil
}

type condition struct {
	lhs, rhs term
	op       string
}

func (c condition) eval(m match.Matching) (bool, error) {
	l, err := c.lhs.eval(m)
	if err != nil {
		return false, err
	}
	r, err := c.rhs.eval(m)
	if err != nil {
		return false, err
	}
	cmp := l.Cmp(r)
	switch c.op {
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case ">":
		return cmp > 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("guard: unknown operator %q", c.op)
	}
}

// Compiled is a ready-to-evaluate conjunction of conditions.
type Compiled struct {
	conditions []condition
}

// Eval implements transform.Guard: every condition must pass.
func (c Compiled) Eval(m match.Matching) (bool, error) {
	for _, cond := range c.conditions {
		ok, err := cond.eval(m)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

var _ transform.Guard = Compiled{}

// Compile parses a single "<term> <op> <term>" condition.
func Compile(pool *segment.Pool, source string) (Compiled, error) {
	toks, err := lexutil.Tokenize(source)
	if err != nil {
		return Compiled{}, err
	}
	cond, err := parseCondition(lexutil.NewCursor(toks), pool)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{conditions: []condition{cond}}, nil
}

// CompileAll compiles a full, semicolon-separated condition list (spec.md
// §4.9's guard clause) into one Compiled guard whose Eval ANDs every
// condition together.
func CompileAll(pool *segment.Pool, source string) (Compiled, error) {
	var all Compiled
	for _, part := range strings.Split(source, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := Compile(pool, part)
		if err != nil {
			return Compiled{}, err
		}
		all.conditions = append(all.conditions, c.conditions...)
	}
	return all, nil
}

func parseCondition(c *lexutil.Cursor, pool *segment.Pool) (condition, error) {
	lhs, err := parseTerm(c, pool)
	if err != nil {
		return condition{}, err
	}
	opTok := c.Cur()
	if opTok.Kind != lexutil.Op {
		return condition{}, fmt.Errorf("guard: expected comparison operator, got %q", opTok.Text)
	}
	c.Advance()
	rhs, err := parseTerm(c, pool)
	if err != nil {
		return condition{}, err
	}
	return condition{lhs: lhs, rhs: rhs, op: opTok.Text}, nil
}

func parseTerm(c *lexutil.Cursor, pool *segment.Pool) (term, error) {
	t := c.Cur()
	switch t.Kind {
	case lexutil.Number:
		c.Advance()
		d, _, err := apd.NewFromString(t.Text)
		if err != nil {
			return nil, fmt.Errorf("guard: invalid number %q: %w", t.Text, err)
		}
		return numLit{d: *d}, nil
	case lexutil.Var:
		c.Advance()
		return varRef{v: pool.Intern("var", t.Text, true)}, nil
	default:
		return nil, fmt.Errorf("guard: unexpected token %q", t.Text)
	}
}
