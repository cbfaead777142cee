// Package numtransform implements the numeric transform sublanguage
// referenced by spec.md §6 and reinstated in full by SPEC_FULL.md §12: a
// small expression language of the form "<Xn> = <expr>" evaluated with
// arbitrary-precision decimal arithmetic (original_source/src/transform_num.rs's
// monadic and dyadic operator tables).
package numtransform

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"

	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/lang/transform"
	"ruleforge.dev/engine/internal/lang/transform/lexutil"
)

var ctx = apd.BaseContext.WithPrecision(40)

var monadicOps = map[string]bool{
	"-": true, "log": true, "exp": true, "sin": true, "cos": true, "tan": true,
	"floor": true, "ceil": true, "asin": true, "acos": true, "atan": true,
}

var dyadicOps = map[string]int{ // precedence
	"+": 1, "-": 1, "*": 2, "/": 2, "%": 2, "**": 3,
}

// node is a compiled expression node.
type node interface {
	eval(m match.Matching) (*apd.Decimal, error)
}

type numLit struct{ d apd.Decimal }

func (n numLit) eval(match.Matching) (*apd.Decimal, error) { return &n.d, nil }

type varRef struct{ v segment.Handle }

func (n varRef) eval(m match.Matching) (*apd.Decimal, error) {
	bound, ok := m.Get(n.v)
	if !ok {
		return nil, fmt.Errorf("numtransform: %s is unbound", n.v.Value().Text)
	}
	d, _, err := apd.NewFromString(bound.Value().Text)
	if err != nil {
		return nil, fmt.Errorf("numtransform: %s is not a number: %w", bound.Value().Text, err)
	}
	return d, nil
}

type monadic struct {
	op   string
	term node
}

func (n monadic) eval(m match.Matching) (*apd.Decimal, error) {
	v, err := n.term.eval(m)
	if err != nil {
		return nil, err
	}
	if n.op == "-" {
		var out apd.Decimal
		_, err := ctx.Neg(&out, v)
		return &out, err
	}
	f, err := v.Float64()
	if err != nil {
		return nil, err
	}
	var r float64
	switch n.op {
	case "log":
		r = math.Log(f)
	case "exp":
		r = math.Exp(f)
	case "sin":
		r = math.Sin(f)
	case "cos":
		r = math.Cos(f)
	case "tan":
		r = math.Tan(f)
	case "floor":
		r = math.Floor(f)
	case "ceil":
		r = math.Ceil(f)
	case "asin":
		r = math.Asin(f)
	case "acos":
		r = math.Acos(f)
	case "atan":
		r = math.Atan(f)
	default:
		return nil, fmt.Errorf("numtransform: unknown monadic operator %q", n.op)
	}
	d, _, err := apd.NewFromString(fmt.Sprintf("%g", r))
	return d, err
}

type dyadic struct {
	op       string
	lhs, rhs node
}

func (n dyadic) eval(m match.Matching) (*apd.Decimal, error) {
	l, err := n.lhs.eval(m)
	if err != nil {
		return nil, err
	}
	r, err := n.rhs.eval(m)
	if err != nil {
		return nil, err
	}
	var out apd.Decimal
	switch n.op {
	case "+":
		_, err = ctx.Add(&out, l, r)
	case "-":
		_, err = ctx.Sub(&out, l, r)
	case "*":
		_, err = ctx.Mul(&out, l, r)
	case "/":
		_, err = ctx.Quo(&out, l, r)
	case "%":
		_, err = ctx.Rem(&out, l, r)
	case "**":
		_, err = ctx.Pow(&out, l, r)
	default:
		return nil, fmt.Errorf("numtransform: unknown dyadic operator %q", n.op)
	}
	return &out, err
}

// Compiled is a ready-to-evaluate numeric transform bound to the segment
// pool it was compiled against, so results are interned consistently with
// every other segment in the knowledge base.
type Compiled struct {
	pool   *segment.Pool
	target segment.Handle
	expr   node
}

// Apply implements transform.Transform: it evaluates the compiled
// expression and returns m extended with target bound to the result,
// interned as a v_decimal segment.
func (c Compiled) Apply(m match.Matching) (match.Matching, error) {
	v, err := c.expr.eval(m)
	if err != nil {
		return nil, err
	}
	result := c.pool.Intern("v_decimal", v.Text('f'), true)
	return m.Bind(c.target, result), nil
}

var _ transform.Transform = Compiled{}

// Compile parses source as "<target> = <expr>" and returns an evaluator
// bound to pool, so <target>'s resulting segment is interned through the
// same pool every other fact and rule segment passes through.
func Compile(pool *segment.Pool, source string) (Compiled, error) {
	toks, err := lexutil.Tokenize(source)
	if err != nil {
		return Compiled{}, err
	}
	c := lexutil.NewCursor(toks)
	targetTok, err := c.Expect(lexutil.Var)
	if err != nil {
		return Compiled{}, fmt.Errorf("numtransform: expected assignment target: %w", err)
	}
	if _, err := c.Expect(lexutil.Assign); err != nil {
		return Compiled{}, fmt.Errorf("numtransform: expected '=': %w", err)
	}
	expr, err := parseExpr(c, pool, 0)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{
		pool:   pool,
		target: pool.Intern("var", targetTok.Text, true),
		expr:   expr,
	}, nil
}

// parseExpr is a precedence-climbing parser over + - * / % **, with unary
// minus and the monadic function names as prefix operators.
func parseExpr(c *lexutil.Cursor, pool *segment.Pool, minPrec int) (node, error) {
	lhs, err := parseUnary(c, pool)
	if err != nil {
		return nil, err
	}
	for {
		t := c.Cur()
		if t.Kind != lexutil.Op {
			return lhs, nil
		}
		prec, ok := dyadicOps[t.Text]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		c.Advance()
		rhs, err := parseExpr(c, pool, prec+1)
		if err != nil {
			return nil, err
		}
		lhs = dyadic{op: t.Text, lhs: lhs, rhs: rhs}
	}
}

func parseUnary(c *lexutil.Cursor, pool *segment.Pool) (node, error) {
	t := c.Cur()
	if t.Kind == lexutil.Ident && monadicOps[t.Text] {
		c.Advance()
		term, err := parseUnary(c, pool)
		if err != nil {
			return nil, err
		}
		return monadic{op: t.Text, term: term}, nil
	}
	if t.Kind == lexutil.Op && t.Text == "-" {
		c.Advance()
		term, err := parseUnary(c, pool)
		if err != nil {
			return nil, err
		}
		return monadic{op: "-", term: term}, nil
	}
	return parsePrimary(c, pool)
}

func parsePrimary(c *lexutil.Cursor, pool *segment.Pool) (node, error) {
	t := c.Cur()
	switch t.Kind {
	case lexutil.Number:
		c.Advance()
		d, _, err := apd.NewFromString(t.Text)
		if err != nil {
			return nil, fmt.Errorf("numtransform: invalid number %q: %w", t.Text, err)
		}
		return numLit{d: *d}, nil
	case lexutil.Var:
		c.Advance()
		return varRef{v: pool.Intern("var", t.Text, true)}, nil
	case lexutil.LParen:
		c.Advance()
		expr, err := parseExpr(c, pool, 0)
		if err != nil {
			return nil, err
		}
		if _, err := c.Expect(lexutil.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, fmt.Errorf("numtransform: unexpected token %q", t.Text)
	}
}
