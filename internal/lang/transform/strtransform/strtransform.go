// Package strtransform implements the string transform sublanguage
// reinstated by SPEC_FULL.md §12, grounded on
// original_source/src/transform_str.rs's monadic ("len"), dyadic
// ("index_of", "concat") and triadic ("substring", "replace") operator
// tables: "<Xn> = op(args...)" evaluated directly against segment text.
package strtransform

import (
	"fmt"
	"strconv"
	"strings"

	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/lang/transform"
	"ruleforge.dev/engine/internal/lang/transform/lexutil"
)

type node interface {
	eval(m match.Matching) (segment.Handle, error)
}

type litNode struct{ h segment.Handle }

func (n litNode) eval(match.Matching) (segment.Handle, error) { return n.h, nil }

type varRef struct{ v segment.Handle }

func (n varRef) eval(m match.Matching) (segment.Handle, error) {
	bound, ok := m.Get(n.v)
	if !ok {
		return segment.Handle{}, fmt.Errorf("strtransform: %s is unbound", n.v.Value().Text)
	}
	return bound, nil
}

type call struct {
	pool *segment.Pool
	op   string
	args []node
}

func (n call) eval(m match.Matching) (segment.Handle, error) {
	vals := make([]segment.Handle, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(m)
		if err != nil {
			return segment.Handle{}, err
		}
		vals[i] = v
	}
	switch n.op {
	case "len":
		if len(vals) != 1 {
			return segment.Handle{}, fmt.Errorf("strtransform: len takes 1 argument, got %d", len(vals))
		}
		return n.pool.Intern("v_decimal", strconv.Itoa(len([]rune(vals[0].Value().Text))), true), nil
	case "index_of":
		if len(vals) != 2 {
			return segment.Handle{}, fmt.Errorf("strtransform: index_of takes 2 arguments, got %d", len(vals))
		}
		i := strings.Index(vals[0].Value().Text, vals[1].Value().Text)
		return n.pool.Intern("v_decimal", strconv.Itoa(i), true), nil
	case "concat":
		if len(vals) != 2 {
			return segment.Handle{}, fmt.Errorf("strtransform: concat takes 2 arguments, got %d", len(vals))
		}
		fst := vals[0].Value()
		return n.pool.Intern(fst.Name, fst.Text+vals[1].Value().Text, true), nil
	case "substring":
		if len(vals) != 3 {
			return segment.Handle{}, fmt.Errorf("strtransform: substring takes 3 arguments, got %d", len(vals))
		}
		start, err := strconv.Atoi(vals[1].Value().Text)
		if err != nil {
			return segment.Handle{}, fmt.Errorf("strtransform: substring start must be a number: %w", err)
		}
		length, err := strconv.Atoi(vals[2].Value().Text)
		if err != nil {
			return segment.Handle{}, fmt.Errorf("strtransform: substring length must be a number: %w", err)
		}
		runes := []rune(vals[0].Value().Text)
		if start < 0 || start > len(runes) {
			return segment.Handle{}, fmt.Errorf("strtransform: substring start %d out of range", start)
		}
		if length < 0 {
			return segment.Handle{}, fmt.Errorf("strtransform: substring length %d is negative", length)
		}
		end := start + length
		if end > len(runes) {
			end = len(runes)
		}
		fst := vals[0].Value()
		return n.pool.Intern(fst.Name, string(runes[start:end]), true), nil
	case "replace":
		if len(vals) != 3 {
			return segment.Handle{}, fmt.Errorf("strtransform: replace takes 3 arguments, got %d", len(vals))
		}
		fst := vals[0].Value()
		replaced := strings.ReplaceAll(fst.Text, vals[1].Value().Text, vals[2].Value().Text)
		return n.pool.Intern(fst.Name, replaced, true), nil
	default:
		return segment.Handle{}, fmt.Errorf("strtransform: unknown operator %q", n.op)
	}
}

// Compiled is a ready-to-evaluate string transform bound to the segment
// pool it was compiled against.
type Compiled struct {
	target segment.Handle
	expr   node
}

// Apply implements transform.Transform.
func (c Compiled) Apply(m match.Matching) (match.Matching, error) {
	v, err := c.expr.eval(m)
	if err != nil {
		return nil, err
	}
	return m.Bind(c.target, v), nil
}

var _ transform.Transform = Compiled{}

// Compile parses source as "<target> = op(args...)" and returns an
// evaluator bound to pool.
func Compile(pool *segment.Pool, source string) (Compiled, error) {
	toks, err := lexutil.Tokenize(source)
	if err != nil {
		return Compiled{}, err
	}
	c := lexutil.NewCursor(toks)
	targetTok, err := c.Expect(lexutil.Var)
	if err != nil {
		return Compiled{}, fmt.Errorf("strtransform: expected assignment target: %w", err)
	}
	if _, err := c.Expect(lexutil.Assign); err != nil {
		return Compiled{}, fmt.Errorf("strtransform: expected '=': %w", err)
	}
	expr, err := parseExpr(c, pool)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{target: pool.Intern("var", targetTok.Text, true), expr: expr}, nil
}

func parseExpr(c *lexutil.Cursor, pool *segment.Pool) (node, error) {
	t := c.Cur()
	switch t.Kind {
	case lexutil.String:
		c.Advance()
		return litNode{h: pool.Intern("v_string", t.Text, true)}, nil
	case lexutil.Number:
		c.Advance()
		return litNode{h: pool.Intern("v_decimal", t.Text, true)}, nil
	case lexutil.Var:
		c.Advance()
		return varRef{v: pool.Intern("var", t.Text, true)}, nil
	case lexutil.Ident:
		op := t.Text
		c.Advance()
		if _, err := c.Expect(lexutil.LParen); err != nil {
			return nil, fmt.Errorf("strtransform: expected '(' after %q: %w", op, err)
		}
		var args []node
		for c.Cur().Kind != lexutil.RParen {
			arg, err := parseExpr(c, pool)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if c.Cur().Kind == lexutil.Comma {
				c.Advance()
			}
		}
		if _, err := c.Expect(lexutil.RParen); err != nil {
			return nil, err
		}
		return call{pool: pool, op: op, args: args}, nil
	default:
		return nil, fmt.Errorf("strtransform: unexpected token %q", t.Text)
	}
}
