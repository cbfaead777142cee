// Package errors defines the engine's four error kinds (spec.md §7) behind
// a single Error interface, modeled on cue/errors. Every constructor returns
// the one concrete type *E, whose Kind says which kind occurred and whose
// Pos says where; a caller holding a plain error recovers it with the
// standard library's errors.As.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"ruleforge.dev/engine/internal/token"
)

// Error is the interface every error this package produces satisfies.
type Error interface {
	error
	Position() token.Pos
	Msg() (format string, args []any)
}

// Kind distinguishes spec.md §7's four error kinds.
type Kind int

const (
	// Parse is a malformed tell/ask payload (spec.md §7, kind 1).
	Parse Kind = iota
	// SublanguageParse is bad transform/guard text attached to a rule
	// (kind 2).
	SublanguageParse
	// Semantic is an unbound variable or wrong-typed bound value
	// encountered while evaluating a transform or guard (kind 3).
	Semantic
	// Invariant signals a bug: a state the public API should make
	// unreachable (kind 4).
	Invariant
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse error"
	case SublanguageParse:
		return "sublanguage parse error"
	case Semantic:
		return "semantic error"
	case Invariant:
		return "internal invariant violation"
	default:
		return "error"
	}
}

// E is the concrete Error every constructor below returns.
type E struct {
	Kind   Kind
	Pos    token.Pos
	Format string
	Args   []any
}

// Position implements Error.
func (e *E) Position() token.Pos { return e.Pos }

// Msg implements Error.
func (e *E) Msg() (string, []any) { return e.Format, e.Args }

// Error implements the error interface.
func (e *E) Error() string {
	msg := fmt.Sprintf(e.Format, e.Args...)
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Newf builds an Error of the given kind at pos.
func Newf(kind Kind, pos token.Pos, format string, args ...any) *E {
	return &E{Kind: kind, Pos: pos, Format: format, Args: args}
}

// ParseErrorf builds a kind-1 parse error.
func ParseErrorf(pos token.Pos, format string, args ...any) *E {
	return Newf(Parse, pos, format, args...)
}

// SublanguageErrorf builds a kind-2 sublanguage parse error.
func SublanguageErrorf(pos token.Pos, format string, args ...any) *E {
	return Newf(SublanguageParse, pos, format, args...)
}

// SemanticErrorf builds a kind-3 semantic error.
func SemanticErrorf(format string, args ...any) *E {
	return Newf(Semantic, token.NoPos, format, args...)
}

// Invariantf builds a kind-4 internal invariant violation. Callers are
// expected to panic with it (spec.md §7: "invariant violations terminate
// the process because they signal a bug"), not return it.
func Invariantf(format string, args ...any) *E {
	return Newf(Invariant, token.NoPos, format, args...)
}

// List accumulates errors across a batch of activations (spec.md §4.9,
// §7: semantic errors abort only their own activation, so tell/ask surface
// every activation's failure together rather than stopping at the first).
type List []*E

// Add appends err to the list if it is non-nil.
func (l *List) Add(err *E) {
	if err != nil {
		*l = append(*l, err)
	}
}

// Len reports how many errors have been collected.
func (l List) Len() int { return len(l) }

// Err returns l as an error, or nil if l is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Sort orders the list by position, for stable, readable output.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Pos, l[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Error implements the error interface by joining every message on its own
// line.
func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
