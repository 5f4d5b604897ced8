// Package filter implements the group-level condition expressions a sink
// group uses for routing: a boolean tree over field comparisons,
// including a wildcard operator backed by a per-worker compiled-matcher
// cache. See DESIGN.md for why this is hand-rolled rather than built on
// a general expression-evaluation library.
package filter

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gravwell/wplrouter/record"
)

// Op is a comparison operator.
type Op uint8

const (
	Eq Op = iota
	Ne
	Gt
	Ge
	Lt
	Le
	Wildcard // =*
)

// Expr is a node in the compiled filter tree: a boolean combinator or a
// leaf comparison. Trees are strict (no cycles) and built once at
// config-load time, then evaluated per record.
type Expr interface {
	Eval(rec *record.DataRecord, cache *MatchCache) bool
}

type andExpr struct{ left, right Expr }

func (e andExpr) Eval(rec *record.DataRecord, c *MatchCache) bool {
	return e.left.Eval(rec, c) && e.right.Eval(rec, c)
}

type orExpr struct{ left, right Expr }

func (e orExpr) Eval(rec *record.DataRecord, c *MatchCache) bool {
	return e.left.Eval(rec, c) || e.right.Eval(rec, c)
}

type notExpr struct{ inner Expr }

func (e notExpr) Eval(rec *record.DataRecord, c *MatchCache) bool {
	return !e.inner.Eval(rec, c)
}

// cmpExpr is a leaf `field OP literal` comparison.
type cmpExpr struct {
	Field   string
	Op      Op
	Literal string
}

func (e cmpExpr) Eval(rec *record.DataRecord, cache *MatchCache) bool {
	f, ok := rec.Get(e.Field)
	if !ok {
		return false
	}
	if e.Op == Wildcard {
		return cache.Match(e.Literal, f.Value.String())
	}
	return compareValue(f.Value, e.Op, e.Literal)
}

// compareValue applies Op between a decoded field value and a raw literal
// from filter source text, using numeric comparison (with the same 1e-4
// float tolerance as record.Value.Equal) for Digit/Float fields and
// lexicographic/string-equality comparison otherwise.
func compareValue(v record.Value, op Op, literal string) bool {
	switch v.Kind {
	case record.Digit, record.Float, record.Port, record.HttpStatus:
		lf, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return false
		}
		vf := v.Flt
		if v.Kind == record.Digit || v.Kind == record.Port || v.Kind == record.HttpStatus {
			vf = float64(v.Int)
		}
		return compareFloat(vf, op, lf)
	default:
		return compareString(v.String(), op, literal)
	}
}

const floatTolerance = 1e-4

func compareFloat(a float64, op Op, b float64) bool {
	switch op {
	case Eq:
		return math.Abs(a-b) <= floatTolerance
	case Ne:
		return math.Abs(a-b) > floatTolerance
	case Gt:
		return a > b
	case Ge:
		return a >= b || math.Abs(a-b) <= floatTolerance
	case Lt:
		return a < b
	case Le:
		return a <= b || math.Abs(a-b) <= floatTolerance
	default:
		return false
	}
}

func compareString(a string, op Op, b string) bool {
	switch op {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	case Lt:
		return a < b
	case Le:
		return a <= b
	default:
		return false
	}
}

// Compile parses src into an Expr tree: a logical expression grammar of
// and/or/not over parenthesized field comparisons.
func Compile(src string) (Expr, error) {
	p := newFilterParser(src)
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("unexpected trailing input at %d: %q", p.pos, p.s[p.pos:])
	}
	return e, nil
}
