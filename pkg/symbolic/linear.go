package symbolic

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNonLinear is returned when an equation is not linear in the unknowns.
var ErrNonLinear = errors.New("equation is not linear in its unknowns")

// SolveError reports a linear system without a unique solution.
type SolveError struct {
	Unknown *Symbol // set when no pivot was found for this unknown
	Msg     string
}

func (e *SolveError) Error() string {
	if e.Unknown != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Unknown.Name())
	}
	return e.Msg
}

// linearRow is one equation in linear-combination form:
//
//	sum(coeff[u]*u) + rest = 0
//
// where the coefficients and the free term are expressions over the
// non-unknown symbols.
type linearRow struct {
	coeff map[*Symbol]*Expr
	rest  *Expr
}

func newLinearRow() *linearRow {
	return &linearRow{coeff: make(map[*Symbol]*Expr), rest: zero}
}

func (r *linearRow) addCoeff(s *Symbol, c *Expr) {
	if prev, ok := r.coeff[s]; ok {
		c = Add(prev, c)
	}
	if c.IsZero() {
		delete(r.coeff, s)
		return
	}
	r.coeff[s] = c
}

func (r *linearRow) merge(o *linearRow, negate bool) {
	for _, s := range o.symbols() {
		c := o.coeff[s]
		if negate {
			c = Neg(c)
		}
		r.addCoeff(s, c)
	}
	if negate {
		r.rest = Sub(r.rest, o.rest)
	} else {
		r.rest = Add(r.rest, o.rest)
	}
}

func (r *linearRow) scale(f *Expr) {
	for s, c := range r.coeff {
		r.coeff[s] = Mul(f, c)
	}
	r.rest = Mul(f, r.rest)
}

func (r *linearRow) divide(d *Expr) {
	for s, c := range r.coeff {
		r.coeff[s] = Div(c, d)
	}
	r.rest = Div(r.rest, d)
}

// symbols returns the coefficient keys ordered by arena id, for deterministic
// elimination.
func (r *linearRow) symbols() []*Symbol {
	syms := make([]*Symbol, 0, len(r.coeff))
	for s := range r.coeff {
		syms = append(syms, s)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].id < syms[j].id })
	return syms
}

// linearize decomposes e into a linearRow over the unknowns selected by pred.
func linearize(e *Expr, pred func(*Symbol) bool) (*linearRow, error) {
	row := newLinearRow()

	switch e.op {
	case opNum:
		row.rest = e
	case opSym:
		if pred(e.sym) {
			row.coeff[e.sym] = one
		} else {
			row.rest = e
		}
	case opAdd, opSub:
		l, err := linearize(e.l, pred)
		if err != nil {
			return nil, err
		}
		r, err := linearize(e.r, pred)
		if err != nil {
			return nil, err
		}
		row = l
		row.merge(r, e.op == opSub)
	case opNeg:
		l, err := linearize(e.l, pred)
		if err != nil {
			return nil, err
		}
		row = newLinearRow()
		row.merge(l, true)
	case opMul:
		lHas := e.l.contains(pred)
		rHas := e.r.contains(pred)
		switch {
		case lHas && rHas:
			return nil, fmt.Errorf("%w: product of unknowns in %s", ErrNonLinear, e)
		case !lHas && !rHas:
			row.rest = e
		case lHas:
			inner, err := linearize(e.l, pred)
			if err != nil {
				return nil, err
			}
			inner.scale(e.r)
			row = inner
		default:
			inner, err := linearize(e.r, pred)
			if err != nil {
				return nil, err
			}
			inner.scale(e.l)
			row = inner
		}
	case opDiv:
		if e.r.contains(pred) {
			return nil, fmt.Errorf("%w: unknown in denominator of %s", ErrNonLinear, e)
		}
		if !e.l.contains(pred) {
			row.rest = e
			break
		}
		inner, err := linearize(e.l, pred)
		if err != nil {
			return nil, err
		}
		inner.divide(e.r)
		row = inner
	}

	return row, nil
}

// SolveLinear solves the equations (each read as expr = 0) for the unknowns,
// by Gauss-Jordan elimination over the field of symbolic expressions. Pivots
// are chosen structurally: the first remaining row whose coefficient for the
// unknown did not fold to the constant 0.
func SolveLinear(eqs []*Expr, unknowns []*Symbol) (map[*Symbol]*Expr, error) {
	rows := make([]*linearRow, len(eqs))
	pred := func(s *Symbol) bool { return false }
	if len(unknowns) > 0 {
		set := make(map[*Symbol]bool, len(unknowns))
		for _, u := range unknowns {
			set[u] = true
		}
		pred = func(s *Symbol) bool { return set[s] }
	}
	for i, eq := range eqs {
		row, err := linearize(eq, pred)
		if err != nil {
			return nil, fmt.Errorf("equation %d: %w", i, err)
		}
		rows[i] = row
	}

	used := make([]bool, len(rows))
	pivots := make(map[*Symbol]*linearRow, len(unknowns))

	for _, u := range unknowns {
		var pivot *linearRow
		for i, row := range rows {
			if used[i] {
				continue
			}
			if c, ok := row.coeff[u]; ok && !c.IsZero() {
				pivot = row
				used[i] = true
				break
			}
		}
		if pivot == nil {
			return nil, &SolveError{Unknown: u, Msg: "underdetermined system, no equation determines"}
		}
		pivots[u] = pivot

		pc := pivot.coeff[u]
		for _, row := range rows {
			if row == pivot {
				continue
			}
			d, ok := row.coeff[u]
			if !ok || d.IsZero() {
				continue
			}
			f := Div(d, pc)
			for _, v := range pivot.symbols() {
				if v == u {
					continue
				}
				row.addCoeff(v, Neg(Mul(f, pivot.coeff[v])))
			}
			row.rest = Sub(row.rest, Mul(f, pivot.rest))
			delete(row.coeff, u)
		}
	}

	// Unused rows must have collapsed to 0 = 0.
	for i, row := range rows {
		if used[i] {
			continue
		}
		if len(row.coeff) == 0 && !row.rest.IsZero() {
			return nil, &SolveError{Msg: fmt.Sprintf("inconsistent system, equation %d reduces to %s = 0", i, row.rest)}
		}
	}

	solution := make(map[*Symbol]*Expr, len(unknowns))
	for _, u := range unknowns {
		row := pivots[u]
		solution[u] = Neg(Div(row.rest, row.coeff[u]))
	}
	return solution, nil
}
