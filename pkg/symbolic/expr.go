package symbolic

import (
	"fmt"
	"strconv"
)

type exprOp uint8

const (
	opNum exprOp = iota
	opSym
	opAdd
	opSub
	opMul
	opDiv
	opNeg
)

// Expr is an immutable expression tree over symbols and numeric constants.
// The constructors apply local simplifications (constant folding, 0/1
// identities), so substituting a symbol with a constant collapses the
// affected terms.
type Expr struct {
	op   exprOp
	num  float64
	sym  *Symbol
	l, r *Expr
}

var (
	zero = &Expr{op: opNum, num: 0}
	one  = &Expr{op: opNum, num: 1}
)

func Num(v float64) *Expr {
	switch v {
	case 0:
		return zero
	case 1:
		return one
	}
	return &Expr{op: opNum, num: v}
}

func Var(s *Symbol) *Expr {
	return &Expr{op: opSym, sym: s}
}

func (e *Expr) isNum() bool { return e.op == opNum }

// IsZero reports whether the expression is the constant 0.
func (e *Expr) IsZero() bool { return e.op == opNum && e.num == 0 }

func Add(a, b *Expr) *Expr {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.isNum() && b.isNum() {
		return Num(a.num + b.num)
	}
	return &Expr{op: opAdd, l: a, r: b}
}

func Sub(a, b *Expr) *Expr {
	if b.IsZero() {
		return a
	}
	if a.IsZero() {
		return Neg(b)
	}
	if a.isNum() && b.isNum() {
		return Num(a.num - b.num)
	}
	return &Expr{op: opSub, l: a, r: b}
}

func Mul(a, b *Expr) *Expr {
	if a.IsZero() || b.IsZero() {
		return zero
	}
	if a.isNum() && a.num == 1 {
		return b
	}
	if b.isNum() && b.num == 1 {
		return a
	}
	if a.isNum() && b.isNum() {
		return Num(a.num * b.num)
	}
	return &Expr{op: opMul, l: a, r: b}
}

func Div(a, b *Expr) *Expr {
	if a.IsZero() {
		return zero
	}
	if b.isNum() && b.num == 1 {
		return a
	}
	if a.isNum() && b.isNum() && b.num != 0 {
		return Num(a.num / b.num)
	}
	return &Expr{op: opDiv, l: a, r: b}
}

func Neg(a *Expr) *Expr {
	if a.isNum() {
		return Num(-a.num)
	}
	if a.op == opNeg {
		return a.l
	}
	return &Expr{op: opNeg, l: a}
}

// Subs returns the expression with every occurrence of s replaced by r. The
// result is rebuilt through the constructors, so simplifications re-apply.
func (e *Expr) Subs(s *Symbol, r *Expr) *Expr {
	switch e.op {
	case opNum:
		return e
	case opSym:
		if e.sym == s {
			return r
		}
		return e
	case opAdd:
		return Add(e.l.Subs(s, r), e.r.Subs(s, r))
	case opSub:
		return Sub(e.l.Subs(s, r), e.r.Subs(s, r))
	case opMul:
		return Mul(e.l.Subs(s, r), e.r.Subs(s, r))
	case opDiv:
		return Div(e.l.Subs(s, r), e.r.Subs(s, r))
	default: // opNeg
		return Neg(e.l.Subs(s, r))
	}
}

// SubsValues replaces every symbol that has an entry in values with its
// numeric value.
func (e *Expr) SubsValues(values map[*Symbol]float64) *Expr {
	switch e.op {
	case opNum:
		return e
	case opSym:
		if v, ok := values[e.sym]; ok {
			return Num(v)
		}
		return e
	case opAdd:
		return Add(e.l.SubsValues(values), e.r.SubsValues(values))
	case opSub:
		return Sub(e.l.SubsValues(values), e.r.SubsValues(values))
	case opMul:
		return Mul(e.l.SubsValues(values), e.r.SubsValues(values))
	case opDiv:
		return Div(e.l.SubsValues(values), e.r.SubsValues(values))
	default: // opNeg
		return Neg(e.l.SubsValues(values))
	}
}

// Eval evaluates the expression with the given symbol bindings. Symbols not
// present in env make the evaluation fail.
func (e *Expr) Eval(env map[*Symbol]complex128) (complex128, error) {
	switch e.op {
	case opNum:
		return complex(e.num, 0), nil
	case opSym:
		v, ok := env[e.sym]
		if !ok {
			return 0, fmt.Errorf("unbound symbol %s", e.sym.Name())
		}
		return v, nil
	case opNeg:
		v, err := e.l.Eval(env)
		return -v, err
	}

	l, err := e.l.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := e.r.Eval(env)
	if err != nil {
		return 0, err
	}
	switch e.op {
	case opAdd:
		return l + r, nil
	case opSub:
		return l - r, nil
	case opMul:
		return l * r, nil
	default: // opDiv
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	}
}

// ContainsSymbol reports whether s occurs anywhere in the expression.
func (e *Expr) ContainsSymbol(s *Symbol) bool {
	return e.contains(func(x *Symbol) bool { return x == s })
}

func (e *Expr) contains(pred func(*Symbol) bool) bool {
	switch e.op {
	case opNum:
		return false
	case opSym:
		return pred(e.sym)
	case opNeg:
		return e.l.contains(pred)
	default:
		return e.l.contains(pred) || e.r.contains(pred)
	}
}

// Equal reports structural equality.
func (e *Expr) Equal(o *Expr) bool {
	if e == o {
		return true
	}
	if e.op != o.op {
		return false
	}
	switch e.op {
	case opNum:
		return e.num == o.num
	case opSym:
		return e.sym == o.sym
	case opNeg:
		return e.l.Equal(o.l)
	default:
		return e.l.Equal(o.l) && e.r.Equal(o.r)
	}
}

// Operator precedence used for rendering.
const (
	precAdd  = 1
	precMul  = 2
	precAtom = 3
)

func (e *Expr) String() string {
	return e.render(0)
}

func (e *Expr) render(ctx int) string {
	var s string
	var prec int

	switch e.op {
	case opNum:
		s = strconv.FormatFloat(e.num, 'g', -1, 64)
		prec = precAtom
		if e.num < 0 {
			prec = precAdd
		}
	case opSym:
		s = e.sym.Name()
		prec = precAtom
	case opAdd:
		s = e.l.render(precAdd) + " + " + e.r.render(precAdd)
		prec = precAdd
	case opSub:
		s = e.l.render(precAdd) + " - " + e.r.render(precMul)
		prec = precAdd
	case opMul:
		s = e.l.render(precMul) + "*" + e.r.render(precMul)
		prec = precMul
	case opDiv:
		s = e.l.render(precMul) + "/" + e.r.render(precAtom)
		prec = precMul
	default: // opNeg
		s = "-" + e.l.render(precMul)
		prec = precAdd
	}

	if prec < ctx {
		return "(" + s + ")"
	}
	return s
}
