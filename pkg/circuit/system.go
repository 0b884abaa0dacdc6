package circuit

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/R6500/circuit/internal/consts"
	"github.com/R6500/circuit/internal/logger"
	"github.com/R6500/circuit/pkg/component"
	"github.com/R6500/circuit/pkg/symbolic"
)

func isGround(node string) bool {
	return node == consts.GroundNode || node == consts.GroundAlias
}

// system is the per-solve state: the discovered nodes, one voltage symbol and
// one current representation per node, the growing equation list and the
// unknown set. Each reduction pass consumes the state left by the previous
// ones; nothing survives across Solve calls.
type system struct {
	ckt   *Circuit
	nodes []string // non-ground nodes, sorted

	nodeSym  map[string]*symbolic.Symbol
	nodeVars map[string]*symbolic.Expr // current representation per node

	unknowns *bitset.BitSet // positions are symbol arena ids
	eqs      []*symbolic.Expr
}

// newSystem discovers the node set and creates the node voltage unknowns.
func newSystem(c *Circuit) (*system, error) {
	if len(c.components) == 0 {
		return nil, &ConfigurationError{Msg: "no components in the circuit"}
	}

	seen := make(map[string]bool)
	groundFound := false
	var nodes []string
	for _, cm := range c.components {
		for _, n := range []string{cm.Node1, cm.Node2} {
			if isGround(n) {
				groundFound = true
				continue
			}
			if !seen[n] {
				seen[n] = true
				nodes = append(nodes, n)
			}
		}
	}
	if !groundFound {
		return nil, &ConfigurationError{Msg: "no 0 node in circuit"}
	}
	if len(nodes) == 0 {
		return nil, &ConfigurationError{Msg: "no nodes in the circuit"}
	}
	sort.Strings(nodes)

	log := logger.Logger()
	log.Debug().Int("count", len(nodes)+1).Strs("nodes", nodes).Msg("nodes discovered")

	sys := &system{
		ckt:      c,
		nodes:    nodes,
		nodeSym:  make(map[string]*symbolic.Symbol, len(nodes)),
		nodeVars: make(map[string]*symbolic.Expr, len(nodes)),
		unknowns: bitset.New(uint(c.pool.Len())),
	}
	for _, n := range nodes {
		sym := c.pool.Symbol(consts.NodePrefix + n)
		sys.nodeSym[n] = sym
		sys.nodeVars[n] = symbolic.Var(sym)
		sys.unknowns.Set(sym.ID())
	}
	return sys, nil
}

// diff returns v(a)-v(b) at assembly time, omitting the term of a grounded
// endpoint. a is never ground when called.
func (sys *system) diff(a, b string) *symbolic.Expr {
	va := symbolic.Var(sys.nodeSym[a])
	if isGround(b) {
		return va
	}
	return symbolic.Sub(va, symbolic.Var(sys.nodeSym[b]))
}

// stampKCL builds one current-balance row per non-ground node.
func (sys *system) stampKCL() {
	log := logger.Logger()
	for _, node := range sys.nodes {
		eq := symbolic.Num(0)
		for _, cm := range sys.ckt.components {
			eq = sys.stamp(cm, eq, node)
		}
		sys.eqs = append(sys.eqs, eq)
		log.Debug().Str("node", node).Str("equation", eq.String()+" = 0").Msg("KCL")
	}
}

// stamp adds the component's contribution to one node's row. Conductance
// elements push their branch current out of both endpoints; sources and
// current probes contribute their branch symbol with the documented signs.
func (sys *system) stamp(cm *component.Component, eq *symbolic.Expr, node string) *symbolic.Expr {
	switch cm.Kind {
	case component.Resistor:
		return sys.stampAdmittance(cm, eq, node, func(v *symbolic.Expr) *symbolic.Expr {
			return symbolic.Div(v, symbolic.Var(cm.Sym))
		})
	case component.Capacitor:
		return sys.stampAdmittance(cm, eq, node, func(v *symbolic.Expr) *symbolic.Expr {
			return symbolic.Mul(symbolic.Mul(symbolic.Var(cm.Sym), symbolic.Var(sys.ckt.s)), v)
		})
	case component.Inductor:
		return sys.stampAdmittance(cm, eq, node, func(v *symbolic.Expr) *symbolic.Expr {
			return symbolic.Div(v, symbolic.Mul(symbolic.Var(cm.Sym), symbolic.Var(sys.ckt.s)))
		})
	case component.VoltageSource, component.ControlledVoltageSource:
		// Branch current flows node1 -> node2 through the source.
		if cm.Node1 == node {
			eq = symbolic.Sub(eq, symbolic.Var(cm.CurrentSym))
		}
		if cm.Node2 == node {
			eq = symbolic.Add(eq, symbolic.Var(cm.CurrentSym))
		}
		return eq
	case component.CurrentSource, component.ControlledCurrentSource:
		// Source current is pushed into node1.
		if cm.Node1 == node {
			eq = symbolic.Add(eq, symbolic.Var(cm.Sym))
		}
		if cm.Node2 == node {
			eq = symbolic.Sub(eq, symbolic.Var(cm.Sym))
		}
		return eq
	case component.CurrentProbe:
		// Series ammeter: carries its reading like a current source.
		if cm.Node1 == node {
			eq = symbolic.Add(eq, symbolic.Var(cm.Sym))
		}
		if cm.Node2 == node {
			eq = symbolic.Sub(eq, symbolic.Var(cm.Sym))
		}
		return eq
	case component.VoltageProbe:
		// Open circuit: no KCL contribution.
		return eq
	default:
		return eq
	}
}

func (sys *system) stampAdmittance(cm *component.Component, eq *symbolic.Expr, node string, current func(*symbolic.Expr) *symbolic.Expr) *symbolic.Expr {
	if cm.Node1 == node {
		eq = symbolic.Sub(eq, current(sys.diff(cm.Node1, cm.Node2)))
	}
	if cm.Node2 == node {
		eq = symbolic.Sub(eq, current(sys.diff(cm.Node2, cm.Node1)))
	}
	return eq
}

// substAll rewrites every equation, replacing old with repl.
func (sys *system) substAll(old *symbolic.Symbol, repl *symbolic.Expr) {
	for i, eq := range sys.eqs {
		sys.eqs[i] = eq.Subs(old, repl)
	}
}

// eliminate substitutes a node's voltage symbol everywhere, removes it from
// the unknown set and records the node's new representation.
func (sys *system) eliminate(node string, repl *symbolic.Expr) {
	sym := sys.nodeSym[node]
	sys.substAll(sym, repl)
	sys.unknowns.Clear(sym.ID())
	sys.nodeVars[node] = repl
	log := logger.Logger()
	log.Debug().Str("node", node).Str("as", repl.String()).Msg("node voltage eliminated")
}

// voltageSourcePass adds one equality per voltage source fixing the node
// voltage difference to the source symbol, and promotes the branch currents
// to unknowns. Node voltages are kept, not substituted away.
func (sys *system) voltageSourcePass() {
	for _, cm := range sys.ckt.components {
		if !cm.IsVoltageSource() {
			continue
		}
		sys.unknowns.Set(cm.CurrentSym.ID())

		var diff *symbolic.Expr
		switch {
		case isGround(cm.Node1):
			diff = symbolic.Neg(sys.nodeVars[cm.Node2])
		case isGround(cm.Node2):
			diff = sys.nodeVars[cm.Node1]
		default:
			diff = symbolic.Sub(sys.nodeVars[cm.Node1], sys.nodeVars[cm.Node2])
		}
		sys.eqs = append(sys.eqs, symbolic.Sub(symbolic.Var(cm.Sym), diff))
	}
}

// currentProbePass shorts each current probe's endpoints. A grounded side
// pins the other node to 0; otherwise node1's symbol is always the one
// eliminated. The probe reading becomes an unknown.
func (sys *system) currentProbePass() {
	for _, cm := range sys.ckt.components {
		if cm.Kind != component.CurrentProbe {
			continue
		}
		sys.unknowns.Set(cm.Sym.ID())

		switch {
		case isGround(cm.Node1):
			sys.eliminate(cm.Node2, symbolic.Num(0))
		case isGround(cm.Node2):
			sys.eliminate(cm.Node1, symbolic.Num(0))
		default:
			sys.eliminate(cm.Node1, sys.nodeVars[cm.Node2])
		}
	}
}

// voltageProbePass absorbs grounded voltage probes into the probed node's
// voltage; when the node was already eliminated by an earlier pass, an
// equality row is appended instead. Floating probes always get an equality
// row.
func (sys *system) voltageProbePass() {
	for _, cm := range sys.ckt.components {
		if cm.Kind != component.VoltageProbe {
			continue
		}
		sys.unknowns.Set(cm.Sym.ID())

		switch {
		case isGround(cm.Node1):
			// Probe reads -v(node2).
			if sym := sys.nodeSym[cm.Node2]; sys.unknowns.Test(sym.ID()) {
				sys.eliminate(cm.Node2, symbolic.Neg(symbolic.Var(cm.Sym)))
			} else {
				sys.eqs = append(sys.eqs, symbolic.Sub(symbolic.Var(cm.Sym), symbolic.Neg(sys.nodeVars[cm.Node2])))
			}
		case isGround(cm.Node2):
			if sym := sys.nodeSym[cm.Node1]; sys.unknowns.Test(sym.ID()) {
				sys.eliminate(cm.Node1, symbolic.Var(cm.Sym))
			} else {
				sys.eqs = append(sys.eqs, symbolic.Sub(symbolic.Var(cm.Sym), sys.nodeVars[cm.Node1]))
			}
		default:
			sys.eqs = append(sys.eqs, symbolic.Sub(symbolic.Var(cm.Sym),
				symbolic.Sub(sys.nodeVars[cm.Node1], sys.nodeVars[cm.Node2])))
		}
	}
}

// controlledSourcePass rewrites each controlled source's gain symbol as gain
// times the controller's reading, across the whole equation list.
func (sys *system) controlledSourcePass() {
	for _, cm := range sys.ckt.components {
		if !cm.IsControlled() {
			continue
		}
		repl := symbolic.Mul(symbolic.Var(cm.Sym), symbolic.Var(cm.Controller.Sym))
		sys.substAll(cm.Sym, repl)
	}
}

// unknownList returns the unknown set ordered by symbol arena id.
func (sys *system) unknownList() []*symbolic.Symbol {
	list := make([]*symbolic.Symbol, 0, sys.unknowns.Count())
	for id, ok := sys.unknowns.NextSet(0); ok; id, ok = sys.unknowns.NextSet(id + 1) {
		list = append(list, sys.ckt.pool.ByID(id))
	}
	return list
}
