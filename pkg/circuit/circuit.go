// Package circuit builds symbolic equation systems for linear electrical
// circuits and solves them by modified nodal analysis.
//
// A circuit is assembled in memory through the Add calls, one per component.
// Nodes are free-form labels; "0" and "gnd" name the reference node. Solve
// produces a solution keyed by component and unknown names, with component
// values left symbolic; ValuesSolution substitutes the known numeric values.
package circuit

import (
	"fmt"

	"github.com/R6500/circuit/internal/consts"
	"github.com/R6500/circuit/internal/logger"
	"github.com/R6500/circuit/pkg/component"
	"github.com/R6500/circuit/pkg/symbolic"
)

// SetVerbose enables or disables human-readable traces of node discovery,
// equation assembly and the solved maps. Tracing is observational only.
func SetVerbose(flag bool) {
	if flag {
		logger.Enable()
	} else {
		logger.Disable()
	}
}

// Solution maps component and unknown names to solved expressions.
type Solution map[string]*symbolic.Expr

// Circuit owns a component registry and the symbol table shared by every
// quantity in it. Distinct circuits share nothing; a Circuit is not safe for
// concurrent use.
type Circuit struct {
	pool       *symbolic.Pool
	s          *symbolic.Symbol
	components []*component.Component
	probes     map[string]*component.Component
	values     map[*symbolic.Symbol]float64

	// Snapshots of the last Solve, for callers that want to inspect the
	// reduced system.
	equations []*symbolic.Expr
	unknowns  []*symbolic.Symbol

	solution   Solution
	particular Solution
	solved     bool
}

func New() *Circuit {
	pool := symbolic.NewPool()
	log := logger.Logger()
	log.Debug().Msg("starting a new circuit")
	return &Circuit{
		pool:   pool,
		s:      pool.Symbol(consts.FreqSymbol),
		probes: make(map[string]*component.Component),
		values: make(map[*symbolic.Symbol]float64),
	}
}

// Pool returns the circuit's symbol arena.
func (c *Circuit) Pool() *symbolic.Pool { return c.pool }

// S returns the complex frequency symbol used by reactive stamps.
func (c *Circuit) S() *symbolic.Symbol { return c.s }

// Components returns the registry in insertion order.
func (c *Circuit) Components() []*component.Component { return c.components }

// Symbol returns the symbol registered under name, if any. Branch currents
// are registered under "i"+name.
func (c *Circuit) Symbol(name string) (*symbolic.Symbol, bool) {
	return c.pool.Lookup(name)
}

// add appends a record, interns its symbols and records its value in the
// substitution map. Names are not checked for uniqueness: a duplicate name
// resolves to the same symbol as the first use. That includes the derived
// names, so a component called "v"+node or "i"+name aliases the corresponding
// node-voltage or branch-current symbol.
func (c *Circuit) add(kind component.Kind, name, node1, node2 string, ctr *component.Component, value []float64) *symbolic.Symbol {
	sy := c.pool.Symbol(name)
	cm := &component.Component{
		Kind:       kind,
		Name:       name,
		Node1:      node1,
		Node2:      node2,
		Sym:        sy,
		Controller: ctr,
	}
	if len(value) > 0 {
		cm.Value = value[0]
		cm.HasValue = true
		c.values[sy] = value[0]
	}
	if cm.IsVoltageSource() || cm.IsCurrentSource() {
		cm.CurrentSym = c.pool.Symbol(consts.BranchPrefix + name)
	}
	if cm.IsProbe() {
		c.probes[name] = cm
	}
	c.components = append(c.components, cm)

	log := logger.Logger()
	ev := log.Debug().
		Str("name", name).Str("node1", node1).Str("node2", node2)
	if cm.HasValue {
		ev = ev.Float64("value", cm.Value)
	}
	ev.Msgf("%s added", kind)

	return sy
}

// AddResistor adds a resistor between node1 and node2 and returns its
// resistance symbol. The optional value enters the substitution map.
func (c *Circuit) AddResistor(name, node1, node2 string, value ...float64) *symbolic.Symbol {
	return c.add(component.Resistor, name, node1, node2, nil, value)
}

// AddCapacitor adds a capacitor and returns its capacitance symbol.
func (c *Circuit) AddCapacitor(name, node1, node2 string, value ...float64) *symbolic.Symbol {
	return c.add(component.Capacitor, name, node1, node2, nil, value)
}

// AddInductor adds an inductor and returns its inductance symbol.
func (c *Circuit) AddInductor(name, node1, node2 string, value ...float64) *symbolic.Symbol {
	return c.add(component.Inductor, name, node1, node2, nil, value)
}

// AddVoltageSource adds an independent voltage source with its + terminal on
// node1 and returns its value symbol. The branch current unknown is
// registered under "i"+name and flows from node1 through the source to node2.
func (c *Circuit) AddVoltageSource(name, node1, node2 string, value ...float64) *symbolic.Symbol {
	return c.add(component.VoltageSource, name, node1, node2, nil, value)
}

// AddCurrentSource adds an independent current source pushing its current
// into node1 and returns its value symbol.
func (c *Circuit) AddCurrentSource(name, node1, node2 string, value ...float64) *symbolic.Symbol {
	return c.add(component.CurrentSource, name, node1, node2, nil, value)
}

// AddControlledVoltageSource adds a voltage source whose value is the gain
// symbol times the controller probe's reading. The controller must name a
// probe already in the registry.
func (c *Circuit) AddControlledVoltageSource(name, node1, node2, controller string, value ...float64) (*symbolic.Symbol, error) {
	ctr, ok := c.probes[controller]
	if !ok {
		return nil, &ConfigurationError{Msg: "controller must be defined previously"}
	}
	return c.add(component.ControlledVoltageSource, name, node1, node2, ctr, value), nil
}

// AddControlledCurrentSource adds a current source whose value is the gain
// symbol times the controller probe's reading.
func (c *Circuit) AddControlledCurrentSource(name, node1, node2, controller string, value ...float64) (*symbolic.Symbol, error) {
	ctr, ok := c.probes[controller]
	if !ok {
		return nil, &ConfigurationError{Msg: "controller must be defined previously"}
	}
	return c.add(component.ControlledCurrentSource, name, node1, node2, ctr, value), nil
}

// AddVoltageProbe adds an ideal voltmeter reading v(node1)-v(node2) and
// returns its symbol. It draws no current.
func (c *Circuit) AddVoltageProbe(name, node1, node2 string) *symbolic.Symbol {
	return c.add(component.VoltageProbe, name, node1, node2, nil, nil)
}

// AddCurrentProbe adds an ideal series ammeter and returns its symbol. The
// two nodes are shorted; positive current flows from node2 to node1 inside
// the probe.
func (c *Circuit) AddCurrentProbe(name, node1, node2 string) *symbolic.Symbol {
	return c.add(component.CurrentProbe, name, node1, node2, nil, nil)
}

// Solve assembles the KCL equations, runs the reduction pipeline and solves
// the final system. It returns the symbolic solution keyed by name. All
// per-solve state is rebuilt, so solving an unmodified circuit twice yields
// identical results.
func (c *Circuit) Solve() (Solution, error) {
	log := logger.Logger()

	sys, err := newSystem(c)
	if err != nil {
		return nil, err
	}
	sys.stampKCL()
	sys.voltageSourcePass()
	sys.currentProbePass()
	sys.voltageProbePass()
	sys.controlledSourcePass()

	c.equations = sys.eqs
	c.unknowns = sys.unknownList()

	for _, eq := range c.equations {
		log.Debug().Str("equation", eq.String()+" = 0").Msg("reduced system")
	}
	for _, u := range c.unknowns {
		log.Debug().Str("unknown", u.Name()).Msg("reduced system")
	}

	solved, err := symbolic.SolveLinear(c.equations, c.unknowns)
	if err != nil {
		return nil, &UnsolvableCircuitError{Msg: "solving circuit equations", Err: err}
	}

	solution := make(Solution, len(c.unknowns))
	particular := make(Solution, len(c.unknowns))
	for _, u := range c.unknowns {
		expr, ok := solved[u]
		if !ok {
			return nil, &UnsolvableCircuitError{Msg: fmt.Sprintf("no solution for %s", u.Name())}
		}
		solution[u.Name()] = expr
		particular[u.Name()] = expr.SubsValues(c.values)
	}

	for name, expr := range solution {
		log.Debug().Str("name", name).Str("value", expr.String()).Msg("solution")
	}
	for name, expr := range particular {
		log.Debug().Str("name", name).Str("value", expr.String()).Msg("solution with values")
	}

	c.solution = solution
	c.particular = particular
	c.solved = true
	return solution, nil
}

// ValuesSolution returns the last solution with every known component value
// substituted in. Solve must have been called.
func (c *Circuit) ValuesSolution() (Solution, error) {
	if !c.solved {
		return nil, &ConfigurationError{Msg: "circuit has not been solved"}
	}
	return c.particular, nil
}

// Equations returns a copy of the reduced equation list of the last Solve,
// each read as expr = 0.
func (c *Circuit) Equations() []*symbolic.Expr {
	return append([]*symbolic.Expr(nil), c.equations...)
}

// Unknowns returns a copy of the final unknown set of the last Solve.
func (c *Circuit) Unknowns() []*symbolic.Symbol {
	return append([]*symbolic.Symbol(nil), c.unknowns...)
}
