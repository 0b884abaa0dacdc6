package component

import "github.com/R6500/circuit/pkg/symbolic"

// Kind identifies a component type. The set is closed: the KCL stamper and
// the reduction passes switch exhaustively over it.
type Kind int

const (
	Resistor Kind = iota
	Capacitor
	Inductor
	VoltageSource
	CurrentSource
	ControlledVoltageSource
	ControlledCurrentSource
	VoltageProbe
	CurrentProbe
)

func (k Kind) String() string {
	switch k {
	case Resistor:
		return "resistor"
	case Capacitor:
		return "capacitor"
	case Inductor:
		return "inductor"
	case VoltageSource:
		return "voltage source"
	case CurrentSource:
		return "current source"
	case ControlledVoltageSource:
		return "controlled voltage source"
	case ControlledCurrentSource:
		return "controlled current source"
	case VoltageProbe:
		return "voltage probe"
	case CurrentProbe:
		return "current probe"
	default:
		return "unknown"
	}
}

// Component is one registry record. Records are appended by the circuit Add
// calls and never mutated afterwards; the reduction passes rewrite equations,
// not components.
type Component struct {
	Kind  Kind
	Name  string
	Node1 string
	Node2 string

	Value    float64
	HasValue bool

	// Sym is the defining quantity: resistance, capacitance, inductance,
	// source value, controlled-source gain or probe reading.
	Sym *symbolic.Symbol
	// CurrentSym is the branch current unknown, voltage/current sources only.
	CurrentSym *symbolic.Symbol
	// Controller is the controlling probe, controlled sources only.
	Controller *Component
}

// IsVoltageSource reports whether the component is an independent or
// controlled voltage source.
func (c *Component) IsVoltageSource() bool {
	return c.Kind == VoltageSource || c.Kind == ControlledVoltageSource
}

// IsCurrentSource reports whether the component is an independent or
// controlled current source.
func (c *Component) IsCurrentSource() bool {
	return c.Kind == CurrentSource || c.Kind == ControlledCurrentSource
}

// IsControlled reports whether the component's value follows a probe.
func (c *Component) IsControlled() bool {
	return c.Kind == ControlledVoltageSource || c.Kind == ControlledCurrentSource
}

// IsProbe reports whether the component is a measurement element.
func (c *Component) IsProbe() bool {
	return c.Kind == VoltageProbe || c.Kind == CurrentProbe
}
