package circuit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/R6500/circuit/pkg/symbolic"
)

// value evaluates one entry of the values solution to a real number.
func value(t *testing.T, c *Circuit, name string) float64 {
	t.Helper()
	values, err := c.ValuesSolution()
	require.NoError(t, err)
	expr, ok := values[name]
	require.True(t, ok, "no solution entry for %s", name)
	v, err := expr.Eval(nil)
	require.NoError(t, err)
	return real(v)
}

func divider() *Circuit {
	c := New()
	c.AddVoltageSource("V1", "1", "0", 10)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddResistor("R2", "2", "0", 1000)
	return c
}

func TestVoltageDivider(t *testing.T) {
	c := divider()
	sol, err := c.Solve()
	require.NoError(t, err)

	require.InDelta(t, 10.0, value(t, c, "v1"), 1e-9)
	require.InDelta(t, 5.0, value(t, c, "v2"), 1e-9)
	// Branch current flows node1 -> node2 through the source.
	require.InDelta(t, -0.005, value(t, c, "iV1"), 1e-12)

	// The symbolic solution keeps the component symbols.
	r1, _ := c.Symbol("R1")
	v1, _ := c.Symbol("V1")
	require.True(t, sol["v2"].ContainsSymbol(r1))
	require.True(t, sol["v2"].ContainsSymbol(v1))
}

func TestCurrentSourceSeriesResistors(t *testing.T) {
	c := New()
	c.AddCurrentSource("I1", "1", "0", 1e-3)
	c.AddResistor("R1", "1", "2", 2000)
	c.AddResistor("R2", "2", "0", 2000)

	_, err := c.Solve()
	require.NoError(t, err)
	require.InDelta(t, 4.0, value(t, c, "v1"), 1e-9)
	require.InDelta(t, 2.0, value(t, c, "v2"), 1e-9)
}

func TestSolveIdempotent(t *testing.T) {
	c := divider()
	first, err := c.Solve()
	require.NoError(t, err)
	second, err := c.Solve()
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for name, expr := range first {
		require.Equal(t, expr.String(), second[name].String(), "solution for %s changed", name)
	}
}

func TestUnknownAccounting(t *testing.T) {
	// Two non-ground nodes, one source current, nothing eliminated.
	c := divider()
	_, err := c.Solve()
	require.NoError(t, err)
	require.Len(t, c.Unknowns(), 3)

	// The current probe adds its reading and eliminates one node voltage.
	c = New()
	c.AddVoltageSource("V1", "1", "0", 10)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddCurrentProbe("im", "2", "3")
	c.AddResistor("R2", "3", "0", 1000)
	_, err = c.Solve()
	require.NoError(t, err)
	require.Len(t, c.Unknowns(), 4)
}

func TestSnapshotAccessorsReturnCopies(t *testing.T) {
	c := divider()
	_, err := c.Solve()
	require.NoError(t, err)

	eqs := c.Equations()
	unknowns := c.Unknowns()
	eqs[0] = nil
	unknowns[0] = nil

	require.NotNil(t, c.Equations()[0])
	require.NotNil(t, c.Unknowns()[0])
}

func TestCurrentProbeInsertion(t *testing.T) {
	// Inserting a series ammeter must not change the node voltages.
	c := New()
	c.AddVoltageSource("V1", "1", "0", 10)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddCurrentProbe("im", "2", "3")
	c.AddResistor("R2", "3", "0", 1000)

	sol, err := c.Solve()
	require.NoError(t, err)
	require.InDelta(t, 10.0, value(t, c, "v1"), 1e-9)
	require.InDelta(t, 5.0, value(t, c, "v3"), 1e-9)
	// Probe current: 5 mA flowing from node2 to node3 reads negative under
	// the node2-to-node1 internal convention.
	require.InDelta(t, -0.005, value(t, c, "im"), 1e-12)

	// Node 2 was shorted to node 3: its voltage is no longer an unknown.
	_, ok := sol["v2"]
	require.False(t, ok)
}

func TestCurrentProbeGroundedEndpoint(t *testing.T) {
	c := New()
	c.AddVoltageSource("V1", "1", "0", 10)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddCurrentProbe("im", "2", "0")

	sol, err := c.Solve()
	require.NoError(t, err)
	// Node 2 is pinned to ground by the probe.
	_, ok := sol["v2"]
	require.False(t, ok)
	// 10 mA flows from node2 into ground through the probe.
	require.InDelta(t, -0.01, value(t, c, "im"), 1e-12)
}

func TestVoltageProbeGrounded(t *testing.T) {
	c := divider()
	c.AddVoltageProbe("vo", "2", "0")

	sol, err := c.Solve()
	require.NoError(t, err)
	require.InDelta(t, 5.0, value(t, c, "vo"), 1e-9)
	_, ok := sol["v2"]
	require.False(t, ok)

	// Probe with ground on node1 reads the negated node voltage.
	c = divider()
	c.AddVoltageProbe("vm", "0", "2")
	_, err = c.Solve()
	require.NoError(t, err)
	require.InDelta(t, -5.0, value(t, c, "vm"), 1e-9)
}

func TestVoltageProbeFloating(t *testing.T) {
	c := divider()
	c.AddVoltageProbe("vd", "1", "2")

	_, err := c.Solve()
	require.NoError(t, err)
	require.InDelta(t, 5.0, value(t, c, "vd"), 1e-9)
	// No elimination for a floating probe.
	require.InDelta(t, 5.0, value(t, c, "v2"), 1e-9)
}

func TestVoltageProbeAlreadyEliminated(t *testing.T) {
	// The second probe finds its node voltage gone and falls back to an
	// equality row.
	c := divider()
	c.AddVoltageProbe("va", "2", "0")
	c.AddVoltageProbe("vb", "2", "0")

	_, err := c.Solve()
	require.NoError(t, err)
	require.InDelta(t, 5.0, value(t, c, "va"), 1e-9)
	require.InDelta(t, 5.0, value(t, c, "vb"), 1e-9)
}

func TestControlledVoltageSource(t *testing.T) {
	c := New()
	c.AddVoltageSource("V1", "1", "0", 1)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddVoltageProbe("vc", "2", "0")
	_, err := c.AddControlledVoltageSource("G1", "3", "0", "vc", 2)
	require.NoError(t, err)
	c.AddResistor("R2", "3", "0", 1000)

	_, err = c.Solve()
	require.NoError(t, err)
	require.InDelta(t, 1.0, value(t, c, "vc"), 1e-9)
	require.InDelta(t, 2.0, value(t, c, "v3"), 1e-9)
	require.InDelta(t, -0.002, value(t, c, "iG1"), 1e-12)

	// After the controlled-source pass the gain symbol appears only
	// multiplied by the controller: zeroing the controller must make every
	// equation insensitive to the gain.
	g1, _ := c.Symbol("G1")
	vc, _ := c.Symbol("vc")
	seen := false
	for _, eq := range c.Equations() {
		if !eq.ContainsSymbol(g1) {
			continue
		}
		seen = true
		env := make(map[*symbolic.Symbol]complex128)
		for _, s := range c.Pool().Symbols() {
			env[s] = 1.3
		}
		env[vc] = 0
		env[g1] = 1
		a, err := eq.Eval(env)
		require.NoError(t, err)
		env[g1] = 0
		b, err := eq.Eval(env)
		require.NoError(t, err)
		require.Equal(t, a, b, "gain symbol appears outside a gain*controller product in %s", eq)
	}
	require.True(t, seen, "no equation mentions the controlled source gain")
}

func TestControlledCurrentSource(t *testing.T) {
	c := New()
	c.AddVoltageSource("V1", "1", "0", 1)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddVoltageProbe("vc", "2", "0")
	_, err := c.AddControlledCurrentSource("F1", "3", "0", "vc", 1e-3)
	require.NoError(t, err)
	c.AddResistor("R3", "3", "0", 1000)

	_, err = c.Solve()
	require.NoError(t, err)
	// v3 = gain * vc * R3 = 1e-3 * 1 * 1000
	require.InDelta(t, 1.0, value(t, c, "v3"), 1e-9)
}

func TestUndefinedController(t *testing.T) {
	c := New()
	c.AddVoltageSource("V1", "1", "0", 1)

	_, err := c.AddControlledVoltageSource("G1", "2", "0", "nope", 2)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Error(), "controller must be defined previously")

	_, err = c.AddControlledCurrentSource("F1", "2", "0", "nope", 2)
	require.ErrorAs(t, err, &cfgErr)
}

func TestEmptyCircuit(t *testing.T) {
	c := New()
	_, err := c.Solve()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Error(), "no components in the circuit")
}

func TestNoReferenceNode(t *testing.T) {
	c := New()
	c.AddResistor("R1", "1", "2", 1000)
	_, err := c.Solve()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Error(), "no 0 node in circuit")
}

func TestGroundAlias(t *testing.T) {
	c := New()
	c.AddVoltageSource("V1", "1", "gnd", 10)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddResistor("R2", "2", "gnd", 1000)

	_, err := c.Solve()
	require.NoError(t, err)
	require.InDelta(t, 5.0, value(t, c, "v2"), 1e-9)
}

func TestValuesSolutionBeforeSolve(t *testing.T) {
	c := divider()
	_, err := c.ValuesSolution()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestConflictingSources(t *testing.T) {
	c := New()
	c.AddVoltageSource("V1", "1", "0", 1)
	c.AddVoltageSource("V2", "1", "0", 2)
	c.AddResistor("R1", "1", "0", 1000)

	_, err := c.Solve()
	var unsolvable *UnsolvableCircuitError
	require.ErrorAs(t, err, &unsolvable)
}

func TestSymbolicOnlyCircuit(t *testing.T) {
	// No numeric values at all: the solution stays fully symbolic and the
	// values solution is identical.
	c := New()
	c.AddVoltageSource("V1", "1", "0")
	c.AddResistor("R1", "1", "2")
	c.AddResistor("R2", "2", "0")

	sol, err := c.Solve()
	require.NoError(t, err)

	r1, _ := c.Symbol("R1")
	r2, _ := c.Symbol("R2")
	v1, _ := c.Symbol("V1")
	env := map[*symbolic.Symbol]complex128{r1: 1000, r2: 3000, v1: 8}
	v, err := sol["v2"].Eval(env)
	require.NoError(t, err)
	require.InDelta(t, 6.0, real(v), 1e-9)

	values, err := c.ValuesSolution()
	require.NoError(t, err)
	require.Equal(t, sol["v2"].String(), values["v2"].String())
}

func TestRCLowPass(t *testing.T) {
	c := New()
	c.AddVoltageSource("V1", "1", "0", 1)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddCapacitor("C1", "2", "0", 1e-6)
	c.AddVoltageProbe("vo", "2", "0")

	_, err := c.Solve()
	require.NoError(t, err)
	values, err := c.ValuesSolution()
	require.NoError(t, err)

	vo := values["vo"]
	require.True(t, vo.ContainsSymbol(c.S()))

	// DC gain 1, -3 dB at omega = 1/(R*C) = 1000 rad/s.
	env := map[*symbolic.Symbol]complex128{c.S(): 0}
	v, err := vo.Eval(env)
	require.NoError(t, err)
	require.InDelta(t, 1.0, real(v), 1e-9)

	env[c.S()] = complex(0, 1000)
	v, err = vo.Eval(env)
	require.NoError(t, err)
	mag := real(v)*real(v) + imag(v)*imag(v)
	require.InDelta(t, 0.5, mag, 1e-9)
}

func TestInductorImpedance(t *testing.T) {
	// RL divider: |vo| = |sL| / |R + sL|.
	c := New()
	c.AddVoltageSource("V1", "1", "0", 1)
	c.AddResistor("R1", "1", "2", 1000)
	c.AddInductor("L1", "2", "0", 1)
	c.AddVoltageProbe("vo", "2", "0")

	_, err := c.Solve()
	require.NoError(t, err)
	values, err := c.ValuesSolution()
	require.NoError(t, err)

	// At omega = R/L the magnitude is 1/sqrt(2).
	env := map[*symbolic.Symbol]complex128{c.S(): complex(0, 1000)}
	v, err := values["vo"].Eval(env)
	require.NoError(t, err)
	mag := real(v)*real(v) + imag(v)*imag(v)
	require.InDelta(t, 0.5, mag, 1e-9)
}
