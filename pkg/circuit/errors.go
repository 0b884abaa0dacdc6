package circuit

import "fmt"

// ConfigurationError reports a malformed circuit, detected eagerly at the
// offending call: empty registry, missing reference node, controller used
// before being defined.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "circuit configuration: " + e.Msg
}

// UnsolvableCircuitError reports that the assembled equation system has no
// unique solution: floating nodes, conflicting ideal sources, or a missing
// unknown in the solver output.
type UnsolvableCircuitError struct {
	Msg string
	Err error // underlying engine failure, if any
}

func (e *UnsolvableCircuitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsolvable circuit: %s: %v", e.Msg, e.Err)
	}
	return "unsolvable circuit: " + e.Msg
}

func (e *UnsolvableCircuitError) Unwrap() error {
	return e.Err
}
