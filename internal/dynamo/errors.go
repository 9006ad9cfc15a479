package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidBody indicates spawn parameters that cannot describe a physical body.
	ErrInvalidBody = errors.New("dynamo: invalid body (size and mass must be positive and finite)")

	// ErrInvalidStep indicates a non-positive or non-finite step duration.
	ErrInvalidStep = errors.New("dynamo: invalid step duration")

	// ErrInvalidImpact indicates NaN or negative inputs to the impact energy computation.
	ErrInvalidImpact = errors.New("dynamo: invalid impact parameters")

	// ErrLayerOrder indicates an atmosphere table whose altitudes are not strictly increasing.
	ErrLayerOrder = errors.New("dynamo: atmosphere layers must be strictly increasing in altitude")

	// ErrNonFinite indicates a state that became NaN or Inf during integration.
	ErrNonFinite = errors.New("dynamo: non-finite state (NaN or Inf detected)")

	// ErrUnknownBody indicates a handle that was never issued or no longer
	// refers to an active body.
	ErrUnknownBody = errors.New("dynamo: unknown body handle")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	BodyID  uint64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) body %d: %v", e.Step, e.Time, e.BodyID, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
