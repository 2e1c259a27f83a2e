package experiment

import "fmt"

// InvalidSpecError reports a raw value that matches none of the recognized
// experiment input shapes.
type InvalidSpecError struct {
	Input any
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf(
		"experiment spec must be a run spec, a list of run specs, or a name-keyed mapping of run specs; got %T",
		e.Input,
	)
}
