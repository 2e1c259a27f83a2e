package domain

import "fmt"

// ConfigTypeError reports a run config that is neither a mapping nor
// convertible to one.
type ConfigTypeError struct {
	Value any
}

func (e *ConfigTypeError) Error() string {
	return fmt.Sprintf("run config must be a string-keyed mapping or expose ToMapping, got %T (%v)", e.Value, e.Value)
}

// CheckpointPolicyError reports a checkpoint policy set on a trainable kind
// that cannot honor it.
type CheckpointPolicyError struct {
	Field string
	Kind  TrainableKind
}

func (e *CheckpointPolicyError) Error() string {
	return fmt.Sprintf(
		"%s requires a class trainable: a %s trainable has no checkpoint/restore lifecycle to drive",
		e.Field, e.Kind,
	)
}
