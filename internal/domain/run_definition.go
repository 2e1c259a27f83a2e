package domain

import (
	"errors"
	"fmt"
	"strings"
)

// CheckpointConfig describes when a run's state is persisted. The zero
// value means never: no checkpoint at end, no periodic checkpoints.
type CheckpointConfig struct {
	AtEnd     bool
	Frequency int
}

// Enabled reports whether any checkpointing is requested.
func (c CheckpointConfig) Enabled() bool {
	return c.AtEnd || c.Frequency != 0
}

// RunDefinition is the canonical, validated description of one trainable
// invocation. Instances are only created through NewRunDefinition, which
// fails instead of producing a half-valid definition; after construction a
// definition is handed off immutably and never mutated here.
type RunDefinition struct {
	Name       string
	Trainable  TrainableRef
	Config     Metadata
	Checkpoint CheckpointConfig
}

// NewRunDefinition validates and constructs a RunDefinition.
//
// Validation order: config shape, checkpoint policy against the trainable
// kind, then the name. Errors carry the offending field and value so the
// caller can fix the spec without reading this code.
func NewRunDefinition(name string, trainable TrainableRef, config any, checkpoint CheckpointConfig, kinds KindResolver) (RunDefinition, error) {
	cfg, err := normalizeConfig(config)
	if err != nil {
		return RunDefinition{}, err
	}

	kind, err := trainable.Kind(kinds)
	if err != nil {
		return RunDefinition{}, err
	}
	if checkpoint.Frequency < 0 {
		return RunDefinition{}, fmt.Errorf("checkpoint frequency must be >= 0, got %d", checkpoint.Frequency)
	}
	if kind == TrainableFunction {
		if checkpoint.AtEnd {
			return RunDefinition{}, &CheckpointPolicyError{Field: "checkpoint_at_end", Kind: kind}
		}
		if checkpoint.Frequency != 0 {
			return RunDefinition{}, &CheckpointPolicyError{Field: "checkpoint_frequency", Kind: kind}
		}
	}

	if strings.TrimSpace(name) == "" {
		return RunDefinition{}, errors.New("run name is required")
	}

	return RunDefinition{
		Name:       name,
		Trainable:  trainable,
		Config:     cfg,
		Checkpoint: checkpoint,
	}, nil
}
