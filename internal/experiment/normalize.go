// Package experiment normalizes heterogeneous experiment input into a
// canonical ordered batch of validated run definitions.
//
// The caller may hand the scheduler a single run spec, a list, a
// name-keyed mapping, or nothing at all; Normalize flattens every shape
// into []domain.RunDefinition so downstream code never type-sniffs. A
// batch either fully normalizes or the whole call fails: no partially
// validated batch ever reaches the scheduler.
package experiment

import (
	"fmt"

	"github.com/tessera-ml/tessera-go/internal/domain"
)

// Normalize turns a classified input into an ordered batch of validated
// run definitions. It is pure: no I/O, no mutation of the input, and it
// is idempotent on already-normalized definitions.
func Normalize(input SpecInput, kinds domain.KindResolver) ([]domain.RunDefinition, error) {
	switch v := input.(type) {
	case nil:
		return []domain.RunDefinition{}, nil
	case Single:
		def, err := build(v.Spec, kinds)
		if err != nil {
			return nil, err
		}
		return []domain.RunDefinition{def}, nil
	case Many:
		defs := make([]domain.RunDefinition, 0, len(v.Specs))
		for i, spec := range v.Specs {
			def, err := build(spec, kinds)
			if err != nil {
				return nil, fmt.Errorf("spec %d: %w", i, err)
			}
			defs = append(defs, def)
		}
		return defs, nil
	case Named:
		defs := make([]domain.RunDefinition, 0, len(v.Order))
		for _, name := range v.Order {
			spec, ok := v.Specs[name]
			if !ok {
				return nil, fmt.Errorf("spec %q listed in order but not defined", name)
			}
			spec.Name = name
			def, err := build(spec, kinds)
			if err != nil {
				return nil, fmt.Errorf("spec %q: %w", name, err)
			}
			defs = append(defs, def)
		}
		return defs, nil
	default:
		return nil, &InvalidSpecError{Input: input}
	}
}

// NormalizeRaw classifies and normalizes in one step, for callers holding
// an unclassified value.
func NormalizeRaw(raw any, kinds domain.KindResolver) ([]domain.RunDefinition, error) {
	input, err := Classify(raw)
	if err != nil {
		return nil, err
	}
	return Normalize(input, kinds)
}

func build(spec Spec, kinds domain.KindResolver) (domain.RunDefinition, error) {
	return domain.NewRunDefinition(spec.Name, spec.Trainable, spec.Config, spec.Checkpoint, kinds)
}
