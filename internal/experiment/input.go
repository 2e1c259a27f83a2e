package experiment

import (
	"sort"

	"github.com/tessera-ml/tessera-go/internal/domain"
)

// Spec carries the raw fields of one run before validation. Construction
// of the RunDefinition is where the fields are checked.
type Spec struct {
	Name       string
	Trainable  domain.TrainableRef
	Config     any
	Checkpoint domain.CheckpointConfig
}

// SpecInput is the classified form of a caller's raw experiment input: a
// closed sum over the recognized shapes. A nil SpecInput means "no
// experiments". Values are produced by Classify or built directly by
// adapters that already know the shape (e.g. the suite parser).
type SpecInput interface {
	specInput()
}

// Single wraps one run spec.
type Single struct {
	Spec Spec
}

// Many wraps an ordered list of run specs.
type Many struct {
	Specs []Spec
}

// Named wraps a name-keyed collection of run specs. Order lists the keys
// in their declared order; every key in Order must be present in Specs.
type Named struct {
	Order []string
	Specs map[string]Spec
}

func (Single) specInput() {}
func (Many) specInput()   {}
func (Named) specInput()  {}

// Classify maps an arbitrary caller value onto the SpecInput sum. Raw Go
// maps carry no declared order, so their keys are taken in sorted order;
// callers that need a specific order build a Named directly.
func Classify(raw any) (SpecInput, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case SpecInput:
		return v, nil
	case Spec:
		return Single{Spec: v}, nil
	case *Spec:
		if v == nil {
			return nil, nil
		}
		return Single{Spec: *v}, nil
	case domain.RunDefinition:
		return Single{Spec: specFromDefinition(v)}, nil
	case []Spec:
		return Many{Specs: v}, nil
	case []domain.RunDefinition:
		specs := make([]Spec, 0, len(v))
		for _, def := range v {
			specs = append(specs, specFromDefinition(def))
		}
		return Many{Specs: specs}, nil
	case []any:
		specs := make([]Spec, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case Spec:
				specs = append(specs, s)
			case domain.RunDefinition:
				specs = append(specs, specFromDefinition(s))
			default:
				return nil, &InvalidSpecError{Input: item}
			}
		}
		return Many{Specs: specs}, nil
	case map[string]Spec:
		return namedFromMap(v), nil
	case map[string]domain.RunDefinition:
		specs := make(map[string]Spec, len(v))
		for name, def := range v {
			specs[name] = specFromDefinition(def)
		}
		return namedFromMap(specs), nil
	default:
		return nil, &InvalidSpecError{Input: raw}
	}
}

func namedFromMap(specs map[string]Spec) Named {
	order := make([]string, 0, len(specs))
	for name := range specs {
		order = append(order, name)
	}
	sort.Strings(order)
	return Named{Order: order, Specs: specs}
}

func specFromDefinition(def domain.RunDefinition) Spec {
	return Spec{
		Name:       def.Name,
		Trainable:  def.Trainable,
		Config:     def.Config,
		Checkpoint: def.Checkpoint,
	}
}
