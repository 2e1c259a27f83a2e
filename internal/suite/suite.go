// Package suite parses YAML experiment-suite documents into normalizer
// input. A suite names a set of runs under an ordered experiments mapping:
//
//	experiments:
//	  cifar-baseline:
//	    run: train_cifar
//	    config:
//	      lr: 0.01
//	    checkpoint:
//	      at_end: true
//	      frequency: 5
//
// Document order of the mapping keys is preserved, so the normalized batch
// comes out in the order the suite author wrote.
package suite

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tessera-ml/tessera-go/internal/domain"
	"github.com/tessera-ml/tessera-go/internal/experiment"
)

// Entry is one named run in a suite document.
type Entry struct {
	Name       string
	Run        string
	Config     map[string]any
	Checkpoint domain.CheckpointConfig
}

// Document is a parsed suite: entries in document order.
type Document struct {
	Entries []Entry
}

type entrySpec struct {
	Run        string         `yaml:"run"`
	Config     map[string]any `yaml:"config"`
	Checkpoint struct {
		AtEnd     bool `yaml:"at_end"`
		Frequency int  `yaml:"frequency"`
	} `yaml:"checkpoint"`
}

// Parse decodes a suite document. The experiments mapping is decoded
// through yaml.Node so key order survives; plain struct decoding would
// lose it.
func Parse(data []byte) (Document, error) {
	var root struct {
		Experiments yaml.Node `yaml:"experiments"`
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Document{}, fmt.Errorf("parse suite: %w", err)
	}
	if root.Experiments.IsZero() {
		return Document{}, errors.New("suite document has no experiments mapping")
	}
	if root.Experiments.Kind != yaml.MappingNode {
		return Document{}, fmt.Errorf("experiments must be a mapping, got %s", nodeKind(root.Experiments.Kind))
	}

	content := root.Experiments.Content
	entries := make([]Entry, 0, len(content)/2)
	seen := make(map[string]struct{}, len(content)/2)
	for i := 0; i+1 < len(content); i += 2 {
		keyNode, valueNode := content[i], content[i+1]
		name := strings.TrimSpace(keyNode.Value)
		if name == "" {
			return Document{}, fmt.Errorf("experiment name at line %d is empty", keyNode.Line)
		}
		if _, dup := seen[name]; dup {
			return Document{}, fmt.Errorf("experiment %q is defined twice", name)
		}
		seen[name] = struct{}{}

		var spec entrySpec
		if err := valueNode.Decode(&spec); err != nil {
			return Document{}, fmt.Errorf("experiment %q: %w", name, err)
		}
		if strings.TrimSpace(spec.Run) == "" {
			return Document{}, fmt.Errorf("experiment %q: run is required", name)
		}

		entries = append(entries, Entry{
			Name:   name,
			Run:    spec.Run,
			Config: spec.Config,
			Checkpoint: domain.CheckpointConfig{
				AtEnd:     spec.Checkpoint.AtEnd,
				Frequency: spec.Checkpoint.Frequency,
			},
		})
	}
	return Document{Entries: entries}, nil
}

// SpecInput renders the document as normalizer input, keys in document
// order.
func (d Document) SpecInput() experiment.Named {
	order := make([]string, 0, len(d.Entries))
	specs := make(map[string]experiment.Spec, len(d.Entries))
	for _, entry := range d.Entries {
		order = append(order, entry.Name)
		specs[entry.Name] = experiment.Spec{
			Name:       entry.Name,
			Trainable:  domain.TrainableByName(entry.Run),
			Config:     entry.Config,
			Checkpoint: entry.Checkpoint,
		}
	}
	return experiment.Named{Order: order, Specs: specs}
}

func nodeKind(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
